package localize

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed tables.yaml
var defaultTables []byte

// Category is a coarse topic bucket used to pick caption assets.
type Category string

const (
	Town    Category = "town"
	Food    Category = "food"
	Beach   Category = "beach"
	Travel  Category = "travel"
	Default Category = "default"
)

// Bucket holds the keywords and decorative assets of one category.
type Bucket struct {
	Key          Category `yaml:"key"`
	Keywords     []string `yaml:"keywords"`
	Descriptions []string `yaml:"descriptions"`
	Hashtags     []string `yaml:"hashtags"`
	Emoji        []string `yaml:"emoji"`
}

// Tables is the full set of constant lookup data. It is read once and never
// mutated afterwards.
type Tables struct {
	Translation Table    `yaml:"translation"`
	Categories  []Bucket `yaml:"categories"`
	Sparkles    []string `yaml:"sparkles"`
	AdLinks     []string `yaml:"ad_links"`
}

var (
	defaultOnce sync.Once
	defaultTbl  *Tables
)

// DefaultTables returns the embedded tables.
func DefaultTables() *Tables {
	defaultOnce.Do(func() {
		t, err := ParseTables(defaultTables)
		if err != nil {
			panic(fmt.Sprintf("localize: embedded tables: %v", err))
		}
		defaultTbl = t
	})
	return defaultTbl
}

// ParseTables decodes and validates a YAML table document.
func ParseTables(data []byte) (*Tables, error) {
	var t Tables
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing tables: %w", err)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	for i := range t.Categories {
		for j, kw := range t.Categories[i].Keywords {
			t.Categories[i].Keywords[j] = strings.ToLower(kw)
		}
	}
	return &t, nil
}

func (t *Tables) validate() error {
	if !strings.Contains(t.Translation.Untranslated, "%s") {
		return errors.New("translation.untranslated must contain %s")
	}
	for i, p := range t.Translation.Pairs {
		if p.From == "" {
			return fmt.Errorf("translation pair %d: empty source phrase", i)
		}
	}
	var hasDefault bool
	for _, b := range t.Categories {
		if b.Key == Default {
			hasDefault = true
			if len(b.Descriptions) == 0 || len(b.Hashtags) == 0 || len(b.Emoji) == 0 {
				return errors.New("default category needs descriptions, hashtags and emoji")
			}
		}
	}
	if !hasDefault {
		return errors.New("tables must define a default category")
	}
	if len(t.Sparkles) == 0 || len(t.AdLinks) == 0 {
		return errors.New("sparkles and ad_links must not be empty")
	}
	return nil
}

// Bucket returns the assets for c. Unknown categories and empty asset lists
// fall back to the default bucket.
func (t *Tables) Bucket(c Category) Bucket {
	var def, found Bucket
	var ok bool
	for _, b := range t.Categories {
		if b.Key == Default {
			def = b
		}
		if b.Key == c {
			found, ok = b, true
		}
	}
	if !ok {
		return def
	}
	if len(found.Descriptions) == 0 {
		found.Descriptions = def.Descriptions
	}
	if len(found.Hashtags) == 0 {
		found.Hashtags = def.Hashtags
	}
	if len(found.Emoji) == 0 {
		found.Emoji = def.Emoji
	}
	return found
}

// CategoryOf lowercases title and returns the first category, in declared
// order, with a keyword contained in it.
func (t *Tables) CategoryOf(title string) Category {
	lower := strings.ToLower(title)
	for _, b := range t.Categories {
		for _, kw := range b.Keywords {
			if kw != "" && strings.Contains(lower, kw) {
				return b.Key
			}
		}
	}
	return Default
}

// CategoryOf classifies title using the embedded tables.
func CategoryOf(title string) Category {
	return DefaultTables().CategoryOf(title)
}
