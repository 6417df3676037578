package localize

import (
	"context"
	"fmt"
	"strings"
)

// Pair maps a source-language phrase to its replacement.
type Pair struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// Table is an ordered phrase substitution table. Untranslated is a format
// string with one %s used when no phrase matched.
type Table struct {
	Untranslated string `yaml:"untranslated"`
	Pairs        []Pair `yaml:"pairs"`
}

// Translate applies every pair in order, replacing all occurrences. If
// nothing changed, the text is wrapped with the untranslated marker so a
// caption never goes out purely in the source language.
func (t Table) Translate(text string) string {
	result := t.Substitute(text)
	if result == text {
		return t.Wrap(text)
	}
	return result
}

// Substitute applies the pairs without the untranslated fallback.
func (t Table) Substitute(text string) string {
	result := text
	for _, p := range t.Pairs {
		result = strings.ReplaceAll(result, p.From, p.To)
	}
	return result
}

// Wrap decorates text as untranslated.
func (t Table) Wrap(text string) string {
	return fmt.Sprintf(t.Untranslated, text)
}

// Matches reports whether any source phrase occurs in text.
func (t Table) Matches(text string) bool {
	for _, p := range t.Pairs {
		if strings.Contains(text, p.From) {
			return true
		}
	}
	return false
}

// Translator turns a source-language title into caption text.
type Translator interface {
	Translate(ctx context.Context, text string) string
}

// TableTranslator translates with the fixed table only.
type TableTranslator struct {
	Table Table
}

func (t TableTranslator) Translate(_ context.Context, text string) string {
	return t.Table.Translate(text)
}
