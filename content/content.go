package content

import (
	"crypto/sha256"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

var (
	// ErrResourceNotFound is returned when the content file (or its
	// directory) does not exist.
	ErrResourceNotFound = errors.New("content file not found")
	// ErrInvalidField marks a row or header that cannot be parsed.
	ErrInvalidField = errors.New("invalid field")
)

// FieldError describes one malformed row. The row is skipped.
type FieldError struct {
	Row   int
	Field string
	Value string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: field %s=%q: %v", e.Row, e.Field, e.Value, e.Err)
}

func (e *FieldError) Unwrap() []error { return []error{ErrInvalidField, e.Err} }

// Item is one post candidate read from the content file.
type Item struct {
	Title     string
	Source    string
	Likes     int
	Timestamp string
	TitleFA   string
	BodyFA    string
	MediaURL  string
	Tags      []string
	// Row is the 1-based data row number (header excluded).
	Row int
}

// ID identifies the item for run-to-run dedup: the timestamp column when
// present, otherwise a hash of the title.
func (it Item) ID() string {
	if it.Timestamp != "" {
		return it.Timestamp
	}
	h := sha256.Sum256([]byte(strings.TrimSpace(it.Title)))
	return fmt.Sprintf("%x", h[:16])
}

// Result is the outcome of reading a content file. RowErrors holds one
// error per skipped malformed row.
type Result struct {
	Items     []Item
	RowErrors []error
}

// ReadItems parses the CSV file at path.
func ReadItems(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Result{}, fmt.Errorf("%w: %s", ErrResourceNotFound, path)
		}
		return Result{}, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads CSV content with a header row from r.
func Parse(r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return Result{}, nil
		}
		return Result{}, fmt.Errorf("reading header: %w", err)
	}
	cols := indexHeader(header)
	if _, ok := cols["title"]; !ok {
		return Result{}, fmt.Errorf("%w: header has no title column", ErrInvalidField)
	}

	var res Result
	row := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		row++
		if err != nil {
			// csv.ParseError leaves the reader usable for the next record.
			res.RowErrors = append(res.RowErrors, &FieldError{Row: row, Field: "record", Err: err})
			continue
		}

		get := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		title := get("title")
		if title == "" {
			continue
		}

		likes, err := parseLikes(get("likes"))
		if err != nil {
			res.RowErrors = append(res.RowErrors, &FieldError{Row: row, Field: "likes", Value: get("likes"), Err: err})
			continue
		}

		res.Items = append(res.Items, Item{
			Title:     title,
			Source:    get("source"),
			Likes:     likes,
			Timestamp: get("timestamp"),
			TitleFA:   get("title_fa"),
			BodyFA:    get("body_fa"),
			MediaURL:  get("media_url"),
			Tags:      ParseTags(get("tags")),
			Row:       row,
		})
	}
	return res, nil
}

func indexHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.ToLower(strings.TrimSpace(name))
		if _, dup := cols[name]; !dup && name != "" {
			cols[name] = i
		}
	}
	return cols
}

func parseLikes(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("likes must not be negative")
	}
	return n, nil
}

// ParseTags splits a tags cell on comma, semicolon or pipe and normalises
// each tag into hashtag form.
func ParseTags(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.Join(strings.Fields(p), "_")
		p = strings.TrimLeft(p, "#")
		if p == "" {
			continue
		}
		tags = append(tags, "#"+p)
	}
	return tags
}
