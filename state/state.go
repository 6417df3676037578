package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// PublishState remembers the most recently published item.
type PublishState struct {
	LastPost *string `json:"last_post"`
}

// IsLast reports whether id is the recorded last post.
func (s PublishState) IsLast(id string) bool {
	return s.LastPost != nil && *s.LastPost == id
}

// Analytics counts successful publishes across runs.
type Analytics struct {
	PostsSent int `json:"posts_sent"`
}

// LoadPublishState reads the state file. A missing file yields the zero
// state.
func LoadPublishState(path string) (PublishState, error) {
	var st PublishState
	if err := readJSON(path, &st); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return PublishState{}, nil
		}
		return PublishState{}, err
	}
	return st, nil
}

// SavePublishState overwrites the state file with lastPost.
func SavePublishState(path, lastPost string) error {
	return writeJSON(path, PublishState{LastPost: &lastPost})
}

// LoadAnalytics reads the analytics file, creating it with zero counts when
// it does not exist yet.
func LoadAnalytics(path string) (Analytics, error) {
	var a Analytics
	err := readJSON(path, &a)
	if errors.Is(err, os.ErrNotExist) {
		return Analytics{}, writeJSON(path, Analytics{})
	}
	if err != nil {
		return Analytics{}, err
	}
	return a, nil
}

// IncrementPostsSent adds one to posts_sent and writes the file back.
func IncrementPostsSent(path string) (Analytics, error) {
	a, err := LoadAnalytics(path)
	if err != nil {
		return Analytics{}, err
	}
	a.PostsSent++
	return a, writeJSON(path, a)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces path atomically so a crash never leaves a truncated file.
func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
