package viewmodel

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/itiky/blogsync/model"
)

// Preferences is the persisted list filter.
type Preferences struct {
	BlogFilter string `toml:"blog_filter"`
	BlogOrder  string `toml:"blog_order"`
}

// LoadPreferences reads the preferences file, a missing file yields the defaults.
func LoadPreferences(path string) (Preferences, error) {
	defaults := Preferences{
		BlogFilter: string(model.BlogFilterDateUpdated),
		BlogOrder:  string(model.BlogOrderDesc),
	}
	if path == "" {
		return defaults, nil
	}

	prefs := defaults
	if _, err := toml.DecodeFile(path, &prefs); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return defaults, nil
		}
		return Preferences{}, fmt.Errorf("decode preferences (%s): %w", path, err)
	}

	// Unknown values fall back to the defaults
	order, filter := model.ParseFilterAndOrder(prefs.BlogOrder + prefs.BlogFilter)

	return Preferences{BlogFilter: string(filter), BlogOrder: string(order)}, nil
}

// SavePreferences writes the preferences file atomically.
func SavePreferences(path string, prefs Preferences) error {
	if path == "" {
		return nil
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := toml.NewEncoder(tmp).Encode(prefs); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("encode preferences: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename (%s): %w", path, err)
	}

	return nil
}
