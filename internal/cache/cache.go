// Package cache keeps resolved card records on disk so repeated runs over
// the same deck list do not hit the network
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arcanaland/proxymancer/internal/card"
)

// Store is a directory of JSON card records
type Store struct {
	base    string
	dataDir string
	log     *slog.Logger
}

// New opens (and creates) a store rooted at base
func New(base string, log *slog.Logger) (*Store, error) {
	s := &Store{base: base, dataDir: filepath.Join(base, "data"), log: log}
	if err := os.MkdirAll(s.dataDir, 0755); err != nil {
		return nil, fmt.Errorf("error creating cache directory: %w", err)
	}
	return s, nil
}

// Dir returns the store's root directory
func (s *Store) Dir() string {
	return s.base
}

// Path returns the file used for a name with an optional set code and
// collector number. Different printings of one name get separate files
func (s *Store) Path(name, set, number string) string {
	filename := card.SanitizeName(name)
	if set != "" {
		filename += "." + strings.ToUpper(set)
	}
	if number != "" {
		filename += "." + card.SanitizeName(number)
	}
	return filepath.Join(s.dataDir, filename+".json")
}

// Get returns the cached record for name, set and number, if any
func (s *Store) Get(name, set, number string) (card.Card, bool, error) {
	path := s.Path(name, set, number)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return card.Card{}, false, nil
	}
	if err != nil {
		return card.Card{}, false, err
	}

	var c card.Card
	if err := json.Unmarshal(data, &c); err != nil {
		return card.Card{}, false, fmt.Errorf("corrupt cache entry %s: %w", path, err)
	}
	s.log.Debug("[cache] READ", "path", path)
	return c, true, nil
}

// Put stores c under name, set and number
func (s *Store) Put(name, set, number string, c card.Card) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	path := s.Path(name, set, number)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("error writing cache entry: %w", err)
	}
	s.log.Debug("[cache] CREATE", "path", path)
	return nil
}

// Entry is one cached record as listed by List
type Entry struct {
	Key  string
	Card card.Card
}

// List returns every cached record sorted by key
func (s *Store) List() ([]Entry, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, err
	}

	var out []Entry
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dataDir, e.Name()))
		if err != nil {
			return nil, err
		}
		var c card.Card
		if err := json.Unmarshal(data, &c); err != nil {
			s.log.Warn("skipping corrupt cache entry", "file", e.Name(), "error", err)
			continue
		}
		out = append(out, Entry{Key: card.UnsanitizeName(strings.TrimSuffix(e.Name(), ".json")), Card: c})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Clear removes everything under the store's root and recreates it
func (s *Store) Clear() error {
	if err := os.RemoveAll(s.base); err != nil {
		return err
	}
	return os.MkdirAll(s.dataDir, 0755)
}
