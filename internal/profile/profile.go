// Package profile resolves operator-configured league aliases, letting tools
// refer to a league by name instead of a numeric id.
package profile

import (
	"fmt"
	"os"
	"sort"
	"sync"

	"gopkg.in/yaml.v3"
)

// League is one configured alias.
type League struct {
	Alias string `yaml:"alias"`
	ID    int    `yaml:"id"`
	Year  int    `yaml:"year"` // optional; 0 means "use the default season"
}

type document struct {
	Leagues []League `yaml:"leagues"`
}

// Store holds the current alias set. Update replaces the whole set, so a
// reload never exposes a partial view.
type Store struct {
	mu      sync.RWMutex
	byAlias map[string]League
}

func NewStore() *Store {
	return &Store{byAlias: make(map[string]League)}
}

// Update replaces all aliases.
func (s *Store) Update(leagues []League) {
	next := make(map[string]League, len(leagues))
	for _, l := range leagues {
		next[l.Alias] = l
	}

	s.mu.Lock()
	s.byAlias = next
	s.mu.Unlock()
}

// Lookup resolves an alias.
func (s *Store) Lookup(alias string) (League, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	l, ok := s.byAlias[alias]
	return l, ok
}

// Aliases returns the configured alias names, sorted.
func (s *Store) Aliases() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.byAlias))
	for name := range s.byAlias {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads and validates a league profile file.
func Load(path string) ([]League, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading league profile: %w", err)
	}

	return Parse(data)
}

// Parse validates league profile content: aliases must be unique and
// non-empty, ids positive.
func Parse(data []byte) ([]League, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing league profile: %w", err)
	}

	seen := make(map[string]struct{}, len(doc.Leagues))
	for i, l := range doc.Leagues {
		if l.Alias == "" {
			return nil, fmt.Errorf("league profile entry %d: alias is required", i)
		}
		if l.ID <= 0 {
			return nil, fmt.Errorf("league profile %q: id must be positive", l.Alias)
		}
		if _, dup := seen[l.Alias]; dup {
			return nil, fmt.Errorf("league profile %q: duplicate alias", l.Alias)
		}
		seen[l.Alias] = struct{}{}
	}

	return doc.Leagues, nil
}
