// Package rules loads the format's static rule lists: banned cards, allowed
// overrides, and singleton exceptions. Defaults are embedded in the binary;
// an optional override directory replaces individual lists and can be
// watched for changes. The loaded Rules value is immutable; reloads build a
// fresh value and swap it atomically.
package rules

import (
	"embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

//go:embed data/*.json
var defaultsFS embed.FS

// List file names, both embedded and in an override directory.
const (
	bannedFile     = "banned.json"
	allowedFile    = "allowed.json"
	exceptionsFile = "singleton_exceptions.json"
)

// NameSet is an immutable set of card names.
type NameSet struct {
	names map[string]struct{}
}

// NewNameSet builds a set from the given names.
func NewNameSet(names ...string) *NameSet {
	s := &NameSet{names: make(map[string]struct{}, len(names))}
	for _, n := range names {
		s.names[n] = struct{}{}
	}
	return s
}

// Contains reports whether name is in the set.
func (s *NameSet) Contains(name string) bool {
	if s == nil {
		return false
	}
	_, ok := s.names[name]
	return ok
}

// Len returns the number of names in the set.
func (s *NameSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.names)
}

// Rules holds one immutable snapshot of the format's rule lists.
type Rules struct {
	Banned              *NameSet
	Allowed             *NameSet
	SingletonExceptions *NameSet
}

// Provider supplies the current rule snapshot. The legality engine snapshots
// the provider once per evaluation so a reload mid-request cannot produce a
// mixed verdict.
type Provider interface {
	Current() *Rules
}

// staticProvider wraps a fixed Rules value.
type staticProvider struct {
	rules *Rules
}

func (p staticProvider) Current() *Rules { return p.rules }

// Static returns a Provider that always serves the given rules.
func Static(r *Rules) Provider {
	return staticProvider{rules: r}
}

// Service loads rule lists and serves the current snapshot.
type Service struct {
	overrideDir string

	mu      sync.RWMutex
	current *Rules
}

// NewService creates a rules service. overrideDir may be empty, in which
// case only the embedded defaults are used.
func NewService(overrideDir string) (*Service, error) {
	s := &Service{overrideDir: overrideDir}
	if err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

// Current returns the active rule snapshot.
func (s *Service) Current() *Rules {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// Reload rebuilds the rule snapshot from the embedded defaults plus any
// override files, then swaps it in.
func (s *Service) Reload() error {
	banned, err := s.loadList(bannedFile)
	if err != nil {
		return err
	}
	allowed, err := s.loadList(allowedFile)
	if err != nil {
		return err
	}
	exceptions, err := s.loadList(exceptionsFile)
	if err != nil {
		return err
	}

	next := &Rules{
		Banned:              banned,
		Allowed:             allowed,
		SingletonExceptions: exceptions,
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()

	return nil
}

// loadList reads one list, preferring the override directory over the
// embedded default.
func (s *Service) loadList(file string) (*NameSet, error) {
	if s.overrideDir != "" {
		path := filepath.Join(s.overrideDir, file)
		data, err := os.ReadFile(path)
		if err == nil {
			return parseList(file, data)
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read rule list %s: %w", path, err)
		}
	}

	data, err := defaultsFS.ReadFile("data/" + file)
	if err != nil {
		return nil, fmt.Errorf("read embedded rule list %s: %w", file, err)
	}
	return parseList(file, data)
}

func parseList(file string, data []byte) (*NameSet, error) {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("parse rule list %s: %w", file, err)
	}
	return NewNameSet(names...), nil
}
