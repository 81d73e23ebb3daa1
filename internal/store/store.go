// Package store persists declared server configurations as a flat JSON
// array of schema-versioned records. The store is the single source of
// truth for server status; only the supervisor writes to it.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"runtimed/pkg/types"
)

// Store holds ServerConfig records in memory and mirrors every mutation to
// disk. An absent file is treated as "no servers configured" and created
// empty rather than reported as an error.
type Store struct {
	mu      sync.RWMutex
	path    string
	servers []types.ServerConfig
}

// Open loads the store at path, creating an empty file if none exists.
func Open(path string) (*Store, error) {
	p, err := expandHome(path)
	if err != nil {
		return nil, err
	}
	s := &Store{path: p}
	b, err := os.ReadFile(p)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("read state file: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return nil, fmt.Errorf("create state dir: %w", err)
		}
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}
	if len(b) > 0 {
		if err := json.Unmarshal(b, &s.servers); err != nil {
			return nil, fmt.Errorf("parse state file: %w", err)
		}
	}
	return s, nil
}

// Path returns the resolved on-disk location of the store.
func (s *Store) Path() string { return s.path }

// List returns a copy of all persisted configs.
func (s *Store) List() []types.ServerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.ServerConfig, len(s.servers))
	copy(out, s.servers)
	return out
}

// Get returns the config for id, if present.
func (s *Store) Get(id string) (types.ServerConfig, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sc := range s.servers {
		if sc.ID == id {
			return sc, true
		}
	}
	return types.ServerConfig{}, false
}

// Upsert inserts or replaces the record with cfg.ID and persists.
// The current schema version is stamped onto the record.
func (s *Store) Upsert(cfg types.ServerConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg.SchemaVersion = types.SchemaVersion
	for i, sc := range s.servers {
		if sc.ID == cfg.ID {
			s.servers[i] = cfg
			return s.flush()
		}
	}
	s.servers = append(s.servers, cfg)
	return s.flush()
}

// Delete removes the record with id and persists. Missing ids are a no-op.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sc := range s.servers {
		if sc.ID == id {
			s.servers = append(s.servers[:i], s.servers[i+1:]...)
			return s.flush()
		}
	}
	return nil
}

// flush writes the full array atomically (temp file + rename).
// Callers must hold s.mu.
func (s *Store) flush() error {
	b, err := json.MarshalIndent(s.servers, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if s.servers == nil {
		b = []byte("[]")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

// expandHome expands a leading '~' to the user's home directory.
func expandHome(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty state file path")
	}
	if path[0] != '~' {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("home dir: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
}
