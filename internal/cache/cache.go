// Package cache persists segment scores keyed by a content hash of the
// segment's normalized text. Entries never expire: identical text across
// runs never re-queries the remote model.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store is a flat hash→score map, read at startup and flushed after each
// scoring group. It is shared read+write by concurrent batches, so all
// access goes through the mutex.
type Store struct {
	mu     sync.Mutex
	path   string
	scores map[string]int
	dirty  bool
}

// Open loads the cache at path. A missing file yields an empty store; a
// corrupt one is an error so a real problem is not silently discarded.
func Open(path string) (*Store, error) {
	s := &Store{path: path, scores: make(map[string]int)}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache: %w", err)
	}
	if err := json.Unmarshal(b, &s.scores); err != nil {
		return nil, fmt.Errorf("parse cache %s: %w", path, err)
	}
	return s, nil
}

// Key hashes the normalized segment text. Normalization keeps hits stable
// across incidental whitespace and casing differences in re-parsed
// subtitles.
func Key(text string) string {
	norm := strings.ToLower(strings.Join(strings.Fields(text), " "))
	sum := sha256.Sum256([]byte(norm))
	return hex.EncodeToString(sum[:])
}

func (s *Store) Get(key string) (int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.scores[key]
	return v, ok
}

func (s *Store) Put(key string, score int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if old, ok := s.scores[key]; ok && old == score {
		return
	}
	s.scores[key] = score
	s.dirty = true
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.scores)
}

// Flush writes the map back to disk if anything changed since the last
// flush. The write goes through a temp file and rename so a crash cannot
// truncate the cache.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil
	}
	b, err := json.MarshalIndent(s.scores, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	s.dirty = false
	return nil
}
