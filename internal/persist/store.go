// Package persist stores named JSON records in the state directory.
package persist

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"unicode"

	"github.com/gofrs/flock"

	"pkt.systems/hintx/schema"
	"pkt.systems/pslog"
)

// KeyTabsByRecency holds the per-window tab recency lists.
const KeyTabsByRecency = "tabsByRecency"

// ErrStateLocked indicates another process holds the state directory.
var ErrStateLocked = errors.New("state directory is locked by another process")

// Store persists records to disk, one file per key. Get and Set are each
// atomic on their own; a Get followed by a Set is not.
type Store struct {
	dir  string
	log  pslog.Logger
	lock *flock.Flock
	mu   sync.Mutex
}

// Open constructs a store at dir and takes an exclusive lock on it.
func Open(dir string) (*Store, error) {
	return OpenWithLogger(dir, nil)
}

// OpenWithLogger constructs a store with logging.
func OpenWithLogger(dir string, logger pslog.Logger) (*Store, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("state directory is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	if logger != nil {
		logger = logger.With("state_dir", dir)
	}
	lock := flock.New(filepath.Join(dir, "state.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("lock state directory: %w", err)
	}
	if !locked {
		return nil, ErrStateLocked
	}
	return &Store{dir: dir, log: logger, lock: lock}, nil
}

// Close releases the state directory lock.
func (s *Store) Close() error {
	if s == nil || s.lock == nil {
		return nil
	}
	return s.lock.Unlock()
}

// Get decodes the record stored under key into dst. It reports false when the
// record does not exist.
func (s *Store) Get(key string, dst any) (bool, error) {
	path := s.pathForKey(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if s.log != nil {
				s.log.Debug("state load miss", "key", key)
			}
			return false, nil
		}
		if s.log != nil {
			s.log.Warn("state load failed", "key", key, "err", err)
		}
		return false, err
	}
	if err := json.Unmarshal(data, dst); err != nil {
		if s.log != nil {
			s.log.Warn("state load failed", "key", key, "err", err)
		}
		return false, err
	}
	if s.log != nil {
		s.log.Trace("state load ok", "key", key, "bytes", len(data))
	}
	return true, nil
}

// Set writes value under key, replacing the previous record atomically.
func (s *Store) Set(key string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "key", key, "err", err)
		}
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.writeFile(s.pathForKey(key), data); err != nil {
		if s.log != nil {
			s.log.Warn("state save failed", "key", key, "err", err)
		}
		return err
	}
	if s.log != nil {
		s.log.Trace("state save ok", "key", key, "bytes", len(data))
	}
	return nil
}

func (s *Store) writeFile(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "state-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o600); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// LoadTabsByRecency reads the per-window recency lists.
func (s *Store) LoadTabsByRecency() (map[schema.WindowID][]schema.TabID, error) {
	out := map[schema.WindowID][]schema.TabID{}
	if _, err := s.Get(KeyTabsByRecency, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SaveTabsByRecency writes the per-window recency lists.
func (s *Store) SaveTabsByRecency(lists map[schema.WindowID][]schema.TabID) error {
	return s.Set(KeyTabsByRecency, lists)
}

func (s *Store) pathForKey(key string) string {
	name := sanitize(key)
	if name == "" {
		name = "unknown"
	}
	return filepath.Join(s.dir, name+".json")
}

func sanitize(value string) string {
	var b strings.Builder
	for _, r := range value {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
			continue
		}
		if r == '-' || r == '_' || r == '.' {
			b.WriteRune(r)
			continue
		}
		b.WriteRune('_')
	}
	return b.String()
}
