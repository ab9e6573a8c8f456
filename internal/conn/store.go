package conn

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/unkn0wn-root/esterm/internal/errdef"
)

// Store persists profiles as a JSON array on disk. Loading is lazy and
// writes go through a temp file so a crash never truncates the list.
type Store struct {
	path string

	mu       sync.RWMutex
	profiles []Profile
	loaded   bool
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ensureLoadedLocked()
}

// All returns the profiles sorted by name.
func (s *Store) All() ([]Profile, error) {
	s.mu.Lock()
	if err := s.ensureLoadedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	s.mu.Unlock()

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Profile, len(s.profiles))
	copy(out, s.profiles)
	return out, nil
}

func (s *Store) Get(id string) (Profile, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return Profile{}, false, err
	}
	for _, p := range s.profiles {
		if p.ID == id {
			return p, true, nil
		}
	}
	return Profile{}, false, nil
}

// Save upserts a profile. A profile without an ID gets one and its
// creation time; matching IDs are replaced in place. The stored copy is
// returned so callers see the assigned ID and timestamps.
func (s *Store) Save(p Profile) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return Profile{}, err
	}

	now := time.Now().UTC()
	p.UpdatedAt = now
	if p.ID == "" {
		p.ID = uuid.NewString()
		p.CreatedAt = now
	}

	replaced := false
	for i := range s.profiles {
		if s.profiles[i].ID == p.ID {
			if p.CreatedAt.IsZero() {
				p.CreatedAt = s.profiles[i].CreatedAt
			}
			s.profiles[i] = p
			replaced = true
			break
		}
	}
	if !replaced {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		s.profiles = append(s.profiles, p)
	}
	s.sortLocked()

	if err := s.persistLocked(); err != nil {
		return Profile{}, err
	}
	return p, nil
}

func (s *Store) Delete(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.ensureLoadedLocked(); err != nil {
		return false, err
	}
	for i := range s.profiles {
		if s.profiles[i].ID == id {
			s.profiles = append(s.profiles[:i], s.profiles[i+1:]...)
			return true, s.persistLocked()
		}
	}
	return false, nil
}

func (s *Store) sortLocked() {
	sort.SliceStable(s.profiles, func(i, j int) bool {
		a := strings.ToLower(s.profiles[i].Name)
		b := strings.ToLower(s.profiles[j].Name)
		if a == b {
			return s.profiles[i].CreatedAt.Before(s.profiles[j].CreatedAt)
		}
		return a < b
	})
}

func (s *Store) ensureLoadedLocked() error {
	if s.loaded {
		return nil
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.profiles = nil
			s.loaded = true
			return nil
		}
		return errdef.Wrap(errdef.CodeProfile, err, "read profiles")
	}
	if len(data) == 0 {
		s.profiles = nil
		s.loaded = true
		return nil
	}
	var profiles []Profile
	if err := json.Unmarshal(data, &profiles); err != nil {
		return errdef.Wrap(errdef.CodeProfile, err, "decode profiles")
	}
	s.profiles = profiles
	s.loaded = true
	s.sortLocked()
	return nil
}

func (s *Store) persistLocked() error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "create profile dir")
	}
	data, err := json.MarshalIndent(s.profiles, "", "  ")
	if err != nil {
		return errdef.Wrap(errdef.CodeProfile, err, "encode profiles")
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "write profiles")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errdef.Wrap(errdef.CodeFilesystem, err, "replace profiles")
	}
	return nil
}
