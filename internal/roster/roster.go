package roster

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/clubhub/wifimon/internal/mac"
	"github.com/clubhub/wifimon/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Store holds the member registry in memory. The mapping is replaced
// wholesale on every mutation, so a reader racing a registration always
// observes a complete, consistent roster.
type Store struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	members map[string]model.Member
	modTime time.Time
}

func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{path: path, logger: logger, members: map[string]model.Member{}}
}

// Load reads the registry file and replaces the in-memory mapping.
func (s *Store) Load() error {
	members, modTime, err := loadFile(s.path)
	if err != nil {
		return err
	}
	s.swap(members, modTime)
	s.logger.Debug("roster loaded", "members", len(members), "path", s.path)
	return nil
}

// Reload re-reads the registry only when the file changed on disk since the
// last load. Called once per cycle; a failed reload keeps the previous
// roster.
func (s *Store) Reload() (bool, error) {
	info, err := os.Stat(s.path)
	if err != nil {
		return false, err
	}
	s.mu.RLock()
	unchanged := info.ModTime().Equal(s.modTime)
	s.mu.RUnlock()
	if unchanged {
		return false, nil
	}
	if err := s.Load(); err != nil {
		return false, err
	}
	return true, nil
}

// Lookup resolves a canonical MAC to its member.
func (s *Store) Lookup(canonical string) (model.Member, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[canonical]
	return member, ok
}

// Upsert registers a member, overwriting any earlier registration for the
// same MAC. The MAC is normalized here so aa-bb-cc and AA:BB:CC collide.
func (s *Store) Upsert(member model.Member) (model.Member, error) {
	canonical, err := mac.Normalize(member.MAC)
	if err != nil {
		return model.Member{}, err
	}
	member.MAC = canonical

	s.mu.Lock()
	next := make(map[string]model.Member, len(s.members)+1)
	for key, value := range s.members {
		next[key] = value
	}
	next[canonical] = member
	s.members = next
	s.mu.Unlock()
	return member, nil
}

// Delete removes a member by MAC. Reports whether an entry existed.
func (s *Store) Delete(raw string) (bool, error) {
	canonical, err := mac.Normalize(raw)
	if err != nil {
		return false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.members[canonical]; !ok {
		return false, nil
	}
	next := make(map[string]model.Member, len(s.members))
	for key, value := range s.members {
		if key != canonical {
			next[key] = value
		}
	}
	s.members = next
	return true, nil
}

// Members returns the roster sorted by student id then MAC.
func (s *Store) Members() []model.Member {
	s.mu.RLock()
	members := make([]model.Member, 0, len(s.members))
	for _, member := range s.members {
		members = append(members, member)
	}
	s.mu.RUnlock()

	sort.Slice(members, func(i, j int) bool {
		if members[i].StudentID != members[j].StudentID {
			return members[i].StudentID < members[j].StudentID
		}
		return members[i].MAC < members[j].MAC
	})
	return members
}

// Len reports the current roster size.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.members)
}

// Save writes the registry back to disk via a temp-file rename, so the
// external registration scripts never read a half-written file.
func (s *Store) Save() error {
	members := s.Members()
	data, err := json.MarshalIndent(members, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return err
	}
	if info, err := os.Stat(s.path); err == nil {
		s.mu.Lock()
		s.modTime = info.ModTime()
		s.mu.Unlock()
	}
	return nil
}

func (s *Store) swap(members map[string]model.Member, modTime time.Time) {
	s.mu.Lock()
	s.members = members
	s.modTime = modTime
	s.mu.Unlock()
}

func loadFile(path string) (map[string]model.Member, time.Time, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	var raw []model.Member
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, time.Time{}, fmt.Errorf("parse member registry %s: %w", path, err)
	}

	members := make(map[string]model.Member, len(raw))
	for _, member := range raw {
		canonical, err := mac.Normalize(member.MAC)
		if err != nil {
			return nil, time.Time{}, fmt.Errorf("member %q: %w", member.Name, err)
		}
		member.MAC = canonical
		members[canonical] = member
	}
	return members, info.ModTime(), nil
}
