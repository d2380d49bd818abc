package records

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"betterresume/internal/logging"
	"betterresume/pkg/models"
)

// Info summarizes the records currently stored for a user. Hash is the
// content hash over the canonical JSON encoding of the records and feeds into
// the result cache signature.
type Info struct {
	Hash      string    `json:"hash"`
	Rows      int       `json:"rows"`
	UpdatedAt time.Time `json:"updated_at"`
}

type userRecords struct {
	Hash      string               `json:"hash"`
	UpdatedAt time.Time            `json:"updated_at"`
	Records   []models.RecordEntry `json:"records"`
}

// Store keeps each user's raw experience records alongside their content
// hash. The vector store holds the embedded view; this store is the source of
// truth for hashing and for the latest-experience lookup.
type Store struct {
	path  string
	mu    sync.RWMutex
	users map[string]*userRecords
}

// NewStore creates a records store persisted at the given path. A missing or
// corrupt file starts the store empty.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:  path,
		users: make(map[string]*userRecords),
	}

	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create records directory: %w", err)
		}
		s.load()
	}

	return s, nil
}

func (s *Store) load() {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var users map[string]*userRecords
	if err := json.Unmarshal(data, &users); err != nil {
		logging.GetGlobalLogger().Warn("Records file is corrupt, starting empty", map[string]interface{}{
			"path":  s.path,
			"error": err.Error(),
		})
		return
	}

	s.users = users
}

// save writes the store to disk atomically. Caller must hold the mutex.
func (s *Store) save() error {
	if s.path == "" {
		return nil
	}

	data, err := json.Marshal(s.users)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// HashRecords computes the content hash over the canonical JSON encoding of
// the records.
func HashRecords(recs []models.RecordEntry) (string, error) {
	data, err := json.Marshal(recs)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}

// Put replaces a user's records and returns the new info
func (s *Store) Put(userID string, recs []models.RecordEntry) (Info, error) {
	hash, err := HashRecords(recs)
	if err != nil {
		return Info{}, fmt.Errorf("failed to hash records: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := &userRecords{
		Hash:      hash,
		UpdatedAt: time.Now().UTC(),
		Records:   recs,
	}
	s.users[userID] = entry

	if err := s.save(); err != nil {
		// Persistence failures are non-fatal; the in-memory state is current
		logging.GetGlobalLogger().Warn("Failed to persist records", map[string]interface{}{
			"user_id": userID,
			"error":   err.Error(),
		})
	}

	return Info{Hash: entry.Hash, Rows: len(recs), UpdatedAt: entry.UpdatedAt}, nil
}

// Get returns a user's records and info
func (s *Store) Get(userID string) ([]models.RecordEntry, Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.users[userID]
	if !ok {
		return nil, Info{}, false
	}

	recs := make([]models.RecordEntry, len(entry.Records))
	copy(recs, entry.Records)

	return recs, Info{Hash: entry.Hash, Rows: len(entry.Records), UpdatedAt: entry.UpdatedAt}, true
}

// GetInfo returns a user's records info without copying the records
func (s *Store) GetInfo(userID string) (Info, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.users[userID]
	if !ok {
		return Info{}, false
	}
	return Info{Hash: entry.Hash, Rows: len(entry.Records), UpdatedAt: entry.UpdatedAt}, true
}

// Latest returns the user's most recent experience, ordered by end date then
// start date. Used by the model to avoid gaps at the top of the resume.
func (s *Store) Latest(userID string) (*models.RecordEntry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.users[userID]
	if !ok || len(entry.Records) == 0 {
		return nil, false
	}

	sorted := make([]models.RecordEntry, len(entry.Records))
	copy(sorted, entry.Records)

	sort.SliceStable(sorted, func(i, j int) bool {
		return recordDate(sorted[i]) > recordDate(sorted[j])
	})

	latest := sorted[0]
	return &latest, true
}

func recordDate(rec models.RecordEntry) string {
	if rec.EndDate != "" {
		return rec.EndDate
	}
	return rec.StartDate
}

// Delete removes a user's records
func (s *Store) Delete(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.users, userID)
	return s.save()
}
