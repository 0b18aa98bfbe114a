package services

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/codyseavey/nextbet/internal/database"
	"github.com/codyseavey/nextbet/internal/models"
)

// SnapshotRepository loads and saves the persisted part of the state
type SnapshotRepository interface {
	Load() (*models.Snapshot, error)
	Save(snap models.Snapshot) error
}

// SnapshotService persists the state snapshot as one named record
type SnapshotService struct {
	mu        sync.Mutex
	kv        *database.KVStore
	lastSaved time.Time
}

// NewSnapshotService creates a new snapshot service
func NewSnapshotService(kv *database.KVStore) *SnapshotService {
	return &SnapshotService{kv: kv}
}

// Load returns the stored snapshot. A missing or unreadable snapshot yields
// nil without error so the caller starts from defaults.
func (s *SnapshotService) Load() (*models.Snapshot, error) {
	raw, ok, err := s.kv.Get(models.SnapshotKey)
	if err != nil {
		log.Printf("Snapshot service: failed to read snapshot, using defaults: %v", err)
		return nil, nil
	}
	if !ok {
		return nil, nil
	}

	var snap models.Snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		log.Printf("Snapshot service: corrupt snapshot, using defaults: %v", err)
		return nil, nil
	}
	return &snap, nil
}

// Save writes the snapshot, replacing the previous one
func (s *SnapshotService) Save(snap models.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.kv.Put(models.SnapshotKey, string(data)); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}

	s.lastSaved = time.Now()
	return nil
}

// LastSaved returns when the snapshot was last written by this process
func (s *SnapshotService) LastSaved() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSaved
}
