package storage

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/eugenenazirov/envcascade/internal/node"
)

var (
	// ErrNotLoaded indicates no snapshot has been stored yet.
	ErrNotLoaded = errors.New("configuration has not been loaded")
	// ErrInvalidSnapshot indicates a snapshot without a configuration tree.
	ErrInvalidSnapshot = errors.New("snapshot must contain a configuration mapping")
)

// Snapshot is one resolved configuration together with how it was produced.
type Snapshot struct {
	Config      *node.Mapping
	Environment string
	Candidates  []string
	Files       []string
	Unresolved  []string
	LoadedAt    time.Time
}

// Storage provides access to the resolved configuration served by the API.
type Storage interface {
	GetSnapshot() (Snapshot, error)
	SetSnapshot(snapshot Snapshot) error
}

// MemoryStorage keeps the snapshot in-memory and guards access with a RWMutex.
type MemoryStorage struct {
	mu       sync.RWMutex
	snapshot Snapshot
	loaded   bool
}

// NewMemoryStorage returns an empty store.
func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{}
}

// GetSnapshot returns a copy of the stored snapshot. The configuration tree is
// shared; nodes are immutable.
func (s *MemoryStorage) GetSnapshot() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.loaded {
		return Snapshot{}, ErrNotLoaded
	}
	return cloneSnapshot(s.snapshot), nil
}

// SetSnapshot validates and stores snapshot.
func (s *MemoryStorage) SetSnapshot(snapshot Snapshot) error {
	if snapshot.Config == nil {
		return ErrInvalidSnapshot
	}

	cloned := cloneSnapshot(snapshot)

	s.mu.Lock()
	s.snapshot = cloned
	s.loaded = true
	s.mu.Unlock()

	return nil
}

func cloneSnapshot(src Snapshot) Snapshot {
	out := src
	out.Candidates = slices.Clone(src.Candidates)
	out.Files = slices.Clone(src.Files)
	out.Unresolved = slices.Clone(src.Unresolved)
	return out
}
