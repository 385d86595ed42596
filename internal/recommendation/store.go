package recommendation

import (
	"context"
	"sync"
	"time"

	apperrors "lunch-roulette/internal/common/errors"
	"lunch-roulette/internal/common/metrics"

	"github.com/goccy/go-json"
)

var ErrSessionNotFound = apperrors.NewSentinel(apperrors.ErrCodeSessionNotFound)

// Store keeps session snapshots between requests. Snapshots expire after the
// configured TTL; nothing is kept durably.
type Store interface {
	Create(ctx context.Context, snap Snapshot) error
	Get(ctx context.Context, id string) (Snapshot, error)
	// Update applies fn to the stored snapshot atomically. If fn returns an
	// error nothing is written.
	Update(ctx context.Context, id string, fn func(*Snapshot) error) error
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (m *MemoryStore) Create(ctx context.Context, snap Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sweepLocked()
	m.entries[snap.ID] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(id)
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(entry.data, &snap); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (m *MemoryStore) Update(ctx context.Context, id string, fn func(*Snapshot) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.liveLocked(id)
	if !ok {
		return ErrSessionNotFound
	}
	var snap Snapshot
	if err := json.Unmarshal(entry.data, &snap); err != nil {
		return err
	}
	if err := fn(&snap); err != nil {
		return err
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return err
	}
	m.entries[id] = memoryEntry{data: data, expiresAt: m.now().Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.liveLocked(id); !ok {
		return ErrSessionNotFound
	}
	delete(m.entries, id)
	metrics.ActiveSessions.Set(float64(len(m.entries)))
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) liveLocked(id string) (memoryEntry, bool) {
	entry, ok := m.entries[id]
	if !ok {
		return memoryEntry{}, false
	}
	if m.now().After(entry.expiresAt) {
		delete(m.entries, id)
		metrics.ActiveSessions.Set(float64(len(m.entries)))
		return memoryEntry{}, false
	}
	return entry, true
}

func (m *MemoryStore) sweepLocked() {
	now := m.now()
	for id, entry := range m.entries {
		if now.After(entry.expiresAt) {
			delete(m.entries, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(m.entries)))
}
