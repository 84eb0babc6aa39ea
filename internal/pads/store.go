package pads

import (
	"context"
	"sort"
	"sync"
)

// Store persists sessions. Implementations only enforce uniqueness; the
// Registry owns the rules.
type Store interface {
	// Get returns ErrSessionNotFound when the pad is free.
	Get(ctx context.Context, guildID string, pad int) (*Session, error)
	List(ctx context.Context, guildID string) ([]Session, error)
	ListByOwner(ctx context.Context, guildID, ownerID string) ([]Session, error)
	// Insert returns ErrDuplicate when the pad or the owner is already taken.
	Insert(ctx context.Context, s Session) error
	// Delete returns the removed session or ErrSessionNotFound.
	Delete(ctx context.Context, guildID string, pad int) (*Session, error)
}

// MemoryStore keeps sessions in process memory. Everything is lost on restart.
type MemoryStore struct {
	mu     sync.RWMutex
	guilds map[string]map[int]Session
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{guilds: make(map[string]map[int]Session)}
}

func (m *MemoryStore) Get(_ context.Context, guildID string, pad int) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.guilds[guildID][pad]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) List(_ context.Context, guildID string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.guilds[guildID]))
	for _, s := range m.guilds[guildID] {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Pad < out[j].Pad })
	return out, nil
}

func (m *MemoryStore) ListByOwner(_ context.Context, guildID, ownerID string) ([]Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Session
	for _, s := range m.guilds[guildID] {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *MemoryStore) Insert(_ context.Context, s Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	pads, ok := m.guilds[s.GuildID]
	if !ok {
		pads = make(map[int]Session)
		m.guilds[s.GuildID] = pads
	}
	if _, taken := pads[s.Pad]; taken {
		return ErrDuplicate
	}
	for _, other := range pads {
		if other.OwnerID == s.OwnerID {
			return ErrDuplicate
		}
	}
	pads[s.Pad] = s
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, guildID string, pad int) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.guilds[guildID][pad]
	if !ok {
		return nil, ErrSessionNotFound
	}
	delete(m.guilds[guildID], pad)
	if len(m.guilds[guildID]) == 0 {
		delete(m.guilds, guildID)
	}
	return &s, nil
}
