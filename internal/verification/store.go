package verification

import (
	"context"
	"sort"
	"sync"
)

// Store persists challenges and links.
type Store interface {
	// ReplacePending drops any challenge for p.UserID and stores p.
	ReplacePending(ctx context.Context, p PendingVerification) error
	// GetPending returns ErrNoPendingVerification when nothing is stored.
	GetPending(ctx context.Context, userID string) (*PendingVerification, error)
	DeletePending(ctx context.Context, userID string) (bool, error)
	// Activate deactivates the current link for the guild/user, stores link
	// as the active one and deletes the user's challenge, all or nothing.
	Activate(ctx context.Context, link VerifiedLink) error
	// GetActive returns ErrNotVerified when the user has no active link.
	GetActive(ctx context.Context, guildID, userID string) (*VerifiedLink, error)
	// History lists every link for the guild/user, newest first.
	History(ctx context.Context, guildID, userID string) ([]VerifiedLink, error)
}

// MemoryStore keeps everything in process memory.
type MemoryStore struct {
	mu      sync.RWMutex
	pending map[string]PendingVerification
	links   []VerifiedLink
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{pending: make(map[string]PendingVerification)}
}

func (m *MemoryStore) ReplacePending(_ context.Context, p PendingVerification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, p.UserID)
	m.pending[p.UserID] = p
	return nil
}

func (m *MemoryStore) GetPending(_ context.Context, userID string) (*PendingVerification, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.pending[userID]
	if !ok {
		return nil, ErrNoPendingVerification
	}
	return &p, nil
}

func (m *MemoryStore) DeletePending(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[userID]
	delete(m.pending, userID)
	return ok, nil
}

func (m *MemoryStore) Activate(_ context.Context, link VerifiedLink) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.links {
		if m.links[i].GuildID == link.GuildID && m.links[i].UserID == link.UserID {
			m.links[i].IsActive = false
		}
	}
	link.IsActive = true
	m.links = append(m.links, link)
	delete(m.pending, link.UserID)
	return nil
}

func (m *MemoryStore) GetActive(_ context.Context, guildID, userID string) (*VerifiedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for i := len(m.links) - 1; i >= 0; i-- {
		l := m.links[i]
		if l.GuildID == guildID && l.UserID == userID && l.IsActive {
			return &l, nil
		}
	}
	return nil, ErrNotVerified
}

func (m *MemoryStore) History(_ context.Context, guildID, userID string) ([]VerifiedLink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []VerifiedLink
	for _, l := range m.links {
		if l.GuildID == guildID && l.UserID == userID {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].VerifiedAt.After(out[j].VerifiedAt) })
	return out, nil
}
