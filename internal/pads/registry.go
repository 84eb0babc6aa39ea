package pads

import (
	"context"
	"errors"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/logging"
)

// Registry enforces one session per pad and one pad per host within a guild.
// All mutations for a guild run under that guild's lock.
type Registry struct {
	store  Store
	bounds Bounds
	locks  *common.KeyedMutex
	now    func() time.Time
}

// Option customises a Registry.
type Option func(*Registry)

// WithClock replaces time.Now, used by tests.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithBounds overrides DefaultBounds.
func WithBounds(b Bounds) Option {
	return func(r *Registry) { r.bounds = b }
}

func NewRegistry(store Store, opts ...Option) *Registry {
	r := &Registry{
		store:  store,
		bounds: DefaultBounds,
		locks:  common.NewKeyedMutex(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Registry) Bounds() Bounds {
	return r.bounds
}

// IsAvailable reports whether no session occupies the pad.
func (r *Registry) IsAvailable(ctx context.Context, guildID string, pad int) (bool, error) {
	if !r.bounds.Contains(pad) {
		return false, ErrPadOutOfRange
	}
	_, err := r.store.Get(ctx, guildID, pad)
	if errors.Is(err, ErrSessionNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return false, nil
}

// Get returns the session on the pad or ErrSessionNotFound.
func (r *Registry) Get(ctx context.Context, guildID string, pad int) (*Session, error) {
	if !r.bounds.Contains(pad) {
		return nil, ErrPadOutOfRange
	}
	return r.store.Get(ctx, guildID, pad)
}

// StartSession claims the pad for req.OwnerID. It fails with a
// *PadOccupiedError or *UserHasSessionError without touching state.
func (r *Registry) StartSession(ctx context.Context, req StartRequest) (*Session, error) {
	sess, err := NewSession(req, r.bounds, r.now())
	if err != nil {
		return nil, err
	}

	unlock := r.locks.Lock(sess.GuildID)
	defer unlock()

	if err := r.checkFree(ctx, sess); err != nil {
		return nil, err
	}

	if err := r.store.Insert(ctx, *sess); err != nil {
		if errors.Is(err, ErrDuplicate) {
			// Another process sharing the database won the race.
			if cerr := r.checkFree(ctx, sess); cerr != nil {
				return nil, cerr
			}
		}
		return nil, err
	}

	logging.Info("Pad session started",
		"guild_id", sess.GuildID,
		"pad", sess.Pad,
		"kind", sess.Kind,
		"user_id", sess.OwnerID,
	)
	return sess, nil
}

func (r *Registry) checkFree(ctx context.Context, sess *Session) error {
	existing, err := r.store.Get(ctx, sess.GuildID, sess.Pad)
	if err == nil {
		return &PadOccupiedError{Session: *existing}
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return err
	}

	owned, err := r.store.ListByOwner(ctx, sess.GuildID, sess.OwnerID)
	if err != nil {
		return err
	}
	if len(owned) > 0 {
		return &UserHasSessionError{Session: owned[0]}
	}
	return nil
}

// EndSession removes the session on the pad. requesterID must be the host
// unless elevated is set; the caller decides elevation.
func (r *Registry) EndSession(ctx context.Context, guildID string, pad int, requesterID string, elevated bool) (*Ended, error) {
	if !r.bounds.Contains(pad) {
		return nil, ErrPadOutOfRange
	}

	unlock := r.locks.Lock(guildID)
	defer unlock()

	existing, err := r.store.Get(ctx, guildID, pad)
	if err != nil {
		return nil, err
	}
	if existing.OwnerID != requesterID && !elevated {
		return nil, ErrNotSessionOwner
	}

	removed, err := r.store.Delete(ctx, guildID, pad)
	if err != nil {
		return nil, err
	}

	now := r.now()
	ended := &Ended{
		Session:  *removed,
		EndedBy:  requesterID,
		EndedAt:  now.UTC(),
		Duration: removed.Elapsed(now),
	}

	logging.Info("Pad session ended",
		"guild_id", guildID,
		"pad", pad,
		"kind", removed.Kind,
		"user_id", removed.OwnerID,
		"ended_by", requesterID,
		"duration", ended.Duration.String(),
	)
	return ended, nil
}

// ListSessions returns a snapshot of the guild's active sessions ordered by pad.
func (r *Registry) ListSessions(ctx context.Context, guildID string) ([]Session, error) {
	return r.store.List(ctx, guildID)
}

// SessionsForUser returns the sessions hosted by userID in the guild.
func (r *Registry) SessionsForUser(ctx context.Context, guildID, userID string) ([]Session, error) {
	return r.store.ListByOwner(ctx, guildID, userID)
}
