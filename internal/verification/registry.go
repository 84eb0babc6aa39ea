package verification

import (
	"context"
	"errors"
	"strings"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/logging"
)

// Registry runs the challenge/response flow. Operations for one user are
// serialised.
type Registry struct {
	store   Store
	profile ProfileClient
	locks   *common.KeyedMutex
	ttl     time.Duration
	newCode func() string
	now     func() time.Time
}

type Option func(*Registry)

func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

func WithCodeGenerator(gen func() string) Option {
	return func(r *Registry) { r.newCode = gen }
}

func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

func NewRegistry(store Store, profile ProfileClient, opts ...Option) *Registry {
	r := &Registry{
		store:   store,
		profile: profile,
		locks:   common.NewKeyedMutex(),
		ttl:     DefaultTTL,
		newCode: RandomCode,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Start issues a fresh challenge for userID, replacing any open one. The
// username is stored as given; callers validate it. Only the store can fail.
func (r *Registry) Start(ctx context.Context, guildID, userID, robloxUsername string) (*PendingVerification, error) {
	username := TrimUsername(robloxUsername)

	unlock := r.locks.Lock(userID)
	defer unlock()

	now := r.now().UTC()
	p := PendingVerification{
		UserID:         userID,
		GuildID:        guildID,
		RobloxUsername: username,
		Code:           r.newCode(),
		CreatedAt:      now,
		ExpiresAt:      now.Add(r.ttl),
	}
	if err := r.store.ReplacePending(ctx, p); err != nil {
		return nil, err
	}

	logging.Info("Verification started",
		"guild_id", guildID,
		"user_id", userID,
		"roblox_username", username,
		"expires_at", p.ExpiresAt,
	)
	return &p, nil
}

// Complete checks the user's Roblox description for the open challenge and,
// on a match, makes the link active.
func (r *Registry) Complete(ctx context.Context, userID string) (*VerifiedLink, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	p, err := r.store.GetPending(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := r.now().UTC()
	if p.Expired(now) {
		if _, err := r.store.DeletePending(ctx, userID); err != nil {
			logging.Warn("Failed to delete expired verification", "user_id", userID, "error", err.Error())
		}
		return nil, ErrExpired
	}

	robloxID, found, err := r.profile.ResolveUsername(ctx, p.RobloxUsername)
	if err != nil {
		return nil, &ExternalServiceError{Op: "resolve username", Err: err}
	}
	if !found {
		return nil, ErrExternalUserNotFound
	}

	description, err := r.profile.FetchDescription(ctx, robloxID)
	if err != nil {
		return nil, &ExternalServiceError{Op: "fetch description", Err: err}
	}
	if !strings.Contains(description, p.Code) {
		return nil, ErrCodeNotFound
	}

	link := VerifiedLink{
		GuildID:        p.GuildID,
		UserID:         userID,
		RobloxUsername: p.RobloxUsername,
		RobloxID:       robloxID,
		VerifiedAt:     now,
		IsActive:       true,
	}
	if err := r.store.Activate(ctx, link); err != nil {
		return nil, err
	}

	logging.Info("Verification completed",
		"guild_id", link.GuildID,
		"user_id", userID,
		"roblox_username", link.RobloxUsername,
		"roblox_id", robloxID,
	)
	return &link, nil
}

// Cancel drops the open challenge. It reports whether one existed.
func (r *Registry) Cancel(ctx context.Context, userID string) (bool, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	removed, err := r.store.DeletePending(ctx, userID)
	if err != nil {
		return false, err
	}
	if removed {
		logging.Info("Verification cancelled", "user_id", userID)
	}
	return removed, nil
}

// GetPending returns the open challenge. An expired one is removed and
// reported as ErrNoPendingVerification.
func (r *Registry) GetPending(ctx context.Context, userID string) (*PendingVerification, error) {
	unlock := r.locks.Lock(userID)
	defer unlock()

	p, err := r.store.GetPending(ctx, userID)
	if err != nil {
		return nil, err
	}
	if p.Expired(r.now()) {
		if _, err := r.store.DeletePending(ctx, userID); err != nil {
			return nil, err
		}
		return nil, ErrNoPendingVerification
	}
	return p, nil
}

// GetVerified returns the active link or ErrNotVerified.
func (r *Registry) GetVerified(ctx context.Context, guildID, userID string) (*VerifiedLink, error) {
	return r.store.GetActive(ctx, guildID, userID)
}

// IsVerified is GetVerified without the record.
func (r *Registry) IsVerified(ctx context.Context, guildID, userID string) (bool, error) {
	_, err := r.store.GetActive(ctx, guildID, userID)
	if errors.Is(err, ErrNotVerified) {
		return false, nil
	}
	return err == nil, err
}

func (r *Registry) History(ctx context.Context, guildID, userID string) ([]VerifiedLink, error) {
	return r.store.History(ctx, guildID, userID)
}

// ExpiresIn is the configured challenge lifetime.
func (r *Registry) ExpiresIn() time.Duration {
	return r.ttl
}
