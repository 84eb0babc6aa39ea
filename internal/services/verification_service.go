package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/events"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/ranks"
	"infinite-experiment/garrison/internal/verification"
)

// RankReconciler applies a member's group rank to their guild profile.
type RankReconciler interface {
	Reconcile(ctx context.Context, guildID, userID string, robloxID int64, robloxUsername string) (*ranks.Result, error)
}

// rankForgetter is implemented by caching profile clients.
type rankForgetter interface {
	Forget(robloxID, groupID int64)
}

// VerificationService runs the verify, reverify, complete and update flows.
type VerificationService struct {
	registry   *verification.Registry
	profile    verification.ProfileClient
	reconciler RankReconciler
	groupID    int64
	publisher  events.Publisher
	metrics    *metrics.MetricsRegistry
}

func NewVerificationService(
	registry *verification.Registry,
	profile verification.ProfileClient,
	reconciler RankReconciler,
	groupID int64,
	publisher events.Publisher,
	m *metrics.MetricsRegistry,
) *VerificationService {
	return &VerificationService{
		registry:   registry,
		profile:    profile,
		reconciler: reconciler,
		groupID:    groupID,
		publisher:  publisher,
		metrics:    m,
	}
}

// Start issues a challenge for the target member.
func (s *VerificationService) Start(ctx context.Context, actor Actor, req dtos.StartVerificationRequest) (*dtos.VerificationStartResponse, error) {
	userID, err := actor.target(strings.TrimSpace(req.UserID))
	if err != nil {
		return nil, err
	}
	if req.Reverify && !actor.Elevated {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, constants.MsgOwnerOnly)
	}

	username, err := verification.NormalizeUsername(req.RobloxUsername)
	if err != nil {
		return nil, err
	}

	verified, err := s.registry.IsVerified(ctx, actor.GuildID, userID)
	if err != nil {
		return nil, err
	}
	if verified && !req.Reverify {
		return nil, ErrAlreadyVerified
	}
	if req.Reverify {
		if _, err := s.registry.Cancel(ctx, userID); err != nil {
			return nil, err
		}
	}

	robloxID, found, err := s.profile.ResolveUsername(ctx, username)
	if err != nil {
		s.metrics.VerificationOutcome("external_error")
		return nil, &verification.ExternalServiceError{Op: "resolve username", Err: err}
	}
	if !found {
		s.metrics.VerificationOutcome("user_not_found")
		return nil, verification.ErrExternalUserNotFound
	}

	pending, err := s.registry.Start(ctx, actor.GuildID, userID, username)
	if err != nil {
		return nil, err
	}
	s.metrics.VerificationOutcome("started")

	return &dtos.VerificationStartResponse{
		UserID:         userID,
		RobloxUsername: pending.RobloxUsername,
		RobloxID:       robloxID,
		ProfileURL:     verification.ProfileURL(robloxID),
		Code:           pending.Code,
		ExpiresAt:      pending.ExpiresAt,
		Instructions: []string{
			"Open your Roblox profile and edit the About section.",
			fmt.Sprintf("Add the code %s anywhere in the description and save.", pending.Code),
			fmt.Sprintf("Run complete verification within %s.", common.FormatDuration(s.registry.ExpiresIn())),
		},
	}, nil
}

// Complete checks the challenge and then reconciles ranks. A failed
// reconciliation is reported next to the link and never undoes it.
func (s *VerificationService) Complete(ctx context.Context, actor Actor, targetUserID string) (*dtos.VerificationCompleteResponse, error) {
	userID, err := actor.target(strings.TrimSpace(targetUserID))
	if err != nil {
		return nil, err
	}

	link, err := s.registry.Complete(ctx, userID)
	if err != nil {
		s.metrics.VerificationOutcome(outcomeFor(err))
		return nil, err
	}
	s.metrics.VerificationOutcome("completed")

	resp := &dtos.VerificationCompleteResponse{
		Link:       *link,
		ProfileURL: link.ProfileURL(),
	}

	result, err := s.reconcile(ctx, link)
	if err != nil {
		resp.ReconcileError = err.Error()
	} else {
		resp.Reconciliation = result
	}

	publish(ctx, s.publisher, events.New(constants.EventVerificationCompleted, link.GuildID, userID, map[string]interface{}{
		"roblox_id":       link.RobloxID,
		"roblox_username": link.RobloxUsername,
	}))
	return resp, nil
}

// Update re-applies the current group rank for a verified member.
func (s *VerificationService) Update(ctx context.Context, actor Actor, targetUserID string) (*ranks.Result, error) {
	userID, err := actor.target(strings.TrimSpace(targetUserID))
	if err != nil {
		return nil, err
	}

	link, err := s.registry.GetVerified(ctx, actor.GuildID, userID)
	if err != nil {
		return nil, err
	}

	if f, ok := s.profile.(rankForgetter); ok {
		f.Forget(link.RobloxID, s.groupID)
	}
	return s.reconcile(ctx, link)
}

func (s *VerificationService) reconcile(ctx context.Context, link *verification.VerifiedLink) (*ranks.Result, error) {
	if s.reconciler == nil {
		return nil, errors.New("rank reconciliation is not configured")
	}

	result, err := s.reconciler.Reconcile(ctx, link.GuildID, link.UserID, link.RobloxID, link.RobloxUsername)
	switch {
	case err != nil:
		s.metrics.ReconcileOutcome("failed")
		logging.Warn("Rank reconciliation failed",
			"guild_id", link.GuildID,
			"user_id", link.UserID,
			"error", err.Error(),
		)
		return nil, err
	case result.Complete():
		s.metrics.ReconcileOutcome("complete")
	default:
		s.metrics.ReconcileOutcome("partial")
	}
	return result, nil
}

// Cancel drops the target's open challenge.
func (s *VerificationService) Cancel(ctx context.Context, actor Actor, targetUserID string) (bool, error) {
	userID, err := actor.target(strings.TrimSpace(targetUserID))
	if err != nil {
		return false, err
	}
	removed, err := s.registry.Cancel(ctx, userID)
	if err == nil && removed {
		s.metrics.VerificationOutcome("cancelled")
	}
	return removed, err
}

func (s *VerificationService) Pending(ctx context.Context, actor Actor, targetUserID string) (*verification.PendingVerification, error) {
	userID, err := actor.target(strings.TrimSpace(targetUserID))
	if err != nil {
		return nil, err
	}
	return s.registry.GetPending(ctx, userID)
}

// Link returns the target's active link along with earlier ones.
func (s *VerificationService) Link(ctx context.Context, actor Actor, targetUserID string) (*dtos.LinkResponse, error) {
	userID := strings.TrimSpace(targetUserID)
	if userID == "" {
		userID = actor.UserID
	}

	link, err := s.registry.GetVerified(ctx, actor.GuildID, userID)
	if err != nil {
		return nil, err
	}
	history, err := s.registry.History(ctx, actor.GuildID, userID)
	if err != nil {
		return nil, err
	}
	return &dtos.LinkResponse{Link: *link, ProfileURL: link.ProfileURL(), History: history}, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, verification.ErrExpired):
		return "expired"
	case errors.Is(err, verification.ErrCodeNotFound):
		return "code_not_found"
	case errors.Is(err, verification.ErrExternalUserNotFound):
		return "user_not_found"
	case errors.Is(err, verification.ErrExternalService):
		return "external_error"
	case errors.Is(err, verification.ErrNoPendingVerification):
		return "no_pending"
	}
	return "error"
}
