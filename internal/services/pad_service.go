package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/events"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/pads"
	"infinite-experiment/garrison/internal/verification"
)

// PadService runs the pad commands on top of the registry.
type PadService struct {
	registry       *pads.Registry
	perms          *PermissionService
	verifications  *verification.Registry
	publisher      events.Publisher
	metrics        *metrics.MetricsRegistry
	controlTimeout time.Duration
	now            func() time.Time
}

func NewPadService(
	registry *pads.Registry,
	perms *PermissionService,
	verifications *verification.Registry,
	publisher events.Publisher,
	m *metrics.MetricsRegistry,
	controlTimeout time.Duration,
) *PadService {
	return &PadService{
		registry:       registry,
		perms:          perms,
		verifications:  verifications,
		publisher:      publisher,
		metrics:        m,
		controlTimeout: controlTimeout,
		now:            time.Now,
	}
}

// ListPads returns every pad in range, free or taken.
func (s *PadService) ListPads(ctx context.Context, guildID string) ([]dtos.PadStatus, error) {
	sessions, err := s.registry.ListSessions(ctx, guildID)
	if err != nil {
		return nil, err
	}
	byPad := make(map[int]pads.Session, len(sessions))
	for _, sess := range sessions {
		byPad[sess.Pad] = sess
	}

	bounds := s.registry.Bounds()
	now := s.now()
	out := make([]dtos.PadStatus, 0, bounds.Max-bounds.Min+1)
	for pad := bounds.Min; pad <= bounds.Max; pad++ {
		st := dtos.PadStatus{Pad: pad, Available: true}
		if sess, ok := byPad[pad]; ok {
			sess := sess
			st.Available = false
			st.Session = &sess
			st.Elapsed = common.FormatDuration(sess.Elapsed(now))
		}
		out = append(out, st)
	}
	return out, nil
}

func (s *PadService) GetPad(ctx context.Context, guildID string, pad int) (*dtos.PadStatus, error) {
	sess, err := s.registry.Get(ctx, guildID, pad)
	if errors.Is(err, pads.ErrSessionNotFound) {
		return &dtos.PadStatus{Pad: pad, Available: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &dtos.PadStatus{
		Pad:     pad,
		Session: sess,
		Elapsed: common.FormatDuration(sess.Elapsed(s.now())),
	}, nil
}

func (s *PadService) MySessions(ctx context.Context, actor Actor) ([]pads.Session, error) {
	return s.registry.SessionsForUser(ctx, actor.GuildID, actor.UserID)
}

// StartSession claims the pad for the actor after checking hosting rights.
func (s *PadService) StartSession(ctx context.Context, actor Actor, pad int, req dtos.StartSessionRequest) (*dtos.SessionStartedResponse, error) {
	kind, err := pads.ParseKind(req.Kind)
	if err != nil {
		return nil, err
	}

	allowed, err := s.perms.CanHost(ctx, actor, kind)
	if err != nil {
		return nil, err
	}
	if !allowed {
		return nil, fmt.Errorf("%w: %s", ErrForbidden, constants.MsgMissingPermission)
	}

	sess, err := s.registry.StartSession(ctx, pads.StartRequest{
		GuildID:     actor.GuildID,
		Pad:         pad,
		Kind:        kind,
		OwnerID:     actor.UserID,
		Starts:      req.Starts,
		Title:       req.Title,
		Description: req.Description,
	})
	if err != nil {
		if errors.Is(err, pads.ErrConflict) {
			s.metrics.PadEvent("conflict")
		}
		return nil, err
	}

	s.metrics.PadEvent("started")
	s.refreshGauge(ctx, actor.GuildID)

	resp := &dtos.SessionStartedResponse{
		Session:          *sess,
		ControlExpiresAt: sess.StartedAt.Add(s.controlTimeout),
	}
	if s.verifications != nil {
		if link, err := s.verifications.GetVerified(ctx, actor.GuildID, actor.UserID); err == nil {
			resp.HostRobloxUsername = link.RobloxUsername
		}
	}

	publish(ctx, s.publisher, events.New(constants.EventPadSessionStarted, actor.GuildID, actor.UserID, map[string]interface{}{
		"pad_number":   sess.Pad,
		"session_kind": sess.Kind,
		"starts":       sess.Starts,
		"title":        sess.Title,
	}))
	return resp, nil
}

// EndSession frees the pad. Elevated actors may end anyone's session.
func (s *PadService) EndSession(ctx context.Context, actor Actor, pad int) (*dtos.SessionEndedResponse, error) {
	ended, err := s.registry.EndSession(ctx, actor.GuildID, pad, actor.UserID, actor.Elevated)
	if err != nil {
		return nil, err
	}

	s.metrics.PadEvent("ended")
	s.refreshGauge(ctx, actor.GuildID)

	publish(ctx, s.publisher, events.New(constants.EventPadSessionEnded, actor.GuildID, ended.Session.OwnerID, map[string]interface{}{
		"pad_number":       ended.Session.Pad,
		"session_kind":     ended.Session.Kind,
		"ended_by":         ended.EndedBy,
		"duration_seconds": int64(ended.Duration.Seconds()),
	}))

	return &dtos.SessionEndedResponse{
		Session:  ended.Session,
		EndedBy:  ended.EndedBy,
		EndedAt:  ended.EndedAt,
		Duration: common.FormatDuration(ended.Duration),
		Seconds:  int64(ended.Duration.Seconds()),
	}, nil
}

func (s *PadService) refreshGauge(ctx context.Context, guildID string) {
	if s.metrics == nil {
		return
	}
	sessions, err := s.registry.ListSessions(ctx, guildID)
	if err != nil {
		logging.Warn("Failed to count active pads", "guild_id", guildID, "error", err.Error())
		return
	}
	s.metrics.SetActivePads(guildID, len(sessions))
}

func publish(ctx context.Context, p events.Publisher, e events.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, e); err != nil {
		logging.Warn("Failed to publish event",
			"event_type", e.Type,
			"guild_id", e.GuildID,
			"error", err.Error(),
		)
	}
}
