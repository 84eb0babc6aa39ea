package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/events"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/models/dtos"
	gormModels "infinite-experiment/garrison/internal/models/gorm"
	"infinite-experiment/garrison/internal/workers"
)

// TicketService keeps track of support tickets. Channels themselves are
// created and deleted by the bot.
type TicketService struct {
	repo       *repositories.TicketRepository
	actions    *workers.DelayedActions
	publisher  events.Publisher
	closeDelay time.Duration
}

func NewTicketService(repo *repositories.TicketRepository, actions *workers.DelayedActions, publisher events.Publisher, closeDelay time.Duration) *TicketService {
	return &TicketService{
		repo:       repo,
		actions:    actions,
		publisher:  publisher,
		closeDelay: closeDelay,
	}
}

func (s *TicketService) AddRole(ctx context.Context, actor Actor, req dtos.TicketRoleRequest) (*dtos.TicketRolesResponse, error) {
	roleID, err := s.roleMutation(actor, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.AddRole(ctx, actor.GuildID, roleID); err != nil {
		return nil, err
	}
	logging.Info("Ticket role added", "guild_id", actor.GuildID, "role_id", roleID)
	return s.Roles(ctx, actor)
}

func (s *TicketService) RemoveRole(ctx context.Context, actor Actor, req dtos.TicketRoleRequest) (*dtos.TicketRolesResponse, error) {
	roleID, err := s.roleMutation(actor, req)
	if err != nil {
		return nil, err
	}
	if _, err := s.repo.RemoveRole(ctx, actor.GuildID, roleID); err != nil {
		return nil, err
	}
	logging.Info("Ticket role removed", "guild_id", actor.GuildID, "role_id", roleID)
	return s.Roles(ctx, actor)
}

func (s *TicketService) roleMutation(actor Actor, req dtos.TicketRoleRequest) (string, error) {
	if !actor.Elevated {
		return "", fmt.Errorf("%w: %s", ErrForbidden, constants.MsgOwnerOnly)
	}
	roleID := strings.TrimSpace(req.RoleID)
	if roleID == "" {
		return "", fmt.Errorf("%w: role_id is required", ErrInvalidInput)
	}
	return roleID, nil
}

func (s *TicketService) Roles(ctx context.Context, actor Actor) (*dtos.TicketRolesResponse, error) {
	roleIDs, err := s.repo.ListRoles(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if roleIDs == nil {
		roleIDs = []string{}
	}
	return &dtos.TicketRolesResponse{GuildID: actor.GuildID, RoleIDs: roleIDs}, nil
}

// Open records the actor's ticket channel. One open ticket per member.
// TicketExistsError names the channel of the ticket the user already has open.
type TicketExistsError struct {
	ChannelID string
}

func (e *TicketExistsError) Error() string {
	return fmt.Sprintf("%s: %s", repositories.ErrTicketExists, e.ChannelID)
}

func (e *TicketExistsError) Unwrap() error { return repositories.ErrTicketExists }

func (s *TicketService) Open(ctx context.Context, actor Actor, req dtos.OpenTicketRequest) (*dtos.TicketResponse, error) {
	channelID := strings.TrimSpace(req.ChannelID)
	if channelID == "" {
		return nil, fmt.Errorf("%w: channel_id is required", ErrInvalidInput)
	}

	t := &gormModels.ActiveTicket{
		GuildID:   actor.GuildID,
		UserID:    actor.UserID,
		ChannelID: channelID,
		Subject:   strings.TrimSpace(req.Subject),
	}
	if err := s.repo.Open(ctx, t); err != nil {
		if errors.Is(err, repositories.ErrTicketExists) {
			if existing, getErr := s.repo.GetByUser(ctx, actor.GuildID, actor.UserID); getErr == nil {
				return nil, &TicketExistsError{ChannelID: existing.ChannelID}
			}
		}
		return nil, err
	}

	logging.Info("Ticket opened",
		"guild_id", t.GuildID,
		"user_id", t.UserID,
		"channel_id", t.ChannelID,
	)
	return s.toResponse(t), nil
}

func (s *TicketService) Get(ctx context.Context, actor Actor, channelID string) (*dtos.TicketResponse, error) {
	t, err := s.authorized(ctx, actor, channelID)
	if err != nil {
		return nil, err
	}
	return s.toResponse(t), nil
}

// Close schedules removal of the ticket. The record is deleted and a
// ticket.close event published once the delay passes.
func (s *TicketService) Close(ctx context.Context, actor Actor, channelID string) (*dtos.TicketResponse, error) {
	t, err := s.authorized(ctx, actor, channelID)
	if err != nil {
		return nil, err
	}

	closedBy := actor.UserID
	s.actions.Schedule(ticketKey(t.ChannelID), s.closeDelay, func() {
		s.finishClose(t, closedBy)
	})

	logging.Info("Ticket close scheduled",
		"guild_id", t.GuildID,
		"channel_id", t.ChannelID,
		"closed_by", closedBy,
		"delay", s.closeDelay.String(),
	)
	return s.toResponse(t), nil
}

func (s *TicketService) finishClose(t *gormModels.ActiveTicket, closedBy string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.repo.DeleteByChannel(ctx, t.ChannelID)
	if err != nil {
		logging.Error("Failed to close ticket", "channel_id", t.ChannelID, "error", err.Error())
		return
	}
	if !removed {
		return
	}

	publish(ctx, s.publisher, events.New(constants.EventTicketClose, t.GuildID, t.UserID, map[string]interface{}{
		"channel_id": t.ChannelID,
		"closed_by":  closedBy,
	}))
	logging.Info("Ticket closed", "guild_id", t.GuildID, "channel_id", t.ChannelID)
}

// CancelClose stops a scheduled close. It reports whether one was pending.
func (s *TicketService) CancelClose(ctx context.Context, actor Actor, channelID string) (bool, error) {
	t, err := s.authorized(ctx, actor, channelID)
	if err != nil {
		return false, err
	}
	cancelled := s.actions.Cancel(ticketKey(t.ChannelID))
	if cancelled {
		logging.Info("Ticket close cancelled", "guild_id", t.GuildID, "channel_id", t.ChannelID)
	}
	return cancelled, nil
}

// authorized loads the ticket and checks the actor is its owner, elevated,
// or holds a ticket role.
func (s *TicketService) authorized(ctx context.Context, actor Actor, channelID string) (*gormModels.ActiveTicket, error) {
	channelID = strings.TrimSpace(channelID)
	t, err := s.repo.GetByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if t.GuildID != actor.GuildID {
		return nil, repositories.ErrTicketNotFound
	}
	if t.UserID == actor.UserID || actor.Elevated {
		return t, nil
	}

	roleIDs, err := s.repo.ListRoles(ctx, actor.GuildID)
	if err != nil {
		return nil, err
	}
	if actor.HasAnyRole(roleIDs) {
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrForbidden, constants.MsgTicketAccessDenied)
}

func (s *TicketService) toResponse(t *gormModels.ActiveTicket) *dtos.TicketResponse {
	resp := &dtos.TicketResponse{
		GuildID:   t.GuildID,
		UserID:    t.UserID,
		ChannelID: t.ChannelID,
		Subject:   t.Subject,
		CreatedAt: t.CreatedAt,
	}
	if due, ok := s.actions.Pending(ticketKey(t.ChannelID)); ok {
		resp.ClosesAt = &due
	}
	return resp
}

// PendingCloses is the number of scheduled ticket closes.
func (s *TicketService) PendingCloses() int {
	return s.actions.Len()
}

func ticketKey(channelID string) string {
	return "ticket:" + channelID
}
