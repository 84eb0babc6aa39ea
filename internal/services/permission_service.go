package services

import (
	"context"
	"fmt"
	"strings"

	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/pads"
)

// PermissionService manages who may host tryouts and trainings.
type PermissionService struct {
	repo *repositories.PermissionRepository
}

func NewPermissionService(repo *repositories.PermissionRepository) *PermissionService {
	return &PermissionService{repo: repo}
}

func (s *PermissionService) Grant(ctx context.Context, actor Actor, req dtos.PermissionRequest) (*dtos.PermissionsResponse, error) {
	perms, userID, err := s.parseMutation(actor, req)
	if err != nil {
		return nil, err
	}

	added, err := s.repo.Grant(ctx, actor.GuildID, userID, actor.UserID, perms)
	if err != nil {
		return nil, err
	}
	logging.Info("Permissions granted",
		"guild_id", actor.GuildID,
		"user_id", userID,
		"granted_by", actor.UserID,
		"added", added,
	)
	return s.List(ctx, actor, userID)
}

func (s *PermissionService) Revoke(ctx context.Context, actor Actor, req dtos.PermissionRequest) (*dtos.PermissionsResponse, error) {
	perms, userID, err := s.parseMutation(actor, req)
	if err != nil {
		return nil, err
	}

	removed, err := s.repo.Revoke(ctx, actor.GuildID, userID, perms)
	if err != nil {
		return nil, err
	}
	logging.Info("Permissions revoked",
		"guild_id", actor.GuildID,
		"user_id", userID,
		"revoked_by", actor.UserID,
		"removed", removed,
	)
	return s.List(ctx, actor, userID)
}

func (s *PermissionService) parseMutation(actor Actor, req dtos.PermissionRequest) ([]constants.PermissionType, string, error) {
	if !actor.Elevated {
		return nil, "", fmt.Errorf("%w: %s", ErrForbidden, constants.MsgOwnerOnly)
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, "", fmt.Errorf("%w: user_id is required", ErrInvalidInput)
	}
	perms, err := constants.ParsePermissions(req.Permission)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return perms, userID, nil
}

// List returns the permissions of userID, defaulting to the actor.
func (s *PermissionService) List(ctx context.Context, actor Actor, userID string) (*dtos.PermissionsResponse, error) {
	if userID == "" {
		userID = actor.UserID
	}
	perms, err := s.repo.List(ctx, actor.GuildID, userID)
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		out = append(out, p.String())
	}
	return &dtos.PermissionsResponse{GuildID: actor.GuildID, UserID: userID, Permissions: out}, nil
}

// CanHost reports whether the actor may run a session of the given kind.
func (s *PermissionService) CanHost(ctx context.Context, actor Actor, kind pads.Kind) (bool, error) {
	if actor.Elevated {
		return true, nil
	}
	return s.repo.Has(ctx, actor.GuildID, actor.UserID, constants.PermissionType(kind))
}
