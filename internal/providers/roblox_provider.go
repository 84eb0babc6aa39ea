package providers

import (
	"context"
	"fmt"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/verification"
	"strings"
)

// RobloxProvider reads public user and group data from the Roblox web APIs.
type RobloxProvider struct {
	UsersBaseURL  string
	GroupsBaseURL string
	rest          restClient
}

var _ verification.ProfileClient = (*RobloxProvider)(nil)

func NewRobloxProvider(cfg *config.Config, m *metrics.MetricsRegistry) *RobloxProvider {
	return &RobloxProvider{
		UsersBaseURL:  strings.TrimRight(cfg.RobloxUsersBaseURL, "/"),
		GroupsBaseURL: strings.TrimRight(cfg.RobloxGroupsBaseURL, "/"),
		rest:          newRestClient("roblox", cfg.ExternalTimeout, cfg.ExternalRatePerSec, m),
	}
}

type usernamesRequest struct {
	Usernames          []string `json:"usernames"`
	ExcludeBannedUsers bool     `json:"excludeBannedUsers"`
}

type usernamesResponse struct {
	Data []struct {
		ID                int64  `json:"id"`
		Name              string `json:"name"`
		RequestedUsername string `json:"requestedUsername"`
	} `json:"data"`
}

type userResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type groupRolesResponse struct {
	Data []struct {
		Group struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
		} `json:"group"`
		Role struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Rank int    `json:"rank"`
		} `json:"role"`
	} `json:"data"`
}

// ResolveUsername looks up the id of an exact username. Banned accounts are
// treated as unknown.
func (p *RobloxProvider) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	if username == "" {
		return 0, false, &ProviderError{
			Code:    constants.ErrCodeInvalidDataFormat,
			Message: "Username cannot be empty",
		}
	}

	req := usernamesRequest{Usernames: []string{username}, ExcludeBannedUsers: true}
	var result usernamesResponse
	if _, err := p.rest.doPost(ctx, "resolve_username", p.UsersBaseURL+"/v1/usernames/users", req, &result); err != nil {
		return 0, false, err
	}

	for _, u := range result.Data {
		if strings.EqualFold(u.Name, username) || strings.EqualFold(u.RequestedUsername, username) {
			return u.ID, true, nil
		}
	}
	return 0, false, nil
}

// FetchDescription returns the profile "About" text. Any non-2xx answer,
// 404 included, comes back as a ProviderError.
func (p *RobloxProvider) FetchDescription(ctx context.Context, robloxID int64) (string, error) {
	var result userResponse
	_, err := p.rest.doGET(ctx, "fetch_description", fmt.Sprintf("%s/v1/users/%d", p.UsersBaseURL, robloxID), &result)
	if err != nil {
		return "", err
	}
	return result.Description, nil
}

// FetchGroupRank scans the user's group memberships for groupID.
func (p *RobloxProvider) FetchGroupRank(ctx context.Context, robloxID, groupID int64) (verification.GroupRank, error) {
	var result groupRolesResponse
	_, err := p.rest.doGET(ctx, "fetch_group_rank", fmt.Sprintf("%s/v2/users/%d/groups/roles", p.GroupsBaseURL, robloxID), &result)
	if err != nil {
		return verification.GroupRank{}, err
	}

	for _, entry := range result.Data {
		if entry.Group.ID == groupID {
			return verification.GroupRank{
				IsMember: true,
				RankName: entry.Role.Name,
				Rank:     entry.Role.Rank,
			}, nil
		}
	}
	return verification.GroupRank{IsMember: false}, nil
}
