package providers

import (
	"context"
	"fmt"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/metrics"
	"net/http"
	"net/url"
	"strings"
)

// DiscordProvider is the slice of the Discord REST API used for role and
// nickname management and member counts. It authenticates as the bot.
type DiscordProvider struct {
	BaseURL string
	rest    restClient
}

type DiscordRole struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
	Managed  bool   `json:"managed"`
}

type DiscordUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

type DiscordMember struct {
	User  DiscordUser `json:"user"`
	Nick  *string     `json:"nick"`
	Roles []string    `json:"roles"`
}

type DiscordGuild struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	OwnerID                  string `json:"owner_id"`
	ApproximateMemberCount   int    `json:"approximate_member_count"`
	ApproximatePresenceCount int    `json:"approximate_presence_count"`
}

func NewDiscordProvider(cfg *config.Config, m *metrics.MetricsRegistry) *DiscordProvider {
	p := &DiscordProvider{
		BaseURL: strings.TrimRight(cfg.DiscordAPIBaseURL, "/"),
		rest:    newRestClient("discord", cfg.ExternalTimeout, cfg.ExternalRatePerSec, m),
	}
	token := cfg.DiscordBotToken
	p.rest.decorate = func(req *http.Request) {
		req.Header.Set("Authorization", "Bot "+token)
		req.Header.Set("User-Agent", "DiscordBot (garrison, 1.0)")
	}
	return p
}

func auditHeaders(reason string) map[string]string {
	if reason == "" {
		return nil
	}
	return map[string]string{"X-Audit-Log-Reason": url.PathEscape(reason)}
}

func (p *DiscordProvider) ListRoles(ctx context.Context, guildID string) ([]DiscordRole, error) {
	var roles []DiscordRole
	_, err := p.rest.doGET(ctx, "list_roles", fmt.Sprintf("%s/guilds/%s/roles", p.BaseURL, guildID), &roles)
	return roles, err
}

func (p *DiscordProvider) CreateRole(ctx context.Context, guildID, name, reason string) (*DiscordRole, error) {
	var role DiscordRole
	payload := map[string]interface{}{"name": name, "mentionable": false}
	_, err := p.rest.do(ctx, "create_role", http.MethodPost,
		fmt.Sprintf("%s/guilds/%s/roles", p.BaseURL, guildID), payload, &role, auditHeaders(reason))
	if err != nil {
		return nil, err
	}
	return &role, nil
}

func (p *DiscordProvider) GetMember(ctx context.Context, guildID, userID string) (*DiscordMember, error) {
	var member DiscordMember
	_, err := p.rest.doGET(ctx, "get_member", fmt.Sprintf("%s/guilds/%s/members/%s", p.BaseURL, guildID, userID), &member)
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (p *DiscordProvider) SetNickname(ctx context.Context, guildID, userID, nick, reason string) error {
	payload := map[string]string{"nick": nick}
	_, err := p.rest.do(ctx, "set_nickname", http.MethodPatch,
		fmt.Sprintf("%s/guilds/%s/members/%s", p.BaseURL, guildID, userID), payload, nil, auditHeaders(reason))
	return err
}

func (p *DiscordProvider) AddRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	_, err := p.rest.do(ctx, "add_role", http.MethodPut,
		fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", p.BaseURL, guildID, userID, roleID), nil, nil, auditHeaders(reason))
	return err
}

func (p *DiscordProvider) RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error {
	_, err := p.rest.do(ctx, "remove_role", http.MethodDelete,
		fmt.Sprintf("%s/guilds/%s/members/%s/roles/%s", p.BaseURL, guildID, userID, roleID), nil, nil, auditHeaders(reason))
	return err
}

// GetGuild fetches the guild with approximate member and presence counts.
func (p *DiscordProvider) GetGuild(ctx context.Context, guildID string) (*DiscordGuild, error) {
	var guild DiscordGuild
	_, err := p.rest.doGET(ctx, "get_guild", fmt.Sprintf("%s/guilds/%s?with_counts=true", p.BaseURL, guildID), &guild)
	if err != nil {
		return nil, err
	}
	return &guild, nil
}
