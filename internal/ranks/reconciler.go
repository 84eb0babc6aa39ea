package ranks

import (
	"context"
	"fmt"

	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/providers"
	"infinite-experiment/garrison/internal/verification"

	"golang.org/x/sync/errgroup"
)

// GuildClient is the Discord surface the reconciler mutates.
type GuildClient interface {
	ListRoles(ctx context.Context, guildID string) ([]providers.DiscordRole, error)
	CreateRole(ctx context.Context, guildID, name, reason string) (*providers.DiscordRole, error)
	GetMember(ctx context.Context, guildID, userID string) (*providers.DiscordMember, error)
	SetNickname(ctx context.Context, guildID, userID, nick, reason string) error
	AddRole(ctx context.Context, guildID, userID, roleID, reason string) error
	RemoveRole(ctx context.Context, guildID, userID, roleID, reason string) error
}

// RankSource answers group rank lookups.
type RankSource interface {
	FetchGroupRank(ctx context.Context, robloxID, groupID int64) (verification.GroupRank, error)
}

// Result reports what a reconciliation changed. A false flag with an entry in
// Errors is a partial success.
type Result struct {
	IsMember         bool     `json:"is_member"`
	RankName         string   `json:"rank_name,omitempty"`
	Label            string   `json:"label"`
	NicknameTarget   string   `json:"nickname_target"`
	NicknameUpdated  bool     `json:"nickname_updated"`
	RoleUpdated      bool     `json:"role_updated"`
	AssignedRoleName string   `json:"assigned_role_name,omitempty"`
	Errors           []string `json:"errors,omitempty"`
}

// Complete reports whether every sub-step succeeded.
func (r *Result) Complete() bool {
	return r.NicknameUpdated && r.RoleUpdated
}

type Reconciler struct {
	ranks   RankSource
	guild   GuildClient
	table   *Table
	groupID int64
}

func NewReconciler(ranks RankSource, guild GuildClient, table *Table, groupID int64) *Reconciler {
	if table == nil {
		table = DefaultTable()
	}
	return &Reconciler{ranks: ranks, guild: guild, table: table, groupID: groupID}
}

func (r *Reconciler) Table() *Table {
	return r.table
}

// Reconcile aligns the member's nickname and rank role with their current
// group rank. Only a failed rank lookup is returned as an error; Discord
// failures degrade the matching flag.
func (r *Reconciler) Reconcile(ctx context.Context, guildID, userID string, robloxID int64, robloxUsername string) (*Result, error) {
	rank, err := r.ranks.FetchGroupRank(ctx, robloxID, r.groupID)
	if err != nil {
		return nil, &verification.ExternalServiceError{Op: "fetch group rank", Err: err}
	}

	rankName := rank.RankName
	if rankName == "Unknown" {
		rankName = ""
	}
	label := r.table.Label(rankName)
	res := &Result{
		IsMember:       rank.IsMember,
		RankName:       rankName,
		Label:          label,
		NicknameTarget: Nickname(label, robloxUsername),
	}

	var (
		roles  []providers.DiscordRole
		member *providers.DiscordMember
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		roles, err = r.guild.ListRoles(gctx, guildID)
		return err
	})
	g.Go(func() error {
		var err error
		member, err = r.guild.GetMember(gctx, guildID, userID)
		return err
	})
	fetchErr := g.Wait()

	res.NicknameUpdated = r.applyNickname(ctx, guildID, userID, member, res)

	if fetchErr != nil {
		res.Errors = append(res.Errors, describe("load member and roles", fetchErr))
	} else {
		res.RoleUpdated = r.applyRole(ctx, guildID, userID, member, roles, rank.IsMember && rankName != "", rankName, res)
	}

	logging.Info("Rank reconciled",
		"guild_id", guildID,
		"user_id", userID,
		"roblox_id", robloxID,
		"rank", rankName,
		"nickname_updated", res.NicknameUpdated,
		"role_updated", res.RoleUpdated,
	)
	return res, nil
}

func (r *Reconciler) applyNickname(ctx context.Context, guildID, userID string, member *providers.DiscordMember, res *Result) bool {
	if member != nil && member.Nick != nil && *member.Nick == res.NicknameTarget {
		return true
	}
	if err := r.guild.SetNickname(ctx, guildID, userID, res.NicknameTarget, "Rank sync"); err != nil {
		res.Errors = append(res.Errors, describe("set nickname", err))
		return false
	}
	return true
}

func (r *Reconciler) applyRole(ctx context.Context, guildID, userID string, member *providers.DiscordMember,
	roles []providers.DiscordRole, ranked bool, rankName string, res *Result) bool {

	targetName := CivilianRole
	addReason := "Assigned Civilian status"
	removeReason := "User not in CBA group"
	if ranked {
		targetName = rankName
		addReason = "Assigned CBA rank: " + rankName
		removeReason = "Updating CBA rank"
	}

	byID := make(map[string]providers.DiscordRole, len(roles))
	var target *providers.DiscordRole
	for i := range roles {
		byID[roles[i].ID] = roles[i]
		if target == nil && roles[i].Name == targetName {
			target = &roles[i]
		}
	}

	if target == nil {
		created, err := r.guild.CreateRole(ctx, guildID, targetName, "Auto-created for rank: "+targetName)
		if err != nil {
			res.Errors = append(res.Errors, describe("create role "+targetName, err))
			return false
		}
		target = created
	}

	held := false
	for _, roleID := range member.Roles {
		if roleID == target.ID {
			held = true
			continue
		}
		role, ok := byID[roleID]
		if !ok || !(r.table.Has(role.Name) || role.Name == CivilianRole) {
			continue
		}
		if err := r.guild.RemoveRole(ctx, guildID, userID, roleID, removeReason); err != nil {
			res.Errors = append(res.Errors, describe("remove role "+role.Name, err))
			return false
		}
	}

	if !held {
		if err := r.guild.AddRole(ctx, guildID, userID, target.ID, addReason); err != nil {
			res.Errors = append(res.Errors, describe("add role "+targetName, err))
			return false
		}
	}

	res.AssignedRoleName = targetName
	return true
}

func describe(step string, err error) string {
	if providers.IsForbidden(err) {
		return fmt.Sprintf("%s: missing permission", step)
	}
	if providers.IsNotFound(err) {
		return fmt.Sprintf("%s: not found", step)
	}
	return fmt.Sprintf("%s: %v", step, err)
}
