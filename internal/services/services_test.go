package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"infinite-experiment/garrison/internal/db"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/events"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/pads"
	"infinite-experiment/garrison/internal/ranks"
	"infinite-experiment/garrison/internal/verification"
	"infinite-experiment/garrison/internal/workers"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := gdb.AutoMigrate(db.Models()...); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return gdb
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type mockProfile struct {
	resolveFunc     func(ctx context.Context, username string) (int64, bool, error)
	descriptionFunc func(ctx context.Context, robloxID int64) (string, error)
}

func (m *mockProfile) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	return m.resolveFunc(ctx, username)
}

func (m *mockProfile) FetchDescription(ctx context.Context, robloxID int64) (string, error) {
	return m.descriptionFunc(ctx, robloxID)
}

func (m *mockProfile) FetchGroupRank(ctx context.Context, robloxID, groupID int64) (verification.GroupRank, error) {
	return verification.GroupRank{}, nil
}

type mockReconciler struct {
	reconcileFunc func(ctx context.Context, guildID, userID string, robloxID int64, username string) (*ranks.Result, error)
	calls         int
}

func (m *mockReconciler) Reconcile(ctx context.Context, guildID, userID string, robloxID int64, username string) (*ranks.Result, error) {
	m.calls++
	return m.reconcileFunc(ctx, guildID, userID, robloxID, username)
}

var (
	owner  = Actor{GuildID: "g1", UserID: "owner", Elevated: true}
	member = Actor{GuildID: "g1", UserID: "u1"}
	other  = Actor{GuildID: "g1", UserID: "u2"}
)

func newPadService(t *testing.T) (*PadService, *PermissionService, *recordingPublisher) {
	gdb := setupTestDB(t)
	perms := NewPermissionService(repositories.NewPermissionRepository(gdb))
	pub := &recordingPublisher{}
	svc := NewPadService(pads.NewRegistry(pads.NewMemoryStore()), perms, nil, pub, nil, 7200*time.Second)
	return svc, perms, pub
}

func TestPadService_StartRequiresPermission(t *testing.T) {
	svc, perms, pub := newPadService(t)
	ctx := context.Background()
	req := dtos.StartSessionRequest{Kind: "tryout", Starts: "now"}

	if _, err := svc.StartSession(ctx, member, 3, req); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}

	if _, err := perms.Grant(ctx, member, dtos.PermissionRequest{UserID: "u1", Permission: "tryout"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected non-elevated grant to be refused, got %v", err)
	}
	if _, err := perms.Grant(ctx, owner, dtos.PermissionRequest{UserID: "u1", Permission: "tryout"}); err != nil {
		t.Fatalf("Grant failed: %v", err)
	}

	resp, err := svc.StartSession(ctx, member, 3, req)
	if err != nil {
		t.Fatalf("Expected start to succeed, got %v", err)
	}
	if want := resp.Session.StartedAt.Add(7200 * time.Second); !resp.ControlExpiresAt.Equal(want) {
		t.Errorf("ControlExpiresAt = %v, want %v", resp.ControlExpiresAt, want)
	}

	// tryout permission does not cover trainings
	if _, err := svc.StartSession(ctx, member, 4, dtos.StartSessionRequest{Kind: "training", Starts: "now"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for training, got %v", err)
	}

	if got := pub.types(); len(got) != 1 || got[0] != "pad.session.started" {
		t.Errorf("Unexpected events: %v", got)
	}
}

func TestPadService_BoardAndEnd(t *testing.T) {
	svc, _, pub := newPadService(t)
	ctx := context.Background()

	if _, err := svc.StartSession(ctx, owner, 2, dtos.StartSessionRequest{Kind: "training", Starts: "in 5"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	board, err := svc.ListPads(ctx, "g1")
	if err != nil {
		t.Fatalf("ListPads failed: %v", err)
	}
	if len(board) != 9 {
		t.Fatalf("Expected 9 pads, got %d", len(board))
	}
	for _, p := range board {
		if p.Available == (p.Pad == 2) {
			t.Errorf("Pad %d availability = %v", p.Pad, p.Available)
		}
	}

	if _, err := svc.EndSession(ctx, member, 2); !errors.Is(err, pads.ErrNotSessionOwner) {
		t.Fatalf("Expected ErrNotSessionOwner, got %v", err)
	}

	ended, err := svc.EndSession(ctx, owner, 2)
	if err != nil {
		t.Fatalf("End failed: %v", err)
	}
	if ended.EndedBy != "owner" {
		t.Errorf("EndedBy = %q", ended.EndedBy)
	}

	st, err := svc.GetPad(ctx, "g1", 2)
	if err != nil || !st.Available {
		t.Fatalf("Expected pad 2 free, got %+v, %v", st, err)
	}

	if got := pub.types(); len(got) != 2 || got[1] != "pad.session.ended" {
		t.Errorf("Unexpected events: %v", got)
	}
}

func newVerificationService(t *testing.T, description string, rec RankReconciler) (*VerificationService, *recordingPublisher) {
	profile := &mockProfile{
		resolveFunc: func(ctx context.Context, username string) (int64, bool, error) {
			if username == "ghost_user" {
				return 0, false, nil
			}
			return 4242, true, nil
		},
		descriptionFunc: func(ctx context.Context, robloxID int64) (string, error) {
			return description, nil
		},
	}
	registry := verification.NewRegistry(verification.NewMemoryStore(), profile,
		verification.WithCodeGenerator(func() string { return "ABCD1234" }))
	pub := &recordingPublisher{}
	return NewVerificationService(registry, profile, rec, 11925205, pub, nil), pub
}

func TestVerificationService_StartRules(t *testing.T) {
	svc, _ := newVerificationService(t, "", nil)
	ctx := context.Background()

	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "builder_1", UserID: "u2"}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for other member, got %v", err)
	}
	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "builder_1", Reverify: true}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden for reverify, got %v", err)
	}
	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "ghost_user"}); !errors.Is(err, verification.ErrExternalUserNotFound) {
		t.Fatalf("Expected ErrExternalUserNotFound, got %v", err)
	}
	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "no"}); !errors.Is(err, verification.ErrInvalidUsername) {
		t.Fatalf("Expected ErrInvalidUsername, got %v", err)
	}

	resp, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "@builder_1"})
	if err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if resp.Code != "ABCD1234" || resp.RobloxID != 4242 || resp.UserID != "u1" {
		t.Errorf("Unexpected response: %+v", resp)
	}
}

func TestVerificationService_CompleteReconciles(t *testing.T) {
	rec := &mockReconciler{
		reconcileFunc: func(ctx context.Context, guildID, userID string, robloxID int64, username string) (*ranks.Result, error) {
			return &ranks.Result{IsMember: true, Label: "SGT", NicknameUpdated: true, RoleUpdated: true}, nil
		},
	}
	svc, pub := newVerificationService(t, "hello ABCD1234", rec)
	ctx := context.Background()

	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "builder_1"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	resp, err := svc.Complete(ctx, member, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.Reconciliation == nil || resp.Reconciliation.Label != "SGT" {
		t.Errorf("Expected reconciliation block, got %+v", resp)
	}
	if got := pub.types(); len(got) != 1 || got[0] != "verification.completed" {
		t.Errorf("Unexpected events: %v", got)
	}

	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "builder_1"}); !errors.Is(err, ErrAlreadyVerified) {
		t.Fatalf("Expected ErrAlreadyVerified, got %v", err)
	}

	// an elevated actor may reverify
	if _, err := svc.Start(ctx, owner, dtos.StartVerificationRequest{RobloxUsername: "builder_2", UserID: "u1", Reverify: true}); err != nil {
		t.Fatalf("Reverify failed: %v", err)
	}

	if _, err := svc.Update(ctx, member, ""); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if rec.calls != 2 {
		t.Errorf("Expected 2 reconcile calls, got %d", rec.calls)
	}
}

func TestVerificationService_ReconcileFailureKeepsLink(t *testing.T) {
	rec := &mockReconciler{
		reconcileFunc: func(ctx context.Context, guildID, userID string, robloxID int64, username string) (*ranks.Result, error) {
			return nil, &verification.ExternalServiceError{Op: "fetch group rank", Err: errors.New("boom")}
		},
	}
	svc, _ := newVerificationService(t, "ABCD1234", rec)
	ctx := context.Background()

	if _, err := svc.Start(ctx, member, dtos.StartVerificationRequest{RobloxUsername: "builder_1"}); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	resp, err := svc.Complete(ctx, member, "")
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if resp.ReconcileError == "" || resp.Reconciliation != nil {
		t.Errorf("Expected reconcile error block, got %+v", resp)
	}

	link, err := svc.Link(ctx, member, "")
	if err != nil {
		t.Fatalf("Link failed: %v", err)
	}
	if link.Link.RobloxID != 4242 {
		t.Errorf("Unexpected link: %+v", link.Link)
	}

	if _, err := svc.Update(ctx, other, ""); !errors.Is(err, verification.ErrNotVerified) {
		t.Fatalf("Expected ErrNotVerified, got %v", err)
	}
}

func newTicketService(t *testing.T, delay time.Duration) (*TicketService, *recordingPublisher) {
	gdb := setupTestDB(t)
	actions := workers.NewDelayedActions()
	t.Cleanup(actions.Stop)
	pub := &recordingPublisher{}
	return NewTicketService(repositories.NewTicketRepository(gdb), actions, pub, delay), pub
}

func TestTicketService_OpenAndAccess(t *testing.T) {
	svc, _ := newTicketService(t, time.Hour)
	ctx := context.Background()

	if _, err := svc.Open(ctx, member, dtos.OpenTicketRequest{ChannelID: "c1", Subject: "help"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	_, err := svc.Open(ctx, member, dtos.OpenTicketRequest{ChannelID: "c2"})
	if !errors.Is(err, repositories.ErrTicketExists) {
		t.Fatalf("Expected ErrTicketExists, got %v", err)
	}
	var exists *TicketExistsError
	if !errors.As(err, &exists) || exists.ChannelID != "c1" {
		t.Errorf("Expected existing channel c1, got %v", err)
	}

	if _, err := svc.Close(ctx, other, "c1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("Expected ErrForbidden, got %v", err)
	}

	if _, err := svc.AddRole(ctx, owner, dtos.TicketRoleRequest{RoleID: "support"}); err != nil {
		t.Fatalf("AddRole failed: %v", err)
	}
	staff := Actor{GuildID: "g1", UserID: "u3", RoleIDs: []string{"support"}}
	resp, err := svc.Close(ctx, staff, "c1")
	if err != nil {
		t.Fatalf("Close by ticket role failed: %v", err)
	}
	if resp.ClosesAt == nil {
		t.Error("Expected ClosesAt to be set")
	}

	cancelled, err := svc.CancelClose(ctx, member, "c1")
	if err != nil || !cancelled {
		t.Fatalf("Expected close to be cancelled, got %v, %v", cancelled, err)
	}

	foreign := Actor{GuildID: "g2", UserID: "u1", Elevated: true}
	if _, err := svc.Get(ctx, foreign, "c1"); !errors.Is(err, repositories.ErrTicketNotFound) {
		t.Fatalf("Expected ErrTicketNotFound across guilds, got %v", err)
	}
}

func TestTicketService_DelayedClose(t *testing.T) {
	svc, pub := newTicketService(t, 20*time.Millisecond)
	ctx := context.Background()

	if _, err := svc.Open(ctx, member, dtos.OpenTicketRequest{ChannelID: "c9"}); err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if _, err := svc.Close(ctx, member, "c9"); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(pub.types()) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if got := pub.types(); len(got) != 1 || got[0] != "ticket.close" {
		t.Fatalf("Unexpected events: %v", got)
	}
	if _, err := svc.Get(ctx, member, "c9"); !errors.Is(err, repositories.ErrTicketNotFound) {
		t.Fatalf("Expected ticket to be gone, got %v", err)
	}
}
