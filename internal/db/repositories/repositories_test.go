package repositories

import (
	"context"
	"errors"
	"testing"

	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/models/entities"
	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"github.com/jmoiron/sqlx"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Setup test database
func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(
		&gormModels.ApiKey{},
		&gormModels.UserPermission{},
		&gormModels.TicketRole{},
		&gormModels.ActiveTicket{},
	); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func TestPermissionRepository_GrantRevoke(t *testing.T) {
	repo := NewPermissionRepository(setupTestDB(t))
	ctx := context.Background()

	both := []constants.PermissionType{constants.PermissionTryout, constants.PermissionTraining}

	added, err := repo.Grant(ctx, "1", "42", "owner", []constants.PermissionType{constants.PermissionTryout})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(added) != 1 {
		t.Fatalf("Expected 1 grant, got %v", added)
	}

	added, err = repo.Grant(ctx, "1", "42", "owner", both)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(added) != 1 || added[0] != constants.PermissionTraining {
		t.Errorf("Expected only training to be added, got %v", added)
	}

	has, err := repo.Has(ctx, "1", "42", constants.PermissionTraining)
	if err != nil || !has {
		t.Errorf("Expected training permission, got %v, %v", has, err)
	}
	has, _ = repo.Has(ctx, "2", "42", constants.PermissionTraining)
	if has {
		t.Error("Permissions must be scoped to the guild")
	}

	removed, err := repo.Revoke(ctx, "1", "42", both)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if removed != 2 {
		t.Errorf("Expected 2 rows removed, got %d", removed)
	}

	perms, _ := repo.List(ctx, "1", "42")
	if len(perms) != 0 {
		t.Errorf("Expected no permissions left, got %v", perms)
	}
}

func TestTicketRepository_OneOpenTicketPerUser(t *testing.T) {
	repo := NewTicketRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Open(ctx, &gormModels.ActiveTicket{GuildID: "1", UserID: "42", ChannelID: "c1"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	err := repo.Open(ctx, &gormModels.ActiveTicket{GuildID: "1", UserID: "42", ChannelID: "c2"})
	if !errors.Is(err, ErrTicketExists) {
		t.Fatalf("Expected ErrTicketExists, got %v", err)
	}

	ticket, err := repo.GetByChannel(ctx, "c1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if ticket.UserID != "42" {
		t.Errorf("Unexpected ticket %+v", ticket)
	}

	closed, err := repo.DeleteByChannel(ctx, "c1")
	if err != nil || !closed {
		t.Fatalf("Expected ticket to close, got %v, %v", closed, err)
	}
	if _, err := repo.GetByChannel(ctx, "c1"); !errors.Is(err, ErrTicketNotFound) {
		t.Errorf("Expected ErrTicketNotFound, got %v", err)
	}
}

func TestTicketRepository_Roles(t *testing.T) {
	repo := NewTicketRepository(setupTestDB(t))
	ctx := context.Background()

	if added, err := repo.AddRole(ctx, "1", "r1"); err != nil || !added {
		t.Fatalf("Expected role to be added, got %v, %v", added, err)
	}
	if added, err := repo.AddRole(ctx, "1", "r1"); err != nil || added {
		t.Fatalf("Expected duplicate role to be ignored, got %v, %v", added, err)
	}

	roles, _ := repo.ListRoles(ctx, "1")
	if len(roles) != 1 || roles[0] != "r1" {
		t.Errorf("Unexpected roles %v", roles)
	}

	if removed, _ := repo.RemoveRole(ctx, "1", "r1"); !removed {
		t.Error("Expected role to be removed")
	}
}

func TestKeysRepo(t *testing.T) {
	orm := setupTestDB(t)
	sqlDB, _ := orm.DB()
	repo := NewApiKeysRepo(sqlx.NewDb(sqlDB, "sqlite3"))
	ctx := context.Background()

	if err := repo.Insert(ctx, entities.NewApiKey{ID: "key-1", Label: "bot"}); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	key, err := repo.GetStatus(ctx, "key-1")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !key.Status {
		t.Error("Expected new key to be active")
	}

	if _, err := repo.GetStatus(ctx, "missing"); err == nil {
		t.Error("Expected error for unknown key")
	}
}
