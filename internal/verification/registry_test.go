package verification

import (
	"context"
	"errors"
	"testing"
	"time"

	gormModels "infinite-experiment/garrison/internal/models/gorm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Mock ProfileClient
type mockProfileClient struct {
	resolveFunc     func(ctx context.Context, username string) (int64, bool, error)
	descriptionFunc func(ctx context.Context, robloxID int64) (string, error)
	rankFunc        func(ctx context.Context, robloxID, groupID int64) (GroupRank, error)
}

func (m *mockProfileClient) ResolveUsername(ctx context.Context, username string) (int64, bool, error) {
	return m.resolveFunc(ctx, username)
}

func (m *mockProfileClient) FetchDescription(ctx context.Context, robloxID int64) (string, error) {
	return m.descriptionFunc(ctx, robloxID)
}

func (m *mockProfileClient) FetchGroupRank(ctx context.Context, robloxID, groupID int64) (GroupRank, error) {
	return m.rankFunc(ctx, robloxID, groupID)
}

// profileWith answers every username with id and returns description for it.
func profileWith(id int64, description string) *mockProfileClient {
	return &mockProfileClient{
		resolveFunc: func(ctx context.Context, username string) (int64, bool, error) {
			return id, true, nil
		},
		descriptionFunc: func(ctx context.Context, robloxID int64) (string, error) {
			return description, nil
		},
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&gormModels.PendingVerification{}, &gormModels.RobloxVerification{}); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func stores(t *testing.T, fn func(t *testing.T, store Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("gorm", func(t *testing.T) { fn(t, NewGormStore(setupTestDB(t))) })
}

// sequence hands out the given codes in order.
func sequence(codes ...string) func() string {
	i := 0
	return func() string {
		c := codes[i%len(codes)]
		i++
		return c
	}
}

type clock struct{ now time.Time }

func (c *clock) Now() time.Time { return c.now }

func TestRegistry_CompleteScenario(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		reg := NewRegistry(store, profileWith(555, "hi AB12CD34 there"), WithCodeGenerator(sequence("AB12CD34")))

		p, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)
		assert.Equal(t, "AB12CD34", p.Code)

		link, err := reg.Complete(ctx, "9")
		require.NoError(t, err)
		assert.Equal(t, int64(555), link.RobloxID)

		got, err := reg.GetVerified(ctx, "1", "9")
		require.NoError(t, err)
		assert.Equal(t, "Bob123", got.RobloxUsername)
		assert.Equal(t, int64(555), got.RobloxID)

		_, err = reg.GetPending(ctx, "9")
		assert.ErrorIs(t, err, ErrNoPendingVerification)
	})
}

func TestRegistry_SinglePending(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		reg := NewRegistry(store, profileWith(555, "FIRST111"), WithCodeGenerator(sequence("FIRST111", "SECOND22")))

		_, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)
		second, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)

		p, err := reg.GetPending(ctx, "9")
		require.NoError(t, err)
		assert.Equal(t, second.Code, p.Code)

		// Only the latest code counts.
		_, err = reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrCodeNotFound)

		p, err = reg.GetPending(ctx, "9")
		require.NoError(t, err, "a wrong code keeps the challenge open")
		assert.Equal(t, "SECOND22", p.Code)
	})
}

func TestRegistry_Expired(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		reg := NewRegistry(store, profileWith(555, "AB12CD34"),
			WithCodeGenerator(sequence("AB12CD34")), WithClock(c.Now))

		_, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)

		c.now = c.now.Add(31 * time.Minute)

		_, err = reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrExpired)

		_, err = store.GetPending(ctx, "9")
		assert.ErrorIs(t, err, ErrNoPendingVerification)
	})
}

func TestRegistry_ReverifySupersedes(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		c := &clock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
		ids := map[string]int64{"Bob123": 555, "Alice_9": 777}
		profile := &mockProfileClient{
			resolveFunc: func(ctx context.Context, username string) (int64, bool, error) {
				id, ok := ids[username]
				return id, ok, nil
			},
			descriptionFunc: func(ctx context.Context, robloxID int64) (string, error) {
				return "code AB12CD34", nil
			},
		}
		reg := NewRegistry(store, profile, WithCodeGenerator(sequence("AB12CD34")), WithClock(c.Now))

		_, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)
		_, err = reg.Complete(ctx, "9")
		require.NoError(t, err)

		c.now = c.now.Add(time.Hour)

		_, err = reg.Start(ctx, "1", "9", "Alice_9")
		require.NoError(t, err)
		_, err = reg.Complete(ctx, "9")
		require.NoError(t, err)

		got, err := reg.GetVerified(ctx, "1", "9")
		require.NoError(t, err)
		assert.Equal(t, "Alice_9", got.RobloxUsername)

		history, err := reg.History(ctx, "1", "9")
		require.NoError(t, err)
		require.Len(t, history, 2)
		active := 0
		for _, l := range history {
			if l.IsActive {
				active++
			}
		}
		assert.Equal(t, 1, active)
		assert.Equal(t, "Alice_9", history[0].RobloxUsername)
	})
}

func TestRegistry_CompleteFailures(t *testing.T) {
	ctx := context.Background()

	t.Run("no pending", func(t *testing.T) {
		reg := NewRegistry(NewMemoryStore(), profileWith(1, ""))
		_, err := reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrNoPendingVerification)
	})

	t.Run("unknown user", func(t *testing.T) {
		profile := &mockProfileClient{
			resolveFunc: func(ctx context.Context, username string) (int64, bool, error) {
				return 0, false, nil
			},
		}
		reg := NewRegistry(NewMemoryStore(), profile)
		_, err := reg.Start(ctx, "1", "9", "Nobody")
		require.NoError(t, err)
		_, err = reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrExternalUserNotFound)
	})

	t.Run("service down is not a logical failure", func(t *testing.T) {
		boom := errors.New("connection reset")
		profile := &mockProfileClient{
			resolveFunc: func(ctx context.Context, username string) (int64, bool, error) {
				return 555, true, nil
			},
			descriptionFunc: func(ctx context.Context, robloxID int64) (string, error) {
				return "", boom
			},
		}
		reg := NewRegistry(NewMemoryStore(), profile)
		_, err := reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)

		_, err = reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrExternalService)
		assert.ErrorIs(t, err, boom)
		assert.NotErrorIs(t, err, ErrCodeNotFound)

		_, err = reg.GetPending(ctx, "9")
		assert.NoError(t, err, "a transient failure keeps the challenge open")
	})
}

func TestRegistry_Cancel(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		reg := NewRegistry(store, profileWith(555, ""))

		removed, err := reg.Cancel(ctx, "9")
		require.NoError(t, err)
		assert.False(t, removed)

		_, err = reg.Start(ctx, "1", "9", "Bob123")
		require.NoError(t, err)

		removed, err = reg.Cancel(ctx, "9")
		require.NoError(t, err)
		assert.True(t, removed)

		_, err = reg.Complete(ctx, "9")
		assert.ErrorIs(t, err, ErrNoPendingVerification)
	})
}

func TestRegistry_StartAcceptsAnyUsername(t *testing.T) {
	stores(t, func(t *testing.T, store Store) {
		ctx := context.Background()
		reg := NewRegistry(store, profileWith(555, ""), WithCodeGenerator(sequence("AB12CD34")))

		p, err := reg.Start(ctx, "1", "9", "  @x y ")
		require.NoError(t, err)
		assert.Equal(t, "x y", p.RobloxUsername)

		got, err := reg.GetPending(ctx, "9")
		require.NoError(t, err)
		assert.Equal(t, "AB12CD34", got.Code)
	})
}

func TestNormalizeUsername(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"Bob123", "Bob123", false},
		{"  @Bob_123 ", "Bob_123", false},
		{"", "", true},
		{"ab", "", true},
		{"has space", "", true},
		{"waytoolongusername_12345", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeUsername(tt.in)
		if tt.wantErr {
			assert.ErrorIs(t, err, ErrInvalidUsername, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestRandomCode(t *testing.T) {
	for i := 0; i < 50; i++ {
		code := RandomCode()
		require.Len(t, code, CodeLength)
		for _, ch := range code {
			assert.Contains(t, codeAlphabet, string(ch))
		}
	}
}
