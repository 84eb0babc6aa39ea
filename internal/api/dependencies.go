package api

import (
	"fmt"
	"time"

	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/config"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/events"
	"infinite-experiment/garrison/internal/jobs"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/metrics"
	"infinite-experiment/garrison/internal/pads"
	"infinite-experiment/garrison/internal/providers"
	"infinite-experiment/garrison/internal/ranks"
	"infinite-experiment/garrison/internal/services"
	"infinite-experiment/garrison/internal/verification"
	"infinite-experiment/garrison/internal/workers"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Repositories struct {
	Keys        *repositories.KeysRepo
	Permissions *repositories.PermissionRepository
	Tickets     *repositories.TicketRepository
}

type Services struct {
	Pads         *services.PadService
	Permissions  *services.PermissionService
	Verification *services.VerificationService
	Tickets      *services.TicketService
}

type Dependencies struct {
	Config      *config.Config
	DB          *sqlx.DB
	Redis       *redis.Client
	Cache       common.CacheInterface
	Publisher   events.Publisher
	Metrics     *metrics.MetricsRegistry
	Signer      *auth.TokenSigner
	Actions     *workers.DelayedActions
	MemberCount *jobs.MemberCountJob
	Repo        *Repositories
	Services    *Services
	UpSince     time.Time
}

// InitDependencies builds every store, client and service from cfg.
// redisClient may be nil when Redis is disabled.
func InitDependencies(cfg *config.Config, orm *gorm.DB, sqlDB *sqlx.DB, redisClient *redis.Client, m *metrics.MetricsRegistry) (*Dependencies, error) {
	repos := &Repositories{
		Keys:        repositories.NewApiKeysRepo(sqlDB),
		Permissions: repositories.NewPermissionRepository(orm),
		Tickets:     repositories.NewTicketRepository(orm),
	}

	var cache common.CacheInterface
	if cfg.CacheBackend == "redis" && redisClient != nil {
		cache = common.NewRedisCacheService(redisClient, "garrison:")
	} else {
		cache = common.NewCacheService(600, 1200)
	}

	publisher := newPublisher(cfg, redisClient)

	var (
		padStore    pads.Store
		verifyStore verification.Store
	)
	if cfg.SessionStore == "memory" {
		padStore = pads.NewMemoryStore()
		verifyStore = verification.NewMemoryStore()
	} else {
		padStore = pads.NewGormStore(orm)
		verifyStore = verification.NewGormStore(orm)
	}

	table := ranks.DefaultTable()
	if cfg.RankTablePath != "" {
		loaded, err := ranks.LoadTable(cfg.RankTablePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load rank table: %w", err)
		}
		table = loaded
	}

	profile := providers.NewCachedProfileClient(providers.NewRobloxProvider(cfg, m), cache, m)
	discord := providers.NewDiscordProvider(cfg, m)
	reconciler := ranks.NewReconciler(profile, discord, table, cfg.RobloxGroupID)

	padRegistry := pads.NewRegistry(padStore,
		pads.WithBounds(pads.Bounds{Min: cfg.MinPadNumber, Max: cfg.MaxPadNumber}))
	verifyRegistry := verification.NewRegistry(verifyStore, profile,
		verification.WithTTL(cfg.VerificationTTL))

	actions := workers.NewDelayedActions()
	permSvc := services.NewPermissionService(repos.Permissions)

	svcs := &Services{
		Pads:         services.NewPadService(padRegistry, permSvc, verifyRegistry, publisher, m, cfg.SessionControlTimeout),
		Permissions:  permSvc,
		Verification: services.NewVerificationService(verifyRegistry, profile, reconciler, cfg.RobloxGroupID, publisher, m),
		Tickets:      services.NewTicketService(repos.Tickets, actions, publisher, cfg.TicketCloseDelay),
	}

	return &Dependencies{
		Config:      cfg,
		DB:          sqlDB,
		Redis:       redisClient,
		Cache:       cache,
		Publisher:   publisher,
		Metrics:     m,
		Signer:      auth.NewTokenSigner([]byte(cfg.JWTSecret)),
		Actions:     actions,
		MemberCount: jobs.NewMemberCountJob(discord, cache, m, cfg.MemberCountGuildID, cfg.MemberCountInterval),
		Repo:        repos,
		Services:    svcs,
		UpSince:     time.Now(),
	}, nil
}

func newPublisher(cfg *config.Config, redisClient *redis.Client) events.Publisher {
	switch cfg.EventsBackend {
	case "redis":
		if redisClient != nil {
			return events.NewRedisStreamPublisher(redisClient, cfg.EventsStream)
		}
		logging.Warn("Redis events backend requested without Redis, falling back to log")
	case "amqp":
		return events.NewAMQPPublisher(cfg.RabbitMQURL)
	}
	return events.LogPublisher{}
}

// Close stops background work and releases connections.
func (d *Dependencies) Close() {
	d.Actions.Stop()
	if err := d.Publisher.Close(); err != nil {
		logging.Warn("Failed to close event publisher", "error", err.Error())
	}
	if err := d.Cache.Close(); err != nil {
		logging.Warn("Failed to close cache", "error", err.Error())
	}
}
