package api

import (
	"context"
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/models/entities"
)

// HealthCheckHandler handles GET /healthCheck
//
// @Summary Health check
// @Description Verifies the database and, when enabled, Redis.
// @Tags Misc
// @Router /healthCheck [get]
func HealthCheckHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()

		services := make(map[string]entities.ServiceStatus)

		dbStatus := entities.ServiceStatus{Status: "ok", Details: "Database connected"}
		if err := deps.Repo.Keys.Ping(ctx); err != nil {
			dbStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
		}
		services[string(deps.Config.DBDriver)] = dbStatus

		if deps.Redis != nil {
			redisStatus := entities.ServiceStatus{Status: "ok", Details: "Redis connected"}
			if err := deps.Redis.Ping(ctx).Err(); err != nil {
				redisStatus = entities.ServiceStatus{Status: "down", Details: err.Error()}
			}
			services["redis"] = redisStatus
		}

		overallStatus := "ok"
		for _, svc := range services {
			if svc.Status != "ok" {
				overallStatus = "down"
				break
			}
		}

		resp := entities.HealthCheckResponse{
			Services: services,
			Status:   overallStatus,
			UpSince:  deps.UpSince.UTC(),
			Uptime:   time.Since(deps.UpSince).Round(time.Second).String(),
		}

		if overallStatus != "ok" {
			common.RespondErrorData(w, initTime, "Degraded", resp, http.StatusServiceUnavailable)
			return
		}
		common.RespondSuccess(w, initTime, "Healthy", resp)
	}
}

// StatusHandler handles GET /status
func StatusHandler(deps *Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()

		resp := entities.StatusResponse{
			Status:        "ok",
			Mode:          deps.Config.SessionStore,
			Environment:   deps.Config.Env,
			Uptime:        common.FormatDuration(time.Since(deps.UpSince)),
			PendingCloses: deps.Services.Tickets.PendingCloses(),
			CacheBackend:  deps.Config.CacheBackend,
			EventsBackend: deps.Config.EventsBackend,
		}
		if counter, ok := deps.Cache.(interface{ ItemCount() int }); ok {
			resp.CachedEntries = counter.ItemCount()
		}
		if stream, ok := deps.Publisher.(interface {
			Len(ctx context.Context) (int64, error)
		}); ok {
			if n, err := stream.Len(r.Context()); err == nil {
				resp.StreamLength = n
			}
		}
		common.RespondSuccess(w, initTime, "Status", resp)
	}
}
