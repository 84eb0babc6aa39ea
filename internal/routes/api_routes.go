package routes

import (
	"infinite-experiment/garrison/internal/api"
	"infinite-experiment/garrison/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// RegisterAPIRoutes registers all API v1 routes and handlers
func RegisterAPIRoutes(r chi.Router, deps *api.Dependencies) {
	limiter := middleware.NewRateLimiter(5, 10)
	svcs := deps.Services

	r.Route("/api/v1", func(v1 chi.Router) {
		v1.Use(middleware.InFlightMiddleware(deps.Metrics, "/api/v1"))
		v1.Use(limiter.Middleware)
		v1.Use(middleware.AuthMiddleware(deps.Repo.Keys, deps.Signer)) // global: all routes must be authenticated
		v1.Use(middleware.RequireMember())

		v1.Route("/pads", func(p chi.Router) {
			p.Get("/", api.ListPadsHandler(svcs.Pads))
			p.Get("/mine", api.MySessionsHandler(svcs.Pads))
			p.Get("/{pad}", api.GetPadHandler(svcs.Pads))
			p.Post("/{pad}/session", api.StartSessionHandler(svcs.Pads))
			p.Delete("/{pad}/session", api.EndSessionHandler(svcs.Pads))
		})

		v1.Route("/verification", func(vr chi.Router) {
			vr.Post("/start", api.StartVerificationHandler(svcs.Verification))
			vr.Post("/complete", api.CompleteVerificationHandler(svcs.Verification))
			vr.Get("/pending", api.PendingVerificationHandler(svcs.Verification))
			vr.Delete("/pending", api.CancelVerificationHandler(svcs.Verification))
			vr.Get("/link", api.LinkHandler(svcs.Verification))
		})

		v1.Post("/members/{user_id}/reconcile", api.ReconcileMemberHandler(svcs.Verification))

		v1.Route("/permissions", func(p chi.Router) {
			p.Get("/", api.ListPermissionsHandler(svcs.Permissions))

			// Elevated-only group
			p.Group(func(admin chi.Router) {
				admin.Use(middleware.IsElevatedMiddleware())
				admin.Post("/", api.GrantPermissionHandler(svcs.Permissions))
				admin.Delete("/", api.RevokePermissionHandler(svcs.Permissions))
			})
		})

		v1.Route("/tickets", func(t chi.Router) {
			t.Get("/roles", api.TicketRolesHandler(svcs.Tickets))
			t.With(middleware.IsElevatedMiddleware()).Post("/roles", api.AddTicketRoleHandler(svcs.Tickets))
			t.With(middleware.IsElevatedMiddleware()).Delete("/roles", api.RemoveTicketRoleHandler(svcs.Tickets))
			t.Post("/", api.OpenTicketHandler(svcs.Tickets))
			t.Get("/{channel_id}", api.GetTicketHandler(svcs.Tickets))
			t.Delete("/{channel_id}", api.CloseTicketHandler(svcs.Tickets))
			t.Post("/{channel_id}/cancel-close", api.CancelTicketCloseHandler(svcs.Tickets))
		})

		v1.Get("/guild/member-count", api.MemberCountHandler(deps.MemberCount))
	})
}
