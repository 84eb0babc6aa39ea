package api

import (
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/services"

	"github.com/go-chi/chi/v5"
)

// TicketRolesHandler handles GET /api/v1/tickets/roles
func TicketRolesHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		resp, err := svc.Roles(r.Context(), actor)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket roles", resp)
	}
}

// AddTicketRoleHandler handles POST /api/v1/tickets/roles
func AddTicketRoleHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.TicketRoleRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.AddRole(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket role added", resp)
	}
}

// RemoveTicketRoleHandler handles DELETE /api/v1/tickets/roles
func RemoveTicketRoleHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.TicketRoleRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.RemoveRole(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket role removed", resp)
	}
}

// OpenTicketHandler handles POST /api/v1/tickets
func OpenTicketHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.OpenTicketRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.Open(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket opened", resp, http.StatusCreated)
	}
}

// GetTicketHandler handles GET /api/v1/tickets/{channel_id}
func GetTicketHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		resp, err := svc.Get(r.Context(), actor, chi.URLParam(r, "channel_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket", resp)
	}
}

// CloseTicketHandler handles DELETE /api/v1/tickets/{channel_id}
func CloseTicketHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		resp, err := svc.Close(r.Context(), actor, chi.URLParam(r, "channel_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket will be closed", resp, http.StatusAccepted)
	}
}

// CancelTicketCloseHandler handles POST /api/v1/tickets/{channel_id}/cancel-close
func CancelTicketCloseHandler(svc *services.TicketService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		cancelled, err := svc.CancelClose(r.Context(), actor, chi.URLParam(r, "channel_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		if !cancelled {
			common.RespondError(w, initTime, nil, "No close is pending for this ticket", http.StatusNotFound)
			return
		}
		common.RespondSuccess(w, initTime, "Ticket close cancelled", nil)
	}
}
