package api

import (
	"fmt"
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/services"
)

// ListPadsHandler handles GET /api/v1/pads
func ListPadsHandler(svc *services.PadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		board, err := svc.ListPads(r.Context(), actor.GuildID)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Pad status", board)
	}
}

// MySessionsHandler handles GET /api/v1/pads/mine
func MySessionsHandler(svc *services.PadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		sessions, err := svc.MySessions(r.Context(), actor)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Your sessions", sessions)
	}
}

// GetPadHandler handles GET /api/v1/pads/{pad}
func GetPadHandler(svc *services.PadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}
		pad, ok := padParam(w, r, initTime)
		if !ok {
			return
		}

		status, err := svc.GetPad(r.Context(), actor.GuildID, pad)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, fmt.Sprintf("Pad %d", pad), status)
	}
}

// StartSessionHandler handles POST /api/v1/pads/{pad}/session
func StartSessionHandler(svc *services.PadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}
		pad, ok := padParam(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.StartSessionRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.StartSession(r.Context(), actor, pad, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime,
			fmt.Sprintf("%s started on pad %d", resp.Session.Kind.Label(), resp.Session.Pad),
			resp, http.StatusCreated)
	}
}

// EndSessionHandler handles DELETE /api/v1/pads/{pad}/session
func EndSessionHandler(svc *services.PadService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}
		pad, ok := padParam(w, r, initTime)
		if !ok {
			return
		}

		resp, err := svc.EndSession(r.Context(), actor, pad)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime,
			fmt.Sprintf("%s on pad %d ended after %s", resp.Session.Kind.Label(), resp.Session.Pad, resp.Duration),
			resp)
	}
}
