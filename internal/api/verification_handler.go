package api

import (
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/services"

	"github.com/go-chi/chi/v5"
)

// StartVerificationHandler handles POST /api/v1/verification/start
func StartVerificationHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.StartVerificationRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.Start(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Verification started", resp, http.StatusCreated)
	}
}

// CompleteVerificationHandler handles POST /api/v1/verification/complete
func CompleteVerificationHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.CompleteVerificationRequest
		if r.ContentLength != 0 && !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.Complete(r.Context(), actor, req.UserID)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Verification complete", resp)
	}
}

// CancelVerificationHandler handles DELETE /api/v1/verification/pending
func CancelVerificationHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		removed, err := svc.Cancel(r.Context(), actor, r.URL.Query().Get("user_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		if !removed {
			common.RespondError(w, initTime, nil, constants.MsgNoPendingVerification, http.StatusNotFound)
			return
		}
		common.RespondSuccess(w, initTime, "Verification cancelled", nil)
	}
}

// PendingVerificationHandler handles GET /api/v1/verification/pending
func PendingVerificationHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		pending, err := svc.Pending(r.Context(), actor, r.URL.Query().Get("user_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Pending verification", pending)
	}
}

// LinkHandler handles GET /api/v1/verification/link
func LinkHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		link, err := svc.Link(r.Context(), actor, r.URL.Query().Get("user_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Verified link", link)
	}
}

// ReconcileMemberHandler handles POST /api/v1/members/{user_id}/reconcile
func ReconcileMemberHandler(svc *services.VerificationService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		result, err := svc.Update(r.Context(), actor, chi.URLParam(r, "user_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}

		msg := "Roles updated"
		if !result.Complete() {
			msg = "Roles partially updated"
		}
		common.RespondSuccess(w, initTime, msg, result)
	}
}
