package api

import (
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/services"
)

// ListPermissionsHandler handles GET /api/v1/permissions?user_id=
func ListPermissionsHandler(svc *services.PermissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		resp, err := svc.List(r.Context(), actor, r.URL.Query().Get("user_id"))
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Permissions", resp)
	}
}

// GrantPermissionHandler handles POST /api/v1/permissions
func GrantPermissionHandler(svc *services.PermissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.PermissionRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.Grant(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Permissions granted", resp)
	}
}

// RevokePermissionHandler handles DELETE /api/v1/permissions
func RevokePermissionHandler(svc *services.PermissionService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		var req dtos.PermissionRequest
		if !decodeBody(w, r, initTime, &req) {
			return
		}

		resp, err := svc.Revoke(r.Context(), actor, req)
		if err != nil {
			respondServiceError(w, r, initTime, err)
			return
		}
		common.RespondSuccess(w, initTime, "Permissions revoked", resp)
	}
}
