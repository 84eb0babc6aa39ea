package middleware

import (
	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"net/http"
	"time"
)

// IsElevatedMiddleware only lets the guild owner or an administrator through.
func IsElevatedMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			claims := auth.GetUserClaims(r.Context())

			if claims == nil || !claims.Elevated() {
				common.RespondError(w, time.Now(), nil, constants.MsgOwnerOnly, http.StatusForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
