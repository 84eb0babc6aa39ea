package middleware

import (
	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/logging"
	"net/http"
	"strings"
	"time"
)

// AuthMiddleware accepts either an API key with the bot's identity headers or
// a bearer token minted by TokenSigner.
func AuthMiddleware(keysRepo *repositories.KeysRepo, signer *auth.TokenSigner) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get(constants.HeaderAPIKey)

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				jwtClaims, err := signer.Parse(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					logging.Warn("Rejected bearer token", "error", err.Error())
					common.RespondError(w, start, nil, "Unauthorized. Invalid token", http.StatusUnauthorized)
					return
				}
				claims = jwtClaims

			case apiKey != "":
				keyRes, err := keysRepo.GetStatus(r.Context(), apiKey)
				if err != nil {
					common.RespondError(w, start, nil, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
					return
				}

				if !keyRes.Status {
					common.RespondError(w, start, nil, "Unauthorized. Inactive API Key", http.StatusUnauthorized)
					return
				}

				claims = &auth.APIKeyClaims{
					DiscordUIDVal:      strings.TrimSpace(r.Header.Get(constants.HeaderDiscordID)),
					DiscordServerIDVal: strings.TrimSpace(r.Header.Get(constants.HeaderServerID)),
					ElevatedVal:        common.ParseBool(r.Header.Get(constants.HeaderDiscordElevate)),
					RoleIDsVal:         splitList(r.Header.Get(constants.HeaderDiscordRoles)),
				}

			default:
				common.RespondError(w, start, nil, "Unauthorized. Missing API Key", http.StatusUnauthorized)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireMember rejects requests that do not name both the guild and the member.
func RequireMember() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := auth.GetUserClaims(r.Context())
			if claims == nil || claims.DiscordServerID() == "" || claims.DiscordUserID() == "" {
				common.RespondError(w, time.Now(), nil, "Missing X-Server-Id or X-Discord-Id", http.StatusBadRequest)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
