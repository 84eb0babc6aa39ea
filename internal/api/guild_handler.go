package api

import (
	"net/http"
	"time"

	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/jobs"
)

// MemberCountHandler handles GET /api/v1/guild/member-count
func MemberCountHandler(job *jobs.MemberCountJob) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		initTime := time.Now()
		actor, ok := actorFrom(w, r, initTime)
		if !ok {
			return
		}

		count, err := job.Count(r.Context(), actor.GuildID)
		if err != nil {
			common.RespondError(w, initTime, nil, "Member count unavailable", http.StatusBadGateway)
			return
		}
		common.RespondSuccess(w, initTime, "Member count", count)
	}
}
