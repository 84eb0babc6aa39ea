package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"infinite-experiment/garrison/internal/auth"
	"infinite-experiment/garrison/internal/common"
	"infinite-experiment/garrison/internal/constants"
	"infinite-experiment/garrison/internal/db/repositories"
	"infinite-experiment/garrison/internal/logging"
	"infinite-experiment/garrison/internal/models/dtos"
	"infinite-experiment/garrison/internal/pads"
	"infinite-experiment/garrison/internal/services"
	"infinite-experiment/garrison/internal/verification"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// respondServiceError is the single place domain errors become status codes
// and user text.
func respondServiceError(w http.ResponseWriter, r *http.Request, initTime time.Time, err error) {
	var occupied *pads.PadOccupiedError
	var hasSession *pads.UserHasSessionError
	var ticketExists *services.TicketExistsError

	switch {
	case errors.As(err, &occupied):
		common.RespondErrorData(w, initTime, constants.MsgPadUnavailable,
			conflictData("pad_occupied", occupied.Session), http.StatusConflict)
	case errors.As(err, &hasSession):
		common.RespondErrorData(w, initTime, constants.MsgSessionAlreadyActive,
			conflictData("user_has_session", hasSession.Session), http.StatusConflict)

	case errors.Is(err, pads.ErrInvalidInput),
		errors.Is(err, services.ErrInvalidInput),
		errors.Is(err, verification.ErrInvalidUsername):
		common.RespondError(w, initTime, err, "Invalid input", http.StatusBadRequest)

	case errors.Is(err, pads.ErrNotSessionOwner):
		common.RespondError(w, initTime, nil, constants.MsgSessionAccessDenied, http.StatusForbidden)
	case errors.Is(err, services.ErrForbidden):
		msg := strings.TrimPrefix(err.Error(), services.ErrForbidden.Error()+": ")
		if msg == services.ErrForbidden.Error() {
			msg = constants.MsgMissingPermission
		}
		common.RespondError(w, initTime, nil, msg, http.StatusForbidden)

	case errors.Is(err, pads.ErrSessionNotFound):
		common.RespondError(w, initTime, nil, constants.MsgSessionNotFound, http.StatusNotFound)
	case errors.Is(err, verification.ErrNoPendingVerification):
		common.RespondError(w, initTime, nil, constants.MsgNoPendingVerification, http.StatusNotFound)
	case errors.Is(err, verification.ErrNotVerified):
		common.RespondError(w, initTime, nil, constants.MsgNotVerified, http.StatusNotFound)
	case errors.Is(err, verification.ErrExternalUserNotFound):
		common.RespondError(w, initTime, nil, constants.MsgRobloxUserNotFound, http.StatusNotFound)
	case errors.Is(err, repositories.ErrTicketNotFound):
		common.RespondError(w, initTime, nil, constants.MsgNotATicket, http.StatusNotFound)

	case errors.Is(err, verification.ErrExpired):
		common.RespondError(w, initTime, nil, constants.MsgVerificationExpired, http.StatusGone)
	case errors.Is(err, verification.ErrCodeNotFound):
		common.RespondError(w, initTime, nil, constants.MsgCodeNotInDescription, http.StatusUnprocessableEntity)

	case errors.Is(err, services.ErrAlreadyVerified):
		common.RespondError(w, initTime, nil, constants.MsgAlreadyVerified, http.StatusConflict)
	case errors.As(err, &ticketExists):
		common.RespondErrorData(w, initTime, constants.MsgTicketExists,
			map[string]string{"channel_id": ticketExists.ChannelID}, http.StatusConflict)
	case errors.Is(err, repositories.ErrTicketExists):
		common.RespondError(w, initTime, nil, constants.MsgTicketExists, http.StatusConflict)

	case errors.Is(err, verification.ErrExternalService):
		commandLogger(r).Warnw("External service failure", "error", err.Error())
		common.RespondError(w, initTime, nil, constants.MsgExternalUnavailable, http.StatusBadGateway)

	default:
		commandLogger(r).Errorw("Request failed", "error", err.Error())
		common.RespondError(w, initTime, nil, "Internal server error", http.StatusInternalServerError)
	}
}

func commandLogger(r *http.Request) *zap.SugaredLogger {
	var guildID, userID string
	if claims := auth.GetUserClaims(r.Context()); claims != nil {
		guildID, userID = claims.DiscordServerID(), claims.DiscordUserID()
	}
	return logging.WithCommand(auth.GetRequestID(r.Context()), guildID, userID, r.URL.Path)
}

func conflictData(reason string, sess pads.Session) dtos.SessionConflictResponse {
	return dtos.SessionConflictResponse{
		Reason:  reason,
		Session: sess,
		Elapsed: common.FormatDuration(sess.Elapsed(time.Now())),
	}
}

// actorFrom reads the caller from the auth middleware claims.
func actorFrom(w http.ResponseWriter, r *http.Request, initTime time.Time) (services.Actor, bool) {
	claims := auth.GetUserClaims(r.Context())
	if claims == nil || claims.DiscordServerID() == "" || claims.DiscordUserID() == "" {
		common.RespondError(w, initTime, nil, "Unauthorized: missing claims", http.StatusUnauthorized)
		return services.Actor{}, false
	}
	return services.ActorFromClaims(claims), true
}

func decodeBody(w http.ResponseWriter, r *http.Request, initTime time.Time, dest interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dest); err != nil {
		common.RespondError(w, initTime, nil, "Invalid request body", http.StatusBadRequest)
		return false
	}
	return true
}

func padParam(w http.ResponseWriter, r *http.Request, initTime time.Time) (int, bool) {
	pad, err := strconv.Atoi(chi.URLParam(r, "pad"))
	if err != nil {
		common.RespondError(w, initTime, nil, "Pad number must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return pad, true
}
