package removal

import (
	"context"
	"errors"
	"fmt"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"techlog/entity"
	"techlog/lib/api/cont"
	"techlog/lib/api/response"
	"techlog/lib/sl"
)

type Core interface {
	RemovePendingUser(ctx context.Context, id, email string, acting *entity.Profile) error
	EraseAccount(ctx context.Context, id, email string, acting *entity.Profile) error
}

const modName = "http.handlers.removal"

// RemovePending tears down an invited account that never signed up.
// 409 with ErrNotPending steers the caller to the erase endpoint.
func RemovePending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		var req entity.RemovalRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		err := handler.RemovePendingUser(r.Context(), id, req.Email, cont.GetUser(r.Context()))
		if errors.Is(err, entity.ErrIdentityOrphaned) {
			logger.Warn("pending user removed, shadow identity left behind", sl.Err(err))
			render.Status(r, http.StatusMultiStatus)
			render.JSON(w, r, response.Warn(nil, "Local records removed, but the shadow identity could not be deleted; retry later"))
			return
		}
		if err != nil {
			logger.Error("remove pending user", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("pending user removed")
		render.JSON(w, r, response.Ok(nil))
	}
}

// Erase removes an account and everything it owns. A failed identity
// deletion after the local rows are gone renders as 207 partial
// success, never as a plain 200.
func Erase(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		var req entity.RemovalRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		err := handler.EraseAccount(r.Context(), id, req.Email, cont.GetUser(r.Context()))
		if errors.Is(err, entity.ErrIdentityOrphaned) {
			logger.Warn("account erased, identity left behind", sl.Err(err))
			render.Status(r, http.StatusMultiStatus)
			render.JSON(w, r, response.Warn(nil, "Account data erased, but the identity could not be deleted; retry later"))
			return
		}
		if err != nil {
			logger.Error("erase account", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("account erased")
		render.JSON(w, r, response.Ok(nil))
	}
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module(modName),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
