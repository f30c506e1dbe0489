package profiles

import (
	"context"
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
	ListProfilesEnriched(ctx context.Context, acting *entity.Profile) ([]*entity.ProfileView, error)
	GetProfileDetail(ctx context.Context, id string, acting *entity.Profile) (*entity.ProfileDetail, error)
	ListPendingUsers(ctx context.Context, acting *entity.Profile) ([]*entity.PendingUser, error)
	SetRole(ctx context.Context, targetID string, makeAdmin bool, acting *entity.Profile) error
	Suspend(ctx context.Context, targetID string, acting *entity.Profile) error
	Activate(ctx context.Context, targetID string, acting *entity.Profile) error
	SendPasswordReset(ctx context.Context, email string, acting *entity.Profile) error
	BuildExportSnapshot(ctx context.Context, id string, acting *entity.Profile) (*entity.ExportSnapshot, error)
}

const modName = "http.handlers.profiles"

func List(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		views, err := handler.ListProfilesEnriched(r.Context(), cont.GetUser(r.Context()))
		if err != nil {
			logger.Error("list profiles", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		render.JSON(w, r, response.Ok(views))
	}
}

func Detail(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		detail, err := handler.GetProfileDetail(r.Context(), id, cont.GetUser(r.Context()))
		if err != nil {
			logger.Error("profile detail", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		render.JSON(w, r, response.Ok(detail))
	}
}

func Pending(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		pending, err := handler.ListPendingUsers(r.Context(), cont.GetUser(r.Context()))
		if err != nil {
			logger.Error("list pending users", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		render.JSON(w, r, response.Ok(pending))
	}
}

func SetRole(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		var req entity.RoleRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}

		if err := handler.SetRole(r.Context(), id, req.IsAdmin, cont.GetUser(r.Context())); err != nil {
			logger.Error("set role", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("role updated", slog.Bool("is_admin", req.IsAdmin))
		render.JSON(w, r, response.Ok(nil))
	}
}

func Suspend(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		if err := handler.Suspend(r.Context(), id, cont.GetUser(r.Context())); err != nil {
			logger.Error("suspend", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("profile suspended")
		render.JSON(w, r, response.Ok(nil))
	}
}

func Activate(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		if err := handler.Activate(r.Context(), id, cont.GetUser(r.Context())); err != nil {
			logger.Error("activate", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("profile activated")
		render.JSON(w, r, response.Ok(nil))
	}
}

func Export(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)
		id := chi.URLParam(r, "id")
		logger = logger.With(slog.String("id", id))

		snap, err := handler.BuildExportSnapshot(r.Context(), id, cont.GetUser(r.Context()))
		if err != nil {
			logger.Error("export snapshot", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("export snapshot built")
		render.JSON(w, r, response.Ok(snap))
	}
}

func ResetPassword(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := requestLogger(log, r)

		var req entity.ResetRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("email", req.Email))

		if err := handler.SendPasswordReset(r.Context(), req.Email, cont.GetUser(r.Context())); err != nil {
			logger.Error("password reset", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("password reset email requested")
		render.JSON(w, r, response.Ok(nil))
	}
}

func requestLogger(log *slog.Logger, r *http.Request) *slog.Logger {
	return log.With(
		sl.Module(modName),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)
}
