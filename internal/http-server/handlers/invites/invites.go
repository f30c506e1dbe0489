package invites

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
	IssueInvite(ctx context.Context, req *entity.InviteRequest, acting *entity.Profile) (*entity.InviteReceipt, error)
	CancelInvite(ctx context.Context, email string, acting *entity.Profile) error
}

func Issue(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invites")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		var req entity.InviteRequest
		if err := render.Bind(r, &req); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("email", req.Email))

		receipt, err := handler.IssueInvite(r.Context(), &req, cont.GetUser(r.Context()))
		if err != nil {
			logger.Error("issue invite", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}

		if !receipt.Delivered {
			logger.Debug("invite issued without notification")
			render.JSON(w, r, response.Warn(receipt, "Invite created but the email could not be sent; share the signup link manually"))
			return
		}
		logger.Debug("invite issued")
		render.JSON(w, r, response.Ok(receipt))
	}
}

func Cancel(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.invites")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if handler == nil {
			logger.Error("invite service not available")
			render.JSON(w, r, response.Error("Invite service not available"))
			return
		}

		email := chi.URLParam(r, "email")
		logger = logger.With(slog.String("email", email))

		if err := handler.CancelInvite(r.Context(), email, cont.GetUser(r.Context())); err != nil {
			logger.Error("cancel invite", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Debug("invite cancelled")
		render.JSON(w, r, response.Ok(nil))
	}
}
