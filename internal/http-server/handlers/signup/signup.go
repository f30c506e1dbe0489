package signup

import (
	"context"
	"crypto/hmac"
	"fmt"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"log/slog"
	"net/http"
	"techlog/entity"
	"techlog/lib/api/response"
	"techlog/lib/sl"
)

type Core interface {
	CompleteSignup(ctx context.Context, evt *entity.SignupEvent) error
}

// Event handles the identity service webhook fired when a registrant
// completes signup. The route sits outside bearer auth; a shared secret
// header authenticates the caller instead.
func Event(log *slog.Logger, secret string, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		mod := sl.Module("http.handlers.signup")

		logger := log.With(
			mod,
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		if secret == "" || !hmac.Equal([]byte(r.Header.Get("X-Webhook-Secret")), []byte(secret)) {
			logger.Warn("webhook secret mismatch")
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, response.Error("Unauthorized"))
			return
		}

		var evt entity.SignupEvent
		if err := render.Bind(r, &evt); err != nil {
			logger.Error("bind request", sl.Err(err))
			render.Status(r, http.StatusBadRequest)
			render.JSON(w, r, response.Error(fmt.Sprintf("Invalid request: %v", err)))
			return
		}
		logger = logger.With(slog.String("email", evt.Email))

		if err := handler.CompleteSignup(r.Context(), &evt); err != nil {
			logger.Error("complete signup", sl.Err(err))
			render.Status(r, response.CodeFor(err))
			render.JSON(w, r, response.Error(err.Error()))
			return
		}
		logger.Info("signup completed")
		render.JSON(w, r, response.Ok(nil))
	}
}
