package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"techlog/internal/config"
	"techlog/internal/http-server/handlers/errors"
	"techlog/internal/http-server/handlers/invites"
	"techlog/internal/http-server/handlers/profiles"
	"techlog/internal/http-server/handlers/removal"
	"techlog/internal/http-server/handlers/signup"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"techlog/internal/http-server/middleware/authenticate"
	"techlog/internal/http-server/middleware/timeout"
	"techlog/lib/sl"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	invites.Core
	profiles.Core
	removal.Core
	signup.Core
}

func New(conf *config.Config, log *slog.Logger, handler Handler) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	router := chi.NewRouter()
	router.Use(timeout.Timeout(15))
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(render.SetContentType(render.ContentTypeJSON))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/v1", func(rootApi chi.Router) {
		rootApi.Use(authenticate.New(log, handler))
		rootApi.Route("/invites", func(inv chi.Router) {
			inv.Post("/", invites.Issue(log, handler))
			inv.Delete("/{email}", invites.Cancel(log, handler))
		})
		rootApi.Route("/profiles", func(pr chi.Router) {
			pr.Get("/", profiles.List(log, handler))
			pr.Get("/pending", profiles.Pending(log, handler))
			pr.Get("/{id}", profiles.Detail(log, handler))
			pr.Get("/{id}/export", profiles.Export(log, handler))
			pr.Post("/{id}/role", profiles.SetRole(log, handler))
			pr.Post("/{id}/suspend", profiles.Suspend(log, handler))
			pr.Post("/{id}/activate", profiles.Activate(log, handler))
			pr.Post("/reset-password", profiles.ResetPassword(log, handler))
			pr.Delete("/{id}/pending", removal.RemovePending(log, handler))
			pr.Delete("/{id}", removal.Erase(log, handler))
		})
	})
	router.Route("/webhook", func(rootWH chi.Router) {
		rootWH.Post("/signup", signup.Event(log, conf.Identity.WebhookSecret, handler))
	})

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:      router,
		ErrorLog:     httpLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIp, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
