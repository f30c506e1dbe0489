package main

import (
	"flag"
	"log"
	"log/slog"
	"path/filepath"

	"techlog/bot"
	"techlog/impl/auth"
	"techlog/impl/core"
	"techlog/impl/invite"
	"techlog/impl/lifecycle"
	"techlog/impl/reconcile"
	"techlog/impl/teardown"
	"techlog/internal/config"
	"techlog/internal/database"
	"techlog/internal/http-server/api"
	"techlog/internal/identity"
	"techlog/internal/mailer"
	"techlog/lib/logger"
	"techlog/lib/sl"
)

const logFileName = "techlog.log"

func main() {
	configPath := flag.String("conf", "config.yml", "path to config file")
	logPath := flag.String("log", "/var/log/", "path to log file directory")
	flag.Parse()

	conf := config.MustLoad(*configPath)
	lg := logger.SetupLogger(conf.Env, filepath.Join(*logPath, logFileName))
	lg.Info("starting techlog", slog.String("config", *configPath), slog.String("env", conf.Env))

	if conf.Telegram.Enabled {
		tgBot, err := bot.NewTgBot(conf.Telegram.ApiKey, conf.Telegram.ChatIds, lg)
		if err != nil {
			lg.Error("telegram bot unavailable, alerts disabled", sl.Err(err))
		} else {
			lg = slog.New(logger.NewTelegramHandler(lg.Handler(), tgBot, slog.LevelWarn))
			lg.Info("telegram alerts enabled")
		}
	}

	sqlClient, err := database.NewSQLClient(conf)
	if err != nil {
		log.Fatal("database: ", err)
	}
	defer sqlClient.Close()

	auditStore := database.NewMongoClient(conf)
	if auditStore == nil {
		lg.Info("audit trail disabled in configuration")
	}

	identityClient := identity.NewClient(identity.Config{
		BaseURL:    conf.Identity.BaseURL,
		ServiceKey: conf.Identity.ServiceKey,
	}, lg)
	mail := mailer.New(conf, lg)

	inviteCoordinator := invite.New(sqlClient, sqlClient, identityClient,
		conf.Identity.SignupURL, conf.Invite.ExpiryDays, lg)
	inviteCoordinator.SetMailer(mail)
	inviteCoordinator.SetAudit(auditStore)

	guard := lifecycle.New(sqlClient, inviteCoordinator, lg)
	guard.SetAudit(auditStore)

	teardownCoordinator := teardown.New(sqlClient, sqlClient, sqlClient, identityClient, lg)
	teardownCoordinator.SetAudit(auditStore)

	reconciler := reconcile.New(sqlClient, sqlClient, sqlClient, identityClient, lg)

	c := core.New(lg)
	c.SetAuthService(auth.New(identityClient, sqlClient))
	c.SetInviteService(inviteCoordinator)
	c.SetLifecycleService(guard)
	c.SetTeardownService(teardownCoordinator)
	c.SetReconcileService(reconciler)
	c.SetPasswordService(identityClient, conf.Identity.SignupURL)

	if err = api.New(conf, lg, c); err != nil {
		lg.Error("api server stopped", sl.Err(err))
	}
}
