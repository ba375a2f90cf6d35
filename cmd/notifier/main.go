// Command notifier serves the order-notification API and runs the summary
// scheduler.
//
// @title       Order Notifier API
// @version     1.0
// @description Order notifications to LINE and Telegram groups: new-order pushes, windowed summaries, test sends and the delivery audit log.
// @BasePath    /api/v1
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/order-notifier/docs"
	"github.com/tbourn/order-notifier/internal/config"
	"github.com/tbourn/order-notifier/internal/domain"
	httpapi "github.com/tbourn/order-notifier/internal/http"
	"github.com/tbourn/order-notifier/internal/messaging"
	"github.com/tbourn/order-notifier/internal/messaging/line"
	"github.com/tbourn/order-notifier/internal/messaging/telegram"
	"github.com/tbourn/order-notifier/internal/observability"
	"github.com/tbourn/order-notifier/internal/repo"
	"github.com/tbourn/order-notifier/internal/scheduler"
	"github.com/tbourn/order-notifier/internal/services"
	"github.com/tbourn/order-notifier/internal/sysutil"
)

var version = "dev"

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	sysutil.SetupLogger(os.Stderr, cfg.OTEL.ServiceName, cfg.LogLevel, cfg.LogPretty)
	gin.SetMode(cfg.GinMode)
	docs.SwaggerInfo.BasePath = cfg.APIBasePath

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.SetupOTel(ctx, cfg.OTEL, version)
	if err != nil {
		log.Fatal().Err(err).Msg("tracing")
	}

	db, err := repo.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.DBPath).Msg("open database")
	}
	if cfg.OTEL.Enabled {
		if err := repo.InstrumentTracing(db); err != nil {
			log.Fatal().Err(err).Msg("instrument database")
		}
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate")
	}

	senders := messaging.NewRegistry(db, cfg.Notify.SenderCacheTTL, map[domain.BotPlatform]messaging.Factory{
		domain.BotLine:     line.Factory(cfg.Notify.LineEndpoint),
		domain.BotTelegram: telegram.Factory(cfg.Notify.TelegramAPIURL),
	})
	links := services.NewShortLinkService(repo.ShortLinks{DB: db}, cfg.ShortLink.CodeLength, cfg.ShortLink.MaxAttempts)
	notifier := services.NewNotificationService(db, senders, links, cfg.Notify.PublicBaseURL)
	notifier.Location = cfg.Notify.Location

	r := gin.New()
	httpapi.RegisterRoutes(r, httpapi.Deps{DB: db, Notifier: notifier, Links: links}, cfg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}

	var sched *scheduler.Service
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(db, notifier, scheduler.Config{
			ReloadInterval:  cfg.Scheduler.ReloadInterval,
			DefaultTimezone: cfg.Notify.DefaultTimezone,
		})
		sched.Start(ctx)
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("serve")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			log.Error().Err(err).Msg("scheduler shutdown")
		}
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("tracing shutdown")
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Info().Msg("bye")
}
