// cmd/main.go is the application entry point.
// It wires together all layers and starts the HTTP server.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata" // zone data for minimal container images

	"github.com/Shivanand-hulikatti/studio-booking/internal/config"
	"github.com/Shivanand-hulikatti/studio-booking/internal/database"
	"github.com/Shivanand-hulikatti/studio-booking/internal/events"
	"github.com/Shivanand-hulikatti/studio-booking/internal/handler"
	"github.com/Shivanand-hulikatti/studio-booking/internal/logger"
	"github.com/Shivanand-hulikatti/studio-booking/internal/repository"
	"github.com/Shivanand-hulikatti/studio-booking/internal/service"
	"github.com/Shivanand-hulikatti/studio-booking/internal/timezone"
)

func main() {
	ctx := context.Background()

	// ── 1. Configuration and logging ──────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		logger.New(logger.Config{Service: "studio-api"}).Fatal("load config", "error", err)
	}
	log := logger.New(logger.Config{
		Level:     cfg.LogLevel,
		Format:    cfg.LogFormat,
		AddSource: true,
		Service:   "studio-api",
	})

	// ── 2. Connect to PostgreSQL and ensure the schema ───────────────────
	pool, err := database.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal("database connect failed", "error", err)
	}
	defer pool.Close()
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("database migration failed", "error", err)
	}
	log.Info("connected to PostgreSQL", "host", cfg.DB.Host, "db", cfg.DB.Name)

	// ── 3. Booking events ────────────────────────────────────────────────
	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		kp, err := events.NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		if err != nil {
			log.Fatal("kafka publisher init failed", "error", err)
		}
		publisher = kp
		log.Info("booking events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("close publisher", "error", err)
		}
	}()

	// ── 4. Wire up layers ────────────────────────────────────────────────
	classRepo := repository.NewClassRepository(pool)
	bookingRepo := repository.NewBookingRepository(pool)
	studioSvc := service.NewStudioService(
		classRepo,
		bookingRepo,
		timezone.NewConverter(cfg.StudioLocation),
		publisher,
		log,
	).WithPublishTimeout(cfg.PublishTimeout)
	studioHandler := handler.NewStudioHandler(studioSvc, cfg.StudioTimezone, log)

	// ── 5. Start server with graceful shutdown ────────────────────────────
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      handler.NewRouter(studioHandler, pool, log),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		log.Info("server listening", "addr", srv.Addr, "studio_timezone", cfg.StudioTimezone)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", "error", err)
		}
	}()

	// Block until SIGINT or SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		return
	}
	log.Info("server stopped")
}
