package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"github.com/samirrijal/aissim/internal/adapters/http"
	natsadapter "github.com/samirrijal/aissim/internal/adapters/nats"
	"github.com/samirrijal/aissim/internal/adapters/postgres"
	"github.com/samirrijal/aissim/internal/adapters/valkey"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/maprender"
	"github.com/samirrijal/aissim/internal/pkg/config"
	"github.com/samirrijal/aissim/internal/pkg/logging"
	"github.com/samirrijal/aissim/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("aissim-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	// Structured logging
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go db.ReportPoolMetrics(ctx, 15*time.Second)

	deps := &http.Dependencies{
		Renderer: maprender.NewRenderer(),
		Fleet:    usecases.NewLiveFleet(),
		DB:       db,
		DocsPath: cfg.Server.DocsPath,
	}

	// Cache
	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "aissim:"); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
		deps.Cache = vc
	}

	// NATS
	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
		deps.NATS = pub.Conn()
	}

	// Live fleet view fed from the position stream
	if sub, err := natsadapter.NewSubscriber(cfg.NATS.URL, "aissim-api-live"); err != nil {
		slog.Warn("nats subscriber unavailable", "error", err)
	} else {
		defer sub.Close()
		if err := deps.Fleet.Run(ctx, sub); err != nil {
			slog.Warn("live fleet subscription failed", "error", err)
		}
	}

	repo := postgres.NewAISMessageRepo(db)
	deps.Vessels = usecases.NewVesselService(repo, cache)
	deps.Ingest = usecases.NewIngestService(repo, publisher, cache)

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    1024 * 1024, // 1 MB max request body
		AppName:      "AIS Simulator API",
	})
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       3600,
	}))

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	if cfg.Server.AllowShutdown {
		deps.Shutdown = func() { quit <- syscall.SIGTERM }
	}

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := <-quit
	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	// Give in-flight requests up to 10s to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
