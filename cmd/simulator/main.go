package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/aissim/internal/adapters/http"
	natsadapter "github.com/samirrijal/aissim/internal/adapters/nats"
	"github.com/samirrijal/aissim/internal/adapters/postgres"
	"github.com/samirrijal/aissim/internal/adapters/valkey"
	"github.com/samirrijal/aissim/internal/adapters/wsclient"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/maprender"
	"github.com/samirrijal/aissim/internal/pkg/config"
	"github.com/samirrijal/aissim/internal/pkg/logging"
	"github.com/samirrijal/aissim/internal/pkg/telemetry"
	"github.com/samirrijal/aissim/internal/routegen"
)

func main() {
	dashboard := flag.Bool("dashboard", false, "keep serving the dashboard after ingestion")
	flag.Parse()

	cfg, err := config.Load("aissim-simulator")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	runID := uuid.NewString()
	slog.SetDefault(slog.Default().With("run_id", runID))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	if err := run(ctx, cfg, *dashboard); err != nil {
		slog.Error("simulation failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, dashboard bool) error {
	sim := cfg.Simulation

	portList, err := routegen.LoadPortsFile(sim.PortsCSV)
	if err != nil {
		return err
	}
	gen, err := routegen.NewGenerator(portList, sim.SpeedKnots, sim.Interval(),
		routegen.WithRouter(routegen.GreatCircleRouter{MaxSegmentNM: sim.MaxSegmentNM}))
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	slog.Info("ports loaded", "count", len(portList), "file", sim.PortsCSV)

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer db.Close()
	repo := postgres.NewAISMessageRepo(db)

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr, "aissim:"); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var publisher ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		publisher = pub
	}

	// Plan
	simSvc := usecases.NewSimulationService(repo, gen)
	voyages, err := simSvc.PlanVoyages(ctx, sim.NumVessels)
	if err != nil {
		return err
	}
	msgs := usecases.Flatten(voyages)
	usecases.SortForStreaming(msgs, sim.StreamOrder == config.StreamOrderOldestFirst)
	slog.Info("simulation planned", "vessels", len(voyages), "sentences", len(msgs))

	src, err := http.NewStreamSource(msgs, sim.FrameDelay())
	if err != nil {
		return fmt.Errorf("stream source: %w", err)
	}

	// Serve the stream and consume it
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", sim.StreamPort))
	if err != nil {
		return fmt.Errorf("stream listener: %w", err)
	}
	streamApp := fiber.New(fiber.Config{DisableStartupMessage: true, AppName: "AIS stream"})
	http.SetupStreamRoutes(streamApp, src)

	ingest := usecases.NewIngestService(repo, publisher, cache)
	sink := ingest.NewBatchIngester(sim.BatchSize)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("stream server starting", "addr", ln.Addr().String())
		return streamApp.Listener(ln)
	})
	g.Go(func() error {
		defer streamApp.Shutdown()

		n, err := wsclient.New(sim.StreamURL).Consume(gctx, sink.Add)
		if ferr := sink.Flush(context.WithoutCancel(gctx)); ferr != nil {
			err = errors.Join(err, ferr)
		}
		stored, invalid := sink.Stats()
		slog.Info("ingestion finished", "received", n, "stored", stored, "invalid", invalid)
		return err
	})
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if !dashboard || ctx.Err() != nil {
		return nil
	}
	return serveDashboard(ctx, cfg, &http.Dependencies{
		Vessels:  usecases.NewVesselService(repo, cache),
		Renderer: maprender.NewRenderer(),
		DB:       db,
		DocsPath: cfg.Server.DocsPath,
	})
}

// serveDashboard runs the API and dashboard until ctx is cancelled.
func serveDashboard(ctx context.Context, cfg *config.Config, deps *http.Dependencies) error {
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		AppName:      "AIS Simulator",
	})
	http.SetupRoutes(app, deps)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			slog.Error("forced shutdown", "error", err)
		}
	}()

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	slog.Info("dashboard available", "url", fmt.Sprintf("http://localhost%s/", addr))
	return app.Listen(addr)
}
