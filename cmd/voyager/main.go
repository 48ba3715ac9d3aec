package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"go.temporal.io/sdk/client"
	tlog "go.temporal.io/sdk/log"
	"go.temporal.io/sdk/worker"
	"golang.org/x/sync/errgroup"

	natsadapter "github.com/samirrijal/aissim/internal/adapters/nats"
	"github.com/samirrijal/aissim/internal/adapters/postgres"
	"github.com/samirrijal/aissim/internal/adapters/valkey"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/pkg/config"
	"github.com/samirrijal/aissim/internal/pkg/logging"
	"github.com/samirrijal/aissim/internal/routegen"
	"github.com/samirrijal/aissim/internal/workflows"
)

func main() {
	start := flag.Int("start", 0, "start this many voyage workflows, wait for them, then exit")
	flag.Parse()

	cfg, err := config.Load("aissim-voyager")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

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

	sim := cfg.Simulation
	portList, err := routegen.LoadPortsFile(sim.PortsCSV)
	if err != nil {
		log.Fatalf("ports: %v", err)
	}
	gen, err := routegen.NewGenerator(portList, sim.SpeedKnots, sim.Interval(),
		routegen.WithRouter(routegen.GreatCircleRouter{MaxSegmentNM: sim.MaxSegmentNM}))
	if err != nil {
		log.Fatalf("generator: %v", err)
	}

	repo := postgres.NewAISMessageRepo(db)

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
		Logger:    tlog.NewStructuredLogger(slog.Default()),
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.VoyageWorkflow)
	w.RegisterActivity(&workflows.VoyageActivities{
		Simulation: usecases.NewSimulationService(repo, gen),
		Ingest:     usecases.NewIngestService(repo, publisher, cache),
		Vessels:    usecases.NewVesselService(repo, cache),
	})

	if *start <= 0 {
		slog.Info("voyager worker started", "task_queue", cfg.Temporal.TaskQueue)
		if err := w.Run(worker.InterruptCh()); err != nil {
			log.Fatalf("worker: %v", err)
		}
		return
	}

	if err := w.Start(); err != nil {
		log.Fatalf("worker: %v", err)
	}
	defer w.Stop()

	if err := runVoyages(ctx, c, cfg.Temporal.TaskQueue, *start, sim.BatchSize); err != nil {
		slog.Error("voyages failed", "error", err)
		os.Exit(1)
	}
}

// runVoyages starts n voyage workflows and waits for all of them.
func runVoyages(ctx context.Context, c client.Client, taskQueue string, n, batchSize int) error {
	g, ctx := errgroup.WithContext(ctx)
	for range n {
		g.Go(func() error {
			run, err := c.ExecuteWorkflow(ctx, client.StartWorkflowOptions{
				ID:        "voyage-" + uuid.NewString(),
				TaskQueue: taskQueue,
			}, workflows.VoyageWorkflow, workflows.VoyageInput{BatchSize: batchSize})
			if err != nil {
				return err
			}

			var result workflows.VoyageResult
			if err := run.Get(ctx, &result); err != nil {
				return err
			}
			slog.Info("voyage complete",
				"workflow_id", run.GetID(),
				"mmsi", result.MMSI,
				"origin", result.Origin,
				"destination", result.Destination,
				"sentences", result.Sentences,
				"invalid", result.Invalid,
			)
			return nil
		})
	}
	return g.Wait()
}
