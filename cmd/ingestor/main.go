package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	natsadapter "github.com/samirrijal/aissim/internal/adapters/nats"
	"github.com/samirrijal/aissim/internal/adapters/postgres"
	"github.com/samirrijal/aissim/internal/adapters/valkey"
	"github.com/samirrijal/aissim/internal/adapters/wsclient"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/pkg/config"
	"github.com/samirrijal/aissim/internal/pkg/logging"
	"github.com/samirrijal/aissim/internal/pkg/telemetry"
)

func main() {
	url := flag.String("url", "", "AIS stream URL (default simulation.stream_url)")
	retry := flag.Duration("retry", 0, "reconnect delay after a failed stream; 0 exits instead")
	flag.Parse()

	cfg, err := config.Load("aissim-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Format)

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

	streamURL := *url
	if streamURL == "" {
		streamURL = cfg.Simulation.StreamURL
	}

	svc := usecases.NewIngestService(postgres.NewAISMessageRepo(db), publisher, cache)
	client := wsclient.New(streamURL)

	for {
		err := consume(ctx, client, svc, cfg.Simulation.BatchSize)
		if err == nil || errors.Is(err, context.Canceled) || *retry <= 0 {
			if err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("ingestion failed", "url", streamURL, "error", err)
				os.Exit(1)
			}
			return
		}
		slog.Warn("stream failed, reconnecting", "url", streamURL, "in", *retry, "error", err)
		select {
		case <-ctx.Done():
			return
		case <-time.After(*retry):
		}
	}
}

// consume ingests one stream until its end marker and flushes the tail batch.
func consume(ctx context.Context, client *wsclient.Client, svc *usecases.IngestService, batchSize int) error {
	sink := svc.NewBatchIngester(batchSize)
	n, err := client.Consume(ctx, sink.Add)
	if ferr := sink.Flush(context.WithoutCancel(ctx)); ferr != nil {
		err = errors.Join(err, ferr)
	}
	stored, invalid := sink.Stats()
	slog.Info("stream ingested", "received", n, "stored", stored, "invalid", invalid)
	return err
}
