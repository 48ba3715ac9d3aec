package http

import (
	"context"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/maprender"
)

// Pinger is a dependency whose connectivity can be checked.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies holds all services needed by HTTP handlers.
// Nil optional fields disable the routes or checks that use them.
type Dependencies struct {
	Vessels  *usecases.VesselService
	Ingest   *usecases.IngestService
	Fleet    *usecases.LiveFleet
	Renderer *maprender.Renderer
	Stream   *StreamSource
	NATS     *nats.Conn
	DB       Pinger
	Cache    Pinger
	// DocsPath overrides DefaultDocsPath.
	DocsPath string
	// Shutdown is registered as POST /shutdown when set.
	Shutdown func()
}
