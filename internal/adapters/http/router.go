package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/aissim/internal/pkg/metrics"
)

// LegacySunset is when /api/vessel/:mmsi/stats stops being served.
var LegacySunset = time.Date(2027, 6, 30, 0, 0, 0, 0, time.UTC)

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(recover.New())

	// Prometheus metrics
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	// Response compression (gzip)
	app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed, // Balance speed vs compression ratio
	}))

	// Request ID
	app.Use(requestid.New())

	// Propagate request ID into slog context
	app.Use(RequestIDLogMiddleware())

	// Access logs (structured HTTP request logging)
	app.Use(AccessLogMiddleware())

	// Rate limiting: 120 requests per minute per IP. Ingest and streams are exempt.
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/v1/ingest" || c.Path() == "/ws" || c.Path() == "/ws/ais"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
	}))

	// Security headers + API version
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		c.Set("X-API-Version", "1.0.0")
		return c.Next()
	})

	// ETag for conditional caching
	app.Use(ETagMiddleware())

	// Default Cache-Control headers
	app.Use(CachingMiddleware())

	app.Use(DeprecationMiddleware([]DeprecatedRoute{{
		Path:        "/api/vessel/:mmsi/stats",
		SunsetDate:  LegacySunset,
		Alternative: "/v1/vessels/:mmsi/stats",
	}}))

	// Health & readiness (no timeout, fast internal checks)
	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	// Dashboard
	app.Get("/", timeout.NewWithContext(DashboardHandler(deps), 30*time.Second))

	// REST API v1 with a 15s per-request timeout
	v1 := app.Group("/v1")
	v1.Get("/vessels", timeout.NewWithContext(ListVesselsHandler(deps), 15*time.Second))
	v1.Get("/vessels/:mmsi/track", timeout.NewWithContext(VesselTrackHandler(deps), 15*time.Second))
	v1.Get("/vessels/:mmsi/stats", timeout.NewWithContext(VesselStatsHandler(deps), 15*time.Second))
	v1.Get("/map.geojson", timeout.NewWithContext(MapGeoJSONHandler(deps), 15*time.Second))
	v1.Get("/ingest/status", timeout.NewWithContext(IngestStatusHandler(deps), 15*time.Second))
	v1.Get("/live", LiveFleetHandler(deps))
	if deps.Ingest != nil {
		v1.Post("/ingest", timeout.NewWithContext(IngestHandler(deps), 15*time.Second))
	}

	// Legacy stats path kept for existing dashboards
	app.Get("/api/vessel/:mmsi/stats", timeout.NewWithContext(LegacyVesselStatsHandler(deps), 15*time.Second))

	if deps.Shutdown != nil {
		app.Post("/shutdown", ShutdownHandler(deps))
	}

	// GraphQL
	app.Post("/graphql", GraphQLHandler(deps))

	// API documentation (Swagger UI)
	SetupDocs(app, deps.DocsPath)

	// WebSocket
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	if deps.NATS != nil {
		app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
	}
	if deps.Stream != nil {
		app.Get("/ws/ais", websocket.New(AISStreamHandler(deps.Stream)))
	}
}

// SetupStreamRoutes registers only the simulation stream, for the simulator's
// dedicated stream listener.
func SetupStreamRoutes(app *fiber.App, src *StreamSource) {
	app.Use(recover.New())
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/ais", websocket.New(AISStreamHandler(src)))
}
