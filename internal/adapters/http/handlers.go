package http

import (
	"bytes"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
	"github.com/samirrijal/aissim/internal/maprender"
)

const dashboardTitle = "Vessel Tracks"

var validate = validator.New(validator.WithRequiredStructEnabled())

// DashboardHandler renders every stored track on a Leaflet map.
func DashboardHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vessels, err := deps.Vessels.Vessels(c.UserContext())
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("load vessels for dashboard", "error", err)
			return errInternal(c, "could not load vessels")
		}
		m := deps.Renderer.InitializeMap(vessels)

		var buf bytes.Buffer
		if err := maprender.WritePage(&buf, m, dashboardTitle); err != nil {
			LoggerFromCtx(c.UserContext()).Error("write dashboard", "error", err)
			return errInternal(c, "could not render map")
		}
		c.Type("html", "utf-8")
		return c.Send(buf.Bytes())
	}
}

// MapGeoJSONHandler returns the dashboard map as a GeoJSON FeatureCollection.
func MapGeoJSONHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		vessels, err := deps.Vessels.Vessels(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		fc := deps.Renderer.InitializeMap(vessels).FeatureCollection()
		return c.JSON(fc, "application/geo+json")
	}
}

// ListVesselsHandler returns vessel summaries with offset/limit pagination.
func ListVesselsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		summaries, err := deps.Vessels.Summaries(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}

		page, pg := paginate(c, summaries, 50, 200)
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: page, Pagination: pg})
	}
}

func mmsiParam(c *fiber.Ctx) (string, error) {
	mmsi := c.Params("mmsi")
	if err := validate.Var(mmsi, "required,numeric,max=9"); err != nil {
		return "", fmt.Errorf("mmsi must be up to 9 digits, got %q", mmsi)
	}
	return mmsi, nil
}

// VesselTrackHandler returns one vessel's valid fixes in time order.
func VesselTrackHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mmsi, err := mmsiParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		track, err := deps.Vessels.Track(c.UserContext(), mmsi)
		if err != nil {
			return errInternal(c, err.Error())
		}
		if len(track) == 0 {
			return errNotFound(c, "no track for vessel "+mmsi)
		}
		return c.JSON(fiber.Map{"mmsi": mmsi, "track": track})
	}
}

// statsWindow reads start_time and end_time, falling back to the default window.
func statsWindow(c *fiber.Ctx) (time.Time, time.Time, error) {
	from, to := usecases.DefaultWindowStart, usecases.DefaultWindowEnd
	if s := c.Query("start_time"); s != "" {
		t, err := usecases.ParseTimestamp(s)
		if err != nil {
			return from, to, fmt.Errorf("start_time: %w", err)
		}
		from = t
	}
	if s := c.Query("end_time"); s != "" {
		t, err := usecases.ParseTimestamp(s)
		if err != nil {
			return from, to, fmt.Errorf("end_time: %w", err)
		}
		to = t
	}
	return from, to, nil
}

// VesselStatsHandler returns distance and average speed over a time window.
func VesselStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		mmsi, err := mmsiParam(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		from, to, err := statsWindow(c)
		if err != nil {
			return errBadRequest(c, err.Error())
		}
		stats, err := deps.Vessels.Stats(c.UserContext(), mmsi, from, to)
		if err != nil {
			return errInternal(c, err.Error())
		}
		return c.JSON(stats)
	}
}

// LegacyVesselStatsHandler serves /api/vessel/:mmsi/stats with its original
// error shape: any failure is a 500 with {"error": "..."}.
func LegacyVesselStatsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		from, to, err := statsWindow(c)
		if err == nil {
			var stats domain.VesselStats
			stats, err = deps.Vessels.Stats(c.UserContext(), c.Params("mmsi"), from, to)
			if err == nil {
				return c.JSON(stats)
			}
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}
}

// IngestStatusHandler returns row counts from the AIS message table.
func IngestStatusHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		counts, err := deps.Vessels.Counts(c.UserContext())
		if err != nil {
			return errInternal(c, err.Error())
		}
		c.Set("Cache-Control", "public, max-age=10")
		return c.JSON(counts)
	}
}

// IngestHandler accepts one AIS sentence envelope. Messages that decode but
// fail range checks are stored and returned with is_valid=false.
func IngestHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var msg domain.AISSentence
		if err := c.BodyParser(&msg); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		if err := validate.Struct(msg); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				fe := verrs[0]
				return errUnprocessable(c, fmt.Sprintf("field %s failed %s validation", fe.Field(), fe.Tag()))
			}
			return errUnprocessable(c, err.Error())
		}

		rec, err := deps.Ingest.Ingest(c.UserContext(), msg)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("ingest failed", "mmsi", msg.MMSI, "error", err)
			return errInternal(c, "could not store message")
		}
		return c.Status(fiber.StatusCreated).JSON(rec)
	}
}

// LiveFleetHandler returns the latest position of every vessel seen on the bus.
func LiveFleetHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "no-cache")
		if deps.Fleet == nil {
			return c.JSON([]domain.AISRecord{})
		}
		return c.JSON(deps.Fleet.Snapshot())
	}
}

// ShutdownHandler triggers a graceful server shutdown after responding.
func ShutdownHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		LoggerFromCtx(c.UserContext()).Info("shutdown requested", "ip", c.IP())
		go deps.Shutdown()
		return c.JSON(fiber.Map{"status": "shutting down"})
	}
}
