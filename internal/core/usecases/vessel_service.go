package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/pkg/geospatial"
	"github.com/samirrijal/aissim/internal/pkg/metrics"
)

// SummariesCacheKey holds the cached dashboard summaries.
const SummariesCacheKey = "vessels:summaries"

const summariesTTL = 30 // seconds

// Default statistics window when the caller gives no bounds.
var (
	DefaultWindowStart = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	DefaultWindowEnd   = time.Date(2100, 1, 1, 0, 0, 0, 0, time.UTC)
)

// VesselService answers track and statistics queries.
type VesselService struct {
	repo  ports.AISMessageRepository
	cache ports.CacheService
}

// NewVesselService creates a new VesselService. cache may be nil.
func NewVesselService(repo ports.AISMessageRepository, cache ports.CacheService) *VesselService {
	return &VesselService{repo: repo, cache: cache}
}

// Track returns a vessel's valid fixes in time order.
func (s *VesselService) Track(ctx context.Context, mmsi string) ([]domain.TrackPoint, error) {
	return s.repo.Track(ctx, mmsi)
}

// Stats computes distance sailed (nautical miles) and mean reported speed
// inside [from, to]. An empty window yields zeros.
func (s *VesselService) Stats(ctx context.Context, mmsi string, from, to time.Time) (domain.VesselStats, error) {
	if to.Before(from) {
		return domain.VesselStats{}, fmt.Errorf("end time %s is before start time %s", to.Format(time.RFC3339), from.Format(time.RFC3339))
	}
	points, err := s.repo.TrackWindow(ctx, mmsi, from, to)
	if err != nil {
		return domain.VesselStats{}, fmt.Errorf("track window: %w", err)
	}
	return ComputeStats(mmsi, points, from, to), nil
}

// ComputeStats derives VesselStats from ordered track points.
func ComputeStats(mmsi string, points []domain.TrackPoint, from, to time.Time) domain.VesselStats {
	stats := domain.VesselStats{MMSI: mmsi, StartTime: from, EndTime: to}
	if len(points) == 0 {
		return stats
	}
	var speedSum float64
	path := make([]domain.GeoPoint, len(points))
	for i, p := range points {
		speedSum += p.Speed
		path[i] = p.Location
	}
	stats.Distance = geospatial.PathLengthNM(path)
	stats.AvgSpeed = speedSum / float64(len(points))
	return stats
}

// Summaries returns every known vessel with full-window stats and its track.
// Results are cached briefly; ingestion invalidates the cache.
func (s *VesselService) Summaries(ctx context.Context) ([]domain.VesselSummary, error) {
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, SummariesCacheKey); err == nil {
			var out []domain.VesselSummary
			if err := json.Unmarshal(data, &out); err == nil {
				metrics.CacheHits.WithLabelValues("summaries").Inc()
				return out, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("summaries").Inc()
	}

	mmsis, err := s.repo.DistinctMMSIs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list vessels: %w", err)
	}

	out := make([]domain.VesselSummary, 0, len(mmsis))
	for _, mmsi := range mmsis {
		points, err := s.repo.Track(ctx, mmsi)
		if err != nil {
			return nil, fmt.Errorf("track %s: %w", mmsi, err)
		}
		stats := ComputeStats(mmsi, points, DefaultWindowStart, DefaultWindowEnd)
		track := make([][2]float64, len(points))
		for i, p := range points {
			track[i] = [2]float64{p.Location.Lat, p.Location.Lon}
		}
		out = append(out, domain.VesselSummary{
			MMSI:     mmsi,
			Distance: stats.Distance,
			AvgSpeed: stats.AvgSpeed,
			Track:    track,
		})
	}

	if s.cache != nil {
		if data, err := json.Marshal(out); err == nil {
			_ = s.cache.Set(ctx, SummariesCacheKey, data, summariesTTL)
		}
	}
	return out, nil
}

// Vessels returns the summaries in the map renderer's input shape.
func (s *VesselService) Vessels(ctx context.Context) ([]domain.Vessel, error) {
	summaries, err := s.Summaries(ctx)
	if err != nil {
		return nil, err
	}
	vessels := make([]domain.Vessel, len(summaries))
	for i, sm := range summaries {
		vessels[i] = sm.Vessel()
	}
	return vessels, nil
}

// Counts returns ingest row counts.
func (s *VesselService) Counts(ctx context.Context) (domain.IngestCounts, error) {
	return s.repo.Counts(ctx)
}

// InvalidateSummaries drops the cached summaries.
func (s *VesselService) InvalidateSummaries(ctx context.Context) error {
	if s.cache == nil {
		return nil
	}
	return s.cache.Delete(ctx, SummariesCacheKey)
}

// Discard deletes every stored message for mmsi.
func (s *VesselService) Discard(ctx context.Context, mmsi string) (int64, error) {
	n, err := s.repo.DeleteByMMSI(ctx, mmsi)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", mmsi, err)
	}
	_ = s.InvalidateSummaries(ctx)
	return n, nil
}
