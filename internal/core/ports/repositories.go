package ports

import (
	"context"
	"time"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// AISMessageRepository persists decoded AIS messages.
type AISMessageRepository interface {
	Insert(ctx context.Context, rec *domain.AISRecord) error
	InsertBatch(ctx context.Context, recs []domain.AISRecord) error
	MMSIExists(ctx context.Context, mmsi string) (bool, error)
	DistinctMMSIs(ctx context.Context) ([]string, error)
	// Track returns valid fixes for mmsi ordered by timestamp.
	Track(ctx context.Context, mmsi string) ([]domain.TrackPoint, error)
	// TrackWindow is Track restricted to [from, to].
	TrackWindow(ctx context.Context, mmsi string, from, to time.Time) ([]domain.TrackPoint, error)
	DeleteByMMSI(ctx context.Context, mmsi string) (int64, error)
	Counts(ctx context.Context) (domain.IngestCounts, error)
}
