package usecases

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/samirrijal/aissim/internal/ais"
	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/pkg/metrics"
)

// MaxSpeedKnots is the highest speed a position report can carry as a value.
const MaxSpeedKnots = 102.2

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
}

// ParseTimestamp accepts RFC 3339 or a naive ISO 8601 timestamp (read as UTC).
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ValidateFix range-checks a decoded position. The returned message lists
// every failed check, each followed by "; ".
func ValidateFix(lat, lon, speed float64) (bool, string) {
	var msg strings.Builder
	if lat < -90 || lat > 90 {
		msg.WriteString("Invalid latitude; ")
	}
	if lon < -180 || lon > 180 {
		msg.WriteString("Invalid longitude; ")
	}
	if speed < 0 || speed > MaxSpeedKnots {
		msg.WriteString("Invalid speed; ")
	}
	return msg.Len() == 0, msg.String()
}

// IngestService decodes, validates and stores AIS sentences.
type IngestService struct {
	repo      ports.AISMessageRepository
	publisher ports.EventPublisher
	cache     ports.CacheService
}

// NewIngestService creates a new IngestService. publisher and cache may be nil.
func NewIngestService(repo ports.AISMessageRepository, publisher ports.EventPublisher, cache ports.CacheService) *IngestService {
	return &IngestService{repo: repo, publisher: publisher, cache: cache}
}

// Ingest stores msg as a record. Messages that fail to decode are stored as
// invalid records carrying the error text. Only persistence errors are returned.
// A duplicate (mmsi, timestamp) comes back with ID 0 and is not published.
func (s *IngestService) Ingest(ctx context.Context, msg domain.AISSentence) (*domain.AISRecord, error) {
	ctx, span := otel.Tracer("aissim/ingest").Start(ctx, "IngestService.Ingest")
	defer span.End()

	rec := BuildRecord(msg)
	span.SetAttributes(
		attribute.String("ais.mmsi", rec.MMSI),
		attribute.Bool("ais.valid", rec.IsValid),
	)

	if err := s.repo.Insert(ctx, rec); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "insert failed")
		return nil, fmt.Errorf("insert ais message: %w", err)
	}

	if rec.ID == 0 {
		span.SetAttributes(attribute.Bool("ais.duplicate", true))
		return rec, nil
	}
	s.afterInsert(ctx, rec)
	s.invalidateSummaries(ctx)
	return rec, nil
}

// IngestBatch stores many sentences in one round trip and returns the number
// of invalid records among them. Duplicates are not published, and the
// summaries cache is invalidated once per batch.
func (s *IngestService) IngestBatch(ctx context.Context, msgs []domain.AISSentence) (int, error) {
	ctx, span := otel.Tracer("aissim/ingest").Start(ctx, "IngestService.IngestBatch")
	defer span.End()
	span.SetAttributes(attribute.Int("ais.batch_size", len(msgs)))

	recs := make([]domain.AISRecord, len(msgs))
	invalid := 0
	for i, m := range msgs {
		recs[i] = *BuildRecord(m)
		if !recs[i].IsValid {
			invalid++
		}
	}
	if err := s.repo.InsertBatch(ctx, recs); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "batch insert failed")
		return 0, fmt.Errorf("insert ais batch: %w", err)
	}
	stored := 0
	for i := range recs {
		if recs[i].ID == 0 {
			continue
		}
		stored++
		s.afterInsert(ctx, &recs[i])
	}
	if stored > 0 {
		s.invalidateSummaries(ctx)
	}
	return invalid, nil
}

func (s *IngestService) afterInsert(ctx context.Context, rec *domain.AISRecord) {
	if rec.IsValid {
		metrics.AISMessagesIngested.WithLabelValues("valid").Inc()
	} else {
		metrics.AISMessagesIngested.WithLabelValues("invalid").Inc()
	}

	if s.publisher != nil {
		var err error
		if rec.IsValid {
			err = s.publisher.PublishPosition(ctx, rec)
		} else {
			err = s.publisher.PublishInvalid(ctx, rec)
		}
		if err != nil {
			slog.WarnContext(ctx, "publish ais record failed", "mmsi", rec.MMSI, "error", err)
		}
	}
}

func (s *IngestService) invalidateSummaries(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, SummariesCacheKey); err != nil {
		slog.WarnContext(ctx, "invalidate summaries failed", "error", err)
	}
}

// BuildRecord decodes and validates msg without touching storage.
func BuildRecord(msg domain.AISSentence) *domain.AISRecord {
	rec := &domain.AISRecord{
		MMSI:    msg.MMSI,
		Payload: msg.Payload,
	}

	ts, tsErr := ParseTimestamp(msg.Timestamp)
	if tsErr != nil {
		ts = time.Now().UTC()
	}
	rec.Timestamp = ts

	p, err := ais.Decode(msg.Payload)
	if err != nil {
		rec.ErrorMessage = err.Error()
		return rec
	}
	if tsErr != nil {
		rec.ErrorMessage = tsErr.Error()
		return rec
	}

	lat, lon, speed := p.Lat, p.Lon, p.SOG
	course := int(p.COG)
	status := p.Status
	rec.MMSI = strconv.FormatUint(uint64(p.MMSI), 10)
	rec.Latitude = &lat
	rec.Longitude = &lon
	rec.Speed = &speed
	rec.Course = &course
	rec.Status = &status
	rec.IsValid, rec.ErrorMessage = ValidateFix(lat, lon, speed)
	return rec
}
