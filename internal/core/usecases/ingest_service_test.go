package usecases_test

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/aissim/internal/ais"
	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
)

const rotterdamSentence = "!AIVDM,1,1,,A,11mg=5@P1T0DPA0MeMG00?wp0000,0*1E"

func encode(t *testing.T, p ais.PositionReport) string {
	t.Helper()
	s, err := ais.EncodePosition(p)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	return s
}

func TestValidateFix(t *testing.T) {
	tests := []struct {
		name            string
		lat, lon, speed float64
		valid           bool
		msg             string
	}{
		{"valid", 51.9, 4.4, 10, true, ""},
		{"bounds inclusive", -90, 180, 102.2, true, ""},
		{"latitude", 91, 4.4, 10, false, "Invalid latitude; "},
		{"longitude", 51.9, -181, 10, false, "Invalid longitude; "},
		{"speed not available", 51.9, 4.4, 102.3, false, "Invalid speed; "},
		{"all", 91, 181, 102.3, false, "Invalid latitude; Invalid longitude; Invalid speed; "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			valid, msg := usecases.ValidateFix(tt.lat, tt.lon, tt.speed)
			if valid != tt.valid || msg != tt.msg {
				t.Errorf("got (%v, %q), want (%v, %q)", valid, msg, tt.valid, tt.msg)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	want := time.Date(2025, 3, 1, 12, 30, 0, 250000000, time.UTC)
	for _, s := range []string{
		"2025-03-01T12:30:00.250000Z",
		"2025-03-01T13:30:00.25+01:00",
		"2025-03-01T12:30:00.250000",
	} {
		got, err := usecases.ParseTimestamp(s)
		if err != nil {
			t.Errorf("%s: %v", s, err)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("%s: got %v, want %v", s, got, want)
		}
	}

	naive, err := usecases.ParseTimestamp("2025-03-01T12:30:00")
	if err != nil || naive.Location() != time.UTC {
		t.Errorf("naive timestamp should parse as UTC, got %v %v", naive, err)
	}
	if _, err := usecases.ParseTimestamp("yesterday"); err == nil {
		t.Error("expected error for malformed timestamp")
	}
}

func TestIngestService_ValidMessage(t *testing.T) {
	repo := &mockAISRepo{}
	pub := &mockPublisher{}
	cache := newMockCache()
	cache.data[usecases.SummariesCacheKey] = []byte("[]")
	svc := usecases.NewIngestService(repo, pub, cache)

	rec, err := svc.Ingest(context.Background(), domain.AISSentence{
		Message:   "AIVDM",
		MMSI:      "123456789",
		Timestamp: "2025-01-01T00:00:00.000000Z",
		Payload:   rotterdamSentence,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !rec.IsValid || rec.ErrorMessage != "" {
		t.Fatalf("expected valid record, got %+v", rec)
	}
	if rec.MMSI != "123456789" {
		t.Errorf("expected mmsi from payload, got %s", rec.MMSI)
	}
	if math.Abs(*rec.Latitude-51.9225) > 1e-6 || math.Abs(*rec.Longitude-4.4792) > 1e-6 {
		t.Errorf("unexpected position %v, %v", *rec.Latitude, *rec.Longitude)
	}
	if *rec.Speed != 10 || *rec.Course != 0 || *rec.Status != 0 {
		t.Errorf("unexpected speed/course/status %v/%v/%v", *rec.Speed, *rec.Course, *rec.Status)
	}
	if len(repo.inserted) != 1 {
		t.Fatalf("expected 1 insert, got %d", len(repo.inserted))
	}
	if len(pub.positions) != 1 || len(pub.invalid) != 0 {
		t.Errorf("expected one position event, got %v / %v", pub.positions, pub.invalid)
	}
	if _, ok := cache.data[usecases.SummariesCacheKey]; ok {
		t.Error("summaries cache should be invalidated")
	}
}

func TestIngestService_OutOfRangeIsStoredInvalid(t *testing.T) {
	p := ais.NewPositionReport(987654321, ais.LatNotAvailable, 4.4)
	p.Status = ais.StatusUnderWayUsingEngine
	p.COG = 0
	repo := &mockAISRepo{}
	pub := &mockPublisher{}
	svc := usecases.NewIngestService(repo, pub, nil)

	rec, err := svc.Ingest(context.Background(), domain.AISSentence{
		MMSI:      "987654321",
		Timestamp: "2025-01-01T00:05:00",
		Payload:   encode(t, p),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.IsValid {
		t.Fatal("expected invalid record")
	}
	if rec.ErrorMessage != "Invalid latitude; Invalid speed; " {
		t.Errorf("unexpected error message %q", rec.ErrorMessage)
	}
	if rec.Latitude == nil {
		t.Error("decoded fields should still be stored")
	}
	if len(pub.invalid) != 1 {
		t.Errorf("expected invalid event, got %v", pub.invalid)
	}
}

func TestIngestService_DecodeFailure(t *testing.T) {
	repo := &mockAISRepo{}
	svc := usecases.NewIngestService(repo, nil, nil)

	rec, err := svc.Ingest(context.Background(), domain.AISSentence{
		MMSI:      "111222333",
		Timestamp: "2025-01-01T00:00:00Z",
		Payload:   "!AIVDM,1,1,,A,11mg=5@P1T0DPA0MeMG00?wp0000,0*00",
	})
	if err != nil {
		t.Fatalf("decode failures are stored, not returned: %v", err)
	}
	if rec.IsValid || !strings.Contains(rec.ErrorMessage, "checksum") {
		t.Errorf("expected checksum error, got %+v", rec)
	}
	if rec.MMSI != "111222333" || rec.Latitude != nil {
		t.Errorf("expected envelope mmsi and no position, got %+v", rec)
	}
	if len(repo.inserted) != 1 {
		t.Errorf("expected record to be stored")
	}
}

func TestIngestService_MalformedTimestamp(t *testing.T) {
	svc := usecases.NewIngestService(&mockAISRepo{}, nil, nil)
	rec, err := svc.Ingest(context.Background(), domain.AISSentence{
		Timestamp: "not-a-time",
		Payload:   rotterdamSentence,
	})
	if err != nil {
		t.Fatal(err)
	}
	if rec.IsValid || !strings.Contains(rec.ErrorMessage, "invalid timestamp") {
		t.Errorf("expected timestamp error, got %+v", rec)
	}
	if rec.Timestamp.IsZero() {
		t.Error("record should carry the ingestion time")
	}
}

func TestIngestService_InsertErrorReturned(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewIngestService(&mockAISRepo{insertErr: errors.New("db down")}, pub, nil)
	_, err := svc.Ingest(context.Background(), domain.AISSentence{Timestamp: "2025-01-01T00:00:00Z", Payload: rotterdamSentence})
	if err == nil || !strings.Contains(err.Error(), "db down") {
		t.Fatalf("expected wrapped insert error, got %v", err)
	}
	if len(pub.positions) != 0 {
		t.Error("nothing should be published when storage fails")
	}
}

func TestIngestService_PublishErrorIgnored(t *testing.T) {
	pub := &mockPublisher{err: errors.New("nats down")}
	svc := usecases.NewIngestService(&mockAISRepo{}, pub, nil)
	if _, err := svc.Ingest(context.Background(), domain.AISSentence{Timestamp: "2025-01-01T00:00:00Z", Payload: rotterdamSentence}); err != nil {
		t.Errorf("publish errors must not fail ingest: %v", err)
	}
}

func TestIngestService_Batch(t *testing.T) {
	repo := &mockAISRepo{}
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewIngestService(repo, pub, cache)

	msgs := []domain.AISSentence{{Timestamp: "2025-01-01T00:05:00Z", Payload: "garbage"}}
	for i := range 5 {
		msgs = append(msgs, domain.AISSentence{
			Timestamp: fmt.Sprintf("2025-01-01T00:0%d:00Z", i),
			Payload:   rotterdamSentence,
		})
	}

	invalid, err := svc.IngestBatch(context.Background(), msgs)
	if err != nil {
		t.Fatal(err)
	}
	if invalid != 1 {
		t.Errorf("expected 1 invalid, got %d", invalid)
	}
	if len(repo.inserted) != 6 {
		t.Errorf("expected 6 inserted, got %d", len(repo.inserted))
	}
	if len(pub.positions) != 5 || len(pub.invalid) != 1 {
		t.Errorf("expected 5 position and 1 invalid events, got %v / %v", pub.positions, pub.invalid)
	}
	if cache.deletes != 1 {
		t.Errorf("expected one cache invalidation per batch, got %d", cache.deletes)
	}
}

func TestIngestService_BatchSkipsDuplicates(t *testing.T) {
	repo := &mockAISRepo{}
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewIngestService(repo, pub, cache)
	ctx := context.Background()

	msgs := []domain.AISSentence{{Timestamp: "2025-01-01T00:00:00Z", Payload: rotterdamSentence}}
	if _, err := svc.IngestBatch(ctx, msgs); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.IngestBatch(ctx, msgs); err != nil {
		t.Fatal(err)
	}
	if len(repo.inserted) != 1 || len(pub.positions) != 1 {
		t.Errorf("duplicate batch should not be stored or published, got rows %d events %v", len(repo.inserted), pub.positions)
	}
	if cache.deletes != 1 {
		t.Errorf("a batch of duplicates should not invalidate the cache, got %d deletes", cache.deletes)
	}
}

func TestIngestService_DuplicateNotPublished(t *testing.T) {
	repo := &mockAISRepo{}
	pub := &mockPublisher{}
	cache := newMockCache()
	svc := usecases.NewIngestService(repo, pub, cache)
	ctx := context.Background()
	msg := domain.AISSentence{Timestamp: "2025-01-01T00:00:00Z", Payload: rotterdamSentence}

	first, err := svc.Ingest(ctx, msg)
	if err != nil {
		t.Fatal(err)
	}
	if first.ID == 0 {
		t.Fatal("first insert should get an ID")
	}

	dup, err := svc.Ingest(ctx, msg)
	if err != nil {
		t.Fatalf("duplicates are not errors: %v", err)
	}
	if dup.ID != 0 {
		t.Errorf("duplicate should keep ID 0, got %d", dup.ID)
	}
	if len(pub.positions) != 1 {
		t.Errorf("duplicate should not be published again, got %v", pub.positions)
	}
	if cache.deletes != 1 {
		t.Errorf("duplicate should not invalidate the cache, got %d deletes", cache.deletes)
	}
}

func TestIngestService_UndecodableWithoutMMSI(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewIngestService(&mockAISRepo{}, pub, nil)

	rec, err := svc.Ingest(context.Background(), domain.AISSentence{Timestamp: "2025-01-01T00:00:00Z", Payload: "garbage"})
	if err != nil {
		t.Fatal(err)
	}
	if rec.MMSI != "" || rec.IsValid {
		t.Errorf("expected invalid record without mmsi, got %+v", rec)
	}
	if len(pub.invalid) != 1 {
		t.Errorf("expected invalid event, got %v", pub.invalid)
	}
}
