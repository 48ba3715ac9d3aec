package usecases_test

import (
	"context"
	"errors"
	"testing"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/usecases"
)

func TestBatchIngester_FlushesAtSize(t *testing.T) {
	repo := &mockAISRepo{}
	b := usecases.NewIngestService(repo, nil, nil).NewBatchIngester(2)
	ctx := context.Background()

	msgs := []domain.AISSentence{
		{MMSI: "123456789", Timestamp: "2026-03-01T12:00:00Z", Payload: rotterdamSentence},
		{MMSI: "123456789", Timestamp: "2026-03-01T12:05:00Z", Payload: rotterdamSentence},
		{MMSI: "123456789", Timestamp: "2026-03-01T12:10:00Z", Payload: "garbage"},
	}
	for _, m := range msgs {
		if err := b.Add(ctx, m); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	if len(repo.inserted) != 2 {
		t.Fatalf("expected 2 rows after first batch, got %d", len(repo.inserted))
	}

	if err := b.Flush(ctx); err != nil {
		t.Fatalf("flush: %v", err)
	}
	stored, invalid := b.Stats()
	if stored != 3 || invalid != 1 || len(repo.inserted) != 3 {
		t.Errorf("expected 3 stored with 1 invalid, got %d/%d (rows %d)", stored, invalid, len(repo.inserted))
	}

	// Flushing an empty buffer is a no-op.
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("empty flush: %v", err)
	}
}

func TestBatchIngester_KeepsBufferOnError(t *testing.T) {
	repo := &mockAISRepo{insertErr: errors.New("db down")}
	b := usecases.NewIngestService(repo, nil, nil).NewBatchIngester(0)
	ctx := context.Background()

	msg := domain.AISSentence{MMSI: "123456789", Timestamp: "2026-03-01T12:00:00Z", Payload: rotterdamSentence}
	if err := b.Add(ctx, msg); err == nil {
		t.Fatal("expected error from failed flush")
	}

	repo.insertErr = nil
	if err := b.Flush(ctx); err != nil {
		t.Fatalf("retry flush: %v", err)
	}
	if stored, _ := b.Stats(); stored != 1 {
		t.Errorf("expected retried sentence stored, got %d", stored)
	}
}
