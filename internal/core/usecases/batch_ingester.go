package usecases

import (
	"context"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// BatchIngester buffers streamed sentences and stores them through
// IngestService.IngestBatch. A size of 1 stores every sentence on arrival.
type BatchIngester struct {
	svc  *IngestService
	size int
	buf  []domain.AISSentence

	stored  int
	invalid int
}

// NewBatchIngester creates a BatchIngester flushing every size sentences.
func (s *IngestService) NewBatchIngester(size int) *BatchIngester {
	size = max(size, 1)
	return &BatchIngester{svc: s, size: size, buf: make([]domain.AISSentence, 0, size)}
}

// Add queues msg and flushes when the buffer is full. Its signature matches
// the stream client's handler.
func (b *BatchIngester) Add(ctx context.Context, msg domain.AISSentence) error {
	b.buf = append(b.buf, msg)
	if len(b.buf) < b.size {
		return nil
	}
	return b.Flush(ctx)
}

// Flush stores whatever is buffered. The buffer is kept on error.
func (b *BatchIngester) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	invalid, err := b.svc.IngestBatch(ctx, b.buf)
	if err != nil {
		return err
	}
	b.stored += len(b.buf)
	b.invalid += invalid
	b.buf = b.buf[:0]
	return nil
}

// Stats returns how many sentences were stored and how many of those were invalid.
func (b *BatchIngester) Stats() (stored, invalid int) {
	return b.stored, b.invalid
}
