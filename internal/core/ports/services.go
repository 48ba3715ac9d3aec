package ports

import (
	"context"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// EventPublisher publishes ingest events to a message broker.
type EventPublisher interface {
	PublishPosition(ctx context.Context, rec *domain.AISRecord) error
	PublishInvalid(ctx context.Context, rec *domain.AISRecord) error
}

// EventSubscriber subscribes to ingest events from a message broker.
type EventSubscriber interface {
	SubscribePositions(ctx context.Context, handler func(ctx context.Context, rec *domain.AISRecord) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
