package usecases

import (
	"context"
	"sort"
	"sync"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/ports"
)

// LiveFleet keeps the latest valid position of every vessel seen on the
// event bus.
type LiveFleet struct {
	mu   sync.RWMutex
	last map[string]domain.AISRecord
}

func NewLiveFleet() *LiveFleet {
	return &LiveFleet{last: make(map[string]domain.AISRecord)}
}

// Run subscribes to position events. It returns once the subscription is set up.
func (f *LiveFleet) Run(ctx context.Context, sub ports.EventSubscriber) error {
	return sub.SubscribePositions(ctx, f.Observe)
}

// Observe records rec if it is newer than what is held for its vessel.
func (f *LiveFleet) Observe(ctx context.Context, rec *domain.AISRecord) error {
	if !rec.IsValid {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if cur, ok := f.last[rec.MMSI]; ok && !rec.Timestamp.After(cur.Timestamp) {
		return nil
	}
	f.last[rec.MMSI] = *rec
	return nil
}

// Snapshot returns the latest positions ordered by MMSI.
func (f *LiveFleet) Snapshot() []domain.AISRecord {
	f.mu.RLock()
	out := make([]domain.AISRecord, 0, len(f.last))
	for _, rec := range f.last {
		out = append(out, rec)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].MMSI < out[j].MMSI })
	return out
}
