package usecases_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// --- Mock AISMessageRepository ---

type mockAISRepo struct {
	mu       sync.Mutex
	inserted []domain.AISRecord

	insertErr      error
	mmsiExistsFn   func(ctx context.Context, mmsi string) (bool, error)
	distinctFn     func(ctx context.Context) ([]string, error)
	trackFn        func(ctx context.Context, mmsi string) ([]domain.TrackPoint, error)
	trackWindowFn  func(ctx context.Context, mmsi string, from, to time.Time) ([]domain.TrackPoint, error)
	deleteByMMSIFn func(ctx context.Context, mmsi string) (int64, error)
	countsFn       func(ctx context.Context) (domain.IngestCounts, error)
}

// Insert mirrors ON CONFLICT (mmsi, ts) DO NOTHING: a duplicate keeps ID 0
// and is not stored.
func (m *mockAISRepo) Insert(ctx context.Context, rec *domain.AISRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.insertLocked(rec)
	return nil
}

func (m *mockAISRepo) InsertBatch(ctx context.Context, recs []domain.AISRecord) error {
	if m.insertErr != nil {
		return m.insertErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range recs {
		m.insertLocked(&recs[i])
	}
	return nil
}

func (m *mockAISRepo) insertLocked(rec *domain.AISRecord) {
	for _, r := range m.inserted {
		if r.MMSI == rec.MMSI && r.Timestamp.Equal(rec.Timestamp) {
			return
		}
	}
	rec.ID = int64(len(m.inserted) + 1)
	m.inserted = append(m.inserted, *rec)
}

func (m *mockAISRepo) MMSIExists(ctx context.Context, mmsi string) (bool, error) {
	if m.mmsiExistsFn != nil {
		return m.mmsiExistsFn(ctx, mmsi)
	}
	return false, nil
}

func (m *mockAISRepo) DistinctMMSIs(ctx context.Context) ([]string, error) {
	if m.distinctFn != nil {
		return m.distinctFn(ctx)
	}
	return nil, nil
}

func (m *mockAISRepo) Track(ctx context.Context, mmsi string) ([]domain.TrackPoint, error) {
	if m.trackFn != nil {
		return m.trackFn(ctx, mmsi)
	}
	return nil, nil
}

func (m *mockAISRepo) TrackWindow(ctx context.Context, mmsi string, from, to time.Time) ([]domain.TrackPoint, error) {
	if m.trackWindowFn != nil {
		return m.trackWindowFn(ctx, mmsi, from, to)
	}
	return nil, nil
}

func (m *mockAISRepo) DeleteByMMSI(ctx context.Context, mmsi string) (int64, error) {
	if m.deleteByMMSIFn != nil {
		return m.deleteByMMSIFn(ctx, mmsi)
	}
	return 0, nil
}

func (m *mockAISRepo) Counts(ctx context.Context) (domain.IngestCounts, error) {
	if m.countsFn != nil {
		return m.countsFn(ctx)
	}
	return domain.IngestCounts{}, nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	positions []string
	invalid   []string
	err       error
}

func (m *mockPublisher) PublishPosition(ctx context.Context, rec *domain.AISRecord) error {
	m.positions = append(m.positions, rec.MMSI)
	return m.err
}

func (m *mockPublisher) PublishInvalid(ctx context.Context, rec *domain.AISRecord) error {
	m.invalid = append(m.invalid, rec.MMSI)
	return m.err
}

// --- Mock CacheService ---

var errCacheMiss = errors.New("cache miss")

type mockCache struct {
	data    map[string][]byte
	deletes int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}}
}

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.deletes++
	delete(m.data, key)
	return nil
}
