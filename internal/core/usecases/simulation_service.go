package usecases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sort"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/aissim/internal/ais"
	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/core/ports"
	"github.com/samirrijal/aissim/internal/pkg/metrics"
	"github.com/samirrijal/aissim/internal/routegen"
)

const (
	maxMMSIAttempts = 100
	maxPairAttempts = 1000
	planParallelism = 4
)

var (
	// ErrNoFreeMMSI is returned when no unused MMSI was found.
	ErrNoFreeMMSI = errors.New("no free mmsi")
	// ErrNoPortPairs is returned once every origin/destination pair is taken.
	ErrNoPortPairs = errors.New("no unused port pair")
)

// SimulationService plans voyages for simulated vessels and encodes them
// into AIS sentences.
type SimulationService struct {
	repo ports.AISMessageRepository
	gen  *routegen.Generator

	mu       sync.Mutex
	rng      *rand.Rand
	pairs    map[[2]string]struct{}
	assigned map[string]struct{}
}

// SimulationOption configures a SimulationService.
type SimulationOption func(*SimulationService)

// WithSimulationRand sets the random source for MMSI allocation.
func WithSimulationRand(r *rand.Rand) SimulationOption {
	return func(s *SimulationService) { s.rng = r }
}

// NewSimulationService creates a new SimulationService.
func NewSimulationService(repo ports.AISMessageRepository, gen *routegen.Generator, opts ...SimulationOption) *SimulationService {
	s := &SimulationService{
		repo:     repo,
		gen:      gen,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		pairs:    make(map[[2]string]struct{}),
		assigned: make(map[string]struct{}),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// GenerateMMSI returns a 9-digit MMSI not yet stored and not yet handed out
// by this service.
func (s *SimulationService) GenerateMMSI(ctx context.Context) (string, error) {
	for range maxMMSIAttempts {
		s.mu.Lock()
		mmsi := strconv.Itoa(100_000_000 + s.rng.IntN(900_000_000))
		_, taken := s.assigned[mmsi]
		s.mu.Unlock()
		if taken {
			continue
		}

		exists, err := s.repo.MMSIExists(ctx, mmsi)
		if err != nil {
			return "", fmt.Errorf("check mmsi %s: %w", mmsi, err)
		}
		if exists {
			continue
		}

		s.mu.Lock()
		_, taken = s.assigned[mmsi]
		if !taken {
			s.assigned[mmsi] = struct{}{}
		}
		s.mu.Unlock()
		if !taken {
			return mmsi, nil
		}
	}
	return "", fmt.Errorf("%w after %d attempts", ErrNoFreeMMSI, maxMMSIAttempts)
}

func (s *SimulationService) pickPair() (domain.Port, domain.Port, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.gen.Ports())
	if n >= 2 && len(s.pairs) >= n*(n-1) {
		return domain.Port{}, domain.Port{}, ErrNoPortPairs
	}
	for range maxPairAttempts {
		o, d, err := s.gen.SelectPorts()
		if err != nil {
			return domain.Port{}, domain.Port{}, err
		}
		key := [2]string{o.Name, d.Name}
		if _, used := s.pairs[key]; used {
			continue
		}
		s.pairs[key] = struct{}{}
		return o, d, nil
	}
	return domain.Port{}, domain.Port{}, fmt.Errorf("%w after %d attempts", ErrNoPortPairs, maxPairAttempts)
}

// PlanVoyage allocates an MMSI and an unused port pair, routes between the
// ports and encodes every sampled position.
func (s *SimulationService) PlanVoyage(ctx context.Context) (*domain.Voyage, error) {
	start := time.Now()

	mmsi, err := s.GenerateMMSI(ctx)
	if err != nil {
		return nil, err
	}
	origin, dest, err := s.pickPair()
	if err != nil {
		return nil, err
	}
	waypoints, err := s.gen.Route(ctx, origin, dest)
	if err != nil {
		return nil, err
	}
	positions := s.gen.Interpolate(waypoints)

	v := &domain.Voyage{
		MMSI:        mmsi,
		Origin:      origin,
		Destination: dest,
		Waypoints:   waypoints,
		Sentences:   EncodePositions(mmsi, positions, s.gen.Speed()),
	}

	metrics.VoyagesPlanned.Inc()
	metrics.VoyagePlanDuration.Observe(time.Since(start).Seconds())
	slog.InfoContext(ctx, "voyage planned",
		"mmsi", mmsi,
		"origin", origin.Name,
		"destination", dest.Name,
		"waypoints", len(waypoints),
		"sentences", len(v.Sentences),
	)
	return v, nil
}

// PlanVoyages plans n voyages concurrently. The first failure cancels the rest.
func (s *SimulationService) PlanVoyages(ctx context.Context, n int) ([]domain.Voyage, error) {
	voyages := make([]domain.Voyage, n)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(planParallelism)
	for i := range n {
		g.Go(func() error {
			v, err := s.PlanVoyage(ctx)
			if err != nil {
				return fmt.Errorf("plan voyage %d: %w", i+1, err)
			}
			voyages[i] = *v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return voyages, nil
}

// EncodePositions builds one type 1 position report sentence per position,
// under way at speedKnots with course 0. Positions that fail to encode are
// logged and skipped.
func EncodePositions(mmsi string, positions []domain.Position, speedKnots float64) []domain.AISSentence {
	id, err := strconv.ParseUint(mmsi, 10, 32)
	if err != nil {
		slog.Error("invalid mmsi for encoding", "mmsi", mmsi, "error", err)
		return nil
	}

	out := make([]domain.AISSentence, 0, len(positions))
	for _, pos := range positions {
		rep := ais.NewPositionReport(uint32(id), pos.Location.Lat, pos.Location.Lon)
		rep.Status = ais.StatusUnderWayUsingEngine
		rep.SOG = speedKnots
		rep.COG = 0

		sentence, err := ais.EncodePosition(rep)
		if err != nil {
			slog.Warn("skipping position", "mmsi", mmsi, "timestamp", pos.Timestamp, "error", err)
			continue
		}
		out = append(out, domain.AISSentence{
			Message:   "AIVDM",
			MMSI:      mmsi,
			Timestamp: pos.Timestamp.UTC().Format(domain.TimestampLayout),
			Payload:   sentence,
		})
	}
	return out
}

// SortForStreaming orders sentences by timestamp, newest first unless
// oldestFirst is set. Ties keep their relative order.
func SortForStreaming(msgs []domain.AISSentence, oldestFirst bool) {
	sort.SliceStable(msgs, func(i, j int) bool {
		ti, _ := ParseTimestamp(msgs[i].Timestamp)
		tj, _ := ParseTimestamp(msgs[j].Timestamp)
		if oldestFirst {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})
}

// Flatten concatenates the sentences of every voyage.
func Flatten(voyages []domain.Voyage) []domain.AISSentence {
	var out []domain.AISSentence
	for _, v := range voyages {
		out = append(out, v.Sentences...)
	}
	return out
}
