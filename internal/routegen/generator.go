// Package routegen plans simulated voyages between ports and samples
// timestamped positions along them.
package routegen

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/pkg/geospatial"
)

// knotsToMPS converts knots to meters per second.
const knotsToMPS = 0.514444

// Router plans a waypoint path between two ports.
type Router interface {
	Route(ctx context.Context, origin, destination domain.Port) ([]domain.GeoPoint, error)
}

// GreatCircleRouter follows the great circle between two ports, split into
// legs of at most MaxSegmentNM nautical miles. It ignores land.
type GreatCircleRouter struct {
	MaxSegmentNM float64
}

// Route implements Router.
func (g GreatCircleRouter) Route(ctx context.Context, origin, destination domain.Port) ([]domain.GeoPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dist := geospatial.HaversineNM(origin.Location.Lat, origin.Location.Lon, destination.Location.Lat, destination.Location.Lon)
	n := 1
	if g.MaxSegmentNM > 0 {
		n = int(math.Ceil(dist / g.MaxSegmentNM))
	}
	return geospatial.GreatCircle(origin.Location, destination.Location, n), nil
}

// Generator selects ports, routes between them and samples positions at a
// fixed interval for a vessel travelling at constant speed.
type Generator struct {
	ports    []domain.Port
	speed    float64 // knots
	interval time.Duration
	router   Router
	now      func() time.Time
	rng      *rand.Rand
}

// Option configures a Generator.
type Option func(*Generator)

// WithRouter replaces the default great-circle router.
func WithRouter(r Router) Option {
	return func(g *Generator) { g.router = r }
}

// WithClock sets the time source used for the first position.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

// WithRand sets the random source used for port selection.
func WithRand(r *rand.Rand) Option {
	return func(g *Generator) { g.rng = r }
}

// NewGenerator creates a Generator. speedKnots and interval must be positive.
func NewGenerator(ports []domain.Port, speedKnots float64, interval time.Duration, opts ...Option) (*Generator, error) {
	if speedKnots <= 0 {
		return nil, fmt.Errorf("speed must be positive, got %v", speedKnots)
	}
	if interval <= 0 {
		return nil, fmt.Errorf("interval must be positive, got %v", interval)
	}
	g := &Generator{
		ports:    ports,
		speed:    speedKnots,
		interval: interval,
		router:   GreatCircleRouter{MaxSegmentNM: 50},
		now:      time.Now,
		rng:      rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, o := range opts {
		o(g)
	}
	return g, nil
}

// Ports returns the loaded ports.
func (g *Generator) Ports() []domain.Port {
	return g.ports
}

// SelectPorts picks two distinct ports at random.
func (g *Generator) SelectPorts() (origin, destination domain.Port, err error) {
	if len(g.ports) < 2 {
		return domain.Port{}, domain.Port{}, fmt.Errorf("%w: have %d", ErrInsufficientPorts, len(g.ports))
	}
	i := g.rng.IntN(len(g.ports))
	j := g.rng.IntN(len(g.ports) - 1)
	if j >= i {
		j++
	}
	return g.ports[i], g.ports[j], nil
}

// Route delegates to the configured Router.
func (g *Generator) Route(ctx context.Context, origin, destination domain.Port) ([]domain.GeoPoint, error) {
	wps, err := g.router.Route(ctx, origin, destination)
	if err != nil {
		return nil, fmt.Errorf("generate route %s -> %s: %w", origin.Name, destination.Name, err)
	}
	return wps, nil
}

// Interpolate samples positions along waypoints every interval, starting at
// the first waypoint and stopping once the elapsed time passes the total
// sailing time. Fewer than two waypoints yield nil.
func (g *Generator) Interpolate(waypoints []domain.GeoPoint) []domain.Position {
	if len(waypoints) < 2 {
		return nil
	}

	speedMPS := g.speed * knotsToMPS
	segTimes := make([]float64, len(waypoints)-1)
	var total float64
	for i := range segTimes {
		a, b := waypoints[i], waypoints[i+1]
		segTimes[i] = geospatial.Haversine(a.Lat, a.Lon, b.Lat, b.Lon) / speedMPS
		total += segTimes[i]
	}

	start := g.now()
	step := g.interval.Seconds()
	var positions []domain.Position
	for t := 0.0; t <= total; t += step {
		elapsed := 0.0
		for i, seg := range segTimes {
			if elapsed+seg >= t {
				frac := 0.0
				if seg > 0 {
					frac = (t - elapsed) / seg
				}
				positions = append(positions, domain.Position{
					Location:  geospatial.Interpolate(waypoints[i], waypoints[i+1], frac),
					Timestamp: start.Add(time.Duration(t * float64(time.Second))),
				})
				break
			}
			elapsed += seg
		}
	}
	return positions
}

// Speed returns the vessel speed in knots.
func (g *Generator) Speed() float64 {
	return g.speed
}
