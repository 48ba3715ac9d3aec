package routegen_test

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/pkg/geospatial"
	"github.com/samirrijal/aissim/internal/routegen"
)

const portsCSV = "INDEX_NO,MAIN_PORT_NAME,LATITUDE,LONGITUDE,COUNTRY\n" +
	"1,G\xf6teborg,57.7,11.95,SE\n" +
	"2,Rotterdam,51.9225,4.4792,NL\n" +
	"3,Bilbao, 43.34,-3.03,ES\n"

var fixedStart = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

func TestLoadPorts_Latin1(t *testing.T) {
	ports, err := routegen.LoadPorts(strings.NewReader(portsCSV))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(ports) != 3 {
		t.Fatalf("expected 3 ports, got %d", len(ports))
	}
	if ports[0].Name != "Göteborg" {
		t.Errorf("expected Latin-1 decoded name, got %q", ports[0].Name)
	}
	if ports[1].Location != (domain.GeoPoint{Lat: 51.9225, Lon: 4.4792}) {
		t.Errorf("unexpected location %+v", ports[1].Location)
	}
	if ports[2].Location.Lat != 43.34 {
		t.Errorf("leading space not trimmed: %+v", ports[2].Location)
	}
}

func TestLoadPorts_MissingColumn(t *testing.T) {
	_, err := routegen.LoadPorts(strings.NewReader("NAME,LATITUDE,LONGITUDE\nx,1,2\n"))
	if err == nil || !strings.Contains(err.Error(), "MAIN_PORT_NAME") {
		t.Errorf("expected missing column error, got %v", err)
	}
}

func TestLoadPorts_BadNumber(t *testing.T) {
	_, err := routegen.LoadPorts(strings.NewReader("MAIN_PORT_NAME,LATITUDE,LONGITUDE\nx,north,2\n"))
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected line 2 parse error, got %v", err)
	}
}

func TestLoadPortsFile_Missing(t *testing.T) {
	if _, err := routegen.LoadPortsFile("does-not-exist.csv"); err == nil {
		t.Error("expected error for missing file")
	}
}

func newGen(t *testing.T, ports []domain.Port, opts ...routegen.Option) *routegen.Generator {
	t.Helper()
	opts = append([]routegen.Option{
		routegen.WithClock(func() time.Time { return fixedStart }),
		routegen.WithRand(rand.New(rand.NewPCG(1, 2))),
	}, opts...)
	g, err := routegen.NewGenerator(ports, 10, 5*time.Minute, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func TestNewGenerator_Validation(t *testing.T) {
	if _, err := routegen.NewGenerator(nil, 0, time.Minute); err == nil {
		t.Error("expected error for zero speed")
	}
	if _, err := routegen.NewGenerator(nil, 10, 0); err == nil {
		t.Error("expected error for zero interval")
	}
}

func TestSelectPorts_Distinct(t *testing.T) {
	ports, _ := routegen.LoadPorts(strings.NewReader(portsCSV))
	g := newGen(t, ports)
	for i := 0; i < 100; i++ {
		o, d, err := g.SelectPorts()
		if err != nil {
			t.Fatal(err)
		}
		if o.Name == d.Name {
			t.Fatalf("origin and destination must differ, both %q", o.Name)
		}
	}
}

func TestSelectPorts_Insufficient(t *testing.T) {
	g := newGen(t, []domain.Port{{Name: "Only"}})
	if _, _, err := g.SelectPorts(); !errors.Is(err, routegen.ErrInsufficientPorts) {
		t.Errorf("expected ErrInsufficientPorts, got %v", err)
	}
}

func TestGreatCircleRouter_SegmentLength(t *testing.T) {
	o := domain.Port{Name: "A", Location: domain.GeoPoint{Lat: 0, Lon: 0}}
	d := domain.Port{Name: "B", Location: domain.GeoPoint{Lat: 0, Lon: 10}}

	wps, err := routegen.GreatCircleRouter{MaxSegmentNM: 50}.Route(context.Background(), o, d)
	if err != nil {
		t.Fatal(err)
	}
	for i := 1; i < len(wps); i++ {
		leg := geospatial.HaversineNM(wps[i-1].Lat, wps[i-1].Lon, wps[i].Lat, wps[i].Lon)
		if leg > 50.001 {
			t.Errorf("leg %d is %.2fnm, longer than 50", i, leg)
		}
	}
	if wps[0] != o.Location || wps[len(wps)-1] != d.Location {
		t.Error("route must start and end at the ports")
	}
}

func TestGreatCircleRouter_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (routegen.GreatCircleRouter{}).Route(ctx, domain.Port{}, domain.Port{}); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

type failingRouter struct{}

func (failingRouter) Route(ctx context.Context, o, d domain.Port) ([]domain.GeoPoint, error) {
	return nil, errors.New("no sea route")
}

func TestGenerator_RouteWrapsError(t *testing.T) {
	g := newGen(t, nil, routegen.WithRouter(failingRouter{}))
	_, err := g.Route(context.Background(), domain.Port{Name: "A"}, domain.Port{Name: "B"})
	if err == nil || !strings.Contains(err.Error(), "A -> B") {
		t.Errorf("expected wrapped route error, got %v", err)
	}
}

func TestInterpolate_Spacing(t *testing.T) {
	g := newGen(t, nil)
	wps := []domain.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 0, Lon: 0.5}, {Lat: 0.5, Lon: 0.5}}

	positions := g.Interpolate(wps)

	totalSeconds := 0.0
	for i := 1; i < len(wps); i++ {
		totalSeconds += geospatial.Haversine(wps[i-1].Lat, wps[i-1].Lon, wps[i].Lat, wps[i].Lon) / (10 * 0.514444)
	}
	want := int(math.Floor(totalSeconds/300)) + 1
	if len(positions) != want {
		t.Fatalf("expected %d positions, got %d", want, len(positions))
	}

	if positions[0].Location != wps[0] || !positions[0].Timestamp.Equal(fixedStart) {
		t.Errorf("first position should be the origin at start time, got %+v", positions[0])
	}
	for i := 1; i < len(positions); i++ {
		if d := positions[i].Timestamp.Sub(positions[i-1].Timestamp); d != 5*time.Minute {
			t.Fatalf("position %d spaced %v apart", i, d)
		}
	}

	// 10 knots for 5 minutes is 0.8333 nm between samples on a straight leg.
	step := geospatial.HaversineNM(positions[0].Location.Lat, positions[0].Location.Lon, positions[1].Location.Lat, positions[1].Location.Lon)
	if math.Abs(step-10.0/12) > 0.01 {
		t.Errorf("expected ~0.833nm per step, got %f", step)
	}
}

func TestInterpolate_Degenerate(t *testing.T) {
	g := newGen(t, nil)
	if got := g.Interpolate([]domain.GeoPoint{{Lat: 1, Lon: 1}}); got != nil {
		t.Errorf("single waypoint should yield nil, got %v", got)
	}

	p := domain.GeoPoint{Lat: 1, Lon: 1}
	got := g.Interpolate([]domain.GeoPoint{p, p})
	if len(got) != 1 || got[0].Location != p {
		t.Errorf("zero-length route should yield its single point, got %+v", got)
	}
}
