// Package maprender draws vessel tracks onto a tile-based web map.
//
// A Renderer builds an explicit Map handle holding the view, one tile layer,
// and per-vessel overlays (a colored polyline plus start and end markers).
// The handle can be serialised as GeoJSON or written out as a Leaflet page.
package maprender

import (
	"fmt"
	"math/rand/v2"

	"github.com/samirrijal/aissim/internal/core/domain"
)

const (
	// DefaultTileURL is the OpenStreetMap raster tile template.
	DefaultTileURL = "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png"
	// DefaultAttribution is the attribution OpenStreetMap tiles require.
	DefaultAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors`
	// DefaultZoom frames the North Sea approaches.
	DefaultZoom = 5
)

// DefaultCenter is the port of Rotterdam.
var DefaultCenter = domain.GeoPoint{Lat: 51.9225, Lon: 4.4792}

// DefaultTileLayer is the OpenStreetMap layer.
var DefaultTileLayer = TileLayer{URLTemplate: DefaultTileURL, Attribution: DefaultAttribution}

const hexDigits = "0123456789ABCDEF"

// ColorFunc returns a "#RRGGBB" color each time it is called.
type ColorFunc func() string

// RandomColor picks each of the six hex digits uniformly at random.
func RandomColor() string {
	b := make([]byte, 7)
	b[0] = '#'
	for i := 1; i < len(b); i++ {
		b[i] = hexDigits[rand.IntN(len(hexDigits))]
	}
	return string(b)
}

// Renderer draws vessels onto maps.
type Renderer struct {
	color  ColorFunc
	center domain.GeoPoint
	zoom   int
	tiles  TileLayer
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithColorFunc replaces the random polyline color source.
func WithColorFunc(fn ColorFunc) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.color = fn
		}
	}
}

// WithView sets the initial map center and zoom.
func WithView(center domain.GeoPoint, zoom int) Option {
	return func(r *Renderer) {
		r.center = center
		r.zoom = zoom
	}
}

// WithTileLayer replaces the background tile source.
func WithTileLayer(t TileLayer) Option {
	return func(r *Renderer) {
		r.tiles = t
	}
}

// NewRenderer creates a Renderer with OpenStreetMap tiles centered on Rotterdam.
func NewRenderer(opts ...Option) *Renderer {
	r := &Renderer{
		color:  RandomColor,
		center: DefaultCenter,
		zoom:   DefaultZoom,
		tiles:  DefaultTileLayer,
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// InitializeMap creates a new map at the configured view, attaches the tile
// layer once and draws every vessel onto it.
func (r *Renderer) InitializeMap(vessels []domain.Vessel) *Map {
	m := NewMap(r.center, r.zoom)
	m.AddTileLayer(r.tiles)
	r.Draw(m, vessels)
	return m
}

// Draw adds overlays for vessels on top of whatever m already holds.
// Vessels with an empty track are skipped.
func (r *Renderer) Draw(m *Map, vessels []domain.Vessel) {
	for _, v := range vessels {
		if len(v.Track) == 0 {
			continue
		}
		m.AddPolyline(Polyline{Points: v.Track, Color: r.color()})
		m.AddMarker(Marker{Position: v.Track[0], Popup: StartPopup(v.MMSI), Role: RoleStart})
		m.AddMarker(Marker{Position: v.Track[len(v.Track)-1], Popup: EndPopup(v.MMSI), Role: RoleEnd})
	}
}

// StartPopup is the popup text bound to a track's first point.
func StartPopup(mmsi string) string {
	return fmt.Sprintf("MMSI: %s (Start)", mmsi)
}

// EndPopup is the popup text bound to a track's last point.
func EndPopup(mmsi string) string {
	return fmt.Sprintf("MMSI: %s (End)", mmsi)
}
