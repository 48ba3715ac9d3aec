package maprender

import (
	"github.com/samirrijal/aissim/internal/core/domain"
	"github.com/samirrijal/aissim/internal/pkg/geospatial"
)

// TileLayer is a background raster source.
type TileLayer struct {
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// Polyline is a colored line through an ordered list of points.
type Polyline struct {
	Points []domain.GeoPoint `json:"points"`
	Color  string            `json:"color"`
}

// Marker roles.
const (
	RoleStart = "start"
	RoleEnd   = "end"
)

// Marker is a pin with a bound popup.
type Marker struct {
	Position domain.GeoPoint `json:"position"`
	Popup    string          `json:"popup"`
	Role     string          `json:"role"`
}

// Map is an owned map handle. Overlays accumulate for its lifetime.
// A Map is not safe for concurrent mutation.
type Map struct {
	Center     domain.GeoPoint `json:"center"`
	Zoom       int             `json:"zoom"`
	TileLayers []TileLayer     `json:"tile_layers"`
	Polylines  []Polyline      `json:"polylines"`
	Markers    []Marker        `json:"markers"`
}

// NewMap creates an empty map with the given view.
func NewMap(center domain.GeoPoint, zoom int) *Map {
	return &Map{Center: center, Zoom: zoom}
}

// AddTileLayer attaches a tile layer.
func (m *Map) AddTileLayer(t TileLayer) {
	m.TileLayers = append(m.TileLayers, t)
}

// AddPolyline attaches a polyline.
func (m *Map) AddPolyline(p Polyline) {
	m.Polylines = append(m.Polylines, p)
}

// AddMarker attaches a marker.
func (m *Map) AddMarker(mk Marker) {
	m.Markers = append(m.Markers, mk)
}

// Overlays is the number of drawn elements on top of the base map.
func (m *Map) Overlays() int {
	return len(m.Polylines) + len(m.Markers)
}

// Bounds covers every polyline point and marker, padded by padMeters.
// ok is false for a map without overlays.
func (m *Map) Bounds(padMeters float64) (domain.Bounds, bool) {
	var pts []domain.GeoPoint
	for _, p := range m.Polylines {
		pts = append(pts, p.Points...)
	}
	for _, mk := range m.Markers {
		pts = append(pts, mk.Position)
	}
	return geospatial.PathBounds(pts, padMeters)
}
