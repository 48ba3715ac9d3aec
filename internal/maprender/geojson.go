package maprender

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// FeatureCollection exports the map overlays. Polylines become LineString
// features with a "stroke" property, markers become Point features with a
// "popup" and a "role" of start or end.
func (m *Map) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	fc.Features = make([]*geojson.Feature, 0, m.Overlays())

	for _, p := range m.Polylines {
		line := make(orb.LineString, len(p.Points))
		for i, pt := range p.Points {
			line[i] = toOrb(pt)
		}
		f := geojson.NewFeature(line)
		f.Properties["stroke"] = p.Color
		fc.Append(f)
	}

	for _, mk := range m.Markers {
		f := geojson.NewFeature(toOrb(mk.Position))
		f.Properties["popup"] = mk.Popup
		f.Properties["role"] = mk.Role
		fc.Append(f)
	}

	return fc
}

// toOrb swaps to orb's [lon, lat] order.
func toOrb(p domain.GeoPoint) orb.Point {
	return orb.Point{p.Lon, p.Lat}
}
