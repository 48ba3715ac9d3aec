package maprender

import (
	"fmt"
	"html/template"
	"io"
)

// fitPadMeters keeps track endpoints off the page edge.
const fitPadMeters = 2000

var pageTmpl = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
  <style>html,body{height:100%;margin:0}#map{height:100%}</style>
</head>
<body>
  <div id="map"></div>
  <script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
  <script>
    var view = {{.Map}};
    var fit = {{.Fit}};
    var map = L.map('map');
    if (fit) {
      map.fitBounds(fit);
    } else {
      map.setView([view.center.lat, view.center.lon], view.zoom);
    }
    (view.tile_layers || []).forEach(function (t) {
      L.tileLayer(t.url_template, {attribution: t.attribution}).addTo(map);
    });
    (view.polylines || []).forEach(function (p) {
      L.polyline(p.points.map(function (pt) { return [pt.lat, pt.lon]; }), {color: p.color}).addTo(map);
    });
    (view.markers || []).forEach(function (m) {
      L.marker([m.position.lat, m.position.lon]).addTo(map).bindPopup(m.popup);
    });
  </script>
</body>
</html>
`))

// WritePage renders m as a standalone Leaflet page. A map with overlays is
// fitted to their bounds; an empty map keeps its configured view.
func WritePage(w io.Writer, m *Map, title string) error {
	var fit *[2][2]float64
	if b, ok := m.Bounds(fitPadMeters); ok {
		fit = &[2][2]float64{{b.MinLat, b.MinLon}, {b.MaxLat, b.MaxLon}}
	}
	if err := pageTmpl.Execute(w, struct {
		Title string
		Map   *Map
		Fit   *[2][2]float64
	}{Title: title, Map: m, Fit: fit}); err != nil {
		return fmt.Errorf("render map page: %w", err)
	}
	return nil
}
