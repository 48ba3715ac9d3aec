package geospatial

import (
	"math"

	"github.com/samirrijal/aissim/internal/core/domain"
)

const (
	earthRadiusKm = 6371.0
	metersPerNM   = 1852.0
)

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c * 1000 // meters
}

// HaversineNM is Haversine in nautical miles.
func HaversineNM(lat1, lon1, lat2, lon2 float64) float64 {
	return Haversine(lat1, lon1, lat2, lon2) / metersPerNM
}

// PathLengthNM sums the leg distances of an ordered path.
func PathLengthNM(points []domain.GeoPoint) float64 {
	var total float64
	for i := 1; i < len(points); i++ {
		total += HaversineNM(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
	}
	return total
}

// Interpolate returns the point a fraction t of the way from a to b,
// linear in latitude and longitude.
func Interpolate(a, b domain.GeoPoint, t float64) domain.GeoPoint {
	return domain.GeoPoint{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lon: a.Lon + t*(b.Lon-a.Lon),
	}
}

// GreatCircle returns n+1 points along the great circle from a to b,
// including both endpoints. n < 1 is treated as 1.
func GreatCircle(a, b domain.GeoPoint, n int) []domain.GeoPoint {
	if n < 1 {
		n = 1
	}
	lat1, lon1 := toRad(a.Lat), toRad(a.Lon)
	lat2, lon2 := toRad(b.Lat), toRad(b.Lon)

	d := 2 * math.Asin(math.Sqrt(
		math.Pow(math.Sin((lat2-lat1)/2), 2)+
			math.Cos(lat1)*math.Cos(lat2)*math.Pow(math.Sin((lon2-lon1)/2), 2),
	))

	points := make([]domain.GeoPoint, 0, n+1)
	points = append(points, a)
	for i := 1; i < n; i++ {
		if d == 0 {
			points = append(points, a)
			continue
		}
		f := float64(i) / float64(n)
		A := math.Sin((1-f)*d) / math.Sin(d)
		B := math.Sin(f*d) / math.Sin(d)
		x := A*math.Cos(lat1)*math.Cos(lon1) + B*math.Cos(lat2)*math.Cos(lon2)
		y := A*math.Cos(lat1)*math.Sin(lon1) + B*math.Cos(lat2)*math.Sin(lon2)
		z := A*math.Sin(lat1) + B*math.Sin(lat2)
		points = append(points, domain.GeoPoint{
			Lat: toDeg(math.Atan2(z, math.Sqrt(x*x+y*y))),
			Lon: toDeg(math.Atan2(y, x)),
		})
	}
	return append(points, b)
}

// BoundingBox returns a bounding box around a point with the given radius in meters.
func BoundingBox(lat, lon, radiusMeters float64) (minLat, minLon, maxLat, maxLon float64) {
	latDelta := radiusMeters / 111320.0
	lonDelta := radiusMeters / (111320.0 * math.Cos(toRad(lat)))

	return lat - latDelta, lon - lonDelta, lat + latDelta, lon + lonDelta
}

// PathBounds returns the bounds of all points, padded by padMeters.
// ok is false when points is empty.
func PathBounds(points []domain.GeoPoint, padMeters float64) (b domain.Bounds, ok bool) {
	if len(points) == 0 {
		return domain.Bounds{}, false
	}
	b = domain.Bounds{MinLat: points[0].Lat, MaxLat: points[0].Lat, MinLon: points[0].Lon, MaxLon: points[0].Lon}
	for _, p := range points[1:] {
		b = b.Extend(p)
	}
	if padMeters > 0 {
		minLat, minLon, _, _ := BoundingBox(b.MinLat, b.MinLon, padMeters)
		_, _, maxLat, maxLon := BoundingBox(b.MaxLat, b.MaxLon, padMeters)
		b = domain.Bounds{MinLat: minLat, MinLon: minLon, MaxLat: maxLat, MaxLon: maxLon}
	}
	return b, true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
