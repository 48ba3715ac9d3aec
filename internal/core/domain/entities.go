package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by repositories when a lookup matches nothing.
var ErrNotFound = errors.New("not found")

// Port is a sea port loaded from the World Port Index CSV.
type Port struct {
	Name     string   `json:"name"`
	Location GeoPoint `json:"location"`
}

// Vessel is the minimal shape the map renderer draws: an MMSI and its
// chronologically ordered track.
type Vessel struct {
	MMSI  string     `json:"mmsi"`
	Track []GeoPoint `json:"track"`
}

// Position is a simulated fix along a planned route.
type Position struct {
	Location  GeoPoint  `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

// AISSentence is the envelope streamed between simulator and ingestor.
// Payload carries the full NMEA sentence (e.g. "!AIVDM,1,1,,A,...*5C").
type AISSentence struct {
	Message   string `json:"message" validate:"omitempty,eq=AIVDM"`
	MMSI      string `json:"mmsi" validate:"omitempty,numeric,len=9"`
	Timestamp string `json:"timestamp" validate:"required"`
	Payload   string `json:"payload" validate:"required,max=256"`
}

// Voyage is a planned simulated trip for one vessel.
type Voyage struct {
	MMSI        string        `json:"mmsi"`
	Origin      Port          `json:"origin"`
	Destination Port          `json:"destination"`
	Waypoints   []GeoPoint    `json:"waypoints"`
	Sentences   []AISSentence `json:"sentences"`
}

// AISRecord is a stored, validated AIS position message.
type AISRecord struct {
	ID           int64     `json:"id"`
	MMSI         string    `json:"mmsi"`
	Timestamp    time.Time `json:"timestamp"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	Speed        *float64  `json:"speed,omitempty"` // knots
	Course       *int      `json:"course,omitempty"`
	Status       *int      `json:"status,omitempty"`
	Payload      string    `json:"payload"`
	IsValid      bool      `json:"is_valid"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// TrackPoint is a single valid fix of a vessel track.
type TrackPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Location  GeoPoint  `json:"location"`
	Speed     float64   `json:"speed"`
}

// VesselStats summarises a vessel's movement inside a time window.
type VesselStats struct {
	MMSI      string    `json:"mmsi"`
	Distance  float64   `json:"distance"`  // nautical miles
	AvgSpeed  float64   `json:"avg_speed"` // knots
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// VesselSummary is the dashboard row for one vessel.
type VesselSummary struct {
	MMSI     string       `json:"mmsi"`
	Distance float64      `json:"distance"`
	AvgSpeed float64      `json:"avg_speed"`
	Track    [][2]float64 `json:"track"` // [lat, lon] pairs
}

// Vessel projects the summary into the renderer's input shape.
func (s VesselSummary) Vessel() Vessel {
	track := make([]GeoPoint, len(s.Track))
	for i, p := range s.Track {
		track[i] = GeoPoint{Lat: p[0], Lon: p[1]}
	}
	return Vessel{MMSI: s.MMSI, Track: track}
}

// IngestCounts holds row counts from the AIS message table.
type IngestCounts struct {
	Total      int    `json:"total"`
	Valid      int    `json:"valid"`
	Invalid    int    `json:"invalid"`
	Vessels    int    `json:"vessels"`
	LastIngest string `json:"last_ingest,omitempty"`
}

// TimestampLayout formats AISSentence timestamps: RFC 3339 in UTC with
// microsecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// EndOfStream is the text frame that closes an AIS sentence stream.
const EndOfStream = "__END__"
