package ais

import (
	"fmt"
	"math"
)

const positionReportBits = 168

// Sentinel "not available" values for position report fields.
const (
	ROTNotAvailable     = -128
	SOGNotAvailable     = 102.3
	LonNotAvailable     = 181.0
	LatNotAvailable     = 91.0
	COGNotAvailable     = 360.0
	HeadingNotAvailable = 511
	SecondNotAvailable  = 60
)

// NavigationStatus values used by the simulator.
const (
	StatusUnderWayUsingEngine = 0
	StatusAtAnchor            = 1
	StatusMoored              = 5
	StatusNotDefined          = 15
)

// PositionReport is a Class A position report (message types 1, 2, 3).
type PositionReport struct {
	Type     int
	Repeat   int
	MMSI     uint32
	Status   int
	ROT      int     // raw rate-of-turn indicator, -128 when not available
	SOG      float64 // knots
	Accuracy bool
	Lon      float64 // degrees
	Lat      float64 // degrees
	COG      float64 // degrees
	Heading  int     // degrees, 511 when not available
	Second   int
	Maneuver int
	RAIM     bool
	Radio    uint32
}

// NewPositionReport returns a type 1 report with every optional field set
// to its "not available" value.
func NewPositionReport(mmsi uint32, lat, lon float64) PositionReport {
	return PositionReport{
		Type:    1,
		MMSI:    mmsi,
		Status:  StatusNotDefined,
		ROT:     ROTNotAvailable,
		SOG:     SOGNotAvailable,
		Lat:     lat,
		Lon:     lon,
		COG:     COGNotAvailable,
		Heading: HeadingNotAvailable,
		Second:  SecondNotAvailable,
	}
}

// Encode packs the report into an armored payload and its fill bit count.
func (p PositionReport) Encode() (string, int, error) {
	if p.Type < 1 || p.Type > 3 {
		return "", 0, fmt.Errorf("%w: %d", ErrUnsupportedType, p.Type)
	}

	sog := int64(math.Round(p.SOG * 10))
	lon := int64(math.Round(p.Lon * 600000))
	lat := int64(math.Round(p.Lat * 600000))
	cog := int64(math.Round(p.COG * 10))

	checks := []error{
		checkUnsigned("repeat", int64(p.Repeat), 2),
		checkUnsigned("mmsi", int64(p.MMSI), 30),
		checkUnsigned("status", int64(p.Status), 4),
		checkSigned("rot", int64(p.ROT), 8),
		checkUnsigned("sog", sog, 10),
		checkSigned("lon", lon, 28),
		checkSigned("lat", lat, 27),
		checkUnsigned("cog", cog, 12),
		checkUnsigned("heading", int64(p.Heading), 9),
		checkUnsigned("second", int64(p.Second), 6),
		checkUnsigned("maneuver", int64(p.Maneuver), 2),
		checkUnsigned("radio", int64(p.Radio), 19),
	}
	for _, err := range checks {
		if err != nil {
			return "", 0, err
		}
	}

	w := &bitWriter{bits: make([]byte, 0, positionReportBits)}
	w.putUint(uint64(p.Type), 6)
	w.putUint(uint64(p.Repeat), 2)
	w.putUint(uint64(p.MMSI), 30)
	w.putUint(uint64(p.Status), 4)
	w.putInt(int64(p.ROT), 8)
	w.putUint(uint64(sog), 10)
	w.putUint(boolBit(p.Accuracy), 1)
	w.putInt(lon, 28)
	w.putInt(lat, 27)
	w.putUint(uint64(cog), 12)
	w.putUint(uint64(p.Heading), 9)
	w.putUint(uint64(p.Second), 6)
	w.putUint(uint64(p.Maneuver), 2)
	w.putUint(0, 3) // spare
	w.putUint(boolBit(p.RAIM), 1)
	w.putUint(uint64(p.Radio), 19)

	payload, fill := Armor(w.bits)
	return payload, fill, nil
}

// DecodePositionReport unpacks an armored type 1, 2 or 3 payload.
func DecodePositionReport(payload string, fill int) (*PositionReport, error) {
	bits, err := Dearmor(payload, fill)
	if err != nil {
		return nil, err
	}
	if len(bits) < 6 {
		return nil, fmt.Errorf("%w: %d bits", ErrShortPayload, len(bits))
	}

	r := &bitReader{bits: bits}
	msgType := int(r.readUint(6))
	if msgType < 1 || msgType > 3 {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedType, msgType)
	}
	if len(bits) < positionReportBits {
		return nil, fmt.Errorf("%w: %d bits, need %d", ErrShortPayload, len(bits), positionReportBits)
	}

	p := &PositionReport{Type: msgType}
	p.Repeat = int(r.readUint(2))
	p.MMSI = uint32(r.readUint(30))
	p.Status = int(r.readUint(4))
	p.ROT = int(r.readInt(8))
	p.SOG = float64(r.readUint(10)) / 10
	p.Accuracy = r.readUint(1) == 1
	p.Lon = float64(r.readInt(28)) / 600000
	p.Lat = float64(r.readInt(27)) / 600000
	p.COG = float64(r.readUint(12)) / 10
	p.Heading = int(r.readUint(9))
	p.Second = int(r.readUint(6))
	p.Maneuver = int(r.readUint(2))
	r.readUint(3) // spare
	p.RAIM = r.readUint(1) == 1
	p.Radio = uint32(r.readUint(19))
	return p, nil
}

func boolBit(b bool) uint64 {
	if b {
		return 1
	}
	return 0
}
