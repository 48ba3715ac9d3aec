package routegen

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"

	"github.com/samirrijal/aissim/internal/core/domain"
)

// World Port Index column names.
const (
	colName = "MAIN_PORT_NAME"
	colLat  = "LATITUDE"
	colLon  = "LONGITUDE"
)

// ErrInsufficientPorts is returned when fewer than two ports are loaded.
var ErrInsufficientPorts = errors.New("insufficient ports")

// LoadPortsFile reads ports from an ISO-8859-1 encoded World Port Index CSV.
func LoadPortsFile(path string) ([]domain.Port, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load ports: %w", err)
	}
	defer f.Close()
	return LoadPorts(f)
}

// LoadPorts parses ports from an ISO-8859-1 encoded CSV with a header row.
// Columns other than name, latitude and longitude are ignored.
func LoadPorts(r io.Reader) ([]domain.Port, error) {
	cr := csv.NewReader(charmap.ISO8859_1.NewDecoder().Reader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("load ports: read header: %w", err)
	}
	idx := map[string]int{}
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, col := range []string{colName, colLat, colLon} {
		if _, ok := idx[col]; !ok {
			return nil, fmt.Errorf("load ports: missing column %s", col)
		}
	}

	var ports []domain.Port
	line := 1
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("load ports: line %d: %w", line, err)
		}

		lat, err := parseField(rec, idx[colLat])
		if err != nil {
			return nil, fmt.Errorf("load ports: line %d: latitude: %w", line, err)
		}
		lon, err := parseField(rec, idx[colLon])
		if err != nil {
			return nil, fmt.Errorf("load ports: line %d: longitude: %w", line, err)
		}
		name := ""
		if i := idx[colName]; i < len(rec) {
			name = strings.TrimSpace(rec[i])
		}
		ports = append(ports, domain.Port{Name: name, Location: domain.GeoPoint{Lat: lat, Lon: lon}})
	}
	return ports, nil
}

func parseField(rec []string, i int) (float64, error) {
	if i >= len(rec) {
		return 0, fmt.Errorf("column %d missing", i)
	}
	return strconv.ParseFloat(strings.TrimSpace(rec[i]), 64)
}
