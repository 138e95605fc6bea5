package reference

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Column headers of the reference files.
const (
	ColStation       = "Station"
	ColObservedRange = "Observed Range of Water Level"
	ColTown          = "Town"
	ColSandy         = "Sandy Soil (%)"
	ColLoamy         = "Loamy Soil (%)"
	ColClayey        = "Clayey Soil (%)"
	ColRocky         = "Rocky/Hard Soil (%)"
)

// stationSuffix matches piezometer and numeric suffixes of station names.
var stationSuffix = regexp.MustCompile(`_\d+|Pz|_Pz`)

// GroundwaterRecord is a raw row of the station observation table.
type GroundwaterRecord struct {
	Station       string
	ObservedRange string
}

// LoadCSV reads both reference files and builds a store.
func LoadCSV(groundwaterPath, soilPath string) (*Store, error) {
	records, err := ReadFile(groundwaterPath, ReadGroundwaterRecords)
	if err != nil {
		return nil, fmt.Errorf("groundwater table: %w", err)
	}
	towns, err := ReadFile(soilPath, ReadSoil)
	if err != nil {
		return nil, fmt.Errorf("soil table: %w", err)
	}
	return Build(ParseStations(records), towns)
}

// Build validates parsed tables and creates a store.
func Build(stations []location.Station, towns []location.Town) (*Store, error) {
	if len(stations) == 0 {
		return nil, fmt.Errorf("groundwater table: %w", ErrNoRows)
	}
	if len(towns) == 0 {
		return nil, fmt.Errorf("soil table: %w", ErrNoRows)
	}
	return New(stations, towns), nil
}

// ReadFile opens path and decodes it with read.
func ReadFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	rows, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}

// ReadGroundwaterRecords reads the station table. The first line is a title and is skipped,
// the second is the header. Rows with any blank cell are dropped.
func ReadGroundwaterRecords(r io.Reader) ([]GroundwaterRecord, error) {
	cr := newCSVReader(r)

	if _, err := cr.Read(); err != nil {
		return nil, fmt.Errorf("read title row: %w", err)
	}
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, ColStation, ColObservedRange)
	if err != nil {
		return nil, err
	}

	var out []GroundwaterRecord
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(row) < len(header) || hasBlank(row) {
			continue
		}
		out = append(out, GroundwaterRecord{
			Station:       row[idx[ColStation]],
			ObservedRange: row[idx[ColObservedRange]],
		})
	}
	return out, nil
}

// ParseStations converts raw rows into stations, discarding rows whose range does not parse.
func ParseStations(records []GroundwaterRecord) []location.Station {
	out := make([]location.Station, 0, len(records))
	for _, rec := range records {
		depth, ok := ParseDepthRange(rec.ObservedRange)
		if !ok {
			continue
		}
		out = append(out, location.Station{Name: BareStationName(rec.Station), Depth: depth})
	}
	return out
}

// ParseDepthRange parses "low - high" into its midpoint, or a single number as is.
func ParseDepthRange(s string) (float64, bool) {
	if lo, rest, ok := strings.Cut(s, " - "); ok {
		hi, _, _ := strings.Cut(rest, " - ")
		l, ok1 := parseNumber(lo)
		h, ok2 := parseNumber(hi)
		if !ok1 || !ok2 {
			return 0, false
		}
		return (l + h) / 2, true
	}
	return parseNumber(s)
}

// BareStationName strips numeric and piezometer suffixes from a station name.
func BareStationName(station string) string {
	return stationSuffix.ReplaceAllString(station, "")
}

// ReadSoil reads the town soil table. Rows with a blank town, an unparsable percentage,
// or a percentage outside [0, 100] are dropped.
func ReadSoil(r io.Reader) ([]location.Town, error) {
	cr := newCSVReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	idx, err := columnIndex(header, ColTown, ColSandy, ColLoamy, ColClayey, ColRocky)
	if err != nil {
		return nil, err
	}

	var out []location.Town
	for {
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read record: %w", err)
		}
		if len(row) < len(header) {
			continue
		}
		name := strings.TrimSpace(row[idx[ColTown]])
		if name == "" {
			continue
		}

		var pct [4]float64
		parsed := true
		for i, col := range []string{ColSandy, ColLoamy, ColClayey, ColRocky} {
			v, ok := parseNumber(row[idx[col]])
			if !ok {
				parsed = false
				break
			}
			pct[i] = v
		}
		if !parsed {
			continue
		}
		if town, ok := newTown(name, pct); ok {
			out = append(out, town)
		}
	}
	return out, nil
}

func newTown(name string, pct [4]float64) (location.Town, bool) {
	for _, v := range pct {
		if math.IsNaN(v) || v < 0 || v > 100 {
			return location.Town{}, false
		}
	}
	return location.Town{
		Name: name,
		Soil: location.Soil{Sandy: pct[0], Loamy: pct[1], Clayey: pct[2], Rocky: pct[3]},
	}, true
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	return cr
}

func columnIndex(header []string, names ...string) (map[string]int, error) {
	idx := make(map[string]int, len(names))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	out := make(map[string]int, len(names))
	for _, n := range names {
		i, ok := idx[n]
		if !ok {
			return nil, fmt.Errorf("missing column %q", n)
		}
		out[n] = i
	}
	return out, nil
}

func hasBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) == "" {
			return true
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
