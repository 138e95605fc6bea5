package reference

import (
	"errors"
	"fmt"
	"strings"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// ErrNoRows signals that a reference table produced no usable rows.
var ErrNoRows = errors.New("no usable rows")

type stationEntry struct {
	station location.Station
	lower   string
}

type townEntry struct {
	town  location.Town
	lower string
}

// Store holds the groundwater and soil reference tables. Read-only after construction,
// safe for concurrent use. A degraded store reports every lookup as not found.
type Store struct {
	stations  []stationEntry
	towns     []townEntry
	meanDepth float64
	cause     error
}

// New builds a store from parsed tables. Table order is kept: lookups return the first match.
// Empty tables produce a degraded store.
func New(stations []location.Station, towns []location.Town) *Store {
	if len(stations) == 0 {
		return NewDegraded(fmt.Errorf("groundwater table: %w", ErrNoRows))
	}
	if len(towns) == 0 {
		return NewDegraded(fmt.Errorf("soil table: %w", ErrNoRows))
	}

	s := &Store{
		stations: make([]stationEntry, len(stations)),
		towns:    make([]townEntry, len(towns)),
	}
	var sum float64
	for i, st := range stations {
		s.stations[i] = stationEntry{station: st, lower: strings.ToLower(st.Name)}
		sum += st.Depth
	}
	s.meanDepth = sum / float64(len(stations))
	for i, t := range towns {
		s.towns[i] = townEntry{town: t, lower: strings.ToLower(t.Name)}
	}
	return s
}

// NewDegraded creates a store that has no reference data.
func NewDegraded(cause error) *Store {
	if cause == nil {
		cause = errors.New("reference data not loaded")
	}
	return &Store{cause: cause}
}

// IsDegraded reports whether reference data failed to load.
func (s *Store) IsDegraded() bool { return s.cause != nil }

// Cause returns the load failure of a degraded store.
func (s *Store) Cause() error { return s.cause }

// GroundwaterDepthFor returns the depth of the first station whose bare name contains name,
// compared case-insensitively.
func (s *Store) GroundwaterDepthFor(name string) (float64, bool) {
	if s.IsDegraded() {
		return 0, false
	}
	needle := strings.ToLower(name)
	for _, e := range s.stations {
		if strings.Contains(e.lower, needle) {
			return e.station.Depth, true
		}
	}
	return 0, false
}

// MeanGroundwaterDepth returns the mean depth over all loaded stations.
func (s *Store) MeanGroundwaterDepth() (float64, bool) {
	if s.IsDegraded() {
		return 0, false
	}
	return s.meanDepth, true
}

// SoilFor returns the soil of the first town whose name contains name, compared case-insensitively.
func (s *Store) SoilFor(name string) (location.Soil, bool) {
	if s.IsDegraded() {
		return location.Soil{}, false
	}
	needle := strings.ToLower(name)
	for _, e := range s.towns {
		if strings.Contains(e.lower, needle) {
			return e.town.Soil, true
		}
	}
	return location.Soil{}, false
}

// SoilForTown returns the soil of the town named exactly town.
func (s *Store) SoilForTown(town string) (location.Soil, bool) {
	if s.IsDegraded() {
		return location.Soil{}, false
	}
	for _, e := range s.towns {
		if e.town.Name == town {
			return e.town.Soil, true
		}
	}
	return location.Soil{}, false
}

// Towns lists town names in table order.
func (s *Store) Towns() []string {
	out := make([]string, len(s.towns))
	for i, e := range s.towns {
		out[i] = e.town.Name
	}
	return out
}

// Stations returns a copy of the station table.
func (s *Store) Stations() []location.Station {
	out := make([]location.Station, len(s.stations))
	for i, e := range s.stations {
		out[i] = e.station
	}
	return out
}

// StationCount returns the number of loaded stations.
func (s *Store) StationCount() int { return len(s.stations) }

// TownCount returns the number of loaded towns.
func (s *Store) TownCount() int { return len(s.towns) }
