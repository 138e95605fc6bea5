package reference

import (
	"errors"
	"testing"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(
		[]location.Station{
			{Name: "Erode", Depth: 6.25},
			{Name: "Bhavanisagar", Depth: 3.5},
			{Name: "Bhavani", Depth: 9},
			{Name: "Kodumudi", Depth: 12.25},
		},
		[]location.Town{
			{Name: "Erode", Soil: location.Soil{Sandy: 20, Loamy: 50, Clayey: 20, Rocky: 10}},
			{Name: "Gobichettipalayam", Soil: location.Soil{Sandy: 10, Loamy: 30, Clayey: 50, Rocky: 10}},
			{Name: "Bhavani", Soil: location.Soil{Sandy: 60, Loamy: 20, Clayey: 10, Rocky: 10}},
		},
	)
	if s.IsDegraded() {
		t.Fatalf("unexpected degraded store: %v", s.Cause())
	}
	return s
}

func TestGroundwaterDepthFor(t *testing.T) {
	s := newTestStore(t)

	tests := []struct {
		name   string
		query  string
		want   float64
		wantOK bool
	}{
		{"exact", "Erode", 6.25, true},
		{"case insensitive", "eRODE", 6.25, true},
		{"first match wins", "bhavani", 3.5, true},
		{"substring", "mudi", 12.25, true},
		{"not found", "Chennai", 0, false},
		{"regex metacharacters are literal", "Er.de", 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := s.GroundwaterDepthFor(tc.query)
			if ok != tc.wantOK || got != tc.want {
				t.Errorf("GroundwaterDepthFor(%q) = (%v, %v), want (%v, %v)", tc.query, got, ok, tc.want, tc.wantOK)
			}
		})
	}
}

func TestMeanGroundwaterDepth(t *testing.T) {
	s := newTestStore(t)
	got, ok := s.MeanGroundwaterDepth()
	if !ok {
		t.Fatal("expected mean depth")
	}
	if got != 7.75 {
		t.Errorf("expected 7.75, got %v", got)
	}
}

func TestSoilFor(t *testing.T) {
	s := newTestStore(t)

	soil, ok := s.SoilFor("gobi")
	if !ok {
		t.Fatal("expected substring match for gobi")
	}
	if soil.Clayey != 50 {
		t.Errorf("expected clayey 50, got %v", soil.Clayey)
	}

	if _, ok := s.SoilFor("Salem"); ok {
		t.Error("expected no match for Salem")
	}
}

func TestSoilForTown_ExactOnly(t *testing.T) {
	s := newTestStore(t)

	if _, ok := s.SoilForTown("Erode"); !ok {
		t.Error("expected exact match for Erode")
	}
	if _, ok := s.SoilForTown("erode"); ok {
		t.Error("expected exact lookup to be case sensitive")
	}
	if _, ok := s.SoilForTown("Ero"); ok {
		t.Error("expected exact lookup to reject substrings")
	}
}

func TestNew_EmptyTablesDegrade(t *testing.T) {
	towns := []location.Town{{Name: "Erode"}}
	stations := []location.Station{{Name: "Erode", Depth: 4}}

	tests := []struct {
		name     string
		stations []location.Station
		towns    []location.Town
	}{
		{"no stations", nil, towns},
		{"no towns", stations, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := New(tc.stations, tc.towns)
			if !s.IsDegraded() {
				t.Fatal("expected degraded store")
			}
			if !errors.Is(s.Cause(), ErrNoRows) {
				t.Errorf("expected ErrNoRows cause, got %v", s.Cause())
			}
		})
	}
}

func TestDegradedStore_LookupsMiss(t *testing.T) {
	s := NewDegraded(nil)

	if !s.IsDegraded() || s.Cause() == nil {
		t.Fatal("expected degraded store with a cause")
	}
	if _, ok := s.GroundwaterDepthFor("Erode"); ok {
		t.Error("expected miss on groundwater lookup")
	}
	if _, ok := s.MeanGroundwaterDepth(); ok {
		t.Error("expected miss on mean depth")
	}
	if _, ok := s.SoilFor("Erode"); ok {
		t.Error("expected miss on soil lookup")
	}
	if _, ok := s.SoilForTown("Erode"); ok {
		t.Error("expected miss on exact soil lookup")
	}
	if len(s.Towns()) != 0 || s.StationCount() != 0 {
		t.Error("expected empty tables")
	}
}

func TestStations_ReturnsCopy(t *testing.T) {
	s := newTestStore(t)
	st := s.Stations()
	st[0].Depth = 100

	got, _ := s.GroundwaterDepthFor("Erode")
	if got != 6.25 {
		t.Errorf("store mutated through Stations(): %v", got)
	}
	if s.TownCount() != 3 {
		t.Errorf("expected 3 towns, got %d", s.TownCount())
	}
}
