package reference

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const groundwaterCSV = `Groundwater Level Observations - Erode District
S.No,Station,Observed Range of Water Level,Remarks
1,Erode_1,5.5 - 7,ok
2,BhavaniPz,9,ok
3,Kodumudi_Pz,,missing
4,Perundurai_2,abc,bad
5,Sathyamangalam_12,12.5 - 13.5,
6,Talavadi_3,16 - 20,deep
`

const soilCSV = `Town,Sandy Soil (%),Loamy Soil (%),Clayey Soil (%),Rocky/Hard Soil (%)
Erode,20,50,20,10
Bhavani,60,20,10,10
,10,10,10,70
Gobichettipalayam,n/a,30,50,10
Anthiyur,150,0,0,0
Sathyamangalam,15,25,35,25
`

func TestParseDepthRange(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"5.5 - 7", 6.25, true},
		{"9", 9, true},
		{" 3.25 ", 3.25, true},
		{"1 - 2 - 9", 1.5, true},
		{"5-7", 0, false},
		{"abc", 0, false},
		{"1 - x", 0, false},
		{"NaN", 0, false},
		{"", 0, false},
	}
	for _, tc := range tests {
		got, ok := ParseDepthRange(tc.in)
		if ok != tc.wantOK || got != tc.want {
			t.Errorf("ParseDepthRange(%q) = (%v, %v), want (%v, %v)", tc.in, got, ok, tc.want, tc.wantOK)
		}
	}
}

func TestBareStationName(t *testing.T) {
	tests := map[string]string{
		"Erode_1":     "Erode",
		"BhavaniPz":   "Bhavani",
		"Kodumudi_Pz": "Kodumudi",
		"Talavadi_12": "Talavadi",
		"Anthiyur":    "Anthiyur",
	}
	for in, want := range tests {
		if got := BareStationName(in); got != want {
			t.Errorf("BareStationName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReadGroundwaterRecords(t *testing.T) {
	records, err := ReadGroundwaterRecords(strings.NewReader(groundwaterCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Kodumudi and Sathyamangalam have blank cells.
	if len(records) != 4 {
		t.Fatalf("expected 4 records, got %d: %+v", len(records), records)
	}

	stations := ParseStations(records)
	// Perundurai has an unparsable range.
	if len(stations) != 3 {
		t.Fatalf("expected 3 stations, got %d: %+v", len(stations), stations)
	}
	want := []struct {
		name  string
		depth float64
	}{{"Erode", 6.25}, {"Bhavani", 9}, {"Talavadi", 18}}
	for i, w := range want {
		if stations[i].Name != w.name || stations[i].Depth != w.depth {
			t.Errorf("station %d = %+v, want %s/%v", i, stations[i], w.name, w.depth)
		}
	}
}

func TestReadGroundwaterRecords_MissingColumn(t *testing.T) {
	_, err := ReadGroundwaterRecords(strings.NewReader("title\nStation,Depth\nErode,5\n"))
	if err == nil {
		t.Fatal("expected error for missing range column")
	}
}

func TestReadSoil(t *testing.T) {
	towns, err := ReadSoil(strings.NewReader(soilCSV))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(towns) != 3 {
		t.Fatalf("expected 3 towns, got %d: %+v", len(towns), towns)
	}
	names := []string{towns[0].Name, towns[1].Name, towns[2].Name}
	if strings.Join(names, ",") != "Erode,Bhavani,Sathyamangalam" {
		t.Errorf("unexpected towns: %v", names)
	}
	if towns[1].Soil.Sandy != 60 || towns[1].Soil.Rocky != 10 {
		t.Errorf("unexpected Bhavani soil: %+v", towns[1].Soil)
	}
}

func TestLoadCSV(t *testing.T) {
	dir := t.TempDir()
	gw := filepath.Join(dir, "groundwater.csv")
	soil := filepath.Join(dir, "soil.csv")
	if err := os.WriteFile(gw, []byte(groundwaterCSV), 0o600); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(soil, []byte(soilCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	s, err := LoadCSV(gw, soil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.StationCount() != 3 || s.TownCount() != 3 {
		t.Errorf("unexpected counts: stations=%d towns=%d", s.StationCount(), s.TownCount())
	}
	if d, ok := s.GroundwaterDepthFor("erode"); !ok || d != 6.25 {
		t.Errorf("expected Erode depth 6.25, got %v/%v", d, ok)
	}
}

func TestLoadCSV_Errors(t *testing.T) {
	dir := t.TempDir()
	soil := filepath.Join(dir, "soil.csv")
	if err := os.WriteFile(soil, []byte(soilCSV), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadCSV(filepath.Join(dir, "missing.csv"), soil); err == nil {
		t.Error("expected error for missing groundwater file")
	}

	empty := filepath.Join(dir, "empty.csv")
	content := "title\nStation,Observed Range of Water Level\nErode,\n"
	if err := os.WriteFile(empty, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	_, err := LoadCSV(empty, soil)
	if !errors.Is(err, ErrNoRows) {
		t.Errorf("expected ErrNoRows, got %v", err)
	}
}
