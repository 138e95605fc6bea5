package estimator

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
	"github.com/kailas-cloud/rwhplan/internal/domain/synth"
)

func linearModel(weight, bias float64) string {
	w := strconv.FormatFloat(weight, 'g', -1, 64)
	rows := make([]string, feature.Size)
	for i := range rows {
		rows[i] = "[" + w + "]"
	}
	return "{layers: [{kernel: [" + strings.Join(rows, ", ") + "], bias: [" + strconv.FormatFloat(bias, 'g', -1, 64) + "]}]}"
}

const testBundleHead = `version: "test-1"
feature_columns: [roof_area, household_size, groundwater_depth, sandy_percentage, loamy_percentage, clayey_percentage, rocky_percentage]
scaler:
  mean: [0, 0, 0, 0, 0, 0, 0]
  scale: [1, 1, 1, 1, 1, 1, 1]
structure_types: [pit, trench, shaft]
`

func classifierModel() string {
	rows := make([]string, feature.Size)
	for i := range rows {
		rows[i] = "[0, 0, 0]"
	}
	return "{layers: [{kernel: [" + strings.Join(rows, ", ") + "], bias: [0, 0, 1], activation: softmax}]}"
}

func testBundle(skip string) string {
	var b strings.Builder
	b.WriteString(testBundleHead)
	b.WriteString("models:\n")
	if skip != string(estimate.TargetStructureType) {
		b.WriteString("  structure_type: " + classifierModel() + "\n")
	}
	for _, t := range estimate.RegressionTargets {
		if string(t) == skip {
			continue
		}
		b.WriteString("  " + string(t) + ": " + linearModel(0, -1) + "\n")
	}
	return b.String()
}

func TestParseBundle(t *testing.T) {
	b, err := ParseBundle([]byte(testBundle("")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Version != "test-1" {
		t.Errorf("expected version test-1, got %q", b.Version)
	}
	if !b.Ensemble.Ready() {
		t.Fatalf("expected ready ensemble, loaded %d", b.Ensemble.Loaded())
	}

	raw, err := b.Ensemble.PredictAll(feature.Scaled{})
	if err != nil {
		t.Fatalf("PredictAll: %v", err)
	}
	if raw.Structure != estimate.Shaft {
		t.Errorf("expected shaft, got %q", raw.Structure)
	}
	// Every regressor outputs -1, which is clamped.
	if raw.Volume != 0 || raw.Cost != 0 {
		t.Errorf("expected clamped outputs, got %+v", raw)
	}
}

func TestParseBundle_MissingModelNotReady(t *testing.T) {
	b, err := ParseBundle([]byte(testBundle(string(estimate.TargetCost))))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Ensemble.Ready() {
		t.Fatal("expected ensemble not ready")
	}
	if b.Ensemble.Loaded() != 5 {
		t.Errorf("expected 5 loaded, got %d", b.Ensemble.Loaded())
	}
	if _, err := b.Ensemble.PredictAll(feature.Scaled{}); !errors.Is(err, domain.ErrServiceUnavailable) {
		t.Errorf("expected ErrServiceUnavailable, got %v", err)
	}
}

func TestParseBundle_Invalid(t *testing.T) {
	valid := testBundle("")
	tests := []struct {
		name string
		data string
	}{
		{"not yaml", "{{{"},
		{"wrong column order", strings.Replace(valid, "roof_area, household_size", "household_size, roof_area", 1)},
		{"short scaler", strings.Replace(valid, "mean: [0, 0, 0, 0, 0, 0, 0]", "mean: [0, 0]", 1)},
		{"negative scale", strings.Replace(valid, "scale: [1, 1, 1, 1, 1, 1, 1]", "scale: [1, 1, 1, 1, 1, 1, -1]", 1)},
		{"unknown label", strings.Replace(valid, "[pit, trench, shaft]", "[pit, trench, well]", 1)},
		{"label count", strings.Replace(valid, "[pit, trench, shaft]", "[pit, trench]", 1)},
		{"unknown model", valid + "  depth_to_rock: " + linearModel(1, 0) + "\n"},
		{"bad activation", strings.Replace(valid, "activation: softmax", "activation: tanh", 1)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseBundle([]byte(tc.data))
			if !errors.Is(err, domain.ErrInvalidBundle) {
				t.Errorf("expected ErrInvalidBundle, got %v", err)
			}
		})
	}
}

func TestParseBundle_JSON(t *testing.T) {
	data := `{"version": "json-1", ` +
		`"feature_columns": ["roof_area", "household_size", "groundwater_depth", ` +
		`"sandy_percentage", "loamy_percentage", "clayey_percentage", "rocky_percentage"], ` +
		`"scaler": {"mean": [0,0,0,0,0,0,0], "scale": [0,0,0,0,0,0,0]}}`

	b, err := ParseBundle([]byte(data))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.Version != "json-1" || b.Ensemble.Loaded() != 0 {
		t.Errorf("unexpected bundle: version %q loaded %d", b.Version, b.Ensemble.Loaded())
	}
}

func TestLoadBundle_RoundTripFromFit(t *testing.T) {
	stations := []location.Station{{Name: "Bhavani", Depth: 2}, {Name: "Erode", Depth: 6}, {Name: "Talavadi", Depth: 18}}
	soils := fixedSoils{soil: location.Soil{Sandy: 20, Loamy: 50, Clayey: 20, Rocky: 10}}
	g, err := synth.NewGenerator(stations, soils, 7)
	if err != nil {
		t.Fatal(err)
	}
	spec, err := FitLinear(g.Generate(300), "fit-1", DefaultRidge)
	if err != nil {
		t.Fatalf("FitLinear: %v", err)
	}
	data, err := spec.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	path := filepath.Join(t.TempDir(), "bundle.yaml")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}

	b, err := LoadBundle(path)
	if err != nil {
		t.Fatalf("LoadBundle: %v", err)
	}
	if b.Version != "fit-1" || !b.Ensemble.Ready() {
		t.Fatalf("unexpected bundle: version %q loaded %d", b.Version, b.Ensemble.Loaded())
	}
}

func TestLoadBundle_MissingFile(t *testing.T) {
	if _, err := LoadBundle(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error")
	}
}
