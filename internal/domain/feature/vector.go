// Package feature builds the fixed-order numeric input shared by the scaler and every estimator.
package feature

import (
	"fmt"
	"math"

	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Size is the length of every feature vector.
const Size = 7

// Columns names the features in vector order. Reordering silently corrupts predictions.
var Columns = [Size]string{
	"roof_area",
	"household_size",
	"groundwater_depth",
	"sandy_percentage",
	"loamy_percentage",
	"clayey_percentage",
	"rocky_percentage",
}

// Vector is an unscaled feature vector.
type Vector [Size]float64

// Scaled is a feature vector after standardization.
type Scaled [Size]float64

// Assemble builds the feature vector for one request.
// Preconditions (not checked): roofArea > 0, householdSize > 0.
func Assemble(roofArea float64, householdSize int, p location.Profile) Vector {
	soil := p.Soil()
	return Vector{
		roofArea,
		float64(householdSize),
		p.GroundwaterDepth(),
		soil.Sandy,
		soil.Loamy,
		soil.Clayey,
		soil.Rocky,
	}
}

// CheckColumns verifies that names matches Columns exactly.
func CheckColumns(names []string) error {
	if len(names) != Size {
		return fmt.Errorf("expected %d feature columns, got %d", Size, len(names))
	}
	for i, n := range names {
		if n != Columns[i] {
			return fmt.Errorf("feature column %d: expected %q, got %q", i, Columns[i], n)
		}
	}
	return nil
}

// Scaler applies the per-feature standardization fitted alongside the estimators.
type Scaler struct {
	mean  Vector
	scale Vector
}

// NewScaler creates a scaler from fitted means and standard deviations.
func NewScaler(mean, scale []float64) (Scaler, error) {
	if len(mean) != Size || len(scale) != Size {
		return Scaler{}, fmt.Errorf("scaler needs %d means and scales, got %d and %d", Size, len(mean), len(scale))
	}
	var s Scaler
	for i := range Size {
		if math.IsNaN(mean[i]) || math.IsInf(mean[i], 0) {
			return Scaler{}, fmt.Errorf("scaler mean %s is not finite", Columns[i])
		}
		if math.IsNaN(scale[i]) || math.IsInf(scale[i], 0) || scale[i] < 0 {
			return Scaler{}, fmt.Errorf("scaler scale %s must be finite and non-negative", Columns[i])
		}
		s.mean[i] = mean[i]
		s.scale[i] = scale[i]
	}
	return s, nil
}

// Transform standardizes v as (x - mean) / scale. A zero scale (constant column) divides by 1.
func (s Scaler) Transform(v Vector) Scaled {
	var out Scaled
	for i, x := range v {
		sc := s.scale[i]
		if sc == 0 {
			sc = 1
		}
		out[i] = (x - s.mean[i]) / sc
	}
	return out
}
