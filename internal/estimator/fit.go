package estimator

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
	"github.com/kailas-cloud/rwhplan/internal/domain/synth"
)

// DefaultRidge is the L2 penalty used by FitLinear. Soil percentages are nearly
// collinear with the intercept, so the normal equations need it to stay solvable.
const DefaultRidge = 1e-3

// labelOrder is the classifier output order written by FitLinear.
var labelOrder = []estimate.StructureType{estimate.Pit, estimate.Trench, estimate.Shaft}

// FitLinear fits a baseline bundle on generated samples: a standard scaler, a linear
// one-vs-rest classifier with softmax scores, and one ridge regressor per scalar target.
func FitLinear(samples []synth.Sample, version string, lambda float64) (*BundleSpec, error) {
	n := len(samples)
	if n <= feature.Size {
		return nil, fmt.Errorf("need more than %d samples, got %d", feature.Size, n)
	}

	vectors := make([]feature.Vector, n)
	for i, s := range samples {
		vectors[i] = feature.Assemble(s.RoofArea, s.HouseholdSize, location.NewProfile(s.GroundwaterDepth, s.Soil))
	}

	mean := make([]float64, feature.Size)
	scale := make([]float64, feature.Size)
	col := make([]float64, n)
	for j := range feature.Size {
		for i := range vectors {
			col[i] = vectors[i][j]
		}
		mean[j], scale[j] = stat.PopMeanStdDev(col, nil)
	}
	scaler, err := feature.NewScaler(mean, scale)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}

	x := mat.NewDense(n, feature.Size+1, nil)
	for i, v := range vectors {
		for j, f := range scaler.Transform(v) {
			x.Set(i, j, f)
		}
		x.Set(i, feature.Size, 1)
	}

	classes := len(labelOrder)
	y := mat.NewDense(n, classes+len(estimate.RegressionTargets), nil)
	for i, s := range samples {
		for k, l := range labelOrder {
			if s.Structure == l {
				y.Set(i, k, 1)
			}
		}
		for k, v := range []float64{s.PitDepth, s.PitLength, s.PitWidth, s.Volume, s.Cost} {
			y.Set(i, classes+k, v)
		}
	}

	w, err := ridge(x, y, lambda)
	if err != nil {
		return nil, err
	}

	labels := make([]string, classes)
	for i, l := range labelOrder {
		labels[i] = string(l)
	}
	spec := &BundleSpec{
		Version:        version,
		FeatureColumns: feature.Columns[:],
		Scaler:         ScalerSpec{Mean: mean, Scale: scale},
		StructureTypes: labels,
		Models: map[string]ModelSpec{
			string(estimate.TargetStructureType): {Layers: []LayerSpec{layerSpec(w, 0, classes, Softmax)}},
		},
	}
	for k, t := range estimate.RegressionTargets {
		spec.Models[string(t)] = ModelSpec{Layers: []LayerSpec{layerSpec(w, classes+k, classes+k+1, Linear)}}
	}
	return spec, nil
}

// ridge solves (XᵀX + λI)·W = XᵀY.
func ridge(x, y *mat.Dense, lambda float64) (*mat.Dense, error) {
	_, p := x.Dims()

	var a mat.Dense
	a.Mul(x.T(), x)
	for i := range p {
		a.Set(i, i, a.At(i, i)+lambda)
	}

	var b mat.Dense
	b.Mul(x.T(), y)

	var w mat.Dense
	if err := w.Solve(&a, &b); err != nil {
		return nil, fmt.Errorf("solve normal equations: %w", err)
	}
	return &w, nil
}

// layerSpec cuts columns [from, to) out of a weight matrix whose last row is the intercept.
func layerSpec(w *mat.Dense, from, to int, act Activation) LayerSpec {
	kernel := make([][]float64, feature.Size)
	for j := range feature.Size {
		row := make([]float64, 0, to-from)
		for k := from; k < to; k++ {
			row = append(row, w.At(j, k))
		}
		kernel[j] = row
	}
	bias := make([]float64, 0, to-from)
	for k := from; k < to; k++ {
		bias = append(bias, w.At(feature.Size, k))
	}
	return LayerSpec{Kernel: kernel, Bias: bias, Activation: act}
}
