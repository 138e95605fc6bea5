package estimator

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
)

// BundleSpec is the on-disk form of the fitted parameters. YAML or JSON.
type BundleSpec struct {
	Version        string               `yaml:"version" json:"version"`
	FeatureColumns []string             `yaml:"feature_columns" json:"feature_columns"`
	Scaler         ScalerSpec           `yaml:"scaler" json:"scaler"`
	StructureTypes []string             `yaml:"structure_types" json:"structure_types"`
	Models         map[string]ModelSpec `yaml:"models" json:"models"`
}

// ScalerSpec holds the per-feature standardization.
type ScalerSpec struct {
	Mean  []float64 `yaml:"mean" json:"mean"`
	Scale []float64 `yaml:"scale" json:"scale"`
}

// ModelSpec is one network.
type ModelSpec struct {
	Layers []LayerSpec `yaml:"layers" json:"layers"`
}

// LayerSpec is one dense layer. Kernel rows are inputs, columns are outputs.
type LayerSpec struct {
	Kernel     [][]float64 `yaml:"kernel" json:"kernel"`
	Bias       []float64   `yaml:"bias" json:"bias"`
	Activation Activation  `yaml:"activation" json:"activation"`
}

// Bundle is a loaded parameter set.
type Bundle struct {
	Version  string
	Scaler   feature.Scaler
	Ensemble *Ensemble
}

// LoadBundle reads and builds a bundle from path.
func LoadBundle(path string) (*Bundle, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read bundle %s: %w", path, err)
	}
	return ParseBundle(data)
}

// ParseBundle decodes and builds a bundle.
func ParseBundle(data []byte) (*Bundle, error) {
	var spec BundleSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("%w: decode: %w", domain.ErrInvalidBundle, err)
	}
	return spec.Build()
}

// Marshal encodes the spec as YAML.
func (s *BundleSpec) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode bundle: %w", err)
	}
	return data, nil
}

// Build validates the spec and constructs the scaler and ensemble.
// Models absent from the spec leave the ensemble not Ready; malformed models fail.
func (s *BundleSpec) Build() (*Bundle, error) {
	if err := feature.CheckColumns(s.FeatureColumns); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBundle, err)
	}
	scaler, err := feature.NewScaler(s.Scaler.Mean, s.Scaler.Scale)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBundle, err)
	}

	known := []string{string(estimate.TargetStructureType)}
	for _, t := range estimate.RegressionTargets {
		known = append(known, string(t))
	}
	for name := range s.Models {
		if !slices.Contains(known, name) {
			return nil, fmt.Errorf("%w: unknown model %q", domain.ErrInvalidBundle, name)
		}
	}

	var classifier Classifier
	if m, ok := s.Models[string(estimate.TargetStructureType)]; ok {
		labels := make([]estimate.StructureType, 0, len(s.StructureTypes))
		for _, l := range s.StructureTypes {
			t, err := estimate.ParseStructureType(l)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", domain.ErrInvalidBundle, err)
			}
			labels = append(labels, t)
		}
		net, err := m.network()
		if err != nil {
			return nil, fmt.Errorf("%w: model %s: %w", domain.ErrInvalidBundle, estimate.TargetStructureType, err)
		}
		c, err := NewNetworkClassifier(net, labels)
		if err != nil {
			return nil, fmt.Errorf("%w: model %s: %w", domain.ErrInvalidBundle, estimate.TargetStructureType, err)
		}
		classifier = c
	}

	regressors := make(map[estimate.Target]Regressor, len(estimate.RegressionTargets))
	for _, t := range estimate.RegressionTargets {
		m, ok := s.Models[string(t)]
		if !ok {
			continue
		}
		net, err := m.network()
		if err != nil {
			return nil, fmt.Errorf("%w: model %s: %w", domain.ErrInvalidBundle, t, err)
		}
		r, err := NewNetworkRegressor(net)
		if err != nil {
			return nil, fmt.Errorf("%w: model %s: %w", domain.ErrInvalidBundle, t, err)
		}
		regressors[t] = r
	}

	return &Bundle{
		Version:  s.Version,
		Scaler:   scaler,
		Ensemble: NewEnsemble(classifier, regressors),
	}, nil
}

func (m ModelSpec) network() (*Network, error) {
	layers := make([]Layer, 0, len(m.Layers))
	for i, ls := range m.Layers {
		act := ls.Activation
		if act == "" {
			act = Linear
		}
		l, err := NewLayer(ls.Kernel, ls.Bias, act)
		if err != nil {
			return nil, fmt.Errorf("layer %d: %w", i, err)
		}
		layers = append(layers, l)
	}
	return NewNetwork(layers...)
}
