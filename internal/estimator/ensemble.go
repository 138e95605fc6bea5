package estimator

import (
	"fmt"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
)

// Ensemble holds the structure classifier and the five regressors.
// Read-only after construction, safe for concurrent use.
type Ensemble struct {
	classifier Classifier
	regressors map[estimate.Target]Regressor
}

// NewEnsemble creates an ensemble. Missing estimators are allowed; such an ensemble
// is not Ready and refuses predictions.
func NewEnsemble(classifier Classifier, regressors map[estimate.Target]Regressor) *Ensemble {
	regs := make(map[estimate.Target]Regressor, len(estimate.RegressionTargets))
	for _, t := range estimate.RegressionTargets {
		if r, ok := regressors[t]; ok && r != nil {
			regs[t] = r
		}
	}
	return &Ensemble{classifier: classifier, regressors: regs}
}

// Loaded returns how many of the six estimators are present.
func (e *Ensemble) Loaded() int {
	if e == nil {
		return 0
	}
	n := len(e.regressors)
	if e.classifier != nil {
		n++
	}
	return n
}

// Ready reports whether all six estimators are present.
func (e *Ensemble) Ready() bool {
	return e.Loaded() == 1+len(estimate.RegressionTargets)
}

// PredictAll runs every estimator on x. Regression outputs are clamped to be non-negative.
// Partial results are never returned.
func (e *Ensemble) PredictAll(x feature.Scaled) (estimate.Raw, error) {
	if !e.Ready() {
		return estimate.Raw{}, fmt.Errorf("%d of 6 estimators loaded: %w", e.Loaded(), domain.ErrServiceUnavailable)
	}

	var raw estimate.Raw
	structure, err := e.classifier.Classify(x)
	if err != nil {
		return estimate.Raw{}, domain.NewEstimatorError(string(estimate.TargetStructureType), err)
	}
	if !structure.IsValid() {
		return estimate.Raw{}, domain.NewEstimatorError(string(estimate.TargetStructureType),
			fmt.Errorf("unknown structure type %q", structure))
	}
	raw.Structure = structure

	for _, t := range estimate.RegressionTargets {
		v, err := e.regressors[t].Regress(x)
		if err != nil {
			return estimate.Raw{}, domain.NewEstimatorError(string(t), err)
		}
		if err := raw.Set(t, v); err != nil {
			return estimate.Raw{}, domain.NewEstimatorError(string(t), err)
		}
	}
	return raw, nil
}
