package prediction

import (
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	uclocation "github.com/kailas-cloud/rwhplan/internal/usecase/location"
)

// Resolver maps a location name to a profile and reports fallbacks.
type Resolver interface {
	ResolveDetailed(name string) uclocation.Resolution
}

// Estimator runs the six estimators on a scaled vector.
type Estimator interface {
	Ready() bool
	PredictAll(x feature.Scaled) (estimate.Raw, error)
}

// Recorder receives prediction outcomes. Optional.
type Recorder interface {
	RecordPrediction(structure estimate.StructureType, feasibility assessment.Feasibility)
	RecordFallback(kind string)
	RecordEstimatorError(target string)
}
