package prediction

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/rwhplan/internal/domain"
	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
	"github.com/kailas-cloud/rwhplan/internal/logger"
)

// Service runs the prediction pipeline: resolve location, assemble and scale features,
// run the estimators, derive the result. Safe for concurrent use.
type Service struct {
	resolver  Resolver
	scaler    feature.Scaler
	estimator Estimator
	recorder  Recorder
}

// New creates a prediction service. estimator may be nil, in which case every
// prediction fails with domain.ErrServiceUnavailable.
func New(resolver Resolver, scaler feature.Scaler, estimator Estimator) *Service {
	return &Service{resolver: resolver, scaler: scaler, estimator: estimator}
}

// WithRecorder sets an outcome recorder.
func (s *Service) WithRecorder(r Recorder) *Service {
	s.recorder = r
	return s
}

// Ready reports whether predictions can be served.
func (s *Service) Ready() bool {
	return s.estimator != nil && s.estimator.Ready()
}

// Predict runs the pipeline for one request.
func (s *Service) Predict(ctx context.Context, req domain.PredictionRequest) (assessment.Result, error) {
	if req.RoofArea <= 0 {
		return assessment.Result{}, fmt.Errorf("%w: roof area must be positive, got %v", domain.ErrPrecondition, req.RoofArea)
	}
	if req.HouseholdSize <= 0 {
		return assessment.Result{}, fmt.Errorf("%w: household size must be positive, got %d",
			domain.ErrPrecondition, req.HouseholdSize)
	}
	if !s.Ready() {
		return assessment.Result{}, fmt.Errorf("estimators not initialised: %w", domain.ErrServiceUnavailable)
	}

	req = req.Normalized()
	ctx = logger.WithFields(ctx, zap.String("location", req.Location))
	log := logger.FromContext(ctx)

	res := s.resolver.ResolveDetailed(req.Location)
	for _, fb := range res.Fallbacks {
		log.Debug("Location fallback", zap.String("fallback", string(fb)))
		if s.recorder != nil {
			s.recorder.RecordFallback(string(fb))
		}
	}

	x := s.scaler.Transform(feature.Assemble(req.RoofArea, req.HouseholdSize, res.Profile))

	raw, err := s.estimator.PredictAll(x)
	if err != nil {
		var estErr *domain.EstimatorError
		if errors.As(err, &estErr) {
			log.Error("Estimator failed", zap.String("estimator", estErr.Target), zap.Error(estErr.Err))
			if s.recorder != nil {
				s.recorder.RecordEstimatorError(estErr.Target)
			}
		}
		return assessment.Result{}, fmt.Errorf("predict: %w", err)
	}

	result := assessment.Derive(raw, res.Profile, req.RoofArea)
	if s.recorder != nil {
		s.recorder.RecordPrediction(result.RecommendedStructure, result.Feasibility)
	}
	return result, nil
}
