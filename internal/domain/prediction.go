package domain

import (
	"context"
	"strings"

	"github.com/kailas-cloud/rwhplan/internal/domain/assessment"
	"github.com/kailas-cloud/rwhplan/internal/domain/location"
)

// Predictor is the shared prediction contract between layers.
type Predictor interface {
	Predict(ctx context.Context, req PredictionRequest) (assessment.Result, error)
}

// PredictionRequest carries the inputs of one prediction.
// Preconditions: RoofArea > 0, HouseholdSize > 0.
type PredictionRequest struct {
	RoofArea      float64
	HouseholdSize int
	Location      string
}

// Normalized trims the location and substitutes the default town when it is empty.
func (r PredictionRequest) Normalized() PredictionRequest {
	r.Location = strings.TrimSpace(r.Location)
	if r.Location == "" {
		r.Location = location.DefaultTown
	}
	return r
}
