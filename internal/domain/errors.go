package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrServiceUnavailable signals that estimators were not initialised.
	ErrServiceUnavailable = errors.New("service unavailable")
	// ErrPrecondition signals out-of-contract prediction inputs.
	ErrPrecondition = errors.New("precondition violated")
	// ErrInvalidBundle signals a malformed estimator bundle.
	ErrInvalidBundle = errors.New("invalid estimator bundle")
)

// EstimatorError wraps a failure of a single named estimator.
type EstimatorError struct {
	Target string
	Err    error
}

func (e *EstimatorError) Error() string {
	return fmt.Sprintf("estimator %s: %s", e.Target, e.Err.Error())
}

func (e *EstimatorError) Unwrap() error { return e.Err }

// NewEstimatorError creates an estimator failure for target.
func NewEstimatorError(target string, err error) error {
	return &EstimatorError{Target: target, Err: err}
}
