// Package estimator holds the six fitted estimators behind two small interfaces
// and loads them from a parameter bundle.
package estimator

import (
	"errors"
	"fmt"

	"github.com/kailas-cloud/rwhplan/internal/domain/estimate"
	"github.com/kailas-cloud/rwhplan/internal/domain/feature"
)

// Classifier picks one structure type for a scaled feature vector.
type Classifier interface {
	Classify(x feature.Scaled) (estimate.StructureType, error)
}

// Regressor produces one scalar for a scaled feature vector.
type Regressor interface {
	Regress(x feature.Scaled) (float64, error)
}

// NetworkClassifier takes the arg-max over a network's output scores.
type NetworkClassifier struct {
	net    *Network
	labels []estimate.StructureType
}

// NewNetworkClassifier pairs a network with its label set, one label per output.
func NewNetworkClassifier(net *Network, labels []estimate.StructureType) (*NetworkClassifier, error) {
	if net == nil {
		return nil, errors.New("network is required")
	}
	if net.Inputs() != feature.Size {
		return nil, fmt.Errorf("classifier expects %d inputs, network takes %d", feature.Size, net.Inputs())
	}
	if len(labels) != net.Outputs() {
		return nil, fmt.Errorf("classifier has %d labels for %d outputs", len(labels), net.Outputs())
	}
	for _, l := range labels {
		if !l.IsValid() {
			return nil, fmt.Errorf("unknown structure type %q", l)
		}
	}
	return &NetworkClassifier{net: net, labels: append([]estimate.StructureType(nil), labels...)}, nil
}

// Classify returns the label with the highest score. Ties resolve to the earlier label.
func (c *NetworkClassifier) Classify(x feature.Scaled) (estimate.StructureType, error) {
	scores, err := c.net.Forward(x[:])
	if err != nil {
		return "", err
	}
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i] > scores[best] {
			best = i
		}
	}
	return c.labels[best], nil
}

// NetworkRegressor reads a single-output network as a scalar.
type NetworkRegressor struct {
	net *Network
}

// NewNetworkRegressor wraps a network with one output.
func NewNetworkRegressor(net *Network) (*NetworkRegressor, error) {
	if net == nil {
		return nil, errors.New("network is required")
	}
	if net.Inputs() != feature.Size {
		return nil, fmt.Errorf("regressor expects %d inputs, network takes %d", feature.Size, net.Inputs())
	}
	if net.Outputs() != 1 {
		return nil, fmt.Errorf("regressor needs 1 output, network has %d", net.Outputs())
	}
	return &NetworkRegressor{net: net}, nil
}

// Regress returns the network output.
func (r *NetworkRegressor) Regress(x feature.Scaled) (float64, error) {
	out, err := r.net.Forward(x[:])
	if err != nil {
		return 0, err
	}
	return out[0], nil
}
