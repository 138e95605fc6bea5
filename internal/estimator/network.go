package estimator

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Activation is a layer's output nonlinearity.
type Activation string

// Supported activations.
const (
	Linear  Activation = "linear"
	ReLU    Activation = "relu"
	Softmax Activation = "softmax"
)

// IsValid checks if the activation is supported.
func (a Activation) IsValid() bool {
	return a == Linear || a == ReLU || a == Softmax
}

// Layer is a dense layer: y = act(kernelᵀ·x + bias). The kernel has shape inputs×outputs.
type Layer struct {
	kernel     *mat.Dense
	bias       *mat.VecDense
	activation Activation
}

// NewLayer builds a layer from row-major kernel rows (one row per input) and a bias per output.
func NewLayer(kernel [][]float64, bias []float64, activation Activation) (Layer, error) {
	if !activation.IsValid() {
		return Layer{}, fmt.Errorf("unknown activation %q", activation)
	}
	if len(kernel) == 0 {
		return Layer{}, errors.New("kernel has no rows")
	}
	outputs := len(kernel[0])
	if outputs == 0 {
		return Layer{}, errors.New("kernel has no columns")
	}
	if len(bias) != outputs {
		return Layer{}, fmt.Errorf("bias has %d values, kernel has %d outputs", len(bias), outputs)
	}

	data := make([]float64, 0, len(kernel)*outputs)
	for i, row := range kernel {
		if len(row) != outputs {
			return Layer{}, fmt.Errorf("kernel row %d has %d columns, expected %d", i, len(row), outputs)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return Layer{}, fmt.Errorf("kernel row %d holds a non-finite weight", i)
			}
		}
		data = append(data, row...)
	}
	for _, v := range bias {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Layer{}, errors.New("bias holds a non-finite value")
		}
	}

	return Layer{
		kernel:     mat.NewDense(len(kernel), outputs, data),
		bias:       mat.NewVecDense(outputs, append([]float64(nil), bias...)),
		activation: activation,
	}, nil
}

// Inputs returns the layer input width.
func (l Layer) Inputs() int {
	r, _ := l.kernel.Dims()
	return r
}

// Outputs returns the layer output width.
func (l Layer) Outputs() int {
	_, c := l.kernel.Dims()
	return c
}

func (l Layer) forward(x *mat.VecDense) *mat.VecDense {
	y := mat.NewVecDense(l.Outputs(), nil)
	y.MulVec(l.kernel.T(), x)
	y.AddVec(y, l.bias)

	switch l.activation {
	case ReLU:
		for i := range y.Len() {
			if y.AtVec(i) < 0 {
				y.SetVec(i, 0)
			}
		}
	case Softmax:
		softmax(y)
	}
	return y
}

func softmax(v *mat.VecDense) {
	top := mat.Max(v)
	var sum float64
	for i := range v.Len() {
		e := math.Exp(v.AtVec(i) - top)
		v.SetVec(i, e)
		sum += e
	}
	v.ScaleVec(1/sum, v)
}

// Network is a feed-forward stack of dense layers. Read-only after construction,
// safe for concurrent use.
type Network struct {
	layers []Layer
}

// NewNetwork validates that consecutive layers chain.
func NewNetwork(layers ...Layer) (*Network, error) {
	if len(layers) == 0 {
		return nil, errors.New("network has no layers")
	}
	for i := 1; i < len(layers); i++ {
		if layers[i].Inputs() != layers[i-1].Outputs() {
			return nil, fmt.Errorf("layer %d expects %d inputs, layer %d produces %d",
				i, layers[i].Inputs(), i-1, layers[i-1].Outputs())
		}
	}
	return &Network{layers: layers}, nil
}

// Inputs returns the network input width.
func (n *Network) Inputs() int { return n.layers[0].Inputs() }

// Outputs returns the network output width.
func (n *Network) Outputs() int { return n.layers[len(n.layers)-1].Outputs() }

// Forward runs the network on x.
func (n *Network) Forward(x []float64) ([]float64, error) {
	if len(x) != n.Inputs() {
		return nil, fmt.Errorf("network expects %d inputs, got %d", n.Inputs(), len(x))
	}
	v := mat.NewVecDense(len(x), append([]float64(nil), x...))
	for _, l := range n.layers {
		v = l.forward(v)
	}
	return v.RawVector().Data, nil
}
