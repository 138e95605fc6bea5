package estimator

import (
	"math"
	"testing"
)

func mustLayer(t *testing.T, kernel [][]float64, bias []float64, act Activation) Layer {
	t.Helper()
	l, err := NewLayer(kernel, bias, act)
	if err != nil {
		t.Fatalf("NewLayer: %v", err)
	}
	return l
}

func TestNewLayer_Validation(t *testing.T) {
	tests := []struct {
		name   string
		kernel [][]float64
		bias   []float64
		act    Activation
	}{
		{"unknown activation", [][]float64{{1}}, []float64{0}, "tanh"},
		{"empty kernel", nil, nil, Linear},
		{"empty row", [][]float64{{}}, nil, Linear},
		{"bias mismatch", [][]float64{{1, 2}}, []float64{0}, Linear},
		{"ragged kernel", [][]float64{{1, 2}, {3}}, []float64{0, 0}, Linear},
		{"nan weight", [][]float64{{math.NaN()}}, []float64{0}, Linear},
		{"inf bias", [][]float64{{1}}, []float64{math.Inf(1)}, Linear},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewLayer(tc.kernel, tc.bias, tc.act); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNetwork_Forward(t *testing.T) {
	// 2 inputs -> 2 hidden (relu) -> 1 output (linear)
	hidden := mustLayer(t, [][]float64{{1, -1}, {2, 1}}, []float64{0, 0.5}, ReLU)
	out := mustLayer(t, [][]float64{{1}, {10}}, []float64{0.25}, Linear)

	net, err := NewNetwork(hidden, out)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	if net.Inputs() != 2 || net.Outputs() != 1 {
		t.Fatalf("unexpected dims %d -> %d", net.Inputs(), net.Outputs())
	}

	// hidden = relu([1*1 + 2*3, -1*1 + 1*3 + 0.5]) = [7, 2.5]
	// out = 7*1 + 2.5*10 + 0.25 = 32.25
	got, err := net.Forward([]float64{1, 3})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	if len(got) != 1 || math.Abs(got[0]-32.25) > 1e-12 {
		t.Errorf("expected [32.25], got %v", got)
	}

	// relu clamps the first hidden unit: [max(0, -3+2), 3+1+0.5] = [0, 4.5] -> 45.25
	got, _ = net.Forward([]float64{-3, 1})
	if math.Abs(got[0]-45.25) > 1e-12 {
		t.Errorf("expected 45.25, got %v", got[0])
	}
}

func TestNetwork_Softmax(t *testing.T) {
	l := mustLayer(t, [][]float64{{1, 2, 3}}, []float64{0, 0, 0}, Softmax)
	net, err := NewNetwork(l)
	if err != nil {
		t.Fatalf("NewNetwork: %v", err)
	}
	got, err := net.Forward([]float64{1000})
	if err != nil {
		t.Fatalf("Forward: %v", err)
	}
	var sum float64
	for _, p := range got {
		if math.IsNaN(p) || p < 0 || p > 1 {
			t.Fatalf("invalid probability %v", p)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %v", sum)
	}
	if got[2] < got[1] || got[1] < got[0] {
		t.Errorf("expected increasing scores, got %v", got)
	}
}

func TestNewNetwork_ShapeMismatch(t *testing.T) {
	a := mustLayer(t, [][]float64{{1, 1}}, []float64{0, 0}, Linear)
	b := mustLayer(t, [][]float64{{1}, {1}, {1}}, []float64{0}, Linear)
	if _, err := NewNetwork(a, b); err == nil {
		t.Error("expected chaining error")
	}
	if _, err := NewNetwork(); err == nil {
		t.Error("expected error for empty network")
	}
}

func TestNetwork_ForwardWrongWidth(t *testing.T) {
	net, _ := NewNetwork(mustLayer(t, [][]float64{{1}, {1}}, []float64{0}, Linear))
	if _, err := net.Forward([]float64{1}); err == nil {
		t.Error("expected width error")
	}
}
