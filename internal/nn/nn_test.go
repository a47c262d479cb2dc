package nn

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/born-ml/braincore/internal/backend/cpu"
	"github.com/born-ml/braincore/internal/data"
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/layer"
)

// forward runs l once over batch elements of input and returns its output.
func forward(t *testing.T, l layer.ForwardLayer, batch int, input []float32) layer.Blob {
	t.Helper()

	src, err := data.NewSliceSource("src", l.InputSize(), input)
	if err != nil {
		t.Fatalf("NewSliceSource failed: %v", err)
	}
	sink := data.NewCollector("sink", l.OutputSize(), batch)

	g := graph.New(cpu.New(), graph.Config{BatchSize: batch})
	for _, x := range []layer.Layer{src, l, sink} {
		if err := g.Add(x); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	if err := g.Connect(src, l); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := g.Connect(l, sink); err != nil {
		t.Fatalf("Connect failed: %v", err)
	}
	if err := g.Build(context.Background()); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(g.Release)

	if err := g.Forward(context.Background()); err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	return sink.Last()
}

func expectClose(t *testing.T, got, expected []float32) {
	t.Helper()
	if len(got) != len(expected) {
		t.Fatalf("Expected %d values, got %d", len(expected), len(got))
	}
	for i := range expected {
		if math.Abs(float64(got[i]-expected[i])) > 1e-4 {
			t.Errorf("value %d = %v, expected %v", i, got[i], expected[i])
		}
	}
}

func TestLinearForward(t *testing.T) {
	l, err := NewLinearWithConfig(LinearConfig{
		Name:       "dense",
		InputSize:  2,
		OutputSize: 3,
		Weights:    []float32{1, 0, 0, 1, 1, 1},
		Biases:     []float32{0, 0, 1},
	})
	if err != nil {
		t.Fatalf("NewLinearWithConfig failed: %v", err)
	}

	// [1 2] and [3 -1] through W = [[1 0] [0 1] [1 1]], b = [0 0 1]
	got := forward(t, l, 2, []float32{1, 2, 3, -1})
	expectClose(t, got, []float32{1, 2, 4, 3, -1, 3})

	params := l.Parameters()
	if params[0].Values == nil || params[0].Values.Name() != "dense.weights" {
		t.Errorf("Expected weights buffer dense.weights, got %v", params[0].Values)
	}
	if params[0].Deltas != nil {
		t.Error("Inference layer should have no weight deltas")
	}

	calls := 0
	l.EncodeParametersUpdate(func(_, _ layer.Buffer) { calls++ })
	if calls != 0 {
		t.Errorf("Expected no parameter pairs before backward initialization, got %d", calls)
	}

	if err := l.InitializeForward(nil, 2); !errors.Is(err, layer.ErrAlreadyInitialized) {
		t.Errorf("Expected ErrAlreadyInitialized on second initialization, got: %v", err)
	}
}

func TestLinearConfig_Invalid(t *testing.T) {
	tests := []struct {
		name string
		cfg  LinearConfig
	}{
		{"zero input", LinearConfig{Name: "a", InputSize: 0, OutputSize: 1}},
		{"negative output", LinearConfig{Name: "b", InputSize: 1, OutputSize: -1}},
		{"short weights", LinearConfig{Name: "c", InputSize: 2, OutputSize: 2, Weights: []float32{1, 2, 3}}},
		{"long biases", LinearConfig{Name: "d", InputSize: 1, OutputSize: 1, Biases: []float32{1, 2}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewLinearWithConfig(tt.cfg); err == nil {
				t.Error("Expected an error")
			}
		})
	}

	defer func() {
		if recover() == nil {
			t.Error("NewLinear should panic on invalid sizes")
		}
	}()
	NewLinear("bad", 0, 1)
}

func TestLinear_CopiesInitialValues(t *testing.T) {
	weights := []float32{2}
	l, err := NewLinearWithConfig(LinearConfig{InputSize: 1, OutputSize: 1, Weights: weights})
	if err != nil {
		t.Fatalf("NewLinearWithConfig failed: %v", err)
	}
	weights[0] = 100

	expectClose(t, forward(t, l, 1, []float32{3}), []float32{6})
}

func TestActivationsForward(t *testing.T) {
	input := []float32{-2, -1, 0, 1, 2}

	tests := []struct {
		name     string
		layer    layer.ForwardLayer
		expected []float32
	}{
		{"relu", NewReLU("relu", 5), []float32{0, 0, 0, 1, 2}},
		{"sigmoid", NewSigmoid("sigmoid", 5), []float32{0.1192, 0.2689, 0.5, 0.7311, 0.8808}},
		{"tanh", NewTanh("tanh", 5), []float32{-0.9640, -0.7616, 0, 0.7616, 0.9640}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectClose(t, forward(t, tt.layer, 1, input), tt.expected)
		})
	}
}

func TestActivation_InvalidSize(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("NewReLU should panic on zero size")
		}
	}()
	NewReLU("relu", 0)
}

func TestL2Loss_Sizes(t *testing.T) {
	l := NewL2Loss("loss", 3)
	if l.InputSize() != 6 || l.OutputSize() != 1 {
		t.Errorf("Expected 6 -> 1, got %d -> %d", l.InputSize(), l.OutputSize())
	}

	// Predictions [1 2 3], labels [1 0 1]: ½(0 + 4 + 4) = 4
	got := forward(t, l, 1, []float32{1, 2, 3, 1, 0, 1})
	expectClose(t, got, []float32{4})
}

// TestLinear_Gradient checks the parameter deltas of a single linear layer
// under L2 loss against the analytic gradient.
func TestLinear_Gradient(t *testing.T) {
	engine := cpu.New()
	x, _ := data.NewSliceSource("x", 2, []float32{1, 2, 3, 4})
	y, _ := data.NewSliceSource("y", 1, []float32{0, 1})
	lin, err := NewLinearWithConfig(LinearConfig{
		Name:       "lin",
		InputSize:  2,
		OutputSize: 1,
		Weights:    []float32{0.5, -1},
		Biases:     []float32{0.25},
	})
	if err != nil {
		t.Fatalf("NewLinearWithConfig failed: %v", err)
	}
	loss := NewL2Loss("loss", 1)

	g := graph.New(engine, graph.Config{BatchSize: 2, Training: true})
	for _, l := range []layer.Layer{x, y, lin, loss} {
		if err := g.Add(l); err != nil {
			t.Fatalf("Add failed: %v", err)
		}
	}
	for _, e := range [][2]layer.Layer{{x, lin}, {lin, loss}, {y, loss}} {
		if err := g.Connect(e[0], e[1]); err != nil {
			t.Fatalf("Connect failed: %v", err)
		}
	}
	ctx := context.Background()
	if err := g.Build(ctx); err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	defer g.Release()

	if err := g.Forward(ctx); err != nil {
		t.Fatalf("Forward failed: %v", err)
	}
	if err := g.Backward(ctx); err != nil {
		t.Fatalf("Backward failed: %v", err)
	}

	// p = [0.5-2+0.25, 1.5-4+0.25] = [-1.25, -2.25]; r = (p - y) / 2 = [-0.625, -1.625]
	// dW = rᵀ·x = [-0.625-4.875, -1.25-6.5]; db = Σ r
	var deltas [][]float32
	params := lin.Parameters()
	lin.EncodeParametersUpdate(func(v, d layer.Buffer) {
		if p := params[len(deltas)]; v != p.Values || d != p.Deltas {
			t.Errorf("Pair %d does not match parameter %s", len(deltas), p.Values.Name())
		}
		values, err := engine.Download(d)
		if err != nil {
			t.Fatalf("Download failed: %v", err)
		}
		deltas = append(deltas, values)
	})
	if len(deltas) != 2 {
		t.Fatalf("Expected 2 parameter pairs, got %d", len(deltas))
	}
	expectClose(t, deltas[0], []float32{-5.5, -7.75})
	expectClose(t, deltas[1], []float32{-2.25})
}

func TestXavier(t *testing.T) {
	a := Xavier(4, 2, 100, newRand(7))
	b := Xavier(4, 2, 100, newRand(7))
	c := Xavier(4, 2, 100, newRand(8))

	bound := float32(math.Sqrt(6.0 / 6.0))
	same := true
	for i := range a {
		if a[i] < -bound || a[i] > bound {
			t.Errorf("value %d = %v outside ±%v", i, a[i], bound)
		}
		if a[i] != b[i] {
			t.Fatalf("Same seed produced different values at %d", i)
		}
		if a[i] != c[i] {
			same = false
		}
	}
	if same {
		t.Error("Different seeds produced identical values")
	}
}
