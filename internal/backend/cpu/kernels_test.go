package cpu

import (
	"context"
	"math"
	"testing"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

const epsilon = 1e-5

// run binds kernel to buffers initialized with inputs and returns the
// contents of every buffer after one execution.
func run(t *testing.T, name string, values []float32, inputs ...[]float32) [][]float32 {
	t.Helper()
	e := New()

	buffers := make([]layer.Buffer, len(inputs))
	for i, in := range inputs {
		buf, err := e.NewBufferWithValues(name, in)
		if err != nil {
			t.Fatalf("NewBufferWithValues failed: %v", err)
		}
		buffers[i] = buf
	}

	inv, err := e.NewInvocation(name, buffers, values, layer.Grid{Width: len(inputs[0])})
	if err != nil {
		t.Fatalf("NewInvocation(%s) failed: %v", name, err)
	}
	if err := e.Execute(context.Background(), []layer.Invocation{inv}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}

	out := make([][]float32, len(buffers))
	for i, buf := range buffers {
		out[i], _ = e.Download(buf)
	}
	return out
}

func assertClose(t *testing.T, name string, got, want []float32) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: expected %d values, got %d", name, len(want), len(got))
	}
	for i := range want {
		if math.Abs(float64(got[i]-want[i])) > epsilon {
			t.Errorf("%s[%d] = %f, expected %f", name, i, got[i], want[i])
		}
	}
}

func TestCopyColumns(t *testing.T) {
	src := []float32{1, 2, 3, 4}
	dst := make([]float32, 6)

	out := run(t, kernel.CopyColumns, []float32{2, 2, 3, 1}, src, dst)
	assertClose(t, "dst", out[1], []float32{0, 1, 2, 0, 3, 4})
}

func TestAccumulateColumns(t *testing.T) {
	src := []float32{1, 2, 3, 4, 5, 6}
	dst := []float32{10, 20}

	out := run(t, kernel.AccumulateColumns, []float32{2, 3, 1, 2}, src, dst)
	assertClose(t, "dst", out[1], []float32{13, 26})
}

func TestCopyColumns_OutOfRange(t *testing.T) {
	e := New()
	src, _ := e.NewBuffer("src", 4)
	dst, _ := e.NewBuffer("dst", 6)
	if _, err := e.NewInvocation(kernel.CopyColumns, []layer.Buffer{src, dst}, []float32{2, 2, 3, 2}, layer.Grid{}); err == nil {
		t.Error("Expected error for columns beyond destination width")
	}
}

func TestLinearForward(t *testing.T) {
	// batch 2, in 3, out 2
	input := []float32{1, 2, 3, 4, 5, 6}
	weights := []float32{1, 0, -1, 0.5, 0.5, 0.5}
	biases := []float32{1, -1}
	output := make([]float32, 4)

	out := run(t, kernel.LinearForward, []float32{2, 3, 2}, input, weights, biases, output)
	assertClose(t, "output", out[3], []float32{-1, 2, -1, 6.5})
}

func TestLinearBackward(t *testing.T) {
	input := []float32{1, 2, 3, 4, 5, 6}
	weights := []float32{1, 0, -1, 0.5, 0.5, 0.5}
	outputDeltas := []float32{1, 2, -1, 0}

	out := run(t, kernel.LinearBackwardInput, []float32{2, 3, 2}, outputDeltas, weights, make([]float32, 6))
	assertClose(t, "inputDeltas", out[2], []float32{2, 1, 0, -1, 0, 1})

	out = run(t, kernel.LinearBackwardParams, []float32{2, 3, 2},
		input, outputDeltas, []float32{9, 9, 9, 9, 9, 9}, []float32{9, 9})
	assertClose(t, "weightDeltas", out[2], []float32{-3, -3, -3, 2, 4, 6})
	assertClose(t, "biasDeltas", out[3], []float32{0, 2})
}

func TestActivations(t *testing.T) {
	input := []float32{-2, -0.5, 0, 0.5, 2}
	n := len(input)

	t.Run("relu", func(t *testing.T) {
		out := run(t, kernel.ReLUForward, nil, input, make([]float32, n))
		assertClose(t, "output", out[1], []float32{0, 0, 0, 0.5, 2})

		out = run(t, kernel.ReLUBackward, nil, input, []float32{1, 1, 1, 1, 1}, make([]float32, n))
		assertClose(t, "inputDeltas", out[2], []float32{0, 0, 0, 1, 1})
	})

	t.Run("sigmoid", func(t *testing.T) {
		out := run(t, kernel.SigmoidForward, nil, input, make([]float32, n))
		want := make([]float32, n)
		for i, x := range input {
			want[i] = float32(1 / (1 + math.Exp(-float64(x))))
		}
		assertClose(t, "output", out[1], want)

		out = run(t, kernel.SigmoidBackward, nil, []float32{0.5}, []float32{2}, []float32{0})
		assertClose(t, "inputDeltas", out[2], []float32{0.5})
	})

	t.Run("tanh", func(t *testing.T) {
		out := run(t, kernel.TanhForward, nil, input, make([]float32, n))
		want := make([]float32, n)
		for i, x := range input {
			want[i] = float32(math.Tanh(float64(x)))
		}
		assertClose(t, "output", out[1], want)

		out = run(t, kernel.TanhBackward, nil, []float32{0.5}, []float32{2}, []float32{0})
		assertClose(t, "inputDeltas", out[2], []float32{1.5})
	})
}

func TestL2Loss(t *testing.T) {
	// batch 2, size 2: [p0 p1 l0 l1]
	input := []float32{1, 2, 0, 0, 3, 3, 1, 3}

	out := run(t, kernel.L2LossForward, []float32{2, 2}, input, make([]float32, 2))
	assertClose(t, "loss", out[1], []float32{2.5, 2})

	out = run(t, kernel.L2LossBackward, []float32{2, 2}, input, make([]float32, 8))
	assertClose(t, "inputDeltas", out[1], []float32{0.5, 1, -0.5, -1, 1, 0, -1, 0})
}

func TestSGDUpdate(t *testing.T) {
	values := []float32{1, 2}
	deltas := []float32{0.5, -1}
	velocity := []float32{1, 0}

	out := run(t, kernel.SGDUpdate, []float32{0.1, 0.9}, values, deltas, velocity)
	assertClose(t, "velocity", out[2], []float32{1.4, -1})
	assertClose(t, "values", out[0], []float32{0.86, 2.1})
}

func TestAdamUpdate_FirstStep(t *testing.T) {
	values := []float32{1, -1}
	deltas := []float32{0.2, -0.4}

	out := run(t, kernel.AdamUpdate, []float32{0.01, 0.9, 0.999, 1e-8},
		values, deltas, make([]float32, 2), make([]float32, 2), make([]float32, 1))

	// The first bias-corrected Adam step moves every value by lr·sign(g).
	assertClose(t, "values", out[0], []float32{0.99, -0.99})
	assertClose(t, "state", out[4], []float32{1})
}
