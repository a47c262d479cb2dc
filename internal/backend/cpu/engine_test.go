package cpu

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/parallel"
)

func TestNewBuffer_Zeroed(t *testing.T) {
	e := New()
	buf, err := e.NewBuffer("x", 5)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if buf.Len() != 5 || buf.Name() != "x" {
		t.Errorf("Expected buffer x of 5 values, got %s of %d", buf.Name(), buf.Len())
	}
	data, err := e.Download(buf)
	if err != nil {
		t.Fatalf("Download failed: %v", err)
	}
	for i, v := range data {
		if v != 0 {
			t.Errorf("value %d = %f, expected 0", i, v)
		}
	}
}

func TestNewBufferWithValues_Copies(t *testing.T) {
	e := New()
	values := []float32{1, 2, 3}
	buf, err := e.NewBufferWithValues("w", values)
	if err != nil {
		t.Fatalf("NewBufferWithValues failed: %v", err)
	}
	values[0] = 100

	data, _ := e.Download(buf)
	if data[0] != 1 {
		t.Errorf("Buffer should not alias caller slice, got %f", data[0])
	}
}

func TestCapacity(t *testing.T) {
	e := NewWithConfig(Config{Capacity: 10})

	a, err := e.NewBuffer("a", 6)
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	if _, err := e.NewBuffer("b", 5); !errors.Is(err, layer.ErrCapacityExceeded) {
		t.Fatalf("Expected ErrCapacityExceeded, got: %v", err)
	}

	e.Release(a)
	if _, err := e.NewBuffer("b", 10); err != nil {
		t.Errorf("Allocation should succeed after release, got: %v", err)
	}
}

func TestStats(t *testing.T) {
	e := New()
	a, _ := e.NewBuffer("a", 4)
	b, _ := e.NewBuffer("b", 6)
	e.Release(a)

	stats := e.Stats()
	if stats.Buffers != 1 {
		t.Errorf("Buffers = %d, expected 1", stats.Buffers)
	}
	if stats.AllocatedValues != 6 {
		t.Errorf("AllocatedValues = %d, expected 6", stats.AllocatedValues)
	}
	if stats.PeakValues != 10 {
		t.Errorf("PeakValues = %d, expected 10", stats.PeakValues)
	}
	if stats.TotalValues != 10 {
		t.Errorf("TotalValues = %d, expected 10", stats.TotalValues)
	}

	e.Release(b, b)
	if got := e.Stats().AllocatedValues; got != 0 {
		t.Errorf("AllocatedValues after release = %d, expected 0", got)
	}
}

func TestUpload_SizeMismatch(t *testing.T) {
	e := New()
	buf, _ := e.NewBuffer("x", 3)
	err := e.Upload(buf, []float32{1, 2})

	var sizeErr *layer.SizeMismatchError
	if !errors.As(err, &sizeErr) {
		t.Fatalf("Expected SizeMismatchError, got: %v", err)
	}
	if sizeErr.Want != 3 || sizeErr.Got != 2 {
		t.Errorf("Expected want 3 got 2, got want %d got %d", sizeErr.Want, sizeErr.Got)
	}
}

func TestReleasedBufferRejected(t *testing.T) {
	e := New()
	buf, _ := e.NewBuffer("x", 3)
	e.Release(buf)

	if _, err := e.Download(buf); !errors.Is(err, layer.ErrContractViolation) {
		t.Errorf("Expected ErrContractViolation, got: %v", err)
	}
}

func TestNewInvocation_Errors(t *testing.T) {
	e := New()
	a, _ := e.NewBuffer("a", 4)
	b, _ := e.NewBuffer("b", 3)
	c, _ := e.NewBuffer("c", 1)
	other, _ := New().NewBuffer("other", 4)

	tests := []struct {
		name    string
		kernel  string
		buffers []layer.Buffer
		values  []float32
		want    error
	}{
		{"unknown kernel", "softmax", []layer.Buffer{a}, nil, layer.ErrUnknownKernel},
		{"buffer count", kernel.ReLUForward, []layer.Buffer{a}, nil, layer.ErrContractViolation},
		{"value count", kernel.Fill, []layer.Buffer{a}, nil, layer.ErrContractViolation},
		{"foreign buffer", kernel.ReLUForward, []layer.Buffer{a, other}, nil, layer.ErrContractViolation},
		{"length mismatch", kernel.ReLUForward, []layer.Buffer{a, b}, nil, layer.ErrSizeMismatch},
		{"fractional dimension", kernel.L2LossForward, []layer.Buffer{a, c}, []float32{1, 1.5}, layer.ErrContractViolation},
		{"negative dimension", kernel.L2LossForward, []layer.Buffer{a, c}, []float32{-1, 2}, layer.ErrContractViolation},
		{"NaN dimension", kernel.L2LossForward, []layer.Buffer{a, c}, []float32{float32(math.NaN()), 2}, layer.ErrContractViolation},
		{"dimension beyond exact float32 integers", kernel.L2LossForward, []layer.Buffer{a, c}, []float32{1, 1<<24 + 2}, layer.ErrContractViolation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inv, err := e.NewInvocation(tt.kernel, tt.buffers, tt.values, layer.Grid{Width: 4})
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got: %v", tt.want, err)
			}
			if inv != nil {
				t.Error("No invocation should be created on error")
			}
		})
	}
}

func TestNewInvocation_ExactDimensions(t *testing.T) {
	e := New()
	in, _ := e.NewBufferWithValues("in", []float32{1, 2, 3, 1})
	out, _ := e.NewBuffer("out", 1)

	inv, err := e.NewInvocation(kernel.L2LossForward, []layer.Buffer{in, out}, []float32{1, 2}, layer.Grid{Width: 1})
	if err != nil {
		t.Fatalf("NewInvocation failed: %v", err)
	}
	if err := e.Execute(context.Background(), []layer.Invocation{inv}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	got, _ := e.Download(out)
	if got[0] != 2.5 {
		t.Errorf("Expected loss 2.5, got %v", got[0])
	}
}

func TestExecute_ForeignInvocation(t *testing.T) {
	e1, e2 := New(), New()
	buf, _ := e2.NewBuffer("x", 2)
	inv, err := e2.NewInvocation(kernel.Fill, []layer.Buffer{buf}, []float32{1}, layer.Grid{Width: 2})
	if err != nil {
		t.Fatalf("NewInvocation failed: %v", err)
	}

	if err := e1.Execute(context.Background(), []layer.Invocation{inv}); !errors.Is(err, layer.ErrContractViolation) {
		t.Errorf("Expected ErrContractViolation, got: %v", err)
	}
}

func TestExecute_Cancelled(t *testing.T) {
	e := New()
	buf, _ := e.NewBuffer("x", 2)
	inv, _ := e.NewInvocation(kernel.Fill, []layer.Buffer{buf}, []float32{7}, layer.Grid{Width: 2})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := e.Execute(ctx, []layer.Invocation{inv}); !errors.Is(err, context.Canceled) {
		t.Fatalf("Expected context.Canceled, got: %v", err)
	}
	data, _ := e.Download(buf)
	if data[0] != 0 {
		t.Error("Cancelled execution should not run invocations")
	}
}

func TestExecute_InOrder(t *testing.T) {
	e := NewWithConfig(Config{Parallel: parallel.Sequential()})
	buf, _ := e.NewBuffer("x", 3)
	fill1, _ := e.NewInvocation(kernel.Fill, []layer.Buffer{buf}, []float32{1}, layer.Grid{Width: 3})
	fill2, _ := e.NewInvocation(kernel.Fill, []layer.Buffer{buf}, []float32{2}, layer.Grid{Width: 3})

	if err := e.Execute(context.Background(), []layer.Invocation{fill1, fill2}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	data, _ := e.Download(buf)
	if data[2] != 2 {
		t.Errorf("Expected last invocation to win, got %f", data[2])
	}
}

func TestRegister_CustomKernel(t *testing.T) {
	e := New()
	e.Register("double", Kernel{
		Buffers: 1,
		Run: func(a *Args) {
			for i := range a.Buffers[0] {
				a.Buffers[0][i] *= 2
			}
		},
	})

	buf, _ := e.NewBufferWithValues("x", []float32{1, 2})
	inv, err := e.NewInvocation("double", []layer.Buffer{buf}, nil, layer.Grid{Width: 2})
	if err != nil {
		t.Fatalf("NewInvocation failed: %v", err)
	}
	if err := e.Execute(context.Background(), []layer.Invocation{inv}); err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	data, _ := e.Download(buf)
	if data[0] != 2 || data[1] != 4 {
		t.Errorf("Expected [2 4], got %v", data)
	}
}
