//go:build windows

package webgpu

import (
	"fmt"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// stage is one shader dispatch of a kernel.
type stage struct {
	name     string
	code     string
	bindings []int                                  // Bind group entries used (nil: all)
	threads  func(lens []int, values []float32) int // Threads to dispatch
}

// kernelSpec describes how a catalogue kernel runs on the GPU.
type kernelSpec struct {
	buffers int
	values  int
	check   func(lens []int, values []float32) error
	stages  []stage
}

// kernels maps every catalogue kernel to its shaders.
var kernels = map[string]kernelSpec{
	kernel.Fill: {buffers: 1, values: 1, stages: []stage{
		{name: kernel.Fill, code: fillShader, threads: lenOf(0)},
	}},
	kernel.CopyColumns: {buffers: 2, values: 4, check: checkCopyColumns, stages: []stage{
		{name: kernel.CopyColumns, code: copyColumnsShader, threads: lenOf(0)},
	}},
	kernel.AccumulateColumns: {buffers: 2, values: 4, check: checkAccumulateColumns, stages: []stage{
		{name: kernel.AccumulateColumns, code: accumulateColumnsShader, threads: lenOf(1)},
	}},

	kernel.LinearForward: {buffers: 4, values: 3, check: checkLinearForward, stages: []stage{
		{name: kernel.LinearForward, code: linearForwardShader, threads: lenOf(3)},
	}},
	kernel.LinearBackwardInput: {buffers: 3, values: 3, check: checkLinearBackwardInput, stages: []stage{
		{name: kernel.LinearBackwardInput, code: linearBackwardInputShader, threads: lenOf(2)},
	}},
	kernel.LinearBackwardParams: {buffers: 4, values: 3, check: checkLinearBackwardParams, stages: []stage{
		{name: kernel.LinearBackwardParams, code: linearBackwardParamsShader, threads: func(lens []int, _ []float32) int {
			return lens[2] + lens[3]
		}},
	}},

	kernel.ReLUForward:     elementwise(kernel.ReLUForward, reluForwardShader, 2),
	kernel.ReLUBackward:    elementwise(kernel.ReLUBackward, reluBackwardShader, 3),
	kernel.SigmoidForward:  elementwise(kernel.SigmoidForward, sigmoidForwardShader, 2),
	kernel.SigmoidBackward: elementwise(kernel.SigmoidBackward, sigmoidBackwardShader, 3),
	kernel.TanhForward:     elementwise(kernel.TanhForward, tanhForwardShader, 2),
	kernel.TanhBackward:    elementwise(kernel.TanhBackward, tanhBackwardShader, 3),

	kernel.L2LossForward: {buffers: 2, values: 2, check: checkL2Loss(false), stages: []stage{
		{name: kernel.L2LossForward, code: l2LossForwardShader, threads: lenOf(1)},
	}},
	kernel.L2LossBackward: {buffers: 2, values: 2, check: checkL2Loss(true), stages: []stage{
		{name: kernel.L2LossBackward, code: l2LossBackwardShader, threads: func(lens []int, _ []float32) int {
			return lens[1] / 2
		}},
	}},

	kernel.SGDUpdate: {buffers: 3, values: 2, check: checkSameLength, stages: []stage{
		{name: kernel.SGDUpdate, code: sgdUpdateShader, threads: lenOf(0)},
	}},
	kernel.AdamUpdate: {buffers: 5, values: 4, check: checkAdam, stages: []stage{
		{name: kernel.AdamUpdate, code: adamUpdateShader, threads: lenOf(0)},
		{name: "adam_step", code: adamStepShader, bindings: []int{4}, threads: func([]int, []float32) int { return 1 }},
	}},
}

func elementwise(name, code string, buffers int) kernelSpec {
	return kernelSpec{buffers: buffers, check: checkSameLength, stages: []stage{
		{name: name, code: code, threads: lenOf(buffers - 1)},
	}}
}

// lenOf dispatches one thread per value of buffer i.
func lenOf(i int) func([]int, []float32) int {
	return func(lens []int, _ []float32) int { return lens[i] }
}

// expectLengths checks buffer lengths.
func expectLengths(lens []int, wants ...int) error {
	for i, want := range wants {
		if lens[i] != want {
			return &layer.SizeMismatchError{What: fmt.Sprintf("buffer %d", i), Want: want, Got: lens[i]}
		}
	}
	return nil
}

func ints(values []float32, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = int(values[i])
	}
	return out
}

func checkSameLength(lens []int, _ []float32) error {
	wants := make([]int, len(lens))
	for i := range wants {
		wants[i] = lens[0]
	}
	return expectLengths(lens, wants...)
}

func checkCopyColumns(lens []int, values []float32) error {
	v := ints(values, 4)
	rows, srcWidth, dstWidth, offset := v[0], v[1], v[2], v[3]
	if offset < 0 || offset+srcWidth > dstWidth {
		return fmt.Errorf("columns [%d, %d) outside destination width %d", offset, offset+srcWidth, dstWidth)
	}
	return expectLengths(lens, rows*srcWidth, rows*dstWidth)
}

func checkAccumulateColumns(lens []int, values []float32) error {
	v := ints(values, 4)
	rows, srcWidth, dstWidth, offset := v[0], v[1], v[2], v[3]
	if offset < 0 || offset+dstWidth > srcWidth {
		return fmt.Errorf("columns [%d, %d) outside source width %d", offset, offset+dstWidth, srcWidth)
	}
	return expectLengths(lens, rows*srcWidth, rows*dstWidth)
}

func checkLinearForward(lens []int, values []float32) error {
	v := ints(values, 3)
	batch, in, out := v[0], v[1], v[2]
	return expectLengths(lens, batch*in, out*in, out, batch*out)
}

func checkLinearBackwardInput(lens []int, values []float32) error {
	v := ints(values, 3)
	batch, in, out := v[0], v[1], v[2]
	return expectLengths(lens, batch*out, out*in, batch*in)
}

func checkLinearBackwardParams(lens []int, values []float32) error {
	v := ints(values, 3)
	batch, in, out := v[0], v[1], v[2]
	return expectLengths(lens, batch*in, batch*out, out*in, out)
}

func checkL2Loss(backward bool) func([]int, []float32) error {
	return func(lens []int, values []float32) error {
		v := ints(values, 2)
		batch, size := v[0], v[1]
		if backward {
			return expectLengths(lens, batch*2*size, batch*2*size)
		}
		return expectLengths(lens, batch*2*size, batch)
	}
}

func checkAdam(lens []int, _ []float32) error {
	n := lens[0]
	return expectLengths(lens, n, n, n, n, 1)
}
