package cpu

import (
	"fmt"
	"math"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/parallel"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
)

func registerBuiltins(e *Engine) {
	e.kernels[kernel.Fill] = Kernel{Buffers: 1, Values: 1, Run: fill}
	e.kernels[kernel.CopyColumns] = Kernel{Buffers: 2, Values: 4, Check: checkCopyColumns, Run: copyColumns}
	e.kernels[kernel.AccumulateColumns] = Kernel{Buffers: 2, Values: 4, Check: checkAccumulateColumns, Run: accumulateColumns}

	e.kernels[kernel.LinearForward] = Kernel{Buffers: 4, Values: 3, Check: checkLinearForward, Run: linearForward}
	e.kernels[kernel.LinearBackwardInput] = Kernel{Buffers: 3, Values: 3, Check: checkLinearBackwardInput, Run: linearBackwardInput}
	e.kernels[kernel.LinearBackwardParams] = Kernel{Buffers: 4, Values: 3, Check: checkLinearBackwardParams, Run: linearBackwardParams}

	e.kernels[kernel.ReLUForward] = Kernel{Buffers: 2, Check: checkSameLength, Run: reluForward}
	e.kernels[kernel.ReLUBackward] = Kernel{Buffers: 3, Check: checkSameLength, Run: reluBackward}
	e.kernels[kernel.SigmoidForward] = Kernel{Buffers: 2, Check: checkSameLength, Run: sigmoidForward}
	e.kernels[kernel.SigmoidBackward] = Kernel{Buffers: 3, Check: checkSameLength, Run: sigmoidBackward}
	e.kernels[kernel.TanhForward] = Kernel{Buffers: 2, Check: checkSameLength, Run: tanhForward}
	e.kernels[kernel.TanhBackward] = Kernel{Buffers: 3, Check: checkSameLength, Run: tanhBackward}

	e.kernels[kernel.L2LossForward] = Kernel{Buffers: 2, Values: 2, Check: checkL2LossForward, Run: l2LossForward}
	e.kernels[kernel.L2LossBackward] = Kernel{Buffers: 2, Values: 2, Check: checkL2LossBackward, Run: l2LossBackward}

	e.kernels[kernel.SGDUpdate] = Kernel{Buffers: 3, Values: 2, Check: checkSameLength, Run: sgdUpdate}
	e.kernels[kernel.AdamUpdate] = Kernel{Buffers: 5, Values: 4, Check: checkAdam, Run: adamUpdate}
}

// expectLengths checks buffer lengths; negative wants are skipped.
func expectLengths(a *Args, wants ...int) error {
	for i, want := range wants {
		if want < 0 {
			continue
		}
		if got := len(a.Buffers[i]); got != want {
			return &layer.SizeMismatchError{What: fmt.Sprintf("buffer %d", i), Want: want, Got: got}
		}
	}
	return nil
}

func checkSameLength(a *Args) error {
	n := len(a.Buffers[0])
	wants := make([]int, len(a.Buffers))
	for i := range wants {
		wants[i] = n
	}
	return expectLengths(a, wants...)
}

func checkCopyColumns(a *Args) error {
	rows, srcWidth, dstWidth, offset := a.Int(0), a.Int(1), a.Int(2), a.Int(3)
	if offset < 0 || offset+srcWidth > dstWidth {
		return fmt.Errorf("columns [%d, %d) outside destination width %d", offset, offset+srcWidth, dstWidth)
	}
	return expectLengths(a, rows*srcWidth, rows*dstWidth)
}

func checkAccumulateColumns(a *Args) error {
	rows, srcWidth, dstWidth, offset := a.Int(0), a.Int(1), a.Int(2), a.Int(3)
	if offset < 0 || offset+dstWidth > srcWidth {
		return fmt.Errorf("columns [%d, %d) outside source width %d", offset, offset+dstWidth, srcWidth)
	}
	return expectLengths(a, rows*srcWidth, rows*dstWidth)
}

func checkLinearForward(a *Args) error {
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)
	return expectLengths(a, batch*in, out*in, out, batch*out)
}

func checkLinearBackwardInput(a *Args) error {
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)
	return expectLengths(a, batch*out, out*in, batch*in)
}

func checkLinearBackwardParams(a *Args) error {
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)
	return expectLengths(a, batch*in, batch*out, out*in, out)
}

func checkL2LossForward(a *Args) error {
	batch, size := a.Int(0), a.Int(1)
	return expectLengths(a, batch*2*size, batch)
}

func checkL2LossBackward(a *Args) error {
	batch, size := a.Int(0), a.Int(1)
	return expectLengths(a, batch*2*size, batch*2*size)
}

func checkAdam(a *Args) error {
	n := len(a.Buffers[0])
	return expectLengths(a, n, n, n, n, 1)
}

func fill(a *Args) {
	dst, v := a.Buffers[0], a.Values[0]
	for i := range dst {
		dst[i] = v
	}
}

func copyColumns(a *Args) {
	src, dst := a.Buffers[0], a.Buffers[1]
	rows, srcWidth, dstWidth, offset := a.Int(0), a.Int(1), a.Int(2), a.Int(3)
	for r := 0; r < rows; r++ {
		copy(dst[r*dstWidth+offset:r*dstWidth+offset+srcWidth], src[r*srcWidth:(r+1)*srcWidth])
	}
}

func accumulateColumns(a *Args) {
	src, dst := a.Buffers[0], a.Buffers[1]
	rows, srcWidth, dstWidth, offset := a.Int(0), a.Int(1), a.Int(2), a.Int(3)
	for r := 0; r < rows; r++ {
		s := src[r*srcWidth+offset : r*srcWidth+offset+dstWidth]
		d := dst[r*dstWidth : (r+1)*dstWidth]
		for c := range d {
			d[c] += s[c]
		}
	}
}

func general(rows, cols int, data []float32) blas32.General {
	return blas32.General{Rows: rows, Cols: cols, Stride: cols, Data: data}
}

func linearForward(a *Args) {
	input, weights, biases, output := a.Buffers[0], a.Buffers[1], a.Buffers[2], a.Buffers[3]
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)

	// output = input · weightsᵀ
	blas32.Gemm(blas.NoTrans, blas.Trans, 1,
		general(batch, in, input), general(out, in, weights), 0, general(batch, out, output))

	for b := 0; b < batch; b++ {
		row := output[b*out : (b+1)*out]
		for j := range row {
			row[j] += biases[j]
		}
	}
}

func linearBackwardInput(a *Args) {
	outputDeltas, weights, inputDeltas := a.Buffers[0], a.Buffers[1], a.Buffers[2]
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)

	// inputDeltas = outputDeltas · weights
	blas32.Gemm(blas.NoTrans, blas.NoTrans, 1,
		general(batch, out, outputDeltas), general(out, in, weights), 0, general(batch, in, inputDeltas))
}

func linearBackwardParams(a *Args) {
	input, outputDeltas, weightDeltas, biasDeltas := a.Buffers[0], a.Buffers[1], a.Buffers[2], a.Buffers[3]
	batch, in, out := a.Int(0), a.Int(1), a.Int(2)

	// weightDeltas = outputDeltasᵀ · input
	blas32.Gemm(blas.Trans, blas.NoTrans, 1,
		general(batch, out, outputDeltas), general(batch, in, input), 0, general(out, in, weightDeltas))

	for j := range biasDeltas {
		biasDeltas[j] = 0
	}
	for b := 0; b < batch; b++ {
		row := outputDeltas[b*out : (b+1)*out]
		for j, d := range row {
			biasDeltas[j] += d
		}
	}
}

func reluForward(a *Args) {
	input, output := a.Buffers[0], a.Buffers[1]
	parallel.For(len(input), func(i int) {
		output[i] = max(input[i], 0)
	}, a.Parallel)
}

func reluBackward(a *Args) {
	input, outputDeltas, inputDeltas := a.Buffers[0], a.Buffers[1], a.Buffers[2]
	parallel.For(len(input), func(i int) {
		if input[i] > 0 {
			inputDeltas[i] = outputDeltas[i]
		} else {
			inputDeltas[i] = 0
		}
	}, a.Parallel)
}

func sigmoidForward(a *Args) {
	input, output := a.Buffers[0], a.Buffers[1]
	parallel.For(len(input), func(i int) {
		output[i] = float32(1 / (1 + math.Exp(-float64(input[i]))))
	}, a.Parallel)
}

func sigmoidBackward(a *Args) {
	output, outputDeltas, inputDeltas := a.Buffers[0], a.Buffers[1], a.Buffers[2]
	parallel.For(len(output), func(i int) {
		y := output[i]
		inputDeltas[i] = outputDeltas[i] * y * (1 - y)
	}, a.Parallel)
}

func tanhForward(a *Args) {
	input, output := a.Buffers[0], a.Buffers[1]
	parallel.For(len(input), func(i int) {
		output[i] = float32(math.Tanh(float64(input[i])))
	}, a.Parallel)
}

func tanhBackward(a *Args) {
	output, outputDeltas, inputDeltas := a.Buffers[0], a.Buffers[1], a.Buffers[2]
	parallel.For(len(output), func(i int) {
		y := output[i]
		inputDeltas[i] = outputDeltas[i] * (1 - y*y)
	}, a.Parallel)
}

func l2LossForward(a *Args) {
	input, output := a.Buffers[0], a.Buffers[1]
	batch, size := a.Int(0), a.Int(1)
	for b := 0; b < batch; b++ {
		row := input[b*2*size : (b+1)*2*size]
		var sum float32
		for j := 0; j < size; j++ {
			d := row[j] - row[size+j]
			sum += d * d
		}
		output[b] = sum / 2
	}
}

func l2LossBackward(a *Args) {
	input, inputDeltas := a.Buffers[0], a.Buffers[1]
	batch, size := a.Int(0), a.Int(1)
	scale := 1 / float32(batch)
	for b := 0; b < batch; b++ {
		row := input[b*2*size : (b+1)*2*size]
		deltas := inputDeltas[b*2*size : (b+1)*2*size]
		for j := 0; j < size; j++ {
			d := (row[j] - row[size+j]) * scale
			deltas[j] = d
			deltas[size+j] = -d
		}
	}
}

func sgdUpdate(a *Args) {
	values, deltas, velocity := a.Buffers[0], a.Buffers[1], a.Buffers[2]
	lr, momentum := a.Values[0], a.Values[1]
	parallel.For(len(values), func(i int) {
		velocity[i] = momentum*velocity[i] + deltas[i]
		values[i] -= lr * velocity[i]
	}, a.Parallel)
}

func adamUpdate(a *Args) {
	values, deltas, m, v, state := a.Buffers[0], a.Buffers[1], a.Buffers[2], a.Buffers[3], a.Buffers[4]
	lr, beta1, beta2, eps := float64(a.Values[0]), float64(a.Values[1]), float64(a.Values[2]), float64(a.Values[3])

	state[0]++
	t := float64(state[0])
	stepSize := float32(lr * math.Sqrt(1-math.Pow(beta2, t)) / (1 - math.Pow(beta1, t)))
	b1, b2, e := float32(beta1), float32(beta2), float32(eps)

	parallel.For(len(values), func(i int) {
		g := deltas[i]
		m[i] = b1*m[i] + (1-b1)*g
		v[i] = b2*v[i] + (1-b2)*g*g
		values[i] -= stepSize * m[i] / (float32(math.Sqrt(float64(v[i]))) + e)
	}, a.Parallel)
}
