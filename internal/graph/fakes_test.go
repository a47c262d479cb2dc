package graph_test

import (
	"github.com/born-ml/braincore/internal/backend/cpu"
	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// constSource serves batches filled with one value.
type constSource struct {
	layer.Identity
	size    int
	value   float32
	short   bool // Return one value too few
	batches int
}

func newConstSource(name string, size int, value float32) *constSource {
	return &constSource{Identity: layer.NewIdentity(name), size: size, value: value}
}

func (s *constSource) OutputSize() int { return s.size }

func (s *constSource) NextBatch(batchSize int) layer.Blob {
	s.batches++
	blob := layer.NewBlob(batchSize, s.size)
	if s.short {
		blob = blob[1:]
	}
	for i := range blob {
		blob[i] = s.value
	}
	return blob
}

// fillLayer writes a constant to its output and records the buffers it was
// handed.
type fillLayer struct {
	layer.Identity
	in, out  int
	value    float32
	unstable bool // Return a fresh slice on every read

	forwardInits int
	inputLen     int
	outputLen    int

	forward layer.InvocationList
}

func newFillLayer(name string, in, out int, value float32) *fillLayer {
	return &fillLayer{Identity: layer.NewIdentity(name), in: in, out: out, value: value}
}

func (f *fillLayer) InputSize() int  { return f.in }
func (f *fillLayer) OutputSize() int { return f.out }

func (f *fillLayer) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
	f.forwardInits++
	return f.forward.Initialize(func() ([]layer.Invocation, error) {
		f.inputLen = b.InputBuffer().Len()
		f.outputLen = b.OutputBuffer().Len()
		inv, err := b.MakeInvocation(kernel.Fill, []layer.Buffer{b.OutputBuffer()}, []float32{f.value},
			layer.Grid{Width: f.outputLen})
		if err != nil {
			return nil, err
		}
		return []layer.Invocation{inv}, nil
	})
}

func (f *fillLayer) ForwardInvocations() []layer.Invocation {
	invs := f.forward.Invocations()
	if f.unstable {
		return append([]layer.Invocation(nil), invs...)
	}
	return invs
}

// paramLayer is a trainable fillLayer owning two parameters of 10 and 5
// values. Its backward pass does nothing.
type paramLayer struct {
	*fillLayer

	backwardInits   int
	inputDeltasLen  int
	outputDeltasLen int

	a, b     layer.Parameter
	backward layer.InvocationList
}

func newParamLayer(name string, in, out int, value float32) *paramLayer {
	return &paramLayer{fillLayer: newFillLayer(name, in, out, value)}
}

func (p *paramLayer) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
	var err error
	if p.a.Values, err = b.AddBuffer("a", 10); err != nil {
		return err
	}
	if p.b.Values, err = b.AddBufferWithValues("b", []float32{1, 2, 3, 4, 5}); err != nil {
		return err
	}
	return p.fillLayer.InitializeForward(b, batchSize)
}

func (p *paramLayer) InitializeBackward(b layer.BackwardInvocationBuilder, _ int) error {
	p.backwardInits++
	return p.backward.Initialize(func() ([]layer.Invocation, error) {
		p.inputDeltasLen = b.InputDeltasBuffer().Len()
		p.outputDeltasLen = b.OutputDeltasBuffer().Len()

		var err error
		if p.a.Deltas, err = b.AddBuffer("a_deltas", 10); err != nil {
			return nil, err
		}
		if p.b.Deltas, err = b.AddBuffer("b_deltas", 5); err != nil {
			return nil, err
		}
		return nil, nil
	})
}

func (p *paramLayer) BackwardInvocations() []layer.Invocation {
	return p.backward.Invocations()
}

func (p *paramLayer) EncodeParametersUpdate(encode layer.ParameterUpdateFunc) {
	layer.EncodeParameters(p, encode, p.a, p.b)
}

// recordingUpdater records every pair it is asked to update together with
// the deltas at that time, and fills the values with 1.
type recordingUpdater struct {
	engine *cpu.Engine
	pairs  [][2]layer.Buffer
	deltas [][]float32
}

func (u *recordingUpdater) EncodeUpdate(values, deltas layer.Buffer) ([]layer.Invocation, error) {
	u.pairs = append(u.pairs, [2]layer.Buffer{values, deltas})
	d, err := u.engine.Download(deltas)
	if err != nil {
		return nil, err
	}
	u.deltas = append(u.deltas, d)

	inv, err := u.engine.NewInvocation(kernel.Fill, []layer.Buffer{values}, []float32{1}, layer.Grid{Width: values.Len()})
	if err != nil {
		return nil, err
	}
	return []layer.Invocation{inv}, nil
}

// hybrid claims to be both a data layer and a sink.
type hybrid struct {
	*constSource
}

func (hybrid) InputSize() int           { return 1 }
func (hybrid) Consume(layer.Blob) error { return nil }

// lossLayer is a fillLayer acting as a loss with an empty backward pass.
type lossLayer struct {
	*fillLayer

	backwardInits int
	backward      layer.InvocationList
}

func newLossLayer(name string, in int, value float32) *lossLayer {
	return &lossLayer{fillLayer: newFillLayer(name, in, 1, value)}
}

func (l *lossLayer) IsLoss() {}

func (l *lossLayer) InitializeBackward(layer.BackwardInvocationBuilder, int) error {
	l.backwardInits++
	return l.backward.Initialize(func() ([]layer.Invocation, error) { return nil, nil })
}

func (l *lossLayer) BackwardInvocations() []layer.Invocation {
	return l.backward.Invocations()
}
