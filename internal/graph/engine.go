package graph

import (
	"context"
	"fmt"

	"github.com/born-ml/braincore/internal/layer"
)

// Engine is the execution engine a graph allocates buffers on and runs
// invocations with.
type Engine interface {
	NewBuffer(name string, size int) (layer.Buffer, error)
	NewBufferWithValues(name string, values []float32) (layer.Buffer, error)
	NewInvocation(kernel string, buffers []layer.Buffer, values []float32, grid layer.Grid) (layer.Invocation, error)
	Release(buffers ...layer.Buffer)

	Upload(buf layer.Buffer, data []float32) error
	Download(buf layer.Buffer) ([]float32, error)

	// Execute runs invocations in order on a single timeline.
	Execute(ctx context.Context, invocations []layer.Invocation) error
}

// ParameterUpdater turns a (values, deltas) parameter pair into the
// invocations applying one optimization step to it. Optimizers implement it.
type ParameterUpdater interface {
	EncodeUpdate(values, deltas layer.Buffer) ([]layer.Invocation, error)
}

// builder is the invocation builder handed to one layer. Every buffer it
// allocates is recorded in the graph ledger so a failed build can release it.
type builder struct {
	g      *Graph
	prefix string

	input        layer.Buffer
	output       layer.Buffer
	inputDeltas  layer.Buffer
	outputDeltas layer.Buffer
}

func (b *builder) AddBuffer(name string, size int) (layer.Buffer, error) {
	buf, err := b.g.engine.NewBuffer(b.prefix+"."+name, size)
	if err != nil {
		return nil, err
	}
	b.g.buffers = append(b.g.buffers, buf)
	return buf, nil
}

func (b *builder) AddBufferWithValues(name string, values []float32) (layer.Buffer, error) {
	buf, err := b.g.engine.NewBufferWithValues(b.prefix+"."+name, values)
	if err != nil {
		return nil, err
	}
	b.g.buffers = append(b.g.buffers, buf)
	return buf, nil
}

func (b *builder) MakeInvocation(kernel string, buffers []layer.Buffer, values []float32, grid layer.Grid) (layer.Invocation, error) {
	for i, buf := range buffers {
		if buf == nil {
			return nil, &layer.ContractViolation{Layer: b.prefix, Reason: fmt.Sprintf("nil buffer %d passed to %s", i, kernel)}
		}
	}
	return b.g.engine.NewInvocation(kernel, buffers, values, grid)
}

func (b *builder) InputBuffer() layer.Buffer        { return b.input }
func (b *builder) OutputBuffer() layer.Buffer       { return b.output }
func (b *builder) InputDeltasBuffer() layer.Buffer  { return b.inputDeltas }
func (b *builder) OutputDeltasBuffer() layer.Buffer { return b.outputDeltas }
