package graph

import (
	"fmt"

	"github.com/born-ml/braincore/internal/layer"
)

// node is one layer in the graph together with the buffers and invocations
// the graph created for it.
type node struct {
	index int
	layer layer.Layer

	// Capabilities (nil when absent)
	data      layer.DataLayer
	fwd       layer.ForwardLayer
	bwd       layer.BackwardLayer
	loss      layer.LossLayer
	sink      layer.SinkLayer
	trainable layer.TrainableLayer

	// Sizes per batch element, captured when the layer was added
	inputSize  int
	outputSize int

	inputs    []*node // Producers, in connection order
	consumers []*node

	input        layer.Buffer
	output       layer.Buffer
	inputDeltas  layer.Buffer
	outputDeltas layer.Buffer

	gather   []layer.Invocation // Copy producer outputs into input
	scatter  []layer.Invocation // Sum consumer input deltas into output deltas
	forward  []layer.Invocation
	backward []layer.Invocation
}

func newNode(index int, l layer.Layer) (*node, error) {
	n := &node{index: index, layer: l}
	n.data, _ = l.(layer.DataLayer)
	n.fwd, _ = l.(layer.ForwardLayer)
	n.bwd, _ = l.(layer.BackwardLayer)
	n.loss, _ = l.(layer.LossLayer)
	n.sink, _ = l.(layer.SinkLayer)
	n.trainable, _ = l.(layer.TrainableLayer)

	roles := 0
	for _, ok := range []bool{n.data != nil, n.fwd != nil, n.sink != nil} {
		if ok {
			roles++
		}
	}
	if roles != 1 {
		return nil, fmt.Errorf("%w: %s must be exactly one of data, forward or sink layer", ErrInvalidLayer, layer.Describe(l))
	}

	n.inputSize, n.outputSize = n.sizes()
	if n.consumesInput() && n.inputSize <= 0 {
		return nil, fmt.Errorf("%w: %s has input size %d", ErrInvalidLayer, layer.Describe(l), n.inputSize)
	}
	if n.producesOutput() && n.outputSize <= 0 {
		return nil, fmt.Errorf("%w: %s has output size %d", ErrInvalidLayer, layer.Describe(l), n.outputSize)
	}
	return n, nil
}

func (n *node) sizes() (in, out int) {
	switch {
	case n.data != nil:
		return 0, n.data.OutputSize()
	case n.fwd != nil:
		return n.fwd.InputSize(), n.fwd.OutputSize()
	case n.sink != nil:
		return n.sink.InputSize(), 0
	}
	return 0, 0
}

func (n *node) checkSizesUnchanged() error {
	in, out := n.sizes()
	if in != n.inputSize || out != n.outputSize {
		return &layer.ContractViolation{
			Layer:  layer.Describe(n.layer),
			Reason: fmt.Sprintf("sizes changed after the layer was added (%d→%d became %d→%d)", n.inputSize, n.outputSize, in, out),
		}
	}
	return nil
}

func (n *node) producesOutput() bool { return n.data != nil || n.fwd != nil }
func (n *node) consumesInput() bool  { return n.fwd != nil || n.sink != nil }

// offsetOf returns the column offset of producer p inside n's input.
func (n *node) offsetOf(p *node) int {
	offset := 0
	for _, in := range n.inputs {
		if in == p {
			return offset
		}
		offset += in.outputSize
	}
	return -1
}

// key names the node in buffer names and checkpoints.
func (n *node) key() string {
	if name := n.layer.Name(); name != "" {
		return name
	}
	return fmt.Sprintf("layer%d", n.index)
}

func (n *node) String() string {
	return layer.Describe(n.layer)
}
