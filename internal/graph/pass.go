package graph

import (
	"context"
	"fmt"

	"github.com/born-ml/braincore/internal/layer"
)

// Forward runs one forward pass: every data layer supplies its next batch,
// the forward plan is executed and every sink consumes its input.
func (g *Graph) Forward(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ready(); err != nil {
		return err
	}
	return g.forward(ctx)
}

// Backward runs one backward pass. The graph must be built for training and
// a forward pass must have run before.
func (g *Graph) Backward(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.training(); err != nil {
		return err
	}
	return g.engine.Execute(ctx, g.backwardPlan)
}

// Update applies one optimization step to every parameter pair of every
// trainable layer, in topological order.
func (g *Graph) Update(ctx context.Context, updater ParameterUpdater) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.training(); err != nil {
		return err
	}
	return g.update(ctx, updater)
}

// Step runs forward, backward and update, and returns the loss of the
// forward pass.
func (g *Graph) Step(ctx context.Context, updater ParameterUpdater) (float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.training(); err != nil {
		return 0, err
	}
	if err := g.forward(ctx); err != nil {
		return 0, fmt.Errorf("forward: %w", err)
	}
	if err := g.engine.Execute(ctx, g.backwardPlan); err != nil {
		return 0, fmt.Errorf("backward: %w", err)
	}
	loss, err := g.loss()
	if err != nil {
		return 0, err
	}
	if err := g.update(ctx, updater); err != nil {
		return 0, fmt.Errorf("update: %w", err)
	}
	return loss, nil
}

// Loss returns the sum over all loss layers of their mean output value for
// the last forward pass.
func (g *Graph) Loss() (float32, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ready(); err != nil {
		return 0, err
	}
	return g.loss()
}

// Output returns a copy of the values l produced in the last forward pass.
// For sink layers it returns the values the sink consumed.
func (g *Graph) Output(l layer.Layer) (layer.Blob, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.ready(); err != nil {
		return nil, err
	}
	n, err := g.lookup(l)
	if err != nil {
		return nil, err
	}
	buf := n.output
	if buf == nil {
		buf = n.input
	}
	values, err := g.engine.Download(buf)
	if err != nil {
		return nil, err
	}
	return layer.Blob(values), nil
}

// Trainables returns the trainable layers in topological order (insertion
// order before the graph is built).
func (g *Graph) Trainables() []layer.TrainableLayer {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []layer.TrainableLayer
	for _, n := range g.nodesInOrder() {
		if n.trainable != nil {
			out = append(out, n.trainable)
		}
	}
	return out
}

// Losses returns the loss layers in topological order (insertion order
// before the graph is built).
func (g *Graph) Losses() []layer.LossLayer {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out []layer.LossLayer
	for _, n := range g.nodesInOrder() {
		if n.loss != nil {
			out = append(out, n.loss)
		}
	}
	return out
}

func (g *Graph) forward(ctx context.Context) error {
	batch := g.cfg.BatchSize
	for _, n := range g.order {
		if n.data == nil {
			continue
		}
		blob := n.data.NextBatch(batch)
		if err := blob.Check(batch, n.outputSize); err != nil {
			return &layer.ContractViolation{Layer: n.String(), Reason: "NextBatch: " + err.Error()}
		}
		if err := g.engine.Upload(n.output, blob); err != nil {
			return err
		}
	}

	if err := g.engine.Execute(ctx, g.forwardPlan); err != nil {
		return err
	}

	for _, n := range g.order {
		if n.sink == nil {
			continue
		}
		values, err := g.engine.Download(n.input)
		if err != nil {
			return err
		}
		if err := n.sink.Consume(layer.Blob(values)); err != nil {
			return fmt.Errorf("sink %s: %w", n, err)
		}
	}
	return nil
}

func (g *Graph) loss() (float32, error) {
	var total float32
	for _, n := range g.order {
		if n.loss == nil {
			continue
		}
		values, err := g.engine.Download(n.output)
		if err != nil {
			return 0, err
		}
		var sum float32
		for _, v := range values {
			sum += v
		}
		total += sum / float32(len(values))
	}
	return total, nil
}

func (g *Graph) update(ctx context.Context, updater ParameterUpdater) error {
	if updater == nil {
		return fmt.Errorf("graph: nil parameter updater")
	}

	var invocations []layer.Invocation
	for _, n := range g.order {
		if n.trainable == nil {
			continue
		}
		params, err := nodeParameters(n)
		if err != nil {
			return err
		}
		for _, p := range params {
			invs, err := updater.EncodeUpdate(p.Values, p.Deltas)
			if err != nil {
				return fmt.Errorf("layer %s: parameter %q: %w", n, p.Values.Name(), err)
			}
			invocations = append(invocations, invs...)
		}
	}
	return g.engine.Execute(ctx, invocations)
}

// nodeParameters collects the parameter pairs of a trainable node and checks
// that each pair is well formed.
func nodeParameters(n *node) (params []layer.Parameter, err error) {
	defer func() {
		if r := recover(); r != nil {
			params = nil
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = &layer.ContractViolation{Layer: n.String(), Reason: fmt.Sprint(r)}
		}
	}()

	seen := make(map[layer.Buffer]bool)
	n.trainable.EncodeParametersUpdate(func(values, deltas layer.Buffer) {
		switch {
		case values == nil || deltas == nil:
			panic(&layer.ContractViolation{Layer: n.String(), Reason: "parameter pair with nil buffer"})
		case values.Len() != deltas.Len():
			panic(&layer.ContractViolation{
				Layer:  n.String(),
				Reason: fmt.Sprintf("parameter %q has %d values but %d deltas", values.Name(), values.Len(), deltas.Len()),
			})
		case seen[values]:
			panic(&layer.ContractViolation{Layer: n.String(), Reason: fmt.Sprintf("parameter %q encoded twice", values.Name())})
		}
		seen[values] = true
		params = append(params, layer.Parameter{Values: values, Deltas: deltas})
	})
	return params, nil
}

func (g *Graph) training() error {
	if err := g.ready(); err != nil {
		return err
	}
	if !g.cfg.Training {
		return ErrNotTraining
	}
	return nil
}

func (g *Graph) nodesInOrder() []*node {
	if g.order != nil {
		return g.order
	}
	return g.nodes
}
