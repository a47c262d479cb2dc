// Package graph wires layers into a directed computation graph and drives
// their two-phase lifecycle.
//
// A graph is assembled with Add and Connect, then built once. Build checks
// that connected sizes agree, orders the layers topologically, allocates the
// inter-layer buffers, and initializes every layer exactly once. After a
// successful build the forward (and, for training graphs, backward)
// invocation plans are fixed and replayed on every pass:
//
//	g := graph.New(engine, graph.Config{BatchSize: 32, Training: true})
//	_ = g.Add(source)
//	_ = g.Add(labels)
//	_ = g.Add(linear)
//	_ = g.Add(loss)
//	_ = g.Connect(source, linear)
//	_ = g.Connect(linear, loss)
//	_ = g.Connect(labels, loss)
//	if err := g.Build(ctx); err != nil {
//	    return err
//	}
//	for step := range steps {
//	    loss, err := g.Step(ctx, optimizer)
//	}
//
// A failed build releases every buffer it allocated and leaves the graph
// permanently failed.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/google/uuid"
)

// Config configures a graph.
type Config struct {
	BatchSize int          // Elements per batch (default: 1)
	Training  bool         // Initialize backward passes and allow updates
	Logger    *slog.Logger // Debug logging (default: discarded)
}

type state int

const (
	stateBuilding state = iota
	stateBuilt
	stateFailed
	stateReleased
)

// Graph is a directed acyclic graph of layers.
//
// All methods are safe for concurrent use; passes are serialized.
type Graph struct {
	engine Engine
	cfg    Config
	log    *slog.Logger

	mu    sync.Mutex
	state state
	err   error

	nodes []*node
	byID  map[uuid.UUID]*node

	// Set by Build
	order        []*node
	buffers      []layer.Buffer
	forwardPlan  []layer.Invocation
	backwardPlan []layer.Invocation
}

// New creates an empty graph executing on engine.
func New(engine Engine, cfg Config) *Graph {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 1
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Graph{
		engine: engine,
		cfg:    cfg,
		log:    logger,
		byID:   make(map[uuid.UUID]*node),
	}
}

// BatchSize returns the batch size the graph is built for.
func (g *Graph) BatchSize() int {
	return g.cfg.BatchSize
}

// Add adds a layer to the graph.
//
// The layer must be exactly one of a DataLayer, a ForwardLayer (including
// backward and loss layers) or a SinkLayer, with positive sizes.
func (g *Graph) Add(l layer.Layer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.building(); err != nil {
		return err
	}
	if layer.IsNil(l) {
		return fmt.Errorf("%w: nil layer", ErrInvalidLayer)
	}
	if _, dup := g.byID[l.ID()]; dup {
		return fmt.Errorf("%w: %s", ErrDuplicateLayer, layer.Describe(l))
	}
	if name := l.Name(); name != "" {
		for _, other := range g.nodes {
			if other.layer.Name() == name {
				return fmt.Errorf("%w: name %q already used", ErrDuplicateLayer, name)
			}
		}
	}

	n, err := newNode(len(g.nodes), l)
	if err != nil {
		return err
	}
	g.nodes = append(g.nodes, n)
	g.byID[l.ID()] = n
	return nil
}

// Connect feeds the output of from into to.
//
// from must produce output (data or forward layer) and to must consume
// input (forward or sink layer). A layer with several inputs receives their
// outputs concatenated per batch element, in connection order.
func (g *Graph) Connect(from, to layer.Layer) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.building(); err != nil {
		return err
	}
	src, err := g.lookup(from)
	if err != nil {
		return err
	}
	dst, err := g.lookup(to)
	if err != nil {
		return err
	}

	if !src.producesOutput() {
		return fmt.Errorf("%w: %s has no output", ErrInvalidEdge, src)
	}
	if !dst.consumesInput() {
		return fmt.Errorf("%w: %s has no input", ErrInvalidEdge, dst)
	}
	if src == dst {
		return fmt.Errorf("%w: %s connected to itself", ErrInvalidEdge, src)
	}
	for _, in := range dst.inputs {
		if in == src {
			return fmt.Errorf("%w: %s already feeds %s", ErrInvalidEdge, src, dst)
		}
	}

	dst.inputs = append(dst.inputs, src)
	src.consumers = append(src.consumers, dst)
	return nil
}

// Build validates the graph and initializes every layer once.
//
// Size mismatches are reported as *layer.SizeMismatchError, layer and
// allocation failures as *layer.InitializationError. Any failure is final:
// everything allocated so far is released and the graph refuses all further
// operations.
func (g *Graph) Build(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.building(); err != nil {
		return err
	}

	if err := g.build(ctx); err != nil {
		g.engine.Release(g.buffers...)
		g.buffers = nil
		g.forwardPlan = nil
		g.backwardPlan = nil
		g.state = stateFailed
		g.err = err
		g.log.Debug("graph build failed", "error", err)
		return err
	}

	g.state = stateBuilt
	g.log.Debug("graph built",
		"layers", len(g.order),
		"batch_size", g.cfg.BatchSize,
		"training", g.cfg.Training,
		"buffers", len(g.buffers),
		"forward_invocations", len(g.forwardPlan),
		"backward_invocations", len(g.backwardPlan))
	return nil
}

func (g *Graph) build(ctx context.Context) error {
	batch := g.cfg.BatchSize
	if batch < 1 {
		return fmt.Errorf("graph: batch size must be at least 1, got %d", batch)
	}

	if err := g.validate(); err != nil {
		return err
	}

	order, err := g.sort()
	if err != nil {
		return err
	}
	g.order = order

	if err := g.allocate(batch); err != nil {
		return err
	}
	if err := g.wire(batch); err != nil {
		return err
	}
	if err := g.initializeForward(ctx, batch); err != nil {
		return err
	}
	if g.cfg.Training {
		if err := g.initializeBackward(ctx, batch); err != nil {
			return err
		}
	}

	g.plan()
	return nil
}

// validate checks that declared sizes still hold, that every consumer's
// input size equals the sum of its producers' output sizes and that sinks
// with a fixed batch size match the graph.
func (g *Graph) validate() error {
	hasLoss := false
	for _, n := range g.nodes {
		if err := n.checkSizesUnchanged(); err != nil {
			return err
		}
		if n.loss != nil {
			hasLoss = true
		}
		if n.sink != nil {
			if err := g.checkSinkBatch(n); err != nil {
				return err
			}
		}
		if !n.consumesInput() {
			continue
		}
		if len(n.inputs) == 0 {
			return fmt.Errorf("%w: %s has no connected inputs", ErrInvalidEdge, n)
		}
		sum := 0
		for _, in := range n.inputs {
			sum += in.outputSize
		}
		if sum != n.inputSize {
			return &layer.SizeMismatchError{
				Layer: layer.Describe(n.layer),
				What:  "input size vs connected output sizes",
				Want:  n.inputSize,
				Got:   sum,
			}
		}
	}
	if g.cfg.Training && !hasLoss {
		return ErrNoLoss
	}
	return nil
}

// batchSized is implemented by sinks whose batch size is fixed at
// construction.
type batchSized interface {
	BatchSize() int
}

// checkSinkBatch rejects a sink built for a different batch size.
func (g *Graph) checkSinkBatch(n *node) error {
	fixed, ok := n.sink.(batchSized)
	if !ok || fixed.BatchSize() == g.cfg.BatchSize {
		return nil
	}
	return &layer.SizeMismatchError{
		Layer: layer.Describe(n.layer),
		What:  "sink batch size vs graph batch size",
		Want:  g.cfg.BatchSize,
		Got:   fixed.BatchSize(),
	}
}

// sort orders the nodes topologically (Kahn), keeping insertion order among
// independent nodes.
func (g *Graph) sort() ([]*node, error) {
	indegree := make(map[*node]int, len(g.nodes))
	var queue []*node
	for _, n := range g.nodes {
		indegree[n] = len(n.inputs)
		if len(n.inputs) == 0 {
			queue = append(queue, n)
		}
	}

	order := make([]*node, 0, len(g.nodes))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		order = append(order, n)
		for _, c := range n.consumers {
			indegree[c]--
			if indegree[c] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if len(order) != len(g.nodes) {
		return nil, fmt.Errorf("%w: %d of %d layers unreachable in topological order", ErrCycle, len(g.nodes)-len(order), len(g.nodes))
	}
	return order, nil
}

// allocate creates the buffers connecting layers.
func (g *Graph) allocate(batch int) error {
	for _, n := range g.order {
		var err error
		if n.producesOutput() {
			if n.output, err = g.alloc(n, "output", batch*n.outputSize); err != nil {
				return err
			}
		}
		if n.consumesInput() {
			if n.input, err = g.alloc(n, "input", batch*n.inputSize); err != nil {
				return err
			}
		}
		if !g.cfg.Training || n.bwd == nil {
			continue
		}
		if n.inputDeltas, err = g.alloc(n, "input_deltas", batch*n.inputSize); err != nil {
			return err
		}
		if n.loss == nil {
			if n.outputDeltas, err = g.alloc(n, "output_deltas", batch*n.outputSize); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) alloc(n *node, name string, size int) (layer.Buffer, error) {
	buf, err := g.engine.NewBuffer(n.key()+"."+name, size)
	if err != nil {
		return nil, &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "allocation", Err: err}
	}
	g.buffers = append(g.buffers, buf)
	return buf, nil
}

// wire creates the invocations moving data between layers: gathering
// producer outputs into consumer inputs, and summing consumer input deltas
// into producer output deltas.
func (g *Graph) wire(batch int) error {
	rows := float32(batch)
	for _, n := range g.order {
		offset := 0
		for _, in := range n.inputs {
			inv, err := g.engine.NewInvocation(kernel.CopyColumns,
				[]layer.Buffer{in.output, n.input},
				[]float32{rows, float32(in.outputSize), float32(n.inputSize), float32(offset)},
				layer.Grid{Width: batch * in.outputSize})
			if err != nil {
				return &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "wiring", Err: err}
			}
			n.gather = append(n.gather, inv)
			offset += in.outputSize
		}
	}

	if !g.cfg.Training {
		return nil
	}
	for _, n := range g.order {
		if n.outputDeltas == nil {
			continue
		}
		inv, err := g.engine.NewInvocation(kernel.Fill, []layer.Buffer{n.outputDeltas}, []float32{0},
			layer.Grid{Width: n.outputDeltas.Len()})
		if err != nil {
			return &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "wiring", Err: err}
		}
		n.scatter = append(n.scatter, inv)

		for _, c := range n.consumers {
			if c.inputDeltas == nil {
				continue
			}
			inv, err := g.engine.NewInvocation(kernel.AccumulateColumns,
				[]layer.Buffer{c.inputDeltas, n.outputDeltas},
				[]float32{rows, float32(c.inputSize), float32(n.outputSize), float32(c.offsetOf(n))},
				layer.Grid{Width: batch * n.outputSize})
			if err != nil {
				return &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "wiring", Err: err}
			}
			n.scatter = append(n.scatter, inv)
		}
	}
	return nil
}

func (g *Graph) initializeForward(ctx context.Context, batch int) error {
	for _, n := range g.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.fwd == nil {
			continue
		}
		b := &builder{g: g, prefix: n.key(), input: n.input, output: n.output}
		if err := n.fwd.InitializeForward(b, batch); err != nil {
			return &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "forward", Err: err}
		}
		invs, err := readInvocations(n, "forward", n.fwd.ForwardInvocations)
		if err != nil {
			return err
		}
		n.forward = invs
	}
	return nil
}

func (g *Graph) initializeBackward(ctx context.Context, batch int) error {
	for _, n := range g.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		if n.bwd == nil {
			continue
		}
		b := &builder{
			g:            g,
			prefix:       n.key(),
			input:        n.input,
			output:       n.output,
			inputDeltas:  n.inputDeltas,
			outputDeltas: n.outputDeltas,
		}
		if err := n.bwd.InitializeBackward(b, batch); err != nil {
			return &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: "backward", Err: err}
		}
		invs, err := readInvocations(n, "backward", n.bwd.BackwardInvocations)
		if err != nil {
			return err
		}
		n.backward = invs
	}
	return nil
}

// readInvocations reads a layer's invocation list twice and checks that
// both reads return the same list. Panics raised by the layer are turned
// into initialization errors.
func readInvocations(n *node, phase string, read func() []layer.Invocation) (invs []layer.Invocation, err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("%v: %w", r, layer.ErrContractViolation)
			}
			invs = nil
			err = &layer.InitializationError{Layer: layer.Describe(n.layer), Phase: phase, Err: cause}
		}
	}()

	first := read()
	second := read()
	if first == nil {
		panic(&layer.ContractViolation{Layer: layer.Describe(n.layer), Reason: phase + " invocation list is nil"})
	}
	if !sameList(first, second) {
		panic(&layer.ContractViolation{Layer: layer.Describe(n.layer), Reason: phase + " invocation list changed between reads"})
	}
	return first, nil
}

func sameList(a, b []layer.Invocation) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) > 0 && &a[0] != &b[0] {
		return false
	}
	return true
}

// plan concatenates the per-layer invocations into the pass plans.
func (g *Graph) plan() {
	for _, n := range g.order {
		g.forwardPlan = append(g.forwardPlan, n.gather...)
		g.forwardPlan = append(g.forwardPlan, n.forward...)
	}
	if !g.cfg.Training {
		return
	}
	for i := len(g.order) - 1; i >= 0; i-- {
		n := g.order[i]
		if n.bwd == nil {
			continue
		}
		g.backwardPlan = append(g.backwardPlan, n.scatter...)
		g.backwardPlan = append(g.backwardPlan, n.backward...)
	}
}

// Release frees every buffer the graph allocated. The graph cannot be used
// afterwards.
func (g *Graph) Release() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.state == stateReleased {
		return
	}
	g.engine.Release(g.buffers...)
	g.buffers = nil
	g.forwardPlan = nil
	g.backwardPlan = nil
	g.state = stateReleased
}

// Err returns the build error of a failed graph, or nil.
func (g *Graph) Err() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.err
}

func (g *Graph) building() error {
	switch g.state {
	case stateBuilt:
		return ErrAlreadyBuilt
	case stateFailed:
		return fmt.Errorf("%w: %w", ErrBuildFailed, g.err)
	case stateReleased:
		return ErrReleased
	}
	return nil
}

func (g *Graph) ready() error {
	switch g.state {
	case stateBuilding:
		return ErrNotBuilt
	case stateFailed:
		return fmt.Errorf("%w: %w", ErrBuildFailed, g.err)
	case stateReleased:
		return ErrReleased
	}
	return nil
}

func (g *Graph) lookup(l layer.Layer) (*node, error) {
	if layer.IsNil(l) {
		return nil, fmt.Errorf("%w: nil layer", ErrUnknownLayer)
	}
	n, ok := g.byID[l.ID()]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLayer, layer.Describe(l))
	}
	return n, nil
}
