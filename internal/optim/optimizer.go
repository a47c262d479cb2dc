// Package optim implements optimization algorithms for training graphs.
//
// An optimizer turns every (values, deltas) parameter pair reported by a
// trainable layer into invocations applying one update step. State buffers
// (velocities, moment estimates) and the invocations are created the first
// time a pair is seen and replayed on every later step.
//
// Example usage:
//
//	optimizer := optim.NewAdam(engine, optim.AdamConfig{LR: 0.001})
//	defer optimizer.Release()
//
//	for step := range steps {
//	    loss, err := g.Step(ctx, optimizer)
//	    if err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"fmt"
	"sync"

	"github.com/born-ml/braincore/internal/layer"
)

// Engine allocates optimizer state and creates update invocations.
type Engine interface {
	NewBuffer(name string, size int) (layer.Buffer, error)
	NewInvocation(kernel string, buffers []layer.Buffer, values []float32, grid layer.Grid) (layer.Invocation, error)
	Release(buffers ...layer.Buffer)
}

// Optimizer is the interface implemented by all optimizers.
type Optimizer interface {
	// EncodeUpdate returns the invocations applying one update step to
	// values using deltas. The same invocations are returned for the same
	// pair on every call.
	EncodeUpdate(values, deltas layer.Buffer) ([]layer.Invocation, error)

	// GetLR returns the learning rate.
	GetLR() float32

	// Release frees all optimizer state.
	Release()
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float32 // Learning rate
}

type entry struct {
	deltas      layer.Buffer
	invocations []layer.Invocation
}

// state caches per-parameter update invocations and owns their buffers.
type state struct {
	engine Engine

	mu      sync.Mutex
	entries map[layer.Buffer]*entry
	buffers []layer.Buffer
}

func newState(engine Engine) state {
	return state{engine: engine, entries: make(map[layer.Buffer]*entry)}
}

// encode returns the cached invocations for (values, deltas), building them
// with build on first use. build allocates through alloc so that its
// buffers are released with the optimizer.
func (s *state) encode(values, deltas layer.Buffer, build func(alloc func(suffix string, size int) (layer.Buffer, error)) ([]layer.Invocation, error)) ([]layer.Invocation, error) {
	if values == nil || deltas == nil {
		return nil, fmt.Errorf("optim: nil parameter buffer: %w", layer.ErrContractViolation)
	}
	if values.Len() != deltas.Len() {
		return nil, &layer.SizeMismatchError{What: fmt.Sprintf("deltas of parameter %q", values.Name()), Want: values.Len(), Got: deltas.Len()}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.entries[values]; ok {
		if e.deltas != deltas {
			return nil, fmt.Errorf("optim: parameter %q encoded with different deltas: %w", values.Name(), layer.ErrContractViolation)
		}
		return e.invocations, nil
	}

	var allocated []layer.Buffer
	alloc := func(suffix string, size int) (layer.Buffer, error) {
		buf, err := s.engine.NewBuffer(values.Name()+"."+suffix, size)
		if err != nil {
			return nil, err
		}
		allocated = append(allocated, buf)
		return buf, nil
	}

	invs, err := build(alloc)
	if err != nil {
		s.engine.Release(allocated...)
		return nil, fmt.Errorf("optim: parameter %q: %w", values.Name(), err)
	}

	s.buffers = append(s.buffers, allocated...)
	s.entries[values] = &entry{deltas: deltas, invocations: invs}
	return invs, nil
}

func (s *state) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Release(s.buffers...)
	s.buffers = nil
	s.entries = make(map[layer.Buffer]*entry)
}
