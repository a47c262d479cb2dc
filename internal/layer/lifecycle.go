package layer

import (
	"fmt"
	"sync"
)

// Phase is the initialization state of an invocation list.
type Phase int

const (
	// Uninitialized means the list has not been built yet.
	Uninitialized Phase = iota
	// Ready means the list was built and may be replayed.
	Ready
	// Failed means building the list failed. It is never readable.
	Failed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case Uninitialized:
		return "uninitialized"
	case Ready:
		return "ready"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

// InvocationList is a one-shot, replayable list of invocations.
//
// Layers embed one InvocationList per pass (forward, backward). Initialize
// may succeed once; Invocations panics unless the list is Ready. The zero
// value is an uninitialized list.
type InvocationList struct {
	mu    sync.Mutex
	phase Phase
	list  []Invocation
}

// Initialize builds the list by calling build exactly once.
//
// A second call returns an error matching both ErrAlreadyInitialized and
// ErrContractViolation. If build fails the list moves to Failed and the
// error is returned unchanged.
func (l *InvocationList) Initialize(build func() ([]Invocation, error)) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != Uninitialized {
		return fmt.Errorf("invocation list is %s: %w: %w", l.phase, ErrAlreadyInitialized, ErrContractViolation)
	}

	list, err := build()
	if err != nil {
		l.phase = Failed
		return err
	}
	for i, inv := range list {
		if inv == nil {
			l.phase = Failed
			return &ContractViolation{Reason: fmt.Sprintf("invocation %d is nil", i)}
		}
	}
	if list == nil {
		list = []Invocation{}
	}
	l.list = list
	l.phase = Ready
	return nil
}

// Invocations returns the list built by Initialize. Every call returns the
// same slice. It panics with a *ContractViolation if the list is not Ready.
func (l *InvocationList) Invocations() []Invocation {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.phase != Ready {
		panic(&ContractViolation{Reason: fmt.Sprintf("invocation list read while %s: %v", l.phase, ErrNotInitialized)})
	}
	return l.list
}

// Phase returns the current phase.
func (l *InvocationList) Phase() Phase {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.phase
}
