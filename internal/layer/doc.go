// Package layer defines the layer contracts of the BrainCore graph engine.
//
// A layer is any value with an identity. What it can do in a graph is decided by
// the capability interfaces it satisfies, not by its concrete type:
//   - DataLayer: produces batches (graph input)
//   - ForwardLayer: transforms an input batch into an output batch
//   - BackwardLayer: ForwardLayer that also propagates gradients
//   - TrainableLayer: owns parameters and their deltas
//   - LossLayer: BackwardLayer that terminates the forward graph
//   - SinkLayer: consumes final network output, no gradient path
//
// Forward and backward layers are built in two phases. A one-time
// initialization sizes buffers and registers invocations through a builder;
// afterwards the invocation list is read on every pass and replayed unchanged
// by the execution engine:
//
//	func (l *MyLayer) InitializeForward(b layer.ForwardInvocationBuilder, batchSize int) error {
//	    return l.forward.Initialize(func() ([]layer.Invocation, error) {
//	        inv, err := b.MakeInvocation(kernel.ReLUForward,
//	            []layer.Buffer{b.InputBuffer(), b.OutputBuffer()}, nil,
//	            layer.Grid{Width: batchSize * l.size})
//	        if err != nil {
//	            return nil, err
//	        }
//	        return []layer.Invocation{inv}, nil
//	    })
//	}
//
//	func (l *MyLayer) ForwardInvocations() []layer.Invocation {
//	    return l.forward.Invocations()
//	}
package layer
