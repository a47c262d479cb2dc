package optim

import (
	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// SGD implements Stochastic Gradient Descent optimizer with optional momentum.
//
// Update rule:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr * velocity
//
// With zero momentum this is plain gradient descent.
//
// Example:
//
//	optimizer := optim.NewSGD(engine, optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
type SGD struct {
	state
	lr       float32
	momentum float32
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR       float32 // Learning rate (default: 0.01)
	Momentum float32 // Momentum factor (default: 0.0, range: [0, 1))
}

// NewSGD creates a new SGD optimizer allocating its state on engine.
func NewSGD(engine Engine, config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.01
	}
	return &SGD{
		state:    newState(engine),
		lr:       config.LR,
		momentum: config.Momentum,
	}
}

// EncodeUpdate returns the SGD step for one parameter.
func (o *SGD) EncodeUpdate(values, deltas layer.Buffer) ([]layer.Invocation, error) {
	return o.encode(values, deltas, func(alloc func(string, int) (layer.Buffer, error)) ([]layer.Invocation, error) {
		velocity, err := alloc("velocity", values.Len())
		if err != nil {
			return nil, err
		}
		inv, err := o.engine.NewInvocation(kernel.SGDUpdate,
			[]layer.Buffer{values, deltas, velocity},
			[]float32{o.lr, o.momentum},
			layer.Grid{Width: values.Len()})
		if err != nil {
			return nil, err
		}
		return []layer.Invocation{inv}, nil
	})
}

// GetLR returns the learning rate.
func (o *SGD) GetLR() float32 {
	return o.lr
}

// Release frees all velocity buffers.
func (o *SGD) Release() {
	o.release()
}
