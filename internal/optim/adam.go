package optim

import (
	"github.com/born-ml/braincore/internal/kernel"
	"github.com/born-ml/braincore/internal/layer"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// Each parameter keeps its own step counter in a one-value state buffer, so
// parameters join the bias correction schedule when they are first updated.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	state
	lr    float32
	beta1 float32
	beta2 float32
	eps   float32
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float32    // Learning rate (default: 0.001)
	Betas [2]float32 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float32    // Term for numerical stability (default: 1e-8)
}

// NewAdam creates a new Adam optimizer allocating its state on engine.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(engine Engine, config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}
	return &Adam{
		state: newState(engine),
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
	}
}

// EncodeUpdate returns the Adam step for one parameter.
func (o *Adam) EncodeUpdate(values, deltas layer.Buffer) ([]layer.Invocation, error) {
	return o.encode(values, deltas, func(alloc func(string, int) (layer.Buffer, error)) ([]layer.Invocation, error) {
		m, err := alloc("adam_m", values.Len())
		if err != nil {
			return nil, err
		}
		v, err := alloc("adam_v", values.Len())
		if err != nil {
			return nil, err
		}
		step, err := alloc("adam_step", 1)
		if err != nil {
			return nil, err
		}
		inv, err := o.engine.NewInvocation(kernel.AdamUpdate,
			[]layer.Buffer{values, deltas, m, v, step},
			[]float32{o.lr, o.beta1, o.beta2, o.eps},
			layer.Grid{Width: values.Len()})
		if err != nil {
			return nil, err
		}
		return []layer.Invocation{inv}, nil
	})
}

// GetLR returns the learning rate.
func (o *Adam) GetLR() float32 {
	return o.lr
}

// Release frees all moment and step buffers.
func (o *Adam) Release() {
	o.release()
}
