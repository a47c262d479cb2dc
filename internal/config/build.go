package config

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/born-ml/braincore/internal/data"
	"github.com/born-ml/braincore/internal/graph"
	"github.com/born-ml/braincore/internal/layer"
	"github.com/born-ml/braincore/internal/nn"
	"github.com/born-ml/braincore/internal/optim"
	"github.com/born-ml/braincore/internal/tokenizer"
)

// Network is a built training graph together with its layers and optimizer.
type Network struct {
	Graph     *graph.Graph
	Optimizer optim.Optimizer
	Layers    map[string]layer.Layer
	Order     []string // Layer names in description order
}

// Release frees the graph and the optimizer state.
func (n *Network) Release() {
	n.Optimizer.Release()
	n.Graph.Release()
}

// BuildGraph creates the layers, connects them and builds the graph on
// engine. The graph is built for training if it contains a loss layer.
// logger may be nil.
func (c *Config) BuildGraph(ctx context.Context, engine graph.Engine, logger *slog.Logger) (*Network, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	g := graph.New(engine, graph.Config{BatchSize: c.BatchSize, Training: c.HasLoss(), Logger: logger})

	net := &Network{Graph: g, Layers: make(map[string]layer.Layer, len(c.Layers))}
	sizes := make(map[string]int, len(c.Layers))

	for _, lc := range c.Layers {
		inputSize := 0
		for _, in := range lc.Inputs {
			inputSize += sizes[in]
		}

		l, outputSize, err := c.newLayer(lc, inputSize, net.Layers)
		if err != nil {
			return nil, fmt.Errorf("layer %q: %w", lc.Name, err)
		}
		if err := g.Add(l); err != nil {
			return nil, err
		}
		for _, in := range lc.Inputs {
			if lc.Type == TypeTargets {
				break
			}
			if err := g.Connect(net.Layers[in], l); err != nil {
				return nil, err
			}
		}

		net.Layers[lc.Name] = l
		net.Order = append(net.Order, lc.Name)
		sizes[lc.Name] = outputSize
	}

	if err := g.Build(ctx); err != nil {
		return nil, err
	}

	switch c.Optimizer.Type {
	case OptimizerAdam:
		net.Optimizer = optim.NewAdam(engine, optim.AdamConfig{
			LR:    c.Optimizer.LR,
			Betas: [2]float32{c.Optimizer.Beta1, c.Optimizer.Beta2},
			Eps:   c.Optimizer.Eps,
		})
	default:
		net.Optimizer = optim.NewSGD(engine, optim.SGDConfig{LR: c.Optimizer.LR, Momentum: c.Optimizer.Momentum})
	}
	return net, nil
}

// newLayer creates the layer described by lc and returns it with its output
// size per batch element.
func (c *Config) newLayer(lc LayerConfig, inputSize int, built map[string]layer.Layer) (layer.Layer, int, error) {
	switch lc.Type {
	case TypeData:
		src, err := data.NewSliceSource(lc.Name, lc.Size, lc.Values)
		return src, lc.Size, err
	case TypeText:
		src, err := newTokenSource(lc)
		return src, lc.Size, err
	case TypeTargets:
		src, ok := built[lc.Inputs[0]].(*data.TokenSource)
		if !ok {
			return nil, 0, fmt.Errorf("input %q is not a text layer", lc.Inputs[0])
		}
		return src.Targets(lc.Name), 1, nil
	case TypeLinear:
		l, err := nn.NewLinearWithConfig(nn.LinearConfig{
			Name:       lc.Name,
			InputSize:  inputSize,
			OutputSize: lc.Size,
			Seed:       c.seedFor(lc.Name),
		})
		return l, lc.Size, err
	case TypeReLU:
		return nn.NewReLU(lc.Name, inputSize), inputSize, nil
	case TypeSigmoid:
		return nn.NewSigmoid(lc.Name, inputSize), inputSize, nil
	case TypeTanh:
		return nn.NewTanh(lc.Name, inputSize), inputSize, nil
	case TypeL2Loss:
		if inputSize%2 != 0 {
			return nil, 0, &layer.SizeMismatchError{Layer: lc.Name, What: "predictions and labels", Want: inputSize + 1, Got: inputSize}
		}
		return nn.NewL2Loss(lc.Name, inputSize/2), 1, nil
	case TypeCollector:
		return data.NewCollector(lc.Name, inputSize, c.BatchSize), 0, nil
	}
	return nil, 0, fmt.Errorf("unknown type %q", lc.Type)
}

// seedFor derives a per-layer seed so layers do not share initial weights.
func (c *Config) seedFor(name string) uint64 {
	if c.Seed == 0 {
		return 0
	}
	h := c.Seed
	for i := 0; i < len(name); i++ {
		h = h*1099511628211 ^ uint64(name[i])
	}
	if h == 0 {
		h = 1
	}
	return h
}

// HasLoss reports whether the description contains a loss layer.
func (c *Config) HasLoss() bool {
	for _, l := range c.Layers {
		if l.Type == TypeL2Loss {
			return true
		}
	}
	return false
}

func newTokenSource(lc LayerConfig) (*data.TokenSource, error) {
	var tok tokenizer.Tokenizer
	if lc.Tokenizer == "byte" {
		tok = tokenizer.NewByteLevel()
	} else {
		tt, err := tokenizer.NewTikToken(lc.Tokenizer)
		if err != nil {
			return nil, err
		}
		tok = tt
	}

	text := lc.Text
	if lc.File != "" {
		b, err := os.ReadFile(lc.File)
		if err != nil {
			return nil, fmt.Errorf("read text: %w", err)
		}
		text = string(b)
	}
	return data.NewTokenSource(lc.Name, tok, text, lc.Size)
}
