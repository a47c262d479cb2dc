// Package config loads network descriptions from YAML.
//
// A description lists the layers of a graph in order; every layer names the
// earlier layers feeding it. Input sizes are inferred from the producers.
//
//	batch_size: 4
//	steps: 2000
//	optimizer:
//	  type: adam
//	  lr: 0.05
//	layers:
//	  - {type: data, name: inputs, size: 2, values: [0, 0, 0, 1, 1, 0, 1, 1]}
//	  - {type: data, name: labels, size: 1, values: [0, 1, 1, 0]}
//	  - {type: linear, name: hidden, size: 8, inputs: [inputs]}
//	  - {type: tanh, name: act, inputs: [hidden]}
//	  - {type: linear, name: out, size: 1, inputs: [act]}
//	  - {type: l2_loss, name: loss, inputs: [out, labels]}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Layer types.
const (
	TypeData      = "data"    // SliceSource: size, values
	TypeText      = "text"    // TokenSource: size (window), tokenizer, text or file
	TypeTargets   = "targets" // Next-token targets of a text layer
	TypeLinear    = "linear"  // size (outputs)
	TypeReLU      = "relu"
	TypeSigmoid   = "sigmoid"
	TypeTanh      = "tanh"
	TypeL2Loss    = "l2_loss"   // Inputs: predictions, then labels
	TypeCollector = "collector" // Sink keeping the last batch
)

// Optimizer types.
const (
	OptimizerSGD  = "sgd"
	OptimizerAdam = "adam"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid network description")

// Config describes a network and how to train it.
type Config struct {
	BatchSize int             `yaml:"batch_size"` // Default: 1
	Steps     int             `yaml:"steps"`      // Training steps
	LogEvery  int             `yaml:"log_every"`  // Default: 100
	Seed      uint64          `yaml:"seed"`       // Weight initialization seed (0: random)
	Capacity  int             `yaml:"capacity"`   // Engine capacity in values (0: unlimited)
	Optimizer OptimizerConfig `yaml:"optimizer"`
	Layers    []LayerConfig   `yaml:"layers"`
}

// OptimizerConfig selects and configures the optimizer.
type OptimizerConfig struct {
	Type     string  `yaml:"type"` // "sgd" or "adam" (default: "sgd")
	LR       float32 `yaml:"lr"`
	Momentum float32 `yaml:"momentum"` // SGD only
	Beta1    float32 `yaml:"beta1"`    // Adam only
	Beta2    float32 `yaml:"beta2"`    // Adam only
	Eps      float32 `yaml:"eps"`      // Adam only
}

// LayerConfig describes one layer.
type LayerConfig struct {
	Type   string    `yaml:"type"`
	Name   string    `yaml:"name"`
	Size   int       `yaml:"size"`
	Inputs []string  `yaml:"inputs"`
	Values []float32 `yaml:"values"`

	Tokenizer string `yaml:"tokenizer"` // "byte" or a tiktoken encoding (default: "byte")
	Text      string `yaml:"text"`
	File      string `yaml:"file"`
}

// Load reads and validates a description from path.
func Load(path string) (*Config, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for config loading
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates a description. Unknown fields are rejected.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.BatchSize == 0 {
		c.BatchSize = 1
	}
	if c.LogEvery == 0 {
		c.LogEvery = 100
	}
	if c.Optimizer.Type == "" {
		c.Optimizer.Type = OptimizerSGD
	}
	for i := range c.Layers {
		if c.Layers[i].Type == TypeText && c.Layers[i].Tokenizer == "" {
			c.Layers[i].Tokenizer = "byte"
		}
	}
}

// Validate checks the description without building anything.
func (c *Config) Validate() error {
	if c.BatchSize < 1 {
		return invalid("batch_size must be at least 1, got %d", c.BatchSize)
	}
	if c.Steps < 0 {
		return invalid("steps must not be negative, got %d", c.Steps)
	}
	if c.Capacity < 0 {
		return invalid("capacity must not be negative, got %d", c.Capacity)
	}
	if !slices.Contains([]string{OptimizerSGD, OptimizerAdam}, c.Optimizer.Type) {
		return invalid("unknown optimizer %q", c.Optimizer.Type)
	}
	if len(c.Layers) == 0 {
		return invalid("no layers")
	}

	defined := make(map[string]string, len(c.Layers))
	for i, l := range c.Layers {
		if l.Name == "" {
			return invalid("layer %d: missing name", i)
		}
		if _, dup := defined[l.Name]; dup {
			return invalid("layer %q defined twice", l.Name)
		}
		for _, in := range l.Inputs {
			if _, ok := defined[in]; !ok {
				return invalid("layer %q: input %q is not defined before it", l.Name, in)
			}
		}
		if err := l.validate(defined); err != nil {
			return err
		}
		defined[l.Name] = l.Type
	}
	return nil
}

func (l *LayerConfig) validate(defined map[string]string) error {
	switch l.Type {
	case TypeData:
		if len(l.Inputs) > 0 {
			return invalid("layer %q: data layers take no inputs", l.Name)
		}
		if l.Size <= 0 {
			return invalid("layer %q: size must be positive", l.Name)
		}
		if len(l.Values) == 0 || len(l.Values)%l.Size != 0 {
			return invalid("layer %q: %d values are not a positive multiple of size %d", l.Name, len(l.Values), l.Size)
		}
	case TypeText:
		if len(l.Inputs) > 0 {
			return invalid("layer %q: text layers take no inputs", l.Name)
		}
		if l.Size <= 0 {
			return invalid("layer %q: window size must be positive", l.Name)
		}
		if (l.Text == "") == (l.File == "") {
			return invalid("layer %q: exactly one of text and file is required", l.Name)
		}
	case TypeTargets:
		if len(l.Inputs) != 1 || defined[l.Inputs[0]] != TypeText {
			return invalid("layer %q: targets take exactly one text layer input", l.Name)
		}
	case TypeLinear:
		if l.Size <= 0 {
			return invalid("layer %q: size must be positive", l.Name)
		}
		fallthrough
	case TypeReLU, TypeSigmoid, TypeTanh, TypeCollector:
		if len(l.Inputs) == 0 {
			return invalid("layer %q: needs at least one input", l.Name)
		}
	case TypeL2Loss:
		if len(l.Inputs) != 2 {
			return invalid("layer %q: l2_loss takes predictions and labels", l.Name)
		}
	default:
		return invalid("layer %q: unknown type %q", l.Name, l.Type)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}
