package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/born-ml/braincore/internal/backend/cpu"
	"github.com/born-ml/braincore/internal/data"
	"github.com/born-ml/braincore/internal/nn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xorYAML = `
batch_size: 4
steps: 1500
seed: 7
optimizer:
  type: adam
  lr: 0.05
layers:
  - {type: data, name: inputs, size: 2, values: [0, 0, 0, 1, 1, 0, 1, 1]}
  - {type: data, name: labels, size: 1, values: [0, 1, 1, 0]}
  - {type: linear, name: hidden, size: 8, inputs: [inputs]}
  - {type: tanh, name: act, inputs: [hidden]}
  - {type: linear, name: out, size: 1, inputs: [act]}
  - {type: sigmoid, name: prob, inputs: [out]}
  - {type: collector, name: predictions, inputs: [prob]}
  - {type: l2_loss, name: loss, inputs: [prob, labels]}
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("layers:\n  - {type: data, name: x, size: 1, values: [1]}\n"))
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.BatchSize)
	assert.Equal(t, 100, cfg.LogEvery)
	assert.Equal(t, OptimizerSGD, cfg.Optimizer.Type)
	assert.False(t, cfg.HasLoss())
}

func TestParse_XOR(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.BatchSize)
	assert.Equal(t, 1500, cfg.Steps)
	assert.Equal(t, OptimizerAdam, cfg.Optimizer.Type)
	assert.InDelta(t, 0.05, cfg.Optimizer.LR, 1e-9)
	require.Len(t, cfg.Layers, 8)
	assert.Equal(t, []string{"prob", "labels"}, cfg.Layers[7].Inputs)
	assert.True(t, cfg.HasLoss())
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown field", "bogus: 1\nlayers: [{type: data, name: x, size: 1, values: [1]}]"},
		{"no layers", "batch_size: 2"},
		{"negative batch", "batch_size: -1\nlayers: [{type: data, name: x, size: 1, values: [1]}]"},
		{"unknown optimizer", "optimizer: {type: rmsprop}\nlayers: [{type: data, name: x, size: 1, values: [1]}]"},
		{"unknown type", "layers: [{type: conv, name: x}]"},
		{"missing name", "layers: [{type: data, size: 1, values: [1]}]"},
		{"duplicate name", "layers: [{type: data, name: x, size: 1, values: [1]}, {type: data, name: x, size: 1, values: [1]}]"},
		{"forward reference", "layers: [{type: relu, name: r, inputs: [x]}, {type: data, name: x, size: 1, values: [1]}]"},
		{"ragged values", "layers: [{type: data, name: x, size: 2, values: [1, 2, 3]}]"},
		{"data with inputs", "layers: [{type: data, name: x, size: 1, values: [1]}, {type: data, name: y, size: 1, values: [1], inputs: [x]}]"},
		{"linear without size", "layers: [{type: data, name: x, size: 1, values: [1]}, {type: linear, name: l, inputs: [x]}]"},
		{"loss with one input", "layers: [{type: data, name: x, size: 1, values: [1]}, {type: l2_loss, name: l, inputs: [x]}]"},
		{"text without source", "layers: [{type: text, name: t, size: 4}]"},
		{"targets of data", "layers: [{type: data, name: x, size: 1, values: [1]}, {type: targets, name: y, inputs: [x]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "xor.yaml")
	require.NoError(t, os.WriteFile(path, []byte(xorYAML), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Layers, 8)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestBuildGraph_TrainsXOR(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	ctx := context.Background()
	net, err := cfg.BuildGraph(ctx, cpu.New(), nil)
	require.NoError(t, err)
	defer net.Release()

	assert.Equal(t, []string{"inputs", "labels", "hidden", "act", "out", "prob", "predictions", "loss"}, net.Order)
	assert.IsType(t, &nn.Linear{}, net.Layers["hidden"])
	assert.Equal(t, 2, net.Layers["hidden"].(*nn.Linear).InputSize())
	assert.Equal(t, 2, net.Layers["loss"].(*nn.L2Loss).InputSize())

	var first, last float32
	for step := range cfg.Steps {
		loss, err := net.Graph.Step(ctx, net.Optimizer)
		require.NoError(t, err)
		if step == 0 {
			first = loss
		}
		last = loss
	}
	assert.Less(t, last, first)
	assert.Less(t, last, float32(0.05))

	predictions := net.Layers["predictions"].(*data.Collector).Last()
	require.Len(t, predictions, 4)
	want := []float32{0, 1, 1, 0}
	for i, p := range predictions {
		assert.InDelta(t, want[i], p, 0.3, "sample %d", i)
	}
}

func TestBuildGraph_TextWindows(t *testing.T) {
	cfg, err := Parse([]byte(`
batch_size: 2
seed: 3
layers:
  - {type: text, name: text, size: 4, text: "hello world, hello graph"}
  - {type: targets, name: next, inputs: [text]}
  - {type: linear, name: proj, size: 1, inputs: [text]}
  - {type: l2_loss, name: loss, inputs: [proj, next]}
`))
	require.NoError(t, err)

	ctx := context.Background()
	net, err := cfg.BuildGraph(ctx, cpu.New(), nil)
	require.NoError(t, err)
	defer net.Release()

	_, err = net.Graph.Step(ctx, net.Optimizer)
	require.NoError(t, err)
}

func TestBuildGraph_CapacityExceeded(t *testing.T) {
	cfg, err := Parse([]byte(xorYAML))
	require.NoError(t, err)

	engine := cpu.NewWithConfig(cpu.Config{Capacity: 16})
	_, err = cfg.BuildGraph(context.Background(), engine, nil)
	require.Error(t, err)
	assert.Equal(t, 0, engine.Stats().AllocatedValues)
}
