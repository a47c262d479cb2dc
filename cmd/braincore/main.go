// Package main provides the BrainCore CLI.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"

	"github.com/born-ml/braincore/internal/config"
	"github.com/born-ml/braincore/internal/data"
	"github.com/born-ml/braincore/internal/serialization"
)

const version = "v0.1.0-dev"

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "version":
		fmt.Printf("BrainCore %s\n", version)
	case "train":
		if err := train(os.Args[2:]); err != nil {
			log.Fatalf("train: %v", err)
		}
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("BrainCore - layer graphs on pluggable execution engines")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version    Show version")
	fmt.Println("  train      Train a network described in YAML")
	fmt.Println("")
	fmt.Println("Run 'braincore train -h' for train options.")
}

func train(args []string) error {
	fs := flag.NewFlagSet("train", flag.ExitOnError)
	configPath := fs.String("config", "", "Network description (YAML)")
	checkpoint := fs.String("checkpoint", "", "Write trained parameters to this .brnc file")
	resume := fs.String("resume", "", "Load parameters from this .brnc file before training")
	export := fs.String("export", "", "Write trained parameters to this .safetensors file")
	engineName := fs.String("engine", "cpu", "Execution engine: cpu or webgpu")
	verbose := fs.Bool("v", false, "Log graph construction")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return errors.New("-config is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	engine, closeEngine, err := newEngine(*engineName, cfg.Capacity)
	if err != nil {
		return err
	}
	defer closeEngine()

	net, err := cfg.BuildGraph(ctx, engine, logger)
	if err != nil {
		return err
	}
	defer net.Release()

	fmt.Printf("Engine: %s\n", engine.Name())
	fmt.Printf("Layers: %d, batch size: %d, steps: %d\n\n", len(net.Order), cfg.BatchSize, cfg.Steps)

	if !cfg.HasLoss() {
		return infer(ctx, cfg, net)
	}

	var step int64
	if *resume != "" {
		header, err := loadCheckpoint(net, *resume)
		if err != nil {
			return err
		}
		step = header.Step
		fmt.Printf("Resumed from %s at step %d\n", *resume, step)
	}

	var loss float32
	for i := 1; i <= cfg.Steps; i++ {
		loss, err = net.Graph.Step(ctx, net.Optimizer)
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		step++
		if i%cfg.LogEvery == 0 || i == cfg.Steps {
			fmt.Printf("step %6d  loss %.6f\n", step, loss)
		}
	}

	metadata := map[string]string{"config": *configPath, "optimizer": cfg.Optimizer.Type}
	if *checkpoint != "" {
		header := serialization.Header{
			Step:     step,
			Loss:     loss,
			HasLoss:  cfg.Steps > 0,
			Metadata: metadata,
		}
		if err := saveCheckpoint(net, *checkpoint, header); err != nil {
			return err
		}
		fmt.Printf("\nCheckpoint written to %s\n", *checkpoint)
	}
	if *export != "" {
		if err := exportSafeTensors(net, *export, metadata); err != nil {
			return err
		}
		fmt.Printf("Parameters exported to %s\n", *export)
	}
	return nil
}

// infer runs forward passes of a graph without a loss layer and prints the
// last batch of every collector.
func infer(ctx context.Context, cfg *config.Config, net *config.Network) error {
	passes := max(cfg.Steps, 1)
	for i := 0; i < passes; i++ {
		if err := net.Graph.Forward(ctx); err != nil {
			return fmt.Errorf("forward %d: %w", i+1, err)
		}
	}
	for _, name := range net.Order {
		c, ok := net.Layers[name].(*data.Collector)
		if !ok {
			continue
		}
		fmt.Printf("%s: %v\n", name, c.Last())
	}
	return nil
}

func saveCheckpoint(net *config.Network, path string, header serialization.Header) error {
	//nolint:gosec // G304: Output path comes from the command line
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create checkpoint: %w", err)
	}
	if err := net.Graph.SaveCheckpoint(f, header); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func exportSafeTensors(net *config.Network, path string, metadata map[string]string) error {
	//nolint:gosec // G304: Output path comes from the command line
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create safetensors: %w", err)
	}
	if err := net.Graph.ExportSafeTensors(f, metadata); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

func loadCheckpoint(net *config.Network, path string) (serialization.Header, error) {
	//nolint:gosec // G304: Input path comes from the command line
	f, err := os.Open(path)
	if err != nil {
		return serialization.Header{}, fmt.Errorf("open checkpoint: %w", err)
	}
	defer func() { _ = f.Close() }()
	return net.Graph.LoadCheckpoint(f)
}
