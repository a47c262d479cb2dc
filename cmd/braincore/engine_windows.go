//go:build windows

package main

import (
	"fmt"

	"github.com/born-ml/braincore/internal/backend/webgpu"
)

// newEngine creates the named engine and returns it with its teardown.
func newEngine(name string, capacity int) (namedEngine, func(), error) {
	switch name {
	case "cpu":
		return newCPUEngine(capacity)
	case "webgpu":
		e, err := webgpu.NewWithConfig(webgpu.Config{Capacity: capacity})
		if err != nil {
			return nil, nil, fmt.Errorf("webgpu engine: %w", err)
		}
		return e, e.Close, nil
	}
	return nil, nil, fmt.Errorf("unknown engine %q", name)
}
