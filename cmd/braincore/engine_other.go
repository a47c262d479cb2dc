//go:build !windows

package main

import (
	"errors"
	"fmt"
)

// newEngine creates the named engine and returns it with its teardown.
// Only the CPU engine is available on this platform.
func newEngine(name string, capacity int) (namedEngine, func(), error) {
	switch name {
	case "cpu":
		return newCPUEngine(capacity)
	case "webgpu":
		return nil, nil, errors.New("webgpu engine is only available on windows")
	}
	return nil, nil, fmt.Errorf("unknown engine %q", name)
}
