package graph

import "errors"

// Graph errors.
var (
	ErrAlreadyBuilt   = errors.New("graph: already built")
	ErrNotBuilt       = errors.New("graph: not built")
	ErrBuildFailed    = errors.New("graph: build failed")
	ErrReleased       = errors.New("graph: released")
	ErrCycle          = errors.New("graph: cycle detected")
	ErrUnknownLayer   = errors.New("graph: layer not in graph")
	ErrDuplicateLayer = errors.New("graph: layer already added")
	ErrNotTraining    = errors.New("graph: not built for training")
	ErrNoLoss         = errors.New("graph: training requires a loss layer")
	ErrInvalidLayer   = errors.New("graph: invalid layer")
	ErrInvalidEdge    = errors.New("graph: invalid connection")
	ErrCheckpoint     = errors.New("graph: checkpoint does not match graph")
)
