package layer

import "errors"

var (
	// ErrNotFound is returned when no layer provides a requested file.
	ErrNotFound = errors.New("file not found in any layer")
	// ErrMissingLayer is returned when a layer depends on, or a caller names,
	// a layer that is not part of the stack.
	ErrMissingLayer = errors.New("missing layer")
	// ErrCyclicLayers is returned when layer dependencies form a cycle.
	ErrCyclicLayers = errors.New("cyclic layer dependencies")
	// ErrReadOnly is returned when writing into a read-only layer.
	ErrReadOnly = errors.New("layer is read-only")
	// ErrInvalidPath is returned for logical paths that are absolute or
	// escape the layer root.
	ErrInvalidPath = errors.New("invalid logical path")
)
