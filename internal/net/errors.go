package net

import "github.com/pkg/errors"

// Sentinel errors. Returned errors wrap one of these with call context;
// test with errors.Is.
var (
	// ErrUsage reports a violated precondition: a vector of the wrong
	// length, a non-positive width or a missing prerequisite call.
	ErrUsage = errors.New("nnlib: usage error")

	// ErrIndexOutOfRange reports a layer, neuron or edge index outside the
	// network. It wraps ErrUsage.
	ErrIndexOutOfRange = errors.Wrap(ErrUsage, "index out of range")

	// ErrOutOfMemory reports that the network graph could not be allocated.
	ErrOutOfMemory = errors.New("nnlib: out of memory")

	// ErrReleased reports use of a network after Release.
	ErrReleased = errors.New("nnlib: network released")
)

func usagef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrUsage, format, args...)
}

func rangef(format string, args ...interface{}) error {
	return errors.Wrapf(ErrIndexOutOfRange, format, args...)
}
