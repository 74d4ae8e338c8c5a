// Package maperr defines the error taxonomy shared by the map core.
package maperr

import (
	"errors"
	"fmt"
)

// InvalidStateError indicates an operation was attempted in a state that does
// not allow it: activating an active tool, deactivating an inactive one,
// unsubscribing an unknown handle.
type InvalidStateError struct {
	Op     string
	Reason string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state for %s: %s", e.Op, e.Reason)
}

// CapabilityMismatchError indicates a spatial query against a layer that cannot
// answer it (raster and tile layers). Tools recover from it locally.
type CapabilityMismatchError struct {
	Layer string
	Op    string
}

func (e *CapabilityMismatchError) Error() string {
	return fmt.Sprintf("layer %q does not support %s", e.Layer, e.Op)
}

// TransformError indicates a projection forward or inverse failed for the
// given input coordinate.
type TransformError struct {
	Op         string
	X, Y       float64
	Projection string
	Reason     string
}

func (e *TransformError) Error() string {
	if e.Projection != "" {
		return fmt.Sprintf("%s (%s) failed at (%g, %g): %s", e.Op, e.Projection, e.X, e.Y, e.Reason)
	}
	return fmt.Sprintf("%s failed at (%g, %g): %s", e.Op, e.X, e.Y, e.Reason)
}

// IsInvalidState reports whether err wraps an InvalidStateError.
func IsInvalidState(err error) bool {
	var target *InvalidStateError
	return errors.As(err, &target)
}

// IsCapabilityMismatch reports whether err wraps a CapabilityMismatchError.
func IsCapabilityMismatch(err error) bool {
	var target *CapabilityMismatchError
	return errors.As(err, &target)
}

// IsTransform reports whether err wraps a TransformError.
func IsTransform(err error) bool {
	var target *TransformError
	return errors.As(err, &target)
}
