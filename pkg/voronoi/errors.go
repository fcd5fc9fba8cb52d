package voronoi

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateSite is returned when two input sites share both coordinates.
	ErrDuplicateSite = errors.New("voronoi: duplicate site")
	// ErrDuplicateID is returned when two input sites share an id.
	ErrDuplicateID = errors.New("voronoi: duplicate site id")
	// ErrNonFiniteSite is returned for NaN or infinite coordinates.
	ErrNonFiniteSite = errors.New("voronoi: non-finite site coordinate")

	// ErrEmptyBeachLine is reported by a beach line search on an empty tree.
	// Only the first site event expects it.
	ErrEmptyBeachLine = errors.New("voronoi: empty beach line")
	// ErrNotFound is reported when a beach line search falls off the tree.
	ErrNotFound = errors.New("voronoi: no arc above site")
	// ErrEmpty is reported by the event queue once it is drained.
	ErrEmpty = errors.New("voronoi: event queue empty")
	// ErrStaleEvent marks a circle event whose arc no longer points back at it.
	// Such events are discarded and never surface to callers.
	ErrStaleEvent = errors.New("voronoi: stale circle event")
	// ErrNonMonotonicSweep is an event popped below the current sweep line.
	ErrNonMonotonicSweep = errors.New("voronoi: sweep line moved backwards")
	// ErrEngineState is returned when an Engine method is called in the wrong state.
	ErrEngineState = errors.New("voronoi: invalid engine state")
	// ErrInvariant wraps every other structural failure inside a sweep.
	ErrInvariant = errors.New("voronoi: sweep invariant violated")
)

// invariantError is raised with panic inside the sweep and recovered by the
// Engine, which aborts the computation.
type invariantError struct {
	err error
}

func (e invariantError) Error() string { return e.err.Error() }

func (e invariantError) Unwrap() error { return e.err }

func fail(format string, args ...any) {
	panic(invariantError{fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...)})
}

func failErr(err error, format string, args ...any) {
	args = append([]any{ErrInvariant}, args...)
	panic(invariantError{fmt.Errorf("%w: "+format+": %w", append(args, err)...)})
}
