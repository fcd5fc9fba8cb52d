// Package arena provides handle-addressed storage for values that are
// cross-referenced by several structures at once.
//
// A Handle stays valid until the slot it names is removed. Removed slots are
// tombstoned and never handed out again by the same Arena, so two handles
// compare equal only if they name the same logical value for the whole
// lifetime of the Arena.
package arena

import (
	"errors"
	"fmt"
)

// ErrInvalidHandle is returned (or carried by a panic from MustGet) when a
// handle names a removed or never issued slot.
var ErrInvalidHandle = errors.New("arena: invalid handle")

// Handle is an opaque reference to a value stored in an Arena.
type Handle uint32

// Nil is never issued by an Arena and stands for "no value".
const Nil Handle = 0

// HandleError describes a failed lookup.
type HandleError struct {
	Handle Handle
	Op     string
}

func (e *HandleError) Error() string {
	return fmt.Sprintf("arena: %s: invalid handle %d", e.Op, e.Handle)
}

func (e *HandleError) Unwrap() error { return ErrInvalidHandle }

type slot[T any] struct {
	value T
	live  bool
}

// Arena stores values of type T addressed by Handle.
//
// Pointers returned by Get and MustGet stay valid until the next Insert.
type Arena[T any] struct {
	slots []slot[T]
	live  int
}

// New creates an Arena with room for capacity values before it has to grow.
func New[T any](capacity int) *Arena[T] {
	if capacity < 0 {
		capacity = 0
	}
	// slot 0 backs Nil and is never live
	return &Arena[T]{slots: make([]slot[T], 1, capacity+1)}
}

// Insert stores value and returns its handle.
func (a *Arena[T]) Insert(value T) Handle {
	a.slots = append(a.slots, slot[T]{value: value, live: true})
	a.live++
	return Handle(len(a.slots) - 1)
}

// Contains reports whether h names a live value.
func (a *Arena[T]) Contains(h Handle) bool {
	return h != Nil && int(h) < len(a.slots) && a.slots[h].live
}

// Get returns a pointer to the value named by h.
func (a *Arena[T]) Get(h Handle) (*T, error) {
	if !a.Contains(h) {
		return nil, &HandleError{Handle: h, Op: "get"}
	}
	return &a.slots[h].value, nil
}

// MustGet is like Get but panics with a *HandleError on a bad handle.
// Inside an algorithm run a bad handle is a logic error, not an input error.
func (a *Arena[T]) MustGet(h Handle) *T {
	v, err := a.Get(h)
	if err != nil {
		panic(err)
	}
	return v
}

// Remove tombstones the slot named by h. The handle is not reused.
func (a *Arena[T]) Remove(h Handle) error {
	if !a.Contains(h) {
		return &HandleError{Handle: h, Op: "remove"}
	}
	var zero T
	a.slots[h] = slot[T]{value: zero}
	a.live--
	return nil
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.live }

// Issued returns the number of handles handed out so far, live or not.
func (a *Arena[T]) Issued() int { return len(a.slots) - 1 }

// Each calls fn for every live value in insertion order. Iteration stops
// when fn returns false. fn must not insert into the Arena.
func (a *Arena[T]) Each(fn func(h Handle, v *T) bool) {
	for i := 1; i < len(a.slots); i++ {
		if !a.slots[i].live {
			continue
		}
		if !fn(Handle(i), &a.slots[i].value) {
			return
		}
	}
}
