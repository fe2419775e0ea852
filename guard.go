package goduck

import "sync/atomic"

type guardState uint32

const (
	guardAbsent guardState = iota
	guardPresent
	guardReleased
	guardClosed
)

func (s guardState) String() string {
	switch s {
	case guardAbsent:
		return "absent"
	case guardPresent:
		return "present"
	case guardReleased:
		return "released"
	case guardClosed:
		return "closed"
	default:
		return "?"
	}
}

// Guard owns a native handle and the routine that frees it. The routine runs
// at most once: on the first Close of an owning guard that still holds the
// handle. A guard that was never given a handle (Absent), whose handle was
// handed off (Release), or that is only a View never runs it.
type Guard[T any] struct {
	handle  T
	dealloc func(T)
	owner   bool
	state   atomic.Uint32
}

// Acquire wraps handle, taking ownership of it.
func Acquire[T any](handle T, dealloc func(T)) *Guard[T] {
	g := &Guard[T]{handle: handle, dealloc: dealloc, owner: true}
	g.state.Store(uint32(guardPresent))
	return g
}

// AcquireNonZero is Acquire for handle kinds where the zero value means the
// engine did not hand anything out (a nil pointer, typically).
func AcquireNonZero[T comparable](handle T, dealloc func(T)) *Guard[T] {
	var zero T
	if handle == zero {
		return Absent[T]()
	}
	return Acquire(handle, dealloc)
}

// Absent returns a guard holding nothing.
func Absent[T any]() *Guard[T] {
	return &Guard[T]{owner: true}
}

func (g *Guard[T]) load() guardState {
	return guardState(g.state.Load())
}

// Present reports whether the guard currently holds a handle.
func (g *Guard[T]) Present() bool {
	return g.load() == guardPresent
}

// Get returns the handle and whether it is present.
func (g *Guard[T]) Get() (T, bool) {
	if !g.Present() {
		var zero T
		return zero, false
	}
	return g.handle, true
}

// Borrow returns the handle, or the zero value when there is none.
func (g *Guard[T]) Borrow() T {
	h, _ := g.Get()
	return h
}

// BorrowMut returns a pointer to the held handle, or nil.
func (g *Guard[T]) BorrowMut() *T {
	if !g.Present() {
		return nil
	}
	return &g.handle
}

// View returns a non-owning guard over the same handle. Closing or
// releasing the view never touches the original.
func (g *Guard[T]) View() *Guard[T] {
	v := &Guard[T]{handle: g.handle}
	v.state.Store(uint32(g.load()))
	return v
}

// Release hands the handle out of the guard without freeing it.
func (g *Guard[T]) Release() (T, bool) {
	if !g.state.CompareAndSwap(uint32(guardPresent), uint32(guardReleased)) {
		var zero T
		return zero, false
	}
	return g.handle, true
}

// Close frees the handle if the guard owns one. Safe to call repeatedly and
// from several goroutines.
func (g *Guard[T]) Close() {
	if !g.state.CompareAndSwap(uint32(guardPresent), uint32(guardClosed)) {
		return
	}
	if g.owner && g.dealloc != nil {
		g.dealloc(g.handle)
	}
}

func (g *Guard[T]) String() string {
	return "guard(" + g.load().String() + ")"
}
