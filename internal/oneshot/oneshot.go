// Package oneshot wraps callbacks so the wrapped action runs at most once,
// no matter how often or from where it is triggered. The latch is set
// before the action runs, so an action that re-triggers its own hook is a
// no-op rather than a deadlock.
package oneshot

import "sync/atomic"

// Hook is a latched no-argument callback.
type Hook struct {
	fn    func()
	fired atomic.Bool
}

// New wraps fn. A nil fn is treated as a no-op.
func New(fn func()) *Hook {
	if fn == nil {
		fn = func() {}
	}
	return &Hook{fn: fn}
}

// Fire runs the callback if it has not run yet and reports whether this
// call was the one that ran it.
func (h *Hook) Fire() bool {
	if !h.fired.CompareAndSwap(false, true) {
		return false
	}
	h.fn()
	return true
}

// Fired reports whether the hook has been triggered.
func (h *Hook) Fired() bool {
	return h.fired.Load()
}

// Func is a latched single-argument callback.
type Func[T any] struct {
	fn    func(T)
	fired atomic.Bool
}

// Wrap wraps fn. A nil fn is treated as a no-op.
func Wrap[T any](fn func(T)) *Func[T] {
	if fn == nil {
		fn = func(T) {}
	}
	return &Func[T]{fn: fn}
}

// Fire runs the callback with v if it has not run yet.
func (f *Func[T]) Fire(v T) bool {
	if !f.fired.CompareAndSwap(false, true) {
		return false
	}
	f.fn(v)
	return true
}

func (f *Func[T]) Fired() bool {
	return f.fired.Load()
}
