// Package ringbuf provides a fixed-capacity FIFO window used for the rolling
// indicator histories and the dashboard replay window. Pushing into a full
// window evicts the oldest element.
// Not safe for concurrent use; callers that share a window must lock.
package ringbuf

// Window is a bounded ring of the most recent values, oldest first.
type Window[T any] struct {
	buf  []T
	head int // index of the oldest element
	n    int
}

// New creates a window holding at most capacity values. Minimum capacity is 1.
func New[T any](capacity int) *Window[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Window[T]{buf: make([]T, capacity)}
}

// Push appends v. When the window is full the oldest value is evicted and
// returned with ok=true.
func (w *Window[T]) Push(v T) (evicted T, ok bool) {
	if w.n < len(w.buf) {
		w.buf[(w.head+w.n)%len(w.buf)] = v
		w.n++
		return evicted, false
	}
	evicted = w.buf[w.head]
	w.buf[w.head] = v
	w.head = (w.head + 1) % len(w.buf)
	return evicted, true
}

// Values returns a copy of the window contents, oldest first.
func (w *Window[T]) Values() []T {
	out := make([]T, w.n)
	for i := 0; i < w.n; i++ {
		out[i] = w.buf[(w.head+i)%len(w.buf)]
	}
	return out
}

// Last returns the newest value.
func (w *Window[T]) Last() (T, bool) {
	var zero T
	if w.n == 0 {
		return zero, false
	}
	return w.buf[(w.head+w.n-1)%len(w.buf)], true
}

// Len returns the number of values held.
func (w *Window[T]) Len() int { return w.n }

// Cap returns the window capacity.
func (w *Window[T]) Cap() int { return len(w.buf) }

// Full reports whether the next Push will evict.
func (w *Window[T]) Full() bool { return w.n == len(w.buf) }

// Reset empties the window.
func (w *Window[T]) Reset() {
	var zero T
	for i := range w.buf {
		w.buf[i] = zero
	}
	w.head, w.n = 0, 0
}

// Load replaces the contents with values, keeping only the newest Cap() of them.
func (w *Window[T]) Load(values []T) {
	w.Reset()
	if len(values) > len(w.buf) {
		values = values[len(values)-len(w.buf):]
	}
	for _, v := range values {
		w.Push(v)
	}
}
