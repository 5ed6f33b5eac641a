package memory

// Ring is a bounded FIFO window. Pushing beyond capacity evicts the oldest entry.
// Not safe for concurrent use; the owning Store is guarded by its caller.
type Ring[T any] struct {
	buf  []T
	head int // index of the oldest entry
	size int
}

// NewRing creates a window holding at most capacity entries.
// A capacity below one is raised to one.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry when full.
// It reports whether an entry was evicted.
func (r *Ring[T]) Push(v T) bool {
	capacity := len(r.buf)
	if r.size < capacity {
		r.buf[(r.head+r.size)%capacity] = v
		r.size++
		return false
	}
	r.buf[r.head] = v
	r.head = (r.head + 1) % capacity
	return true
}

// Len returns the number of entries held.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the configured capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Items returns a copy of the entries, newest first.
func (r *Ring[T]) Items() []T {
	return r.Latest(r.size)
}

// Latest returns a copy of at most n entries, newest first.
func (r *Ring[T]) Latest(n int) []T {
	if n > r.size {
		n = r.size
	}
	if n < 0 {
		n = 0
	}
	out := make([]T, 0, n)
	for i := 0; i < n; i++ {
		idx := (r.head + r.size - 1 - i) % len(r.buf)
		out = append(out, r.buf[idx])
	}
	return out
}
