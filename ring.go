package mlem

// RingBuffer is a fixed capacity buffer that overwrites its oldest value once
// full. Cursor always points at the most recently written value.
type RingBuffer[T any] struct {
	Buffer []T
	Cursor int
	Count  int // number of values written, saturating at len(Buffer)
}

func MakeRingBuffer[T any](capacity int) RingBuffer[T] {
	return RingBuffer[T]{Buffer: make([]T, capacity)}
}

func (r *RingBuffer[T]) WriteWrapSingle(value T) {
	if len(r.Buffer) == 0 {
		return
	}
	r.Cursor = (r.Cursor + 1) % len(r.Buffer)
	r.Buffer[r.Cursor] = value
	if r.Count < len(r.Buffer) {
		r.Count++
	}
}

// Newest iterates over the written values, from the newest to the oldest.
func (r *RingBuffer[T]) Newest(yield func(T) bool) {
	l := len(r.Buffer)
	for i := 0; i < r.Count; i++ {
		if !yield(r.Buffer[(r.Cursor-i+l)%l]) {
			return
		}
	}
}

// Last returns the most recently written value; ok is false if nothing has
// been written yet.
func (r *RingBuffer[T]) Last() (value T, ok bool) {
	if r.Count == 0 {
		return value, false
	}
	return r.Buffer[r.Cursor], true
}

// Reset forgets all the values and zeroes the storage, keeping the capacity.
func (r *RingBuffer[T]) Reset() {
	r.Cursor = 0
	r.Count = 0
	clear(r.Buffer)
}
