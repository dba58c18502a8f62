package anomaly

import "iter"

// window keeps the last capacity values pushed into it.
type window struct {
	buffer []float64
	size   int
	index  int
}

func newWindow(capacity int) *window {
	return &window{
		buffer: make([]float64, max(capacity, 1)),
	}
}

func (w *window) push(value float64) {
	w.buffer[w.index] = value
	w.index = (w.index + 1) % len(w.buffer)
	w.size = min(w.size+1, len(w.buffer))
}

func (w *window) len() int {
	return w.size
}

func (w *window) full() bool {
	return w.size == len(w.buffer)
}

// values iterates from the oldest to the newest value.
func (w *window) values() iter.Seq[float64] {
	return func(yield func(float64) bool) {
		start := (w.index - w.size + len(w.buffer)) % len(w.buffer)
		for i := range w.size {
			if !yield(w.buffer[(start+i)%len(w.buffer)]) {
				return
			}
		}
	}
}

// last returns the newest n values, oldest first.
func (w *window) last(n int) []float64 {
	n = min(n, w.size)
	out := make([]float64, 0, n)

	skip := w.size - n
	for v := range w.values() {
		if skip > 0 {
			skip--
			continue
		}
		out = append(out, v)
	}

	return out
}
