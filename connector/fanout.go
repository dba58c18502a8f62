package connector

import "github.com/cockroachdb/errors"

// Fanout is a [Writer] that duplicates every item into each of its outputs.
// Items are written to the outputs in order, so the slowest output
// sets the pace of the producer.
type Fanout[T any] struct {
	outputs []Writer[T]
}

// NewFanout returns a fanout writing into outputs.
func NewFanout[T any](outputs ...Writer[T]) *Fanout[T] {
	return &Fanout[T]{
		outputs: outputs,
	}
}

// Add appends an output.
func (f *Fanout[T]) Add(output Writer[T]) {
	f.outputs = append(f.outputs, output)
}

// Len returns the number of outputs.
func (f *Fanout[T]) Len() int {
	return len(f.outputs)
}

// Write writes item into every output. It returns the combined
// errors of the outputs that refused it.
func (f *Fanout[T]) Write(item T) error {
	var errs error
	for idx, out := range f.outputs {
		if err := out.Write(item); err != nil {
			errs = errors.CombineErrors(errs, errors.Wrapf(err, "output %d", idx))
		}
	}
	return errs
}

// Close closes every output.
func (f *Fanout[T]) Close() {
	for _, out := range f.outputs {
		out.Close()
	}
}
