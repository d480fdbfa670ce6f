package arena

import "unsafe"

// Vector is a growable sequence stored in fixed-size chunks. Elements never
// move once appended, so pointers returned by Ptr stay valid.
type Vector[T any] struct {
	budget *Linear
	chunk  int
	chunks [][]T
	n      int
}

// NewVector creates a vector that reserves chunk elements at a time from budget.
func NewVector[T any](budget *Linear, chunk int) *Vector[T] {
	if chunk <= 0 {
		chunk = 256
	}
	return &Vector[T]{budget: budget, chunk: chunk}
}

// Append adds x to the end of the vector.
func (v *Vector[T]) Append(x T) error {
	if v.n == len(v.chunks)*v.chunk {
		var zero T
		if v.budget != nil {
			if _, err := v.budget.Allocate(int(unsafe.Sizeof(zero))*v.chunk, int(unsafe.Alignof(zero))); err != nil {
				return err
			}
		}
		v.chunks = append(v.chunks, make([]T, v.chunk))
	}
	v.chunks[v.n/v.chunk][v.n%v.chunk] = x
	v.n++
	return nil
}

// At returns element i.
func (v *Vector[T]) At(i int) T { return v.chunks[i/v.chunk][i%v.chunk] }

// Ptr returns a pointer to element i.
func (v *Vector[T]) Ptr(i int) *T { return &v.chunks[i/v.chunk][i%v.chunk] }

// Set overwrites element i.
func (v *Vector[T]) Set(i int, x T) { v.chunks[i/v.chunk][i%v.chunk] = x }

// Len returns the number of elements.
func (v *Vector[T]) Len() int { return v.n }

// Reset empties the vector and keeps its chunks for reuse.
func (v *Vector[T]) Reset() { v.n = 0 }
