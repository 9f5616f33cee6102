package inline

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is matched by every *IndexError.
var ErrIndexOutOfRange = errors.New("inline array index out of range")

// Blittable lists element types whose Go and C representations agree.
type Blittable interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64 |
		~float32 | ~float64 | ~uintptr
}

// IndexError reports an access outside [0, Len).
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("inline array index %d out of range [0,%d)", e.Index, e.Len)
}

// Is lets errors.Is match ErrIndexOutOfRange.
func (e *IndexError) Is(target error) bool {
	return target == ErrIndexOutOfRange
}

// Fixed is the common surface of all ArrayN types.
type Fixed[T Blittable] interface {
	Len() int
	At(i int) (T, error)
	Set(i int, v T) error
	Values() []T
}

func at[T Blittable](s []T, i int) (T, error) {
	if i < 0 || i >= len(s) {
		var zero T
		return zero, &IndexError{Index: i, Len: len(s)}
	}
	return s[i], nil
}

func set[T Blittable](s []T, i int, v T) error {
	if i < 0 || i >= len(s) {
		return &IndexError{Index: i, Len: len(s)}
	}
	s[i] = v
	return nil
}

func values[T Blittable](s []T) []T {
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func fill[T Blittable](s []T, src []T) error {
	if len(src) > len(s) {
		return &IndexError{Index: len(src) - 1, Len: len(s)}
	}
	copy(s, src)
	return nil
}
