package inline

// Array2 mirrors the native declaration T[2].
type Array2[T Blittable] struct {
	v [2]T
}

// Array2Of copies src into a new Array2; src may be shorter than 2.
func Array2Of[T Blittable](src ...T) (Array2[T], error) {
	var a Array2[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 2.
func (a *Array2[T]) Len() int { return 2 }

// At returns element i.
func (a *Array2[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array2[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array2[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array2[T]) Array() [2]T { return a.v }

// Array3 mirrors the native declaration T[3].
type Array3[T Blittable] struct {
	v [3]T
}

// Array3Of copies src into a new Array3; src may be shorter than 3.
func Array3Of[T Blittable](src ...T) (Array3[T], error) {
	var a Array3[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 3.
func (a *Array3[T]) Len() int { return 3 }

// At returns element i.
func (a *Array3[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array3[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array3[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array3[T]) Array() [3]T { return a.v }

// Array4 mirrors the native declaration T[4].
type Array4[T Blittable] struct {
	v [4]T
}

// Array4Of copies src into a new Array4; src may be shorter than 4.
func Array4Of[T Blittable](src ...T) (Array4[T], error) {
	var a Array4[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 4.
func (a *Array4[T]) Len() int { return 4 }

// At returns element i.
func (a *Array4[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array4[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array4[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array4[T]) Array() [4]T { return a.v }

// Array8 mirrors the native declaration T[8].
type Array8[T Blittable] struct {
	v [8]T
}

// Array8Of copies src into a new Array8; src may be shorter than 8.
func Array8Of[T Blittable](src ...T) (Array8[T], error) {
	var a Array8[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 8.
func (a *Array8[T]) Len() int { return 8 }

// At returns element i.
func (a *Array8[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array8[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array8[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array8[T]) Array() [8]T { return a.v }

// Array16 mirrors the native declaration T[16].
type Array16[T Blittable] struct {
	v [16]T
}

// Array16Of copies src into a new Array16; src may be shorter than 16.
func Array16Of[T Blittable](src ...T) (Array16[T], error) {
	var a Array16[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 16.
func (a *Array16[T]) Len() int { return 16 }

// At returns element i.
func (a *Array16[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array16[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array16[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array16[T]) Array() [16]T { return a.v }

// Array32 mirrors the native declaration T[32].
type Array32[T Blittable] struct {
	v [32]T
}

// Array32Of copies src into a new Array32; src may be shorter than 32.
func Array32Of[T Blittable](src ...T) (Array32[T], error) {
	var a Array32[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 32.
func (a *Array32[T]) Len() int { return 32 }

// At returns element i.
func (a *Array32[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array32[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array32[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array32[T]) Array() [32]T { return a.v }

// Array64 mirrors the native declaration T[64].
type Array64[T Blittable] struct {
	v [64]T
}

// Array64Of copies src into a new Array64; src may be shorter than 64.
func Array64Of[T Blittable](src ...T) (Array64[T], error) {
	var a Array64[T]
	err := fill(a.v[:], src)
	return a, err
}

// Len returns 64.
func (a *Array64[T]) Len() int { return 64 }

// At returns element i.
func (a *Array64[T]) At(i int) (T, error) { return at(a.v[:], i) }

// Set stores v at element i.
func (a *Array64[T]) Set(i int, v T) error { return set(a.v[:], i, v) }

// Values returns a copy of all elements in declaration order.
func (a *Array64[T]) Values() []T { return values(a.v[:]) }

// Array returns the elements as a Go array value.
func (a *Array64[T]) Array() [64]T { return a.v }
