// Package inline provides fixed-capacity arrays that sit inside structs passed
// to the native engine by value.
//
// Each ArrayN[T] has exactly the memory image of the C declaration T[N]: size
// N*sizeof(T), alignment of T, no header and no padding. Embedding one in a
// struct therefore keeps every following field at its native offset.
//
// Index access is bounds-checked and returns *IndexError instead of touching
// memory outside the array, so an out-of-range index can never alias a
// neighboring struct field.
package inline
