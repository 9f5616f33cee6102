package abi

import (
	"errors"
	"fmt"
	"reflect"
	"runtime"
	"strings"
	"unsafe"
)

// ErrLayoutMismatch is matched by every *MismatchError.
var ErrLayoutMismatch = errors.New("struct layout does not match native header")

// Field is one member of a struct layout.
type Field struct {
	Name   string
	Offset uintptr
	Size   uintptr
}

// Layout is the memory image of a struct.
type Layout struct {
	Name   string
	Size   uintptr
	Align  uintptr
	Fields []Field
}

// String renders the layout as an indented table.
func (l Layout) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s size=%d align=%d\n", l.Name, l.Size, l.Align)
	for _, f := range l.Fields {
		fmt.Fprintf(&b, "  %-14s +%-4d %d\n", f.Name, f.Offset, f.Size)
	}
	return b.String()
}

// Describe returns the Go layout of the struct v (a value or pointer).
func Describe(v any) Layout {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	l := Layout{Name: t.Name(), Size: t.Size(), Align: uintptr(t.Align())}
	if t.Kind() != reflect.Struct {
		return l
	}
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		l.Fields = append(l.Fields, Field{Name: f.Name, Offset: f.Offset, Size: f.Type.Size()})
	}
	return l
}

// MismatchError lists the differences found by Verify.
type MismatchError struct {
	Struct string
	Diffs  []string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("layout of %s differs from native header: %s", e.Struct, strings.Join(e.Diffs, "; "))
}

// Is lets errors.Is match ErrLayoutMismatch.
func (e *MismatchError) Is(target error) bool { return target == ErrLayoutMismatch }

// Verify compares the Go layout of v with the native layout want. Field
// names are not compared; order, offsets and sizes are.
func Verify(v any, want Layout) error {
	got := Describe(v)
	var diffs []string
	if got.Size != want.Size {
		diffs = append(diffs, fmt.Sprintf("size %d, native %d", got.Size, want.Size))
	}
	if got.Align != want.Align {
		diffs = append(diffs, fmt.Sprintf("align %d, native %d", got.Align, want.Align))
	}
	if len(got.Fields) != len(want.Fields) {
		diffs = append(diffs, fmt.Sprintf("%d fields, native %d", len(got.Fields), len(want.Fields)))
	} else {
		for i, f := range got.Fields {
			w := want.Fields[i]
			if f.Offset != w.Offset || f.Size != w.Size {
				diffs = append(diffs, fmt.Sprintf("%s at +%d (%d bytes), native %s at +%d (%d bytes)",
					f.Name, f.Offset, f.Size, w.Name, w.Offset, w.Size))
			}
		}
	}
	if len(diffs) > 0 {
		return &MismatchError{Struct: got.Name, Diffs: diffs}
	}
	return nil
}

// CField declares one member of a native struct for CLayout.
type CField struct {
	Name  string
	Size  uintptr
	Align uintptr
}

// CLayout lays out fields with C struct rules: each member at the next
// multiple of its alignment, total size rounded to the largest alignment.
func CLayout(name string, fields ...CField) Layout {
	l := Layout{Name: name, Align: 1}
	var off uintptr
	for _, f := range fields {
		off = alignUp(off, f.Align)
		l.Fields = append(l.Fields, Field{Name: f.Name, Offset: off, Size: f.Size})
		off += f.Size
		if f.Align > l.Align {
			l.Align = f.Align
		}
	}
	l.Size = alignUp(off, l.Align)
	return l
}

func alignUp(n, a uintptr) uintptr {
	if a <= 1 {
		return n
	}
	return (n + a - 1) &^ (a - 1)
}

var ptrSize = unsafe.Sizeof(uintptr(0))

// int64Align is the C alignment of a 64-bit integer member on this target.
func int64Align() uintptr {
	if runtime.GOARCH == "386" {
		return 4
	}
	return 8
}

func ptr(name string) CField { return CField{Name: name, Size: ptrSize, Align: ptrSize} }
func i32(name string) CField { return CField{Name: name, Size: 4, Align: 4} }
func f32(name string) CField { return CField{Name: name, Size: 4, Align: 4} }
func i64(name string) CField { return CField{Name: name, Size: 8, Align: int64Align()} }

func array(name string, n, size, align uintptr) CField {
	return CField{Name: name, Size: n * size, Align: align}
}

// Entry pairs a Go mirror with its native header layout.
type Entry struct {
	Value  any
	Native Layout
}

// Catalog returns every mirrored struct with its native layout.
func Catalog() []Entry {
	return []Entry{
		{PlaybackInfo{}, CLayout("PlaybackInfo", ptr("player"), i32("playback_id"), i32("cue_id"))},
		{BeatSyncInfo{}, CLayout("BeatSyncInfo", ptr("player"), i32("playback_id"), i32("bar_count"),
			i32("beat_count"), i32("num_beats"), f32("bpm"), i32("offset"))},
		{SequenceEventInfo{}, CLayout("SequenceEventInfo", i64("position"), ptr("player"), ptr("string"),
			i32("playback_id"), i32("type"), i32("id"), i32("value"))},
		{Vector{}, CLayout("Vector", f32("x"), f32("y"), f32("z"))},
		{RandomPositionConfig{}, CLayout("RandomPositionConfig", i32("calculation_type"),
			array("calculation_parameters", 3, 4, 4))},
		{BusIndexTable{}, CLayout("BusIndexTable", i32("num_buses"), array("indices", 64, 2, 2), i32("flags"))},
		{OutputPortConfig{}, CLayout("OutputPortConfig", ptr("name"), i32("type"), i32("num_channels"))},
		{AcfLocationInfo{}, CLayout("AcfLocationInfo", i32("type"), array("info", 2, ptrSize, ptrSize))},
		{AcfLocationName{}, CLayout("AcfLocationName", ptr("binder"), ptr("path"))},
		{AcfLocationID{}, CLayout("AcfLocationID", ptr("binder"), i32("id"))},
		{AcfLocationData{}, CLayout("AcfLocationData", ptr("buffer"), i32("size"))},
	}
}

// VerifyAll checks every catalog entry and joins the mismatches.
func VerifyAll() error {
	var errs []error
	for _, e := range Catalog() {
		if err := Verify(e.Value, e.Native); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
