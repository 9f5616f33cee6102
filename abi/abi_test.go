package abi

import (
	"errors"
	"strings"
	"testing"
	"unsafe"

	"github.com/opd-ai/atomgo/nativeref"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogMatchesNativeHeaders(t *testing.T) {
	for _, e := range Catalog() {
		t.Run(e.Native.Name, func(t *testing.T) {
			assert.NoError(t, Verify(e.Value, e.Native))
			assert.Equal(t, e.Native.Name, Describe(e.Value).Name)
		})
	}
	assert.NoError(t, VerifyAll())
}

func TestInlineArrayFieldsKeepNativeOffsets(t *testing.T) {
	var tbl BusIndexTable
	assert.Equal(t, uintptr(4), unsafe.Offsetof(tbl.Indices))
	assert.Equal(t, uintptr(4+64*2), unsafe.Offsetof(tbl.Flags))
	assert.Equal(t, uintptr(136), unsafe.Sizeof(tbl))

	var cfg RandomPositionConfig
	assert.Equal(t, uintptr(4), unsafe.Offsetof(cfg.Params))
	assert.Equal(t, uintptr(16), unsafe.Sizeof(cfg))
}

func TestVerifyDetectsMismatch(t *testing.T) {
	type reordered struct {
		CueID      int32
		Player     uintptr
		PlaybackID uint32
	}
	native := Catalog()[0].Native

	err := Verify(reordered{}, native)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLayoutMismatch))

	var me *MismatchError
	require.True(t, errors.As(err, &me))
	assert.Equal(t, "reordered", me.Struct)
	assert.NotEmpty(t, me.Diffs)
}

func TestVerifyDetectsFieldCount(t *testing.T) {
	type short struct{ X, Y float32 }
	err := Verify(short{}, CLayout("Vector", f32("x"), f32("y"), f32("z")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 fields, native 3")
}

func TestCLayoutPadding(t *testing.T) {
	l := CLayout("padded",
		CField{Name: "a", Size: 1, Align: 1},
		CField{Name: "b", Size: 8, Align: 8},
		CField{Name: "c", Size: 2, Align: 2},
	)
	assert.Equal(t, uintptr(0), l.Fields[0].Offset)
	assert.Equal(t, uintptr(8), l.Fields[1].Offset)
	assert.Equal(t, uintptr(16), l.Fields[2].Offset)
	assert.Equal(t, uintptr(24), l.Size)
	assert.Equal(t, uintptr(8), l.Align)
}

func TestDescribePointer(t *testing.T) {
	l := Describe(&Vector{})
	assert.Equal(t, "Vector", l.Name)
	assert.Len(t, l.Fields, 3)
	assert.True(t, strings.HasPrefix(l.String(), "Vector size=12 align=4\n"))
}

func TestAcfLocationArms(t *testing.T) {
	tests := []struct {
		name string
		loc  AcfLocationInfo
		want AcfLocationType
	}{
		{"name", NewAcfLocationName(0x10, 0x20), AcfLocationTypeName},
		{"id", NewAcfLocationID(0x10, 7), AcfLocationTypeID},
		{"data", NewAcfLocationData(0x30, 512), AcfLocationTypeOnMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			loc := tt.loc
			assert.Equal(t, tt.want, loc.Type)

			nativeref.With(func(s *nativeref.Scope) {
				r := nativeref.NewRef[AcfLocationInfo](s, unsafe.Pointer(&loc))
				_, nameErr := nativeref.ArmOf[AcfLocationName](r)
				_, idErr := nativeref.ArmOf[AcfLocationID](r)
				_, dataErr := nativeref.ArmOf[AcfLocationData](r)

				matched := 0
				for _, err := range []error{nameErr, idErr, dataErr} {
					if err == nil {
						matched++
					} else {
						assert.ErrorIs(t, err, nativeref.ErrWrongArm)
					}
				}
				assert.Equal(t, 1, matched, "exactly one arm must match")
			})
		})
	}
}

func TestAcfLocationPayloadValues(t *testing.T) {
	loc := NewAcfLocationData(0x1000, 2048)
	nativeref.With(func(s *nativeref.Scope) {
		arm, err := nativeref.ArmOf[AcfLocationData](nativeref.NewRef[AcfLocationInfo](s, unsafe.Pointer(&loc)))
		require.NoError(t, err)
		v, err := arm.Deref()
		require.NoError(t, err)
		assert.Equal(t, uintptr(0x1000), v.Buffer)
		assert.Equal(t, int32(2048), v.Size)
	})
}
