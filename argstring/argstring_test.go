package argstring

import (
	"strings"
	"testing"

	"github.com/opd-ai/atomgo/limits"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	tests := []struct {
		name  string
		text  string
		field limits.Field
	}{
		{"empty", "", limits.FieldName},
		{"ascii", "MasterOut", limits.FieldName},
		{"utf8 cue name", "se_爆発_01", limits.FieldName},
		{"max length name", strings.Repeat("a", limits.MaxNameLength), limits.FieldName},
		{"max length path", strings.Repeat("p", limits.MaxPathLength), limits.FieldPath},
		{"max length port", strings.Repeat("o", limits.MaxOutputPortNameLength), limits.FieldOutputPortName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var scratch [ScratchSize]byte
			s, err := Encode(scratch[:0], tt.text, tt.field)
			require.NoError(t, err)

			assert.Equal(t, len(tt.text), s.Len())
			assert.Equal(t, BufferSize(tt.text), s.BufferSize())
			assert.Equal(t, &scratch[0], s.Ptr(), "encoding should reuse the scratch buffer")
			assert.Equal(t, byte(0), scratch[s.Len()], "buffer must be NUL-terminated")

			got, err := Decode(s.Bytes())
			require.NoError(t, err)
			assert.Equal(t, tt.text, got)
		})
	}
}

func TestOverLengthFailsDeterministically(t *testing.T) {
	tests := []struct {
		field limits.Field
		max   int
	}{
		{limits.FieldName, limits.MaxNameLength},
		{limits.FieldOutputPortName, limits.MaxOutputPortNameLength},
		{limits.FieldPath, limits.MaxPathLength},
	}

	for _, tt := range tests {
		t.Run(tt.field.String(), func(t *testing.T) {
			text := strings.Repeat("x", tt.max+1)
			for i := 0; i < 3; i++ {
				s, err := Encode(nil, text, tt.field)
				assert.ErrorIs(t, err, limits.ErrTooLong)
				assert.Nil(t, s.Ptr(), "failed encode must not expose a buffer")
			}
		})
	}
}

func TestMultiByteLengthCountsBytes(t *testing.T) {
	// 43 three-byte runes = 129 bytes, one over the name limit.
	text := strings.Repeat("音", 43)
	_, err := Encode(nil, text, limits.FieldName)
	assert.ErrorIs(t, err, limits.ErrTooLong)

	ok := strings.Repeat("音", 42)
	s, err := Encode(nil, ok, limits.FieldName)
	require.NoError(t, err)
	assert.Equal(t, 126, s.Len())
}

func TestRejectsBeforeNativeCall(t *testing.T) {
	_, err := Encode(nil, "bad\xffname", limits.FieldName)
	assert.ErrorIs(t, err, ErrInvalidUTF8)

	_, err = Encode(nil, "bus\x00name", limits.FieldName)
	assert.ErrorIs(t, err, ErrEmbeddedNUL)
}

func TestBufferSizeDeterministic(t *testing.T) {
	assert.Equal(t, 1, BufferSize(""))
	assert.Equal(t, 10, BufferSize("MasterOut"))
	assert.Equal(t, 7, BufferSize("爆発"))

	nfc := NewEncoder(WithNFC(true))
	assert.Equal(t, 3*9+1, nfc.BufferSize("MasterOut"))
}

func TestSmallScratchFallsBackToHeap(t *testing.T) {
	scratch := make([]byte, 0, 4)
	s, err := Encode(scratch, "LongerThanFour", limits.FieldName)
	require.NoError(t, err)
	assert.Equal(t, "LongerThanFour", string(s.Bytes()))
	assert.NotEqual(t, cap(scratch), cap(s.buf))
}

func TestNoAllocationWithStackScratch(t *testing.T) {
	allocs := testing.AllocsPerRun(100, func() {
		var scratch [ScratchSize]byte
		s, err := Encode(scratch[:0], "BusA", limits.FieldName)
		if err != nil || s.Len() != 4 {
			t.Fatal("unexpected encode result")
		}
	})
	assert.Equal(t, float64(0), allocs)
}

func TestNFCNormalization(t *testing.T) {
	decomposed := "Cafe\u0301"
	enc := NewEncoder(WithNFC(true))

	s, err := enc.Encode(nil, decomposed, limits.FieldName)
	require.NoError(t, err)
	assert.Equal(t, "Caf\u00e9", string(s.Bytes()))

	plain, err := Encode(nil, decomposed, limits.FieldName)
	require.NoError(t, err)
	assert.Equal(t, decomposed, string(plain.Bytes()))
}

func TestShiftJISRoundTrip(t *testing.T) {
	enc := NewEncoder(WithEncoding(ShiftJIS))
	texts := []string{"", "MasterOut", "キュー_爆発", strings.Repeat("あ", 64)}

	for _, text := range texts {
		var scratch [ScratchSize]byte
		s, err := enc.Encode(scratch[:0], text, limits.FieldName)
		require.NoError(t, err, "text %q", text)
		assert.LessOrEqual(t, s.Len()+1, enc.BufferSize(text))

		got, err := enc.Decode(s.Bytes())
		require.NoError(t, err)
		assert.Equal(t, text, got)
	}
}

func TestShiftJISUnrepresentable(t *testing.T) {
	enc := NewEncoder(WithEncoding(ShiftJIS))
	s, err := enc.Encode(nil, "emoji 🎵", limits.FieldName)
	assert.ErrorIs(t, err, ErrUnrepresentable)
	assert.Nil(t, s.Ptr())
}

func TestShiftJISCountsEncodedBytes(t *testing.T) {
	enc := NewEncoder(WithEncoding(ShiftJIS))
	// 64 kana are 192 bytes of UTF-8 but 128 bytes of Shift_JIS.
	s, err := enc.Encode(nil, strings.Repeat("あ", 64), limits.FieldName)
	require.NoError(t, err)
	assert.Equal(t, 128, s.Len())

	_, err = enc.Encode(nil, strings.Repeat("あ", 65), limits.FieldName)
	assert.ErrorIs(t, err, limits.ErrTooLong)
}

func TestReadNative(t *testing.T) {
	buf := []byte("Cue_01\x00garbage")
	got, err := Default.ReadNative(&buf[0], limits.MaxNameLength)
	require.NoError(t, err)
	assert.Equal(t, "Cue_01", got)

	got, err = Default.ReadNative(nil, 8)
	require.NoError(t, err)
	assert.Equal(t, "", got)

	unterminated := []byte("abcd")
	_, err = Default.ReadNative(&unterminated[0], 3)
	assert.ErrorIs(t, err, ErrUnterminated)
}

func TestParseEncoding(t *testing.T) {
	tests := []struct {
		in      string
		want    Encoding
		wantErr bool
	}{
		{"", UTF8, false},
		{"UTF-8", UTF8, false},
		{"utf8", UTF8, false},
		{"Shift_JIS", ShiftJIS, false},
		{"sjis", ShiftJIS, false},
		{"latin1", UTF8, true},
	}
	for _, tt := range tests {
		got, err := ParseEncoding(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
	assert.Equal(t, "shift_jis", ShiftJIS.String())
}
