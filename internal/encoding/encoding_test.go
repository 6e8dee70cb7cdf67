package encoding

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
)

func TestBigEndian(t *testing.T) {
	tests := []struct {
		name   string
		value  int64
		width  int
		signed bool
		want   []byte
	}{
		{"uint16", 0x1234, 16, false, []byte{0x12, 0x34}},
		{"uint8 max", 0xff, 8, false, []byte{0xff}},
		{"int8 negative", -1, 8, true, []byte{0xff}},
		{"int16 negative", -2, 16, true, []byte{0xff, 0xfe}},
		{"uint32", 1, 32, false, []byte{0, 0, 0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, err := BigEndian.Encode(tt.value, tt.width, tt.signed)
			require.NoError(t, err)

			raw, err := bits.Bytes()
			require.NoError(t, err)
			require.Equal(t, tt.want, raw)

			back, err := BigEndian.Decode(bits, tt.signed)
			require.NoError(t, err)
			require.Equal(t, tt.value, back)
		})
	}

	t.Run("rejects sub-byte widths", func(t *testing.T) {
		_, err := BigEndian.Encode(1, 4, false)
		require.ErrorIs(t, err, ErrLengthAlignment)
	})

	t.Run("rejects out of range values", func(t *testing.T) {
		_, err := BigEndian.Encode(256, 8, false)
		require.ErrorIs(t, err, ErrValueRange)

		_, err = BigEndian.Encode(-129, 8, true)
		require.ErrorIs(t, err, ErrValueRange)

		_, err = BigEndian.Encode(-1, 8, false)
		require.ErrorIs(t, err, ErrValueRange)
	})

	t.Run("rejects bad widths", func(t *testing.T) {
		_, err := BigEndian.Encode(0, 0, false)
		require.ErrorIs(t, err, ErrWidthRange)

		_, err = BigEndian.Encode(0, 65, false)
		require.ErrorIs(t, err, ErrWidthRange)
	})
}

func TestLittleEndian(t *testing.T) {
	bits, err := LittleEndian.Encode(0x1234, 16, false)
	require.NoError(t, err)

	raw, err := bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x34, 0x12}, raw)

	back, err := LittleEndian.Decode(bits, false)
	require.NoError(t, err)
	require.Equal(t, int64(0x1234), back)

	bits, err = LittleEndian.Encode(-2, 16, true)
	require.NoError(t, err)

	raw, err = bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0xfe, 0xff}, raw)

	back, err = LittleEndian.Decode(bits, true)
	require.NoError(t, err)
	require.Equal(t, int64(-2), back)
}

func TestMSBBits(t *testing.T) {
	bits, err := MSBBits.Encode(5, 3, false)
	require.NoError(t, err)
	require.Equal(t, "101", bits.String())

	back, err := MSBBits.Decode(bits, false)
	require.NoError(t, err)
	require.Equal(t, int64(5), back)

	// Signed sub-byte widths two's-complement round trip.
	bits, err = MSBBits.Encode(-2, 4, true)
	require.NoError(t, err)
	require.Equal(t, "1110", bits.String())

	back, err = MSBBits.Decode(bits, true)
	require.NoError(t, err)
	require.Equal(t, int64(-2), back)
}

func TestDecimal(t *testing.T) {
	bits, err := Decimal.Encode(1042, 16, false)
	require.NoError(t, err)

	raw, err := bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("1042"), raw)

	back, err := Decimal.Decode(bits, false)
	require.NoError(t, err)
	require.Equal(t, int64(1042), back)

	// Signed values render with a leading minus.
	bits, err = Decimal.Encode(-7, 8, true)
	require.NoError(t, err)

	raw, err = bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("-7"), raw)

	_, err = Decimal.Encode(-7, 8, false)
	require.ErrorIs(t, err, ErrValueRange)
}

func TestVarint(t *testing.T) {
	tests := []struct {
		name  string
		value int64
		want  []byte
	}{
		{"zero is a single byte", 0, []byte{0x00}},
		{"single chunk", 0x7f, []byte{0x7f}},
		{"two chunks", 0x80, []byte{0x81, 0x00}},
		{"boundary value", 300, []byte{0x82, 0x2c}},
		{"three chunks", 1 << 14, []byte{0x81, 0x80, 0x00}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bits, err := Varint.Encode(tt.value, 0, false)
			require.NoError(t, err)

			raw, err := bits.Bytes()
			require.NoError(t, err)
			require.Equal(t, tt.want, raw)

			back, err := Varint.Decode(bits, false)
			require.NoError(t, err)
			require.Equal(t, tt.value, back)
		})
	}

	t.Run("rejects negative values", func(t *testing.T) {
		_, err := Varint.Encode(-1, 0, true)
		require.ErrorIs(t, err, ErrValueRange)
	})

	t.Run("rejects truncated streams", func(t *testing.T) {
		_, err := Varint.Decode(bitstring.FromBytes([]byte{0x81}), false)
		require.ErrorIs(t, err, ErrValueRange)
	})
}

func TestStrEncoders(t *testing.T) {
	bits, err := Raw.Encode([]byte("abc"))
	require.NoError(t, err)

	raw, err := bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("abc"), raw)

	bits, err = NullTerminated.Encode([]byte("abc"))
	require.NoError(t, err)

	raw, err = bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte("abc\x00"), raw)
}

func TestLengthPrefixed(t *testing.T) {
	enc, err := LengthPrefixed(16, nil)
	require.NoError(t, err)

	bits, err := enc.Encode([]byte("hi"))
	require.NoError(t, err)

	raw, err := bits.Bytes()
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x02, 'h', 'i'}, raw)

	_, err = LengthPrefixed(0, nil)
	require.ErrorIs(t, err, ErrWidthRange)
}

func TestBitsEncoders(t *testing.T) {
	in := bitstring.FromUint(5, 3)

	out, err := Identity.Encode(in)
	require.NoError(t, err)
	require.True(t, out.Equal(in))

	out, err = ByteAligned.Encode(in)
	require.NoError(t, err)
	require.Equal(t, 8, out.Len())

	out, err = Reversed.Encode(in)
	require.NoError(t, err)
	require.Equal(t, "101", out.String())
}

func TestEncoderLookup(t *testing.T) {
	for _, id := range []string{"", "be", "le", "msb", "decimal", "varint"} {
		enc, ok := IntEncoderByID(id)
		require.True(t, ok, id)
		require.NotNil(t, enc, id)
	}

	_, ok := IntEncoderByID("bogus")
	require.False(t, ok)

	for _, id := range []string{"", "raw", "nullterm"} {
		enc, ok := StrEncoderByID(id)
		require.True(t, ok, id)
		require.NotNil(t, enc, id)
	}

	_, ok = StrEncoderByID("bogus")
	require.False(t, ok)
}
