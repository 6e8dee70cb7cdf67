package encoding

import (
	"fmt"
	"strconv"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
)

// checkWidth validates a fixed integer width and that value fits in it under
// the given signedness.
func checkWidth(value int64, widthBits int, signed bool) error {
	if widthBits < 1 || widthBits > 64 {
		return ErrWidthRange
	}

	if signed {
		if widthBits == 64 {
			return nil
		}

		limit := int64(1) << uint(widthBits-1)
		if value < -limit || value >= limit {
			return fmt.Errorf("%w: %d in %d signed bits", ErrValueRange, value, widthBits)
		}

		return nil
	}

	if value < 0 {
		return fmt.Errorf("%w: %d is negative", ErrValueRange, value)
	}

	if widthBits < 64 && uint64(value) >= uint64(1)<<uint(widthBits) {
		return fmt.Errorf("%w: %d in %d unsigned bits", ErrValueRange, value, widthBits)
	}

	return nil
}

// twosComplement truncates value to width bits.
func twosComplement(value int64, widthBits int) uint64 {
	v := uint64(value)
	if widthBits < 64 {
		v &= (uint64(1) << uint(widthBits)) - 1
	}

	return v
}

// signExtend widens a width-bit two's-complement pattern to int64.
func signExtend(v uint64, widthBits int) int64 {
	if widthBits >= 64 {
		return int64(v)
	}

	sign := uint64(1) << uint(widthBits-1)
	if v&sign != 0 {
		v |= ^uint64(0) << uint(widthBits)
	}

	return int64(v)
}

type bigEndian struct{}

func (bigEndian) ID() string { return "be" }

func (bigEndian) Encode(value int64, widthBits int, signed bool) (bitstring.BitString, error) {
	if err := checkWidth(value, widthBits, signed); err != nil {
		return bitstring.Empty(), err
	}

	if widthBits%8 != 0 {
		return bitstring.Empty(), ErrLengthAlignment
	}

	return bitstring.FromUint(twosComplement(value, widthBits), widthBits), nil
}

func (bigEndian) Decode(bits bitstring.BitString, signed bool) (int64, error) {
	if !bits.ByteAligned() {
		return 0, ErrLengthAlignment
	}

	v, err := bits.Uint()
	if err != nil {
		return 0, err
	}

	if signed {
		return signExtend(v, bits.Len()), nil
	}

	return int64(v), nil
}

// msbBits encodes at any width, byte aligned or not: the value's low width
// bits in order, most significant first. It is the only integer encoder that
// accepts sub-byte widths.
type msbBits struct{}

func (msbBits) ID() string { return "msb" }

func (msbBits) Encode(value int64, widthBits int, signed bool) (bitstring.BitString, error) {
	if err := checkWidth(value, widthBits, signed); err != nil {
		return bitstring.Empty(), err
	}

	return bitstring.FromUint(twosComplement(value, widthBits), widthBits), nil
}

func (msbBits) Decode(bits bitstring.BitString, signed bool) (int64, error) {
	v, err := bits.Uint()
	if err != nil {
		return 0, err
	}

	if signed {
		return signExtend(v, bits.Len()), nil
	}

	return int64(v), nil
}

type littleEndian struct{}

func (littleEndian) ID() string { return "le" }

func (littleEndian) Encode(value int64, widthBits int, signed bool) (bitstring.BitString, error) {
	if err := checkWidth(value, widthBits, signed); err != nil {
		return bitstring.Empty(), err
	}

	if widthBits%8 != 0 {
		return bitstring.Empty(), ErrLengthAlignment
	}

	v := twosComplement(value, widthBits)
	out := make([]byte, widthBits/8)

	for i := range out {
		out[i] = byte(v)
		v >>= 8
	}

	return bitstring.FromBytes(out), nil
}

func (littleEndian) Decode(bits bitstring.BitString, signed bool) (int64, error) {
	if !bits.ByteAligned() {
		return 0, ErrLengthAlignment
	}

	raw, err := bits.Bytes()
	if err != nil {
		return 0, err
	}

	if len(raw) > 8 {
		return 0, fmt.Errorf("%w: %d bytes exceed int64", ErrValueRange, len(raw))
	}

	var v uint64
	for i := len(raw) - 1; i >= 0; i-- {
		v = v<<8 | uint64(raw[i])
	}

	if signed {
		return signExtend(v, len(raw)*8), nil
	}

	return int64(v), nil
}

type decimal struct{}

func (decimal) ID() string { return "decimal" }

// Encode ignores widthBits: the output length follows the number of decimal
// digits of the value.
func (decimal) Encode(value int64, _ int, signed bool) (bitstring.BitString, error) {
	if !signed && value < 0 {
		return bitstring.Empty(), fmt.Errorf("%w: %d is negative", ErrValueRange, value)
	}

	return bitstring.FromBytes([]byte(strconv.FormatInt(value, 10))), nil
}

func (decimal) Decode(bits bitstring.BitString, _ bool) (int64, error) {
	raw, err := bits.Bytes()
	if err != nil {
		return 0, err
	}

	v, err := strconv.ParseInt(string(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("encoding: bad decimal %q: %w", raw, err)
	}

	return v, nil
}

type varint struct{}

func (varint) ID() string { return "varint" }

// Encode groups the value into 7-bit chunks, most significant chunk first,
// setting the top bit of every output byte except the last. Zero encodes as
// a single zero byte. widthBits is ignored; the output length follows the
// value. Negative values are rejected.
func (varint) Encode(value int64, _ int, _ bool) (bitstring.BitString, error) {
	if value < 0 {
		return bitstring.Empty(), fmt.Errorf("%w: %d is negative", ErrValueRange, value)
	}

	v := uint64(value)
	chunks := []byte{byte(v & 0x7f)}

	for v >>= 7; v != 0; v >>= 7 {
		chunks = append(chunks, byte(v&0x7f))
	}

	out := make([]byte, 0, len(chunks))
	for i := len(chunks) - 1; i >= 0; i-- {
		octet := chunks[i]
		if i != 0 {
			octet |= 0x80
		}

		out = append(out, octet)
	}

	return bitstring.FromBytes(out), nil
}

func (varint) Decode(bits bitstring.BitString, _ bool) (int64, error) {
	raw, err := bits.Bytes()
	if err != nil {
		return 0, err
	}

	var v uint64

	for i, octet := range raw {
		v = v<<7 | uint64(octet&0x7f)

		last := octet&0x80 == 0
		if last && i != len(raw)-1 {
			return 0, fmt.Errorf("%w: continuation bit cleared before final byte", ErrValueRange)
		}

		if !last && i == len(raw)-1 {
			return 0, fmt.Errorf("%w: truncated varint", ErrValueRange)
		}
	}

	if len(raw) == 0 {
		return 0, fmt.Errorf("%w: empty varint", ErrValueRange)
	}

	return int64(v), nil
}
