// Package encoding provides the pure value-to-bits encoders used by fields:
// fixed-width big/little-endian integers, decimal strings, a 7-bit multi-byte
// varint, string framings and bit-level transforms. Encoders carry no state;
// the same encoder instance is shared by any number of fields.
package encoding

import (
	"errors"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
)

// ErrLengthAlignment is returned by byte-oriented integer encoders when the
// requested width is not a whole number of bytes.
var ErrLengthAlignment = errors.New("encoding: length must be a multiple of 8 bits")

// ErrWidthRange is returned when an integer width is outside 1..64 bits.
var ErrWidthRange = errors.New("encoding: width must be between 1 and 64 bits")

// ErrValueRange is returned when a value does not fit the requested width, or
// a negative value reaches an unsigned-only encoder.
var ErrValueRange = errors.New("encoding: value does not fit encoding")

// IntEncoder maps an integer value to an exact bit sequence and back.
// Decode exists for the round-trip direction; fuzzing only uses Encode.
type IntEncoder interface {
	Encode(value int64, widthBits int, signed bool) (bitstring.BitString, error)
	Decode(bits bitstring.BitString, signed bool) (int64, error)

	// ID is a stable identifier folded into structural hashes.
	ID() string
}

// StrEncoder maps a byte string to a bit sequence. Text is byte-equivalent
// throughout; nothing here is locale sensitive.
type StrEncoder interface {
	Encode(value []byte) (bitstring.BitString, error)
	ID() string
}

// BitsEncoder transforms a raw bit sequence.
type BitsEncoder interface {
	Encode(bits bitstring.BitString) (bitstring.BitString, error)
	ID() string
}

// Shared encoder instances. All are stateless.
var (
	// BigEndian encodes fixed-width integers most significant byte first.
	BigEndian IntEncoder = bigEndian{}
	// LittleEndian encodes fixed-width integers least significant byte first.
	LittleEndian IntEncoder = littleEndian{}
	// MSBBits encodes an integer at any bit width, most significant bit
	// first, without byte alignment.
	MSBBits IntEncoder = msbBits{}
	// Decimal encodes an integer as its ASCII decimal representation.
	Decimal IntEncoder = decimal{}
	// Varint encodes a non-negative integer as 7-bit chunks, most
	// significant chunk first, continuation bit set on all but the last.
	Varint IntEncoder = varint{}

	// Raw passes a byte string through unchanged.
	Raw StrEncoder = rawStr{}
	// NullTerminated appends a single zero byte.
	NullTerminated StrEncoder = nullTerminated{}

	// Identity passes a bit sequence through unchanged.
	Identity BitsEncoder = identityBits{}
	// ByteAligned pads a bit sequence on the right with zero bits to the
	// next byte boundary.
	ByteAligned BitsEncoder = byteAligned{}
	// Reversed inverts bit order without swapping bytes as units.
	Reversed BitsEncoder = reversedBits{}
)

// IntEncoderByID returns the named integer encoder. Recognized IDs are
// "be", "le", "msb", "decimal" and "varint".
func IntEncoderByID(id string) (IntEncoder, bool) {
	switch id {
	case "", "be":
		return BigEndian, true
	case "le":
		return LittleEndian, true
	case "msb":
		return MSBBits, true
	case "decimal":
		return Decimal, true
	case "varint":
		return Varint, true
	}

	return nil, false
}

// StrEncoderByID returns the named string encoder. Recognized IDs are "raw",
// "nullterm" and "lenprefix:<bits>" via LengthPrefixed.
func StrEncoderByID(id string) (StrEncoder, bool) {
	switch id {
	case "", "raw":
		return Raw, true
	case "nullterm":
		return NullTerminated, true
	}

	return nil, false
}
