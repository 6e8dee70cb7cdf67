// Package bitstring implements an exact, MSB-first bit sequence. Unlike a
// byte buffer it tracks lengths that are not multiples of eight, which the
// encoders need for sub-byte integer widths and bit-level padding.
package bitstring

import (
	"encoding/hex"
	"fmt"
)

// BitString is an immutable sequence of bits. The zero value is the empty
// sequence. Bit 0 is the most significant bit of the first byte.
type BitString struct {
	data  []byte
	nbits int
}

// Empty returns the empty bit sequence.
func Empty() BitString {
	return BitString{}
}

// FromBytes wraps a byte slice as a bit sequence of len(b)*8 bits. The slice
// is copied.
func FromBytes(b []byte) BitString {
	data := make([]byte, len(b))
	copy(data, b)

	return BitString{data: data, nbits: len(b) * 8}
}

// FromUint encodes the low width bits of v, most significant bit first.
func FromUint(v uint64, width int) BitString {
	if width < 0 {
		width = 0
	}

	if width < 64 {
		v &= (uint64(1) << uint(width)) - 1
	}

	nbytes := (width + 7) / 8
	data := make([]byte, nbytes)
	shifted := v << uint(nbytes*8-width)

	for i := nbytes - 1; i >= 0; i-- {
		data[i] = byte(shifted)
		shifted >>= 8
	}

	return BitString{data: data, nbits: width}
}

// Len returns the number of bits.
func (b BitString) Len() int {
	return b.nbits
}

// ByteAligned reports whether the length is a whole number of bytes.
func (b BitString) ByteAligned() bool {
	return b.nbits%8 == 0
}

// Bit returns bit i as 0 or 1.
func (b BitString) Bit(i int) byte {
	return (b.data[i/8] >> uint(7-i%8)) & 1
}

// Bytes returns the underlying bytes. It fails when the sequence does not end
// on a byte boundary; use PadToByte first when trailing zero bits are
// acceptable.
func (b BitString) Bytes() ([]byte, error) {
	if !b.ByteAligned() {
		return nil, fmt.Errorf("bitstring: %d bits is not byte aligned", b.nbits)
	}

	out := make([]byte, len(b.data))
	copy(out, b.data)

	return out, nil
}

// Uint decodes the sequence as an unsigned big-endian integer. Sequences
// longer than 64 bits are rejected.
func (b BitString) Uint() (uint64, error) {
	if b.nbits > 64 {
		return 0, fmt.Errorf("bitstring: %d bits exceed uint64", b.nbits)
	}

	var v uint64
	for _, octet := range b.data {
		v = v<<8 | uint64(octet)
	}

	// Drop the unused low bits of the final partial byte.
	if rem := b.nbits % 8; rem != 0 {
		v >>= uint(8 - rem)
	}

	return v, nil
}

// PadToByte pads the sequence on the right with zero bits up to the next
// multiple of 8. Already-aligned sequences are returned unchanged.
func (b BitString) PadToByte() BitString {
	if b.ByteAligned() {
		return b
	}

	data := make([]byte, len(b.data))
	copy(data, b.data)

	return BitString{data: data, nbits: len(data) * 8}
}

// Reverse returns the sequence with its bit order inverted. The first bit of
// the result is the last bit of the receiver; bytes are not swapped as units.
func (b BitString) Reverse() BitString {
	out := BitString{data: make([]byte, 0, len(b.data))}
	for i := b.nbits - 1; i >= 0; i-- {
		out = out.appendBit(b.Bit(i))
	}

	return out
}

// Concat joins the given sequences in order.
func Concat(parts ...BitString) BitString {
	total := 0
	for _, p := range parts {
		total += p.nbits
	}

	out := BitString{data: make([]byte, 0, (total+7)/8)}
	for _, p := range parts {
		out = out.Append(p)
	}

	return out
}

// Append returns the receiver followed by other.
func (b BitString) Append(other BitString) BitString {
	if other.nbits == 0 {
		return b
	}

	if b.ByteAligned() {
		// Fast path: byte-aligned prefix, bytes copy over directly.
		data := make([]byte, len(b.data), len(b.data)+len(other.data))
		copy(data, b.data)
		data = append(data, other.data...)

		return BitString{data: data, nbits: b.nbits + other.nbits}
	}

	out := BitString{data: make([]byte, len(b.data), len(b.data)+len(other.data)), nbits: b.nbits}
	copy(out.data, b.data)

	for i := 0; i < other.nbits; i++ {
		out = out.appendBit(other.Bit(i))
	}

	return out
}

// Equal reports whether two sequences hold the same bits.
func (b BitString) Equal(other BitString) bool {
	if b.nbits != other.nbits {
		return false
	}

	for i := 0; i < b.nbits; i++ {
		if b.Bit(i) != other.Bit(i) {
			return false
		}
	}

	return true
}

// String renders the sequence for diagnostics: hex when byte aligned, bit
// digits otherwise.
func (b BitString) String() string {
	if b.ByteAligned() {
		return hex.EncodeToString(b.data)
	}

	out := make([]byte, b.nbits)
	for i := 0; i < b.nbits; i++ {
		out[i] = '0' + b.Bit(i)
	}

	return string(out)
}

func (b BitString) appendBit(bit byte) BitString {
	if b.nbits%8 == 0 {
		b.data = append(b.data, 0)
	}

	if bit != 0 {
		b.data[b.nbits/8] |= 0x80 >> uint(b.nbits%8)
	}

	b.nbits++

	return b
}
