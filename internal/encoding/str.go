package encoding

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
)

type rawStr struct{}

func (rawStr) ID() string { return "raw" }

func (rawStr) Encode(value []byte) (bitstring.BitString, error) {
	return bitstring.FromBytes(value), nil
}

type nullTerminated struct{}

func (nullTerminated) ID() string { return "nullterm" }

func (nullTerminated) Encode(value []byte) (bitstring.BitString, error) {
	out := make([]byte, 0, len(value)+1)
	out = append(out, value...)
	out = append(out, 0)

	return bitstring.FromBytes(out), nil
}

// lengthPrefixed frames the value with its byte length encoded by an integer
// encoder of a fixed width.
type lengthPrefixed struct {
	widthBits int
	intEnc    IntEncoder
}

// LengthPrefixed builds a string encoder framing values with a widthBits-wide
// length header produced by enc (BigEndian when nil).
func LengthPrefixed(widthBits int, enc IntEncoder) (StrEncoder, error) {
	if enc == nil {
		enc = BigEndian
	}

	if widthBits < 1 || widthBits > 64 {
		return nil, ErrWidthRange
	}

	return lengthPrefixed{widthBits: widthBits, intEnc: enc}, nil
}

func (e lengthPrefixed) ID() string {
	return fmt.Sprintf("lenprefix:%s:%d", e.intEnc.ID(), e.widthBits)
}

func (e lengthPrefixed) Encode(value []byte) (bitstring.BitString, error) {
	header, err := e.intEnc.Encode(int64(len(value)), e.widthBits, false)
	if err != nil {
		return bitstring.Empty(), fmt.Errorf("encoding: length header: %w", err)
	}

	return header.Append(bitstring.FromBytes(value)), nil
}
