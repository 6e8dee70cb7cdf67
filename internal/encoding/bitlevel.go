package encoding

import "bitfuzz.dev/pkg/bitfuzz/internal/bitstring"

type identityBits struct{}

func (identityBits) ID() string { return "bits" }

func (identityBits) Encode(bits bitstring.BitString) (bitstring.BitString, error) {
	return bits, nil
}

type byteAligned struct{}

func (byteAligned) ID() string { return "bytealign" }

func (byteAligned) Encode(bits bitstring.BitString) (bitstring.BitString, error) {
	return bits.PadToByte(), nil
}

type reversedBits struct{}

func (reversedBits) ID() string { return "reverse" }

func (reversedBits) Encode(bits bitstring.BitString) (bitstring.BitString, error) {
	return bits.Reverse(), nil
}
