package domain

import (
	"fmt"
	"math"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/encoding"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Integer is a fixed-width integer field. Its mutation library is derived
// from the width and signedness only, never from the default value, so two
// templates that differ only in defaults share a structural hash and an
// identical mutation index space.
type Integer struct {
	Base
	def     int64
	width   int
	signed  bool
	enc     encoding.IntEncoder
	library []int64
}

// NewInteger constructs an integer field of widthBits bits rendered through
// enc (BigEndian when nil). The default must fit the width.
func NewInteger(name string, def int64, widthBits int, signed, fuzzable bool, enc encoding.IntEncoder) (*Integer, error) {
	if enc == nil {
		enc = encoding.BigEndian
	}

	if widthBits < 1 || widthBits > 64 {
		return nil, m.NewBuildError(name, "width %d bits outside 1..64", widthBits)
	}

	// Probe the encoder once so misconfigurations (unaligned widths on
	// byte-oriented encoders, negative defaults on varint) fail at build
	// time rather than mid-run.
	if _, err := enc.Encode(def, widthBits, signed); err != nil {
		return nil, m.NewBuildError(name, "default %d: %v", def, err)
	}

	f := &Integer{
		Base:   NewBase(name, fuzzable),
		def:    def,
		width:  widthBits,
		signed: signed,
		enc:    enc,
	}
	// Keep only library values the encoder accepts (varint and decimal
	// reject negatives); the library stays a pure function of the field
	// parameters, which the structural hash covers.
	for _, v := range integerLibrary(widthBits, signed) {
		if _, err := enc.Encode(v, widthBits, signed); err == nil {
			f.library = append(f.library, v)
		}
	}

	return f, nil
}

// integerLibrary builds the deterministic mutation values for a width:
// boundary values followed by walking single bits, deduplicated in order.
func integerLibrary(widthBits int, signed bool) []int64 {
	var candidates []int64

	if signed {
		max := int64(1)<<uint(widthBits-1) - 1
		min := -max - 1
		candidates = []int64{0, 1, -1, max, min, max - 1, min + 1, max >> 1}

		for bit := 0; bit < widthBits-1; bit++ {
			candidates = append(candidates, int64(1)<<uint(bit))
		}
	} else {
		max := int64(math.MaxInt64) // int64 API ceiling for 64-bit fields
		if widthBits < 64 {
			max = int64(1)<<uint(widthBits) - 1
		}

		candidates = []int64{0, 1, max, max - 1, max >> 1}

		for bit := 0; bit < widthBits; bit++ {
			if widthBits == 64 && bit == 63 {
				break // 1<<63 is not representable unsigned in int64
			}

			candidates = append(candidates, int64(1)<<uint(bit))
		}
	}

	seen := make(map[int64]struct{}, len(candidates))
	library := candidates[:0]

	for _, v := range candidates {
		if _, ok := seen[v]; ok {
			continue
		}

		if !fitsWidth(v, widthBits, signed) {
			continue
		}

		seen[v] = struct{}{}
		library = append(library, v)
	}

	return library
}

// fitsWidth reports whether v is representable in widthBits bits.
func fitsWidth(v int64, widthBits int, signed bool) bool {
	if widthBits >= 64 {
		return signed || v >= 0
	}

	if signed {
		limit := int64(1) << uint(widthBits-1)

		return v >= -limit && v < limit
	}

	return v >= 0 && uint64(v) < uint64(1)<<uint(widthBits)
}

// Kind returns the integer tag.
func (f *Integer) Kind() m.Kind { return m.KindInteger }

// NumMutations returns the library size, zero when not fuzzable.
func (f *Integer) NumMutations() int {
	if !f.Fuzzable() {
		return 0
	}

	return len(f.library)
}

// Mutate advances to the next library value.
func (f *Integer) Mutate() bool { return f.Step(f.NumMutations()) }

// Skip advances the cursor by up to n steps.
func (f *Integer) Skip(n int) int { return f.StepN(f.NumMutations(), n) }

// Reset restores the default rendering.
func (f *Integer) Reset() { f.ResetCursor() }

// CurrentValue returns the value the next Render will encode.
func (f *Integer) CurrentValue() m.Value {
	if f.Mutating() {
		return m.IntValue(f.library[f.Index()])
	}

	return m.IntValue(f.def)
}

// Render encodes the current value at the configured width.
func (f *Integer) Render(_ *RenderContext) (bitstring.BitString, error) {
	out, err := f.enc.Encode(f.CurrentValue().Int, f.width, f.signed)
	if err != nil {
		return bitstring.Empty(), fmt.Errorf("field %q: %w", f.Name(), err)
	}

	return out, nil
}

// Hash covers width, signedness, encoder and fuzzability; not the default.
func (f *Integer) Hash() uint64 {
	seed := structHash(m.KindInteger, uint64(f.width), boolWord(f.signed), boolWord(f.Fuzzable()))

	return hashStrings(seed, f.enc.ID())
}

// Info describes the field.
func (f *Integer) Info() m.FieldInfo {
	sign := "uint"
	if f.signed {
		sign = "int"
	}

	info := m.FieldInfo{
		Kind:         m.KindInteger,
		Strategy:     fmt.Sprintf("%s%d/%s, %d edge values", sign, f.width, f.enc.ID(), len(f.library)),
		NumMutations: f.NumMutations(),
	}
	f.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy.
func (f *Integer) Clone() Field {
	clone := *f
	clone.Base = f.CloneBase()
	clone.library = append([]int64(nil), f.library...)

	return &clone
}
