package domain

import (
	"bytes"
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/encoding"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// stringLibrary is the fixed hostile-value set every String field walks.
// It is independent of the default value so the structural hash contract
// holds: equal parameters, equal index space.
var stringLibrary = [][]byte{
	{},
	bytes.Repeat([]byte{'A'}, 10),
	bytes.Repeat([]byte{'A'}, 100),
	bytes.Repeat([]byte{'A'}, 1000),
	[]byte("%n%n%n%n"),
	[]byte("%s%s%s%s"),
	{0x00},
	[]byte("A\x00B"),
	{0xff, 0xff, 0xff, 0xff},
	[]byte(`'"<>&`),
	[]byte("../../../../etc/passwd"),
}

// String is a byte-string field with a fixed library of hostile values.
type String struct {
	Base
	def []byte
	enc encoding.StrEncoder
}

// NewString constructs a string field rendered through enc (Raw when nil).
func NewString(name string, def []byte, fuzzable bool, enc encoding.StrEncoder) *String {
	if enc == nil {
		enc = encoding.Raw
	}

	v := make([]byte, len(def))
	copy(v, def)

	return &String{Base: NewBase(name, fuzzable), def: v, enc: enc}
}

// Kind returns the string tag.
func (f *String) Kind() m.Kind { return m.KindString }

// NumMutations returns the hostile-library size, zero when not fuzzable.
func (f *String) NumMutations() int {
	if !f.Fuzzable() {
		return 0
	}

	return len(stringLibrary)
}

// Mutate advances to the next library value.
func (f *String) Mutate() bool { return f.Step(f.NumMutations()) }

// Skip advances the cursor by up to n steps.
func (f *String) Skip(n int) int { return f.StepN(f.NumMutations(), n) }

// Reset restores the default rendering.
func (f *String) Reset() { f.ResetCursor() }

// CurrentValue returns the bytes the next Render will encode.
func (f *String) CurrentValue() m.Value {
	if f.Mutating() {
		return m.BytesValue(stringLibrary[f.Index()])
	}

	return m.BytesValue(f.def)
}

// Render encodes the current value.
func (f *String) Render(_ *RenderContext) (bitstring.BitString, error) {
	out, err := f.enc.Encode(f.CurrentValue().Bytes)
	if err != nil {
		return bitstring.Empty(), fmt.Errorf("field %q: %w", f.Name(), err)
	}

	return out, nil
}

// Hash covers the kind, encoder and fuzzability.
func (f *String) Hash() uint64 {
	return hashStrings(structHash(m.KindString, boolWord(f.Fuzzable())), f.enc.ID())
}

// Info describes the field.
func (f *String) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         m.KindString,
		Strategy:     fmt.Sprintf("string/%s, %d hostile values", f.enc.ID(), len(stringLibrary)),
		NumMutations: f.NumMutations(),
	}
	f.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy.
func (f *String) Clone() Field {
	return &String{Base: f.CloneBase(), def: append([]byte(nil), f.def...), enc: f.enc}
}
