// Package domain contains the structured message model: typed fields and
// containers with exact bit-level rendering, dependent-field evaluation and a
// finite, deterministic, resumable mutation space over the whole tree.
package domain

import (
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/encoding"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Field is one node of the message tree. Implementations form a closed set
// tagged by Kind; the engine never dispatches on runtime reflection.
//
// The mutation protocol is strictly sequential: NumMutations is fixed for the
// life of the field, Mutate advances the cursor by one and reports false on
// exhaustion, Reset restores the pristine default rendering, Skip(n) is
// equivalent to n Mutate calls and returns the number of steps actually
// taken. Render is pure given the cursor state.
type Field interface {
	Name() string
	Kind() m.Kind
	Fuzzable() bool
	NumMutations() int
	Mutate() bool
	Skip(n int) int
	Reset()
	Render(ctx *RenderContext) (bitstring.BitString, error)

	// Hash is a structural fingerprint over the runtime kind and every
	// parameter that affects NumMutations or encoding shape, excluding
	// current and default values. Equal hashes guarantee identical mutation
	// index spaces in identical order.
	Hash() uint64

	// Info returns observational metadata and never mutates state.
	Info() m.FieldInfo

	// Clone returns a deep copy in pristine (non-mutating) state, detached
	// from any parent.
	Clone() Field

	// SetParent wires tree ownership; called once while the tree is built.
	SetParent(p Field)
	Parent() Field
}

// composite is implemented by fields that own child fields.
type composite interface {
	Children() []Field
}

// valuer is implemented by fields carrying a scalar current value that
// conditions can compare against.
type valuer interface {
	CurrentValue() m.Value
}

// binder is implemented by fields holding a named cross-reference that a
// template resolves when the tree is frozen.
type binder interface {
	bind() error
}

// Base carries the state shared by every field implementation: identity,
// fuzzability, ownership link and the mutation cursor.
type Base struct {
	name     string
	fuzzable bool
	mutating bool
	index    int
	parentF  Field
}

// NewBase constructs the shared field state.
func NewBase(name string, fuzzable bool) Base {
	return Base{name: name, fuzzable: fuzzable}
}

// Name returns the field name, empty for anonymous fields.
func (b *Base) Name() string { return b.name }

// Fuzzable reports whether the field participates in mutation.
func (b *Base) Fuzzable() bool { return b.fuzzable }

// SetParent records the owning field.
func (b *Base) SetParent(p Field) { b.parentF = p }

// Parent returns the owning field, nil at the root.
func (b *Base) Parent() Field { return b.parentF }

// Mutating reports whether the cursor has been started and not reset.
func (b *Base) Mutating() bool { return b.mutating }

// Index returns the current mutation index. Only meaningful while Mutating.
func (b *Base) Index() int { return b.index }

// ResetCursor restores the pristine state. Idempotent.
func (b *Base) ResetCursor() {
	b.mutating = false
	b.index = 0
}

// Step advances the cursor by one within a space of total indices. It reports
// false when the field is not fuzzable or the space is exhausted.
func (b *Base) Step(total int) bool {
	if !b.fuzzable || total <= 0 {
		return false
	}

	if b.mutating {
		if b.index+1 >= total {
			return false
		}

		b.index++

		return true
	}

	b.mutating = true
	b.index = 0

	return true
}

// StepN advances the cursor by up to n steps and returns the number taken.
func (b *Base) StepN(total, n int) int {
	if !b.fuzzable || total <= 0 || n <= 0 {
		return 0
	}

	remaining := total
	if b.mutating {
		remaining = total - b.index - 1
	}

	adv := n
	if adv > remaining {
		adv = remaining
	}

	if adv == 0 {
		return 0
	}

	if b.mutating {
		b.index += adv
	} else {
		b.mutating = true
		b.index = adv - 1
	}

	return adv
}

// CloneBase returns a detached copy of the identity with a pristine cursor.
func (b *Base) CloneBase() Base {
	return Base{name: b.name, fuzzable: b.fuzzable}
}

// CursorInfo fills the cursor part of a FieldInfo.
func (b *Base) CursorInfo(info *m.FieldInfo) {
	info.Name = b.name
	info.Fuzzable = b.fuzzable
	info.Mutating = b.mutating
	info.CurrentIndex = -1

	if b.mutating {
		info.CurrentIndex = b.index
	}
}

// structHash folds a kind tag and parameter words into an fnv-1a fingerprint.
func structHash(kind m.Kind, params ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))

	var word [8]byte
	for _, p := range params {
		binary.BigEndian.PutUint64(word[:], p)
		_, _ = h.Write(word[:])
	}

	return h.Sum64()
}

// hashStrings folds string parameters into an existing fingerprint.
func hashStrings(seed uint64, parts ...string) uint64 {
	h := fnv.New64a()

	var word [8]byte
	binary.BigEndian.PutUint64(word[:], seed)
	_, _ = h.Write(word[:])

	for _, s := range parts {
		_, _ = h.Write([]byte{0})
		_, _ = h.Write([]byte(s))
	}

	return h.Sum64()
}

// boolWord converts a flag to a hashable word.
func boolWord(v bool) uint64 {
	if v {
		return 1
	}

	return 0
}

// Static is a fixed byte value that never mutates.
type Static struct {
	Base
	value []byte
	enc   encoding.StrEncoder
}

// NewStatic constructs a non-fuzzable field rendering value through enc
// (Raw when nil).
func NewStatic(name string, value []byte, enc encoding.StrEncoder) *Static {
	if enc == nil {
		enc = encoding.Raw
	}

	v := make([]byte, len(value))
	copy(v, value)

	return &Static{Base: NewBase(name, false), value: v, enc: enc}
}

// Kind returns the static tag.
func (s *Static) Kind() m.Kind { return m.KindStatic }

// NumMutations is always zero for a static field.
func (s *Static) NumMutations() int { return 0 }

// Mutate always reports exhaustion.
func (s *Static) Mutate() bool { return false }

// Skip never advances.
func (s *Static) Skip(_ int) int { return 0 }

// Reset is a no-op beyond clearing the cursor.
func (s *Static) Reset() { s.ResetCursor() }

// Render encodes the fixed value.
func (s *Static) Render(_ *RenderContext) (bitstring.BitString, error) {
	return s.enc.Encode(s.value)
}

// CurrentValue exposes the fixed value to conditions.
func (s *Static) CurrentValue() m.Value { return m.BytesValue(s.value) }

// Hash covers the kind and encoder, not the value.
func (s *Static) Hash() uint64 {
	return hashStrings(structHash(m.KindStatic), s.enc.ID())
}

// Info describes the field.
func (s *Static) Info() m.FieldInfo {
	info := m.FieldInfo{Kind: m.KindStatic, Strategy: fmt.Sprintf("static %d bytes", len(s.value))}
	s.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy.
func (s *Static) Clone() Field {
	return &Static{Base: s.CloneBase(), value: append([]byte(nil), s.value...), enc: s.enc}
}
