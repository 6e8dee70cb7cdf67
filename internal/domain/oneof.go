package domain

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// OneOf holds mutually exclusive alternatives; exactly one is active at a
// time. Its mutation index space is the concatenation of the alternatives'
// own spaces in declaration order. Crossing an alternative boundary resets
// the alternative being left. Before any mutation the container renders the
// first alternative's default value; while mutating, inactive alternatives
// render as empty.
type OneOf struct {
	Base
	alts   []Field
	active int
	total  int // -1 until first use
}

// NewOneOf builds an alternation over alts.
func NewOneOf(name string, alts ...Field) (*OneOf, error) {
	if len(alts) == 0 {
		return nil, m.NewBuildError(name, "alternation requires at least one alternative")
	}

	seen := make(map[string]struct{}, len(alts))
	for _, alt := range alts {
		if alt == nil {
			return nil, m.NewBuildError(name, "nil alternative")
		}

		n := alt.Name()
		if n == "" {
			continue
		}

		if _, dup := seen[n]; dup {
			return nil, m.NewBuildError(name, "duplicate alternative name %q", n)
		}

		seen[n] = struct{}{}
	}

	o := &OneOf{Base: NewBase(name, true), alts: alts, total: -1}
	for _, alt := range alts {
		alt.SetParent(o)
	}

	return o, nil
}

// Kind returns the alternation tag.
func (o *OneOf) Kind() m.Kind { return m.KindOneOf }

// Children returns the alternatives in order.
func (o *OneOf) Children() []Field { return o.alts }

// NumMutations is the sum of the alternatives' spaces.
func (o *OneOf) NumMutations() int {
	if o.total < 0 {
		o.total = 0
		for _, alt := range o.alts {
			o.total += alt.NumMutations()
		}
	}

	return o.total
}

// locate maps a global index to (alternative, local index) by scanning
// cumulative counts.
func (o *OneOf) locate(global int) (int, int) {
	for i, alt := range o.alts {
		n := alt.NumMutations()
		if global < n {
			return i, global
		}

		global -= n
	}

	// Unreachable while global stays inside [0, NumMutations).
	return len(o.alts) - 1, global
}

// Mutate advances the global index, switching the active alternative when it
// crosses a boundary and resetting the one being left.
func (o *OneOf) Mutate() bool {
	if !o.Step(o.NumMutations()) {
		return false
	}

	a, _ := o.locate(o.Index())
	if a != o.active {
		o.alts[o.active].Reset()
		o.active = a
	}

	o.alts[a].Mutate()

	return true
}

// Skip advances by up to n steps, repositioning the newly active alternative
// with its own Skip.
func (o *OneOf) Skip(n int) int {
	adv := o.StepN(o.NumMutations(), n)
	if adv == 0 {
		return 0
	}

	a, local := o.locate(o.Index())
	if a != o.active {
		o.alts[o.active].Reset()
		o.active = a
	}

	o.alts[a].Reset()
	o.alts[a].Skip(local + 1)

	return adv
}

// Reset restores every alternative and re-activates the first one.
func (o *OneOf) Reset() {
	for _, alt := range o.alts {
		alt.Reset()
	}

	o.active = 0
	o.ResetCursor()
}

// Render emits the active alternative. The baseline (never mutated) state
// renders the first alternative's default.
func (o *OneOf) Render(ctx *RenderContext) (bitstring.BitString, error) {
	return ctx.Render(o.alts[o.active])
}

// Hash combines the kind with the alternatives' hashes in order.
func (o *OneOf) Hash() uint64 {
	params := make([]uint64, 0, len(o.alts))
	for _, alt := range o.alts {
		params = append(params, alt.Hash())
	}

	return structHash(m.KindOneOf, params...)
}

// Info describes the alternation and its subtree.
func (o *OneOf) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         m.KindOneOf,
		Strategy:     fmt.Sprintf("one of %d alternatives (active %d)", len(o.alts), o.active),
		NumMutations: o.NumMutations(),
		Children:     childInfos(o.alts),
	}
	o.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine deep copy.
func (o *OneOf) Clone() Field {
	clone, err := NewOneOf(o.Name(), cloneFields(o.alts)...)
	if err != nil {
		panic(fmt.Sprintf("alternation clone: %v", err))
	}

	return clone
}
