package domain

import (
	"bytes"
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Op is a condition comparison operator.
type Op string

// Condition operators. Ordering operators require integer comparands.
const (
	OpEq    Op = "eq"
	OpNotEq Op = "neq"
	OpGt    Op = "gt"
	OpLt    Op = "lt"
	OpGe    Op = "ge"
	OpLe    Op = "le"
	OpIn    Op = "in"
)

// Condition compares a named field's value against one or more comparands.
// The target is resolved lazily on first use and cached as a direct field
// reference; Invalidate forces re-resolution by name, for the case where the
// field object is intentionally detached and reattached.
type Condition struct {
	fieldName  string
	op         Op
	comparands []m.Value
	target     Field
}

// NewCondition builds a binary comparison against one comparand.
func NewCondition(field string, op Op, comparand m.Value) (*Condition, error) {
	return newCondition(field, op, []m.Value{comparand})
}

// NewMembership builds an OpIn condition over a comparand set.
func NewMembership(field string, comparands ...m.Value) (*Condition, error) {
	return newCondition(field, OpIn, comparands)
}

func newCondition(field string, op Op, comparands []m.Value) (*Condition, error) {
	if field == "" {
		return nil, m.NewBuildError("", "condition requires a target field name")
	}

	switch op {
	case OpEq, OpNotEq, OpIn:
	case OpGt, OpLt, OpGe, OpLe:
		for _, cmp := range comparands {
			if cmp.Kind != m.ValueInt {
				return nil, m.NewBuildError(field, "operator %q cannot order a byte-string comparand", op)
			}
		}
	default:
		return nil, m.NewBuildError(field, "unknown comparison operator %q", op)
	}

	if len(comparands) == 0 {
		return nil, m.NewBuildError(field, "condition requires at least one comparand")
	}

	return &Condition{fieldName: field, op: op, comparands: comparands}, nil
}

// Invalidate drops the cached target reference so the next evaluation
// re-resolves the name against the live tree.
func (c *Condition) Invalidate() {
	c.target = nil
}

// FieldName returns the referenced field name.
func (c *Condition) FieldName() string { return c.fieldName }

// applies evaluates the condition for the given owner. The target is rendered
// first through ctx so the comparison sees the value current in this pass.
func (c *Condition) applies(owner Field, ctx *RenderContext) (bool, error) {
	if c.target == nil {
		target, err := resolveName(owner, c.fieldName)
		if err != nil {
			return false, err
		}

		c.target = target
	}

	rendered, err := ctx.Render(c.target)
	if err != nil {
		return false, err
	}

	actual := c.targetValue(rendered)

	switch c.op {
	case OpEq:
		return valueEqual(actual, c.comparands[0]), nil
	case OpNotEq:
		return !valueEqual(actual, c.comparands[0]), nil
	case OpIn:
		for _, cmp := range c.comparands {
			if valueEqual(actual, cmp) {
				return true, nil
			}
		}

		return false, nil
	}

	if actual.Kind != m.ValueInt {
		return false, fmt.Errorf("condition on %q: operator %q needs a numeric target value", c.fieldName, c.op)
	}

	lhs, rhs := actual.Int, c.comparands[0].Int

	switch c.op {
	case OpGt:
		return lhs > rhs, nil
	case OpLt:
		return lhs < rhs, nil
	case OpGe:
		return lhs >= rhs, nil
	default: // OpLe, the operator set is closed at construction
		return lhs <= rhs, nil
	}
}

// targetValue extracts the comparable value: the field's own scalar when it
// has one, otherwise its rendered bytes.
func (c *Condition) targetValue(rendered bitstring.BitString) m.Value {
	if v, ok := c.target.(valuer); ok {
		return v.CurrentValue()
	}

	raw, err := rendered.PadToByte().Bytes()
	if err != nil {
		raw = nil
	}

	return m.BytesValue(raw)
}

// hash folds the operator and comparands into a structural fingerprint; the
// condition changes what renders, so it is part of the encoding shape.
func (c *Condition) hash() uint64 {
	params := make([]uint64, 0, len(c.comparands)*2)
	for _, cmp := range c.comparands {
		params = append(params, uint64(cmp.Kind), uint64(cmp.Int), uint64(len(cmp.Bytes)))
	}

	return hashStrings(structHash(m.Kind("condition"), params...), string(c.op), c.fieldName)
}

func (c *Condition) describe() string {
	return fmt.Sprintf("%s %s", c.fieldName, c.op)
}

func valueEqual(a, b m.Value) bool {
	if a.Kind != b.Kind {
		return false
	}

	if a.Kind == m.ValueInt {
		return a.Int == b.Int
	}

	return bytes.Equal(a.Bytes, b.Bytes)
}

// If renders its children only while the condition holds; otherwise it
// renders zero bits. Its mutation space is its children's, unchanged by the
// condition outcome.
type If struct {
	Container
	cond   *Condition
	negate bool
}

// NewIf builds a conditional container gated by cond.
func NewIf(name string, cond *Condition, fields ...Field) (*If, error) {
	return newIf(name, cond, false, fields)
}

// NewIfNot builds the logical complement of NewIf.
func NewIfNot(name string, cond *Condition, fields ...Field) (*If, error) {
	return newIf(name, cond, true, fields)
}

func newIf(name string, cond *Condition, negate bool, fields []Field) (*If, error) {
	if cond == nil {
		return nil, m.NewBuildError(name, "conditional container requires a condition")
	}

	inner, err := newContainerDelim(name, nil, fields)
	if err != nil {
		return nil, err
	}

	f := &If{Container: *inner, cond: cond, negate: negate}

	// Re-parent the children onto the outer value: the embedded container
	// was copied, so the ownership chain must point at f.
	for _, child := range fields {
		child.SetParent(f)
	}

	return f, nil
}

// Kind returns the conditional tag.
func (f *If) Kind() m.Kind {
	if f.negate {
		return m.KindIfNot
	}

	return m.KindIf
}

// Render evaluates the condition against the target's in-pass rendering and
// emits the children's concatenation or nothing.
func (f *If) Render(ctx *RenderContext) (bitstring.BitString, error) {
	ok, err := f.cond.applies(f, ctx)
	if err != nil {
		return bitstring.Empty(), err
	}

	if ok == f.negate {
		return bitstring.Empty(), nil
	}

	return f.Container.Render(ctx)
}

// Condition exposes the gate, e.g. for cache invalidation.
func (f *If) Condition() *Condition { return f.cond }

// Hash combines the container hash with the condition parameters.
func (f *If) Hash() uint64 {
	return structHash(f.Kind(), f.Container.Hash(), f.cond.hash())
}

// Info describes the conditional subtree.
func (f *If) Info() m.FieldInfo {
	info := f.Container.Info()
	info.Kind = f.Kind()
	info.Strategy = fmt.Sprintf("when %s", f.cond.describe())

	if f.negate {
		info.Strategy = fmt.Sprintf("unless %s", f.cond.describe())
	}

	return info
}

// Clone returns a detached pristine deep copy. The cloned condition starts
// unresolved so it binds inside the new tree, not the old one.
func (f *If) Clone() Field {
	cond := &Condition{fieldName: f.cond.fieldName, op: f.cond.op, comparands: f.cond.comparands}

	clone, err := newIf(f.Name(), cond, f.negate, cloneFields(f.fields))
	if err != nil {
		panic(fmt.Sprintf("conditional clone: %v", err))
	}

	return clone
}
