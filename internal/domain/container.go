package domain

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Container is an ordered composite of fields. Its mutation space is the
// concatenation of the children's spaces: one child mutates at a time, in
// declaration order, and an exhausted child is reset before the cursor moves
// on. Rendering concatenates the children's bit output, with an optional
// delimiter field interleaved between elements.
type Container struct {
	Base
	fields   []Field
	delim    Field
	fieldIdx int
	total    int // cached sum of child spaces, -1 until first use
}

// NewContainer builds a composite over fields. Named siblings must be unique
// within the container; deeper subtrees may freely reuse names.
func NewContainer(name string, fields ...Field) (*Container, error) {
	return newContainerDelim(name, nil, fields)
}

// NewDelimited builds a composite that renders delim between every element.
func NewDelimited(name string, delim Field, fields ...Field) (*Container, error) {
	if delim == nil {
		return nil, m.NewBuildError(name, "delimited container requires a delimiter field")
	}

	return newContainerDelim(name, delim, fields)
}

func newContainerDelim(name string, delim Field, fields []Field) (*Container, error) {
	if len(fields) == 0 {
		return nil, m.NewBuildError(name, "container requires at least one field")
	}

	seen := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		if f == nil {
			return nil, m.NewBuildError(name, "nil child field")
		}

		n := f.Name()
		if n == "" {
			continue
		}

		if _, dup := seen[n]; dup {
			return nil, m.NewBuildError(name, "duplicate sibling field name %q", n)
		}

		seen[n] = struct{}{}
	}

	c := &Container{Base: NewBase(name, true), fields: fields, delim: delim, total: -1}
	for _, f := range fields {
		f.SetParent(c)
	}

	if delim != nil {
		delim.SetParent(c)
	}

	return c, nil
}

// Kind returns the container tag.
func (c *Container) Kind() m.Kind { return m.KindContainer }

// Children returns the owned fields in order.
func (c *Container) Children() []Field {
	if c.delim == nil {
		return c.fields
	}

	out := make([]Field, 0, len(c.fields)+1)
	out = append(out, c.fields...)
	out = append(out, c.delim)

	return out
}

// NumMutations is the sum of the children's mutation spaces. Computed on
// first access, invariant afterwards.
func (c *Container) NumMutations() int {
	if c.total < 0 {
		c.total = 0
		for _, f := range c.fields {
			c.total += f.NumMutations()
		}
	}

	return c.total
}

// Mutate advances the currently mutating child, resetting it and moving to
// the next one when exhausted.
func (c *Container) Mutate() bool {
	if c.NumMutations() == 0 {
		return false
	}

	if !c.Mutating() {
		c.startCursor()
	}

	for c.fieldIdx < len(c.fields) {
		if c.fields[c.fieldIdx].Mutate() {
			return true
		}

		c.fields[c.fieldIdx].Reset()
		c.fieldIdx++
	}

	return false
}

// Skip advances by up to n steps across the concatenated child spaces.
func (c *Container) Skip(n int) int {
	if n <= 0 || c.NumMutations() == 0 {
		return 0
	}

	if !c.Mutating() {
		c.startCursor()
	}

	skipped := 0
	for skipped < n && c.fieldIdx < len(c.fields) {
		skipped += c.fields[c.fieldIdx].Skip(n - skipped)
		if skipped < n {
			c.fields[c.fieldIdx].Reset()
			c.fieldIdx++
		}
	}

	return skipped
}

func (c *Container) startCursor() {
	// Marks the cursor started without consuming an index; the cursor
	// bookkeeping proper lives in the children.
	c.Step(1)
	c.fieldIdx = 0
}

// Reset restores every child and the cursor. Idempotent.
func (c *Container) Reset() {
	for _, f := range c.fields {
		f.Reset()
	}

	if c.delim != nil {
		c.delim.Reset()
	}

	c.fieldIdx = 0
	c.ResetCursor()
}

// Render concatenates the children's output in order.
func (c *Container) Render(ctx *RenderContext) (bitstring.BitString, error) {
	parts := make([]bitstring.BitString, 0, len(c.fields)*2)

	for i, f := range c.fields {
		out, err := ctx.Render(f)
		if err != nil {
			return bitstring.Empty(), err
		}

		if i > 0 && c.delim != nil {
			sep, err := ctx.Render(c.delim)
			if err != nil {
				return bitstring.Empty(), err
			}

			parts = append(parts, sep)
		}

		parts = append(parts, out)
	}

	return bitstring.Concat(parts...), nil
}

// Hash combines the kind with the children's structural hashes in order.
func (c *Container) Hash() uint64 {
	params := make([]uint64, 0, len(c.fields)+2)
	for _, f := range c.fields {
		params = append(params, f.Hash())
	}

	if c.delim != nil {
		params = append(params, 1, c.delim.Hash())
	}

	return structHash(m.KindContainer, params...)
}

// Info describes the container and its subtree.
func (c *Container) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         m.KindContainer,
		Strategy:     fmt.Sprintf("sequence of %d fields", len(c.fields)),
		NumMutations: c.NumMutations(),
		Children:     childInfos(c.fields),
	}
	c.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine deep copy.
func (c *Container) Clone() Field {
	clone, err := newContainerDelim(c.Name(), cloneField(c.delim), cloneFields(c.fields))
	if err != nil {
		// Construction already validated these children once.
		panic(fmt.Sprintf("container clone: %v", err))
	}

	return clone
}

func cloneFields(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}

	return out
}

func cloneField(f Field) Field {
	if f == nil {
		return nil
	}

	return f.Clone()
}

func childInfos(fields []Field) []m.FieldInfo {
	out := make([]m.FieldInfo, len(fields))
	for i, f := range fields {
		out[i] = f.Info()
	}

	return out
}

// resolveName finds the field visible under the requester's nearest enclosing
// ancestor: the owning chain is walked upward and each ancestor's subtree
// searched in turn, so the nearest enclosing use of a name wins even when
// sibling subtrees reuse it.
func resolveName(requester Field, name string) (Field, error) {
	for anc := requester.Parent(); anc != nil; anc = anc.Parent() {
		if found := findInSubtree(anc, name); found != nil {
			return found, nil
		}
	}

	return nil, &m.ResolveError{Requester: nodeLabel(requester), Name: name}
}

func findInSubtree(f Field, name string) Field {
	if f.Name() == name {
		return f
	}

	comp, ok := f.(composite)
	if !ok {
		return nil
	}

	for _, child := range comp.Children() {
		if found := findInSubtree(child, name); found != nil {
			return found
		}
	}

	return nil
}
