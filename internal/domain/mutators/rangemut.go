package mutators

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// rangeStrategy transforms the rendered units for one mutation index.
type rangeStrategy interface {
	kind() m.Kind
	// numMutations derives the space from the field count L and window N.
	numMutations(l, n int) int
	// apply rearranges units for mutation index idx.
	apply(units []bitstring.BitString, n, idx int) []bitstring.BitString
	describe(n int) string
	params() []uint64
}

// RangeMutator slides a window of fieldCount consecutive sibling fields and
// applies one structural transform per mutation index. Fields outside the
// window pass through unchanged in their original relative order. When not
// mutating, the original sequence renders unmodified.
type RangeMutator struct {
	domain.Base
	fields     []domain.Field
	delim      domain.Field
	fieldCount int
	strategy   rangeStrategy
}

func newRangeMutator(name string, strategy rangeStrategy, fieldCount int, delim domain.Field, fields []domain.Field) (*RangeMutator, error) {
	minCount := 1
	if strategy.kind() == m.KindRotate {
		minCount = 2
	}

	if fieldCount < minCount {
		return nil, m.NewBuildError(name, "%s window of %d fields, minimum is %d", strategy.kind(), fieldCount, minCount)
	}

	if len(fields) == 0 {
		return nil, m.NewBuildError(name, "%s mutator requires fields", strategy.kind())
	}

	if fieldCount > len(fields) {
		return nil, m.NewBuildError(name, "%s window of %d fields exceeds the %d available", strategy.kind(), fieldCount, len(fields))
	}

	r := &RangeMutator{
		Base:       domain.NewBase(name, true),
		fields:     fields,
		delim:      delim,
		fieldCount: fieldCount,
		strategy:   strategy,
	}

	for _, f := range fields {
		f.SetParent(r)
	}

	if delim != nil {
		delim.SetParent(r)
	}

	return r, nil
}

// NewOmit builds a mutator removing a window of fieldCount fields entirely.
func NewOmit(name string, fieldCount int, delim domain.Field, fields ...domain.Field) (*RangeMutator, error) {
	return newRangeMutator(name, omitStrategy{}, fieldCount, delim, fields)
}

// NewDuplicate builds a mutator repeating each field of the window dupCount
// times, preserving original order.
func NewDuplicate(name string, fieldCount, dupCount int, delim domain.Field, fields ...domain.Field) (*RangeMutator, error) {
	if dupCount < 2 {
		return nil, m.NewBuildError(name, "duplicate count %d, minimum is 2", dupCount)
	}

	return newRangeMutator(name, duplicateStrategy{dupCount: dupCount}, fieldCount, delim, fields)
}

// NewRotate builds a mutator left-rotating the window through every
// non-trivial offset.
func NewRotate(name string, fieldCount int, delim domain.Field, fields ...domain.Field) (*RangeMutator, error) {
	return newRangeMutator(name, rotateStrategy{}, fieldCount, delim, fields)
}

// Kind returns the strategy tag.
func (r *RangeMutator) Kind() m.Kind { return r.strategy.kind() }

// Children returns the owned fields plus the delimiter.
func (r *RangeMutator) Children() []domain.Field {
	if r.delim == nil {
		return r.fields
	}

	out := make([]domain.Field, 0, len(r.fields)+1)
	out = append(out, r.fields...)
	out = append(out, r.delim)

	return out
}

// NumMutations derives the space from the window arithmetic.
func (r *RangeMutator) NumMutations() int {
	return r.strategy.numMutations(len(r.fields), r.fieldCount)
}

// Mutate slides to the next window position.
func (r *RangeMutator) Mutate() bool { return r.Step(r.NumMutations()) }

// Skip advances the cursor by up to n steps.
func (r *RangeMutator) Skip(n int) int { return r.StepN(r.NumMutations(), n) }

// Reset restores the unmodified sequence.
func (r *RangeMutator) Reset() {
	for _, f := range r.fields {
		f.Reset()
	}

	if r.delim != nil {
		r.delim.Reset()
	}

	r.ResetCursor()
}

// Render renders every field, applies the window transform for the current
// index and joins the result, delimiter interleaved.
func (r *RangeMutator) Render(ctx *domain.RenderContext) (bitstring.BitString, error) {
	units, err := renderAll(ctx, r.fields)
	if err != nil {
		return bitstring.Empty(), err
	}

	if r.Mutating() {
		units = r.strategy.apply(units, r.fieldCount, r.Index())
	}

	return joinUnits(ctx, units, r.delim)
}

// Hash covers the strategy, its parameters, the window size and the
// children's structural hashes.
func (r *RangeMutator) Hash() uint64 {
	params := []uint64{uint64(r.fieldCount)}
	params = append(params, r.strategy.params()...)

	for _, f := range r.fields {
		params = append(params, f.Hash())
	}

	if r.delim != nil {
		params = append(params, 1, r.delim.Hash())
	}

	return structHash(r.strategy.kind(), params...)
}

// Info describes the mutator and its subtree.
func (r *RangeMutator) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         r.strategy.kind(),
		Strategy:     r.strategy.describe(r.fieldCount),
		NumMutations: r.NumMutations(),
		Children:     childInfos(r.fields),
	}
	r.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine deep copy.
func (r *RangeMutator) Clone() domain.Field {
	var delim domain.Field
	if r.delim != nil {
		delim = r.delim.Clone()
	}

	clone, err := newRangeMutator(r.Name(), r.strategy, r.fieldCount, delim, cloneFields(r.fields))
	if err != nil {
		panic(fmt.Sprintf("range mutator clone: %v", err))
	}

	return clone
}

type omitStrategy struct{}

func (omitStrategy) kind() m.Kind { return m.KindOmit }

func (omitStrategy) numMutations(l, n int) int { return l - n + 1 }

func (omitStrategy) apply(units []bitstring.BitString, n, idx int) []bitstring.BitString {
	out := make([]bitstring.BitString, 0, len(units)-n)
	out = append(out, units[:idx]...)
	out = append(out, units[idx+n:]...)

	return out
}

func (omitStrategy) describe(n int) string { return fmt.Sprintf("omit window of %d", n) }

func (omitStrategy) params() []uint64 { return nil }

type duplicateStrategy struct {
	dupCount int
}

func (duplicateStrategy) kind() m.Kind { return m.KindDuplicate }

func (duplicateStrategy) numMutations(l, n int) int { return l - n + 1 }

func (s duplicateStrategy) apply(units []bitstring.BitString, n, idx int) []bitstring.BitString {
	out := make([]bitstring.BitString, 0, len(units)+n*(s.dupCount-1))
	out = append(out, units[:idx]...)

	for _, u := range units[idx : idx+n] {
		for rep := 0; rep < s.dupCount; rep++ {
			out = append(out, u)
		}
	}

	return append(out, units[idx+n:]...)
}

func (s duplicateStrategy) describe(n int) string {
	return fmt.Sprintf("duplicate window of %d, %d times", n, s.dupCount)
}

func (s duplicateStrategy) params() []uint64 { return []uint64{uint64(s.dupCount)} }

type rotateStrategy struct{}

func (rotateStrategy) kind() m.Kind { return m.KindRotate }

func (rotateStrategy) numMutations(l, n int) int { return (l - n + 1) * (n - 1) }

func (rotateStrategy) apply(units []bitstring.BitString, n, idx int) []bitstring.BitString {
	start := idx / (n - 1)
	offset := idx%(n-1) + 1

	out := make([]bitstring.BitString, 0, len(units))
	out = append(out, units[:start]...)
	out = append(out, units[start+offset:start+n]...)
	out = append(out, units[start:start+offset]...)

	return append(out, units[start+n:]...)
}

func (rotateStrategy) describe(n int) string { return fmt.Sprintf("rotate window of %d", n) }

func (rotateStrategy) params() []uint64 { return nil }
