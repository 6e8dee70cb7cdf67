package mutators

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// List aggregation parameters, relative to the total field count L:
// duplicate and omit windows over {1, 2, L/2, L}, duplicate counts over
// {2,5,10,100,1000}, rotate windows over {2,5,10,L/3,L/2,L} clipped to
// [2, L]. Degenerate and repeated window sizes are dropped.
var listDupCounts = []int{2, 5, 10, 100, 1000}

// NewList composes ordered-collection fuzzing over fields as an alternation:
// the unmodified sequence under ordinary per-field mutation, then window
// duplication, omission and rotation families. Every alternative owns its own
// deep copies of the fields, keeping tree ownership single-parented. delim,
// when non-nil, is interleaved between rendered elements everywhere.
func NewList(name string, delim domain.Field, fields ...domain.Field) (*domain.OneOf, error) {
	if len(fields) == 0 {
		return nil, m.NewBuildError(name, "list requires at least one field")
	}

	l := len(fields)
	alts := make([]domain.Field, 0, 16)

	plain, err := plainSequence(name, delim, fields)
	if err != nil {
		return nil, err
	}

	alts = append(alts, plain)

	for _, window := range windowSizes(l, 1, []int{1, 2, l / 2, l}) {
		for _, dup := range listDupCounts {
			alt, err := NewDuplicate(
				fmt.Sprintf("%s_dup_%d_x%d", name, window, dup),
				window, dup, cloneDelim(delim), cloneFields(fields)...)
			if err != nil {
				return nil, err
			}

			alts = append(alts, alt)
		}
	}

	for _, window := range windowSizes(l, 1, []int{1, 2, l / 2, l}) {
		alt, err := NewOmit(
			fmt.Sprintf("%s_omit_%d", name, window),
			window, cloneDelim(delim), cloneFields(fields)...)
		if err != nil {
			return nil, err
		}

		alts = append(alts, alt)
	}

	for _, window := range windowSizes(l, 2, []int{2, 5, 10, l / 3, l / 2, l}) {
		alt, err := NewRotate(
			fmt.Sprintf("%s_rot_%d", name, window),
			window, cloneDelim(delim), cloneFields(fields)...)
		if err != nil {
			return nil, err
		}

		alts = append(alts, alt)
	}

	return domain.NewOneOf(name, alts...)
}

// plainSequence is the ordinary per-field mutation alternative.
func plainSequence(name string, delim domain.Field, fields []domain.Field) (domain.Field, error) {
	seqName := name + "_fields"
	if delim == nil {
		return domain.NewContainer(seqName, cloneFields(fields)...)
	}

	return domain.NewDelimited(seqName, delim.Clone(), cloneFields(fields)...)
}

// windowSizes clips candidates to [min, l] and deduplicates preserving order.
func windowSizes(l, min int, candidates []int) []int {
	seen := make(map[int]struct{}, len(candidates))
	out := make([]int, 0, len(candidates))

	for _, c := range candidates {
		if c < min || c > l {
			continue
		}

		if _, dup := seen[c]; dup {
			continue
		}

		seen[c] = struct{}{}
		out = append(out, c)
	}

	return out
}

func cloneDelim(delim domain.Field) domain.Field {
	if delim == nil {
		return nil
	}

	return delim.Clone()
}
