package mutators

import (
	"testing"

	"github.com/stretchr/testify/require"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
)

func TestListRejectsEmptyFieldList(t *testing.T) {
	_, err := NewList("l", nil)
	require.Error(t, err)
}

func TestListBaselineIsPlainSequence(t *testing.T) {
	l, err := NewList("l", nil, letters("ABC")...)
	require.NoError(t, err)

	require.Equal(t, "ABC", string(renderBytes(t, l)))
}

func TestListDelimiterEverywhere(t *testing.T) {
	delim := domain.NewStatic("comma", []byte(","), nil)

	l, err := NewList("l", delim, letters("ABC")...)
	require.NoError(t, err)

	require.Equal(t, "A,B,C", string(renderBytes(t, l)))

	// Every mutated rendering of a non-empty window arrangement keeps the
	// delimiter between elements.
	require.True(t, l.Mutate())
	require.Equal(t, "A,A,B,C", string(renderBytes(t, l)))
}

func TestListAlternativeFamilies(t *testing.T) {
	l, err := NewList("l", nil, letters("ABC")...)
	require.NoError(t, err)

	kinds := make(map[string]int)
	for _, child := range l.Children() {
		kinds[string(child.Kind())]++
	}

	// Windows over three fields dedupe to {1,2,3}; rotations to {2,3}.
	require.Equal(t, 1, kinds["container"])
	require.Equal(t, 15, kinds["duplicate"]) // 3 windows x 5 repeat counts
	require.Equal(t, 3, kinds["omit"])
	require.Equal(t, 2, kinds["rotate"])
}

func TestListMutationSpace(t *testing.T) {
	l, err := NewList("l", nil, letters("ABC")...)
	require.NoError(t, err)

	// Statics contribute nothing; duplicates (3+2+1)*5, omits 3+2+1,
	// rotations 2+2.
	require.Equal(t, 40, l.NumMutations())
}

func TestListFirstMutationDuplicates(t *testing.T) {
	l, err := NewList("l", nil, letters("ABC")...)
	require.NoError(t, err)

	require.True(t, l.Mutate())
	require.Equal(t, "AABC", string(renderBytes(t, l)))
}

func TestListWalkIsExhaustive(t *testing.T) {
	l, err := NewList("l", nil, letters("AB")...)
	require.NoError(t, err)

	count := 0
	seen := make(map[string]struct{})

	for l.Mutate() {
		count++
		seen[string(renderBytes(t, l))] = struct{}{}
	}

	require.Equal(t, l.NumMutations(), count)

	// Omission of the whole sequence and a swap both appear along the walk.
	require.Contains(t, seen, "")
	require.Contains(t, seen, "BA")
}

func TestListSkipMatchesMutate(t *testing.T) {
	build := func(t *testing.T) *domain.OneOf {
		l, err := NewList("l", nil, letters("ABC")...)
		require.NoError(t, err)

		return l
	}

	total := build(t).NumMutations()

	for _, n := range []int{1, 10, 25, total} {
		stepped := build(t)
		for i := 0; i < n; i++ {
			require.True(t, stepped.Mutate())
		}

		skipped := build(t)
		require.Equal(t, n, skipped.Skip(n))
		require.Equal(t, renderBytes(t, stepped), renderBytes(t, skipped), "n=%d", n)
	}
}

func TestListFuzzableElementsMutateInPlainSequence(t *testing.T) {
	payload := domain.NewString("p", []byte("x"), true, nil)

	l, err := NewList("l", nil, domain.NewStatic("a", []byte("A"), nil), payload)
	require.NoError(t, err)

	// The plain-sequence alternative owns a clone of the payload, so the
	// string library contributes to the list's space.
	require.True(t, l.Mutate())
	require.Equal(t, "A", string(renderBytes(t, l)))
}
