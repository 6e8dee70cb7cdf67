package domain

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

func collectCases(ch <-chan m.Case) []m.Case {
	var out []m.Case
	for c := range ch {
		out = append(out, c)
	}

	return out
}

func TestStreamEnumeratesWholeSpace(t *testing.T) {
	tpl := buildTestTemplate(t)

	stream := NewCaseStreamer().Stream(context.Background(), tpl, -1, 4)

	cases := collectCases(stream.Cases())
	require.Len(t, cases, tpl.NumMutations())
	require.NoError(t, stream.Err())

	for i, c := range cases {
		require.Equal(t, i, c.Index)
		require.NotEmpty(t, c.Data)
	}
}

func TestStreamHonorsLimit(t *testing.T) {
	tpl := buildTestTemplate(t)

	cases := collectCases(NewCaseStreamer().Stream(context.Background(), tpl, 5, 1).Cases())
	require.Len(t, cases, 5)
	require.Equal(t, 4, cases[4].Index)
}

func TestStreamLimitLeavesCursorResumable(t *testing.T) {
	tpl := buildTestTemplate(t)

	first := collectCases(NewCaseStreamer().Stream(context.Background(), tpl, 5, 1).Cases())
	require.Len(t, first, 5)

	// Stopping at the limit must not burn an extra index: the cursor sits on
	// the last emitted case and a follow-up stream continues gap-free.
	require.Equal(t, 4, tpl.CurrentIndex())

	rest := collectCases(NewCaseStreamer().Stream(context.Background(), tpl, -1, 1).Cases())
	require.Len(t, rest, tpl.NumMutations()-5)
	require.Equal(t, 5, rest[0].Index)
}

func TestStreamZeroLimit(t *testing.T) {
	tpl := buildTestTemplate(t)

	cases := collectCases(NewCaseStreamer().Stream(context.Background(), tpl, 0, 1).Cases())
	require.Empty(t, cases)
	require.Equal(t, -1, tpl.CurrentIndex())
}

func TestStreamStartsAtCursor(t *testing.T) {
	tpl := buildTestTemplate(t)
	require.Equal(t, 3, tpl.Skip(3))

	cases := collectCases(NewCaseStreamer().Stream(context.Background(), tpl, -1, 1).Cases())
	require.Len(t, cases, tpl.NumMutations()-3)
	require.Equal(t, 3, cases[0].Index)
}

func TestStreamReportsRenderFailure(t *testing.T) {
	tpl := buildOverflowTemplate(t)

	stream := NewCaseStreamer().Stream(context.Background(), tpl, -1, 1)

	cases := collectCases(stream.Cases())
	require.Len(t, cases, 3)

	err := stream.Err()
	require.Error(t, err)
	require.Contains(t, err.Error(), "does not fit")
	require.Equal(t, 3, tpl.CurrentIndex())
}

func TestStreamMatchesDirectDriving(t *testing.T) {
	streamed := buildTestTemplate(t)
	driven := buildTestTemplate(t)

	cases := collectCases(NewCaseStreamer().Stream(context.Background(), streamed, -1, 2).Cases())

	for _, c := range cases {
		require.True(t, driven.Mutate())

		want, err := driven.Render()
		require.NoError(t, err)
		require.Equal(t, want, c.Data, "index %d", c.Index)
	}
}

func TestStreamCancellation(t *testing.T) {
	tpl := buildTestTemplate(t)

	ctx, cancel := context.WithCancel(context.Background())

	ch := NewCaseStreamer().Stream(ctx, tpl, -1, 1).Cases()

	// Take one case, then cancel; the channel must close without draining
	// the whole space.
	_, ok := <-ch
	require.True(t, ok)

	cancel()

	cases := collectCases(ch)
	require.Less(t, len(cases), tpl.NumMutations())
}

func TestShardPassThroughWhenDisabled(t *testing.T) {
	in := make(chan m.Case, 4)
	for i := 0; i < 4; i++ {
		in <- m.Case{Index: i}
	}
	close(in)

	out := collectCases(NewCaseStreamer().Shard(context.Background(), in, 1, 0, 0))
	require.Len(t, out, 4)
}

func TestShardFiltersByIndex(t *testing.T) {
	const total = 3

	feeds := func() <-chan m.Case {
		in := make(chan m.Case, 10)
		for i := 0; i < 10; i++ {
			in <- m.Case{Index: i}
		}
		close(in)

		return in
	}

	seen := make(map[int]int)

	for shard := 0; shard < total; shard++ {
		out := collectCases(NewCaseStreamer().Shard(context.Background(), feeds(), 1, shard, total))
		for _, c := range out {
			require.Equal(t, shard, c.Index%total)
			seen[c.Index]++
		}
	}

	// Each index lands on exactly one shard.
	require.Len(t, seen, 10)
	for idx, count := range seen {
		require.Equal(t, 1, count, "index %d", idx)
	}
}

func TestShardStableAcrossCursorOffsets(t *testing.T) {
	// The assignment keys on the case index, so an input stream that starts
	// mid-space selects the same members it would in a full run.
	in := make(chan m.Case, 5)
	for i := 5; i < 10; i++ {
		in <- m.Case{Index: i}
	}
	close(in)

	out := collectCases(NewCaseStreamer().Shard(context.Background(), in, 1, 1, 2))

	var got []int
	for _, c := range out {
		got = append(got, c.Index)
	}

	require.Equal(t, []int{5, 7, 9}, got)
}
