package domain

import (
	"testing"

	"github.com/stretchr/testify/require"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

func mustContainer(t *testing.T, name string, fields ...Field) *Container {
	t.Helper()

	c, err := NewContainer(name, fields...)
	if err != nil {
		t.Fatalf("NewContainer(%s): %v", name, err)
	}

	return c
}

func TestContainerConstruction(t *testing.T) {
	t.Run("rejects empty field list", func(t *testing.T) {
		_, err := NewContainer("c")
		require.Error(t, err)

		var buildErr *m.BuildError
		require.ErrorAs(t, err, &buildErr)
	})

	t.Run("rejects duplicate sibling names", func(t *testing.T) {
		_, err := NewContainer("c",
			NewStatic("x", []byte{1}, nil),
			NewStatic("x", []byte{2}, nil),
		)
		require.Error(t, err)
	})

	t.Run("allows name reuse across subtrees", func(t *testing.T) {
		inner := mustContainer(t, "inner", NewStatic("x", []byte{1}, nil))
		_, err := NewContainer("c", inner, NewStatic("x", []byte{2}, nil))
		require.NoError(t, err)
	})

	t.Run("wires parents", func(t *testing.T) {
		child := NewStatic("x", []byte{1}, nil)
		c := mustContainer(t, "c", child)
		require.Same(t, Field(c), child.Parent())
	})
}

func TestContainerRenderConcatenates(t *testing.T) {
	c := mustContainer(t, "msg",
		NewStatic("a", []byte{0xaa}, nil),
		NewStatic("b", []byte{0xbb}, nil),
	)

	require.Equal(t, []byte{0xaa, 0xbb}, renderBytes(t, c))
}

func TestDelimitedRender(t *testing.T) {
	delim := NewStatic("", []byte{','}, nil)
	c, err := NewDelimited("csv", delim,
		NewStatic("a", []byte("x"), nil),
		NewStatic("b", []byte("y"), nil),
		NewStatic("c", []byte("z"), nil),
	)
	require.NoError(t, err)
	require.Equal(t, []byte("x,y,z"), renderBytes(t, c))
}

func TestContainerMutatesOneChildAtATime(t *testing.T) {
	a := mustInteger(t, "a", 0xaa, 8, false, nil)
	b := mustInteger(t, "b", 0xbb, 8, false, nil)
	c := mustContainer(t, "msg", a, b)

	require.Equal(t, a.NumMutations()+b.NumMutations(), c.NumMutations())

	// While a mutates, b stays at its default.
	for i := 0; i < a.NumMutations(); i++ {
		require.True(t, c.Mutate())
		require.Equal(t, byte(0xbb), renderBytes(t, c)[1])
	}

	// Crossing into b resets a back to its default.
	require.True(t, c.Mutate())
	require.Equal(t, byte(0xaa), renderBytes(t, c)[0])

	total := c.NumMutations()
	for i := a.NumMutations() + 1; i < total; i++ {
		require.True(t, c.Mutate())
	}

	require.False(t, c.Mutate())
}

func TestContainerSkipMatchesMutate(t *testing.T) {
	build := func() *Container {
		return mustContainer(t, "msg",
			mustInteger(t, "a", 1, 8, false, nil),
			NewString("s", []byte("hi"), true, nil),
			mustInteger(t, "b", 2, 16, false, nil),
		)
	}

	total := build().NumMutations()

	for _, n := range []int{1, 3, 12, 15, total} {
		stepped := build()
		for i := 0; i < n; i++ {
			require.True(t, stepped.Mutate(), "mutate %d of %d", i, n)
		}

		skipped := build()
		require.Equal(t, n, skipped.Skip(n))
		require.Equal(t, renderBytes(t, stepped), renderBytes(t, skipped), "n=%d", n)
	}
}

func TestContainerReset(t *testing.T) {
	c := mustContainer(t, "msg",
		mustInteger(t, "a", 0x11, 8, false, nil),
		mustInteger(t, "b", 0x22, 8, false, nil),
	)

	baseline := renderBytes(t, c)

	c.Skip(c.NumMutations() / 2)
	require.NotEqual(t, baseline, renderBytes(t, c))

	c.Reset()
	require.Equal(t, baseline, renderBytes(t, c))
}

func TestContainerHashOrderSensitive(t *testing.T) {
	ab := mustContainer(t, "c",
		mustInteger(t, "a", 0, 8, false, nil),
		mustInteger(t, "b", 0, 16, false, nil),
	)
	ba := mustContainer(t, "c",
		mustInteger(t, "b", 0, 16, false, nil),
		mustInteger(t, "a", 0, 8, false, nil),
	)

	require.NotEqual(t, ab.Hash(), ba.Hash())
}
