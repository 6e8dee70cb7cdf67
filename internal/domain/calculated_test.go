package domain

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"testing"

	"github.com/stretchr/testify/require"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

func mustSize(t *testing.T, name, of string, width int, fuzzable bool, fn SizeFunc) *Size {
	t.Helper()

	f, err := NewSize(name, of, width, fuzzable, nil, fn)
	if err != nil {
		t.Fatalf("NewSize(%s of %s): %v", name, of, err)
	}

	return f
}

func TestSizeConstruction(t *testing.T) {
	t.Run("rejects empty target", func(t *testing.T) {
		_, err := NewSize("len", "", 16, false, nil, nil)
		require.Error(t, err)
	})

	t.Run("rejects out of range width", func(t *testing.T) {
		for _, w := range []int{0, -8, 65, 128} {
			_, err := NewSize("len", "payload", w, false, nil, nil)
			require.Error(t, err, "width %d", w)
		}
	})
}

func TestSizeForwardReference(t *testing.T) {
	// The length prefix is declared before the field it measures.
	c := mustContainer(t, "msg",
		mustSize(t, "len", "payload", 16, false, nil),
		NewStatic("payload", []byte("hello"), nil),
	)

	require.Equal(t, []byte{0x00, 0x05, 'h', 'e', 'l', 'l', 'o'}, renderBytes(t, c))
}

func TestSizeInBitsUnit(t *testing.T) {
	c := mustContainer(t, "msg",
		mustSize(t, "len", "payload", 16, false, SizeInBits),
		NewStatic("payload", []byte("hello"), nil),
	)

	require.Equal(t, []byte{0x00, 0x28, 'h', 'e', 'l', 'l', 'o'}, renderBytes(t, c))
}

func TestSizeTracksMutatedTarget(t *testing.T) {
	payload := NewString("payload", []byte("hello"), true, nil)
	c := mustContainer(t, "msg",
		mustSize(t, "len", "payload", 16, false, nil),
		payload,
	)

	// First string mutation swaps in the empty value.
	require.True(t, c.Mutate())

	got := renderBytes(t, c)
	require.Equal(t, []byte{0x00, 0x00}, got)
}

func TestSizeFuzzableOverridesComputation(t *testing.T) {
	size := mustSize(t, "len", "payload", 16, true, nil)
	c := mustContainer(t, "msg",
		size,
		NewStatic("payload", []byte("hi"), nil),
	)

	require.Positive(t, size.NumMutations())

	// Baseline still computes from the target.
	require.Equal(t, []byte{0x00, 0x02, 'h', 'i'}, renderBytes(t, c))

	// A mutated cursor replaces the computation with the first library value.
	require.True(t, size.Mutate())
	require.Equal(t, []byte{0x00, 0x00, 'h', 'i'}, renderBytes(t, c))

	size.Reset()
	require.Equal(t, []byte{0x00, 0x02, 'h', 'i'}, renderBytes(t, c))
}

func TestSizeNotFuzzableHasNoMutations(t *testing.T) {
	size := mustSize(t, "len", "payload", 16, false, nil)
	require.Zero(t, size.NumMutations())
	require.False(t, size.Mutate())
	require.Zero(t, size.Skip(5))
}

func TestSizeUnresolvedTarget(t *testing.T) {
	c := mustContainer(t, "msg",
		mustSize(t, "len", "nosuch", 16, false, nil),
		NewStatic("payload", []byte("hi"), nil),
	)

	_, err := NewRenderContext().Render(c)
	require.Error(t, err)

	var resolveErr *m.ResolveError
	require.ErrorAs(t, err, &resolveErr)
	require.Equal(t, "nosuch", resolveErr.Name)
}

func TestSizeSelfCycle(t *testing.T) {
	// The size field measures its own enclosing container.
	c := mustContainer(t, "outer",
		mustSize(t, "len", "outer", 16, false, nil),
		NewStatic("payload", []byte("hi"), nil),
	)

	_, err := NewRenderContext().Render(c)
	require.Error(t, err)

	var cycleErr *m.CycleError
	require.ErrorAs(t, err, &cycleErr)
	require.Contains(t, cycleErr.Path, "outer")
}

func TestSizeMutualCycle(t *testing.T) {
	c := mustContainer(t, "msg",
		mustSize(t, "a", "b", 16, false, nil),
		mustSize(t, "b", "a", 16, false, nil),
	)

	_, err := NewRenderContext().Render(c)

	var cycleErr *m.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestChecksumConstruction(t *testing.T) {
	t.Run("rejects empty target", func(t *testing.T) {
		_, err := NewChecksum("sum", "", DigestSHA256)
		require.Error(t, err)
	})

	t.Run("rejects unknown algorithm", func(t *testing.T) {
		_, err := NewChecksum("sum", "payload", DigestAlg("crc32"))
		require.Error(t, err)
	})
}

func TestChecksumDigests(t *testing.T) {
	payload := []byte("hello")

	md5Sum := md5.Sum(payload)
	sha1Sum := sha1.Sum(payload)
	sha256Sum := sha256.Sum256(payload)

	tests := []struct {
		alg  DigestAlg
		want []byte
	}{
		{DigestMD5, md5Sum[:]},
		{DigestSHA1, sha1Sum[:]},
		{DigestSHA256, sha256Sum[:]},
	}

	for _, tt := range tests {
		t.Run(string(tt.alg), func(t *testing.T) {
			sum, err := NewChecksum("sum", "payload", tt.alg)
			require.NoError(t, err)

			c := mustContainer(t, "msg",
				NewStatic("payload", payload, nil),
				sum,
			)

			require.Equal(t, append(append([]byte(nil), payload...), tt.want...), renderBytes(t, c))
		})
	}
}

func TestChecksumTracksMutatedTarget(t *testing.T) {
	payload := NewString("payload", []byte("hello"), true, nil)
	sum, err := NewChecksum("sum", "payload", DigestSHA256)
	require.NoError(t, err)

	c := mustContainer(t, "msg", payload, sum)

	require.True(t, c.Mutate())

	// First string mutation renders empty bytes, so the digest is of nothing.
	empty := sha256.Sum256(nil)
	require.Equal(t, empty[:], renderBytes(t, c))
}

func TestChecksumSelfCycle(t *testing.T) {
	sum, err := NewChecksum("sum", "outer", DigestSHA256)
	require.NoError(t, err)

	c := mustContainer(t, "outer", NewStatic("payload", []byte("hi"), nil), sum)

	_, err = NewRenderContext().Render(c)

	var cycleErr *m.CycleError
	require.ErrorAs(t, err, &cycleErr)
}

func TestChecksumHasNoMutations(t *testing.T) {
	sum, err := NewChecksum("sum", "payload", DigestMD5)
	require.NoError(t, err)

	require.Zero(t, sum.NumMutations())
	require.False(t, sum.Mutate())
	require.Zero(t, sum.Skip(3))
}
