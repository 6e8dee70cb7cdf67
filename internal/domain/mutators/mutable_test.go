package mutators

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMutableRejectsEmptyValue(t *testing.T) {
	_, err := NewMutable("m", nil)
	require.Error(t, err)
}

func TestMutableBaselineIsUntouchedValue(t *testing.T) {
	mut, err := NewMutable("m", []byte{0xca, 0xfe})
	require.NoError(t, err)

	require.Equal(t, []byte{0xca, 0xfe}, renderBytes(t, mut))
}

func TestMutableSingleByteSpace(t *testing.T) {
	mut, err := NewMutable("m", []byte{0x00})
	require.NoError(t, err)

	// One byte joins byteflip width 1 and bitflip widths 1..5:
	// 1 + 8 + 7 + 6 + 5 + 4 = 31 mutations. Block operations need at least
	// four bytes and are absent.
	require.Equal(t, 31, mut.NumMutations())

	require.True(t, mut.Mutate())
	require.Equal(t, []byte{0xff}, renderBytes(t, mut))

	// The second mutation enters the bitflip-1 alternative at bit zero.
	require.True(t, mut.Mutate())
	require.Equal(t, []byte{0x80}, renderBytes(t, mut))
}

func TestMutableClipsWidthsToValue(t *testing.T) {
	mut, err := NewMutable("m", []byte{0x00, 0x00})
	require.NoError(t, err)

	// Two bytes: byteflip {1,2} and bitflip {1..5}; no block alternatives.
	want := (2 + 1) + // byteflip 1
		1 + // byteflip 2
		16 + 15 + 14 + 13 + 12 // bitflip 1..5

	require.Equal(t, want, mut.NumMutations())
}

func TestMutableIncludesBlockFamilies(t *testing.T) {
	value := make([]byte, 8)

	mut, err := NewMutable("m", value)
	require.NoError(t, err)

	kinds := make(map[string]int)
	for _, child := range mut.Children() {
		kinds[string(child.Kind())]++
	}

	require.Equal(t, 3, kinds["byteflip"])
	require.Equal(t, 5, kinds["bitflip"])
	// Block sizes 4 and 8 fit an 8 byte value; 16 does not.
	require.Equal(t, 2, kinds["blockremove"])
	require.Equal(t, 2, kinds["blockduplicate"])
	require.Equal(t, 2, kinds["blockset"])
}

func TestMutableWalkIsExhaustive(t *testing.T) {
	mut, err := NewMutable("m", []byte{0x12, 0x34})
	require.NoError(t, err)

	count := 0
	for mut.Mutate() {
		count++

		out := renderBytes(t, mut)
		require.NotEmpty(t, out)
	}

	require.Equal(t, mut.NumMutations(), count)
}
