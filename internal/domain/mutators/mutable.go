package mutators

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Aggregation parameters for NewMutable. Widths that do not fit the buffer
// are clipped; block operations only join when the buffer is long enough.
var (
	mutableByteFlipWidths = []int{1, 2, 4}
	mutableBitFlipWidths  = []int{1, 2, 3, 4, 5}
	mutableBlockSizes     = []int{4, 8, 16}
)

const mutableBlockDupCount = 2

// NewMutable aggregates the buffer strategies over one opaque value as a
// single alternation: ByteFlip over {1,2,4}, BitFlip over small widths and
// block remove/duplicate/set at {4,8,16} where the value is long enough. The
// baseline rendering is the untouched value.
func NewMutable(name string, value []byte) (*domain.OneOf, error) {
	if len(value) == 0 {
		return nil, m.NewBuildError(name, "mutable field requires a non-empty value")
	}

	var alts []domain.Field

	for _, w := range mutableByteFlipWidths {
		if w > len(value) {
			continue
		}

		alt, err := NewByteFlip(fmt.Sprintf("%s_byteflip_%d", name, w), value, w)
		if err != nil {
			return nil, err
		}

		alts = append(alts, alt)
	}

	for _, w := range mutableBitFlipWidths {
		if w > len(value)*8 {
			continue
		}

		alt, err := NewBitFlip(fmt.Sprintf("%s_bitflip_%d", name, w), value, w)
		if err != nil {
			return nil, err
		}

		alts = append(alts, alt)
	}

	for _, size := range mutableBlockSizes {
		if size > len(value) {
			continue
		}

		remove, err := NewBlockRemove(fmt.Sprintf("%s_blockremove_%d", name, size), value, size)
		if err != nil {
			return nil, err
		}

		duplicate, err := NewBlockDuplicate(fmt.Sprintf("%s_blockdup_%d", name, size), value, size, mutableBlockDupCount)
		if err != nil {
			return nil, err
		}

		set, err := NewBlockSet(fmt.Sprintf("%s_blockset_%d", name, size), value, size, 0x00)
		if err != nil {
			return nil, err
		}

		alts = append(alts, remove, duplicate, set)
	}

	return domain.NewOneOf(name, alts...)
}
