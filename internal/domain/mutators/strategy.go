package mutators

import (
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// bufferStrategy computes one mutated buffer per position index.
type bufferStrategy interface {
	kind() m.Kind
	// numMutations derives the space from the buffer length in bytes.
	numMutations(value []byte) int
	// apply returns the buffer mutated at position idx. It must not modify
	// value.
	apply(value []byte, idx int) []byte
	describe() string
	params() []uint64
}

// BufferMutator walks a deterministic, position-indexed strategy over a fixed
// buffer: the default rendering is the untouched buffer, mutation index i the
// strategy applied at position i.
type BufferMutator struct {
	domain.Base
	value    []byte
	strategy bufferStrategy
}

func newBufferMutator(name string, strategy bufferStrategy, value []byte) (*BufferMutator, error) {
	if strategy.numMutations(value) < 1 {
		return nil, m.NewBuildError(name, "%s: %s does not fit a %d byte buffer",
			strategy.kind(), strategy.describe(), len(value))
	}

	v := make([]byte, len(value))
	copy(v, value)

	return &BufferMutator{Base: domain.NewBase(name, true), value: v, strategy: strategy}, nil
}

// NewBitFlip builds a mutator inverting numBits consecutive bits at every
// position of the buffer.
func NewBitFlip(name string, value []byte, numBits int) (*BufferMutator, error) {
	if numBits < 1 {
		return nil, m.NewBuildError(name, "bitflip width %d, minimum is 1", numBits)
	}

	if numBits > len(value)*8 {
		return nil, m.NewBuildError(name, "bitflip width %d exceeds %d value bits", numBits, len(value)*8)
	}

	return newBufferMutator(name, bitFlipStrategy{numBits: numBits}, value)
}

// NewByteFlip builds a mutator XORing numBytes consecutive bytes with 0xff at
// every position of the buffer.
func NewByteFlip(name string, value []byte, numBytes int) (*BufferMutator, error) {
	if numBytes < 1 {
		return nil, m.NewBuildError(name, "byteflip width %d, minimum is 1", numBytes)
	}

	if numBytes > len(value) {
		return nil, m.NewBuildError(name, "byteflip width %d exceeds %d value bytes", numBytes, len(value))
	}

	return newBufferMutator(name, byteFlipStrategy{numBytes: numBytes}, value)
}

// NewBlockRemove builds a mutator deleting a sliding blockSize-byte window.
func NewBlockRemove(name string, value []byte, blockSize int) (*BufferMutator, error) {
	if err := checkBlockSize(name, value, blockSize); err != nil {
		return nil, err
	}

	return newBufferMutator(name, blockRemoveStrategy{blockSize: blockSize}, value)
}

// NewBlockDuplicate builds a mutator repeating a sliding blockSize-byte
// window dupCount times.
func NewBlockDuplicate(name string, value []byte, blockSize, dupCount int) (*BufferMutator, error) {
	if err := checkBlockSize(name, value, blockSize); err != nil {
		return nil, err
	}

	if dupCount < 2 {
		return nil, m.NewBuildError(name, "block duplicate count %d, minimum is 2", dupCount)
	}

	return newBufferMutator(name, blockDuplicateStrategy{blockSize: blockSize, dupCount: dupCount}, value)
}

// NewBlockSet builds a mutator overwriting a sliding blockSize-byte window
// with the fill byte.
func NewBlockSet(name string, value []byte, blockSize int, fill byte) (*BufferMutator, error) {
	if err := checkBlockSize(name, value, blockSize); err != nil {
		return nil, err
	}

	return newBufferMutator(name, blockSetStrategy{blockSize: blockSize, fill: fill}, value)
}

func checkBlockSize(name string, value []byte, blockSize int) error {
	if blockSize < 1 {
		return m.NewBuildError(name, "block size %d, minimum is 1", blockSize)
	}

	if blockSize > len(value) {
		return m.NewBuildError(name, "block size %d exceeds %d value bytes", blockSize, len(value))
	}

	return nil
}

// Kind returns the strategy tag.
func (b *BufferMutator) Kind() m.Kind { return b.strategy.kind() }

// NumMutations derives the space from the buffer length and strategy.
func (b *BufferMutator) NumMutations() int { return b.strategy.numMutations(b.value) }

// Mutate slides to the next position.
func (b *BufferMutator) Mutate() bool { return b.Step(b.NumMutations()) }

// Skip advances the cursor by up to n steps.
func (b *BufferMutator) Skip(n int) int { return b.StepN(b.NumMutations(), n) }

// Reset restores the untouched buffer.
func (b *BufferMutator) Reset() { b.ResetCursor() }

// CurrentValue exposes the buffer the next Render will emit.
func (b *BufferMutator) CurrentValue() m.Value {
	if b.Mutating() {
		return m.BytesValue(b.strategy.apply(b.value, b.Index()))
	}

	return m.BytesValue(b.value)
}

// Render emits the current buffer.
func (b *BufferMutator) Render(_ *domain.RenderContext) (bitstring.BitString, error) {
	return bitstring.FromBytes(b.CurrentValue().Bytes), nil
}

// Hash covers the strategy and its parameters plus the buffer length, which
// fixes the mutation space.
func (b *BufferMutator) Hash() uint64 {
	params := append([]uint64{uint64(len(b.value))}, b.strategy.params()...)

	return structHash(b.strategy.kind(), params...)
}

// Info describes the mutator.
func (b *BufferMutator) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         b.strategy.kind(),
		Strategy:     fmt.Sprintf("%s over %d bytes", b.strategy.describe(), len(b.value)),
		NumMutations: b.NumMutations(),
	}
	b.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy.
func (b *BufferMutator) Clone() domain.Field {
	clone := *b
	clone.Base = b.CloneBase()
	clone.value = append([]byte(nil), b.value...)

	return &clone
}

type bitFlipStrategy struct {
	numBits int
}

func (bitFlipStrategy) kind() m.Kind { return m.KindBitFlip }

func (s bitFlipStrategy) numMutations(value []byte) int { return len(value)*8 - s.numBits + 1 }

func (s bitFlipStrategy) apply(value []byte, idx int) []byte {
	out := append([]byte(nil), value...)
	for bit := idx; bit < idx+s.numBits; bit++ {
		out[bit/8] ^= 0x80 >> uint(bit%8)
	}

	return out
}

func (s bitFlipStrategy) describe() string { return fmt.Sprintf("flip %d bits", s.numBits) }

func (s bitFlipStrategy) params() []uint64 { return []uint64{uint64(s.numBits)} }

type byteFlipStrategy struct {
	numBytes int
}

func (byteFlipStrategy) kind() m.Kind { return m.KindByteFlip }

func (s byteFlipStrategy) numMutations(value []byte) int { return len(value) - s.numBytes + 1 }

func (s byteFlipStrategy) apply(value []byte, idx int) []byte {
	out := append([]byte(nil), value...)
	for i := idx; i < idx+s.numBytes; i++ {
		out[i] ^= 0xff
	}

	return out
}

func (s byteFlipStrategy) describe() string { return fmt.Sprintf("flip %d bytes", s.numBytes) }

func (s byteFlipStrategy) params() []uint64 { return []uint64{uint64(s.numBytes)} }

type blockRemoveStrategy struct {
	blockSize int
}

func (blockRemoveStrategy) kind() m.Kind { return m.KindBlockRemove }

func (s blockRemoveStrategy) numMutations(value []byte) int { return len(value) - s.blockSize + 1 }

func (s blockRemoveStrategy) apply(value []byte, idx int) []byte {
	out := make([]byte, 0, len(value)-s.blockSize)
	out = append(out, value[:idx]...)

	return append(out, value[idx+s.blockSize:]...)
}

func (s blockRemoveStrategy) describe() string { return fmt.Sprintf("remove %d byte block", s.blockSize) }

func (s blockRemoveStrategy) params() []uint64 { return []uint64{uint64(s.blockSize)} }

type blockDuplicateStrategy struct {
	blockSize int
	dupCount  int
}

func (blockDuplicateStrategy) kind() m.Kind { return m.KindBlockDuplicate }

func (s blockDuplicateStrategy) numMutations(value []byte) int { return len(value) - s.blockSize + 1 }

func (s blockDuplicateStrategy) apply(value []byte, idx int) []byte {
	out := make([]byte, 0, len(value)+s.blockSize*(s.dupCount-1))
	out = append(out, value[:idx]...)

	for rep := 0; rep < s.dupCount; rep++ {
		out = append(out, value[idx:idx+s.blockSize]...)
	}

	return append(out, value[idx+s.blockSize:]...)
}

func (s blockDuplicateStrategy) describe() string {
	return fmt.Sprintf("duplicate %d byte block %d times", s.blockSize, s.dupCount)
}

func (s blockDuplicateStrategy) params() []uint64 {
	return []uint64{uint64(s.blockSize), uint64(s.dupCount)}
}

type blockSetStrategy struct {
	blockSize int
	fill      byte
}

func (blockSetStrategy) kind() m.Kind { return m.KindBlockSet }

func (s blockSetStrategy) numMutations(value []byte) int { return len(value) - s.blockSize + 1 }

func (s blockSetStrategy) apply(value []byte, idx int) []byte {
	out := append([]byte(nil), value...)
	for i := idx; i < idx+s.blockSize; i++ {
		out[i] = s.fill
	}

	return out
}

func (s blockSetStrategy) describe() string {
	return fmt.Sprintf("set %d byte block to %#02x", s.blockSize, s.fill)
}

func (s blockSetStrategy) params() []uint64 {
	return []uint64{uint64(s.blockSize), uint64(s.fill)}
}
