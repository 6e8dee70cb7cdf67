package domain

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"fmt"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/encoding"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// SizeFunc transforms a rendered bit length into the value a Size field
// encodes, e.g. bits to bytes.
type SizeFunc func(bits int) int64

// SizeInBytes is the default transform: full bytes, rounding partial bytes up.
func SizeInBytes(bits int) int64 { return int64(bits+7) / 8 }

// SizeInBits encodes the raw bit length.
func SizeInBits(bits int) int64 { return int64(bits) }

// Size is a dependent field encoding the rendered length of another named
// field. The target may be declared after the Size field; resolution happens
// when the tree is frozen or on first render, whichever comes first. When
// fuzzable, the field additionally walks the integer mutation library for its
// width instead of the computed length.
type Size struct {
	Base
	of      string
	width   int
	enc     encoding.IntEncoder
	fn      SizeFunc
	fnID    string
	target  Field
	library []int64
}

// NewSize constructs a Size field over the named target. fn defaults to
// SizeInBytes, enc to BigEndian.
func NewSize(name, of string, widthBits int, fuzzable bool, enc encoding.IntEncoder, fn SizeFunc) (*Size, error) {
	if of == "" {
		return nil, m.NewBuildError(name, "size field requires a target field name")
	}

	if widthBits < 1 || widthBits > 64 {
		return nil, m.NewBuildError(name, "width %d bits outside 1..64", widthBits)
	}

	if enc == nil {
		enc = encoding.BigEndian
	}

	fnID := "bytes"
	if fn == nil {
		fn = SizeInBytes
	} else {
		fnID = "custom"
	}

	f := &Size{
		Base:  NewBase(name, fuzzable),
		of:    of,
		width: widthBits,
		enc:   enc,
		fn:    fn,
		fnID:  fnID,
	}

	for _, v := range integerLibrary(widthBits, false) {
		if _, err := enc.Encode(v, widthBits, false); err == nil {
			f.library = append(f.library, v)
		}
	}

	return f, nil
}

// Kind returns the size tag.
func (f *Size) Kind() m.Kind { return m.KindSize }

// NumMutations returns the integer library size, zero when not fuzzable.
func (f *Size) NumMutations() int {
	if !f.Fuzzable() {
		return 0
	}

	return len(f.library)
}

// Mutate advances to the next library value.
func (f *Size) Mutate() bool { return f.Step(f.NumMutations()) }

// Skip advances the cursor by up to n steps.
func (f *Size) Skip(n int) int { return f.StepN(f.NumMutations(), n) }

// Reset restores the computed rendering.
func (f *Size) Reset() { f.ResetCursor() }

// bind resolves the target name through the owning chain.
func (f *Size) bind() error {
	if f.target != nil {
		return nil
	}

	target, err := resolveName(f, f.of)
	if err != nil {
		return err
	}

	f.target = target

	return nil
}

// Render forces the target to render in this pass, measures the bit length
// and encodes the transformed value; a mutated cursor overrides the
// computation with a library value.
func (f *Size) Render(ctx *RenderContext) (bitstring.BitString, error) {
	value, err := f.computeValue(ctx)
	if err != nil {
		return bitstring.Empty(), err
	}

	out, err := f.enc.Encode(value, f.width, false)
	if err != nil {
		return bitstring.Empty(), fmt.Errorf("field %q: %w", f.Name(), err)
	}

	return out, nil
}

func (f *Size) computeValue(ctx *RenderContext) (int64, error) {
	if f.Mutating() {
		return f.library[f.Index()], nil
	}

	if err := f.bind(); err != nil {
		return 0, err
	}

	rendered, err := ctx.Render(f.target)
	if err != nil {
		return 0, err
	}

	return f.fn(rendered.Len()), nil
}

// Hash covers target name, width, transform, encoder and fuzzability.
func (f *Size) Hash() uint64 {
	seed := structHash(m.KindSize, uint64(f.width), boolWord(f.Fuzzable()))

	return hashStrings(seed, f.of, f.enc.ID(), f.fnID)
}

// Info describes the field.
func (f *Size) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:         m.KindSize,
		Strategy:     fmt.Sprintf("size of %q (%s) as %s%d", f.of, f.fnID, "uint", f.width),
		NumMutations: f.NumMutations(),
	}
	f.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy with an unresolved target.
func (f *Size) Clone() Field {
	clone := *f
	clone.Base = f.CloneBase()
	clone.target = nil
	clone.library = append([]int64(nil), f.library...)

	return &clone
}

// DigestAlg selects the digest a Checksum field computes.
type DigestAlg string

// Supported digest algorithms.
const (
	DigestMD5    DigestAlg = "md5"
	DigestSHA1   DigestAlg = "sha1"
	DigestSHA256 DigestAlg = "sha256"
)

// Checksum is a dependent field encoding a digest over another named field's
// rendered bytes. The target is re-rendered fresh on every pass so the digest
// never reflects bytes from a previous mutation step.
type Checksum struct {
	Base
	of     string
	alg    DigestAlg
	target Field
}

// NewChecksum constructs a Checksum field over the named target.
func NewChecksum(name, of string, alg DigestAlg) (*Checksum, error) {
	if of == "" {
		return nil, m.NewBuildError(name, "checksum field requires a target field name")
	}

	switch alg {
	case DigestMD5, DigestSHA1, DigestSHA256:
	default:
		return nil, m.NewBuildError(name, "unknown digest algorithm %q", alg)
	}

	return &Checksum{Base: NewBase(name, false), of: of, alg: alg}, nil
}

// Kind returns the checksum tag.
func (f *Checksum) Kind() m.Kind { return m.KindChecksum }

// NumMutations is zero; the digest tracks the target.
func (f *Checksum) NumMutations() int { return 0 }

// Mutate always reports exhaustion.
func (f *Checksum) Mutate() bool { return false }

// Skip never advances.
func (f *Checksum) Skip(_ int) int { return 0 }

// Reset clears the cursor.
func (f *Checksum) Reset() { f.ResetCursor() }

func (f *Checksum) bind() error {
	if f.target != nil {
		return nil
	}

	target, err := resolveName(f, f.of)
	if err != nil {
		return err
	}

	f.target = target

	return nil
}

// Render digests the target's fresh rendering, padded to whole bytes.
func (f *Checksum) Render(ctx *RenderContext) (bitstring.BitString, error) {
	if err := f.bind(); err != nil {
		return bitstring.Empty(), err
	}

	rendered, err := ctx.RenderFresh(f.target)
	if err != nil {
		return bitstring.Empty(), err
	}

	raw, err := rendered.PadToByte().Bytes()
	if err != nil {
		return bitstring.Empty(), fmt.Errorf("field %q: %w", f.Name(), err)
	}

	var digest []byte

	switch f.alg {
	case DigestMD5:
		sum := md5.Sum(raw)
		digest = sum[:]
	case DigestSHA1:
		sum := sha1.Sum(raw)
		digest = sum[:]
	default:
		sum := sha256.Sum256(raw)
		digest = sum[:]
	}

	return bitstring.FromBytes(digest), nil
}

// Hash covers the target name and algorithm.
func (f *Checksum) Hash() uint64 {
	return hashStrings(structHash(m.KindChecksum), f.of, string(f.alg))
}

// Info describes the field.
func (f *Checksum) Info() m.FieldInfo {
	info := m.FieldInfo{
		Kind:     m.KindChecksum,
		Strategy: fmt.Sprintf("%s of %q", f.alg, f.of),
	}
	f.CursorInfo(&info)

	return info
}

// Clone returns a detached pristine copy with an unresolved target.
func (f *Checksum) Clone() Field {
	return &Checksum{Base: f.CloneBase(), of: f.of, alg: f.alg}
}
