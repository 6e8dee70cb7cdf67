// Package mutators provides the structural and buffer-level mutators composed
// over the core field model: sliding-window omit/duplicate/rotate over runs
// of sibling fields, position-indexed bit/byte/block strategies over opaque
// buffers, and their aggregations (Mutable, List).
package mutators

import (
	"encoding/binary"
	"hash/fnv"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// structHash folds a kind tag and parameter words into an fnv-1a fingerprint.
func structHash(kind m.Kind, params ...uint64) uint64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(kind))

	var word [8]byte
	for _, p := range params {
		binary.BigEndian.PutUint64(word[:], p)
		_, _ = h.Write(word[:])
	}

	return h.Sum64()
}

func cloneFields(fields []domain.Field) []domain.Field {
	out := make([]domain.Field, len(fields))
	for i, f := range fields {
		out[i] = f.Clone()
	}

	return out
}

func childInfos(fields []domain.Field) []m.FieldInfo {
	out := make([]m.FieldInfo, len(fields))
	for i, f := range fields {
		out[i] = f.Info()
	}

	return out
}

// renderAll renders every field through the shared pass context.
func renderAll(ctx *domain.RenderContext, fields []domain.Field) ([]bitstring.BitString, error) {
	units := make([]bitstring.BitString, len(fields))

	for i, f := range fields {
		out, err := ctx.Render(f)
		if err != nil {
			return nil, err
		}

		units[i] = out
	}

	return units, nil
}

// joinUnits concatenates rendered elements, interleaving the delimiter
// between every pair when one is configured.
func joinUnits(ctx *domain.RenderContext, units []bitstring.BitString, delim domain.Field) (bitstring.BitString, error) {
	if delim == nil || len(units) < 2 {
		return bitstring.Concat(units...), nil
	}

	sep, err := ctx.Render(delim)
	if err != nil {
		return bitstring.Empty(), err
	}

	parts := make([]bitstring.BitString, 0, len(units)*2-1)
	for i, u := range units {
		if i > 0 {
			parts = append(parts, sep)
		}

		parts = append(parts, u)
	}

	return bitstring.Concat(parts...), nil
}
