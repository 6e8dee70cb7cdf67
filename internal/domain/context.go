package domain

import (
	"log/slog"

	"bitfuzz.dev/pkg/bitfuzz/internal/bitstring"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// RenderContext tracks one top-level render pass: the stack of in-progress
// render targets for cycle detection and a single-pass memo so a dependent
// field forcing its target early and the container reaching it later agree on
// one rendering. A context must not outlive the render call that created it;
// the engine allocates a fresh one per pass.
type RenderContext struct {
	stack []Field
	memo  map[Field]bitstring.BitString
	log   *slog.Logger
}

// NewRenderContext returns an empty context for one render pass.
func NewRenderContext() *RenderContext {
	return &RenderContext{
		memo: make(map[Field]bitstring.BitString),
		log:  slog.Default(),
	}
}

// WithLogger returns the context logging through log.
func (c *RenderContext) WithLogger(log *slog.Logger) *RenderContext {
	if log != nil {
		c.log = log
	}

	return c
}

// Render renders f, reusing the pass memo and failing on re-entry of a field
// that is already being rendered.
func (c *RenderContext) Render(f Field) (bitstring.BitString, error) {
	if out, ok := c.memo[f]; ok {
		return out, nil
	}

	return c.renderUncached(f)
}

// RenderFresh renders f ignoring any memoized result, overwriting the memo so
// later encounters in the same pass agree with what the caller saw. Digest
// fields use it to never trust bytes from a previous mutation step.
func (c *RenderContext) RenderFresh(f Field) (bitstring.BitString, error) {
	return c.renderUncached(f)
}

func (c *RenderContext) renderUncached(f Field) (bitstring.BitString, error) {
	if path, cyclic := c.cyclePath(f); cyclic {
		return bitstring.Empty(), &m.CycleError{Path: path}
	}

	c.stack = append(c.stack, f)
	out, err := f.Render(c)
	c.stack = c.stack[:len(c.stack)-1]

	if err != nil {
		return bitstring.Empty(), err
	}

	c.memo[f] = out

	return out, nil
}

// cyclePath reports whether f is already on the render stack, returning the
// offending chain of field names when it is.
func (c *RenderContext) cyclePath(f Field) ([]string, bool) {
	for i, onStack := range c.stack {
		if onStack != f {
			continue
		}

		path := make([]string, 0, len(c.stack)-i+1)
		for _, node := range c.stack[i:] {
			path = append(path, nodeLabel(node))
		}

		path = append(path, nodeLabel(f))

		return path, true
	}

	return nil, false
}

func nodeLabel(f Field) string {
	if f.Name() != "" {
		return f.Name()
	}

	return "(" + string(f.Kind()) + ")"
}
