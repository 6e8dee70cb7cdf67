package domain

import (
	"fmt"
	"log/slog"
	"time"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// Template is a frozen message tree: an arena of nodes in preorder with the
// named cross-references of dependent fields resolved once at construction.
// It exposes the driving API the external harness consumes. A template owns
// one in-flight mutation index at a time; concurrent access must go through
// independent clones.
type Template struct {
	name   string
	root   Field
	nodes  []Field
	paths  map[Field]string
	cursor int // last mutation index driven, -1 before the first Mutate
	log    *slog.Logger
}

// TemplateOption configures a template at construction.
type TemplateOption func(*Template)

// WithTemplateLogger routes the template's debug traces through log instead
// of the process default.
func WithTemplateLogger(log *slog.Logger) TemplateOption {
	return func(t *Template) {
		if log != nil {
			t.log = log
		}
	}
}

// NewTemplate freezes the tree under root: assigns arena indices in preorder
// and eagerly resolves every named cross-reference, so unresolvable names
// fail here rather than mid-run.
func NewTemplate(name string, root Field, opts ...TemplateOption) (*Template, error) {
	if root == nil {
		return nil, m.NewBuildError(name, "template requires a root field")
	}

	t := &Template{
		name:   name,
		root:   root,
		paths:  make(map[Field]string),
		cursor: -1,
		log:    slog.Default(),
	}

	for _, opt := range opts {
		opt(t)
	}

	t.index(root, "")

	for _, node := range t.nodes {
		dep, ok := node.(binder)
		if !ok {
			continue
		}

		if err := dep.bind(); err != nil {
			return nil, fmt.Errorf("template %q: %w", name, err)
		}
	}

	t.log.Debug("template frozen",
		"template", name,
		"nodes", len(t.nodes),
		"mutations", root.NumMutations(),
		"hash", fmt.Sprintf("%#x", root.Hash()))

	return t, nil
}

func (t *Template) index(f Field, prefix string) {
	path := prefix + "/" + nodeLabel(f)
	t.nodes = append(t.nodes, f)
	t.paths[f] = path

	if comp, ok := f.(composite); ok {
		for _, child := range comp.Children() {
			t.index(child, path)
		}
	}
}

// Name returns the template name.
func (t *Template) Name() string { return t.name }

// NumMutations returns the size of the whole tree's mutation space.
func (t *Template) NumMutations() int { return t.root.NumMutations() }

// Mutate advances to the next mutation, reporting false on exhaustion.
func (t *Template) Mutate() bool {
	if !t.root.Mutate() {
		return false
	}

	t.cursor++

	return true
}

// Skip advances by up to n mutations and returns the number of steps taken;
// callers compare it against n to detect truncation.
func (t *Template) Skip(n int) int {
	adv := t.root.Skip(n)
	t.cursor += adv

	return adv
}

// Reset restores the pristine default rendering. Idempotent.
func (t *Template) Reset() {
	t.root.Reset()
	t.cursor = -1
}

// CurrentIndex returns the in-flight mutation index, -1 before any Mutate.
func (t *Template) CurrentIndex() int { return t.cursor }

// Render produces the exact byte stream for the current state, padding any
// trailing partial byte with zero bits. Each call is an independent render
// pass with its own context.
func (t *Template) Render() ([]byte, error) {
	started := time.Now()

	ctx := NewRenderContext().WithLogger(t.log)

	out, err := ctx.Render(t.root)
	if err != nil {
		return nil, fmt.Errorf("template %q at index %d: %w", t.name, t.cursor, err)
	}

	raw, err := out.PadToByte().Bytes()
	if err != nil {
		return nil, fmt.Errorf("template %q at index %d: %w", t.name, t.cursor, err)
	}

	t.log.Debug("rendered",
		"template", t.name,
		"index", t.cursor,
		"bits", out.Len(),
		"elapsed", time.Since(started))

	return raw, nil
}

// Hash is the structural fingerprint of the whole tree. Two templates with
// equal hashes offer identical mutation sequences in identical order.
func (t *Template) Hash() uint64 { return t.root.Hash() }

// Info returns the introspection tree with arena paths filled in.
func (t *Template) Info() m.FieldInfo {
	info := t.root.Info()
	t.fillPaths(&info, "")

	return info
}

func (t *Template) fillPaths(info *m.FieldInfo, prefix string) {
	label := info.Name
	if label == "" {
		label = "(" + string(info.Kind) + ")"
	}

	info.Path = prefix + "/" + label

	for i := range info.Children {
		t.fillPaths(&info.Children[i], info.Path)
	}
}

// State captures the resumability contract after the current index.
func (t *Template) State() m.SessionState {
	return m.SessionState{
		TemplateHash: t.Hash(),
		NextIndex:    t.cursor + 1,
		UpdatedAt:    time.Now().UTC(),
	}
}

// Resume verifies a persisted state against this tree and skips to its next
// index. A hash mismatch means the persisted session belongs to a different
// template shape and is rejected.
func (t *Template) Resume(state m.SessionState) error {
	if state.TemplateHash != t.Hash() {
		return &m.StateMismatchError{Stored: state.TemplateHash, Fresh: t.Hash()}
	}

	if state.NextIndex <= 0 {
		return nil
	}

	if adv := t.Skip(state.NextIndex); adv < state.NextIndex {
		return fmt.Errorf("template %q: state index %d beyond mutation space (%d)",
			t.name, state.NextIndex, t.NumMutations())
	}

	return nil
}

// Clone returns an independent template over a deep copy of the tree, in
// pristine state. Parallel drivers shard the index space across clones.
func (t *Template) Clone() (*Template, error) {
	return NewTemplate(t.name, t.root.Clone(), WithTemplateLogger(t.log))
}
