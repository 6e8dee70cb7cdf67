package domain

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"bitfuzz.dev/pkg/bitfuzz/internal/controller"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// TemplateLoader resolves a descriptor path into a frozen template.
type TemplateLoader interface {
	Load(ctx context.Context, path m.Path) (*Template, error)
}

// CaseStore persists rendered cases and session state under a corpus
// directory.
type CaseStore interface {
	Prepare(ctx context.Context, dir m.Path) error
	WriteCase(ctx context.Context, dir m.Path, c m.Case) error
	SaveState(ctx context.Context, dir m.Path, state m.SessionState) error
	LoadState(ctx context.Context, dir m.Path) (m.SessionState, error)
}

// GenerateArgs parameterizes a corpus-generation run.
type GenerateArgs struct {
	TemplatePath m.Path
	OutputDir    m.Path
	Threads      int
	ShardIndex   int
	ShardCount   int
	Limit        int // negative means no limit
	Resume       bool
}

// DescribeArgs parameterizes structure inspection.
type DescribeArgs struct {
	TemplatePath m.Path
}

// RenderArgs parameterizes rendering a single case.
type RenderArgs struct {
	TemplatePath m.Path
	Index        int // -1 renders the unmutated baseline
	HexDump      bool
	OutputDir    m.Path // empty means display only
}

// Session is the top-level workflow: it loads templates, enumerates their
// mutation space and persists the results.
type Session interface {
	Generate(ctx context.Context, args GenerateArgs) (m.RunSummary, error)
	Describe(ctx context.Context, args DescribeArgs) error
	RenderCase(ctx context.Context, args RenderArgs) error
}

type session struct {
	TemplateLoader
	CaseStore
	controller.UI
	CaseStreamer
}

// NewSession creates a Session instance with the provided dependencies.
func NewSession(loader TemplateLoader, store CaseStore, ui controller.UI, streamer CaseStreamer) Session {
	return &session{
		TemplateLoader: loader,
		CaseStore:      store,
		UI:             ui,
		CaseStreamer:   streamer,
	}
}

// Generate enumerates the template's mutation space and writes one file per
// case. The index space is split into contiguous ranges, one per worker, each
// enumerated on an independent clone of the tree so workers never share
// cursor state. With sharding enabled only indices assigned to this shard are
// written; the others still count against the range but produce no files.
func (s *session) Generate(ctx context.Context, args GenerateArgs) (m.RunSummary, error) {
	started := time.Now()

	tpl, err := s.Load(ctx, args.TemplatePath)
	if err != nil {
		return m.RunSummary{}, err
	}

	if err := s.Prepare(ctx, args.OutputDir); err != nil {
		return m.RunSummary{}, err
	}

	startIndex, err := s.resumeIndex(ctx, tpl, args)
	if err != nil {
		return m.RunSummary{}, err
	}

	total := tpl.NumMutations()

	remaining := total - startIndex
	if args.Limit >= 0 && args.Limit < remaining {
		remaining = args.Limit
	}

	threads := normalizeThreads(args.Threads)
	s.DisplayConcurrencyInfo(ctx, threads, args.ShardIndex, args.ShardCount)

	var written atomic.Int64

	// next tracks the resume point to persist: the end of the range when
	// every worker finishes, otherwise the lowest index a failed or
	// cancelled worker did not complete.
	next := &lowWater{index: startIndex + remaining}

	group, groupCtx := errgroup.WithContext(ctx)
	chunk := (remaining + threads - 1) / threads

	for w := 0; w < threads; w++ {
		rangeStart := startIndex + w*chunk

		rangeLen := startIndex + remaining - rangeStart
		if rangeLen > chunk {
			rangeLen = chunk
		}

		if rangeLen <= 0 {
			break
		}

		group.Go(func() error {
			return s.generateRange(groupCtx, tpl, args, rangeStart, rangeLen, &written, next)
		})
	}

	runErr := group.Wait()

	state := m.SessionState{
		TemplateHash: tpl.Hash(),
		NextIndex:    next.value(),
		UpdatedAt:    time.Now().UTC(),
	}

	if err := s.SaveState(ctx, args.OutputDir, state); err != nil {
		if runErr != nil {
			return m.RunSummary{}, fmt.Errorf("%w (save state: %v)", runErr, err)
		}

		return m.RunSummary{}, err
	}

	if runErr != nil {
		return m.RunSummary{}, runErr
	}

	summary := m.RunSummary{
		Template:     tpl.Name(),
		TemplateHash: tpl.Hash(),
		Total:        total,
		Written:      int(written.Load()),
		FirstIndex:   startIndex,
		OutputDir:    args.OutputDir,
		Duration:     time.Since(started),
	}

	if err := s.DisplayRunSummary(ctx, summary); err != nil {
		return m.RunSummary{}, err
	}

	return summary, nil
}

// resumeIndex loads persisted state when resuming and verifies it against the
// freshly built tree. A fresh run starts at index zero.
func (s *session) resumeIndex(ctx context.Context, tpl *Template, args GenerateArgs) (int, error) {
	if !args.Resume {
		return 0, nil
	}

	state, err := s.LoadState(ctx, args.OutputDir)
	if err != nil {
		return 0, fmt.Errorf("resume: %w", err)
	}

	if state.TemplateHash != tpl.Hash() {
		return 0, &m.StateMismatchError{Stored: state.TemplateHash, Fresh: tpl.Hash()}
	}

	if state.NextIndex > tpl.NumMutations() {
		return 0, fmt.Errorf("resume: state index %d beyond mutation space (%d)",
			state.NextIndex, tpl.NumMutations())
	}

	slog.Info("Resuming session", "template", tpl.Name(), "nextIndex", state.NextIndex)

	return state.NextIndex, nil
}

// generateRange enumerates [rangeStart, rangeStart+rangeLen) on its own clone
// of the tree and writes the cases that fall on this shard. On any failure it
// reports the lowest index of its range not durably written, so resuming
// never skips an unwritten case.
func (s *session) generateRange(ctx context.Context, tpl *Template, args GenerateArgs, rangeStart, rangeLen int, written *atomic.Int64, next *lowWater) error {
	clone, err := tpl.Clone()
	if err != nil {
		next.observe(rangeStart)
		return err
	}

	if rangeStart > 0 {
		if adv := clone.Skip(rangeStart); adv < rangeStart {
			next.observe(rangeStart)
			return fmt.Errorf("skip to %d advanced only %d", rangeStart, adv)
		}
	}

	lastWritten := rangeStart - 1

	stream := s.Stream(ctx, clone, rangeLen, 1)

	cases := stream.Cases()
	if args.ShardCount > 0 {
		cases = s.Shard(ctx, cases, 1, args.ShardIndex, args.ShardCount)
	}

	for c := range cases {
		if err := s.WriteCase(ctx, args.OutputDir, c); err != nil {
			next.observe(lastWritten + 1)
			return err
		}

		lastWritten = c.Index
		written.Add(1)
	}

	if err := stream.Err(); err != nil {
		next.observe(lastWritten + 1)
		return err
	}

	if err := ctx.Err(); err != nil {
		next.observe(lastWritten + 1)
		return err
	}

	return nil
}

// lowWater tracks the lowest unfinished index across workers.
type lowWater struct {
	mu    sync.Mutex
	index int
}

func (l *lowWater) observe(index int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if index < l.index {
		l.index = index
	}
}

func (l *lowWater) value() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.index
}

// Describe loads a template and prints its structure.
func (s *session) Describe(ctx context.Context, args DescribeArgs) error {
	tpl, err := s.Load(ctx, args.TemplatePath)
	if err != nil {
		return err
	}

	return s.DisplayTemplateInfo(ctx, tpl.Name(), tpl.Hash(), tpl.Info())
}

// RenderCase renders a single mutation by index, or the unmutated baseline
// for a negative index.
func (s *session) RenderCase(ctx context.Context, args RenderArgs) error {
	tpl, err := s.Load(ctx, args.TemplatePath)
	if err != nil {
		return err
	}

	if args.Index >= 0 {
		steps := args.Index + 1
		if adv := tpl.Skip(steps); adv < steps {
			return fmt.Errorf("index %d beyond mutation space (%d)", args.Index, tpl.NumMutations())
		}
	}

	data, err := tpl.Render()
	if err != nil {
		return err
	}

	c := m.Case{Index: args.Index, Data: data}

	if args.OutputDir != "" {
		if err := s.Prepare(ctx, args.OutputDir); err != nil {
			return err
		}

		if err := s.WriteCase(ctx, args.OutputDir, c); err != nil {
			return err
		}
	}

	return s.DisplayCase(ctx, c, args.HexDump)
}

// normalizeThreads ensures the worker count is at least 1.
func normalizeThreads(threads int) int {
	if threads <= 0 {
		return 1
	}

	return threads
}
