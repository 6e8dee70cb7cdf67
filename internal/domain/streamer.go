package domain

import (
	"context"
	"log/slog"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// CaseStreamer defines the interface for streaming rendered mutation cases.
type CaseStreamer interface {
	Stream(ctx context.Context, tpl *Template, limit, buffer int) *CaseStream
	Shard(ctx context.Context, allCases <-chan m.Case, buffer, shardIndex, totalShardCount int) <-chan m.Case
}

// CaseStream couples the rendered-case channel with the terminal error of the
// stream. Err must only be read after Cases has closed.
type CaseStream struct {
	cases chan m.Case
	err   error
}

// Cases returns the channel of rendered cases.
func (s *CaseStream) Cases() <-chan m.Case { return s.cases }

// Err reports the render failure that stopped the stream early. It is nil
// when the stream ended by exhaustion, limit or cancellation.
func (s *CaseStream) Err() error { return s.err }

type caseStreamer struct{}

// NewCaseStreamer creates a new CaseStreamer instance.
func NewCaseStreamer() CaseStreamer {
	return &caseStreamer{}
}

// Stream renders successive mutations of tpl and sends them on the returned
// stream's channel, starting from the template's current cursor position. A
// negative limit streams until the template is exhausted; stopping at the
// limit leaves the cursor on the last streamed index. The channel closes when
// done, on a render failure (reported through Err) or when ctx is cancelled;
// the template must not be touched concurrently.
func (cs *caseStreamer) Stream(ctx context.Context, tpl *Template, limit, buffer int) *CaseStream {
	slog.Debug("Starting case streaming", "template", tpl.Name(), "limit", limit)
	stream := &CaseStream{cases: make(chan m.Case, cs.normalizeBufferSize(buffer))}

	go func() {
		defer close(stream.cases)

		sent := 0

		for {
			if ctx.Err() != nil {
				slog.Debug("Case streaming cancelled", "template", tpl.Name())
				return
			}

			// The limit gate sits before Mutate so a limited stream never
			// consumes an index it does not emit.
			if limit >= 0 && sent >= limit {
				return
			}

			if !tpl.Mutate() {
				return
			}

			data, err := tpl.Render()
			if err != nil {
				slog.Error("Failed to render case", "template", tpl.Name(), "index", tpl.CurrentIndex(), "error", err)
				stream.err = err

				return
			}

			select {
			case <-ctx.Done():
				return
			case stream.cases <- m.Case{Index: tpl.CurrentIndex(), Data: data}:
				sent++
			}
		}
	}()

	return stream
}

// normalizeBufferSize ensures the buffer size is at least 1.
func (cs *caseStreamer) normalizeBufferSize(buffer int) int {
	if buffer <= 0 {
		return 1
	}

	return buffer
}

// Shard filters cases by shard index using round-robin distribution over the
// mutation index. It streams only cases that belong to the specified shard.
func (cs *caseStreamer) Shard(ctx context.Context, allCases <-chan m.Case, buffer, shardIndex, totalShardCount int) <-chan m.Case {
	ch := make(chan m.Case, cs.normalizeBufferSize(buffer))

	go func() {
		defer close(ch)

		// If sharding is disabled, pass through all cases
		if totalShardCount <= 0 {
			slog.Debug("Sharding disabled, passing through all cases")
			cs.passThroughCases(ctx, allCases, ch)

			return
		}

		slog.Debug("Starting case sharding", "shardIndex", shardIndex, "totalShardCount", totalShardCount)
		cs.filterCasesByShard(ctx, allCases, ch, shardIndex, totalShardCount)
	}()

	return ch
}

// passThroughCases forwards all cases from input to output channel.
func (cs *caseStreamer) passThroughCases(ctx context.Context, in <-chan m.Case, out chan<- m.Case) {
	for c := range in {
		select {
		case <-ctx.Done():
			slog.Debug("Case pass-through cancelled")
			return
		case out <- c:
		}
	}
}

// filterCasesByShard keeps cases whose mutation index maps to this shard.
// Indexing on the case itself rather than arrival order keeps the assignment
// stable across processes that resume mid-run.
func (cs *caseStreamer) filterCasesByShard(ctx context.Context, in <-chan m.Case, out chan<- m.Case, shardIndex, totalShardCount int) {
	for c := range in {
		select {
		case <-ctx.Done():
			slog.Debug("Case sharding cancelled")
			return
		default:
		}

		if c.Index%totalShardCount != shardIndex {
			continue
		}

		select {
		case <-ctx.Done():
			return
		case out <- c:
		}
	}
}
