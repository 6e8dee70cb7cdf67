// Package controller provides output adapters for displaying template
// structure and corpus-generation results.
package controller

import (
	"context"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// UI defines the interface for presenting engine output.
// Implementations can use different output methods (simple text, TUI, etc).
type UI interface {
	DisplayTemplateInfo(ctx context.Context, name string, hash uint64, info m.FieldInfo) error
	DisplayConcurrencyInfo(ctx context.Context, threads, shardIndex, shardCount int)
	DisplayCase(ctx context.Context, c m.Case, hexDump bool) error
	DisplayRunSummary(ctx context.Context, summary m.RunSummary) error
}
