package controller

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

func newCapturedUI() (*SimpleUI, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetOut(out)

	return NewSimpleUI(cmd), out
}

func TestDisplayTemplateInfo(t *testing.T) {
	ui, out := newCapturedUI()

	info := m.FieldInfo{
		Name:         "msg",
		Path:         "/msg",
		Kind:         m.KindContainer,
		NumMutations: 23,
		Children: []m.FieldInfo{
			{
				Name:         "payload",
				Path:         "/msg/payload",
				Kind:         m.KindString,
				Fuzzable:     true,
				Strategy:     "library",
				NumMutations: 11,
			},
		},
	}

	require.NoError(t, ui.DisplayTemplateInfo(context.Background(), "msg", 0xdeadbeef, info))

	got := out.String()
	assert.Contains(t, got, "Template: msg (hash 00000000deadbeef)")
	assert.Contains(t, got, "/msg/payload")
	assert.Contains(t, got, "string")
	assert.Contains(t, got, "yes")
	assert.Contains(t, got, "Total mutations: 23")
}

func TestDisplayConcurrencyInfo(t *testing.T) {
	t.Run("without sharding", func(t *testing.T) {
		ui, out := newCapturedUI()
		ui.DisplayConcurrencyInfo(context.Background(), 4, 0, 0)
		assert.Equal(t, "Generating with 4 worker(s)\n", out.String())
	})

	t.Run("with sharding", func(t *testing.T) {
		ui, out := newCapturedUI()
		ui.DisplayConcurrencyInfo(context.Background(), 2, 1, 3)
		assert.Equal(t, "Generating with 2 worker(s) (shard 1/3)\n", out.String())
	})
}

func TestDisplayCase(t *testing.T) {
	t.Run("raw bytes", func(t *testing.T) {
		ui, out := newCapturedUI()

		c := m.Case{Index: 3, Data: []byte{0xca, 0xfe}}
		require.NoError(t, ui.DisplayCase(context.Background(), c, false))
		assert.Equal(t, []byte{0xca, 0xfe}, out.Bytes())
	})

	t.Run("hex dump", func(t *testing.T) {
		ui, out := newCapturedUI()

		c := m.Case{Index: 3, Data: []byte{0xca, 0xfe}}
		require.NoError(t, ui.DisplayCase(context.Background(), c, true))

		got := out.String()
		assert.Contains(t, got, "case 3 (2 bytes):")
		assert.Contains(t, got, "ca fe")
	})
}

func TestDisplayRunSummary(t *testing.T) {
	ui, out := newCapturedUI()

	summary := m.RunSummary{
		Template:     "handshake",
		TemplateHash: 0x1,
		Total:        100,
		Written:      40,
		FirstIndex:   60,
		OutputDir:    ".bitfuzz-corpus",
		Duration:     1500 * time.Millisecond,
	}

	require.NoError(t, ui.DisplayRunSummary(context.Background(), summary))

	got := out.String()
	assert.Contains(t, got, "Run complete")
	assert.Contains(t, got, "Template: handshake (hash 0000000000000001)")
	assert.Contains(t, got, "of 100 (starting at index 60)")
	assert.Contains(t, got, "Output: .bitfuzz-corpus")
	assert.Contains(t, got, "Duration: 1.5s")
}

func TestDisplayCancelledContext(t *testing.T) {
	ui, out := newCapturedUI()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.Error(t, ui.DisplayTemplateInfo(ctx, "msg", 0, m.FieldInfo{}))
	require.Error(t, ui.DisplayCase(ctx, m.Case{}, false))
	require.Error(t, ui.DisplayRunSummary(ctx, m.RunSummary{}))
	ui.DisplayConcurrencyInfo(ctx, 1, 0, 0)

	assert.Empty(t, out.String())
}
