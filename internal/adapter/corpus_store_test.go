package adapter

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

func TestCorpusStoreWriteCase(t *testing.T) {
	dir := m.Path(filepath.Join(t.TempDir(), "corpus"))
	store := NewCorpusStore()
	ctx := context.Background()

	require.NoError(t, store.Prepare(ctx, dir))

	// Prepare is idempotent.
	require.NoError(t, store.Prepare(ctx, dir))

	require.NoError(t, store.WriteCase(ctx, dir, m.Case{Index: 0, Data: []byte("one")}))
	require.NoError(t, store.WriteCase(ctx, dir, m.Case{Index: 42, Data: []byte("two")}))

	got, err := os.ReadFile(filepath.Join(string(dir), "case_00000000.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte("one"), got)

	got, err = os.ReadFile(filepath.Join(string(dir), "case_00000042.bin"))
	require.NoError(t, err)
	require.Equal(t, []byte("two"), got)
}

func TestCorpusStoreStateRoundTrip(t *testing.T) {
	dir := m.Path(t.TempDir())
	store := NewCorpusStore()
	ctx := context.Background()

	state := m.SessionState{
		TemplateHash: 0x1234abcd,
		NextIndex:    17,
		UpdatedAt:    time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, store.SaveState(ctx, dir, state))

	loaded, err := store.LoadState(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, state.TemplateHash, loaded.TemplateHash)
	require.Equal(t, state.NextIndex, loaded.NextIndex)
	require.True(t, state.UpdatedAt.Equal(loaded.UpdatedAt))
}

func TestCorpusStoreLoadStateMissing(t *testing.T) {
	_, err := NewCorpusStore().LoadState(context.Background(), m.Path(t.TempDir()))
	require.Error(t, err)
}

func TestCorpusStoreCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := m.Path(t.TempDir())
	store := NewCorpusStore()

	require.ErrorIs(t, store.Prepare(ctx, dir), context.Canceled)
	require.ErrorIs(t, store.WriteCase(ctx, dir, m.Case{}), context.Canceled)
	require.ErrorIs(t, store.SaveState(ctx, dir, m.SessionState{}), context.Canceled)

	_, err := store.LoadState(ctx, dir)
	require.ErrorIs(t, err, context.Canceled)
}

func TestPackedStoreRoundTrip(t *testing.T) {
	dir := m.Path(filepath.Join(t.TempDir(), "corpus"))
	store := NewPackedCorpusStore()
	ctx := context.Background()

	require.NoError(t, store.Prepare(ctx, dir))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.WriteCase(ctx, dir, m.Case{Index: i, Data: []byte{byte(i)}}))
	}

	state := m.SessionState{TemplateHash: 0xfeed, NextIndex: 3}
	require.NoError(t, store.SaveState(ctx, dir, state))

	// One packed file holds the whole corpus.
	fi, err := os.Stat(filepath.Join(string(dir), "corpus.gob"))
	require.NoError(t, err)
	require.Positive(t, fi.Size())

	loaded, err := store.LoadState(ctx, dir)
	require.NoError(t, err)
	require.Equal(t, state.TemplateHash, loaded.TemplateHash)
	require.Equal(t, 3, loaded.NextIndex)
}

func TestPackedStoreRequiresPrepare(t *testing.T) {
	store := NewPackedCorpusStore()

	err := store.WriteCase(context.Background(), m.Path(t.TempDir()), m.Case{})
	require.Error(t, err)
}
