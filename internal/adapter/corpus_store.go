package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

const stateFileName = "state.yaml"

// localCorpusStore persists rendered cases and session state under a corpus
// directory on the local filesystem.
type localCorpusStore struct{}

// NewCorpusStore creates a store backed by the local filesystem.
func NewCorpusStore() domain.CaseStore {
	return &localCorpusStore{}
}

// Prepare creates the corpus directory if it does not exist.
func (s *localCorpusStore) Prepare(ctx context.Context, dir m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := os.MkdirAll(string(dir), 0o750); err != nil {
		slog.Error("Failed to create corpus directory", "dir", dir, "error", err)
		return fmt.Errorf("create corpus directory: %w", err)
	}

	return nil
}

// WriteCase writes one rendered case as case_<index>.bin under dir.
func (s *localCorpusStore) WriteCase(ctx context.Context, dir m.Path, c m.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	path := filepath.Join(string(dir), fmt.Sprintf("case_%08d.bin", c.Index))

	if err := os.WriteFile(path, c.Data, 0o600); err != nil {
		slog.Error("Failed to write case", "path", path, "error", err)
		return fmt.Errorf("write case %d: %w", c.Index, err)
	}

	return nil
}

// SaveState persists the session state as YAML under dir.
func (s *localCorpusStore) SaveState(ctx context.Context, dir m.Path, state m.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	path := filepath.Join(string(dir), stateFileName)

	if err := os.WriteFile(path, data, 0o600); err != nil {
		slog.Error("Failed to save session state", "path", path, "error", err)
		return fmt.Errorf("save session state: %w", err)
	}

	return nil
}

// LoadState reads the session state persisted under dir.
func (s *localCorpusStore) LoadState(ctx context.Context, dir m.Path) (m.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return m.SessionState{}, err
	}

	path := filepath.Join(string(dir), stateFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		return m.SessionState{}, fmt.Errorf("load session state: %w", err)
	}

	var state m.SessionState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return m.SessionState{}, fmt.Errorf("parse session state: %w", err)
	}

	return state, nil
}
