package adapter

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
	"bitfuzz.dev/pkg/bitfuzz/pkg"
)

const packedFileName = "corpus.gob"

// packedCorpusStore persists all cases of a run into a single gob stream
// instead of one file per case. Session state is stored next to it, the same
// way the per-file store does.
type packedCorpusStore struct {
	mu     sync.Mutex
	spills map[m.Path]pkg.Spill[m.Case]
}

// NewPackedCorpusStore creates a store that packs the whole corpus into one
// file per directory.
func NewPackedCorpusStore() domain.CaseStore {
	return &packedCorpusStore{spills: make(map[m.Path]pkg.Spill[m.Case])}
}

// Prepare creates the corpus directory and opens its spill file.
func (s *packedCorpusStore) Prepare(ctx context.Context, dir m.Path) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.spills[dir]; ok {
		return nil
	}

	spill, err := pkg.NewSpill[m.Case](filepath.Join(string(dir), packedFileName))
	if err != nil {
		return err
	}

	s.spills[dir] = spill

	return nil
}

// WriteCase appends one case to the directory's spill file.
func (s *packedCorpusStore) WriteCase(ctx context.Context, dir m.Path, c m.Case) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spill, err := s.spillFor(dir)
	if err != nil {
		return err
	}

	return spill.Append(c)
}

func (s *packedCorpusStore) spillFor(dir m.Path) (pkg.Spill[m.Case], error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	spill, ok := s.spills[dir]
	if !ok {
		return nil, fmt.Errorf("packed corpus %q not prepared", dir)
	}

	return spill, nil
}

// SaveState persists the session state and closes the spill file, flushing
// the packed corpus to disk.
func (s *packedCorpusStore) SaveState(ctx context.Context, dir m.Path, state m.SessionState) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	spill, err := s.spillFor(dir)
	if err != nil {
		return err
	}

	slog.Debug("Closing packed corpus", "dir", dir, "cases", spill.Len())

	if err := spill.Close(); err != nil {
		return err
	}

	data, err := yaml.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}

	if err := os.WriteFile(filepath.Join(string(dir), stateFileName), data, 0o600); err != nil {
		return fmt.Errorf("save session state: %w", err)
	}

	return nil
}

// LoadState reads the session state persisted under dir.
func (s *packedCorpusStore) LoadState(ctx context.Context, dir m.Path) (m.SessionState, error) {
	if err := ctx.Err(); err != nil {
		return m.SessionState{}, err
	}

	data, err := os.ReadFile(filepath.Join(string(dir), stateFileName))
	if err != nil {
		return m.SessionState{}, fmt.Errorf("load session state: %w", err)
	}

	var state m.SessionState
	if err := yaml.Unmarshal(data, &state); err != nil {
		return m.SessionState{}, fmt.Errorf("parse session state: %w", err)
	}

	return state, nil
}
