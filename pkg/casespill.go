// Package pkg provides utilities for bitfuzz.
package pkg

import (
	"encoding/gob"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
)

// Spill is an append-only gob-backed store for items of type T. It backs the
// packed corpus format, where a whole run lands in a single file instead of
// one file per case.
type Spill[T any] interface {
	Len() uint64
	Path() string
	Append(item T) error
	AppendBatch(items []T) error
	Get(index uint64) (T, error)
	Range(f func(index uint64, item T) error) error
	Close() error
}

type spillImpl[T any] struct {
	path    string
	file    *os.File
	encoder *gob.Encoder
	mu      sync.Mutex
	length  uint64
}

// NewSpill creates a spill file at path, truncating any previous content.
func NewSpill[T any](path string) (Spill[T], error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		slog.Error("failed to create spill directory", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		slog.Error("failed to create spill file", "path", path, "error", err)
		return nil, fmt.Errorf("failed to create spill file: %w", err)
	}

	slog.Debug("created spill", "path", path)

	return &spillImpl[T]{
		path:    path,
		file:    file,
		encoder: gob.NewEncoder(file),
		length:  0,
	}, nil
}

// Append implements Spill.
func (s *spillImpl[T]) Append(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.encoder.Encode(item); err != nil {
		slog.Error("failed to encode item", "path", s.path, "index", s.length, "error", err)
		return fmt.Errorf("failed to encode item: %w", err)
	}

	s.length++

	return nil
}

// AppendBatch implements Spill.
func (s *spillImpl[T]) AppendBatch(items []T) error {
	for _, item := range items {
		if err := s.Append(item); err != nil {
			return err
		}
	}

	return nil
}

// Path implements Spill.
func (s *spillImpl[T]) Path() string {
	return s.path
}

// Len implements Spill.
func (s *spillImpl[T]) Len() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.length
}

// Get implements Spill. Access is sequential: the stream is decoded from the
// start up to index.
func (s *spillImpl[T]) Get(index uint64) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item T

	if index >= s.length {
		slog.Warn("get index out of bounds", "path", s.path, "index", index, "length", s.length)
		return item, fmt.Errorf("index %d out of bounds (length %d)", index, s.length)
	}

	err := s.decodeUpTo(index+1, func(uint64, T) error { return nil }, &item)

	return item, err
}

// Range implements Spill.
func (s *spillImpl[T]) Range(fn func(index uint64, item T) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var item T

	return s.decodeUpTo(s.length, fn, &item)
}

// decodeUpTo re-reads the spill file from the start, decoding n items into
// item and invoking fn after each. Callers hold the mutex.
func (s *spillImpl[T]) decodeUpTo(n uint64, fn func(index uint64, item T) error, item *T) error {
	file, err := os.Open(s.path)
	if err != nil {
		slog.Error("failed to open spill file", "path", s.path, "error", err)
		return fmt.Errorf("failed to open spill file: %w", err)
	}

	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("failed to close spill file", "path", s.path, "error", err)
		}
	}()

	decoder := gob.NewDecoder(file)

	for i := range n {
		if err := decoder.Decode(item); err != nil {
			slog.Error("failed to decode item", "path", s.path, "index", i, "error", err)
			return fmt.Errorf("failed to decode item at index %d: %w", i, err)
		}

		if err := fn(i, *item); err != nil {
			return err
		}
	}

	return nil
}

// Close implements Spill.
func (s *spillImpl[T]) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.file == nil {
		return nil
	}

	if err := s.file.Close(); err != nil {
		slog.Error("failed to close spill file", "path", s.path, "error", err)
		return err
	}

	slog.Debug("closed spill", "path", s.path, "length", s.length)
	s.file = nil

	return nil
}
