package model

import "time"

// SessionState is the resumability contract between the engine and the
// harness driving it: the structural template hash plus the next mutation
// index to run. A harness persists it after each rendered case and verifies
// the hash before skipping forward on resume.
type SessionState struct {
	TemplateHash uint64    `yaml:"template_hash"`
	NextIndex    int       `yaml:"next_index"`
	UpdatedAt    time.Time `yaml:"updated_at"`
}

// Case is one rendered mutation: the serialized bytes plus the mutation
// index that produced them. Baseline renders carry index -1.
type Case struct {
	Index int
	Data  []byte
}

// RunSummary aggregates the outcome of one corpus-generation run.
type RunSummary struct {
	Template     string
	TemplateHash uint64
	Total        int
	Written      int
	FirstIndex   int
	OutputDir    Path
	Duration     time.Duration
}
