// Package model defines the data structures shared across the message-model
// engine: field kinds, tagged values, introspection metadata and the error
// taxonomy.
package model

// Kind identifies a field variant in the message tree. The set is closed:
// every node the engine can build carries exactly one of these tags.
type Kind string

const (
	// KindStatic represents a fixed, non-fuzzable byte value.
	KindStatic Kind = "static"
	// KindInteger represents a fixed-width integer with a deterministic
	// mutation library derived from its width and signedness.
	KindInteger Kind = "integer"
	// KindString represents a byte string with a fixed hostile-value library.
	KindString Kind = "string"
	// KindContainer represents an ordered composite of child fields.
	KindContainer Kind = "container"
	// KindSize represents a field whose value is the rendered length of
	// another named field.
	KindSize Kind = "size"
	// KindChecksum represents a field whose value is a digest of another
	// named field's rendered bytes.
	KindChecksum Kind = "checksum"
	// KindIf represents a container rendered only when its condition holds.
	KindIf Kind = "if"
	// KindIfNot represents the complement of KindIf.
	KindIfNot Kind = "ifnot"
	// KindOneOf represents mutually exclusive alternatives, one active at a
	// time.
	KindOneOf Kind = "oneof"
	// KindOmit represents a sliding-window mutator that drops a run of
	// fields.
	KindOmit Kind = "omit"
	// KindDuplicate represents a sliding-window mutator that repeats a run
	// of fields.
	KindDuplicate Kind = "duplicate"
	// KindRotate represents a sliding-window mutator that left-rotates a run
	// of fields.
	KindRotate Kind = "rotate"
	// KindBitFlip represents a sliding bit-inversion mutator over a buffer.
	KindBitFlip Kind = "bitflip"
	// KindByteFlip represents a sliding byte-inversion mutator over a buffer.
	KindByteFlip Kind = "byteflip"
	// KindBlockRemove represents a sliding block-deletion mutator.
	KindBlockRemove Kind = "blockremove"
	// KindBlockDuplicate represents a sliding block-repetition mutator.
	KindBlockDuplicate Kind = "blockduplicate"
	// KindBlockSet represents a sliding block-overwrite mutator.
	KindBlockSet Kind = "blockset"
)

// ValueKind tags the variant held by a Value.
type ValueKind int

const (
	// ValueInt marks an integer value.
	ValueInt ValueKind = iota
	// ValueBytes marks a byte-string value.
	ValueBytes
)

// Value is a tagged variant holding either an integer or a byte string.
// Conditions and atomic fields exchange values through it so comparisons
// stay type-checked instead of reflective.
type Value struct {
	Kind  ValueKind
	Int   int64
	Bytes []byte
}

// IntValue wraps an integer into a Value.
func IntValue(v int64) Value {
	return Value{Kind: ValueInt, Int: v}
}

// BytesValue wraps a byte string into a Value.
func BytesValue(b []byte) Value {
	return Value{Kind: ValueBytes, Bytes: b}
}

// FieldInfo is the introspectable metadata for one node of the tree. It is
// purely observational: building it never mutates engine state.
type FieldInfo struct {
	Name         string
	Path         string
	Kind         Kind
	Fuzzable     bool
	Strategy     string
	NumMutations int
	Mutating     bool
	CurrentIndex int // -1 when not mutating
	Children     []FieldInfo
}

// Path represents a file system path.
type Path string
