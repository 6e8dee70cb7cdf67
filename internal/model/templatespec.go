package model

// TemplateSpec is the on-disk template descriptor: a named tree of field
// specs parsed from YAML. It is pure data; validation and tree construction
// happen in the domain layer.
type TemplateSpec struct {
	Name   string      `yaml:"name"`
	Fields []FieldSpec `yaml:"fields"`
}

// FieldSpec describes one node of a template tree. Type selects the field
// kind; the remaining attributes are interpreted per kind and ignored
// otherwise. Bytes values are hex-encoded in the descriptor.
type FieldSpec struct {
	Name     string `yaml:"name"`
	Type     string `yaml:"type"`
	Fuzzable *bool  `yaml:"fuzzable,omitempty"`

	// Integer and size fields.
	Value   int64  `yaml:"value,omitempty"`
	Width   int    `yaml:"width,omitempty"`
	Signed  bool   `yaml:"signed,omitempty"`
	Encoder string `yaml:"encoder,omitempty"`

	// String, static and buffer fields. Default is a literal string,
	// Bytes a hex string; at most one may be set.
	Default string `yaml:"default,omitempty"`
	Bytes   string `yaml:"bytes,omitempty"`

	// Dependent fields: the target field name plus the size unit
	// (bytes or bits) or digest algorithm.
	Of   string `yaml:"of,omitempty"`
	Unit string `yaml:"unit,omitempty"`
	Alg  string `yaml:"alg,omitempty"`

	// Conditional containers.
	Field  string  `yaml:"field,omitempty"`
	Op     string  `yaml:"op,omitempty"`
	Values []int64 `yaml:"values,omitempty"`

	// Range and buffer mutators.
	FieldCount int `yaml:"field_count,omitempty"`
	DupCount   int `yaml:"dup_count,omitempty"`
	Size       int `yaml:"size,omitempty"`
	Fill       int `yaml:"fill,omitempty"`

	// Aggregations.
	Delim  *FieldSpec  `yaml:"delim,omitempty"`
	Fields []FieldSpec `yaml:"fields,omitempty"`
}
