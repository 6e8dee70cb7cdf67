package adapter

import (
	"context"
	"encoding/hex"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"bitfuzz.dev/pkg/bitfuzz/internal/domain"
	"bitfuzz.dev/pkg/bitfuzz/internal/domain/mutators"
	"bitfuzz.dev/pkg/bitfuzz/internal/encoding"
	m "bitfuzz.dev/pkg/bitfuzz/internal/model"
)

// localTemplateLoader reads YAML template descriptors from the local
// filesystem and builds the corresponding field trees.
type localTemplateLoader struct{}

// NewTemplateLoader creates a loader backed by the local filesystem.
func NewTemplateLoader() domain.TemplateLoader {
	return &localTemplateLoader{}
}

// Load parses the descriptor at path and freezes it into a Template.
func (l *localTemplateLoader) Load(ctx context.Context, path m.Path) (*domain.Template, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(string(path))
	if err != nil {
		slog.Error("Failed to read template descriptor", "path", path, "error", err)
		return nil, err
	}

	var spec m.TemplateSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		slog.Error("Failed to parse template descriptor", "path", path, "error", err)
		return nil, m.NewBuildError(string(path), "parse descriptor: %v", err)
	}

	tpl, err := BuildTemplate(spec)
	if err != nil {
		return nil, err
	}

	slog.Debug("Loaded template", "path", path, "name", tpl.Name(), "mutations", tpl.NumMutations())

	return tpl, nil
}

// BuildTemplate turns a parsed descriptor into a frozen Template. A
// descriptor with a single top-level field uses it as the root directly;
// multiple top-level fields are wrapped in an implicit container.
func BuildTemplate(spec m.TemplateSpec) (*domain.Template, error) {
	if spec.Name == "" {
		return nil, m.NewBuildError("", "template descriptor has no name")
	}

	if len(spec.Fields) == 0 {
		return nil, m.NewBuildError(spec.Name, "template descriptor has no fields")
	}

	var (
		root domain.Field
		err  error
	)

	if len(spec.Fields) == 1 {
		root, err = buildField(spec.Fields[0])
	} else {
		var fields []domain.Field

		fields, err = buildFields(spec.Fields)
		if err == nil {
			root, err = domain.NewContainer(spec.Name, fields...)
		}
	}

	if err != nil {
		return nil, err
	}

	return domain.NewTemplate(spec.Name, root)
}

func buildFields(specs []m.FieldSpec) ([]domain.Field, error) {
	fields := make([]domain.Field, 0, len(specs))

	for _, fs := range specs {
		f, err := buildField(fs)
		if err != nil {
			return nil, err
		}

		fields = append(fields, f)
	}

	return fields, nil
}

func buildField(fs m.FieldSpec) (domain.Field, error) {
	switch fs.Type {
	case "static":
		return buildStatic(fs)
	case "uint", "int":
		return buildInteger(fs)
	case "string":
		return buildString(fs)
	case "bytes":
		return buildMutable(fs)
	case "size":
		return buildSize(fs)
	case "checksum":
		return buildChecksum(fs)
	case "container":
		return buildContainer(fs)
	case "if", "ifnot":
		return buildIf(fs)
	case "oneof":
		return buildOneOf(fs)
	case "list":
		return buildList(fs)
	case "omit", "duplicate", "rotate":
		return buildRangeMutator(fs)
	case "bitflip", "byteflip", "blockremove", "blockduplicate", "blockset":
		return buildBufferMutator(fs)
	default:
		return nil, m.NewBuildError(fs.Name, "unknown field type %q", fs.Type)
	}
}

func buildStatic(fs m.FieldSpec) (domain.Field, error) {
	value, err := specBytes(fs)
	if err != nil {
		return nil, err
	}

	enc, ok := encoding.StrEncoderByID(fs.Encoder)
	if !ok {
		return nil, m.NewBuildError(fs.Name, "unknown string encoder %q", fs.Encoder)
	}

	return domain.NewStatic(fs.Name, value, enc), nil
}

func buildInteger(fs m.FieldSpec) (domain.Field, error) {
	enc, ok := encoding.IntEncoderByID(fs.Encoder)
	if !ok {
		return nil, m.NewBuildError(fs.Name, "unknown integer encoder %q", fs.Encoder)
	}

	signed := fs.Type == "int" || fs.Signed

	return domain.NewInteger(fs.Name, fs.Value, fs.Width, signed, fuzzableOrDefault(fs, true), enc)
}

func buildString(fs m.FieldSpec) (domain.Field, error) {
	value, err := specBytes(fs)
	if err != nil {
		return nil, err
	}

	enc, ok := encoding.StrEncoderByID(fs.Encoder)
	if !ok {
		return nil, m.NewBuildError(fs.Name, "unknown string encoder %q", fs.Encoder)
	}

	return domain.NewString(fs.Name, value, fuzzableOrDefault(fs, true), enc), nil
}

func buildMutable(fs m.FieldSpec) (domain.Field, error) {
	value, err := specBytes(fs)
	if err != nil {
		return nil, err
	}

	return mutators.NewMutable(fs.Name, value)
}

func buildSize(fs m.FieldSpec) (domain.Field, error) {
	enc, ok := encoding.IntEncoderByID(fs.Encoder)
	if !ok {
		return nil, m.NewBuildError(fs.Name, "unknown integer encoder %q", fs.Encoder)
	}

	var fn domain.SizeFunc

	switch fs.Unit {
	case "", "bytes":
	case "bits":
		fn = domain.SizeInBits
	default:
		return nil, m.NewBuildError(fs.Name, "unknown size unit %q", fs.Unit)
	}

	return domain.NewSize(fs.Name, fs.Of, fs.Width, fuzzableOrDefault(fs, false), enc, fn)
}

func buildChecksum(fs m.FieldSpec) (domain.Field, error) {
	alg := domain.DigestAlg(fs.Alg)
	if fs.Alg == "" {
		alg = domain.DigestSHA256
	}

	return domain.NewChecksum(fs.Name, fs.Of, alg)
}

func buildContainer(fs m.FieldSpec) (domain.Field, error) {
	fields, err := buildFields(fs.Fields)
	if err != nil {
		return nil, err
	}

	delim, err := buildDelim(fs)
	if err != nil {
		return nil, err
	}

	if delim == nil {
		return domain.NewContainer(fs.Name, fields...)
	}

	return domain.NewDelimited(fs.Name, delim, fields...)
}

func buildIf(fs m.FieldSpec) (domain.Field, error) {
	cond, err := buildCondition(fs)
	if err != nil {
		return nil, err
	}

	fields, err := buildFields(fs.Fields)
	if err != nil {
		return nil, err
	}

	if fs.Type == "ifnot" {
		return domain.NewIfNot(fs.Name, cond, fields...)
	}

	return domain.NewIf(fs.Name, cond, fields...)
}

func buildCondition(fs m.FieldSpec) (*domain.Condition, error) {
	if fs.Field == "" {
		return nil, m.NewBuildError(fs.Name, "conditional field requires a condition field name")
	}

	if fs.Op == string(domain.OpIn) {
		comparands := make([]m.Value, 0, len(fs.Values))
		for _, v := range fs.Values {
			comparands = append(comparands, m.IntValue(v))
		}

		return domain.NewMembership(fs.Field, comparands...)
	}

	comparand, err := conditionComparand(fs)
	if err != nil {
		return nil, err
	}

	op := domain.OpEq
	if fs.Op != "" {
		op = domain.Op(fs.Op)
	}

	return domain.NewCondition(fs.Field, op, comparand)
}

// conditionComparand picks the single comparand: the first entry of values
// for numeric comparisons, or the literal/hex bytes for byte equality.
func conditionComparand(fs m.FieldSpec) (m.Value, error) {
	if len(fs.Values) > 0 {
		return m.IntValue(fs.Values[0]), nil
	}

	if fs.Default != "" || fs.Bytes != "" {
		b, err := specBytes(fs)
		if err != nil {
			return m.Value{}, err
		}

		return m.BytesValue(b), nil
	}

	return m.Value{}, m.NewBuildError(fs.Name, "conditional field requires a comparand")
}

func buildOneOf(fs m.FieldSpec) (domain.Field, error) {
	fields, err := buildFields(fs.Fields)
	if err != nil {
		return nil, err
	}

	return domain.NewOneOf(fs.Name, fields...)
}

func buildList(fs m.FieldSpec) (domain.Field, error) {
	fields, err := buildFields(fs.Fields)
	if err != nil {
		return nil, err
	}

	delim, err := buildDelim(fs)
	if err != nil {
		return nil, err
	}

	return mutators.NewList(fs.Name, delim, fields...)
}

func buildRangeMutator(fs m.FieldSpec) (domain.Field, error) {
	fields, err := buildFields(fs.Fields)
	if err != nil {
		return nil, err
	}

	delim, err := buildDelim(fs)
	if err != nil {
		return nil, err
	}

	switch fs.Type {
	case "omit":
		return mutators.NewOmit(fs.Name, fs.FieldCount, delim, fields...)
	case "duplicate":
		return mutators.NewDuplicate(fs.Name, fs.FieldCount, fs.DupCount, delim, fields...)
	default:
		return mutators.NewRotate(fs.Name, fs.FieldCount, delim, fields...)
	}
}

func buildBufferMutator(fs m.FieldSpec) (domain.Field, error) {
	value, err := specBytes(fs)
	if err != nil {
		return nil, err
	}

	switch fs.Type {
	case "bitflip":
		return mutators.NewBitFlip(fs.Name, value, fs.Size)
	case "byteflip":
		return mutators.NewByteFlip(fs.Name, value, fs.Size)
	case "blockremove":
		return mutators.NewBlockRemove(fs.Name, value, fs.Size)
	case "blockduplicate":
		return mutators.NewBlockDuplicate(fs.Name, value, fs.Size, fs.DupCount)
	default:
		if fs.Fill < 0 || fs.Fill > 0xff {
			return nil, m.NewBuildError(fs.Name, "fill %d outside 0..255", fs.Fill)
		}

		return mutators.NewBlockSet(fs.Name, value, fs.Size, byte(fs.Fill))
	}
}

func buildDelim(fs m.FieldSpec) (domain.Field, error) {
	if fs.Delim == nil {
		return nil, nil
	}

	return buildField(*fs.Delim)
}

// specBytes resolves a spec's payload: the hex-encoded bytes attribute wins,
// otherwise the default literal is taken verbatim.
func specBytes(fs m.FieldSpec) ([]byte, error) {
	if fs.Bytes != "" {
		b, err := hex.DecodeString(fs.Bytes)
		if err != nil {
			return nil, m.NewBuildError(fs.Name, "invalid hex bytes: %v", err)
		}

		return b, nil
	}

	return []byte(fs.Default), nil
}

func fuzzableOrDefault(fs m.FieldSpec, def bool) bool {
	if fs.Fuzzable == nil {
		return def
	}

	return *fs.Fuzzable
}
