package stubs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Arguments selects the query argument schema emitted for each collection
type Arguments int

const (
	// ArgumentsExtended emits vector, search, searchModel and searchUrl
	ArgumentsExtended Arguments = iota
	// ArgumentsBasic emits vector and search only
	ArgumentsBasic
)

// vectorType is Nullable<Array<Nullable<Float>>>
func vectorType() *Type {
	return Nullable(Array(Nullable(Named(ScalarFloat))))
}

func newField(t *Type) Field {
	return Field{
		Description: nil,
		Arguments:   map[string]Argument{},
		Type:        t,
	}
}

// BaseFields returns the fields every point carries regardless of payload
func BaseFields() map[string]Field {
	return map[string]Field{
		"id":     newField(Named(ScalarInt)),
		"score":  newField(Nullable(Named(ScalarFloat))),
		"vector": newField(vectorType()),
	}
}

// CollectionArguments returns the argument schema for the given variant
func CollectionArguments(variant Arguments) map[string]Argument {
	args := map[string]Argument{
		"vector": {Type: vectorType()},
		"search": {Type: Nullable(Named(ScalarString))},
	}
	if variant == ArgumentsExtended {
		args["searchModel"] = Argument{Type: Nullable(Named(ScalarString))}
		args["searchUrl"] = Argument{Type: Nullable(Named(ScalarString))}
	}
	return args
}

// InferFields types every payload field of a sample record
func InferFields(sample map[string]any) (map[string]Field, error) {
	fields := make(map[string]Field, len(sample))

	names := make([]string, 0, len(sample))
	for name := range sample {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t, err := Infer(sample[name])
		if err != nil {
			var unsupported *UnsupportedTypeError
			if errors.As(err, &unsupported) {
				unsupported.Field = name
			}
			return nil, err
		}
		fields[name] = newField(t)
	}
	return fields, nil
}

// Assemble builds the object type and collection descriptor of one collection.
// A nil sample means the collection holds no records.
func Assemble(name string, sample map[string]any, variant Arguments) (ObjectType, Collection, error) {
	fields := map[string]Field{}
	if sample != nil {
		inferred, err := InferFields(sample)
		if err != nil {
			var unsupported *UnsupportedTypeError
			if errors.As(err, &unsupported) {
				unsupported.Collection = name
			}
			return ObjectType{}, Collection{}, err
		}
		fields = inferred
	}

	// base fields are written last and win on collision
	for fieldName, field := range BaseFields() {
		fields[fieldName] = field
	}

	objectType := ObjectType{
		Description: nil,
		Fields:      fields,
	}

	collection := Collection{
		Name:        name + "s",
		Description: nil,
		Arguments:   CollectionArguments(variant),
		Type:        name,
		Deletable:   false,
		UniquenessConstraints: map[string]UniquenessConstraint{
			Capitalize(name) + "ByID": {UniqueColumns: []string{"id"}},
		},
		ForeignKeys: map[string]ForeignKey{},
	}

	return objectType, collection, nil
}

// Capitalize upper-cases the first character and lower-cases the rest
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	_, size := utf8.DecodeRuneInString(s)
	return cases.Upper(language.Und).String(s[:size]) + cases.Lower(language.Und).String(s[size:])
}

// Build samples every collection of src in listing order and assembles the
// document. It stops at the first error.
func Build(ctx context.Context, src Source, variant Arguments) (*Document, error) {
	names, err := src.ListCollectionNames(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	slog.Info("found collections", "count", len(names))

	doc := NewDocument()
	for _, name := range names {
		sample, err := src.SampleRecord(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("failed to sample collection %s: %w", name, err)
		}
		if sample == nil {
			slog.Debug("collection is empty, emitting base fields only", "collection", name)
		}

		objectType, collection, err := Assemble(name, sample, variant)
		if err != nil {
			return nil, fmt.Errorf("failed to assemble collection %s: %w", name, err)
		}
		slog.Debug("assembled collection", "collection", name, "fields", len(objectType.Fields))

		doc.ObjectTypes[name] = objectType
		doc.Collections = append(doc.Collections, collection)
	}

	slog.Info("schema assembly completed", "collections", len(doc.Collections))
	return doc, nil
}
