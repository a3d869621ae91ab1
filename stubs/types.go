package stubs

// TypeKind tags a Type node
type TypeKind string

const (
	KindNullable TypeKind = "nullable"
	KindNamed    TypeKind = "named"
	KindArray    TypeKind = "array"
)

// Scalar names understood by the downstream generator
const (
	ScalarBool   = "Bool"
	ScalarString = "String"
	ScalarInt    = "Int"
	ScalarFloat  = "Float"
)

// Type is a structural type descriptor. Exactly one of Name, UnderlyingType
// or ElementType is set, matching Type.
type Type struct {
	Type           TypeKind `json:"type" jsonschema:"enum=nullable,enum=named,enum=array"`
	Name           string   `json:"name,omitempty"`
	UnderlyingType *Type    `json:"underlying_type,omitempty"`
	ElementType    *Type    `json:"element_type,omitempty"`
}

// Named returns a scalar leaf
func Named(name string) *Type {
	return &Type{Type: KindNamed, Name: name}
}

// Nullable wraps t in a nullable node
func Nullable(t *Type) *Type {
	return &Type{Type: KindNullable, UnderlyingType: t}
}

// Array returns a sequence of elem
func Array(elem *Type) *Type {
	return &Type{Type: KindArray, ElementType: elem}
}

// Equal reports whether two descriptors have the same shape
func (t *Type) Equal(other *Type) bool {
	if t == nil || other == nil {
		return t == other
	}
	if t.Type != other.Type || t.Name != other.Name {
		return false
	}
	return t.UnderlyingType.Equal(other.UnderlyingType) && t.ElementType.Equal(other.ElementType)
}

// String renders the descriptor compactly, e.g. Nullable<Array<Nullable<Float>>>
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Type {
	case KindNullable:
		return "Nullable<" + t.UnderlyingType.String() + ">"
	case KindArray:
		return "Array<" + t.ElementType.String() + ">"
	default:
		return t.Name
	}
}

// Field describes one field of an object type
type Field struct {
	Description *string             `json:"description" jsonschema:"oneof_type=string;null"`
	Arguments   map[string]Argument `json:"arguments"`
	Type        *Type               `json:"type"`
}

// Argument describes one query argument of a collection
type Argument struct {
	Type *Type `json:"type"`
}

// ObjectType is the record shape of one collection
type ObjectType struct {
	Description *string          `json:"description" jsonschema:"oneof_type=string;null"`
	Fields      map[string]Field `json:"fields"`
}

// UniquenessConstraint lists columns that identify a record
type UniquenessConstraint struct {
	UniqueColumns []string `json:"unique_columns"`
}

// ForeignKey links columns of a collection to another collection
type ForeignKey struct {
	ColumnMapping     map[string]string `json:"column_mapping"`
	ForeignCollection string            `json:"foreign_collection"`
}

// Collection describes a queryable collection
type Collection struct {
	Name                  string                          `json:"name"`
	Description           *string                         `json:"description" jsonschema:"oneof_type=string;null"`
	Arguments             map[string]Argument             `json:"arguments"`
	Type                  string                          `json:"type"`
	Deletable             bool                            `json:"deletable"`
	UniquenessConstraints map[string]UniquenessConstraint `json:"uniqueness_constraints"`
	ForeignKeys           map[string]ForeignKey           `json:"foreign_keys"`
}

// Document is the serialized output of one run
type Document struct {
	ObjectTypes map[string]ObjectType `json:"object_types"`
	Collections []Collection          `json:"collections"`
}

// NewDocument returns an empty document
func NewDocument() *Document {
	return &Document{
		ObjectTypes: make(map[string]ObjectType),
		Collections: []Collection{},
	}
}
