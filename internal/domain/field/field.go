// Package field declares the closed set of document field types the
// collection layer understands.
package field

import "fmt"

// Type is the declared type of a schema field.
type Type string

// The closed set of field types a Field may declare.
const (
	String      Type = "string"
	Int32       Type = "int32"
	Int64       Type = "int64"
	Float       Type = "float"
	StringArray Type = "string[]"
	Int32Array  Type = "int32[]"
	Int64Array  Type = "int64[]"
	FloatArray  Type = "float[]"
)

func (t Type) valid() bool {
	switch t {
	case String, Int32, Int64, Float, StringArray, Int32Array, Int64Array, FloatArray:
		return true
	default:
		return false
	}
}

// IsArray reports whether the type is one of the array variants.
func (t Type) IsArray() bool {
	switch t {
	case StringArray, Int32Array, Int64Array, FloatArray:
		return true
	default:
		return false
	}
}

// IsString reports whether the type is string or string[].
func (t Type) IsString() bool {
	return t == String || t == StringArray
}

// Field is an immutable declaration of one schema field.
type Field struct {
	name   string
	typ    Type
	facet  bool
}

// New validates and creates a Field declaration.
func New(name string, typ Type, facet bool) (Field, error) {
	if name == "" {
		return Field{}, fmt.Errorf("field name is required")
	}
	if !typ.valid() {
		return Field{}, fmt.Errorf("invalid field type %q for %q", typ, name)
	}
	return Field{name: name, typ: typ, facet: facet}, nil
}

// Reconstruct creates a Field without validation (storage hydration).
func Reconstruct(name string, typ Type, facet bool) Field {
	return Field{name: name, typ: typ, facet: facet}
}

// Name returns the field name.
func (f Field) Name() string { return f.name }

// Type returns the declared field type.
func (f Field) Type() Type { return f.typ }

// IsFacet reports whether the field was declared as a facet.
func (f Field) IsFacet() bool { return f.facet }

// IsSortable reports whether the field's type is a single (non-array)
// numeric type, the only kind of field that may appear in sort_schema.
func (f Field) IsSortable() bool {
	switch f.typ {
	case Int32, Int64, Float:
		return true
	default:
		return false
	}
}
