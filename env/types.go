package env

import (
	"strings"

	"github.com/ardnew/vartab/lang"
)

// Primitive type names.
const (
	TypeBool   = "bool"
	TypeInt    = "int"
	TypeDouble = "double"
	TypeString = "string"
)

// ArraySuffix turns an element type name into an array type name.
const ArraySuffix = "[]"

const nullName = "nullptr"

// TokenStream is the token source a bind reads from.
//
// Streams that can look further ahead may also implement [lang.Lookahead],
// which enables inference of array element types.
type TokenStream interface {
	// Peek returns the current token without consuming it.
	Peek() lang.Token
	// Next consumes and returns the current token.
	Next() lang.Token
	// PeekPrev returns the most recently consumed token.
	PeekPrev() lang.Token
}

// Builder constructs a value of a non-array type from the stream: a
// primitive literal or a full object-construction spec. Build must consume
// exactly the tokens of the value.
type Builder interface {
	Build(e *Environment, typeName string, ts TokenStream) (Value, error)
}

// BuilderFunc adapts a function to the [Builder] interface.
type BuilderFunc func(e *Environment, typeName string, ts TokenStream) (Value, error)

// Build calls f.
func (f BuilderFunc) Build(
	e *Environment,
	typeName string,
	ts TokenStream,
) (Value, error) {
	return f(e, typeName, ts)
}

// Hierarchy answers questions about composite types.
type Hierarchy interface {
	// BaseOf returns the abstract base type of a concrete type.
	BaseOf(concrete string) (base string, ok bool)
	// IsBase reports whether name is an abstract base type.
	IsBase(name string) bool
}

// IsPrimitive reports whether typeName is bool, int, double or string.
func IsPrimitive(typeName string) bool {
	switch typeName {
	case TypeBool, TypeInt, TypeDouble, TypeString:
		return true
	}

	return false
}

// IsArrayType reports whether typeName names an array type.
func IsArrayType(typeName string) bool {
	return strings.HasSuffix(typeName, ArraySuffix)
}

// ElemType returns the element type of an array type name, or typeName
// itself if it is not an array type.
func ElemType(typeName string) string {
	return strings.TrimSuffix(typeName, ArraySuffix)
}

// ArrayOf returns the array type name with elements of typeName.
func ArrayOf(typeName string) string { return typeName + ArraySuffix }

// kindOfType returns the Value kind stored under typeName.
func kindOfType(typeName string) Kind {
	switch {
	case IsArrayType(typeName):
		return KindArray

	case typeName == TypeBool:
		return KindBool

	case typeName == TypeInt:
		return KindInt

	case typeName == TypeDouble:
		return KindDouble

	case typeName == TypeString:
		return KindString

	case typeName == "":
		return KindInvalid

	default:
		return KindObject
	}
}
