package env

import (
	"errors"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Kind identifies the variant held by a [Value].
type Kind int

const (
	KindInvalid Kind = iota // invalid
	KindBool                // bool
	KindInt                 // int
	KindDouble              // double
	KindString              // string
	KindObject              // object
	KindArray               // array
)

var kindName = [...]string{
	KindInvalid: "invalid",
	KindBool:    "bool",
	KindInt:     "int",
	KindDouble:  "double",
	KindString:  "string",
	KindObject:  "object",
	KindArray:   "array",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindName) {
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}

	return kindName[k]
}

// Value is a bound value: a primitive, a shared object handle, or an
// ordered array of values of one element type.
//
// Values are immutable. Arrays returned by [Value.Elems] are copies.
type Value struct {
	s     string
	elem  string // element type name, arrays only
	elems []Value
	obj   *Object
	i     int64
	f     float64
	kind  Kind
	b     bool
}

// Bool returns a bool Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an int Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Double returns a double Value.
func Double(v float64) Value { return Value{kind: KindDouble, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// ObjectValue returns a Value holding the object handle o.
// A nil handle is the null object.
func ObjectValue(o *Object) Value { return Value{kind: KindObject, obj: o} }

// Array returns an array Value with element type elem.
func Array(elem string, elems ...Value) Value {
	return Value{kind: KindArray, elem: elem, elems: slices.Clone(elems)}
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v holds a value.
func (v Value) IsValid() bool { return v.kind != KindInvalid }

// AsBool returns the bool held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsInt returns the int held by v.
func (v Value) AsInt() (int64, bool) { return v.i, v.kind == KindInt }

// AsDouble returns the double held by v.
func (v Value) AsDouble() (float64, bool) { return v.f, v.kind == KindDouble }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// AsObject returns the object handle held by v, which is nil for the null
// object.
func (v Value) AsObject() (*Object, bool) { return v.obj, v.kind == KindObject }

// Elems returns a copy of the elements of an array value.
func (v Value) Elems() []Value { return slices.Clone(v.elems) }

// ElemType returns the element type name of an array value.
func (v Value) ElemType() string { return v.elem }

// Len returns the number of elements of an array value.
func (v Value) Len() int { return len(v.elems) }

// Native returns v as a plain Go value: bool, int64, float64, string, the
// wrapped value of an object (nil for the null object), or a slice for
// arrays. Arrays of one primitive kind become []bool, []int64, []float64 or
// []string; other arrays become []any.
func (v Value) Native() any {
	switch v.kind {
	case KindBool:
		return v.b

	case KindInt:
		return v.i

	case KindDouble:
		return v.f

	case KindString:
		return v.s

	case KindObject:
		return v.obj.Value()

	case KindArray:
		switch kindOfType(v.elem) {
		case KindBool:
			return nativeSlice(v.elems, func(e Value) bool { return e.b })

		case KindInt:
			return nativeSlice(v.elems, func(e Value) int64 { return e.i })

		case KindDouble:
			return nativeSlice(v.elems, func(e Value) float64 { return e.f })

		case KindString:
			return nativeSlice(v.elems, func(e Value) string { return e.s })
		}

		return nativeSlice(v.elems, Value.Native)
	}

	return nil
}

func nativeSlice[T any](elems []Value, fn func(Value) T) []T {
	out := make([]T, len(elems))
	for i, e := range elems {
		out[i] = fn(e)
	}

	return out
}

// Literal renders v in source syntax. For primitives and arrays of
// primitives, parsing the literal back yields an equal value.
func (v Value) Literal() string {
	var sb strings.Builder

	v.writeLiteral(&sb)

	return sb.String()
}

// String implements fmt.Stringer using [Value.Literal].
func (v Value) String() string { return v.Literal() }

func (v Value) writeLiteral(sb *strings.Builder) {
	switch v.kind {
	case KindBool:
		sb.WriteString(strconv.FormatBool(v.b))

	case KindInt:
		sb.WriteString(strconv.FormatInt(v.i, 10))

	case KindDouble:
		sb.WriteString(formatDouble(v.f))

	case KindString:
		sb.WriteString(strconv.Quote(v.s))

	case KindObject:
		sb.WriteString(v.obj.String())

	case KindArray:
		sb.WriteByte('{')

		for i, e := range v.elems {
			if i > 0 {
				sb.WriteString(", ")
			}

			e.writeLiteral(sb)
		}

		sb.WriteByte('}')

	default:
		sb.WriteString("<invalid>")
	}
}

// formatDouble renders the shortest representation that parses back to f,
// always distinguishable from an integer literal.
func formatDouble(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"

	case math.IsInf(f, -1):
		return "-inf"

	case math.IsNaN(f):
		return "nan"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}

	return s
}

// Equal reports whether v and w hold the same value. Objects are equal when
// they are the same handle; NaN equals NaN.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}

	switch v.kind {
	case KindBool:
		return v.b == w.b

	case KindInt:
		return v.i == w.i

	case KindDouble:
		return v.f == w.f || (math.IsNaN(v.f) && math.IsNaN(w.f))

	case KindString:
		return v.s == w.s

	case KindObject:
		return v.obj == w.obj

	case KindArray:
		return v.elem == w.elem && slices.EqualFunc(v.elems, w.elems, Value.Equal)
	}

	return true
}

// copy returns a deep copy of v; object handles are shared.
func (v Value) copy() Value {
	if v.kind == KindArray {
		elems := make([]Value, len(v.elems))
		for i, e := range v.elems {
			elems[i] = e.copy()
		}

		v.elems = elems
	}

	return v
}

// objects calls fn for every object handle reachable from v.
func (v Value) objects(fn func(*Object)) {
	switch v.kind {
	case KindObject:
		if v.obj != nil {
			fn(v.obj)
		}

	case KindArray:
		for _, e := range v.elems {
			e.objects(fn)
		}
	}
}

func (v Value) retain() {
	v.objects((*Object).retain)
}

func (v Value) release() error {
	var errs []error

	v.objects(func(o *Object) {
		if err := o.release(); err != nil {
			errs = append(errs, err)
		}
	})

	return errors.Join(errs...)
}
