package env

import (
	"math"
	"reflect"
	"testing"
)

func TestValue_Literal(t *testing.T) {
	tests := []struct {
		v    Value
		want string
	}{
		{Bool(true), "true"},
		{Int(-7), "-7"},
		{Double(2), "2.0"},
		{Double(-1e21), "-1e+21"},
		{Double(math.NaN()), "nan"},
		{String("tab\there"), `"tab\there"`},
		{Array(TypeInt), "{}"},
		{Array(TypeString, String("a"), String("b")), `{"a", "b"}`},
		{Array("double[]", Array(TypeDouble, Double(0.5)), Array(TypeDouble)), "{{0.5}, {}}"},
		{ObjectValue(nil), "nullptr"},
		{Value{}, "<invalid>"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.v.Literal(); got != tt.want {
				t.Errorf("Literal() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValue_Native(t *testing.T) {
	obj := NewObject("Cow", "Animal", "moo")

	tests := []struct {
		name string
		v    Value
		want any
	}{
		{"bool", Bool(true), true},
		{"int", Int(3), int64(3)},
		{"double", Double(1.5), 1.5},
		{"string", String("s"), "s"},
		{"object", ObjectValue(obj), "moo"},
		{"null", ObjectValue(nil), nil},
		{"bools", Array(TypeBool, Bool(false)), []bool{false}},
		{"strings", Array(TypeString), []string{}},
		{"nested", Array("int[]", Array(TypeInt, Int(1))), []any{[]int64{1}}},
		{"objects", Array("Animal", ObjectValue(obj), ObjectValue(nil)), []any{"moo", nil}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Native(); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Native() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestValue_Equal(t *testing.T) {
	a, b := NewObject("Cow", "Animal", nil), NewObject("Cow", "Animal", nil)

	tests := []struct {
		name string
		v, w Value
		want bool
	}{
		{"ints", Int(1), Int(1), true},
		{"kinds differ", Int(1), Double(1), false},
		{"nan", Double(math.NaN()), Double(math.NaN()), true},
		{"same handle", ObjectValue(a), ObjectValue(a), true},
		{"distinct handles", ObjectValue(a), ObjectValue(b), false},
		{"arrays", Array(TypeInt, Int(1)), Array(TypeInt, Int(1)), true},
		{"array lengths", Array(TypeInt, Int(1)), Array(TypeInt), false},
		{"element types", Array(TypeInt), Array(TypeDouble), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.v.Equal(tt.w); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValue_ElemsIsCopy(t *testing.T) {
	v := Array(TypeInt, Int(1), Int(2))

	elems := v.Elems()
	elems[0] = Int(9)

	if got := v.Elems()[0]; !got.Equal(Int(1)) {
		t.Errorf("array modified through Elems(): %v", v)
	}

	if v.ElemType() != TypeInt {
		t.Errorf("ElemType() = %q", v.ElemType())
	}
}

func TestKindAndPolicyStrings(t *testing.T) {
	if KindArray.String() != "array" || Kind(42).String() != "Kind(42)" {
		t.Error("Kind.String")
	}

	if MismatchError.String() != "error" || MismatchIgnore.String() != "ignore" {
		t.Error("MismatchPolicy.String")
	}
}
