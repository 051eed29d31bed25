package env

import (
	"bytes"
	"errors"
	"math"
	"slices"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/ardnew/vartab/lang"
)

func TestReadAndSet_PrimitiveRoundTrip(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		src      string
		want     Value
		literal  string
	}{
		{"bool true", TypeBool, "true", Bool(true), "true"},
		{"bool false", TypeBool, "false", Bool(false), "false"},
		{"int zero", TypeInt, "0", Int(0), "0"},
		{"int negative", TypeInt, "-42", Int(-42), "-42"},
		{"int max", TypeInt, "9223372036854775807", Int(math.MaxInt64), "9223372036854775807"},
		{"int min", TypeInt, "-9223372036854775808", Int(math.MinInt64), "-9223372036854775808"},
		{"int hex", TypeInt, "0x1F", Int(31), "31"},
		{"int negative hex", TypeInt, "-0x10", Int(-16), "-16"},
		{"int leading zero", TypeInt, "010", Int(10), "10"},
		{"double leading zero", TypeDouble, "010", Double(10), "10.0"},
		{"double", TypeDouble, "3.5", Double(3.5), "3.5"},
		{"double negative", TypeDouble, "-0.25", Double(-0.25), "-0.25"},
		{"double large", TypeDouble, "1e300", Double(1e300), "1e+300"},
		{"double small", TypeDouble, "1e-7", Double(1e-7), "1e-07"},
		{"double from int", TypeDouble, "5", Double(5), "5.0"},
		{"double third", TypeDouble, "0.3333333333333333", Double(1.0 / 3), "0.3333333333333333"},
		{"double inf", TypeDouble, "inf", Double(math.Inf(1)), "inf"},
		{"double negative inf", TypeDouble, "-inf", Double(math.Inf(-1)), "-inf"},
		{"double nan", TypeDouble, "nan", Double(math.NaN()), "nan"},
		{"string empty", TypeString, `""`, String(""), `""`},
		{"string escapes", TypeString, `"say \"hi\"\n"`, String("say \"hi\"\n"), `"say \"hi\"\n"`},
		{"string unicode", TypeString, `"héllo ☃"`, String("héllo ☃"), `"héllo ☃"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()

			if e.Defined("v") {
				t.Fatal("v defined before bind")
			}

			mustBind(t, e, "v", tt.typeName, tt.src)

			if !e.Defined("v") {
				t.Fatal("v not defined after bind")
			}

			got := mustGet(t, e, "v")
			if !got.Equal(tt.want) {
				t.Errorf("value = %v, want %v", got, tt.want)
			}

			var buf bytes.Buffer
			if err := e.Print(&buf); err != nil {
				t.Fatalf("Print: %v", err)
			}

			wantLine := tt.typeName + " v = " + tt.literal + ";\n"
			if buf.String() != wantLine {
				t.Fatalf("Print = %q, want %q", buf.String(), wantLine)
			}

			literal := strings.TrimSuffix(strings.SplitN(buf.String(), " = ", 2)[1], ";\n")

			mustBind(t, e, "w", tt.typeName, literal)

			if back := mustGet(t, e, "w"); !back.Equal(tt.want) {
				t.Errorf("re-parsed %q = %v, want %v", literal, back, tt.want)
			}
		})
	}
}

func TestReadAndSet_LiteralKindErrors(t *testing.T) {
	tests := []struct {
		typeName string
		src      string
		sentinel error
	}{
		{TypeInt, `"5"`, ErrSyntax},
		{TypeInt, `5.5`, ErrSyntax},
		{TypeInt, `99999999999999999999`, ErrSyntax},
		{TypeBool, `1`, ErrSyntax},
		{TypeString, `x`, ErrSyntax},
		{TypeDouble, `true`, ErrSyntax},
		{"Animal", `Cow("x")`, ErrUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.typeName+" "+tt.src, func(t *testing.T) {
			e := New()

			err := bind(t, e, "v", tt.typeName, tt.src)
			if !errors.Is(err, tt.sentinel) {
				t.Fatalf("error = %v, want %v", err, tt.sentinel)
			}

			if e.Defined("v") {
				t.Error("v defined after failed bind")
			}
		})
	}
}

func TestReadAndSet_ReferenceCopiesValue(t *testing.T) {
	e := New()

	mustBind(t, e, "x", TypeInt, "5")
	mustBind(t, e, "y", TypeInt, "x")

	if got := mustGet(t, e, "y"); !got.Equal(Int(5)) {
		t.Fatalf("y = %v, want 5", got)
	}

	mustBind(t, e, "y", TypeInt, "7")

	if got := mustGet(t, e, "x"); !got.Equal(Int(5)) {
		t.Errorf("x = %v after overwriting y, want 5", got)
	}

	mustBind(t, e, "a", "int[]", "{1, 2}")
	mustBind(t, e, "b", "int[]", "a")
	mustBind(t, e, "b", "int[]", "{3}")

	if got := mustGet(t, e, "a"); !got.Equal(Array(TypeInt, Int(1), Int(2))) {
		t.Errorf("a = %v after overwriting b, want {1, 2}", got)
	}
}

func TestReadAndSet_TypeMismatch(t *testing.T) {
	t.Run("strict", func(t *testing.T) {
		e := New()

		mustBind(t, e, "x", TypeInt, "5")

		err := bind(t, e, "y", TypeString, "x")
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("error = %v, want ErrTypeMismatch", err)
		}

		if pos := errPos(t, err); pos.Column != 1 {
			t.Errorf("error at %v, want column 1", pos)
		}

		if e.Defined("y") {
			t.Error("y defined after mismatch")
		}
	})

	t.Run("strict array element", func(t *testing.T) {
		e := New()

		mustBind(t, e, "s", TypeString, `"s"`)

		err := bind(t, e, "v", "int[]", "{1, s}")
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("error = %v, want ErrTypeMismatch", err)
		}

		if pos := errPos(t, err); pos.Column != 5 {
			t.Errorf("error at %v, want column 5", pos)
		}
	})

	t.Run("legacy ignore", func(t *testing.T) {
		e := New(WithMismatchPolicy(MismatchIgnore))

		mustBind(t, e, "x", TypeInt, "5")

		s := stream(t, "x;")
		if err := e.ReadAndSet("y", s, TypeString); err != nil {
			t.Fatalf("error = %v, want nil", err)
		}

		if e.Defined("y") {
			t.Error("y defined after ignored mismatch")
		}

		if tok := s.Peek(); tok.Kind != lang.KindSemicolon {
			t.Errorf("reference not consumed, at %v", tok)
		}
	})

	t.Run("legacy ignore array element", func(t *testing.T) {
		e := New(WithMismatchPolicy(MismatchIgnore))

		mustBind(t, e, "x", TypeInt, "5")

		err := bind(t, e, "a", "string[]", `{"s", x}`)
		if !errors.Is(err, ErrTypeMismatch) {
			t.Fatalf("error = %v, want ErrTypeMismatch", err)
		}

		if errors.Is(err, ErrInternal) {
			t.Errorf("error = %v, want no ErrInternal", err)
		}

		var le *lang.Error
		if !errors.As(err, &le) {
			t.Fatalf("error %T is not *lang.Error", err)
		}

		if pos, ok := le.Position(); !ok || pos.Column != 7 {
			t.Errorf("error at %v, want column 7", pos)
		}

		if e.Defined("a") {
			t.Error("a defined after failed element")
		}
	})
}

func TestReadAndSet_RebindMovesTable(t *testing.T) {
	e := New()

	mustBind(t, e, "x", TypeInt, "1")
	mustBind(t, e, "x", "", `"now a string"`)

	if typeName, _ := e.GetType("x"); typeName != TypeString {
		t.Fatalf("GetType(x) = %q, want string", typeName)
	}

	ib, err := e.GetBindingForType(TypeInt)
	if err != nil {
		t.Fatal(err)
	}

	if ib.Defined("x") {
		t.Error("x still in the int table")
	}

	var buf bytes.Buffer
	_ = e.Print(&buf)

	if want := "string x = \"now a string\";\n"; buf.String() != want {
		t.Errorf("Print = %q, want %q", buf.String(), want)
	}
}

func TestReadAndSet_FailureKeepsPreviousBinding(t *testing.T) {
	e := New()

	mustBind(t, e, "v", "int[]", "{1}")

	if err := bind(t, e, "v", "int[]", "{2,}"); !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want ErrSyntax", err)
	}

	if got := mustGet(t, e, "v"); !got.Equal(Array(TypeInt, Int(1))) {
		t.Errorf("v = %v, want {1}", got)
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		want     string
		sentinel error
	}{
		{name: "bool", src: "true", want: TypeBool},
		{name: "int", src: "-3", want: TypeInt},
		{name: "double", src: "2.5", want: TypeDouble},
		{name: "nan", src: "nan", want: TypeDouble},
		{name: "string", src: `"s"`, want: TypeString},
		{name: "reference", src: "name", want: TypeString},
		{name: "array reference", src: "nums", want: "int[]"},
		{name: "array", src: "{1.5, 2}", want: "double[]"},
		{name: "nested array", src: "{{1}, {}}", want: "int[][]"},
		{name: "array of references", src: "{name}", want: "string[]"},
		{name: "object", src: `Cow("x")`, want: "Animal"},
		{name: "object array", src: `{Pig("p")}`, want: "Animal[]"},
		{name: "empty array", src: "{}", sentinel: ErrSyntax},
		{name: "nullptr", src: "nullptr", sentinel: ErrSyntax},
		{name: "undefined", src: "nobody", sentinel: ErrUndefinedVariable},
		{name: "punctuation", src: ";", sentinel: ErrSyntax},
		{name: "end of input", src: "", sentinel: ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var closes atomic.Int64

			e := newFarm(&closes)
			mustBind(t, e, "name", TypeString, `"n"`)
			mustBind(t, e, "nums", "int[]", `{1}`)

			err := bind(t, e, "v", "", tt.src)
			if tt.sentinel != nil {
				if !errors.Is(err, tt.sentinel) {
					t.Fatalf("error = %v, want %v", err, tt.sentinel)
				}

				return
			}

			if err != nil {
				t.Fatalf("bind: %v", err)
			}

			if got, _ := e.GetType("v"); got != tt.want {
				t.Errorf("inferred %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInferType_WithoutLookahead(t *testing.T) {
	e := New()

	err := e.ReadAndSet("v", plainStream{stream(t, "{1}")}, "")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want ErrSyntax", err)
	}

	if err := e.ReadAndSet("v", plainStream{stream(t, "{1}")}, "int[]"); err != nil {
		t.Fatalf("explicit type: %v", err)
	}

	if err := e.ReadAndSet("w", plainStream{stream(t, "7")}, ""); err != nil {
		t.Fatalf("scalar inference: %v", err)
	}
}

func TestGetBindingForType(t *testing.T) {
	tests := []struct {
		typeName string
		want     string
		sentinel error
	}{
		{typeName: TypeInt, want: TypeInt},
		{typeName: "string[][]", want: "string[][]"},
		{typeName: "Animal", want: "Animal"},
		{typeName: "Cow", want: "Animal"},
		{typeName: "Cow[]", want: "Animal[]"},
		{typeName: "Pig[][]", want: "Animal[][]"},
		{typeName: "Dog", sentinel: ErrUnknownType},
		{typeName: "Dog[]", sentinel: ErrUnknownType},
		{typeName: "", sentinel: ErrUnknownType},
		{typeName: "[]", sentinel: ErrUnknownType},
	}

	var closes atomic.Int64

	e := newFarm(&closes)

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			b, err := e.GetBindingForType(tt.typeName)
			if tt.sentinel != nil {
				if !errors.Is(err, tt.sentinel) {
					t.Fatalf("error = %v, want %v", err, tt.sentinel)
				}

				return
			}

			if err != nil {
				t.Fatalf("GetBindingForType: %v", err)
			}

			if b.TypeName() != tt.want {
				t.Errorf("TypeName() = %q, want %q", b.TypeName(), tt.want)
			}

			again, _ := e.GetBindingForType(tt.want)
			if again != b {
				t.Error("table for base type differs from table for concrete type")
			}
		})
	}

	if _, err := New().GetBindingForType("Animal"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("without hierarchy: error = %v, want ErrUnknownType", err)
	}
}

func TestLookups_Undefined(t *testing.T) {
	e := New()

	if _, err := e.GetType("nope"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("GetType error = %v", err)
	}

	if _, err := e.GetBinding("nope"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("GetBinding error = %v", err)
	}

	if _, err := e.Get("nope"); !errors.Is(err, ErrUndefinedVariable) {
		t.Errorf("Get error = %v", err)
	}
}

func TestLookup(t *testing.T) {
	e := New()

	mustBind(t, e, "n", TypeInt, "3")
	mustBind(t, e, "s", TypeString, `"x"`)
	mustBind(t, e, "v", "", "{1.5, 2.5}")
	mustBind(t, e, "m", "int[][]", "{{1}, {2, 3}}")

	if n, err := Lookup[int64](e, "n"); err != nil || n != 3 {
		t.Errorf("Lookup[int64](n) = %v, %v", n, err)
	}

	if s, err := Lookup[string](e, "s"); err != nil || s != "x" {
		t.Errorf("Lookup[string](s) = %q, %v", s, err)
	}

	if v, err := Lookup[[]float64](e, "v"); err != nil || !slices.Equal(v, []float64{1.5, 2.5}) {
		t.Errorf("Lookup[[]float64](v) = %v, %v", v, err)
	}

	m, err := Lookup[[]any](e, "m")
	if err != nil || len(m) != 2 {
		t.Fatalf("Lookup[[]any](m) = %v, %v", m, err)
	}

	if row, ok := m[1].([]int64); !ok || !slices.Equal(row, []int64{2, 3}) {
		t.Errorf("m[1] = %#v, want []int64{2, 3}", m[1])
	}

	if _, err := Lookup[string](e, "n"); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Lookup[string](n) error = %v, want ErrTypeMismatch", err)
	}
}

func TestSetAndUnset(t *testing.T) {
	var closes atomic.Int64

	e := newFarm(&closes)

	if err := e.Set("v", "Cow[]", Array("Cow", ObjectValue(nil))); err != nil {
		t.Fatalf("Set: %v", err)
	}

	if typeName, _ := e.GetType("v"); typeName != "Animal[]" {
		t.Errorf("GetType(v) = %q, want Animal[]", typeName)
	}

	if err := e.Set("n", TypeInt, String("5")); !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("Set of mismatched value: error = %v", err)
	}

	if err := e.Set("not a name", TypeInt, Int(1)); !errors.Is(err, ErrSyntax) {
		t.Errorf("Set of invalid name: error = %v", err)
	}

	if !e.Unset("v") || e.Defined("v") || e.Unset("v") {
		t.Error("Unset did not remove v exactly once")
	}
}

func TestPrint_Order(t *testing.T) {
	var closes atomic.Int64

	e := newFarm(&closes)

	mustBind(t, e, "z", TypeString, `"last"`)
	mustBind(t, e, "b", TypeInt, "2")
	mustBind(t, e, "a", TypeInt, "1")
	mustBind(t, e, "flag", TypeBool, "true")
	mustBind(t, e, "none", "Animal", "nullptr")
	mustBind(t, e, "grid", "", "{{1, 2}, {}}")

	var buf bytes.Buffer
	if err := e.Print(&buf); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"Animal none = nullptr;",
		"bool flag = true;",
		"int a = 1;",
		"int b = 2;",
		"int[][] grid = {{1, 2}, {}};",
		`string z = "last";`,
		"",
	}, "\n")

	if buf.String() != want {
		t.Errorf("Print =\n%s\nwant\n%s", buf.String(), want)
	}

	if got := e.Names(); !slices.Equal(got, []string{"a", "b", "flag", "grid", "none", "z"}) {
		t.Errorf("Names() = %v", got)
	}

	if got := e.Types(); !slices.Equal(got, []string{"Animal", "bool", "int", "int[][]", "string"}) {
		t.Errorf("Types() = %v", got)
	}

	snap := e.Snapshot()
	if snap["a"] != int64(1) || snap["z"] != "last" || snap["none"] != nil {
		t.Errorf("Snapshot() = %v", snap)
	}
}

func TestEnvironment_ZeroValue(t *testing.T) {
	var e Environment

	mustBind(t, &e, "x", TypeInt, "1")
	mustBind(t, &e, "v", "int[][]", "{{x}, {2, 3}}")
	mustBind(t, &e, "s", "", `"inferred"`)

	if got := mustGet(t, &e, "x"); got.Literal() != "1" {
		t.Errorf("x = %s, want 1", got.Literal())
	}

	if got := mustGet(t, &e, "v"); got.Literal() != "{{1}, {2, 3}}" {
		t.Errorf("v = %s, want {{1}, {2, 3}}", got.Literal())
	}

	if err := bind(t, &e, "o", "Shape", "Circle()"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("composite bind error = %v, want ErrUnknownType", err)
	}

	if err := e.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
