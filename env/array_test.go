package env

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestArrayBinding_Literals(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		src      string
		want     Value
	}{
		{"empty", "int[]", "{}", Array(TypeInt)},
		{"ints", "int[]", "{1, 2, 3}", Array(TypeInt, Int(1), Int(2), Int(3))},
		{"no spaces", "int[]", "{1,2,3}", Array(TypeInt, Int(1), Int(2), Int(3))},
		{"doubles", "double[]", "{1, 2.5, -inf}", Array(TypeDouble, Double(1), Double(2.5), Double(math.Inf(-1)))},
		{"strings", "string[]", `{"a", ""}`, Array(TypeString, String("a"), String(""))},
		{"bools", "bool[]", "{true}", Array(TypeBool, Bool(true))},
		{"element reference", "int[]", "{0, x, 9}", Array(TypeInt, Int(0), Int(4), Int(9))},
		{
			"nested", "int[][]", "{{1}, {}, {2, 3}}",
			Array("int[]",
				Array(TypeInt, Int(1)),
				Array(TypeInt),
				Array(TypeInt, Int(2), Int(3))),
		},
		{
			"nested reference", "int[][]", "{row, row}",
			Array("int[]",
				Array(TypeInt, Int(7), Int(8)),
				Array(TypeInt, Int(7), Int(8))),
		},
		{
			"comments", "int[]", "{ 1, /* two */ 2 // end\n }",
			Array(TypeInt, Int(1), Int(2)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			mustBind(t, e, "x", TypeInt, "4")
			mustBind(t, e, "row", "int[]", "{7, 8}")

			mustBind(t, e, "v", tt.typeName, tt.src)

			got := mustGet(t, e, "v")
			if !got.Equal(tt.want) {
				t.Errorf("v = %v, want %v", got, tt.want)
			}

			if got.Len() != tt.want.Len() {
				t.Errorf("Len() = %d, want %d", got.Len(), tt.want.Len())
			}

			for _, name := range e.Names() {
				if strings.HasPrefix(name, "____") {
					t.Errorf("temporary %q leaked", name)
				}
			}

			if e.Len() != 3 {
				t.Errorf("Len() = %d, want 3", e.Len())
			}
		})
	}
}

func TestArrayBinding_SyntaxErrors(t *testing.T) {
	tests := []struct {
		name     string
		typeName string
		src      string
		column   int
		message  string
	}{
		{"trailing comma", "int[]", "{1, 2, 3,}", 10, "expected array element after ','"},
		{"leading comma", "int[]", "{,1}", 2, "expected int literal"},
		{"double comma", "int[]", "{1,,2}", 4, "expected int literal"},
		{"missing brace", "int[]", "5", 1, "expected '{'"},
		{"missing comma", "int[]", "{1 2}", 4, "expected ',' or '}'"},
		{"unterminated", "int[]", "{1,", 4, "unterminated array literal"},
		{"unterminated empty", "int[]", "{", 2, "unterminated array literal"},
		{"unterminated after element", "int[]", "{1", 3, "expected ',' or '}'"},
		{"wrong element kind", "int[]", `{1, "2"}`, 5, "expected int literal"},
		{"nested trailing comma", "int[][]", "{{1,}}", 5, "expected array element after ','"},
		{"scalar for nested", "int[][]", "{1}", 2, "expected '{'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()

			err := bind(t, e, "v", tt.typeName, tt.src)
			if !errors.Is(err, ErrSyntax) {
				t.Fatalf("error = %v, want ErrSyntax", err)
			}

			if pos := errPos(t, err); pos.Line != 1 || pos.Column != tt.column {
				t.Errorf("error at %v, want line 1, column %d", pos, tt.column)
			}

			if !strings.Contains(err.Error(), tt.message) {
				t.Errorf("error %q does not contain %q", err, tt.message)
			}

			if e.Defined("v") || e.Len() != 0 {
				t.Errorf("bindings after failed parse: %v", e.Names())
			}
		})
	}
}

func TestArrayBinding_MaxDepth(t *testing.T) {
	e := New(WithMaxDepth(2))

	mustBind(t, e, "ok", "int[][]", "{{1}}")

	err := bind(t, e, "deep", "int[][][]", "{{{1}}}")
	if !errors.Is(err, ErrSyntax) {
		t.Fatalf("error = %v, want ErrSyntax", err)
	}

	if pos := errPos(t, err); pos.Column != 4 {
		t.Errorf("error at %v, want column 4", pos)
	}

	if err := bind(t, e, "inferred", "", "{{{1}}}"); !errors.Is(err, ErrSyntax) {
		t.Errorf("inferred: error = %v, want ErrSyntax", err)
	}
}

func TestArrayBinding_StopsAtClosingBrace(t *testing.T) {
	e := New()
	s := stream(t, "{1, 2}; int y = 3;")

	if err := e.ReadAndSet("v", s, "int[]"); err != nil {
		t.Fatal(err)
	}

	if tok := s.Peek(); tok.Text != ";" {
		t.Errorf("stream at %v, want ';'", tok)
	}

	if prev := s.PeekPrev(); prev.Text != "}" {
		t.Errorf("previous token %v, want '}'", prev)
	}
}

func TestArrayBinding_ElemType(t *testing.T) {
	b, err := New().GetBindingForType("double[][]")
	if err != nil {
		t.Fatal(err)
	}

	ab, ok := b.(*ArrayBinding)
	if !ok {
		t.Fatalf("binding is %T, want *ArrayBinding", b)
	}

	if ab.ElemType() != "double[]" {
		t.Errorf("ElemType() = %q, want double[]", ab.ElemType())
	}
}
