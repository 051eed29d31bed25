package interp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/ardnew/vartab/env"
	"github.com/ardnew/vartab/factory"
	"github.com/ardnew/vartab/lang"
)

type circle struct{ radius float64 }

func shapes(t *testing.T) *factory.Registry {
	t.Helper()

	r := factory.NewRegistry()
	r.MustRegister("Shape", "Circle", func(s *factory.Spec) (any, error) {
		radius, err := factory.Get[float64](s, "radius")

		return circle{radius: radius}, err
	}, factory.Member{Name: "radius", Type: "double", Required: true})

	return r
}

func printed(t *testing.T, in *Interpreter) string {
	t.Helper()

	var buf bytes.Buffer
	if err := in.Write(context.Background(), &buf, FormatNative, 0); err != nil {
		t.Fatalf("Write: %v", err)
	}

	return buf.String()
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	return path
}

func TestEvalString(t *testing.T) {
	in := New(WithRegistry(shapes(t)))
	defer in.Close()

	src := `
		// typed and inferred bindings
		int retries = 3;
		timeout = 2.5;   # inferred double
		string[] hosts = {"a", "b"};
		copy = hosts;
		int[][] grid = {{1}, {retries, 4}};
		;
		/* objects */
		Shape unit = Circle(radius(1));
		Shape[] pair = {unit, nullptr};
	`

	if err := in.EvalString(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"Shape unit = " + objectTag(t, in, "unit") + ";",
		"Shape[] pair = {" + objectTag(t, in, "unit") + ", nullptr};",
		"double timeout = 2.5;",
		"int retries = 3;",
		"int[][] grid = {{1}, {3, 4}};",
		`string[] copy = {"a", "b"};`,
		`string[] hosts = {"a", "b"};`,
		"",
	}, "\n")

	if got := printed(t, in); got != want {
		t.Errorf("Print =\n%s\nwant\n%s", got, want)
	}

	if c, err := env.Lookup[circle](in.Env(), "unit"); err != nil || c.radius != 1 {
		t.Errorf("unit = %+v, %v", c, err)
	}
}

func objectTag(t *testing.T, in *Interpreter, name string) string {
	t.Helper()

	v, err := in.Env().Get(name)
	if err != nil {
		t.Fatal(err)
	}

	o, _ := v.AsObject()

	return o.String()
}

func TestEvalString_Errors(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		sentinel error
		line     int
		column   int
	}{
		{"not a name", `5 = x;`, ErrStatement, 1, 1},
		{"missing assign", `int x 5;`, ErrStatement, 1, 7},
		{"unclosed brackets", `int[ x = {};`, ErrStatement, 1, 6},
		{"missing name", `int[] = {};`, ErrStatement, 1, 7},
		{"missing semicolon", "int x = 5\nint y = 6;", ErrStatement, 2, 1},
		{"bad literal", `int x = "s";`, env.ErrSyntax, 1, 9},
		{"unknown type", `Square s = nullptr;`, env.ErrUnknownType, 0, 0},
		{"undefined", `x = y;`, env.ErrUndefinedVariable, 1, 5},
		{"mismatch", "int x = 1;\nstring y = x;", env.ErrTypeMismatch, 2, 12},
		{"lexical", `string s = "open`, lang.ErrLex, 1, 12},
		{"include argument", `include 5;`, ErrStatement, 1, 9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(WithRegistry(shapes(t)))

			err := in.EvalString(context.Background(), tt.src)
			if err == nil {
				t.Fatal("no error")
			}

			if tt.sentinel != nil && !errors.Is(err, tt.sentinel) {
				t.Fatalf("error = %v, want %v", err, tt.sentinel)
			}

			if tt.line == 0 {
				return
			}

			want := fmt.Sprintf("line %d, column %d", tt.line, tt.column)
			if !strings.Contains(err.Error(), want) {
				t.Errorf("error %q not at %s", err, want)
			}
		})
	}
}

func TestEvalString_ContinueOnError(t *testing.T) {
	in := New(WithContinueOnError(true))

	err := in.EvalString(context.Background(),
		`int a = 1; int b = "x"; int c = 3; d = ; e = {1,}; int f = 6;`)

	var joined interface{ Unwrap() []error }
	if !errors.As(err, &joined) {
		t.Fatalf("error = %v, want joined errors", err)
	}

	if n := len(joined.Unwrap()); n != 3 {
		t.Errorf("%d errors, want 3: %v", n, err)
	}

	if !errors.Is(err, env.ErrSyntax) {
		t.Errorf("error = %v, want ErrSyntax", err)
	}

	for name, want := range map[string]bool{
		"a": true, "b": false, "c": true, "d": false, "e": false, "f": true,
	} {
		if got := in.Env().Defined(name); got != want {
			t.Errorf("Defined(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestEvalString_ContinueAfterInclude(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, filepath.Join(dir, "broken.vt"), "int z = ;")

	tests := []struct {
		name string
		src  string
	}{
		{name: "missing file", src: `include "no_such_file.vt"; int x = 1; int y = 2;`},
		{name: "failing file", src: fmt.Sprintf(`include %q; int x = 1; int y = 2;`, broken)},
		{name: "failing literal", src: `int w = ; int x = 1; int y = 2;`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := New(WithContinueOnError(true))
			defer in.Close()

			err := in.EvalString(context.Background(), tt.src)
			if err == nil {
				t.Fatal("error = nil, want the failed statement reported")
			}

			var joined interface{ Unwrap() []error }
			if errors.As(err, &joined) && len(joined.Unwrap()) != 1 {
				t.Errorf("%d errors, want 1: %v", len(joined.Unwrap()), err)
			}

			for _, name := range []string{"x", "y"} {
				if !in.Env().Defined(name) {
					t.Errorf("%s not defined after the failed statement", name)
				}
			}
		})
	}
}

func TestEval_Reader(t *testing.T) {
	in := New()

	if err := in.Eval(context.Background(), strings.NewReader(`bool ok = true;`)); err != nil {
		t.Fatal(err)
	}

	if ok, err := env.Lookup[bool](in.Env(), "ok"); err != nil || !ok {
		t.Errorf("ok = %v, %v", ok, err)
	}
}

func TestEval_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := New().EvalString(ctx, `int a = 1;`)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestEvalFile_Include(t *testing.T) {
	t.Setenv(SearchPathEnv, "")

	dir := t.TempDir()
	shared := t.TempDir()

	writeFile(t, filepath.Join(shared, "shared.vt"), `string owner = "ops";`)
	writeFile(t, filepath.Join(dir, "lib", "common.vt"), `
		int port = 8080;
		include "more.vt";
	`)
	writeFile(t, filepath.Join(dir, "lib", "more.vt"), `int[] ports = {port, 8443};`)
	main := writeFile(t, filepath.Join(dir, "main.vt"), `
		include "lib/common.vt";
		include "shared.vt";
		int backup = port;
	`)

	in := New(WithSearchPath(shared))

	if err := in.EvalFile(context.Background(), main); err != nil {
		t.Fatal(err)
	}

	want := strings.Join([]string{
		"int backup = 8080;",
		"int port = 8080;",
		"int[] ports = {8080, 8443};",
		`string owner = "ops";`,
		"",
	}, "\n")

	if got := printed(t, in); got != want {
		t.Errorf("Print =\n%s\nwant\n%s", got, want)
	}
}

func TestEvalFile_IncludeErrors(t *testing.T) {
	t.Setenv(SearchPathEnv, "")

	dir := t.TempDir()

	writeFile(t, filepath.Join(dir, "a.vt"), `include "b.vt";`)
	writeFile(t, filepath.Join(dir, "b.vt"), `include "a.vt";`)
	writeFile(t, filepath.Join(dir, "bad.vt"), "int ok = 1;\nint x = {};")
	writeFile(t, filepath.Join(dir, "missing.vt"), `include "nowhere.vt";`)
	writeFile(t, filepath.Join(dir, "self.vt"), `include "self.vt";`)
	writeFile(t, filepath.Join(dir, "uses_bad.vt"), `include "bad.vt";`)

	tests := []struct {
		file  string
		inner error
	}{
		{"a.vt", nil},
		{"self.vt", nil},
		{"missing.vt", os.ErrNotExist},
		{"uses_bad.vt", env.ErrSyntax},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			err := New().EvalFile(context.Background(), filepath.Join(dir, tt.file))
			if !errors.Is(err, ErrInclude) {
				t.Fatalf("error = %v, want ErrInclude", err)
			}

			if tt.inner != nil && !errors.Is(err, tt.inner) {
				t.Errorf("error = %v, want %v", err, tt.inner)
			}
		})
	}

	err := New(WithMaxIncludeDepth(1)).EvalFile(context.Background(),
		filepath.Join(dir, "uses_bad.vt"))
	if !errors.Is(err, ErrInclude) || errors.Is(err, env.ErrSyntax) {
		t.Errorf("depth limit: error = %v", err)
	}

	if err := New().EvalFile(context.Background(), filepath.Join(dir, "absent.vt")); !errors.Is(err, lang.ErrReadInput) {
		t.Errorf("absent file: error = %v, want ErrReadInput", err)
	}
}

func TestQuery(t *testing.T) {
	in := New(WithProcessEnv([]string{"VARTAB_TEST=yes"}))

	err := in.EvalString(context.Background(), `
		int retries = 3;
		string name = "db";
		string[] hosts = {"a", "b"};
		double[] weights = {0.5, 1.5};
		hostname = "shadowed";
	`)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		expression string
		want       any
	}{
		{`retries > 2`, true},
		{`len(hosts) == 2 && hosts[1] == "b"`, true},
		{`name + "!"`, "db!"},
		{`weights[1] > weights[0]`, true},
		{`env("VARTAB_TEST")`, "yes"},
		{`hostname`, "shadowed"},
		{`path.cat("a", "b")`, filepath.Join("a", "b")},
		{`file.isDir(cwd())`, true},
		{`platform.OS != ""`, true},
	}

	for _, tt := range tests {
		t.Run(tt.expression, func(t *testing.T) {
			got, err := in.Query(context.Background(), tt.expression)
			if err != nil {
				t.Fatalf("Query: %v", err)
			}

			if got != tt.want {
				t.Errorf("Query = %#v, want %#v", got, tt.want)
			}
		})
	}

	if _, err := in.Query(context.Background(), `retries +`); !errors.Is(err, ErrQuery) {
		t.Errorf("error = %v, want ErrQuery", err)
	}
}

func TestWrite(t *testing.T) {
	in := New(WithRegistry(shapes(t)))

	err := in.EvalString(context.Background(), `
		int n = 1;
		string s = "x";
		double[] d = {0.5, -inf};
		Shape c = Circle(radius(2));
		Shape none = nullptr;
	`)
	if err != nil {
		t.Fatal(err)
	}

	tag := objectTag(t, in, "c")

	tests := []struct {
		format Format
		indent int
		want   string
	}{
		{
			FormatJSON, 0,
			`{"c":"` + tag + `","d":[0.5,"-inf"],"n":1,"none":null,"s":"x"}` + "\n",
		},
		{
			FormatJSON, 2,
			"{\n  \"c\": \"" + tag + "\",\n  \"d\": [\n    0.5,\n    \"-inf\"\n  ],\n" +
				"  \"n\": 1,\n  \"none\": null,\n  \"s\": \"x\"\n}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.format.String(), func(t *testing.T) {
			var buf bytes.Buffer
			if err := in.Write(context.Background(), &buf, tt.format, tt.indent); err != nil {
				t.Fatal(err)
			}

			if buf.String() != tt.want {
				t.Errorf("Write =\n%s\nwant\n%s", buf.String(), tt.want)
			}
		})
	}

	if err := in.Write(context.Background(), &bytes.Buffer{}, Format(9), 0); !errors.Is(err, ErrFormat) {
		t.Errorf("unknown format: error = %v", err)
	}
}

func TestWrite_YAML(t *testing.T) {
	in := New()

	if err := in.EvalString(context.Background(), `string s = "x"; int n = 1;`); err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := in.Write(context.Background(), &buf, FormatYAML, 2); err != nil {
		t.Fatal(err)
	}

	if want := "n: 1\ns: x\n"; buf.String() != want {
		t.Errorf("YAML = %q, want %q", buf.String(), want)
	}

	buf.Reset()

	if err := in.Write(context.Background(), &buf, FormatYAML, 0); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(buf.String(), "n: 1") || !strings.HasPrefix(buf.String(), "{") {
		t.Errorf("flow YAML = %q", buf.String())
	}
}

func TestWrite_NativeRoundTrip(t *testing.T) {
	src := `
		bool b = false;
		double[] d = {1, 2.5, nan, inf};
		int[][] m = {{}, {-1}};
		string s = "tab\there \"quoted\"";
	`

	first := New()
	if err := first.EvalString(context.Background(), src); err != nil {
		t.Fatal(err)
	}

	second := New()
	if err := second.EvalString(context.Background(), printed(t, first)); err != nil {
		t.Fatal(err)
	}

	if a, b := printed(t, first), printed(t, second); a != b {
		t.Errorf("round trip differs:\n%s\n%s", a, b)
	}
}

func TestParseFormat(t *testing.T) {
	for _, name := range Formats() {
		f, err := ParseFormat(strings.ToUpper(name))
		if err != nil || f.String() != name {
			t.Errorf("ParseFormat(%q) = %v, %v", name, f, err)
		}
	}

	if _, err := ParseFormat("toml"); !errors.Is(err, ErrFormat) {
		t.Errorf("ParseFormat(toml) error = %v", err)
	}
}

func TestBuiltinNames(t *testing.T) {
	names := BuiltinNames()

	for _, want := range []string{"cwd", "env", "file", "mung", "path", "platform"} {
		if !slices.Contains(names, want) {
			t.Errorf("BuiltinNames() = %v, missing %q", names, want)
		}
	}

	if got := strings.Join(BuiltinMembers("path"), ","); got != "abs,cat,rel" {
		t.Errorf("BuiltinMembers(path) = %s", got)
	}

	if BuiltinMembers("cwd") != nil {
		t.Error("BuiltinMembers(cwd) is not nil")
	}
}

func TestBuiltin(t *testing.T) {
	tests := []struct {
		path string
		ok   bool
	}{
		{"path.cat", true},
		{"hostname", true},
		{"path", true},
		{"path.nope", false},
		{"hostname.x", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if _, ok := Builtin(tt.path); ok != tt.ok {
				t.Errorf("Builtin(%q) ok = %v, want %v", tt.path, ok, tt.ok)
			}
		})
	}

	cat, _ := Builtin("path.cat")
	if fn, ok := cat.(func(...string) string); !ok || fn("a", "b") != filepath.Join("a", "b") {
		t.Errorf("path.cat = %T", cat)
	}
}
