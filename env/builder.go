package env

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/ardnew/vartab/lang"
)

// PrimitiveBuilder builds bool, int, double and string values from a single
// literal token. It is the default [Builder] of an Environment and rejects
// composite types with [ErrUnknownType].
type PrimitiveBuilder struct{}

// Build consumes one literal token and returns its value.
func (PrimitiveBuilder) Build(
	_ *Environment,
	typeName string,
	ts TokenStream,
) (Value, error) {
	tok := ts.Peek()

	v, err := parsePrimitive(typeName, tok)
	if err != nil {
		return Value{}, err
	}

	ts.Next()

	return v, nil
}

func parsePrimitive(typeName string, tok lang.Token) (Value, error) {
	expected := func() error {
		return ErrSyntax.WithPosition(tok.Pos).
			With(slog.String("type", typeName), slog.String("token", tok.String())).
			Wrapf("expected %s literal but found %s", typeName, tok.Quote())
	}

	switch typeName {
	case TypeBool:
		if tok.Kind != lang.KindBool {
			return Value{}, expected()
		}

		return Bool(tok.Text == "true"), nil

	case TypeInt:
		if tok.Kind != lang.KindInt {
			return Value{}, expected()
		}

		i, err := lang.ParseInt(tok.Text)
		if err != nil {
			return Value{}, ErrSyntax.WithPosition(tok.Pos).
				Wrapf("integer literal %s out of range", tok.Text)
		}

		return Int(i), nil

	case TypeDouble:
		f, ok := parseDouble(tok)
		if !ok {
			return Value{}, expected()
		}

		return Double(f), nil

	case TypeString:
		if tok.Kind != lang.KindString {
			return Value{}, expected()
		}

		s, err := tok.Unquote()
		if err != nil {
			return Value{}, ErrSyntax.WithPosition(tok.Pos).Wrap(err)
		}

		return String(s), nil
	}

	return Value{}, ErrUnknownType.WithPosition(tok.Pos).
		With(slog.String("type", typeName)).
		Wrapf("no builder for type %s", typeName)
}

// parseDouble accepts float and integer literals, including inf and nan.
func parseDouble(tok lang.Token) (float64, bool) {
	switch tok.Kind {
	case lang.KindInt:
		if i, err := lang.ParseInt(tok.Text); err == nil {
			return float64(i), true
		}

		f, err := strconv.ParseFloat(tok.Text, 64)

		return f, err == nil

	case lang.KindFloat:
		switch strings.TrimPrefix(tok.Text, "+") {
		case "inf":
			return math.Inf(1), true

		case "-inf":
			return math.Inf(-1), true

		case "nan", "-nan":
			return math.NaN(), true
		}

		f, err := strconv.ParseFloat(tok.Text, 64)

		return f, err == nil
	}

	return 0, false
}
