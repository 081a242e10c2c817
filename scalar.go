package pbtext

import (
	"fmt"
	"strconv"
	"strings"

	eng "github.com/reoring/pbtext/internal/engine"
)

// coerce converts a value token into a Value of fd's kind. It returns the
// issue code describing why the token does not fit, or "" on success.
func coerce(fd *FieldDescriptor, tok eng.Token) (Value, string) {
	k := fd.Kind
	switch {
	case k.IsSigned32() || k.IsSigned64():
		if tok.Kind != eng.KindNumber {
			return Value{}, CodeTypeMismatch
		}
		bits := 32
		if k.IsSigned64() {
			bits = 64
		}
		n, err := strconv.ParseInt(tok.Text, 10, bits)
		if err != nil {
			return Value{}, CodeInvalidValue
		}
		return ValueOfSigned(k, n), ""

	case k.IsUnsigned32() || k.IsUnsigned64():
		if tok.Kind != eng.KindNumber {
			return Value{}, CodeTypeMismatch
		}
		bits := 32
		if k.IsUnsigned64() {
			bits = 64
		}
		n, err := strconv.ParseUint(strings.TrimPrefix(tok.Text, "+"), 10, bits)
		if err != nil {
			return Value{}, CodeInvalidValue
		}
		return ValueOfUnsigned(k, n), ""

	case k == KindFloat || k == KindDouble:
		if tok.Kind != eng.KindNumber && !(tok.Kind == eng.KindBareword && isSpecialFloat(tok.Text)) {
			return Value{}, CodeTypeMismatch
		}
		bits := 64
		if k == KindFloat {
			bits = 32
		}
		f, err := strconv.ParseFloat(tok.Text, bits)
		if err != nil {
			return Value{}, CodeInvalidValue
		}
		if k == KindFloat {
			return ValueOfFloat(float32(f)), ""
		}
		return ValueOfDouble(f), ""

	case k == KindBool:
		if tok.Kind != eng.KindBareword {
			return Value{}, CodeTypeMismatch
		}
		switch tok.Text {
		case "true":
			return ValueOfBool(true), ""
		case "false":
			return ValueOfBool(false), ""
		}
		return Value{}, CodeInvalidValue

	case k == KindEnum:
		if tok.Kind != eng.KindBareword {
			return Value{}, CodeTypeMismatch
		}
		ev, ok := fd.Enum.ByName(tok.Text)
		if !ok {
			return Value{}, CodeUnknownEnum
		}
		return ValueOfEnum(ev.Number), ""

	case k == KindString:
		if tok.Kind != eng.KindQuoted {
			return Value{}, CodeTypeMismatch
		}
		return Value{kind: KindString, buf: tok.Bytes}, ""

	case k == KindBytes:
		if tok.Kind != eng.KindQuoted {
			return Value{}, CodeTypeMismatch
		}
		return Value{kind: KindBytes, buf: tok.Bytes}, ""
	}
	return Value{}, CodeTypeMismatch
}

func isSpecialFloat(s string) bool {
	switch strings.ToLower(strings.TrimLeft(s, "+-")) {
	case "inf", "infinity", "nan":
		return true
	}
	return false
}

// ScalarFromString converts s to a value of fd's kind using the same rules
// as the parser. String and bytes fields take s verbatim; enums take a
// symbolic name.
func ScalarFromString(fd *FieldDescriptor, s string) (Value, error) {
	tok := eng.Token{Text: s}
	switch {
	case fd.Kind == KindString || fd.Kind == KindBytes:
		tok.Kind, tok.Bytes = eng.KindQuoted, []byte(s)
	case fd.Kind == KindBool || fd.Kind == KindEnum || isSpecialFloat(s):
		tok.Kind = eng.KindBareword
	case fd.Kind == KindMessage:
		return Value{}, fmt.Errorf("pbtext: field %s: message fields have no scalar form", fd.Name)
	default:
		tok.Kind = eng.KindNumber
	}
	v, code := coerce(fd, tok)
	if code != "" {
		return Value{}, fmt.Errorf("pbtext: field %s: %s %q for kind %s", fd.Name, code, s, fd.Kind)
	}
	return v, nil
}
