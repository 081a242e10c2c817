// Package escape converts arbitrary byte sequences to and from the quoted
// string syntax of the text format.
//
// The quoted form is binary safe: every byte outside printable ASCII is
// written as a three digit octal escape, so embedded NUL, high bytes and
// control characters survive a round trip unchanged.
package escape

import (
	"errors"
	"fmt"
)

// ErrUnterminated reports a literal without its closing quote.
var ErrUnterminated = errors.New("escape: unterminated string")

// SyntaxError describes a malformed escape sequence inside a literal.
type SyntaxError struct {
	Offset int    // byte offset of the backslash within the literal
	Seq    string // offending sequence as written
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("escape: invalid escape sequence %q at offset %d", e.Seq, e.Offset)
}

// Quote returns b as a double-quoted literal.
func Quote(b []byte) string { return string(AppendQuoted(nil, b)) }

// QuotedLen returns the length of the literal Quote would produce.
func QuotedLen(b []byte) int {
	n := 2
	for _, c := range b {
		switch {
		case c == '\\' || c == '"' || c == '\'' || c == '\n' || c == '\r' || c == '\t':
			n += 2
		case c < 0x20 || c >= 0x7f:
			n += 4
		default:
			n++
		}
	}
	return n
}

// AppendQuoted appends the double-quoted literal for b to dst.
func AppendQuoted(dst, b []byte) []byte {
	dst = append(dst, '"')
	for _, c := range b {
		switch c {
		case '\\':
			dst = append(dst, '\\', '\\')
		case '"':
			dst = append(dst, '\\', '"')
		case '\'':
			dst = append(dst, '\\', '\'')
		case '\n':
			dst = append(dst, '\\', 'n')
		case '\r':
			dst = append(dst, '\\', 'r')
		case '\t':
			dst = append(dst, '\\', 't')
		default:
			if c < 0x20 || c >= 0x7f {
				dst = append(dst, '\\', '0'+c>>6, '0'+(c>>3)&7, '0'+c&7)
				continue
			}
			dst = append(dst, c)
		}
	}
	return append(dst, '"')
}

// Unquote decodes a literal delimited by single or double quotes. The
// closing quote must match the opening one and end the input.
func Unquote(lit []byte) ([]byte, error) {
	if len(lit) < 2 {
		return nil, ErrUnterminated
	}
	q := lit[0]
	if q != '"' && q != '\'' {
		return nil, fmt.Errorf("escape: literal must start with a quote, got %q", q)
	}
	if lit[len(lit)-1] != q {
		return nil, ErrUnterminated
	}
	return AppendUnescaped(make([]byte, 0, len(lit)-2), lit[1:len(lit)-1], q)
}

// AppendUnescaped decodes the body of a literal (without its quotes) onto
// dst. An unescaped quote byte equal to q inside body is rejected.
func AppendUnescaped(dst, body []byte, q byte) ([]byte, error) {
	for i := 0; i < len(body); i++ {
		c := body[i]
		if c == q {
			return nil, ErrUnterminated
		}
		if c != '\\' {
			dst = append(dst, c)
			continue
		}
		start := i
		i++
		if i >= len(body) {
			return nil, &SyntaxError{Offset: start, Seq: "\\"}
		}
		switch e := body[i]; e {
		case '\\', '"', '\'', '?':
			dst = append(dst, e)
		case 'n':
			dst = append(dst, '\n')
		case 'r':
			dst = append(dst, '\r')
		case 't':
			dst = append(dst, '\t')
		case 'a':
			dst = append(dst, 0x07)
		case 'b':
			dst = append(dst, 0x08)
		case 'f':
			dst = append(dst, 0x0c)
		case 'v':
			dst = append(dst, 0x0b)
		case 'x', 'X':
			v, n := 0, 0
			for n < 2 && i+1 < len(body) && isHex(body[i+1]) {
				i++
				v = v<<4 | hexVal(body[i])
				n++
			}
			if n == 0 {
				return nil, &SyntaxError{Offset: start, Seq: string(body[start : i+1])}
			}
			dst = append(dst, byte(v))
		case '0', '1', '2', '3', '4', '5', '6', '7':
			v := int(e - '0')
			for n := 1; n < 3 && i+1 < len(body) && isOctal(body[i+1]); n++ {
				i++
				v = v<<3 | int(body[i]-'0')
			}
			if v > 0xff {
				return nil, &SyntaxError{Offset: start, Seq: string(body[start : i+1])}
			}
			dst = append(dst, byte(v))
		default:
			return nil, &SyntaxError{Offset: start, Seq: string(body[start : i+1])}
		}
	}
	return dst, nil
}

func isOctal(c byte) bool { return c >= '0' && c <= '7' }

func isHex(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func hexVal(c byte) int {
	switch {
	case c >= '0' && c <= '9':
		return int(c - '0')
	case c >= 'a' && c <= 'f':
		return int(c-'a') + 10
	default:
		return int(c-'A') + 10
	}
}
