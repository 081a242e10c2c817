// Package lexer turns text format input into engine tokens.
//
// The scanner is a byte-oriented state machine reading through a
// bufio.Reader, so file and network streams are consumed incrementally.
package lexer

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	eng "github.com/reoring/pbtext/internal/engine"
	"github.com/reoring/pbtext/internal/escape"
)

// Error is a lexical error carrying the offending raw text.
type Error struct {
	Line int
	Text string
	Msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d: %s '%s'", e.Line, e.Msg, e.Text)
}

type state int

const (
	stateWhitespace state = iota
	stateBareword
	stateNumber
	stateQuoted
	stateEscape
	stateStructural
	stateEnd
)

// Lexer scans tokens from a reader.
type Lexer struct {
	r     *bufio.Reader
	state state
	line  int
	off   int64
	quote byte
	buf   bytes.Buffer
	err   error
}

// New creates a lexer over r.
func New(r io.Reader) *Lexer {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}
	return &Lexer{r: br, line: 1}
}

// NewString creates a lexer over an in-memory string.
func NewString(s string) *Lexer { return New(strings.NewReader(s)) }

// Location reports the number of bytes consumed.
func (l *Lexer) Location() int64 { return l.off }

// Line reports the current line number (1-based).
func (l *Lexer) Line() int { return l.line }

func (l *Lexer) read() (byte, bool) {
	c, err := l.r.ReadByte()
	if err != nil {
		if !errors.Is(err, io.EOF) {
			l.err = err
		}
		return 0, false
	}
	l.off++
	if c == '\n' {
		l.line++
	}
	return c, true
}

func (l *Lexer) unread(c byte) {
	_ = l.r.UnreadByte()
	l.off--
	if c == '\n' {
		l.line--
	}
}

func (l *Lexer) fail(line int, text, msg string) (eng.Token, error) {
	l.state = stateEnd
	return eng.Token{}, &Error{Line: line, Text: text, Msg: msg}
}

// NextToken returns the next token. After the end of input every call
// returns a KindEnd token.
func (l *Lexer) NextToken() (eng.Token, error) {
	l.buf.Reset()
	start := l.line
	for {
		switch l.state {
		case stateEnd:
			return eng.Token{Kind: eng.KindEnd, Line: l.line}, nil

		case stateWhitespace:
			c, ok := l.read()
			if !ok {
				if l.err != nil {
					l.state = stateEnd
					return eng.Token{}, l.err
				}
				l.state = stateEnd
				continue
			}
			start = l.line
			switch {
			case c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f' || c == '\v':
			case c == '#':
				l.skipComment()
			case isIdentStart(c):
				l.buf.WriteByte(c)
				l.state = stateBareword
			case isDigit(c) || c == '-' || c == '+' || c == '.':
				l.buf.WriteByte(c)
				l.state = stateNumber
			case c == '"' || c == '\'':
				l.buf.WriteByte(c)
				l.quote = c
				l.state = stateQuoted
			case c == '{' || c == '}' || c == ':':
				l.buf.WriteByte(c)
				l.state = stateStructural
			default:
				return l.fail(start, string(c), "unexpected character")
			}

		case stateBareword:
			c, ok := l.read()
			if ok && isIdentPart(c) {
				l.buf.WriteByte(c)
				continue
			}
			if ok {
				l.unread(c)
			}
			l.state = stateWhitespace
			return eng.Token{Kind: eng.KindBareword, Text: l.buf.String(), Line: start}, nil

		case stateNumber:
			c, ok := l.read()
			if ok && (isIdentPart(c) || c == '.' || c == '-' || c == '+') {
				l.buf.WriteByte(c)
				continue
			}
			if ok {
				l.unread(c)
			}
			l.state = stateWhitespace
			raw := l.buf.String()
			if !validNumber(raw) {
				return l.fail(start, raw, "malformed number")
			}
			return eng.Token{Kind: eng.KindNumber, Text: raw, Line: start}, nil

		case stateQuoted:
			c, ok := l.read()
			if !ok || c == '\n' {
				return l.fail(start, l.buf.String(), "unterminated string")
			}
			l.buf.WriteByte(c)
			switch c {
			case '\\':
				l.state = stateEscape
			case l.quote:
				l.state = stateWhitespace
				raw := l.buf.Bytes()
				decoded, err := escape.Unquote(raw)
				if err != nil {
					return l.fail(start, string(raw), "invalid string literal")
				}
				return eng.Token{Kind: eng.KindQuoted, Text: string(raw), Bytes: decoded, Line: start}, nil
			}

		case stateEscape:
			c, ok := l.read()
			if !ok || c == '\n' {
				return l.fail(start, l.buf.String(), "unterminated string")
			}
			l.buf.WriteByte(c)
			l.state = stateQuoted

		case stateStructural:
			l.state = stateWhitespace
			switch c := l.buf.Bytes()[0]; c {
			case '{':
				return eng.Token{Kind: eng.KindLBrace, Text: "{", Line: start}, nil
			case '}':
				return eng.Token{Kind: eng.KindRBrace, Text: "}", Line: start}, nil
			default:
				return eng.Token{Kind: eng.KindColon, Text: ":", Line: start}, nil
			}
		}
	}
}

func (l *Lexer) skipComment() {
	for {
		c, ok := l.read()
		if !ok || c == '\n' {
			return
		}
	}
}

func isIdentStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isIdentPart(c byte) bool { return isIdentStart(c) || isDigit(c) }

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// validNumber accepts [+-]? (digits [. digits?] | . digits) ([eE] [+-]? digits)?
// and the signed special values inf, infinity and nan.
func validNumber(s string) bool {
	i := 0
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		i++
	}
	switch strings.ToLower(s[i:]) {
	case "inf", "infinity", "nan":
		return i > 0
	}
	digits := 0
	for i < len(s) && isDigit(s[i]) {
		i++
		digits++
	}
	if i < len(s) && s[i] == '.' {
		i++
		for i < len(s) && isDigit(s[i]) {
			i++
			digits++
		}
	}
	if digits == 0 {
		return false
	}
	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++
		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}
		exp := 0
		for i < len(s) && isDigit(s[i]) {
			i++
			exp++
		}
		if exp == 0 {
			return false
		}
	}
	return i == len(s)
}
