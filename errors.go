package pbtext

import (
	"errors"
	"fmt"
	"strings"
)

// Issue codes.
const (
	CodeLexical        = "lexical_error"
	CodeSyntax         = "syntax_error"
	CodeUnknownField   = "unknown_field"
	CodeUnknownEnum    = "unknown_enum"
	CodeInvalidValue   = "invalid_value"
	CodeTypeMismatch   = "type_mismatch"
	CodeDuplicateField = "duplicate_field"
	CodeMaxDepth       = "max_depth"
	CodeTruncated      = "truncated"
	CodeOutOfMemory    = "out_of_memory"
	CodeIO             = "io_error"
)

// Issue represents a single parse diagnostic.
type Issue struct {
	Line    int    // 1-based source line, 0 when unknown.
	Path    string // JSON Pointer of the enclosing field (for example /phone/1/number).
	Code    string // One of the codes listed above.
	Message string
	// Text is the offending raw input, when there is one.
	Text  string
	Cause error
}

// String renders the issue as one line of error text.
func (it Issue) String() string {
	if it.Line > 0 {
		return fmt.Sprintf("Line %d: %s", it.Line, it.Message)
	}
	return it.Message
}

// Semantic reports issues that do not stop parsing of sibling fields.
func (it Issue) Semantic() bool {
	switch it.Code {
	case CodeUnknownField, CodeUnknownEnum, CodeInvalidValue, CodeTypeMismatch, CodeDuplicateField:
		return true
	}
	return false
}

// Issues is a collection of parse errors that implements error.
type Issues []Issue

// Error summarizes the first few issues.
func (iss Issues) Error() string {
	if len(iss) == 0 {
		return ""
	}
	const maxShown = 3
	b := &strings.Builder{}
	n := len(iss)
	lim := n
	if lim > maxShown {
		lim = maxShown
	}
	for i := 0; i < lim; i++ {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(iss[i].String())
	}
	if n > lim {
		fmt.Fprintf(b, "; ... (total %d)", n)
	}
	return b.String()
}

// Text renders every issue, one per line, each terminated by a newline.
func (iss Issues) Text() string {
	if len(iss) == 0 {
		return ""
	}
	b := &strings.Builder{}
	for _, it := range iss {
		b.WriteString(it.String())
		b.WriteByte('\n')
	}
	return b.String()
}

// HasCode reports whether any issue carries code.
func (iss Issues) HasCode(code string) bool {
	for _, it := range iss {
		if it.Code == code {
			return true
		}
	}
	return false
}

// AsIssues extracts Issues from an error using errors.As internally.
func AsIssues(err error) (Issues, bool) {
	if err == nil {
		return nil, false
	}
	var iss Issues
	if errors.As(err, &iss) {
		return iss, true
	}
	return nil, false
}
