package engine

// Enforcement wrapper for TokenSource applying max nesting depth and max
// consumed bytes checks in a streaming fashion.

// EnforceOptions controls runtime enforcement behavior.
type EnforceOptions struct {
	MaxDepth int
	MaxBytes int64
	// IssueSink is an optional callback receiving the issue before it is
	// returned as an error.
	IssueSink func(SimpleIssue)
}

// SimpleIssue is a minimal issue representation used by internal helpers.
type SimpleIssue struct {
	Code    string
	Line    int
	Message string
}

// IssueError is a lightweight error carrying a SimpleIssue.
type IssueError struct{ SimpleIssue }

func (e IssueError) Error() string { return e.SimpleIssue.Message }

// WrapWithEnforcement returns a TokenSource that enforces maximum nesting
// depth and maximum consumed bytes. Zero limits disable the check.
func WrapWithEnforcement(inner TokenSource, opt EnforceOptions) TokenSource {
	if opt.MaxDepth <= 0 && opt.MaxBytes <= 0 {
		return inner
	}
	return &enforcingTokenSource{inner: inner, opt: opt}
}

type enforcingTokenSource struct {
	inner TokenSource
	opt   EnforceOptions
	depth int
}

func (e *enforcingTokenSource) NextToken() (Token, error) {
	tok, err := e.inner.NextToken()
	if err != nil {
		return Token{}, err
	}

	switch tok.Kind {
	case KindLBrace:
		e.depth++
		if e.opt.MaxDepth > 0 && e.depth > e.opt.MaxDepth {
			return Token{}, e.fail(SimpleIssue{Code: "max_depth", Line: tok.Line, Message: "max depth exceeded"})
		}
	case KindRBrace:
		if e.depth > 0 {
			e.depth--
		}
	}

	if e.opt.MaxBytes > 0 {
		if off := e.Location(); off >= 0 && off > e.opt.MaxBytes {
			return Token{}, e.fail(SimpleIssue{Code: "truncated", Line: tok.Line, Message: "max bytes exceeded"})
		}
	}

	return tok, nil
}

func (e *enforcingTokenSource) fail(si SimpleIssue) error {
	if e.opt.IssueSink != nil {
		e.opt.IssueSink(si)
	}
	return IssueError{si}
}

func (e *enforcingTokenSource) Location() int64 { return e.inner.Location() }
