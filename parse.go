package pbtext

import (
	"bytes"
	"context"
	"io"
	"strings"

	eng "github.com/reoring/pbtext/internal/engine"
	"github.com/reoring/pbtext/internal/lexer"
)

// ParseFrom is the primary entry point. It reads text from src and builds a
// message of type md whose storage comes from a (nil selects HeapAllocator).
//
// Lexical and syntax errors, exceeded limits, read errors and allocation
// failures release everything acquired and return a nil message. Semantic
// problems such as an unknown field or enum value are recorded, the offending
// value is skipped and parsing continues; the partial message is returned
// with Result.Complete false. A message without issues but with unset
// required fields is returned with Complete false and Result.Missing set.
//
// The caller owns the returned message and releases it with Release.
func ParseFrom(ctx context.Context, md *MessageDescriptor, src Source, a Allocator, opts ...ParseOpt) (*Dynamic, Result) {
	o := firstParseOpt(opts)
	log := loggerOr(o.Logger)
	log.Debug().Str("source", src.Name()).Str("message", md.Name).Msg("parse start")

	var ts eng.TokenSource = lexer.New(src.Reader())
	if ctx != nil && ctx.Done() != nil {
		ts = ctxSource{ctx: ctx, TokenSource: ts}
	}
	ts = eng.WrapWithEnforcement(ts, eng.EnforceOptions{MaxDepth: o.MaxDepth, MaxBytes: o.MaxBytes})

	m, res := newParser(ts, a, o).run(md)
	log.Debug().Str("source", src.Name()).Bool("complete", res.Complete).
		Int("issues", len(res.Issues)).Bool("out_of_memory", res.OutOfMemory).Msg("parse done")
	return m, res
}

// ParseFromText parses an in-memory string.
func ParseFromText(md *MessageDescriptor, text string, a Allocator, opts ...ParseOpt) (*Dynamic, Result) {
	return ParseFrom(context.Background(), md, readerSource{r: strings.NewReader(text), name: "<string>"}, a, opts...)
}

// ParseFromBytes parses an in-memory byte slice.
func ParseFromBytes(md *MessageDescriptor, b []byte, a Allocator, opts ...ParseOpt) (*Dynamic, Result) {
	return ParseFrom(context.Background(), md, readerSource{r: bytes.NewReader(b), name: "<bytes>"}, a, opts...)
}

// ParseFromStream parses text read incrementally from r. Cancelling ctx
// aborts the parse at the next token.
func ParseFromStream(ctx context.Context, md *MessageDescriptor, r io.Reader, a Allocator, opts ...ParseOpt) (*Dynamic, Result) {
	return ParseFrom(ctx, md, TextReader(r, ""), a, opts...)
}

// ctxSource stops token production once its context is done.
type ctxSource struct {
	ctx context.Context
	eng.TokenSource
}

func (s ctxSource) NextToken() (eng.Token, error) {
	if err := s.ctx.Err(); err != nil {
		return eng.Token{}, err
	}
	return s.TokenSource.NextToken()
}
