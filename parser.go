package pbtext

import (
	"errors"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/reoring/pbtext/i18n"
	eng "github.com/reoring/pbtext/internal/engine"
	"github.com/reoring/pbtext/internal/lexer"
)

type parseState int

const (
	stateStart parseState = iota
	stateBody
	stateExpectValue
	stateNested
	stateError
	stateDone
)

type frame struct {
	msg  Message
	path PathRef
	line int
}

// parser builds a message tree from tokens. Nested messages are attached to
// their parent as soon as they are allocated, so releasing the root always
// releases the whole partial tree.
type parser struct {
	src   eng.TokenSource
	alloc Allocator
	opt   ParseOpt
	tr    i18n.Translator
	log   *zerolog.Logger

	state      parseState
	root       *Dynamic
	stack      []frame
	field      *FieldDescriptor // resolved name awaiting its value, nil if unknown
	name       string
	nameLine   int
	incomplete bool
	res        Result
}

func newParser(src eng.TokenSource, a Allocator, opt ParseOpt) *parser {
	tr := opt.Translator
	if tr == nil {
		tr = i18n.Current()
	}
	return &parser{src: src, alloc: allocatorOr(a), opt: opt, tr: tr, log: loggerOr(opt.Logger)}
}

func (p *parser) run(md *MessageDescriptor) (*Dynamic, Result) {
	for {
		switch p.state {
		case stateStart:
			root, err := NewDynamic(md, p.alloc)
			if err != nil {
				p.outOfMemory(0, err)
				continue
			}
			p.root = root
			p.push(root, rootPath(), 1)
			p.state = stateBody
		case stateBody:
			p.body()
		case stateExpectValue:
			p.expectValue()
		case stateNested:
			p.nested()
		case stateError:
			p.abort()
			p.state = stateDone
		case stateDone:
			res := p.res
			res.Complete = p.root != nil && !p.incomplete && len(res.Issues) == 0
			return p.root, res
		}
	}
}

func (p *parser) top() *frame { return &p.stack[len(p.stack)-1] }

func (p *parser) push(m Message, path PathRef, line int) {
	p.stack = append(p.stack, frame{msg: m, path: path, line: line})
	p.log.Debug().Str("message", m.Descriptor().Name).Str("path", path.Pointer()).Int("depth", len(p.stack)).Msg("enter message")
}

// pop closes the innermost body and checks its required fields.
func (p *parser) pop() {
	f := p.stack[len(p.stack)-1]
	p.stack = p.stack[:len(p.stack)-1]
	for _, fd := range f.msg.Descriptor().Fields {
		if fd.Label == LabelRequired && !f.msg.Has(fd) {
			p.incomplete = true
			p.res.Missing = append(p.res.Missing, f.path.Field(fd.Name).Pointer())
		}
	}
	p.log.Debug().Str("message", f.msg.Descriptor().Name).Str("path", f.path.Pointer()).Int("opened_at", f.line).Msg("leave message")
}

func (p *parser) next() (eng.Token, bool) {
	tok, err := p.src.NextToken()
	if err != nil {
		p.fromError(err)
		return eng.Token{}, false
	}
	return tok, true
}

func (p *parser) body() {
	tok, ok := p.next()
	if !ok {
		return
	}
	switch tok.Kind {
	case eng.KindEnd:
		if len(p.stack) > 1 {
			p.syntax(tok, "'}'")
			return
		}
		p.pop()
		p.state = stateDone
	case eng.KindRBrace:
		if len(p.stack) == 1 {
			p.syntax(tok, "field name")
			return
		}
		p.pop()
	case eng.KindBareword:
		top := p.top()
		p.field = top.msg.Descriptor().FieldByName(tok.Text)
		p.name, p.nameLine = tok.Text, tok.Line
		p.state = stateExpectValue
		if p.field == nil {
			p.semantic(top.path.Field(tok.Text).Issue(tok.Line, CodeUnknownField, p.msg(CodeUnknownField,
				"field", tok.Text, "message", top.msg.Descriptor().Name)), tok.Text)
		}
	default:
		p.syntax(tok, "field name")
	}
}

func (p *parser) expectValue() {
	tok, ok := p.next()
	if !ok {
		return
	}
	if tok.Kind == eng.KindColon {
		if tok, ok = p.next(); !ok {
			return
		}
	}
	fd := p.field
	if fd == nil {
		p.skipValue(tok)
		return
	}
	path := p.top().path.Field(fd.Name)
	switch tok.Kind {
	case eng.KindLBrace:
		if fd.Kind != KindMessage {
			p.semantic(path.Issue(tok.Line, CodeTypeMismatch, p.msg(CodeTypeMismatch,
				"field", fd.Name, "kind", fd.Kind.String(), "got", tok.Describe())), tok.Text)
			if p.state != stateError {
				p.skipBlock()
			}
			return
		}
		p.nameLine = tok.Line
		p.state = stateNested
	case eng.KindNumber, eng.KindBareword, eng.KindQuoted:
		p.state = stateBody
		if fd.Kind == KindMessage {
			p.semantic(path.Issue(tok.Line, CodeTypeMismatch, p.msg(CodeTypeMismatch,
				"field", fd.Name, "kind", fd.Kind.String(), "got", tok.Describe())), tok.Text)
			return
		}
		v, code := coerce(fd, tok)
		if code != "" {
			p.semantic(path.Issue(tok.Line, code, p.valueMessage(code, fd, tok)), tok.Text)
			return
		}
		p.assign(fd, v, tok.Line)
	default:
		p.syntax(tok, "value for field '"+fd.Name+"'")
	}
}

func (p *parser) valueMessage(code string, fd *FieldDescriptor, tok eng.Token) string {
	switch code {
	case CodeUnknownEnum:
		return p.msg(code, "value", tok.Text, "enum", fd.Enum.Name, "field", fd.Name)
	case CodeInvalidValue:
		return p.msg(code, "kind", fd.Kind.String(), "value", tok.Text, "field", fd.Name)
	default:
		return p.msg(code, "field", fd.Name, "kind", fd.Kind.String(), "got", tok.Describe())
	}
}

func (p *parser) assign(fd *FieldDescriptor, v Value, line int) {
	top := p.top()
	var err error
	if fd.IsRepeated() {
		err = top.msg.Append(fd, v)
	} else {
		p.checkDuplicate(top, fd, line)
		err = top.msg.Set(fd, v)
	}
	if err != nil {
		p.outOfMemory(line, err)
	}
}

// nested allocates the child for a '{' value and enters its body.
func (p *parser) nested() {
	fd, top := p.field, p.top()
	child, err := top.msg.NewChild(fd)
	if err != nil {
		p.outOfMemory(p.nameLine, err)
		return
	}
	path := top.path.Field(fd.Name)
	if fd.IsRepeated() {
		err = top.msg.Append(fd, ValueOfMessage(child))
		path = path.Index(top.msg.Len(fd) - 1)
	} else {
		p.checkDuplicate(top, fd, p.nameLine)
		err = top.msg.Set(fd, ValueOfMessage(child))
	}
	if err != nil {
		child.Release()
		p.outOfMemory(p.nameLine, err)
		return
	}
	p.push(child, path, p.nameLine)
	if p.state == stateNested {
		p.state = stateBody
	}
}

func (p *parser) checkDuplicate(top *frame, fd *FieldDescriptor, line int) {
	if p.opt.Strictness.OnDuplicateField == Ignore || !top.msg.Has(fd) {
		return
	}
	it := top.path.Field(fd.Name).Issue(line, CodeDuplicateField, p.msg(CodeDuplicateField, "field", fd.Name))
	if p.opt.Strictness.OnDuplicateField == Warn {
		p.res.Warnings = append(p.res.Warnings, it)
		return
	}
	p.semantic(it, fd.Name)
}

// skipValue consumes the value of an unknown field.
func (p *parser) skipValue(tok eng.Token) {
	switch tok.Kind {
	case eng.KindLBrace:
		p.skipBlock()
	case eng.KindNumber, eng.KindBareword, eng.KindQuoted:
		if p.state == stateExpectValue {
			p.state = stateBody
		}
	default:
		p.syntax(tok, "value for field '"+p.name+"'")
	}
}

// skipBlock consumes tokens up to the '}' matching an already consumed '{'.
func (p *parser) skipBlock() {
	for depth := 1; depth > 0; {
		tok, ok := p.next()
		if !ok {
			return
		}
		switch tok.Kind {
		case eng.KindLBrace:
			depth++
		case eng.KindRBrace:
			depth--
		case eng.KindEnd:
			p.syntax(tok, "'}'")
			return
		}
	}
	if p.state == stateExpectValue {
		p.state = stateBody
	}
}

func (p *parser) msg(code string, kv ...string) string {
	data := make(map[string]string, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		data[kv[i]] = kv[i+1]
	}
	return p.tr.Message(code, data)
}

func (p *parser) addIssue(it Issue) {
	p.res.Issues = append(p.res.Issues, it)
	p.log.Debug().Str("code", it.Code).Int("line", it.Line).Str("path", it.Path).Msg(it.Message)
}

// semantic records an issue that does not stop sibling parsing unless
// FailFast is set.
func (p *parser) semantic(it Issue, text string) {
	it.Text = text
	p.addIssue(it)
	if p.opt.FailFast {
		p.state = stateError
	}
}

func (p *parser) syntax(tok eng.Token, expected string) {
	p.addIssue(Issue{
		Line:    tok.Line,
		Path:    p.top().path.Pointer(),
		Code:    CodeSyntax,
		Message: p.msg(CodeSyntax, "expected", expected, "got", tok.Describe()),
		Text:    tok.Text,
	})
	p.state = stateError
}

func (p *parser) outOfMemory(line int, err error) {
	p.res.OutOfMemory = true
	p.addIssue(Issue{Line: line, Code: CodeOutOfMemory, Message: p.msg(CodeOutOfMemory), Cause: err})
	p.state = stateError
}

func (p *parser) fromError(err error) {
	var le *lexer.Error
	var ie eng.IssueError
	switch {
	case errors.As(err, &le):
		p.addIssue(Issue{Line: le.Line, Code: CodeLexical, Text: le.Text, Cause: err,
			Message: p.msg(CodeLexical, "reason", le.Msg, "text", le.Text)})
	case errors.As(err, &ie):
		limit := strconv.Itoa(p.opt.MaxDepth)
		if ie.Code == CodeTruncated {
			limit = strconv.FormatInt(p.opt.MaxBytes, 10)
		}
		p.addIssue(Issue{Line: ie.Line, Code: ie.Code, Cause: err, Message: p.msg(ie.Code, "max", limit)})
	default:
		p.addIssue(Issue{Code: CodeIO, Cause: err, Message: p.msg(CodeIO, "reason", err.Error())})
	}
	p.state = stateError
}

// abort releases the partial tree after a fatal error.
func (p *parser) abort() {
	if p.root != nil {
		p.root.Release()
		p.root = nil
	}
	p.stack = nil
}
