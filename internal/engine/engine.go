package engine

// Kind represents token kinds produced by a text format source.
type Kind int

const (
	KindEnd Kind = iota
	KindNumber
	KindBareword
	KindQuoted
	KindLBrace
	KindRBrace
	KindColon
)

func (k Kind) String() string {
	switch k {
	case KindEnd:
		return "end of input"
	case KindNumber:
		return "number"
	case KindBareword:
		return "name"
	case KindQuoted:
		return "quoted string"
	case KindLBrace:
		return "'{'"
	case KindRBrace:
		return "'}'"
	case KindColon:
		return "':'"
	default:
		return "unknown token"
	}
}

// Token is a single lexical item. Text holds the raw source text; for
// quoted strings Bytes holds the escape-decoded payload. A token is only
// valid until the next call to NextToken.
type Token struct {
	Kind  Kind
	Text  string
	Bytes []byte
	Line  int
}

// Describe renders the token for diagnostics.
func (t Token) Describe() string {
	switch t.Kind {
	case KindNumber, KindBareword, KindQuoted:
		return t.Kind.String() + " '" + t.Text + "'"
	default:
		return t.Kind.String()
	}
}

// TokenSource is the minimal interface the parser consumes.
type TokenSource interface {
	NextToken() (Token, error)
	// Location returns the number of bytes consumed so far, -1 if unknown.
	Location() int64
}
