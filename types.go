package pbtext

import (
	"github.com/rs/zerolog"

	"github.com/reoring/pbtext/i18n"
)

// Kind is the scalar kind tag of a field.
type Kind uint8

const (
	KindInt32 Kind = iota + 1
	KindUint32
	KindSint32
	KindFixed32
	KindSfixed32
	KindInt64
	KindUint64
	KindSint64
	KindFixed64
	KindSfixed64
	KindFloat
	KindDouble
	KindBool
	KindEnum
	KindString
	KindBytes
	KindMessage
)

var kindNames = [...]string{
	KindInt32:    "int32",
	KindUint32:   "uint32",
	KindSint32:   "sint32",
	KindFixed32:  "fixed32",
	KindSfixed32: "sfixed32",
	KindInt64:    "int64",
	KindUint64:   "uint64",
	KindSint64:   "sint64",
	KindFixed64:  "fixed64",
	KindSfixed64: "sfixed64",
	KindFloat:    "float",
	KindDouble:   "double",
	KindBool:     "bool",
	KindEnum:     "enum",
	KindString:   "string",
	KindBytes:    "bytes",
	KindMessage:  "message",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) && kindNames[k] != "" {
		return kindNames[k]
	}
	return "invalid"
}

// KindFromString resolves a kind by its schema name.
func KindFromString(s string) (Kind, bool) {
	for k, name := range kindNames {
		if name != "" && name == s {
			return Kind(k), true
		}
	}
	return 0, false
}

// IsSigned32 reports kinds stored as a signed 32-bit integer.
func (k Kind) IsSigned32() bool { return k == KindInt32 || k == KindSint32 || k == KindSfixed32 }

// IsUnsigned32 reports kinds stored as an unsigned 32-bit integer.
func (k Kind) IsUnsigned32() bool { return k == KindUint32 || k == KindFixed32 }

// IsSigned64 reports kinds stored as a signed 64-bit integer.
func (k Kind) IsSigned64() bool { return k == KindInt64 || k == KindSint64 || k == KindSfixed64 }

// IsUnsigned64 reports kinds stored as an unsigned 64-bit integer.
func (k Kind) IsUnsigned64() bool { return k == KindUint64 || k == KindFixed64 }

// IsScalar reports every kind except message.
func (k Kind) IsScalar() bool { return k >= KindInt32 && k < KindMessage }

// Label is the cardinality of a field.
type Label uint8

const (
	LabelRequired Label = iota + 1
	LabelOptional
	LabelRepeated
)

func (l Label) String() string {
	switch l {
	case LabelRequired:
		return "required"
	case LabelOptional:
		return "optional"
	case LabelRepeated:
		return "repeated"
	default:
		return "invalid"
	}
}

// LabelFromString resolves a label by its schema name.
func LabelFromString(s string) (Label, bool) {
	switch s {
	case "required":
		return LabelRequired, true
	case "optional":
		return LabelOptional, true
	case "repeated":
		return LabelRepeated, true
	}
	return 0, false
}

// Severity expresses the severity level for issues.
type Severity int

const (
	Ignore Severity = iota
	Warn
	Error
)

// Strictness configures enforcement for permissive input.
type Strictness struct {
	// OnDuplicateField controls reporting of a non-repeated field assigned
	// more than once. The last assignment always wins.
	OnDuplicateField Severity
}

// DefaultMaxDepth bounds message nesting when ParseOpt.MaxDepth is zero.
const DefaultMaxDepth = 100

// ParseOpt bundles parsing options.
type ParseOpt struct {
	Strictness Strictness
	// MaxDepth bounds '{' nesting; 0 selects DefaultMaxDepth, negative disables.
	MaxDepth int
	// MaxBytes bounds consumed input; 0 disables.
	MaxBytes int64
	// FailFast stops at the first issue and discards the partial tree.
	FailFast bool
	Logger   *zerolog.Logger
	// Translator renders issue messages; nil uses i18n.Current.
	Translator i18n.Translator
}

// EncodeOpt bundles encoding options.
type EncodeOpt struct {
	// Indent is the number of spaces per nesting level; 0 selects 2.
	Indent int
	Logger *zerolog.Logger
}

func firstParseOpt(opts []ParseOpt) ParseOpt {
	var o ParseOpt
	if len(opts) > 0 {
		o = opts[0]
	}
	switch {
	case o.MaxDepth == 0:
		o.MaxDepth = DefaultMaxDepth
	case o.MaxDepth < 0:
		o.MaxDepth = 0
	}
	return o
}

func firstEncodeOpt(opts []EncodeOpt) EncodeOpt {
	var o EncodeOpt
	if len(opts) > 0 {
		o = opts[0]
	}
	if o.Indent <= 0 {
		o.Indent = 2
	}
	return o
}

var nopLogger = zerolog.Nop()

func loggerOr(l *zerolog.Logger) *zerolog.Logger {
	if l == nil {
		return &nopLogger
	}
	return l
}
