package pbtext

import (
	"errors"
	"fmt"
)

// EnumValue is one symbolic name of an enum.
type EnumValue struct {
	Name   string
	Number int32
}

// EnumDescriptor maps enum numbers to symbolic names. It is immutable once
// built and may be shared freely.
type EnumDescriptor struct {
	Name   string
	Values []EnumValue

	byNumber map[int32]int
	byName   map[string]int
}

// NewEnumDescriptor builds an enum descriptor. When several names share a
// number the first one is used for formatting.
func NewEnumDescriptor(name string, values ...EnumValue) *EnumDescriptor {
	ed := &EnumDescriptor{
		Name:     name,
		Values:   values,
		byNumber: make(map[int32]int, len(values)),
		byName:   make(map[string]int, len(values)),
	}
	for i, v := range values {
		if _, ok := ed.byNumber[v.Number]; !ok {
			ed.byNumber[v.Number] = i
		}
		ed.byName[v.Name] = i
	}
	return ed
}

// ByNumber returns the value registered for n.
func (ed *EnumDescriptor) ByNumber(n int32) (EnumValue, bool) {
	i, ok := ed.byNumber[n]
	if !ok {
		return EnumValue{}, false
	}
	return ed.Values[i], true
}

// ByName returns the value registered under name (case-sensitive).
func (ed *EnumDescriptor) ByName(name string) (EnumValue, bool) {
	i, ok := ed.byName[name]
	if !ok {
		return EnumValue{}, false
	}
	return ed.Values[i], true
}

// NameOf formats n, falling back to "unknown" for unmapped numbers.
func (ed *EnumDescriptor) NameOf(n int32) string {
	if v, ok := ed.ByNumber(n); ok {
		return v.Name
	}
	return "unknown"
}

// FieldDescriptor describes one named, typed slot of a message.
type FieldDescriptor struct {
	Name   string
	Number int32
	Kind   Kind
	Label  Label

	// Message is set iff Kind is KindMessage.
	Message *MessageDescriptor
	// Enum is set iff Kind is KindEnum.
	Enum *EnumDescriptor

	// Default is meaningful iff HasDefault; only optional scalars carry one.
	Default    Value
	HasDefault bool

	index int
}

// Index returns the position of the field within its message.
func (fd *FieldDescriptor) Index() int { return fd.index }

// IsRepeated reports LabelRepeated.
func (fd *FieldDescriptor) IsRepeated() bool { return fd.Label == LabelRepeated }

// MessageDescriptor describes a message: an ordered field sequence plus a
// display name. It is immutable once built; Message and Enum references of
// its fields may be wired after construction to express recursion.
type MessageDescriptor struct {
	Name   string
	Fields []*FieldDescriptor

	byName map[string]*FieldDescriptor
}

// NewMessageDescriptor builds a descriptor; field numbers left at zero
// default to their 1-based declaration position.
func NewMessageDescriptor(name string, fields ...*FieldDescriptor) *MessageDescriptor {
	md := &MessageDescriptor{Name: name, Fields: fields, byName: make(map[string]*FieldDescriptor, len(fields))}
	for i, fd := range fields {
		fd.index = i
		if fd.Number == 0 {
			fd.Number = int32(i + 1)
		}
		md.byName[fd.Name] = fd
	}
	return md
}

// FieldByName resolves a field by its exact name, nil when absent.
func (md *MessageDescriptor) FieldByName(name string) *FieldDescriptor {
	return md.byName[name]
}

// FieldByNumber resolves a field by its number, nil when absent.
func (md *MessageDescriptor) FieldByNumber(n int32) *FieldDescriptor {
	for _, fd := range md.Fields {
		if fd.Number == n {
			return fd
		}
	}
	return nil
}

// headerSize is the allocator accounting size of one instance.
func (md *MessageDescriptor) headerSize() int { return 16 + 16*len(md.Fields) }

// Validate checks descriptor invariants recursively.
func (md *MessageDescriptor) Validate() error {
	return md.validate(map[*MessageDescriptor]bool{})
}

func (md *MessageDescriptor) validate(seen map[*MessageDescriptor]bool) error {
	if seen[md] {
		return nil
	}
	seen[md] = true
	var errs []error
	names := map[string]bool{}
	numbers := map[int32]bool{}
	for _, fd := range md.Fields {
		where := md.Name + "." + fd.Name
		if fd.Name == "" || !isIdentifier(fd.Name) {
			errs = append(errs, fmt.Errorf("%s: invalid field name", where))
		}
		if names[fd.Name] {
			errs = append(errs, fmt.Errorf("%s: duplicate field name", where))
		}
		names[fd.Name] = true
		if numbers[fd.Number] {
			errs = append(errs, fmt.Errorf("%s: duplicate field number %d", where, fd.Number))
		}
		numbers[fd.Number] = true
		if fd.Kind < KindInt32 || fd.Kind > KindMessage {
			errs = append(errs, fmt.Errorf("%s: invalid kind", where))
		}
		if fd.Label < LabelRequired || fd.Label > LabelRepeated {
			errs = append(errs, fmt.Errorf("%s: invalid label", where))
		}
		if (fd.Kind == KindMessage) != (fd.Message != nil) {
			errs = append(errs, fmt.Errorf("%s: message descriptor must be set iff kind is message", where))
		}
		if (fd.Kind == KindEnum) != (fd.Enum != nil) {
			errs = append(errs, fmt.Errorf("%s: enum descriptor must be set iff kind is enum", where))
		}
		if fd.HasDefault {
			if fd.Label != LabelOptional || !fd.Kind.IsScalar() {
				errs = append(errs, fmt.Errorf("%s: only optional scalars carry a default", where))
			} else if fd.Default.Kind() != fd.Kind {
				errs = append(errs, fmt.Errorf("%s: default has kind %s", where, fd.Default.Kind()))
			}
		}
		if fd.Message != nil {
			if err := fd.Message.validate(seen); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

func isIdentifier(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		letter := (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
		if !letter && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return s != ""
}
