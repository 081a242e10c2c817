// Package schema loads message and enum descriptors from YAML or JSON
// schema files.
//
// A schema file lists enums and messages; fields refer to other messages
// and enums by name, in any order, so recursive and forward references
// are allowed:
//
//	enums:
//	  - name: PhoneType
//	    values: [{name: MOBILE, number: 0}, {name: HOME, number: 1}]
//	messages:
//	  - name: Person
//	    fields:
//	      - {name: name, kind: string, label: required}
//	      - {name: phone, kind: message, label: repeated, type: PhoneNumber}
//
// Field numbers default to the 1-based declaration position.
package schema

import (
	"errors"
	"fmt"
	"sort"

	"github.com/reoring/pbtext"
)

// ErrUnknownMessage reports a lookup of a message name the set does not hold.
var ErrUnknownMessage = errors.New("schema: unknown message")

// ErrUnknownEnum reports a lookup of an enum name the set does not hold.
var ErrUnknownEnum = errors.New("schema: unknown enum")

// File is the decoded form of a schema file.
type File struct {
	Enums    []Enum    `yaml:"enums" json:"enums"`
	Messages []Message `yaml:"messages" json:"messages"`
}

type Enum struct {
	Name   string      `yaml:"name" json:"name"`
	Values []EnumValue `yaml:"values" json:"values"`
}

type EnumValue struct {
	Name   string `yaml:"name" json:"name"`
	Number int32  `yaml:"number" json:"number"`
}

type Message struct {
	Name   string  `yaml:"name" json:"name"`
	Fields []Field `yaml:"fields" json:"fields"`
}

// Field declares one field. Type names the message or enum for kinds
// message and enum. Default is written in text format syntax without
// quotes; strings are taken verbatim.
type Field struct {
	Name    string `yaml:"name" json:"name"`
	Number  int32  `yaml:"number,omitempty" json:"number,omitempty"`
	Kind    string `yaml:"kind" json:"kind"`
	Label   string `yaml:"label" json:"label"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	Default any    `yaml:"default,omitempty" json:"default,omitempty"`
}

// Set is a resolved collection of descriptors. It is read-only once built
// and safe for concurrent use.
type Set struct {
	messages map[string]*pbtext.MessageDescriptor
	enums    map[string]*pbtext.EnumDescriptor
}

// Message returns the descriptor registered under name.
func (s *Set) Message(name string) (*pbtext.MessageDescriptor, error) {
	if md, ok := s.messages[name]; ok {
		return md, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMessage, name)
}

// Enum returns the enum descriptor registered under name.
func (s *Set) Enum(name string) (*pbtext.EnumDescriptor, error) {
	if ed, ok := s.enums[name]; ok {
		return ed, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEnum, name)
}

// Names lists the message names in lexical order.
func (s *Set) Names() []string {
	names := make([]string, 0, len(s.messages))
	for n := range s.messages {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Build resolves f into descriptors. Names are resolved in a second pass
// after every message exists; each message is then validated.
func Build(f File) (*Set, error) {
	s := &Set{
		messages: make(map[string]*pbtext.MessageDescriptor, len(f.Messages)),
		enums:    make(map[string]*pbtext.EnumDescriptor, len(f.Enums)),
	}
	for _, e := range f.Enums {
		if _, dup := s.enums[e.Name]; dup {
			return nil, fmt.Errorf("schema: enum %q declared twice", e.Name)
		}
		values := make([]pbtext.EnumValue, len(e.Values))
		for i, v := range e.Values {
			values[i] = pbtext.EnumValue{Name: v.Name, Number: v.Number}
		}
		s.enums[e.Name] = pbtext.NewEnumDescriptor(e.Name, values...)
	}

	for _, m := range f.Messages {
		if _, dup := s.messages[m.Name]; dup {
			return nil, fmt.Errorf("schema: message %q declared twice", m.Name)
		}
		fields := make([]*pbtext.FieldDescriptor, len(m.Fields))
		for i, fd := range m.Fields {
			kind, ok := pbtext.KindFromString(fd.Kind)
			if !ok {
				return nil, fmt.Errorf("schema: %s.%s: unknown kind %q", m.Name, fd.Name, fd.Kind)
			}
			label := pbtext.LabelOptional
			if fd.Label != "" {
				if label, ok = pbtext.LabelFromString(fd.Label); !ok {
					return nil, fmt.Errorf("schema: %s.%s: unknown label %q", m.Name, fd.Name, fd.Label)
				}
			}
			fields[i] = &pbtext.FieldDescriptor{Name: fd.Name, Number: fd.Number, Kind: kind, Label: label}
		}
		s.messages[m.Name] = pbtext.NewMessageDescriptor(m.Name, fields...)
	}

	// second pass: references and defaults
	for _, m := range f.Messages {
		md := s.messages[m.Name]
		for i, def := range m.Fields {
			if err := s.resolve(md.Fields[i], def); err != nil {
				return nil, fmt.Errorf("schema: %s.%s: %w", m.Name, def.Name, err)
			}
		}
	}
	for _, m := range f.Messages {
		if err := s.messages[m.Name].Validate(); err != nil {
			return nil, fmt.Errorf("schema: %w", err)
		}
	}
	return s, nil
}

func (s *Set) resolve(fd *pbtext.FieldDescriptor, def Field) error {
	switch fd.Kind {
	case pbtext.KindMessage:
		md, err := s.Message(def.Type)
		if err != nil {
			return err
		}
		fd.Message = md
	case pbtext.KindEnum:
		ed, err := s.Enum(def.Type)
		if err != nil {
			return err
		}
		fd.Enum = ed
	default:
		if def.Type != "" {
			return fmt.Errorf("type %q given for %s field", def.Type, fd.Kind)
		}
	}
	if def.Default == nil {
		return nil
	}
	if fd.Label != pbtext.LabelOptional || fd.Kind == pbtext.KindMessage {
		return fmt.Errorf("default allowed only on optional scalar fields")
	}
	v, err := pbtext.ScalarFromString(fd, fmt.Sprint(def.Default))
	if err != nil {
		return err
	}
	fd.Default, fd.HasDefault = v, true
	return nil
}
