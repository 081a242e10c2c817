// Package jsonschema exports message descriptors as JSON Schema documents
// describing the JSON form written by bridge.MarshalJSON.
package jsonschema

import (
	"encoding/base64"

	json "github.com/goccy/go-json"

	"github.com/reoring/pbtext"
)

// Draft is the JSON Schema dialect of exported documents.
const Draft = "https://json-schema.org/draft/2020-12/schema"

// Schema is a minimal JSON Schema representation used for export.
// Keep this struct small and extend incrementally.
type Schema struct {
	// Core
	Draft   string             `json:"$schema,omitempty"`
	Ref     string             `json:"$ref,omitempty"`
	Defs    map[string]*Schema `json:"$defs,omitempty"`
	Title   string             `json:"title,omitempty"`
	Type    string             `json:"type,omitempty"`
	Format  string             `json:"format,omitempty"`
	Default any                `json:"default,omitempty"`
	Enum    []string           `json:"enum,omitempty"`

	// Number
	Minimum *int64 `json:"minimum,omitempty"`
	Maximum *int64 `json:"maximum,omitempty"`

	// String
	ContentEncoding string `json:"contentEncoding,omitempty"`

	// Object
	Properties           map[string]*Schema `json:"properties,omitempty"`
	Required             []string           `json:"required,omitempty"`
	AdditionalProperties any                `json:"additionalProperties,omitempty"`

	// Array
	Items *Schema `json:"items,omitempty"`
}

// Generate returns a document whose root refers to md. Every reachable
// message is placed under $defs by name, so recursive messages are
// expressed with $ref.
func Generate(md *pbtext.MessageDescriptor) *Schema {
	root := &Schema{Draft: Draft, Ref: ref(md), Defs: map[string]*Schema{}}
	define(md, root.Defs)
	return root
}

// Marshal renders Generate(md) as indented JSON.
func Marshal(md *pbtext.MessageDescriptor, indent string) ([]byte, error) {
	if indent == "" {
		return json.Marshal(Generate(md))
	}
	return json.MarshalIndent(Generate(md), "", indent)
}

func ref(md *pbtext.MessageDescriptor) string { return "#/$defs/" + md.Name }

func define(md *pbtext.MessageDescriptor, defs map[string]*Schema) {
	if _, ok := defs[md.Name]; ok {
		return
	}
	s := &Schema{
		Title:                md.Name,
		Type:                 "object",
		Properties:           make(map[string]*Schema, len(md.Fields)),
		AdditionalProperties: false,
	}
	defs[md.Name] = s
	for _, fd := range md.Fields {
		prop := field(fd)
		if fd.IsRepeated() {
			prop = &Schema{Type: "array", Items: prop}
		}
		if fd.Label == pbtext.LabelRequired {
			s.Required = append(s.Required, fd.Name)
		}
		if fd.HasDefault {
			prop.Default = defaultOf(fd)
		}
		s.Properties[fd.Name] = prop
		if fd.Kind == pbtext.KindMessage {
			define(fd.Message, defs)
		}
	}
}

func bound(v int64) *int64 { return &v }

func field(fd *pbtext.FieldDescriptor) *Schema {
	switch k := fd.Kind; {
	case k.IsSigned32():
		return &Schema{Type: "integer", Minimum: bound(-1 << 31), Maximum: bound(1<<31 - 1)}
	case k.IsUnsigned32():
		return &Schema{Type: "integer", Minimum: bound(0), Maximum: bound(1<<32 - 1)}
	case k.IsSigned64():
		return &Schema{Type: "integer"}
	case k.IsUnsigned64():
		return &Schema{Type: "integer", Minimum: bound(0)}
	case k == pbtext.KindFloat || k == pbtext.KindDouble:
		return &Schema{Type: "number"}
	case k == pbtext.KindBool:
		return &Schema{Type: "boolean"}
	case k == pbtext.KindEnum:
		names := make([]string, 0, len(fd.Enum.Values))
		for _, v := range fd.Enum.Values {
			names = append(names, v.Name)
		}
		return &Schema{Type: "string", Enum: names}
	case k == pbtext.KindString:
		return &Schema{Type: "string"}
	case k == pbtext.KindBytes:
		return &Schema{Type: "string", ContentEncoding: "base64"}
	case k == pbtext.KindMessage:
		return &Schema{Ref: ref(fd.Message)}
	}
	return &Schema{}
}

func defaultOf(fd *pbtext.FieldDescriptor) any {
	v := fd.Default
	switch k := fd.Kind; {
	case k.IsSigned32() || k.IsSigned64():
		return v.Int()
	case k.IsUnsigned32() || k.IsUnsigned64():
		return v.Uint()
	case k == pbtext.KindFloat:
		return v.Float32()
	case k == pbtext.KindDouble:
		return v.Float64()
	case k == pbtext.KindBool:
		return v.Bool()
	case k == pbtext.KindEnum:
		return fd.Enum.NameOf(v.Enum())
	case k == pbtext.KindString:
		return v.String()
	case k == pbtext.KindBytes:
		return base64.StdEncoding.EncodeToString(v.Bytes())
	}
	return nil
}
