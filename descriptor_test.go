package pbtext_test

import (
	"strings"
	"testing"

	"github.com/reoring/pbtext"
)

func TestDescriptor_Lookup(t *testing.T) {
	f := newFixtures()
	if fd := f.person.FieldByNumber(3); fd == nil || fd.Name != "email" {
		t.Fatalf("FieldByNumber(3): got %v", fd)
	}
	if f.person.FieldByNumber(9) != nil || f.person.FieldByName("Email") != nil {
		t.Fatalf("lookups must be exact")
	}
	if fd := field(f.person, "phone"); fd.Index() != 3 || !fd.IsRepeated() {
		t.Fatalf("phone: index=%d repeated=%v", fd.Index(), fd.IsRepeated())
	}
	if err := f.book.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := f.recurse.Validate(); err != nil {
		t.Fatalf("self-referencing descriptor: %v", err)
	}
}

func TestEnumDescriptor(t *testing.T) {
	ed := pbtext.NewEnumDescriptor("E",
		pbtext.EnumValue{Name: "A", Number: 1},
		pbtext.EnumValue{Name: "ALIAS", Number: 1},
		pbtext.EnumValue{Name: "B", Number: -2},
	)
	if got := ed.NameOf(1); got != "A" {
		t.Fatalf("NameOf(1): got %q", got)
	}
	if got := ed.NameOf(7); got != "unknown" {
		t.Fatalf("NameOf(7): got %q", got)
	}
	if v, ok := ed.ByName("ALIAS"); !ok || v.Number != 1 {
		t.Fatalf("ByName: %v %v", v, ok)
	}
	if _, ok := ed.ByName("b"); ok {
		t.Fatalf("names are case-sensitive")
	}
	if v, ok := ed.ByNumber(-2); !ok || v.Name != "B" {
		t.Fatalf("ByNumber: %v %v", v, ok)
	}
}

func TestDescriptor_ValidateErrors(t *testing.T) {
	f := newFixtures()
	cases := []struct {
		name   string
		fields []*pbtext.FieldDescriptor
		want   string
	}{
		{"bad name", []*pbtext.FieldDescriptor{
			{Name: "1x", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
		}, "invalid field name"},
		{"duplicate name", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
			{Name: "a", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
		}, "duplicate field name"},
		{"duplicate number", []*pbtext.FieldDescriptor{
			{Name: "a", Number: 5, Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
			{Name: "b", Number: 5, Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
		}, "duplicate field number 5"},
		{"bad kind", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: 99, Label: pbtext.LabelOptional},
		}, "invalid kind"},
		{"bad label", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindInt32},
		}, "invalid label"},
		{"message without descriptor", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindMessage, Label: pbtext.LabelOptional},
		}, "message descriptor must be set"},
		{"enum without descriptor", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindEnum, Label: pbtext.LabelOptional},
		}, "enum descriptor must be set"},
		{"enum descriptor on scalar", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional, Enum: f.phoneType},
		}, "enum descriptor must be set"},
		{"default on required", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindInt32, Label: pbtext.LabelRequired, Default: pbtext.ValueOfInt32(1), HasDefault: true},
		}, "only optional scalars carry a default"},
		{"default of wrong kind", []*pbtext.FieldDescriptor{
			{Name: "a", Kind: pbtext.KindInt64, Label: pbtext.LabelOptional, Default: pbtext.ValueOfInt32(1), HasDefault: true},
		}, "default has kind int32"},
	}
	for _, c := range cases {
		err := pbtext.NewMessageDescriptor("M", c.fields...).Validate()
		if err == nil || !strings.Contains(err.Error(), c.want) {
			t.Fatalf("%s: got %v, want %q", c.name, err, c.want)
		}
	}

	nested := pbtext.NewMessageDescriptor("Outer", &pbtext.FieldDescriptor{
		Name: "in", Kind: pbtext.KindMessage, Label: pbtext.LabelOptional,
		Message: pbtext.NewMessageDescriptor("Inner", &pbtext.FieldDescriptor{Name: "", Kind: pbtext.KindBool, Label: pbtext.LabelOptional}),
	})
	if err := nested.Validate(); err == nil || !strings.Contains(err.Error(), "Inner.") {
		t.Fatalf("nested: got %v", err)
	}
}

func TestKindAndLabelNames(t *testing.T) {
	for k := pbtext.KindInt32; k <= pbtext.KindMessage; k++ {
		back, ok := pbtext.KindFromString(k.String())
		if !ok || back != k {
			t.Fatalf("kind %d: %q resolves to %d", k, k.String(), back)
		}
	}
	if _, ok := pbtext.KindFromString("int"); ok {
		t.Fatalf("unknown kind resolved")
	}
	if pbtext.Kind(0).String() != "invalid" {
		t.Fatalf("zero kind: %q", pbtext.Kind(0).String())
	}
	for _, l := range []pbtext.Label{pbtext.LabelRequired, pbtext.LabelOptional, pbtext.LabelRepeated} {
		back, ok := pbtext.LabelFromString(l.String())
		if !ok || back != l {
			t.Fatalf("label %v did not round trip", l)
		}
	}
}
