package pbtext_test

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/reoring/pbtext"
)

func TestEncode_Layout(t *testing.T) {
	f := newFixtures()
	m, res := pbtext.ParseFromText(f.book, `person { name: "Ada" id: 1 phone { number: "1" type: WORK } }`, nil)
	if !res.OK() {
		t.Fatalf("parse: %q", res.ErrorText())
	}
	defer m.Release()

	got, err := pbtext.Encode(m, nil, pbtext.EncodeOpt{Indent: 4})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `person {
    name: "Ada"
    id: 1
    phone {
        number: "1"
        type: WORK
    }
}
`
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_Rules(t *testing.T) {
	f := newFixtures()
	person, err := pbtext.NewDynamic(f.person, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer person.Release()

	// required fields are emitted even when unset
	got, err := pbtext.Encode(person, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != "name: \"\"\nid: 0\n" {
		t.Fatalf("unset required: %q", got)
	}

	s, err := pbtext.NewDynamic(f.scalars, nil)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	defer s.Release()
	sf := field(f.scalars, "s")
	if err := s.Set(sf, pbtext.ValueOfString("dflt")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := pbtext.Encode(s, nil); got != "" {
		t.Fatalf("string equal to its default must be omitted, got %q", got)
	}
	if err := s.Set(field(f.scalars, "e"), pbtext.ValueOfEnum(42)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got, _ := pbtext.Encode(s, nil); got != "e: unknown\n" {
		t.Fatalf("unmapped enum: %q", got)
	}
}

func TestEncode_RequiredMessageUnset(t *testing.T) {
	inner := pbtext.NewMessageDescriptor("Inner",
		&pbtext.FieldDescriptor{Name: "x", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
	)
	outer := pbtext.NewMessageDescriptor("Outer",
		&pbtext.FieldDescriptor{Name: "in", Kind: pbtext.KindMessage, Label: pbtext.LabelRequired, Message: inner},
	)
	m, _ := pbtext.NewDynamic(outer, nil)
	defer m.Release()
	got, err := pbtext.Encode(m, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if got != "in {\n}\n" {
		t.Fatalf("got %q", got)
	}
}

func TestEncode_ScalarForms(t *testing.T) {
	f := newFixtures()
	m, _ := pbtext.NewDynamic(f.scalars, nil)
	defer m.Release()
	set := func(name string, v pbtext.Value) {
		t.Helper()
		if err := m.Set(field(f.scalars, name), v); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
	set("i32", pbtext.ValueOfInt32(-3))
	set("u64", pbtext.ValueOfUint64(math.MaxUint64))
	set("fl", pbtext.ValueOfFloat(0.1))
	set("b", pbtext.ValueOfBool(true))
	set("s", pbtext.ValueOfString("a\"b\\c\n\x01\xff"))
	db := field(f.scalars, "db")
	for _, d := range []float64{math.Inf(1), math.Inf(-1), math.NaN(), 1e300} {
		if err := m.Append(db, pbtext.ValueOfDouble(d)); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	got, err := pbtext.Encode(m, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	want := `i32: -3
u64: 18446744073709551615
fl: 0.1
db: inf
db: -inf
db: nan
db: 1e+300
b: true
s: "a\"b\\c\n\001\377"
`
	if got != want {
		t.Fatalf("got\n%s\nwant\n%s", got, want)
	}
}

func TestEncode_RoundTrip(t *testing.T) {
	f := newFixtures()
	text := `i32: -1 u32: 2 s32: -3 f32: 4 sf32: -5 i64: -6 u64: 7 s64: -8 f64: 9 sf64: -10
fl: 3.4028235e+38 db: 2.2250738585072014e-308 db: -0 b: true e: WORK s: "\000\t'\"" by: "\x7f\x80" by: ""`
	m, res := pbtext.ParseFromText(f.scalars, text, nil)
	if len(res.Issues) > 0 {
		t.Fatalf("parse: %q", res.ErrorText())
	}
	defer m.Release()
	out, err := pbtext.Encode(m, nil)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	back, res := pbtext.ParseFromText(f.scalars, out, nil)
	if len(res.Issues) > 0 {
		t.Fatalf("reparse %q: %q", out, res.ErrorText())
	}
	defer back.Release()
	if !pbtext.Equal(m, back) {
		t.Fatalf("round trip differs:\n%s", out)
	}
	again, _ := pbtext.Encode(back, nil)
	if again != out {
		t.Fatalf("encoding is not stable:\n%s\nvs\n%s", out, again)
	}
}

func TestEncode_OutOfMemory(t *testing.T) {
	f := newFixtures()
	m, res := pbtext.ParseFromText(f.book, `person { name: "`+strings.Repeat("x", 600)+`" id: 1 }`, nil)
	if !res.OK() {
		t.Fatalf("parse: %q", res.ErrorText())
	}
	defer m.Release()
	for after := 0; after < 3; after++ {
		lc := newLeakCheck(after)
		got, err := pbtext.Encode(m, lc)
		if after < lc.calls {
			if !errors.Is(err, pbtext.ErrOutOfMemory) || got != "" {
				t.Fatalf("after=%d: got %q, %v", after, got, err)
			}
		} else if err != nil {
			t.Fatalf("after=%d: %v", after, err)
		}
		if len(lc.live) != 0 {
			t.Fatalf("after=%d: leaked %d blocks", after, len(lc.live))
		}
	}
}

func TestEncode_Nil(t *testing.T) {
	if _, err := pbtext.Encode(nil, nil); err == nil {
		t.Fatalf("expected error")
	}
}
