package pbtext_test

import (
	"errors"
	"testing"

	"github.com/reoring/pbtext"
)

func TestDynamic_SetGet(t *testing.T) {
	f := newFixtures()
	lc := newLeakCheck(-1)
	m, err := pbtext.NewDynamic(f.phoneNumber, lc)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	number, typ := field(f.phoneNumber, "number"), field(f.phoneNumber, "type")

	if m.Has(typ) {
		t.Fatalf("type must start unset")
	}
	if got := m.Get(typ).Enum(); got != 1 {
		t.Fatalf("default enum: got %d want 1", got)
	}
	if !m.Presence(typ).Has(pbtext.PresenceDefaultApplied) {
		t.Fatalf("presence must report the applied default")
	}

	buf := []byte("555")
	if err := m.Set(number, pbtext.ValueOfBytes(buf)); !errors.Is(err, pbtext.ErrKindMismatch) {
		t.Fatalf("bytes into string field: got %v", err)
	}
	if err := m.Set(number, pbtext.ValueOfString(string(buf))); err != nil {
		t.Fatalf("set: %v", err)
	}
	buf[0] = 'x'
	if got := m.Get(number).String(); got != "555" {
		t.Fatalf("payload must be copied, got %q", got)
	}
	if err := m.Set(number, pbtext.ValueOfString("666")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if got := m.Get(number).String(); got != "666" {
		t.Fatalf("last write wins: got %q", got)
	}
	if !m.Presence(number).Has(pbtext.PresenceDuplicate) {
		t.Fatalf("second assignment must set the duplicate flag")
	}
	if len(lc.live) != 2 {
		t.Fatalf("live blocks: got %d want 2 (header and payload)", len(lc.live))
	}

	m.Clear(number)
	if m.Has(number) || m.Get(number).String() != "" {
		t.Fatalf("clear must unset the field")
	}
	m.Release()
	m.Release()
	if len(lc.live) != 0 {
		t.Fatalf("leaked %d blocks", len(lc.live))
	}
}

func TestDynamic_Repeated(t *testing.T) {
	f := newFixtures()
	lc := newLeakCheck(-1)
	m, _ := pbtext.NewDynamic(f.scalars, lc)
	db := field(f.scalars, "db")
	for i := 0; i < 9; i++ {
		if err := m.Append(db, pbtext.ValueOfDouble(float64(i))); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}
	if m.Len(db) != 9 || !m.Has(db) {
		t.Fatalf("len: got %d", m.Len(db))
	}
	for i := 0; i < 9; i++ {
		if got := m.Index(db, i).Float64(); got != float64(i) {
			t.Fatalf("index %d: got %v", i, got)
		}
	}
	// header plus the list block: capacities 4, 8 and 16 were acquired in turn
	if len(lc.live) != 2 || lc.calls != 4 {
		t.Fatalf("live=%d calls=%d", len(lc.live), lc.calls)
	}
	if err := m.Set(db, pbtext.ValueOfDouble(1)); !errors.Is(err, pbtext.ErrFieldMismatch) {
		t.Fatalf("Set on repeated: got %v", err)
	}
	if err := m.Append(field(f.scalars, "b"), pbtext.ValueOfBool(true)); !errors.Is(err, pbtext.ErrFieldMismatch) {
		t.Fatalf("Append on optional: got %v", err)
	}
	if err := m.Append(db, pbtext.ValueOfFloat(1)); !errors.Is(err, pbtext.ErrKindMismatch) {
		t.Fatalf("float into double list: got %v", err)
	}
	m.Release()
	if len(lc.live) != 0 {
		t.Fatalf("leaked %d blocks", len(lc.live))
	}
}

func TestDynamic_ChildOwnership(t *testing.T) {
	f := newFixtures()
	lc := newLeakCheck(-1)
	book, _ := pbtext.NewDynamic(f.book, lc)
	person := field(f.book, "person")

	child, err := book.NewChild(person)
	if err != nil {
		t.Fatalf("child: %v", err)
	}
	if child.Descriptor() != f.person {
		t.Fatalf("child descriptor: got %s", child.Descriptor().Name)
	}
	if err := child.Set(field(f.person, "name"), pbtext.ValueOfString("Ada")); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := book.Append(person, pbtext.ValueOfMessage(child)); err != nil {
		t.Fatalf("append: %v", err)
	}
	orphan, _ := book.NewChild(person)
	orphan.Release()

	if _, err := book.NewChild(field(f.book, "person")); err != nil {
		t.Fatalf("child: %v", err)
	}
	book.Release()
	// the last child was never attached, so one header stays live
	if len(lc.live) != 1 {
		t.Fatalf("live blocks: got %d want 1", len(lc.live))
	}
}

func TestDynamic_ForeignField(t *testing.T) {
	f := newFixtures()
	book, _ := pbtext.NewDynamic(f.book, nil)
	defer book.Release()
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic for a field of another message")
		}
	}()
	book.Has(field(f.person, "name"))
}

func TestDynamic_NewChildOfScalar(t *testing.T) {
	f := newFixtures()
	m, _ := pbtext.NewDynamic(f.person, nil)
	defer m.Release()
	if _, err := m.NewChild(field(f.person, "id")); !errors.Is(err, pbtext.ErrFieldMismatch) {
		t.Fatalf("got %v", err)
	}
}

func TestNewDynamic_OutOfMemory(t *testing.T) {
	f := newFixtures()
	if _, err := pbtext.NewDynamic(f.book, newLeakCheck(0)); !errors.Is(err, pbtext.ErrOutOfMemory) {
		t.Fatalf("got %v", err)
	}
}

func TestEqual(t *testing.T) {
	f := newFixtures()
	parse := func(text string) *pbtext.Dynamic {
		t.Helper()
		m, res := pbtext.ParseFromText(f.book, text, nil)
		if len(res.Issues) > 0 {
			t.Fatalf("parse %q: %s", text, res.ErrorText())
		}
		t.Cleanup(m.Release)
		return m
	}
	a := parse(`person { name: "a" id: 1 phone { number: "1" } }`)
	cases := []struct {
		text string
		want bool
	}{
		{`person { id: 1 name: "a" phone { number: "1" } }`, true},
		{`person { name: "a" id: 1 phone { number: "1" type: HOME } }`, false},
		{`person { name: "a" id: 1 phone { number: "2" } }`, false},
		{`person { name: "a" id: 1 }`, false},
		{`person { name: "a" id: 1 phone { number: "1" } } person {}`, false},
	}
	for _, c := range cases {
		if got := pbtext.Equal(a, parse(c.text)); got != c.want {
			t.Fatalf("Equal(%q): got %v want %v", c.text, got, c.want)
		}
	}
	if pbtext.Equal(a, nil) || !pbtext.Equal(nil, nil) {
		t.Fatalf("nil handling")
	}
}

func TestCollectPresence(t *testing.T) {
	f := newFixtures()
	m, res := pbtext.ParseFromText(f.book, `person { name: "a" name: "b" phone { number: "1" } }`, nil)
	if len(res.Issues) > 0 {
		t.Fatalf("parse: %s", res.ErrorText())
	}
	defer m.Release()
	pm := pbtext.CollectPresence(m)

	want := map[string]pbtext.Presence{
		"/":                        pbtext.PresenceSeen,
		"/person/0":                pbtext.PresenceSeen,
		"/person/0/name":           pbtext.PresenceSeen | pbtext.PresenceDuplicate,
		"/person/0/phone/0":        pbtext.PresenceSeen,
		"/person/0/phone/0/number": pbtext.PresenceSeen,
	}
	if len(pm) != len(want) {
		t.Fatalf("got %v want %v", pm, want)
	}
	for path, flags := range want {
		if pm[path] != flags {
			t.Fatalf("%s: got %b want %b", path, pm[path], flags)
		}
	}
	if _, ok := pm["/person/0/id"]; ok {
		t.Fatalf("unset required field must not be recorded")
	}
}

func TestPathRef(t *testing.T) {
	p := pbtext.RootPath()
	if p.Pointer() != "/" {
		t.Fatalf("root: %q", p.Pointer())
	}
	q := p.Field("person").Index(2).Field("phone")
	r := q.Index(0)
	if q.Pointer() != "/person/2/phone" || r.Pointer() != "/person/2/phone/0" {
		t.Fatalf("got %q and %q", q.Pointer(), r.Pointer())
	}
	it := r.Issue(3, pbtext.CodeUnknownField, "boom")
	if it.Path != "/person/2/phone/0" || it.String() != "Line 3: boom" {
		t.Fatalf("issue: %+v", it)
	}
}
