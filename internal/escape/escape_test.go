package escape

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"
)

func TestQuote_Inverse_AllBytes(t *testing.T) {
	all := make([]byte, 256)
	for i := range all {
		all[i] = byte(i)
	}
	lit := Quote(all)
	got, err := Unquote([]byte(lit))
	if err != nil {
		t.Fatalf("unquote: %v", err)
	}
	if !bytes.Equal(got, all) {
		t.Fatalf("round trip mismatch:\n got=%v\nwant=%v", got, all)
	}
	if len(lit) != QuotedLen(all) {
		t.Fatalf("QuotedLen=%d, literal length=%d", QuotedLen(all), len(lit))
	}
}

func TestQuote_Inverse_Random(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 200; i++ {
		b := make([]byte, r.Intn(64))
		r.Read(b)
		got, err := Unquote([]byte(Quote(b)))
		if err != nil {
			t.Fatalf("case %d: unquote: %v", i, err)
		}
		if !bytes.Equal(got, b) {
			t.Fatalf("case %d: got=%q want=%q", i, got, b)
		}
	}
}

func TestQuote_Forms(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", `""`},
		{"plain", `"plain"`},
		{"a\"b", `"a\"b"`},
		{"it's", `"it\'s"`},
		{"back\\slash", `"back\\slash"`},
		{"\t\n\r", `"\t\n\r"`},
		{"\x00", `"\000"`},
		{"\x7f\xff", `"\177\377"`},
	}
	for _, c := range cases {
		if got := Quote([]byte(c.in)); got != c.want {
			t.Fatalf("Quote(%q)=%s want %s", c.in, got, c.want)
		}
	}
}

func TestUnquote_Escapes(t *testing.T) {
	cases := []struct {
		lit  string
		want string
	}{
		{`'single'`, "single"},
		{`"\t"`, "\t"},
		{`'\''`, "'"},
		{`"\0"`, "\x00"},
		{`"\12x"`, "\nx"},
		{`"\1234"`, "S4"},
		{`"\x41\x4a"`, "AJ"},
		{`"\a\b\f\v\?"`, "\a\b\f\v?"},
	}
	for _, c := range cases {
		got, err := Unquote([]byte(c.lit))
		if err != nil {
			t.Fatalf("Unquote(%s): %v", c.lit, err)
		}
		if string(got) != c.want {
			t.Fatalf("Unquote(%s)=%q want %q", c.lit, got, c.want)
		}
	}
}

func TestUnquote_Errors(t *testing.T) {
	var se *SyntaxError
	if _, err := Unquote([]byte(`"\q"`)); !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError, got %v", err)
	}
	if _, err := Unquote([]byte(`"\777"`)); !errors.As(err, &se) {
		t.Fatalf("expected SyntaxError for octal overflow, got %v", err)
	}
	if _, err := Unquote([]byte(`"abc`)); !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated, got %v", err)
	}
	if _, err := Unquote([]byte(`"a"b"`)); !errors.Is(err, ErrUnterminated) {
		t.Fatalf("expected ErrUnterminated for embedded quote, got %v", err)
	}
}
