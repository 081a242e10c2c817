package compress_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/reoring/pbtext"
	"github.com/reoring/pbtext/source/compress"
)

const text = "id: 42\nname: \"compressed\"\n"

func TestRoundTrip_AllCodecs(t *testing.T) {
	cases := []struct {
		name string
		want compress.Codec
	}{
		{"msg.txt", compress.None},
		{"msg.txt.gz", compress.Gzip},
		{"msg.txt.zst", compress.Zstd},
		{"msg.txt.lz4", compress.LZ4},
	}
	for _, tc := range cases {
		t.Run(tc.want.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := compress.NewWriter(&buf, tc.name)
			if err != nil {
				t.Fatalf("writer: %v", err)
			}
			if _, err := io.WriteString(w, text); err != nil {
				t.Fatalf("write: %v", err)
			}
			if err := w.Close(); err != nil {
				t.Fatalf("close: %v", err)
			}
			r, codec, err := compress.NewReader(&buf)
			if err != nil {
				t.Fatalf("reader: %v", err)
			}
			defer r.Close()
			if codec != tc.want {
				t.Fatalf("codec=%v want %v", codec, tc.want)
			}
			got, err := io.ReadAll(r)
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if string(got) != text {
				t.Fatalf("got %q want %q", got, text)
			}
		})
	}
}

func TestNewReader_ShortInput(t *testing.T) {
	r, codec, err := compress.NewReader(bytes.NewReader([]byte("a")))
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	if codec != compress.None {
		t.Fatalf("codec=%v", codec)
	}
	got, _ := io.ReadAll(r)
	if string(got) != "a" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFromCompressedStream(t *testing.T) {
	var buf bytes.Buffer
	w, _ := compress.NewWriter(&buf, "x.zst")
	io.WriteString(w, text)
	w.Close()

	md := pbtext.NewMessageDescriptor("Doc",
		&pbtext.FieldDescriptor{Name: "id", Kind: pbtext.KindInt32, Label: pbtext.LabelRequired},
		&pbtext.FieldDescriptor{Name: "name", Kind: pbtext.KindString, Label: pbtext.LabelOptional},
	)
	r, _, err := compress.NewReader(&buf)
	if err != nil {
		t.Fatalf("reader: %v", err)
	}
	defer r.Close()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	m, res := pbtext.ParseFrom(ctx, md, pbtext.TextReader(r, "x.zst"), nil)
	if !res.OK() {
		t.Fatalf("parse: %q", res.ErrorText())
	}
	defer m.Release()
	if got := m.Get(md.FieldByName("name")).String(); got != "compressed" {
		t.Fatalf("name=%q", got)
	}
}
