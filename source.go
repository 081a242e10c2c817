package pbtext

import (
	"bytes"
	"io"
	"strings"
)

// Source abstracts over polymorphic text inputs.
type Source interface {
	Reader() io.Reader
	// Name identifies the input in logs, for example a file name.
	Name() string
}

type readerSource struct {
	r    io.Reader
	name string
}

func (s readerSource) Reader() io.Reader { return s.r }
func (s readerSource) Name() string      { return s.name }

// TextString wraps a string as a Source.
func TextString(s string) Source { return readerSource{r: strings.NewReader(s), name: "<string>"} }

// TextBytes wraps a byte slice as a Source.
func TextBytes(b []byte) Source { return readerSource{r: bytes.NewReader(b), name: "<bytes>"} }

// TextReader wraps an io.Reader as a Source; name is used in logs.
func TextReader(r io.Reader, name string) Source {
	if name == "" {
		name = "<stream>"
	}
	return readerSource{r: r, name: name}
}
