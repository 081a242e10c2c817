package pbtext

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/reoring/pbtext/internal/escape"
)

// Encode renders m as text: fields in descriptor order, depth first, one
// line per scalar and one block per nested message. The output buffer is
// acquired from a (nil selects HeapAllocator); when the allocator refuses a
// request the partial buffer is released and ErrOutOfMemory is returned.
// m is never modified.
func Encode(m Message, a Allocator, opts ...EncodeOpt) (string, error) {
	if m == nil {
		return "", errors.New("pbtext: Encode of nil message")
	}
	o := firstEncodeOpt(opts)
	e := &encoder{out: outBuffer{a: allocatorOr(a)}, indent: o.Indent, log: loggerOr(o.Logger)}
	if err := e.message(m, 0); err != nil {
		e.out.free()
		e.log.Debug().Err(err).Str("message", m.Descriptor().Name).Msg("encode aborted")
		return "", err
	}
	s := string(e.out.bytes())
	e.out.free()
	return s, nil
}

type encoder struct {
	out     outBuffer
	indent  int
	log     *zerolog.Logger
	scratch [64]byte
}

func (e *encoder) message(m Message, depth int) error {
	for _, fd := range m.Descriptor().Fields {
		switch fd.Label {
		case LabelRepeated:
			n := m.Len(fd)
			for i := 0; i < n; i++ {
				if err := e.field(fd, m.Index(fd, i), depth); err != nil {
					return err
				}
			}
			continue
		case LabelOptional:
			if !m.Has(fd) {
				continue
			}
			if fd.Kind == KindString && fd.HasDefault && m.Get(fd).Equal(fd.Default) {
				continue
			}
		}
		if err := e.field(fd, m.Get(fd), depth); err != nil {
			return err
		}
	}
	return nil
}

func (e *encoder) field(fd *FieldDescriptor, v Value, depth int) error {
	if err := e.out.pad(depth * e.indent); err != nil {
		return err
	}
	if err := e.out.writeString(fd.Name); err != nil {
		return err
	}
	if fd.Kind == KindMessage {
		if err := e.out.writeString(" {\n"); err != nil {
			return err
		}
		if child := v.Message(); child != nil {
			if err := e.message(child, depth+1); err != nil {
				return err
			}
		}
		if err := e.out.pad(depth * e.indent); err != nil {
			return err
		}
		if err := e.out.writeString("}\n"); err != nil {
			return err
		}
		return nil
	}
	if err := e.out.writeString(": "); err != nil {
		return err
	}
	if err := e.scalar(fd, v); err != nil {
		return err
	}
	if err := e.out.writeByte('\n'); err != nil {
		return err
	}
	return nil
}

func (e *encoder) scalar(fd *FieldDescriptor, v Value) error {
	b := e.scratch[:0]
	switch k := fd.Kind; {
	case k.IsSigned32() || k.IsSigned64():
		b = strconv.AppendInt(b, v.Int(), 10)
	case k.IsUnsigned32() || k.IsUnsigned64():
		b = strconv.AppendUint(b, v.Uint(), 10)
	case k == KindFloat:
		b = appendFloat(b, float64(v.Float32()), 32)
	case k == KindDouble:
		b = appendFloat(b, v.Float64(), 64)
	case k == KindBool:
		b = strconv.AppendBool(b, v.Bool())
	case k == KindEnum:
		return e.out.writeString(fd.Enum.NameOf(v.Enum()))
	case k == KindString || k == KindBytes:
		payload := v.Bytes()
		if err := e.out.grow(escape.QuotedLen(payload)); err != nil {
			return err
		}
		dst := escape.AppendQuoted(e.out.blk[e.out.n:e.out.n], payload)
		e.out.n += len(dst)
		return nil
	default:
		return fmt.Errorf("pbtext: field %s has invalid kind %d", fd.Name, k)
	}
	return e.out.write(b)
}

// appendFloat writes the shortest decimal form that parses back to f.
func appendFloat(b []byte, f float64, bits int) []byte {
	switch {
	case math.IsNaN(f):
		return append(b, "nan"...)
	case math.IsInf(f, 1):
		return append(b, "inf"...)
	case math.IsInf(f, -1):
		return append(b, "-inf"...)
	}
	return strconv.AppendFloat(b, f, 'g', -1, bits)
}
