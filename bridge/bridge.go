// Package bridge converts messages to and from generic Go maps, JSON and a
// compact deterministic CBOR wire form.
//
// Maps are keyed either by field name or by decimal field number. Unset
// optional and required fields are omitted; repeated fields map to slices
// and nested messages to nested maps.
package bridge

import (
	"encoding/base64"
	"fmt"
	"math"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/reoring/pbtext"
)

// KeyMode selects how map keys identify fields.
type KeyMode int

const (
	// KeyName keys fields by name; enums become their symbolic names.
	KeyName KeyMode = iota
	// KeyNumber keys fields by decimal field number; enums stay numeric.
	KeyNumber
)

// ToMap flattens m into a map tree.
func ToMap(m pbtext.Message, keys KeyMode) map[string]any {
	out := make(map[string]any, len(m.Descriptor().Fields))
	for _, fd := range m.Descriptor().Fields {
		if !m.Has(fd) {
			continue
		}
		k := key(fd, keys)
		if fd.IsRepeated() {
			n := m.Len(fd)
			list := make([]any, n)
			for i := 0; i < n; i++ {
				list[i] = toAny(fd, m.Index(fd, i), keys)
			}
			out[k] = list
			continue
		}
		out[k] = toAny(fd, m.Get(fd), keys)
	}
	return out
}

func key(fd *pbtext.FieldDescriptor, keys KeyMode) string {
	if keys == KeyNumber {
		return strconv.FormatInt(int64(fd.Number), 10)
	}
	return fd.Name
}

func toAny(fd *pbtext.FieldDescriptor, v pbtext.Value, keys KeyMode) any {
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
		if keys == KeyName {
			return fd.Enum.NameOf(v.Enum())
		}
		return int64(v.Enum())
	case k == pbtext.KindString:
		return v.String()
	case k == pbtext.KindBytes:
		return append([]byte(nil), v.Bytes()...)
	case k == pbtext.KindMessage:
		if child := v.Message(); child != nil {
			return ToMap(child, keys)
		}
		return map[string]any{}
	}
	return nil
}

// FromMap builds a message of md from a map tree produced by ToMap, JSON
// or CBOR decoding. On error everything acquired from a is released.
func FromMap(md *pbtext.MessageDescriptor, src map[string]any, a pbtext.Allocator, keys KeyMode) (*pbtext.Dynamic, error) {
	m, err := pbtext.NewDynamic(md, a)
	if err != nil {
		return nil, err
	}
	if err := fill(m, src, keys); err != nil {
		m.Release()
		return nil, err
	}
	return m, nil
}

func fill(m pbtext.Message, src map[string]any, keys KeyMode) error {
	md := m.Descriptor()
	for k, raw := range src {
		fd := lookup(md, k, keys)
		if fd == nil {
			return fmt.Errorf("bridge: unknown field %q in message %s", k, md.Name)
		}
		if !fd.IsRepeated() {
			if err := set(m, fd, raw, keys, m.Set); err != nil {
				return err
			}
			continue
		}
		list, ok := raw.([]any)
		if !ok {
			return fmt.Errorf("bridge: %s.%s: want list, got %T", md.Name, fd.Name, raw)
		}
		for _, e := range list {
			if err := set(m, fd, e, keys, m.Append); err != nil {
				return err
			}
		}
	}
	return nil
}

func lookup(md *pbtext.MessageDescriptor, k string, keys KeyMode) *pbtext.FieldDescriptor {
	if keys == KeyName {
		return md.FieldByName(k)
	}
	n, err := strconv.ParseInt(k, 10, 32)
	if err != nil {
		return nil
	}
	return md.FieldByNumber(int32(n))
}

func set(m pbtext.Message, fd *pbtext.FieldDescriptor, raw any, keys KeyMode, store func(*pbtext.FieldDescriptor, pbtext.Value) error) error {
	if fd.Kind == pbtext.KindMessage {
		sub, ok := raw.(map[string]any)
		if !ok {
			return fmt.Errorf("bridge: %s: want object, got %T", fd.Name, raw)
		}
		child, err := m.NewChild(fd)
		if err != nil {
			return err
		}
		if err := store(fd, pbtext.ValueOfMessage(child)); err != nil {
			child.Release()
			return err
		}
		// attached before filling so a failure below is released with m
		return fill(child, sub, keys)
	}
	v, err := scalar(fd, raw)
	if err != nil {
		return err
	}
	return store(fd, v)
}

func scalar(fd *pbtext.FieldDescriptor, raw any) (pbtext.Value, error) {
	switch fd.Kind {
	case pbtext.KindString:
		if s, ok := raw.(string); ok {
			return pbtext.ValueOfString(s), nil
		}
	case pbtext.KindBytes:
		switch b := raw.(type) {
		case []byte:
			return pbtext.ValueOfBytes(b), nil
		case string:
			dec, err := base64.StdEncoding.DecodeString(b)
			if err != nil {
				return pbtext.Value{}, fmt.Errorf("bridge: %s: %w", fd.Name, err)
			}
			return pbtext.ValueOfBytes(dec), nil
		}
	case pbtext.KindBool:
		if b, ok := raw.(bool); ok {
			return pbtext.ValueOfBool(b), nil
		}
	case pbtext.KindEnum:
		if s, ok := raw.(string); ok {
			return pbtext.ScalarFromString(fd, s)
		}
		if text, ok := numberText(raw); ok {
			n, err := strconv.ParseInt(text, 10, 32)
			if err != nil {
				return pbtext.Value{}, fmt.Errorf("bridge: %s: enum number %s: %w", fd.Name, text, err)
			}
			return pbtext.ValueOfEnum(int32(n)), nil
		}
	default:
		if text, ok := numberText(raw); ok {
			return pbtext.ScalarFromString(fd, text)
		}
	}
	return pbtext.Value{}, fmt.Errorf("bridge: %s: %T does not fit kind %s", fd.Name, raw, fd.Kind)
}

// numberText renders numeric values in text format syntax.
func numberText(raw any) (string, bool) {
	switch n := raw.(type) {
	case int:
		return strconv.Itoa(n), true
	case int64:
		return strconv.FormatInt(n, 10), true
	case uint64:
		return strconv.FormatUint(n, 10), true
	case float32:
		return floatText(float64(n), 32), true
	case float64:
		return floatText(n, 64), true
	case json.Number:
		return n.String(), true
	}
	return "", false
}

func floatText(f float64, bits int) string {
	switch {
	case math.IsNaN(f):
		return "nan"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'g', -1, bits)
}
