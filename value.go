package pbtext

import "math"

// Value is a closed tagged variant holding one field value. The zero Value
// is invalid.
type Value struct {
	kind Kind
	bits uint64
	buf  []byte
	msg  Message
}

func ValueOfInt32(v int32) Value     { return Value{kind: KindInt32, bits: uint64(int64(v))} }
func ValueOfSint32(v int32) Value    { return Value{kind: KindSint32, bits: uint64(int64(v))} }
func ValueOfSfixed32(v int32) Value  { return Value{kind: KindSfixed32, bits: uint64(int64(v))} }
func ValueOfUint32(v uint32) Value   { return Value{kind: KindUint32, bits: uint64(v)} }
func ValueOfFixed32(v uint32) Value  { return Value{kind: KindFixed32, bits: uint64(v)} }
func ValueOfInt64(v int64) Value     { return Value{kind: KindInt64, bits: uint64(v)} }
func ValueOfSint64(v int64) Value    { return Value{kind: KindSint64, bits: uint64(v)} }
func ValueOfSfixed64(v int64) Value  { return Value{kind: KindSfixed64, bits: uint64(v)} }
func ValueOfUint64(v uint64) Value   { return Value{kind: KindUint64, bits: v} }
func ValueOfFixed64(v uint64) Value  { return Value{kind: KindFixed64, bits: v} }
func ValueOfFloat(v float32) Value   { return Value{kind: KindFloat, bits: uint64(math.Float32bits(v))} }
func ValueOfDouble(v float64) Value  { return Value{kind: KindDouble, bits: math.Float64bits(v)} }
func ValueOfEnum(v int32) Value      { return Value{kind: KindEnum, bits: uint64(int64(v))} }
func ValueOfString(v string) Value   { return Value{kind: KindString, buf: []byte(v)} }
func ValueOfBytes(v []byte) Value    { return Value{kind: KindBytes, buf: v} }
func ValueOfMessage(m Message) Value { return Value{kind: KindMessage, msg: m} }

func ValueOfBool(v bool) Value {
	if v {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

// ValueOfSigned builds a value of any signed integer kind (including enum).
func ValueOfSigned(k Kind, v int64) Value { return Value{kind: k, bits: uint64(v)} }

// ValueOfUnsigned builds a value of any unsigned integer kind.
func ValueOfUnsigned(k Kind, v uint64) Value { return Value{kind: k, bits: v} }

// Kind returns the kind tag; zero for the invalid Value.
func (v Value) Kind() Kind { return v.kind }

// IsValid reports whether v carries a value.
func (v Value) IsValid() bool { return v.kind != 0 }

// Int returns any signed integer kind widened to int64.
func (v Value) Int() int64 { return int64(v.bits) }

// Uint returns any unsigned integer kind widened to uint64.
func (v Value) Uint() uint64 { return v.bits }

func (v Value) Int32() int32     { return int32(int64(v.bits)) }
func (v Value) Uint32() uint32   { return uint32(v.bits) }
func (v Value) Int64() int64     { return int64(v.bits) }
func (v Value) Uint64() uint64   { return v.bits }
func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.bits)) }
func (v Value) Float64() float64 { return math.Float64frombits(v.bits) }
func (v Value) Bool() bool       { return v.bits != 0 }
func (v Value) Enum() int32      { return int32(int64(v.bits)) }

// String returns the string payload; for other kinds it is empty.
func (v Value) String() string { return string(v.buf) }

// Bytes returns the string/bytes payload without copying.
func (v Value) Bytes() []byte { return v.buf }

// Message returns the nested message, nil when unset.
func (v Value) Message() Message { return v.msg }

// Equal compares two scalar values of the same kind. Messages compare by
// identity.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindString, KindBytes:
		return string(v.buf) == string(o.buf)
	case KindMessage:
		return v.msg == o.msg
	default:
		return v.bits == o.bits
	}
}

// elemSize is the accounting size of one repeated element of kind k.
func elemSize(k Kind) int {
	switch {
	case k.IsSigned32() || k.IsUnsigned32() || k == KindFloat || k == KindEnum:
		return 4
	case k == KindBool:
		return 1
	case k == KindString || k == KindBytes:
		return 16
	default:
		return 8
	}
}
