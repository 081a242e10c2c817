package pbtext

import (
	"errors"
	"fmt"
)

var (
	// ErrOutOfMemory reports that the Allocator refused a request.
	ErrOutOfMemory = errors.New("pbtext: out of memory")
	// ErrFieldMismatch reports a field descriptor that does not belong to
	// the message, or an operation that does not fit its cardinality.
	ErrFieldMismatch = errors.New("pbtext: field does not match message")
	// ErrKindMismatch reports a value whose kind differs from the field's.
	ErrKindMismatch = errors.New("pbtext: value kind does not match field")
)

// Message is the field accessor contract the encoder and parser work
// against. Any message representation exposing it can be encoded; the
// parser builds *Dynamic instances.
type Message interface {
	Descriptor() *MessageDescriptor

	// Has reports presence of a non-repeated field; for repeated fields it
	// reports Len > 0.
	Has(fd *FieldDescriptor) bool
	// Get returns a non-repeated field value. Unset optional fields yield
	// their declared default (or the kind's zero value).
	Get(fd *FieldDescriptor) Value
	// Set assigns a non-repeated field; the last assignment wins. String and
	// bytes payloads are copied. On success the message owns a nested
	// message value; on error ownership stays with the caller.
	Set(fd *FieldDescriptor, v Value) error

	Len(fd *FieldDescriptor) int
	Index(fd *FieldDescriptor, i int) Value
	// Append adds one element to a repeated field with the same ownership
	// rules as Set.
	Append(fd *FieldDescriptor, v Value) error

	// NewChild allocates an empty message of fd's nested descriptor through
	// the message's allocator. The caller owns it until attached.
	NewChild(fd *FieldDescriptor) (Message, error)

	// Release hands every owned block back to the allocator, recursively.
	// The message must not be used afterwards.
	Release()
}

type slot struct {
	flags   Presence
	val     Value
	list    []Value
	listBlk []byte
}

// Dynamic is a descriptor-driven message whose storage is accounted
// through an Allocator.
type Dynamic struct {
	desc     *MessageDescriptor
	alloc    Allocator
	hdr      []byte
	slots    []slot
	released bool
}

var _ Message = (*Dynamic)(nil)

// NewDynamic allocates an empty message of md. A nil allocator selects
// HeapAllocator.
func NewDynamic(md *MessageDescriptor, a Allocator) (*Dynamic, error) {
	a = allocatorOr(a)
	hdr, err := a.Acquire(md.headerSize())
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrOutOfMemory, md.Name, err)
	}
	return &Dynamic{desc: md, alloc: a, hdr: hdr, slots: make([]slot, len(md.Fields))}, nil
}

func (d *Dynamic) Descriptor() *MessageDescriptor { return d.desc }

// Allocator returns the allocator backing d.
func (d *Dynamic) Allocator() Allocator { return d.alloc }

func (d *Dynamic) slot(fd *FieldDescriptor) *slot {
	if fd == nil || fd.index >= len(d.desc.Fields) || d.desc.Fields[fd.index] != fd {
		panic(fmt.Sprintf("pbtext: field %v is not part of message %s", fieldName(fd), d.desc.Name))
	}
	return &d.slots[fd.index]
}

func fieldName(fd *FieldDescriptor) string {
	if fd == nil {
		return "<nil>"
	}
	return fd.Name
}

func (d *Dynamic) Has(fd *FieldDescriptor) bool {
	s := d.slot(fd)
	if fd.IsRepeated() {
		return len(s.list) > 0
	}
	return s.flags.Has(PresenceSeen)
}

// Presence returns the presence flags of a non-repeated field.
func (d *Dynamic) Presence(fd *FieldDescriptor) Presence {
	s := d.slot(fd)
	if !s.flags.Has(PresenceSeen) && fd.HasDefault {
		return s.flags | PresenceDefaultApplied
	}
	return s.flags
}

func (d *Dynamic) Get(fd *FieldDescriptor) Value {
	s := d.slot(fd)
	if fd.IsRepeated() {
		return Value{}
	}
	if s.flags.Has(PresenceSeen) {
		return s.val
	}
	if fd.HasDefault {
		return fd.Default
	}
	return Value{kind: fd.Kind}
}

func (d *Dynamic) Set(fd *FieldDescriptor, v Value) error {
	s := d.slot(fd)
	if fd.IsRepeated() {
		return fmt.Errorf("%w: Set on repeated field %s", ErrFieldMismatch, fd.Name)
	}
	if v.kind != fd.Kind {
		return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, fd.Name, fd.Kind, v.kind)
	}
	owned, err := d.own(v)
	if err != nil {
		return err
	}
	if s.flags.Has(PresenceSeen) {
		if s.val.kind != KindMessage || s.val.msg != owned.msg {
			d.drop(s.val)
		}
		s.flags |= PresenceDuplicate
	}
	s.val = owned
	s.flags |= PresenceSeen
	return nil
}

// Clear unsets a field and releases what it owned.
func (d *Dynamic) Clear(fd *FieldDescriptor) {
	s := d.slot(fd)
	d.drop(s.val)
	for _, e := range s.list {
		d.drop(e)
	}
	if s.listBlk != nil {
		d.alloc.Release(s.listBlk)
	}
	*s = slot{}
}

func (d *Dynamic) Len(fd *FieldDescriptor) int { return len(d.slot(fd).list) }

func (d *Dynamic) Index(fd *FieldDescriptor, i int) Value { return d.slot(fd).list[i] }

func (d *Dynamic) Append(fd *FieldDescriptor, v Value) error {
	s := d.slot(fd)
	if !fd.IsRepeated() {
		return fmt.Errorf("%w: Append on non-repeated field %s", ErrFieldMismatch, fd.Name)
	}
	if v.kind != fd.Kind {
		return fmt.Errorf("%w: %s is %s, got %s", ErrKindMismatch, fd.Name, fd.Kind, v.kind)
	}
	es := elemSize(fd.Kind)
	if n := len(s.list); n == len(s.listBlk)/es {
		capacity := 4
		if n > 0 {
			capacity = 2 * n
		}
		blk, err := d.alloc.Acquire(capacity * es)
		if err != nil {
			return fmt.Errorf("%w: growing %s to %d: %v", ErrOutOfMemory, fd.Name, capacity, err)
		}
		if s.listBlk != nil {
			d.alloc.Release(s.listBlk)
		}
		s.listBlk = blk
		grown := make([]Value, n, capacity)
		copy(grown, s.list)
		s.list = grown
	}
	owned, err := d.own(v)
	if err != nil {
		return err
	}
	s.list = append(s.list, owned)
	return nil
}

func (d *Dynamic) NewChild(fd *FieldDescriptor) (Message, error) {
	d.slot(fd)
	if fd.Kind != KindMessage {
		return nil, fmt.Errorf("%w: %s is not a message field", ErrFieldMismatch, fd.Name)
	}
	child, err := NewDynamic(fd.Message, d.alloc)
	if err != nil {
		return nil, err
	}
	return child, nil
}

func (d *Dynamic) Release() {
	if d == nil || d.released {
		return
	}
	d.released = true
	for i := range d.slots {
		s := &d.slots[i]
		d.drop(s.val)
		for _, e := range s.list {
			d.drop(e)
		}
		if s.listBlk != nil {
			d.alloc.Release(s.listBlk)
		}
	}
	d.slots = nil
	d.alloc.Release(d.hdr)
	d.hdr = nil
}

// own copies string and bytes payloads into allocator memory.
func (d *Dynamic) own(v Value) (Value, error) {
	if v.kind != KindString && v.kind != KindBytes {
		return v, nil
	}
	if len(v.buf) == 0 {
		v.buf = nil
		return v, nil
	}
	blk, err := d.alloc.Acquire(len(v.buf))
	if err != nil {
		return Value{}, fmt.Errorf("%w: %d byte payload: %v", ErrOutOfMemory, len(v.buf), err)
	}
	copy(blk, v.buf)
	v.buf = blk
	return v, nil
}

func (d *Dynamic) drop(v Value) {
	switch v.kind {
	case KindString, KindBytes:
		if len(v.buf) > 0 {
			d.alloc.Release(v.buf)
		}
	case KindMessage:
		if v.msg != nil {
			v.msg.Release()
		}
	}
}

// Equal reports whether a and b hold the same field values, recursively.
// Presence is compared for non-repeated fields; unset fields are equal
// regardless of defaults.
func Equal(a, b Message) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Descriptor() != b.Descriptor() {
		return false
	}
	for _, fd := range a.Descriptor().Fields {
		if fd.IsRepeated() {
			n := a.Len(fd)
			if n != b.Len(fd) {
				return false
			}
			for i := 0; i < n; i++ {
				if !valueEqual(a.Index(fd, i), b.Index(fd, i)) {
					return false
				}
			}
			continue
		}
		if a.Has(fd) != b.Has(fd) {
			return false
		}
		if a.Has(fd) && !valueEqual(a.Get(fd), b.Get(fd)) {
			return false
		}
	}
	return true
}

func valueEqual(x, y Value) bool {
	if x.kind == KindMessage && y.kind == KindMessage {
		return Equal(x.msg, y.msg)
	}
	return x.Equal(y)
}
