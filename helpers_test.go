package pbtext_test

import (
	"fmt"

	"github.com/reoring/pbtext"
)

type fixtures struct {
	phoneType   *pbtext.EnumDescriptor
	phoneNumber *pbtext.MessageDescriptor
	person      *pbtext.MessageDescriptor
	book        *pbtext.MessageDescriptor
	recurse     *pbtext.MessageDescriptor
	tricky      *pbtext.MessageDescriptor
	scalars     *pbtext.MessageDescriptor
}

func newFixtures() fixtures {
	var f fixtures
	f.phoneType = pbtext.NewEnumDescriptor("PhoneType",
		pbtext.EnumValue{Name: "MOBILE", Number: 0},
		pbtext.EnumValue{Name: "HOME", Number: 1},
		pbtext.EnumValue{Name: "WORK", Number: 2},
	)
	f.phoneNumber = pbtext.NewMessageDescriptor("PhoneNumber",
		&pbtext.FieldDescriptor{Name: "number", Kind: pbtext.KindString, Label: pbtext.LabelRequired},
		&pbtext.FieldDescriptor{Name: "type", Kind: pbtext.KindEnum, Label: pbtext.LabelOptional, Enum: f.phoneType,
			Default: pbtext.ValueOfEnum(1), HasDefault: true},
	)
	f.person = pbtext.NewMessageDescriptor("Person",
		&pbtext.FieldDescriptor{Name: "name", Kind: pbtext.KindString, Label: pbtext.LabelRequired},
		&pbtext.FieldDescriptor{Name: "id", Kind: pbtext.KindInt32, Label: pbtext.LabelRequired},
		&pbtext.FieldDescriptor{Name: "email", Kind: pbtext.KindString, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "phone", Kind: pbtext.KindMessage, Label: pbtext.LabelRepeated, Message: f.phoneNumber},
	)
	f.book = pbtext.NewMessageDescriptor("AddressBook",
		&pbtext.FieldDescriptor{Name: "person", Kind: pbtext.KindMessage, Label: pbtext.LabelRepeated, Message: f.person},
	)
	m := &pbtext.FieldDescriptor{Name: "m", Kind: pbtext.KindMessage, Label: pbtext.LabelOptional}
	f.recurse = pbtext.NewMessageDescriptor("Recurse",
		&pbtext.FieldDescriptor{Name: "id", Kind: pbtext.KindInt32, Label: pbtext.LabelRequired},
		m,
	)
	m.Message = f.recurse
	f.tricky = pbtext.NewMessageDescriptor("Tricky",
		&pbtext.FieldDescriptor{Name: "id", Kind: pbtext.KindInt32, Label: pbtext.LabelRequired},
		&pbtext.FieldDescriptor{Name: "truer", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "falser", Kind: pbtext.KindBytes, Label: pbtext.LabelOptional},
	)
	f.scalars = pbtext.NewMessageDescriptor("Scalars",
		&pbtext.FieldDescriptor{Name: "i32", Kind: pbtext.KindInt32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "u32", Kind: pbtext.KindUint32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "s32", Kind: pbtext.KindSint32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "f32", Kind: pbtext.KindFixed32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "sf32", Kind: pbtext.KindSfixed32, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "i64", Kind: pbtext.KindInt64, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "u64", Kind: pbtext.KindUint64, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "s64", Kind: pbtext.KindSint64, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "f64", Kind: pbtext.KindFixed64, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "sf64", Kind: pbtext.KindSfixed64, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "fl", Kind: pbtext.KindFloat, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "db", Kind: pbtext.KindDouble, Label: pbtext.LabelRepeated},
		&pbtext.FieldDescriptor{Name: "b", Kind: pbtext.KindBool, Label: pbtext.LabelOptional},
		&pbtext.FieldDescriptor{Name: "e", Kind: pbtext.KindEnum, Label: pbtext.LabelOptional, Enum: f.phoneType},
		&pbtext.FieldDescriptor{Name: "s", Kind: pbtext.KindString, Label: pbtext.LabelOptional,
			Default: pbtext.ValueOfString("dflt"), HasDefault: true},
		&pbtext.FieldDescriptor{Name: "by", Kind: pbtext.KindBytes, Label: pbtext.LabelRepeated},
	)
	return f
}

func field(md *pbtext.MessageDescriptor, name string) *pbtext.FieldDescriptor {
	fd := md.FieldByName(name)
	if fd == nil {
		panic(fmt.Sprintf("no field %s in %s", name, md.Name))
	}
	return fd
}

// leakCheck is an allocator that refuses requests after a budget of calls
// and tracks live blocks.
type leakCheck struct {
	after int // -1 never fails
	calls int
	live  map[*byte]int
}

func newLeakCheck(after int) *leakCheck { return &leakCheck{after: after, live: map[*byte]int{}} }

func (l *leakCheck) Acquire(n int) ([]byte, error) {
	l.calls++
	if l.after >= 0 && l.calls > l.after {
		return nil, fmt.Errorf("refused request %d", l.calls)
	}
	b := make([]byte, n)
	l.live[&b[0]] = n
	return b, nil
}

func (l *leakCheck) Release(b []byte) {
	if _, ok := l.live[&b[0]]; !ok {
		panic("release of a block that is not live")
	}
	delete(l.live, &b[0])
}
