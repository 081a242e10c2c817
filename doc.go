// Package pbtext converts messages described by runtime descriptors to and
// from the protobuf text format.
//
// - Encode renders a message depth first in descriptor order
// - ParseFrom and its helpers build a *Dynamic from text, reporting Issues
//   (line, JSON Pointer, code, message) and required-field completeness
// - Every block of message and output memory comes from an Allocator, and
//   allocation failure releases everything acquired so far
//
// Design policy:
// - Keep only public APIs in the root package; put the lexer, escaper and
//   token enforcement under internal/.
// - Descriptor files live in schema/, JSON and CBOR bridges in bridge/, the
//   CLI in cmd/pbtext.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	set, err := schema.LoadFile("addressbook.yaml")
//	md, err := set.Message("AddressBook")
//	m, res := pbtext.ParseFromText(md, text, nil)
//	if !res.OK() { fmt.Print(res.ErrorText()) }
//	defer m.Release()
//	out, err := pbtext.Encode(m, nil)
package pbtext
