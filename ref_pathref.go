package pbtext

import (
	"strconv"
	"strings"
)

// PathRef builds JSON Pointer paths to fields in a chain-safe way and
// creates Issues located at them.
type PathRef interface {
	Field(name string) PathRef
	Index(i int) PathRef
	Pointer() string
	Issue(line int, code, msg string) Issue
}

// RootPath returns the path of a top-level message.
func RootPath() PathRef { return rootPath() }

func rootPath() *pathRef { return &pathRef{} }

type pathRef struct {
	parts []string
}

func (p *pathRef) Field(name string) PathRef {
	if name == "" {
		return p
	}
	// field names are identifiers, so no RFC6901 escaping is needed
	return &pathRef{parts: append(append([]string{}, p.parts...), name)}
}

func (p *pathRef) Index(i int) PathRef {
	return &pathRef{parts: append(append([]string{}, p.parts...), strconv.Itoa(i))}
}

func (p *pathRef) Pointer() string {
	if len(p.parts) == 0 {
		return "/"
	}
	return "/" + strings.Join(p.parts, "/")
}

func (p *pathRef) Issue(line int, code, msg string) Issue {
	return Issue{Line: line, Path: p.Pointer(), Code: code, Message: msg}
}
