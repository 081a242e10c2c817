package bridge

import (
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"

	"github.com/reoring/pbtext"
)

// MarshalJSON renders m as a JSON object keyed by field name. Bytes are
// base64, enums symbolic. A non-empty indent pretty-prints.
func MarshalJSON(m pbtext.Message, indent string) ([]byte, error) {
	tree := ToMap(m, KeyName)
	if indent != "" {
		return json.MarshalIndent(tree, "", indent)
	}
	return json.Marshal(tree)
}

// UnmarshalJSON builds a message of md from a JSON object in the form
// MarshalJSON writes. Integers are decoded without passing through float64.
func UnmarshalJSON(md *pbtext.MessageDescriptor, data []byte, a pbtext.Allocator) (*pbtext.Dynamic, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var tree map[string]any
	if err := dec.Decode(&tree); err != nil {
		return nil, fmt.Errorf("bridge: json: %w", err)
	}
	return FromMap(md, tree, a, KeyName)
}
