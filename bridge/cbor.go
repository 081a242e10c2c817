package bridge

import (
	"fmt"
	"strconv"

	"github.com/fxamacker/cbor/v2"

	"github.com/reoring/pbtext"
)

// encMode uses Core Deterministic Encoding (RFC 8949 section 4.2): the same
// message always packs to identical bytes.
var encMode cbor.EncMode

var decMode cbor.DecMode

func init() {
	var err error
	encMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic("bridge: CBOR encoder initialization failed: " + err.Error())
	}
	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("bridge: CBOR decoder initialization failed: " + err.Error())
	}
}

// Pack encodes m as CBOR maps keyed by field number with numeric enums.
func Pack(m pbtext.Message) ([]byte, error) {
	b, err := encMode.Marshal(numberKeyed(ToMap(m, KeyNumber)))
	if err != nil {
		return nil, fmt.Errorf("bridge: pack %s: %w", m.Descriptor().Name, err)
	}
	return b, nil
}

// Unpack decodes data written by Pack into a message of md allocated from a.
func Unpack(md *pbtext.MessageDescriptor, data []byte, a pbtext.Allocator) (*pbtext.Dynamic, error) {
	var raw any
	if err := decMode.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("bridge: unpack %s: %w", md.Name, err)
	}
	tree, ok := stringKeyed(raw).(map[string]any)
	if !ok {
		return nil, fmt.Errorf("bridge: unpack %s: top level is %T, not a map", md.Name, raw)
	}
	return FromMap(md, tree, a, KeyNumber)
}

// numberKeyed turns decimal string keys into integer keys so CBOR stores
// them as small unsigned integers.
func numberKeyed(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[uint64]any, len(t))
		for k, vv := range t {
			n, _ := strconv.ParseUint(k, 10, 32)
			out[n] = numberKeyed(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = numberKeyed(t[i])
		}
		return out
	default:
		return v
	}
}

// stringKeyed converts decoded CBOR maps (map[any]any) back into the
// string keyed form FromMap expects.
func stringKeyed(v any) any {
	switch t := v.(type) {
	case map[any]any:
		out := make(map[string]any, len(t))
		for k, vv := range t {
			out[fmt.Sprint(k)] = stringKeyed(vv)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i := range t {
			out[i] = stringKeyed(t[i])
		}
		return out
	default:
		return v
	}
}
