package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// LoadYAML decodes a YAML schema. Unknown keys and duplicate keys are
// errors.
func LoadYAML(data []byte) (*Set, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("schema: yaml: %w", err)
	}
	return Build(f)
}

// LoadJSON decodes a JSON schema. Comments and trailing commas (JSONC) are
// accepted; unknown keys are errors.
func LoadJSON(data []byte) (*Set, error) {
	var f File
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("schema: json: %w", err)
	}
	return Build(f)
}

// LoadFile reads a schema file, choosing the decoder from its extension:
// .json and .jsonc decode as JSON, anything else as YAML.
func LoadFile(path string) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("schema: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return LoadJSON(data)
	default:
		return LoadYAML(data)
	}
}
