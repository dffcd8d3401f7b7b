package sanitizer

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ParsePolicyYAML decodes a PolicyConfig from YAML on top of
// DefaultPolicyConfig, so a document only needs the keys it overrides.
// Lists named in the document replace the defaults; maps are merged key by key.
func ParsePolicyYAML(data []byte) (*Policy, error) {
	cfg := DefaultPolicyConfig()
	if len(bytes.TrimSpace(data)) > 0 {
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil {
			return nil, errors.Join(ErrInvalidPolicy, fmt.Errorf("decode yaml: %w", err))
		}
	}
	return NewPolicy(cfg)
}

// LoadPolicyFile reads a YAML policy file, see ParsePolicyYAML.
func LoadPolicyFile(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Join(ErrPolicyFile, err)
	}
	p, err := ParsePolicyYAML(data)
	if err != nil {
		return nil, errors.Join(ErrPolicyFile, err)
	}
	return p, nil
}
