package profile

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads a YAML profile and returns it with its raw bytes
// ⭐ SSOT: KnownFields(true) fails on typos and unused fields
func Load(path string) (*Profile, []byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read profile: %w", err)
	}

	p, err := Decode(data)
	if err != nil {
		return nil, data, err
	}
	return p, data, nil
}

// Decode parses and validates profile YAML
func Decode(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("decode profile: %w", err)
	}

	if err := Validate(&p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Hash generates a SHA256 hash of the profile (canonical JSON)
func Hash(p *Profile) (string, error) {
	// struct fields marshal in declaration order
	jsonBytes, err := json.Marshal(p)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(jsonBytes)
	return hex.EncodeToString(sum[:]), nil
}
