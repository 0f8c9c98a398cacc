// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package config loads and validates the CLI's JSON configuration
// object: which program to run, how rows are packed and encoded, where
// a GPU compute shader lives, how many GPU threads to use, the guest
// argv, and which of those argv entries are private.
package config

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
)

// ArgKind tags which variant of ArgValue is populated.
type ArgKind string

const (
	ArgI64 ArgKind = "i64"
	ArgStr ArgKind = "str"
	ArgHex ArgKind = "hex"
)

// ArgValue is the {i64}|{str}|{hex} tagged union the JSON schema
// describes for one guest argv entry.
type ArgValue struct {
	Kind ArgKind `json:"-"`
	I64  int64   `json:"i64,omitempty"`
	Str  string  `json:"str,omitempty"`
	Hex  string  `json:"hex,omitempty"`
}

// UnmarshalJSON resolves which of the three tagged fields is present;
// exactly one must be.
func (a *ArgValue) UnmarshalJSON(data []byte) error {
	var raw struct {
		I64 *int64  `json:"i64"`
		Str *string `json:"str"`
		Hex *string `json:"hex"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	set := 0
	if raw.I64 != nil {
		a.Kind, a.I64, set = ArgI64, *raw.I64, set+1
	}
	if raw.Str != nil {
		a.Kind, a.Str, set = ArgStr, *raw.Str, set+1
	}
	if raw.Hex != nil {
		a.Kind, a.Hex, set = ArgHex, *raw.Hex, set+1
	}
	if set != 1 {
		return fmt.Errorf("config: arg value must set exactly one of i64/str/hex, got %d", set)
	}
	return nil
}

// Bytes renders the argument as the byte sequence loaded into guest
// memory: i64 as 8 little-endian bytes, str as its UTF-8 bytes, hex as
// decoded bytes.
func (a ArgValue) Bytes() ([]byte, error) {
	switch a.Kind {
	case ArgI64:
		b := make([]byte, 8)
		u := uint64(a.I64)
		for i := 0; i < 8; i++ {
			b[i] = byte(u >> (8 * i))
		}
		return b, nil
	case ArgStr:
		return []byte(a.Str), nil
	case ArgHex:
		return hex.DecodeString(a.Hex)
	default:
		return nil, fmt.Errorf("config: arg value has no kind set")
	}
}

// Config is the CLI's JSON configuration object.
type Config struct {
	Program        string     `json:"program"`
	Packing        int        `json:"packing"`
	ShaderPath     string     `json:"shader-path"`
	GPUThreads     int        `json:"gpu-threads"`
	Args           []ArgValue `json:"args"`
	PrivateIndices []int      `json:"private-indices"`
}

// Load reads and validates a Config from r.
func Load(r io.Reader) (*Config, error) {
	var c Config
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("config: decode: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the schema-level invariants Load can't express
// through struct tags alone: packing must be a power of two, and every
// private index must name an existing argv entry.
func (c *Config) Validate() error {
	if c.Program == "" {
		return fmt.Errorf("config: program is required")
	}
	if c.Packing <= 0 || c.Packing&(c.Packing-1) != 0 {
		return fmt.Errorf("config: packing %d is not a positive power of two", c.Packing)
	}
	if c.GPUThreads < 0 {
		return fmt.Errorf("config: gpu-threads %d is negative", c.GPUThreads)
	}
	for _, idx := range c.PrivateIndices {
		if idx < 0 || idx >= len(c.Args) {
			return fmt.Errorf("config: private index %d out of range for %d args", idx, len(c.Args))
		}
	}
	return nil
}

// IsPrivate reports whether the argv entry at idx is flagged private.
func (c *Config) IsPrivate(idx int) bool {
	for _, p := range c.PrivateIndices {
		if p == idx {
			return true
		}
	}
	return false
}

// Argv builds the guest argv, with argv[0] forced to "Ligero"
// regardless of how the host process was actually invoked.
func (c *Config) Argv() []string {
	argv := make([]string, 0, len(c.Args)+1)
	argv = append(argv, "Ligero")
	for _, a := range c.Args {
		switch a.Kind {
		case ArgStr:
			argv = append(argv, a.Str)
		case ArgHex:
			argv = append(argv, "0x"+a.Hex)
		default:
			argv = append(argv, fmt.Sprintf("%d", a.I64))
		}
	}
	return argv
}
