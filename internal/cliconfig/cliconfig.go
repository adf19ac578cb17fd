// Package cliconfig loads the CLI's own tool configuration: default
// dialect, store DSN, protoc path. Workspace content (spec.md §6) is
// YAML; this file is TOML, matching the teacher's internal/parser/toml
// convention of a typed Go struct tree decoded with `toml:"..."` tags
// (SPEC_FULL.md's ambient configuration section).
package cliconfig

import (
	"os"

	"github.com/BurntSushi/toml"

	"contractkit/internal/core"
)

// Config is the decoded shape of .contractkit.toml.
type Config struct {
	Dialect    string `toml:"dialect"`
	StoreDSN   string `toml:"store_dsn"`
	ProtocPath string `toml:"protoc_path"`
}

// Load reads and decodes path. A missing file returns a zero Config and
// no error, since every field has a sensible CLI-flag-level default.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, &core.IOError{Op: "read cli config", Err: err}
	}
	var cfg Config
	if _, err := toml.Decode(string(data), &cfg); err != nil {
		return nil, &core.ParseError{Format: "toml", Detail: "cli config", Err: err}
	}
	return &cfg, nil
}
