// Package config handles effective.toml run configuration for the
// command-line harness. The engine itself takes no configuration; this
// only selects which observational traces the harness enables.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// Config is the effective.toml schema.
type Config struct {
	Trace Trace `toml:"trace"`
}

// Trace selects the machine's trace output.
type Trace struct {
	Values    bool `toml:"values"`
	Frames    bool `toml:"frames"`
	Execution bool `toml:"execution"`
}

// Default returns the configuration used when no file is present: all
// tracing off.
func Default() Config {
	return Config{}
}

// Load reads a TOML configuration file. A missing file is not an
// error; it yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode %s: %w", path, err)
	}
	return cfg, nil
}
