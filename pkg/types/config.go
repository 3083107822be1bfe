// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types holds the configuration shared by the CLI and build tooling.
package types

// Config holds the options of a yaml2script run. Values come from flags,
// YAML2SCRIPT_* environment variables or a yaml2script.yaml config file.
type Config struct {
	// Shebang is the first line of the rendered script (default "#!/usr/bin/env sh").
	Shebang string `json:"shebang" yaml:"shebang" mapstructure:"shebang"`

	// Output is a file to write the script to. Empty means stdout.
	Output string `json:"output,omitempty" yaml:"output,omitempty" mapstructure:"output"`

	// Quiet suppresses warnings such as a missing extend target.
	Quiet bool `json:"quiet" yaml:"quiet" mapstructure:"quiet"`

	// Debug enables debug logging and stack traces on errors.
	Debug bool `json:"debug" yaml:"debug" mapstructure:"debug"`
}

// LogLevel returns the zap level name implied by the config.
func (c Config) LogLevel() string {
	if c.Debug {
		return "debug"
	}
	return "warn"
}
