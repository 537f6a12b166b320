// Package config loads spk settings.
//
// Settings come from, in increasing precedence: built-in defaults, a TOML
// file, SPK_* environment variables and command line flags. Flags are
// applied by the caller.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Defaults for the two configured paths. Both are expanded by vars.
const (
	DefaultBindings    = "$packages/User/SublimeProKeyBindings/keybindings.lua"
	DefaultDestination = "$packages/User/SublimeProKeyBindings/Default ($platform).sublime-keymap"
	DefaultTimeout     = 5 * time.Second
	DefaultEditor      = "subl"
)

// Config holds all settings.
type Config struct {
	// Bindings is the user script location.
	Bindings string `toml:"bindings"`

	// Destination is the generated key map location.
	Destination string `toml:"destination"`

	// Timeout bounds script execution.
	Timeout Duration `toml:"timeout"`

	Log    LogConfig    `toml:"log"`
	Editor EditorConfig `toml:"editor"`

	// Vars are extra variables available in Bindings and Destination.
	Vars map[string]string `toml:"vars"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// EditorConfig describes the editor installation.
type EditorConfig struct {
	// Command is the command line used to run editor commands,
	// e.g. "subl" or "/opt/sublime_text/sublime_text --background".
	Command string `toml:"command"`

	// Packages overrides the $packages directory.
	Packages string `toml:"packages"`

	// Platform overrides the $platform name.
	Platform string `toml:"platform"`
}

// Duration is a time.Duration written as a string such as "5s".
type Duration time.Duration

// UnmarshalText parses a duration string.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// MarshalText formats the duration.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Bindings:    DefaultBindings,
		Destination: DefaultDestination,
		Timeout:     Duration(DefaultTimeout),
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Editor: EditorConfig{
			Command: DefaultEditor,
		},
		Vars: make(map[string]string),
	}
}

// DefaultPath returns the default configuration file location.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "spk", "config.toml")
}

// Load reads the configuration file at path on top of the defaults and
// applies environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := cfg.decode(path, data); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) decode(path string, data []byte) error {
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(c); err != nil {
		pe := &ParseError{Path: path, Message: err.Error(), Err: err}

		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			pe.Line, pe.Column = derr.Position()
		}
		var serr *toml.StrictMissingError
		if errors.As(err, &serr) && len(serr.Errors) > 0 {
			pe.Line, pe.Column = serr.Errors[0].Position()
			pe.Message = "unknown setting " + strings.Join(serr.Errors[0].Key(), ".")
		}
		return pe
	}
	if c.Vars == nil {
		c.Vars = make(map[string]string)
	}
	return nil
}

// envMapping lists the environment variables and the settings they set.
var envMapping = []struct {
	name string
	set  func(c *Config, v string) error
}{
	{"SPK_BINDINGS", func(c *Config, v string) error { c.Bindings = v; return nil }},
	{"SPK_DESTINATION", func(c *Config, v string) error { c.Destination = v; return nil }},
	{"SPK_LOG_LEVEL", func(c *Config, v string) error { c.Log.Level = v; return nil }},
	{"SPK_LOG_FORMAT", func(c *Config, v string) error { c.Log.Format = v; return nil }},
	{"SPK_EDITOR", func(c *Config, v string) error { c.Editor.Command = v; return nil }},
	{"SPK_PACKAGES", func(c *Config, v string) error { c.Editor.Packages = v; return nil }},
	{"SPK_PLATFORM", func(c *Config, v string) error { c.Editor.Platform = v; return nil }},
	{"SPK_TIMEOUT", func(c *Config, v string) error { return c.Timeout.UnmarshalText([]byte(v)) }},
}

// ApplyEnv applies SPK_* overrides using lookup.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, m := range envMapping {
		v, ok := lookup(m.name)
		if !ok {
			continue
		}
		if err := m.set(c, v); err != nil {
			return fmt.Errorf("%s: %w", m.name, err)
		}
	}
	return nil
}

// Validate checks the settings.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Bindings) == "" {
		return &ValidationError{Setting: "bindings", Message: "must not be empty"}
	}
	if strings.TrimSpace(c.Destination) == "" {
		return &ValidationError{Setting: "destination", Message: "must not be empty"}
	}
	if c.Timeout < 0 {
		return &ValidationError{Setting: "timeout", Message: "must not be negative"}
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		return &ValidationError{Setting: "log.format", Message: fmt.Sprintf("unknown format %q", c.Log.Format)}
	}
	return nil
}
