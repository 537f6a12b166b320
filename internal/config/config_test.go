package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func noEnv(string) (string, bool) { return "", false }

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, DefaultBindings, cfg.Bindings)
	assert.Equal(t, DefaultDestination, cfg.Destination)
	assert.Equal(t, Duration(DefaultTimeout), cfg.Timeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, DefaultEditor, cfg.Editor.Command)
	assert.NoError(t, cfg.Validate())
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultBindings, cfg.Bindings)
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
bindings = "~/keys.lua"
destination = "$user/Default ($platform).sublime-keymap"
timeout = "2s"

[log]
level = "debug"
format = "json"

[editor]
command = "subl --background"
packages = "/opt/Packages"

[vars]
name = "work"
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "~/keys.lua", cfg.Bindings)
	assert.Equal(t, "$user/Default ($platform).sublime-keymap", cfg.Destination)
	assert.Equal(t, Duration(2*time.Second), cfg.Timeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "subl --background", cfg.Editor.Command)
	assert.Equal(t, "/opt/Packages", cfg.Editor.Packages)
	assert.Equal(t, map[string]string{"name": "work"}, cfg.Vars)
}

func TestLoadKeepsDefaultsForUnsetKeys(t *testing.T) {
	cfg, err := Load(writeConfig(t, `bindings = "/x.lua"`))
	require.NoError(t, err)
	assert.Equal(t, "/x.lua", cfg.Bindings)
	assert.Equal(t, DefaultDestination, cfg.Destination)
	assert.NotNil(t, cfg.Vars)
}

func TestLoadParseError(t *testing.T) {
	_, err := Load(writeConfig(t, "bindings = \n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Greater(t, pe.Line, 0)
}

func TestLoadUnknownSetting(t *testing.T) {
	_, err := Load(writeConfig(t, "bindngs = \"x\"\n"))
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Contains(t, pe.Message, "bindngs")
}

func TestLoadInvalidTimeout(t *testing.T) {
	_, err := Load(writeConfig(t, `timeout = "soon"`))
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	env := map[string]string{
		"SPK_BINDINGS":    "/env/keys.lua",
		"SPK_DESTINATION": "/env/out.json",
		"SPK_LOG_LEVEL":   "warn",
		"SPK_EDITOR":      "code",
		"SPK_PACKAGES":    "/env/pkgs",
		"SPK_PLATFORM":    "OSX",
		"SPK_TIMEOUT":     "10s",
	}
	cfg := Default()
	require.NoError(t, cfg.ApplyEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))

	assert.Equal(t, "/env/keys.lua", cfg.Bindings)
	assert.Equal(t, "/env/out.json", cfg.Destination)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "code", cfg.Editor.Command)
	assert.Equal(t, "/env/pkgs", cfg.Editor.Packages)
	assert.Equal(t, "OSX", cfg.Editor.Platform)
	assert.Equal(t, Duration(10*time.Second), cfg.Timeout)
}

func TestApplyEnvInvalidTimeout(t *testing.T) {
	cfg := Default()
	err := cfg.ApplyEnv(func(k string) (string, bool) {
		if k == "SPK_TIMEOUT" {
			return "x", true
		}
		return noEnv(k)
	})
	assert.ErrorContains(t, err, "SPK_TIMEOUT")
}

func TestEnvOverridesFile(t *testing.T) {
	t.Setenv("SPK_DESTINATION", "/from/env")
	cfg, err := Load(writeConfig(t, `destination = "/from/file"`))
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.Destination)
}

func TestValidate(t *testing.T) {
	tests := map[string]func(*Config){
		"empty bindings":    func(c *Config) { c.Bindings = " " },
		"empty destination": func(c *Config) { c.Destination = "" },
		"negative timeout":  func(c *Config) { c.Timeout = -1 },
		"bad log format":    func(c *Config) { c.Log.Format = "xml" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			var ve *ValidationError
			assert.ErrorAs(t, cfg.Validate(), &ve)
		})
	}
}
