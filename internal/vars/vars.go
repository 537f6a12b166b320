// Package vars expands editor variables in configured paths.
//
// Supported forms are $name, ${name}, ${name:default} and ${env:NAME}.
// A leading ~ expands to the home directory.
package vars

import (
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
)

var pattern = regexp.MustCompile(`\$\{([^}:]+)(?::([^}]*))?\}|\$([a-zA-Z_][a-zA-Z0-9_]*)`)

// Provider computes the value of a built-in variable.
type Provider func() string

// Expander resolves variables. Lookup order is custom values, built-in
// providers, then the environment. Unresolved variables are left as is.
type Expander struct {
	custom    map[string]string
	providers map[string]Provider
	getenv    func(string) string
}

// Option configures an Expander.
type Option func(*Expander)

// WithPackages overrides the editor Packages directory.
func WithPackages(dir string) Option {
	return func(e *Expander) {
		if dir != "" {
			e.custom["packages"] = dir
		}
	}
}

// WithPlatform overrides the platform name.
func WithPlatform(name string) Option {
	return func(e *Expander) {
		if name != "" {
			e.custom["platform"] = name
		}
	}
}

// WithVars adds custom variables.
func WithVars(vars map[string]string) Option {
	return func(e *Expander) {
		for k, v := range vars {
			e.custom[k] = v
		}
	}
}

// WithEnv replaces the environment lookup, mainly for tests.
func WithEnv(getenv func(string) string) Option {
	return func(e *Expander) {
		e.getenv = getenv
	}
}

// New creates an Expander with the built-in editor variables.
func New(opts ...Option) *Expander {
	e := &Expander{
		custom:    make(map[string]string),
		providers: make(map[string]Provider),
		getenv:    os.Getenv,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.registerBuiltins()
	return e
}

// Set sets a custom variable.
func (e *Expander) Set(name, value string) {
	e.custom[name] = value
}

// Lookup returns the value of a variable and whether it is known.
func (e *Expander) Lookup(name string) (string, bool) {
	if v, ok := e.custom[name]; ok {
		return v, true
	}
	if p, ok := e.providers[name]; ok {
		if v := p(); v != "" {
			return v, true
		}
	}
	if v := e.getenv(name); v != "" {
		return v, true
	}
	return "", false
}

// Expand replaces variables in s.
func (e *Expander) Expand(s string) string {
	s = pattern.ReplaceAllStringFunc(s, func(match string) string {
		var name, def string
		hasDefault := false

		if strings.HasPrefix(match, "${") {
			inner := match[2 : len(match)-1]
			if strings.HasPrefix(inner, "env:") {
				envName, envDefault, _ := strings.Cut(inner[4:], ":")
				if v := e.getenv(envName); v != "" {
					return v
				}
				return envDefault
			}
			if before, after, ok := strings.Cut(inner, ":"); ok {
				name, def, hasDefault = before, after, true
			} else {
				name = inner
			}
		} else {
			name = match[1:]
		}

		if v, ok := e.Lookup(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		return match
	})

	if s == "~" || strings.HasPrefix(s, "~/") {
		if home := e.home(); home != "" {
			s = home + s[1:]
		}
	}
	return s
}

// ExpandPath expands s and cleans the result as a file path.
func (e *Expander) ExpandPath(s string) string {
	return filepath.Clean(e.Expand(s))
}

func (e *Expander) home() string {
	if v, ok := e.custom["home"]; ok {
		return v
	}
	if h := e.getenv("HOME"); h != "" {
		return h
	}
	h, _ := os.UserHomeDir()
	return h
}

func (e *Expander) registerBuiltins() {
	e.providers["home"] = e.home
	e.providers["platform"] = func() string {
		return Platform(runtime.GOOS)
	}
	e.providers["config_dir"] = func() string {
		return e.configDir(runtime.GOOS)
	}
	e.providers["packages"] = func() string {
		return filepath.Join(e.dataDir(), "Packages")
	}
	e.providers["installed_packages"] = func() string {
		return filepath.Join(e.dataDir(), "Installed Packages")
	}
	e.providers["user"] = func() string {
		packages, _ := e.Lookup("packages")
		return filepath.Join(packages, "User")
	}
}

// dataDir is the editor data directory holding Packages.
func (e *Expander) dataDir() string {
	name := "sublime-text"
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		name = "Sublime Text"
	}
	return filepath.Join(e.configDir(runtime.GOOS), name)
}

func (e *Expander) configDir(goos string) string {
	switch goos {
	case "darwin":
		return filepath.Join(e.home(), "Library", "Application Support")
	case "windows":
		if v := e.getenv("APPDATA"); v != "" {
			return v
		}
		return filepath.Join(e.home(), "AppData", "Roaming")
	default:
		if v := e.getenv("XDG_CONFIG_HOME"); v != "" {
			return v
		}
		return filepath.Join(e.home(), ".config")
	}
}

// Platform returns the editor platform name for a GOOS value.
func Platform(goos string) string {
	switch goos {
	case "darwin":
		return "OSX"
	case "windows":
		return "Windows"
	default:
		return "Linux"
	}
}
