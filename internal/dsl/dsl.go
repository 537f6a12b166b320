package dsl

import (
	"context"
	"errors"
	"runtime"
	"time"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spk/internal/binding"
	"github.com/dshills/spk/internal/vars"
)

// EntryPoint is the optional function a script may define instead of, or
// in addition to, top-level binding calls. It receives binding and command.
const EntryPoint = "keybinding"

// Options configures script execution.
type Options struct {
	// Timeout bounds execution. Zero means DefaultTimeout.
	Timeout time.Duration

	// Platform is exposed to scripts as the global "platform".
	// Empty means the platform of the running process.
	Platform string

	// Print receives output of the Lua print function. Nil discards it.
	Print func(string)
}

// Run executes the script at path and appends every declared binding to b.
//
// A malformed binding call returns the *binding.ShapeError annotated with
// the script position. Any other failure returns a *ScriptError.
func Run(ctx context.Context, path string, b *binding.Builder, opts Options) error {
	return execute(ctx, path, b, opts, func(s *state, ctx context.Context) error {
		return s.doFile(ctx, path)
	})
}

// RunString executes code as if it were the file name.
func RunString(ctx context.Context, name, code string, b *binding.Builder, opts Options) error {
	return execute(ctx, name, b, opts, func(s *state, ctx context.Context) error {
		return s.doString(ctx, name, code)
	})
}

func execute(ctx context.Context, path string, b *binding.Builder, opts Options, load func(*state, context.Context) error) error {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	s := newState(opts.Print)
	defer s.close()

	surface := newSurface(s.L, b)
	surface.install(platformName(opts.Platform))

	if err := load(s, ctx); err != nil {
		return translate(ctx, path, err)
	}

	_, err := s.callGlobal(ctx, EntryPoint, surface.bindingFn, surface.commandFn)
	if err != nil {
		return translate(ctx, path, err)
	}
	return nil
}

// translate turns a Lua failure into a ShapeError or ScriptError.
func translate(ctx context.Context, path string, err error) error {
	var apiErr *lua.ApiError
	if !errors.As(err, &apiErr) {
		se := &ScriptError{Path: path, Message: err.Error(), Err: err}
		if ctxErr := ctx.Err(); ctxErr != nil {
			se.Err = ctxErr
		}
		return se
	}

	if ud, ok := apiErr.Object.(*lua.LUserData); ok {
		if shape, ok := ud.Value.(*binding.ShapeError); ok {
			return shape
		}
	}

	se := &ScriptError{
		Path:       path,
		Message:    apiErr.Object.String(),
		StackTrace: apiErr.StackTrace,
		Err:        err,
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		se.Err = ctxErr
	}
	return se
}

func platformName(override string) string {
	if override != "" {
		return override
	}
	return vars.Platform(runtime.GOOS)
}
