package dsl

import (
	"context"
	"fmt"
	"time"

	lua "github.com/yuin/gopher-lua"
)

// DefaultTimeout bounds the execution of a binding script.
const DefaultTimeout = 5 * time.Second

// state wraps a gopher-lua state restricted to the binding surface.
//
// A state is created for one compile pass and closed afterwards; nothing
// a script defines survives into the next pass.
type state struct {
	L       *lua.LState
	sandbox *sandbox
	closed  bool
}

func newState(print func(string)) *state {
	L := lua.NewState(lua.Options{
		SkipOpenLibs:        true,
		IncludeGoStackTrace: false,
	})
	openSafeLibraries(L)

	sb := newSandbox(L, print)
	sb.install()

	return &state{L: L, sandbox: sb}
}

// openSafeLibraries opens only the libraries a binding script may need.
func openSafeLibraries(L *lua.LState) {
	lua.OpenBase(L)
	lua.OpenTable(L)
	lua.OpenString(L)
	lua.OpenMath(L)

	// io, os, debug, package and channel stay closed.
}

// doFile executes the file at path with ctx bounding execution time.
func (s *state) doFile(ctx context.Context, path string) error {
	if s.closed {
		return ErrStateClosed
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	return s.doWithRecovery(func() error {
		return s.L.DoFile(path)
	})
}

// doString executes code under the given chunk name.
func (s *state) doString(ctx context.Context, name, code string) error {
	if s.closed {
		return ErrStateClosed
	}
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	return s.doWithRecovery(func() error {
		fn, err := s.L.Load(stringReader(code), name)
		if err != nil {
			return err
		}
		s.L.Push(fn)
		return s.L.PCall(0, lua.MultRet, nil)
	})
}

// callGlobal calls the global function name with args if the script
// defined one. It reports whether the function existed.
func (s *state) callGlobal(ctx context.Context, name string, args ...lua.LValue) (bool, error) {
	if s.closed {
		return false, ErrStateClosed
	}
	fn, ok := s.L.GetGlobal(name).(*lua.LFunction)
	if !ok {
		return false, nil
	}

	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.doWithRecovery(func() error {
		return s.L.CallByParam(lua.P{Fn: fn, NRet: 0, Protect: true}, args...)
	})
	return true, err
}

func (s *state) doWithRecovery(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("lua panic: %v", r)
		}
	}()
	return fn()
}

func (s *state) close() {
	if s.closed {
		return
	}
	s.L.Close()
	s.closed = true
}
