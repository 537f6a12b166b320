package dsl

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// removedGlobals are base library functions a binding script must not
// reach: they load code from disk or strings, or escape the environment.
var removedGlobals = []string{
	"dofile",
	"loadfile",
	"load",
	"loadstring",
	"require",
	"module",
	"getfenv",
	"setfenv",
	"collectgarbage",
	"_printregs",
	"newproxy",
}

// sandbox restricts what a binding script can see.
type sandbox struct {
	L     *lua.LState
	print func(string)
}

func newSandbox(L *lua.LState, print func(string)) *sandbox {
	return &sandbox{L: L, print: print}
}

func (s *sandbox) install() {
	for _, name := range removedGlobals {
		s.L.SetGlobal(name, lua.LNil)
	}
	for _, name := range []string{"io", "os", "debug", "package", "channel"} {
		s.L.SetGlobal(name, lua.LNil)
	}
	s.installPrint()
}

// installPrint routes print output to the compiler log instead of stdout.
func (s *sandbox) installPrint() {
	if s.print == nil {
		s.L.SetGlobal("print", s.L.NewFunction(func(*lua.LState) int { return 0 }))
		return
	}
	s.L.SetGlobal("print", s.L.NewFunction(func(L *lua.LState) int {
		n := L.GetTop()
		parts := make([]string, 0, n)
		for i := 1; i <= n; i++ {
			parts = append(parts, L.ToStringMeta(L.Get(i)).String())
		}
		s.print(strings.Join(parts, "\t"))
		return 0
	}))
}

// stringReader adapts source code for LState.Load.
func stringReader(code string) *strings.Reader {
	return strings.NewReader(code)
}
