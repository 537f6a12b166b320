package dsl

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spk/internal/binding"
)

// surface is the set of functions injected into a binding script.
type surface struct {
	L         *lua.LState
	builder   *binding.Builder
	bridge    *bridge
	argsMeta  *lua.LTable
	errMeta   *lua.LTable
	bindingFn *lua.LFunction
	commandFn *lua.LFunction
}

func newSurface(L *lua.LState, b *binding.Builder) *surface {
	s := &surface{
		L:       L,
		builder: b,
		bridge:  &bridge{L: L},
	}

	s.argsMeta = L.NewTable()
	s.argsMeta.RawSetString("__name", lua.LString("spk.args"))

	s.errMeta = L.NewTable()
	s.errMeta.RawSetString("__tostring", L.NewFunction(func(L *lua.LState) int {
		ud := L.CheckUserData(1)
		if e, ok := ud.Value.(error); ok {
			L.Push(lua.LString(e.Error()))
		} else {
			L.Push(lua.LString("error"))
		}
		return 1
	}))

	s.bindingFn = L.NewFunction(s.binding)
	s.commandFn = L.NewFunction(s.command)
	return s
}

// install sets the DSL globals.
func (s *surface) install(platform string) {
	s.L.SetGlobal("binding", s.bindingFn)
	s.L.SetGlobal("command", s.commandFn)
	s.L.SetGlobal("args", s.L.NewFunction(s.args))
	s.L.SetGlobal("context", s.L.NewFunction(s.context))
	s.L.SetGlobal("platform", lua.LString(platform))
}

// raise aborts the current call with a shape error carrying the position
// of the Lua caller.
func (s *surface) raise(L *lua.LState, err *binding.ShapeError) int {
	ud := L.NewUserData()
	ud.Value = err.At(L.Where(1))
	L.SetMetatable(ud, s.errMeta)
	L.Error(ud, 0)
	return 0
}

func (s *surface) shape(L *lua.LState, msg string) int {
	return s.raise(L, &binding.ShapeError{Message: msg})
}

// binding(keys, action, ...) registers one key binding.
func (s *surface) binding(L *lua.LState) int {
	keys, ok := s.keys(L.Get(1))
	if !ok {
		return s.shape(L, binding.MsgKeys)
	}

	action, ok := s.action(L.Get(2))
	if !ok {
		return s.shape(L, binding.MsgAction)
	}

	var (
		args    *binding.Args
		context []any
	)
	for i := 3; i <= L.GetTop(); i++ {
		lv := L.Get(i)
		if t, isTable := lv.(*lua.LTable); isTable && L.GetMetatable(t) == s.argsMeta {
			a, err := s.mapping(t)
			if err != nil {
				return s.raise(L, binding.NewShapeError("invalid arguments: %v", err))
			}
			if args == nil {
				args = binding.NewArgs()
			}
			a.Each(func(k string, v any) { args.Set(k, v) })
			continue
		}

		pred, ok := s.predicate(lv)
		if !ok {
			return s.shape(L, binding.MsgContext)
		}
		context = append(context, pred)
	}

	if err := s.builder.Append(keys, action, args, context...); err != nil {
		if shape, ok := err.(*binding.ShapeError); ok {
			return s.raise(L, shape)
		}
		L.RaiseError("%s", err.Error())
	}
	return 0
}

// command(name [, args]) returns a command descriptor table.
func (s *surface) command(L *lua.LState) int {
	name, ok := L.Get(1).(lua.LString)
	if !ok || name == "" {
		return s.shape(L, binding.MsgName)
	}

	t := L.NewTable()
	t.RawSetString("command", name)

	if L.GetTop() >= 2 && L.Get(2) != lua.LNil {
		argsTable, ok := L.Get(2).(*lua.LTable)
		if !ok {
			return s.raise(L, binding.NewShapeError("arguments of %q must be a table", string(name)))
		}
		a, err := s.mapping(argsTable)
		if err != nil {
			return s.raise(L, binding.NewShapeError("invalid arguments of %q: %v", string(name), err))
		}
		if a.Len() > 0 {
			t.RawSetString("args", s.bridge.toLua(a))
		}
	}

	L.Push(t)
	return 1
}

// args(tbl) marks tbl as the argument mapping of a binding.
func (s *surface) args(L *lua.LState) int {
	t := L.OptTable(1, L.NewTable())
	L.SetMetatable(t, s.argsMeta)
	L.Push(t)
	return 1
}

// context(key [, operator [, operand [, match_all]]]) builds a predicate.
func (s *surface) context(L *lua.LState) int {
	key := L.CheckString(1)

	t := L.NewTable()
	t.RawSetString("key", lua.LString(key))
	if op := L.Get(2); op != lua.LNil {
		t.RawSetString("operator", lua.LString(L.CheckString(2)))
	}
	if operand := L.Get(3); operand != lua.LNil {
		t.RawSetString("operand", operand)
	}
	if all := L.Get(4); all != lua.LNil {
		t.RawSetString("match_all", lua.LBool(L.CheckBool(4)))
	}

	L.Push(t)
	return 1
}

func (s *surface) keys(lv lua.LValue) ([]string, bool) {
	t, ok := lv.(*lua.LTable)
	if !ok || !isSequence(t) || t.Len() < 1 {
		return nil, false
	}
	keys := make([]string, 0, t.Len())
	for i := 1; i <= t.Len(); i++ {
		k, ok := t.RawGetInt(i).(lua.LString)
		if !ok || k == "" {
			return nil, false
		}
		keys = append(keys, string(k))
	}
	return keys, true
}

// action accepts a command name or a sequence of command tables.
func (s *surface) action(lv lua.LValue) (binding.Action, bool) {
	switch v := lv.(type) {
	case lua.LString:
		if v == "" {
			return binding.Action{}, false
		}
		return binding.Single(string(v)), true
	case *lua.LTable:
		if !isSequence(v) {
			return binding.Action{}, false
		}
		cmds := make([]binding.Invocation, 0, v.Len())
		for i := 1; i <= v.Len(); i++ {
			inv, ok := s.invocation(v.RawGetInt(i))
			if !ok {
				return binding.Action{}, false
			}
			cmds = append(cmds, inv)
		}
		return binding.Composite(cmds...), true
	default:
		return binding.Action{}, false
	}
}

// invocation converts a {command = ..., args = ...} table.
func (s *surface) invocation(lv lua.LValue) (binding.Invocation, bool) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return binding.Invocation{}, false
	}
	name, ok := t.RawGetString("command").(lua.LString)
	if !ok {
		return binding.Invocation{}, false
	}

	inv := binding.Invocation{Command: string(name)}
	switch a := t.RawGetString("args").(type) {
	case *lua.LNilType:
	case *lua.LTable:
		args, err := s.mapping(a)
		if err != nil {
			return binding.Invocation{}, false
		}
		if args.Len() > 0 {
			inv.Args = args
		}
	default:
		return binding.Invocation{}, false
	}
	return inv, true
}

// predicate converts a context argument: a table, or a list of tables
// returned as []any so the builder splices it.
func (s *surface) predicate(lv lua.LValue) (any, bool) {
	t, ok := lv.(*lua.LTable)
	if !ok {
		return nil, false
	}
	v, err := s.bridge.toGo(t)
	if err != nil {
		return nil, false
	}
	switch val := v.(type) {
	case *binding.Args:
		return val, true
	case []any:
		for _, item := range val {
			if _, ok := item.(*binding.Args); !ok {
				return nil, false
			}
		}
		return val, true
	default:
		return nil, false
	}
}

// mapping converts a table that must be a key/value mapping. The empty
// table is an empty mapping.
func (s *surface) mapping(t *lua.LTable) (*binding.Args, error) {
	v, err := s.bridge.toGo(t)
	if err != nil {
		return nil, err
	}
	switch val := v.(type) {
	case *binding.Args:
		return val, nil
	case []any:
		if len(val) == 0 {
			return binding.NewArgs(), nil
		}
	}
	return nil, errNotMapping
}
