package dsl

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/spk/internal/binding"
)

// bridge converts values between the Lua state and the binding value model.
type bridge struct {
	L *lua.LState
}

// toGo converts a Lua value. Tables with keys 1..n become []any, other
// tables become *binding.Args with keys in constructor order. The empty
// table converts to an empty list.
func (b *bridge) toGo(lv lua.LValue) (any, error) {
	return b.toGoVisited(lv, make(map[*lua.LTable]bool))
}

func (b *bridge) toGoVisited(lv lua.LValue, visited map[*lua.LTable]bool) (any, error) {
	switch v := lv.(type) {
	case nil, *lua.LNilType:
		return nil, nil
	case lua.LBool:
		return bool(v), nil
	case lua.LNumber:
		f := float64(v)
		if f == float64(int64(f)) {
			return int64(f), nil
		}
		return f, nil
	case lua.LString:
		return string(v), nil
	case *lua.LTable:
		if visited[v] {
			return nil, fmt.Errorf("circular table reference")
		}
		visited[v] = true
		defer delete(visited, v)
		return b.tableToGo(v, visited)
	default:
		return nil, fmt.Errorf("unsupported value of type %s", lv.Type())
	}
}

func (b *bridge) tableToGo(t *lua.LTable, visited map[*lua.LTable]bool) (any, error) {
	if isSequence(t) {
		n := t.Len()
		out := make([]any, 0, n)
		for i := 1; i <= n; i++ {
			v, err := b.toGoVisited(t.RawGetInt(i), visited)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	}

	args := binding.NewArgs()
	var convErr error
	for k, v := t.Next(lua.LNil); k != lua.LNil; k, v = t.Next(k) {
		val, err := b.toGoVisited(v, visited)
		if err != nil {
			convErr = fmt.Errorf("field %s: %w", k.String(), err)
			break
		}
		args.Set(keyString(k), val)
	}
	if convErr != nil {
		return nil, convErr
	}
	return args, nil
}

// isSequence reports whether every key of t is an integer in 1..#t.
func isSequence(t *lua.LTable) bool {
	n := t.Len()
	count := 0
	seq := true
	for k, _ := t.Next(lua.LNil); k != lua.LNil; k, _ = t.Next(k) {
		kn, ok := k.(lua.LNumber)
		if !ok {
			seq = false
			break
		}
		i := int(kn)
		if float64(i) != float64(kn) || i < 1 || i > n {
			seq = false
			break
		}
		count++
	}
	return seq && count == n
}

func keyString(k lua.LValue) string {
	switch kv := k.(type) {
	case lua.LString:
		return string(kv)
	case lua.LNumber:
		f := float64(kv)
		if f == float64(int64(f)) {
			return fmt.Sprintf("%d", int64(f))
		}
		return fmt.Sprintf("%v", f)
	default:
		return k.String()
	}
}

// toLua converts a binding value to Lua. *binding.Args become tables whose
// keys are inserted in order, so a round trip keeps the original order.
func (b *bridge) toLua(v any) lua.LValue {
	switch val := v.(type) {
	case nil:
		return lua.LNil
	case bool:
		return lua.LBool(val)
	case int:
		return lua.LNumber(val)
	case int64:
		return lua.LNumber(val)
	case float64:
		return lua.LNumber(val)
	case string:
		return lua.LString(val)
	case []any:
		t := b.L.NewTable()
		for i, item := range val {
			t.RawSetInt(i+1, b.toLua(item))
		}
		return t
	case *binding.Args:
		t := b.L.NewTable()
		val.Each(func(k string, item any) {
			t.RawSetString(k, b.toLua(item))
		})
		return t
	case binding.Invocation:
		t := b.L.NewTable()
		t.RawSetString("command", lua.LString(val.Command))
		if val.Args.Len() > 0 {
			t.RawSetString("args", b.toLua(val.Args))
		}
		return t
	case lua.LValue:
		return val
	default:
		return lua.LString(fmt.Sprintf("%v", val))
	}
}
