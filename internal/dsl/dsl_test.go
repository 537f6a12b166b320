package dsl

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/spk/internal/binding"
)

func run(t *testing.T, code string) (*binding.Builder, error) {
	t.Helper()
	b := binding.NewBuilder()
	err := RunString(context.Background(), "keybindings.lua", code, b, Options{Platform: "Linux"})
	return b, err
}

func mustRun(t *testing.T, code string) []binding.Record {
	t.Helper()
	b, err := run(t, code)
	require.NoError(t, err)
	return b.Records()
}

func recordJSON(t *testing.T, rec binding.Record) string {
	t.Helper()
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	return string(data)
}

func TestBindingSingleCommand(t *testing.T) {
	recs := mustRun(t, `binding({"a"}, "cmd")`)
	require.Len(t, recs, 1)
	assert.Equal(t, `{"keys":["a"],"command":"cmd"}`, recordJSON(t, recs[0]))
}

func TestBindingWithArgs(t *testing.T) {
	recs := mustRun(t, `binding({"a"}, "cmd", args{foo = "bar"})`)
	require.Len(t, recs, 1)
	assert.Equal(t, `{"keys":["a"],"command":"cmd","args":{"foo":"bar"}}`, recordJSON(t, recs[0]))
}

func TestBindingComposite(t *testing.T) {
	recs := mustRun(t, `binding({"a"}, {command("c1"), command("c2", {x = 1})})`)
	require.Len(t, recs, 1)
	assert.Equal(t,
		`{"keys":["a"],"command":"spk_multi_cmd","args":{"commands":[{"command":"c1"},{"command":"c2","args":{"x":1}}]}}`,
		recordJSON(t, recs[0]))
}

func TestBindingContextFlattening(t *testing.T) {
	recs := mustRun(t, `binding({"a"}, "cmd", {key = "k1"}, {{key = "k2"}, {key = "k3"}})`)
	require.Len(t, recs, 1)
	assert.JSONEq(t,
		`{"keys":["a"],"command":"cmd","context":[{"key":"k1"},{"key":"k2"},{"key":"k3"}]}`,
		recordJSON(t, recs[0]))
}

func TestBindingArgsAndContextMixed(t *testing.T) {
	recs := mustRun(t, `
		binding({"ctrl+d"}, "find_under_expand",
			context("selection_empty", "equal", false, true),
			args{skip = true})
	`)
	require.Len(t, recs, 1)
	assert.JSONEq(t, `{
		"keys": ["ctrl+d"],
		"command": "find_under_expand",
		"args": {"skip": true},
		"context": [{"key": "selection_empty", "operator": "equal", "operand": false, "match_all": true}]
	}`, recordJSON(t, recs[0]))
}

func TestContextHelperOmitsAbsentFields(t *testing.T) {
	recs := mustRun(t, `binding({"a"}, "cmd", context("auto_complete_visible"))`)
	assert.JSONEq(t, `{"keys":["a"],"command":"cmd","context":[{"key":"auto_complete_visible"}]}`, recordJSON(t, recs[0]))
}

func TestBindingOrderMatchesCalls(t *testing.T) {
	recs := mustRun(t, `
		for i = 1, 5 do
			binding({"f" .. i}, "cmd_" .. i)
		end
	`)
	require.Len(t, recs, 5)
	for i, rec := range recs {
		assert.Equal(t, []string{"f" + string(rune('1'+i))}, rec.Keys)
	}
}

func TestCommandWithoutArgsOmitsArgs(t *testing.T) {
	recs := mustRun(t, `
		local c = command("c1", {})
		assert(c.command == "c1")
		assert(c.args == nil)
		binding({"a"}, {c})
	`)
	assert.Contains(t, recordJSON(t, recs[0]), `{"command":"c1"}`)
}

func TestShapeErrors(t *testing.T) {
	tests := []struct {
		name string
		code string
		msg  string
	}{
		{"keys not a table", `binding("a", "cmd")`, binding.MsgKeys},
		{"empty keys", `binding({}, "cmd")`, binding.MsgKeys},
		{"non string key", `binding({1}, "cmd")`, binding.MsgKeys},
		{"action number", `binding({"a"}, 42)`, binding.MsgAction},
		{"action missing", `binding({"a"})`, binding.MsgAction},
		{"action mapping", `binding({"a"}, {command = "x"})`, binding.MsgAction},
		{"action entry not a command", `binding({"a"}, {"x"})`, binding.MsgAction},
		{"context scalar", `binding({"a"}, "cmd", "ctx")`, binding.MsgContext},
		{"context list of scalars", `binding({"a"}, "cmd", {"x", "y"})`, binding.MsgContext},
		{"empty command name", `command("")`, binding.MsgName},
		{"args with composite", `binding({"a"}, {command("x")}, args{y = 1})`, binding.MsgArgs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := run(t, tt.code)
			require.Error(t, err)

			var shape *binding.ShapeError
			require.True(t, errors.As(err, &shape), "got %T: %v", err, err)
			assert.Equal(t, tt.msg, shape.Message)
			assert.Contains(t, shape.Where, "keybindings.lua")
			assert.Zero(t, b.Len())
		})
	}
}

func TestShapeErrorCaughtByPcall(t *testing.T) {
	recs := mustRun(t, `
		local ok, err = pcall(binding, "a", "cmd")
		assert(not ok)
		assert(string.find(tostring(err), "first argument must be a list of keys"))
		binding({"b"}, "cmd")
	`)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"b"}, recs[0].Keys)
}

func TestScriptRuntimeError(t *testing.T) {
	_, err := run(t, `binding({"a"}, "cmd")
error("boom")`)

	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.Contains(t, se.Message, "boom")
	assert.Equal(t, "keybindings.lua", se.Path)
}

func TestScriptSyntaxError(t *testing.T) {
	_, err := run(t, `binding({"a"}, "cmd"`)

	var se *ScriptError
	require.ErrorAs(t, err, &se)
}

func TestSandboxHidesDangerousGlobals(t *testing.T) {
	for _, name := range []string{"io", "os", "debug", "package", "require", "dofile", "loadfile", "load", "loadstring"} {
		t.Run(name, func(t *testing.T) {
			mustRun(t, `assert(`+name+` == nil, "`+name+` is visible")`)
		})
	}
}

func TestSandboxKeepsSafeLibraries(t *testing.T) {
	recs := mustRun(t, `
		local keys = {}
		for _, k in ipairs({"ctrl", "k"}) do table.insert(keys, k) end
		binding({table.concat(keys, "+")}, string.upper("x") .. math.floor(1.5))
	`)
	require.Len(t, recs, 1)
	assert.Equal(t, []string{"ctrl+k"}, recs[0].Keys)
	assert.Equal(t, "X1", recs[0].Command)
}

func TestPlatformGlobal(t *testing.T) {
	recs := mustRun(t, `
		if platform == "Linux" then
			binding({"ctrl+q"}, "exit")
		else
			binding({"super+q"}, "exit")
		end
	`)
	assert.Equal(t, []string{"ctrl+q"}, recs[0].Keys)
}

func TestEntryPointFunction(t *testing.T) {
	recs := mustRun(t, `
		function keybinding(key, cmd)
			key({"ctrl+1"}, "one")
			key({"ctrl+2"}, {cmd("two")})
		end
	`)
	require.Len(t, recs, 2)
	assert.Equal(t, "one", recs[0].Command)
	assert.Equal(t, binding.MultiCommand, recs[1].Command)
}

func TestPrintGoesToCallback(t *testing.T) {
	var lines []string
	b := binding.NewBuilder()
	err := RunString(context.Background(), "x.lua", `print("hello", 1)`, b, Options{
		Print: func(s string) { lines = append(lines, s) },
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"hello\t1"}, lines)
}

func TestTimeout(t *testing.T) {
	b := binding.NewBuilder()
	err := RunString(context.Background(), "loop.lua", `while true do end`, b, Options{Timeout: 50 * time.Millisecond})

	var se *ScriptError
	require.ErrorAs(t, err, &se)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRunFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keybindings.lua")
	require.NoError(t, os.WriteFile(path, []byte(`binding({"a"}, "cmd")`), 0o644))

	b := binding.NewBuilder()
	require.NoError(t, Run(context.Background(), path, b, Options{}))
	assert.Equal(t, 1, b.Len())
}

func TestRunMissingFile(t *testing.T) {
	b := binding.NewBuilder()
	err := Run(context.Background(), filepath.Join(t.TempDir(), "nope.lua"), b, Options{})

	var se *ScriptError
	require.ErrorAs(t, err, &se)
}

func TestFreshStatePerRun(t *testing.T) {
	_, err := run(t, `leaked = 1`)
	require.NoError(t, err)
	mustRun(t, `assert(leaked == nil)`)
}
