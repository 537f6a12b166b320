package dispatch

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/spk/internal/binding"
	"github.com/dshills/spk/internal/keymap"
)

func invocations(names ...string) []binding.Invocation {
	out := make([]binding.Invocation, len(names))
	for i, n := range names {
		out[i] = binding.Invocation{Command: n}
	}
	return out
}

func TestDispatchStopMarkers(t *testing.T) {
	tests := []struct {
		name     string
		commands []binding.Invocation
		want     []string
	}{
		{"empty list", nil, []string{}},
		{"only stop marker", invocations(""), []string{}},
		{"stop in the middle", invocations("a", "", "b"), []string{"a"}},
		{"all run", invocations("a", "b", "c"), []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &RecordingRunner{}
			n, err := Dispatch(context.Background(), r, tt.commands)
			require.NoError(t, err)
			assert.Equal(t, len(tt.want), n)
			assert.Equal(t, tt.want, r.Names())
		})
	}
}

func TestDispatchRunnerFailureStops(t *testing.T) {
	boom := errors.New("boom")
	r := &RecordingRunner{Fail: func(name string) error {
		if name == "b" {
			return boom
		}
		return nil
	}}

	n, err := Dispatch(context.Background(), r, invocations("a", "b", "c"))

	assert.Equal(t, 1, n)
	assert.ErrorIs(t, err, boom)
	var re *RunError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)
	assert.Equal(t, "b", re.Command)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestDispatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := &RecordingRunner{}
	n, err := Dispatch(ctx, r, invocations("a"))
	assert.Zero(t, n)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, r.Calls())
}

func TestDispatchPassesArgs(t *testing.T) {
	args := binding.NewArgs().Set("x", int64(1))
	r := &RecordingRunner{}

	_, err := Dispatch(context.Background(), r, []binding.Invocation{{Command: "a", Args: args}})
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 1)
	assert.Same(t, args, calls[0].Args)
}

func TestDispatchRecord(t *testing.T) {
	composite := binding.Record{
		Keys:    []string{"ctrl+d"},
		Command: binding.MultiCommand,
		Args: binding.NewArgs().Set(binding.CommandsArg, []binding.Invocation{
			{Command: "c1"},
			{Command: "c2"},
		}),
	}
	r := &RecordingRunner{}
	n, err := DispatchRecord(context.Background(), r, composite)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"c1", "c2"}, r.Names())

	single := binding.Record{Keys: []string{"a"}, Command: "save"}
	r = &RecordingRunner{}
	n, err = DispatchRecord(context.Background(), r, single)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"save"}, r.Names())
}

func TestParseCommands(t *testing.T) {
	tests := []struct {
		name string
		data string
		want []string
	}{
		{"bare array", `[{"command":"a"},{"command":"b"}]`, []string{"a", "b"}},
		{"args object", `{"commands":[{"command":"a"}]}`, []string{"a"}},
		{"record", `{"keys":["x"],"command":"spk_multi_cmd","args":{"commands":[{"command":"a"}]}}`, []string{"a"}},
		{"empty", `[]`, []string{}},
		{"stop markers", `[{"command":"a"},{"command":""},{},5]`, []string{"a", "", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmds, err := ParseCommands([]byte(tt.data))
			require.NoError(t, err)
			names := make([]string, len(cmds))
			for i, c := range cmds {
				names[i] = c.Command
			}
			assert.Equal(t, tt.want, names)
		})
	}
}

func TestParseCommandsArgsOrder(t *testing.T) {
	cmds, err := ParseCommands([]byte(`[{"command":"a","args":{"z":1,"a":"two","m":[true]}}]`))
	require.NoError(t, err)
	require.Len(t, cmds, 1)
	assert.Equal(t, []string{"z", "a", "m"}, cmds[0].Args.Keys())

	v, ok := cmds[0].Args.Get("z")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}

func TestParseCommandsErrors(t *testing.T) {
	_, err := ParseCommands([]byte(`{not json`))
	assert.ErrorIs(t, err, ErrInvalidPayload)

	_, err = ParseCommands([]byte(`{"command":"a"}`))
	assert.ErrorIs(t, err, ErrNoCommands)
}

func TestParsedPayloadDispatch(t *testing.T) {
	cmds, err := ParseCommands([]byte(`[{"command":"a"},{"command":""},{"command":"b"}]`))
	require.NoError(t, err)

	r := &RecordingRunner{}
	n, err := Dispatch(context.Background(), r, cmds)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"a"}, r.Names())
}

func TestFormatInvocation(t *testing.T) {
	s, err := FormatInvocation("save", nil)
	require.NoError(t, err)
	assert.Equal(t, "save", s)

	s, err = FormatInvocation("insert", binding.NewArgs().Set("characters", "<a&b>"))
	require.NoError(t, err)
	assert.Equal(t, `insert {"characters":"<a&b>"}`, s)
}

func TestPrintRunner(t *testing.T) {
	var buf bytes.Buffer
	r := PrintRunner{W: &buf}

	_, err := Dispatch(context.Background(), r, []binding.Invocation{
		{Command: "a"},
		{Command: "b", Args: binding.NewArgs().Set("n", int64(2))},
	})
	require.NoError(t, err)
	assert.Equal(t, "a\nb {\"n\":2}\n", buf.String())
}

func TestExecRunnerArgv(t *testing.T) {
	r, err := NewExecRunner(`subl --background "/opt/my editor"`, nil)
	require.NoError(t, err)

	argv, err := r.Argv("move", binding.NewArgs().Set("by", "lines"))
	require.NoError(t, err)
	assert.Equal(t, []string{
		"subl", "--background", "/opt/my editor",
		"--command", `move {"by":"lines"}`,
	}, argv)
}

func TestExecRunnerDefaults(t *testing.T) {
	r, err := NewExecRunner("   ", nil)
	require.NoError(t, err)

	argv, err := r.Argv("save", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultCommandLine, "--command", "save"}, argv)

	_, err = NewExecRunner(`subl "unterminated`, nil)
	assert.Error(t, err)
}

func TestExecRunnerRunsProcess(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true not available")
	}
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false not available")
	}

	ok, err := NewExecRunner("true", nil)
	require.NoError(t, err)
	assert.NoError(t, ok.RunCommand(context.Background(), "a", nil))

	bad, err := NewExecRunner("false", nil)
	require.NoError(t, err)
	n, err := Dispatch(context.Background(), bad, invocations("a", "b"))
	assert.Zero(t, n)
	assert.Error(t, err)
}

func TestDispatchParsedKeymapRecord(t *testing.T) {
	records, err := keymap.Parse("test", []byte(`[
		{"keys":["ctrl+d"],"command":"spk_multi_cmd","args":{"commands":[
			{"command":"c1"},
			{"command":"c2","args":{"x":1}},
			{"command":""},
			{"command":"c3"}
		]}}
	]`))
	require.NoError(t, err)
	rec, err := keymap.Lookup(records, []string{"ctrl+d"})
	require.NoError(t, err)

	r := &RecordingRunner{}
	n, err := DispatchRecord(context.Background(), r, rec)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"c1", "c2"}, r.Names())

	v, ok := r.Calls()[1].Args.Get("x")
	require.True(t, ok)
	assert.Equal(t, int64(1), v)
}
