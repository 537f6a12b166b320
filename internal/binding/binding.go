package binding

// MultiCommand is the command name under which composite actions are
// stored. The editor-side dispatcher registers itself under this name.
const MultiCommand = "spk_multi_cmd"

// CommandsArg is the argument holding the sub-commands of a composite action.
const CommandsArg = "commands"

// Invocation is a single command call: a command name and optional
// arguments. It is used both for composite action entries and for the
// command descriptors returned by the DSL.
type Invocation struct {
	Command string `json:"command"`
	Args    *Args  `json:"args,omitempty"`
}

// NewInvocation creates an invocation. Empty argument mappings are dropped
// so they are omitted from the output.
func NewInvocation(name string, args *Args) (Invocation, error) {
	if name == "" {
		return Invocation{}, &ShapeError{Message: MsgName}
	}
	if args.Len() == 0 {
		args = nil
	}
	return Invocation{Command: name, Args: args}, nil
}

// Action is what a binding triggers: a single named command or an ordered
// list of invocations.
type Action struct {
	name      string
	commands  []Invocation
	composite bool
}

// Single returns an action running the named command.
func Single(name string) Action {
	return Action{name: name}
}

// Composite returns an action running cmds in order. An empty list is
// allowed and yields an inert binding.
func Composite(cmds ...Invocation) Action {
	out := make([]Invocation, len(cmds))
	copy(out, cmds)
	return Action{commands: out, composite: true}
}

// IsComposite reports whether the action is a list of commands.
func (a Action) IsComposite() bool {
	return a.composite
}

// Name returns the command name of a single action.
func (a Action) Name() string {
	return a.name
}

// Commands returns the invocations of a composite action.
func (a Action) Commands() []Invocation {
	return a.commands
}

// Record is one compiled key binding as written to the key map.
type Record struct {
	// Keys is the chord sequence, e.g. ["ctrl+k", "ctrl+b"].
	Keys []string `json:"keys"`

	// Command is the bound command, or MultiCommand for composite actions.
	Command string `json:"command"`

	// Args are the command arguments. Nil when the command takes none.
	Args *Args `json:"args,omitempty"`

	// Context holds the predicates the editor evaluates before firing.
	Context []any `json:"context,omitempty"`
}

// SubCommands returns the composite entries stored in a MultiCommand
// record, or nil for single-command records.
func (r Record) SubCommands() []Invocation {
	if r.Command != MultiCommand {
		return nil
	}
	v, ok := r.Args.Get(CommandsArg)
	if !ok {
		return nil
	}
	switch cmds := v.(type) {
	case []Invocation:
		return cmds
	case []any:
		return invocationsFrom(cmds)
	}
	return nil
}

// invocationsFrom converts decoded command entries. Entries without a
// string name become empty invocations, which end playback.
func invocationsFrom(items []any) []Invocation {
	out := make([]Invocation, 0, len(items))
	for _, item := range items {
		m, ok := item.(*Args)
		if !ok {
			out = append(out, Invocation{})
			continue
		}
		var inv Invocation
		if name, ok := m.Get("command"); ok {
			inv.Command, _ = name.(string)
		}
		if args, ok := m.Get("args"); ok {
			inv.Args, _ = args.(*Args)
		}
		out = append(out, inv)
	}
	return out
}
