package dispatch

import (
	"github.com/tidwall/gjson"

	"github.com/dshills/spk/internal/binding"
)

// ParseCommands decodes a command list. Accepted payloads are the args
// object of a composite binding ({"commands": [...]}), a whole key map
// record carrying such args, or a bare array of invocations. Entries that
// are not objects, or lack a string name, decode as stop markers.
func ParseCommands(data []byte) ([]binding.Invocation, error) {
	if !gjson.ValidBytes(data) {
		return nil, ErrInvalidPayload
	}

	root := gjson.ParseBytes(data)
	var list gjson.Result
	switch {
	case root.IsArray():
		list = root
	case root.Get(binding.CommandsArg).IsArray():
		list = root.Get(binding.CommandsArg)
	case root.Get("args." + binding.CommandsArg).IsArray():
		list = root.Get("args." + binding.CommandsArg)
	default:
		return nil, ErrNoCommands
	}

	items := list.Array()
	commands := make([]binding.Invocation, 0, len(items))
	for _, item := range items {
		commands = append(commands, parseInvocation(item))
	}
	return commands, nil
}

func parseInvocation(item gjson.Result) binding.Invocation {
	name := item.Get("command")
	if !item.IsObject() || name.Type != gjson.String {
		return binding.Invocation{}
	}

	inv := binding.Invocation{Command: name.Str}
	if args := item.Get("args"); args.IsObject() {
		inv.Args = binding.ArgsFromJSON(args)
	}
	return inv
}
