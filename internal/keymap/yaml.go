package keymap

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/dshills/spk/internal/binding"
)

// LoadYAML reads a declarative binding list from path into b.
//
// The document is a sequence of entries:
//
//	- keys: [ctrl+k, ctrl+b]
//	  command: toggle_side_bar
//	- keys: [ctrl+alt+d]
//	  commands:
//	    - command: duplicate_line
//	    - {command: move, args: {by: lines, forward: true}}
//	  context:
//	    - {key: selection_empty, operator: equal, operand: true}
//
// Mapping order is preserved in the written key map.
func LoadYAML(path string, b *binding.Builder) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening bindings: %w", err)
	}
	defer f.Close()

	return DecodeYAML(path, f, b)
}

// DecodeYAML reads a declarative binding list from r. name is used in
// error positions.
func DecodeYAML(name string, r io.Reader, b *binding.Builder) error {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil
		}
		return &ParseError{Path: name, Message: err.Error(), Err: err}
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind != yaml.SequenceNode {
		return &ParseError{Path: name, Line: root.Line, Message: "bindings must be a list"}
	}

	d := &yamlDecoder{name: name}
	for _, entry := range root.Content {
		if err := d.entry(entry, b); err != nil {
			return err
		}
	}
	return nil
}

type yamlDecoder struct {
	name string
}

func (d *yamlDecoder) shape(n *yaml.Node, msg string) *binding.ShapeError {
	return (&binding.ShapeError{Message: msg}).At(fmt.Sprintf("%s:%d:", d.name, n.Line))
}

func (d *yamlDecoder) entry(n *yaml.Node, b *binding.Builder) error {
	if n.Kind != yaml.MappingNode {
		return d.shape(n, "binding must be a mapping")
	}

	var (
		keys        []string
		keysSeen    bool
		action      binding.Action
		hasCommand  bool
		hasCommands bool
		args        *binding.Args
		context     []any
	)

	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		switch k.Value {
		case "keys":
			keysSeen = true
			var ok bool
			if keys, ok = d.keys(v); !ok {
				return d.shape(v, binding.MsgKeys)
			}
		case "command":
			if v.Kind != yaml.ScalarNode || v.ShortTag() != "!!str" || v.Value == "" {
				return d.shape(v, binding.MsgAction)
			}
			hasCommand = true
			action = binding.Single(v.Value)
		case "commands":
			cmds, err := d.commands(v)
			if err != nil {
				return err
			}
			hasCommands = true
			action = binding.Composite(cmds...)
		case "args":
			a, err := d.mapping(v)
			if err != nil {
				return err
			}
			args = a
		case "context":
			preds, err := d.context(v)
			if err != nil {
				return err
			}
			context = preds
		default:
			return d.shape(k, fmt.Sprintf("unknown field %q", k.Value))
		}
	}

	if !keysSeen {
		return d.shape(n, binding.MsgKeys)
	}
	if hasCommand == hasCommands {
		return d.shape(n, binding.MsgAction)
	}

	if err := b.Append(keys, action, args, context...); err != nil {
		if shape, ok := err.(*binding.ShapeError); ok {
			return shape.At(fmt.Sprintf("%s:%d:", d.name, n.Line))
		}
		return err
	}
	return nil
}

func (d *yamlDecoder) keys(n *yaml.Node) ([]string, bool) {
	if n.Kind != yaml.SequenceNode || len(n.Content) == 0 {
		return nil, false
	}
	keys := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || item.Value == "" {
			return nil, false
		}
		keys = append(keys, item.Value)
	}
	return keys, true
}

func (d *yamlDecoder) commands(n *yaml.Node) ([]binding.Invocation, error) {
	if n.Kind != yaml.SequenceNode {
		return nil, d.shape(n, binding.MsgAction)
	}
	cmds := make([]binding.Invocation, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.MappingNode {
			return nil, d.shape(item, binding.MsgAction)
		}
		var inv binding.Invocation
		named := false
		for i := 0; i+1 < len(item.Content); i += 2 {
			k, v := item.Content[i], item.Content[i+1]
			switch k.Value {
			case "command":
				if v.Kind != yaml.ScalarNode {
					return nil, d.shape(v, binding.MsgName)
				}
				inv.Command = v.Value
				named = true
			case "args":
				a, err := d.mapping(v)
				if err != nil {
					return nil, err
				}
				if a.Len() > 0 {
					inv.Args = a
				}
			default:
				return nil, d.shape(k, fmt.Sprintf("unknown field %q", k.Value))
			}
		}
		if !named {
			return nil, d.shape(item, binding.MsgName)
		}
		cmds = append(cmds, inv)
	}
	return cmds, nil
}

func (d *yamlDecoder) context(n *yaml.Node) ([]any, error) {
	switch n.Kind {
	case yaml.MappingNode:
		a, err := d.mapping(n)
		if err != nil {
			return nil, err
		}
		return []any{a}, nil
	case yaml.SequenceNode:
		preds := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			if item.Kind != yaml.MappingNode {
				return nil, d.shape(item, binding.MsgContext)
			}
			a, err := d.mapping(item)
			if err != nil {
				return nil, err
			}
			preds = append(preds, a)
		}
		return preds, nil
	default:
		return nil, d.shape(n, binding.MsgContext)
	}
}

func (d *yamlDecoder) mapping(n *yaml.Node) (*binding.Args, error) {
	if n.Kind != yaml.MappingNode {
		return nil, d.shape(n, "expected a mapping")
	}
	v, err := d.value(n)
	if err != nil {
		return nil, err
	}
	return v.(*binding.Args), nil
}

// value converts a node into the binding value model.
func (d *yamlDecoder) value(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return d.value(n.Alias)
	case yaml.MappingNode:
		args := binding.NewArgs()
		for i := 0; i+1 < len(n.Content); i += 2 {
			k, v := n.Content[i], n.Content[i+1]
			val, err := d.value(v)
			if err != nil {
				return nil, err
			}
			args.Set(k.Value, val)
		}
		return args, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, item := range n.Content {
			val, err := d.value(item)
			if err != nil {
				return nil, err
			}
			out = append(out, val)
		}
		return out, nil
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, &ParseError{Path: d.name, Line: n.Line, Message: err.Error(), Err: err}
		}
		switch num := v.(type) {
		case int:
			return int64(num), nil
		case uint64:
			return float64(num), nil
		}
		return v, nil
	default:
		return nil, d.shape(n, "unsupported value")
	}
}
