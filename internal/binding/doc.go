// Package binding holds the compiled form of user key bindings.
//
// A compile pass creates a Builder, feeds it one Append call per binding
// declared by the user, and hands the resulting records to the keymap
// writer. Records keep the order in which they were declared: the editor
// lets later bindings shadow earlier ones, so the batch is never sorted or
// deduplicated.
//
// # Actions
//
// A binding triggers either a single command or a composite list of
// commands. Composite actions are stored under the MultiCommand marker
// and played back at runtime by the dispatch package:
//
//	b := binding.NewBuilder()
//	_ = b.Append([]string{"ctrl+k", "ctrl+b"}, binding.Single("toggle_side_bar"), nil)
//	_ = b.Append([]string{"ctrl+alt+d"}, binding.Composite(
//	    binding.Invocation{Command: "duplicate_line"},
//	    binding.Invocation{Command: "move", Args: binding.NewArgs().Set("by", "lines")},
//	), nil)
//
// # Arguments
//
// Args is an ordered mapping. Keys are emitted in insertion order so the
// generated key map matches the way the user wrote it.
package binding
