// Package dsl runs user binding scripts written in Lua.
//
// Each run gets a fresh gopher-lua state with only the base, table,
// string and math libraries. Functions that load code (dofile, loadfile,
// load, require) are removed, and io, os, debug and package are never
// opened. The script sees the following globals:
//
//	binding(keys, action, ...)   register a binding
//	command(name [, args])       build a command descriptor
//	args{...}                    argument mapping for binding
//	context(key, op, operand, match_all)
//	platform                     "Linux", "OSX" or "Windows"
//
// A script looks like:
//
//	binding({"ctrl+k", "ctrl+b"}, "toggle_side_bar")
//	binding({"ctrl+alt+p"}, "prompt_select_workspace", args{new_window = true})
//	binding({"ctrl+d"}, {
//	    command("expand_selection", {to = "word"}),
//	    command("find_under_expand"),
//	}, context("selection_empty", "equal", false, true))
//
// Trailing arguments of binding are context predicates. A list of
// predicates is spliced into the context one level deep.
//
// If the script defines a global function named keybinding, it is called
// after the file body with binding and command as arguments.
package dsl
