// Package keymap reads and writes editor key map files.
//
// The written format is a JSON array with one object per binding and
// two-space indentation:
//
//	[
//	  {
//	    "keys": [
//	      "ctrl+k",
//	      "ctrl+b"
//	    ],
//	    "command": "toggle_side_bar"
//	  }
//	]
//
// The package also loads declarative YAML binding lists, an alternative to
// Lua scripts for users who only need static bindings.
package keymap
