package keymap

import (
	"fmt"
	"os"

	"github.com/tidwall/gjson"

	"github.com/dshills/spk/internal/binding"
)

// ReadFile loads a key map file written by WriteFile, or by hand.
func ReadFile(path string) ([]binding.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading key map: %w", err)
	}
	return Parse(path, data)
}

// Parse decodes key map data. Key and argument order is preserved.
func Parse(name string, data []byte) ([]binding.Record, error) {
	if !gjson.ValidBytes(data) {
		return nil, &ParseError{Path: name, Message: "invalid JSON"}
	}
	root := gjson.ParseBytes(data)
	if !root.IsArray() {
		return nil, &ParseError{Path: name, Message: "key map must be a JSON array"}
	}

	var records []binding.Record
	for i, item := range root.Array() {
		rec, err := parseRecord(item)
		if err != nil {
			return nil, &ParseError{Path: name, Message: fmt.Sprintf("entry %d: %v", i, err), Err: err}
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseRecord(item gjson.Result) (binding.Record, error) {
	if !item.IsObject() {
		return binding.Record{}, fmt.Errorf("expected an object")
	}

	var rec binding.Record
	for _, k := range item.Get("keys").Array() {
		rec.Keys = append(rec.Keys, k.String())
	}
	if len(rec.Keys) == 0 {
		return binding.Record{}, fmt.Errorf("missing keys")
	}

	rec.Command = item.Get("command").String()
	if rec.Command == "" {
		return binding.Record{}, fmt.Errorf("missing command")
	}

	if args := item.Get("args"); args.IsObject() {
		rec.Args = binding.ArgsFromJSON(args)
	}
	for _, pred := range item.Get("context").Array() {
		rec.Context = append(rec.Context, binding.ValueFromJSON(pred))
	}
	return rec, nil
}

// Lookup returns the record bound to keys. When several records share a
// chord sequence the last one wins, as it does in the editor.
func Lookup(records []binding.Record, keys []string) (binding.Record, error) {
	for i := len(records) - 1; i >= 0; i-- {
		if equalKeys(records[i].Keys, keys) {
			return records[i], nil
		}
	}
	return binding.Record{}, fmt.Errorf("%w: %v", ErrNotFound, keys)
}

func equalKeys(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
