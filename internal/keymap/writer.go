package keymap

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dshills/spk/internal/binding"
)

// Marshal encodes records as an indented JSON array.
func Marshal(records []binding.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, records); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Encode writes records to w as an indented JSON array followed by a
// newline.
func Encode(w io.Writer, records []binding.Record) error {
	if records == nil {
		records = []binding.Record{}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(records); err != nil {
		return fmt.Errorf("encoding key map: %w", err)
	}
	return nil
}

// WriteFile replaces the file at path with the encoded records.
//
// The data is written to a temporary file in the destination directory
// and renamed over path, so a failed write leaves the previous key map in
// place. Missing parent directories are created.
func WriteFile(path string, records []binding.Record) error {
	data, err := Marshal(records)
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating key map directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".spk-keymap-*")
	if err != nil {
		return fmt.Errorf("creating temporary key map: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing key map: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing key map: %w", err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		return fmt.Errorf("writing key map: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replacing key map %s: %w", path, err)
	}
	return nil
}
