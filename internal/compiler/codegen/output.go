package codegen

import (
	"bytes"
	"os"
	"path/filepath"
)

// WriteFile writes src to path unless the file already holds exactly src.
// It reports whether the file changed, which keeps watch mode from
// reacting to its own output.
func WriteFile(path string, src []byte) (bool, error) {
	if old, err := os.ReadFile(path); err == nil && bytes.Equal(old, src) {
		return false, nil
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".luamagic-*")
	if err != nil {
		return false, err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(src); err != nil {
		tmp.Close()
		return false, err
	}
	if err := tmp.Close(); err != nil {
		return false, err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return false, err
	}
	return true, os.Rename(tmp.Name(), path)
}
