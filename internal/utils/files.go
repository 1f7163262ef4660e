package utils

import (
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Marker is the directive prefix that makes a package worth scanning.
const Marker = "//luamagic:"

// FindAnnotatedDirs recursively finds the package directories under root
// whose non-test Go files carry at least one luamagic directive at the
// start of a line. Hidden, underscore-prefixed, testdata and vendor
// directories are skipped, as the go tool does.
func FindAnnotatedDirs(root string) ([]string, error) {
	var dirs []string
	found := make(map[string]bool)

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			if path != root && ignoredDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}

		name := d.Name()
		if filepath.Ext(name) != ".go" || strings.HasSuffix(name, "_test.go") {
			return nil
		}
		dir := filepath.Dir(path)
		if found[dir] {
			return nil
		}

		src, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if hasDirective(src) {
			found[dir] = true
			dirs = append(dirs, dir)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	sort.Strings(dirs)
	return dirs, nil
}

func hasDirective(src []byte) bool {
	return bytes.HasPrefix(src, []byte(Marker)) || bytes.Contains(src, []byte("\n"+Marker))
}

func ignoredDir(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
		name == "testdata" || name == "vendor"
}

// ExpandDirs resolves command line package arguments. An argument ending
// in "/..." expands to every annotated directory beneath it; others are
// kept as given. No arguments means the current directory.
func ExpandDirs(args []string) ([]string, error) {
	if len(args) == 0 {
		return []string{"."}, nil
	}

	var out []string
	for _, arg := range args {
		root, ok := strings.CutSuffix(filepath.ToSlash(arg), "/...")
		if !ok {
			if arg != "..." {
				out = append(out, arg)
				continue
			}
			root = "."
		}
		if root == "" {
			root = "."
		}
		dirs, err := FindAnnotatedDirs(filepath.FromSlash(root))
		if err != nil {
			return nil, err
		}
		out = append(out, dirs...)
	}
	return out, nil
}
