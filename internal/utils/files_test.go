package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		path := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestFindAnnotatedDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"game/player.go":      "package game\n\n//luamagic:structure\ntype Player struct{}\n",
		"game/status.go":      "package game\n\n//luamagic:enumeration\ntype Status int\n",
		"game/inner/util.go":  "package inner\n",
		"ui/widget.go":        "package ui\n\n//luamagic:implementation\ntype Widget struct{}\n",
		"tools/only_test.go":  "package tools\n\n//luamagic:structure\n",
		"testdata/fixture.go": "package fixture\n\n//luamagic:structure\n",
		"vendor/x/x.go":       "package x\n\n//luamagic:structure\n",
		".hidden/h.go":        "package h\n\n//luamagic:structure\n",
		"_examples/e/e.go":    "package e\n\n//luamagic:structure\n",
		"notes/readme.txt":    "//luamagic:structure\n",
		"tools/help.go":       "package tools\n\nconst usage = `\n  //luamagic:structure`\n",
		"root.go":             "package root\n",
	})

	dirs, err := FindAnnotatedDirs(root)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(root, "game"),
		filepath.Join(root, "ui"),
	}, dirs)
}

func TestFindAnnotatedDirs_Missing(t *testing.T) {
	_, err := FindAnnotatedDirs(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestExpandDirs(t *testing.T) {
	root := writeTree(t, map[string]string{
		"game/player.go": "package game\n\n//luamagic:structure\ntype Player struct{}\n",
	})

	dirs, err := ExpandDirs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, dirs)

	dirs, err = ExpandDirs([]string{"plain", root + "/..."})
	require.NoError(t, err)
	assert.Equal(t, []string{"plain", filepath.Join(root, "game")}, dirs)
}
