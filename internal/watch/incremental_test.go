package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luamagic/luamagic/internal/compiler/codegen"
)

const itemSource = "package shop\n\n//luamagic:structure\ntype Item struct{ Name string }\n"

func writeSource(t *testing.T, path, src string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
}

func TestRegenerator_FullBuildAndRebuild(t *testing.T) {
	dir := t.TempDir()
	item := filepath.Join(dir, "item.go")
	writeSource(t, item, itemSource)

	r := NewRegenerator(dir, codegen.Options{})
	result, err := r.FullBuild(context.Background())
	require.NoError(t, err)
	assert.True(t, result.Changed)
	assert.FileExists(t, filepath.Join(dir, codegen.DefaultOutput))

	// touching a file without changing it is skipped
	writeSource(t, item, itemSource)
	result, err = r.Rebuild(context.Background(), []string{item})
	require.NoError(t, err)
	assert.Nil(t, result)

	writeSource(t, item, itemSource+"\n//luamagic:structure\ntype Cart struct{ Items []string }\n")
	result, err = r.Rebuild(context.Background(), []string{item})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.True(t, result.Changed)
	assert.Len(t, result.Package.Types, 2)
}

func TestRegenerator_IgnoresOutputAndTests(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, filepath.Join(dir, "item.go"), itemSource)
	out := filepath.Join(dir, codegen.DefaultOutput)
	writeSource(t, out, "package shop\n")
	test := filepath.Join(dir, "item_test.go")
	writeSource(t, test, "package shop\n")

	r := NewRegenerator(dir, codegen.Options{})
	assert.Empty(t, r.Changed([]string{out, test, filepath.Join(dir, "README.md")}))
	assert.Contains(t, r.Ignored(), codegen.DefaultOutput)
	assert.Equal(t, []string{"*.go"}, r.Patterns())
}

func TestRegenerator_DeletedFileCountsOnce(t *testing.T) {
	dir := t.TempDir()
	extra := filepath.Join(dir, "extra.go")
	writeSource(t, filepath.Join(dir, "item.go"), itemSource)
	writeSource(t, extra, "package shop\n")

	r := NewRegenerator(dir, codegen.Options{})
	_, err := r.FullBuild(context.Background())
	require.NoError(t, err)

	require.NoError(t, os.Remove(extra))
	assert.Equal(t, []string{extra}, r.Changed([]string{extra}))
	assert.Empty(t, r.Changed([]string{extra}))
}

func TestRegenerator_ReportsScanErrors(t *testing.T) {
	dir := t.TempDir()
	item := filepath.Join(dir, "item.go")
	writeSource(t, item, itemSource)

	r := NewRegenerator(dir, codegen.Options{})
	_, err := r.FullBuild(context.Background())
	require.NoError(t, err)

	writeSource(t, item, "package shop\n\n//luamagic:bogus\n")
	_, err = r.Rebuild(context.Background(), []string{item})
	assert.ErrorContains(t, err, "unknown directive")
}
