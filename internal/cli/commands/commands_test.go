package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luamagic/luamagic/internal/cli/config"
)

const shopSource = `package shop

//luamagic:structure
//luamagic:implementation
type Item struct {
	Name  string
	Price int ` + "`lua:\",readonly\"`" + `
}

//luamagic:function Item new
func NewItem(name string) Item { return Item{Name: name} }

func (i *Item) Discount(pct int) { i.Price -= i.Price * pct / 100 }

//luamagic:enumeration
type Rarity int

const (
	RarityCommon Rarity = iota
	RarityRare
)
`

// inTempDir runs the test from an empty directory so no config file or
// scan cache leaks between tests.
func inTempDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	oldWd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(oldWd) })

	color.NoColor = true
	t.Cleanup(func() { color.NoColor = false })
	return dir
}

func writeShop(t *testing.T, root string) string {
	t.Helper()
	dir := filepath.Join(root, "shop")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shop.go"), []byte(shopSource), 0o644))
	return dir
}

func execute(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestNewRootCommand(t *testing.T) {
	cmd := NewRootCommand()

	assert.Equal(t, "luamagic", cmd.Use)
	assert.NotEmpty(t, cmd.Short)
	assert.NotEmpty(t, cmd.Long)

	var names []string
	for _, sub := range cmd.Commands() {
		names = append(names, sub.Name())
	}
	for _, expected := range []string{"version", "init", "generate", "inspect", "docs", "run", "watch"} {
		assert.Contains(t, names, expected)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("no-color"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("verbose"))
}

func TestVersionCommand(t *testing.T) {
	inTempDir(t)
	Version = "1.0.0-test"
	GitCommit = "abc123"
	defer func() { Version, GitCommit = "dev", "unknown" }()

	out, _, err := execute(t, context.Background(), "version")
	require.NoError(t, err)
	assert.Contains(t, out, "luamagic version: 1.0.0-test")
	assert.Contains(t, out, "Git commit: abc123")
	assert.Contains(t, out, "Go version: go")
}

func TestGenerateCommand(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, stderr, err := execute(t, context.Background(), "generate", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "shop: 2 bound types")
	assert.Contains(t, out, "written")

	src, err := os.ReadFile(filepath.Join(dir, "luamagic_gen.go"))
	require.NoError(t, err)
	assert.Contains(t, string(src), "func declareItemLuaFields(ctx *binding.Context) error")

	// the default cache directory is populated
	entries, err := os.ReadDir(filepath.Join(root, ".luamagic", "cache"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	out, _, err = execute(t, context.Background(), "gen", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "up to date")
}

func TestGenerateCommand_Recursive(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plain"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "plain", "plain.go"), []byte("package plain\n"), 0o644))

	out, stderr, err := execute(t, context.Background(), "generate", "./...")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "shop: 2 bound types")
	assert.FileExists(t, filepath.Join(dir, "luamagic_gen.go"))
	assert.NoFileExists(t, filepath.Join(root, "plain", "luamagic_gen.go"))
}

func TestGenerateCommand_NothingAnnotated(t *testing.T) {
	inTempDir(t)

	_, stderr, err := execute(t, context.Background(), "generate", "./...")
	require.NoError(t, err)
	assert.Contains(t, stderr, "no annotated packages found")
}

func TestDocsCommand(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, stderr, err := execute(t, context.Background(), "docs", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "shop: docs/shop.md")
	assert.Contains(t, out, "shop: docs/shop.lua")

	stub, err := os.ReadFile(filepath.Join(root, "docs", "shop.lua"))
	require.NoError(t, err)
	assert.Contains(t, string(stub), "---@class Item")
	assert.Contains(t, string(stub), "function Item:discount(pct) end")
	assert.Contains(t, string(stub), "function Rarity.Rare() end")
}

func TestDocsCommand_FormatFlag(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, stderr, err := execute(t, context.Background(), "docs", "-f", "markdown", "-o", "ref", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "shop: ref/shop.md")
	assert.NotContains(t, out, "shop.lua")

	_, _, err = execute(t, context.Background(), "docs", "-f", "pdf", dir)
	assert.ErrorContains(t, err, "unknown docs format")
}

func TestGenerateCommand_OutputFlagAndConfig(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)
	require.NoError(t, os.WriteFile(config.FileName, []byte("generate:\n  output: bind_gen.go\n  cache: false\n"), 0o644))

	_, stderr, err := execute(t, context.Background(), "generate", dir)
	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(dir, "bind_gen.go"))
	assert.NoDirExists(t, filepath.Join(root, ".luamagic"))

	_, stderr, err = execute(t, context.Background(), "generate", "-o", "flag_gen.go", "--no-cache", dir)
	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(dir, "flag_gen.go"))
}

func TestGenerateCommand_ReportsScanErrors(t *testing.T) {
	root := inTempDir(t)
	dir := filepath.Join(root, "broken")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.go"), []byte("package broken\n\n//luamagic:compile Ghost\n"), 0o644))

	_, stderr, err := execute(t, context.Background(), "generate", dir)
	require.Error(t, err)
	assert.True(t, errors.As(err, new(reportedError)))
	assert.Contains(t, stderr, "GENERATE FAILED")
	assert.Contains(t, stderr, "CMP201")
}

func TestGenerateCommand_InvalidConfig(t *testing.T) {
	inTempDir(t)
	require.NoError(t, os.WriteFile(config.FileName, []byte("runtime:\n  borrow_policy: steal\n"), 0o644))

	_, stderr, err := execute(t, context.Background(), "generate")
	require.Error(t, err)
	assert.Contains(t, stderr, "CONFIGURATION ERROR")
}

func TestInspectCommand_Table(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, stderr, err := execute(t, context.Background(), "inspect", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "Item (structure+implementation)")
	assert.Contains(t, out, "Rarity (enumeration)")
	assert.Contains(t, out, "int, read-only")
	assert.Contains(t, out, "exclusive (pct int)")
	assert.Contains(t, out, "static")
	assert.Contains(t, out, "Compile requests")
}

func TestInspectCommand_JSON(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, stderr, err := execute(t, context.Background(), "inspect", dir, "--format", "json", "--type", "Item")
	require.NoError(t, err, stderr)

	var report packageReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "shop", report.Package)
	require.Len(t, report.Types, 1)
	item := report.Types[0]
	assert.Equal(t, []fieldReport{
		{Name: "name", GoName: "Name", Type: "string"},
		{Name: "price", GoName: "Price", Type: "int", ReadOnly: true},
	}, item.Fields)
	require.Len(t, item.Methods, 2)
	assert.Equal(t, methodReport{Name: "new", GoName: "NewItem", Receiver: "none", Signature: "(name string) Item"}, item.Methods[1])
	assert.Len(t, report.Compiles, 2)
}

func TestInspectCommand_YAML(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	out, _, err := execute(t, context.Background(), "inspect", dir, "-f", "yaml", "-t", "Rarity")
	require.NoError(t, err)
	assert.Contains(t, out, "package: shop")
	assert.Contains(t, out, "- name: Rarity")
	assert.Contains(t, out, "go_name: RarityRare")
}

func TestInspectCommand_Errors(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	_, stderr, err := execute(t, context.Background(), "inspect", dir, "--type", "Itme")
	require.Error(t, err)
	assert.Contains(t, stderr, "No bound type 'Itme'.")
	assert.Contains(t, stderr, "Did you mean: Item?")

	_, _, err = execute(t, context.Background(), "inspect", dir, "--format", "xml")
	assert.ErrorContains(t, err, "unsupported format: xml")
}

func TestRunCommand_Demo(t *testing.T) {
	inTempDir(t)

	out, stderr, err := execute(t, context.Background(), "run")
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "PlayerStatus.Idle\n")
	assert.Contains(t, out, "Player name:\tLuaHero\n")
	assert.Contains(t, out, "New player HP:\t70\n")
	assert.Contains(t, out, "Player HP after final hit:\t0\n")
	assert.Contains(t, out, "Player status:\tPlayerStatus.Attacking\n")
	assert.Contains(t, out, "Is alive?\tfalse\n")
}

func TestRunCommand_EvalAndFile(t *testing.T) {
	root := inTempDir(t)

	out, _, err := execute(t, context.Background(), "run", "-e", `print(Player.new("Ann").hp)`)
	require.NoError(t, err)
	assert.Equal(t, "100\n", out)

	script := filepath.Join(root, "fight.lua")
	require.NoError(t, os.WriteFile(script, []byte(`
		local p = Player.new("Bo")
		p:take_damage(120)
		print(p.hp, p:is_alive())
	`), 0o644))
	out, _, err = execute(t, context.Background(), "run", script, "--borrow", "wait")
	require.NoError(t, err)
	assert.Equal(t, "0\tfalse\n", out)
}

func TestRunCommand_ScriptError(t *testing.T) {
	inTempDir(t)

	_, stderr, err := execute(t, context.Background(), "run", "-e", `Player.new("x"):take_damage("lots")`)
	require.Error(t, err)
	assert.Contains(t, stderr, "SCRIPT FAILED: -e")
	assert.Contains(t, stderr, "RUN301")

	_, _, err = execute(t, context.Background(), "run", "--borrow", "steal", "-e", "")
	assert.ErrorContains(t, err, "unknown borrow policy")
}

func TestInitCommand(t *testing.T) {
	inTempDir(t)

	out, _, err := execute(t, context.Background(), "init")
	require.NoError(t, err)
	assert.Contains(t, out, "Created luamagic.yml")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)

	_, _, err = execute(t, context.Background(), "init")
	assert.ErrorContains(t, err, "already exists")
}

func TestInitCommand_Interactive(t *testing.T) {
	inTempDir(t)
	askInit = func(cfg *config.Config) error {
		cfg.Generate.Output = "lua_gen.go"
		cfg.Runtime.BorrowPolicy = "wait"
		return nil
	}
	defer func() { askInit = promptInit }()

	_, _, err := execute(t, context.Background(), "init", "-i", "--force")
	require.NoError(t, err)

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "lua_gen.go", cfg.Generate.Output)
	assert.Equal(t, "wait", cfg.Runtime.BorrowPolicy)
}

func TestGoFileName(t *testing.T) {
	assert.NoError(t, goFileName("bindings_gen.go"))
	assert.Error(t, goFileName("bindings_test.go"))
	assert.Error(t, goFileName("gen/bindings.go"))
	assert.Error(t, goFileName("bindings.txt"))
}

func TestWatchCommand_GeneratesUntilCancelled(t *testing.T) {
	root := inTempDir(t)
	dir := writeShop(t, root)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	out, stderr, err := execute(t, ctx, "watch", dir)
	require.NoError(t, err, stderr)
	assert.Contains(t, out, "regenerated")
	assert.Contains(t, out, "watching "+dir)
	assert.FileExists(t, filepath.Join(dir, "luamagic_gen.go"))
}
