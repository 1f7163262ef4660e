package docs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
)

const shopSource = `package shop

// Item is something for sale.
//
//luamagic:structure
//luamagic:implementation
type Item struct {
	Name  string
	Price float64 ` + "`lua:\"price,readonly\"`" + `
	Tags  []string
	Raw   map[string]any
	Owner *Item
	Extra struct{}
}

// NewItem creates an item.
//
//luamagic:function Item new
func NewItem(name string, price float64) *Item { return &Item{Name: name, Price: price} }

// Discount lowers the price by pct percent.
func (i *Item) Discount(pct int) (float64, error) { return i.Price, nil }

func (i Item) Label() string { return i.Name }

//luamagic:enumeration
type Rarity uint8

const (
	Common Rarity = iota
	// Rare items cost | more.
	Rare
)

//luamagic:structure
type Hidden struct{ X int }

//luamagic:compile Item
//luamagic:compile Rarity variants
`

func scanShop(t *testing.T) *scanner.Package {
	t.Helper()
	f, err := scanner.ScanSource("shop.go", []byte(shopSource))
	if err != nil {
		t.Fatalf("ScanSource failed: %v", err)
	}
	pkg, err := scanner.Merge("testdata", []*scanner.File{f})
	if err != nil {
		t.Fatalf("Merge failed: %v", err)
	}
	return pkg
}

func TestExtract(t *testing.T) {
	doc := Extract(scanShop(t))

	if doc.Package != "shop" {
		t.Errorf("Expected package shop, got %s", doc.Package)
	}
	if len(doc.Types) != 2 {
		t.Fatalf("Expected 2 documented types (Hidden is never compiled), got %d", len(doc.Types))
	}

	item := doc.Types[0]
	if item.Name != "Item" || item.Kind != "structure+implementation" {
		t.Errorf("Unexpected type header: %s (%s)", item.Name, item.Kind)
	}
	if item.Doc != "Item is something for sale." {
		t.Errorf("Directive lines should not leak into docs, got %q", item.Doc)
	}

	wantTypes := map[string]string{
		"name":  "string",
		"price": "number",
		"tags":  "string[]",
		"raw":   "table<string, any>",
		"owner": "Item",
		"extra": "any",
	}
	for _, f := range item.Fields {
		if want := wantTypes[f.Name]; f.LuaType != want {
			t.Errorf("Field %s: expected Lua type %s, got %s", f.Name, want, f.LuaType)
		}
	}
	if !item.Fields[1].ReadOnly {
		t.Error("Expected price to be read-only")
	}

	if len(item.Methods) != 2 || len(item.Statics) != 1 {
		t.Fatalf("Expected 2 methods and 1 static, got %d and %d", len(item.Methods), len(item.Statics))
	}
	discount := item.Methods[0]
	if !discount.Raises || len(discount.Returns) != 1 || discount.Returns[0] != "number" {
		t.Errorf("Unexpected discount signature: %+v", discount)
	}
	if discount.Params[0].LuaType != "integer" {
		t.Errorf("Expected integer parameter, got %s", discount.Params[0].LuaType)
	}
	ctor := item.Statics[0]
	if ctor.Name != "new" || ctor.Returns[0] != "Item" {
		t.Errorf("Unexpected constructor: %+v", ctor)
	}

	rarity := doc.Types[1]
	if len(rarity.Variants) != 2 || rarity.Variants[1].Doc != "Rare items cost | more." {
		t.Errorf("Unexpected variants: %+v", rarity.Variants)
	}
}

func TestExtract_OnlyCompiledGroups(t *testing.T) {
	pkg := scanShop(t)
	pkg.Compiles = []scanner.Compile{{Type: "Item"}}
	pkg.Compiles[0].Options.Methods = true

	doc := Extract(pkg)
	if len(doc.Types) != 1 {
		t.Fatalf("Expected 1 type, got %d", len(doc.Types))
	}
	if len(doc.Types[0].Fields) != 0 {
		t.Error("Fields were not compiled and should not be documented")
	}
	if len(doc.Types[0].Methods) == 0 {
		t.Error("Expected methods to be documented")
	}
}

func TestMarkdownRenderer(t *testing.T) {
	out, err := (&MarkdownRenderer{}).Render(Extract(scanShop(t)))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	md := string(out)

	for _, want := range []string{
		"# Lua API: shop",
		"- [Item](#item) (structure+implementation)",
		"| `price` | number | read-only |  |",
		"#### `item:discount(pct)`",
		"Discount lowers the price by pct percent.",
		"- Raises a Lua error when the Go call fails.",
		"#### `Item.new(name, price)`",
		"| `Rarity.Rare()` | `Rare` | Rare items cost \\| more. |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("Markdown missing %q\n%s", want, md)
		}
	}
	if strings.Contains(md, "Hidden") {
		t.Error("Uncompiled types should not be documented")
	}
}

func TestMarkdownRenderer_Empty(t *testing.T) {
	out, err := (&MarkdownRenderer{}).Render(&Documentation{Package: "empty"})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !strings.Contains(string(out), "installs no globals") {
		t.Errorf("Unexpected output: %s", out)
	}
}

func TestStubRenderer(t *testing.T) {
	out, err := (&StubRenderer{}).Render(Extract(scanShop(t)))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	lua := string(out)

	if !strings.HasPrefix(lua, "---@meta shop\n"+StubHeader) {
		t.Errorf("Stub should open with the meta tag and header:\n%s", lua)
	}
	for _, want := range []string{
		"---Item is something for sale.\n---@class Item\n",
		"---@field price number (read-only)\n",
		"---@field tags string[]\n",
		"Item = {}\n",
		"---@param pct integer\n---@return number\nfunction Item:discount(pct) end\n",
		"---@param name string\n---@param price number\n---@return Item\nfunction Item.new(name, price) end\n",
		"---@return Rarity\nfunction Rarity.Common() end\n",
	} {
		if !strings.Contains(lua, want) {
			t.Errorf("Stub missing %q\n%s", want, lua)
		}
	}
}

func TestGenerator_Generate(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "docs")
	gen := NewGenerator(&Config{OutputDir: dir})

	written, err := gen.Generate(scanShop(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(written) != 2 {
		t.Fatalf("Expected 2 files, got %v", written)
	}
	for _, name := range []string{"shop.md", "shop.lua"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Errorf("Expected %s to be written: %v", name, err)
		}
	}
}

func TestGenerator_SingleFormat(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator(&Config{OutputDir: dir, Formats: []Format{FormatStubs}})

	written, err := gen.Generate(scanShop(t))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if len(written) != 1 || filepath.Base(written[0]) != "shop.lua" {
		t.Errorf("Expected only shop.lua, got %v", written)
	}
}

func TestGenerator_UnknownFormat(t *testing.T) {
	gen := NewGenerator(&Config{OutputDir: t.TempDir(), Formats: []Format{"pdf"}})
	if _, err := gen.Generate(scanShop(t)); err == nil {
		t.Error("Expected an error for an unknown format")
	}
}

func TestParseFormat(t *testing.T) {
	tests := map[string]Format{
		"markdown": FormatMarkdown,
		"md":       FormatMarkdown,
		"luals":    FormatStubs,
		"lua":      FormatStubs,
	}
	for name, want := range tests {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
	if _, err := ParseFormat("html"); err == nil {
		t.Error("Expected an error for html")
	}
}

func TestGameExampleDocs(t *testing.T) {
	dir := filepath.Join("..", "..", "examples", "game")
	pkg, err := scanner.Scan(context.Background(), dir, scanner.Options{Exclude: []string{"luamagic_gen.go"}})
	if err != nil {
		t.Fatalf("Scan failed: %v", err)
	}

	out, err := (&StubRenderer{}).Render(Extract(pkg))
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	for _, want := range []string{
		"---@field hp integer hit points, never below zero\n",
		"---@field status PlayerStatus\n",
		"function Player:take_damage(amount) end\n",
		"---@return boolean\nfunction Player:is_alive() end\n",
		"---PlayerStatusAttacking is set by scripts when a fight starts.\n---@return PlayerStatus\nfunction PlayerStatus.Attacking() end\n",
	} {
		if !strings.Contains(string(out), want) {
			t.Errorf("Stub missing %q\n%s", want, out)
		}
	}
}
