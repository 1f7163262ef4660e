// Package codegen emits the Go source that declares a scanned package's
// bound types into a binding.Context and compiles their adapters.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
	"github.com/luamagic/luamagic/runtime/binding"
)

// BindingImport is the import path of the runtime package generated code uses.
const BindingImport = "github.com/luamagic/luamagic/runtime/binding"

// Header marks generated files.
const Header = "// Code generated by luamagic. DO NOT EDIT."

// Generator transforms a scanned package into Go code
type Generator struct {
	buf     *bytes.Buffer
	indent  int
	imports map[string]string
	bound   map[string]bool
}

// NewGenerator creates a new code generator
func NewGenerator() *Generator {
	return &Generator{
		buf:     &bytes.Buffer{},
		imports: make(map[string]string),
		bound:   make(map[string]bool),
	}
}

// Generate returns the gofmt-formatted source for pkg. The package is
// re-checked first so invalid declarations never reach the output.
func (g *Generator) Generate(pkg *scanner.Package) ([]byte, error) {
	if err := pkg.Check(); err != nil {
		return nil, err
	}
	g.reset()
	for _, t := range pkg.Types {
		g.bound[t.Name] = true
	}

	var body bytes.Buffer
	g.buf = &body
	var declares []string

	for _, t := range pkg.Types {
		g.writeLine("func (*%s) LuaTypeName() string { return %q }", t.Name, t.Name)
		g.writeLine("")

		if t.HasFields() {
			declares = append(declares, g.generateFields(t))
		}
		if t.HasMethods() {
			declares = append(declares, g.generateMethods(t))
		}
		if t.HasVariants() {
			declares = append(declares, g.generateVariants(t))
		}
	}
	g.generateAdapters(declares, pkg.Compiles)

	var out bytes.Buffer
	g.buf = &out
	g.writeLine(Header)
	g.writeLine("")
	g.writeLine("package %s", pkg.Name)
	g.writeLine("")
	g.generateImports()
	out.Write(body.Bytes())

	src, err := format.Source(out.Bytes())
	if err != nil {
		return nil, fmt.Errorf("generated code for package %s does not parse: %w", pkg.Name, err)
	}
	return src, nil
}

func (g *Generator) reset() {
	g.buf.Reset()
	g.indent = 0
	g.imports = map[string]string{BindingImport: "binding"}
	g.bound = make(map[string]bool)
}

// writeLine writes a formatted line with proper indentation
func (g *Generator) writeLine(format string, args ...any) {
	if format == "" {
		g.buf.WriteString("\n")
		return
	}
	for i := 0; i < g.indent; i++ {
		g.buf.WriteString("\t")
	}
	if len(args) > 0 {
		fmt.Fprintf(g.buf, format, args...)
	} else {
		g.buf.WriteString(format)
	}
	g.buf.WriteString("\n")
}

func (g *Generator) addImports(imports []scanner.Import) {
	for _, imp := range imports {
		g.imports[imp.Path] = imp.Name
	}
}

func (g *Generator) generateImports() {
	paths := make([]string, 0, len(g.imports))
	for p := range g.imports {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	g.writeLine("import (")
	g.indent++
	for _, p := range paths {
		if name := g.imports[p]; name != path.Base(p) {
			g.writeLine("%s %q", name, p)
		} else {
			g.writeLine("%q", p)
		}
	}
	g.indent--
	g.writeLine(")")
	g.writeLine("")
}

func declareName(t *scanner.Type, group string) string {
	return "declare" + t.Name + "Lua" + group
}

func (g *Generator) generateFields(t *scanner.Type) string {
	name := declareName(t, "Fields")
	g.writeLine("func %s(ctx *binding.Context) error {", name)
	g.indent++
	g.writeLine("return ctx.DeclareFields(%q,", t.Name)
	g.indent++
	for _, f := range t.Fields {
		g.addImports(f.Imports)
		g.writeLine("binding.FieldBinding{")
		g.indent++
		g.writeLine("Name: %q,", f.LuaName)
		g.writeLine("Type: %q,", f.Type)
		if f.ReadOnly {
			g.writeLine("ReadOnly: true,")
		}
		if g.bound[f.Type] {
			g.writeLine("Get: func(self any) any {")
			g.indent++
			g.writeLine("v := self.(*%s).%s", t.Name, f.GoName)
			g.writeLine("return &v")
			g.indent--
			g.writeLine("},")
		} else {
			g.writeLine("Get: func(self any) any { return self.(*%s).%s },", t.Name, f.GoName)
		}
		if !f.ReadOnly {
			g.writeLine("Set: func(self any, value binding.Value) error {")
			g.indent++
			g.writeLine("v, err := binding.Decode[%s](value)", f.Type)
			g.writeErrCheck()
			g.writeLine("self.(*%s).%s = v", t.Name, f.GoName)
			g.writeLine("return nil")
			g.indent--
			g.writeLine("},")
		}
		g.indent--
		g.writeLine("},")
	}
	g.indent--
	g.writeLine(")")
	g.indent--
	g.writeLine("}")
	g.writeLine("")
	return name
}

func (g *Generator) generateMethods(t *scanner.Type) string {
	name := declareName(t, "Methods")
	g.writeLine("func %s(ctx *binding.Context) error {", name)
	g.indent++
	g.writeLine("return ctx.DeclareMethods(%q,", t.Name)
	g.indent++
	for _, m := range t.Methods {
		g.addImports(m.Imports)
		g.generateMethod(t, m)
	}
	g.indent--
	g.writeLine(")")
	g.indent--
	g.writeLine("}")
	g.writeLine("")
	return name
}

func (g *Generator) generateMethod(t *scanner.Type, m scanner.Callable) {
	g.writeLine("binding.MethodBinding{")
	g.indent++
	g.writeLine("Name: %q,", m.LuaName)
	g.writeLine("Receiver: binding.%s,", receiverConst(m.Receiver))
	if len(m.Params) > 0 {
		types := make([]string, len(m.Params))
		for i, p := range m.Params {
			types[i] = p.Type
		}
		g.writeLine("Params: %s,", stringSlice(types))
	}
	if len(m.Results) > 0 {
		g.writeLine("Results: %s,", stringSlice(m.Results))
	}

	self := "self"
	if m.Receiver == binding.ReceiverNone {
		self = "_"
	}
	g.writeLine("Func: func(c *binding.Call, %s any) error {", self)
	g.indent++

	args := make([]string, len(m.Params))
	for i, p := range m.Params {
		args[i] = fmt.Sprintf("a%d", i)
		g.writeLine("a%d, err := binding.Arg[%s](c, %d)", i, p.Type, i)
		g.writeErrCheck()
	}

	callee := m.GoName
	if m.Receiver != binding.ReceiverNone {
		callee = fmt.Sprintf("self.(*%s).%s", t.Name, m.GoName)
	}
	call := fmt.Sprintf("%s(%s)", callee, strings.Join(args, ", "))

	values := m.Results
	if m.ReturnsError() {
		values = values[:len(values)-1]
	}

	switch {
	case len(m.Results) == 0:
		g.writeLine(call)
		g.writeLine("return nil")
	case len(values) == 0:
		g.writeLine("return %s", call)
	default:
		lhs := make([]string, len(values))
		ret := make([]string, len(values))
		for i, r := range values {
			lhs[i] = fmt.Sprintf("r%d", i)
			ret[i] = lhs[i]
			if g.bound[r] {
				ret[i] = "&" + lhs[i]
			}
		}
		if m.ReturnsError() {
			g.writeLine("%s, err := %s", strings.Join(lhs, ", "), call)
			g.writeErrCheck()
		} else {
			g.writeLine("%s := %s", strings.Join(lhs, ", "), call)
		}
		g.writeLine("return c.Return(%s)", strings.Join(ret, ", "))
	}

	g.indent--
	g.writeLine("},")
	g.indent--
	g.writeLine("},")
}

func (g *Generator) generateVariants(t *scanner.Type) string {
	name := declareName(t, "Variants")
	g.writeLine("func %s(ctx *binding.Context) error {", name)
	g.indent++
	g.writeLine("return ctx.DeclareVariants(%q,", t.Name)
	g.indent++
	for _, v := range t.Variants {
		g.writeLine("binding.VariantBinding{")
		g.indent++
		g.writeLine("Name: %q,", v.LuaName)
		g.writeLine("New: func() any {")
		g.indent++
		g.writeLine("v := %s", v.GoName)
		g.writeLine("return &v")
		g.indent--
		g.writeLine("},")
		g.writeLine("Is: func(self any) bool { return *self.(*%s) == %s },", t.Name, v.GoName)
		g.indent--
		g.writeLine("},")
	}
	g.indent--
	g.writeLine(")")
	g.indent--
	g.writeLine("}")
	g.writeLine("")
	return name
}

func (g *Generator) generateAdapters(declares []string, compiles []scanner.Compile) {
	g.writeLine("// LuaAdapters declares the bound types of this package into a new")
	g.writeLine("// context and compiles their adapters, ready for binding.Load.")
	g.writeLine("func LuaAdapters(opts ...binding.Option) ([]*binding.Adapter, error) {")
	g.indent++
	g.writeLine("ctx := binding.NewContext(opts...)")
	g.writeLine("for _, declare := range []func(*binding.Context) error{")
	g.indent++
	for _, d := range declares {
		g.writeLine("%s,", d)
	}
	g.indent--
	g.writeLine("} {")
	g.indent++
	g.writeLine("if err := declare(ctx); err != nil {")
	g.indent++
	g.writeLine("return nil, err")
	g.indent--
	g.writeLine("}")
	g.indent--
	g.writeLine("}")
	g.writeLine("return binding.CompileAll(ctx, []binding.CompileRequest{")
	g.indent++
	for _, c := range compiles {
		g.writeLine("{TypeID: %q, Options: %s},", c.Type, optionsLiteral(c.Options))
	}
	g.indent--
	g.writeLine("})")
	g.indent--
	g.writeLine("}")
}

func (g *Generator) writeErrCheck() {
	g.writeLine("if err != nil {")
	g.indent++
	g.writeLine("return err")
	g.indent--
	g.writeLine("}")
}

func receiverConst(k binding.ReceiverKind) string {
	switch k {
	case binding.ReceiverShared:
		return "ReceiverShared"
	case binding.ReceiverExclusive:
		return "ReceiverExclusive"
	default:
		return "ReceiverNone"
	}
}

func stringSlice(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = strconv.Quote(s)
	}
	return "[]string{" + strings.Join(quoted, ", ") + "}"
}

func optionsLiteral(o binding.CompileOptions) string {
	var parts []string
	if o.Fields {
		parts = append(parts, "Fields: true")
	}
	if o.Methods {
		parts = append(parts, "Methods: true")
	}
	if o.Variants {
		parts = append(parts, "Variants: true")
	}
	return "binding.CompileOptions{" + strings.Join(parts, ", ") + "}"
}
