package docs

import (
	"fmt"
	"strings"
)

// StubHeader opens every stub file.
const StubHeader = "-- Code generated by luamagic. DO NOT EDIT."

// StubRenderer renders a LuaLS definition file so editors can complete
// and type-check scripts against the installed globals.
type StubRenderer struct{}

// FileName implements Renderer.
func (r *StubRenderer) FileName(doc *Documentation) string {
	return doc.Package + ".lua"
}

// Render implements Renderer.
func (r *StubRenderer) Render(doc *Documentation) ([]byte, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "---@meta %s\n%s\n", doc.Package, StubHeader)

	for _, t := range doc.Types {
		buf.WriteString("\n")
		writeComment(&buf, t.Doc)
		fmt.Fprintf(&buf, "---@class %s\n", t.Name)
		for _, f := range t.Fields {
			desc := f.Doc
			if f.ReadOnly {
				desc = strings.TrimSpace("(read-only) " + desc)
			}
			fmt.Fprintf(&buf, "---@field %s %s", f.Name, f.LuaType)
			if desc != "" {
				fmt.Fprintf(&buf, " %s", desc)
			}
			buf.WriteString("\n")
		}
		fmt.Fprintf(&buf, "%s = {}\n", t.Name)

		for _, m := range t.Methods {
			writeStubFunction(&buf, t.Name+":"+m.Name, m)
		}
		for _, m := range t.Statics {
			writeStubFunction(&buf, t.Name+"."+m.Name, m)
		}
		for _, v := range t.Variants {
			buf.WriteString("\n")
			writeComment(&buf, v.Doc)
			fmt.Fprintf(&buf, "---@return %s\nfunction %s.%s() end\n", t.Name, t.Name, v.Name)
		}
	}
	return []byte(buf.String()), nil
}

func writeStubFunction(buf *strings.Builder, name string, m *FunctionDoc) {
	buf.WriteString("\n")
	writeComment(buf, m.Doc)
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
		fmt.Fprintf(buf, "---@param %s %s\n", p.Name, p.LuaType)
	}
	for _, r := range m.Returns {
		fmt.Fprintf(buf, "---@return %s\n", r)
	}
	fmt.Fprintf(buf, "function %s(%s) end\n", name, strings.Join(names, ", "))
}

func writeComment(buf *strings.Builder, doc string) {
	if doc != "" {
		fmt.Fprintf(buf, "---%s\n", doc)
	}
}
