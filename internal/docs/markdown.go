package docs

import (
	"fmt"
	"strings"
)

// MarkdownRenderer renders a script author's reference in Markdown
type MarkdownRenderer struct{}

// FileName implements Renderer.
func (r *MarkdownRenderer) FileName(doc *Documentation) string {
	return doc.Package + ".md"
}

// Render implements Renderer.
func (r *MarkdownRenderer) Render(doc *Documentation) ([]byte, error) {
	var buf strings.Builder

	fmt.Fprintf(&buf, "# Lua API: %s\n\n", doc.Package)
	if len(doc.Types) == 0 {
		buf.WriteString("This package installs no globals.\n")
		return []byte(buf.String()), nil
	}

	buf.WriteString("## Globals\n\n")
	for _, t := range doc.Types {
		fmt.Fprintf(&buf, "- [%s](#%s) (%s)\n", t.Name, strings.ToLower(t.Name), t.Kind)
	}
	buf.WriteString("\n")

	for _, t := range doc.Types {
		r.writeType(&buf, t)
	}
	return []byte(strings.TrimRight(buf.String(), "\n") + "\n"), nil
}

func (r *MarkdownRenderer) writeType(buf *strings.Builder, t *TypeDoc) {
	fmt.Fprintf(buf, "## %s\n\n", t.Name)
	if t.Doc != "" {
		fmt.Fprintf(buf, "%s\n\n", t.Doc)
	}

	if len(t.Fields) > 0 {
		buf.WriteString("### Fields\n\n")
		buf.WriteString("| Name | Type | Access | Description |\n")
		buf.WriteString("|------|------|--------|-------------|\n")
		for _, f := range t.Fields {
			access := "read/write"
			if f.ReadOnly {
				access = "read-only"
			}
			fmt.Fprintf(buf, "| `%s` | %s | %s | %s |\n", f.Name, f.LuaType, access, escapeCell(f.Doc))
		}
		buf.WriteString("\n")
	}

	if len(t.Methods) > 0 {
		buf.WriteString("### Methods\n\n")
		self := strings.ToLower(t.Name[:1]) + t.Name[1:]
		for _, m := range t.Methods {
			writeFunction(buf, self+":"+m.Name, m)
		}
	}

	if len(t.Statics) > 0 {
		buf.WriteString("### Functions\n\n")
		for _, m := range t.Statics {
			writeFunction(buf, t.Name+"."+m.Name, m)
		}
	}

	if len(t.Variants) > 0 {
		buf.WriteString("### Variants\n\n")
		buf.WriteString("| Factory | Go constant | Description |\n")
		buf.WriteString("|---------|-------------|-------------|\n")
		for _, v := range t.Variants {
			fmt.Fprintf(buf, "| `%s.%s()` | `%s` | %s |\n", t.Name, v.Name, v.GoName, escapeCell(v.Doc))
		}
		buf.WriteString("\n")
	}
}

func writeFunction(buf *strings.Builder, call string, m *FunctionDoc) {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	fmt.Fprintf(buf, "#### `%s(%s)`\n\n", call, strings.Join(names, ", "))
	if m.Doc != "" {
		fmt.Fprintf(buf, "%s\n\n", m.Doc)
	}
	for _, p := range m.Params {
		fmt.Fprintf(buf, "- `%s`: %s\n", p.Name, p.LuaType)
	}
	if len(m.Returns) > 0 {
		fmt.Fprintf(buf, "- Returns: %s\n", strings.Join(m.Returns, ", "))
	}
	if m.Raises {
		buf.WriteString("- Raises a Lua error when the Go call fails.\n")
	}
	if len(m.Params) > 0 || len(m.Returns) > 0 || m.Raises {
		buf.WriteString("\n")
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
