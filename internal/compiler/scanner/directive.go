package scanner

import (
	"go/ast"
	"strings"

	"github.com/luamagic/luamagic/runtime/binding"
)

const directivePrefix = "//luamagic:"

// Directive names.
const (
	dirStructure      = "structure"
	dirEnumeration    = "enumeration"
	dirImplementation = "implementation"
	dirSkip           = "skip"
	dirName           = "name"
	dirFunction       = "function"
	dirCompile        = "compile"
)

type directive struct {
	name string
	args []string
	pos  ast.Node
}

// directives extracts the luamagic directives of a comment group in order.
func directives(groups ...*ast.CommentGroup) []directive {
	var out []directive
	for _, g := range groups {
		if g == nil {
			continue
		}
		for _, c := range g.List {
			if d, ok := parseDirective(c); ok {
				out = append(out, d)
			}
		}
	}
	return out
}

func parseDirective(c *ast.Comment) (directive, bool) {
	rest, ok := strings.CutPrefix(c.Text, directivePrefix)
	if !ok {
		return directive{}, false
	}
	parts := strings.Fields(rest)
	if len(parts) == 0 {
		return directive{name: "", pos: c}, true
	}
	return directive{name: parts[0], args: parts[1:], pos: c}, true
}

// parseCompileOptions turns "fields methods variants" into options. An
// empty list selects every group.
func parseCompileOptions(args []string) (binding.CompileOptions, string, bool) {
	if len(args) == 0 {
		return binding.CompileOptions{Fields: true, Methods: true, Variants: true}, "", true
	}
	var opts binding.CompileOptions
	for _, a := range args {
		switch strings.ToLower(a) {
		case "fields":
			opts.Fields = true
		case "methods":
			opts.Methods = true
		case "variants":
			opts.Variants = true
		default:
			return opts, a, false
		}
	}
	return opts, "", true
}
