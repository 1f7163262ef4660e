package docs

import (
	"strconv"
	"strings"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
	"github.com/luamagic/luamagic/runtime/binding"
)

// Documentation is the Lua-visible surface of one package.
type Documentation struct {
	Package string
	Types   []*TypeDoc
}

// TypeDoc describes one installed global.
type TypeDoc struct {
	Name     string
	Kind     string
	Doc      string
	Fields   []*FieldDoc
	Methods  []*FunctionDoc
	Statics  []*FunctionDoc
	Variants []*VariantDoc
}

// FieldDoc describes an instance field.
type FieldDoc struct {
	Name     string
	GoType   string
	LuaType  string
	ReadOnly bool
	Doc      string
}

// FunctionDoc describes an instance method or a static function.
type FunctionDoc struct {
	Name    string
	GoName  string
	Doc     string
	Params  []ParamDoc
	Returns []string
	Raises  bool
}

// ParamDoc is one Lua-side parameter.
type ParamDoc struct {
	Name    string
	LuaType string
}

// VariantDoc describes a variant factory.
type VariantDoc struct {
	Name   string
	GoName string
	Doc    string
}

// Extract builds documentation for the groups pkg actually compiles. Types
// without a compile request are never installed and are left out.
func Extract(pkg *scanner.Package) *Documentation {
	compiled := make(map[string]binding.CompileOptions)
	for _, c := range pkg.Compiles {
		o := compiled[c.Type]
		o.Fields = o.Fields || c.Options.Fields
		o.Methods = o.Methods || c.Options.Methods
		o.Variants = o.Variants || c.Options.Variants
		compiled[c.Type] = o
	}

	types := newTypeMapper(pkg)
	doc := &Documentation{Package: pkg.Name}
	for _, t := range pkg.Types {
		opts, ok := compiled[t.Name]
		if !ok {
			continue
		}
		td := &TypeDoc{Name: t.Name, Kind: kindOf(t), Doc: t.Doc}

		if opts.Fields {
			for _, f := range t.Fields {
				td.Fields = append(td.Fields, &FieldDoc{
					Name:     f.LuaName,
					GoType:   f.Type,
					LuaType:  types.lua(f.Type),
					ReadOnly: f.ReadOnly,
					Doc:      f.Doc,
				})
			}
		}
		if opts.Methods {
			for _, m := range t.Methods {
				fd := functionDoc(types, m)
				if m.Receiver == binding.ReceiverNone {
					td.Statics = append(td.Statics, fd)
				} else {
					td.Methods = append(td.Methods, fd)
				}
			}
		}
		if opts.Variants {
			for _, v := range t.Variants {
				td.Variants = append(td.Variants, &VariantDoc{Name: v.LuaName, GoName: v.GoName, Doc: v.Doc})
			}
		}
		doc.Types = append(doc.Types, td)
	}
	return doc
}

func kindOf(t *scanner.Type) string {
	kind := t.Kind.String()
	if t.Implementation && t.Kind != scanner.KindOpaque {
		kind += "+implementation"
	}
	return kind
}

func functionDoc(types typeMapper, m scanner.Callable) *FunctionDoc {
	fd := &FunctionDoc{Name: m.LuaName, GoName: m.GoName, Doc: m.Doc, Raises: m.ReturnsError()}
	for i, p := range m.Params {
		name := p.Name
		if name == "" || name == "_" {
			name = "arg" + strconv.Itoa(i+1)
		}
		fd.Params = append(fd.Params, ParamDoc{Name: name, LuaType: types.lua(p.Type)})
	}
	results := m.Results
	if fd.Raises {
		results = results[:len(results)-1]
	}
	for _, r := range results {
		fd.Returns = append(fd.Returns, types.lua(r))
	}
	return fd
}

// typeMapper maps Go type expressions to LuaLS type names.
type typeMapper map[string]bool

func newTypeMapper(pkg *scanner.Package) typeMapper {
	bound := make(typeMapper, len(pkg.Types))
	for _, t := range pkg.Types {
		bound[t.Name] = true
	}
	return bound
}

func (b typeMapper) lua(goType string) string {
	goType = strings.TrimPrefix(goType, "*")
	switch goType {
	case "string", "[]byte":
		return "string"
	case "bool":
		return "boolean"
	case "int", "int8", "int16", "int32", "int64",
		"uint", "uint8", "uint16", "uint32", "uint64", "byte", "rune":
		return "integer"
	case "float32", "float64":
		return "number"
	case "map[string]any", "map[string]interface{}":
		return "table<string, any>"
	}
	if elem, ok := strings.CutPrefix(goType, "[]"); ok {
		return b.lua(elem) + "[]"
	}
	if b[goType] {
		return goType
	}
	return "any"
}
