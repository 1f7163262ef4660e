package scanner

import (
	"go/token"

	"github.com/luamagic/luamagic/runtime/binding"
)

// File is everything one source file contributes. Files are scanned
// independently (and cached), then merged into a Package.
type File struct {
	Name    string
	Package string

	Types     []TypeDecl
	Consts    []Const
	Methods   []Method
	Functions []Function
	Compiles  []Compile
}

// TypeKind is the binding directive a type carries.
type TypeKind uint8

const (
	// KindOpaque types only expose methods.
	KindOpaque TypeKind = iota
	// KindStructure types expose fields.
	KindStructure
	// KindEnumeration types expose their constants as variants.
	KindEnumeration
)

func (k TypeKind) String() string {
	switch k {
	case KindStructure:
		return "structure"
	case KindEnumeration:
		return "enumeration"
	default:
		return "opaque"
	}
}

// TypeDecl is an annotated type declaration.
type TypeDecl struct {
	Name           string
	Kind           TypeKind
	Implementation bool
	Fields         []Field
	Doc            string
	Pos            token.Position
}

// Import is a package referenced by a bound member's type.
type Import struct {
	Name string
	Path string
}

// Field is an exported struct field bound for script access.
type Field struct {
	GoName   string
	LuaName  string
	Type     string
	ReadOnly bool
	Imports  []Import
	Doc      string
	Pos      token.Position
}

// Const is a typed constant. The type is resolved against enumerations at
// merge time since the constant and its type may live in different files.
type Const struct {
	Name    string
	Type    string
	LuaName string
	Doc     string
	Pos     token.Position
}

// Param is a method or function parameter.
type Param struct {
	Name string
	Type string
}

// Method is an exported method declared on a named type.
type Method struct {
	Recv     string
	Receiver binding.ReceiverKind
	GoName   string
	LuaName  string
	Skip     bool
	Params   []Param
	Results  []string
	Variadic bool
	Imports  []Import
	Doc      string
	Pos      token.Position
}

// Function is a package function bound as a static member of a type.
type Function struct {
	Type     string
	GoName   string
	LuaName  string
	Params   []Param
	Results  []string
	Variadic bool
	Imports  []Import
	Doc      string
	Pos      token.Position
}

// Compile is a compile request directive.
type Compile struct {
	Type    string
	Options binding.CompileOptions
	Pos     token.Position
}

// Package is the merged view of an annotated package.
type Package struct {
	Name     string
	Dir      string
	Types    []*Type
	Compiles []Compile
}

// Type is one bound type with its members gathered from every file.
type Type struct {
	Name           string
	Kind           TypeKind
	Implementation bool
	Fields         []Field
	Variants       []Variant
	Methods        []Callable
	Doc            string
	Pos            token.Position
}

// Variant is an enumeration constant exposed as a factory.
type Variant struct {
	GoName  string
	LuaName string
	Doc     string
	Pos     token.Position
}

// Callable is a method or a bound function, as seen from Lua.
type Callable struct {
	GoName   string
	LuaName  string
	Receiver binding.ReceiverKind
	Params   []Param
	Results  []string
	Imports  []Import
	Doc      string
	Pos      token.Position
}

// ReturnsError reports whether the last result is the error interface.
func (c Callable) ReturnsError() bool {
	return len(c.Results) > 0 && c.Results[len(c.Results)-1] == "error"
}

// Type returns the named bound type, or nil.
func (p *Package) Type(name string) *Type {
	for _, t := range p.Types {
		if t.Name == name {
			return t
		}
	}
	return nil
}

// HasFields reports whether the type declares a field group.
func (t *Type) HasFields() bool { return t.Kind == KindStructure }

// HasVariants reports whether the type declares a variant group.
func (t *Type) HasVariants() bool { return t.Kind == KindEnumeration }

// HasMethods reports whether the type declares a method group.
func (t *Type) HasMethods() bool { return t.Implementation || len(t.Methods) > 0 }
