package scanner

import (
	"go/ast"
	"go/parser"
	"go/token"
	"go/types"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"

	naming "github.com/luamagic/luamagic/internal/util/strings"
	"github.com/luamagic/luamagic/runtime/binding"
)

var knownDirectives = map[string]bool{
	dirStructure:      true,
	dirEnumeration:    true,
	dirImplementation: true,
	dirSkip:           true,
	dirName:           true,
	dirFunction:       true,
	dirCompile:        true,
}

type fileScanner struct {
	fset     *token.FileSet
	file     *File
	imports  map[string]string
	consumed map[*ast.Comment]bool
	errs     ErrorList
}

// ScanSource scans one file's source. filename is used for positions.
func ScanSource(filename string, src []byte) (*File, error) {
	return scanFile(token.NewFileSet(), filename, src)
}

func scanFile(fset *token.FileSet, filename string, src []byte) (*File, error) {
	af, err := parser.ParseFile(fset, filename, src, parser.ParseComments|parser.SkipObjectResolution)
	if err != nil {
		return nil, err
	}

	s := &fileScanner{
		fset:     fset,
		file:     &File{Name: filepath.Base(filename), Package: af.Name.Name},
		imports:  make(map[string]string),
		consumed: make(map[*ast.Comment]bool),
	}
	for _, spec := range af.Imports {
		path, err := strconv.Unquote(spec.Path.Value)
		if err != nil {
			continue
		}
		name := importName(path)
		if spec.Name != nil {
			name = spec.Name.Name
		}
		if name != "_" && name != "." {
			s.imports[name] = path
		}
	}

	for _, decl := range af.Decls {
		switch d := decl.(type) {
		case *ast.GenDecl:
			switch d.Tok {
			case token.TYPE:
				s.typeDecl(d)
			case token.CONST:
				s.constDecl(d)
			}
		case *ast.FuncDecl:
			s.funcDecl(d)
		}
	}
	s.fileDirectives(af)

	return s.file, s.errs.err()
}

func (s *fileScanner) position(n ast.Node) token.Position {
	return s.fset.Position(n.Pos())
}

func (s *fileScanner) errorf(n ast.Node, format string, args ...any) {
	s.errs = append(s.errs, errorf(s.position(n), format, args...))
}

func (s *fileScanner) take(groups ...*ast.CommentGroup) []directive {
	dirs := directives(groups...)
	for _, d := range dirs {
		s.consumed[d.pos.(*ast.Comment)] = true
	}
	return dirs
}

// fileDirectives handles compile directives and reports directives that
// no declaration claimed.
func (s *fileScanner) fileDirectives(af *ast.File) {
	for _, g := range af.Comments {
		for _, c := range g.List {
			d, ok := parseDirective(c)
			if !ok {
				continue
			}
			switch {
			case !knownDirectives[d.name]:
				s.errorf(c, "unknown directive %q", strings.TrimPrefix(c.Text, "//"))
			case d.name == dirCompile:
				s.compileDirective(d)
			case !s.consumed[c]:
				s.errorf(c, "misplaced %s directive", d.name)
			}
		}
	}
}

func (s *fileScanner) compileDirective(d directive) {
	if len(d.args) == 0 {
		s.errorf(d.pos, "compile directive needs a type name")
		return
	}
	opts, bad, ok := parseCompileOptions(d.args[1:])
	if !ok {
		s.errorf(d.pos, "unknown compile group %q (expected fields, methods or variants)", bad)
		return
	}
	s.file.Compiles = append(s.file.Compiles, Compile{
		Type:    d.args[0],
		Options: opts,
		Pos:     s.position(d.pos),
	})
}

func (s *fileScanner) typeDecl(d *ast.GenDecl) {
	for _, spec := range d.Specs {
		ts := spec.(*ast.TypeSpec)
		groups := []*ast.CommentGroup{ts.Doc}
		if d.Lparen == token.NoPos {
			groups = append(groups, d.Doc)
		}
		dirs := s.take(groups...)
		if len(dirs) == 0 {
			continue
		}

		decl := TypeDecl{Name: ts.Name.Name, Doc: docText(groups...), Pos: s.position(ts)}
		var structure, enumeration bool
		for _, dir := range dirs {
			switch dir.name {
			case dirStructure:
				structure = true
			case dirEnumeration:
				enumeration = true
			case dirImplementation:
				decl.Implementation = true
			default:
				s.errorf(dir.pos, "%s directive is not valid on a type", dir.name)
				continue
			}
			if len(dir.args) > 0 {
				s.errorf(dir.pos, "%s directive takes no arguments", dir.name)
			}
		}

		switch {
		case ts.TypeParams != nil:
			s.errorf(ts, "generic type %s cannot be bound", ts.Name.Name)
			continue
		case ts.Assign != token.NoPos:
			s.errorf(ts, "type alias %s cannot be bound", ts.Name.Name)
			continue
		case structure && enumeration:
			s.errorf(ts, "type %s cannot be both a structure and an enumeration", ts.Name.Name)
			continue
		}

		if structure {
			st, ok := ts.Type.(*ast.StructType)
			if !ok {
				s.errorf(ts, "structure directive on non-struct type %s", ts.Name.Name)
				continue
			}
			decl.Kind = KindStructure
			decl.Fields = s.fields(st)
		}
		if enumeration {
			switch ts.Type.(type) {
			case *ast.StructType, *ast.InterfaceType:
				s.errorf(ts, "enumeration directive on composite type %s", ts.Name.Name)
				continue
			}
			decl.Kind = KindEnumeration
		}
		s.file.Types = append(s.file.Types, decl)
	}
}

// docText is the first paragraph of the first non-empty comment group,
// joined into one line. Directive lines are not part of it.
func docText(groups ...*ast.CommentGroup) string {
	for _, g := range groups {
		text := strings.TrimSpace(g.Text())
		if text == "" {
			continue
		}
		para, _, _ := strings.Cut(text, "\n\n")
		return strings.Join(strings.Fields(para), " ")
	}
	return ""
}

func (s *fileScanner) fields(st *ast.StructType) []Field {
	out := []Field{}
	for _, f := range st.Fields.List {
		if len(f.Names) == 0 {
			continue
		}
		tagName, readOnly, skip := parseTag(f.Tag)
		if skip {
			continue
		}
		for _, name := range f.Names {
			if !name.IsExported() {
				continue
			}
			luaName := tagName
			if luaName == "" || len(f.Names) > 1 {
				luaName = naming.ToSnakeCase(name.Name)
			}
			if !naming.IsLuaIdentifier(luaName) {
				s.errorf(name, "field %s: %q is not a valid Lua name", name.Name, luaName)
				continue
			}
			out = append(out, Field{
				GoName:   name.Name,
				LuaName:  luaName,
				Type:     types.ExprString(f.Type),
				ReadOnly: readOnly,
				Imports:  s.importsOf(f.Type),
				Doc:      docText(f.Doc, f.Comment),
				Pos:      s.position(name),
			})
		}
	}
	return out
}

// parseTag reads `lua:"name,readonly"`. A name of "-" skips the field.
func parseTag(lit *ast.BasicLit) (name string, readOnly, skip bool) {
	if lit == nil {
		return "", false, false
	}
	raw, err := strconv.Unquote(lit.Value)
	if err != nil {
		return "", false, false
	}
	tag, ok := reflect.StructTag(raw).Lookup("lua")
	if !ok {
		return "", false, false
	}
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	for _, opt := range parts[1:] {
		if opt == "readonly" {
			readOnly = true
		}
	}
	return parts[0], readOnly, false
}

func (s *fileScanner) constDecl(d *ast.GenDecl) {
	var implied string
	for _, spec := range d.Specs {
		vs := spec.(*ast.ValueSpec)

		typ := implied
		switch {
		case vs.Type != nil:
			typ = ""
			if id, ok := vs.Type.(*ast.Ident); ok {
				typ = id.Name
			}
		case len(vs.Values) > 0:
			typ = ""
		}
		implied = typ

		groups := []*ast.CommentGroup{vs.Doc}
		if d.Lparen == token.NoPos {
			groups = append(groups, d.Doc)
		}
		dirs := s.take(groups...)
		if typ == "" {
			for _, dir := range dirs {
				s.errorf(dir.pos, "%s directive on untyped constant", dir.name)
			}
			continue
		}

		rename, skip := s.memberDirectives(dirs)
		if skip {
			continue
		}
		for _, name := range vs.Names {
			if !name.IsExported() {
				continue
			}
			luaName := rename
			if luaName == "" || len(vs.Names) > 1 {
				luaName = naming.TrimTypePrefix(name.Name, typ)
			}
			s.file.Consts = append(s.file.Consts, Const{
				Name:    name.Name,
				Type:    typ,
				LuaName: luaName,
				Doc:     docText(append(groups, vs.Comment)...),
				Pos:     s.position(name),
			})
		}
	}
}

// memberDirectives interprets skip and name directives on a member.
func (s *fileScanner) memberDirectives(dirs []directive) (rename string, skip bool) {
	for _, dir := range dirs {
		switch dir.name {
		case dirSkip:
			skip = true
		case dirName:
			if len(dir.args) != 1 || !naming.IsLuaIdentifier(dir.args[0]) {
				s.errorf(dir.pos, "name directive needs one valid Lua name")
				continue
			}
			rename = dir.args[0]
		default:
			s.errorf(dir.pos, "%s directive is not valid here", dir.name)
		}
	}
	return rename, skip
}

func (s *fileScanner) funcDecl(d *ast.FuncDecl) {
	dirs := s.take(d.Doc)

	if d.Recv == nil {
		s.function(d, dirs)
		return
	}

	recvExpr := d.Recv.List[0].Type
	base := recvExpr
	if star, ok := base.(*ast.StarExpr); ok {
		base = star.X
	}
	id, ok := base.(*ast.Ident)
	if !ok {
		// methods of generic types; the type itself is rejected if annotated
		for _, dir := range dirs {
			s.errorf(dir.pos, "%s directive on a method of a generic type", dir.name)
		}
		return
	}
	if !d.Name.IsExported() {
		for _, dir := range dirs {
			s.errorf(dir.pos, "%s directive on unexported method %s", dir.name, d.Name.Name)
		}
		return
	}

	rename, skip := s.memberDirectives(dirs)
	params, variadic := s.params(d.Type.Params)
	m := Method{
		Recv:     id.Name,
		Receiver: binding.ClassifyReceiver(types.ExprString(recvExpr)),
		GoName:   d.Name.Name,
		LuaName:  rename,
		Skip:     skip,
		Params:   params,
		Results:  s.results(d.Type.Results),
		Variadic: variadic,
		Imports:  s.importsOf(signatureTypes(d.Type)...),
		Doc:      docText(d.Doc),
		Pos:      s.position(d.Name),
	}
	if m.LuaName == "" {
		m.LuaName = naming.ToSnakeCase(m.GoName)
	}
	s.file.Methods = append(s.file.Methods, m)
}

func (s *fileScanner) function(d *ast.FuncDecl, dirs []directive) {
	var fn *Function
	for _, dir := range dirs {
		if dir.name != dirFunction {
			s.errorf(dir.pos, "%s directive is not valid on a function", dir.name)
			continue
		}
		if len(dir.args) < 1 || len(dir.args) > 2 {
			s.errorf(dir.pos, "function directive takes a type name and an optional Lua name")
			continue
		}
		fn = &Function{Type: dir.args[0], GoName: d.Name.Name, Doc: docText(d.Doc), Pos: s.position(d.Name)}
		fn.LuaName = naming.ToSnakeCase(d.Name.Name)
		if len(dir.args) == 2 {
			fn.LuaName = dir.args[1]
		}
		if !naming.IsLuaIdentifier(fn.LuaName) {
			s.errorf(dir.pos, "%q is not a valid Lua name", fn.LuaName)
			return
		}
	}
	if fn == nil {
		return
	}
	if d.Type.TypeParams != nil {
		s.errorf(d.Name, "generic function %s cannot be bound", d.Name.Name)
		return
	}
	fn.Params, fn.Variadic = s.params(d.Type.Params)
	fn.Results = s.results(d.Type.Results)
	fn.Imports = s.importsOf(signatureTypes(d.Type)...)
	if fn.Variadic {
		s.errorf(d.Name, "variadic function %s cannot be bound", d.Name.Name)
		return
	}
	s.file.Functions = append(s.file.Functions, *fn)
}

func (s *fileScanner) params(list *ast.FieldList) ([]Param, bool) {
	var out []Param
	variadic := false
	if list == nil {
		return out, false
	}
	for _, f := range list.List {
		if _, ok := f.Type.(*ast.Ellipsis); ok {
			variadic = true
		}
		typ := types.ExprString(f.Type)
		if len(f.Names) == 0 {
			out = append(out, Param{Type: typ})
			continue
		}
		for _, n := range f.Names {
			out = append(out, Param{Name: n.Name, Type: typ})
		}
	}
	return out, variadic
}

func (s *fileScanner) results(list *ast.FieldList) []string {
	var out []string
	if list == nil {
		return out
	}
	for _, f := range list.List {
		typ := types.ExprString(f.Type)
		n := len(f.Names)
		if n == 0 {
			n = 1
		}
		for i := 0; i < n; i++ {
			out = append(out, typ)
		}
	}
	return out
}

// importName guesses the package name of an import path the way goimports
// does: the last element, ignoring a major version suffix and gopkg.in
// version tags.
func importName(path string) string {
	parts := strings.Split(path, "/")
	name := parts[len(parts)-1]
	if len(parts) > 1 && len(name) > 1 && name[0] == 'v' && strings.Trim(name[1:], "0123456789") == "" {
		name = parts[len(parts)-2]
	}
	if i := strings.Index(name, ".v"); i > 0 {
		name = name[:i]
	}
	return strings.TrimPrefix(strings.ReplaceAll(name, "-", "_"), "go_")
}

// importsOf lists the imported packages the given type expressions refer to.
func (s *fileScanner) importsOf(exprs ...ast.Expr) []Import {
	var out []Import
	seen := make(map[string]bool)
	for _, expr := range exprs {
		ast.Inspect(expr, func(n ast.Node) bool {
			sel, ok := n.(*ast.SelectorExpr)
			if !ok {
				return true
			}
			id, ok := sel.X.(*ast.Ident)
			if !ok {
				return true
			}
			if path, ok := s.imports[id.Name]; ok && !seen[id.Name] {
				seen[id.Name] = true
				out = append(out, Import{Name: id.Name, Path: path})
			}
			return false
		})
	}
	return out
}

func signatureTypes(ft *ast.FuncType) []ast.Expr {
	var out []ast.Expr
	for _, list := range []*ast.FieldList{ft.Params, ft.Results} {
		if list == nil {
			continue
		}
		for _, f := range list.List {
			out = append(out, f.Type)
		}
	}
	return out
}
