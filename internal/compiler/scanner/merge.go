package scanner

import (
	"errors"
	"go/token"
	"sort"

	"github.com/luamagic/luamagic/runtime/binding"
)

// methodsToSkip are never bound even on implementation types.
var methodsToSkip = map[string]bool{
	"LuaTypeName": true,
	"String":      true,
}

// Merge combines scanned files, in the order given, into a Package.
func Merge(dir string, files []*File) (*Package, error) {
	pkg := &Package{Dir: dir}
	var errs ErrorList

	byName := make(map[string]*Type)
	for _, f := range files {
		if f == nil {
			continue
		}
		if pkg.Name == "" {
			pkg.Name = f.Package
		} else if f.Package != pkg.Name {
			errs = append(errs, errorf(fileStart(f), "found packages %s and %s", pkg.Name, f.Package))
			continue
		}
		for _, decl := range f.Types {
			t := &Type{
				Name:           decl.Name,
				Kind:           decl.Kind,
				Implementation: decl.Implementation,
				Fields:         decl.Fields,
				Doc:            decl.Doc,
				Pos:            decl.Pos,
			}
			byName[t.Name] = t
			pkg.Types = append(pkg.Types, t)
		}
	}

	for _, f := range files {
		if f == nil || f.Package != pkg.Name {
			continue
		}
		for _, c := range f.Consts {
			t := byName[c.Type]
			if t == nil || t.Kind != KindEnumeration {
				continue
			}
			t.Variants = append(t.Variants, Variant{GoName: c.Name, LuaName: c.LuaName, Doc: c.Doc, Pos: c.Pos})
		}
		for _, m := range f.Methods {
			t := byName[m.Recv]
			if t == nil || !t.Implementation || m.Skip || methodsToSkip[m.GoName] {
				continue
			}
			if m.Variadic {
				errs = append(errs, errorf(m.Pos, "variadic method %s.%s cannot be bound", m.Recv, m.GoName))
				continue
			}
			t.Methods = append(t.Methods, Callable{
				GoName:   m.GoName,
				LuaName:  m.LuaName,
				Receiver: m.Receiver,
				Params:   m.Params,
				Results:  m.Results,
				Imports:  m.Imports,
				Doc:      m.Doc,
				Pos:      m.Pos,
			})
		}
		for _, fn := range f.Functions {
			t := byName[fn.Type]
			if t == nil {
				errs = append(errs, errorf(fn.Pos, "function %s is bound to %s, which has no luamagic type directive", fn.GoName, fn.Type))
				continue
			}
			t.Methods = append(t.Methods, Callable{
				GoName:   fn.GoName,
				LuaName:  fn.LuaName,
				Receiver: binding.ReceiverNone,
				Params:   fn.Params,
				Results:  fn.Results,
				Imports:  fn.Imports,
				Doc:      fn.Doc,
				Pos:      fn.Pos,
			})
		}
		pkg.Compiles = append(pkg.Compiles, f.Compiles...)
	}

	// statics after instance methods keeps the generated tables stable
	// when functions and methods live in different files
	for _, t := range pkg.Types {
		sort.SliceStable(t.Methods, func(i, j int) bool {
			return t.Methods[i].Receiver != binding.ReceiverNone && t.Methods[j].Receiver == binding.ReceiverNone
		})
	}

	if len(pkg.Compiles) == 0 {
		for _, t := range pkg.Types {
			pkg.Compiles = append(pkg.Compiles, Compile{Type: t.Name, Options: t.groups(), Pos: t.Pos})
		}
	}

	if err := errs.err(); err != nil {
		return nil, err
	}
	return pkg, nil
}

func fileStart(f *File) (pos token.Position) {
	pos.Filename = f.Name
	pos.Line = 1
	return pos
}

func (t *Type) groups() binding.CompileOptions {
	return binding.CompileOptions{
		Fields:   t.HasFields(),
		Methods:  t.HasMethods(),
		Variants: t.HasVariants(),
	}
}

// Check declares every type into a fresh binding.Context the way the
// generated code does and validates each compile request. Errors carry the
// position of the offending member and wrap the *binding.Error.
func (p *Package) Check() error {
	ctx := binding.NewContext()
	var errs ErrorList

	for _, t := range p.Types {
		if t.HasFields() {
			fields := make([]binding.FieldBinding, 0, len(t.Fields))
			for _, f := range t.Fields {
				fields = append(fields, binding.FieldBinding{Name: f.LuaName, Type: f.Type, ReadOnly: f.ReadOnly})
			}
			if err := ctx.DeclareFields(t.Name, fields...); err != nil {
				errs = append(errs, p.memberError(t, err))
			}
		}
		if t.HasVariants() {
			variants := make([]binding.VariantBinding, 0, len(t.Variants))
			for _, v := range t.Variants {
				variants = append(variants, binding.VariantBinding{Name: v.LuaName})
			}
			if err := ctx.DeclareVariants(t.Name, variants...); err != nil {
				errs = append(errs, p.memberError(t, err))
			}
		}
		if t.HasMethods() {
			methods := make([]binding.MethodBinding, 0, len(t.Methods))
			for _, m := range t.Methods {
				methods = append(methods, binding.MethodBinding{
					Name:     m.LuaName,
					Receiver: m.Receiver,
					Results:  m.Results,
				})
			}
			if err := ctx.DeclareMethods(t.Name, methods...); err != nil {
				errs = append(errs, p.memberError(t, err))
			}
		}
	}
	if len(errs) > 0 {
		return errs.err()
	}

	for _, c := range p.Compiles {
		if err := binding.Validate(ctx, c.Type, c.Options); err != nil {
			errs = append(errs, wrapError(c.Pos, err, "compile %s", c.Type))
		}
	}
	return errs.err()
}

// memberError positions a declaration error at the last member carrying
// the clashing name, or at the type when the name is unknown.
func (p *Package) memberError(t *Type, err error) *Error {
	var be *binding.Error
	pos := t.Pos
	if errors.As(err, &be) && be.Name != "" {
		pos = t.lastPosOf(be.Name)
	}
	return wrapError(pos, err, "type %s", t.Name)
}

func (t *Type) lastPosOf(luaName string) token.Position {
	pos := t.Pos
	for _, f := range t.Fields {
		if f.LuaName == luaName {
			pos = f.Pos
		}
	}
	for _, v := range t.Variants {
		if v.LuaName == luaName {
			pos = v.Pos
		}
	}
	for _, m := range t.Methods {
		if m.LuaName == luaName {
			pos = m.Pos
		}
	}
	return pos
}
