package binding

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CompileRequest names one type and the groups to compile for it.
type CompileRequest struct {
	TypeID  string
	Options CompileOptions
}

// Validate checks the metadata of typeID for cross-group name collisions
// among the enabled groups. It does not require closures to be present, so
// it can run on declarations that only carry names.
func Validate(ctx *Context, typeID string, opts CompileOptions) error {
	meta, ok := ctx.Lookup(typeID)
	if !ok {
		return NewUnknownType(typeID)
	}
	return validate(meta, opts)
}

func validate(meta TypeMetadata, opts CompileOptions) error {
	const (
		kindField   = "field"
		kindMethod  = "method"
		kindVariant = "variant"
	)

	owner := make(map[string]string)
	claim := func(name, kind string) error {
		if prev, ok := owner[name]; ok && prev != kind {
			return NewNameCollision(meta.TypeID, name, prev, kind)
		}
		owner[name] = kind
		return nil
	}

	if opts.Methods {
		for _, m := range meta.Methods {
			if err := claim(m.Name, kindMethod); err != nil {
				return err
			}
		}
	}
	if opts.Fields {
		for _, f := range meta.Fields {
			if err := claim(f.Name, kindField); err != nil {
				return err
			}
		}
	}
	if opts.Variants {
		for _, v := range meta.Variants {
			if err := claim(v.Name, kindVariant); err != nil {
				return err
			}
		}
	}
	return nil
}

// Compile produces the adapter for typeID from the metadata accumulated in
// ctx. Enabled groups that were never declared compile as empty. Compiling
// the same type again yields an independent adapter.
func Compile(ctx *Context, typeID string, opts CompileOptions) (*Adapter, error) {
	meta, ok := ctx.snapshot(typeID)
	if !ok {
		return nil, NewUnknownType(typeID)
	}
	if err := validate(meta, opts); err != nil {
		return nil, err
	}

	a := &Adapter{
		id:      uuid.New(),
		typeID:  typeID,
		options: opts,
		fields:  make(map[string]*fieldAccessor),
		methods: make(map[string]*methodEntry),
		statics: make(map[string]*staticEntry),
	}

	if opts.Fields {
		for _, f := range meta.Fields {
			if f.Get == nil {
				return nil, NewIncompleteBinding(typeID, f.Name, "getter")
			}
			if f.Writable() && f.Set == nil {
				return nil, NewIncompleteBinding(typeID, f.Name, "setter").
					WithSuggestion("Mark the field read-only or provide a setter")
			}
			acc := &fieldAccessor{name: f.Name, typ: f.Type, get: f.Get}
			if f.Writable() {
				acc.set = f.Set
			}
			a.fields[f.Name] = acc
			a.fieldOrder = append(a.fieldOrder, f.Name)
		}
	}

	if opts.Methods {
		for _, m := range meta.Methods {
			if m.Func == nil {
				return nil, NewIncompleteBinding(typeID, m.Name, "function")
			}
			if m.Receiver == ReceiverNone {
				a.statics[m.Name] = &staticEntry{
					name:        m.Name,
					call:        m.Func,
					constructor: m.IsConstructor(typeID),
				}
				a.staticOrder = append(a.staticOrder, m.Name)
				continue
			}
			a.methods[m.Name] = &methodEntry{name: m.Name, receiver: m.Receiver, call: m.Func}
			a.methodOrder = append(a.methodOrder, m.Name)
		}
	}

	if opts.Variants {
		for _, v := range meta.Variants {
			if v.New == nil {
				return nil, NewIncompleteBinding(typeID, v.Name, "factory")
			}
			if v.Is == nil {
				return nil, NewIncompleteBinding(typeID, v.Name, "matcher")
			}
			a.statics[v.Name] = &staticEntry{name: v.Name, variant: v.New}
			a.staticOrder = append(a.staticOrder, v.Name)
			a.variants = append(a.variants, v)
		}
	}

	count := ctx.markCompiled(typeID)
	ctx.logger.Debug("compiled adapter",
		zap.String("type", typeID),
		zap.Stringer("options", opts),
		zap.String("adapter", a.id.String()),
		zap.Int("compilation", count),
		zap.Int("fields", len(a.fieldOrder)),
		zap.Int("methods", len(a.methodOrder)),
		zap.Int("statics", len(a.staticOrder)))
	return a, nil
}

// CompileAll compiles each request in order and stops at the first error.
func CompileAll(ctx *Context, requests []CompileRequest) ([]*Adapter, error) {
	adapters := make([]*Adapter, 0, len(requests))
	for _, req := range requests {
		a, err := Compile(ctx, req.TypeID, req.Options)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}
	return adapters, nil
}
