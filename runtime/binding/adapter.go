package binding

import (
	"github.com/google/uuid"
)

// Adapter is the compiled, immutable dispatch surface for one type. It can
// be installed into any number of environments.
type Adapter struct {
	id      uuid.UUID
	typeID  string
	options CompileOptions

	fields     map[string]*fieldAccessor
	fieldOrder []string

	methods     map[string]*methodEntry
	methodOrder []string

	statics     map[string]*staticEntry
	staticOrder []string

	variants []VariantBinding
}

type fieldAccessor struct {
	name string
	typ  string
	get  Getter
	set  Setter // nil when read-only
}

type methodEntry struct {
	name     string
	receiver ReceiverKind
	call     MethodFunc
}

// staticEntry is either a None-receiver function or a variant factory.
type staticEntry struct {
	name        string
	call        MethodFunc
	constructor bool
	variant     func() any
}

// FieldInfo describes a compiled field.
type FieldInfo struct {
	Name     string
	Type     string
	Writable bool
}

// MethodInfo describes a compiled instance method or static function.
type MethodInfo struct {
	Name        string
	Receiver    ReceiverKind
	Constructor bool
	Variant     bool
}

// ID uniquely identifies this compilation.
func (a *Adapter) ID() uuid.UUID { return a.id }

// TypeID returns the identity of the compiled type. It is also the global
// name the adapter is installed under.
func (a *Adapter) TypeID() string { return a.typeID }

// Options returns the groups the adapter was compiled with.
func (a *Adapter) Options() CompileOptions { return a.options }

// Fields lists the field accessor table in declaration order.
func (a *Adapter) Fields() []FieldInfo {
	out := make([]FieldInfo, 0, len(a.fieldOrder))
	for _, name := range a.fieldOrder {
		f := a.fields[name]
		out = append(out, FieldInfo{Name: f.name, Type: f.typ, Writable: f.set != nil})
	}
	return out
}

// Methods lists the instance method table in declaration order.
func (a *Adapter) Methods() []MethodInfo {
	out := make([]MethodInfo, 0, len(a.methodOrder))
	for _, name := range a.methodOrder {
		m := a.methods[name]
		out = append(out, MethodInfo{Name: m.name, Receiver: m.receiver})
	}
	return out
}

// Statics lists the type-level table (static functions, constructors and
// variant factories) in declaration order.
func (a *Adapter) Statics() []MethodInfo {
	out := make([]MethodInfo, 0, len(a.staticOrder))
	for _, name := range a.staticOrder {
		s := a.statics[name]
		out = append(out, MethodInfo{
			Name:        s.name,
			Receiver:    ReceiverNone,
			Constructor: s.constructor,
			Variant:     s.variant != nil,
		})
	}
	return out
}

// Variants lists the variant names in declaration order.
func (a *Adapter) Variants() []string {
	out := make([]string, len(a.variants))
	for i, v := range a.variants {
		out[i] = v.Name
	}
	return out
}

// variantOf returns the index of the variant matching value, or -1.
func (a *Adapter) variantOf(value any) int {
	for i, v := range a.variants {
		if v.Is(value) {
			return i
		}
	}
	return -1
}

// NewHandle wraps value, which must be a pointer to the adapter's type, in
// a handle owned by this adapter.
func (a *Adapter) NewHandle(value any) *Handle {
	return newHandle(a, value, BorrowReject)
}
