package binding

import (
	"strings"

	lua "github.com/yuin/gopher-lua"
)

// Value is a Lua value as seen by setters and conversion helpers.
type Value = lua.LValue

// ReceiverKind classifies how a method accesses its receiver.
type ReceiverKind uint8

const (
	ReceiverNone      ReceiverKind = iota // no receiver; exposed on the type namespace
	ReceiverShared                        // read-only access (value receiver)
	ReceiverExclusive                     // mutable access (pointer receiver)
)

var receiverNames = [...]string{
	ReceiverNone:      "none",
	ReceiverShared:    "shared",
	ReceiverExclusive: "exclusive",
}

func (k ReceiverKind) String() string {
	if int(k) < len(receiverNames) {
		return receiverNames[k]
	}
	return "invalid"
}

// Valid reports whether k is one of the declared receiver kinds.
func (k ReceiverKind) Valid() bool {
	return k <= ReceiverExclusive
}

// ClassifyReceiver infers the receiver kind from the receiver type as written
// in Go source: "" is static, "T" is shared and "*T" is exclusive.
func ClassifyReceiver(expr string) ReceiverKind {
	expr = strings.TrimSpace(expr)
	switch {
	case expr == "":
		return ReceiverNone
	case strings.HasPrefix(expr, "*"):
		return ReceiverExclusive
	default:
		return ReceiverShared
	}
}

// Getter reads a field from the native value behind a handle.
// self is always a pointer to the bound type.
type Getter func(self any) any

// Setter decodes a Lua value and stores it into a field.
type Setter func(self any, value Value) error

// MethodFunc invokes a bound function. self is nil for ReceiverNone.
type MethodFunc func(c *Call, self any) error

// FieldBinding describes one exposed field.
type FieldBinding struct {
	Name     string
	Type     string
	ReadOnly bool
	Get      Getter
	Set      Setter
}

// Writable reports whether scripts may assign the field.
func (f FieldBinding) Writable() bool {
	return !f.ReadOnly
}

// MethodBinding describes one exposed function or method.
type MethodBinding struct {
	Name     string
	Receiver ReceiverKind
	Params   []string
	Results  []string
	Func     MethodFunc
}

// IsConstructor reports whether the method is a static function returning
// the owning type.
func (m MethodBinding) IsConstructor(typeID string) bool {
	if m.Receiver != ReceiverNone || len(m.Results) == 0 {
		return false
	}
	first := strings.TrimPrefix(m.Results[0], "*")
	return first == typeID
}

// VariantBinding describes one unit variant of an enumeration.
type VariantBinding struct {
	Name string
	// New returns a pointer to a fresh value equal to the variant.
	New func() any
	// Is reports whether the value behind self equals the variant.
	Is func(self any) bool
}

// TypeMetadata is the accumulated declaration state of one type. A nil
// group has not been declared yet.
type TypeMetadata struct {
	TypeID   string
	Fields   []FieldBinding
	Methods  []MethodBinding
	Variants []VariantBinding
}

// HasFields reports whether the field group was declared.
func (m TypeMetadata) HasFields() bool { return m.Fields != nil }

// HasMethods reports whether the method group was declared.
func (m TypeMetadata) HasMethods() bool { return m.Methods != nil }

// HasVariants reports whether the variant group was declared.
func (m TypeMetadata) HasVariants() bool { return m.Variants != nil }

func (m TypeMetadata) clone() TypeMetadata {
	out := TypeMetadata{TypeID: m.TypeID}
	if m.Fields != nil {
		out.Fields = append(make([]FieldBinding, 0, len(m.Fields)), m.Fields...)
	}
	if m.Methods != nil {
		out.Methods = append(make([]MethodBinding, 0, len(m.Methods)), m.Methods...)
	}
	if m.Variants != nil {
		out.Variants = append(make([]VariantBinding, 0, len(m.Variants)), m.Variants...)
	}
	return out
}

// CompileOptions selects the metadata groups included in an adapter.
type CompileOptions struct {
	Fields   bool
	Methods  bool
	Variants bool
}

func (o CompileOptions) String() string {
	var parts []string
	if o.Fields {
		parts = append(parts, "fields")
	}
	if o.Methods {
		parts = append(parts, "methods")
	}
	if o.Variants {
		parts = append(parts, "variants")
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ",")
}

// Bound is implemented by every generated type. The name selects the
// adapter used when a value of the type crosses into Lua.
type Bound interface {
	LuaTypeName() string
}
