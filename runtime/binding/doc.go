// Package binding exposes native Go types to an embedded Lua runtime
// (github.com/yuin/gopher-lua) through compiled, table-driven adapters.
//
// # Overview
//
// A binding is built in three steps:
//
//   - Declare: metadata for a type's fields, methods and enumeration
//     variants is accumulated into an explicit build Context. Each group
//     is declared independently and in any order.
//   - Compile: Compile reads one type's accumulated metadata, checks it
//     for cross-group name collisions and produces an immutable Adapter
//     holding the field accessor, method dispatch and static tables.
//   - Load: Load installs adapters into an Environment, binding one global
//     namespace table per type. Constructors and variant factories live in
//     that namespace; instance fields and methods are resolved through the
//     handle's own adapter.
//
// The declarations are normally emitted by the luamagic generator from
// //luamagic: directives, but they can be written by hand:
//
//	ctx := binding.NewContext()
//	err := ctx.DeclareFields("Counter", binding.FieldBinding{
//		Name: "value",
//		Type: "int",
//		Get:  func(self any) any { return self.(*Counter).Value },
//		Set: func(self any, v binding.Value) error {
//			n, err := binding.Decode[int](v)
//			if err != nil {
//				return err
//			}
//			self.(*Counter).Value = n
//			return nil
//		},
//	})
//	...
//	adapter, err := binding.Compile(ctx, "Counter", binding.CompileOptions{Fields: true, Methods: true})
//	...
//	env := binding.NewEnvironment(lua.NewState(), binding.EnvOptions{})
//	err = binding.Load(env, adapter)
//
// # Handles and borrowing
//
// Lua code never sees native values directly. Constructors and variant
// factories return handles: userdata wrapping a *Handle that points at the
// native value and remembers the adapter that produced it. Field reads and
// shared-receiver methods take a shared borrow of the handle; field writes
// and pointer-receiver methods take an exclusive borrow. Conflicting
// borrows fail with BorrowConflict or block, depending on the
// environment's BorrowPolicy.
//
// # Errors
//
// Declaration and compile errors (DuplicateField, DuplicateVariant,
// DuplicateMethod, UnknownType, NameCollision, ...) are fatal misuses of
// the build contract. Runtime errors (ConversionError, BorrowConflict,
// UnknownMember) are raised into Lua where scripts can catch them with
// pcall. All of them are *Error values and match their sentinels with
// errors.Is.
package binding
