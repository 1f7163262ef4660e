package binding

import (
	lua "github.com/yuin/gopher-lua"
)

// indexFunction resolves handle.key: fields first, then instance methods.
func (env *Environment) indexFunction(inst *install) lua.LGFunction {
	a := inst.adapter
	return func(L *lua.LState) int {
		h := checkHandle(L, inst, 1, "__index")
		key := L.CheckString(2)

		if f, ok := a.fields[key]; ok {
			var out lua.LValue
			err := protect(a.typeID, key, func() error {
				return h.With(false, func(self any) error {
					lv, err := env.encode(L, inst, f.get(self))
					out = lv
					return err
				})
			})
			if err != nil {
				env.raise(L, err)
				return 0
			}
			L.Push(out)
			return 1
		}

		if fn, ok := inst.methods[key]; ok {
			L.Push(fn)
			return 1
		}

		L.Push(lua.LNil)
		return 1
	}
}

// newIndexFunction resolves handle.key = value for writable fields.
func (env *Environment) newIndexFunction(inst *install) lua.LGFunction {
	a := inst.adapter
	return func(L *lua.LState) int {
		h := checkHandle(L, inst, 1, "__newindex")
		key := L.CheckString(2)
		value := L.Get(3)

		f, ok := a.fields[key]
		if !ok {
			env.raise(L, NewUnknownMember(a.typeID, key, "is not a field"))
			return 0
		}
		if f.set == nil {
			env.raise(L, NewUnknownMember(a.typeID, key, "is read-only"))
			return 0
		}

		err := protect(a.typeID, key, func() error {
			return h.With(true, func(self any) error {
				return f.set(self, value)
			})
		})
		if err != nil {
			env.raise(L, err)
		}
		return 0
	}
}

// methodFunction builds the Lua function for an instance method. The
// receiver is argument 1 (colon call syntax).
func (env *Environment) methodFunction(inst *install, m *methodEntry) lua.LGFunction {
	exclusive := m.receiver == ReceiverExclusive
	return func(L *lua.LState) int {
		h := checkHandle(L, inst, 1, m.name)
		c := &Call{env: env, inst: inst, L: L, name: m.name, base: 2}
		err := protect(inst.adapter.typeID, m.name, func() error {
			return h.With(exclusive, func(self any) error {
				return m.call(c, self)
			})
		})
		return env.finish(L, c, err)
	}
}

// staticFunction builds the Lua function for a namespace member: a
// receiver-less function or a variant factory.
func (env *Environment) staticFunction(inst *install, s *staticEntry) lua.LGFunction {
	typeID := inst.adapter.typeID
	if s.variant != nil {
		return func(L *lua.LState) int {
			var ud *lua.LUserData
			err := protect(typeID, s.name, func() error {
				ud = env.wrap(L, inst, newHandle(inst.adapter, s.variant(), env.opts.Borrow))
				return nil
			})
			if err != nil {
				env.raise(L, err)
				return 0
			}
			L.Push(ud)
			return 1
		}
	}
	return func(L *lua.LState) int {
		c := &Call{env: env, inst: inst, L: L, name: s.name, base: 1}
		err := protect(typeID, s.name, func() error {
			return s.call(c, nil)
		})
		return env.finish(L, c, err)
	}
}

func (env *Environment) finish(L *lua.LState, c *Call, err error) int {
	if err != nil {
		env.raise(L, err)
		return 0
	}
	for _, r := range c.results {
		L.Push(r)
	}
	return len(c.results)
}

func handleToString(L *lua.LState) int {
	ud, ok := L.Get(1).(*lua.LUserData)
	if !ok {
		L.Push(lua.LString(L.Get(1).String()))
		return 1
	}
	h, ok := ud.Value.(*Handle)
	if !ok {
		L.Push(lua.LString(ud.String()))
		return 1
	}
	L.Push(lua.LString(h.String()))
	return 1
}

func (env *Environment) handleEqual(L *lua.LState) int {
	a, okA := L.Get(1).(*lua.LUserData)
	b, okB := L.Get(2).(*lua.LUserData)
	if !okA || !okB {
		L.Push(lua.LFalse)
		return 1
	}
	ha, okA := a.Value.(*Handle)
	hb, okB := b.Value.(*Handle)
	L.Push(lua.LBool(okA && okB && ha.equal(hb)))
	return 1
}
