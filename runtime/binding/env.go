package binding

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// EnvOptions configures an Environment.
type EnvOptions struct {
	// ForbidRebind makes Load fail with DuplicateGlobal when a type's global
	// name is already bound.
	ForbidRebind bool
	// Borrow selects how conflicting handle access is resolved.
	Borrow BorrowPolicy
	// Logger receives install and runtime error events. Defaults to a no-op logger.
	Logger *zap.Logger
}

// Environment is a live Lua state together with the adapters installed in it.
type Environment struct {
	L      *lua.LState
	opts   EnvOptions
	logger *zap.Logger

	mu        sync.RWMutex
	bound     map[string]*install
	byAdapter map[uuid.UUID]*install

	eq *lua.LFunction
}

// install is one adapter bound into one environment.
type install struct {
	adapter   *Adapter
	meta      *lua.LTable
	namespace *lua.LTable
	methods   map[string]*lua.LFunction
}

// NewEnvironment wraps L. The caller keeps ownership of L and closes it.
func NewEnvironment(L *lua.LState, opts EnvOptions) *Environment {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	env := &Environment{
		L:         L,
		opts:      opts,
		logger:    logger,
		bound:     make(map[string]*install),
		byAdapter: make(map[uuid.UUID]*install),
	}
	// One __eq for every metatable: Lua only consults __eq when both
	// operands share the metamethod, and handles of a reloaded type must
	// still compare equal to handles of the previous binding.
	env.eq = L.NewFunction(env.handleEqual)
	return env
}

// Adapter returns the adapter currently bound under name.
func (env *Environment) Adapter(name string) (*Adapter, bool) {
	inst := env.current(name)
	if inst == nil {
		return nil, false
	}
	return inst.adapter, true
}

func (env *Environment) current(name string) *install {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.bound[name]
}

func (env *Environment) installOf(a *Adapter) *install {
	env.mu.RLock()
	defer env.mu.RUnlock()
	return env.byAdapter[a.id]
}

// Load installs each adapter under its type name, in order. Each type is
// installed atomically; on error the types before it stay installed.
func Load(env *Environment, adapters ...*Adapter) error {
	for _, a := range adapters {
		if err := env.install(a); err != nil {
			return err
		}
	}
	return nil
}

func (env *Environment) install(a *Adapter) error {
	name := a.typeID
	if env.opts.ForbidRebind && env.L.GetGlobal(name).Type() != lua.LTNil {
		return NewDuplicateGlobal(name)
	}

	inst := &install{
		adapter: a,
		methods: make(map[string]*lua.LFunction, len(a.methods)),
	}
	for _, mname := range a.methodOrder {
		inst.methods[mname] = env.L.NewFunction(env.methodFunction(inst, a.methods[mname]))
	}

	inst.meta = env.L.NewTable()
	inst.meta.RawSetString("__index", env.L.NewFunction(env.indexFunction(inst)))
	inst.meta.RawSetString("__newindex", env.L.NewFunction(env.newIndexFunction(inst)))
	inst.meta.RawSetString("__tostring", env.L.NewFunction(handleToString))
	inst.meta.RawSetString("__eq", env.eq)
	inst.meta.RawSetString("__name", lua.LString(name))

	inst.namespace = env.L.NewTable()
	for _, sname := range a.staticOrder {
		inst.namespace.RawSetString(sname, env.L.NewFunction(env.staticFunction(inst, a.statics[sname])))
	}
	nsMeta := env.L.NewTable()
	nsMeta.RawSetString("__tostring", env.L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(name))
		return 1
	}))
	env.L.SetMetatable(inst.namespace, nsMeta)

	env.mu.Lock()
	prev := env.bound[name]
	env.bound[name] = inst
	env.byAdapter[a.id] = inst
	env.mu.Unlock()

	env.L.SetGlobal(name, inst.namespace)

	fields := []zap.Field{
		zap.String("type", name),
		zap.String("adapter", a.id.String()),
		zap.Int("statics", len(a.staticOrder)),
	}
	if prev != nil {
		env.logger.Debug("rebound global", append(fields, zap.String("previous", prev.adapter.id.String()))...)
	} else {
		env.logger.Debug("installed global", fields...)
	}
	return nil
}

// wrap creates userdata for h with the install's metatable.
func (env *Environment) wrap(L *lua.LState, inst *install, h *Handle) *lua.LUserData {
	ud := L.NewUserData()
	ud.Value = h
	L.SetMetatable(ud, inst.meta)
	return ud
}

// NewHandle wraps value, a pointer to a bound type, in userdata using the
// adapter currently bound under typeID.
func (env *Environment) NewHandle(typeID string, value any) (*lua.LUserData, error) {
	inst := env.current(typeID)
	if inst == nil {
		return nil, NewConversionError(typeID, "handle", fmt.Sprintf("type %s is not loaded", typeID))
	}
	return env.wrap(env.L, inst, newHandle(inst.adapter, value, env.opts.Borrow)), nil
}

// raise reports err to the script caller as a Lua error.
func (env *Environment) raise(L *lua.LState, err error) {
	env.logger.Debug("raising script error", zap.Error(err))
	L.RaiseError("%s", err.Error())
}

// protect runs fn and turns a Go panic inside bound code into an error.
// Lua errors raised by nested script calls keep unwinding.
func protect(typeID, name string, fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			if apiErr, ok := r.(*lua.ApiError); ok {
				panic(apiErr)
			}
			err = fmt.Errorf("panic in %s.%s: %v", typeID, name, r)
		}
	}()
	return fn()
}

func checkHandle(L *lua.LState, inst *install, idx int, member string) *Handle {
	ud, ok := L.Get(idx).(*lua.LUserData)
	if ok {
		if h, ok := ud.Value.(*Handle); ok && h.TypeID() == inst.adapter.typeID {
			return h
		}
	}
	L.RaiseError("%s", NewConversionError(luaTypeName(L.Get(idx)), inst.adapter.typeID,
		fmt.Sprintf("bad self for '%s'", member)).Error())
	return nil
}
