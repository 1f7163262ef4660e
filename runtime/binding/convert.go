package binding

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"fortio.org/safecast"
	lua "github.com/yuin/gopher-lua"
)

// Decode converts a Lua value into T. Scalars are range-checked, bound
// value types are copied out of their handle under a shared borrow and
// pointers to bound types alias the handle's value.
func Decode[T any](v Value) (T, error) {
	var out T
	if v == nil {
		v = lua.LNil
	}
	to := fmt.Sprintf("%T", out)

	var err error
	switch p := any(&out).(type) {
	case *lua.LValue:
		*p = v
	case *any:
		*p = toAny(v)
	case *string:
		*p, err = decodeString(v)
	case *bool:
		b, ok := v.(lua.LBool)
		if !ok {
			return out, NewConversionError(luaTypeName(v), "bool", "")
		}
		*p = bool(b)
	case *float64:
		*p, err = decodeFloat(v, "float64")
	case *float32:
		var f float64
		if f, err = decodeFloat(v, "float32"); err == nil {
			if math.Abs(f) > math.MaxFloat32 && !math.IsInf(f, 0) {
				err = NewConversionError(luaTypeName(v), "float32", "out of range")
			}
			*p = float32(f)
		}
	case *int:
		*p, err = decodeIntegral(v, "int", func(f float64) (int, error) { return safecast.Convert[int](f) })
	case *int8:
		*p, err = decodeIntegral(v, "int8", func(f float64) (int8, error) { return safecast.Convert[int8](f) })
	case *int16:
		*p, err = decodeIntegral(v, "int16", func(f float64) (int16, error) { return safecast.Convert[int16](f) })
	case *int32:
		*p, err = decodeIntegral(v, "int32", func(f float64) (int32, error) { return safecast.Convert[int32](f) })
	case *int64:
		*p, err = decodeIntegral(v, "int64", func(f float64) (int64, error) { return safecast.Convert[int64](f) })
	case *uint:
		*p, err = decodeIntegral(v, "uint", func(f float64) (uint, error) { return safecast.Convert[uint](f) })
	case *uint8:
		*p, err = decodeIntegral(v, "uint8", func(f float64) (uint8, error) { return safecast.Convert[uint8](f) })
	case *uint16:
		*p, err = decodeIntegral(v, "uint16", func(f float64) (uint16, error) { return safecast.Convert[uint16](f) })
	case *uint32:
		*p, err = decodeIntegral(v, "uint32", func(f float64) (uint32, error) { return safecast.Convert[uint32](f) })
	case *uint64:
		*p, err = decodeIntegral(v, "uint64", func(f float64) (uint64, error) { return safecast.Convert[uint64](f) })
	case *[]string:
		*p, err = decodeList(v, "[]string", decodeString)
	case *[]float64:
		*p, err = decodeList(v, "[]float64", func(e Value) (float64, error) { return decodeFloat(e, "float64") })
	case *[]int:
		*p, err = decodeList(v, "[]int", func(e Value) (int, error) {
			return decodeIntegral(e, "int", func(f float64) (int, error) { return safecast.Convert[int](f) })
		})
	case *map[string]any:
		tbl, ok := v.(*lua.LTable)
		if !ok {
			return out, NewConversionError(luaTypeName(v), to, "")
		}
		*p = tableToMap(tbl)
	default:
		return decodeHandle[T](v, to)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// decodeHandle extracts a bound value (or pointer) from handle userdata.
func decodeHandle[T any](v Value, to string) (T, error) {
	var zero T
	ud, ok := v.(*lua.LUserData)
	if !ok {
		return zero, NewConversionError(luaTypeName(v), to, "")
	}
	h, ok := ud.Value.(*Handle)
	if !ok {
		return zero, NewConversionError("userdata", to, "userdata was not created by luamagic")
	}

	if ptr, ok := h.value.(T); ok {
		return ptr, nil
	}
	ptr, ok := h.value.(*T)
	if !ok {
		return zero, NewConversionError(h.TypeID(), to, "handle holds a different type")
	}
	var out T
	err := h.With(false, func(any) error {
		out = *ptr
		return nil
	})
	return out, err
}

func decodeString(v Value) (string, error) {
	switch x := v.(type) {
	case lua.LString:
		return string(x), nil
	case lua.LNumber:
		return lua.LVAsString(x), nil
	default:
		return "", NewConversionError(luaTypeName(v), "string", "")
	}
}

func decodeFloat(v Value, to string) (float64, error) {
	switch x := v.(type) {
	case lua.LNumber:
		return float64(x), nil
	case lua.LString:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(x)), 64)
		if err != nil {
			return 0, NewConversionError("string", to, "not a number").WithCause(err)
		}
		return f, nil
	default:
		return 0, NewConversionError(luaTypeName(v), to, "")
	}
}

func decodeIntegral[N any](v Value, to string, conv func(float64) (N, error)) (N, error) {
	var zero N
	f, err := decodeFloat(v, to)
	if err != nil {
		return zero, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return zero, NewConversionError(lua.LNumber(f).String(), to, "not an integer")
	}
	n, err := conv(f)
	if err != nil {
		return zero, NewConversionError(lua.LNumber(f).String(), to, "out of range")
	}
	return n, nil
}

func decodeList[E any](v Value, to string, elem func(Value) (E, error)) ([]E, error) {
	tbl, ok := v.(*lua.LTable)
	if !ok {
		return nil, NewConversionError(luaTypeName(v), to, "")
	}
	n := tbl.Len()
	out := make([]E, 0, n)
	for i := 1; i <= n; i++ {
		e, err := elem(tbl.RawGetInt(i))
		if err != nil {
			return nil, NewConversionError("table", to, fmt.Sprintf("element %d", i)).WithCause(err)
		}
		out = append(out, e)
	}
	return out, nil
}

func toAny(v Value) any {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		return bool(x)
	case lua.LNumber:
		return float64(x)
	case lua.LString:
		return string(x)
	case *lua.LTable:
		if n := x.Len(); n > 0 {
			out := make([]any, 0, n)
			for i := 1; i <= n; i++ {
				out = append(out, toAny(x.RawGetInt(i)))
			}
			return out
		}
		return tableToMap(x)
	case *lua.LUserData:
		if h, ok := x.Value.(*Handle); ok {
			return h
		}
		return x
	default:
		return v
	}
}

func tableToMap(tbl *lua.LTable) map[string]any {
	out := make(map[string]any)
	tbl.ForEach(func(k, v lua.LValue) {
		out[k.String()] = toAny(v)
	})
	return out
}

func luaTypeName(v Value) string {
	if ud, ok := v.(*lua.LUserData); ok {
		if h, ok := ud.Value.(*Handle); ok {
			return h.TypeID()
		}
	}
	return v.Type().String()
}

// encode converts a native value into a Lua value. Pointers to bound types
// become handles; prefer is consulted before the environment's current
// bindings so factories keep producing handles of their own adapter.
func (env *Environment) encode(L *lua.LState, prefer *install, v any) (lua.LValue, error) {
	switch x := v.(type) {
	case nil:
		return lua.LNil, nil
	case lua.LValue:
		return x, nil
	case bool:
		return lua.LBool(x), nil
	case string:
		return lua.LString(x), nil
	case []byte:
		return lua.LString(string(x)), nil
	case int:
		return lua.LNumber(x), nil
	case int8:
		return lua.LNumber(x), nil
	case int16:
		return lua.LNumber(x), nil
	case int32:
		return lua.LNumber(x), nil
	case int64:
		return lua.LNumber(x), nil
	case uint:
		return lua.LNumber(x), nil
	case uint8:
		return lua.LNumber(x), nil
	case uint16:
		return lua.LNumber(x), nil
	case uint32:
		return lua.LNumber(x), nil
	case uint64:
		return lua.LNumber(x), nil
	case float32:
		return lua.LNumber(x), nil
	case float64:
		return lua.LNumber(x), nil
	case *Handle:
		inst := env.installOf(x.adapter)
		if inst == nil {
			return nil, NewConversionError(x.TypeID(), "handle", "adapter is not loaded in this environment")
		}
		return env.wrap(L, inst, x), nil
	case Bound:
		name := x.LuaTypeName()
		inst := prefer
		if inst == nil || inst.adapter.typeID != name {
			inst = env.current(name)
		}
		if inst == nil {
			return nil, NewConversionError(name, "handle", fmt.Sprintf("type %s is not loaded", name))
		}
		return env.wrap(L, inst, newHandle(inst.adapter, x, env.opts.Borrow)), nil
	case []string:
		tbl := L.CreateTable(len(x), 0)
		for _, s := range x {
			tbl.Append(lua.LString(s))
		}
		return tbl, nil
	case []int:
		tbl := L.CreateTable(len(x), 0)
		for _, n := range x {
			tbl.Append(lua.LNumber(n))
		}
		return tbl, nil
	case []float64:
		tbl := L.CreateTable(len(x), 0)
		for _, f := range x {
			tbl.Append(lua.LNumber(f))
		}
		return tbl, nil
	case []any:
		tbl := L.CreateTable(len(x), 0)
		for i, e := range x {
			lv, err := env.encode(L, prefer, e)
			if err != nil {
				return nil, NewConversionError("[]any", "table", fmt.Sprintf("element %d", i+1)).WithCause(err)
			}
			tbl.Append(lv)
		}
		return tbl, nil
	case map[string]any:
		tbl := L.CreateTable(0, len(x))
		for k, e := range x {
			lv, err := env.encode(L, prefer, e)
			if err != nil {
				return nil, NewConversionError("map[string]any", "table", fmt.Sprintf("key %q", k)).WithCause(err)
			}
			tbl.RawSetString(k, lv)
		}
		return tbl, nil
	default:
		return nil, NewConversionError(fmt.Sprintf("%T", v), "lua value", "unsupported type")
	}
}

// Encode converts a native value into a Lua value owned by the
// environment's state.
func (env *Environment) Encode(v any) (Value, error) {
	return env.encode(env.L, nil, v)
}
