package binding

import (
	"errors"
	"fmt"

	lua "github.com/yuin/gopher-lua"
)

// Call carries the arguments and results of one script-side invocation.
// Arguments are indexed from zero and exclude the receiver.
type Call struct {
	env     *Environment
	inst    *install
	L       *lua.LState
	name    string
	base    int
	results []lua.LValue
}

// State returns the Lua state the call runs on.
func (c *Call) State() *lua.LState { return c.L }

// Name returns the script-visible name of the invoked function.
func (c *Call) Name() string { return c.name }

// NArgs returns the number of arguments passed, excluding the receiver.
func (c *Call) NArgs() int {
	n := c.L.GetTop() - c.base + 1
	if n < 0 {
		return 0
	}
	return n
}

// Arg returns argument i, or nil when fewer arguments were passed.
func (c *Call) Arg(i int) Value {
	if i < 0 || i >= c.NArgs() {
		return lua.LNil
	}
	return c.L.Get(c.base + i)
}

// Return encodes values as the call's results.
func (c *Call) Return(values ...any) error {
	for i, v := range values {
		lv, err := c.env.encode(c.L, c.inst, v)
		if err != nil {
			return fmt.Errorf("result #%d of '%s': %w", i+1, c.name, err)
		}
		c.results = append(c.results, lv)
	}
	return nil
}

// Arg decodes argument i of c into T.
func Arg[T any](c *Call, i int) (T, error) {
	v, err := Decode[T](c.Arg(i))
	if err != nil {
		var be *Error
		if errors.As(err, &be) {
			wrapped := *be
			wrapped.Message = fmt.Sprintf("bad argument #%d to '%s': %s", i+1, c.name, be.Message)
			return v, &wrapped
		}
		return v, fmt.Errorf("bad argument #%d to '%s': %w", i+1, c.name, err)
	}
	return v, nil
}
