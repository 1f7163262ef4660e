package binding_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	lua "github.com/yuin/gopher-lua"

	"github.com/luamagic/luamagic/runtime/binding"
)

// Hand-written equivalents of what the generator emits for a small game
// model. They double as documentation of the declaration API.

type status int

const (
	statusIdle status = iota
	statusWalking
	statusAttacking
)

func (*status) LuaTypeName() string { return "PlayerStatus" }

type player struct {
	Name   string
	HP     int
	Status status
	Level  int
}

func (*player) LuaTypeName() string { return "Player" }

func newPlayer(name string) player {
	return player{Name: name, HP: 100, Status: statusIdle, Level: 1}
}

func (p *player) TakeDamage(amount int) {
	p.HP -= amount
	if p.HP < 0 {
		p.HP = 0
	}
}

func (p player) IsAlive() bool {
	return p.HP > 0
}

func statusVariant(name string, v status) binding.VariantBinding {
	return binding.VariantBinding{
		Name: name,
		New:  func() any { s := v; return &s },
		Is:   func(self any) bool { return *self.(*status) == v },
	}
}

func declareStatus(ctx *binding.Context) error {
	return ctx.DeclareVariants("PlayerStatus",
		statusVariant("Idle", statusIdle),
		statusVariant("Walking", statusWalking),
		statusVariant("Attacking", statusAttacking),
	)
}

func playerFields() []binding.FieldBinding {
	return []binding.FieldBinding{
		{
			Name: "name",
			Type: "string",
			Get:  func(self any) any { return self.(*player).Name },
			Set: func(self any, value binding.Value) error {
				v, err := binding.Decode[string](value)
				if err != nil {
					return err
				}
				self.(*player).Name = v
				return nil
			},
		},
		{
			Name: "hp",
			Type: "int",
			Get:  func(self any) any { return self.(*player).HP },
			Set: func(self any, value binding.Value) error {
				v, err := binding.Decode[int](value)
				if err != nil {
					return err
				}
				self.(*player).HP = v
				return nil
			},
		},
		{
			Name: "status",
			Type: "PlayerStatus",
			Get: func(self any) any {
				v := self.(*player).Status
				return &v
			},
			Set: func(self any, value binding.Value) error {
				v, err := binding.Decode[status](value)
				if err != nil {
					return err
				}
				self.(*player).Status = v
				return nil
			},
		},
		{
			Name:     "level",
			Type:     "int",
			ReadOnly: true,
			Get:      func(self any) any { return self.(*player).Level },
		},
	}
}

func playerMethods() []binding.MethodBinding {
	return []binding.MethodBinding{
		{
			Name:     "new",
			Receiver: binding.ReceiverNone,
			Params:   []string{"string"},
			Results:  []string{"Player"},
			Func: func(c *binding.Call, _ any) error {
				a0, err := binding.Arg[string](c, 0)
				if err != nil {
					return err
				}
				r0 := newPlayer(a0)
				return c.Return(&r0)
			},
		},
		{
			Name:     "take_damage",
			Receiver: binding.ReceiverExclusive,
			Params:   []string{"int"},
			Func: func(c *binding.Call, self any) error {
				a0, err := binding.Arg[int](c, 0)
				if err != nil {
					return err
				}
				self.(*player).TakeDamage(a0)
				return nil
			},
		},
		{
			Name:     "is_alive",
			Receiver: binding.ReceiverShared,
			Results:  []string{"bool"},
			Func: func(c *binding.Call, self any) error {
				return c.Return(self.(*player).IsAlive())
			},
		},
	}
}

func declarePlayer(ctx *binding.Context) error {
	if err := ctx.DeclareFields("Player", playerFields()...); err != nil {
		return err
	}
	return ctx.DeclareMethods("Player", playerMethods()...)
}

func compileGame(t *testing.T) []*binding.Adapter {
	t.Helper()
	ctx := binding.NewContext()
	require.NoError(t, declareStatus(ctx))
	require.NoError(t, declarePlayer(ctx))

	adapters, err := binding.CompileAll(ctx, []binding.CompileRequest{
		{TypeID: "PlayerStatus", Options: binding.CompileOptions{Variants: true}},
		{TypeID: "Player", Options: binding.CompileOptions{Fields: true, Methods: true}},
	})
	require.NoError(t, err)
	return adapters
}

func newGameEnv(t *testing.T, opts binding.EnvOptions) *binding.Environment {
	t.Helper()
	L := lua.NewState()
	t.Cleanup(L.Close)

	env := binding.NewEnvironment(L, opts)
	require.NoError(t, binding.Load(env, compileGame(t)...))
	return env
}
