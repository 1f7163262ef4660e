package binding_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luamagic/luamagic/runtime/binding"
)

func TestCompile_UnknownType(t *testing.T) {
	ctx := binding.NewContext()

	_, err := binding.Compile(ctx, "Ghost", binding.CompileOptions{Fields: true})
	assert.ErrorIs(t, err, binding.ErrUnknownType)
	assert.ErrorIs(t, binding.Validate(ctx, "Ghost", binding.CompileOptions{}), binding.ErrUnknownType)
}

func TestCompile_AbsentGroupsAreEmpty(t *testing.T) {
	ctx := binding.NewContext()
	require.NoError(t, ctx.DeclareMethods("Player", playerMethods()...))

	a, err := binding.Compile(ctx, "Player", binding.CompileOptions{Fields: true, Methods: true, Variants: true})
	require.NoError(t, err)
	assert.Empty(t, a.Fields())
	assert.Empty(t, a.Variants())
	assert.Len(t, a.Methods(), 2)
	assert.Len(t, a.Statics(), 1)
}

func TestCompile_Tables(t *testing.T) {
	ctx := binding.NewContext()
	require.NoError(t, declarePlayer(ctx))

	a, err := binding.Compile(ctx, "Player", binding.CompileOptions{Fields: true, Methods: true})
	require.NoError(t, err)

	assert.Equal(t, "Player", a.TypeID())
	assert.Equal(t, []binding.FieldInfo{
		{Name: "name", Type: "string", Writable: true},
		{Name: "hp", Type: "int", Writable: true},
		{Name: "status", Type: "PlayerStatus", Writable: true},
		{Name: "level", Type: "int", Writable: false},
	}, a.Fields())
	assert.Equal(t, []binding.MethodInfo{
		{Name: "take_damage", Receiver: binding.ReceiverExclusive},
		{Name: "is_alive", Receiver: binding.ReceiverShared},
	}, a.Methods())
	assert.Equal(t, []binding.MethodInfo{
		{Name: "new", Receiver: binding.ReceiverNone, Constructor: true},
	}, a.Statics())
}

func TestCompile_TwiceYieldsEquivalentIndependentAdapters(t *testing.T) {
	ctx := binding.NewContext()
	require.NoError(t, declarePlayer(ctx))
	opts := binding.CompileOptions{Fields: true, Methods: true}

	first, err := binding.Compile(ctx, "Player", opts)
	require.NoError(t, err)
	second, err := binding.Compile(ctx, "Player", opts)
	require.NoError(t, err)

	assert.Equal(t, first.Fields(), second.Fields())
	assert.NotEqual(t, first.ID(), second.ID())
	assert.Equal(t, 2, ctx.CompileCount("Player"))

	// different options produce another independent adapter
	fieldsOnly, err := binding.Compile(ctx, "Player", binding.CompileOptions{Fields: true})
	require.NoError(t, err)
	assert.Empty(t, fieldsOnly.Methods())
	assert.Len(t, first.Methods(), 2)
}

func TestCompile_NameCollisions(t *testing.T) {
	fn := func(*binding.Call, any) error { return nil }
	all := binding.CompileOptions{Fields: true, Methods: true, Variants: true}

	tests := []struct {
		name    string
		declare func(ctx *binding.Context) error
		opts    binding.CompileOptions
		wantErr bool
	}{
		{
			name: "field and method",
			declare: func(ctx *binding.Context) error {
				if err := ctx.DeclareFields("T", binding.FieldBinding{Name: "hp", Get: getter, ReadOnly: true}); err != nil {
					return err
				}
				return ctx.DeclareMethods("T", binding.MethodBinding{Name: "hp", Receiver: binding.ReceiverShared, Func: fn})
			},
			opts:    all,
			wantErr: true,
		},
		{
			name: "variant and static method",
			declare: func(ctx *binding.Context) error {
				if err := ctx.DeclareVariants("T", statusVariant("Idle", statusIdle)); err != nil {
					return err
				}
				return ctx.DeclareMethods("T", binding.MethodBinding{Name: "Idle", Func: fn})
			},
			opts:    all,
			wantErr: true,
		},
		{
			name: "field and variant",
			declare: func(ctx *binding.Context) error {
				if err := ctx.DeclareVariants("T", statusVariant("Idle", statusIdle)); err != nil {
					return err
				}
				return ctx.DeclareFields("T", binding.FieldBinding{Name: "Idle", Get: getter, ReadOnly: true})
			},
			opts:    all,
			wantErr: true,
		},
		{
			name: "disabled group does not collide",
			declare: func(ctx *binding.Context) error {
				if err := ctx.DeclareFields("T", binding.FieldBinding{Name: "hp", Get: getter, ReadOnly: true}); err != nil {
					return err
				}
				return ctx.DeclareMethods("T", binding.MethodBinding{Name: "hp", Receiver: binding.ReceiverShared, Func: fn})
			},
			opts:    binding.CompileOptions{Fields: true},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := binding.NewContext()
			require.NoError(t, tt.declare(ctx))

			_, err := binding.Compile(ctx, "T", tt.opts)
			if !tt.wantErr {
				assert.NoError(t, err)
				assert.Equal(t, 1, ctx.CompileCount("T"))
				return
			}
			assert.ErrorIs(t, err, binding.ErrNameCollision)
			assert.Equal(t, 0, ctx.CompileCount("T"), "failed compilations are not counted")
			assert.ErrorIs(t, binding.Validate(ctx, "T", tt.opts), binding.ErrNameCollision)
		})
	}
}

func TestCompile_IncompleteBinding(t *testing.T) {
	ctx := binding.NewContext()
	require.NoError(t, ctx.DeclareFields("T", binding.FieldBinding{Name: "hp", Get: getter}))

	// writable field without a setter
	_, err := binding.Compile(ctx, "T", binding.CompileOptions{Fields: true})
	assert.ErrorIs(t, err, binding.ErrIncompleteBinding)

	// validation only looks at names
	assert.NoError(t, binding.Validate(ctx, "T", binding.CompileOptions{Fields: true}))

	require.NoError(t, ctx.DeclareVariants("E", binding.VariantBinding{Name: "A"}))
	_, err = binding.Compile(ctx, "E", binding.CompileOptions{Variants: true})
	assert.ErrorIs(t, err, binding.ErrIncompleteBinding)
}

func TestMethodBinding_IsConstructor(t *testing.T) {
	assert.True(t, binding.MethodBinding{Results: []string{"Player"}}.IsConstructor("Player"))
	assert.True(t, binding.MethodBinding{Results: []string{"*Player", "error"}}.IsConstructor("Player"))
	assert.False(t, binding.MethodBinding{Results: []string{"int"}}.IsConstructor("Player"))
	assert.False(t, binding.MethodBinding{
		Receiver: binding.ReceiverShared,
		Results:  []string{"Player"},
	}.IsConstructor("Player"))
}

func TestCompileAll_StopsAtFirstError(t *testing.T) {
	ctx := binding.NewContext()
	require.NoError(t, declareStatus(ctx))

	adapters, err := binding.CompileAll(ctx, []binding.CompileRequest{
		{TypeID: "PlayerStatus", Options: binding.CompileOptions{Variants: true}},
		{TypeID: "Player", Options: binding.CompileOptions{Fields: true}},
	})
	assert.ErrorIs(t, err, binding.ErrUnknownType)
	assert.Nil(t, adapters)
}
