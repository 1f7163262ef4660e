package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/luamagic/luamagic/examples/game"
	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/runtime/binding"
)

// NewRunCommand creates the run command
func NewRunCommand() *cobra.Command {
	var (
		eval   string
		borrow string
	)

	cmd := &cobra.Command{
		Use:   "run [script.lua]",
		Short: "Run a Lua script against the demo bindings",
		Long: `Run a Lua script in a fresh state with the example game types
(Player, PlayerStatus) loaded. Without a script the built-in demo fight runs.

Examples:
  luamagic run
  luamagic run fight.lua
  luamagic run -e 'print(Player.new("Ann").hp)'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			opts := s.cfg.EnvOptions(s.logger)
			if borrow != "" {
				if opts.Borrow, err = binding.ParseBorrowPolicy(borrow); err != nil {
					return err
				}
			}

			L := lua.NewState()
			defer L.Close()
			redirectPrint(L, cmd.OutOrStdout())

			env, err := loadGame(L, opts, s.logger)
			if err != nil {
				return err
			}

			name := "demo"
			switch {
			case eval != "":
				name = "-e"
				err = env.L.DoString(eval)
			case len(args) == 1:
				name = args[0]
				err = env.L.DoFile(args[0])
			default:
				err = env.L.DoString(game.HeroScript)
			}
			if err != nil {
				fmt.Fprint(cmd.ErrOrStderr(), ui.ScriptError(name, err, noColor))
				return reportedError{err}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&eval, "eval", "e", "", "Run this chunk instead of a file")
	cmd.Flags().StringVar(&borrow, "borrow", "", "Borrow policy override: reject or wait")

	return cmd
}

func loadGame(L *lua.LState, opts binding.EnvOptions, logger *zap.Logger) (*binding.Environment, error) {
	adapters, err := game.LuaAdapters(binding.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	env := binding.NewEnvironment(L, opts)
	if err := binding.Load(env, adapters...); err != nil {
		return nil, err
	}
	return env, nil
}

// redirectPrint replaces the base library print so script output goes to
// w. Values are rendered through __tostring as the base print does.
func redirectPrint(L *lua.LState, w io.Writer) {
	L.SetGlobal("print", L.NewFunction(func(L *lua.LState) int {
		parts := make([]string, L.GetTop())
		for i := range parts {
			parts[i] = L.ToStringMeta(L.Get(i + 1)).String()
		}
		fmt.Fprintln(w, strings.Join(parts, "\t"))
		return 0
	}))
}
