package commands

import (
	"fmt"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/luamagic/luamagic/internal/cli/config"
	"github.com/luamagic/luamagic/internal/cli/ui"
)

// askInit fills cfg interactively. Tests replace it.
var askInit = promptInit

// NewInitCommand creates the init command
func NewInitCommand() *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a luamagic.yml with the default settings",
		Long: `Write luamagic.yml in the current directory. With --interactive the
settings are asked for first.

Examples:
  luamagic init
  luamagic init -i
  luamagic init --force`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if interactive {
				if err := askInit(cfg); err != nil {
					return err
				}
			}
			if err := config.Write(config.FileName, cfg, force); err != nil {
				return err
			}
			ui.WriteSuccess(cmd.OutOrStdout(), "Created "+config.FileName, noColor)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Prompt for each setting")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing config file")

	return cmd
}

func promptInit(cfg *config.Config) error {
	output := &survey.Input{
		Message: "Generated file name:",
		Default: cfg.Generate.Output,
	}
	if err := survey.AskOne(output, &cfg.Generate.Output, survey.WithValidator(survey.Required), survey.WithValidator(goFileName)); err != nil {
		return err
	}

	useCache := &survey.Confirm{
		Message: "Cache scan results between runs?",
		Default: cfg.Generate.Cache,
	}
	if err := survey.AskOne(useCache, &cfg.Generate.Cache); err != nil {
		return err
	}

	borrow := &survey.Select{
		Message: "When a script re-enters a value that is already borrowed:",
		Options: []string{"reject", "wait"},
		Default: cfg.Runtime.BorrowPolicy,
		Description: func(value string, index int) string {
			if value == "wait" {
				return "block until released (multi-goroutine embedders)"
			}
			return "raise a catchable borrow conflict"
		},
	}
	if err := survey.AskOne(borrow, &cfg.Runtime.BorrowPolicy); err != nil {
		return err
	}

	rebind := &survey.Confirm{
		Message: "Fail when a type's global name is already bound?",
		Default: cfg.Runtime.ForbidRebind,
	}
	if err := survey.AskOne(rebind, &cfg.Runtime.ForbidRebind); err != nil {
		return err
	}

	level := &survey.Select{
		Message: "Log level:",
		Options: []string{"debug", "info", "warn", "error"},
		Default: cfg.Log.Level,
	}
	return survey.AskOne(level, &cfg.Log.Level)
}

func goFileName(ans interface{}) error {
	s, _ := ans.(string)
	if !strings.HasSuffix(s, ".go") || strings.HasSuffix(s, "_test.go") || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("%q is not a non-test .go file name", s)
	}
	return nil
}
