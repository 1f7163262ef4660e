package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/internal/compiler/codegen"
	"github.com/luamagic/luamagic/internal/utils"
)

// NewGenerateCommand creates the generate command
func NewGenerateCommand() *cobra.Command {
	var (
		output  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:     "generate [dir...]",
		Aliases: []string{"gen", "g"},
		Short:   "Generate bindings for annotated packages",
		Long: `Scan each package directory (default: the current one) for luamagic
directives and write the generated bindings next to its sources. A
trailing /... selects every annotated package beneath a directory.

The output file is only rewritten when its content changes.

Examples:
  luamagic generate
  luamagic generate ./game ./ui
  luamagic generate ./...
  luamagic generate --output bindings_gen.go ./game`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if output == "" {
				output = s.cfg.Generate.Output
			}
			opts := codegen.Options{Output: output, Logger: s.logger}
			if !noCache {
				opts.Cache = s.scanCache()
			}

			dirs, err := utils.ExpandDirs(args)
			if err != nil {
				return err
			}
			if len(dirs) == 0 {
				fmt.Fprint(cmd.ErrOrStderr(), ui.Warning("no annotated packages found", noColor))
				return nil
			}

			var failed error
			for _, dir := range dirs {
				result, err := codegen.Run(cmd.Context(), dir, opts)
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(dir, err, noColor))
					failed = reportedError{err}
					continue
				}

				status := "up to date"
				if result.Changed {
					status = "written"
				}
				ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s: %d bound types, %s %s (%s)",
					result.Package.Name, len(result.Package.Types), result.Path, status,
					result.Duration.Round(time.Microsecond)), noColor)
			}
			return failed
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Generated file name (default from generate.output)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "Bypass the scan cache")

	return cmd
}
