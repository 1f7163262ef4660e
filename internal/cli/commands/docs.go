package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/internal/compiler/scanner"
	"github.com/luamagic/luamagic/internal/docs"
	"github.com/luamagic/luamagic/internal/utils"
)

// NewDocsCommand creates the docs command
func NewDocsCommand() *cobra.Command {
	var (
		outputDir string
		formats   []string
	)

	cmd := &cobra.Command{
		Use:   "docs [dir...]",
		Short: "Generate Lua API documentation for annotated packages",
		Long: `Render the globals each package installs as a Markdown reference and
as a LuaLS definition file (<package>.lua) that editors load for
completion and type checking.

Examples:
  luamagic docs
  luamagic docs --format luals --output .luarc/meta ./game
  luamagic docs ./...`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			if outputDir == "" {
				outputDir = s.cfg.Docs.OutputDir
			}
			selected, err := s.cfg.DocFormats()
			if err != nil {
				return err
			}
			if len(formats) > 0 {
				selected = selected[:0]
				for _, name := range formats {
					f, err := docs.ParseFormat(name)
					if err != nil {
						return err
					}
					selected = append(selected, f)
				}
			}

			dirs, err := utils.ExpandDirs(args)
			if err != nil {
				return err
			}

			gen := docs.NewGenerator(&docs.Config{OutputDir: outputDir, Formats: selected})
			var failed error
			for _, dir := range dirs {
				pkg, err := scanner.Scan(cmd.Context(), dir, scanner.Options{
					Exclude: []string{s.cfg.Generate.Output},
					Cache:   s.scanCache(),
					Logger:  s.logger,
				})
				if err != nil {
					fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(dir, err, noColor))
					failed = reportedError{err}
					continue
				}

				written, err := gen.Generate(pkg)
				if err != nil {
					return err
				}
				for _, path := range written {
					ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("%s: %s", pkg.Name, filepath.ToSlash(path)), noColor)
				}
			}
			return failed
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "", "Output directory (default from docs.output_dir)")
	cmd.Flags().StringSliceVarP(&formats, "format", "f", nil, "Formats to render: markdown, luals")

	return cmd
}
