package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/internal/compiler/codegen"
	"github.com/luamagic/luamagic/internal/watch"
)

// NewWatchCommand creates the watch command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch [dir]",
		Short: "Regenerate bindings whenever the package changes",
		Long: `Generate bindings for a package directory, then watch its Go files and
regenerate after every change that alters a file's content. Test files and
the generated output are ignored. Stop with Ctrl+C.

Examples:
  luamagic watch ./game
  luamagic watch --verbose`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd)
			if err != nil {
				return err
			}
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			regen := watch.NewRegenerator(dir, codegen.Options{
				Output: s.cfg.Generate.Output,
				Cache:  s.scanCache(),
				Logger: s.logger,
			})
			report := func(result *codegen.Result, err error) {
				switch {
				case err != nil:
					fmt.Fprint(cmd.ErrOrStderr(), ui.GenerateError(dir, err, noColor))
				case result != nil && result.Changed:
					ui.WriteSuccess(cmd.OutOrStdout(), fmt.Sprintf("regenerated %s (%d bound types)", result.Path, len(result.Package.Types)), noColor)
				}
			}

			// a broken package at startup is reported, not fatal
			report(regen.FullBuild(ctx))

			watcher, err := watch.NewFileWatcher(dir, watch.WatcherOptions{
				Patterns: regen.Patterns(),
				Ignored:  regen.Ignored(),
				Logger:   s.logger,
			}, func(files []string) error {
				report(regen.Rebuild(ctx, files))
				return nil
			})
			if err != nil {
				return err
			}
			if err := watcher.Start(); err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), ui.Info(fmt.Sprintf("watching %s, press Ctrl+C to stop", dir), noColor))

			<-ctx.Done()
			return watcher.Stop()
		},
	}

	return cmd
}
