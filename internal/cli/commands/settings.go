package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/luamagic/luamagic/internal/cli/config"
	"github.com/luamagic/luamagic/internal/cli/ui"
	"github.com/luamagic/luamagic/internal/compiler/cache"
	"github.com/luamagic/luamagic/internal/compiler/scanner"
	"github.com/luamagic/luamagic/internal/logging"
)

// settings is the configuration and logger shared by every command.
type settings struct {
	cfg    *config.Config
	logger *zap.Logger
}

func loadSettings(cmd *cobra.Command) (*settings, error) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprint(cmd.ErrOrStderr(), ui.ConfigError(err, noColor))
		return nil, reportedError{err}
	}

	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	logger, err := logging.New(level, cfg.Log.Development)
	if err != nil {
		return nil, err
	}
	return &settings{cfg: cfg, logger: logger}, nil
}

// scanCache opens the configured scan cache, or returns nil when caching
// is disabled or the cache directory is unusable.
func (s *settings) scanCache() scanner.Cache {
	if !s.cfg.Generate.Cache {
		return nil
	}
	c, err := cache.OpenScanCache(s.cfg.Generate.CacheDir, s.logger)
	if err != nil {
		s.logger.Warn("scan cache disabled", zap.String("dir", s.cfg.Generate.CacheDir), zap.Error(err))
		return nil
	}
	return c
}
