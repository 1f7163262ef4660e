package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/luamagic/luamagic/internal/docs"
	"github.com/luamagic/luamagic/runtime/binding"
)

// FileName is the config file written by `luamagic init`.
const FileName = "luamagic.yml"

// EnvPrefix prefixes environment overrides, e.g. LUAMAGIC_LOG_LEVEL.
const EnvPrefix = "LUAMAGIC"

// Config represents the luamagic configuration
type Config struct {
	Generate GenerateConfig `mapstructure:"generate" yaml:"generate"`
	Docs     DocsConfig     `mapstructure:"docs" yaml:"docs"`
	Runtime  RuntimeConfig  `mapstructure:"runtime" yaml:"runtime"`
	Log      LogConfig      `mapstructure:"log" yaml:"log"`
}

// GenerateConfig represents code generation configuration
type GenerateConfig struct {
	Output   string `mapstructure:"output" yaml:"output"`
	Cache    bool   `mapstructure:"cache" yaml:"cache"`
	CacheDir string `mapstructure:"cache_dir" yaml:"cache_dir"`
}

// DocsConfig represents Lua API documentation configuration
type DocsConfig struct {
	OutputDir string   `mapstructure:"output_dir" yaml:"output_dir"`
	Formats   []string `mapstructure:"formats" yaml:"formats"`
}

// RuntimeConfig represents the Lua environment configuration
type RuntimeConfig struct {
	BorrowPolicy string `mapstructure:"borrow_policy" yaml:"borrow_policy"`
	ForbidRebind bool   `mapstructure:"forbid_rebind" yaml:"forbid_rebind"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Generate: GenerateConfig{
			Output:   "luamagic_gen.go",
			Cache:    true,
			CacheDir: filepath.Join(".luamagic", "cache"),
		},
		Docs: DocsConfig{
			OutputDir: "docs",
			Formats:   []string{string(docs.FormatMarkdown), string(docs.FormatStubs)},
		},
		Runtime: RuntimeConfig{
			BorrowPolicy: binding.BorrowReject.String(),
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load loads the configuration from luamagic.yml (or .yaml/.toml) in the
// working directory, with LUAMAGIC_ environment overrides.
func Load() (*Config, error) {
	return LoadFrom(".")
}

// LoadFrom is Load for an explicit directory.
func LoadFrom(dir string) (*Config, error) {
	v := viper.New()

	def := Default()
	v.SetDefault("generate.output", def.Generate.Output)
	v.SetDefault("generate.cache", def.Generate.Cache)
	v.SetDefault("generate.cache_dir", def.Generate.CacheDir)
	v.SetDefault("docs.output_dir", def.Docs.OutputDir)
	v.SetDefault("docs.formats", def.Docs.Formats)
	v.SetDefault("runtime.borrow_policy", def.Runtime.BorrowPolicy)
	v.SetDefault("runtime.forbid_rebind", def.Runtime.ForbidRebind)
	v.SetDefault("log.level", def.Log.Level)
	v.SetDefault("log.development", def.Log.Development)

	v.SetConfigName("luamagic")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Config file not found - use defaults
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	out := strings.TrimSpace(c.Generate.Output)
	if out == "" {
		return fmt.Errorf("generate.output must not be empty")
	}
	if filepath.Base(out) != out {
		return fmt.Errorf("generate.output must be a file name, got: %s", out)
	}
	if !strings.HasSuffix(out, ".go") || strings.HasSuffix(out, "_test.go") {
		return fmt.Errorf("generate.output must be a non-test .go file, got: %s", out)
	}
	if c.Generate.Cache && c.Generate.CacheDir == "" {
		return fmt.Errorf("generate.cache_dir must be set when generate.cache is enabled")
	}
	if c.Docs.OutputDir == "" {
		return fmt.Errorf("docs.output_dir must not be empty")
	}
	if _, err := c.DocFormats(); err != nil {
		return fmt.Errorf("docs.formats: %w", err)
	}
	if _, err := binding.ParseBorrowPolicy(c.Runtime.BorrowPolicy); err != nil {
		return fmt.Errorf("runtime.borrow_policy: %w", err)
	}
	return nil
}

// DocFormats parses the docs.formats list.
func (c *Config) DocFormats() ([]docs.Format, error) {
	out := make([]docs.Format, 0, len(c.Docs.Formats))
	for _, name := range c.Docs.Formats {
		f, err := docs.ParseFormat(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// EnvOptions translates the runtime section for binding.NewEnvironment.
func (c *Config) EnvOptions(logger *zap.Logger) binding.EnvOptions {
	// Validate has already accepted the policy
	policy, _ := binding.ParseBorrowPolicy(c.Runtime.BorrowPolicy)
	return binding.EnvOptions{
		ForbidRebind: c.Runtime.ForbidRebind,
		Borrow:       policy,
		Logger:       logger,
	}
}

// Write saves cfg as YAML to path. It refuses to overwrite an existing
// file unless force is set.
func Write(path string, cfg *Config, force bool) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// GetProjectRoot walks up from the working directory to the first
// directory holding a luamagic config file or a go.mod.
func GetProjectRoot() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}

	for {
		for _, marker := range []string{"luamagic.yml", "luamagic.yaml", "luamagic.toml", "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not in a luamagic project (no %s or go.mod found)", FileName)
		}
		dir = parent
	}
}
