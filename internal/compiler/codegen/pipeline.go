package codegen

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
)

// DefaultOutput is the generated file name used when Options.Output is empty.
const DefaultOutput = "luamagic_gen.go"

// Options configures Run.
type Options struct {
	// Output is the generated file name, written inside the scanned directory.
	Output string
	// Cache is handed to the scanner. Optional.
	Cache  scanner.Cache
	Logger *zap.Logger
}

// Result describes one generation run.
type Result struct {
	Package  *scanner.Package
	Path     string
	Changed  bool
	Duration time.Duration
}

// Run scans dir, generates its bindings and writes them next to the
// sources. The previous output is excluded from the scan.
func Run(ctx context.Context, dir string, opts Options) (*Result, error) {
	start := time.Now()
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	output := opts.Output
	if output == "" {
		output = DefaultOutput
	}

	pkg, err := scanner.Scan(ctx, dir, scanner.Options{
		Exclude: []string{output},
		Cache:   opts.Cache,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	src, err := NewGenerator().Generate(pkg)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(dir, output)
	changed, err := WriteFile(path, src)
	if err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}

	result := &Result{
		Package:  pkg,
		Path:     path,
		Changed:  changed,
		Duration: time.Since(start),
	}
	logger.Debug("generated bindings",
		zap.String("package", pkg.Name),
		zap.String("path", path),
		zap.Int("types", len(pkg.Types)),
		zap.Bool("changed", changed),
		zap.Duration("duration", result.Duration))
	return result, nil
}
