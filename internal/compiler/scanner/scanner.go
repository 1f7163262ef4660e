// Package scanner reads luamagic directives from a Go package directory.
//
// Each file is parsed independently (in parallel, optionally served from a
// cache) into a File. Files are then merged in name order into a Package,
// whose declarations are checked through a binding.Context exactly as the
// generated code will declare them at run time.
package scanner

import (
	"context"
	"errors"
	"fmt"
	"go/build"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Cache stores scan results keyed by file name and content.
type Cache interface {
	Get(name string, src []byte) (*File, bool)
	Put(name string, src []byte, f *File) error
}

// Options configures Scan.
type Options struct {
	// Exclude lists file base names to ignore, typically the generated output.
	Exclude []string
	// Cache is consulted before parsing a file. Optional.
	Cache Cache
	// Logger defaults to a no-op logger.
	Logger *zap.Logger
}

// Scan reads every non-test Go file in dir that matches the current build
// context and returns the merged, checked package.
func Scan(ctx context.Context, dir string, opts Options) (*Package, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	paths, err := sourceFiles(dir, opts.Exclude)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no Go source files in %s", dir)
	}

	files := make([]*File, len(paths))
	var (
		mu   sync.Mutex
		errs ErrorList
		hits int
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err != nil {
				return err
			}
			name := filepath.Base(path)

			if opts.Cache != nil {
				if f, ok := opts.Cache.Get(name, src); ok {
					files[i] = f
					mu.Lock()
					hits++
					mu.Unlock()
					return nil
				}
			}

			f, err := scanFile(token.NewFileSet(), path, src)
			if err != nil {
				var list ErrorList
				if errors.As(err, &list) {
					mu.Lock()
					errs = append(errs, list...)
					mu.Unlock()
					return nil
				}
				return err
			}
			files[i] = f

			if opts.Cache != nil {
				if err := opts.Cache.Put(name, src, f); err != nil {
					logger.Warn("failed to cache scan result", zap.String("file", name), zap.Error(err))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := errs.err(); err != nil {
		return nil, err
	}

	logger.Debug("scanned package",
		zap.String("dir", dir),
		zap.Int("files", len(files)),
		zap.Int("cache_hits", hits))

	pkg, err := Merge(dir, files)
	if err != nil {
		return nil, err
	}
	if err := pkg.Check(); err != nil {
		return nil, err
	}
	return pkg, nil
}

// sourceFiles lists the Go files in dir in name order.
func sourceFiles(dir string, exclude []string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	skip := make(map[string]bool, len(exclude))
	for _, name := range exclude {
		skip[name] = true
	}

	var out []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || skip[name] || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
			continue
		}
		ok, err := build.Default.MatchFile(dir, name)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, filepath.Join(dir, name))
		}
	}
	sort.Strings(out)
	return out, nil
}
