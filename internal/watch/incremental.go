package watch

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/luamagic/luamagic/internal/compiler/cache"
	"github.com/luamagic/luamagic/internal/compiler/codegen"
)

// Regenerator reruns code generation for a directory when the content of
// a relevant source file changed. The generated output is never relevant.
type Regenerator struct {
	dir    string
	opts   codegen.Options
	hasher *cache.FileHasher
	logger *zap.Logger

	mu     sync.Mutex
	hashes map[string]string
}

// NewRegenerator creates a regenerator for dir. opts is passed to codegen.Run.
func NewRegenerator(dir string, opts codegen.Options) *Regenerator {
	if opts.Output == "" {
		opts.Output = codegen.DefaultOutput
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Regenerator{
		dir:    dir,
		opts:   opts,
		hasher: cache.NewFileHasher(),
		logger: logger,
		hashes: make(map[string]string),
	}
}

// Patterns are the file globs worth watching.
func (r *Regenerator) Patterns() []string { return []string{"*.go"} }

// Ignored are the globs the watcher must skip.
func (r *Regenerator) Ignored() []string {
	return []string{"*_test.go", r.opts.Output, "*~", "*.swp"}
}

// FullBuild generates unconditionally and records the hashes of every
// source file, so the next batch is compared against this state.
func (r *Regenerator) FullBuild(ctx context.Context) (*codegen.Result, error) {
	matches, err := filepath.Glob(filepath.Join(r.dir, "*.go"))
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	for _, path := range matches {
		if r.relevant(path) {
			r.record(path)
		}
	}
	r.mu.Unlock()
	return codegen.Run(ctx, r.dir, r.opts)
}

// Rebuild regenerates when at least one of files changed content. A nil
// result with a nil error means the batch was skipped.
func (r *Regenerator) Rebuild(ctx context.Context, files []string) (*codegen.Result, error) {
	changed := r.Changed(files)
	if len(changed) == 0 {
		r.logger.Debug("no content changes", zap.Strings("files", files))
		return nil, nil
	}
	r.logger.Info("regenerating", zap.Strings("changed", changed))
	return codegen.Run(ctx, r.dir, r.opts)
}

// Changed filters files to the relevant ones whose content hash differs
// from the last recorded one, recording the new hashes.
func (r *Regenerator) Changed(files []string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []string
	for _, path := range files {
		if !r.relevant(path) {
			continue
		}
		if r.record(path) {
			out = append(out, path)
		}
	}
	return out
}

func (r *Regenerator) relevant(path string) bool {
	name := filepath.Base(path)
	return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go") && name != r.opts.Output
}

// record stores the current hash of path and reports whether it differs
// from the previous one. A deleted file counts as changed once.
func (r *Regenerator) record(path string) bool {
	hash, err := r.hasher.HashFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		_, known := r.hashes[path]
		delete(r.hashes, path)
		return known
	}
	if err != nil {
		r.logger.Warn("failed to hash file", zap.String("file", path), zap.Error(err))
		return true
	}
	if r.hashes[path] == hash {
		return false
	}
	r.hashes[path] = hash
	return true
}
