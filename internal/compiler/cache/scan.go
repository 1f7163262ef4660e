package cache

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
)

// Bump when scanner.File changes shape so stale entries are ignored.
const scanSchemaVersion uint16 = 2

const entrySuffix = ".mp"

// ScanCache is a directory of msgpack-encoded scan results keyed by the
// hash of file name and content. Safe for concurrent use.
type ScanCache struct {
	mu     sync.RWMutex
	dir    string
	hasher *FileHasher
	logger *zap.Logger
}

type scanEntry struct {
	Schema uint16
	Name   string
	File   *scanner.File
}

// OpenScanCache opens (creating if needed) a cache rooted at dir.
func OpenScanCache(dir string, logger *zap.Logger) (*ScanCache, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &ScanCache{dir: dir, hasher: NewFileHasher(), logger: logger}, nil
}

// Dir returns the cache directory.
func (c *ScanCache) Dir() string { return c.dir }

func (c *ScanCache) pathFor(name string, src []byte) string {
	key := c.hasher.HashEntry(name, src)
	return filepath.Join(c.dir, key[:2], key+entrySuffix)
}

// Get returns the cached scan of name with content src. Unreadable or
// outdated entries count as misses.
func (c *ScanCache) Get(name string, src []byte) (*scanner.File, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	p := c.pathFor(name, src)
	data, err := os.ReadFile(p)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			c.logger.Debug("scan cache read failed", zap.String("file", name), zap.Error(err))
		}
		return nil, false
	}

	var entry scanEntry
	if err := msgpack.Unmarshal(data, &entry); err != nil {
		c.logger.Debug("scan cache entry corrupt", zap.String("file", name), zap.Error(err))
		return nil, false
	}
	if entry.Schema != scanSchemaVersion || entry.Name != name || entry.File == nil {
		return nil, false
	}
	return entry.File, true
}

// Put stores the scan of name. The entry is written to a temporary file
// and renamed into place.
func (c *ScanCache) Put(name string, src []byte, f *scanner.File) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(name, src)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	enc := msgpack.NewEncoder(tmp)
	if err := enc.Encode(&scanEntry{Schema: scanSchemaVersion, Name: name, File: f}); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Len reports the number of stored entries.
func (c *ScanCache) Len() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	n := 0
	err := filepath.WalkDir(c.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(path, entrySuffix) {
			n++
		}
		return nil
	})
	return n, err
}

// Clear removes every entry.
func (c *ScanCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(c.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}
