// Package docs renders the Lua-facing API of a scanned package: a Markdown
// reference for script authors and a LuaLS annotation file for editors.
package docs

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/luamagic/luamagic/internal/compiler/scanner"
)

// Format is a documentation output format.
type Format string

const (
	// FormatMarkdown renders <package>.md.
	FormatMarkdown Format = "markdown"

	// FormatStubs renders <package>.lua with LuaLS annotations.
	FormatStubs Format = "luals"
)

// ParseFormat maps a user-supplied format name to a Format.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatMarkdown, "md":
		return FormatMarkdown, nil
	case FormatStubs, "lua", "stubs":
		return FormatStubs, nil
	default:
		return "", fmt.Errorf("unknown docs format %q (want markdown or luals)", name)
	}
}

// Config holds configuration for documentation generation
type Config struct {
	// OutputDir receives one file per format.
	OutputDir string

	// Formats to render. Empty means all of them.
	Formats []Format
}

// Renderer turns extracted documentation into one output file.
type Renderer interface {
	Render(doc *Documentation) ([]byte, error)
	FileName(doc *Documentation) string
}

// Generator orchestrates documentation generation across formats
type Generator struct {
	config *Config
}

// NewGenerator creates a new documentation generator
func NewGenerator(config *Config) *Generator {
	return &Generator{config: config}
}

// Generate extracts pkg and writes every configured format, returning the
// paths written.
func (g *Generator) Generate(pkg *scanner.Package) ([]string, error) {
	doc := Extract(pkg)

	formats := g.config.Formats
	if len(formats) == 0 {
		formats = []Format{FormatMarkdown, FormatStubs}
	}

	if err := os.MkdirAll(g.config.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, f := range formats {
		r, err := rendererFor(f)
		if err != nil {
			return written, err
		}
		out, err := r.Render(doc)
		if err != nil {
			return written, fmt.Errorf("failed to render %s docs: %w", f, err)
		}
		path := filepath.Join(g.config.OutputDir, r.FileName(doc))
		if err := os.WriteFile(path, out, 0644); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func rendererFor(f Format) (Renderer, error) {
	switch f {
	case FormatMarkdown:
		return &MarkdownRenderer{}, nil
	case FormatStubs:
		return &StubRenderer{}, nil
	default:
		return nil, fmt.Errorf("unknown docs format %q", f)
	}
}
