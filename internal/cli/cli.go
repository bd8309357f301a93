// Package cli implements the jsonflow command-line interface.
//
// The commands mirror the pipeline stages: parse builds a graph from a
// JSON document, layout positions it, render produces output artifacts,
// and viz runs all three in one shot. explore opens an interactive
// terminal tree over a document, diff compares two documents, and serve
// exposes the pipeline over HTTP. All slow work runs through the cached
// pipeline runner; --no-cache bypasses it.
package cli

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/pkg/buildinfo"
	"github.com/jsonflow/jsonflow/pkg/cache"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// appName is the application name used for directories and display.
const appName = "jsonflow"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	noCache  bool
	cacheDir string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "jsonflow",
		Short:        "Jsonflow visualizes JSON documents as node graphs",
		Long:         `Jsonflow turns JSON documents into positioned node-link graphs: objects and arrays become boxes, nesting becomes edges, and array order becomes chains. Graphs can be rendered to SVG, PNG, DOT or JSON, explored interactively in the terminal, or served over HTTP.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVar(&c.noCache, "no-cache", false, "disable the local result cache")
	root.PersistentFlags().StringVar(&c.cacheDir, "cache-dir", "", "cache directory (default: XDG cache dir)")

	// Register all subcommands
	root.AddCommand(c.parseCommand())
	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.vizCommand())
	root.AddCommand(c.exploreCommand())
	root.AddCommand(c.diffCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use. Cache setup failures
// degrade to an uncached runner rather than failing the command.
func (c *CLI) newRunner() *pipeline.Runner {
	return pipeline.NewRunner(c.newCache(), nil, c.Logger)
}

func (c *CLI) newCache() cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	dir, err := c.resolveCacheDir()
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Debug("cache disabled", "err", err)
		return cache.NewNullCache()
	}
	return fc
}

// =============================================================================
// Paths
// =============================================================================

// resolveCacheDir returns the cache directory: the --cache-dir flag if
// set, otherwise the XDG standard location (~/.cache/jsonflow/).
func (c *CLI) resolveCacheDir() (string, error) {
	if c.cacheDir != "" {
		return c.cacheDir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Shared Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// nopCloser wraps an io.Writer with a no-op Close method so os.Stdout can
// stand in for a file.
type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// openOutput returns a WriteCloser for the given path, or stdout when the
// path is empty.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}
