package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/jsonflow/jsonflow/internal/server"
	"github.com/jsonflow/jsonflow/pkg/cache"
	"github.com/jsonflow/jsonflow/pkg/config"
	"github.com/jsonflow/jsonflow/pkg/pipeline"
)

// shutdownTimeout bounds draining in-flight requests on Ctrl-C.
const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command exposing the pipeline over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the visualization pipeline over HTTP",
		Long: `Serve the visualization pipeline over HTTP.

The server exposes stateless graph and render endpoints, a registry of
interactive collapse views, a health check on /healthz, and Prometheus
metrics on /metrics.

Configuration comes from the TOML config file (~/.config/jsonflow/
config.toml by default), JSONFLOW_* environment variables, and flags,
with later sources winning.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			return c.runServe(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "config file (default: ~/.config/jsonflow/config.toml)")
	cmd.Flags().StringVar(&addr, "addr", ":8464", "listen address")

	return cmd
}

// runServe starts the HTTP server and blocks until the context is
// cancelled or the listener fails.
func (c *CLI) runServe(ctx context.Context, cfg config.Config) error {
	// The config file's log level applies unless --verbose already won.
	if lvl, err := log.ParseLevel(cfg.Log.Level); err == nil && c.Logger.GetLevel() != log.DebugLevel {
		c.Logger.SetLevel(lvl)
	}

	cacheBackend, err := c.serveCache(ctx, cfg)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}

	var keyer cache.Keyer
	if cfg.Cache.Prefix != "" {
		keyer = cache.NewScopedKeyer(cache.NewDefaultKeyer(), cfg.Cache.Prefix)
	}

	runner := pipeline.NewRunner(cacheBackend, keyer, c.Logger)
	defer runner.Close()

	server.RegisterMetricsHooks()

	srv := server.New(cfg, runner, c.Logger)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		<-errCh
		return ctx.Err()
	}
}

// serveCache selects the cache backend from the config. The persistent
// --no-cache flag wins over everything.
func (c *CLI) serveCache(ctx context.Context, cfg config.Config) (cache.Cache, error) {
	if c.noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		// The ping inside NewRedisCache fails retryably while the store
		// is still coming up, so give it a few attempts.
		var rc cache.Cache
		err := cache.RetryWithBackoff(ctx, func() error {
			var err error
			rc, err = cache.NewRedisCache(cfg.Cache.RedisURL)
			return err
		})
		return rc, err
	default:
		dir := cfg.Cache.Dir
		if dir == "" {
			var err error
			if dir, err = c.resolveCacheDir(); err != nil {
				return nil, err
			}
		}
		return cache.NewFileCache(dir)
	}
}
