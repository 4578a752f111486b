package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/SammySnake-d/markmap-sub002/pkg/cache"
	"github.com/SammySnake-d/markmap-sub002/pkg/config"
)

var (
	version string // semantic version (e.g., "v1.2.3")
	commit  string // git commit SHA
	date    string // build timestamp
)

// SetVersion sets the version information displayed by --version.
// This is typically called by the main package during initialization with
// values injected via ldflags at build time.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the mindmap CLI and returns an error if any command fails.
// This is the main entry point for the CLI application. The context is
// threaded through to every command, so cancelling it stops long-running
// commands such as serve.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands via
// loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool
	var configPath string

	root := &cobra.Command{
		Use:          "mindmap",
		Short:        "Mindmap renders markdown outlines as interactive mindmaps",
		Long:         `Mindmap parses a markdown outline into a tree and lays it out as a node-link mindmap. Render static artifacts, browse the map in the terminal with live fold toggling, or serve an auto-reloading HTML preview.`,
		Version:      version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(os.Stderr, level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("mindmap %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: user config dir)")

	root.AddCommand(newRenderCmd(&configPath))
	root.AddCommand(newViewCmd(&configPath))
	root.AddCommand(newServeCmd(&configPath))
	root.AddCommand(newCacheCmd(&configPath))

	return root.ExecuteContext(ctx)
}

// loadConfig reads the config file selected by --config (or the default
// location when unset).
func loadConfig(path string) (config.Config, error) {
	return config.Load(path)
}

// openCache opens the cache backend selected by the configuration.
func openCache(cfg config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "none":
		return cache.NewNullCache(), nil
	case "redis":
		return cache.NewRedisCache(cfg.Cache.RedisURL)
	default:
		return cache.NewFileCache(cfg.Cache.Dir)
	}
}
