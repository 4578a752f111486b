package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/SammySnake-d/markmap-sub002/pkg/pipeline"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output      string   // output file path (or base path for multiple formats)
	formats     []string // output formats: "svg", "png", "dot", "json"
	refresh     bool     // bypass the cache
	noCache     bool     // disable the cache entirely
	expandLevel int      // initial expand level (-1 expands everything)
	expandSet   bool     // --expand-level was given; overrides the config value
}

// newRenderCmd creates the render command for generating static artifacts.
func newRenderCmd(configPath *string) *cobra.Command {
	var formatsStr string
	opts := renderOpts{expandLevel: -1}

	cmd := &cobra.Command{
		Use:   "render FILE.md",
		Short: "Render a markdown outline to SVG, PNG, DOT, or JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.formats = parseFormats(formatsStr)
			if err := pipeline.ValidateFormats(opts.formats); err != nil {
				return err
			}
			opts.expandSet = cmd.Flags().Changed("expand-level")
			return runRender(cmd.Context(), args[0], *configPath, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file (single format) or base path (multiple)")
	cmd.Flags().StringVarP(&formatsStr, "format", "f", "", "output format(s): svg (default), png, dot, json (comma-separated)")
	cmd.Flags().BoolVar(&opts.refresh, "refresh", false, "recompute all stages, ignoring cached results")
	cmd.Flags().BoolVar(&opts.noCache, "no-cache", false, "disable the render cache")
	cmd.Flags().IntVar(&opts.expandLevel, "expand-level", -1, "fold nodes deeper than this level (-1 expands everything)")

	return cmd
}

// parseFormats parses the --format flag into a slice of output formats.
// If empty, defaults to ["svg"].
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	return strings.Split(s, ",")
}

// basePath derives the base output path from the output and input file
// paths. If output is empty, it strips the extension from input. If output
// has a format extension (.svg, .png, ...), it strips that extension.
func basePath(output, input string) string {
	if output == "" {
		return strings.TrimSuffix(input, filepath.Ext(input))
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// runRender executes the pipeline and writes the requested artifacts.
func runRender(ctx context.Context, input, configPath string, opts *renderOpts) error {
	logger := loggerFromContext(ctx)
	logger.Infof("Rendering %s", input)

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	if opts.noCache {
		cfg.Cache.Backend = "none"
	}
	c, err := openCache(cfg)
	if err != nil {
		return err
	}

	engine := cfg.EngineOptions()
	if opts.expandSet {
		engine.InitialExpandLevel = opts.expandLevel
	}

	runner := pipeline.NewRunner(c, nil, logger)
	defer runner.Close()

	p := newProgress(logger)
	result, err := runner.Execute(ctx, pipeline.Options{
		Input:   input,
		Engine:  engine,
		Formats: opts.formats,
		Style:   cfg.StyleKey(),
		Refresh: opts.refresh,
		Logger:  logger,
	})
	if err != nil {
		return err
	}
	p.done(fmt.Sprintf("Rendered %d nodes (%d visible)",
		result.Stats.NodeCount, result.Stats.VisibleCount))

	logger.Debugf("cache: parse=%v layout=%v render=%v",
		result.CacheInfo.ParseHit, result.CacheInfo.LayoutHit, result.CacheInfo.RenderHit)

	if len(opts.formats) == 1 {
		path := opts.output
		if path == "" {
			path = basePath("", input) + "." + opts.formats[0]
		}
		return writeArtifact(logger, path, result.Artifacts[opts.formats[0]])
	}

	base := basePath(opts.output, input)
	for _, format := range opts.formats {
		path := fmt.Sprintf("%s.%s", base, format)
		if err := writeArtifact(logger, path, result.Artifacts[format]); err != nil {
			return err
		}
	}
	return nil
}

func writeArtifact(logger *log.Logger, path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	logger.Infof("Generated %s", path)
	return nil
}
