package pipeline

import (
	"context"
	"encoding/json"
	"time"

	"github.com/charmbracelet/log"

	"github.com/SammySnake-d/markmap-sub002/pkg/cache"
	"github.com/SammySnake-d/markmap-sub002/pkg/errors"
	"github.com/SammySnake-d/markmap-sub002/pkg/layout"
	"github.com/SammySnake-d/markmap-sub002/pkg/observability"
	"github.com/SammySnake-d/markmap-sub002/pkg/tree"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache and logger - it doesn't
// store pipeline results. Multiple goroutines can safely use the same
// Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache and keyer.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Logger: logger,
	}
}

// Execute runs the complete parse → layout → render pipeline with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidOptions, err, "invalid options")
	}
	r.applyLogger(&opts)

	result := &Result{
		Artifacts: make(map[string][]byte),
	}

	// Stage 1: Parse + initialize
	parseStart := time.Now()
	root, parseHit, err := r.ParseWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.Root = root
	result.TreeHash = tree.Hash(root)
	result.Stats.ParseTime = time.Since(parseStart)
	result.Stats.NodeCount = tree.Count(root)
	result.Stats.VisibleCount = len(tree.Visible(root))
	result.CacheInfo.ParseHit = parseHit

	r.Logger.Info("parsed document",
		"nodes", result.Stats.NodeCount,
		"visible", result.Stats.VisibleCount,
		"duration", result.Stats.ParseTime)

	// Stage 2: Layout
	layoutStart := time.Now()
	res, layoutHit, err := r.ComputeLayoutWithCacheInfo(ctx, root, result.TreeHash, opts)
	if err != nil {
		return nil, err
	}
	result.Layout = res
	result.Stats.LayoutTime = time.Since(layoutStart)
	result.CacheInfo.LayoutHit = layoutHit

	r.Logger.Info("computed layout",
		"rects", len(res.Rects),
		"duration", result.Stats.LayoutTime)

	// Stage 3: Render
	renderStart := time.Now()
	artifacts, renderHit, err := r.RenderWithCacheInfo(ctx, res, root, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = renderHit

	r.Logger.Info("rendered outputs",
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	return result, nil
}

// ParseWithCacheInfo builds the initialized tree with caching and returns
// cache hit info. The cached value is the parsed input shape; node state is
// always assigned fresh because ids are process-unique.
func (r *Runner) ParseWithCacheInfo(ctx context.Context, opts Options) (*tree.Node, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	sourceHash, err := r.sourceHash(opts)
	if err != nil {
		return nil, false, err
	}
	cacheKey := r.Keyer.TreeKey(sourceHash, opts.TreeKeyOpts())

	// Try cache first (unless refresh requested)
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			var in tree.Input
			if err := json.Unmarshal(data, &in); err == nil {
				if root, err := r.initialize(&in, opts); err == nil {
					observability.Cache().OnCacheHit(ctx, "tree")
					return root, true, nil
				}
			}
		}
		observability.Cache().OnCacheMiss(ctx, "tree")
	}

	in, err := Parse(ctx, opts)
	if err != nil {
		return nil, false, err
	}

	root, err := r.initialize(in, opts)
	if err != nil {
		return nil, false, err
	}

	if data, err := json.Marshal(in); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.TreeTTL)
		observability.Cache().OnCacheSet(ctx, "tree", len(data))
	}

	return root, false, nil
}

// Parse is a convenience wrapper that discards the cache hit info.
func (r *Runner) Parse(ctx context.Context, opts Options) (*tree.Node, error) {
	root, _, err := r.ParseWithCacheInfo(ctx, opts)
	return root, err
}

// ComputeLayoutWithCacheInfo computes geometry with caching and returns
// cache hit info.
func (r *Runner) ComputeLayoutWithCacheInfo(ctx context.Context, root *tree.Node, treeHash string, opts Options) (layout.Result, bool, error) {
	if err := opts.ValidateForParse(); err != nil {
		return layout.Result{}, false, err
	}
	r.applyLogger(&opts)

	cacheKey := r.Keyer.LayoutKey(treeHash, opts.LayoutKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			if res, ok := applyCachedLayout(root, data); ok {
				observability.Cache().OnCacheHit(ctx, "layout")
				return res, true, nil
			}
			// Shape mismatch: fall through to recompute.
		}
		observability.Cache().OnCacheMiss(ctx, "layout")
	}

	res := ComputeLayout(ctx, root, opts)

	if data, err := marshalLayout(res); err == nil {
		_ = r.Cache.Set(ctx, cacheKey, data, cache.LayoutTTL)
		observability.Cache().OnCacheSet(ctx, "layout", len(data))
	}

	return res, false, nil
}

// ComputeLayout is a convenience wrapper that discards the cache hit info.
func (r *Runner) ComputeLayout(ctx context.Context, root *tree.Node, opts Options) (layout.Result, error) {
	res, _, err := r.ComputeLayoutWithCacheInfo(ctx, root, tree.Hash(root), opts)
	return res, err
}

// RenderWithCacheInfo generates artifacts with caching and returns cache hit
// info.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, res layout.Result, root *tree.Node, opts Options) (map[string][]byte, bool, error) {
	opts.SetRenderDefaults()
	if err := ValidateFormats(opts.Formats); err != nil {
		return nil, false, err
	}
	r.applyLogger(&opts)

	layoutData, err := marshalLayout(res)
	if err != nil {
		return nil, false, errors.Wrap(errors.ErrCodeInternal, err, "serialize layout for cache key")
	}
	layoutHash := cache.Hash(layoutData)

	// Try to get all formats from cache
	allCached := true
	artifacts := make(map[string][]byte)

	if !opts.Refresh {
		for _, format := range opts.Formats {
			cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
			if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
				artifacts[format] = data
			} else {
				allCached = false
				break
			}
		}
		if allCached && len(artifacts) == len(opts.Formats) {
			observability.Cache().OnCacheHit(ctx, "artifact")
			return artifacts, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "artifact")
	}

	rendered, err := RenderFromLayout(ctx, res, root, opts)
	if err != nil {
		return nil, false, err
	}

	for format, data := range rendered {
		cacheKey := r.Keyer.ArtifactKey(layoutHash, opts.ArtifactKeyOpts(format))
		_ = r.Cache.Set(ctx, cacheKey, data, cache.ArtifactTTL)
		observability.Cache().OnCacheSet(ctx, "artifact", len(data))
	}

	return rendered, false, nil
}

// Render is a convenience wrapper that discards the cache hit info.
func (r *Runner) Render(ctx context.Context, res layout.Result, root *tree.Node, opts Options) (map[string][]byte, error) {
	artifacts, _, err := r.RenderWithCacheInfo(ctx, res, root, opts)
	return artifacts, err
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// initialize assigns node state and applies the initial expand level.
func (r *Runner) initialize(in *tree.Input, opts Options) (*tree.Node, error) {
	return tree.Initialize(in, tree.InitOptions{
		InitialExpandLevel: opts.Engine.InitialExpandLevel,
	})
}

// sourceHash hashes the raw document for the tree cache key.
func (r *Runner) sourceHash(opts Options) (string, error) {
	if len(opts.Source) > 0 {
		return cache.Hash(opts.Source), nil
	}
	data, err := readFile(opts.Input)
	if err != nil {
		return "", err
	}
	return cache.Hash(data), nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
