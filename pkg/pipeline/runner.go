package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/delegraph/delegraph/pkg/cache"
	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/observability"
	"github.com/delegraph/delegraph/pkg/resolve"
	"github.com/delegraph/delegraph/pkg/resolve/linsys"
	"github.com/delegraph/delegraph/pkg/resolve/lp"
	"github.com/delegraph/delegraph/pkg/store"
)

// Shared stateless resolver instances for the direct engines.
var (
	linearResolver = linsys.New()
	lpResolver     = lp.New()
)

// Runner encapsulates pipeline execution with caching and run history.
// Both CLI and API use this to avoid duplicating the logic.
//
// The Runner is stateless except for its collaborators; multiple goroutines
// can safely share one Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store
	Logger *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// A nil cache disables caching, a nil keyer uses the default keyer, and a
// nil store disables run history.
func NewRunner(c cache.Cache, keyer cache.Keyer, st store.Store, logger *log.Logger) *Runner {
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
		Store:  st,
		Logger: logger,
	}
}

// Execute runs the complete collapse → resolve → verify pipeline.
//
// When the iterative engine stops without converging, Execute returns the
// best-effort result together with the non-convergence error; every other
// error leaves the result nil.
func (r *Runner) Execute(ctx context.Context, g *graph.Graph, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if err := g.Validate(); err != nil {
		return nil, fmt.Errorf("validate graph: %w", err)
	}

	result := &Result{
		Graph: g,
		Stats: Stats{
			NodeCount: g.NodeCount(),
			EdgeCount: g.EdgeCount(),
		},
	}

	data, err := graph.Marshal(g)
	if err != nil {
		return nil, fmt.Errorf("hash graph: %w", err)
	}
	result.GraphHash = cache.Hash(data)
	resultKey := r.Keyer.ResultKey(result.GraphHash, opts.ResultKeyOpts())

	// Try cache first (unless refresh requested).
	if !opts.Refresh {
		if cached, ok := r.lookupResult(ctx, resultKey); ok {
			result.Resolution = cached
			result.CacheInfo.ResultHit = true
			opts.Logger.Debug("resolution served from cache", "hash", result.GraphHash)
			return result, nil
		}
	}

	// Stage 1: Collapse
	collapseStart := time.Now()
	observability.Resolution().OnCollapseStart(ctx, g.NodeCount())
	collapsed, err := collapse.Collapse(g)
	result.Stats.CollapseTime = time.Since(collapseStart)
	observability.Resolution().OnCollapseComplete(ctx, len(collapsedCycles(collapsed)), result.Stats.CollapseTime, err)
	if err != nil {
		return nil, fmt.Errorf("collapse: %w", err)
	}
	result.Collapsed = collapsed
	result.Stats.CycleCount = len(collapsed.Cycles)

	opts.Logger.Info("collapsed cycles",
		"nodes", collapsed.Graph.NodeCount(),
		"cycles", result.Stats.CycleCount,
		"duration", result.Stats.CollapseTime)

	// Stage 2: Resolve
	resolveStart := time.Now()
	engine := opts.resolver(opts.Engine)
	observability.Resolution().OnResolveStart(ctx, engine.Name(), collapsed.Graph.NodeCount())
	res, resErr := engine.Resolve(collapsed)
	result.Stats.ResolveTime = time.Since(resolveStart)

	iterations := 0
	if res != nil {
		iterations = res.Iterations
	}
	observability.Resolution().OnResolveComplete(ctx, engine.Name(), iterations, result.Stats.ResolveTime, resErr)

	if resErr != nil && !errors.Is(resErr, resolve.ErrNonConvergence) {
		return nil, fmt.Errorf("resolve: %w", resErr)
	}
	result.Resolution = res

	opts.Logger.Info("resolved power",
		"engine", engine.Name(),
		"voters", len(res.Credited),
		"absorbed", res.Absorbed,
		"duration", result.Stats.ResolveTime)

	if resErr != nil {
		// Best-effort result from a non-converged iterative run: usable,
		// but never cached or cross-checked.
		r.saveRun(ctx, result, opts)
		return result, resErr
	}

	// Stage 3: Verify
	if err := resolve.CheckConservation(collapsed, res, resolve.AgreementTolerance); err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if opts.Check {
		checkName := opts.checkEngine()
		check, err := opts.resolver(checkName).Resolve(collapsed)
		if err != nil {
			return nil, fmt.Errorf("cross-check with %s: %w", checkName, err)
		}
		if err := resolve.Agree(res, check, resolve.AgreementTolerance); err != nil {
			return nil, fmt.Errorf("engines disagree: %w", err)
		}
		result.CrossCheck = check
		opts.Logger.Info("cross-check passed", "engine", checkName)
	}

	r.storeResult(ctx, resultKey, res)
	r.saveRun(ctx, result, opts)
	return result, nil
}

// lookupResult fetches and decodes a cached resolution.
func (r *Runner) lookupResult(ctx context.Context, key string) (*resolve.Result, bool) {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}
	var res resolve.Result
	if err := json.Unmarshal(data, &res); err != nil {
		observability.Cache().OnCacheMiss(ctx, "result")
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, "result")
	return &res, true
}

// storeResult caches a resolution, best effort.
func (r *Runner) storeResult(ctx context.Context, key string, res *resolve.Result) {
	data, err := json.Marshal(res)
	if err != nil {
		return
	}
	if err := r.Cache.Set(ctx, key, data, ResultTTL); err == nil {
		observability.Cache().OnCacheSet(ctx, "result", len(data))
	}
}

// saveRun records the run in the store, best effort.
func (r *Runner) saveRun(ctx context.Context, result *Result, opts Options) {
	if r.Store == nil || result.Resolution == nil {
		return
	}
	run := &store.Run{
		GraphHash:  result.GraphHash,
		Engine:     opts.Engine,
		Nodes:      result.Stats.NodeCount,
		Edges:      result.Stats.EdgeCount,
		Voters:     len(result.Resolution.Credited),
		Cycles:     result.Stats.CycleCount,
		Absorbed:   result.Resolution.Absorbed,
		Converged:  result.Resolution.Converged,
		Iterations: result.Resolution.Iterations,
		DurationMS: (result.Stats.CollapseTime + result.Stats.ResolveTime).Milliseconds(),
	}
	if err := r.Store.SaveRun(ctx, run); err != nil {
		opts.Logger.Warn("failed to record run", "err", err)
	}
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func collapsedCycles(c *collapse.Collapsed) map[string][]collapse.Member {
	if c == nil {
		return nil
	}
	return c.Cycles
}
