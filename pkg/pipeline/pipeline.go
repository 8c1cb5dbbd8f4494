// Package pipeline provides the core resolution pipeline for delegraph.
//
// This package implements the complete collapse → resolve → verify pipeline
// that can be used by CLI, API, and worker components. By centralizing this
// logic, we ensure consistent behavior across all entry points and avoid
// code duplication.
//
// # Architecture
//
// The pipeline consists of three stages:
//
//  1. Collapse: Contract closed delegation cycles into absorbing nodes
//  2. Resolve: Compute every voter's accumulated power with the chosen engine
//  3. Verify: Check weight conservation, optionally cross-check with a
//     second engine
//
// Results are cached under keys derived from the graph's content hash and
// the resolution parameters, so re-running the same resolution is free.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, store, logger)
//	opts := pipeline.Options{Engine: pipeline.EngineLinear}
//	result, err := runner.Execute(ctx, g, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	power := result.Resolution.Credited
package pipeline

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/delegraph/delegraph/pkg/cache"
	"github.com/delegraph/delegraph/pkg/collapse"
	apperrors "github.com/delegraph/delegraph/pkg/errors"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/resolve"
	"github.com/delegraph/delegraph/pkg/resolve/iterative"
)

// Engine names accepted by the pipeline.
const (
	EngineLinear    = "linear"
	EngineLP        = "lp"
	EngineIterative = "iterative"
)

const (
	// DefaultEngine is used when no engine is requested.
	DefaultEngine = EngineLinear

	// ResultTTL bounds how long cached resolutions live. Results are
	// content-addressed, so this only limits cache growth.
	ResultTTL = 30 * 24 * time.Hour
)

// Options contains all configuration for the resolution pipeline.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Engine selects the resolution engine: "linear", "lp" or "iterative".
	Engine string `json:"engine,omitempty"`

	// Tolerance is the iterative engine's convergence threshold.
	// Zero means the engine default.
	Tolerance float64 `json:"tolerance,omitempty"`

	// MaxIterations caps the iterative engine's sweeps.
	// Zero means the engine default.
	MaxIterations int `json:"max_iterations,omitempty"`

	// Check re-resolves with a second engine and verifies both agree.
	Check bool `json:"check,omitempty"`

	// Refresh bypasses the cache and overwrites any stored result.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger      *log.Logger                           `json:"-"`
	OnIteration func(iteration int, residual float64) `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Engine == "" {
		o.Engine = DefaultEngine
	}
	if err := apperrors.ValidateEngine(o.Engine); err != nil {
		return err
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// ResultKeyOpts returns the cache key options for these parameters.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{
		Engine:        o.Engine,
		Tolerance:     o.Tolerance,
		MaxIterations: o.MaxIterations,
	}
}

// checkEngine picks the engine used for cross-checking: always a direct
// solver, and never the engine that produced the primary result.
func (o *Options) checkEngine() string {
	if o.Engine == EngineLinear {
		return EngineLP
	}
	return EngineLinear
}

// resolver constructs the resolver for the configured engine.
func (o *Options) resolver(engine string) resolve.Resolver {
	switch engine {
	case EngineLP:
		return lpResolver
	case EngineIterative:
		return iterative.New(iterative.Options{
			Tolerance:     o.Tolerance,
			MaxIterations: o.MaxIterations,
			OnIteration:   o.OnIteration,
		})
	default:
		return linearResolver
	}
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Graph is the input delegation graph.
	Graph *graph.Graph

	// GraphHash is the content hash of the input graph.
	GraphHash string

	// Collapsed is the cycle-free working graph. Nil when the resolution
	// was served from cache.
	Collapsed *collapse.Collapsed

	// Resolution is the computed power distribution.
	Resolution *resolve.Result

	// CrossCheck is the second engine's result when Options.Check is set.
	CrossCheck *resolve.Result

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks whether the resolution came from cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	NodeCount    int
	EdgeCount    int
	CycleCount   int
	CollapseTime time.Duration
	ResolveTime  time.Duration
}

// CacheInfo tracks cache hits for the pipeline.
type CacheInfo struct {
	ResultHit bool // Whether the resolution came from cache
}
