package pipeline

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/delegraph/delegraph/pkg/cache"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/resolve"
	"github.com/delegraph/delegraph/pkg/store"
)

// chainGraph builds a -> b -> v with unit weights.
func chainGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"a", "b", "v"} {
		if err := g.AddNode(graph.Node{ID: id, Weight: 1}); err != nil {
			t.Fatalf("AddNode(%q) error = %v", id, err)
		}
	}
	if err := g.AddEdge("a", "b", 1); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	if err := g.AddEdge("b", "v", 1); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	return g
}

func newTestRunner(t *testing.T) (*Runner, *store.MemoryStore) {
	t.Helper()
	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache() error = %v", err)
	}
	st := store.NewMemoryStore()
	return NewRunner(c, nil, st, nil), st
}

func TestExecute_Chain(t *testing.T) {
	runner, st := newTestRunner(t)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), chainGraph(t), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if got := result.Resolution.Credited["v"]; math.Abs(got-3) > 1e-9 {
		t.Errorf("Credited[v] = %v, want 3", got)
	}
	if result.CacheInfo.ResultHit {
		t.Error("first run reported a cache hit")
	}
	if result.GraphHash == "" {
		t.Error("result has no graph hash")
	}

	runs, err := st.ListRuns(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d recorded runs, want 1", len(runs))
	}
	if runs[0].GraphHash != result.GraphHash || runs[0].Engine != EngineLinear {
		t.Errorf("recorded run = %+v, want hash %s engine linear", runs[0], result.GraphHash)
	}
}

func TestExecute_SecondRunHitsCache(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()
	ctx := context.Background()

	first, err := runner.Execute(ctx, chainGraph(t), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	second, err := runner.Execute(ctx, chainGraph(t), Options{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if !second.CacheInfo.ResultHit {
		t.Error("second run missed the cache")
	}
	if err := resolve.Agree(first.Resolution, second.Resolution, resolve.AgreementTolerance); err != nil {
		t.Errorf("cached result differs: %v", err)
	}
}

func TestExecute_RefreshBypassesCache(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()
	ctx := context.Background()

	if _, err := runner.Execute(ctx, chainGraph(t), Options{}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	result, err := runner.Execute(ctx, chainGraph(t), Options{Refresh: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.ResultHit {
		t.Error("refresh run reported a cache hit")
	}
}

func TestExecute_EnginesShareNoCacheEntries(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()
	ctx := context.Background()

	if _, err := runner.Execute(ctx, chainGraph(t), Options{Engine: EngineLinear}); err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	result, err := runner.Execute(ctx, chainGraph(t), Options{Engine: EngineLP})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CacheInfo.ResultHit {
		t.Error("lp run was served the linear engine's cached result")
	}
}

func TestExecute_CrossCheck(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()

	result, err := runner.Execute(context.Background(), chainGraph(t), Options{Check: true})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if result.CrossCheck == nil {
		t.Fatal("cross-check result missing")
	}
	if result.CrossCheck.Engine == result.Resolution.Engine {
		t.Error("cross-check used the primary engine")
	}
}

func TestExecute_InvalidEngine(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()

	if _, err := runner.Execute(context.Background(), chainGraph(t), Options{Engine: "quantum"}); err == nil {
		t.Error("Execute() accepted an unknown engine")
	}
}

func TestExecute_InvalidGraph(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()

	g := graph.New()
	if err := g.AddNode(graph.Node{ID: "a", Weight: 1}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := g.AddNode(graph.Node{ID: "b", Weight: 1}); err != nil {
		t.Fatalf("AddNode() error = %v", err)
	}
	if err := g.AddEdge("a", "b", 0.5); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}

	// a's outgoing weight sums to 0.5, which must fail validation.
	if _, err := runner.Execute(context.Background(), g, Options{}); err == nil {
		t.Error("Execute() accepted an invalid graph")
	}
}

func TestExecute_NonConvergenceReturnsBestEffort(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()
	ctx := context.Background()

	result, err := runner.Execute(ctx, chainGraph(t), Options{
		Engine:        EngineIterative,
		MaxIterations: 1,
	})
	if !errors.Is(err, resolve.ErrNonConvergence) {
		t.Fatalf("Execute() error = %v, want ErrNonConvergence", err)
	}
	if result == nil || result.Resolution == nil {
		t.Fatal("non-converged run returned no best-effort result")
	}
	if result.Resolution.Converged {
		t.Error("non-converged result flagged as converged")
	}

	// A failed run must not poison the cache.
	again, err := runner.Execute(ctx, chainGraph(t), Options{
		Engine:        EngineIterative,
		MaxIterations: 1,
	})
	if !errors.Is(err, resolve.ErrNonConvergence) {
		t.Fatalf("repeat Execute() error = %v, want ErrNonConvergence", err)
	}
	if again.CacheInfo.ResultHit {
		t.Error("non-converged result was served from cache")
	}
}

func TestExecute_IterativeProgressCallback(t *testing.T) {
	runner, _ := newTestRunner(t)
	defer runner.Close()

	calls := 0
	_, err := runner.Execute(context.Background(), chainGraph(t), Options{
		Engine:      EngineIterative,
		OnIteration: func(int, float64) { calls++ },
	})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if calls == 0 {
		t.Error("iteration callback never fired")
	}
}
