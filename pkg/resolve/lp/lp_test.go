package lp

import (
	"math"
	"strconv"
	"testing"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
	"github.com/delegraph/delegraph/pkg/resolve"
)

func collapsed(t *testing.T, adj map[string]map[string]float64, weights map[string]float64) *collapse.Collapsed {
	t.Helper()
	g, err := graph.FromMap(adj, weights)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}
	c, err := collapse.Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}
	return c
}

func TestResolve_Chain(t *testing.T) {
	c := collapsed(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"c": 1},
	}, nil)

	r, err := New().Resolve(c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := r.Credited["c"]; math.Abs(got-3) > 1e-6 {
		t.Errorf("Credited[c] = %v, want 3", got)
	}
}

func TestResolve_FanOut(t *testing.T) {
	c := collapsed(t,
		map[string]map[string]float64{"a": {"b": 0.6, "c": 0.4}},
		map[string]float64{"a": 10, "b": 1, "c": 1},
	)

	r, err := New().Resolve(c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if got := r.Credited["b"]; math.Abs(got-7) > 1e-6 {
		t.Errorf("Credited[b] = %v, want 7", got)
	}
	if got := r.Credited["c"]; math.Abs(got-5) > 1e-6 {
		t.Errorf("Credited[c] = %v, want 5", got)
	}
}

func TestResolve_AbsorbedCycle(t *testing.T) {
	c := collapsed(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 1},
		"x": {"a": 0.5, "v": 0.5},
	}, nil)

	r, err := New().Resolve(c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}

	// x's half into the cycle is lost, half reaches voter v.
	if math.Abs(r.Absorbed-2.5) > 1e-6 {
		t.Errorf("Absorbed = %v, want 2.5", r.Absorbed)
	}
	if got := r.Credited["v"]; math.Abs(got-1.5) > 1e-6 {
		t.Errorf("Credited[v] = %v, want 1.5", got)
	}
}

func TestResolve_Conservation(t *testing.T) {
	c := collapsed(t, map[string]map[string]float64{
		"a": {"b": 0.2, "c": 0.8},
		"b": {"c": 1},
		"d": {"d": 1},
	}, map[string]float64{"a": 4, "d": 2})

	r, err := New().Resolve(c)
	if err != nil {
		t.Fatalf("Resolve() error: %v", err)
	}
	if err := resolve.CheckConservation(c, r, 1e-6); err != nil {
		t.Error(err)
	}
}

func TestResolve_EmptyGraph(t *testing.T) {
	c := &collapse.Collapsed{Graph: graph.New(), Cycles: map[string][]collapse.Member{}}
	r, err := New().Resolve(c)
	if err != nil {
		t.Fatalf("Resolve(empty) error: %v", err)
	}
	if len(r.Credited) != 0 {
		t.Errorf("Credited = %v, want empty", r.Credited)
	}
}

func BenchmarkResolve_Chain(b *testing.B) {
	adj := map[string]map[string]float64{}
	for i := 0; i < 100; i++ {
		adj["d"+strconv.Itoa(i)] = map[string]float64{"d" + strconv.Itoa(i+1): 1}
	}
	g, err := graph.FromMap(adj, nil)
	if err != nil {
		b.Fatal(err)
	}
	c, err := collapse.Collapse(g)
	if err != nil {
		b.Fatal(err)
	}
	r := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := r.Resolve(c); err != nil {
			b.Fatal(err)
		}
	}
}
