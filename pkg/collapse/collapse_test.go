package collapse

import (
	"math"
	"slices"
	"testing"

	"github.com/delegraph/delegraph/pkg/graph"
)

func mustGraph(t *testing.T, adj map[string]map[string]float64, weights map[string]float64) *graph.Graph {
	t.Helper()
	g, err := graph.FromMap(adj, weights)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}
	return g
}

func TestComponents_Chain(t *testing.T) {
	out := map[string][]string{"a": {"b"}, "b": {"c"}, "c": nil}
	comps := Components([]string{"a", "b", "c"}, func(id string) []string { return out[id] })

	if len(comps) != 3 {
		t.Fatalf("Components() = %d components, want 3", len(comps))
	}
	for _, comp := range comps {
		if len(comp) != 1 {
			t.Errorf("chain component %v has %d members, want 1", comp, len(comp))
		}
	}
}

func TestComponents_Triangle(t *testing.T) {
	out := map[string][]string{"a": {"b"}, "b": {"c"}, "c": {"a"}, "d": {"a"}}
	comps := Components([]string{"a", "b", "c", "d"}, func(id string) []string { return out[id] })

	if len(comps) != 2 {
		t.Fatalf("Components() = %d components, want 2", len(comps))
	}
	var triangle []string
	for _, comp := range comps {
		if len(comp) == 3 {
			triangle = comp
		}
	}
	slices.Sort(triangle)
	if !slices.Equal(triangle, []string{"a", "b", "c"}) {
		t.Errorf("triangle component = %v, want [a b c]", triangle)
	}
}

func TestComponents_DeepChain(t *testing.T) {
	// Deep recursion would overflow a recursive Tarjan; the iterative
	// implementation must handle this.
	const depth = 200_000
	ids := make([]string, depth)
	out := make(map[string][]string, depth)
	prev := ""
	for i := 0; i < depth; i++ {
		id := "n" + string(rune('0'+i%10)) + "_" + itoa(i)
		ids[i] = id
		if prev != "" {
			out[prev] = []string{id}
		}
		prev = id
	}
	comps := Components(ids, func(id string) []string { return out[id] })
	if len(comps) != depth {
		t.Errorf("Components() = %d components, want %d", len(comps), depth)
	}
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	var b []byte
	for i > 0 {
		b = append([]byte{byte('0' + i%10)}, b...)
		i /= 10
	}
	return string(b)
}

func TestCollapse_PureCycle(t *testing.T) {
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"c": 1},
		"c": {"a": 1},
	}, nil)

	c, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}

	if !c.Absorbed() {
		t.Fatal("Absorbed() = false, want true")
	}
	if got := c.Graph.NodeCount(); got != 1 {
		t.Errorf("NodeCount() = %d, want 1", got)
	}

	absorber := AbsorberPrefix + "a"
	members, ok := c.Cycles[absorber]
	if !ok {
		t.Fatalf("Cycles missing %q, got %v", absorber, c.Cycles)
	}
	if len(members) != 3 {
		t.Errorf("cycle has %d members, want 3", len(members))
	}
	for _, m := range members {
		if math.Abs(m.Share-1.0/3) > 1e-12 {
			t.Errorf("member %s share = %v, want 1/3", m.ID, m.Share)
		}
	}
	if w := c.Graph.Weight(absorber); w != 3 {
		t.Errorf("absorber weight = %v, want 3", w)
	}
	if role := c.Graph.Role(absorber); role != graph.RoleAbsorber {
		t.Errorf("absorber role = %v, want RoleAbsorber", role)
	}
}

func TestCollapse_SelfLoop(t *testing.T) {
	g := mustGraph(t, map[string]map[string]float64{
		"loner": {"loner": 1},
		"x":     {"loner": 1},
	}, nil)

	c, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}

	absorber := AbsorberPrefix + "loner"
	if _, ok := c.Cycles[absorber]; !ok {
		t.Fatalf("self-loop not contracted, cycles: %v", c.Cycles)
	}

	// x delegated into the cycle; its edge must be redirected.
	edges := c.Graph.Out("x")
	if len(edges) != 1 || edges[0].To != absorber {
		t.Errorf("Out(x) = %v, want single edge to %s", edges, absorber)
	}
}

func TestCollapse_EscapingCycleKept(t *testing.T) {
	// a <-> b but b also delegates half to voter v: the cycle escapes,
	// so nothing is contracted.
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 0.5, "v": 0.5},
	}, nil)

	c, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}
	if c.Absorbed() {
		t.Errorf("escaping cycle was contracted: %v", c.Cycles)
	}
	if c.Graph != g {
		t.Error("no-op collapse should return the input graph")
	}
}

func TestCollapse_Idempotent(t *testing.T) {
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 1},
		"c": {"v": 1},
	}, nil)

	once, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}
	twice, err := Collapse(once.Graph)
	if err != nil {
		t.Fatalf("second Collapse() error: %v", err)
	}

	if twice.Absorbed() {
		t.Errorf("second collapse found cycles: %v", twice.Cycles)
	}
	if !graph.Equal(once.Graph, twice.Graph) {
		t.Error("second collapse changed the graph")
	}
}

func TestCollapse_InputUntouched(t *testing.T) {
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 1},
	}, nil)
	before := g.Clone()

	if _, err := Collapse(g); err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}
	if !graph.Equal(g, before) {
		t.Error("Collapse() mutated its input")
	}
}

func TestCollapse_MergesParallelInbound(t *testing.T) {
	// x splits between two members of the same closed cycle; after
	// contraction both halves land on one absorber edge.
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 1},
		"x": {"a": 0.5, "b": 0.5},
	}, nil)

	c, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}

	edges := c.Graph.Out("x")
	if len(edges) != 1 {
		t.Fatalf("Out(x) = %v, want one merged edge", edges)
	}
	if math.Abs(edges[0].Weight-1) > 1e-12 {
		t.Errorf("merged edge weight = %v, want 1", edges[0].Weight)
	}
	if err := c.Graph.Validate(); err != nil {
		t.Errorf("collapsed graph invalid: %v", err)
	}
}

func TestCollapse_WeightedShares(t *testing.T) {
	g := mustGraph(t, map[string]map[string]float64{
		"a": {"b": 1},
		"b": {"a": 1},
	}, map[string]float64{"a": 3, "b": 1})

	c, err := Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error: %v", err)
	}
	members := c.Cycles[AbsorberPrefix+"a"]
	shares := map[string]float64{}
	for _, m := range members {
		shares[m.ID] = m.Share
	}
	if math.Abs(shares["a"]-0.75) > 1e-12 || math.Abs(shares["b"]-0.25) > 1e-12 {
		t.Errorf("shares = %v, want a:0.75 b:0.25", shares)
	}
}

func BenchmarkCollapse(b *testing.B) {
	// Long chain into a terminal triangle.
	adj := map[string]map[string]float64{}
	const n = 1000
	for i := 0; i < n; i++ {
		adj["n"+itoa(i)] = map[string]float64{"n" + itoa(i+1): 1}
	}
	adj["n"+itoa(n)] = map[string]float64{"c0": 1}
	adj["c0"] = map[string]float64{"c1": 1}
	adj["c1"] = map[string]float64{"c2": 1}
	adj["c2"] = map[string]float64{"c0": 1}
	g, err := graph.FromMap(adj, nil)
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Collapse(g); err != nil {
			b.Fatal(err)
		}
	}
}
