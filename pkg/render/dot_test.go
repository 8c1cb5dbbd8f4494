package render

import (
	"strings"
	"testing"

	"github.com/delegraph/delegraph/pkg/collapse"
	"github.com/delegraph/delegraph/pkg/graph"
)

func buildGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, id := range []string{"a", "b", "v"} {
		if err := g.AddNode(graph.Node{ID: id, Weight: 1}); err != nil {
			t.Fatalf("AddNode(%q) error = %v", id, err)
		}
	}
	if err := g.AddEdge("a", "b", 0.5); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	if err := g.AddEdge("a", "v", 0.5); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	if err := g.AddEdge("b", "v", 1); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	return g
}

func TestToDOT_Basic(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{})

	if !strings.HasPrefix(dot, "digraph delegations {") {
		t.Errorf("DOT output missing digraph header:\n%s", dot)
	}
	for _, want := range []string{`"a" -> "b";`, `"a" -> "v";`, `"b" -> "v";`} {
		if !strings.Contains(dot, want) {
			t.Errorf("DOT output missing edge %s", want)
		}
	}
	// v receives but never delegates, so it renders as a voter.
	if !strings.Contains(dot, `"v" [label="v", peripheries=2];`) {
		t.Errorf("voter node not double-bordered:\n%s", dot)
	}
}

func TestToDOT_EdgeLabels(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{EdgeLabels: true})
	if !strings.Contains(dot, `"a" -> "b" [label="0.5"];`) {
		t.Errorf("edge label missing or unformatted:\n%s", dot)
	}
}

func TestToDOT_WeightLabels(t *testing.T) {
	dot := ToDOT(buildGraph(t), Options{Weights: true})
	if !strings.Contains(dot, "weight: 1") {
		t.Errorf("node weight label missing:\n%s", dot)
	}
}

func TestToDOT_AbsorberStyle(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"x", "y"} {
		if err := g.AddNode(graph.Node{ID: id, Weight: 1}); err != nil {
			t.Fatalf("AddNode(%q) error = %v", id, err)
		}
	}
	if err := g.AddEdge("x", "y", 1); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	if err := g.AddEdge("y", "x", 1); err != nil {
		t.Fatalf("AddEdge() error = %v", err)
	}
	c, err := collapse.Collapse(g)
	if err != nil {
		t.Fatalf("Collapse() error = %v", err)
	}

	dot := ToDOT(c.Graph, Options{})
	if !strings.Contains(dot, "dashed") || !strings.Contains(dot, "lightgrey") {
		t.Errorf("absorber node not styled dashed grey:\n%s", dot)
	}
}

func TestTrimFloat(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0.5, "0.5"},
		{1, "1"},
		{0.3333, "0.3333"},
		{0.25, "0.25"},
	}
	for _, tt := range tests {
		if got := trimFloat(tt.in); got != tt.want {
			t.Errorf("trimFloat(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
