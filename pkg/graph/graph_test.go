package graph

import (
	"bytes"
	"errors"
	"testing"
)

func TestAddNode_Errors(t *testing.T) {
	g := New()

	if err := g.AddNode(Node{ID: "", Weight: 1}); !errors.Is(err, ErrInvalidNodeID) {
		t.Errorf("AddNode(empty ID) = %v, want ErrInvalidNodeID", err)
	}
	if err := g.AddNode(Node{ID: "a", Weight: 0}); !errors.Is(err, ErrNonPositiveWeight) {
		t.Errorf("AddNode(zero weight) = %v, want ErrNonPositiveWeight", err)
	}
	if err := g.AddNode(Node{ID: "a", Weight: 1}); err != nil {
		t.Fatalf("AddNode() error: %v", err)
	}
	if err := g.AddNode(Node{ID: "a", Weight: 2}); !errors.Is(err, ErrDuplicateNodeID) {
		t.Errorf("AddNode(duplicate) = %v, want ErrDuplicateNodeID", err)
	}
}

func TestAddEdge_Errors(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Weight: 1})
	g.AddNode(Node{ID: "b", Weight: 1})
	g.AddNode(Node{ID: "sink", Weight: 1, Absorber: true})

	if err := g.AddEdge("x", "b", 1); !errors.Is(err, ErrUnknownSourceNode) {
		t.Errorf("AddEdge(unknown source) = %v, want ErrUnknownSourceNode", err)
	}
	if err := g.AddEdge("a", "x", 1); !errors.Is(err, ErrUnknownTargetNode) {
		t.Errorf("AddEdge(unknown target) = %v, want ErrUnknownTargetNode", err)
	}
	if err := g.AddEdge("a", "b", 0); !errors.Is(err, ErrEdgeWeight) {
		t.Errorf("AddEdge(weight 0) = %v, want ErrEdgeWeight", err)
	}
	if err := g.AddEdge("a", "b", 1.5); !errors.Is(err, ErrEdgeWeight) {
		t.Errorf("AddEdge(weight 1.5) = %v, want ErrEdgeWeight", err)
	}
	if err := g.AddEdge("sink", "b", 1); !errors.Is(err, ErrAbsorberDelegates) {
		t.Errorf("AddEdge(from absorber) = %v, want ErrAbsorberDelegates", err)
	}
}

func TestValidate_WeightSum(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "a", Weight: 1})
	g.AddNode(Node{ID: "b", Weight: 1})
	g.AddNode(Node{ID: "c", Weight: 1})
	g.AddEdge("a", "b", 0.6)
	g.AddEdge("a", "c", 0.3)

	if err := g.Validate(); !errors.Is(err, ErrWeightSum) {
		t.Errorf("Validate() = %v, want ErrWeightSum", err)
	}

	g.AddEdge("a", "c", 0.1)
	if err := g.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil after completing the split", err)
	}
}

func TestRole_Classification(t *testing.T) {
	g := New()
	g.AddNode(Node{ID: "voter", Weight: 1})
	g.AddNode(Node{ID: "delegator", Weight: 1})
	g.AddNode(Node{ID: "lost", Weight: 1, Absorber: true})
	g.AddEdge("delegator", "voter", 1)

	tests := []struct {
		id   string
		want Role
	}{
		{"voter", RoleVoter},
		{"delegator", RoleDelegator},
		{"lost", RoleAbsorber},
	}
	for _, tt := range tests {
		if got := g.Role(tt.id); got != tt.want {
			t.Errorf("Role(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}

func TestFromMap_UniformWeights(t *testing.T) {
	g, err := FromMap(map[string]map[string]float64{
		"a": {"b": 0.6, "c": 0.4},
	}, nil)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}

	if g.NodeCount() != 3 {
		t.Errorf("NodeCount() = %d, want 3", g.NodeCount())
	}
	if g.EdgeCount() != 2 {
		t.Errorf("EdgeCount() = %d, want 2", g.EdgeCount())
	}
	if w := g.Weight("b"); w != 1 {
		t.Errorf("Weight(b) = %v, want default 1", w)
	}
	if got := g.TotalWeight(); got != 3 {
		t.Errorf("TotalWeight() = %v, want 3", got)
	}
}

func TestFromMap_ExplicitWeights(t *testing.T) {
	g, err := FromMap(
		map[string]map[string]float64{"a": {"b": 1}},
		map[string]float64{"a": 10, "b": 2, "c": 5},
	)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}
	if w := g.Weight("a"); w != 10 {
		t.Errorf("Weight(a) = %v, want 10", w)
	}
	// c appears only in the weights map but still becomes a node
	if _, ok := g.Node("c"); !ok {
		t.Error("node c from weights map missing")
	}
}

func TestFromMap_RejectsMalformed(t *testing.T) {
	if _, err := FromMap(map[string]map[string]float64{
		"a": {"b": 0.5},
	}, nil); !errors.Is(err, ErrWeightSum) {
		t.Errorf("FromMap(partial delegation) = %v, want ErrWeightSum", err)
	}
	if _, err := FromMap(map[string]map[string]float64{
		"a": {"b": -0.5, "c": 1.5},
	}, nil); !errors.Is(err, ErrEdgeWeight) {
		t.Errorf("FromMap(negative weight) = %v, want ErrEdgeWeight", err)
	}
}

func TestVoters_Sorted(t *testing.T) {
	g, err := FromMap(map[string]map[string]float64{
		"z": {"b": 1},
		"m": {"a": 1},
	}, nil)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}
	voters := g.Voters()
	want := []string{"a", "b"}
	if len(voters) != len(want) {
		t.Fatalf("Voters() = %v, want %v", voters, want)
	}
	for i := range want {
		if voters[i] != want[i] {
			t.Errorf("Voters()[%d] = %q, want %q", i, voters[i], want[i])
		}
	}
}

func TestClone_Independent(t *testing.T) {
	g, _ := FromMap(map[string]map[string]float64{"a": {"b": 1}}, nil)
	c := g.Clone()

	if !Equal(g, c) {
		t.Fatal("Clone() not Equal to original")
	}
	c.AddNode(Node{ID: "extra", Weight: 1})
	if Equal(g, c) {
		t.Error("mutating clone affected original")
	}
}

func TestRoundTrip(t *testing.T) {
	g, err := FromMap(
		map[string]map[string]float64{
			"a": {"b": 0.6, "c": 0.4},
			"b": {"c": 1},
		},
		map[string]float64{"a": 10},
	)
	if err != nil {
		t.Fatalf("FromMap() error: %v", err)
	}

	var buf bytes.Buffer
	if err := Write(g, &buf); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	got, err := Read(&buf)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !Equal(g, got) {
		t.Error("round trip produced a different graph")
	}
}

func TestMarshal_Deterministic(t *testing.T) {
	g, _ := FromMap(map[string]map[string]float64{
		"a": {"b": 0.5, "c": 0.5},
		"d": {"a": 1},
	}, nil)

	first, err := Marshal(g)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	for i := 0; i < 10; i++ {
		again, _ := Marshal(g)
		if !bytes.Equal(first, again) {
			t.Fatal("Marshal() output not deterministic")
		}
	}
}
