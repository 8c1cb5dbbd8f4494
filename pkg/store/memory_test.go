package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStore_SaveAssignsIDAndTimestamp(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	run := &Run{GraphHash: "abc", Engine: "linear"}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if run.ID == "" {
		t.Error("SaveRun() did not assign an ID")
	}
	if run.CreatedAt.IsZero() {
		t.Error("SaveRun() did not set CreatedAt")
	}
}

func TestMemoryStore_GetRun(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	run := &Run{GraphHash: "abc", Engine: "lp", Absorbed: 2.5}
	if err := s.SaveRun(ctx, run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}

	got, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.Engine != "lp" || got.Absorbed != 2.5 {
		t.Errorf("GetRun() = %+v, want engine lp with absorbed 2.5", got)
	}

	// Mutating the returned run must not affect the stored copy.
	got.Engine = "mutated"
	again, err := s.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if again.Engine != "lp" {
		t.Error("stored run was mutated through a returned copy")
	}
}

func TestMemoryStore_GetRunNotFound(t *testing.T) {
	s := NewMemoryStore()
	if _, err := s.GetRun(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetRun() error = %v, want ErrNotFound", err)
	}
}

func TestMemoryStore_ListRunsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		run := &Run{
			GraphHash: "h",
			Engine:    "iterative",
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.SaveRun(ctx, run); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}

	runs, err := s.ListRuns(ctx, 3)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != 3 {
		t.Fatalf("ListRuns() returned %d runs, want 3", len(runs))
	}
	for i := 1; i < len(runs); i++ {
		if runs[i].CreatedAt.After(runs[i-1].CreatedAt) {
			t.Error("ListRuns() not sorted newest first")
		}
	}
}

func TestMemoryStore_ListRunsDefaultLimit(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	for i := 0; i < DefaultListLimit+10; i++ {
		if err := s.SaveRun(ctx, &Run{GraphHash: "h"}); err != nil {
			t.Fatalf("SaveRun() error = %v", err)
		}
	}
	runs, err := s.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns() error = %v", err)
	}
	if len(runs) != DefaultListLimit {
		t.Errorf("ListRuns(0) returned %d runs, want %d", len(runs), DefaultListLimit)
	}
}
