package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is the persistent record of one resolution. It captures the input,
// the engine parameters, and the headline numbers of the outcome so past
// resolutions can be listed and compared without re-running them.
type Run struct {
	ID         string    `json:"id" bson:"_id"`
	GraphHash  string    `json:"graph_hash" bson:"graph_hash"`
	Engine     string    `json:"engine" bson:"engine"`
	Nodes      int       `json:"nodes" bson:"nodes"`
	Edges      int       `json:"edges" bson:"edges"`
	Voters     int       `json:"voters" bson:"voters"`
	Cycles     int       `json:"cycles" bson:"cycles"`
	Absorbed   float64   `json:"absorbed" bson:"absorbed"`
	Converged  bool      `json:"converged" bson:"converged"`
	Iterations int       `json:"iterations" bson:"iterations"`
	DurationMS int64     `json:"duration_ms" bson:"duration_ms"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

// Store persists resolution runs. Implementations must be safe for
// concurrent use.
type Store interface {
	// SaveRun persists a run. A missing ID is assigned, a missing
	// CreatedAt is set to now.
	SaveRun(ctx context.Context, run *Run) error

	// GetRun retrieves a run by ID. Returns [ErrNotFound] if absent.
	GetRun(ctx context.Context, id string) (*Run, error)

	// ListRuns returns the most recent runs, newest first. A limit of
	// zero applies a sensible default.
	ListRuns(ctx context.Context, limit int) ([]*Run, error)

	// Close releases any resources held by the store.
	Close(ctx context.Context) error
}

// DefaultListLimit caps ListRuns when no limit is given.
const DefaultListLimit = 50
