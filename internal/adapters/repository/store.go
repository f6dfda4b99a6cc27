// Package repository holds the in-memory dataset cache: one immutable
// snapshot per dataset, replaced whole on every successful reload.
package repository

import (
	"context"
	"time"

	"github.com/okian/scrollstats/internal/domain/columns"
	"github.com/okian/scrollstats/internal/domain/table"
)

// ID names a dataset.
type ID string

// Known datasets.
const (
	Warscroll ID = "warscroll"
	Faction   ID = "faction"
	League    ID = "league"
)

// IDs returns the known datasets in reporting order.
func IDs() []ID { return []ID{Warscroll, Faction, League} }

// Dataset is one loaded generation. It is never mutated after publication.
type Dataset struct {
	ID         ID
	Source     string
	Headers    []string
	Records    []table.Record
	Resolution columns.Resolution
	LoadedAt   time.Time
	Generation string
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	if d == nil {
		return 0
	}
	return len(d.Records)
}

// OutcomeKind classifies a refresh attempt.
type OutcomeKind string

// Refresh outcomes.
const (
	NotConfigured OutcomeKind = "not_configured"
	Reloaded      OutcomeKind = "reloaded"
	KeptStale     OutcomeKind = "kept_stale"
	Failed        OutcomeKind = "failed"
)

// Outcome reports one refresh attempt.
type Outcome struct {
	Dataset    ID
	Kind       OutcomeKind
	Rows       int
	LoadedAt   time.Time
	Generation string
	Err        error
}

// State is the externally visible cache state of a dataset.
type State string

// Cache states.
const (
	StateEmpty State = "empty"
	StateReady State = "ready"
	StateStale State = "stale"
)

// Status describes one dataset slot.
type Status struct {
	Dataset    ID        `json:"dataset"`
	Configured bool      `json:"configured"`
	State      State     `json:"state"`
	Rows       int       `json:"rows"`
	LoadedAt   time.Time `json:"loaded_at,omitzero"`
	Generation string    `json:"generation,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Store is the read/refresh surface the command service depends on.
type Store interface {
	// Ensure returns a fresh enough generation, loading it when needed.
	Ensure(ctx context.Context, id ID) (*Dataset, error)
	// Refresh always fetches and reports what happened.
	Refresh(ctx context.Context, id ID) Outcome
	// RefreshAll refreshes every dataset concurrently.
	RefreshAll(ctx context.Context) []Outcome
	// Status reports every dataset slot.
	Status(ctx context.Context) []Status
}
