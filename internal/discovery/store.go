package discovery

import (
	"context"
	"errors"
	"time"
)

// ErrRunNotFound is returned when a run id does not exist in the store.
var ErrRunNotFound = errors.New("discovery: run not found")

// RunSummary is a lightweight listing row for past runs.
type RunSummary struct {
	ID         string    `json:"id"`
	Campaign   string    `json:"campaign"`
	Status     RunStatus `json:"status"`
	Candidates int       `json:"candidates"`
	CostUSD    float64   `json:"cost_usd"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at,omitempty"`
}

// Store persists discovery runs for later inspection and incremental
// consumption. The pipeline only hands it read-only snapshots after a
// country's stage completes; the Store never mutates a run's semantics.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	SaveCountryResult(ctx context.Context, runID, iso string, status CountryStatus, candidates []Candidate, errs []CountryError) error
	CompleteRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, runID string) (*Run, error)
	ListRuns(ctx context.Context, limit int) ([]RunSummary, error)
	CountryCandidates(ctx context.Context, runID, iso string) ([]Candidate, error)
	Migrate(ctx context.Context) error
	Close() error
}
