package discovery

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rotisserie/eris"
)

// Pool is the subset of pgxpool.Pool the store needs; pgxmock satisfies
// it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Close()
}

// PostgresStore implements Store using pgx.
type PostgresStore struct {
	pool Pool
}

// NewPostgresStore creates a PostgresStore over an open pool.
func NewPostgresStore(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate creates the discovery tables if they do not exist.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS discovery_runs (
			id TEXT PRIMARY KEY,
			campaign TEXT NOT NULL,
			countries JSONB NOT NULL,
			status TEXT NOT NULL,
			country_status JSONB NOT NULL,
			per_country_errors JSONB,
			cost JSONB,
			started_at TIMESTAMPTZ NOT NULL,
			finished_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS discovery_candidates (
			id TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES discovery_runs(id),
			country TEXT NOT NULL,
			tier TEXT NOT NULL,
			confidence INT NOT NULL,
			payload JSONB NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_discovery_candidates_country
			ON discovery_candidates (run_id, country)`,
	}
	for _, stmt := range ddl {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return eris.Wrap(err, "discovery: migrate")
		}
	}
	return nil
}

// CreateRun inserts a new run row.
func (s *PostgresStore) CreateRun(ctx context.Context, run *Run) error {
	countries, statuses, errsJSON, costJSON, err := marshalRunParts(run)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO discovery_runs
			(id, campaign, countries, status, country_status, per_country_errors, cost, started_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		run.ID, run.Campaign, countries, string(run.Status), statuses, errsJSON, costJSON, run.StartedAt,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: create run")
	}
	return nil
}

// SaveCountryResult persists one country's candidates and errors and
// refreshes the run's country status map.
func (s *PostgresStore) SaveCountryResult(ctx context.Context, runID, iso string, status CountryStatus, candidates []Candidate, errs []CountryError) error {
	for i := range candidates {
		payload, err := json.Marshal(&candidates[i])
		if err != nil {
			return eris.Wrap(err, "discovery: marshal candidate")
		}
		_, err = s.pool.Exec(ctx,
			`INSERT INTO discovery_candidates (id, run_id, country, tier, confidence, payload)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (run_id, id) DO UPDATE SET
				tier = EXCLUDED.tier,
				confidence = EXCLUDED.confidence,
				payload = EXCLUDED.payload`,
			candidates[i].ID, runID, iso, string(candidates[i].Tier), candidates[i].Confidence, payload,
		)
		if err != nil {
			return eris.Wrap(err, "discovery: insert candidate")
		}
	}

	errsJSON, err := json.Marshal(errs)
	if err != nil {
		return eris.Wrap(err, "discovery: marshal country errors")
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE discovery_runs SET
			country_status = jsonb_set(country_status, ARRAY[$2], to_jsonb($3::text)),
			per_country_errors = COALESCE(per_country_errors, '[]'::jsonb) || $4::jsonb
		 WHERE id = $1`,
		runID, iso, string(status), errsJSON,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: save country result")
	}
	return nil
}

// CompleteRun stores the terminal state of a run.
func (s *PostgresStore) CompleteRun(ctx context.Context, run *Run) error {
	_, statuses, errsJSON, costJSON, err := marshalRunParts(run)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`UPDATE discovery_runs SET
			status = $2,
			country_status = $3,
			per_country_errors = $4,
			cost = $5,
			finished_at = $6
		 WHERE id = $1`,
		run.ID, string(run.Status), statuses, errsJSON, costJSON, run.FinishedAt,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: complete run")
	}
	return nil
}

// GetRun loads a run and its candidates.
func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run        Run
		status     string
		countries  []byte
		statuses   []byte
		errsJSON   []byte
		costJSON   []byte
		finishedAt *time.Time
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, campaign, countries, status, country_status, per_country_errors, cost, started_at, finished_at
		 FROM discovery_runs WHERE id = $1`,
		runID,
	).Scan(&run.ID, &run.Campaign, &countries, &status, &statuses, &errsJSON, &costJSON, &run.StartedAt, &finishedAt)
	if err != nil {
		if eris.Is(err, pgx.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, eris.Wrap(err, "discovery: get run")
	}
	run.Status = RunStatus(status)
	if finishedAt != nil {
		run.FinishedAt = *finishedAt
	}
	if err := unmarshalRunParts(&run, countries, statuses, errsJSON, costJSON); err != nil {
		return nil, err
	}

	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM discovery_candidates WHERE run_id = $1 ORDER BY confidence DESC`,
		runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: load candidates")
	}
	defer rows.Close()

	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "discovery: scan candidate")
		}
		var c Candidate
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, eris.Wrap(err, "discovery: unmarshal candidate")
		}
		run.Candidates = append(run.Candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: iterate candidates")
	}
	return &run, nil
}

// ListRuns returns recent runs, newest first.
func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT r.id, r.campaign, r.status,
			(SELECT COUNT(*) FROM discovery_candidates c WHERE c.run_id = r.id),
			COALESCE((r.cost->>'total_usd')::float8, 0),
			r.started_at, r.finished_at
		 FROM discovery_runs r
		 ORDER BY r.started_at DESC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: list runs")
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var (
			sum        RunSummary
			status     string
			finishedAt *time.Time
		)
		if err := rows.Scan(&sum.ID, &sum.Campaign, &status, &sum.Candidates, &sum.CostUSD, &sum.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "discovery: scan run summary")
		}
		sum.Status = RunStatus(status)
		if finishedAt != nil {
			sum.FinishedAt = *finishedAt
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: iterate runs")
	}
	return out, nil
}

// CountryCandidates returns one country's candidates for a run.
func (s *PostgresStore) CountryCandidates(ctx context.Context, runID, iso string) ([]Candidate, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT payload FROM discovery_candidates
		 WHERE run_id = $1 AND country = $2
		 ORDER BY confidence DESC`,
		runID, iso,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: country candidates")
	}
	defer rows.Close()

	var out []Candidate
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "discovery: scan candidate")
		}
		var c Candidate
		if err := json.Unmarshal(payload, &c); err != nil {
			return nil, eris.Wrap(err, "discovery: unmarshal candidate")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: iterate candidates")
	}
	return out, nil
}

// Close releases the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func marshalRunParts(run *Run) (countries, statuses, errsJSON, costJSON []byte, err error) {
	if countries, err = json.Marshal(run.Countries); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "discovery: marshal countries")
	}
	if statuses, err = json.Marshal(run.CountryStatus); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "discovery: marshal country status")
	}
	if errsJSON, err = json.Marshal(run.PerCountryErrors); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "discovery: marshal errors")
	}
	if costJSON, err = json.Marshal(run.Cost); err != nil {
		return nil, nil, nil, nil, eris.Wrap(err, "discovery: marshal cost")
	}
	return countries, statuses, errsJSON, costJSON, nil
}

func unmarshalRunParts(run *Run, countries, statuses, errsJSON, costJSON []byte) error {
	if len(countries) > 0 {
		if err := json.Unmarshal(countries, &run.Countries); err != nil {
			return eris.Wrap(err, "discovery: unmarshal countries")
		}
	}
	if len(statuses) > 0 {
		if err := json.Unmarshal(statuses, &run.CountryStatus); err != nil {
			return eris.Wrap(err, "discovery: unmarshal country status")
		}
	}
	if len(errsJSON) > 0 {
		if err := json.Unmarshal(errsJSON, &run.PerCountryErrors); err != nil {
			return eris.Wrap(err, "discovery: unmarshal errors")
		}
	}
	if len(costJSON) > 0 {
		if err := json.Unmarshal(costJSON, &run.Cost); err != nil {
			return eris.Wrap(err, "discovery: unmarshal cost")
		}
	}
	return nil
}
