package discovery

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // cgo-free sqlite driver
)

// SQLiteStore implements Store on a local sqlite file. Used for
// single-operator setups where running Postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: open sqlite")
	}
	// sqlite tolerates exactly one writer.
	db.SetMaxOpenConns(1)
	return &SQLiteStore{db: db}, nil
}

// Migrate creates the discovery tables if they do not exist.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS discovery_runs (
			id TEXT PRIMARY KEY,
			campaign TEXT NOT NULL,
			countries TEXT NOT NULL,
			status TEXT NOT NULL,
			country_status TEXT NOT NULL,
			per_country_errors TEXT,
			cost TEXT,
			started_at TIMESTAMP NOT NULL,
			finished_at TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS discovery_candidates (
			id TEXT NOT NULL,
			run_id TEXT NOT NULL REFERENCES discovery_runs(id),
			country TEXT NOT NULL,
			tier TEXT NOT NULL,
			confidence INTEGER NOT NULL,
			payload TEXT NOT NULL,
			PRIMARY KEY (run_id, id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_discovery_candidates_country
			ON discovery_candidates (run_id, country)`,
	}
	for _, stmt := range ddl {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return eris.Wrap(err, "discovery: sqlite migrate")
		}
	}
	return nil
}

// CreateRun inserts a new run row.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	countries, statuses, errsJSON, costJSON, err := marshalRunParts(run)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO discovery_runs
			(id, campaign, countries, status, country_status, per_country_errors, cost, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Campaign, string(countries), string(run.Status),
		string(statuses), string(errsJSON), string(costJSON), run.StartedAt,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: sqlite create run")
	}
	return nil
}

// SaveCountryResult persists one country's candidates and errors.
func (s *SQLiteStore) SaveCountryResult(ctx context.Context, runID, iso string, status CountryStatus, candidates []Candidate, errs []CountryError) error {
	for i := range candidates {
		payload, err := json.Marshal(&candidates[i])
		if err != nil {
			return eris.Wrap(err, "discovery: marshal candidate")
		}
		_, err = s.db.ExecContext(ctx,
			`INSERT INTO discovery_candidates (id, run_id, country, tier, confidence, payload)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT (run_id, id) DO UPDATE SET
				tier = excluded.tier,
				confidence = excluded.confidence,
				payload = excluded.payload`,
			candidates[i].ID, runID, iso, string(candidates[i].Tier), candidates[i].Confidence, string(payload),
		)
		if err != nil {
			return eris.Wrap(err, "discovery: sqlite insert candidate")
		}
	}

	// Read-modify-write keeps the status map consistent without jsonb
	// operators.
	var statusesRaw, errsRaw sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT country_status, per_country_errors FROM discovery_runs WHERE id = ?`, runID,
	).Scan(&statusesRaw, &errsRaw)
	if err != nil {
		return eris.Wrap(err, "discovery: sqlite read run state")
	}

	statuses := map[string]CountryStatus{}
	if statusesRaw.Valid && statusesRaw.String != "" {
		if err := json.Unmarshal([]byte(statusesRaw.String), &statuses); err != nil {
			return eris.Wrap(err, "discovery: unmarshal country status")
		}
	}
	statuses[iso] = status

	var allErrs []CountryError
	if errsRaw.Valid && errsRaw.String != "" {
		if err := json.Unmarshal([]byte(errsRaw.String), &allErrs); err != nil {
			return eris.Wrap(err, "discovery: unmarshal run errors")
		}
	}
	allErrs = append(allErrs, errs...)

	statusesJSON, err := json.Marshal(statuses)
	if err != nil {
		return eris.Wrap(err, "discovery: marshal country status")
	}
	errsJSON, err := json.Marshal(allErrs)
	if err != nil {
		return eris.Wrap(err, "discovery: marshal run errors")
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET country_status = ?, per_country_errors = ? WHERE id = ?`,
		string(statusesJSON), string(errsJSON), runID,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: sqlite save country result")
	}
	return nil
}

// CompleteRun stores the terminal state of a run.
func (s *SQLiteStore) CompleteRun(ctx context.Context, run *Run) error {
	_, statuses, errsJSON, costJSON, err := marshalRunParts(run)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`UPDATE discovery_runs SET
			status = ?, country_status = ?, per_country_errors = ?, cost = ?, finished_at = ?
		 WHERE id = ?`,
		string(run.Status), string(statuses), string(errsJSON), string(costJSON), run.FinishedAt, run.ID,
	)
	if err != nil {
		return eris.Wrap(err, "discovery: sqlite complete run")
	}
	return nil
}

// GetRun loads a run and its candidates.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	var (
		run        Run
		status     string
		countries  string
		statuses   string
		errsJSON   sql.NullString
		costJSON   sql.NullString
		finishedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, campaign, countries, status, country_status, per_country_errors, cost, started_at, finished_at
		 FROM discovery_runs WHERE id = ?`, runID,
	).Scan(&run.ID, &run.Campaign, &countries, &status, &statuses, &errsJSON, &costJSON, &run.StartedAt, &finishedAt)
	if err != nil {
		if eris.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, eris.Wrap(err, "discovery: sqlite get run")
	}
	run.Status = RunStatus(status)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	if err := unmarshalRunParts(&run, []byte(countries), []byte(statuses),
		nullBytes(errsJSON), nullBytes(costJSON)); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM discovery_candidates WHERE run_id = ? ORDER BY confidence DESC`, runID,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: sqlite load candidates")
	}
	defer rows.Close() //nolint:errcheck

	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "discovery: scan candidate")
		}
		var c Candidate
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
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
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.id, r.campaign, r.status,
			(SELECT COUNT(*) FROM discovery_candidates c WHERE c.run_id = r.id),
			COALESCE(json_extract(r.cost, '$.total_usd'), 0),
			r.started_at, r.finished_at
		 FROM discovery_runs r
		 ORDER BY r.started_at DESC
		 LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: sqlite list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []RunSummary
	for rows.Next() {
		var (
			sum        RunSummary
			status     string
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&sum.ID, &sum.Campaign, &status, &sum.Candidates, &sum.CostUSD, &sum.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "discovery: scan run summary")
		}
		sum.Status = RunStatus(status)
		if finishedAt.Valid {
			sum.FinishedAt = finishedAt.Time
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: iterate runs")
	}
	return out, nil
}

// CountryCandidates returns one country's candidates for a run.
func (s *SQLiteStore) CountryCandidates(ctx context.Context, runID, iso string) ([]Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT payload FROM discovery_candidates
		 WHERE run_id = ? AND country = ?
		 ORDER BY confidence DESC`, runID, iso,
	)
	if err != nil {
		return nil, eris.Wrap(err, "discovery: sqlite country candidates")
	}
	defer rows.Close() //nolint:errcheck

	var out []Candidate
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, eris.Wrap(err, "discovery: scan candidate")
		}
		var c Candidate
		if err := json.Unmarshal([]byte(payload), &c); err != nil {
			return nil, eris.Wrap(err, "discovery: unmarshal candidate")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "discovery: iterate candidates")
	}
	return out, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func nullBytes(ns sql.NullString) []byte {
	if !ns.Valid {
		return nil
	}
	return []byte(ns.String)
}
