package discovery

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/exportiq/dealerscout/internal/source"
)

// mockAdapter implements source.Adapter for testing. Responses are keyed
// by country; err applies to every call unless errByCountry overrides.
type mockAdapter struct {
	name         string
	rateLimit    source.RateLimit
	records      map[string][]source.RawRecord
	err          error
	errByCountry map[string]error
	delay        time.Duration
	calls        atomic.Int64

	mu       sync.Mutex
	queries  []source.Query
	callTime []time.Time
}

func newMockAdapter(name string) *mockAdapter {
	return &mockAdapter{
		name:      name,
		rateLimit: source.RateLimit{MaxConcurrent: 2},
		records:   make(map[string][]source.RawRecord),
	}
}

func (m *mockAdapter) Name() string                 { return m.name }
func (m *mockAdapter) CostPerCall() int             { return 1 }
func (m *mockAdapter) RateLimit() source.RateLimit  { return m.rateLimit }
func (m *mockAdapter) Calls() int                   { return int(m.calls.Load()) }

func (m *mockAdapter) Search(_ context.Context, q source.Query) ([]source.RawRecord, error) {
	if m.delay > 0 {
		time.Sleep(m.delay)
	}
	m.calls.Add(1)
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.callTime = append(m.callTime, time.Now())
	countryErr, hasCountryErr := m.errByCountry[q.Country]
	m.mu.Unlock()

	if hasCountryErr {
		return nil, countryErr
	}
	if m.err != nil {
		return nil, m.err
	}
	if q.Page > 0 {
		return nil, nil // single page of results
	}
	return m.records[q.Country], nil
}

// mockStore implements Store for testing.
type mockStore struct {
	mu             sync.Mutex
	created        []*Run
	countryResults map[string][]Candidate
	countryStatus  map[string]CountryStatus
	completed      []*Run
	createErr      error
}

func newMockStore() *mockStore {
	return &mockStore{
		countryResults: make(map[string][]Candidate),
		countryStatus:  make(map[string]CountryStatus),
	}
}

func (m *mockStore) CreateRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	m.created = append(m.created, run.Clone())
	return nil
}

func (m *mockStore) SaveCountryResult(_ context.Context, _ string, iso string, status CountryStatus, candidates []Candidate, _ []CountryError) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.countryResults[iso] = candidates
	m.countryStatus[iso] = status
	return nil
}

func (m *mockStore) CompleteRun(_ context.Context, run *Run) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.completed = append(m.completed, run.Clone())
	return nil
}

func (m *mockStore) GetRun(_ context.Context, _ string) (*Run, error) {
	return nil, ErrRunNotFound
}

func (m *mockStore) ListRuns(_ context.Context, _ int) ([]RunSummary, error) {
	return nil, nil
}

func (m *mockStore) CountryCandidates(_ context.Context, _, iso string) ([]Candidate, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countryResults[iso], nil
}

func (m *mockStore) Migrate(context.Context) error { return nil }
func (m *mockStore) Close() error                  { return nil }
