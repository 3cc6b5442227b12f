package discovery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportiq/dealerscout/internal/cost"
	"github.com/exportiq/dealerscout/internal/resilience"
	"github.com/exportiq/dealerscout/internal/scorer"
	"github.com/exportiq/dealerscout/internal/source"
)

func fastRunnerConfig() RunnerConfig {
	return RunnerConfig{
		InterCountryDelay: time.Millisecond,
		AdapterTimeout:    time.Second,
		Retry: resilience.RetryConfig{
			MaxAttempts:    2,
			InitialBackoff: time.Millisecond,
			MaxBackoff:     2 * time.Millisecond,
		},
	}
}

func testCampaign(countries ...string) *Campaign {
	if len(countries) == 0 {
		countries = []string{"BR"}
	}
	return &Campaign{
		Name:      "test",
		Countries: countries,
		Keywords:  []string{"pilates equipment"},
	}
}

func webRecord(id, url, name string) source.RawRecord {
	return source.RawRecord{
		Source: source.WebSearch, ExternalID: id,
		Name: name, URL: url, Title: name, CountryText: "Brazil",
	}
}

func TestRunnerRun_HappyPath(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{
		webRecord("w1", "https://acme.com.br", "Acme Equipamentos"),
		webRecord("w2", "https://beta.com.br", "Beta Fitness"),
	}
	graph := newMockAdapter(source.GraphSearch)
	graph.records["BR"] = []source.RawRecord{{
		Source: source.GraphSearch, ExternalID: "g1",
		Name: "Acme Equipamentos", URL: "https://acme.com.br",
		Title: "Acme Equipamentos", CountryText: "Brazil", ContactFound: true,
	}}

	st := newMockStore()
	r := NewRunner([]source.Adapter{web, graph}, fastRunnerConfig(), cost.DefaultRates(), st)

	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, CountryDone, run.CountryStatus["BR"])
	assert.Empty(t, run.PerCountryErrors)
	assert.False(t, run.FinishedAt.IsZero())

	// Acme merged across sources; Beta stands alone.
	require.Len(t, run.Candidates, 2)
	byDomain := map[string]Candidate{}
	for _, c := range run.Candidates {
		byDomain[c.CanonicalDomain] = c
	}
	require.Contains(t, byDomain, "acme.com.br")
	assert.Len(t, byDomain["acme.com.br"].SourceRecords, 2)
	assert.NotEmpty(t, byDomain["acme.com.br"].Tier)

	// Both paid calls landed in the ledger.
	assert.Equal(t, 1, run.Cost.Sources["web-search"].CallsMade)
	assert.Equal(t, 1, run.Cost.Sources["graph-search"].CallsMade)
	assert.Greater(t, run.Cost.TotalUSD, 0.0)

	// Persistence saw the lifecycle.
	assert.Len(t, st.created, 1)
	assert.Len(t, st.completed, 1)
	assert.Equal(t, CountryDone, st.countryStatus["BR"])
}

func TestRunnerRun_OneSourceFailsCountryStillSucceeds(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	graph := newMockAdapter(source.GraphSearch)
	graph.err = source.NewError(source.KindInvalidQuery, source.GraphSearch, errors.New("bad query"))

	r := NewRunner([]source.Adapter{web, graph}, fastRunnerConfig(), cost.DefaultRates(), nil)
	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, CountryDone, run.CountryStatus["BR"])
	require.Len(t, run.PerCountryErrors, 1)
	assert.Equal(t, source.GraphSearch, run.PerCountryErrors[0].Source)
	assert.Len(t, run.Candidates, 1)
}

func TestRunnerRun_AllSourcesFailCountryFails(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.err = source.NewError(source.KindInvalidQuery, source.WebSearch, errors.New("boom"))
	graph := newMockAdapter(source.GraphSearch)
	graph.err = source.NewError(source.KindInvalidQuery, source.GraphSearch, errors.New("boom"))

	r := NewRunner([]source.Adapter{web, graph}, fastRunnerConfig(), cost.DefaultRates(), nil)
	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)

	assert.Equal(t, RunPartiallyFailed, run.Status)
	assert.Equal(t, CountryFailed, run.CountryStatus["BR"])
	assert.Empty(t, run.Candidates)
	assert.Len(t, run.PerCountryErrors, 2)
}

func TestRunnerRun_AuthFailureKillsSourceForRun(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	web.records["AR"] = []source.RawRecord{{
		Source: source.WebSearch, ExternalID: "w2",
		Name: "Gamma", URL: "https://gamma.com.ar", CountryText: "Argentina",
	}}

	graph := newMockAdapter(source.GraphSearch)
	graph.err = source.NewError(source.KindAuthFailure, source.GraphSearch, errors.New("401"))

	r := NewRunner([]source.Adapter{web, graph}, fastRunnerConfig(), cost.DefaultRates(), nil)
	run, err := r.Run(context.Background(), testCampaign("BR", "AR"))
	require.NoError(t, err)

	// Web carried both countries; graph failed once and was skipped after.
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, CountryDone, run.CountryStatus["BR"])
	assert.Equal(t, CountryDone, run.CountryStatus["AR"])
	assert.Equal(t, 1, graph.Calls(), "auth failure must not be retried or repeated")

	var skipped bool
	for _, e := range run.PerCountryErrors {
		if e.Country == "AR" && e.Source == source.GraphSearch {
			skipped = true
		}
	}
	assert.True(t, skipped, "second country should record the skipped source")
}

func TestRunnerRun_RetriesTransientThenSucceeds(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	failures := 1
	webErr := source.NewError(source.KindTransient, source.WebSearch, errors.New("503"))
	web.errByCountry = map[string]error{"BR": webErr}

	r := NewRunner([]source.Adapter{web}, fastRunnerConfig(), cost.DefaultRates(), nil)

	// Clear the error after the first attempt via OnRetry.
	cfg := r.cfg
	cfg.Retry.OnRetry = func(int, error) {
		if failures > 0 {
			failures--
			web.mu.Lock()
			web.errByCountry = nil
			web.mu.Unlock()
		}
	}
	r.cfg = cfg

	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)
	assert.Equal(t, RunCompleted, run.Status)
	assert.Equal(t, 2, web.Calls())
	// The failed call still cost a unit.
	assert.Equal(t, 2, run.Cost.Sources["web-search"].CallsMade)
}

func TestRunnerRun_CancellationSkipsRemainingCountries(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}

	ctx, cancel := context.WithCancel(context.Background())

	cfg := fastRunnerConfig()
	cfg.InterCountryDelay = 50 * time.Millisecond
	r := NewRunner([]source.Adapter{web}, cfg, cost.DefaultRates(), nil)

	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	run, err := r.Run(ctx, testCampaign("BR", "AR", "CL"))
	require.NoError(t, err)

	assert.Equal(t, RunPartiallyFailed, run.Status)
	assert.Equal(t, CountryDone, run.CountryStatus["BR"])

	// Skipped countries must leave the terminal run with no pending
	// entries.
	assert.Equal(t, CountryFailed, run.CountryStatus["AR"])
	assert.Equal(t, CountryFailed, run.CountryStatus["CL"])
	skipped := map[string]bool{}
	for _, e := range run.PerCountryErrors {
		skipped[e.Country] = true
	}
	assert.True(t, skipped["AR"])
	assert.True(t, skipped["CL"])
}

func TestRunnerRun_CandidateOrderIndependentOfAdapterTiming(t *testing.T) {
	t.Parallel()

	// Two tie-scored records from different adapters: only the gathering
	// order could tell the runs apart.
	runOnce := func(slowWeb bool) []string {
		web := newMockAdapter(source.WebSearch)
		web.records["BR"] = []source.RawRecord{
			webRecord("w1", "https://alpha.com.br", "Alpha Equipamentos"),
		}
		graph := newMockAdapter(source.GraphSearch)
		graph.records["BR"] = []source.RawRecord{{
			Source: source.GraphSearch, ExternalID: "g1",
			Name: "Beta Fitness", URL: "https://beta.com.br",
			Title: "Beta Fitness", CountryText: "Brazil",
		}}
		if slowWeb {
			web.delay = 20 * time.Millisecond
		} else {
			graph.delay = 20 * time.Millisecond
		}

		r := NewRunner([]source.Adapter{web, graph}, fastRunnerConfig(), cost.DefaultRates(), nil)
		run, err := r.Run(context.Background(), testCampaign())
		require.NoError(t, err)
		require.Len(t, run.Candidates, 2)

		names := make([]string, 0, len(run.Candidates))
		for _, c := range run.Candidates {
			names = append(names, c.Name)
		}
		return names
	}

	first := runOnce(true)
	second := runOnce(false)
	assert.Equal(t, first, second, "identical inputs must yield identical candidate order")
	assert.Equal(t, []string{"Alpha Equipamentos", "Beta Fitness"}, first,
		"ties follow configured adapter order")
}

func TestRunnerRun_RegistrySkippedWithoutSeeds(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	registry := newMockAdapter(source.Registry)

	r := NewRunner([]source.Adapter{web, registry}, fastRunnerConfig(), cost.DefaultRates(), nil)
	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)

	assert.Equal(t, RunCompleted, run.Status)
	assert.Zero(t, registry.Calls(), "registry must be skipped silently with no seeds")
	assert.Empty(t, run.PerCountryErrors)
}

func TestRunnerRun_RegistryGetsSeedsAsKeywords(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	registry := newMockAdapter(source.Registry)

	campaign := testCampaign()
	campaign.RegistrySeeds = map[string][]string{"BR": {"11222333000181"}}

	r := NewRunner([]source.Adapter{web, registry}, fastRunnerConfig(), cost.DefaultRates(), nil)
	_, err := r.Run(context.Background(), campaign)
	require.NoError(t, err)

	registry.mu.Lock()
	defer registry.mu.Unlock()
	require.NotEmpty(t, registry.queries)
	assert.Equal(t, []string{"11222333000181"}, registry.queries[0].Keywords)
}

func TestRunnerRun_KeywordsExpandedForMarketLanguage(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	campaign := testCampaign()
	campaign.Keywords = []string{"dealer"}

	r := NewRunner([]source.Adapter{web}, fastRunnerConfig(), cost.DefaultRates(), nil)
	_, err := r.Run(context.Background(), campaign)
	require.NoError(t, err)

	web.mu.Lock()
	defer web.mu.Unlock()
	require.NotEmpty(t, web.queries)
	assert.Contains(t, web.queries[0].Keywords, "dealer")
	assert.Contains(t, web.queries[0].Keywords, "revendedor")
}

func TestRunnerRun_MinIntervalSpacesCalls(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.rateLimit = source.RateLimit{MaxConcurrent: 1, MinInterval: 30 * time.Millisecond}
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}

	campaign := testCampaign()
	campaign.PagesPerSource = 3

	r := NewRunner([]source.Adapter{web}, fastRunnerConfig(), cost.DefaultRates(), nil)
	_, err := r.Run(context.Background(), campaign)
	require.NoError(t, err)

	web.mu.Lock()
	defer web.mu.Unlock()
	// Page 0 returns records, page 1 returns empty and stops paging.
	require.GreaterOrEqual(t, len(web.callTime), 2)
	gap := web.callTime[1].Sub(web.callTime[0])
	assert.GreaterOrEqual(t, gap, 25*time.Millisecond, "min interval must space consecutive calls")
}

func TestRunnerSnapshot(t *testing.T) {
	t.Parallel()

	r := NewRunner(nil, fastRunnerConfig(), cost.DefaultRates(), nil)
	assert.Nil(t, r.Snapshot())

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme")}
	r = NewRunner([]source.Adapter{web}, fastRunnerConfig(), cost.DefaultRates(), nil)

	run, err := r.Run(context.Background(), testCampaign())
	require.NoError(t, err)

	snap := r.Snapshot()
	require.NotNil(t, snap)
	assert.Equal(t, run.ID, snap.ID)
	assert.Equal(t, run.Status, snap.Status)

	// The snapshot is detached from the live run.
	snap.Candidates = nil
	assert.NotNil(t, r.Snapshot().Candidates)
}

func TestRunnerConfigDefaults_PreserveExplicitScorer(t *testing.T) {
	t.Parallel()

	// An explicitly set config is kept as-is, even when zeroed; only a
	// nil Scorer falls back to defaults.
	zeroed := &scorer.Config{}
	cfg := RunnerConfig{Scorer: zeroed}.withDefaults()
	assert.Same(t, zeroed, cfg.Scorer)

	defaulted := RunnerConfig{}.withDefaults()
	require.NotNil(t, defaulted.Scorer)
	assert.Equal(t, scorer.DefaultConfig(), *defaulted.Scorer)
}

func TestRunnerRun_InvalidCampaign(t *testing.T) {
	t.Parallel()

	r := NewRunner(nil, fastRunnerConfig(), cost.DefaultRates(), nil)
	_, err := r.Run(context.Background(), &Campaign{Name: "empty"})
	assert.Error(t, err)
}

func TestRunnerRun_CampaignTierOverride(t *testing.T) {
	t.Parallel()

	web := newMockAdapter(source.WebSearch)
	web.records["BR"] = []source.RawRecord{webRecord("w1", "https://acme.com.br", "Acme Equipamentos")}

	campaign := testCampaign()
	// Thresholds so high nothing qualifies above unqualified.
	campaign.Tier = &TierConfig{AMin: 100, BMin: 100, CMin: 100}

	r := NewRunner([]source.Adapter{web}, fastRunnerConfig(), cost.DefaultRates(), nil)
	run, err := r.Run(context.Background(), campaign)
	require.NoError(t, err)

	require.Len(t, run.Candidates, 1)
	if run.Candidates[0].Confidence < 100 {
		assert.Equal(t, TierUnqualified, run.Candidates[0].Tier)
	}
}
