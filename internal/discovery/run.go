package discovery

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/time/rate"

	"github.com/exportiq/dealerscout/internal/cost"
	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/internal/resilience"
	"github.com/exportiq/dealerscout/internal/scorer"
	"github.com/exportiq/dealerscout/internal/source"
)

// RunnerConfig tunes orchestration behavior.
type RunnerConfig struct {
	// InterCountryDelay spaces out country iterations to stay under
	// global provider quotas. Default 5s.
	InterCountryDelay time.Duration
	// AdapterTimeout is the hard per-call timeout; a timeout is treated
	// as a transient failure. Default 30s.
	AdapterTimeout time.Duration
	// Retry bounds backoff for rate-limited and transient failures.
	Retry resilience.RetryConfig
	// Scorer and Tier are the default tuning, overridable per campaign.
	// A nil Scorer means scorer.DefaultConfig().
	Scorer *scorer.Config
	Tier   TierConfig
}

func (c RunnerConfig) withDefaults() RunnerConfig {
	if c.InterCountryDelay <= 0 {
		c.InterCountryDelay = 5 * time.Second
	}
	if c.AdapterTimeout <= 0 {
		c.AdapterTimeout = 30 * time.Second
	}
	if c.Scorer == nil {
		d := scorer.DefaultConfig()
		c.Scorer = &d
	}
	if c.Tier == (TierConfig{}) {
		c.Tier = DefaultTierConfig()
	}
	return c
}

// adapterSlot carries the per-adapter scheduling state: an interval
// limiter plus a concurrency semaphore, both derived from the adapter's
// declared rate limit.
type adapterSlot struct {
	adapter source.Adapter
	limiter *rate.Limiter
	sem     chan struct{}
}

// Runner drives discovery runs. A Runner is reusable across runs; each
// Run aggregate is terminal and never reused.
type Runner struct {
	cfg   RunnerConfig
	rates cost.Rates
	slots []adapterSlot
	store Store // optional; nil disables persistence

	mu         sync.RWMutex
	current    *Run
	authFailed map[string]bool // sources dead for the remainder of the run
}

// NewRunner creates a Runner over the given adapters.
func NewRunner(adapters []source.Adapter, cfg RunnerConfig, rates cost.Rates, store Store) *Runner {
	slots := make([]adapterSlot, 0, len(adapters))
	for _, a := range adapters {
		rl := a.RateLimit()
		maxConc := rl.MaxConcurrent
		if maxConc <= 0 {
			maxConc = 1
		}
		limiter := rate.NewLimiter(rate.Inf, 1)
		if rl.MinInterval > 0 {
			limiter = rate.NewLimiter(rate.Every(rl.MinInterval), 1)
		}
		slots = append(slots, adapterSlot{
			adapter: a,
			limiter: limiter,
			sem:     make(chan struct{}, maxConc),
		})
	}
	return &Runner{
		cfg:   cfg.withDefaults(),
		rates: rates,
		slots: slots,
		store: store,
	}
}

// Snapshot returns a copy of the in-progress (or last) run for
// incremental consumption, or nil when no run has started.
func (r *Runner) Snapshot() *Run {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.current == nil {
		return nil
	}
	return r.current.Clone()
}

// Run executes one discovery run over the campaign's countries in
// configured order. Country failures never abort the run; the returned
// Run is Completed only when every country finished without a fatal
// source failure, else PartiallyFailed.
func (r *Runner) Run(ctx context.Context, campaign *Campaign) (*Run, error) {
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	cfg := r.cfg
	if campaign.Scorer != nil {
		cfg.Scorer = campaign.Scorer
	}
	if campaign.Tier != nil {
		cfg.Tier = *campaign.Tier
	}

	countries := campaign.ResolvedCountries()
	run := &Run{
		ID:            uuid.NewString(),
		Campaign:      campaign.Name,
		Countries:     countries,
		Status:        RunRunning,
		CountryStatus: make(map[string]CountryStatus, len(countries)),
		StartedAt:     time.Now().UTC(),
	}
	for _, iso := range countries {
		run.CountryStatus[iso] = CountryPending
	}

	r.mu.Lock()
	r.current = run
	r.authFailed = make(map[string]bool)
	r.mu.Unlock()

	ledger := cost.NewLedger(r.rates)
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("campaign", campaign.Name))
	log.Info("discovery run started", zap.Strings("countries", countries))

	if r.store != nil {
		if err := r.store.CreateRun(ctx, run); err != nil {
			return nil, eris.Wrap(err, "discovery: persist run")
		}
	}

	for i, iso := range countries {
		// Cancellation is checked between country iterations; in-flight
		// work below finishes so spent cost stays accounted. Skipped
		// countries are marked failed so the terminal run holds no
		// pending entries.
		if ctx.Err() != nil {
			r.skipCanceledCountry(run, iso)
			continue
		}

		if i > 0 {
			if !sleepCtx(ctx, r.cfg.InterCountryDelay) {
				r.skipCanceledCountry(run, iso)
				continue
			}
		}

		r.updateRun(run, func(run *Run) {
			run.CountryStatus[iso] = CountryInFlight
		})

		candidates, errs, ok := r.runCountry(ctx, campaign, cfg, iso, ledger, log)

		r.updateRun(run, func(run *Run) {
			run.PerCountryErrors = append(run.PerCountryErrors, errs...)
			if ok {
				run.CountryStatus[iso] = CountryDone
				run.Candidates = append(run.Candidates, candidates...)
			} else {
				run.CountryStatus[iso] = CountryFailed
			}
			run.Cost = ledger.Snapshot()
		})

		if r.store != nil {
			status := run.CountryStatus[iso]
			if err := r.store.SaveCountryResult(ctx, run.ID, iso, status, candidates, errs); err != nil {
				log.Warn("persist country result failed", zap.String("country", iso), zap.Error(err))
			}
		}
	}

	r.updateRun(run, func(run *Run) {
		run.Status = RunCompleted
		for _, st := range run.CountryStatus {
			if st != CountryDone {
				run.Status = RunPartiallyFailed
				break
			}
		}
		run.Cost = ledger.Finalize()
		run.FinishedAt = time.Now().UTC()
	})

	if r.store != nil {
		if err := r.store.CompleteRun(context.WithoutCancel(ctx), run); err != nil {
			log.Warn("persist run completion failed", zap.Error(err))
		}
	}

	log.Info("discovery run finished",
		zap.String("status", string(run.Status)),
		zap.Int("candidates", len(run.Candidates)),
		zap.Float64("cost_usd", run.Cost.TotalUSD),
	)
	return run, nil
}

// runCountry fans out to every live adapter, then runs the in-process
// pipeline: score, dedup/merge, classify. ok is false when no source
// produced a usable response for this country.
func (r *Runner) runCountry(
	ctx context.Context,
	campaign *Campaign,
	cfg RunnerConfig,
	iso string,
	ledger *cost.Ledger,
	log *zap.Logger,
) (candidates []Candidate, errs []CountryError, ok bool) {
	keywords := normalize.ExpandKeywords(campaign.Keywords,
		[]language.Tag{normalize.MarketLanguage(iso), language.English})

	pages := campaign.PagesPerSource
	if pages <= 0 {
		pages = 1
	}

	var (
		mu        sync.Mutex
		successes int
	)

	// Each adapter writes into its own slot so goroutine completion
	// order never leaks into record order; results are concatenated in
	// configured adapter order after the wait.
	perSource := make([][]source.RawRecord, len(r.slots))

	// Adapters share the parent context directly: one source failing
	// must never cancel the others.
	var g errgroup.Group

	for i := range r.slots {
		slot := r.slots[i]
		name := slot.adapter.Name()

		if r.sourceDead(name) {
			// Earlier goroutines may already be appending errs.
			mu.Lock()
			errs = append(errs, CountryError{
				Country: iso, Source: name,
				Message: "skipped: source authentication failed earlier in run",
			})
			mu.Unlock()
			continue
		}

		qKeywords := keywords
		if name == source.Registry {
			qKeywords = campaign.SeedsFor(iso)
			if len(qKeywords) == 0 {
				continue
			}
		}

		g.Go(func() error {
			recs, err := r.searchSource(ctx, slot, source.Query{
				Source:         name,
				Country:        iso,
				Keywords:       qKeywords,
				IncludeContext: campaign.IncludeContext,
				ExcludeContext: campaign.ExcludeContext,
			}, pages, ledger)

			// Partial pages gathered before a failure still count.
			perSource[i] = recs

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if source.KindOf(err) == source.KindAuthFailure {
					r.markSourceDead(name)
				}
				errs = append(errs, CountryError{
					Country: iso, Source: name, Message: err.Error(),
				})
				return nil
			}
			successes++
			return nil
		})
	}
	_ = g.Wait()

	var records []source.RawRecord
	for _, recs := range perSource {
		records = append(records, recs...)
	}

	if successes == 0 {
		log.Warn("country failed: no source responded", zap.String("country", iso))
		return nil, errs, false
	}

	scored := scorer.RankOwn(*cfg.Scorer, records, iso)
	candidates = Merge(scored, iso)
	for i := range candidates {
		candidates[i].Tier = Classify(&candidates[i], cfg.Tier,
			campaign.IncludeContext, campaign.ExcludeContext)
	}

	log.Info("country pipeline complete",
		zap.String("country", iso),
		zap.Int("raw_records", len(records)),
		zap.Int("candidates", len(candidates)),
	)
	return candidates, errs, true
}

// searchSource pages through one adapter with rate limiting, per-call
// timeout, and bounded retry. Every completed provider call lands in the
// ledger exactly once, failures included.
func (r *Runner) searchSource(
	ctx context.Context,
	slot adapterSlot,
	q source.Query,
	pages int,
	ledger *cost.Ledger,
) ([]source.RawRecord, error) {
	ad := slot.adapter
	var all []source.RawRecord

	for page := 0; page < pages; page++ {
		// Cancellation is honored between adapter calls, never mid-call.
		if err := ctx.Err(); err != nil {
			return all, source.NewError(source.KindTransient, ad.Name(), err)
		}

		pq := q
		pq.Page = page

		recs, err := resilience.DoVal(ctx, r.retryConfig(ad.Name()), func(ctx context.Context) ([]source.RawRecord, error) {
			if err := slot.limiter.Wait(ctx); err != nil {
				return nil, source.NewError(source.KindTransient, ad.Name(), err)
			}
			slot.sem <- struct{}{}
			defer func() { <-slot.sem }()

			callCtx, cancel := context.WithTimeout(ctx, r.cfg.AdapterTimeout)
			defer cancel()

			before := ad.Calls()
			recs, err := ad.Search(callCtx, pq)
			if made := ad.Calls() - before; made > 0 {
				ledger.Record(ad.Name(), made, made*ad.CostPerCall())
			}
			return recs, err
		})
		if err != nil {
			return all, err
		}

		all = append(all, recs...)
		if len(recs) == 0 {
			break // empty page means the source is exhausted
		}
	}
	return all, nil
}

func (r *Runner) retryConfig(src string) resilience.RetryConfig {
	cfg := r.cfg.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = resilience.RetryLogger(src, "search")
	}
	return cfg
}

func (r *Runner) skipCanceledCountry(run *Run, iso string) {
	r.updateRun(run, func(run *Run) {
		run.CountryStatus[iso] = CountryFailed
		run.PerCountryErrors = append(run.PerCountryErrors, CountryError{
			Country: iso, Message: "run canceled before country started",
		})
	})
}

func (r *Runner) sourceDead(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.authFailed[name]
}

func (r *Runner) markSourceDead(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.authFailed[name] = true
}

// updateRun mutates the run under the runner lock so Snapshot readers
// always observe a consistent state.
func (r *Runner) updateRun(run *Run, fn func(*Run)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(run)
}

// sleepCtx sleeps for d, returning false if the context was canceled
// first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
