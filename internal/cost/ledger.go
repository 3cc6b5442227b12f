package cost

import (
	"sort"
	"sync"

	"go.uber.org/zap"
)

// LineItem is the accumulated spend for one source.
type LineItem struct {
	CallsMade  int     `json:"calls_made"`
	UnitsSpent int     `json:"units_spent"`
	CostUSD    float64 `json:"cost_usd"`
}

// Snapshot is a read-only view of a ledger.
type Snapshot struct {
	Sources  map[string]LineItem `json:"sources"`
	TotalUSD float64             `json:"total_usd"`
}

// Ledger is the run-scoped accumulator of paid external calls. It is the
// only mutable state shared across concurrent adapter tasks; every update
// is a single atomic accumulation per completed call. Costs incurred
// before a failure are retained, never refunded.
type Ledger struct {
	mu        sync.Mutex
	rates     Rates
	entries   map[string]*LineItem
	finalized bool
}

// NewLedger creates an empty ledger priced with the given rates.
func NewLedger(rates Rates) *Ledger {
	return &Ledger{
		rates:   rates,
		entries: make(map[string]*LineItem),
	}
}

// Record accumulates completed calls against a source in one atomic
// update. Calls after Finalize are dropped: a finalized ledger is
// read-only.
func (l *Ledger) Record(src string, calls, units int) {
	if calls <= 0 && units <= 0 {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.finalized {
		zap.L().Warn("cost: record on finalized ledger dropped",
			zap.String("source", src),
		)
		return
	}

	e := l.entries[src]
	if e == nil {
		e = &LineItem{}
		l.entries[src] = e
	}
	e.CallsMade += calls
	e.UnitsSpent += units
	e.CostUSD += float64(units) * l.rates.UnitPrice(src)
}

// Snapshot returns a copy of the current ledger state.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.snapshotLocked()
}

// Finalize marks the ledger read-only and returns the final snapshot.
func (l *Ledger) Finalize() Snapshot {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finalized = true
	return l.snapshotLocked()
}

func (l *Ledger) snapshotLocked() Snapshot {
	snap := Snapshot{Sources: make(map[string]LineItem, len(l.entries))}
	for src, e := range l.entries {
		snap.Sources[src] = *e
		snap.TotalUSD += e.CostUSD
	}
	return snap
}

// SourceNames returns the sources with recorded spend, sorted.
func (s Snapshot) SourceNames() []string {
	names := make([]string, 0, len(s.Sources))
	for n := range s.Sources {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
