// Package discovery implements the multi-source dealer discovery and
// qualification pipeline: concurrent fan-out to source adapters,
// normalization, confidence scoring, cross-source dedup, tiering, and
// cost accounting.
package discovery

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/exportiq/dealerscout/internal/cost"
	"github.com/exportiq/dealerscout/internal/source"
)

// Tier is the priority bucket assigned to a candidate.
type Tier string

const (
	TierA           Tier = "A"
	TierB           Tier = "B"
	TierC           Tier = "C"
	TierUnqualified Tier = "unqualified"
)

// Candidate is a deduplicated, scored prospective dealer/company.
type Candidate struct {
	// ID is a stable synthetic key derived from the canonical domain, or
	// from name+country when no domain is known. Generated once, never
	// reused across merges.
	ID              string             `json:"id"`
	Name            string             `json:"name"`
	CanonicalDomain string             `json:"canonical_domain,omitempty"`
	Country         string             `json:"country,omitempty"` // ISO 3166-1 alpha-2
	RawCountryText  string             `json:"raw_country_text,omitempty"`
	SourceRecords   []source.RawRecord `json:"source_records"` // insertion order = discovery order
	Confidence      int                `json:"confidence"`     // 0-100
	Tier            Tier               `json:"tier,omitempty"`
	CostUnits       map[string]int     `json:"cost_units,omitempty"`
}

// HasEnrichmentSignal reports whether any contributing record carries a
// decision-maker contact or a registry confirmation.
func (c *Candidate) HasEnrichmentSignal() bool {
	for _, r := range c.SourceRecords {
		if r.ContactFound || r.RegistryMatch {
			return true
		}
	}
	return false
}

// CandidateID derives the stable synthetic key for a candidate.
func CandidateID(canonicalDomain, normalizedName, countryISO string) string {
	var seed string
	if canonicalDomain != "" {
		seed = "d:" + canonicalDomain
	} else {
		seed = "n:" + normalizedName + "|" + countryISO
	}
	sum := sha256.Sum256([]byte(seed))
	return hex.EncodeToString(sum[:12])
}

// CountryStatus tracks one country's progress within a run.
type CountryStatus string

const (
	CountryPending  CountryStatus = "pending"
	CountryInFlight CountryStatus = "in_flight"
	CountryDone     CountryStatus = "done"
	CountryFailed   CountryStatus = "failed"
)

// RunStatus is the terminal state machine of a discovery run.
type RunStatus string

const (
	RunRunning         RunStatus = "running"
	RunCompleted       RunStatus = "completed"
	RunPartiallyFailed RunStatus = "partially_failed"
)

// CountryError records a source failure scoped to one country. Failures
// accumulate here and never abort the run.
type CountryError struct {
	Country string `json:"country"`
	Source  string `json:"source,omitempty"`
	Message string `json:"message"`
}

// Run is the top-level aggregate of one discovery run. It is owned and
// mutated exclusively by the Runner and handed off read-only at
// completion; a run is never reused.
type Run struct {
	ID               string                   `json:"id"`
	Campaign         string                   `json:"campaign"`
	Countries        []string                 `json:"countries"` // configured iteration order
	Status           RunStatus                `json:"status"`
	CountryStatus    map[string]CountryStatus `json:"country_status"`
	Candidates       []Candidate              `json:"candidates"`
	PerCountryErrors []CountryError           `json:"per_country_errors,omitempty"`
	Cost             cost.Snapshot            `json:"cost"`
	StartedAt        time.Time                `json:"started_at"`
	FinishedAt       time.Time                `json:"finished_at,omitempty"`
}

// TierCounts summarizes candidates per tier.
func (r *Run) TierCounts() map[Tier]int {
	counts := make(map[Tier]int, 4)
	for i := range r.Candidates {
		counts[r.Candidates[i].Tier]++
	}
	return counts
}

// CountryCandidates returns the candidates attributed to one country, in
// run order.
func (r *Run) CountryCandidates(iso string) []Candidate {
	var out []Candidate
	for i := range r.Candidates {
		if r.Candidates[i].Country == iso {
			out = append(out, r.Candidates[i])
		}
	}
	return out
}

// Clone returns a deep-enough copy safe to hand to readers while the
// run is still mutating.
func (r *Run) Clone() *Run {
	cp := *r
	cp.Countries = append([]string(nil), r.Countries...)
	cp.Candidates = append([]Candidate(nil), r.Candidates...)
	cp.PerCountryErrors = append([]CountryError(nil), r.PerCountryErrors...)
	cp.CountryStatus = make(map[string]CountryStatus, len(r.CountryStatus))
	for k, v := range r.CountryStatus {
		cp.CountryStatus[k] = v
	}
	return &cp
}
