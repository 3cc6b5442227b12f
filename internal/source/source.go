// Package source defines the uniform contract for external data sources
// (B2B graph search, web search, legal-registry lookup) and the adapters
// that wrap each provider client.
package source

import (
	"context"
	"time"
)

// Source names used across the pipeline and the cost ledger.
const (
	GraphSearch = "graph-search"
	WebSearch   = "web-search"
	Registry    = "registry"
)

// Query is one immutable request unit sent to an adapter.
type Query struct {
	Source         string   `json:"source"`
	Country        string   `json:"country"` // ISO 3166-1 alpha-2
	Keywords       []string `json:"keywords"`
	IncludeContext []string `json:"include_context,omitempty"`
	ExcludeContext []string `json:"exclude_context,omitempty"`
	Page           int      `json:"page"`
}

// RawRecord is the normalized shape every adapter maps its provider
// payload into. Untyped provider JSON never crosses this boundary.
type RawRecord struct {
	Source     string `json:"source"`
	ExternalID string `json:"external_id"`
	Name       string `json:"name"`
	URL        string `json:"url,omitempty"`
	Title      string `json:"title,omitempty"`
	Snippet    string `json:"snippet,omitempty"`
	// Rank is the 0-based position within the source's result ordering.
	Rank          int    `json:"rank"`
	CountryText   string `json:"country_text,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty"`
	// ContactFound marks a decision-maker contact surfaced by the source.
	ContactFound bool `json:"contact_found,omitempty"`
	// RegistryMatch marks a legal-registry confirmation of the entity.
	RegistryMatch bool `json:"registry_match,omitempty"`
}

// RateLimit describes an adapter's provider quota.
type RateLimit struct {
	MaxConcurrent int
	MinInterval   time.Duration
}

// Adapter is the uniform interface to one external data source.
// Search returns zero records with a nil error when the provider has no
// results; absence of data is never an error.
type Adapter interface {
	Name() string
	CostPerCall() int
	RateLimit() RateLimit
	// Calls returns the number of paid provider calls made so far.
	Calls() int
	Search(ctx context.Context, q Query) ([]RawRecord, error)
}
