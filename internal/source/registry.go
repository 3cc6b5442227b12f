package source

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/exportiq/dealerscout/pkg/cnpj"
)

// RegistryAdapter wraps the legal-registry lookup provider. Keywords that
// parse as registration numbers are looked up; other keywords are
// ignored, so a query with no numeric seeds yields an empty result.
type RegistryAdapter struct {
	client cnpj.Client
	calls  atomic.Int64
}

// NewRegistryAdapter creates a registry adapter.
func NewRegistryAdapter(client cnpj.Client) *RegistryAdapter {
	return &RegistryAdapter{client: client}
}

func (a *RegistryAdapter) Name() string     { return Registry }
func (a *RegistryAdapter) CostPerCall() int { return 1 }
func (a *RegistryAdapter) Calls() int       { return int(a.calls.Load()) }

func (a *RegistryAdapter) RateLimit() RateLimit {
	// Public registry endpoints throttle aggressively.
	return RateLimit{MaxConcurrent: 1, MinInterval: 2 * time.Second}
}

// Search looks up every registration-number keyword in the query.
func (a *RegistryAdapter) Search(ctx context.Context, q Query) ([]RawRecord, error) {
	if len(q.Keywords) == 0 {
		return nil, NewError(KindInvalidQuery, Registry, errors.New("keywords must be non-empty"))
	}

	var records []RawRecord
	for _, kw := range q.Keywords {
		number := cnpj.NormalizeNumber(kw)
		if number == "" {
			continue
		}
		if err := ctx.Err(); err != nil {
			return records, NewError(KindTransient, Registry, err)
		}

		a.calls.Add(1)
		rec, err := a.client.Lookup(ctx, number)
		if err != nil {
			var se *cnpj.StatusError
			if errors.As(err, &se) {
				// An unknown number is an empty result, not a failure.
				if se.Code == http.StatusNotFound {
					continue
				}
				return records, NewError(KindForStatus(se.Code), Registry, err)
			}
			return records, NewError(KindTransient, Registry, err)
		}

		name := rec.TradeName
		if name == "" {
			name = rec.LegalName
		}
		records = append(records, RawRecord{
			Source:        Registry,
			ExternalID:    rec.RegistrationNumber,
			Name:          name,
			Title:         rec.LegalName,
			Snippet:       rec.Address,
			Rank:          len(records),
			CountryText:   "Brazil",
			RegistryMatch: rec.Active(),
		})
	}
	return records, nil
}
