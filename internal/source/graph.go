package source

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/pkg/apollo"
)

// GraphAdapter wraps the B2B graph search provider.
type GraphAdapter struct {
	client  apollo.Client
	perPage int
	calls   atomic.Int64
}

// NewGraphAdapter creates a graph-search adapter returning up to perPage
// organizations per query.
func NewGraphAdapter(client apollo.Client, perPage int) *GraphAdapter {
	if perPage <= 0 {
		perPage = 25
	}
	return &GraphAdapter{client: client, perPage: perPage}
}

func (a *GraphAdapter) Name() string     { return GraphSearch }
func (a *GraphAdapter) CostPerCall() int { return 1 }
func (a *GraphAdapter) Calls() int       { return int(a.calls.Load()) }

func (a *GraphAdapter) RateLimit() RateLimit {
	return RateLimit{MaxConcurrent: 2, MinInterval: 500 * time.Millisecond}
}

// Search issues one organization search scoped to the target country.
func (a *GraphAdapter) Search(ctx context.Context, q Query) ([]RawRecord, error) {
	if len(q.Keywords) == 0 {
		return nil, NewError(KindInvalidQuery, GraphSearch, errors.New("keywords must be non-empty"))
	}

	req := apollo.OrgSearchRequest{
		Keywords: q.Keywords,
		Page:     q.Page + 1, // provider pages are 1-based
		PerPage:  a.perPage,
	}
	if name := normalize.CanonicalName(q.Country); name != "" {
		req.Locations = []string{name}
	}

	a.calls.Add(1)
	resp, err := a.client.SearchOrganizations(ctx, req)
	if err != nil {
		return nil, classifyGraphErr(err)
	}

	records := make([]RawRecord, 0, len(resp.Organizations))
	for i, org := range resp.Organizations {
		url := org.WebsiteURL
		if url == "" {
			url = org.PrimaryDomain
		}
		records = append(records, RawRecord{
			Source:        GraphSearch,
			ExternalID:    org.ID,
			Name:          org.Name,
			URL:           url,
			Title:         org.Name,
			Rank:          i,
			CountryText:   org.Country,
			EmployeeCount: org.EmployeeCount,
			ContactFound:  org.ContactCount > 0,
		})
	}
	return records, nil
}

func classifyGraphErr(err error) error {
	var se *apollo.StatusError
	if errors.As(err, &se) {
		return NewError(KindForStatus(se.Code), GraphSearch, err)
	}
	return NewError(KindTransient, GraphSearch, err)
}
