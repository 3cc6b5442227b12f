package source

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/pkg/serper"
)

// WebAdapter wraps the web-search provider.
type WebAdapter struct {
	client      serper.Client
	resultCount int
	calls       atomic.Int64
}

// NewWebAdapter creates a web-search adapter returning up to resultCount
// hits per query.
func NewWebAdapter(client serper.Client, resultCount int) *WebAdapter {
	if resultCount <= 0 {
		resultCount = 20
	}
	return &WebAdapter{client: client, resultCount: resultCount}
}

func (a *WebAdapter) Name() string      { return WebSearch }
func (a *WebAdapter) CostPerCall() int  { return 1 }
func (a *WebAdapter) Calls() int        { return int(a.calls.Load()) }

func (a *WebAdapter) RateLimit() RateLimit {
	return RateLimit{MaxConcurrent: 4, MinInterval: 200 * time.Millisecond}
}

// Search issues one web search for the query's keywords scoped to the
// target country.
func (a *WebAdapter) Search(ctx context.Context, q Query) ([]RawRecord, error) {
	if len(q.Keywords) == 0 {
		return nil, NewError(KindInvalidQuery, WebSearch, errors.New("keywords must be non-empty"))
	}

	terms := strings.Join(q.Keywords, " ")
	if name := normalize.CanonicalName(q.Country); name != "" {
		terms += " " + name
	}

	lang, _ := normalize.MarketLanguage(q.Country).Base()
	req := serper.SearchRequest{
		Q:    terms,
		GL:   strings.ToLower(q.Country),
		HL:   lang.String(),
		Num:  a.resultCount,
		Page: q.Page,
	}

	a.calls.Add(1)
	resp, err := a.client.Search(ctx, req)
	if err != nil {
		return nil, classifyWebErr(err)
	}

	records := make([]RawRecord, 0, len(resp.Organic))
	for i, hit := range resp.Organic {
		rank := hit.Position - 1
		if rank < 0 {
			rank = i
		}
		records = append(records, RawRecord{
			Source:     WebSearch,
			ExternalID: shortHash(hit.Link),
			Name:       hit.Title,
			URL:        hit.Link,
			Title:      hit.Title,
			Snippet:    hit.Snippet,
			Rank:       rank,
			CountryText: normalize.CanonicalName(q.Country),
		})
	}
	return records, nil
}

func classifyWebErr(err error) error {
	var se *serper.StatusError
	if errors.As(err, &se) {
		return NewError(KindForStatus(se.Code), WebSearch, err)
	}
	return NewError(KindTransient, WebSearch, err)
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:8])
}
