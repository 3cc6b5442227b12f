package scorer

import (
	"math"
	"sort"
	"strings"

	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/internal/source"
)

// Scored pairs a raw record with its confidence score.
type Scored struct {
	Record source.RawRecord
	Score  int
}

// Score computes the 0-100 confidence that a raw record is the target
// entity's own presence. Pure and deterministic for identical inputs:
//
//	base = 100 - rankPenalty*rank, then social/directory multipliers,
//	then local-TLD, name-in-domain, and name-in-title bonuses, each
//	individually capped at 100, rounded to nearest integer.
func Score(cfg Config, rec source.RawRecord, targetName, countryISO string) int {
	s := 100 - cfg.RankPenalty*float64(rec.Rank)
	if s < 0 {
		s = 0
	}

	domain := normalize.CanonicalDomain(rec.URL)

	if matchesDomainList(domain, cfg.SocialDomains) {
		s *= cfg.SocialMultiplier
	}
	if matchesDomainList(domain, cfg.DirectoryDomains) {
		s *= cfg.DirectoryMultiplier
	}

	if domain != "" && hasLocalSuffix(domain, countryISO) {
		s = math.Min(100, s+cfg.LocalTLDBonus)
	}

	token := normalize.SignificantToken(targetName)
	if token != "" {
		if domain != "" && strings.Contains(domain, token) {
			s = math.Min(100, s+cfg.NameInDomainBonus)
		}
		if strings.Contains(strings.ToLower(rec.Title), token) {
			s = math.Min(100, s+cfg.NameInTitleBonus)
		}
	}

	if s < 0 {
		s = 0
	}
	return int(math.Round(s))
}

// Rank scores and orders records descending by confidence. The sort is
// stable: ties keep the original source rank order.
func Rank(cfg Config, recs []source.RawRecord, targetName, countryISO string) []Scored {
	out := make([]Scored, len(recs))
	for i, r := range recs {
		out[i] = Scored{Record: r, Score: Score(cfg, r, targetName, countryISO)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// RankOwn scores each record against its own entity name. Used by the
// discovery pipeline, where the record's reported name is the entity
// whose authenticity the domain and title are checked against.
func RankOwn(cfg Config, recs []source.RawRecord, countryISO string) []Scored {
	out := make([]Scored, len(recs))
	for i, r := range recs {
		out[i] = Scored{Record: r, Score: Score(cfg, r, r.Name, countryISO)}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Score > out[j].Score
	})
	return out
}

// matchesDomainList reports whether domain is one of, or a subdomain of,
// any entry in list.
func matchesDomainList(domain string, list []string) bool {
	if domain == "" {
		return false
	}
	for _, d := range list {
		if domain == d || strings.HasSuffix(domain, "."+d) {
			return true
		}
	}
	return false
}

// hasLocalSuffix reports whether the domain ends with one of the target
// country's common business suffixes.
func hasLocalSuffix(domain, countryISO string) bool {
	for _, suffix := range normalize.BusinessSuffixes(countryISO) {
		if strings.HasSuffix(domain, suffix) {
			return true
		}
	}
	return false
}
