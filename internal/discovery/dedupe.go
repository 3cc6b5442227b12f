package discovery

import (
	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/internal/scorer"
)

// recordKey identifies a source record within a candidate for dedup.
type recordKey struct {
	source     string
	externalID string
}

// Merge collapses scored records referring to the same real-world entity
// into candidates. Grouping is by canonical domain when present, else by
// normalized name + country. Precedence on collision: the record with
// higher confidence wins name/domain fields; source records concatenate
// deduplicated by (source, externalID); country comes from the first
// record with a resolvable country text, falling back to fallbackISO.
// Records are consumed in discovery order, so cost attribution and
// output ordering are deterministic for identical inputs.
func Merge(scored []scorer.Scored, fallbackISO string) []Candidate {
	type builder struct {
		cand Candidate
		seen map[recordKey]bool
		best int // confidence of the record currently owning name/domain
	}

	byKey := make(map[string]*builder)
	var order []string

	for _, s := range scored {
		rec := s.Record
		domain := normalize.CanonicalDomain(rec.URL)
		country, resolved := normalize.NormalizeCountry(rec.CountryText)

		var key string
		if domain != "" {
			key = "d:" + domain
		} else {
			iso := fallbackISO
			if resolved {
				iso = country.ISO
			}
			key = "n:" + normalize.NormalizeName(rec.Name) + "|" + iso
		}

		b, ok := byKey[key]
		if !ok {
			b = &builder{
				cand: Candidate{
					Name:            rec.Name,
					CanonicalDomain: domain,
					RawCountryText:  rec.CountryText,
					Confidence:      s.Score,
					CostUnits:       make(map[string]int),
				},
				seen: make(map[recordKey]bool),
				best: s.Score,
			}
			if resolved {
				b.cand.Country = country.ISO
			}
			byKey[key] = b
			order = append(order, key)
		} else {
			if s.Score > b.best {
				b.best = s.Score
				if rec.Name != "" {
					b.cand.Name = rec.Name
				}
				if domain != "" {
					b.cand.CanonicalDomain = domain
				}
			}
			if s.Score > b.cand.Confidence {
				b.cand.Confidence = s.Score
			}
			// Country comes from the first resolvable record only.
			if b.cand.Country == "" && resolved {
				b.cand.Country = country.ISO
				b.cand.RawCountryText = rec.CountryText
			}
		}

		rk := recordKey{source: rec.Source, externalID: rec.ExternalID}
		if !b.seen[rk] {
			b.seen[rk] = true
			b.cand.SourceRecords = append(b.cand.SourceRecords, rec)
			b.cand.CostUnits[rec.Source]++
		}
	}

	out := make([]Candidate, 0, len(order))
	for _, key := range order {
		b := byKey[key]
		if b.cand.Country == "" {
			b.cand.Country = fallbackISO
		}
		b.cand.ID = CandidateID(
			b.cand.CanonicalDomain,
			normalize.NormalizeName(b.cand.Name),
			b.cand.Country,
		)
		out = append(out, b.cand)
	}
	return out
}
