package discovery

import (
	"strings"

	"github.com/rotisserie/eris"
)

// TierConfig holds the tier thresholds. These are campaign tuning, not
// fixed constants.
type TierConfig struct {
	// AMin is the minimum confidence for Tier A (with an enrichment
	// signal present).
	AMin int `yaml:"a_min" mapstructure:"a_min"`
	// BMin is the minimum confidence for Tier B.
	BMin int `yaml:"b_min" mapstructure:"b_min"`
	// CMin is the minimum confidence for Tier C; below it a candidate is
	// unqualified.
	CMin int `yaml:"c_min" mapstructure:"c_min"`
}

// DefaultTierConfig returns the default thresholds.
func DefaultTierConfig() TierConfig {
	return TierConfig{AMin: 70, BMin: 40, CMin: 15}
}

// Validate rejects non-monotonic or out-of-range thresholds.
func (c TierConfig) Validate() error {
	if c.CMin < 0 || c.AMin > 100 {
		return eris.New("tier: thresholds must be within [0,100]")
	}
	if !(c.CMin <= c.BMin && c.BMin <= c.AMin) {
		return eris.New("tier: thresholds must satisfy c_min <= b_min <= a_min")
	}
	return nil
}

// Classify assigns a candidate its priority tier:
//
//	A: confidence >= AMin and an enrichment signal present
//	B: confidence in [BMin, AMin), or >= AMin without a signal
//	C: confidence in [CMin, BMin)
//	Unqualified: below CMin, or a hard exclusion match
func Classify(c *Candidate, cfg TierConfig, include, exclude []string) Tier {
	if excludedByContext(c, include, exclude) {
		return TierUnqualified
	}

	switch {
	case c.Confidence >= cfg.AMin && c.HasEnrichmentSignal():
		return TierA
	case c.Confidence >= cfg.BMin:
		return TierB
	case c.Confidence >= cfg.CMin:
		return TierC
	default:
		return TierUnqualified
	}
}

// excludedByContext applies the hard exclusion rule: the candidate fails
// when an exclude term matches its text with higher specificity (longer
// match) than any include match.
func excludedByContext(c *Candidate, include, exclude []string) bool {
	if len(exclude) == 0 {
		return false
	}

	text := candidateText(c)
	excl := longestMatch(text, exclude)
	if excl == 0 {
		return false
	}
	return excl > longestMatch(text, include)
}

// candidateText concatenates the candidate's searchable surfaces.
func candidateText(c *Candidate) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(c.Name))
	b.WriteByte(' ')
	b.WriteString(strings.ToLower(c.CanonicalDomain))
	for _, r := range c.SourceRecords {
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(r.Title))
		b.WriteByte(' ')
		b.WriteString(strings.ToLower(r.Snippet))
	}
	return b.String()
}

// longestMatch returns the length of the longest term found in text,
// or 0 when none match.
func longestMatch(text string, terms []string) int {
	best := 0
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.Contains(text, t) && len(t) > best {
			best = len(t)
		}
	}
	return best
}
