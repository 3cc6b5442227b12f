package discovery

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/exportiq/dealerscout/internal/source"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	cfg := DefaultTierConfig()
	withSignal := []source.RawRecord{{Source: source.GraphSearch, ContactFound: true}}

	tests := []struct {
		name string
		c    Candidate
		want Tier
	}{
		{"high confidence with signal", Candidate{Confidence: 85, SourceRecords: withSignal}, TierA},
		{"high confidence without signal", Candidate{Confidence: 85}, TierB},
		{"boundary a_min with signal", Candidate{Confidence: 70, SourceRecords: withSignal}, TierA},
		{"mid confidence", Candidate{Confidence: 55}, TierB},
		{"boundary b_min", Candidate{Confidence: 40}, TierB},
		{"low confidence", Candidate{Confidence: 25}, TierC},
		{"boundary c_min", Candidate{Confidence: 15}, TierC},
		{"below c_min", Candidate{Confidence: 14}, TierUnqualified},
		{"zero", Candidate{}, TierUnqualified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Classify(&tt.c, cfg, nil, nil))
		})
	}
}

func TestClassify_RegistryMatchIsEnrichmentSignal(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Confidence:    80,
		SourceRecords: []source.RawRecord{{Source: source.Registry, RegistryMatch: true}},
	}
	assert.Equal(t, TierA, Classify(&c, DefaultTierConfig(), nil, nil))
}

func TestClassify_ExcludeTermWins(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Confidence: 90,
		Name:       "Home Pilates Shop",
		SourceRecords: []source.RawRecord{{
			Source: source.WebSearch, Title: "Pilates equipment for home use",
			Snippet: "best home workout gear", ContactFound: true,
		}},
	}
	// "home use" (8 chars) outweighs the include match "pilates" (7).
	got := Classify(&c, DefaultTierConfig(), []string{"pilates"}, []string{"home use"})
	assert.Equal(t, TierUnqualified, got)
}

func TestClassify_LongerIncludeMatchSurvivesExclusion(t *testing.T) {
	t.Parallel()

	c := Candidate{
		Confidence: 90,
		Name:       "Acme Studio Equipment",
		SourceRecords: []source.RawRecord{{
			Source: source.GraphSearch, Title: "Acme commercial studio equipment for home and gym",
			ContactFound: true,
		}},
	}
	// Include "studio equipment" (16) is more specific than exclude
	// "home" (4), so the candidate survives.
	got := Classify(&c, DefaultTierConfig(), []string{"studio equipment"}, []string{"home"})
	assert.Equal(t, TierA, got)
}

func TestClassify_NoExcludeTermsNeverExcludes(t *testing.T) {
	t.Parallel()

	c := Candidate{Confidence: 50, Name: "whatever"}
	assert.Equal(t, TierB, Classify(&c, DefaultTierConfig(), nil, nil))
}

func TestTierConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, DefaultTierConfig().Validate())
	assert.Error(t, TierConfig{AMin: 40, BMin: 70, CMin: 15}.Validate())
	assert.Error(t, TierConfig{AMin: 110, BMin: 40, CMin: 15}.Validate())
	assert.Error(t, TierConfig{AMin: 70, BMin: 40, CMin: -5}.Validate())
}
