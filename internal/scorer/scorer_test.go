package scorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportiq/dealerscout/internal/source"
)

func TestScore_CorporateSiteBeatsSocialProfile(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	target := "Acme Equipamentos Ltda"

	social := source.RawRecord{
		URL:   "https://facebook.com/acme-equipamentos",
		Title: "Acme Equipamentos | Facebook",
		Rank:  0,
	}
	corporate := source.RawRecord{
		URL:   "https://www.acme.com.br",
		Title: "Acme Equipamentos - Home",
		Rank:  2,
	}

	socialScore := Score(cfg, social, target, "BR")
	corporateScore := Score(cfg, corporate, target, "BR")

	// rank 0 social: 100 * 0.2 = 20, +10 title bonus = 30
	assert.Equal(t, 30, socialScore)
	// rank 2 corporate: 90, capped at 100 after local TLD bonus
	assert.Equal(t, 100, corporateScore)
	assert.Greater(t, corporateScore, socialScore)
}

func TestScore_DirectoryPenalty(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	rec := source.RawRecord{
		URL:   "https://www.kompass.com/c/acme-equipamentos/br123",
		Title: "Acme Equipamentos - Kompass",
		Rank:  1,
	}

	// 95 * 0.3 = 28.5, +10 title bonus = 38.5 -> 39 (round to nearest)
	assert.Equal(t, 39, Score(cfg, rec, "Acme Equipamentos", "BR"))
}

func TestScore_BonusesCappedAt100(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	rec := source.RawRecord{
		URL:   "https://acme.com.br",
		Title: "Acme Equipamentos",
		Rank:  0,
	}

	assert.Equal(t, 100, Score(cfg, rec, "Acme Equipamentos", "BR"))
}

func TestScore_DeepRankFloorsAtZero(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	rec := source.RawRecord{
		URL:  "https://unrelated-blog.net",
		Rank: 30,
	}

	assert.Equal(t, 0, Score(cfg, rec, "Acme", "BR"))
}

func TestScore_NoDomainRecord(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	rec := source.RawRecord{
		Name:  "Acme Equipamentos",
		Title: "Acme Equipamentos - registry entry",
		Rank:  0,
	}

	// No URL means no penalties, no domain bonuses; title bonus only.
	assert.Equal(t, 100, Score(cfg, rec, "Acme Equipamentos", "BR"))
}

func TestScore_Deterministic(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	rec := source.RawRecord{
		URL:   "https://acme.de",
		Title: "Acme GmbH",
		Rank:  3,
	}

	first := Score(cfg, rec, "Acme GmbH", "DE")
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Score(cfg, rec, "Acme GmbH", "DE"))
	}
}

func TestRank_SortsDescendingStable(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	recs := []source.RawRecord{
		{URL: "https://facebook.com/acme", Rank: 0, ExternalID: "a"},
		{URL: "https://acme.com.br", Rank: 1, ExternalID: "b"},
		{URL: "https://pinterest.com/acme", Rank: 0, ExternalID: "c"},
	}

	out := Rank(cfg, recs, "Acme", "BR")
	require.Len(t, out, 3)
	assert.Equal(t, "b", out[0].Record.ExternalID)
	// Ties between the two social profiles keep input order.
	assert.Equal(t, "a", out[1].Record.ExternalID)
	assert.Equal(t, "c", out[2].Record.ExternalID)
	assert.GreaterOrEqual(t, out[0].Score, out[1].Score)
	assert.GreaterOrEqual(t, out[1].Score, out[2].Score)
}

func TestRankOwn_ScoresAgainstRecordName(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	recs := []source.RawRecord{
		{Name: "Fisio Equipamentos", URL: "https://fisio.com.br", Title: "Fisio Equipamentos", Rank: 0},
		{Name: "Outra Empresa", URL: "https://blog.example.net", Title: "10 pilates tips", Rank: 5},
	}

	out := RankOwn(cfg, recs, "BR")
	require.Len(t, out, 2)
	assert.Equal(t, "Fisio Equipamentos", out[0].Record.Name)
	assert.Greater(t, out[0].Score, out[1].Score)
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Validate(DefaultConfig()))

	bad := DefaultConfig()
	bad.SocialMultiplier = 1.5
	assert.Error(t, Validate(bad))

	bad = DefaultConfig()
	bad.RankPenalty = -1
	assert.Error(t, Validate(bad))
}
