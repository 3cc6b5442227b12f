package discovery

import (
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/exportiq/dealerscout/internal/normalize"
	"github.com/exportiq/dealerscout/internal/scorer"
)

// Campaign defines one discovery campaign: target markets, the search
// vocabulary, usage-context filters, and optional tuning overrides.
type Campaign struct {
	Name      string   `yaml:"name"`
	Countries []string `yaml:"countries"` // ISO codes or country names
	Keywords  []string `yaml:"keywords"`
	// IncludeContext and ExcludeContext separate B2B intent from
	// consumer/hobbyist hits.
	IncludeContext []string `yaml:"include_context"`
	ExcludeContext []string `yaml:"exclude_context"`
	// RegistrySeeds maps an ISO code to known registration numbers to
	// confirm via the legal registry.
	RegistrySeeds map[string][]string `yaml:"registry_seeds"`
	// PagesPerSource is how many result pages each source is asked for
	// per country. Default 1.
	PagesPerSource int `yaml:"pages_per_source"`

	// Optional per-campaign tuning. Nil means use configured defaults.
	Tier   *TierConfig    `yaml:"tier,omitempty"`
	Scorer *scorer.Config `yaml:"scorer,omitempty"`
}

// LoadCampaign reads and validates a campaign YAML file.
func LoadCampaign(path string) (*Campaign, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "campaign: read file")
	}

	var c Campaign
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, eris.Wrap(err, "campaign: parse yaml")
	}

	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks the campaign is runnable.
func (c *Campaign) Validate() error {
	if len(c.Countries) == 0 {
		return eris.New("campaign: at least one target country is required")
	}
	if len(c.Keywords) == 0 {
		return eris.New("campaign: at least one keyword is required")
	}
	for _, raw := range c.Countries {
		if _, ok := normalize.NormalizeCountry(raw); !ok {
			return eris.Errorf("campaign: unsupported country %q", raw)
		}
	}
	if c.Tier != nil {
		if err := c.Tier.Validate(); err != nil {
			return err
		}
	}
	if c.Scorer != nil {
		if err := scorer.Validate(*c.Scorer); err != nil {
			return err
		}
	}
	return nil
}

// ResolvedCountries returns the campaign's targets as ISO codes in
// configured order, dropping duplicates.
func (c *Campaign) ResolvedCountries() []string {
	seen := make(map[string]bool, len(c.Countries))
	out := make([]string, 0, len(c.Countries))
	for _, raw := range c.Countries {
		country, ok := normalize.NormalizeCountry(raw)
		if !ok || seen[country.ISO] {
			continue
		}
		seen[country.ISO] = true
		out = append(out, country.ISO)
	}
	return out
}

// SeedsFor returns registry seeds for a country, tolerating map keys in
// any case.
func (c *Campaign) SeedsFor(iso string) []string {
	if c.RegistrySeeds == nil {
		return nil
	}
	if seeds, ok := c.RegistrySeeds[iso]; ok {
		return seeds
	}
	return c.RegistrySeeds[strings.ToLower(iso)]
}
