// Package scorer ranks raw search records for authenticity and fit with
// a deterministic weighted heuristic.
package scorer

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Config holds the scoring constants. The defaults were tuned on one
// vertical (fitness-equipment dealers in Brazil); treat them as a
// starting point per campaign, not fixed law.
type Config struct {
	RankPenalty         float64  `yaml:"rank_penalty" mapstructure:"rank_penalty"`
	SocialMultiplier    float64  `yaml:"social_multiplier" mapstructure:"social_multiplier"`
	DirectoryMultiplier float64  `yaml:"directory_multiplier" mapstructure:"directory_multiplier"`
	LocalTLDBonus       float64  `yaml:"local_tld_bonus" mapstructure:"local_tld_bonus"`
	NameInDomainBonus   float64  `yaml:"name_in_domain_bonus" mapstructure:"name_in_domain_bonus"`
	NameInTitleBonus    float64  `yaml:"name_in_title_bonus" mapstructure:"name_in_title_bonus"`
	SocialDomains       []string `yaml:"social_domains" mapstructure:"social_domains"`
	DirectoryDomains    []string `yaml:"directory_domains" mapstructure:"directory_domains"`
}

// DefaultConfig returns the default scoring constants.
func DefaultConfig() Config {
	return Config{
		RankPenalty:         5,
		SocialMultiplier:    0.2,
		DirectoryMultiplier: 0.3,
		LocalTLDBonus:       40,
		NameInDomainBonus:   30,
		NameInTitleBonus:    10,
		SocialDomains: []string{
			"facebook.com", "instagram.com", "linkedin.com", "twitter.com",
			"x.com", "youtube.com", "tiktok.com", "pinterest.com",
		},
		DirectoryDomains: []string{
			"yelp.com", "yellowpages.com", "paginasamarillas.com",
			"telelistas.net", "guiamais.com.br", "apontador.com.br",
			"europages.com", "kompass.com", "alibaba.com", "mercadolivre.com.br",
			"crunchbase.com", "dnb.com", "zoominfo.com",
		},
	}
}

// Validate checks that a Config is internally consistent.
func Validate(c Config) error {
	var errs []string

	if c.RankPenalty < 0 {
		errs = append(errs, "rank_penalty must be >= 0")
	}
	for name, m := range map[string]float64{
		"social_multiplier":    c.SocialMultiplier,
		"directory_multiplier": c.DirectoryMultiplier,
	} {
		if m < 0 || m > 1 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,1]", name))
		}
	}
	for name, b := range map[string]float64{
		"local_tld_bonus":      c.LocalTLDBonus,
		"name_in_domain_bonus": c.NameInDomainBonus,
		"name_in_title_bonus":  c.NameInTitleBonus,
	} {
		if b < 0 || b > 100 {
			errs = append(errs, fmt.Sprintf("%s must be in [0,100]", name))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
