// Package cost tracks the monetary cost of paid external calls during a
// discovery run.
package cost

// Rates holds per-source pricing: USD per cost unit.
type Rates struct {
	PerUnitUSD map[string]float64 `yaml:"per_unit_usd" mapstructure:"per_unit_usd"`
}

// DefaultRates returns the default per-source pricing.
func DefaultRates() Rates {
	return Rates{
		PerUnitUSD: map[string]float64{
			"graph-search":    0.015,
			"web-search":      0.001,
			"registry":        0,
			"graph-people":    0.015,
			"email-finder":    0.049,
			"premium-contact": 0.40,
		},
	}
}

// UnitPrice returns the USD price of one cost unit for a source.
// Unknown sources price at zero.
func (r Rates) UnitPrice(src string) float64 {
	return r.PerUnitUSD[src]
}
