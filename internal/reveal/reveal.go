// Package reveal implements the contact-reveal cascade: ordered
// providers tried in sequence, stopping at the first success. The
// premium personal-contact provider is reserved for VIP titles.
package reveal

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/exportiq/dealerscout/internal/cost"
)

// ErrExhausted is returned when every eligible provider came up empty.
var ErrExhausted = errors.New("reveal: all providers exhausted")

// ErrNotFound is returned by a provider that has no contact for the
// request; the cascade moves on to the next provider.
var ErrNotFound = errors.New("reveal: contact not found")

// Request identifies the person whose contact details are wanted.
type Request struct {
	FullName    string `json:"full_name,omitempty"`
	Title       string `json:"title,omitempty"`
	CompanyName string `json:"company_name"`
	Domain      string `json:"domain,omitempty"`
	OrgID       string `json:"org_id,omitempty"` // graph organization id, when known
}

// Contact holds revealed contact details; any field may be empty.
type Contact struct {
	Email  string `json:"email,omitempty"`
	Phone  string `json:"phone,omitempty"`
	Mobile string `json:"mobile,omitempty"`
}

// Result is a successful reveal attributed to its provider and cost.
type Result struct {
	Contact   Contact `json:"contact"`
	Source    string  `json:"source"`
	CostUnits int     `json:"cost_units"`
}

// Provider is one contact source in the cascade.
type Provider interface {
	Name() string
	CostPerReveal() int
	// Premium providers are only tried for VIP titles.
	Premium() bool
	Reveal(ctx context.Context, req Request) (*Contact, error)
}

// Cascade folds over an ordered provider list, short-circuiting on the
// first success. Every attempted call lands in the ledger whether or
// not it succeeded.
type Cascade struct {
	providers []Provider
	vipTitles []string
	ledger    *cost.Ledger
}

// NewCascade creates a cascade over providers in priority order.
func NewCascade(providers []Provider, vipTitles []string, ledger *cost.Ledger) *Cascade {
	return &Cascade{providers: providers, vipTitles: vipTitles, ledger: ledger}
}

// Reveal tries each provider in order and returns the first hit.
func (c *Cascade) Reveal(ctx context.Context, req Request) (*Result, error) {
	if req.CompanyName == "" && req.Domain == "" {
		return nil, errors.New("reveal: company name or domain is required")
	}

	vip := c.isVIP(req.Title)
	for _, p := range c.providers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if p.Premium() && !vip {
			continue
		}

		contact, err := p.Reveal(ctx, req)
		if c.ledger != nil {
			c.ledger.Record(p.Name(), 1, p.CostPerReveal())
		}
		if err != nil {
			if !errors.Is(err, ErrNotFound) {
				zap.L().Warn("reveal provider failed",
					zap.String("provider", p.Name()),
					zap.String("company", req.CompanyName),
					zap.Error(err),
				)
			}
			continue
		}
		if contact == nil || (contact.Email == "" && contact.Phone == "" && contact.Mobile == "") {
			continue
		}

		return &Result{
			Contact:   *contact,
			Source:    p.Name(),
			CostUnits: p.CostPerReveal(),
		}, nil
	}
	return nil, ErrExhausted
}

func (c *Cascade) isVIP(title string) bool {
	title = strings.ToLower(strings.TrimSpace(title))
	if title == "" {
		return false
	}
	for _, vt := range c.vipTitles {
		if strings.Contains(title, strings.ToLower(vt)) {
			return true
		}
	}
	return false
}
