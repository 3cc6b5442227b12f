package reveal

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/exportiq/dealerscout/internal/cost"
)

// mockProvider implements Provider for testing.
type mockProvider struct {
	name    string
	cost    int
	premium bool
	contact *Contact
	err     error
	calls   int
}

func (m *mockProvider) Name() string       { return m.name }
func (m *mockProvider) CostPerReveal() int { return m.cost }
func (m *mockProvider) Premium() bool      { return m.premium }

func (m *mockProvider) Reveal(context.Context, Request) (*Contact, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.contact, nil
}

var vipTitles = []string{"owner", "ceo", "managing director"}

func TestCascade_ShortCircuitsOnFirstHit(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: "graph-people", cost: 1, contact: &Contact{Email: "x@acme.com"}}
	second := &mockProvider{name: "email-finder", cost: 1, contact: &Contact{Email: "y@acme.com"}}

	ledger := cost.NewLedger(cost.DefaultRates())
	c := NewCascade([]Provider{first, second}, vipTitles, ledger)

	res, err := c.Reveal(context.Background(), Request{CompanyName: "Acme", FullName: "Ana Silva"})
	require.NoError(t, err)
	assert.Equal(t, "x@acme.com", res.Contact.Email)
	assert.Equal(t, "graph-people", res.Source)
	assert.Equal(t, 1, first.calls)
	assert.Zero(t, second.calls)

	// Only the attempted provider was charged.
	snap := ledger.Snapshot()
	assert.Equal(t, 1, snap.Sources["graph-people"].CallsMade)
	assert.NotContains(t, snap.Sources, "email-finder")
}

func TestCascade_FallsThroughOnMiss(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: "graph-people", cost: 1, err: ErrNotFound}
	second := &mockProvider{name: "email-finder", cost: 1, contact: &Contact{Email: "y@acme.com"}}

	ledger := cost.NewLedger(cost.DefaultRates())
	c := NewCascade([]Provider{first, second}, vipTitles, ledger)

	res, err := c.Reveal(context.Background(), Request{CompanyName: "Acme", FullName: "Ana Silva"})
	require.NoError(t, err)
	assert.Equal(t, "email-finder", res.Source)

	// Both attempts cost, the miss included.
	snap := ledger.Snapshot()
	assert.Equal(t, 1, snap.Sources["graph-people"].CallsMade)
	assert.Equal(t, 1, snap.Sources["email-finder"].CallsMade)
}

func TestCascade_ProviderErrorDoesNotAbort(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: "graph-people", cost: 1, err: errors.New("503")}
	second := &mockProvider{name: "email-finder", cost: 1, contact: &Contact{Email: "y@acme.com"}}

	c := NewCascade([]Provider{first, second}, vipTitles, cost.NewLedger(cost.DefaultRates()))
	res, err := c.Reveal(context.Background(), Request{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "email-finder", res.Source)
}

func TestCascade_PremiumGatedToVIPTitles(t *testing.T) {
	t.Parallel()

	regular := &mockProvider{name: "email-finder", cost: 1, err: ErrNotFound}
	premium := &mockProvider{name: "premium-contact", cost: 1, premium: true, contact: &Contact{Mobile: "+55 11 99999"}}

	c := NewCascade([]Provider{regular, premium}, vipTitles, cost.NewLedger(cost.DefaultRates()))

	// Non-VIP title never reaches the premium provider.
	_, err := c.Reveal(context.Background(), Request{CompanyName: "Acme", Title: "analyst"})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, premium.calls)

	// VIP title does.
	res, err := c.Reveal(context.Background(), Request{CompanyName: "Acme", Title: "CEO & Founder"})
	require.NoError(t, err)
	assert.Equal(t, "premium-contact", res.Source)
	assert.Equal(t, "+55 11 99999", res.Contact.Mobile)
}

func TestCascade_EmptyTitleIsNotVIP(t *testing.T) {
	t.Parallel()

	premium := &mockProvider{name: "premium-contact", cost: 1, premium: true, contact: &Contact{Email: "z@acme.com"}}
	c := NewCascade([]Provider{premium}, vipTitles, cost.NewLedger(cost.DefaultRates()))

	_, err := c.Reveal(context.Background(), Request{CompanyName: "Acme"})
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Zero(t, premium.calls)
}

func TestCascade_AllMiss(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: "graph-people", cost: 1, err: ErrNotFound}
	second := &mockProvider{name: "email-finder", cost: 1, err: ErrNotFound}

	c := NewCascade([]Provider{first, second}, vipTitles, cost.NewLedger(cost.DefaultRates()))
	_, err := c.Reveal(context.Background(), Request{CompanyName: "Acme"})
	assert.ErrorIs(t, err, ErrExhausted)
}

func TestCascade_RequiresCompanyOrDomain(t *testing.T) {
	t.Parallel()

	c := NewCascade(nil, vipTitles, cost.NewLedger(cost.DefaultRates()))
	_, err := c.Reveal(context.Background(), Request{FullName: "Ana Silva"})
	assert.Error(t, err)
}

func TestCascade_EmptyContactTreatedAsMiss(t *testing.T) {
	t.Parallel()

	first := &mockProvider{name: "graph-people", cost: 1, contact: &Contact{}}
	second := &mockProvider{name: "email-finder", cost: 1, contact: &Contact{Email: "y@acme.com"}}

	c := NewCascade([]Provider{first, second}, vipTitles, cost.NewLedger(cost.DefaultRates()))
	res, err := c.Reveal(context.Background(), Request{CompanyName: "Acme"})
	require.NoError(t, err)
	assert.Equal(t, "email-finder", res.Source)
}

func TestSplitName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in          string
		first, last string
	}{
		{"Ana Silva", "Ana", "Silva"},
		{"Ana Maria da Silva", "Ana", "Maria da Silva"},
		{"Ana", "Ana", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := splitName(tt.in)
		assert.Equal(t, tt.first, first, tt.in)
		assert.Equal(t, tt.last, last, tt.in)
	}
}
