package reveal

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/exportiq/dealerscout/pkg/apollo"
	"github.com/exportiq/dealerscout/pkg/hunter"
	"github.com/exportiq/dealerscout/pkg/lusha"
)

// GraphPeopleProvider reveals contacts from the organization graph's
// people search. It needs an organization id to query against.
type GraphPeopleProvider struct {
	client apollo.Client
}

// NewGraphPeopleProvider wraps an apollo client as a cascade provider.
func NewGraphPeopleProvider(client apollo.Client) *GraphPeopleProvider {
	return &GraphPeopleProvider{client: client}
}

func (p *GraphPeopleProvider) Name() string       { return "graph-people" }
func (p *GraphPeopleProvider) CostPerReveal() int { return 1 }
func (p *GraphPeopleProvider) Premium() bool      { return false }

func (p *GraphPeopleProvider) Reveal(ctx context.Context, req Request) (*Contact, error) {
	if req.OrgID == "" {
		return nil, ErrNotFound
	}

	apiReq := apollo.PeopleSearchRequest{
		OrganizationIDs: []string{req.OrgID},
		PerPage:         10,
	}
	if req.Title != "" {
		apiReq.Titles = []string{req.Title}
	}
	resp, err := p.client.SearchPeople(ctx, apiReq)
	if err != nil {
		return nil, eris.Wrap(err, "reveal: graph people search")
	}

	for _, person := range resp.People {
		if req.FullName != "" && !strings.EqualFold(person.Name, req.FullName) {
			continue
		}
		if person.Email == "" && person.PhoneNumber == "" {
			continue
		}
		return &Contact{Email: person.Email, Phone: person.PhoneNumber}, nil
	}
	return nil, ErrNotFound
}

// EmailFinderProvider guesses work emails from domain and full name.
type EmailFinderProvider struct {
	client   hunter.Client
	minScore int
}

// NewEmailFinderProvider wraps a hunter client as a cascade provider.
// Results scoring below minScore are treated as not found.
func NewEmailFinderProvider(client hunter.Client, minScore int) *EmailFinderProvider {
	if minScore <= 0 {
		minScore = 50
	}
	return &EmailFinderProvider{client: client, minScore: minScore}
}

func (p *EmailFinderProvider) Name() string       { return "email-finder" }
func (p *EmailFinderProvider) CostPerReveal() int { return 1 }
func (p *EmailFinderProvider) Premium() bool      { return false }

func (p *EmailFinderProvider) Reveal(ctx context.Context, req Request) (*Contact, error) {
	if req.FullName == "" {
		return nil, ErrNotFound
	}

	resp, err := p.client.EmailFinder(ctx, hunter.EmailFinderRequest{
		Domain:   req.Domain,
		Company:  req.CompanyName,
		FullName: req.FullName,
	})
	if err != nil {
		return nil, eris.Wrap(err, "reveal: email finder")
	}
	if resp.Data.Email == "" || resp.Data.Score < p.minScore {
		return nil, ErrNotFound
	}
	return &Contact{Email: resp.Data.Email, Phone: resp.Data.PhoneNumber}, nil
}

// PremiumContactProvider reveals verified personal contact details.
// It is the most expensive step of the cascade and only runs for VIP
// titles.
type PremiumContactProvider struct {
	client lusha.Client
}

// NewPremiumContactProvider wraps a lusha client as a cascade provider.
func NewPremiumContactProvider(client lusha.Client) *PremiumContactProvider {
	return &PremiumContactProvider{client: client}
}

func (p *PremiumContactProvider) Name() string       { return "premium-contact" }
func (p *PremiumContactProvider) CostPerReveal() int { return 1 }
func (p *PremiumContactProvider) Premium() bool      { return true }

func (p *PremiumContactProvider) Reveal(ctx context.Context, req Request) (*Contact, error) {
	first, last := splitName(req.FullName)
	if first == "" {
		return nil, ErrNotFound
	}

	resp, err := p.client.PersonLookup(ctx, lusha.PersonLookupRequest{
		FirstName:   first,
		LastName:    last,
		CompanyName: req.CompanyName,
		Domain:      req.Domain,
	})
	if err != nil {
		return nil, eris.Wrap(err, "reveal: premium contact lookup")
	}

	contact := Contact{
		Email:  resp.Email(),
		Phone:  resp.Phone("work"),
		Mobile: resp.Phone("mobile"),
	}
	if contact.Email == "" && contact.Phone == "" && contact.Mobile == "" {
		return nil, ErrNotFound
	}
	return &contact, nil
}

func splitName(full string) (first, last string) {
	fields := strings.Fields(strings.TrimSpace(full))
	switch len(fields) {
	case 0:
		return "", ""
	case 1:
		return fields[0], ""
	default:
		return fields[0], strings.Join(fields[1:], " ")
	}
}
