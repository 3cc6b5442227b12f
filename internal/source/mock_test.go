package source

import (
	"context"

	"github.com/exportiq/dealerscout/pkg/apollo"
	"github.com/exportiq/dealerscout/pkg/cnpj"
	"github.com/exportiq/dealerscout/pkg/serper"
)

// mockSerper implements serper.Client for testing.
type mockSerper struct {
	resp     *serper.SearchResponse
	err      error
	requests []serper.SearchRequest
}

func (m *mockSerper) Search(_ context.Context, req serper.SearchRequest) (*serper.SearchResponse, error) {
	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	return m.resp, nil
}

// mockApollo implements apollo.Client for testing.
type mockApollo struct {
	orgResp    *apollo.OrgSearchResponse
	orgErr     error
	orgReqs    []apollo.OrgSearchRequest
	peopleResp *apollo.PeopleSearchResponse
	peopleErr  error
}

func (m *mockApollo) SearchOrganizations(_ context.Context, req apollo.OrgSearchRequest) (*apollo.OrgSearchResponse, error) {
	m.orgReqs = append(m.orgReqs, req)
	if m.orgErr != nil {
		return nil, m.orgErr
	}
	return m.orgResp, nil
}

func (m *mockApollo) SearchPeople(_ context.Context, _ apollo.PeopleSearchRequest) (*apollo.PeopleSearchResponse, error) {
	if m.peopleErr != nil {
		return nil, m.peopleErr
	}
	return m.peopleResp, nil
}

// mockCNPJ implements cnpj.Client for testing.
type mockCNPJ struct {
	records map[string]*cnpj.Record
	errs    map[string]error
	lookups []string
}

func (m *mockCNPJ) Lookup(_ context.Context, number string) (*cnpj.Record, error) {
	m.lookups = append(m.lookups, number)
	if err, ok := m.errs[number]; ok {
		return nil, err
	}
	if rec, ok := m.records[number]; ok {
		return rec, nil
	}
	return nil, &cnpj.StatusError{Code: 404, Body: "not found"}
}
