// Package apollo wraps the Apollo B2B graph API: organization search and
// people search for decision-maker contacts.
package apollo

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.apollo.io/api/v1"

// Client performs searches against the Apollo API.
type Client interface {
	SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error)
	SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error)
}

// OrgSearchRequest is the request body for POST /mixed_companies/search.
type OrgSearchRequest struct {
	OrganizationName string   `json:"q_organization_name,omitempty"`
	Keywords         []string `json:"q_organization_keyword_tags,omitempty"`
	Locations        []string `json:"organization_locations,omitempty"`
	Page             int      `json:"page,omitempty"`
	PerPage          int      `json:"per_page,omitempty"`
}

// OrgSearchResponse is the response from POST /mixed_companies/search.
type OrgSearchResponse struct {
	Organizations []Organization `json:"organizations"`
	Pagination    Pagination     `json:"pagination"`
}

// Organization is one company record from the graph.
type Organization struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	WebsiteURL    string `json:"website_url"`
	PrimaryDomain string `json:"primary_domain"`
	Country       string `json:"country"`
	EmployeeCount int    `json:"estimated_num_employees"`
	ContactCount  int    `json:"num_contacts"`
}

// PeopleSearchRequest is the request body for POST /mixed_people/search.
type PeopleSearchRequest struct {
	OrganizationIDs []string `json:"organization_ids,omitempty"`
	Titles          []string `json:"person_titles,omitempty"`
	Page            int      `json:"page,omitempty"`
	PerPage         int      `json:"per_page,omitempty"`
}

// PeopleSearchResponse is the response from POST /mixed_people/search.
type PeopleSearchResponse struct {
	People     []Person   `json:"people"`
	Pagination Pagination `json:"pagination"`
}

// Person is one decision-maker contact.
type Person struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Title       string `json:"title"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// Pagination reports result paging.
type Pagination struct {
	Page       int `json:"page"`
	PerPage    int `json:"per_page"`
	TotalPages int `json:"total_pages"`
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("apollo: status %d: %s", e.Code, e.Body)
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates an Apollo API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) SearchOrganizations(ctx context.Context, req OrgSearchRequest) (*OrgSearchResponse, error) {
	var out OrgSearchResponse
	if err := c.post(ctx, "/mixed_companies/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) SearchPeople(ctx context.Context, req PeopleSearchRequest) (*PeopleSearchResponse, error) {
	var out PeopleSearchResponse
	if err := c.post(ctx, "/mixed_people/search", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *httpClient) post(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "apollo: marshal request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "apollo: create request")
	}
	httpReq.Header.Set("X-Api-Key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return eris.Wrapf(err, "apollo: %s request", path)
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "apollo: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrapf(err, "apollo: parse %s response", path)
	}
	return nil
}
