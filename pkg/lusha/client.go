// Package lusha wraps the Lusha premium personal-contact API. Reserved
// for VIP titles in the reveal cascade because of its per-reveal price.
package lusha

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://api.lusha.com"

// Client reveals personal contact details.
type Client interface {
	PersonLookup(ctx context.Context, req PersonLookupRequest) (*PersonLookupResponse, error)
}

// PersonLookupRequest identifies the person to reveal.
type PersonLookupRequest struct {
	FirstName   string
	LastName    string
	CompanyName string
	Domain      string
}

// PersonLookupResponse is the response from GET /person.
type PersonLookupResponse struct {
	EmailAddresses []struct {
		Email string `json:"email"`
	} `json:"emailAddresses"`
	PhoneNumbers []struct {
		InternationalNumber string `json:"internationalNumber"`
		Type                string `json:"type"`
	} `json:"phoneNumbers"`
}

// Email returns the first revealed email, or "".
func (r *PersonLookupResponse) Email() string {
	if len(r.EmailAddresses) == 0 {
		return ""
	}
	return r.EmailAddresses[0].Email
}

// Phone returns the first revealed number of the given type, or "".
func (r *PersonLookupResponse) Phone(kind string) string {
	for _, p := range r.PhoneNumbers {
		if p.Type == kind {
			return p.InternationalNumber
		}
	}
	return ""
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("lusha: status %d: %s", e.Code, e.Body)
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

// NewClient creates a Lusha API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) PersonLookup(ctx context.Context, req PersonLookupRequest) (*PersonLookupResponse, error) {
	q := url.Values{}
	if req.FirstName != "" {
		q.Set("firstName", req.FirstName)
	}
	if req.LastName != "" {
		q.Set("lastName", req.LastName)
	}
	if req.CompanyName != "" {
		q.Set("company", req.CompanyName)
	}
	if req.Domain != "" {
		q.Set("companyDomain", req.Domain)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/person?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: create request")
	}
	httpReq.Header.Set("api_key", c.apiKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: person lookup request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "lusha: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	var out PersonLookupResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "lusha: parse response")
	}
	return &out, nil
}
