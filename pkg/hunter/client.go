// Package hunter wraps the Hunter.io email finder API.
package hunter

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

const defaultBaseURL = "https://api.hunter.io/v2"

// Client finds professional email addresses.
type Client interface {
	EmailFinder(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error)
}

// EmailFinderRequest identifies the person to find an email for.
type EmailFinderRequest struct {
	Domain   string
	Company  string
	FullName string
}

// EmailFinderResponse is the data envelope from GET /email-finder.
type EmailFinderResponse struct {
	Data struct {
		Email       string `json:"email"`
		Score       int    `json:"score"`
		Position    string `json:"position"`
		PhoneNumber string `json:"phone_number"`
	} `json:"data"`
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("hunter: status %d: %s", e.Code, e.Body)
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

// NewClient creates a Hunter API client.
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

func (c *httpClient) EmailFinder(ctx context.Context, req EmailFinderRequest) (*EmailFinderResponse, error) {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	if req.Domain != "" {
		q.Set("domain", req.Domain)
	}
	if req.Company != "" {
		q.Set("company", req.Company)
	}
	if req.FullName != "" {
		q.Set("full_name", req.FullName)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/email-finder?"+q.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: create request")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: email finder request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hunter: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	var out EmailFinderResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, eris.Wrap(err, "hunter: parse response")
	}
	return &out, nil
}
