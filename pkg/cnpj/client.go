// Package cnpj wraps Brazilian legal-registry lookups. Two interchangeable
// public providers (BrasilAPI and ReceitaWS) answer with different field
// names; both are reconciled into one Record shape.
package cnpj

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// Provider identifies a registry backend.
type Provider string

const (
	ProviderBrasilAPI Provider = "brasilapi"
	ProviderReceitaWS Provider = "receitaws"
)

const (
	brasilAPIBaseURL = "https://brasilapi.com.br/api/cnpj/v1"
	receitaWSBaseURL = "https://receitaws.com.br/v1/cnpj"
)

// Record is the reconciled registry response.
type Record struct {
	RegistrationNumber  string `json:"registration_number"`
	LegalName           string `json:"legal_name"`
	TradeName           string `json:"trade_name,omitempty"`
	Address             string `json:"address,omitempty"`
	PrimaryActivityCode string `json:"primary_activity_code,omitempty"`
	Status              string `json:"status,omitempty"`
}

// Active reports whether the registration is in active standing.
func (r *Record) Active() bool {
	return strings.EqualFold(strings.TrimSpace(r.Status), "ativa")
}

// Client looks up company registrations.
type Client interface {
	Lookup(ctx context.Context, registrationNumber string) (*Record, error)
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("cnpj: status %d: %s", e.Code, e.Body)
}

var nonDigitRe = regexp.MustCompile(`\D`)

// NormalizeNumber strips formatting from a CNPJ. Returns "" when the
// input does not contain exactly 14 digits.
func NormalizeNumber(s string) string {
	digits := nonDigitRe.ReplaceAllString(s, "")
	if len(digits) != 14 {
		return ""
	}
	return digits
}

// Option configures the client.
type Option func(*httpClient)

// WithProvider selects the registry backend. Default: BrasilAPI.
func WithProvider(p Provider) Option {
	return func(c *httpClient) {
		c.provider = p
	}
}

// WithBaseURL overrides the provider's base URL.
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
	provider Provider
	baseURL  string
	http     *http.Client
}

// NewClient creates a registry client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		provider: ProviderBrasilAPI,
		http: &http.Client{
			Timeout: 20 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	if c.baseURL == "" {
		switch c.provider {
		case ProviderReceitaWS:
			c.baseURL = receitaWSBaseURL
		default:
			c.baseURL = brasilAPIBaseURL
		}
	}
	return c
}

// brasilAPIResponse is the BrasilAPI payload subset the pipeline needs.
type brasilAPIResponse struct {
	CNPJ              string `json:"cnpj"`
	RazaoSocial       string `json:"razao_social"`
	NomeFantasia      string `json:"nome_fantasia"`
	CNAEFiscal        int    `json:"cnae_fiscal"`
	SituacaoCadastral string `json:"descricao_situacao_cadastral"`
	Logradouro        string `json:"logradouro"`
	Numero            string `json:"numero"`
	Municipio         string `json:"municipio"`
	UF                string `json:"uf"`
}

// receitaWSResponse is the ReceitaWS payload subset the pipeline needs.
type receitaWSResponse struct {
	CNPJ               string `json:"cnpj"`
	Nome               string `json:"nome"`
	Fantasia           string `json:"fantasia"`
	Situacao           string `json:"situacao"`
	Logradouro         string `json:"logradouro"`
	Numero             string `json:"numero"`
	Municipio          string `json:"municipio"`
	UF                 string `json:"uf"`
	AtividadePrincipal []struct {
		Code string `json:"code"`
		Text string `json:"text"`
	} `json:"atividade_principal"`
}

func (c *httpClient) Lookup(ctx context.Context, registrationNumber string) (*Record, error) {
	number := NormalizeNumber(registrationNumber)
	if number == "" {
		return nil, eris.Errorf("cnpj: invalid registration number %q", registrationNumber)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+number, nil)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: lookup request")
	}
	defer resp.Body.Close() //nolint:errcheck

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "cnpj: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(data)}
	}

	switch c.provider {
	case ProviderReceitaWS:
		var raw receitaWSResponse
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrap(err, "cnpj: parse receitaws response")
		}
		rec := &Record{
			RegistrationNumber: number,
			LegalName:          raw.Nome,
			TradeName:          raw.Fantasia,
			Address:            joinAddress(raw.Logradouro, raw.Numero, raw.Municipio, raw.UF),
			Status:             raw.Situacao,
		}
		if len(raw.AtividadePrincipal) > 0 {
			rec.PrimaryActivityCode = raw.AtividadePrincipal[0].Code
		}
		return rec, nil
	default:
		var raw brasilAPIResponse
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, eris.Wrap(err, "cnpj: parse brasilapi response")
		}
		rec := &Record{
			RegistrationNumber:  number,
			LegalName:           raw.RazaoSocial,
			TradeName:           raw.NomeFantasia,
			Address:             joinAddress(raw.Logradouro, raw.Numero, raw.Municipio, raw.UF),
			Status:              raw.SituacaoCadastral,
		}
		if raw.CNAEFiscal > 0 {
			rec.PrimaryActivityCode = fmt.Sprintf("%d", raw.CNAEFiscal)
		}
		return rec, nil
	}
}

func joinAddress(parts ...string) string {
	var kept []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ", ")
}
