package lusha

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPersonLookup(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/person", r.URL.Path)
		assert.Equal(t, "test-key", r.Header.Get("api_key"))

		q := r.URL.Query()
		assert.Equal(t, "Maria", q.Get("firstName"))
		assert.Equal(t, "Silva", q.Get("lastName"))
		assert.Equal(t, "Acme Equipamentos", q.Get("company"))
		assert.Equal(t, "acme.com.br", q.Get("companyDomain"))

		w.Write([]byte(`{
			"emailAddresses": [{"email": "maria@acme.com.br"}],
			"phoneNumbers": [
				{"internationalNumber": "+55 11 5555-0100", "type": "work"},
				{"internationalNumber": "+55 11 98888-0100", "type": "mobile"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.PersonLookup(context.Background(), PersonLookupRequest{
		FirstName:   "Maria",
		LastName:    "Silva",
		CompanyName: "Acme Equipamentos",
		Domain:      "acme.com.br",
	})
	require.NoError(t, err)

	assert.Equal(t, "maria@acme.com.br", resp.Email())
	assert.Equal(t, "+55 11 5555-0100", resp.Phone("work"))
	assert.Equal(t, "+55 11 98888-0100", resp.Phone("mobile"))
	assert.Empty(t, resp.Phone("home"))
}

func TestPersonLookup_EmptyResponse(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"emailAddresses": [], "phoneNumbers": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.PersonLookup(context.Background(), PersonLookupRequest{FirstName: "Maria"})
	require.NoError(t, err)
	assert.Empty(t, resp.Email())
	assert.Empty(t, resp.Phone("work"))
}

func TestPersonLookup_Unauthorized(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid api key"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewClient("bad-key", WithBaseURL(srv.URL))
	_, err := c.PersonLookup(context.Background(), PersonLookupRequest{FirstName: "Maria"})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusUnauthorized, se.Code)
}
