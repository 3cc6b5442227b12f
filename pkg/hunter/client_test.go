package hunter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailFinder(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/email-finder", r.URL.Path)

		q := r.URL.Query()
		assert.Equal(t, "test-key", q.Get("api_key"))
		assert.Equal(t, "acme.com.br", q.Get("domain"))
		assert.Equal(t, "Acme Equipamentos", q.Get("company"))
		assert.Equal(t, "Maria Silva", q.Get("full_name"))

		w.Write([]byte(`{
			"data": {
				"email": "maria.silva@acme.com.br",
				"score": 92,
				"position": "Diretora",
				"phone_number": "+55 11 5555-0100"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.EmailFinder(context.Background(), EmailFinderRequest{
		Domain:   "acme.com.br",
		Company:  "Acme Equipamentos",
		FullName: "Maria Silva",
	})
	require.NoError(t, err)

	assert.Equal(t, "maria.silva@acme.com.br", resp.Data.Email)
	assert.Equal(t, 92, resp.Data.Score)
	assert.Equal(t, "+55 11 5555-0100", resp.Data.PhoneNumber)
}

func TestEmailFinder_OmitsEmptyParams(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.False(t, q.Has("domain"))
		assert.False(t, q.Has("full_name"))
		assert.Equal(t, "Acme", q.Get("company"))
		w.Write([]byte(`{"data": {}}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	resp, err := c.EmailFinder(context.Background(), EmailFinderRequest{Company: "Acme"})
	require.NoError(t, err)
	assert.Empty(t, resp.Data.Email)
}

func TestEmailFinder_RateLimited(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":[{"id":"too_many_requests"}]}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.EmailFinder(context.Background(), EmailFinderRequest{FullName: "Maria Silva"})
	require.Error(t, err)

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Contains(t, se.Body, "too_many_requests")
}
