package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAutocomplete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/autocomplete/json", r.URL.Path)
		assert.Equal(t, "123 main", r.URL.Query().Get("input"))
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"predictions": [
				{"place_id": "ChIJabc", "description": "123 Main St, Springfield, IL"},
				{"place_id": "ChIJdef", "description": "123 Main Ave, Shelbyville, IL"}
			]
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	suggestions, err := c.Autocomplete(context.Background(), "123 main")
	require.NoError(t, err)
	require.Len(t, suggestions, 2)
	assert.Equal(t, "ChIJabc", suggestions[0].PlaceID)
	assert.Equal(t, "123 Main St, Springfield, IL", suggestions[0].Description)
}

func TestAutocompleteZeroResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "ZERO_RESULTS", "predictions": []}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	suggestions, err := c.Autocomplete(context.Background(), "zzzzzz")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
}

func TestAutocompleteErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "REQUEST_DENIED"}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Autocomplete(context.Background(), "123 main")
	assert.ErrorContains(t, err, "REQUEST_DENIED")
}

func TestDetails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/details/json", r.URL.Path)
		assert.Equal(t, "ChIJabc", r.URL.Query().Get("place_id"))

		_, _ = w.Write([]byte(`{
			"status": "OK",
			"result": {
				"place_id": "ChIJabc",
				"name": "Acme Plumbing",
				"formatted_address": "123 Main St, Springfield, IL 62701",
				"formatted_phone_number": "(217) 555-0134"
			}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	place, err := c.Details(context.Background(), "ChIJabc")
	require.NoError(t, err)
	assert.Equal(t, "ChIJabc", place.PlaceID)
	assert.Equal(t, "Acme Plumbing", place.Name)
	assert.Equal(t, "123 Main St, Springfield, IL 62701", place.FormattedAddress)
	assert.Equal(t, "(217) 555-0134", place.Phone)
}

func TestDetailsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Details(context.Background(), "ChIJabc")
	assert.ErrorContains(t, err, "status 500")
}

func TestFractionalRateLimitAdmitsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"status": "OK", "predictions": []}`))
	}))
	defer srv.Close()

	// rps below 1 must still allow an immediate request (burst clamps to 1).
	c := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(0.5))
	_, err := c.Autocomplete(context.Background(), "123 main")
	require.NoError(t, err)
}

func TestMissingAPIKey(t *testing.T) {
	c := NewClient("")
	_, err := c.Autocomplete(context.Background(), "123 main")
	assert.Error(t, err)
	_, err = c.Details(context.Background(), "ChIJabc")
	assert.Error(t, err)
}
