// Package places provides address autocomplete and place lookup via the
// Google Places API.
package places

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Client looks up addresses and place details.
type Client interface {
	// Autocomplete returns address suggestions for a partial input.
	Autocomplete(ctx context.Context, input string) ([]Suggestion, error)

	// Details resolves a place ID to a full place record.
	Details(ctx context.Context, placeID string) (*Place, error)
}

// Suggestion is a single autocomplete result.
type Suggestion struct {
	PlaceID     string `json:"place_id"`
	Description string `json:"description"`
}

// Place holds the resolved details for a place ID.
type Place struct {
	PlaceID          string `json:"place_id"`
	Name             string `json:"name"`
	FormattedAddress string `json:"formatted_address"`
	Phone            string `json:"phone,omitempty"`
}

// Option configures the places client.
type Option func(*client)

// WithBaseURL overrides the API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *client) {
		c.baseURL = baseURL
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithRateLimit sets the requests-per-second rate limit. Burst tracks rps
// but never drops below 1, so fractional rates still admit single requests.
func WithRateLimit(rps float64) Option {
	return func(c *client) {
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	limiter    *rate.Limiter
}

// NewClient creates a places Client with the given API key and options.
func NewClient(apiKey string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultBaseURL,
		apiKey:     apiKey,
		limiter:    rate.NewLimiter(10, 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type autocompleteResponse struct {
	Predictions []struct {
		PlaceID     string `json:"place_id"`
		Description string `json:"description"`
	} `json:"predictions"`
	Status string `json:"status"`
}

func (c *client) Autocomplete(ctx context.Context, input string) ([]Suggestion, error) {
	if c.apiKey == "" {
		return nil, eris.New("places: api key not configured")
	}

	params := url.Values{
		"input": {input},
		"key":   {c.apiKey},
	}
	body, err := c.get(ctx, "/autocomplete/json", params)
	if err != nil {
		return nil, err
	}

	var resp autocompleteResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "places: parse autocomplete response")
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("places: autocomplete returned status %s", resp.Status)
	}

	suggestions := make([]Suggestion, 0, len(resp.Predictions))
	for _, p := range resp.Predictions {
		suggestions = append(suggestions, Suggestion{
			PlaceID:     p.PlaceID,
			Description: p.Description,
		})
	}
	return suggestions, nil
}

type detailsResponse struct {
	Result struct {
		PlaceID          string `json:"place_id"`
		Name             string `json:"name"`
		FormattedAddress string `json:"formatted_address"`
		Phone            string `json:"formatted_phone_number"`
	} `json:"result"`
	Status string `json:"status"`
}

func (c *client) Details(ctx context.Context, placeID string) (*Place, error) {
	if c.apiKey == "" {
		return nil, eris.New("places: api key not configured")
	}

	params := url.Values{
		"place_id": {placeID},
		"fields":   {"place_id,name,formatted_address,formatted_phone_number"},
		"key":      {c.apiKey},
	}
	body, err := c.get(ctx, "/details/json", params)
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "places: parse details response")
	}
	if resp.Status != "OK" {
		return nil, eris.Errorf("places: details returned status %s", resp.Status)
	}

	return &Place{
		PlaceID:          resp.Result.PlaceID,
		Name:             resp.Result.Name,
		FormattedAddress: resp.Result.FormattedAddress,
		Phone:            resp.Result.Phone,
	}, nil
}

// get performs a rate-limited GET against the API and returns the body.
func (c *client) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "places: rate limit")
	}

	reqURL := c.baseURL + path + "?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "places: build request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "places: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("places: api returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "places: read body")
	}
	return body, nil
}
