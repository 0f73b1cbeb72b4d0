// Package pdfgen renders documents to PDF via the rendering service.
package pdfgen

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/fieldops/internal/model"
)

// Client renders documents to PDF.
type Client interface {
	// Render produces the PDF bytes for a document.
	Render(ctx context.Context, doc *model.Document) ([]byte, error)
}

// Option configures the pdfgen client.
type Option func(*client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *client) {
		c.httpClient.Timeout = d
	}
}

type client struct {
	httpClient *http.Client
	baseURL    string
}

// NewClient creates a pdfgen Client for the rendering service at baseURL.
func NewClient(baseURL string, opts ...Option) Client {
	c := &client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// renderRequest is the JSON payload sent to the rendering service.
type renderRequest struct {
	Kind      string           `json:"kind"`
	Number    string           `json:"number"`
	AccountID string           `json:"account_id"`
	Status    string           `json:"status"`
	LineItems []model.LineItem `json:"line_items"`
	Total     float64          `json:"total"`
	CreatedAt time.Time        `json:"created_at"`
}

func (c *client) Render(ctx context.Context, doc *model.Document) ([]byte, error) {
	payload, err := json.Marshal(renderRequest{
		Kind:      string(doc.Kind),
		Number:    doc.Number,
		AccountID: doc.AccountID,
		Status:    string(doc.Status),
		LineItems: doc.LineItems,
		Total:     doc.Total,
		CreatedAt: doc.CreatedAt,
	})
	if err != nil {
		return nil, eris.Wrap(err, "pdfgen: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "pdfgen: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/pdf")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "pdfgen: request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("pdfgen: service returned status %d", resp.StatusCode)
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "pdfgen: read body")
	}
	if len(pdf) == 0 {
		return nil, eris.New("pdfgen: service returned empty body")
	}
	return pdf, nil
}
