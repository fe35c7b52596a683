// Package vies wraps the EU VIES VAT-number validation REST API. One lookup is
// one outbound GET; there is no retry and no caching.
package vies

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// DefaultBaseURL is the public VIES REST endpoint.
	DefaultBaseURL = "https://ec.europa.eu/taxation_customs/vies/rest-api"

	memberState        = "PT"
	defaultHTTPTimeout = 30 * time.Second
	userAgent          = "ConcursoPublico/1.0"
)

type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout: defaultHTTPTimeout,
		},
	}
}

// Result is the subset of the VIES response the application acts on.
type Result struct {
	IsValid   bool   `json:"isValid"`
	Name      string `json:"name"`
	VatNumber string `json:"vatNumber"`
}

// Check performs the single VIES round trip for a tax number and returns the
// raw JSON body on any 2xx response. Non-2xx statuses and transport failures
// are both errors; callers surface one generic message either way.
func (c *Client) Check(ctx context.Context, nipc string) ([]byte, error) {
	lookupURL := fmt.Sprintf("%s/ms/%s/vat/%s",
		c.baseURL, memberState, url.PathEscape(strings.TrimSpace(nipc)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, lookupURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vies status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// Lookup validates a tax number and returns the parsed result.
func (c *Client) Lookup(ctx context.Context, nipc string) (*Result, error) {
	body, err := c.Check(ctx, nipc)
	if err != nil {
		return nil, err
	}
	var out Result
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
