// Package jsonfetcher wraps HTTP GET + JSON decode against the RapidAPI
// aviation data host.
package jsonfetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// StatusError reports a non-2xx response. Callers inspect the code to
// decide whether to skip (400 on an invalid window, non-200 on an
// unknown aircraft) or fail.
type StatusError struct {
	StatusCode int
	URL        string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.StatusCode, e.URL)
}

// Client fetches JSON documents from the aviation data API, attaching the
// RapidAPI authentication headers to every request.
type Client struct {
	httpClient *http.Client
	baseURL    string
	host       string
	apiKey     string
}

// New creates a client for the given RapidAPI host and key.
func New(host, apiKey string) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL: "https://" + host,
		host:    host,
		apiKey:  apiKey,
	}
}

// NewWithBaseURL creates a client against an explicit base URL. Used by
// tests to point at a local server.
func NewWithBaseURL(baseURL, apiKey string) *Client {
	c := New("", apiKey)
	c.baseURL = baseURL
	return c
}

// Get fetches baseURL+path with the given query parameters and decodes
// the JSON response into v.
func (c *Client) Get(ctx context.Context, path string, params url.Values, v interface{}) error {
	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("x-rapidapi-key", c.apiKey)
	if c.host != "" {
		req.Header.Set("x-rapidapi-host", c.host)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{StatusCode: resp.StatusCode, URL: reqURL}
	}

	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("error decoding response from %s: %w", reqURL, err)
	}
	return nil
}
