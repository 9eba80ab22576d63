// Package directory is a typed HTTP client for the external directory
// service that owns the user records. The service exposes an Okta-style
// REST API authenticated with a static API token.
package directory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrUserNotFound is returned when the directory has no record for the
// requested subject id.
var ErrUserNotFound = errors.New("user not found in directory")

// Client talks to the directory service. It is stateless per request and
// safe for concurrent use.
type Client struct {
	baseURL    *url.URL
	token      string
	httpClient *http.Client
}

// New creates a directory client for the given base URL and API token.
func New(rawURL, apiToken string) (*Client, error) {
	if rawURL == "" {
		return nil, errors.New("directory URL is required")
	}
	if apiToken == "" {
		return nil, errors.New("directory API token is required")
	}

	parsed, err := url.Parse(strings.TrimSuffix(rawURL, "/") + "/api/v1")
	if err != nil {
		return nil, fmt.Errorf("invalid directory URL: %w", err)
	}

	return &Client{
		baseURL:    parsed,
		token:      apiToken,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// resolveURL builds a full URL from the base API URL and path segments.
func (c *Client) resolveURL(pathSegments ...string) string {
	return c.baseURL.JoinPath(pathSegments...).String()
}

// readErrorBody reads the response body for error messages. Returns a
// placeholder if reading fails, since we're already in an error path.
func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// doJSON performs a request with an optional JSON body and unmarshals the
// JSON response into T. A 404 maps to ErrUserNotFound.
func doJSON[T any](ctx context.Context, c *Client, method, endpoint string, requestBody any) (*T, error) {
	var bodyReader io.Reader
	if requestBody != nil {
		jsonBody, err := json.Marshal(requestBody)
		if err != nil {
			return nil, fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return nil, fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Authorization", "SSWS "+c.token)
	req.Header.Set("Accept", "application/json")
	if requestBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrUserNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("directory request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not read response body: %w", err)
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("could not unmarshal response: %w", err)
	}

	return &result, nil
}
