// Package faceapi is a typed HTTP client for the external face recognition
// service (Azure Face style REST surface): face detection, person group and
// person management, and face-vs-person verification.
package faceapi

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

// Client talks to the face service. Stateless per request, safe for
// concurrent use.
type Client struct {
	baseURL    *url.URL
	key        string
	httpClient *http.Client
}

// New creates a face service client for the given endpoint and
// subscription key.
func New(endpoint, subscriptionKey string) (*Client, error) {
	if endpoint == "" {
		return nil, errors.New("face service endpoint is required")
	}
	if subscriptionKey == "" {
		return nil, errors.New("face service subscription key is required")
	}

	parsed, err := url.Parse(strings.TrimSuffix(endpoint, "/") + "/face/v1.0")
	if err != nil {
		return nil, fmt.Errorf("invalid face service endpoint: %w", err)
	}

	return &Client{
		baseURL:    parsed,
		key:        subscriptionKey,
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}, nil
}

func (c *Client) resolveURL(pathSegments ...string) string {
	return c.baseURL.JoinPath(pathSegments...).String()
}

func readErrorBody(r io.Reader) string {
	body, err := io.ReadAll(r)
	if err != nil {
		return "(could not read error body)"
	}
	return string(body)
}

// do performs a request and decodes the JSON response into result when it
// is non-nil. Image payloads go out as application/octet-stream, everything
// else as JSON.
func (c *Client) do(ctx context.Context, method, endpoint string, jsonBody any, binaryBody []byte, result any) error {
	var bodyReader io.Reader
	contentType := ""
	switch {
	case binaryBody != nil:
		bodyReader = bytes.NewReader(binaryBody)
		contentType = "application/octet-stream"
	case jsonBody != nil:
		encoded, err := json.Marshal(jsonBody)
		if err != nil {
			return fmt.Errorf("could not marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(encoded)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, c.resolveURL(endpoint), bodyReader)
	if err != nil {
		return fmt.Errorf("could not create request: %w", err)
	}

	req.Header.Set("Ocp-Apim-Subscription-Key", c.key)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("could not send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("face service request failed with status %d: %s", resp.StatusCode, readErrorBody(resp.Body))
	}

	if result == nil {
		return nil
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("could not read response body: %w", err)
	}
	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("could not unmarshal response: %w", err)
	}
	return nil
}
