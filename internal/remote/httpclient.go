package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mateo-dervishi/HouseOfClarence-sub001/internal/domain"
)

const defaultRequestTimeout = 10 * time.Second

// TokenSource supplies the current session token. An empty token produces
// an unauthenticated call, which the server rejects with 401.
type TokenSource func() string

// Client talks to the selection service's HTTP API.
type Client struct {
	baseURL string
	http    *http.Client
	token   TokenSource
}

func NewClient(baseURL string, token TokenSource) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: defaultRequestTimeout},
		token:   token,
	}
}

func (c *Client) Fetch(ctx context.Context) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/selection", nil)
	if err != nil {
		return nil, fmt.Errorf("build fetch request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures and timeouts are both transient here.
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := statusToError(resp.StatusCode); err != nil {
		return nil, err
	}

	var doc Document
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return &doc, nil
}

func (c *Client) Push(ctx context.Context, items []domain.LineItem, labels []domain.Label) error {
	body, err := json.Marshal(struct {
		Items  []domain.LineItem `json:"items"`
		Labels []domain.Label    `json:"labels"`
	}{Items: items, Labels: labels})
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/selection", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build push request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	return statusToError(resp.StatusCode)
}

func (c *Client) authorize(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func statusToError(code int) error {
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return ErrUnauthenticated
	case code == http.StatusBadRequest:
		return ErrValidation
	default:
		return fmt.Errorf("%w: unexpected status %d", ErrUnavailable, code)
	}
}
