package suggest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"whatsreply/internal/types"
)

const (
	SuggestPath    = "/api/suggest-messages"
	DefaultTimeout = 15 * time.Second
	// cap on error bodies read for the detail message
	maxErrorBody = 64 << 10
)

// Client talks to the suggestion backend. It keeps no state between calls.
type Client struct {
	httpClient *http.Client
	baseURL    string
}

type Option func(*Client)

// WithTimeout bounds each request, including reading the response body.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: DefaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Validate checks the request fields in order: message, relationship type,
// desired outcome. The first missing one wins.
func Validate(req types.SuggestionRequest) error {
	if strings.TrimSpace(req.ReceivedMessage) == "" {
		return &ValidationError{Message: "missing message"}
	}
	if strings.TrimSpace(req.RelationshipType) == "" {
		return &ValidationError{Message: "missing relationship type"}
	}
	if strings.TrimSpace(req.DesiredOutcome) == "" {
		return &ValidationError{Message: "missing desired outcome"}
	}
	return nil
}

// RequestSuggestions validates req, posts it to the backend and returns the
// suggestions in response order. Errors are *ValidationError or *RequestError.
func (c *Client) RequestSuggestions(ctx context.Context, req types.SuggestionRequest) ([]types.Suggestion, error) {
	if err := Validate(req); err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, &RequestError{Message: GenericFailure, Err: fmt.Errorf("marshal request: %w", err)}
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+SuggestPath, bytes.NewReader(body))
	if err != nil {
		return nil, &RequestError{Message: GenericFailure, Err: fmt.Errorf("build request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &RequestError{Message: GenericFailure, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &RequestError{
			Message:    detailOrGeneric(b),
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("backend returned %d: %s", resp.StatusCode, strings.TrimSpace(string(b))),
		}
	}

	var out struct {
		Suggestions *[]types.Suggestion `json:"suggestions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &RequestError{Message: GenericFailure, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	if out.Suggestions == nil {
		return nil, &RequestError{Message: GenericFailure, StatusCode: resp.StatusCode, Err: errors.New("response has no suggestions field")}
	}
	return *out.Suggestions, nil
}

func detailOrGeneric(body []byte) string {
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err == nil && strings.TrimSpace(er.Detail) != "" {
		return er.Detail
	}
	return GenericFailure
}
