// Package tracker is a small Jira Cloud REST v3 client.
package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"alertbridge/internal/constants"
	"alertbridge/pkg/circuitbreaker"
	apperrors "alertbridge/pkg/errors"
	"alertbridge/pkg/metrics"
)

const maxErrorBody = 64 << 10

type Config struct {
	BaseURL  string
	Email    string
	APIToken string
	Timeout  time.Duration
}

type Client struct {
	baseURL  string
	email    string
	apiToken string
	http     *http.Client
	breaker  *circuitbreaker.Wrapper
}

type Option func(*Client)

// WithCircuitBreaker routes every call through w. API rejections (4xx)
// should not trip it; see IsBreakerSuccess.
func WithCircuitBreaker(w *circuitbreaker.Wrapper) Option {
	return func(c *Client) { c.breaker = w }
}

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

func NewClient(cfg Config, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = constants.DefaultHTTPTimeout
	}

	c := &Client{
		baseURL:  cfg.BaseURL,
		email:    cfg.Email,
		apiToken: cfg.APIToken,
		http:     &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IsBreakerSuccess treats client-side rejections as successes for the
// breaker: the API answered, the request was wrong.
func IsBreakerSuccess(err error) bool {
	if err == nil {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < 500 && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

// CreateMetaFields returns the field schema of the first project and issue
// type matched by the create-meta query.
func (c *Client) CreateMetaFields(ctx context.Context, projectKey, issueType string) (Fields, error) {
	q := url.Values{}
	q.Set("projectKeys", projectKey)
	q.Set("issuetypeNames", issueType)
	q.Set("expand", "projects.issuetypes.fields")

	var resp createMetaResponse
	if err := c.do(ctx, "createmeta", http.MethodGet, "/rest/api/3/issue/createmeta?"+q.Encode(), nil, &resp); err != nil {
		return nil, err
	}

	if len(resp.Projects) == 0 || len(resp.Projects[0].IssueTypes) == 0 {
		return Fields{}, nil
	}
	fields := resp.Projects[0].IssueTypes[0].Fields
	if fields == nil {
		fields = Fields{}
	}
	return fields, nil
}

func (c *Client) Priorities(ctx context.Context) ([]Priority, error) {
	var priorities []Priority
	if err := c.do(ctx, "priorities", http.MethodGet, "/rest/api/3/priority", nil, &priorities); err != nil {
		return nil, err
	}
	return priorities, nil
}

// CreateIssue submits req and returns the new issue key.
func (c *Client) CreateIssue(ctx context.Context, req IssueRequest) (string, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return "", apperrors.ErrInternal.WithMessage("failed to encode issue").WithCause(err)
	}

	var resp createIssueResponse
	if err := c.do(ctx, "create_issue", http.MethodPost, "/rest/api/3/issue", body, &resp); err != nil {
		return "", err
	}
	return resp.Key, nil
}

func (c *Client) do(ctx context.Context, operation, method, path string, body []byte, out interface{}) error {
	call := func(ctx context.Context) (interface{}, error) {
		return nil, c.roundTrip(ctx, operation, method, path, body, out)
	}

	var err error
	if c.breaker != nil {
		_, err = c.breaker.ExecuteWithContext(ctx, call)
	} else {
		_, err = call(ctx)
	}
	if err == nil {
		return nil
	}

	if _, ok := apperrors.As(err); ok {
		return err
	}
	return apperrors.ErrRemote.WithMessage(fmt.Sprintf("jira %s failed", operation)).WithCause(err)
}

func (c *Client) roundTrip(ctx context.Context, operation, method, path string, body []byte, out interface{}) error {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.SetBasicAuth(c.email, c.apiToken)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.ObserveRemoteRequest("jira", operation, "error", time.Since(start))
		return fmt.Errorf("jira request failed: %w", err)
	}
	defer resp.Body.Close()

	metrics.ObserveRemoteRequest("jira", operation, strconv.Itoa(resp.StatusCode), time.Since(start))

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return c.rejection(operation, resp)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// rejection reads a Jira error body into an APIError. Server errors and
// 429 stay retryable, other statuses are fatal.
func (c *Client) rejection(operation string, resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if len(data) > 0 {
		_ = json.Unmarshal(data, apiErr)
	}

	remote := apperrors.ErrRemote.
		WithMessage(fmt.Sprintf("jira %s rejected", operation)).
		WithCause(apiErr).
		WithDetail("status", resp.StatusCode)
	if len(apiErr.ErrorMessages) > 0 {
		remote = remote.WithDetail("errorMessages", apiErr.ErrorMessages)
	}
	if len(apiErr.Errors) > 0 {
		remote = remote.WithDetail("errors", apiErr.Errors)
	}

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return remote.AsRetryable()
	}
	return remote.AsFatal()
}

// AsAPIError finds the Jira rejection behind err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
