// Package tana implements the graph source port against the Tana local
// HTTP API.
package tana

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/domain"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/core/ports/driven"
	"github.com/hectorhvelascot-droid/tana-auto-tagger/internal/logger"
)

// Ensure Client implements the interface.
var _ driven.GraphSource = (*Client)(nil)

// Default configuration values.
const (
	DefaultBaseURL = domain.DefaultGraphURL
	DefaultTimeout = 30 * time.Second

	// DefaultRequestsPerSecond throttles calls to the local API, which
	// shares its event loop with the Tana desktop client.
	DefaultRequestsPerSecond = 4.0

	// DefaultMaxRetries bounds retry attempts for transient failures.
	DefaultMaxRetries = 3

	// retryBaseDelay is the initial backoff delay, doubled per attempt.
	retryBaseDelay = 500 * time.Millisecond
)

// entityDecoder undoes the HTML escaping Tana applies to node titles.
var entityDecoder = strings.NewReplacer(
	"&amp;", "&",
	"&lt;", "<",
	"&gt;", ">",
	"&quot;", `"`,
	"&#39;", "'",
)

// Config holds configuration for the Tana API client.
type Config struct {
	// BaseURL is the Tana local API base URL (default: http://localhost:7360).
	BaseURL string

	// Token is the API bearer token (required).
	Token string

	// WorkspaceID scopes all queries to one workspace (required).
	WorkspaceID string

	// Timeout is the per-request timeout (default: 30s).
	Timeout time.Duration

	// RequestsPerSecond is the proactive throttle rate (default: 4).
	RequestsPerSecond float64

	// MaxRetries bounds retries for transient failures (default: 3).
	MaxRetries int
}

// Client talks to the Tana local API over HTTP.
type Client struct {
	client      *http.Client
	baseURL     string
	token       string
	workspaceID string
	limiter     *rate.Limiter
	maxRetries  int
}

// NewClient creates a new Tana API client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.Token == "" {
		return nil, fmt.Errorf("tana: API token is required: %w", domain.ErrConfiguration)
	}
	if cfg.WorkspaceID == "" {
		return nil, fmt.Errorf("tana: workspace ID is required: %w", domain.ErrConfiguration)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = DefaultRequestsPerSecond
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = DefaultMaxRetries
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		token:       cfg.Token,
		workspaceID: cfg.WorkspaceID,
		limiter:     rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		maxRetries:  cfg.MaxRetries,
	}, nil
}

// tagDTO is the wire format for a supertag.
type tagDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// nodeDTO is the wire format for a node search hit.
type nodeDTO struct {
	ID         string   `json:"id"`
	Name       string   `json:"name"`
	Content    string   `json:"content,omitempty"`
	Breadcrumb []string `json:"breadcrumb,omitempty"`
	ParentID   string   `json:"parentId,omitempty"`
	HasTag     bool     `json:"hasTag"`
	Created    string   `json:"created,omitempty"`
}

// searchRequest is the node search query body.
type searchRequest struct {
	WorkspaceID   string `json:"workspaceId"`
	CreatedAfter  string `json:"createdAfter"`
	CreatedBefore string `json:"createdBefore"`
	UntaggedOnly  bool   `json:"untaggedOnly"`
}

// FetchLabels returns the full supertag catalog for the workspace.
func (c *Client) FetchLabels(ctx context.Context) ([]domain.Label, error) {
	var out struct {
		Tags []tagDTO `json:"tags"`
	}
	path := fmt.Sprintf("/v1/workspaces/%s/tags", c.workspaceID)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch labels: %w", err)
	}

	labels := make([]domain.Label, 0, len(out.Tags))
	for _, t := range out.Tags {
		if t.ID == "" {
			continue
		}
		labels = append(labels, domain.Label{
			ID:          t.ID,
			Name:        entityDecoder.Replace(t.Name),
			Description: entityDecoder.Replace(t.Description),
		})
	}
	logger.Debug("tana: fetched %d tags", len(labels))
	return labels, nil
}

// FetchUntaggedNotes returns untagged notes created inside the window.
func (c *Client) FetchUntaggedNotes(ctx context.Context, window driven.SyncWindow) ([]domain.Note, error) {
	req := searchRequest{
		WorkspaceID:   c.workspaceID,
		CreatedAfter:  window.From.UTC().Format(time.RFC3339),
		CreatedBefore: window.To.UTC().Format(time.RFC3339),
		UntaggedOnly:  true,
	}
	var out struct {
		Nodes []nodeDTO `json:"nodes"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/v1/nodes/search", req, &out); err != nil {
		return nil, fmt.Errorf("search untagged notes: %w", err)
	}

	notes := make([]domain.Note, 0, len(out.Nodes))
	for _, n := range out.Nodes {
		if n.ID == "" {
			continue
		}
		note := domain.Note{
			ID:      n.ID,
			Title:   entityDecoder.Replace(n.Name),
			Content: entityDecoder.Replace(n.Content),
			HasTag:  n.HasTag,
		}
		for _, crumb := range n.Breadcrumb {
			note.Breadcrumb = append(note.Breadcrumb, entityDecoder.Replace(crumb))
		}
		if n.ParentID != "" {
			parent := n.ParentID
			note.ParentID = &parent
		}
		if n.Created != "" {
			if ts, err := time.Parse(time.RFC3339, n.Created); err == nil {
				note.Created = ts
			}
		}
		notes = append(notes, note)
	}
	logger.Debug("tana: fetched %d untagged notes (%d day window)", len(notes), window.Days())
	return notes, nil
}

// ApplyLabel attaches a supertag to a node.
func (c *Client) ApplyLabel(ctx context.Context, noteID, labelID string) error {
	body := struct {
		TagID string `json:"tagId"`
	}{TagID: labelID}
	path := fmt.Sprintf("/v1/nodes/%s/tags", noteID)
	if err := c.doJSON(ctx, http.MethodPost, path, body, nil); err != nil {
		return fmt.Errorf("apply tag %s to node %s: %w", labelID, noteID, err)
	}
	return nil
}

// Ping validates the API is reachable and the token is accepted.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodGet, "/v1/ping", nil, nil); err != nil {
		return fmt.Errorf("tana ping: %w", err)
	}
	return nil
}

// Close releases resources.
func (c *Client) Close() error {
	return nil
}

// doJSON performs a request with throttling and bounded retries. Transient
// failures (network errors, 429, 5xx) are retried with exponential backoff;
// when retries are exhausted the error wraps domain.ErrSourceUnavailable.
func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) error {
	var payload []byte
	if in != nil {
		var err error
		payload, err = json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := backoffDelay(attempt, lastErr)
			logger.Debug("tana: retry %d/%d for %s %s after %s", attempt, c.maxRetries, method, path, delay)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		retryable, err := c.attempt(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		if !retryable {
			return err
		}
		lastErr = err
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w: %w",
		method, path, c.maxRetries+1, domain.ErrSourceUnavailable, lastErr)
}

// attempt performs a single request. The bool reports whether the failure
// is transient and worth retrying.
func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, out any) (bool, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return false, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		return true, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		raw, _ := io.ReadAll(resp.Body)
		return true, &transientError{
			status:     resp.StatusCode,
			body:       strings.TrimSpace(string(raw)),
			retryAfter: parseRetryAfter(resp),
		}
	case resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusNoContent:
		raw, _ := io.ReadAll(resp.Body)
		return false, fmt.Errorf("tana error (status %d): %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return false, fmt.Errorf("decode response: %w", err)
		}
	}
	return false, nil
}

// transientError carries retry hints from a 429/5xx response.
type transientError struct {
	status     int
	body       string
	retryAfter time.Duration
}

func (e *transientError) Error() string {
	if e.body == "" {
		return fmt.Sprintf("tana error (status %d)", e.status)
	}
	return fmt.Sprintf("tana error (status %d): %s", e.status, e.body)
}

// backoffDelay computes the wait before the given retry attempt, honoring
// a server-provided Retry-After when one is larger.
func backoffDelay(attempt int, lastErr error) time.Duration {
	delay := time.Duration(float64(retryBaseDelay) * math.Pow(2, float64(attempt-1)))
	if te, ok := lastErr.(*transientError); ok && te.retryAfter > delay {
		delay = te.retryAfter
	}
	return delay
}

func parseRetryAfter(resp *http.Response) time.Duration {
	header := resp.Header.Get("Retry-After")
	if header == "" {
		return 0
	}
	seconds, err := strconv.Atoi(header)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
