// Package search talks to the hosted documentation search/summarization API.
package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/liliang-cn/doc0/internal/domain"
	"go.uber.org/zap"
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search API returned status %d", e.StatusCode)
}

// Client handles communication with the search API
type Client struct {
	endpoint     string
	docsEndpoint string
	httpClient   *http.Client
	logger       *zap.Logger
}

// Options configures a Client.
type Options struct {
	Endpoint     string
	DocsEndpoint string
	// Timeout of zero leaves the transport default in place.
	Timeout    time.Duration
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewClient creates a new search API client
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:     opts.Endpoint,
		docsEndpoint: opts.DocsEndpoint,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Query asks the API to search one collection and summarize the hits.
// Exactly one request is made; there are no retries.
func (c *Client) Query(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	var resp domain.SearchResponse
	if err := c.post(ctx, c.endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// SearchDocs is the marketing-site search. Failures are logged and reported
// as an empty result set.
func (c *Client) SearchDocs(ctx context.Context, query string, nResults int) *domain.DocSearchResponse {
	var resp domain.DocSearchResponse
	err := c.post(ctx, c.docsEndpoint, domain.DocSearchRequest{Query: query, NResults: nResults}, &resp)
	if err != nil {
		c.logger.Error("Error searching documentation", zap.String("query", query), zap.Error(err))
		return &domain.DocSearchResponse{Results: []domain.DocSearchResult{}}
	}
	if resp.Results == nil {
		resp.Results = []domain.DocSearchResult{}
	}
	return &resp
}

func (c *Client) post(ctx context.Context, endpoint string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	c.logger.Debug("Search API responded",
		zap.String("endpoint", endpoint),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse search response: %w", err)
	}
	return nil
}
