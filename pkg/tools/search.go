// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jllopis/autoagents/pkg/errors"
)

const (
	// SearchToolName is the canonical name of the web search tool.
	SearchToolName = "WebSearch"

	defaultSerpAPIEndpoint = "https://serpapi.com/search"
)

// SearchAliases are names role specs commonly use for web search.
var SearchAliases = []string{"SearchAndSummarize", "Search", "search_engine"}

// SearchResult is one organic result.
type SearchResult struct {
	Title   string `json:"title"`
	Link    string `json:"link"`
	Snippet string `json:"snippet"`
}

// SerpAPI queries Google through serpapi.com.
type SerpAPI struct {
	apiKey   string
	endpoint string
	limit    int
	client   *http.Client
}

// SerpAPIOption configures SerpAPI.
type SerpAPIOption func(*SerpAPI)

// WithEndpoint overrides the API endpoint.
func WithEndpoint(endpoint string) SerpAPIOption {
	return func(s *SerpAPI) { s.endpoint = endpoint }
}

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) SerpAPIOption {
	return func(s *SerpAPI) { s.client = c }
}

// WithLimit caps the number of results rendered.
func WithLimit(n int) SerpAPIOption {
	return func(s *SerpAPI) {
		if n > 0 {
			s.limit = n
		}
	}
}

// NewSerpAPI creates the search tool.
func NewSerpAPI(apiKey string, opts ...SerpAPIOption) *SerpAPI {
	s := &SerpAPI{
		apiKey:   apiKey,
		endpoint: defaultSerpAPIEndpoint,
		limit:    8,
		client:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Name implements core.Tool.
func (s *SerpAPI) Name() string { return SearchToolName }

// Call runs a search. input is the query string, or a map with a "query" key.
// The result is a plain-text digest of the organic results.
func (s *SerpAPI) Call(ctx context.Context, input any) (any, error) {
	query := queryFrom(input)
	if query == "" {
		return nil, errors.New(errors.CodeInvalidInput, "search query is empty", nil)
	}
	results, err := s.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return Digest(results), nil
}

// Search returns the organic results for query.
func (s *SerpAPI) Search(ctx context.Context, query string) ([]SearchResult, error) {
	params := url.Values{}
	params.Set("engine", "google")
	params.Set("q", query)
	params.Set("api_key", s.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, errors.New(errors.CodeToolFailure, "build search request", err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, errors.New(errors.CodeToolFailure, "search request failed", err).
			WithRecoverable(true)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, errors.New(errors.CodeToolFailure, fmt.Sprintf("search returned status %d", resp.StatusCode), nil).
			WithContext("body", string(body))
	}

	var payload struct {
		Organic []SearchResult `json:"organic_results"`
		Error   string         `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.New(errors.CodeToolFailure, "decode search response", err)
	}
	if payload.Error != "" {
		return nil, errors.New(errors.CodeToolFailure, "search error: "+payload.Error, nil)
	}
	if len(payload.Organic) > s.limit {
		payload.Organic = payload.Organic[:s.limit]
	}
	return payload.Organic, nil
}

// Digest renders results as a numbered list the completion backend can read.
func Digest(results []SearchResult) string {
	if len(results) == 0 {
		return "No results."
	}
	var b strings.Builder
	for i, r := range results {
		fmt.Fprintf(&b, "%d. %s\n   %s\n   %s\n", i+1, r.Title, r.Link, r.Snippet)
	}
	return strings.TrimRight(b.String(), "\n")
}

func queryFrom(input any) string {
	switch v := input.(type) {
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		if q, ok := v["query"].(string); ok {
			return strings.TrimSpace(q)
		}
	}
	return ""
}
