package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
)

// InternetSearchName is the tool name the career advisor is granted.
const InternetSearchName = "internet_search"

const (
	defaultMaxResults = 5
	maxMaxResults     = 20
)

type Topic string

const (
	TopicGeneral Topic = "general"
	TopicNews    Topic = "news"
	TopicFinance Topic = "finance"
)

func (t Topic) valid() bool {
	switch t {
	case TopicGeneral, TopicNews, TopicFinance:
		return true
	}
	return false
}

type SearchRequest struct {
	Query             string
	MaxResults        int
	Topic             Topic
	IncludeRawContent bool
}

type SearchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	Score      float64 `json:"score,omitempty"`
	RawContent string  `json:"raw_content,omitempty"`
}

type SearchResponse struct {
	Query   string         `json:"query"`
	Results []SearchResult `json:"results"`
}

// Searcher is a web search backend.
type Searcher interface {
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// InternetSearch exposes a Searcher as the internet_search tool. Backend
// errors are returned wrapped; there is no retry or caching.
type InternetSearch struct {
	searcher Searcher
}

func NewInternetSearch(s Searcher) *InternetSearch {
	return &InternetSearch{searcher: s}
}

func (s *InternetSearch) Name() string        { return InternetSearchName }
func (s *InternetSearch) Description() string { return "Run a web search" }

func (s *InternetSearch) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{
				"type":        "string",
				"description": "Search query",
			},
			"max_results": map[string]any{
				"type":        "integer",
				"description": "Number of results to return (default 5, max 20)",
			},
			"topic": map[string]any{
				"type":        "string",
				"enum":        []string{string(TopicGeneral), string(TopicNews), string(TopicFinance)},
				"description": "Search category",
			},
			"include_raw_content": map[string]any{
				"type":        "boolean",
				"description": "Include the full page content of each result",
			},
		},
		"required":             []string{"query", "max_results", "topic", "include_raw_content"},
		"additionalProperties": false,
	}
}

func (s *InternetSearch) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Query             string `json:"query"`
		MaxResults        int    `json:"max_results"`
		Topic             Topic  `json:"topic"`
		IncludeRawContent bool   `json:"include_raw_content"`
	}
	if err := decodeArgs(InternetSearchName, input, &args); err != nil {
		return "", err
	}

	req, err := normalize(SearchRequest{
		Query:             args.Query,
		MaxResults:        args.MaxResults,
		Topic:             args.Topic,
		IncludeRawContent: args.IncludeRawContent,
	})
	if err != nil {
		return "", err
	}

	slog.Debug("search: query", "query", req.Query, "max_results", req.MaxResults, "topic", req.Topic)

	resp, err := s.searcher.Search(ctx, req)
	if err != nil {
		return "", err
	}

	out, err := json.Marshal(resp)
	if err != nil {
		return "", fmt.Errorf("encoding search results: %w", err)
	}
	slog.Debug("search: done", "query", req.Query, "results", len(resp.Results))
	return string(out), nil
}

func normalize(req SearchRequest) (SearchRequest, error) {
	if req.Query == "" {
		return req, fmt.Errorf("query is required")
	}
	if req.MaxResults <= 0 {
		req.MaxResults = defaultMaxResults
	}
	if req.MaxResults > maxMaxResults {
		req.MaxResults = maxMaxResults
	}
	if req.Topic == "" {
		req.Topic = TopicGeneral
	}
	if !req.Topic.valid() {
		return req, fmt.Errorf("unknown topic %q: want general, news or finance", req.Topic)
	}
	return req, nil
}
