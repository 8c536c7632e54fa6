package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const defaultTavilyURL = "https://api.tavily.com"

// TavilySearcher calls the Tavily search REST API.
type TavilySearcher struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewTavily returns a Tavily backend. An empty baseURL targets the public
// API; a nil client gets an instrumented default.
func NewTavily(apiKey, baseURL string, client *http.Client) *TavilySearcher {
	if baseURL == "" {
		baseURL = defaultTavilyURL
	}
	if client == nil {
		client = &http.Client{
			Timeout:   60 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	return &TavilySearcher{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
	}
}

type tavilyRequest struct {
	Query             string `json:"query"`
	MaxResults        int    `json:"max_results"`
	Topic             string `json:"topic"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

type tavilyResponse struct {
	Query   string `json:"query"`
	Results []struct {
		Title      string  `json:"title"`
		URL        string  `json:"url"`
		Content    string  `json:"content"`
		Score      float64 `json:"score"`
		RawContent *string `json:"raw_content"`
	} `json:"results"`
}

func (t *TavilySearcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:             req.Query,
		MaxResults:        req.MaxResults,
		Topic:             string(req.Topic),
		IncludeRawContent: req.IncludeRawContent,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("tavily search: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tavily search: HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var tr tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return nil, fmt.Errorf("tavily search: decoding response: %w", err)
	}

	out := &SearchResponse{Query: tr.Query, Results: make([]SearchResult, 0, len(tr.Results))}
	if out.Query == "" {
		out.Query = req.Query
	}
	for _, r := range tr.Results {
		res := SearchResult{Title: r.Title, URL: r.URL, Content: r.Content, Score: r.Score}
		if r.RawContent != nil {
			res.RawContent = *r.RawContent
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}
