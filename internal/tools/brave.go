package tools

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	bravesearch "github.com/cnosuke/go-brave-search"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxPageBytes = 100 * 1024

// BraveSearcher backs internet_search with the Brave web search API. Brave's
// web endpoint has no topic filter, so Topic is ignored; raw content is
// fetched from each result URL and converted to markdown.
type BraveSearcher struct {
	web  webSearchFunc
	http *http.Client
}

type webResult struct {
	Title       string
	URL         string
	Description string
}

type webSearchFunc func(ctx context.Context, query string, count int) ([]webResult, error)

func NewBrave(apiKey string) (*BraveSearcher, error) {
	client, err := bravesearch.NewClient(apiKey)
	if err != nil {
		return nil, fmt.Errorf("creating brave client: %w", err)
	}
	web := func(ctx context.Context, query string, count int) ([]webResult, error) {
		resp, err := client.WebSearch(ctx, query, &bravesearch.WebSearchParams{Count: count})
		if err != nil {
			return nil, err
		}
		found := resp.GetWebResults()
		out := make([]webResult, 0, len(found))
		for _, r := range found {
			out = append(out, webResult{Title: r.Title, URL: r.URL, Description: r.Description})
		}
		return out, nil
	}
	return &BraveSearcher{
		web: web,
		http: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}, nil
}

func (b *BraveSearcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	if req.Topic != "" && req.Topic != TopicGeneral {
		slog.Debug("brave: topic not supported, ignoring", "topic", req.Topic)
	}

	found, err := b.web(ctx, req.Query, req.MaxResults)
	if err != nil {
		return nil, fmt.Errorf("brave search: %w", err)
	}

	out := &SearchResponse{Query: req.Query, Results: make([]SearchResult, 0, len(found))}
	for _, r := range found {
		res := SearchResult{Title: r.Title, URL: r.URL, Content: r.Description}
		if req.IncludeRawContent {
			md, err := fetchMarkdown(ctx, b.http, r.URL)
			if err != nil {
				slog.Debug("brave: raw content unavailable", "url", r.URL, "error", err)
			}
			res.RawContent = md
		}
		out.Results = append(out.Results, res)
	}
	return out, nil
}

// fetchMarkdown downloads url and converts the HTML body to markdown.
func fetchMarkdown(ctx context.Context, client *http.Client, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", "jobagent/1.0")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetching url: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d %s", resp.StatusCode, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	md, err := htmltomarkdown.ConvertString(string(body))
	if err != nil {
		return "", fmt.Errorf("converting html: %w", err)
	}
	return truncate([]byte(strings.TrimSpace(md))), nil
}
