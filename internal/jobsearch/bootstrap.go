package jobsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"jobagent/internal/agent"
	"jobagent/internal/config"
	"jobagent/internal/llm"
	"jobagent/internal/mcpclient"
	"jobagent/internal/tools"
)

// ToolProvider discovers remote tools. The MCP client is the default.
type ToolProvider interface {
	Tools(ctx context.Context) ([]agent.Tool, error)
	Close() error
}

type options struct {
	toolProvider ToolProvider
	provider     llm.Provider
	searcher     tools.Searcher
	history      agent.History
	version      string
}

type Option func(*options)

func WithToolProvider(p ToolProvider) Option {
	return func(o *options) { o.toolProvider = p }
}

func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

func WithSearcher(s tools.Searcher) Option {
	return func(o *options) { o.searcher = s }
}

func WithHistory(h agent.History) Option {
	return func(o *options) { o.history = h }
}

// WithVersion sets the client version reported to MCP servers.
func WithVersion(v string) Option {
	return func(o *options) { o.version = v }
}

// Bootstrap validates cfg, discovers the remote tools and builds the
// assistant. The model credential is checked before any network call; a
// discovery failure aborts the bootstrap.
func Bootstrap(ctx context.Context, cfg *config.Config, opts ...Option) (*Assistant, error) {
	o := options{version: "dev"}
	for _, opt := range opts {
		opt(&o)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	llmCfg, err := cfg.LLM()
	if err != nil {
		return nil, err
	}

	if o.provider == nil {
		o.provider = llm.NewOpenAI(llmCfg.BaseURL, llmCfg.APIKey, llmCfg.Model)
	}
	if o.toolProvider == nil {
		o.toolProvider = mcpclient.New(mcpclient.EndpointsFromConfig(cfg.MCP), o.version)
	}
	if o.searcher == nil {
		o.searcher = newSearcher(cfg.Search)
	}

	remote, err := o.toolProvider.Tools(ctx)
	if err != nil {
		return nil, closeOnError(o.toolProvider, fmt.Errorf("discovering remote tools: %w", err))
	}
	slog.Info("remote tools discovered", "count", len(remote))

	spec, err := NewOrchestratorSpec(tools.NewInternetSearch(o.searcher), remote, llmCfg.Model, cfg.RecursionLimit)
	if err != nil {
		return nil, closeOnError(o.toolProvider, err)
	}

	a, err := Build(spec, Runtime{
		Provider:  o.provider,
		History:   o.history,
		Workspace: tools.NewWorkspace(cfg.Workspace.Dir),
		Todos:     tools.NewTodos(),
	})
	if err != nil {
		return nil, closeOnError(o.toolProvider, err)
	}
	a.closers = append(a.closers, o.toolProvider.Close)
	return a, nil
}

// closeOnError closes p after a failed bootstrap and joins any close error
// to err.
func closeOnError(p ToolProvider, err error) error {
	if cerr := p.Close(); cerr != nil {
		return errors.Join(err, fmt.Errorf("closing tool provider: %w", cerr))
	}
	return err
}

// newSearcher picks the configured backend. The search key is not validated
// up front; a missing key surfaces as a tool error when the search runs.
func newSearcher(cfg config.SearchConfig) tools.Searcher {
	switch cfg.Provider {
	case "brave":
		b, err := tools.NewBrave(cfg.APIKey)
		if err != nil {
			slog.Warn("brave search unavailable", "error", err)
			return unavailableSearcher{err: err}
		}
		return b
	default:
		if cfg.APIKey == "" {
			slog.Warn("TAVILY_API_KEY not set; internet_search calls will fail")
		}
		return tools.NewTavily(cfg.APIKey, cfg.BaseURL, nil)
	}
}

type unavailableSearcher struct{ err error }

func (u unavailableSearcher) Search(context.Context, tools.SearchRequest) (*tools.SearchResponse, error) {
	return nil, u.err
}
