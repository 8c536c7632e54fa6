// Package mcpclient connects to remote MCP tool servers and exposes the
// tools they advertise as agent tools.
package mcpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"jobagent/internal/agent"
	"jobagent/internal/config"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
)

const clientName = "jobagent"

// Endpoint is one named MCP server.
type Endpoint struct {
	URL       string
	Transport string
	Command   string
	Args      []string
	Env       []string
}

// EndpointsFromConfig converts the [mcp.*] config tables.
func EndpointsFromConfig(servers map[string]*config.MCPServerConfig) map[string]Endpoint {
	out := make(map[string]Endpoint, len(servers))
	for name, s := range servers {
		out[name] = Endpoint{
			URL:       s.URL,
			Transport: s.Transport,
			Command:   s.Command,
			Args:      s.Args,
			Env:       s.Env,
		}
	}
	return out
}

// Client holds one session per endpoint, opened on first use.
type Client struct {
	endpoints map[string]Endpoint
	version   string

	mu       sync.Mutex
	sessions map[string]*client.Client
}

func New(endpoints map[string]Endpoint, version string) *Client {
	return &Client{
		endpoints: endpoints,
		version:   version,
		sessions:  make(map[string]*client.Client),
	}
}

// Tools connects to every endpoint in name order and returns the tools they
// advertise. Any connection or listing failure fails the whole call. An
// endpoint advertising nothing contributes nothing.
func (c *Client) Tools(ctx context.Context) ([]agent.Tool, error) {
	names := make([]string, 0, len(c.endpoints))
	for name := range c.endpoints {
		names = append(names, name)
	}
	slices.Sort(names)

	var out []agent.Tool
	for _, name := range names {
		sess, err := c.session(ctx, name)
		if err != nil {
			return nil, err
		}

		result, err := sess.ListTools(ctx, mcp.ListToolsRequest{})
		if err != nil {
			return nil, fmt.Errorf("mcp server %q: listing tools: %w", name, err)
		}

		for _, t := range result.Tools {
			tool, err := newRemoteTool(name, t, sess)
			if err != nil {
				return nil, fmt.Errorf("mcp server %q: %w", name, err)
			}
			out = append(out, tool)
		}
		slog.Info("mcp: tools discovered", "server", name, "count", len(result.Tools))
	}
	return out, nil
}

func (c *Client) session(ctx context.Context, name string) (*client.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if sess, ok := c.sessions[name]; ok {
		return sess, nil
	}

	ep := c.endpoints[name]
	sess, err := dial(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("mcp server %q: %w", name, err)
	}

	initRequest := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			ClientInfo: mcp.Implementation{
				Name:    clientName,
				Version: c.version,
			},
			Capabilities: mcp.ClientCapabilities{},
		},
	}
	if _, err := sess.Initialize(ctx, initRequest); err != nil {
		sess.Close()
		return nil, fmt.Errorf("mcp server %q: initialize: %w", name, err)
	}

	slog.Debug("mcp: connected", "server", name, "transport", ep.Transport, "url", ep.URL)
	c.sessions[name] = sess
	return sess, nil
}

func dial(ctx context.Context, ep Endpoint) (*client.Client, error) {
	switch ep.Transport {
	case config.TransportStreamableHTTP, "":
		sess, err := client.NewStreamableHttpClient(ep.URL)
		if err != nil {
			return nil, fmt.Errorf("creating streamable http client: %w", err)
		}
		if err := sess.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting streamable http client: %w", err)
		}
		return sess, nil
	case config.TransportSSE:
		sess, err := client.NewSSEMCPClient(ep.URL)
		if err != nil {
			return nil, fmt.Errorf("creating sse client: %w", err)
		}
		if err := sess.Start(ctx); err != nil {
			return nil, fmt.Errorf("starting sse client: %w", err)
		}
		return sess, nil
	case config.TransportStdio:
		sess, err := client.NewStdioMCPClient(ep.Command, ep.Env, ep.Args...)
		if err != nil {
			return nil, fmt.Errorf("starting stdio client: %w", err)
		}
		return sess, nil
	default:
		return nil, fmt.Errorf("unsupported transport type %q", ep.Transport)
	}
}

// Close closes every open session.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs []error
	for name, sess := range c.sessions {
		if err := sess.Close(); err != nil {
			errs = append(errs, fmt.Errorf("mcp server %q: %w", name, err))
		}
	}
	c.sessions = make(map[string]*client.Client)
	return errors.Join(errs...)
}
