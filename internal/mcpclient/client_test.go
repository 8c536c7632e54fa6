package mcpclient

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func newScraper(t *testing.T, tools ...string) string {
	t.Helper()

	s := server.NewMCPServer("linkedin_scraper", "1.0.0", server.WithToolCapabilities(false))
	for _, name := range tools {
		s.AddTool(mcp.NewTool(name,
			mcp.WithDescription("Scrapes "+name),
			mcp.WithString("keywords", mcp.Required(), mcp.Description("Search keywords")),
		), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			keywords, err := req.RequireString("keywords")
			if err != nil {
				return nil, err
			}
			if keywords == "fail" {
				return &mcp.CallToolResult{
					Content: []mcp.Content{mcp.TextContent{Type: "text", Text: "rate limited"}},
					IsError: true,
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{
					mcp.TextContent{Type: "text", Text: fmt.Sprintf("%s: %s", name, keywords)},
					mcp.TextContent{Type: "text", Text: "done"},
				},
			}, nil
		})
	}

	ts := httptest.NewServer(server.NewStreamableHTTPServer(s))
	t.Cleanup(ts.Close)
	return ts.URL + "/mcp"
}

func TestToolsDiscoversInServerOrder(t *testing.T) {
	c := New(map[string]Endpoint{
		"zeta":  {URL: newScraper(t, "get_company"), Transport: "streamable_http"},
		"alpha": {URL: newScraper(t, "search_jobs", "get_job_details"), Transport: "streamable_http"},
	}, "test")
	defer c.Close()

	tools, err := c.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("got %d tools, want 3", len(tools))
	}
	if got := tools[len(tools)-1].Name(); got != "get_company" {
		t.Errorf("last tool = %q, want the zeta server's get_company", got)
	}
	for _, tool := range tools[:2] {
		if s := tool.(*remoteTool).Server(); s != "alpha" {
			t.Errorf("tool %q from server %q, want alpha first", tool.Name(), s)
		}
	}
}

func TestRemoteToolExecute(t *testing.T) {
	c := New(map[string]Endpoint{
		"linkedin_scraper": {URL: newScraper(t, "search_jobs"), Transport: "streamable_http"},
	}, "test")
	defer c.Close()

	tools, err := c.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	tool := tools[0]

	schema, ok := tool.InputSchema().(map[string]any)
	if !ok {
		t.Fatalf("schema type = %T", tool.InputSchema())
	}
	props, _ := schema["properties"].(map[string]any)
	if _, ok := props["keywords"]; !ok {
		t.Errorf("schema missing keywords property: %v", schema)
	}

	out, err := tool.Execute(context.Background(), `{"keywords":"golang"}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if out != "search_jobs: golang\ndone" {
		t.Errorf("output = %q", out)
	}

	_, err = tool.Execute(context.Background(), `{"keywords":"fail"}`)
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Errorf("Execute error = %v, want rate limited", err)
	}
}

func TestToolsEmptyServer(t *testing.T) {
	c := New(map[string]Endpoint{
		"empty": {URL: newScraper(t), Transport: "streamable_http"},
	}, "test")
	defer c.Close()

	tools, err := c.Tools(context.Background())
	if err != nil {
		t.Fatalf("Tools: %v", err)
	}
	if len(tools) != 0 {
		t.Errorf("got %d tools, want 0", len(tools))
	}
}

func TestToolsFailsWhenAnyServerUnreachable(t *testing.T) {
	ts := httptest.NewServer(nil)
	dead := ts.URL + "/mcp"
	ts.Close()

	c := New(map[string]Endpoint{
		"alpha": {URL: newScraper(t, "search_jobs"), Transport: "streamable_http"},
		"beta":  {URL: dead, Transport: "streamable_http"},
	}, "test")
	defer c.Close()

	tools, err := c.Tools(context.Background())
	if err == nil {
		t.Fatal("Tools() error = nil, want connection failure")
	}
	if tools != nil {
		t.Errorf("tools = %v, want nil on failure", tools)
	}
	if !strings.Contains(err.Error(), `"beta"`) {
		t.Errorf("error %q does not name the failing server", err)
	}
}

func TestUnsupportedTransport(t *testing.T) {
	c := New(map[string]Endpoint{
		"ws": {URL: "ws://localhost:1/mcp", Transport: "websocket"},
	}, "test")
	if _, err := c.Tools(context.Background()); err == nil {
		t.Fatal("Tools() error = nil, want unsupported transport")
	}
}

type fakeCaller struct {
	req    mcp.CallToolRequest
	result *mcp.CallToolResult
}

func (f *fakeCaller) CallTool(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	f.req = req
	return f.result, nil
}

func TestRemoteToolEmptyInput(t *testing.T) {
	fc := &fakeCaller{result: &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Type: "text", Text: "ok"}},
	}}
	tool, err := newRemoteTool("s", mcp.NewTool("ping"), fc)
	if err != nil {
		t.Fatalf("newRemoteTool: %v", err)
	}

	out, err := tool.Execute(context.Background(), "")
	if err != nil || out != "ok" {
		t.Fatalf("Execute = %q, %v", out, err)
	}
	if fc.req.Params.Name != "ping" {
		t.Errorf("called %q, want ping", fc.req.Params.Name)
	}
	if tool.StrictSchema() {
		t.Error("remote tools must not use strict schemas")
	}
}

func TestSchemaOf(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"object without properties", `{"type":"object"}`, false},
		{"missing type", `{"properties":{"q":{"type":"string"}}}`, false},
		{"not json", `{"type":`, true},
		{"array", `[1,2]`, true},
		{"string type", `{"type":"string"}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			schema, err := schemaOf(mcp.NewToolWithRawSchema("raw", "raw schema", []byte(tt.raw)))
			if tt.wantErr {
				if err == nil {
					t.Fatalf("schemaOf() = %v, want error", schema)
				}
				return
			}
			if err != nil {
				t.Fatalf("schemaOf: %v", err)
			}
			if schema["type"] != "object" {
				t.Errorf("type = %v, want object", schema["type"])
			}
			if _, ok := schema["properties"]; !ok {
				t.Errorf("schema = %v, want properties filled in", schema)
			}
		})
	}
}

func TestToolsRejectsMalformedSchema(t *testing.T) {
	s := server.NewMCPServer("scalar", "1.0.0", server.WithToolCapabilities(false))
	s.AddTool(mcp.NewToolWithRawSchema("scalar_input", "takes a bare string", []byte(`{"type":"string"}`)),
		func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return mcp.NewToolResultText("unused"), nil
		})
	ts := httptest.NewServer(server.NewStreamableHTTPServer(s))
	defer ts.Close()

	c := New(map[string]Endpoint{
		"scalar": {URL: ts.URL + "/mcp", Transport: "streamable_http"},
	}, "test")
	defer c.Close()

	tools, err := c.Tools(context.Background())
	if err == nil || !strings.Contains(err.Error(), "scalar_input") {
		t.Fatalf("Tools() = %d tools, %v; want schema error naming scalar_input", len(tools), err)
	}
}
