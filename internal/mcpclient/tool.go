package mcpclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

type caller interface {
	CallTool(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// remoteTool forwards calls to the MCP server that advertised it.
type remoteTool struct {
	server string
	tool   mcp.Tool
	schema map[string]any
	caller caller
}

func newRemoteTool(server string, t mcp.Tool, c caller) (*remoteTool, error) {
	schema, err := schemaOf(t)
	if err != nil {
		return nil, fmt.Errorf("tool %q: %w", t.Name, err)
	}
	return &remoteTool{server: server, tool: t, schema: schema, caller: c}, nil
}

func (r *remoteTool) Name() string        { return r.tool.Name }
func (r *remoteTool) Description() string { return r.tool.Description }
func (r *remoteTool) InputSchema() any    { return r.schema }

// Remote schemas rarely mark every property required, which strict mode needs.
func (r *remoteTool) StrictSchema() bool { return false }

// Server is the name of the endpoint the tool came from.
func (r *remoteTool) Server() string { return r.server }

func (r *remoteTool) Execute(ctx context.Context, input string) (string, error) {
	var args map[string]any
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("parsing %s input: %w", r.tool.Name, err)
		}
	}

	result, err := r.caller.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      r.tool.Name,
			Arguments: args,
		},
	})
	if err != nil {
		return "", fmt.Errorf("mcp server %q: calling %s: %w", r.server, r.tool.Name, err)
	}

	text := contentText(result.Content)
	if result.IsError {
		if text == "" {
			text = "tool reported an error"
		}
		return "", errors.New(text)
	}
	return text, nil
}

func contentText(contents []mcp.Content) string {
	parts := make([]string, 0, len(contents))
	for _, c := range contents {
		switch v := c.(type) {
		case mcp.TextContent:
			parts = append(parts, v.Text)
		case *mcp.TextContent:
			parts = append(parts, v.Text)
		default:
			raw, err := json.Marshal(v)
			if err == nil {
				parts = append(parts, string(raw))
			}
		}
	}
	return strings.Join(parts, "\n")
}

// schemaOf returns the tool's input schema as a JSON object map, always with
// a properties member. Anything but an object schema is rejected.
func schemaOf(t mcp.Tool) (map[string]any, error) {
	var raw []byte
	if len(t.RawInputSchema) > 0 {
		raw = t.RawInputSchema
	} else {
		var err error
		if raw, err = json.Marshal(t.InputSchema); err != nil {
			return nil, fmt.Errorf("encoding input schema: %w", err)
		}
	}

	var schema map[string]any
	if err := json.Unmarshal(raw, &schema); err != nil {
		return nil, fmt.Errorf("malformed input schema: %w", err)
	}
	if schema == nil {
		schema = map[string]any{}
	}
	switch typ := schema["type"]; typ {
	case nil, "":
		schema["type"] = "object"
	case "object":
	default:
		return nil, fmt.Errorf("input schema type %v, want object", typ)
	}
	if _, ok := schema["properties"]; !ok {
		schema["properties"] = map[string]any{}
	}
	return schema, nil
}
