// Package llmtest provides scripted llm.Provider implementations for tests.
package llmtest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/openai/openai-go/v3/responses"
)

// Text returns a JSON output item holding an assistant message.
func Text(id, text string) string {
	b, _ := json.Marshal(text)
	return fmt.Sprintf(`{"type":"message","id":%q,"role":"assistant","status":"completed","content":[{"type":"output_text","text":%s,"annotations":[]}]}`, id, b)
}

// Call returns a JSON output item holding a function call.
func Call(callID, name, arguments string) string {
	b, _ := json.Marshal(arguments)
	return fmt.Sprintf(`{"type":"function_call","id":"fc_%s","call_id":%q,"name":%q,"arguments":%s,"status":"completed"}`, callID, callID, name, b)
}

// Response decodes output items into a completed response.
func Response(items ...string) *responses.Response {
	raw := `{"id":"resp_test","object":"response","created_at":1,"model":"gpt-4o-mini","status":"completed","output":[` +
		strings.Join(items, ",") + `]}`
	var resp responses.Response
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		panic(fmt.Sprintf("llmtest: bad response fixture: %v", err))
	}
	return &resp
}

// Request is one recorded ChatStream call.
type Request struct {
	Input []responses.ResponseInputItemUnionParam
	Tools []string
}

// Developer returns the first developer message of the request, which is
// where runners place their system prompt.
func (r Request) Developer() string {
	for _, item := range r.Input {
		if m := item.OfMessage; m != nil && m.Role == "developer" {
			return m.Content.OfString.Value
		}
	}
	return ""
}

// Scripted answers each call with Handle, or pops Queue when Handle is nil.
type Scripted struct {
	Handle func(req Request) (*responses.Response, error)
	Queue  []*responses.Response

	mu       sync.Mutex
	requests []Request
}

func (s *Scripted) ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error) {
	req := Request{Input: input}
	for _, t := range tools {
		if t.OfFunction != nil {
			req.Tools = append(req.Tools, t.OfFunction.Name)
		}
	}

	s.mu.Lock()
	s.requests = append(s.requests, req)
	var resp *responses.Response
	var err error
	switch {
	case s.Handle != nil:
		s.mu.Unlock()
		resp, err = s.Handle(req)
	case len(s.Queue) > 0:
		resp = s.Queue[0]
		s.Queue = s.Queue[1:]
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		return nil, fmt.Errorf("llmtest: no scripted response for call %d", len(s.requests))
	}
	if err != nil {
		return nil, err
	}

	if onToken != nil {
		if text := resp.OutputText(); text != "" {
			onToken(text)
		}
	}
	return resp, nil
}

// Requests returns the calls received so far.
func (s *Scripted) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}
