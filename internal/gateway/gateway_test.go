package gateway

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"jobagent/internal/agent"
	"jobagent/internal/jobsearch"
	"jobagent/internal/llm/llmtest"
	"jobagent/internal/tools"

	"github.com/openai/openai-go/v3/responses"
)

type nopTool struct{ name string }

func (n nopTool) Name() string        { return n.name }
func (n nopTool) Description() string { return n.name }
func (n nopTool) InputSchema() any {
	return map[string]any{"type": "object", "properties": map[string]any{}}
}
func (n nopTool) Execute(context.Context, string) (string, error) { return "ok", nil }

type staticSessions []string

func (s staticSessions) Sessions(context.Context) ([]string, error) { return s, nil }

func newTestServer(t *testing.T, provider *llmtest.Scripted) (*httptest.Server, *jobsearch.Assistant) {
	t.Helper()
	spec, err := jobsearch.NewOrchestratorSpec(nopTool{tools.InternetSearchName}, []agent.Tool{nopTool{"search_jobs"}}, "gpt-4o-mini", 10)
	if err != nil {
		t.Fatal(err)
	}
	a, err := jobsearch.Build(spec, jobsearch.Runtime{
		Provider:  provider,
		Workspace: tools.NewWorkspace(t.TempDir()),
		Todos:     tools.NewTodos(),
	})
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(NewServer(a, staticSessions{"s1"}).Handler())
	t.Cleanup(ts.Close)
	return ts, a
}

func TestChatStreamsEvents(t *testing.T) {
	provider := &llmtest.Scripted{Queue: []*responses.Response{
		llmtest.Response(llmtest.Call("c1", "write_file", `{"file_path":"job_search_results.md","content":"# Jobs"}`)),
		llmtest.Response(llmtest.Text("m1", "Results written")),
	}}
	ts, _ := newTestServer(t, provider)

	resp, err := http.Post(ts.URL+"/v1/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"find go jobs"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}
	body := readAll(t, resp)
	for _, want := range []string{"event: tool_call", "event: tool_result", "event: token", `event: done` + "\n" + `data: {"content":"Results written"}`} {
		if !strings.Contains(body, want) {
			t.Errorf("stream missing %q:\n%s", want, body)
		}
	}

	file, err := http.Get(ts.URL + "/v1/sessions/s1/files/job_search_results.md")
	if err != nil {
		t.Fatal(err)
	}
	defer file.Body.Close()
	if file.StatusCode != http.StatusOK || !strings.HasPrefix(file.Header.Get("Content-Type"), "text/markdown") {
		t.Errorf("file status = %d, type = %q", file.StatusCode, file.Header.Get("Content-Type"))
	}
	if got := readAll(t, file); got != "# Jobs" {
		t.Errorf("file body = %q", got)
	}
}

func TestChatValidation(t *testing.T) {
	ts, _ := newTestServer(t, &llmtest.Scripted{})
	for _, body := range []string{`not json`, `{"session_id":"s1"}`, `{"message":"hi"}`} {
		resp, err := http.Post(ts.URL+"/v1/chat", "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", body, resp.StatusCode)
		}
	}
}

func TestChatReportsRunError(t *testing.T) {
	ts, _ := newTestServer(t, &llmtest.Scripted{})
	resp, err := http.Post(ts.URL+"/v1/chat", "application/json",
		strings.NewReader(`{"session_id":"s1","message":"hi"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if body := readAll(t, resp); !strings.Contains(body, "event: error") {
		t.Errorf("stream has no error event:\n%s", body)
	}
}

func TestAgents(t *testing.T) {
	ts, _ := newTestServer(t, &llmtest.Scripted{})
	resp, err := http.Get(ts.URL + "/v1/agents")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var got agentsResponse
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatal(err)
	}
	if got.Model != "gpt-4o-mini" || got.RecursionLimit != 10 {
		t.Errorf("unexpected agents response: %+v", got)
	}
	if strings.Join(got.Tools, ",") != "internet_search,search_jobs" {
		t.Errorf("tools = %v", got.Tools)
	}
	if len(got.SubAgents) != 2 {
		t.Errorf("sub agents = %+v", got.SubAgents)
	}
}

func TestSessionsFilesAndCancel(t *testing.T) {
	ts, a := newTestServer(t, &llmtest.Scripted{})

	dir := filepath.Join(a.Workspace().Root(), "s2")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "search_criteria.txt"), []byte("go"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		method, path string
		status       int
		contains     string
	}{
		{http.MethodGet, "/v1/sessions", http.StatusOK, `"s1"`},
		{http.MethodGet, "/v1/sessions/s2/files", http.StatusOK, "search_criteria.txt"},
		{http.MethodGet, "/v1/sessions/s2/files/missing.md", http.StatusNotFound, "file not found"},
		{http.MethodGet, "/v1/sessions/s2/todos", http.StatusOK, "todos"},
		{http.MethodDelete, "/v1/sessions/s2/run", http.StatusNotFound, "no run in progress"},
		{http.MethodGet, "/healthz", http.StatusOK, ""},
	}
	for _, tt := range tests {
		req, _ := http.NewRequest(tt.method, ts.URL+tt.path, nil)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		body := readAll(t, resp)
		resp.Body.Close()
		if resp.StatusCode != tt.status || !strings.Contains(body, tt.contains) {
			t.Errorf("%s %s = %d %q, want %d containing %q", tt.method, tt.path, resp.StatusCode, body, tt.status, tt.contains)
		}
	}
}

func TestStartRunRejectsConcurrent(t *testing.T) {
	s := NewServer(nil, nil)
	ctx, done, ok := s.startRun(context.Background(), "s1")
	if !ok {
		t.Fatal("first run rejected")
	}
	if _, _, ok := s.startRun(context.Background(), "s1"); ok {
		t.Fatal("second run for same session accepted")
	}
	if !s.cancelRun("s1") {
		t.Fatal("cancelRun found no run")
	}
	if ctx.Err() == nil {
		t.Error("run context not cancelled")
	}
	done()
	if _, done2, ok := s.startRun(context.Background(), "s1"); !ok {
		t.Error("run rejected after previous finished")
	} else {
		done2()
	}
}

func readAll(t *testing.T, resp *http.Response) string {
	t.Helper()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("reading body: %v", err)
	}
	return string(b)
}
