package tools

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"jobagent/internal/agent"
)

func workspaceTools(t *testing.T) (*Workspace, map[string]agent.Tool) {
	t.Helper()
	w := NewWorkspace(t.TempDir())
	byName := map[string]agent.Tool{}
	for _, tool := range w.Tools() {
		byName[tool.Name()] = tool
	}
	return w, byName
}

func TestWorkspaceWriteReadList(t *testing.T) {
	w, tools := workspaceTools(t)
	ctx := agent.ContextWithThreadID(context.Background(), "thread-1")

	if _, err := tools["write_file"].Execute(ctx, `{"file_path":"/search_criteria.txt","content":"Go backend\nBerlin or remote\n"}`); err != nil {
		t.Fatalf("write_file: %v", err)
	}
	if _, err := tools["write_file"].Execute(ctx, `{"file_path":"notes/a.md","content":"x"}`); err != nil {
		t.Fatalf("write_file nested: %v", err)
	}

	out, err := tools["read_file"].Execute(ctx, `{"file_path":"search_criteria.txt","offset":0,"limit":0}`)
	if err != nil {
		t.Fatalf("read_file: %v", err)
	}
	if out != "     1\tGo backend\n     2\tBerlin or remote\n" {
		t.Errorf("read_file = %q", out)
	}

	out, err = tools["read_file"].Execute(ctx, `{"file_path":"search_criteria.txt","offset":1,"limit":1}`)
	if err != nil {
		t.Fatalf("read_file offset: %v", err)
	}
	if out != "     2\tBerlin or remote\n" {
		t.Errorf("read_file offset = %q", out)
	}

	out, err = tools["ls"].Execute(ctx, `{}`)
	if err != nil {
		t.Fatalf("ls: %v", err)
	}
	if out != "notes/a.md\nsearch_criteria.txt" {
		t.Errorf("ls = %q", out)
	}

	if _, err := os.Stat(filepath.Join(w.Root(), "thread-1", "search_criteria.txt")); err != nil {
		t.Errorf("file not stored under thread dir: %v", err)
	}
}

func TestWorkspaceThreadsAreIsolated(t *testing.T) {
	w, tools := workspaceTools(t)
	a := agent.ContextWithThreadID(context.Background(), "a")
	b := agent.ContextWithThreadID(context.Background(), "b")

	if _, err := tools["write_file"].Execute(a, `{"file_path":"job_search_results.md","content":"# Results"}`); err != nil {
		t.Fatal(err)
	}
	if _, err := tools["read_file"].Execute(b, `{"file_path":"job_search_results.md","offset":0,"limit":0}`); err == nil {
		t.Error("thread b read thread a's file")
	}
	names, err := w.List("b")
	if err != nil || len(names) != 0 {
		t.Errorf("List(b) = %v, %v", names, err)
	}
	data, err := w.ReadFile("a", "job_search_results.md")
	if err != nil || string(data) != "# Results" {
		t.Errorf("ReadFile(a) = %q, %v", data, err)
	}
}

func TestWorkspaceRejectsEscapes(t *testing.T) {
	_, tools := workspaceTools(t)
	ctx := agent.ContextWithThreadID(context.Background(), "t")

	for _, p := range []string{"../outside.txt", "a/../../x", ""} {
		input := `{"file_path":"` + p + `","content":"x"}`
		if _, err := tools["write_file"].Execute(ctx, input); err == nil {
			t.Errorf("write_file(%q) = nil error", p)
		}
	}

	bad := agent.ContextWithThreadID(context.Background(), "../evil")
	if _, err := tools["ls"].Execute(bad, `{}`); err == nil {
		t.Error("ls with escaping thread id = nil error")
	}
}

func TestWorkspaceEditFile(t *testing.T) {
	_, tools := workspaceTools(t)
	ctx := agent.ContextWithThreadID(context.Background(), "t")

	if _, err := tools["write_file"].Execute(ctx, `{"file_path":"r.md","content":"TODO a\nTODO b\n"}`); err != nil {
		t.Fatal(err)
	}

	if _, err := tools["edit_file"].Execute(ctx, `{"file_path":"r.md","old_string":"TODO","new_string":"DONE","replace_all":false}`); err == nil ||
		!strings.Contains(err.Error(), "2 times") {
		t.Errorf("ambiguous edit err = %v", err)
	}
	if _, err := tools["edit_file"].Execute(ctx, `{"file_path":"r.md","old_string":"missing","new_string":"x","replace_all":false}`); err == nil {
		t.Error("edit with missing old_string = nil error")
	}

	out, err := tools["edit_file"].Execute(ctx, `{"file_path":"r.md","old_string":"TODO a","new_string":"DONE a","replace_all":false}`)
	if err != nil {
		t.Fatalf("edit_file: %v", err)
	}
	if !strings.Contains(out, "replaced 1") {
		t.Errorf("edit_file = %q", out)
	}

	out, err = tools["edit_file"].Execute(ctx, `{"file_path":"r.md","old_string":"a","new_string":"A","replace_all":true}`)
	if err != nil {
		t.Fatalf("edit_file replace_all: %v", err)
	}
	if !strings.Contains(out, "replaced 1") {
		t.Errorf("edit_file replace_all = %q", out)
	}

	got, err := tools["read_file"].Execute(ctx, `{"file_path":"r.md","offset":0,"limit":0}`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "     1\tDONE A\n     2\tTODO b\n" {
		t.Errorf("file after edits = %q", got)
	}
}

func TestWorkspaceToolNames(t *testing.T) {
	w := NewWorkspace(t.TempDir())
	var names []string
	for _, tool := range w.Tools() {
		names = append(names, tool.Name())
	}
	if !slices.Equal(names, []string{"ls", "read_file", "write_file", "edit_file"}) {
		t.Errorf("tools = %v", names)
	}
}
