package tools

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"jobagent/internal/agent"
)

const (
	defaultThread    = "default"
	defaultReadLines = 2000
)

var errOutsideWorkspace = errors.New("path escapes the workspace")

// Workspace is the directory agents share files through. Each thread (a
// top-level conversation) gets its own subdirectory; sub-agents inherit the
// thread of the run that delegated to them.
type Workspace struct {
	root string
	mu   sync.Mutex
}

func NewWorkspace(root string) *Workspace {
	return &Workspace{root: expandHome(root)}
}

func (w *Workspace) Root() string { return w.root }

// Tools returns ls, read_file, write_file and edit_file bound to w.
func (w *Workspace) Tools() []agent.Tool {
	return []agent.Tool{
		&lsTool{w: w},
		&readFileTool{w: w},
		&writeFileTool{w: w},
		&editFileTool{w: w},
	}
}

// ReadFile returns the content of name in thread's directory.
func (w *Workspace) ReadFile(thread, name string) ([]byte, error) {
	path, err := w.path(thread, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

// List returns the file names in thread's directory, relative and sorted.
func (w *Workspace) List(thread string) ([]string, error) {
	dir, err := w.threadDir(thread)
	if err != nil {
		return nil, err
	}
	var names []string
	err = filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slices.Sort(names)
	return names, nil
}

func (w *Workspace) threadDir(thread string) (string, error) {
	if thread == "" {
		thread = defaultThread
	}
	if !filepath.IsLocal(thread) || strings.ContainsAny(thread, `/\`) {
		return "", fmt.Errorf("invalid thread id %q", thread)
	}
	return filepath.Join(w.root, thread), nil
}

// path maps an agent-supplied file path into thread's directory. Leading
// slashes are accepted since models often write "/notes.md".
func (w *Workspace) path(thread, name string) (string, error) {
	dir, err := w.threadDir(thread)
	if err != nil {
		return "", err
	}
	name = strings.TrimLeft(filepath.FromSlash(name), string(filepath.Separator))
	if name == "" || !filepath.IsLocal(name) {
		return "", fmt.Errorf("%w: %q", errOutsideWorkspace, name)
	}
	return filepath.Join(dir, name), nil
}

func (w *Workspace) write(thread, name string, content []byte) error {
	path, err := w.path(thread, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating parent dirs: %w", err)
	}
	return os.WriteFile(path, content, 0o644)
}

type lsTool struct{ w *Workspace }

func (t *lsTool) Name() string        { return "ls" }
func (t *lsTool) Description() string { return "List all files in the shared workspace" }

func (t *lsTool) InputSchema() any {
	return map[string]any{
		"type":                 "object",
		"properties":           map[string]any{},
		"required":             []string{},
		"additionalProperties": false,
	}
}

func (t *lsTool) Execute(ctx context.Context, input string) (string, error) {
	names, err := t.w.List(agent.ThreadIDFromContext(ctx))
	if err != nil {
		return "", fmt.Errorf("listing workspace: %w", err)
	}
	if len(names) == 0 {
		return "(workspace is empty)", nil
	}
	return strings.Join(names, "\n"), nil
}

type readFileTool struct{ w *Workspace }

func (t *readFileTool) Name() string { return "read_file" }
func (t *readFileTool) Description() string {
	return "Read a file from the shared workspace. Lines are numbered starting at 1"
}

func (t *readFileTool) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace",
			},
			"offset": map[string]any{
				"type":        "integer",
				"description": "Line to start from, 0 for the beginning",
			},
			"limit": map[string]any{
				"type":        "integer",
				"description": "Maximum lines to read, 0 for the default of 2000",
			},
		},
		"required":             []string{"file_path", "offset", "limit"},
		"additionalProperties": false,
	}
}

func (t *readFileTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		FilePath string `json:"file_path"`
		Offset   int    `json:"offset"`
		Limit    int    `json:"limit"`
	}
	if err := decodeArgs(t.Name(), input, &args); err != nil {
		return "", err
	}

	slog.Debug("workspace: reading", "path", args.FilePath)
	data, err := t.w.ReadFile(agent.ThreadIDFromContext(ctx), args.FilePath)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	if len(data) == 0 {
		return "(file is empty)", nil
	}

	lines := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	if args.Offset < 0 {
		args.Offset = 0
	}
	if args.Offset >= len(lines) {
		return "", fmt.Errorf("offset %d is past the end of the file (%d lines)", args.Offset, len(lines))
	}
	if args.Limit <= 0 {
		args.Limit = defaultReadLines
	}
	end := min(args.Offset+args.Limit, len(lines))

	var b strings.Builder
	for i := args.Offset; i < end; i++ {
		fmt.Fprintf(&b, "%6d\t%s\n", i+1, lines[i])
	}
	return truncate([]byte(b.String())), nil
}

type writeFileTool struct{ w *Workspace }

func (t *writeFileTool) Name() string { return "write_file" }
func (t *writeFileTool) Description() string {
	return "Write a file to the shared workspace, replacing any existing content"
}

func (t *writeFileTool) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Full file content",
			},
		},
		"required":             []string{"file_path", "content"},
		"additionalProperties": false,
	}
}

func (t *writeFileTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		FilePath string `json:"file_path"`
		Content  string `json:"content"`
	}
	if err := decodeArgs(t.Name(), input, &args); err != nil {
		return "", err
	}

	t.w.mu.Lock()
	defer t.w.mu.Unlock()

	slog.Debug("workspace: writing", "path", args.FilePath, "bytes", len(args.Content))
	if err := t.w.write(agent.ThreadIDFromContext(ctx), args.FilePath, []byte(args.Content)); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	return fmt.Sprintf("wrote %d bytes to %s", len(args.Content), args.FilePath), nil
}

type editFileTool struct{ w *Workspace }

func (t *editFileTool) Name() string { return "edit_file" }
func (t *editFileTool) Description() string {
	return "Replace text in a workspace file. old_string must match exactly once unless replace_all is true"
}

func (t *editFileTool) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"file_path": map[string]any{
				"type":        "string",
				"description": "File path relative to the workspace",
			},
			"old_string": map[string]any{
				"type":        "string",
				"description": "Exact text to replace",
			},
			"new_string": map[string]any{
				"type":        "string",
				"description": "Replacement text",
			},
			"replace_all": map[string]any{
				"type":        "boolean",
				"description": "Replace every occurrence",
			},
		},
		"required":             []string{"file_path", "old_string", "new_string", "replace_all"},
		"additionalProperties": false,
	}
}

func (t *editFileTool) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		FilePath   string `json:"file_path"`
		OldString  string `json:"old_string"`
		NewString  string `json:"new_string"`
		ReplaceAll bool   `json:"replace_all"`
	}
	if err := decodeArgs(t.Name(), input, &args); err != nil {
		return "", err
	}
	if args.OldString == "" {
		return "", fmt.Errorf("old_string must not be empty")
	}

	t.w.mu.Lock()
	defer t.w.mu.Unlock()

	thread := agent.ThreadIDFromContext(ctx)
	data, err := t.w.ReadFile(thread, args.FilePath)
	if err != nil {
		return "", fmt.Errorf("reading file: %w", err)
	}
	content := string(data)

	n := strings.Count(content, args.OldString)
	switch {
	case n == 0:
		return "", fmt.Errorf("old_string not found in %s", args.FilePath)
	case n > 1 && !args.ReplaceAll:
		return "", fmt.Errorf("old_string appears %d times in %s; add context or set replace_all", n, args.FilePath)
	}

	replaced := 1
	if args.ReplaceAll {
		content = strings.ReplaceAll(content, args.OldString, args.NewString)
		replaced = n
	} else {
		content = strings.Replace(content, args.OldString, args.NewString, 1)
	}

	if err := t.w.write(thread, args.FilePath, []byte(content)); err != nil {
		return "", fmt.Errorf("writing file: %w", err)
	}
	slog.Debug("workspace: edited", "path", args.FilePath, "replacements", replaced)
	return fmt.Sprintf("replaced %d occurrence(s) in %s", replaced, args.FilePath), nil
}
