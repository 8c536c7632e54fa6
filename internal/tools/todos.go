package tools

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"jobagent/internal/agent"
)

type TodoStatus string

const (
	TodoPending    TodoStatus = "pending"
	TodoInProgress TodoStatus = "in_progress"
	TodoCompleted  TodoStatus = "completed"
)

type Todo struct {
	Content string     `json:"content"`
	Status  TodoStatus `json:"status"`
}

// Todos keeps one plan per thread. write_todos replaces the whole list.
type Todos struct {
	mu    sync.Mutex
	lists map[string][]Todo
}

func NewTodos() *Todos {
	return &Todos{lists: make(map[string][]Todo)}
}

func (t *Todos) List(thread string) []Todo {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.lists[thread])
}

func (t *Todos) Name() string { return "write_todos" }
func (t *Todos) Description() string {
	return "Create or update the task plan. Pass the complete list every time; it replaces the previous one"
}

func (t *Todos) InputSchema() any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"todos": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"content": map[string]any{"type": "string"},
						"status": map[string]any{
							"type": "string",
							"enum": []string{string(TodoPending), string(TodoInProgress), string(TodoCompleted)},
						},
					},
					"required":             []string{"content", "status"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []string{"todos"},
		"additionalProperties": false,
	}
}

func (t *Todos) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Todos []Todo `json:"todos"`
	}
	if err := decodeArgs(t.Name(), input, &args); err != nil {
		return "", err
	}
	for i, td := range args.Todos {
		switch td.Status {
		case TodoPending, TodoInProgress, TodoCompleted:
		default:
			return "", fmt.Errorf("todo %d: unknown status %q", i, td.Status)
		}
	}

	thread := agent.ThreadIDFromContext(ctx)
	t.mu.Lock()
	t.lists[thread] = slices.Clone(args.Todos)
	t.mu.Unlock()

	if emit := agent.EmitFromContext(ctx); emit != nil {
		emit(agent.Event{Type: agent.EventTodos, Data: args.Todos})
	}

	var b strings.Builder
	b.WriteString("Updated todo list:\n")
	for _, td := range args.Todos {
		fmt.Fprintf(&b, "- [%s] %s\n", td.Status, td.Content)
	}
	return b.String(), nil
}
