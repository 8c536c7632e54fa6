package tools

import (
	"context"
	"strings"
	"testing"

	"jobagent/internal/agent"
)

func TestTodosReplaceList(t *testing.T) {
	todos := NewTodos()
	var events []agent.Event
	ctx := agent.ContextWithThreadID(context.Background(), "t1")
	ctx = agent.ContextWithEmit(ctx, func(e agent.Event) { events = append(events, e) })

	out, err := todos.Execute(ctx, `{"todos":[
		{"content":"Write search criteria","status":"completed"},
		{"content":"Delegate LinkedIn search","status":"in_progress"}
	]}`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "- [in_progress] Delegate LinkedIn search") {
		t.Errorf("output = %q", out)
	}
	if len(events) != 1 || events[0].Type != agent.EventTodos {
		t.Errorf("events = %+v", events)
	}

	if _, err := todos.Execute(ctx, `{"todos":[{"content":"Compile results","status":"pending"}]}`); err != nil {
		t.Fatal(err)
	}
	list := todos.List("t1")
	if len(list) != 1 || list[0].Content != "Compile results" {
		t.Errorf("List = %+v", list)
	}
	if len(todos.List("other")) != 0 {
		t.Error("todo lists leak across threads")
	}
}

func TestTodosRejectsUnknownStatus(t *testing.T) {
	todos := NewTodos()
	if _, err := todos.Execute(context.Background(), `{"todos":[{"content":"x","status":"blocked"}]}`); err == nil {
		t.Fatal("Execute() = nil error")
	}
}
