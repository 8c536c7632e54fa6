package tools

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"jobagent/internal/agent"
)

const (
	DelegateName       = "task"
	maxDelegationDepth = 3
)

// Delegate is a tool that runs a scoped sub-agent on a task and returns
// only its final answer.
type Delegate struct {
	factory *agent.RunnerFactory
}

func NewDelegate(factory *agent.RunnerFactory) *Delegate {
	return &Delegate{factory: factory}
}

func (d *Delegate) Name() string { return DelegateName }

func (d *Delegate) Description() string {
	var b strings.Builder
	b.WriteString("Launch a sub-agent to handle a task on its own. The sub-agent cannot see this conversation, so the task must be self-contained. Available agents:")
	for _, p := range d.factory.Profiles() {
		fmt.Fprintf(&b, "\n- %s: %s", p.Name, p.Description)
	}
	return b.String()
}

func (d *Delegate) InputSchema() any {
	profiles := d.factory.Profiles()
	profileEnum := make([]any, len(profiles))
	for i, p := range profiles {
		profileEnum[i] = p.Name
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"agent": map[string]any{
				"type":        "string",
				"description": "Name of the sub-agent to delegate to",
				"enum":        profileEnum,
			},
			"task": map[string]any{
				"type":        "string",
				"description": "Detailed, self-contained description of the task",
			},
		},
		"required":             []string{"agent", "task"},
		"additionalProperties": false,
	}
}

func (d *Delegate) Execute(ctx context.Context, input string) (string, error) {
	var args struct {
		Agent string `json:"agent"`
		Task  string `json:"task"`
	}
	if err := decodeArgs(d.Name(), input, &args); err != nil {
		return "", err
	}

	depth := agent.DelegationDepthFromContext(ctx)
	if depth >= maxDelegationDepth {
		return "", fmt.Errorf("maximum delegation depth (%d) exceeded", maxDelegationDepth)
	}

	runner, err := d.factory.Build(args.Agent)
	if err != nil {
		return "", fmt.Errorf("building sub-agent: %w", err)
	}

	parentSession := agent.SessionIDFromContext(ctx)
	subSession := fmt.Sprintf("%s:delegate:%s", parentSession, args.Agent)
	subCtx := agent.ContextWithDelegationDepth(ctx, depth+1)

	// Only the sub-agent's final answer reaches the calling model. Tool
	// activity is still forwarded so the run can be followed.
	parentEmit := agent.EmitFromContext(ctx)
	var final string
	localEmit := func(e agent.Event) {
		switch e.Type {
		case agent.EventDone:
			if s, ok := e.Data.(string); ok {
				final = s
			}
		case agent.EventToolCall, agent.EventToolResult, agent.EventTodos:
			if parentEmit != nil {
				parentEmit(e)
			}
		}
	}

	slog.Debug("delegate: starting sub-agent", "agent", args.Agent, "session", subSession, "depth", depth+1)
	if err := runner.Run(subCtx, subSession, args.Task, localEmit); err != nil {
		return "", fmt.Errorf("sub-agent %s failed: %w", args.Agent, err)
	}

	if final == "" {
		return "(sub-agent produced no output)", nil
	}
	return final, nil
}
