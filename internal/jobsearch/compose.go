// Package jobsearch composes the job search assistant: an orchestrator that
// delegates to a job-search sub-agent and a career-advisor sub-agent.
package jobsearch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"jobagent/internal/agent"
	"jobagent/internal/llm"
	"jobagent/internal/tools"
)

var (
	ErrDuplicateSubAgent = errors.New("duplicate sub-agent name")
	ErrDuplicateTool     = errors.New("duplicate tool name")
	ErrUnknownTool       = errors.New("sub-agent references unknown tool")
)

// SubAgentSpec is a named role restricted to an allow-list of tool names.
type SubAgentSpec struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Prompt      string   `json:"-"`
	Tools       []string `json:"tools"`
}

// OrchestratorSpec is everything needed to materialise the assistant.
type OrchestratorSpec struct {
	Tools          []agent.Tool
	Instructions   string
	SubAgents      []SubAgentSpec
	Model          string
	RecursionLimit int
}

// NewSubAgents returns the roster. The job-search agent may use exactly the
// remote tools, the career advisor exactly the search tool.
func NewSubAgents(searchName string, remoteNames []string) []SubAgentSpec {
	return []SubAgentSpec{
		{
			Name:        CareerAdvisorAgentName,
			Description: careerAdvisorDescription,
			Prompt:      careerAdvisorPrompt,
			Tools:       []string{searchName},
		},
		{
			Name:        JobSearchAgentName,
			Description: jobSearchDescription,
			Prompt:      jobSearchPrompt,
			Tools:       slices.Clone(remoteNames),
		},
	}
}

// NewOrchestratorSpec combines the search tool and the discovered remote
// tools into a validated spec. An empty remote set is allowed.
func NewOrchestratorSpec(search agent.Tool, remote []agent.Tool, model string, recursionLimit int) (*OrchestratorSpec, error) {
	remoteNames := make([]string, len(remote))
	for i, t := range remote {
		remoteNames[i] = t.Name()
	}
	if len(remote) == 0 {
		slog.Warn("no remote tools discovered; job-search-agent has no tools")
	}

	spec := &OrchestratorSpec{
		Tools:          append([]agent.Tool{search}, remote...),
		Instructions:   instructions(search.Name(), remoteNames),
		SubAgents:      NewSubAgents(search.Name(), remoteNames),
		Model:          model,
		RecursionLimit: recursionLimit,
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

// Validate checks that tool and sub-agent names are unique and that every
// sub-agent allow-list entry names one of the spec's tools.
func (s *OrchestratorSpec) Validate() error {
	if s.RecursionLimit < 1 {
		return fmt.Errorf("recursion limit must be positive, got %d", s.RecursionLimit)
	}

	known := make(map[string]bool, len(s.Tools))
	for _, t := range s.Tools {
		if known[t.Name()] {
			return fmt.Errorf("%w: %q", ErrDuplicateTool, t.Name())
		}
		known[t.Name()] = true
	}

	seen := make(map[string]bool, len(s.SubAgents))
	for _, sa := range s.SubAgents {
		if seen[sa.Name] {
			return fmt.Errorf("%w: %q", ErrDuplicateSubAgent, sa.Name)
		}
		seen[sa.Name] = true

		for _, name := range sa.Tools {
			if !known[name] {
				return fmt.Errorf("%w: %q in %s", ErrUnknownTool, name, sa.Name)
			}
		}
	}
	return nil
}

// ToolNames returns the spec's tool names in order.
func (s *OrchestratorSpec) ToolNames() []string {
	names := make([]string, len(s.Tools))
	for i, t := range s.Tools {
		names[i] = t.Name()
	}
	return names
}

// Runtime carries what Build needs beyond the spec. History is optional.
type Runtime struct {
	Provider  llm.Provider
	History   agent.History
	Workspace *tools.Workspace
	Todos     *tools.Todos
}

// Assistant is the materialised orchestrator.
type Assistant struct {
	spec      *OrchestratorSpec
	runner    agent.Runner
	registry  *agent.Registry
	workspace *tools.Workspace
	todos     *tools.Todos
	closers   []func() error
}

// Build registers the spec's tools next to the runtime built-ins, prepares
// one scoped profile per sub-agent and wires them behind the task tool.
func Build(spec *OrchestratorSpec, rt Runtime) (*Assistant, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	if rt.Workspace == nil || rt.Todos == nil {
		return nil, errors.New("workspace and todos are required")
	}

	registry := agent.NewRegistry()
	builtins := append(rt.Workspace.Tools(), rt.Todos)
	builtinNames := make([]string, 0, len(builtins))
	for _, t := range builtins {
		registry.Register(t)
		builtinNames = append(builtinNames, t.Name())
	}
	for _, t := range spec.Tools {
		if _, taken := registry.Get(t.Name()); taken || t.Name() == tools.DelegateName {
			return nil, fmt.Errorf("%w: %q clashes with a built-in tool", ErrDuplicateTool, t.Name())
		}
		registry.Register(t)
	}

	profiles := make([]*agent.AgentProfile, 0, len(spec.SubAgents))
	for _, sa := range spec.SubAgents {
		profiles = append(profiles, &agent.AgentProfile{
			Name:         sa.Name,
			Description:  sa.Description,
			SystemPrompt: withBuiltins(sa.Prompt, false),
			Tools:        append(slices.Clone(sa.Tools), builtinNames...),
		})
	}

	factory, err := agent.NewRunnerFactory(rt.Provider, registry, profiles, agent.WithStepLimit(spec.RecursionLimit))
	if err != nil {
		return nil, err
	}
	registry.Register(tools.NewDelegate(factory))

	opts := []agent.ReactOption{
		agent.WithSystemPrompt(withBuiltins(spec.Instructions, true)),
		agent.WithStepLimit(spec.RecursionLimit),
	}
	if rt.History != nil {
		opts = append(opts, agent.WithHistory(rt.History))
	}

	slog.Info("assistant built",
		"model", spec.Model,
		"tools", registry.Names(),
		"sub_agents", len(spec.SubAgents),
		"recursion_limit", spec.RecursionLimit,
	)

	return &Assistant{
		spec:      spec,
		runner:    agent.NewReactRunner(rt.Provider, registry, opts...),
		registry:  registry,
		workspace: rt.Workspace,
		todos:     rt.Todos,
	}, nil
}

// Run executes one user turn of the orchestrator.
func (a *Assistant) Run(ctx context.Context, sessionID, message string, emit func(agent.Event)) error {
	return a.runner.Run(ctx, sessionID, message, emit)
}

// Spec returns the orchestrator composition the assistant was built from.
func (a *Assistant) Spec() *OrchestratorSpec { return a.spec }

// RuntimeTools returns every tool name the orchestrator can call, built-ins
// included.
func (a *Assistant) RuntimeTools() []string { return a.registry.Names() }

// Workspace returns the file store shared by the orchestrator and its
// sub-agents.
func (a *Assistant) Workspace() *tools.Workspace { return a.workspace }

// Todos returns the plan list written by write_todos.
func (a *Assistant) Todos() *tools.Todos { return a.todos }

// Close releases the remote tool sessions.
func (a *Assistant) Close() error {
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
