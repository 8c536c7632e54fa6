package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
)

var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrToolNotPermitted = errors.New("tool not permitted")
)

type Tool interface {
	Name() string
	Description() string
	InputSchema() any
	Execute(ctx context.Context, input string) (string, error)
}

// StrictSchemer is implemented by tools whose schema does not satisfy the
// model's strict function-calling mode. Tools without it are sent strict.
type StrictSchemer interface {
	StrictSchema() bool
}

// Registry maps tool names to tools. A registry produced by Scope only
// dispatches to its allow-list and remembers the tools it was cut from, so a
// call to one of those is reported as not permitted rather than unknown.
type Registry struct {
	role   string
	tools  map[string]Tool
	parent *Registry
}

func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

func (r *Registry) Register(t Tool) {
	r.tools[t.Name()] = t
}

func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// Role is the name the registry was scoped for, empty for the root.
func (r *Registry) Role() string { return r.role }

// All returns the tools sorted by name.
func (r *Registry) All() []Tool {
	out := make([]Tool, 0, len(r.tools))
	for _, name := range r.Names() {
		out = append(out, r.tools[name])
	}
	return out
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Scope returns a registry for role holding only the named tools. Names the
// receiver does not know are skipped with a warning.
func (r *Registry) Scope(role string, names []string) *Registry {
	scoped := &Registry{role: role, tools: make(map[string]Tool, len(names)), parent: r}
	for _, name := range names {
		t, ok := r.tools[name]
		if !ok {
			slog.Warn("scope: tool not registered", "role", role, "tool", name)
			continue
		}
		scoped.tools[name] = t
	}
	return scoped
}

// Resolve looks a tool up for dispatch.
func (r *Registry) Resolve(name string) (Tool, error) {
	if t, ok := r.tools[name]; ok {
		return t, nil
	}
	for p := r.parent; p != nil; p = p.parent {
		if _, ok := p.tools[name]; ok {
			return nil, fmt.Errorf("%w: %q for role %q", ErrToolNotPermitted, name, r.role)
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownTool, name)
}
