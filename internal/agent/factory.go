package agent

import (
	"fmt"
	"slices"
	"strings"

	"jobagent/internal/llm"
)

// RunnerFactory builds scoped runners from agent profiles.
type RunnerFactory struct {
	provider       llm.Provider
	globalRegistry *Registry
	profiles       map[string]*AgentProfile
	opts           []ReactOption
}

// NewRunnerFactory returns a factory for profiles. opts are applied to every
// runner before the profile's own system prompt.
func NewRunnerFactory(provider llm.Provider, registry *Registry, profiles []*AgentProfile, opts ...ReactOption) (*RunnerFactory, error) {
	f := &RunnerFactory{
		provider:       provider,
		globalRegistry: registry,
		profiles:       make(map[string]*AgentProfile, len(profiles)),
		opts:           opts,
	}
	for _, p := range profiles {
		if _, dup := f.profiles[p.Name]; dup {
			return nil, fmt.Errorf("duplicate agent profile: %s", p.Name)
		}
		f.profiles[p.Name] = p
	}
	return f, nil
}

// Build creates a new ReactRunner scoped to the given profile. Sub-agent
// runners keep no history; each delegation starts fresh.
func (f *RunnerFactory) Build(profileName string) (Runner, error) {
	profile, ok := f.profiles[profileName]
	if !ok {
		return nil, fmt.Errorf("unknown agent profile: %s", profileName)
	}

	registry := f.globalRegistry.Scope(profile.Name, profile.Tools)

	opts := append(slices.Clone(f.opts), WithSystemPrompt(profile.SystemPrompt))
	return NewReactRunner(f.provider, registry, opts...), nil
}

// Profiles returns the registered profiles sorted by name.
func (f *RunnerFactory) Profiles() []*AgentProfile {
	out := make([]*AgentProfile, 0, len(f.profiles))
	for _, p := range f.profiles {
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b *AgentProfile) int {
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
