package agent

// AgentProfile defines a named sub-agent with a scoped toolset.
type AgentProfile struct {
	Name         string
	Description  string
	SystemPrompt string
	Tools        []string // exact allow-list; an empty list grants nothing
}
