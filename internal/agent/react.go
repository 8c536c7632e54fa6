package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"unicode/utf8"

	"jobagent/internal/llm"
	"jobagent/internal/trace"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/responses"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
)

const (
	defaultStepLimit = 25
	maxSpanMessage   = 200
)

// History persists and recalls the turns of a session.
type History interface {
	LoadInputHistory(ctx context.Context, sessionID string) ([]responses.ResponseInputItemUnionParam, error)
	SaveTurn(ctx context.Context, sessionID, userMessage string, resp *responses.Response) error
}

type ReactOption func(*ReactRunner)

func WithSystemPrompt(s string) ReactOption {
	return func(r *ReactRunner) { r.systemPrompt = s }
}

// WithStepLimit caps the number of model calls per Run.
func WithStepLimit(n int) ReactOption {
	return func(r *ReactRunner) {
		if n > 0 {
			r.stepLimit = n
		}
	}
}

func WithHistory(h History) ReactOption {
	return func(r *ReactRunner) { r.history = h }
}

// ReactRunner implements a ReAct (Reason + Act) agent loop.
// The agent keeps thinking and acting until the model returns no more tool
// calls, the step limit is hit, or the context is cancelled.
type ReactRunner struct {
	provider     llm.Provider
	registry     *Registry
	history      History
	tools        []responses.ToolUnionParam
	systemPrompt string
	stepLimit    int
}

func NewReactRunner(provider llm.Provider, registry *Registry, opts ...ReactOption) *ReactRunner {
	r := &ReactRunner{
		provider:  provider,
		registry:  registry,
		stepLimit: defaultStepLimit,
	}

	for _, opt := range opts {
		opt(r)
	}

	for _, t := range registry.All() {
		schema, _ := t.InputSchema().(map[string]any)
		strict := true
		if s, ok := t.(StrictSchemer); ok {
			strict = s.StrictSchema()
		}
		r.tools = append(r.tools, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  schema,
				Strict:      openai.Bool(strict),
			},
		})
	}

	return r
}

func (r *ReactRunner) name() string {
	if role := r.registry.Role(); role != "" {
		return role
	}
	return "jobagent"
}

func (r *ReactRunner) Run(ctx context.Context, sessionID string, message string, emit func(Event)) error {
	ctx = ContextWithSessionID(ctx, sessionID)
	ctx = ContextWithEmit(ctx, emit)
	if ThreadIDFromContext(ctx) == "" {
		ctx = ContextWithThreadID(ctx, sessionID)
	}

	ctx, span := trace.Tracer().Start(ctx, "agent.react.run",
		oteltrace.WithAttributes(
			attribute.String("openai.agents.agent.name", r.name()),
			attribute.String("session.id", sessionID),
			attribute.String("user.message", clip(message, maxSpanMessage)),
		),
	)
	defer span.End()

	var input []responses.ResponseInputItemUnionParam
	if r.systemPrompt != "" {
		input = append(input, responses.ResponseInputItemParamOfMessage(r.systemPrompt, "developer"))
	}
	if r.history != nil {
		past, err := r.history.LoadInputHistory(ctx, sessionID)
		if err != nil {
			slog.Warn("failed to load session history", "session_id", sessionID, "error", err)
		}
		slog.Debug("agent.react: history recalled", "session_id", sessionID, "items", len(past))
		input = append(input, past...)
	}
	input = append(input, responses.ResponseInputItemParamOfMessage(message, "user"))

	resp, err := r.loop(ctx, input, emit)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	if r.history != nil {
		if err := r.history.SaveTurn(ctx, sessionID, message, resp); err != nil {
			slog.Warn("failed to save turn", "session_id", sessionID, "error", err)
		}
	}

	emit(Event{Type: EventDone, Data: resp.OutputText()})
	return nil
}

// loop is the core ReAct cycle. Each iteration is a single LLM call where the
// model reasons about the current state and picks actions. Tool failures go
// back into context as results so the model can adapt on the next step.
func (r *ReactRunner) loop(ctx context.Context, input []responses.ResponseInputItemUnionParam, emit func(Event)) (*responses.Response, error) {
	onToken := func(token string) {
		emit(Event{Type: EventToken, Data: token})
	}

	for step := 0; ; step++ {
		if err := ctx.Err(); err != nil {
			emit(Event{Type: EventError, Data: "request cancelled"})
			return nil, err
		}
		if step >= r.stepLimit {
			err := fmt.Errorf("%w (%d) in %s", ErrStepLimit, r.stepLimit, r.name())
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}

		llmCtx, llmSpan := trace.Tracer().Start(ctx, "llm.react",
			oteltrace.WithAttributes(attribute.Int("llm.iteration", step)),
		)

		resp, err := r.provider.ChatStream(llmCtx, input, r.tools, onToken)
		if err != nil {
			llmSpan.RecordError(err)
			llmSpan.SetStatus(codes.Error, err.Error())
			llmSpan.End()
			emit(Event{Type: EventError, Data: err.Error()})
			return nil, err
		}

		llmSpan.SetAttributes(
			attribute.String("llm.model", string(resp.Model)),
			attribute.Int64("llm.input_tokens", resp.Usage.InputTokens),
			attribute.Int64("llm.output_tokens", resp.Usage.OutputTokens),
		)
		llmSpan.End()

		input = append(input, OutputToInput(resp.Output)...)

		var calls []responses.ResponseOutputItemUnion
		for _, item := range resp.Output {
			if item.Type == "function_call" {
				calls = append(calls, item)
			}
		}

		if len(calls) == 0 {
			slog.Debug("agent.react: done", "agent", r.name(), "steps", step+1)
			return resp, nil
		}

		input = append(input, r.act(ctx, calls, emit)...)
	}
}

// act executes tool calls in parallel, emitting events for each, and returns
// the results formatted as input items for the next LLM turn.
func (r *ReactRunner) act(ctx context.Context, calls []responses.ResponseOutputItemUnion, emit func(Event)) []responses.ResponseInputItemUnionParam {
	for _, call := range calls {
		fc := call.AsFunctionCall()
		emit(Event{Type: EventToolCall, Data: map[string]string{
			"agent":     r.name(),
			"name":      fc.Name,
			"arguments": fc.Arguments,
		}})
	}

	// Emit is not assumed to be safe for concurrent use; tools that emit
	// (todos, sub-agents) get the serialised version through ctx.
	var mu sync.Mutex
	safeEmit := func(e Event) {
		mu.Lock()
		defer mu.Unlock()
		emit(e)
	}
	ctx = ContextWithEmit(ctx, safeEmit)

	var wg sync.WaitGroup
	results := make([]responses.ResponseInputItemUnionParam, len(calls))

	for i, call := range calls {
		wg.Add(1)
		go func(i int, fc responses.ResponseFunctionToolCall) {
			defer wg.Done()

			content := r.execute(ctx, fc)
			results[i] = responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, content)

			safeEmit(Event{Type: EventToolResult, Data: map[string]string{
				"agent":   r.name(),
				"name":    fc.Name,
				"content": content,
			}})
		}(i, call.AsFunctionCall())
	}

	wg.Wait()
	return results
}

func (r *ReactRunner) execute(ctx context.Context, fc responses.ResponseFunctionToolCall) string {
	tool, err := r.registry.Resolve(fc.Name)
	if err != nil {
		slog.Warn("tool call refused", "agent", r.name(), "name", fc.Name, "error", err)
		return "error: " + err.Error()
	}

	result, err := withTrace(tool, r.name()).Execute(ctx, fc.Arguments)
	if err != nil {
		slog.Warn("tool execution failed", "agent", r.name(), "name", fc.Name, "error", err)
		return "error: " + err.Error()
	}
	return result
}

// clip shortens s to at most n bytes on a rune boundary.
func clip(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// OutputToInput converts response output items into input item params for
// the next API call.
func OutputToInput(output []responses.ResponseOutputItemUnion) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, item := range output {
		switch item.Type {
		case "message":
			v := item.AsMessage().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfOutputMessage: &v})
		case "function_call":
			v := item.AsFunctionCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfFunctionCall: &v})
		case "reasoning":
			v := item.AsReasoning().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfReasoning: &v})
		case "web_search_call":
			v := item.AsWebSearchCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfWebSearchCall: &v})
		default:
			slog.Debug("skipping unknown output item type", "type", item.Type)
		}
	}
	return items
}
