package agent

import "context"

type contextKey int

const (
	sessionIDKey contextKey = iota
	threadIDKey
	delegationDepthKey
	emitKey
	channelKey
)

func ContextWithSessionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, sessionIDKey, id)
}

func SessionIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(sessionIDKey).(string); ok {
		return v
	}
	return ""
}

// ContextWithThreadID marks the top-level conversation a run belongs to.
// Sub-agent runs inherit it so they share the caller's workspace.
func ContextWithThreadID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, threadIDKey, id)
}

func ThreadIDFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(threadIDKey).(string); ok {
		return v
	}
	return ""
}

func ContextWithDelegationDepth(ctx context.Context, depth int) context.Context {
	return context.WithValue(ctx, delegationDepthKey, depth)
}

func DelegationDepthFromContext(ctx context.Context) int {
	if v, ok := ctx.Value(delegationDepthKey).(int); ok {
		return v
	}
	return 0
}

func ContextWithEmit(ctx context.Context, emit func(Event)) context.Context {
	return context.WithValue(ctx, emitKey, emit)
}

func EmitFromContext(ctx context.Context) func(Event) {
	if v, ok := ctx.Value(emitKey).(func(Event)); ok {
		return v
	}
	return nil
}

// ContextWithChannel names the surface a run arrived on ("cli", "http",
// "telegram"). History stores it with new sessions.
func ContextWithChannel(ctx context.Context, channel string) context.Context {
	return context.WithValue(ctx, channelKey, channel)
}

func ChannelFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(channelKey).(string); ok {
		return v
	}
	return ""
}
