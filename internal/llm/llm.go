package llm

import (
	"context"

	"github.com/openai/openai-go/v3/responses"
)

// Provider runs one model step over the accumulated input. onToken is called
// for every streamed text delta; the completed response is returned.
type Provider interface {
	ChatStream(ctx context.Context, input []responses.ResponseInputItemUnionParam, tools []responses.ToolUnionParam, onToken func(string)) (*responses.Response, error)
}
