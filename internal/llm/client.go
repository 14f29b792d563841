package llm

import (
	"context"

	"github.com/openai/openai-go/v3/responses"
)

// ToolCall is a function call requested by the model. Arguments is the raw
// serialized payload exactly as the provider sent it.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// ToolOutput is the value returned to the model for a tool call.
type ToolOutput struct {
	CallID string
	Output string
}

// Response represents a model response.
type Response struct {
	ID        string
	Text      string
	ToolCalls []ToolCall
}

// Request is a single user turn. Context is sent as a second text part when
// non-empty.
type Request struct {
	Model    string
	Prompt   string
	Context  string
	JSONMode bool
	Tools    []responses.ToolUnionParam
}

// Client is an LLM client interface.
type Client interface {
	Create(ctx context.Context, req Request) (Response, error)
	Stream(ctx context.Context, req Request) (Stream, error)
	SubmitToolOutput(ctx context.Context, req Request, responseID string, output ToolOutput) (Response, error)
}
