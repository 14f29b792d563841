package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"pai-openai/internal/util"
)

// MockClient is a deterministic client for tests and demos. When the request
// declares tools it asks for the first one; otherwise it answers with a
// summary of the request.
type MockClient struct {
	mu    sync.Mutex
	calls int
}

// NewMockClient returns a simple mock.
func NewMockClient() *MockClient {
	return &MockClient{}
}

// Calls returns the number of requests served.
func (m *MockClient) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *MockClient) Create(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.respond(req), nil
}

func (m *MockClient) Stream(ctx context.Context, req Request) (Stream, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++

	resp := m.respond(req)
	var events []StreamEvent
	for _, chunk := range splitKeepSpace(resp.Text) {
		events = append(events, TextDelta(chunk))
	}
	for _, call := range resp.ToolCalls {
		events = append(events, ToolCallEvent(call))
	}
	events = append(events, Completed(resp))
	return NewSliceStream(events...), nil
}

func (m *MockClient) SubmitToolOutput(ctx context.Context, req Request, responseID string, output ToolOutput) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	text := fmt.Sprintf("Mock follow-up for %s: %s", output.CallID, output.Output)
	if req.JSONMode {
		text = mustJSON(map[string]any{"tool_call_id": output.CallID, "tool_output": output.Output})
	}
	return Response{ID: fmt.Sprintf("resp_mock_%d", m.calls), Text: text}, nil
}

func (m *MockClient) respond(req Request) Response {
	id := fmt.Sprintf("resp_mock_%d", m.calls)
	if len(req.Tools) > 0 && req.Tools[0].OfFunction != nil {
		return Response{ID: id, ToolCalls: []ToolCall{{
			ID:        "call_mock_1",
			Name:      req.Tools[0].OfFunction.Name,
			Arguments: `{"prompt":` + mustJSON(util.Preview(req.Prompt, 80)) + `}`,
		}}}
	}
	text := fmt.Sprintf("Mock response to %q with %d context bytes.", util.Preview(req.Prompt, 80), len(req.Context))
	if req.JSONMode {
		text = mustJSON(map[string]any{
			"model":         req.Model,
			"prompt":        util.Preview(req.Prompt, 80),
			"context_bytes": len(req.Context),
		})
	}
	return Response{ID: id, Text: text}
}

// splitKeepSpace cuts text after each space so the pieces concatenate back
// to the original.
func splitKeepSpace(text string) []string {
	var out []string
	for text != "" {
		idx := strings.IndexByte(text, ' ')
		if idx < 0 {
			out = append(out, text)
			break
		}
		out = append(out, text[:idx+1])
		text = text[idx+1:]
	}
	return out
}

func mustJSON(v any) string {
	data, _ := json.Marshal(v)
	return string(data)
}
