package llm

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/openai/openai-go/v3/responses"
)

func TestMockClientAnswersWithoutTools(t *testing.T) {
	client := NewMockClient()
	resp, err := client.Create(context.Background(), Request{Model: "gpt-4.1", Prompt: "hello", Context: "abc"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 0 {
		t.Fatalf("expected no tool calls, got %d", len(resp.ToolCalls))
	}
	if !strings.Contains(resp.Text, "3 context bytes") {
		t.Fatalf("unexpected text: %q", resp.Text)
	}
	if client.Calls() != 1 {
		t.Fatalf("expected 1 call, got %d", client.Calls())
	}
}

func TestMockClientRequestsFirstTool(t *testing.T) {
	client := NewMockClient()
	tools := []responses.ToolUnionParam{
		responses.ToolParamOfFunction("lookup", map[string]any{"type": "object"}, false),
		responses.ToolParamOfFunction("other", map[string]any{"type": "object"}, false),
	}
	resp, err := client.Create(context.Background(), Request{Prompt: "hello", Tools: tools})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(resp.ToolCalls) != 1 || resp.ToolCalls[0].Name != "lookup" {
		t.Fatalf("expected lookup tool call, got %+v", resp.ToolCalls)
	}
	if resp.ToolCalls[0].Arguments != `{"prompt":"hello"}` {
		t.Fatalf("unexpected arguments: %s", resp.ToolCalls[0].Arguments)
	}
}

func TestMockStreamReassemblesText(t *testing.T) {
	client := NewMockClient()
	stream, err := client.Stream(context.Background(), Request{Prompt: "one two three"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer stream.Close()

	var text strings.Builder
	var completed *Response
	for {
		event, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		switch event.Type {
		case EventTextDelta:
			text.WriteString(event.Delta)
		case EventCompleted:
			completed = event.Response
		}
	}
	if completed == nil {
		t.Fatalf("expected completion event")
	}
	if text.String() != completed.Text {
		t.Fatalf("deltas %q do not match completed text %q", text.String(), completed.Text)
	}
}

func TestSliceStreamStopsAfterClose(t *testing.T) {
	stream := NewSliceStream(TextDelta("a"), TextDelta("b"))
	if _, err := stream.Next(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = stream.Close()
	if _, err := stream.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF after close, got %v", err)
	}
	if !stream.Closed() {
		t.Fatalf("expected stream to report closed")
	}
}
