package llm

import "io"

// StreamEventType discriminates StreamEvent.
type StreamEventType string

const (
	EventTextDelta StreamEventType = "text_delta"
	EventToolCall  StreamEventType = "tool_call"
	EventError     StreamEventType = "error"
	EventCompleted StreamEventType = "completed"
)

// StreamEvent is one item of a streaming response. Only the field matching
// Type is set.
type StreamEvent struct {
	Type     StreamEventType
	Delta    string
	ToolCall *ToolCall
	Err      error
	Response *Response
}

// Stream yields events in arrival order. Next returns io.EOF once the
// provider closes the stream. Close is safe to call more than once.
type Stream interface {
	Next() (StreamEvent, error)
	Close() error
}

// TextDelta builds an EventTextDelta event.
func TextDelta(delta string) StreamEvent {
	return StreamEvent{Type: EventTextDelta, Delta: delta}
}

// ToolCallEvent builds an EventToolCall event.
func ToolCallEvent(call ToolCall) StreamEvent {
	return StreamEvent{Type: EventToolCall, ToolCall: &call}
}

// ErrorEvent builds an EventError event.
func ErrorEvent(err error) StreamEvent {
	return StreamEvent{Type: EventError, Err: err}
}

// Completed builds an EventCompleted event.
func Completed(resp Response) StreamEvent {
	return StreamEvent{Type: EventCompleted, Response: &resp}
}

// SliceStream replays a fixed list of events.
type SliceStream struct {
	events []StreamEvent
	closed bool
}

// NewSliceStream returns a Stream over events.
func NewSliceStream(events ...StreamEvent) *SliceStream {
	return &SliceStream{events: events}
}

func (s *SliceStream) Next() (StreamEvent, error) {
	if s.closed || len(s.events) == 0 {
		return StreamEvent{}, io.EOF
	}
	event := s.events[0]
	s.events = s.events[1:]
	return event, nil
}

func (s *SliceStream) Close() error {
	s.closed = true
	return nil
}

// Closed reports whether Close was called.
func (s *SliceStream) Closed() bool {
	return s.closed
}
