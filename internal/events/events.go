package events

import "time"

// Type represents an emitted event type.
type Type string

const (
	ModelDelta       Type = "ModelStreamingDelta"
	FinalAnswerReady Type = "FinalAnswerReady"
	StreamFinished   Type = "StreamFinished"
)

// Event is the common envelope for renderer events.
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// New stamps an event with the current time.
func New(eventType Type, payload any) Event {
	return Event{Type: eventType, Timestamp: time.Now(), Payload: payload}
}

// ModelDeltaPayload is streamed as tokens arrive.
type ModelDeltaPayload struct {
	Delta string `json:"delta"`
}

// FinalAnswerPayload carries text that was not streamed: the non-streaming
// answer or the reply to a submitted tool output.
type FinalAnswerPayload struct {
	Answer string `json:"answer"`
}

// StreamFinishedPayload closes a streamed answer that was followed by a tool
// round-trip.
type StreamFinishedPayload struct{}
