package render

import (
	"io"
	"sync"

	"pai-openai/internal/events"
)

// StdoutRenderer writes model text to w byte for byte, with no headers or
// added separators, so that stdout can be piped into other programs.
type StdoutRenderer struct {
	w   io.Writer
	mu  sync.Mutex
	err error
}

// NewStdoutRenderer creates a renderer for plain text streaming.
func NewStdoutRenderer(w io.Writer) *StdoutRenderer {
	return &StdoutRenderer{w: w}
}

func (r *StdoutRenderer) Emit(event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	switch event.Type {
	case events.ModelDelta:
		if payload, ok := event.Payload.(events.ModelDeltaPayload); ok {
			r.write(payload.Delta)
		}
	case events.FinalAnswerReady:
		if payload, ok := event.Payload.(events.FinalAnswerPayload); ok {
			r.write(payload.Answer)
		}
	case events.StreamFinished:
		r.write("\n")
	}
}

func (r *StdoutRenderer) write(text string) {
	if text == "" || r.err != nil {
		return
	}
	_, r.err = io.WriteString(r.w, text)
}

// Close reports the first write error, if any.
func (r *StdoutRenderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}
