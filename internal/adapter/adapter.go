package adapter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"pai-openai/internal/events"
	"pai-openai/internal/llm"
	"pai-openai/internal/render"
	"pai-openai/internal/tools"

	"go.uber.org/zap"
)

// Process exit codes reported through CallResult.
const (
	ExitOK        = 0
	ExitFailure   = 1
	ExitNeedsTool = 10
)

// ErrMissingCredential is returned before any work when no API key is configured.
var ErrMissingCredential = errors.New("OPENAI_API_KEY is required")

// Args describes one adapter invocation.
type Args struct {
	Prompt       string
	Context      string
	Model        string
	JSONMode     bool
	Stream       bool
	Timeout      time.Duration
	ToolSpecPath string
	ToolExec     string
}

// CallResult is the outcome of Call. When NeedsTool is set, Tool holds the
// unresolved call and Text is whatever the model said before asking for it.
type CallResult struct {
	ExitCode  int
	Text      string
	NeedsTool bool
	Tool      *llm.ToolCall
}

// ClientFactory builds the provider client for one call.
type ClientFactory func(opts llm.ClientOptions) llm.Client

// ToolRunner resolves a tool call with an external command.
type ToolRunner interface {
	Execute(ctx context.Context, command string, call llm.ToolCall) (tools.ExecResult, error)
}

// Options configures an Adapter. Zero values select the OpenAI client and
// the shell tool executor.
type Options struct {
	APIKey    string
	BaseURL   string
	NewClient ClientFactory
	Tools     ToolRunner
	Renderer  render.Renderer
	Logger    *zap.Logger
}

// Adapter sends one prompt to the model and reconciles streaming output and
// tool calls into a CallResult.
type Adapter struct {
	apiKey    string
	baseURL   string
	newClient ClientFactory
	tools     ToolRunner
	renderer  render.Renderer
	logger    *zap.Logger
}

// New constructs an Adapter.
func New(opts Options) *Adapter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	newClient := opts.NewClient
	if newClient == nil {
		newClient = func(o llm.ClientOptions) llm.Client { return llm.NewOpenAIClient(o) }
	}
	runner := opts.Tools
	if runner == nil {
		runner = tools.NewExecutor(logger)
	}
	return &Adapter{
		apiKey:    strings.TrimSpace(opts.APIKey),
		baseURL:   opts.BaseURL,
		newClient: newClient,
		tools:     runner,
		renderer:  opts.Renderer,
		logger:    logger,
	}
}

// invocation carries the per-call state shared by both modes.
type invocation struct {
	client   llm.Client
	req      llm.Request
	args     Args
	registry *tools.Registry
}

// Call runs one request. Errors come with ExitCode set to ExitFailure.
func (a *Adapter) Call(ctx context.Context, args Args) (CallResult, error) {
	if a.apiKey == "" {
		return CallResult{ExitCode: ExitFailure}, ErrMissingCredential
	}

	registry, err := tools.LoadRegistry(args.ToolSpecPath)
	if err != nil {
		return CallResult{ExitCode: ExitFailure}, err
	}
	if registry.Len() > 0 {
		a.logger.Debug("loaded tool specs", zap.Strings("tools", registry.Names()))
	}

	// Timeout bounds each API request through the client. Tool execution
	// runs under the caller's ctx only.
	inv := invocation{
		client: a.newClient(llm.ClientOptions{
			APIKey:  a.apiKey,
			BaseURL: a.baseURL,
			Timeout: args.Timeout,
			Logger:  a.logger,
		}),
		req: llm.Request{
			Model:    args.Model,
			Prompt:   args.Prompt,
			Context:  args.Context,
			JSONMode: args.JSONMode,
			Tools:    registry.ResponseTools(),
		},
		args:     args,
		registry: registry,
	}

	if args.Stream {
		return a.callStream(ctx, inv)
	}
	return a.callOnce(ctx, inv)
}

func (a *Adapter) callOnce(ctx context.Context, inv invocation) (CallResult, error) {
	resp, err := inv.client.Create(ctx, inv.req)
	if err != nil {
		return CallResult{ExitCode: ExitFailure}, fmt.Errorf("responses request: %w", err)
	}

	if len(resp.ToolCalls) > 0 {
		if len(resp.ToolCalls) > 1 {
			a.logger.Warn("model requested several tool calls; only the first is handled",
				zap.Int("count", len(resp.ToolCalls)))
		}
		return a.resolveTool(ctx, inv, resp.ID, resp.ToolCalls[0], resp.Text, false)
	}

	a.emit(events.FinalAnswerReady, events.FinalAnswerPayload{Answer: resp.Text})
	return CallResult{ExitCode: ExitOK, Text: resp.Text}, nil
}

func (a *Adapter) callStream(ctx context.Context, inv invocation) (CallResult, error) {
	stream, err := inv.client.Stream(ctx, inv.req)
	if err != nil {
		return CallResult{ExitCode: ExitFailure}, fmt.Errorf("open responses stream: %w", err)
	}
	defer stream.Close()

	var (
		buffer    strings.Builder
		pending   *llm.ToolCall
		completed *llm.Response
	)
	for {
		event, err := stream.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return CallResult{ExitCode: ExitFailure}, fmt.Errorf("read responses stream: %w", err)
		}

		switch event.Type {
		case llm.EventTextDelta:
			buffer.WriteString(event.Delta)
			a.emit(events.ModelDelta, events.ModelDeltaPayload{Delta: event.Delta})
		case llm.EventToolCall:
			if pending != nil {
				a.logger.Warn("ignoring additional tool call", zap.String("tool", event.ToolCall.Name))
				continue
			}
			pending = event.ToolCall
			a.logger.Info("tool requested", zap.String("tool", pending.Name))
		case llm.EventError:
			return CallResult{ExitCode: ExitFailure}, fmt.Errorf("responses stream: %w", event.Err)
		case llm.EventCompleted:
			completed = event.Response
		}
	}

	streamed := buffer.String()
	responseID := ""
	if completed != nil {
		responseID = completed.ID
		if pending == nil && len(completed.ToolCalls) > 0 {
			pending = &completed.ToolCalls[0]
		}
	}
	if pending != nil {
		return a.resolveTool(ctx, inv, responseID, *pending, streamed, true)
	}

	text := streamed
	if completed != nil && completed.Text != "" {
		text = completed.Text
	}
	return CallResult{ExitCode: ExitOK, Text: text}, nil
}

// resolveTool runs the configured executor for call and returns the model's
// reply to its output, or reports the call as pending when no executor is set.
func (a *Adapter) resolveTool(ctx context.Context, inv invocation, responseID string, call llm.ToolCall, text string, streamed bool) (CallResult, error) {
	if _, ok := inv.registry.Get(call.Name); !ok {
		a.logger.Warn("model requested an undeclared tool", zap.String("tool", call.Name))
	}

	if inv.args.ToolExec == "" {
		a.logger.Warn("tool call required; rerun with --tool-exec to satisfy", zap.String("tool", call.Name))
		return CallResult{ExitCode: ExitNeedsTool, Text: text, NeedsTool: true, Tool: &call}, nil
	}
	if responseID == "" {
		return CallResult{ExitCode: ExitFailure}, errors.New("stream ended without response id; cannot submit tool output")
	}

	result, err := a.tools.Execute(ctx, inv.args.ToolExec, call)
	if err != nil {
		return CallResult{ExitCode: ExitFailure}, fmt.Errorf("resolve tool %s: %w", call.Name, err)
	}

	followUp, err := inv.client.SubmitToolOutput(ctx, inv.req, responseID, llm.ToolOutput{CallID: call.ID, Output: result.Output})
	if err != nil {
		return CallResult{ExitCode: ExitFailure}, fmt.Errorf("submit tool output: %w", err)
	}

	a.emit(events.FinalAnswerReady, events.FinalAnswerPayload{Answer: followUp.Text})
	if streamed {
		a.emit(events.StreamFinished, events.StreamFinishedPayload{})
	}
	return CallResult{ExitCode: ExitOK, Text: followUp.Text}, nil
}

func (a *Adapter) emit(eventType events.Type, payload any) {
	if a.renderer != nil {
		a.renderer.Emit(events.New(eventType, payload))
	}
}
