package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/ssestream"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
	"go.uber.org/zap"
)

// ClientOptions configures OpenAIClient.
type ClientOptions struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	Logger  *zap.Logger
}

// OpenAIClient implements Client on top of the OpenAI Responses API.
type OpenAIClient struct {
	client openai.Client
	logger *zap.Logger
}

// NewOpenAIClient constructs a client. The SDK's own retries are disabled.
func NewOpenAIClient(opts ClientOptions) *OpenAIClient {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	reqOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
		option.WithHTTPClient(newHTTPClient(logger)),
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(opts.Timeout))
	}
	return &OpenAIClient{client: openai.NewClient(reqOpts...), logger: logger}
}

func (c *OpenAIClient) Create(ctx context.Context, req Request) (Response, error) {
	params := buildParams(req)
	c.logRequest("create", req)
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, err
	}
	return parseResponse(resp), nil
}

func (c *OpenAIClient) Stream(ctx context.Context, req Request) (Stream, error) {
	params := buildParams(req)
	c.logRequest("stream", req)
	stream := c.client.Responses.NewStreaming(ctx, params)
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, err
	}
	return &responseStream{stream: stream}, nil
}

// SubmitToolOutput continues responseID with the tool's return value. The
// follow-up reuses the model, tools and text format of req.
func (c *OpenAIClient) SubmitToolOutput(ctx context.Context, req Request, responseID string, output ToolOutput) (Response, error) {
	params := buildParams(req)
	params.PreviousResponseID = openai.String(responseID)
	params.Input = responses.ResponseNewParamsInputUnion{
		OfInputItemList: responses.ResponseInputParam{
			responses.ResponseInputItemParamOfFunctionCallOutput(output.CallID, output.Output),
		},
	}
	c.logger.Debug("submitting tool output",
		zap.String("response_id", responseID),
		zap.String("call_id", output.CallID),
		zap.Int("output_bytes", len(output.Output)))
	resp, err := c.client.Responses.New(ctx, params)
	if err != nil {
		return Response{}, err
	}
	return parseResponse(resp), nil
}

func (c *OpenAIClient) logRequest(mode string, req Request) {
	c.logger.Debug("sending responses request",
		zap.String("mode", mode),
		zap.String("model", req.Model),
		zap.Bool("json_mode", req.JSONMode),
		zap.Int("prompt_bytes", len(req.Prompt)),
		zap.Int("context_bytes", len(req.Context)),
		zap.Int("tools", len(req.Tools)))
}

func buildParams(req Request) responses.ResponseNewParams {
	content := responses.ResponseInputMessageContentListParam{
		{OfInputText: &responses.ResponseInputTextParam{Text: req.Prompt}},
	}
	if req.Context != "" {
		content = append(content, responses.ResponseInputContentUnionParam{
			OfInputText: &responses.ResponseInputTextParam{Text: req.Context},
		})
	}
	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(req.Model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
	}
	if len(req.Tools) > 0 {
		params.Tools = req.Tools
	}
	if req.JSONMode {
		jsonObject := shared.NewResponseFormatJSONObjectParam()
		params.Text = responses.ResponseTextConfigParam{
			Format: responses.ResponseFormatTextConfigUnionParam{OfJSONObject: &jsonObject},
		}
	}
	return params
}

func parseResponse(resp *responses.Response) Response {
	if resp == nil {
		return Response{}
	}
	out := Response{ID: resp.ID}
	var text strings.Builder
	for _, item := range resp.Output {
		switch item.Type {
		case "message":
			for _, part := range item.AsMessage().Content {
				if part.Type == "output_text" {
					text.WriteString(part.Text)
				}
			}
		case "function_call":
			out.ToolCalls = append(out.ToolCalls, toolCallFromItem(item))
		}
	}
	out.Text = text.String()
	return out
}

func toolCallFromItem(item responses.ResponseOutputItemUnion) ToolCall {
	call := item.AsFunctionCall()
	return ToolCall{ID: call.CallID, Name: call.Name, Arguments: call.Arguments}
}

// responseStream maps SDK stream events onto StreamEvent values.
type responseStream struct {
	stream *ssestream.Stream[responses.ResponseStreamEventUnion]
}

func (s *responseStream) Next() (StreamEvent, error) {
	for s.stream.Next() {
		event := s.stream.Current()
		switch event.Type {
		case "response.output_text.delta":
			delta := event.AsResponseOutputTextDelta().Delta
			if delta == "" {
				continue
			}
			return TextDelta(delta), nil
		case "response.output_item.done":
			item := event.AsResponseOutputItemDone().Item
			if item.Type != "function_call" {
				continue
			}
			return ToolCallEvent(toolCallFromItem(item)), nil
		case "response.completed":
			completed := event.AsResponseCompleted().Response
			return Completed(parseResponse(&completed)), nil
		case "response.failed":
			failed := event.AsResponseFailed().Response
			message := failed.Error.Message
			if message == "" {
				message = "response failed"
			}
			return ErrorEvent(errors.New(message)), nil
		case "error":
			return ErrorEvent(fmt.Errorf("stream error: %s", event.AsError().Message)), nil
		}
	}
	if err := s.stream.Err(); err != nil {
		return StreamEvent{}, err
	}
	return StreamEvent{}, io.EOF
}

func (s *responseStream) Close() error {
	return s.stream.Close()
}
