package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// DefaultMaxIterations bounds the model/tool round trips of one reply.
const DefaultMaxIterations = 20

// StreamEvent represents an event during a reply for streaming to a UI.
type StreamEvent struct {
	Type    string // "text", "tool_use", "tool_result", "done", "error"
	Content string
	Tool    string
	Input   json.RawMessage
	IsError bool
}

// TurnRequest is a single task handed to the model.
type TurnRequest struct {
	System string
	Prompt string
	// Tools may be nil, in which case the model answers from its own reasoning.
	Tools         ToolSet
	MaxIterations int
	MaxTokens     int64
	OnEvent       func(StreamEvent)
}

// TurnResult contains the outcome of a reply.
type TurnResult struct {
	Output     string
	TokensIn   int64
	TokensOut  int64
	ToolCalls  int
	Iterations int
}

// Reply runs the model/tool cycle until the model answers without calling a tool.
// Tool failures are reported back to the model as error results, not returned.
func (c *Client) Reply(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	maxIter := req.MaxIterations
	if maxIter <= 0 {
		maxIter = DefaultMaxIterations
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}
	emit := func(ev StreamEvent) {
		if req.OnEvent != nil {
			req.OnEvent(ev)
		}
	}

	var tools []anthropic.ToolUnionParam
	if req.Tools != nil {
		tools = ToolDefinitions(req.Tools.Specs())
	}

	result := &TurnResult{}
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
	}

	for result.Iterations < maxIter {
		result.Iterations++

		params := anthropic.MessageNewParams{
			Model:     c.Model(),
			MaxTokens: maxTokens,
			Messages:  messages,
			Tools:     tools,
		}
		if req.System != "" {
			params.System = []anthropic.TextBlockParam{{Text: req.System}}
		}

		resp, err := c.sdk().Messages.New(ctx, params)
		if err != nil {
			emit(StreamEvent{Type: "error", Content: err.Error()})
			return result, fmt.Errorf("API call failed: %w", err)
		}

		result.TokensIn += resp.Usage.InputTokens
		result.TokensOut += resp.Usage.OutputTokens
		c.usage.record(CallReply, resp.Usage)

		var assistantBlocks []anthropic.ContentBlockParamUnion
		var toolResultBlocks []anthropic.ContentBlockParamUnion
		var textOutput string

		for _, block := range resp.Content {
			switch variant := block.AsAny().(type) {
			case anthropic.TextBlock:
				textOutput += variant.Text
				emit(StreamEvent{Type: "text", Content: variant.Text})
				assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(variant.Text))

			case anthropic.ToolUseBlock:
				result.ToolCalls++
				emit(StreamEvent{Type: "tool_use", Tool: variant.Name, Input: variant.Input})
				assistantBlocks = append(assistantBlocks,
					anthropic.NewToolUseBlock(variant.ID, variant.Input, variant.Name))

				content, isError := c.invoke(ctx, req.Tools, variant.Name, variant.Input)
				emit(StreamEvent{Type: "tool_result", Tool: variant.Name, Content: truncateForDisplay(content), IsError: isError})

				toolResultBlocks = append(toolResultBlocks,
					anthropic.NewToolResultBlock(variant.ID, content, isError))
			}
		}

		if len(toolResultBlocks) == 0 {
			result.Output = textOutput
			emit(StreamEvent{Type: "done"})
			return result, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))
		messages = append(messages, anthropic.NewUserMessage(toolResultBlocks...))
	}

	return result, fmt.Errorf("max iterations (%d) reached", maxIter)
}

func (c *Client) invoke(ctx context.Context, tools ToolSet, name string, input json.RawMessage) (string, bool) {
	if tools == nil {
		return fmt.Sprintf("unknown tool: %s", name), true
	}
	out, err := tools.Invoke(ctx, name, input)
	if err != nil {
		return err.Error(), true
	}
	return out, false
}

func truncateForDisplay(s string) string {
	if len(s) > 500 {
		return s[:500] + "..."
	}
	return s
}
