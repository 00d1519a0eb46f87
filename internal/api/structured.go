package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
)

// ErrNoStructuredOutput is returned when the model did not call the output tool.
var ErrNoStructuredOutput = errors.New("model returned no structured output")

// StructuredRequest asks the model for a single JSON object matching a schema.
// The schema is offered as a tool the model is forced to call.
type StructuredRequest struct {
	System      string
	Prompt      string
	ToolName    string
	Description string
	Properties  map[string]any
	Required    []string
	MaxTokens   int64
}

// Structured sends req and decodes the forced tool call input into out.
func (c *Client) Structured(ctx context.Context, req StructuredRequest, out any) error {
	if req.ToolName == "" {
		return fmt.Errorf("structured request: tool name is required")
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 2048
	}

	params := anthropic.MessageNewParams{
		Model:     c.Model(),
		MaxTokens: maxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
		Tools: ToolDefinitions([]ToolSpec{{
			Name:        req.ToolName,
			Description: req.Description,
			Properties:  req.Properties,
			Required:    req.Required,
		}}),
		ToolChoice: anthropic.ToolChoiceParamOfTool(req.ToolName),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}

	resp, err := c.sdk().Messages.New(ctx, params)
	if err != nil {
		return fmt.Errorf("API call failed: %w", err)
	}
	c.usage.record(CallStructured, resp.Usage)

	for _, block := range resp.Content {
		variant, ok := block.AsAny().(anthropic.ToolUseBlock)
		if !ok || variant.Name != req.ToolName {
			continue
		}
		if err := json.Unmarshal(variant.Input, out); err != nil {
			return fmt.Errorf("decode %s output: %w", req.ToolName, err)
		}
		return nil
	}
	return ErrNoStructuredOutput
}
