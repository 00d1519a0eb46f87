package api

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
)

// ToolSpec describes one tool offered to the model.
type ToolSpec struct {
	Name        string
	Description string
	// Properties is the JSON-schema properties object of the tool input.
	Properties map[string]any
	Required   []string
}

// ToolSet is the set of tools a reply may call.
type ToolSet interface {
	Specs() []ToolSpec
	Invoke(ctx context.Context, name string, input json.RawMessage) (string, error)
}

// ToolDefinitions returns the tool schemas for Claude API calls.
func ToolDefinitions(specs []ToolSpec) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, spec := range specs {
		props := spec.Properties
		if props == nil {
			props = map[string]any{}
		}
		param := anthropic.ToolParam{
			Name: spec.Name,
			InputSchema: anthropic.ToolInputSchemaParam{
				Properties: props,
				Required:   spec.Required,
			},
		}
		if spec.Description != "" {
			param.Description = anthropic.String(spec.Description)
		}
		tools = append(tools, anthropic.ToolUnionParam{OfTool: &param})
	}
	return tools
}
