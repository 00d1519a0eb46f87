// Package tools holds the per-task Tool Registry and the ToolLoader that
// fills it from the provider catalog.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"

	"github.com/ShayCichocki/toolroute/internal/api"
	"github.com/ShayCichocki/toolroute/internal/catalog"
)

var (
	// ErrDuplicateTool is returned when a tool name is registered twice.
	ErrDuplicateTool = errors.New("tool already registered")
	// ErrUnknownTool is returned when invoking a name that is not registered.
	ErrUnknownTool = errors.New("unknown tool")
)

// maxToolName is the longest tool name the model API accepts.
const maxToolName = 64

var invalidToolChars = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// Tool is one registered provider operation.
type Tool struct {
	Name       string
	ProviderID string
	Operation  catalog.Operation
}

// Registry maps tool names to operations for a single task invocation.
// It is not safe for concurrent registration; build it, then hand it to the engine.
type Registry struct {
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds op of providerID under its tool name.
func (r *Registry) Register(providerID string, op catalog.Operation) (string, error) {
	if op.Invoke == nil {
		return "", fmt.Errorf("operation %s of %s has no implementation", op.Name, providerID)
	}
	name := ToolName(providerID, op.Name)
	if existing, exists := r.tools[name]; exists {
		if existing.ProviderID == providerID && existing.Operation.Name == op.Name {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
		// Distinct raw names that sanitize to the same tool name.
		name = hashedName(name, providerID, op.Name)
		if _, exists := r.tools[name]; exists {
			return "", fmt.Errorf("%w: %s", ErrDuplicateTool, name)
		}
	}
	r.tools[name] = Tool{Name: name, ProviderID: providerID, Operation: op}
	r.order = append(r.order, name)
	return name, nil
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	t, ok := r.tools[name]
	return t, ok
}

// List returns every tool in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.tools[name])
	}
	return out
}

// Names returns every tool name in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Len returns the number of registered tools.
func (r *Registry) Len() int {
	return len(r.order)
}

// Providers returns the distinct providers that contributed tools, in load order.
func (r *Registry) Providers() []string {
	seen := make(map[string]bool)
	var out []string
	for _, name := range r.order {
		id := r.tools[name].ProviderID
		if !seen[id] {
			seen[id] = true
			out = append(out, id)
		}
	}
	return out
}

// Specs implements api.ToolSet.
func (r *Registry) Specs() []api.ToolSpec {
	specs := make([]api.ToolSpec, 0, len(r.order))
	for _, t := range r.List() {
		props, required := t.Operation.InputSchema()
		specs = append(specs, api.ToolSpec{
			Name:        t.Name,
			Description: t.Operation.Description,
			Properties:  props,
			Required:    required,
		})
	}
	return specs
}

// Invoke implements api.ToolSet.
func (r *Registry) Invoke(ctx context.Context, name string, input json.RawMessage) (string, error) {
	t, ok := r.tools[name]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownTool, name)
	}
	return t.Operation.Invoke(ctx, input)
}

// ToolName builds the model-facing name of a provider operation:
// "<provider>__<operation>", restricted to [a-zA-Z0-9_-] and 64 characters.
// Names that would exceed the limit are cut and suffixed with a hash of the
// raw provider and operation names.
func ToolName(providerID, operation string) string {
	name := sanitize(providerID) + "__" + sanitize(operation)
	if len(name) > maxToolName {
		return hashedName(name, providerID, operation)
	}
	return name
}

// hashedName appends "_<fnv32a hex>" of the raw names to base, cutting base
// so the result stays within maxToolName.
func hashedName(base, providerID, operation string) string {
	h := fnv.New32a()
	h.Write([]byte(providerID + "\x00" + operation))
	suffix := fmt.Sprintf("_%08x", h.Sum32())
	if limit := maxToolName - len(suffix); len(base) > limit {
		base = base[:limit]
	}
	return base + suffix
}

func sanitize(s string) string {
	return strings.Trim(invalidToolChars.ReplaceAllString(s, "_"), "_")
}
