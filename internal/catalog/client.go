package catalog

import (
	"context"
	"encoding/json"
)

// Credentials carry the secrets a provider client authenticates with.
type Credentials struct {
	Token    string
	Username string
	Password string
	// Header overrides the header name used for header-style auth.
	Header string
}

// IsZero reports whether no secret is set.
func (c Credentials) IsZero() bool {
	return c.Token == "" && c.Username == "" && c.Password == ""
}

// Factory builds a provider client bound to credentials.
type Factory func(ctx context.Context, creds Credentials) (Client, error)

// Client is an instantiated, credential-bound provider.
type Client interface {
	Operations() []Operation
}

// Parameter describes one input of an operation.
type Parameter struct {
	Name        string
	Type        string
	Description string
	Required    bool
}

// Operation is one invocable capability of a provider client.
type Operation struct {
	Name        string
	Description string
	Parameters  []Parameter
	Invoke      func(ctx context.Context, input json.RawMessage) (string, error)
}

// InputSchema renders the parameters as a JSON-schema object properties map
// and the list of required names.
func (o Operation) InputSchema() (map[string]any, []string) {
	props := make(map[string]any, len(o.Parameters))
	var required []string
	for _, p := range o.Parameters {
		typ := p.Type
		if typ == "" {
			typ = "string"
		}
		prop := map[string]any{"type": typ}
		if p.Description != "" {
			prop["description"] = p.Description
		}
		props[p.Name] = prop
		if p.Required {
			required = append(required, p.Name)
		}
	}
	return props, required
}

// StaticClient is a Client over a fixed operation list.
type StaticClient []Operation

// Operations implements Client.
func (s StaticClient) Operations() []Operation {
	return s
}
