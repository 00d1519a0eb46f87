package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ShayCichocki/toolroute/internal/version"
)

// DefaultHTTPTimeout bounds a single provider operation call.
const DefaultHTTPTimeout = 30 * time.Second

// HTTPFactory returns a factory building resty-backed clients for def.
func HTTPFactory(def ProviderDef) Factory {
	return func(ctx context.Context, creds Credentials) (Client, error) {
		return NewHTTPClient(def, creds)
	}
}

// HTTPClient invokes a provider's operations over HTTP.
type HTTPClient struct {
	def   ProviderDef
	resty *resty.Client
}

// NewHTTPClient creates a client for def with credentials applied.
func NewHTTPClient(def ProviderDef, creds Credentials) (*HTTPClient, error) {
	if def.BaseURL == "" {
		return nil, fmt.Errorf("provider %s: base_url is not set", def.ID)
	}

	r := resty.New().
		SetBaseURL(def.BaseURL).
		SetTimeout(DefaultHTTPTimeout).
		SetHeader("User-Agent", version.UserAgent()).
		SetHeader("Accept", "application/json")

	switch def.Auth.Type {
	case AuthBearer:
		if creds.Token == "" {
			return nil, fmt.Errorf("provider %s: %w", def.ID, ErrMissingCredentials)
		}
		r.SetAuthToken(creds.Token)
	case AuthHeader:
		if creds.Token == "" {
			return nil, fmt.Errorf("provider %s: %w", def.ID, ErrMissingCredentials)
		}
		header := def.Auth.Header
		if creds.Header != "" {
			header = creds.Header
		}
		r.SetHeader(header, creds.Token)
	case AuthBasic:
		if creds.Username == "" {
			return nil, fmt.Errorf("provider %s: %w", def.ID, ErrMissingCredentials)
		}
		r.SetBasicAuth(creds.Username, creds.Password)
	}

	return &HTTPClient{def: def, resty: r}, nil
}

// Operations implements Client.
func (c *HTTPClient) Operations() []Operation {
	ops := make([]Operation, 0, len(c.def.Operations))
	for _, od := range c.def.Operations {
		params := make([]Parameter, 0, len(od.Params))
		for _, p := range od.Params {
			params = append(params, Parameter{
				Name:        p.Name,
				Type:        p.Type,
				Description: p.Description,
				Required:    p.Required,
			})
		}
		ops = append(ops, Operation{
			Name:        od.Name,
			Description: od.Description,
			Parameters:  params,
			Invoke: func(ctx context.Context, input json.RawMessage) (string, error) {
				return c.call(ctx, od, input)
			},
		})
	}
	return ops
}

func (c *HTTPClient) call(ctx context.Context, od OperationDef, input json.RawMessage) (string, error) {
	args := make(map[string]any)
	if len(input) > 0 {
		if err := json.Unmarshal(input, &args); err != nil {
			return "", fmt.Errorf("invalid parameters: %w", err)
		}
	}

	req := c.resty.R().SetContext(ctx)
	query := make(map[string]string)
	path := make(map[string]string)
	body := make(map[string]any)

	for _, p := range od.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return "", fmt.Errorf("missing required parameter %q", p.Name)
			}
			continue
		}
		switch p.In {
		case "path":
			path[p.Name] = fmt.Sprint(v)
		case "query":
			query[p.Name] = fmt.Sprint(v)
		default:
			body[p.Name] = v
		}
	}

	req.SetPathParams(path).SetQueryParams(query)
	if len(body) > 0 {
		req.SetHeader("Content-Type", "application/json").SetBody(body)
	}

	resp, err := req.Execute(od.Method, od.Path)
	if err != nil {
		return "", fmt.Errorf("%s %s: %w", od.Method, od.Path, err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return "", fmt.Errorf("%s %s: status %d: %s", od.Method, od.Path, resp.StatusCode(), truncate(resp.String(), 512))
	}
	return resp.String(), nil
}

func truncate(s string, n int) string {
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}
