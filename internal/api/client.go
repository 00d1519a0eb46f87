// Package api provides direct Anthropic API integration for task
// classification and tool-using replies.
package api

import (
	"context"
	"errors"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/aws/aws-sdk-go-v2/config"
)

// ErrMissingAPIKey is returned when the direct API is selected without a key.
var ErrMissingAPIKey = errors.New("ANTHROPIC_API_KEY environment variable is not set")

// DefaultModel answers when ClientConfig.Model is empty.
const DefaultModel = anthropic.ModelClaudeSonnet4_20250514

// Client is the language model service: one SDK client bound to one model.
type Client struct {
	inner anthropic.Client
	model anthropic.Model
	usage *UsageMeter
}

// ClientConfig contains configuration for creating a new Client.
type ClientConfig struct {
	Model anthropic.Model
	// APIKey falls back to ANTHROPIC_API_KEY.
	APIKey string
	// UseAWSBedrock routes requests through Bedrock with the default AWS
	// credential chain; APIKey and BaseURL are ignored.
	UseAWSBedrock bool
	AWSRegion     string
	AWSProfile    string
	BaseURL       string
	// Options are appended to the SDK request options.
	Options []option.RequestOption
}

// NewClient creates a Client for cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	opts, err := requestOptions(cfg)
	if err != nil {
		return nil, err
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	if cfg.UseAWSBedrock {
		model = bedrockModelID(model)
	}

	return &Client{
		inner: anthropic.NewClient(append(opts, cfg.Options...)...),
		model: model,
		usage: NewUsageMeter(),
	}, nil
}

func requestOptions(cfg ClientConfig) ([]option.RequestOption, error) {
	if cfg.UseAWSBedrock {
		var load []func(*config.LoadOptions) error
		if cfg.AWSRegion != "" {
			load = append(load, config.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			load = append(load, config.WithSharedConfigProfile(cfg.AWSProfile))
		}
		return []option.RequestOption{bedrock.WithLoadDefaultConfig(context.Background(), load...)}, nil
	}

	key := cfg.APIKey
	if key == "" {
		key = os.Getenv("ANTHROPIC_API_KEY")
	}
	if key == "" {
		return nil, ErrMissingAPIKey
	}
	opts := []option.RequestOption{option.WithAPIKey(key)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return opts, nil
}

// bedrockModelID maps an Anthropic model name to its cross-region Bedrock
// inference profile. Names already in Bedrock form pass through.
func bedrockModelID(model anthropic.Model) anthropic.Model {
	name := string(model)
	if !strings.HasPrefix(name, "claude-") {
		return model
	}
	return anthropic.Model("us.anthropic." + name + "-v1:0")
}

func (c *Client) sdk() *anthropic.Client {
	return &c.inner
}

// Model returns the model every request is sent to.
func (c *Client) Model() anthropic.Model {
	return c.model
}

// Usage returns the client's token meter.
func (c *Client) Usage() *UsageMeter {
	return c.usage
}

// CallKind labels the kind of request that consumed tokens.
type CallKind string

const (
	CallStructured CallKind = "structured"
	CallReply      CallKind = "reply"
)

// UsageTotals is the token usage of a set of calls.
type UsageTotals struct {
	Calls        int
	InputTokens  int64
	OutputTokens int64
}

// UsageMeter accumulates token usage per call kind. Safe for concurrent use.
type UsageMeter struct {
	mu     sync.Mutex
	byKind map[CallKind]UsageTotals
}

// NewUsageMeter creates an empty meter.
func NewUsageMeter() *UsageMeter {
	return &UsageMeter{byKind: make(map[CallKind]UsageTotals)}
}

func (m *UsageMeter) record(kind CallKind, u anthropic.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.byKind[kind]
	t.Calls++
	t.InputTokens += u.InputTokens
	t.OutputTokens += u.OutputTokens
	m.byKind[kind] = t
}

// Kind returns the totals recorded for kind.
func (m *UsageMeter) Kind(kind CallKind) UsageTotals {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.byKind[kind]
}

// Kinds returns the call kinds that recorded usage, sorted.
func (m *UsageMeter) Kinds() []CallKind {
	m.mu.Lock()
	defer m.mu.Unlock()
	kinds := make([]CallKind, 0, len(m.byKind))
	for k := range m.byKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// Total sums every call kind.
func (m *UsageMeter) Total() UsageTotals {
	m.mu.Lock()
	defer m.mu.Unlock()
	var sum UsageTotals
	for _, t := range m.byKind {
		sum.Calls += t.Calls
		sum.InputTokens += t.InputTokens
		sum.OutputTokens += t.OutputTokens
	}
	return sum
}
