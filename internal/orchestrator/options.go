package orchestrator

import (
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/resolve"
)

// RequiredConfig contains the collaborators every Orchestrator needs.
// All fields are required and have no defaults.
type RequiredConfig struct {
	// Catalog supplies the provider summaries sent to the classifier.
	Catalog SummarySource
	// Classifier turns a task into a TaskAnalysis.
	Classifier Classifier
	// Resolver maps capability sets onto provider ids.
	Resolver SetResolver
	// Loader fills a task's tool registry.
	Loader ToolLoader
	// Engine runs the final turn.
	Engine Executor
}

// Option configures an Orchestrator. Use With* functions to create Options.
type Option func(*orchestratorOptions)

type orchestratorOptions struct {
	channel resolve.Channel
	logger  *zap.Logger
	metrics *Metrics
	onEvent func(Event)
}

// WithChannel sets the channel used when Run gets no resolution payload.
// Without it, sets that need a choice contribute nothing.
func WithChannel(ch resolve.Channel) Option {
	return func(o *orchestratorOptions) { o.channel = ch }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *orchestratorOptions) { o.logger = l }
}

// WithMetrics sets the Prometheus metrics to record into.
func WithMetrics(m *Metrics) Option {
	return func(o *orchestratorOptions) { o.metrics = m }
}

// WithEventHandler sets a callback invoked on every state transition.
// It runs on the goroutine calling Run and must not block.
func WithEventHandler(fn func(Event)) Option {
	return func(o *orchestratorOptions) { o.onEvent = fn }
}
