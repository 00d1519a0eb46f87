// Package orchestrator sequences a task through classification, capability
// resolution, tool loading and execution, falling back to tool-free
// reasoning whenever no usable provider remains.
package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/internal/resolve"
	"github.com/ShayCichocki/toolroute/internal/tools"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// Run outcomes, used as metric labels.
const (
	OutcomeWithTools        = "with_tools"
	OutcomeReasonNoApp      = "reason_only_no_app"
	OutcomeReasonUnresolved = "reason_only_unresolved"
	OutcomeReasonLoadFailed = "reason_only_load_failed"
	OutcomeClassifyError    = "classify_error"
	OutcomeResolveError     = "resolve_error"
	OutcomeExecutionError   = "execution_error"
)

// SummarySource lists the compact provider summaries.
type SummarySource interface {
	Summaries(ctx context.Context) []models.ProviderSummary
}

// Classifier turns a task into a TaskAnalysis.
type Classifier interface {
	Classify(ctx context.Context, task string, providers []models.ProviderSummary) (*models.TaskAnalysis, error)
}

// SetResolver plans capability sets and applies a channel to the ambiguous ones.
type SetResolver interface {
	Plan(ctx context.Context, appSets [][]string, choice []bool) ([]resolve.SetPlan, error)
	Apply(ctx context.Context, plans []resolve.SetPlan, ch resolve.Channel) (*models.ResolutionResult, error)
}

// ToolLoader loads providers into a registry.
type ToolLoader interface {
	LoadAll(ctx context.Context, providerIDs []string, reg *tools.Registry) ([]string, []*tools.ProviderLoadError)
}

// Executor runs the final turn.
type Executor interface {
	RunWithTools(ctx context.Context, task string, reg *tools.Registry) (*models.FinalMessage, error)
	RunWithoutTools(ctx context.Context, task string) (*models.FinalMessage, error)
}

// Orchestrator drives one task at a time per Run call. Every Run builds its
// own tool registry, so concurrent Runs are independent as long as they do
// not share an interactive channel.
type Orchestrator struct {
	catalog    SummarySource
	classifier Classifier
	resolver   SetResolver
	loader     ToolLoader
	engine     Executor

	channel resolve.Channel
	logger  *zap.Logger
	metrics *Metrics
	onEvent func(Event)
}

// New creates an Orchestrator.
func New(req RequiredConfig, opts ...Option) (*Orchestrator, error) {
	switch {
	case req.Catalog == nil:
		return nil, fmt.Errorf("orchestrator: catalog is required")
	case req.Classifier == nil:
		return nil, fmt.Errorf("orchestrator: classifier is required")
	case req.Resolver == nil:
		return nil, fmt.Errorf("orchestrator: resolver is required")
	case req.Loader == nil:
		return nil, fmt.Errorf("orchestrator: loader is required")
	case req.Engine == nil:
		return nil, fmt.Errorf("orchestrator: engine is required")
	}

	var o orchestratorOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.channel == nil {
		o.channel = resolve.NewPayloadChannel(nil)
	}

	return &Orchestrator{
		catalog:    req.Catalog,
		classifier: req.Classifier,
		resolver:   req.Resolver,
		loader:     req.Loader,
		engine:     req.Engine,
		channel:    o.channel,
		logger:     logging.OrNop(o.logger),
		metrics:    o.metrics,
		onEvent:    o.onEvent,
	}, nil
}

// GetChoiceData classifies task and plans its capability sets without
// asking anyone or executing anything.
func (o *Orchestrator) GetChoiceData(ctx context.Context, task string) (*models.ChoiceData, error) {
	analysis, err := o.classifier.Classify(ctx, task, o.catalog.Summaries(ctx))
	if err != nil {
		return nil, err
	}

	data := &models.ChoiceData{
		Analysis:     *analysis,
		AutoSelected: []string{},
		Pending:      []models.PendingSet{},
	}
	if !analysis.RequiresApp {
		return data, nil
	}

	plans, err := o.resolver.Plan(ctx, analysis.AppSets, analysis.Choice)
	if err != nil {
		return nil, err
	}
	for _, p := range plans {
		switch p.Outcome {
		case resolve.OutcomeAuto:
			data.AutoSelected = append(data.AutoSelected, p.Selected...)
		case resolve.OutcomeChoice:
			data.Pending = append(data.Pending, models.PendingSet{Index: p.Index, Providers: p.Available})
		}
	}
	return data, nil
}

// Run drives task to a FinalMessage. With a nil payload the configured
// channel resolves ambiguous sets; otherwise the payload's choices do.
func (o *Orchestrator) Run(ctx context.Context, task string, payload *models.ResolutionPayload) (*models.FinalMessage, error) {
	taskID := uuid.NewString()
	start := time.Now()
	logger := o.logger.With(zap.String("task_id", taskID))

	msg, outcome, err := o.run(ctx, logger, taskID, task, payload)
	o.metrics.recordRun(outcome, time.Since(start))
	if err != nil {
		logger.Error("run failed", zap.String("outcome", outcome), zap.Error(err))
		return nil, err
	}
	msg.ID = taskID
	logger.Info("run completed", zap.String("outcome", outcome), zap.Duration("duration", time.Since(start)))
	return msg, nil
}

func (o *Orchestrator) run(ctx context.Context, logger *zap.Logger, taskID, task string, payload *models.ResolutionPayload) (*models.FinalMessage, string, error) {
	o.emit(taskID, StateClassify, "classifying task")
	analysis, err := o.classifier.Classify(ctx, task, o.catalog.Summaries(ctx))
	if err != nil {
		return nil, OutcomeClassifyError, err
	}
	if !analysis.RequiresApp {
		return o.reasonOnly(ctx, logger, taskID, task, OutcomeReasonNoApp, "task needs no apps")
	}

	o.emit(taskID, StateResolve, fmt.Sprintf("resolving %d capability set(s)", len(analysis.AppSets)))
	ch := o.channel
	if payload != nil {
		ch = resolve.NewPayloadChannel(payload.UserChoices)
	}
	plans, err := o.resolver.Plan(ctx, analysis.AppSets, analysis.Choice)
	if err != nil {
		return nil, OutcomeResolveError, err
	}
	for _, p := range plans {
		o.metrics.recordSet(string(p.Outcome))
	}
	result, err := o.resolver.Apply(ctx, plans, ch)
	if err != nil {
		return nil, OutcomeResolveError, err
	}

	ids := dedupe(result.ProviderIDs())
	if len(ids) == 0 {
		return o.reasonOnly(ctx, logger, taskID, task, OutcomeReasonUnresolved, "no provider resolved")
	}

	o.emit(taskID, StateLoadTools, fmt.Sprintf("loading %d provider(s)", len(ids)))
	reg := tools.NewRegistry()
	loaded, failed := o.loader.LoadAll(ctx, ids, reg)
	o.metrics.recordLoads(len(loaded), len(failed))
	if len(loaded) == 0 {
		return o.reasonOnly(ctx, logger, taskID, task, OutcomeReasonLoadFailed, "no provider could be loaded")
	}

	o.emit(taskID, StateExecuteWithTools, fmt.Sprintf("answering with %d tool(s)", reg.Len()))
	logger.Info("executing with tools",
		zap.String("state", string(StateExecuteWithTools)),
		zap.Strings("providers", loaded),
		zap.Int("tool_count", reg.Len()))
	msg, err := o.engine.RunWithTools(ctx, task, reg)
	if err != nil {
		return nil, OutcomeExecutionError, err
	}
	return msg, OutcomeWithTools, nil
}

func (o *Orchestrator) reasonOnly(ctx context.Context, logger *zap.Logger, taskID, task, outcome, reason string) (*models.FinalMessage, string, error) {
	o.emit(taskID, StateReasonOnly, reason)
	logger.Info("falling back to reasoning",
		zap.String("state", string(StateReasonOnly)),
		zap.String("reason", reason))

	msg, err := o.engine.RunWithoutTools(ctx, task)
	if err != nil {
		return nil, OutcomeExecutionError, err
	}
	return msg, outcome, nil
}

func (o *Orchestrator) emit(taskID string, state State, message string) {
	if o.onEvent == nil {
		return
	}
	o.onEvent(Event{TaskID: taskID, State: state, Message: message, Timestamp: time.Now()})
}

// dedupe keeps the first occurrence of every id.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
