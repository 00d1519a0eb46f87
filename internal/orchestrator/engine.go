package orchestrator

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/api"
	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/internal/tools"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// Execution modes.
const (
	ModeWithTools    = "with_tools"
	ModeWithoutTools = "without_tools"
)

const defaultToolSystemPrompt = `You are a helpful assistant. Use the available tools when they help complete the user's task.
Answer in plain language. Do not mention tool names, provider identifiers or internal errors in your answer.`

const defaultReasonSystemPrompt = `You are a helpful assistant. Answer the user's task using your own knowledge and reasoning.
If the task needs live data or an action you cannot perform, say what you can and explain how the user could complete the rest.`

// Responder is the language model capability the engine needs.
type Responder interface {
	Reply(ctx context.Context, req api.TurnRequest) (*api.TurnResult, error)
}

// ExecutionError reports a failed final turn.
type ExecutionError struct {
	Mode string
	Err  error
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("execution (%s) failed: %v", e.Mode, e.Err)
}

func (e *ExecutionError) Unwrap() error {
	return e.Err
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// SystemPrompt overrides the prompt of tool-bound turns.
	SystemPrompt string
	// MaxIterations bounds the model/tool round trips of a tool-bound turn.
	MaxIterations int
	MaxTokens     int64
	// OnEvent receives streaming events of every turn.
	OnEvent func(api.StreamEvent)
}

// Engine runs the single conversational turn that answers a task.
type Engine struct {
	model  Responder
	cfg    EngineConfig
	logger *zap.Logger
}

// NewEngine creates an Engine on model.
func NewEngine(model Responder, cfg EngineConfig, logger *zap.Logger) *Engine {
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultToolSystemPrompt
	}
	return &Engine{model: model, cfg: cfg, logger: logging.OrNop(logger)}
}

// RunWithTools answers task with every tool of reg bound to the turn.
func (e *Engine) RunWithTools(ctx context.Context, task string, reg *tools.Registry) (*models.FinalMessage, error) {
	req := api.TurnRequest{
		System:        e.cfg.SystemPrompt,
		Prompt:        task,
		MaxIterations: e.cfg.MaxIterations,
		MaxTokens:     e.cfg.MaxTokens,
		OnEvent:       e.cfg.OnEvent,
	}
	if reg != nil {
		req.Tools = reg
	}
	return e.run(ctx, ModeWithTools, req)
}

// RunWithoutTools answers task from the model's own reasoning.
func (e *Engine) RunWithoutTools(ctx context.Context, task string) (*models.FinalMessage, error) {
	return e.run(ctx, ModeWithoutTools, api.TurnRequest{
		System:        defaultReasonSystemPrompt,
		Prompt:        task,
		MaxIterations: 1,
		MaxTokens:     e.cfg.MaxTokens,
		OnEvent:       e.cfg.OnEvent,
	})
}

func (e *Engine) run(ctx context.Context, mode string, req api.TurnRequest) (*models.FinalMessage, error) {
	res, err := e.model.Reply(ctx, req)
	if err != nil {
		return nil, &ExecutionError{Mode: mode, Err: err}
	}

	e.logger.Debug("turn completed",
		zap.String("mode", mode),
		zap.Int("iterations", res.Iterations),
		zap.Int("tool_calls", res.ToolCalls),
		zap.Int64("tokens_in", res.TokensIn),
		zap.Int64("tokens_out", res.TokensOut))

	// Orchestrator.Run replaces the id with its task id.
	return &models.FinalMessage{
		ID:      uuid.NewString(),
		Content: res.Output,
	}, nil
}
