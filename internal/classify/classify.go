// Package classify turns a task and the provider catalog into a TaskAnalysis.
package classify

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/api"
	"github.com/ShayCichocki/toolroute/internal/logging"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

// StructuredModel is the language model capability the classifier needs.
type StructuredModel interface {
	Structured(ctx context.Context, req api.StructuredRequest, out any) error
}

// ClassificationError reports a failed or unusable classification.
type ClassificationError struct {
	Err error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed: %v", e.Err)
}

func (e *ClassificationError) Unwrap() error {
	return e.Err
}

// Classifier decides whether a task needs providers and which ones.
type Classifier struct {
	model  StructuredModel
	logger *zap.Logger
}

// New creates a Classifier backed by model.
func New(model StructuredModel, logger *zap.Logger) *Classifier {
	return &Classifier{model: model, logger: logging.OrNop(logger)}
}

// Classify issues one structured call per invocation. Results are not cached.
func (c *Classifier) Classify(ctx context.Context, task string, providers []models.ProviderSummary) (*models.TaskAnalysis, error) {
	prompt, err := buildPrompt(task, providers)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}

	var analysis models.TaskAnalysis
	err = c.model.Structured(ctx, api.StructuredRequest{
		System:      systemPrompt,
		Prompt:      prompt,
		ToolName:    analysisToolName,
		Description: "Record whether the task requires apps and which app sets apply",
		Properties:  analysisSchema,
		Required:    analysisRequired,
	}, &analysis)
	if err != nil {
		return nil, &ClassificationError{Err: err}
	}
	if err := analysis.Validate(); err != nil {
		return nil, &ClassificationError{Err: fmt.Errorf("invalid analysis: %w", err)}
	}

	c.logger.Debug("task classified",
		zap.Bool("requires_app", analysis.RequiresApp),
		zap.Int("app_sets", len(analysis.AppSets)),
		zap.String("reasoning", analysis.Reasoning))
	return &analysis, nil
}

func buildPrompt(task string, providers []models.ProviderSummary) (string, error) {
	if providers == nil {
		providers = []models.ProviderSummary{}
	}
	summaries, err := json.Marshal(providers)
	if err != nil {
		return "", fmt.Errorf("encode provider summaries: %w", err)
	}
	return fmt.Sprintf(classificationPrompt, task, summaries), nil
}
