package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ShayCichocki/toolroute/internal/classify"
	"github.com/ShayCichocki/toolroute/internal/orchestrator"
	"github.com/ShayCichocki/toolroute/internal/resolve"
	"github.com/ShayCichocki/toolroute/pkg/models"
)

type taskRequest struct {
	Task string `json:"task"`
}

type runRequest struct {
	Task    string                    `json:"task"`
	Choices *models.ResolutionPayload `json:"choices,omitempty"`
}

type providerView struct {
	models.ProviderDescriptor
	Operations int `json:"operations"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"version": s.cfg.Version,
	})
}

func (s *Server) listProviders(c *gin.Context) {
	ctx := c.Request.Context()
	descriptors := s.catalog.List(ctx)
	out := make([]providerView, 0, len(descriptors))
	for _, d := range descriptors {
		out = append(out, providerView{ProviderDescriptor: d, Operations: s.catalog.OperationCount(ctx, d.ID)})
	}
	c.JSON(http.StatusOK, gin.H{"providers": out})
}

func (s *Server) choices(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Task) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task is required"})
		return
	}

	data, err := s.runner.GetChoiceData(c.Request.Context(), req.Task)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, data)
}

func (s *Server) run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Task) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "task is required"})
		return
	}

	// No prompt can block on a server: without choices, ambiguous sets select nothing.
	payload := req.Choices
	if payload == nil {
		payload = models.NewResolutionResult()
	}

	msg, err := s.runner.Run(c.Request.Context(), req.Task, payload)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msg)
}

// fail maps an orchestrator error to a status code.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		inputErr    *resolve.ResolutionInputError
		classifyErr *classify.ClassificationError
		execErr     *orchestrator.ExecutionError
	)
	switch {
	case errors.As(err, &inputErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": inputErr.Error()})
	case errors.As(err, &classifyErr):
		s.logger.Warn("classification failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "task classification failed"})
	case errors.As(err, &execErr):
		s.logger.Warn("execution failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "language model request failed"})
	default:
		s.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
