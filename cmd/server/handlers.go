package main

import (
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/algo-insight/code-mentor/internal/errors"
	"github.com/algo-insight/code-mentor/internal/pipeline"
	"github.com/algo-insight/code-mentor/internal/types"
)

// handleAnalyze runs the full analysis pipeline for a code submission.
// The request body has already been validated by the security middleware.
func (a *app) handleAnalyze(c *gin.Context) {
	start := time.Now()

	val, exists := c.Get("analyze_request")
	if !exists {
		appErr := errors.NewInternalError("analyze request missing from context", nil)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}
	req := val.(types.AnalyzeRequest)

	sub, err := a.orch.Analyze(c.Request.Context(), req.Code, req.Error, req.Language)
	if err != nil {
		var appErr *errors.AppError
		switch {
		case stderrors.Is(err, pipeline.ErrEmptyCode), stderrors.Is(err, pipeline.ErrCodeTooLong):
			appErr = errors.NewValidationError(err.Error())
		default:
			appErr = errors.NewStorageError("failed to record analysis", err)
		}
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	a.logger.AnalysisLogger(len(sub.Code), sub.Concept, sub.Confidence, sub.LLMUsed, time.Since(start))

	c.JSON(http.StatusOK, types.AnalyzeResponse{
		ID:             sub.ID,
		Concept:        sub.Concept,
		Confidence:     sub.Confidence,
		Suggestion:     sub.Suggestion,
		ProcessingTime: sub.ProcessingTime,
		LLMUsed:        sub.LLMUsed,
	})
}

// handleRetrain rebuilds the classifier from stored submissions. When an
// admin token is configured the request must carry it.
func (a *app) handleRetrain(c *gin.Context) {
	if token := a.cfg.Server.AdminToken; token != "" {
		if c.GetHeader("X-Admin-Token") != token {
			appErr := errors.NewUnauthorizedError("invalid or missing admin token")
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, appErr)
			return
		}
	}

	start := time.Now()

	model, err := a.coord.Retrain(c.Request.Context())
	if err != nil {
		switch {
		case stderrors.Is(err, pipeline.ErrRetrainInProgress):
			c.JSON(http.StatusConflict, types.RetrainResponse{
				Success: false,
				Error:   err.Error(),
			})
		case stderrors.Is(err, pipeline.ErrInsufficientExamples):
			c.JSON(http.StatusBadRequest, types.RetrainResponse{
				Success: false,
				Error:   err.Error(),
			})
		default:
			appErr := errors.ToAppError(err)
			errors.LogError(c, appErr)
			c.JSON(appErr.HTTPStatus, types.RetrainResponse{
				Success: false,
				Error:   "retrain failed",
			})
		}
		return
	}

	// Stats are stale the moment a new model is live.
	a.cache.Clear()

	a.logger.RetrainLogger(model.Version, model.ExampleCount(), true, time.Since(start))

	c.JSON(http.StatusOK, types.RetrainResponse{
		Success: true,
		Version: model.Version,
	})
}

// handleStats reports submission counts and the active model version.
func (a *app) handleStats(c *gin.Context) {
	counts, total, version, err := a.orch.Stats(c.Request.Context())
	if err != nil {
		appErr := errors.NewStorageError("failed to aggregate stats", err)
		errors.LogError(c, appErr)
		c.JSON(appErr.HTTPStatus, appErr)
		return
	}

	c.JSON(http.StatusOK, types.StatsResponse{
		TotalSubmissions: total,
		ConceptCounts:    counts,
		ModelVersion:     version,
	})
}

// handleHealth reports liveness plus pipeline status.
func (a *app) handleHealth(c *gin.Context) {
	modelVersion := 0
	if m := a.orch.ActiveModel(); m != nil {
		modelVersion = m.Version
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"timestamp":      time.Now().Format(time.RFC3339),
		"uptime_seconds": time.Since(a.startedAt).Seconds(),
		"model_version":  modelVersion,
		"training":       a.coord.Training(),
	})
}
