package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/SiGentIsHere/Weblink-Shield/internal/canonical"
	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
)

// AnalysisService runs and reads synchronous analyses.
type AnalysisService interface {
	Analyze(ctx context.Context, raw string) (*domain.Result, error)
	GetVerdict(ctx context.Context, raw string) (*domain.Result, error)
}

// AnalyzeHandler serves synchronous analysis.
type AnalyzeHandler struct {
	analysis AnalysisService
	logger   logger.Logger
}

// NewAnalyzeHandler creates an AnalyzeHandler.
func NewAnalyzeHandler(analysis AnalysisService, log logger.Logger) *AnalyzeHandler {
	return &AnalyzeHandler{analysis: analysis, logger: log}
}

// Analyze handles POST /api/v1/analyze.
func (h *AnalyzeHandler) Analyze(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	result, err := h.analysis.Analyze(c.Request.Context(), req.URL)
	if err != nil {
		h.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Verdict handles GET /api/v1/verdict?url=.
func (h *AnalyzeHandler) Verdict(c *gin.Context) {
	result, err := h.analysis.GetVerdict(c.Request.Context(), c.Query("url"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"message": "Not analyzed yet"})
			return
		}
		h.respondAnalysisError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

func (h *AnalyzeHandler) respondAnalysisError(c *gin.Context, err error) {
	var invalid *canonical.InvalidURLError
	if errors.As(err, &invalid) {
		respondBadRequest(c, invalid.Error())
		return
	}
	h.logger.Error("Analysis failed", logger.Error(err))
	respondInternalError(c, "analysis failed")
}
