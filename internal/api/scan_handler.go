package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/SiGentIsHere/Weblink-Shield/internal/domain"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/logger"
	"github.com/SiGentIsHere/Weblink-Shield/internal/infra/sse"
	"github.com/SiGentIsHere/Weblink-Shield/internal/scan"
)

// snapshotEvent is the SSE event name for job progress.
const snapshotEvent = "snapshot"

// ScanService is the part of the orchestrator the handlers use.
type ScanService interface {
	Submit(ctx context.Context, rawURL string) (string, error)
	Snapshot(ctx context.Context, id string) (domain.Snapshot, error)
	Subscribe(ctx context.Context, id string) (<-chan domain.Snapshot, func(), error)
}

// ScanHandler serves asynchronous scan jobs.
type ScanHandler struct {
	scans     ScanService
	logger    logger.Logger
	heartbeat time.Duration
}

// NewScanHandler creates a ScanHandler. A zero heartbeat uses
// sse.DefaultHeartbeatInterval.
func NewScanHandler(scans ScanService, log logger.Logger, heartbeat time.Duration) *ScanHandler {
	if heartbeat <= 0 {
		heartbeat = sse.DefaultHeartbeatInterval
	}
	return &ScanHandler{
		scans:     scans,
		logger:    log,
		heartbeat: heartbeat,
	}
}

// Submit handles POST /api/v1/scan.
func (h *ScanHandler) Submit(c *gin.Context) {
	var req urlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	jobID, err := h.scans.Submit(c.Request.Context(), req.URL)
	if err != nil {
		switch {
		case errors.Is(err, scan.ErrBlankURL):
			respondBadRequest(c, err.Error())
		case errors.Is(err, scan.ErrQueueFull), errors.Is(err, scan.ErrPoolNotRunning):
			c.Header("Retry-After", "1")
			respondError(c, http.StatusServiceUnavailable, err.Error())
		default:
			h.logger.Error("Failed to submit scan", logger.Error(err))
			respondInternalError(c, "failed to submit scan")
		}
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"jobId": jobID})
}

// Get handles GET /api/v1/scan/:jobId.
func (h *ScanHandler) Get(c *gin.Context) {
	snap, err := h.scans.Snapshot(c.Request.Context(), c.Param("jobId"))
	if err != nil {
		h.respondLookupError(c, err)
		return
	}

	c.JSON(http.StatusOK, snap)
}

// Stream handles GET /api/v1/scan/:jobId/stream.
// Sends one snapshot event per transition until the job finishes, the client
// leaves, or another subscriber takes over.
func (h *ScanHandler) Stream(c *gin.Context) {
	jobID := c.Param("jobId")
	ctx := c.Request.Context()

	updates, cancel, err := h.scans.Subscribe(ctx, jobID)
	if err != nil {
		h.respondLookupError(c, err)
		return
	}
	defer cancel()

	sse.SetHeaders(c.Writer.Header())
	c.Status(http.StatusOK)
	c.Writer.Flush()

	h.logger.Debug("Scan stream started",
		logger.String("job_id", jobID),
		logger.String("client_ip", c.ClientIP()),
	)

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err = sse.WriteHeartbeat(c.Writer, time.Now()); err != nil {
				return
			}
		case snap, ok := <-updates:
			if !ok {
				h.logger.Debug("Scan stream ended", logger.String("job_id", jobID))
				return
			}
			event := sse.Event{
				Type: snapshotEvent,
				Data: gin.H{"status": snap.Status, "url": snap.URL, "data": snap.Data},
			}
			if err = sse.Write(c.Writer, event); err != nil {
				h.logger.Debug("Failed to write snapshot event",
					logger.String("job_id", jobID),
					logger.Error(err),
				)
				return
			}
		}
	}
}

func (h *ScanHandler) respondLookupError(c *gin.Context, err error) {
	if errors.Is(err, scan.ErrJobNotFound) {
		respondNotFound(c, "job")
		return
	}
	h.logger.Error("Failed to load scan job", logger.Error(err))
	respondInternalError(c, "failed to load job")
}
