package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nineaccord/salesboard/internal/domain"
	"github.com/nineaccord/salesboard/internal/ingest"
)

type IngestHandler struct {
	runner      *ingest.Runner
	waitTimeout time.Duration
}

func NewIngestHandler(runner *ingest.Runner, waitTimeout time.Duration) *IngestHandler {
	if waitTimeout <= 0 {
		waitTimeout = 10 * time.Minute
	}
	return &IngestHandler{runner: runner, waitTimeout: waitTimeout}
}

// TriggerUpdate queues an ingestion for :brand, which may be "all". With
// ?wait=true the request blocks until the job finishes.
func (h *IngestHandler) TriggerUpdate(c *gin.Context) {
	job, err := h.runner.Submit(c.Param("brand"))
	switch {
	case errors.Is(err, domain.ErrUnknownBrand):
		c.JSON(http.StatusNotFound, gin.H{"error": "Invalid Brand"})
		return
	case errors.Is(err, ingest.ErrQueueFull):
		c.JSON(http.StatusTooManyRequests, gin.H{"status": "error", "message": "an update is already queued", "details": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "update unavailable", "details": err.Error()})
		return
	}

	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		c.JSON(http.StatusAccepted, job)
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), h.waitTimeout)
	defer cancel()

	job, err = h.runner.Wait(ctx, job.ID)
	if err != nil {
		c.JSON(http.StatusGatewayTimeout, gin.H{"status": "error", "message": "update still running", "job": job})
		return
	}
	if job.Status == domain.JobFailed {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": "data update failed", "details": job.Error, "job": job})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "job": job})
}

func (h *IngestHandler) GetJob(c *gin.Context) {
	job, err := h.runner.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ingest.ErrJobNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "job not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load job", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, job)
}
