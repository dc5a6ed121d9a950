package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/engine"
	apierrors "github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/errors"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/middleware"
)

// Processor drains the unevaluated-call backlog.
type Processor interface {
	ProcessUnevaluatedCalls(ctx context.Context, maxCalls int) (engine.BatchStats, error)
	CountRemaining(ctx context.Context) (int, error)
}

// OperationalLog records job runs; implementations never fail the caller.
type OperationalLog interface {
	Record(ctx context.Context, action, detail string, metadata map[string]interface{})
}

// CronHandler exposes the safety-net trigger endpoint. External schedulers hit
// it on a cadence; operators hit it manually after data fixes. Both GET and
// POST are routed here because common cron services only speak GET.
type CronHandler struct {
	processor Processor
	oplog     OperationalLog
	batchSize int
}

// NewCronHandler creates a new CronHandler instance.
func NewCronHandler(processor Processor, oplog OperationalLog, batchSize int) *CronHandler {
	return &CronHandler{
		processor: processor,
		oplog:     oplog,
		batchSize: batchSize,
	}
}

// CronStats is the stats block of the trigger response.
type CronStats struct {
	UnevaluatedBefore int `json:"unevaluatedBefore"`
	Processed         int `json:"processed"`
	Excluded          int `json:"excluded"`
	NotExcluded       int `json:"notExcluded"`
	Errors            int `json:"errors"`
	Remaining         int `json:"remaining"`
}

// CronResponse is the trigger response envelope.
type CronResponse struct {
	Message string    `json:"message"`
	Stats   CronStats `json:"stats"`
	Success bool      `json:"success"`
}

// ProcessExclusions handles GET|POST /api/v1/cron/process-exclusions.
func (h *CronHandler) ProcessExclusions(c *gin.Context) {
	log := middleware.GetLogger(c)
	ctx := c.Request.Context()

	before, err := h.processor.CountRemaining(ctx)
	if err != nil {
		h.oplog.Record(ctx, "cron.process_exclusions", "failed", map[string]interface{}{
			"error": err.Error(),
		})
		apierrors.InternalServerError(c, "Failed to inspect the unevaluated backlog", err)
		return
	}

	h.oplog.Record(ctx, "cron.process_exclusions", "started", map[string]interface{}{
		"unevaluated_before": before,
		"batch_size":         h.batchSize,
	})

	stats, err := h.processor.ProcessUnevaluatedCalls(ctx, h.batchSize)
	if err != nil {
		h.oplog.Record(ctx, "cron.process_exclusions", "failed", map[string]interface{}{
			"error": err.Error(),
		})
		apierrors.InternalServerError(c, "Exclusion processing failed", err)
		return
	}

	remaining, err := h.processor.CountRemaining(ctx)
	if err != nil {
		// The batch itself succeeded; report it with an unknown remainder.
		if log != nil {
			log.Error("Failed to count remaining backlog", err, nil)
		}
		remaining = -1
	}

	h.oplog.Record(ctx, "cron.process_exclusions", "completed", map[string]interface{}{
		"processed": stats.TotalProcessed,
		"excluded":  stats.Excluded,
		"errors":    stats.Errors,
		"remaining": remaining,
	})

	c.JSON(http.StatusOK, CronResponse{
		Success: true,
		Message: "Exclusion processing complete",
		Stats: CronStats{
			UnevaluatedBefore: before,
			Processed:         stats.TotalProcessed,
			Excluded:          stats.Excluded,
			NotExcluded:       stats.NotExcluded,
			Errors:            stats.Errors,
			Remaining:         remaining,
		},
	})
}
