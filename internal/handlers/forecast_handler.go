package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	apierrors "github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/errors"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/forecast"
)

// ForecastGenerator produces and persists a call-volume forecast.
type ForecastGenerator interface {
	Generate(ctx context.Context, parishID int64, start, end time.Time) (*forecast.Result, error)
}

// ForecastHandler handles call-volume forecast requests.
type ForecastHandler struct {
	forecaster ForecastGenerator
}

// NewForecastHandler creates a new ForecastHandler instance.
func NewForecastHandler(forecaster ForecastGenerator) *ForecastHandler {
	return &ForecastHandler{forecaster: forecaster}
}

// ForecastRequest is the body of the forecast endpoint.
type ForecastRequest struct {
	Start    time.Time `json:"start" binding:"required"`
	End      time.Time `json:"end" binding:"required"`
	ParishID int64     `json:"parishId" binding:"required"`
}

// Generate handles POST /api/v1/forecast.
func (h *ForecastHandler) Generate(c *gin.Context) {
	var req ForecastRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	if !req.End.After(req.Start) {
		apierrors.BadRequest(c, "end must be after start", nil)
		return
	}

	result, err := h.forecaster.Generate(c.Request.Context(), req.ParishID, req.Start, req.End)
	if err != nil {
		apierrors.InternalServerError(c, "Forecast generation failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
