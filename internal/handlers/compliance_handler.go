package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/compliance"
	apierrors "github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/errors"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

// defaultThresholds are the curve points rendered when the caller does not ask
// for specific ones.
var defaultThresholds = []int{8, 10, 12, 15, 20}

// CoverageAnalyzer answers feasibility questions for a zone and post set.
type CoverageAnalyzer interface {
	Analyze(ctx context.Context, zone *models.Zone, posts []models.CoveragePost, targetMinutes, unitsAvailable int) (*compliance.AnalysisResult, error)
}

// ComplianceHandler handles coverage analysis and compliance curve requests.
type ComplianceHandler struct {
	coverage repository.CoverageRepository
	calls    repository.CallRepository
	analyzer CoverageAnalyzer
	curve    *compliance.CurveComputer
}

// NewComplianceHandler creates a new ComplianceHandler instance.
func NewComplianceHandler(coverage repository.CoverageRepository, calls repository.CallRepository, analyzer CoverageAnalyzer, curve *compliance.CurveComputer) *ComplianceHandler {
	return &ComplianceHandler{
		coverage: coverage,
		calls:    calls,
		analyzer: analyzer,
		curve:    curve,
	}
}

// AnalyzeRequest is the body of the coverage feasibility endpoint.
type AnalyzeRequest struct {
	PostIDs        []int64 `json:"postIds"`
	ZoneID         int64   `json:"zoneId" binding:"required"`
	TargetMinutes  int     `json:"targetMinutes" binding:"required,min=1,max=120"`
	UnitsAvailable int     `json:"unitsAvailable" binding:"min=0"`
}

// Analyze handles POST /api/v1/compliance/analyze.
func (h *ComplianceHandler) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			apierrors.ValidationError(c, validationErrors)
			return
		}
		apierrors.BadRequest(c, "Invalid request body", nil)
		return
	}

	ctx := c.Request.Context()

	zone, err := h.coverage.GetZone(ctx, req.ZoneID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load zone", err)
		return
	}
	if zone == nil {
		apierrors.NotFound(c, "Zone not found")
		return
	}
	if !zone.HasBoundary() {
		apierrors.BadRequest(c, "Zone has no boundary. Draw a boundary for the zone before running coverage analysis.", map[string]interface{}{
			"zoneId": zone.ID,
		})
		return
	}

	posts, err := h.coverage.ListPostsByIDs(ctx, req.PostIDs)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load coverage posts", err)
		return
	}

	result, err := h.analyzer.Analyze(ctx, zone, posts, req.TargetMinutes, req.UnitsAvailable)
	if err != nil {
		apierrors.InternalServerError(c, "Coverage analysis failed", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// CurveResponse is the compliance curve payload.
type CurveResponse struct {
	Current   []compliance.CompliancePoint `json:"current"`
	Projected []compliance.CompliancePoint `json:"projected"`
	ZoneID    int64                        `json:"zoneId"`
}

// Curve handles GET /api/v1/compliance/curve?zoneId=&thresholds=.
func (h *ComplianceHandler) Curve(c *gin.Context) {
	zoneID, err := strconv.ParseInt(c.Query("zoneId"), 10, 64)
	if err != nil || zoneID < 1 {
		apierrors.BadRequest(c, "zoneId must be a positive integer", nil)
		return
	}

	thresholds, err := parseThresholds(c.Query("thresholds"))
	if err != nil {
		apierrors.BadRequest(c, "thresholds must be comma-separated positive integers", nil)
		return
	}

	calls, err := h.calls.ListByZone(c.Request.Context(), zoneID)
	if err != nil {
		apierrors.InternalServerError(c, "Failed to load zone call history", err)
		return
	}

	c.JSON(http.StatusOK, CurveResponse{
		ZoneID:    zoneID,
		Current:   h.curve.ComputeCurve(calls, thresholds),
		Projected: h.curve.ProjectedCurve(thresholds),
	})
}

func parseThresholds(raw string) ([]int, error) {
	if strings.TrimSpace(raw) == "" {
		return defaultThresholds, nil
	}

	parts := strings.Split(raw, ",")
	thresholds := make([]int, 0, len(parts))
	for _, part := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || n < 1 {
			return nil, strconv.ErrSyntax
		}
		thresholds = append(thresholds, n)
	}
	return thresholds, nil
}
