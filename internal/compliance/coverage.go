package compliance

import (
	"context"
	"fmt"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

// Recommendation bands on the estimated compliance percentage.
const (
	RecommendationFeasible     = "Configuration meets the target. The selected posts should sustain contractual compliance."
	RecommendationMarginal     = "Configuration is marginal. Consider adding a post or unit to build headroom over the target."
	RecommendationInsufficient = "Configuration is insufficient for the target. Additional posts or units are required."
)

// IsochroneProvider resolves the travel-time polygon around a point. The
// concrete implementation is the routing-service client, usually wrapped in
// its cache.
type IsochroneProvider interface {
	Isochrone(ctx context.Context, origin models.Point, minutes int) (*models.Isochrone, error)
}

// PostCoverage is the per-post outcome of a feasibility analysis.
type PostCoverage struct {
	PostName  string  `json:"postName"`
	Detail    string  `json:"detail,omitempty"`
	AreaSqKm  float64 `json:"areaSqKm"`
	PostID    int64   `json:"postId"`
	Reachable bool    `json:"reachable"`
}

// AnalysisResult is the aggregate outcome of a feasibility analysis.
//
// CoveredAreaSqKm is the plain sum of per-post isochrone areas. Overlapping
// posts are counted twice, so the figure overstates coverage for dense
// configurations; it is a comparative indicator, not a survey.
type AnalysisResult struct {
	Message           string         `json:"message,omitempty"`
	Recommendation    string         `json:"recommendation"`
	Posts             []PostCoverage `json:"posts"`
	CompliancePercent *float64       `json:"compliancePercent"`
	ZoneAreaSqKm      float64        `json:"zoneAreaSqKm"`
	CoveredAreaSqKm   float64        `json:"coveredAreaSqKm"`
	CoveragePercent   float64        `json:"coveragePercent"`
	ZoneID            int64          `json:"zoneId"`
	TotalCalls        int            `json:"totalCalls"`
	CompliantCalls    int            `json:"compliantCalls"`
	HistoricalData    bool           `json:"historicalData"`
}

// Analyzer answers "would these posts sustain compliance for this zone".
type Analyzer struct {
	isochrones IsochroneProvider
	calls      repository.CallRepository
	curve      *CurveComputer
	log        *logger.Logger
}

// NewAnalyzer creates a coverage feasibility analyzer.
func NewAnalyzer(isochrones IsochroneProvider, calls repository.CallRepository, curve *CurveComputer, log *logger.Logger) *Analyzer {
	return &Analyzer{
		isochrones: isochrones,
		calls:      calls,
		curve:      curve,
		log:        log,
	}
}

// Analyze resolves an isochrone per post and aggregates coverage against the
// zone boundary. A single post failing to resolve degrades that post to
// unreachable and the analysis continues; compliance prefers the zone's call
// history and falls back to the resource heuristic when there is none.
func (a *Analyzer) Analyze(ctx context.Context, zone *models.Zone, posts []models.CoveragePost, targetMinutes, unitsAvailable int) (*AnalysisResult, error) {
	if zone == nil || !zone.HasBoundary() {
		return nil, fmt.Errorf("zone has no boundary to analyze")
	}

	result := &AnalysisResult{
		ZoneID:       zone.ID,
		ZoneAreaSqKm: round1(zone.Boundary.AreaSqKm()),
		Posts:        make([]PostCoverage, 0, len(posts)),
	}

	resolved := 0
	for i := range posts {
		post := &posts[i]
		coverage := PostCoverage{PostID: post.ID, PostName: post.Name}

		origin, ok := post.Location()
		if !ok {
			coverage.Detail = "post has no coordinates"
			result.Posts = append(result.Posts, coverage)
			continue
		}

		iso, err := a.isochrones.Isochrone(ctx, origin, targetMinutes)
		if err != nil {
			a.log.Warn("isochrone lookup failed, post marked unreachable", map[string]interface{}{
				"post_id": post.ID,
				"error":   err.Error(),
			})
			coverage.Detail = "travel-time lookup failed"
			result.Posts = append(result.Posts, coverage)
			continue
		}

		coverage.Reachable = true
		coverage.AreaSqKm = round1(iso.AreaSqKm)
		result.Posts = append(result.Posts, coverage)
		result.CoveredAreaSqKm += iso.AreaSqKm
		resolved++
	}

	if resolved == 0 {
		// Zero coverage and zero compliance, not absent values; the response
		// still carries numbers the dashboard can chart.
		zero := 0.0
		result.CompliancePercent = &zero
		result.Message = "No posts could be analyzed. Select posts with coordinates to estimate coverage."
		result.Recommendation = RecommendationInsufficient
		return result, nil
	}

	result.CoveredAreaSqKm = round1(result.CoveredAreaSqKm)
	if result.ZoneAreaSqKm > 0 {
		result.CoveragePercent = round1(result.CoveredAreaSqKm / result.ZoneAreaSqKm * 100)
	}

	percent := a.compliancePercent(ctx, zone.ID, targetMinutes, resolved, unitsAvailable, result)
	result.CompliancePercent = &percent
	result.Recommendation = recommendationFor(percent)
	return result, nil
}

// compliancePercent prefers the zone's historical curve and falls back to the
// resource heuristic when no usable call history exists. A history load
// failure also falls back; feasibility analysis stays available when the call
// store is degraded.
func (a *Analyzer) compliancePercent(ctx context.Context, zoneID int64, targetMinutes, posts, units int, result *AnalysisResult) float64 {
	calls, err := a.calls.ListByZone(ctx, zoneID)
	if err != nil {
		a.log.Error("failed to load zone call history", err, map[string]interface{}{
			"zone_id": zoneID,
		})
		return HeuristicCompliance(posts, units)
	}

	percent, compliant, total, ok := a.curve.CompliancePercent(calls, float64(targetMinutes))
	if !ok {
		return HeuristicCompliance(posts, units)
	}

	result.HistoricalData = true
	result.TotalCalls = total
	result.CompliantCalls = compliant
	return percent
}

func recommendationFor(percent float64) string {
	switch {
	case percent >= 90:
		return RecommendationFeasible
	case percent >= 70:
		return RecommendationMarginal
	default:
		return RecommendationInsufficient
	}
}
