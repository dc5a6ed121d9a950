package compliance

import (
	"math"
	"strings"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/timeparse"
)

// CompliancePoint is one point on a compliance curve: the share of urgent,
// non-excluded calls answered within the threshold. Percent is nil when no
// call survived the filters, which renders as "no data" rather than 0%.
type CompliancePoint struct {
	Percent          *float64 `json:"percent"`
	ThresholdMinutes int      `json:"thresholdMinutes"`
	CompliantCalls   int      `json:"compliantCalls"`
	TotalCalls       int      `json:"totalCalls"`
}

// CurveComputer computes historical and projected compliance curves over call
// records. It is pure: callers load the calls, the computer only filters and
// counts.
type CurveComputer struct {
	urgent map[string]struct{}
	target float64
}

// NewCurveComputer creates a computer counting only the given priority codes,
// with the contractual target used for projected curves.
func NewCurveComputer(urgentPriorities []string, contractTargetPercent float64) *CurveComputer {
	urgent := make(map[string]struct{}, len(urgentPriorities))
	for _, p := range urgentPriorities {
		p = strings.TrimSpace(p)
		if p != "" {
			urgent[p] = struct{}{}
		}
	}
	return &CurveComputer{urgent: urgent, target: contractTargetPercent}
}

// ComputeCurve returns one point per threshold over the given calls. Excluded
// calls and non-urgent priorities are dropped entirely; calls whose timestamps
// cannot be parsed are dropped from the denominator rather than counted as
// non-compliant.
func (c *CurveComputer) ComputeCurve(calls []models.Call, thresholds []int) []CompliancePoint {
	minutes := c.responseMinutes(calls)

	points := make([]CompliancePoint, 0, len(thresholds))
	for _, threshold := range thresholds {
		compliant := 0
		for _, m := range minutes {
			if m <= float64(threshold) {
				compliant++
			}
		}
		point := CompliancePoint{
			ThresholdMinutes: threshold,
			CompliantCalls:   compliant,
			TotalCalls:       len(minutes),
		}
		if len(minutes) > 0 {
			pct := round1(float64(compliant) / float64(len(minutes)) * 100)
			point.Percent = &pct
		}
		points = append(points, point)
	}
	return points
}

// ProjectedCurve returns the contractual target at every threshold. The
// projection deliberately carries no modeling: it is the line the operation is
// held to, drawn next to the historical curve.
func (c *CurveComputer) ProjectedCurve(thresholds []int) []CompliancePoint {
	points := make([]CompliancePoint, 0, len(thresholds))
	for _, threshold := range thresholds {
		target := c.target
		points = append(points, CompliancePoint{
			ThresholdMinutes: threshold,
			Percent:          &target,
		})
	}
	return points
}

// CompliancePercent returns the share of urgent, non-excluded calls answered
// within targetMinutes, with the surviving call counts. ok is false when no
// call survived the filters.
func (c *CurveComputer) CompliancePercent(calls []models.Call, targetMinutes float64) (percent float64, compliant, total int, ok bool) {
	minutes := c.responseMinutes(calls)
	if len(minutes) == 0 {
		return 0, 0, 0, false
	}
	for _, m := range minutes {
		if m <= targetMinutes {
			compliant++
		}
	}
	return round1(float64(compliant) / float64(len(minutes)) * 100), compliant, len(minutes), true
}

// HeuristicCompliance estimates compliance from resource counts when no usable
// call history exists: 60 plus 10 per post plus 5 per unit, capped at 95.
func HeuristicCompliance(posts, units int) float64 {
	estimate := 60 + 10*float64(posts) + 5*float64(units)
	return math.Min(95, estimate)
}

// responseMinutes filters to urgent, non-excluded calls and computes each
// surviving call's response time. Unparseable timestamps drop the call.
func (c *CurveComputer) responseMinutes(calls []models.Call) []float64 {
	minutes := make([]float64, 0, len(calls))
	for i := range calls {
		call := &calls[i]
		if call.IsExcluded() {
			continue
		}
		if call.Priority == nil {
			continue
		}
		if _, ok := c.urgent[strings.TrimSpace(*call.Priority)]; !ok {
			continue
		}
		if call.CallInQueTime == nil || call.ArrivedAtSceneTime == nil {
			continue
		}
		m, err := timeparse.ResponseMinutes(*call.CallInQueTime, *call.ArrivedAtSceneTime)
		if err != nil {
			continue
		}
		minutes = append(minutes, m)
	}
	return minutes
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
