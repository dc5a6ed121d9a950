// Package forecast produces a naive call-volume forecast for a parish. The
// model is deliberately simple: the mean call count across the non-empty
// hourly buckets of recent history, projected as a constant over the
// requested window. It exists to seed the heatmap; model_version tags the
// rows so a real model can replace them later.
package forecast

import (
	"context"
	"fmt"
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/timeparse"
)

const (
	// ModelVersion tags every heatmap row written by this forecaster.
	ModelVersion = "naive_v0"

	// CellID marks parish-wide rows; a gridded model would write real cells.
	CellID = "global"

	// historyLookback is how far before the window start history is considered.
	historyLookback = 90 * 24 * time.Hour
)

// Result summarizes one forecast run.
type Result struct {
	ModelVersion string `json:"modelVersion,omitempty"`
	Message      string `json:"message,omitempty"`
	RowsWritten  int    `json:"rowsWritten"`
}

// Forecaster generates and persists call-volume forecasts.
type Forecaster struct {
	calls   repository.CallRepository
	heatmap repository.ForecastRepository
	log     *logger.Logger
}

// NewForecaster creates a forecaster over the call history and heatmap stores.
func NewForecaster(calls repository.CallRepository, heatmap repository.ForecastRepository, log *logger.Logger) *Forecaster {
	return &Forecaster{calls: calls, heatmap: heatmap, log: log}
}

// Generate forecasts hourly call volume for [start, end] and writes one
// heatmap row per hour. With no usable history in the 90 days before start,
// nothing is written and the result carries a "no data" message.
func (f *Forecaster) Generate(ctx context.Context, parishID int64, start, end time.Time) (*Result, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("forecast window end must be after start")
	}

	raw, err := f.calls.ListQueueTimesByParish(ctx, parishID)
	if err != nil {
		return nil, fmt.Errorf("failed to load call history for parish %d: %w", parishID, err)
	}

	mean, observed := hourlyMean(raw, start.Add(-historyLookback), end)
	if observed == 0 {
		return &Result{Message: "No data"}, nil
	}

	rows := make([]repository.ForecastRow, 0)
	for bucket := start; !bucket.After(end); bucket = bucket.Add(time.Hour) {
		rows = append(rows, repository.ForecastRow{
			ParishID:      parishID,
			CellID:        CellID,
			BucketStart:   bucket,
			BucketEnd:     bucket.Add(time.Hour),
			ForecastCalls: mean,
			ModelVersion:  ModelVersion,
		})
	}

	if err := f.heatmap.InsertHeatmapRows(ctx, rows); err != nil {
		return nil, fmt.Errorf("failed to write forecast rows: %w", err)
	}

	f.log.Info("forecast written", map[string]interface{}{
		"parish_id":      parishID,
		"rows":           len(rows),
		"observed_hours": observed,
	})
	return &Result{RowsWritten: len(rows), ModelVersion: ModelVersion}, nil
}

// hourlyMean buckets parseable timestamps within [from, to) by hour and
// returns the mean count across non-empty buckets. Hours with no calls do not
// drag the mean down; that matches how the history series is constructed.
func hourlyMean(raw []string, from, to time.Time) (float64, int) {
	buckets := make(map[time.Time]int)
	for _, value := range raw {
		ts, err := timeparse.Parse(value)
		if err != nil {
			continue
		}
		if ts.Before(from) || !ts.Before(to) {
			continue
		}
		buckets[ts.Truncate(time.Hour)]++
	}
	if len(buckets) == 0 {
		return 0, 0
	}

	total := 0
	for _, count := range buckets {
		total += count
	}
	return float64(total) / float64(len(buckets)), len(buckets)
}
