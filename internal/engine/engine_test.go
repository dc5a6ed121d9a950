package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/matcher"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/observability"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

var fixedNow = time.Date(2025, 11, 6, 0, 0, 0, 0, time.UTC)

func newTestEngine(calls *MockCallRepository, weather *MockWeatherEventRepository, exclusions *MockExclusionRepository) *Engine {
	log := logger.New("test")
	clock := clockwork.NewFakeClockAt(fixedNow)
	ledger := NewLedger(calls, exclusions, clock, log)
	strategies := []matcher.Strategy{
		matcher.NewSpatialMatcher(2 * time.Hour),
		matcher.NewTextMatcher(2*time.Hour, []string{"LA"}),
	}
	return NewEngine(weather, calls, ledger, strategies, 2*time.Hour, observability.NewMetricsForTesting(), log)
}

func testCall() *models.Call {
	return &models.Call{
		ID:            101,
		OriginLat:     f64Ptr(30.45),
		OriginLng:     f64Ptr(-91.15),
		OriginCity:    strPtr("Baton Rouge"),
		CallInQueTime: strPtr("11/05/25 10:00:00"),
	}
}

func polygonEvent(id int64, severity string) models.WeatherEvent {
	ends := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	return models.WeatherEvent{
		ID:         id,
		ExternalID: "NWS-1",
		Event:      "Tornado Warning",
		Severity:   severity,
		StartsAt:   time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC),
		EndsAt:     &ends,
		Geometry: models.Geometry{
			Type: "Polygon",
			Polygons: []models.Polygon{{
				Coordinates: [][][2]float64{{
					{-92, 30}, {-90, 30}, {-90, 31}, {-92, 31}, {-92, 30},
				}},
				SRID: 4326,
			}},
		},
	}
}

func textOnlyEvent(id int64) models.WeatherEvent {
	ends := time.Date(2025, 11, 5, 12, 0, 0, 0, time.UTC)
	return models.WeatherEvent{
		ID:           id,
		ExternalID:   "NWS-2",
		Event:        "Flood Warning",
		Severity:     "Moderate",
		Jurisdiction: "LA",
		AreaDesc:     strPtr("Livingston; Baton Rouge"),
		StartsAt:     time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC),
		EndsAt:       &ends,
	}
}

func TestEvaluate_SpatialMatchExcludesCall(t *testing.T) {
	// Arrange
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return([]models.WeatherEvent{polygonEvent(1, "Severe")}, nil)
	exclusions.On("InsertAudit", ctx, mock.Anything).Return(true, nil)
	calls.On("ApplyExclusion", ctx, call.ID, models.ExclusionAuto, "Weather event: Tornado Warning (Severe)", mock.Anything).
		Return(true, nil)
	exclusions.On("InsertLog", ctx, mock.Anything).Return(int64(1), nil)
	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	// Act
	evaluation, err := eng.Evaluate(ctx, call)

	// Assert
	require.NoError(t, err)
	assert.True(t, evaluation.Excluded)
	assert.Equal(t, models.StrategyWeatherSpatial, evaluation.Strategy)
	calls.AssertExpectations(t)
	exclusions.AssertExpectations(t)
}

func TestEvaluate_SpatialWinsOverText(t *testing.T) {
	// Both strategies would match; only the spatial one may write audits.
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return([]models.WeatherEvent{polygonEvent(1, "Severe"), textOnlyEvent(2)}, nil)
	exclusions.On("InsertAudit", ctx, mock.MatchedBy(func(a *models.ExclusionAudit) bool {
		return a.Strategy == models.StrategyWeatherSpatial
	})).Return(true, nil)
	calls.On("ApplyExclusion", ctx, call.ID, models.ExclusionAuto, mock.Anything, mock.Anything).Return(true, nil)
	exclusions.On("InsertLog", ctx, mock.Anything).Return(int64(1), nil)
	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	require.NoError(t, err)
	assert.Equal(t, models.StrategyWeatherSpatial, evaluation.Strategy)
	exclusions.AssertNumberOfCalls(t, "InsertAudit", 1)
}

func TestEvaluate_TextFallbackWithoutCoordinates(t *testing.T) {
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()
	call.OriginLat = nil
	call.OriginLng = nil

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return([]models.WeatherEvent{textOnlyEvent(2)}, nil)
	exclusions.On("InsertAudit", ctx, mock.Anything).Return(true, nil)
	calls.On("ApplyExclusion", ctx, call.ID, models.ExclusionAuto, mock.Anything, mock.Anything).Return(true, nil)
	exclusions.On("InsertLog", ctx, mock.Anything).Return(int64(1), nil)
	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	require.NoError(t, err)
	assert.True(t, evaluation.Excluded)
	assert.Equal(t, models.StrategyWeatherText, evaluation.Strategy)
}

func TestEvaluate_NoMatchMarksEvaluated(t *testing.T) {
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return([]models.WeatherEvent{}, nil)
	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	require.NoError(t, err)
	assert.False(t, evaluation.Excluded)
	exclusions.AssertNotCalled(t, "InsertAudit", mock.Anything, mock.Anything)
	calls.AssertExpectations(t)
}

func TestEvaluate_RerunIsIdempotent(t *testing.T) {
	// Second run: audit insert is suppressed and the denormalized update is a
	// no-op, so no new ledger row appears.
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return([]models.WeatherEvent{polygonEvent(1, "Severe")}, nil)
	exclusions.On("InsertAudit", ctx, mock.Anything).Return(false, nil)
	calls.On("ApplyExclusion", ctx, call.ID, models.ExclusionAuto, mock.Anything, mock.Anything).Return(false, nil)
	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	require.NoError(t, err)
	assert.True(t, evaluation.Excluded)
	exclusions.AssertNotCalled(t, "InsertLog", mock.Anything, mock.Anything)
}

func TestEvaluate_ManualExclusionIsNeverTouched(t *testing.T) {
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()
	call.ExclusionType = strPtr(models.ExclusionManual)

	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	require.NoError(t, err)
	assert.False(t, evaluation.Excluded)
	weather.AssertNotCalled(t, "ListCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_UnparseableQueueTime(t *testing.T) {
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()
	call := testCall()
	call.CallInQueTime = strPtr("garbage")

	calls.On("MarkEvaluated", ctx, call.ID).Return(nil)

	evaluation, err := eng.Evaluate(ctx, call)

	// The data defect is reported, but the call still leaves the backlog.
	require.ErrorIs(t, err, ErrUnusableQueueTime)
	assert.False(t, evaluation.Excluded)
	calls.AssertCalled(t, "MarkEvaluated", ctx, call.ID)
	weather.AssertNotCalled(t, "ListCandidates", mock.Anything, mock.Anything, mock.Anything)
}

func TestEvaluate_CandidateLoadFailure(t *testing.T) {
	calls := new(MockCallRepository)
	weather := new(MockWeatherEventRepository)
	exclusions := new(MockExclusionRepository)
	eng := newTestEngine(calls, weather, exclusions)
	ctx := context.Background()

	weather.On("ListCandidates", ctx, mock.Anything, mock.Anything).
		Return(nil, errors.New("connection refused"))

	_, err := eng.Evaluate(ctx, testCall())

	assert.Error(t, err)
	calls.AssertNotCalled(t, "MarkEvaluated", mock.Anything, mock.Anything)
}
