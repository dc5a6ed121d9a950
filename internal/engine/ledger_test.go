package engine

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

func newTestLedger(calls *MockCallRepository, exclusions *MockExclusionRepository) *Ledger {
	return NewLedger(calls, exclusions, clockwork.NewFakeClockAt(fixedNow), logger.New("test"))
}

func TestApplyAutoExclusion_FirstApplicationWritesLedger(t *testing.T) {
	// Arrange
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	calls.On("ApplyExclusion", ctx, int64(101), models.ExclusionAuto, "Weather event: Tornado Warning (Severe)", fixedNow).
		Return(true, nil)
	exclusions.On("InsertLog", ctx, mock.MatchedBy(func(entry *models.ExclusionLog) bool {
		return entry.CallID == 101 &&
			entry.Type == models.ExclusionAuto &&
			entry.Strategy == models.StrategyWeatherSpatial
	})).Return(int64(7), nil)

	// Act
	applied, err := ledger.ApplyAutoExclusion(ctx, 101, models.StrategyWeatherSpatial,
		"Weather event: Tornado Warning (Severe)", nil)

	// Assert
	require.NoError(t, err)
	assert.True(t, applied)
	exclusions.AssertExpectations(t)
}

func TestApplyAutoExclusion_ActiveExclusionIsNoOp(t *testing.T) {
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	calls.On("ApplyExclusion", ctx, int64(101), models.ExclusionAuto, mock.Anything, fixedNow).
		Return(false, nil)

	applied, err := ledger.ApplyAutoExclusion(ctx, 101, models.StrategyWeatherSpatial, "reason", nil)

	require.NoError(t, err)
	assert.False(t, applied)
	exclusions.AssertNotCalled(t, "InsertLog", mock.Anything, mock.Anything)
}

func TestRevert_LastActiveEntryClearsCall(t *testing.T) {
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	entry := &models.ExclusionLog{ID: 7, CallID: 101, Type: models.ExclusionAuto}
	exclusions.On("GetLog", ctx, int64(7)).Return(entry, nil)
	exclusions.On("MarkLogReverted", ctx, int64(7), fixedNow).Return(true, nil)
	exclusions.On("ListActiveLogs", ctx, int64(101)).Return([]models.ExclusionLog{}, nil)
	calls.On("ClearExclusion", ctx, int64(101)).Return(nil)

	err := ledger.Revert(ctx, 7)

	require.NoError(t, err)
	calls.AssertExpectations(t)
}

func TestRevert_PromotesMostRecentSurvivor(t *testing.T) {
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	entry := &models.ExclusionLog{ID: 7, CallID: 101, Type: models.ExclusionAuto}
	survivorTime := time.Date(2025, 11, 5, 14, 0, 0, 0, time.UTC)
	survivors := []models.ExclusionLog{
		{ID: 9, CallID: 101, Type: models.ExclusionManual, Reason: "supervisor review", CreatedAt: survivorTime},
		{ID: 3, CallID: 101, Type: models.ExclusionAuto, Reason: "older entry"},
	}

	exclusions.On("GetLog", ctx, int64(7)).Return(entry, nil)
	exclusions.On("MarkLogReverted", ctx, int64(7), fixedNow).Return(true, nil)
	exclusions.On("ListActiveLogs", ctx, int64(101)).Return(survivors, nil)
	calls.On("SetExclusion", ctx, int64(101), models.ExclusionManual, "supervisor review", survivorTime).Return(nil)

	err := ledger.Revert(ctx, 7)

	require.NoError(t, err)
	calls.AssertNotCalled(t, "ClearExclusion", mock.Anything, mock.Anything)
	calls.AssertExpectations(t)
}

func TestRevert_AlreadyRevertedIsNoOp(t *testing.T) {
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	entry := &models.ExclusionLog{ID: 7, CallID: 101}
	exclusions.On("GetLog", ctx, int64(7)).Return(entry, nil)
	exclusions.On("MarkLogReverted", ctx, int64(7), fixedNow).Return(false, nil)

	err := ledger.Revert(ctx, 7)

	require.NoError(t, err)
	exclusions.AssertNotCalled(t, "ListActiveLogs", mock.Anything, mock.Anything)
	calls.AssertNotCalled(t, "ClearExclusion", mock.Anything, mock.Anything)
}

func TestRevert_UnknownEntry(t *testing.T) {
	calls := new(MockCallRepository)
	exclusions := new(MockExclusionRepository)
	ledger := newTestLedger(calls, exclusions)
	ctx := context.Background()

	exclusions.On("GetLog", ctx, int64(99)).Return(nil, nil)

	err := ledger.Revert(ctx, 99)

	assert.Error(t, err)
}
