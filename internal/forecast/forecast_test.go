package forecast

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/repository"
)

// MockCallRepository is a mock implementation of CallRepository for testing
type MockCallRepository struct {
	mock.Mock
}

func (m *MockCallRepository) GetByID(ctx context.Context, id int64) (*models.Call, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Call), args.Error(1)
}

func (m *MockCallRepository) ListUnevaluated(ctx context.Context, limit int) ([]models.Call, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Call), args.Error(1)
}

func (m *MockCallRepository) CountUnevaluated(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *MockCallRepository) MarkEvaluated(ctx context.Context, callID int64) error {
	args := m.Called(ctx, callID)
	return args.Error(0)
}

func (m *MockCallRepository) ApplyExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) (bool, error) {
	args := m.Called(ctx, callID, exclusionType, reason, excludedAt)
	return args.Bool(0), args.Error(1)
}

func (m *MockCallRepository) SetExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) error {
	args := m.Called(ctx, callID, exclusionType, reason, excludedAt)
	return args.Error(0)
}

func (m *MockCallRepository) ClearExclusion(ctx context.Context, callID int64) error {
	args := m.Called(ctx, callID)
	return args.Error(0)
}

func (m *MockCallRepository) ListByZone(ctx context.Context, zoneID int64) ([]models.Call, error) {
	args := m.Called(ctx, zoneID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Call), args.Error(1)
}

func (m *MockCallRepository) ListQueueTimesByParish(ctx context.Context, parishID int64) ([]string, error) {
	args := m.Called(ctx, parishID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

// MockForecastRepository is a mock implementation of ForecastRepository for testing
type MockForecastRepository struct {
	mock.Mock
}

func (m *MockForecastRepository) InsertHeatmapRows(ctx context.Context, rows []repository.ForecastRow) error {
	args := m.Called(ctx, rows)
	return args.Error(0)
}

func newTestForecaster(calls *MockCallRepository, heatmap *MockForecastRepository) *Forecaster {
	return NewForecaster(calls, heatmap, logger.New("test"))
}

func TestGenerate_ConstantMeanAcrossWindow(t *testing.T) {
	// Arrange: two calls in one hour, one call in another, mean 1.5.
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	calls.On("ListQueueTimesByParish", ctx, int64(3)).Return([]string{
		"11/01/25 09:10:00",
		"11/01/25 09:40:00",
		"11/02/25 14:00:00",
	}, nil)

	var written []repository.ForecastRow
	heatmap.On("InsertHeatmapRows", ctx, mock.Anything).Run(func(args mock.Arguments) {
		written = args.Get(1).([]repository.ForecastRow)
	}).Return(nil)

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 11, 10, 3, 0, 0, 0, time.UTC)

	// Act
	result, err := forecaster.Generate(ctx, 3, start, end)

	// Assert: hourly buckets from start through end inclusive.
	require.NoError(t, err)
	assert.Equal(t, 4, result.RowsWritten)
	assert.Equal(t, ModelVersion, result.ModelVersion)
	require.Len(t, written, 4)
	for i, row := range written {
		assert.Equal(t, 1.5, row.ForecastCalls)
		assert.Equal(t, CellID, row.CellID)
		assert.Equal(t, start.Add(time.Duration(i)*time.Hour), row.BucketStart)
		assert.Equal(t, row.BucketStart.Add(time.Hour), row.BucketEnd)
	}
}

func TestGenerate_NoHistory(t *testing.T) {
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	calls.On("ListQueueTimesByParish", ctx, int64(3)).Return([]string{}, nil)

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	result, err := forecaster.Generate(ctx, 3, start, start.Add(2*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "No data", result.Message)
	assert.Zero(t, result.RowsWritten)
	heatmap.AssertNotCalled(t, "InsertHeatmapRows", mock.Anything, mock.Anything)
}

func TestGenerate_StaleHistoryOutsideLookback(t *testing.T) {
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	// Over 90 days before the window start.
	calls.On("ListQueueTimesByParish", ctx, int64(3)).Return([]string{"01/05/25 09:00:00"}, nil)

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	result, err := forecaster.Generate(ctx, 3, start, start.Add(2*time.Hour))

	require.NoError(t, err)
	assert.Equal(t, "No data", result.Message)
}

func TestGenerate_MalformedTimestampsSkipped(t *testing.T) {
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	calls.On("ListQueueTimesByParish", ctx, int64(3)).Return([]string{
		"garbage",
		"11/01/25 09:10:00",
	}, nil)
	heatmap.On("InsertHeatmapRows", ctx, mock.Anything).Return(nil)

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	result, err := forecaster.Generate(ctx, 3, start, start.Add(time.Hour))

	require.NoError(t, err)
	assert.Equal(t, 2, result.RowsWritten)
}

func TestGenerate_InvalidWindow(t *testing.T) {
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	_, err := forecaster.Generate(ctx, 3, start, start)

	assert.Error(t, err)
	calls.AssertNotCalled(t, "ListQueueTimesByParish", mock.Anything, mock.Anything)
}

func TestGenerate_WriteFailure(t *testing.T) {
	calls := new(MockCallRepository)
	heatmap := new(MockForecastRepository)
	forecaster := newTestForecaster(calls, heatmap)
	ctx := context.Background()

	calls.On("ListQueueTimesByParish", ctx, int64(3)).Return([]string{"11/01/25 09:10:00"}, nil)
	heatmap.On("InsertHeatmapRows", ctx, mock.Anything).Return(errors.New("connection refused"))

	start := time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC)
	_, err := forecaster.Generate(ctx, 3, start, start.Add(time.Hour))

	assert.Error(t, err)
}
