package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/compliance"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/engine"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/forecast"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

// MockProcessor is a mock implementation of Processor for testing
type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) ProcessUnevaluatedCalls(ctx context.Context, maxCalls int) (engine.BatchStats, error) {
	args := m.Called(ctx, maxCalls)
	return args.Get(0).(engine.BatchStats), args.Error(1)
}

func (m *MockProcessor) CountRemaining(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockOperationalLog is a mock implementation of OperationalLog for testing
type MockOperationalLog struct {
	mock.Mock
}

func (m *MockOperationalLog) Record(ctx context.Context, action, detail string, metadata map[string]interface{}) {
	m.Called(ctx, action, detail, metadata)
}

// MockCoverageRepository is a mock implementation of CoverageRepository for testing
type MockCoverageRepository struct {
	mock.Mock
}

func (m *MockCoverageRepository) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Zone), args.Error(1)
}

func (m *MockCoverageRepository) ListPostsByIDs(ctx context.Context, ids []int64) ([]models.CoveragePost, error) {
	args := m.Called(ctx, ids)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CoveragePost), args.Error(1)
}

// MockCoverageAnalyzer is a mock implementation of CoverageAnalyzer for testing
type MockCoverageAnalyzer struct {
	mock.Mock
}

func (m *MockCoverageAnalyzer) Analyze(ctx context.Context, zone *models.Zone, posts []models.CoveragePost, targetMinutes, unitsAvailable int) (*compliance.AnalysisResult, error) {
	args := m.Called(ctx, zone, posts, targetMinutes, unitsAvailable)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*compliance.AnalysisResult), args.Error(1)
}

// MockForecastGenerator is a mock implementation of ForecastGenerator for testing
type MockForecastGenerator struct {
	mock.Mock
}

func (m *MockForecastGenerator) Generate(ctx context.Context, parishID int64, start, end time.Time) (*forecast.Result, error) {
	args := m.Called(ctx, parishID, start, end)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*forecast.Result), args.Error(1)
}

// MockCallRepository is a mock implementation of the call repository for testing
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
