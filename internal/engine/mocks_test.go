package engine

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
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

// MockWeatherEventRepository is a mock implementation of WeatherEventRepository for testing
type MockWeatherEventRepository struct {
	mock.Mock
}

func (m *MockWeatherEventRepository) ListCandidates(ctx context.Context, from, to time.Time) ([]models.WeatherEvent, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.WeatherEvent), args.Error(1)
}

func (m *MockWeatherEventRepository) Upsert(ctx context.Context, event *models.WeatherEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockExclusionRepository is a mock implementation of ExclusionRepository for testing
type MockExclusionRepository struct {
	mock.Mock
}

func (m *MockExclusionRepository) InsertAudit(ctx context.Context, audit *models.ExclusionAudit) (bool, error) {
	args := m.Called(ctx, audit)
	return args.Bool(0), args.Error(1)
}

func (m *MockExclusionRepository) InsertLog(ctx context.Context, entry *models.ExclusionLog) (int64, error) {
	args := m.Called(ctx, entry)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockExclusionRepository) GetLog(ctx context.Context, id int64) (*models.ExclusionLog, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ExclusionLog), args.Error(1)
}

func (m *MockExclusionRepository) MarkLogReverted(ctx context.Context, id int64, at time.Time) (bool, error) {
	args := m.Called(ctx, id, at)
	return args.Bool(0), args.Error(1)
}

func (m *MockExclusionRepository) ListActiveLogs(ctx context.Context, callID int64) ([]models.ExclusionLog, error) {
	args := m.Called(ctx, callID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ExclusionLog), args.Error(1)
}

func (m *MockExclusionRepository) CountByStrategy(ctx context.Context) (map[string]int, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]int), args.Error(1)
}
