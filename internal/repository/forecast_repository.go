package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
)

// ForecastRow is one hourly bucket written to the forecast heatmap.
type ForecastRow struct {
	BucketStart   time.Time
	BucketEnd     time.Time
	CellID        string
	ModelVersion  string
	ParishID      int64
	ForecastCalls float64
}

// ForecastRepository persists call-volume forecast output.
type ForecastRepository interface {
	// InsertHeatmapRows appends forecast buckets for a parish.
	InsertHeatmapRows(ctx context.Context, rows []ForecastRow) error
}

// forecastRepository is the concrete pgx-backed implementation.
type forecastRepository struct {
	db *database.Database
}

// NewForecastRepository creates a new instance of ForecastRepository.
func NewForecastRepository(db *database.Database) ForecastRepository {
	return &forecastRepository{db: db}
}

func (r *forecastRepository) InsertHeatmapRows(ctx context.Context, rows []ForecastRow) error {
	query := `
		INSERT INTO forecast_heatmap (
			parish_id, cell_id, bucket_start, bucket_end, forecast_calls, model_version
		)
		VALUES ($1, $2, $3, $4, $5, $6)`

	tx, err := r.db.Pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin forecast transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, row := range rows {
		_, err := tx.Exec(ctx, query,
			row.ParishID,
			row.CellID,
			row.BucketStart,
			row.BucketEnd,
			row.ForecastCalls,
			row.ModelVersion,
		)
		if err != nil {
			return fmt.Errorf("failed to insert forecast bucket %s: %w", row.BucketStart.Format(time.RFC3339), err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit forecast rows: %w", err)
	}
	return nil
}
