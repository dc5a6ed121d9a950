package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

// WeatherEventRepository defines read access to the normalized weather-alert
// store plus the idempotent upsert used by the ingestion collaborator.
type WeatherEventRepository interface {
	// ListCandidates returns every alert whose validity window overlaps
	// [from, to]. Alerts with a NULL ends_at are treated as expiring 24 hours
	// after their start. Both geometry-bearing and geometry-less alerts are
	// returned; the matchers split them.
	ListCandidates(ctx context.Context, from, to time.Time) ([]models.WeatherEvent, error)

	// Upsert inserts or refreshes an alert keyed by its upstream identifier,
	// so re-delivery from the source is always safe.
	Upsert(ctx context.Context, event *models.WeatherEvent) error
}

// weatherEventRepository is the concrete pgx-backed implementation.
type weatherEventRepository struct {
	db *database.Database
}

// NewWeatherEventRepository creates a new instance of WeatherEventRepository.
func NewWeatherEventRepository(db *database.Database) WeatherEventRepository {
	return &weatherEventRepository{db: db}
}

func (r *weatherEventRepository) ListCandidates(ctx context.Context, from, to time.Time) ([]models.WeatherEvent, error) {
	query := `
		SELECT
			id,
			external_id,
			source,
			jurisdiction,
			event,
			severity,
			certainty,
			urgency,
			area_desc,
			geometry,
			starts_at,
			ends_at,
			created_at,
			updated_at
		FROM weather_events
		WHERE starts_at <= $2
		  AND COALESCE(ends_at, starts_at + interval '24 hours') >= $1
		ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("failed to query weather-event candidates: %w", err)
	}
	defer rows.Close()

	events := make([]models.WeatherEvent, 0)
	for rows.Next() {
		event, err := scanWeatherEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan weather-event row: %w", err)
		}
		events = append(events, *event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating weather-event rows: %w", err)
	}
	return events, nil
}

func (r *weatherEventRepository) Upsert(ctx context.Context, event *models.WeatherEvent) error {
	query := `
		INSERT INTO weather_events (
			external_id, source, jurisdiction, event, severity,
			certainty, urgency, area_desc, geometry, starts_at, ends_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (external_id) DO UPDATE SET
			source = EXCLUDED.source,
			jurisdiction = EXCLUDED.jurisdiction,
			event = EXCLUDED.event,
			severity = EXCLUDED.severity,
			certainty = EXCLUDED.certainty,
			urgency = EXCLUDED.urgency,
			area_desc = EXCLUDED.area_desc,
			geometry = EXCLUDED.geometry,
			starts_at = EXCLUDED.starts_at,
			ends_at = EXCLUDED.ends_at,
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err := r.db.Pool.QueryRow(ctx, query,
		event.ExternalID,
		event.Source,
		event.Jurisdiction,
		event.Event,
		event.Severity,
		event.Certainty,
		event.Urgency,
		event.AreaDesc,
		event.Geometry,
		event.StartsAt,
		event.EndsAt,
	).Scan(&event.ID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert weather event %s: %w", event.ExternalID, err)
	}
	return nil
}

// scanWeatherEvent reads one alert row. The geometry column is GeoJSON text
// and may be NULL, which leaves the Geometry empty.
func scanWeatherEvent(row pgx.Row) (*models.WeatherEvent, error) {
	var event models.WeatherEvent
	var geomRaw []byte

	err := row.Scan(
		&event.ID,
		&event.ExternalID,
		&event.Source,
		&event.Jurisdiction,
		&event.Event,
		&event.Severity,
		&event.Certainty,
		&event.Urgency,
		&event.AreaDesc,
		&geomRaw,
		&event.StartsAt,
		&event.EndsAt,
		&event.CreatedAt,
		&event.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(geomRaw) > 0 {
		if err := event.Geometry.Scan(geomRaw); err != nil {
			return nil, fmt.Errorf("failed to parse geometry for event %s: %w", event.ExternalID, err)
		}
	}
	return &event, nil
}
