package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

// ExclusionRepository persists the append-only audit trail and the unified
// exclusion ledger. The partial unique index over non-reverted audit rows is
// the sole concurrency-safety mechanism: concurrent evaluators racing on the
// same match see exactly one insert prevail and the rest become no-ops.
type ExclusionRepository interface {
	// InsertAudit appends one match-attempt row. Returns false when an
	// identical non-reverted (call, event, strategy) row already exists.
	InsertAudit(ctx context.Context, audit *models.ExclusionAudit) (bool, error)

	// InsertLog appends one ledger entry and returns its id.
	InsertLog(ctx context.Context, entry *models.ExclusionLog) (int64, error)

	// GetLog returns a ledger entry by id.
	// Returns nil, nil if no entry is found (not an error).
	GetLog(ctx context.Context, id int64) (*models.ExclusionLog, error)

	// MarkLogReverted sets reverted_at on a ledger entry. Returns false when
	// the entry was already reverted.
	MarkLogReverted(ctx context.Context, id int64, at time.Time) (bool, error)

	// ListActiveLogs returns the non-reverted ledger entries for a call,
	// most recent first.
	ListActiveLogs(ctx context.Context, callID int64) ([]models.ExclusionLog, error)

	// CountByStrategy returns how many active ledger entries exist per
	// strategy key, for reporting.
	CountByStrategy(ctx context.Context) (map[string]int, error)
}

// exclusionRepository is the concrete pgx-backed implementation.
type exclusionRepository struct {
	db *database.Database
}

// NewExclusionRepository creates a new instance of ExclusionRepository.
func NewExclusionRepository(db *database.Database) ExclusionRepository {
	return &exclusionRepository{db: db}
}

func (r *exclusionRepository) InsertAudit(ctx context.Context, audit *models.ExclusionAudit) (bool, error) {
	diagnostics, err := json.Marshal(audit.Diagnostics)
	if err != nil {
		return false, fmt.Errorf("failed to marshal audit diagnostics: %w", err)
	}

	// ON CONFLICT DO NOTHING against the partial unique index; RETURNING
	// yields no row when the insert was suppressed.
	query := `
		INSERT INTO exclusion_audits (
			call_id, weather_event_id, strategy,
			overlap_start, overlap_end,
			event_external_id, event_name, event_severity,
			diagnostics
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (call_id, weather_event_id, strategy) WHERE reverted_at IS NULL
		DO NOTHING
		RETURNING id, created_at`

	err = r.db.Pool.QueryRow(ctx, query,
		audit.CallID,
		audit.WeatherEventID,
		audit.Strategy,
		audit.OverlapStart,
		audit.OverlapEnd,
		audit.EventExternalID,
		audit.EventName,
		audit.EventSeverity,
		diagnostics,
	).Scan(&audit.ID, &audit.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Idempotency conflict: expected, silently absorbed.
			return false, nil
		}
		return false, fmt.Errorf("failed to insert exclusion audit for call %d: %w", audit.CallID, err)
	}
	return true, nil
}

func (r *exclusionRepository) InsertLog(ctx context.Context, entry *models.ExclusionLog) (int64, error) {
	metadata, err := json.Marshal(entry.Metadata)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal exclusion-log metadata: %w", err)
	}

	query := `
		INSERT INTO exclusion_logs (call_id, type, strategy, reason, metadata)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`

	err = r.db.Pool.QueryRow(ctx, query,
		entry.CallID,
		entry.Type,
		entry.Strategy,
		entry.Reason,
		metadata,
	).Scan(&entry.ID, &entry.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("failed to insert exclusion log for call %d: %w", entry.CallID, err)
	}
	return entry.ID, nil
}

func (r *exclusionRepository) GetLog(ctx context.Context, id int64) (*models.ExclusionLog, error) {
	query := `
		SELECT id, call_id, type, strategy, reason, metadata, created_at, reverted_at
		FROM exclusion_logs
		WHERE id = $1`

	entry, err := scanExclusionLog(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query exclusion log %d: %w", id, err)
	}
	return entry, nil
}

func (r *exclusionRepository) MarkLogReverted(ctx context.Context, id int64, at time.Time) (bool, error) {
	// Logical delete only. History is preserved; rows are never removed.
	query := `
		UPDATE exclusion_logs
		SET reverted_at = $2
		WHERE id = $1 AND reverted_at IS NULL`

	tag, err := r.db.Pool.Exec(ctx, query, id, at)
	if err != nil {
		return false, fmt.Errorf("failed to revert exclusion log %d: %w", id, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *exclusionRepository) ListActiveLogs(ctx context.Context, callID int64) ([]models.ExclusionLog, error) {
	query := `
		SELECT id, call_id, type, strategy, reason, metadata, created_at, reverted_at
		FROM exclusion_logs
		WHERE call_id = $1 AND reverted_at IS NULL
		ORDER BY id DESC`

	rows, err := r.db.Pool.Query(ctx, query, callID)
	if err != nil {
		return nil, fmt.Errorf("failed to query active exclusion logs for call %d: %w", callID, err)
	}
	defer rows.Close()

	logs := make([]models.ExclusionLog, 0)
	for rows.Next() {
		entry, err := scanExclusionLog(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan exclusion-log row: %w", err)
		}
		logs = append(logs, *entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating exclusion-log rows: %w", err)
	}
	return logs, nil
}

func (r *exclusionRepository) CountByStrategy(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT strategy, COUNT(*)
		FROM exclusion_logs
		WHERE reverted_at IS NULL
		GROUP BY strategy`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count exclusions by strategy: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var strategy string
		var count int
		if err := rows.Scan(&strategy, &count); err != nil {
			return nil, fmt.Errorf("failed to scan strategy count: %w", err)
		}
		counts[strategy] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating strategy counts: %w", err)
	}
	return counts, nil
}

func scanExclusionLog(row pgx.Row) (*models.ExclusionLog, error) {
	var entry models.ExclusionLog
	var metadata []byte

	err := row.Scan(
		&entry.ID,
		&entry.CallID,
		&entry.Type,
		&entry.Strategy,
		&entry.Reason,
		&metadata,
		&entry.CreatedAt,
		&entry.RevertedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &entry.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal exclusion-log metadata: %w", err)
		}
	}
	return &entry, nil
}
