package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

const callColumns = `
	id,
	parish_id,
	zone_id,
	origin_lat,
	origin_lng,
	origin_city,
	call_in_que_time,
	dispatch_time,
	arrived_at_scene_time,
	priority,
	exclusion_type,
	exclusion_reason,
	excluded_at,
	evaluated,
	created_at,
	updated_at`

// CallRepository defines data access for call records. Only exclusion-related
// fields are ever written; everything else belongs to the ingestion pipeline.
type CallRepository interface {
	// GetByID returns the call with the given id.
	// Returns nil, nil if no call is found (not an error).
	GetByID(ctx context.Context, id int64) (*models.Call, error)

	// ListUnevaluated returns up to limit calls with no audit attempt under
	// any strategy and no manual exclusion, ordered by ascending id so
	// successive capped runs make forward progress.
	ListUnevaluated(ctx context.Context, limit int) ([]models.Call, error)

	// CountUnevaluated returns the size of the remaining worklist.
	CountUnevaluated(ctx context.Context) (int, error)

	// MarkEvaluated flags a call as processed by the engine so the safety net
	// does not reconsider it.
	MarkEvaluated(ctx context.Context, callID int64) error

	// ApplyExclusion sets the denormalized exclusion fields on a call, but
	// only when no exclusion is currently active. Returns true when the
	// update applied; false means another evaluator got there first, which
	// is a no-op, not an error.
	ApplyExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) (bool, error)

	// SetExclusion overwrites the denormalized exclusion fields. Used when a
	// revert promotes the next remaining active ledger entry.
	SetExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) error

	// ClearExclusion removes the denormalized exclusion fields after the last
	// active ledger entry for the call is reverted.
	ClearExclusion(ctx context.Context, callID int64) error

	// ListByZone returns all calls assigned to a zone, for compliance-curve
	// computation. Exclusion and priority filtering happens in the computer.
	ListByZone(ctx context.Context, zoneID int64) ([]models.Call, error)

	// ListQueueTimesByParish returns the raw call_in_que_time values for a
	// parish, for call-volume forecasting. Values are free text; the caller
	// parses tolerantly and skips what it cannot read.
	ListQueueTimesByParish(ctx context.Context, parishID int64) ([]string, error)
}

// callRepository is the concrete pgx-backed implementation of CallRepository.
type callRepository struct {
	db *database.Database
}

// NewCallRepository creates a new instance of CallRepository.
func NewCallRepository(db *database.Database) CallRepository {
	return &callRepository{db: db}
}

func (r *callRepository) GetByID(ctx context.Context, id int64) (*models.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE id = $1`

	call, err := scanCall(r.db.Pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query call %d: %w", id, err)
	}
	return call, nil
}

// unevaluatedFilter selects calls that have never been looked at by the
// engine: no audit attempt under any strategy, not manually excluded, and not
// already marked evaluated.
const unevaluatedFilter = `
	c.evaluated = false
	AND (c.exclusion_type IS NULL OR c.exclusion_type <> 'MANUAL')
	AND NOT EXISTS (
		SELECT 1 FROM exclusion_audits a WHERE a.call_id = c.id
	)`

func (r *callRepository) ListUnevaluated(ctx context.Context, limit int) ([]models.Call, error) {
	query := `SELECT ` + qualifyCallColumns() + `
		FROM calls c
		WHERE ` + unevaluatedFilter + `
		ORDER BY c.id ASC
		LIMIT $1`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query unevaluated calls: %w", err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

func (r *callRepository) CountUnevaluated(ctx context.Context) (int, error) {
	query := `SELECT COUNT(*) FROM calls c WHERE ` + unevaluatedFilter

	var count int
	if err := r.db.Pool.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unevaluated calls: %w", err)
	}
	return count, nil
}

func (r *callRepository) MarkEvaluated(ctx context.Context, callID int64) error {
	query := `UPDATE calls SET evaluated = true, updated_at = NOW() WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, callID)
	if err != nil {
		return fmt.Errorf("failed to mark call %d evaluated: %w", callID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("call %d not found for evaluation flag", callID)
	}
	return nil
}

func (r *callRepository) ApplyExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) (bool, error) {
	// The exclusion_type IS NULL guard makes a second invocation a no-op
	// rather than an overwrite that discards the first reason.
	query := `
		UPDATE calls
		SET exclusion_type = $2,
			exclusion_reason = $3,
			excluded_at = $4,
			evaluated = true,
			updated_at = NOW()
		WHERE id = $1 AND exclusion_type IS NULL`

	tag, err := r.db.Pool.Exec(ctx, query, callID, exclusionType, reason, excludedAt)
	if err != nil {
		return false, fmt.Errorf("failed to apply exclusion to call %d: %w", callID, err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *callRepository) SetExclusion(ctx context.Context, callID int64, exclusionType, reason string, excludedAt time.Time) error {
	query := `
		UPDATE calls
		SET exclusion_type = $2,
			exclusion_reason = $3,
			excluded_at = $4,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, callID, exclusionType, reason, excludedAt)
	if err != nil {
		return fmt.Errorf("failed to set exclusion on call %d: %w", callID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("call %d not found for exclusion update", callID)
	}
	return nil
}

func (r *callRepository) ClearExclusion(ctx context.Context, callID int64) error {
	query := `
		UPDATE calls
		SET exclusion_type = NULL,
			exclusion_reason = NULL,
			excluded_at = NULL,
			updated_at = NOW()
		WHERE id = $1`

	tag, err := r.db.Pool.Exec(ctx, query, callID)
	if err != nil {
		return fmt.Errorf("failed to clear exclusion on call %d: %w", callID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("call %d not found for exclusion clear", callID)
	}
	return nil
}

func (r *callRepository) ListByZone(ctx context.Context, zoneID int64) ([]models.Call, error) {
	query := `SELECT ` + callColumns + ` FROM calls WHERE zone_id = $1 ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, zoneID)
	if err != nil {
		return nil, fmt.Errorf("failed to query calls for zone %d: %w", zoneID, err)
	}
	defer rows.Close()

	return collectCalls(rows)
}

func (r *callRepository) ListQueueTimesByParish(ctx context.Context, parishID int64) ([]string, error) {
	query := `
		SELECT call_in_que_time
		FROM calls
		WHERE parish_id = $1 AND call_in_que_time IS NOT NULL
		ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, parishID)
	if err != nil {
		return nil, fmt.Errorf("failed to query call times for parish %d: %w", parishID, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("failed to scan call time: %w", err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call times: %w", err)
	}
	return values, nil
}

// qualifyCallColumns prefixes every call column with the alias used in
// filtered queries.
func qualifyCallColumns() string {
	return `
	c.id,
	c.parish_id,
	c.zone_id,
	c.origin_lat,
	c.origin_lng,
	c.origin_city,
	c.call_in_que_time,
	c.dispatch_time,
	c.arrived_at_scene_time,
	c.priority,
	c.exclusion_type,
	c.exclusion_reason,
	c.excluded_at,
	c.evaluated,
	c.created_at,
	c.updated_at`
}

// scanCall reads one call row in callColumns order.
func scanCall(row pgx.Row) (*models.Call, error) {
	var call models.Call
	err := row.Scan(
		&call.ID,
		&call.ParishID,
		&call.ZoneID,
		&call.OriginLat,
		&call.OriginLng,
		&call.OriginCity,
		&call.CallInQueTime,
		&call.DispatchTime,
		&call.ArrivedAtSceneTime,
		&call.Priority,
		&call.ExclusionType,
		&call.ExclusionReason,
		&call.ExcludedAt,
		&call.Evaluated,
		&call.CreatedAt,
		&call.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func collectCalls(rows pgx.Rows) ([]models.Call, error) {
	calls := make([]models.Call, 0)
	for rows.Next() {
		call, err := scanCall(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call row: %w", err)
		}
		calls = append(calls, *call)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call rows: %w", err)
	}
	return calls, nil
}
