// Package oplog writes append-only operational log rows for job runs and
// other service-level events. Writing is strictly best-effort: a failed insert
// is logged and swallowed so an observability problem never aborts the work
// being observed.
package oplog

import (
	"context"
	"encoding/json"

	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/logger"
)

// Sink appends rows to the operational_logs table.
type Sink struct {
	db  *database.Database
	log *logger.Logger
}

// NewSink creates an operational log sink.
func NewSink(db *database.Database, log *logger.Logger) *Sink {
	return &Sink{db: db, log: log}
}

// Record appends one operational log row. Failures never propagate.
func (s *Sink) Record(ctx context.Context, action, detail string, metadata map[string]interface{}) {
	data, err := json.Marshal(metadata)
	if err != nil {
		s.log.Warn("operational log metadata not serializable", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
		data = []byte("{}")
	}

	query := `INSERT INTO operational_logs (action, detail, metadata) VALUES ($1, $2, $3)`
	if _, err := s.db.Pool.Exec(ctx, query, action, detail, data); err != nil {
		s.log.Warn("operational log write failed", map[string]interface{}{
			"action": action,
			"error":  err.Error(),
		})
	}
}
