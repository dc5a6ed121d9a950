package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/database"
	"github.com/tylerweaver-alt/compliance-dashboard-sub003/internal/models"
)

// CoverageRepository reads zones and candidate posts for feasibility
// analysis. Both are owned by deployment-planning functionality; this service
// consumes them read-only.
type CoverageRepository interface {
	// GetZone returns a zone with its boundary.
	// Returns nil, nil if no zone is found (not an error).
	GetZone(ctx context.Context, id int64) (*models.Zone, error)

	// ListPostsByIDs returns the posts with the given ids, in id order.
	// Missing ids are simply absent from the result.
	ListPostsByIDs(ctx context.Context, ids []int64) ([]models.CoveragePost, error)
}

// coverageRepository is the concrete pgx-backed implementation.
type coverageRepository struct {
	db *database.Database
}

// NewCoverageRepository creates a new instance of CoverageRepository.
func NewCoverageRepository(db *database.Database) CoverageRepository {
	return &coverageRepository{db: db}
}

func (r *coverageRepository) GetZone(ctx context.Context, id int64) (*models.Zone, error) {
	query := `
		SELECT id, name, boundary, created_at, updated_at
		FROM zones
		WHERE id = $1`

	var zone models.Zone
	var boundaryRaw []byte

	err := r.db.Pool.QueryRow(ctx, query, id).Scan(
		&zone.ID,
		&zone.Name,
		&boundaryRaw,
		&zone.CreatedAt,
		&zone.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query zone %d: %w", id, err)
	}

	if len(boundaryRaw) > 0 {
		var boundary models.MultiPolygon
		if err := boundary.Scan(boundaryRaw); err != nil {
			return nil, fmt.Errorf("failed to parse boundary for zone %d: %w", id, err)
		}
		zone.Boundary = &boundary
	}
	return &zone, nil
}

func (r *coverageRepository) ListPostsByIDs(ctx context.Context, ids []int64) ([]models.CoveragePost, error) {
	if len(ids) == 0 {
		return []models.CoveragePost{}, nil
	}

	query := `
		SELECT id, name, lat, lng, units_available, created_at, updated_at
		FROM coverage_posts
		WHERE id = ANY($1)
		ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query coverage posts: %w", err)
	}
	defer rows.Close()

	posts := make([]models.CoveragePost, 0, len(ids))
	for rows.Next() {
		var post models.CoveragePost
		err := rows.Scan(
			&post.ID,
			&post.Name,
			&post.Lat,
			&post.Lng,
			&post.UnitsAvailable,
			&post.CreatedAt,
			&post.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan coverage-post row: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating coverage-post rows: %w", err)
	}
	return posts, nil
}
