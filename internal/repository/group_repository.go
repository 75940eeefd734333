package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/training-center-api/internal/models"
)

// GroupRepository manages trainee and admin groups.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// ListSummaries returns groups with their member counts, newest first. An empty category
// returns every group.
func (r *GroupRepository) ListSummaries(ctx context.Context, category models.GroupCategory) ([]models.GroupSummary, error) {
	query := `SELECT g.id, g.name, g.category, g.created_at, g.updated_at,
        (SELECT COUNT(1) FROM trainees t WHERE t.group_id = g.id) AS trainees_count,
        (SELECT COUNT(1) FROM admins a WHERE a.group_id = g.id) AS admins_count
        FROM groups g`
	var args []interface{}
	if category != "" {
		query += " WHERE g.category = $1"
		args = append(args, category)
	}
	query += " ORDER BY g.created_at DESC"

	var groups []models.GroupSummary
	if err := r.db.SelectContext(ctx, &groups, query, args...); err != nil {
		return nil, fmt.Errorf("list groups: %w", err)
	}
	if groups == nil {
		groups = []models.GroupSummary{}
	}
	return groups, nil
}

// FindByID returns sql.ErrNoRows when the group does not exist.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	var group models.Group
	const query = `SELECT id, name, category, created_at, updated_at FROM groups WHERE id = $1`
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		return nil, err
	}
	return &group, nil
}

// ExistsByName reports whether a group already uses name.
func (r *GroupRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists int
	if err := r.db.GetContext(ctx, &exists, "SELECT 1 FROM groups WHERE name = $1 LIMIT 1", name); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("check group name: %w", err)
	}
	return true, nil
}

// Create inserts a group.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	const query = `INSERT INTO groups (id, name, category, created_at, updated_at) VALUES (:id, :name, :category, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", err)
	}
	return nil
}
