package repository

import (
	"context"
	"errors"
	"fmt"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ShareRepository handles database operations for share permissions
type ShareRepository struct {
	db *pgxpool.Pool
}

// NewShareRepository creates a new share repository
func NewShareRepository(db *pgxpool.Pool) *ShareRepository {
	return &ShareRepository{db: db}
}

// Upsert inserts a grant or, when one already exists for the (owner, viewer)
// pair, overwrites both flags in place. Last write wins; the flags are never
// merged. The resulting row is written back into perm.
func (r *ShareRepository) Upsert(ctx context.Context, perm *models.SharePermissions) error {
	query := `
		INSERT INTO share_permissions
			(id, owner_user_id, viewer_user_id, can_view_progress, can_view_habits, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())
		ON CONFLICT (owner_user_id, viewer_user_id) DO UPDATE
		SET can_view_progress = EXCLUDED.can_view_progress,
		    can_view_habits = EXCLUDED.can_view_habits,
		    updated_at = now()
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query,
		perm.ID, perm.OwnerUserID, perm.ViewerUserID, perm.CanViewProgress, perm.CanViewHabits,
	).Scan(&perm.ID, &perm.CreatedAt, &perm.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert share permissions: %w", err)
	}
	return nil
}

// Get retrieves the grant from owner to viewer
func (r *ShareRepository) Get(ctx context.Context, ownerID, viewerID string) (*models.SharePermissions, error) {
	var p models.SharePermissions
	err := r.db.QueryRow(ctx,
		`SELECT id, owner_user_id, viewer_user_id, can_view_progress, can_view_habits, created_at, updated_at
		 FROM share_permissions WHERE owner_user_id = $1 AND viewer_user_id = $2`,
		ownerID, viewerID,
	).Scan(&p.ID, &p.OwnerUserID, &p.ViewerUserID, &p.CanViewProgress, &p.CanViewHabits, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("share permissions not found")
		}
		return nil, fmt.Errorf("failed to get share permissions: %w", err)
	}
	return &p, nil
}

// ListOwned retrieves grants issued by the user, joined with viewer profiles
func (r *ShareRepository) ListOwned(ctx context.Context, ownerID string) ([]*models.ShareGrantInfo, error) {
	query := `
		SELECT p.id, u.id, u.email, u.display_name, u.avatar_url,
		       p.can_view_progress, p.can_view_habits, p.created_at
		FROM share_permissions p
		JOIN users u ON u.id = p.viewer_user_id
		WHERE p.owner_user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listGrants(ctx, query, ownerID)
}

// ListReceived retrieves grants issued to the user, joined with owner profiles
func (r *ShareRepository) ListReceived(ctx context.Context, viewerID string) ([]*models.ShareGrantInfo, error) {
	query := `
		SELECT p.id, u.id, u.email, u.display_name, u.avatar_url,
		       p.can_view_progress, p.can_view_habits, p.created_at
		FROM share_permissions p
		JOIN users u ON u.id = p.owner_user_id
		WHERE p.viewer_user_id = $1
		ORDER BY p.created_at DESC
	`
	return r.listGrants(ctx, query, viewerID)
}

func (r *ShareRepository) listGrants(ctx context.Context, query, userID string) ([]*models.ShareGrantInfo, error) {
	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list share permissions: %w", err)
	}
	defer rows.Close()

	var grants []*models.ShareGrantInfo
	for rows.Next() {
		var g models.ShareGrantInfo
		err := rows.Scan(&g.ID, &g.UserID, &g.Email, &g.DisplayName, &g.AvatarURL,
			&g.CanViewProgress, &g.CanViewHabits, &g.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share permissions: %w", err)
		}
		grants = append(grants, &g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share permissions: %w", err)
	}
	return grants, nil
}

// DeleteOwned deletes a grant by ID, but only when the caller owns it
func (r *ShareRepository) DeleteOwned(ctx context.Context, id, ownerID string) error {
	result, err := r.db.Exec(ctx,
		`DELETE FROM share_permissions WHERE id = $1 AND owner_user_id = $2`, id, ownerID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete share permissions: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperror.NotFound("share permissions not found")
	}
	return nil
}
