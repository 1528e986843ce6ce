package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"couples-workout-backend/internal/apperror"
	"couples-workout-backend/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const uniqueViolation = "23505"

// CoupleRepository handles database operations for couples, memberships,
// settings and invites
type CoupleRepository struct {
	db *pgxpool.Pool
}

// NewCoupleRepository creates a new couple repository
func NewCoupleRepository(db *pgxpool.Pool) *CoupleRepository {
	return &CoupleRepository{db: db}
}

// CreateWithOwner creates a couple, its owner membership and default settings
// in a single transaction. Partial creation is never observable.
func (r *CoupleRepository) CreateWithOwner(ctx context.Context, userID string) (*models.Couple, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	couple := &models.Couple{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO couples (id, created_at) VALUES ($1, $2)`,
		couple.ID, couple.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create couple: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO couple_members (id, user_id, couple_id, role, joined_at)
		 VALUES ($1, $2, $3, $4, now())`,
		uuid.New().String(), userID, couple.ID, models.RoleOwner,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user is already part of a couple")
		}
		return nil, fmt.Errorf("failed to create owner membership: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO couple_settings (id, couple_id, share_progress_enabled, share_habits_enabled)
		 VALUES ($1, $2, TRUE, TRUE)`,
		uuid.New().String(), couple.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create couple settings: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit couple creation: %w", err)
	}
	return couple, nil
}

// GetByID retrieves a couple by ID
func (r *CoupleRepository) GetByID(ctx context.Context, id string) (*models.Couple, error) {
	var couple models.Couple
	err := r.db.QueryRow(ctx,
		`SELECT id, created_at FROM couples WHERE id = $1`, id,
	).Scan(&couple.ID, &couple.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("couple not found")
		}
		return nil, fmt.Errorf("failed to get couple: %w", err)
	}
	return &couple, nil
}

// GetMembership retrieves the couple membership of a user, if any
func (r *CoupleRepository) GetMembership(ctx context.Context, userID string) (*models.CoupleMember, error) {
	var m models.CoupleMember
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, couple_id, role, joined_at
		 FROM couple_members WHERE user_id = $1`, userID,
	).Scan(&m.ID, &m.UserID, &m.CoupleID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("user is not part of a couple")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// GetMembershipInCouple retrieves a user's membership in a specific couple
func (r *CoupleRepository) GetMembershipInCouple(ctx context.Context, userID, coupleID string) (*models.CoupleMember, error) {
	var m models.CoupleMember
	err := r.db.QueryRow(ctx,
		`SELECT id, user_id, couple_id, role, joined_at
		 FROM couple_members WHERE user_id = $1 AND couple_id = $2`, userID, coupleID,
	).Scan(&m.ID, &m.UserID, &m.CoupleID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("membership not found")
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return &m, nil
}

// GetPartner retrieves the other member of the user's couple
func (r *CoupleRepository) GetPartner(ctx context.Context, userID string) (*models.CoupleMember, error) {
	membership, err := r.GetMembership(ctx, userID)
	if err != nil {
		return nil, err
	}

	var m models.CoupleMember
	err = r.db.QueryRow(ctx,
		`SELECT id, user_id, couple_id, role, joined_at
		 FROM couple_members WHERE couple_id = $1 AND user_id <> $2`,
		membership.CoupleID, userID,
	).Scan(&m.ID, &m.UserID, &m.CoupleID, &m.Role, &m.JoinedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("partner not found")
		}
		return nil, fmt.Errorf("failed to get partner: %w", err)
	}
	return &m, nil
}

// ListMembers retrieves all members of a couple with display profile fields
func (r *CoupleRepository) ListMembers(ctx context.Context, coupleID string) ([]*models.MemberProfile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT m.user_id, u.display_name, u.avatar_url, m.role, m.joined_at
		 FROM couple_members m
		 JOIN users u ON u.id = m.user_id
		 WHERE m.couple_id = $1
		 ORDER BY m.joined_at`, coupleID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.MemberProfile
	for rows.Next() {
		var m models.MemberProfile
		if err := rows.Scan(&m.UserID, &m.DisplayName, &m.AvatarURL, &m.Role, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, &m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// CreateInvite stores a generated invite code
func (r *CoupleRepository) CreateInvite(ctx context.Context, invite *models.CoupleInvite) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO couple_invites (id, couple_id, code, created_by, expires_at, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		invite.ID, invite.CoupleID, invite.Code, invite.CreatedBy, invite.ExpiresAt, invite.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

// AcceptInvite adds the user to the couple as a member. The couple row is
// locked for the duration of the transaction so the member-count check, the
// invite consumption and the membership insert are atomic with respect to
// concurrent accept calls.
func (r *CoupleRepository) AcceptInvite(ctx context.Context, coupleID, userID, code string) (*models.CoupleMember, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var lockedID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM couples WHERE id = $1 FOR UPDATE`, coupleID,
	).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("couple not found")
		}
		return nil, fmt.Errorf("failed to lock couple: %w", err)
	}

	var inviteID string
	err = tx.QueryRow(ctx,
		`SELECT id FROM couple_invites
		 WHERE couple_id = $1 AND code = $2 AND used_at IS NULL AND expires_at > now()
		 FOR UPDATE`, coupleID, code,
	).Scan(&inviteID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.Validation("invalid invite code")
		}
		return nil, fmt.Errorf("failed to look up invite: %w", err)
	}

	var memberCount int
	err = tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM couple_members WHERE couple_id = $1`, coupleID,
	).Scan(&memberCount)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	if memberCount >= 2 {
		return nil, apperror.Conflict("this couple is already full")
	}

	member := &models.CoupleMember{
		ID:       uuid.New().String(),
		UserID:   userID,
		CoupleID: coupleID,
		Role:     models.RoleMember,
		JoinedAt: time.Now(),
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO couple_members (id, user_id, couple_id, role, joined_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		member.ID, member.UserID, member.CoupleID, member.Role, member.JoinedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, apperror.Conflict("user is already part of a couple")
		}
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}

	_, err = tx.Exec(ctx,
		`UPDATE couple_invites SET used_at = now() WHERE id = $1`, inviteID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to consume invite: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit invite acceptance: %w", err)
	}
	return member, nil
}

// GetSettings retrieves the settings row of a couple
func (r *CoupleRepository) GetSettings(ctx context.Context, coupleID string) (*models.CoupleSettings, error) {
	var s models.CoupleSettings
	err := r.db.QueryRow(ctx,
		`SELECT id, couple_id, share_progress_enabled, share_habits_enabled, created_at, updated_at
		 FROM couple_settings WHERE couple_id = $1`, coupleID,
	).Scan(&s.ID, &s.CoupleID, &s.ShareProgressEnabled, &s.ShareHabitsEnabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("couple settings not found")
		}
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}
	return &s, nil
}

// UpdateSettings applies a partial update to the sharing toggles. Nil flags
// are left untouched.
func (r *CoupleRepository) UpdateSettings(ctx context.Context, coupleID string, shareProgress, shareHabits *bool) (*models.CoupleSettings, error) {
	var s models.CoupleSettings
	err := r.db.QueryRow(ctx,
		`UPDATE couple_settings
		 SET share_progress_enabled = COALESCE($1, share_progress_enabled),
		     share_habits_enabled = COALESCE($2, share_habits_enabled),
		     updated_at = now()
		 WHERE couple_id = $3
		 RETURNING id, couple_id, share_progress_enabled, share_habits_enabled, created_at, updated_at`,
		shareProgress, shareHabits, coupleID,
	).Scan(&s.ID, &s.CoupleID, &s.ShareProgressEnabled, &s.ShareHabitsEnabled, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperror.NotFound("couple settings not found")
		}
		return nil, fmt.Errorf("failed to update settings: %w", err)
	}
	return &s, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
