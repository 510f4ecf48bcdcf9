package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/voluntrack/voluntrack-api/internal/models"
)

// ProfileRepository handles persistence of volunteer profiles.
type ProfileRepository struct {
	db *sqlx.DB
}

// NewProfileRepository constructs the repository.
func NewProfileRepository(db *sqlx.DB) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// ProvisioningHook returns the user-creation hook that inserts an empty
// profile for every new account. Idempotent: a concurrently created row
// for the same user is left untouched.
func (r *ProfileRepository) ProvisioningHook() UserCreatedHook {
	return func(ctx context.Context, tx *sqlx.Tx, user *models.User) error {
		const query = `INSERT INTO profiles (id, user_id, phone, created_at, updated_at)
            VALUES ($1, $2, '', $3, $3)
            ON CONFLICT (user_id) DO NOTHING`
		if _, err := tx.ExecContext(ctx, query, uuid.NewString(), user.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("provision profile: %w", err)
		}
		return nil
	}
}

// FindByUserID returns the bare profile row for a user.
func (r *ProfileRepository) FindByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	const query = `SELECT id, user_id, department_id, phone, created_at, updated_at FROM profiles WHERE user_id = $1`
	var profile models.Profile
	if err := r.db.GetContext(ctx, &profile, query, userID); err != nil {
		return nil, err
	}
	return &profile, nil
}

// FindDetailByUserID returns the profile joined with account and
// department context.
func (r *ProfileRepository) FindDetailByUserID(ctx context.Context, userID string) (*models.ProfileDetail, error) {
	const query = `SELECT p.id, p.user_id, p.department_id, p.phone, p.created_at, p.updated_at,
        u.email, u.full_name, u.role, d.name AS department_name
        FROM profiles p
        JOIN users u ON u.id = p.user_id
        LEFT JOIN departments d ON d.id = p.department_id
        WHERE p.user_id = $1`
	var detail models.ProfileDetail
	if err := r.db.GetContext(ctx, &detail, query, userID); err != nil {
		return nil, err
	}
	return &detail, nil
}

// UpdateOwn updates the fields a user may edit on their own profile.
func (r *ProfileRepository) UpdateOwn(ctx context.Context, userID string, departmentID *string, phone string) error {
	const query = `UPDATE profiles SET department_id = $2, phone = $3, updated_at = $4 WHERE user_id = $1`
	result, err := r.db.ExecContext(ctx, query, userID, departmentID, phone, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update profile rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
