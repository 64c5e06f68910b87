package db

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"focusflow/internal/types"
)

// ProfileRepository provides data access for the user_profiles table.
type ProfileRepository struct {
	db DBTX
}

// NewProfileRepository creates a new ProfileRepository backed by the given
// database connection (pool or transaction).
func NewProfileRepository(db DBTX) *ProfileRepository {
	return &ProfileRepository{db: db}
}

// profileColumns defines the standard set of columns selected for profile
// queries. Used consistently across all query methods to avoid column drift.
const profileColumns = `id, email, plan, is_admin, subscription_status, trial_ends_at, created_at, updated_at`

// scanProfile scans a single profile row into a types.UserProfile.
// The columns must match the order defined in profileColumns.
func scanProfile(row pgx.Row) (*types.UserProfile, error) {
	var p types.UserProfile
	err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Plan,
		&p.IsAdmin,
		&p.SubscriptionStatus,
		&p.TrialEndsAt,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// GetByID retrieves a profile by its user ID.
// Returns ErrCodeNotFoundProfile if no profile exists.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*types.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE id = $1`,
		id,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve profile", err)
	}
	return p, nil
}

// GetByEmail retrieves a profile by email address.
// Returns ErrCodeNotFoundProfile if no profile exists.
func (r *ProfileRepository) GetByEmail(ctx context.Context, email string) (*types.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE email = $1`,
		email,
	)

	p, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to retrieve profile by email", err)
	}
	return p, nil
}

// Create inserts a new profile with registration defaults: Free plan,
// non-admin, active subscription. Returns ErrCodeConflictEmail if a profile
// with the same email already exists.
func (r *ProfileRepository) Create(ctx context.Context, id, email string) (*types.UserProfile, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO user_profiles (id, email, plan, is_admin, subscription_status, created_at, updated_at)
		 VALUES ($1, $2, 'free', FALSE, 'active', NOW(), NOW())
		 RETURNING `+profileColumns,
		id,
		email,
	)

	p, err := scanProfile(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, types.NewAppError(types.ErrCodeConflictEmail, "profile already exists", err)
		}
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to create profile", err)
	}
	return p, nil
}

// ApplyPatch applies a partial update to a profile. Only the non-nil fields
// of the patch are written; updated_at is always touched.
// Returns ErrCodeNotFoundProfile if no row matches.
func (r *ProfileRepository) ApplyPatch(ctx context.Context, id string, patch types.ProfilePatch) error {
	if patch.IsZero() {
		return nil
	}

	sets := make([]string, 0, 5)
	args := make([]any, 0, 6)

	add := func(column string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	if patch.Plan != nil {
		add("plan", *patch.Plan)
	}
	if patch.IsAdmin != nil {
		add("is_admin", *patch.IsAdmin)
	}
	if patch.SubscriptionStatus != nil {
		add("subscription_status", *patch.SubscriptionStatus)
	}
	if patch.ClearTrialEndsAt {
		sets = append(sets, "trial_ends_at = NULL")
	} else if patch.TrialEndsAt != nil {
		add("trial_ends_at", *patch.TrialEndsAt)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id)
	query := fmt.Sprintf(
		`UPDATE user_profiles SET %s WHERE id = $%d`,
		strings.Join(sets, ", "),
		len(args),
	)

	tag, err := r.db.Exec(ctx, query, args...)
	if err != nil {
		return types.NewAppError(types.ErrCodeInternalDB, "failed to update profile", err)
	}
	if tag.RowsAffected() == 0 {
		return types.NewAppError(types.ErrCodeNotFoundProfile, "profile not found", nil)
	}
	return nil
}

// ListAdmins returns every profile with is_admin = TRUE, ordered by creation
// time so the primary admin (oldest) lists first.
func (r *ProfileRepository) ListAdmins(ctx context.Context) ([]*types.UserProfile, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+profileColumns+` FROM user_profiles WHERE is_admin = TRUE ORDER BY created_at ASC`,
	)
	if err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to query admins", err)
	}
	defer rows.Close()

	var admins []*types.UserProfile
	for rows.Next() {
		var p types.UserProfile
		if err := rows.Scan(
			&p.ID,
			&p.Email,
			&p.Plan,
			&p.IsAdmin,
			&p.SubscriptionStatus,
			&p.TrialEndsAt,
			&p.CreatedAt,
			&p.UpdatedAt,
		); err != nil {
			return nil, types.NewAppError(types.ErrCodeInternalDB, "failed to scan admin row", err)
		}
		admins = append(admins, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, types.NewAppError(types.ErrCodeInternalDB, "error iterating admin rows", err)
	}

	return admins, nil
}
