package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/studio-booking/internal/domain"
)

// UserRepository defines persistence access for accounts.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	// Update writes the user if its version is unchanged and bumps the version.
	Update(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	Delete(ctx context.Context, id string) error
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const userColumns = `id, name, email, password_hash, is_verified, temp_email,
        otp_code, otp_purpose, otp_expires_at, otp_attempts,
        refresh_token_hash, refresh_token_expires_at,
        reset_password_token, reset_password_expires,
        failed_login_attempts, account_locked, account_locked_until, last_login,
        version, created_at, updated_at`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (name, email, password_hash, is_verified, temp_email,
            otp_code, otp_purpose, otp_expires_at, otp_attempts)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, version, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.TempEmail,
		user.OTPCode,
		user.OTPPurpose,
		user.OTPExpiresAt,
		user.OTPAttempts,
	).Scan(&user.ID, &user.Version, &user.CreatedAt, &user.UpdatedAt)
	if isUniqueViolation(err) {
		return ErrDuplicateEmail
	}
	return err
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	const query = `
        UPDATE users SET name=$1, email=$2, password_hash=$3, is_verified=$4, temp_email=$5,
            otp_code=$6, otp_purpose=$7, otp_expires_at=$8, otp_attempts=$9,
            refresh_token_hash=$10, refresh_token_expires_at=$11,
            reset_password_token=$12, reset_password_expires=$13,
            failed_login_attempts=$14, account_locked=$15, account_locked_until=$16, last_login=$17,
            version=version+1, updated_at=NOW()
        WHERE id=$18 AND version=$19
        RETURNING version, updated_at`

	err := r.pool.QueryRow(ctx, query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.IsVerified,
		user.TempEmail,
		user.OTPCode,
		user.OTPPurpose,
		user.OTPExpiresAt,
		user.OTPAttempts,
		user.RefreshTokenHash,
		user.RefreshTokenExpiresAt,
		user.ResetPasswordToken,
		user.ResetPasswordExpires,
		user.FailedLoginAttempts,
		user.AccountLocked,
		user.AccountLockedUntil,
		user.LastLogin,
		user.ID,
		user.Version,
	).Scan(&user.Version, &user.UpdatedAt)
	switch {
	case err == nil:
		return nil
	case isUniqueViolation(err):
		return ErrDuplicateEmail
	case errors.Is(err, pgx.ErrNoRows):
		if _, getErr := r.GetByID(ctx, user.ID); getErr != nil {
			return getErr
		}
		return ErrStaleVersion
	default:
		return err
	}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id=$1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE lower(email)=lower($1)`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

func (r *userRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []domain.User{}
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id=$1`, id)
	if err != nil {
		return mapNoRows(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var user domain.User
	if err := row.Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.IsVerified,
		&user.TempEmail,
		&user.OTPCode,
		&user.OTPPurpose,
		&user.OTPExpiresAt,
		&user.OTPAttempts,
		&user.RefreshTokenHash,
		&user.RefreshTokenExpiresAt,
		&user.ResetPasswordToken,
		&user.ResetPasswordExpires,
		&user.FailedLoginAttempts,
		&user.AccountLocked,
		&user.AccountLockedUntil,
		&user.LastLogin,
		&user.Version,
		&user.CreatedAt,
		&user.UpdatedAt,
	); err != nil {
		return nil, mapNoRows(err)
	}
	return &user, nil
}
