package user

import (
	"context"
	"errors"
	"strings"

	"storefront/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const userColumns = `id::text, first_name, last_name, email, password_hash, role, is_verified, is_logged_in,
       COALESCE(token, ''), COALESCE(otp, ''), otp_expiry, address, city, zip_code, phone_number,
       profile_pic, profile_pic_public_id, reset_allowed_until, created_at, updated_at`

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgres returns a Repository backed by Postgres.
func NewPostgres(pool *pgxpool.Pool, logger *zap.Logger) Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &postgresRepo{pool: pool, logger: logger}
}

func (r *postgresRepo) Create(ctx context.Context, u domain.User) (*domain.User, error) {
	role := u.Role
	if role == "" {
		role = domain.RoleUser
	}
	q := `
INSERT INTO users (first_name, last_name, email, password_hash, role, is_verified, token)
VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.FirstName,
		u.LastName,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(role),
		u.IsVerified,
		u.Token,
	))
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, q, id))
}

func (r *postgresRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	q := `SELECT ` + userColumns + ` FROM users WHERE lower(email) = lower($1) LIMIT 1`
	return r.scanUser(r.pool.QueryRow(ctx, q, strings.TrimSpace(email)))
}

func (r *postgresRepo) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		u, err := r.scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (r *postgresRepo) Update(ctx context.Context, u domain.User) (*domain.User, error) {
	q := `
UPDATE users
SET first_name = $2,
    last_name = $3,
    email = $4,
    password_hash = $5,
    role = $6,
    is_verified = $7,
    is_logged_in = $8,
    token = NULLIF($9, ''),
    otp = NULLIF($10, ''),
    otp_expiry = $11,
    address = $12,
    city = $13,
    zip_code = $14,
    phone_number = $15,
    profile_pic = $16,
    profile_pic_public_id = $17,
    reset_allowed_until = $18,
    updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	return r.scanUser(r.pool.QueryRow(ctx, q,
		u.ID,
		u.FirstName,
		u.LastName,
		strings.ToLower(u.Email),
		u.PasswordHash,
		string(u.Role),
		u.IsVerified,
		u.IsLoggedIn,
		u.Token,
		u.OTP,
		u.OTPExpiry,
		u.Address,
		u.City,
		u.ZipCode,
		u.PhoneNumber,
		u.ProfilePic,
		u.ProfilePicPublicID,
		u.ResetAllowedUntil,
	))
}

func (r *postgresRepo) SetLoggedIn(ctx context.Context, id string, loggedIn bool) error {
	cmd, err := r.pool.Exec(ctx, `UPDATE users SET is_logged_in = $2, updated_at = now() WHERE id = $1`, id, loggedIn)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	var role string
	err := row.Scan(
		&u.ID,
		&u.FirstName,
		&u.LastName,
		&u.Email,
		&u.PasswordHash,
		&role,
		&u.IsVerified,
		&u.IsLoggedIn,
		&u.Token,
		&u.OTP,
		&u.OTPExpiry,
		&u.Address,
		&u.City,
		&u.ZipCode,
		&u.PhoneNumber,
		&u.ProfilePic,
		&u.ProfilePicPublicID,
		&u.ResetAllowedUntil,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return nil, domain.ErrAlreadyExists
			case "22P02":
				return nil, domain.ErrNotFound
			}
		}
		r.logger.Error("user repo: scan", zap.Error(err))
		return nil, err
	}
	u.Role = domain.Role(role)
	return &u, nil
}
