package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpavlovic/whisper/internal/domain"
)

const userColumns = "id, email, display_name, display_name_lower, password_hash, avatar_url, bio, created_at, updated_at"

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, display_name, display_name_lower, password_hash, avatar_url, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Email, user.DisplayName, user.DisplayNameLower,
		user.PasswordHash, user.AvatarURL, user.Bio, user.CreatedAt, user.UpdatedAt,
	)
	return err
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET display_name = $1, display_name_lower = $2, avatar_url = $3, bio = $4, updated_at = $5
		WHERE id = $6`
	_, err := r.pool.Exec(ctx, query,
		user.DisplayName, user.DisplayNameLower, user.AvatarURL, user.Bio, user.UpdatedAt, user.ID,
	)
	return err
}

func (r *UserRepo) SearchByNameRange(ctx context.Context, lo, hi string, limit int) ([]domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE display_name_lower >= $1 AND display_name_lower < $2
		ORDER BY display_name_lower
		LIMIT $3`

	rows, err := r.pool.Query(ctx, query, lo, hi, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := scanUserRow(r.pool.QueryRow(ctx, query, arg), &u)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID, &u.Email, &u.DisplayName, &u.DisplayNameLower,
		&u.PasswordHash, &u.AvatarURL, &u.Bio, &u.CreatedAt, &u.UpdatedAt,
	)
}
