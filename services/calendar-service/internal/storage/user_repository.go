package storage

import (
	"context"

	"github.com/agusroldan/turnospro/libs/db"
	"github.com/agusroldan/turnospro/services/calendar-service/internal/model"
)

// UserRepository maintains the local projection of auth-service accounts.
type UserRepository struct {
	pool *db.Pool
}

func NewUserRepository(pool *db.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Upsert(ctx context.Context, u model.User) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO users (id, email, full_name, user_type)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			full_name = EXCLUDED.full_name,
			user_type = EXCLUDED.user_type
	`, u.ID, u.Email, u.FullName, u.UserType)
	return err
}

func (r *UserRepository) Get(ctx context.Context, id string) (model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx, `
		SELECT id, email, full_name, user_type, created_at
		FROM users
		WHERE id = $1
	`, id).Scan(&u.ID, &u.Email, &u.FullName, &u.UserType, &u.CreatedAt)
	return u, err
}
