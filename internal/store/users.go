package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type User struct {
	ID       string
	Username string
}

// UserStore resolves API tokens to users. Authentication itself (token
// issuance, sessions) lives outside this service.
type UserStore interface {
	GetByToken(ctx context.Context, token string) (*User, error)
}

type userStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) UserStore {
	return &userStore{pool: pool}
}

func (s *userStore) GetByToken(ctx context.Context, token string) (*User, error) {
	var user User
	err := s.pool.QueryRow(ctx,
		`SELECT id, username FROM users WHERE api_token = $1 AND is_active`,
		token,
	).Scan(&user.ID, &user.Username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("resolving token: %w", err)
	}
	return &user, nil
}
