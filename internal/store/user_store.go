package store

import (
	"context"

	"github.com/jmoiron/sqlx"

	users "github.com/kitmedia/esports-platform-fc2025-sub000/internal/user"
)

type UserStore struct {
	db *sqlx.DB
}

const (
	getUserQuery    = "SELECT * FROM users WHERE id = ?"
	createUserQuery = `
		INSERT INTO users (id, username, role, status, rating) VALUES
		(:id, :username, :role, :status, :rating)
	`
	// Eligible panel pool: active, non-banned, arbiter-eligible roles,
	// highest privilege first with a stable username tie-break.
	listArbitersQuery = `
        SELECT * FROM users
        WHERE status = 'active' AND role IN ('arbiter', 'moderator', 'admin')
        ORDER BY CASE role WHEN 'admin' THEN 3 WHEN 'moderator' THEN 2 ELSE 1 END DESC, username ASC
    `
)

func NewUserStore(db *sqlx.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) GetUser(ctx context.Context, id string) (*users.User, error) {
	var user users.User
	err := s.db.GetContext(ctx, &user, getUserQuery, id)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user *users.User) error {
	_, err := s.db.NamedExecContext(ctx, createUserQuery, user)
	return err
}

// ListEligibleArbiters satisfies the identity/role provider contract consumed
// by arbiter assignment.
func (s *UserStore) ListEligibleArbiters(ctx context.Context) ([]users.User, error) {
	var pool []users.User
	err := s.db.SelectContext(ctx, &pool, listArbitersQuery)
	return pool, err
}

// Rating satisfies the rating provider contract used to snapshot a
// participant's rating at registration time.
func (s *UserStore) Rating(ctx context.Context, id string) (int, error) {
	var rating int
	err := s.db.GetContext(ctx, &rating, "SELECT rating FROM users WHERE id = ?", id)
	return rating, err
}
