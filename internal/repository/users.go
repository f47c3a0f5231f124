package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"tracknow/internal/domain"
)

// UserRepo reads user accounts.
type UserRepo struct{ db *pgxpool.Pool }

// NewUserRepo creates a new UserRepo.
func NewUserRepo(db *pgxpool.Pool) *UserRepo { return &UserRepo{db: db} }

// Get returns the user by id, or nil when it does not exist.
func (r *UserRepo) Get(ctx context.Context, id int64) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, name, email, role, push_token FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Name, &u.Email, &role, &u.PushToken)
	if err != nil {
		if IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	u.Role = domain.Role(role)
	return &u, nil
}

// ListAdmins returns every admin account.
func (r *UserRepo) ListAdmins(ctx context.Context) ([]domain.User, error) {
	rows, err := r.db.Query(ctx,
		`SELECT id, name, email, role, push_token FROM users WHERE role = $1 ORDER BY id`, string(domain.RoleAdmin))
	if err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	defer rows.Close()

	var out []domain.User
	for rows.Next() {
		var (
			u    domain.User
			role string
		)
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &role, &u.PushToken); err != nil {
			return nil, err
		}
		u.Role = domain.Role(role)
		out = append(out, u)
	}
	return out, rows.Err()
}
