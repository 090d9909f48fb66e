package service

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/model"
)

type UserService struct {
	db *sql.DB
}

func NewUserService(db *sql.DB) *UserService {
	return &UserService{db: db}
}

type UserUpdateInput struct {
	Name     string
	Email    string
	Password string
	Role     model.Role
}

func (s *UserService) Update(ctx context.Context, userID int64, in UserUpdateInput) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `UPDATE users SET name = $1, email = $2, password_hash = $3, role = $4 WHERE id = $5`
	res, err := s.db.ExecContext(ctx, query, in.Name, in.Email, string(hash), in.Role, userID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrNotFound
	}

	return &model.User{ID: userID, Name: in.Name, Email: in.Email, PasswordHash: string(hash), Role: in.Role}, nil
}

func (s *UserService) Delete(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, userID)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserService) List(ctx context.Context) ([]model.User, error) {
	return s.queryUsers(ctx, `SELECT id, name, email, role FROM users ORDER BY id`)
}

func (s *UserService) SearchByName(ctx context.Context, query string) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, name, email, role FROM users WHERE name ILIKE '%' || $1 || '%' ORDER BY id`, query)
}

// userSortColumns whitelists sortable fields; the field name is interpolated
// into the statement and must never come straight from the request.
var userSortColumns = map[string]string{
	"id":    "id",
	"name":  "name",
	"email": "email",
	"role":  "role",
}

func (s *UserService) SortBy(ctx context.Context, field string) ([]model.User, error) {
	column, ok := userSortColumns[field]
	if !ok {
		return nil, fmt.Errorf("unsortable field %q", field)
	}
	return s.queryUsers(ctx, fmt.Sprintf(`SELECT id, name, email, role FROM users ORDER BY %s`, column))
}

func (s *UserService) FilterByRole(ctx context.Context, role model.Role) ([]model.User, error) {
	return s.queryUsers(ctx,
		`SELECT id, name, email, role FROM users WHERE role = $1 ORDER BY id`, role)
}

func (s *UserService) queryUsers(ctx context.Context, query string, args ...any) ([]model.User, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration failed: %w", err)
	}

	return users, nil
}
