package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"storefront/internal/model"
)

type AuthService struct {
	db *sql.DB
}

func NewAuthService(db *sql.DB) *AuthService {
	return &AuthService{db: db}
}

func (s *AuthService) Register(ctx context.Context, name, email, password string, role model.Role) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	query := `INSERT INTO users (name, email, password_hash, role) VALUES ($1, $2, $3, $4) RETURNING id`
	row := s.db.QueryRowContext(ctx, query, name, email, string(hash), role)

	user := model.User{Name: name, Email: email, PasswordHash: string(hash), Role: role}
	if err := row.Scan(&user.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	return &user, nil
}

func (s *AuthService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	query := `SELECT id, name, email, password_hash, role FROM users WHERE email = $1`
	row := s.db.QueryRowContext(ctx, query, email)

	var user model.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return &user, nil
}

// FindByID re-resolves a token subject against the users table. A verified
// token is not proof the subject still exists.
func (s *AuthService) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, name, email, password_hash, role FROM users WHERE id = $1`
	row := s.db.QueryRowContext(ctx, query, id)

	var user model.User
	if err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Role); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return &user, nil
}
