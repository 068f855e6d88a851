package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"kycdesk/internal/auth/models"
	pgplatform "kycdesk/internal/platform/postgres"
	"kycdesk/pkg/platform/sentinel"
)

// PostgresUserStore persists users in the users table.
type PostgresUserStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresUserStore {
	return &PostgresUserStore{db: db}
}

// Create inserts the user. The role is decided in the same statement so
// concurrent first registrations cannot both become admin.
func (s *PostgresUserStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password_hash, role, created_at)
		SELECT $1, $2,
			CASE WHEN EXISTS (SELECT 1 FROM users) THEN 'USER' ELSE 'ADMIN' END,
			$3
		RETURNING id, role
	`
	var role string
	err := s.db.QueryRowContext(ctx, query, user.Username, string(user.PasswordHash), user.CreatedAt).Scan(&user.ID, &role)
	if err != nil {
		if pgplatform.IsUniqueViolation(err, "users_username_key") {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	user.Role = models.Role(role)
	return nil
}

func (s *PostgresUserStore) FindByID(ctx context.Context, id int64) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE id = $1`, id)
}

func (s *PostgresUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, `SELECT id, username, password_hash, role, created_at FROM users WHERE lower(username) = $1`,
		strings.ToLower(strings.TrimSpace(username)))
}

func (s *PostgresUserStore) findOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		u    models.User
		hash string
		role string
	)
	err := s.db.QueryRowContext(ctx, query, arg).Scan(&u.ID, &u.Username, &hash, &role, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user: %w", err)
	}
	u.PasswordHash = []byte(hash)
	u.Role = models.Role(role)
	return &u, nil
}
