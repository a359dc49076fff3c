package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"maktaba-backend/internal/domain"
	"maktaba-backend/internal/repository"
)

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) repository.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.email, u.full_name, COALESCE(u.phone, ''), u.user_type, u.is_active, u.role_id, u.password_hash, u.created_at, u.updated_at,
	       r.id, r.name, r.permissions`

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, *domain.Role, error) {
	query := `SELECT ` + userColumns + `
	          FROM users u JOIN roles r ON r.id = u.role_id
	          WHERE u.id = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, *domain.Role, error) {
	query := `SELECT ` + userColumns + `
	          FROM users u JOIN roles r ON r.id = u.role_id
	          WHERE u.email = $1`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

func (r *userRepository) scanUser(row *sql.Row) (*domain.User, *domain.Role, error) {
	u := &domain.User{}
	role := &domain.Role{}
	var perms []string
	err := row.Scan(
		&u.ID, &u.Email, &u.FullName, &u.Phone, &u.UserType, &u.IsActive, &u.RoleID, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt,
		&role.ID, &role.Name, pq.Array(&perms),
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, domain.NotFound("user not found")
		}
		return nil, nil, domain.Unexpected(err, "failed to load user")
	}
	role.Permissions = make([]domain.Permission, 0, len(perms))
	for _, p := range perms {
		role.Permissions = append(role.Permissions, domain.Permission(p))
	}
	return u, role, nil
}
