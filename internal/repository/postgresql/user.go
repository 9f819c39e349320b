package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/tanahub/timeclock/internal/domain/user"
	"github.com/tanahub/timeclock/internal/pkg/database"
)

type userRepository struct {
	db *database.DB
}

func NewUserRepository(db *database.DB) user.UserRepository {
	return &userRepository{db: db}
}

const userColumns = `u.id, u.company_id, u.email, u.password_hash, u.role,
	u.created_at, u.updated_at, e.id AS employee_id`

func scanUser(row rowScanner) (user.User, error) {
	var usr user.User
	err := row.Scan(
		&usr.ID, &usr.CompanyID, &usr.Email, &usr.PasswordHash, &usr.Role,
		&usr.CreatedAt, &usr.UpdatedAt, &usr.EmployeeID,
	)
	return usr, err
}

// GetByID implements user.UserRepository.
func (r *userRepository) GetByID(ctx context.Context, id string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN employees e ON e.user_id = u.id
		WHERE u.id = $1
	`

	usr, err := scanUser(q.QueryRow(ctx, query, id))
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user: %w", err)
	}

	return usr, nil
}

// GetByEmail implements user.UserRepository.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (user.User, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT ` + userColumns + `
		FROM users u
		LEFT JOIN employees e ON e.user_id = u.id
		WHERE LOWER(u.email) = LOWER($1)
	`

	usr, err := scanUser(q.QueryRow(ctx, query, email))
	if err != nil {
		if err == pgx.ErrNoRows {
			return user.User{}, user.ErrUserNotFound
		}
		return user.User{}, fmt.Errorf("failed to get user by email: %w", err)
	}

	return usr, nil
}
