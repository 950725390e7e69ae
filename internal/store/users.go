package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/delivery-admin/internal/database"
	"github.com/safar/delivery-admin/internal/models"
)

type CreateUserParams struct {
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Role         models.Role
	ProfileImage string
}

// Credentials pairs a user with its stored hash. It is only handed to the
// auth package for password verification.
type Credentials struct {
	User         models.User
	PasswordHash string
}

const userColumns = `id, username, email, first_name, last_name, role, profile_image, created_at`

func CreateUser(ctx context.Context, db *sql.DB, p CreateUserParams) (int64, error) {
	var id int64

	err := database.WithTransaction(ctx, db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		var exists bool
		err := tx.QueryRowContext(ctx,
			"SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 OR email = $2)",
			p.Username, p.Email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check user exists: %w", err)
		}
		if exists {
			return database.ErrDuplicateUser
		}

		err = tx.QueryRowContext(ctx,
			`INSERT INTO users (username, email, password, first_name, last_name, role, profile_image, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
			 RETURNING id`,
			p.Username, p.Email, p.PasswordHash, p.FirstName, p.LastName, string(p.Role), p.ProfileImage,
		).Scan(&id)
		if err != nil {
			// A concurrent registration can slip past the existence check.
			switch database.ClassifyError(err) {
			case database.ErrorClassUniqueViolation:
				return database.ErrDuplicateUser
			case database.ErrorClassConstraint:
				return fmt.Errorf("insert user: %w: %w", database.ErrInvalidUser, err)
			}
			return fmt.Errorf("insert user: %w", err)
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	return id, nil
}

func GetCredentialsByEmail(ctx context.Context, db *sql.DB, email string) (*Credentials, error) {
	creds := &Credentials{}

	query := `SELECT ` + userColumns + `, password FROM users WHERE email = $1`

	err := db.QueryRowContext(ctx, query, email).Scan(
		&creds.User.ID,
		&creds.User.Username,
		&creds.User.Email,
		&creds.User.FirstName,
		&creds.User.LastName,
		&creds.User.Role,
		&creds.User.ProfileImage,
		&creds.User.CreatedAt,
		&creds.PasswordHash,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get credentials: %w", err)
	}

	return creds, nil
}

func GetUser(ctx context.Context, db *sql.DB, id int64) (*models.User, error) {
	user := &models.User{}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	err := db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&user.ProfileImage,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	return user, nil
}

func ListUsers(ctx context.Context, db *sql.DB) ([]models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := []models.User{}
	for rows.Next() {
		var user models.User
		err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.Email,
			&user.FirstName,
			&user.LastName,
			&user.Role,
			&user.ProfileImage,
			&user.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return users, nil
}

// Users binds the query functions to a connection pool.
type Users struct {
	DB *sql.DB
}

func (u Users) CreateUser(ctx context.Context, p CreateUserParams) (int64, error) {
	return CreateUser(ctx, u.DB, p)
}

func (u Users) GetCredentialsByEmail(ctx context.Context, email string) (*Credentials, error) {
	return GetCredentialsByEmail(ctx, u.DB, email)
}

func (u Users) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return GetUser(ctx, u.DB, id)
}

func (u Users) ListUsers(ctx context.Context) ([]models.User, error) {
	return ListUsers(ctx, u.DB)
}
