// Package auth is the credential adapter: registration, login and the
// read-only user projections. Password hashes never leave this package.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"mime/multipart"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/safar/delivery-admin/internal/apperr"
	"github.com/safar/delivery-admin/internal/database"
	"github.com/safar/delivery-admin/internal/models"
	"github.com/safar/delivery-admin/internal/store"
)

type UserStore interface {
	CreateUser(ctx context.Context, p store.CreateUserParams) (int64, error)
	GetCredentialsByEmail(ctx context.Context, email string) (*store.Credentials, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
}

type ImageStore interface {
	SaveProfileImage(fh *multipart.FileHeader) (string, error)
	Remove(ref string) error
}

// RegisterCandidate is the registration form minus the image file.
// Lengths follow the users table columns. Password is capped by bcrypt,
// which only accepts 72 bytes.
type RegisterCandidate struct {
	Username  string `form:"username" validate:"required,max=50"`
	Email     string `form:"email" validate:"required,max=255"`
	Password  string `form:"password" validate:"required,passwordbytes"`
	FirstName string `form:"firstName" validate:"required,max=100"`
	LastName  string `form:"lastName" validate:"required,max=100"`
	Role      string `form:"role" validate:"required"`
}

const maxPasswordBytes = 72

type Service struct {
	users    UserStore
	images   ImageStore
	hasher   Hasher
	validate *validator.Validate
	logger   *slog.Logger
}

func NewService(users UserStore, images ImageStore, hasher Hasher, logger *slog.Logger) *Service {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("passwordbytes", func(fl validator.FieldLevel) bool {
		return len(fl.Field().String()) <= maxPasswordBytes
	})

	return &Service{
		users:    users,
		images:   images,
		hasher:   hasher,
		validate: v,
		logger:   logger,
	}
}

// Register validates the candidate, stores the profile image, hashes the
// password and inserts the user. The stored image is removed again if the
// insert fails.
func (s *Service) Register(ctx context.Context, c RegisterCandidate, image *multipart.FileHeader) (int64, error) {
	c.Username = strings.TrimSpace(c.Username)
	c.Email = strings.TrimSpace(c.Email)
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Role = strings.TrimSpace(c.Role)

	if err := s.validate.Struct(c); err != nil {
		return 0, registrationError(err)
	}
	role := models.Role(c.Role)
	if role != models.RoleAdmin && role != models.RoleManager {
		return 0, apperr.Validation("Role must be admin or manager", map[string]string{"role": "must be admin or manager"})
	}
	if image == nil {
		return 0, apperr.Validation("Profile image is required", map[string]string{"profileImage": "required"})
	}

	ref, err := s.images.SaveProfileImage(image)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindValidation {
			return 0, err
		}
		return 0, apperr.Infrastructure("store profile image", err)
	}

	id, err := s.createUser(ctx, c, role, ref)
	if err != nil {
		if rmErr := s.images.Remove(ref); rmErr != nil {
			s.logger.Warn("failed to remove orphaned profile image", "ref", ref, "error", rmErr)
		}
		return 0, err
	}

	s.logger.Info("user registered", "user_id", id, "role", role)
	return id, nil
}

func (s *Service) createUser(ctx context.Context, c RegisterCandidate, role models.Role, ref string) (int64, error) {
	hash, err := s.hasher.Hash(c.Password)
	if err != nil {
		return 0, apperr.Infrastructure("hash password", err)
	}

	id, err := s.users.CreateUser(ctx, store.CreateUserParams{
		Username:     c.Username,
		Email:        c.Email,
		PasswordHash: hash,
		FirstName:    c.FirstName,
		LastName:     c.LastName,
		Role:         role,
		ProfileImage: ref,
	})
	if err != nil {
		if errors.Is(err, database.ErrDuplicateUser) {
			return 0, apperr.Conflict("Username or email already exists")
		}
		if errors.Is(err, database.ErrInvalidUser) {
			return 0, apperr.Validation("Invalid registration details", map[string]string{})
		}
		return 0, s.infrastructure("create user", err)
	}
	return id, nil
}

// Login returns apperr.ErrInvalidCredentials for both an unknown email and a
// wrong password.
func (s *Service) Login(ctx context.Context, email, password string) (*models.User, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation("Email and password are required", missing(map[string]string{
			"email":    email,
			"password": password,
		}))
	}

	creds, err := s.users.GetCredentialsByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, apperr.ErrInvalidCredentials
		}
		return nil, s.infrastructure("load credentials", err)
	}

	if !s.hasher.Check(password, creds.PasswordHash) {
		return nil, apperr.ErrInvalidCredentials
	}

	user := creds.User
	return &user, nil
}

func (s *Service) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.ListUsers(ctx)
	if err != nil {
		return nil, s.infrastructure("list users", err)
	}
	return users, nil
}

func (s *Service) GetUser(ctx context.Context, id int64) (*models.User, error) {
	user, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, database.ErrUserNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, s.infrastructure(fmt.Sprintf("get user %d", id), err)
	}
	return user, nil
}

// infrastructure wraps a store failure and flags a lost database connection.
func (s *Service) infrastructure(op string, err error) error {
	if database.IsConnectionError(err) {
		s.logger.Error("database connection lost", "op", op, "error", err)
	}
	return apperr.Infrastructure(op, err)
}

// registrationError reports missing fields first, then over-long ones.
func registrationError(err error) error {
	fields := map[string]string{}
	missingField := false
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			switch fe.Tag() {
			case "required":
				missingField = true
				fields[formName(fe.Field())] = "required"
			case "max":
				fields[formName(fe.Field())] = "must be at most " + fe.Param() + " characters"
			case "passwordbytes":
				fields[formName(fe.Field())] = fmt.Sprintf("must be at most %d bytes", maxPasswordBytes)
			default:
				fields[formName(fe.Field())] = fe.Tag()
			}
		}
	}
	if missingField {
		return apperr.Validation("All fields are required", fields)
	}
	return apperr.Validation("Registration details are too long", fields)
}

// formName maps a struct field to the multipart field name clients send.
func formName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func missing(values map[string]string) map[string]string {
	fields := map[string]string{}
	for name, v := range values {
		if v == "" {
			fields[name] = "required"
		}
	}
	return fields
}
