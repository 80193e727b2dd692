package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_]{3,50}$`)

// userUsecase implements domain.UserUsecase.
type userUsecase struct {
	userRepo domain.UserRepository
	logger   *slog.Logger
}

// NewUserUsecase creates a new UserUsecase instance.
func NewUserUsecase(userRepo domain.UserRepository, logger *slog.Logger) domain.UserUsecase {
	return &userUsecase{
		userRepo: userRepo,
		logger:   logger,
	}
}

// Register validates credentials and creates the account.
func (u *userUsecase) Register(ctx context.Context, username, password string) (*entity.User, error) {
	if err := validateCredentials(username, password); err != nil {
		return nil, err
	}

	passwordHash, err := hashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := u.userRepo.Create(ctx, username, passwordHash)
	if err != nil {
		return nil, err
	}

	u.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials. Lookup and password failures are
// indistinguishable to the caller.
func (u *userUsecase) Login(ctx context.Context, username, password string) (*entity.User, error) {
	user, err := u.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if domain.IsNotFound(err) {
			return nil, domain.NewUnauthorizedError("invalid username or password")
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, domain.NewUnauthorizedError("invalid username or password")
	}

	// Stamp the login asynchronously; a failure must not block the login.
	go func() {
		if err := u.userRepo.UpdateLastLogin(context.Background(), user.ID); err != nil {
			u.logger.Error("failed to update last login", "error", err, "user_id", user.ID)
		}
	}()

	u.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// GetUser returns account info by ID.
func (u *userUsecase) GetUser(ctx context.Context, userID string) (*entity.User, error) {
	return u.userRepo.GetByID(ctx, userID)
}

// validateCredentials checks username and password format.
func validateCredentials(username, password string) error {
	if !usernameRegex.MatchString(username) {
		return domain.NewInvalidInputError("username must be 3-50 characters and contain only letters, numbers, and underscores")
	}
	if len(password) < 6 {
		return domain.NewInvalidInputError("password must be at least 6 characters")
	}
	if len(password) > 72 {
		return domain.NewInvalidInputError("password too long (max 72 characters)")
	}
	return nil
}

// hashPassword hashes a password with bcrypt.
func hashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
