package domain

import (
	"context"

	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// UserRepository is the user data access interface.
type UserRepository interface {
	// Create creates a user with a pre-hashed password.
	Create(ctx context.Context, username, passwordHash string) (*entity.User, error)

	// GetByUsername looks a user up for login.
	GetByUsername(ctx context.Context, username string) (*entity.User, error)

	// GetByID looks a user up by ID.
	GetByID(ctx context.Context, userID string) (*entity.User, error)

	// UpdateLastLogin stamps the last successful login.
	UpdateLastLogin(ctx context.Context, userID string) error
}

// UserUsecase is the account business logic interface.
type UserUsecase interface {
	// Register validates credentials and creates the account.
	Register(ctx context.Context, username, password string) (*entity.User, error)

	// Login verifies credentials and returns the account.
	Login(ctx context.Context, username, password string) (*entity.User, error)

	// GetUser returns account info by ID.
	GetUser(ctx context.Context, userID string) (*entity.User, error)
}
