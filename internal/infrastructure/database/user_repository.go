package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ekenesbek/8pilot/internal/domain"
	"github.com/ekenesbek/8pilot/internal/domain/entity"
)

// userRepository is the GORM implementation of domain.UserRepository.
type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository instance.
func NewUserRepository(db *gorm.DB) domain.UserRepository {
	return &userRepository{db: db}
}

// Create creates a user with a pre-hashed password.
func (r *userRepository) Create(ctx context.Context, username, passwordHash string) (*entity.User, error) {
	now := time.Now().UTC()
	u := userModel{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := r.db.WithContext(ctx).Create(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.NewAlreadyExistsError("user", username)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return toUserEntity(&u), nil
}

// GetByUsername finds a non-deleted user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*entity.User, error) {
	var u userModel
	err := r.db.WithContext(ctx).
		Where("username = ? AND deleted_at IS NULL", username).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("user", username)
		}
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	return toUserEntity(&u), nil
}

// GetByID finds a non-deleted user by ID.
func (r *userRepository) GetByID(ctx context.Context, userID string) (*entity.User, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, domain.NewInvalidInputError("invalid user id")
	}

	var u userModel
	err = r.db.WithContext(ctx).
		Where("id = ? AND deleted_at IS NULL", uid).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.NewNotFoundError("user", userID)
		}
		return nil, fmt.Errorf("failed to get user by id: %w", err)
	}
	return toUserEntity(&u), nil
}

// UpdateLastLogin stamps the last successful login.
func (r *userRepository) UpdateLastLogin(ctx context.Context, userID string) error {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return domain.NewInvalidInputError("invalid user id")
	}

	res := r.db.WithContext(ctx).Model(&userModel{}).
		Where("id = ?", uid).
		Update("last_login_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFoundError("user", userID)
	}
	return nil
}
