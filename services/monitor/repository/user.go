package repository

import (
	"context"
	"errors"
	"fmt"
	"somplus/domain"
	"time"

	"gorm.io/gorm"
)

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) domain.UserRepo {
	return &userRepository{
		db: db,
	}
}

func (ur *userRepository) GetActiveUsers(ctx context.Context) (*[]domain.MonitorUser, error) {
	var users []domain.MonitorUser
	err := ur.db.WithContext(ctx).
		Where("enabled = ?", true).
		Order("user_id asc").
		Find(&users).Error

	if err != nil {
		return nil, fmt.Errorf("failed to retrieve active users: %w", err)
	}
	return &users, nil
}

func (ur *userRepository) GetUserByUsername(ctx context.Context, username string) (*domain.MonitorUser, error) {
	var user domain.MonitorUser
	err := ur.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no user found with username %s", username)
		}
		return nil, fmt.Errorf("error fetching user: %w", err)
	}
	return &user, nil
}

// UpdateRefreshToken persists the rotated token immediately; losing it
// means the user has to re-authenticate from scratch.
func (ur *userRepository) UpdateRefreshToken(ctx context.Context, userID int, token string) error {
	err := ur.db.WithContext(ctx).
		Model(&domain.MonitorUser{}).
		Where("user_id = ?", userID).
		Update("refresh_token", token).Error

	if err != nil {
		return fmt.Errorf("failed to update refresh token: %w", err)
	}
	return nil
}

func (ur *userRepository) TouchLastRun(ctx context.Context, userID int) error {
	now := time.Now()
	err := ur.db.WithContext(ctx).
		Model(&domain.MonitorUser{}).
		Where("user_id = ?", userID).
		Update("last_run_at", &now).Error

	if err != nil {
		return fmt.Errorf("failed to update last run timestamp: %w", err)
	}
	return nil
}
