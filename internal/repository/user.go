// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"errors"

	"github.com/miro-4231/BackendSN/internal/models"

	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

// UserRepository defines interface for user operations
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id uint) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetInterests(ctx context.Context, userID uint) (*pgvector.Vector, error)
	SetInterests(ctx context.Context, userID uint, vec pgvector.Vector) error
}

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository creates a new UserRepository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *userRepository) GetByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) GetInterests(ctx context.Context, userID uint) (*pgvector.Vector, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Select("id", "interests").First(&user, userID).Error; err != nil {
		return nil, err
	}
	return user.Interests, nil
}

// SetInterests overwrites the stored interest vector. Interest updates are a
// best-effort signal, so last-writer-wins is acceptable here.
func (r *userRepository) SetInterests(ctx context.Context, userID uint, vec pgvector.Vector) error {
	return r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", userID).
		UpdateColumn("interests", vec).Error
}
