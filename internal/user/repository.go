package user

import (
	"context"

	"note-sharing-service/internal/domain"

	"gorm.io/gorm"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	UpdateName(ctx context.Context, id string, name string) error
	UpdatePasswordHash(ctx context.Context, id string, hash string) error
	IncrementTokenVersion(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}

// UserRepositoryImpl implements UserRepository
type UserRepositoryImpl struct {
	db *gorm.DB
}

// NewRepository creates a new user repository
func NewRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{db: db}
}

// Create creates a new user
func (r *UserRepositoryImpl) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// FindByID finds a user by ID
func (r *UserRepositoryImpl) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateName changes the display name
func (r *UserRepositoryImpl) UpdateName(ctx context.Context, id string, name string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("name", name).Error
}

// UpdatePasswordHash replaces the stored credential hash
func (r *UserRepositoryImpl) UpdatePasswordHash(ctx context.Context, id string, hash string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("password_hash", hash).Error
}

// IncrementTokenVersion revokes all previously issued tokens
func (r *UserRepositoryImpl) IncrementTokenVersion(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("token_version", gorm.Expr("token_version + 1")).Error
}

// Delete removes the user and everything hanging off them: owned notes
// with their ACLs and index rows, plus ACL and index rows naming the
// user as a grantee of other people's notes. One transaction, so a
// failed delete leaves no orphans.
func (r *UserRepositoryImpl) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("owner_id = ?", id).Delete(&domain.SharedNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grantee_id = ?", id).Delete(&domain.SharedNote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&domain.AccessEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("grantee_id = ?", id).Delete(&domain.AccessEntry{}).Error; err != nil {
			return err
		}
		if err := tx.Where("owner_id = ?", id).Delete(&domain.Note{}).Error; err != nil {
			return err
		}

		result := tx.Where("id = ?", id).Delete(&domain.User{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
