package user

import (
	"context"
	defError "errors"

	"note-sharing-service/internal/domain"
	"note-sharing-service/internal/errors"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Service defines the interface for user business logic
type Service interface {
	Register(ctx context.Context, user *domain.User) error
	Login(ctx context.Context, id, password string) (*domain.User, error)
	GetUserByID(ctx context.Context, id string) (*domain.User, error)
	ChangeName(ctx context.Context, id string, name string) error
	ChangePassword(ctx context.Context, id string, current, next string) error
	IncreaseTokenVersion(ctx context.Context, id string) error
	DeleteAccount(ctx context.Context, id string) error
}

// DefaultService implements Service
type DefaultService struct {
	repository UserRepository
}

// NewService creates a new user service
func NewService(repository UserRepository) Service {
	return &DefaultService{repository: repository}
}

// Register registers a new user
func (s *DefaultService) Register(ctx context.Context, user *domain.User) error {
	if !domain.ValidUserID(user.ID) {
		return errors.UnprocessableEntity("Invalid user id", nil)
	}
	if !domain.ValidPassword(user.Password) {
		return errors.UnprocessableEntity("Invalid password", nil)
	}

	// Check if the id is already taken
	_, err := s.repository.FindByID(ctx, user.ID)
	if err != nil && !defError.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if err == nil {
		return errors.UnprocessableEntity("User already registered", nil)
	}

	// Hash the password before saving
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(user.Password), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	user.PasswordHash = string(hashedPassword)

	return s.repository.Create(ctx, user)
}

// Login authenticates a user
func (s *DefaultService) Login(ctx context.Context, id, password string) (*domain.User, error) {
	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return nil, errors.Unauthorized("Wrong id or password", err)
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password))
	if err != nil {
		// same message as unknown id, no account enumeration
		return nil, errors.Unauthorized("Wrong id or password", err)
	}

	return user, nil
}

// GetUserByID gets a user by ID
func (s *DefaultService) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	return s.repository.FindByID(ctx, id)
}

// ChangeName updates the display name
func (s *DefaultService) ChangeName(ctx context.Context, id string, name string) error {
	if name == "" {
		return errors.UnprocessableEntity("Name can't be empty", nil)
	}
	return s.repository.UpdateName(ctx, id, name)
}

// ChangePassword verifies the current password before replacing it
func (s *DefaultService) ChangePassword(ctx context.Context, id string, current, next string) error {
	if !domain.ValidPassword(next) {
		return errors.UnprocessableEntity("Invalid password", nil)
	}

	user, err := s.repository.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return errors.Unauthorized("Wrong password", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return errors.UnprocessableEntity("Can't hash password", err)
	}
	return s.repository.UpdatePasswordHash(ctx, id, string(hashed))
}

// IncreaseTokenVersion revokes every outstanding token for the user
func (s *DefaultService) IncreaseTokenVersion(ctx context.Context, id string) error {
	return s.repository.IncrementTokenVersion(ctx, id)
}

// DeleteAccount removes the user and cascades to owned notes and ACLs
func (s *DefaultService) DeleteAccount(ctx context.Context, id string) error {
	err := s.repository.Delete(ctx, id)
	if defError.Is(err, gorm.ErrRecordNotFound) {
		return errors.NotFound("User not found", err)
	}
	return err
}
