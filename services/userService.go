package services

import (
	"context"
	"strings"

	"github.com/Kariqs/eden-store-api/models"
	"github.com/Kariqs/eden-store-api/repositories"
	"github.com/google/uuid"
)

type RegisterInput struct {
	Email     string          `json:"email" validate:"omitempty,email"`
	Phone     string          `json:"phone" validate:"max=50"`
	Password  string          `json:"password" validate:"required,min=8"`
	FirstName string          `json:"firstName" validate:"max=100"`
	LastName  string          `json:"lastName" validate:"max=100"`
	Role      models.UserRole `json:"role"`
}

type UserService struct {
	store *repositories.Store
	deps
}

func NewUserService(store *repositories.Store, opts ...Option) *UserService {
	return &UserService{store: store, deps: newDeps(opts)}
}

// Register creates an account. Email and phone are unique across users.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	const op = "UserService.Register"
	if err := models.ValidateStruct(op, in); err != nil {
		return nil, err
	}
	user, err := models.NewUser(in.Email, in.Phone, in.Role)
	if err != nil {
		return nil, err
	}
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	if err := user.SetPassword(in.Password); err != nil {
		return nil, err
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User registered", map[string]interface{}{
		"user_id": user.ID.String(),
		"role":    user.Role.String(),
	})
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.Users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("UserService.Get", "user", id.String())
	}
	return user, nil
}

// Deactivate disables an account. Past orders and reviews are kept.
func (s *UserService) Deactivate(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return user, nil
	}
	user.Deactivate()
	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info("User deactivated", map[string]interface{}{"user_id": id.String()})
	return user, nil
}
