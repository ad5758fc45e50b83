package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/pagination"
	"unem-umt/internal/pkg/password"
)

// User service errors
var (
	ErrEmailAlreadyExists     = errors.New("email already exists")
	ErrOldPasswordWrong       = errors.New("old password is incorrect")
	ErrCannotDeleteSelf       = errors.New("cannot delete your own account")
	ErrCannotChangeOwnRole    = errors.New("cannot change your own roles")
	ErrUnknownRole            = errors.New("unknown role")
	ErrUserFieldsRequired     = errors.New("username, email and password are required")
	ErrAdministratorProtected = errors.New("the last Administrator cannot lose the role")
)

// UserService handles user management business logic
type UserService struct {
	store *repositories.Store
}

// NewUserService creates a new user service
func NewUserService(store *repositories.Store) *UserService {
	return &UserService{store: store}
}

// ListUsersOutput represents list users output
type ListUsersOutput struct {
	Users      []*models.UserResponse `json:"users"`
	Pagination *pagination.Meta       `json:"pagination"`
}

// CreateUserInput represents create user input (admin and CLI)
type CreateUserInput struct {
	Username string   `json:"username"`
	Email    string   `json:"email"`
	FullName string   `json:"full_name"`
	Password string   `json:"password"`
	Roles    []string `json:"roles"`
}

// UpdateUserByAdminInput represents update user input (for admin)
type UpdateUserByAdminInput struct {
	Email    *string  `json:"email"`
	FullName *string  `json:"full_name"`
	Roles    []string `json:"roles"`
	IsActive *bool    `json:"is_active"`
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email    *string `json:"email"`
	FullName *string `json:"full_name"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, params *pagination.Params) (*ListUsersOutput, error) {
	users, total, err := s.store.Users.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}

	out := make([]*models.UserResponse, len(users))
	for i, user := range users {
		out[i] = user.ToResponse()
	}
	return &ListUsersOutput{Users: out, Pagination: pagination.GetMeta(params, total)}, nil
}

// CreateUser creates an active user with the given roles
func (s *UserService) CreateUser(ctx context.Context, input *CreateUserInput) (*models.UserResponse, error) {
	email := strings.TrimSpace(strings.ToLower(input.Email))
	if input.Username == "" || email == "" || input.Password == "" {
		return nil, ErrUserFieldsRequired
	}
	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}
	if err := s.checkRoles(ctx, input.Roles); err != nil {
		return nil, err
	}

	exists, err := s.store.Users.ExistsByUsername(ctx, input.Username)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrUserAlreadyExists
	}
	if exists, err = s.store.Users.ExistsByEmail(ctx, email); err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailAlreadyExists
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: input.Username,
		Email:    email,
		FullName: input.FullName,
		Password: hashed,
		IsActive: true,
	}
	for _, r := range input.Roles {
		user.Roles = append(user.Roles, models.UserRole{Role: r})
	}
	if err := s.store.Users.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ User created: %s %v", user.Username, input.Roles)
	return user.ToResponse(), nil
}

// checkRoles refuses role names missing from the role table
func (s *UserService) checkRoles(ctx context.Context, roles []string) error {
	for _, r := range roles {
		if _, err := s.store.Roles.GetByName(ctx, r); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return ErrUnknownRole
			}
			return err
		}
	}
	return nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// UpdateUserByAdmin updates a user by admin
func (s *UserService) UpdateUserByAdmin(ctx context.Context, id uint, adminID uint, input *UpdateUserByAdminInput) (*models.UserResponse, error) {
	user, err := s.store.Users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Prevent admin from changing own roles
	if id == adminID && input.Roles != nil {
		return nil, ErrCannotChangeOwnRole
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.store.Users.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}
	if input.IsActive != nil {
		user.IsActive = *input.IsActive
	}
	if input.Roles != nil {
		if err := s.checkRoles(ctx, input.Roles); err != nil {
			return nil, err
		}
	}

	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Users.Update(ctx, user); err != nil {
			return err
		}
		if input.Roles == nil {
			return nil
		}
		if err := s.keepLastAdministrator(ctx, tx, user, input.Roles); err != nil {
			return err
		}
		return tx.Users.SetRoles(ctx, user.ID, input.Roles)
	})
	if err != nil {
		return nil, err
	}

	return s.GetUserByID(ctx, id)
}

// keepLastAdministrator refuses to strip the only Administrator
func (s *UserService) keepLastAdministrator(ctx context.Context, tx *repositories.Store, user *models.User, roles []string) error {
	if !hasRole(user.RoleNames(), domain.RoleAdministrator) || hasRole(roles, domain.RoleAdministrator) {
		return nil
	}
	count, err := tx.Users.CountByRole(ctx, domain.RoleAdministrator)
	if err != nil {
		return err
	}
	if count <= 1 {
		return ErrAdministratorProtected
	}
	return nil
}

// DeleteUser deletes a user (soft delete)
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	if _, err := s.store.Users.GetByID(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.store.Users.Delete(ctx, id)
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFound
	}

	if input.Email != nil && *input.Email != user.Email {
		exists, err := s.store.Users.ExistsByEmail(ctx, *input.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			return nil, ErrEmailAlreadyExists
		}
		user.Email = *input.Email
	}
	if input.FullName != nil {
		user.FullName = *input.FullName
	}

	if err := s.store.Users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.store.Users.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFound
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}
	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	user.Password = hashed
	return s.store.Users.Update(ctx, user)
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}
