package handlers

import (
	"errors"
	"strconv"

	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/pagination"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// UserHandler handles user management endpoints
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

func userError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrUserNotFound):
		return response.NotFound(c, "User not found")
	case errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, "Username already exists")
	case errors.Is(err, services.ErrEmailAlreadyExists):
		return response.Conflict(c, "Email already exists")
	case errors.Is(err, services.ErrCannotChangeOwnRole),
		errors.Is(err, services.ErrCannotDeleteSelf),
		errors.Is(err, services.ErrAdministratorProtected),
		errors.Is(err, services.ErrUnknownRole),
		errors.Is(err, services.ErrUserFieldsRequired),
		errors.Is(err, services.ErrWeakPassword),
		errors.Is(err, services.ErrOldPasswordWrong):
		return response.BadRequest(c, err.Error())
	default:
		return response.InternalServerError(c, fallback)
	}
}

func userIDParam(c *fiber.Ctx) (uint, bool) {
	id, err := strconv.ParseUint(c.Params("id"), 10, 32)
	if err != nil {
		return 0, false
	}
	return uint(id), true
}

// ListUsers handles listing all users (Admin only)
// @Summary List all users
// @Description Get a paginated list of all users (Admin only)
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c *fiber.Ctx) error {
	result, err := h.userService.ListUsers(c.Context(), pagination.GetParams(c))
	if err != nil {
		return response.InternalServerError(c, "Failed to list users")
	}

	return response.Success(c, "Users retrieved successfully", result)
}

// CreateUser handles creating a user with roles (Admin only)
// @Summary Create user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.CreateUserInput true "User"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /admin/users [post]
func (h *UserHandler) CreateUser(c *fiber.Ctx) error {
	var input services.CreateUserInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.CreateUser(c.Context(), &input)
	if err != nil {
		return userError(c, err, "Failed to create user")
	}

	return response.Created(c, "User created successfully", fiber.Map{
		"user": user,
	})
}

// GetUser handles getting a user by ID (Admin only)
// @Summary Get user by ID
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *fiber.Ctx) error {
	id, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	user, err := h.userService.GetUserByID(c.Context(), id)
	if err != nil {
		return userError(c, err, "Failed to get user")
	}

	return response.Success(c, "User retrieved successfully", fiber.Map{
		"user": user,
	})
}

// UpdateUser handles updating a user's email, name, roles or status (Admin only)
// @Summary Update user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param body body services.UpdateUserByAdminInput true "Update data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [put]
func (h *UserHandler) UpdateUser(c *fiber.Ctx) error {
	id, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	var input services.UpdateUserByAdminInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateUserByAdmin(c.Context(), id, middleware.GetUserID(c), &input)
	if err != nil {
		return userError(c, err, "Failed to update user")
	}

	return response.Success(c, "User updated successfully", fiber.Map{
		"user": user,
	})
}

// DeleteUser handles deleting a user (Admin only)
// @Summary Delete user
// @Tags Users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /admin/users/{id} [delete]
func (h *UserHandler) DeleteUser(c *fiber.Ctx) error {
	id, ok := userIDParam(c)
	if !ok {
		return response.BadRequest(c, "Invalid user ID")
	}

	if err := h.userService.DeleteUser(c.Context(), id, middleware.GetUserID(c)); err != nil {
		return userError(c, err, "Failed to delete user")
	}

	return response.Success(c, "User deleted successfully", nil)
}

// GetProfile handles getting own profile
// @Summary Get own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /profile [get]
func (h *UserHandler) GetProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	user, err := h.userService.GetProfile(c.Context(), userID)
	if err != nil {
		return userError(c, err, "Failed to get profile")
	}

	return response.Success(c, "Profile retrieved successfully", fiber.Map{
		"user": user,
	})
}

// UpdateProfile handles updating own profile
// @Summary Update own profile
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.UpdateProfileInput true "Update data"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /profile [put]
func (h *UserHandler) UpdateProfile(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.UpdateProfileInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	user, err := h.userService.UpdateProfile(c.Context(), userID, &input)
	if err != nil {
		return userError(c, err, "Failed to update profile")
	}

	return response.Success(c, "Profile updated successfully", fiber.Map{
		"user": user,
	})
}

// ChangePassword handles changing password
// @Summary Change password
// @Tags Profile
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.ChangePasswordInput true "Password data"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /profile/password [put]
func (h *UserHandler) ChangePassword(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}

	var input services.ChangePasswordInput
	if err := c.BodyParser(&input); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if input.OldPassword == "" {
		return response.BadRequest(c, "Old password is required")
	}
	if input.NewPassword == "" {
		return response.BadRequest(c, "New password is required")
	}

	if err := h.userService.ChangePassword(c.Context(), userID, &input); err != nil {
		return userError(c, err, "Failed to change password")
	}

	return response.Success(c, "Password changed successfully", nil)
}
