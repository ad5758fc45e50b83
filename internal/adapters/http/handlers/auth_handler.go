package handlers

import (
	"errors"
	"strings"
	"time"

	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Auth cookie names
const (
	cookieAccessToken  = "access_token"
	cookieRefreshToken = "refresh_token"
)

// AuthHandler serves registration, login and token rotation for staff and members
type AuthHandler struct {
	authService *services.AuthService
	cfg         *config.Config
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *services.AuthService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{authService: authService, cfg: cfg}
}

// RegisterRequest is the body of /auth/register. Email must belong to a registered member.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest is the body of /auth/login. Login is a username or an email.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// RefreshRequest lets clients without cookies send the refresh token in the body
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// authError maps an auth service error to a response. Token errors clear the cookies.
func (h *AuthHandler) authError(c *fiber.Ctx, err error, fallback string) error {
	switch {
	case errors.Is(err, services.ErrWeakPassword):
		return response.BadRequest(c, "كلمة المرور يجب أن تتكون من 8 أحرف على الأقل")
	case errors.Is(err, services.ErrNoMemberForEmail):
		return response.NotFound(c, err.Error())
	case errors.Is(err, services.ErrUserAlreadyExists):
		return response.Conflict(c, "اسم المستخدم أو البريد الإلكتروني مستعمل")
	case errors.Is(err, services.ErrInvalidCredentials):
		return response.Unauthorized(c, "اسم المستخدم أو كلمة المرور غير صحيحة")
	case errors.Is(err, services.ErrUserInactive):
		h.clearAuthCookies(c)
		return response.Forbidden(c, "الحساب غير مفعل")
	case errors.Is(err, services.ErrTokenExpired), errors.Is(err, services.ErrTokenRevoked):
		h.clearAuthCookies(c)
		return response.Unauthorized(c, "انتهت الجلسة، يرجى تسجيل الدخول من جديد")
	case errors.Is(err, services.ErrInvalidToken):
		h.clearAuthCookies(c)
		return response.Unauthorized(c, "رمز التحديث غير صالح")
	default:
		return response.InternalServerError(c, fallback)
	}
}

// Register creates a portal account for an existing member
// @Summary Register a member account
// @Description Creates a UMT Member account for the member registered with the given email
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RegisterRequest true "Registration data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 404 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /auth/register [post]
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, msgInvalidBody)
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return response.BadRequest(c, "اسم المستخدم والبريد الإلكتروني وكلمة المرور مطلوبة")
	}

	result, err := h.authService.Register(c.Context(), &services.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.authError(c, err, "تعذر إنشاء الحساب")
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Created(c, "تم إنشاء الحساب بنجاح", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
	})
}

// Login authenticates a user
// @Summary Login
// @Description Authenticate with username or email and set the token cookies
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginRequest true "Login credentials"
// @Success 200 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /auth/login [post]
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, msgInvalidBody)
	}
	req.Login = strings.TrimSpace(req.Login)
	if req.Login == "" || req.Password == "" {
		return response.BadRequest(c, "اسم المستخدم وكلمة المرور مطلوبان")
	}

	result, err := h.authService.Login(c.Context(), &services.LoginInput{
		Login:    req.Login,
		Password: req.Password,
	})
	if err != nil {
		return h.authError(c, err, "تعذر تسجيل الدخول")
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "تم تسجيل الدخول", fiber.Map{
		"access_token": result.AccessToken,
		"user":         result.User,
		"is_member":    domain.HasAnyRole(result.User.Roles, domain.RoleUMTMember),
	})
}

// refreshTokenFrom reads the refresh token from the cookie, then the body
func refreshTokenFrom(c *fiber.Ctx) string {
	if token := c.Cookies(cookieRefreshToken); token != "" {
		return token
	}
	var req RefreshRequest
	if err := c.BodyParser(&req); err == nil {
		return req.RefreshToken
	}
	return ""
}

// RefreshToken rotates the refresh token
// @Summary Refresh access token
// @Description Revokes the presented refresh token and issues a new pair
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body RefreshRequest false "Refresh token when no cookie is sent"
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/refresh [post]
func (h *AuthHandler) RefreshToken(c *fiber.Ctx) error {
	refreshToken := refreshTokenFrom(c)
	if refreshToken == "" {
		return response.Unauthorized(c, "رمز التحديث مفقود")
	}

	result, err := h.authService.RefreshToken(c.Context(), refreshToken)
	if err != nil {
		return h.authError(c, err, "تعذر تجديد الجلسة")
	}

	h.setAuthCookies(c, result.AccessToken, result.RefreshToken)
	return response.Success(c, "", fiber.Map{
		"access_token":  result.AccessToken,
		"refresh_token": result.RefreshToken,
		"user":          result.User,
	})
}

// Logout revokes the refresh token and clears the cookies
// @Summary Logout
// @Tags Auth
// @Produce json
// @Success 200 {object} response.Response
// @Router /auth/logout [post]
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if refreshToken := refreshTokenFrom(c); refreshToken != "" {
		_ = h.authService.Logout(c.Context(), refreshToken)
	}
	h.clearAuthCookies(c)
	return response.Success(c, "تم تسجيل الخروج", nil)
}

// LogoutAll revokes every refresh token of the user
// @Summary Logout from all devices
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/logout-all [post]
func (h *AuthHandler) LogoutAll(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}
	if err := h.authService.LogoutAll(c.Context(), userID); err != nil {
		return response.InternalServerError(c, "تعذر تسجيل الخروج من جميع الأجهزة")
	}
	h.clearAuthCookies(c)
	return response.Success(c, "تم تسجيل الخروج من جميع الأجهزة", nil)
}

// Me returns the signed-in user
// @Summary Current user
// @Tags Auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 401 {object} response.Response
// @Router /auth/me [get]
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	userID := middleware.GetUserID(c)
	if userID == 0 {
		return response.Unauthorized(c, "Unauthorized")
	}
	user, err := h.authService.GetUserByID(c.Context(), userID)
	if err != nil {
		return response.NotFound(c, "المستخدم غير موجود")
	}
	return response.Success(c, "", fiber.Map{"user": user.ToResponse()})
}

func (h *AuthHandler) cookie(name, value string, maxAge int) *fiber.Cookie {
	ck := &fiber.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		Secure:   h.cfg.Cookie.Secure,
		HTTPOnly: true,
		SameSite: h.cfg.Cookie.SameSite,
		Domain:   h.cfg.Cookie.Domain,
	}
	if maxAge < 0 {
		ck.Expires = time.Now().Add(-time.Hour)
	}
	return ck
}

func (h *AuthHandler) setAuthCookies(c *fiber.Ctx, accessToken, refreshToken string) {
	c.Cookie(h.cookie(cookieAccessToken, accessToken, h.cfg.JWT.AccessTokenMins*60))
	c.Cookie(h.cookie(cookieRefreshToken, refreshToken, h.cfg.JWT.RefreshTokenDays*24*60*60))
}

func (h *AuthHandler) clearAuthCookies(c *fiber.Ctx) {
	c.Cookie(h.cookie(cookieAccessToken, "", -1))
	c.Cookie(h.cookie(cookieRefreshToken, "", -1))
}
