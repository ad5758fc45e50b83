package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/jwt"
	"unem-umt/internal/pkg/password"

	"github.com/google/uuid"
)

// Auth errors
var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserAlreadyExists  = errors.New("user already exists")
	ErrNoMemberForEmail   = errors.New("لا يوجد عضو مسجل بهذا البريد الإلكتروني")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrUserInactive       = errors.New("user account is inactive")
)

// AuthService registers member accounts and issues JWT sessions
type AuthService struct {
	userRepo         repositories.UserRepository
	refreshTokenRepo repositories.RefreshTokenRepository
	memberRepo       *repositories.MemberRepository
	cfg              *config.Config
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo repositories.UserRepository,
	refreshTokenRepo repositories.RefreshTokenRepository,
	memberRepo *repositories.MemberRepository,
	cfg *config.Config,
) *AuthService {
	return &AuthService{
		userRepo:         userRepo,
		refreshTokenRepo: refreshTokenRepo,
		memberRepo:       memberRepo,
		cfg:              cfg,
	}
}

// RegisterInput is a member's self-registration
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginInput represents login input. Login accepts a username or an email.
type LoginInput struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// AuthResponse is a signed-in user with a fresh token pair
type AuthResponse struct {
	User         *models.UserResponse `json:"user"`
	AccessToken  string               `json:"access_token"`
	RefreshToken string               `json:"refresh_token"`
}

// Register creates a portal account for the member registered with
// input.Email. The account gets the UMT Member role.
func (s *AuthService) Register(ctx context.Context, input *RegisterInput) (*AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	username := strings.TrimSpace(input.Username)

	member, err := s.memberRepo.GetByEmail(ctx, email)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrNoMemberForEmail
	}
	if err != nil {
		return nil, err
	}

	if taken, err := s.accountTaken(ctx, username, email); err != nil {
		return nil, err
	} else if taken {
		return nil, ErrUserAlreadyExists
	}

	if !password.ValidatePassword(input.Password) {
		return nil, ErrWeakPassword
	}
	hashed, err := password.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Username: username,
		Email:    email,
		FullName: member.FullName,
		Password: hashed,
		IsActive: true,
		Roles:    []models.UserRole{{Role: domain.RoleUMTMember}},
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	log.Printf("✅ Member account registered: %s (member %d)", user.Username, member.ID)
	return s.issue(ctx, user)
}

// accountTaken reports whether the username or the email already has an account
func (s *AuthService) accountTaken(ctx context.Context, username, email string) (bool, error) {
	exists, err := s.userRepo.ExistsByUsername(ctx, username)
	if err != nil || exists {
		return exists, err
	}
	return s.userRepo.ExistsByEmail(ctx, email)
}

// Login authenticates a staff user or a member by username or email
func (s *AuthService) Login(ctx context.Context, input *LoginInput) (*AuthResponse, error) {
	user, err := s.userRepo.GetByLogin(ctx, input.Login)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if !password.Verify(input.Password, user.Password) {
		return nil, ErrInvalidCredentials
	}

	log.Printf("🔐 Login: %s", user.Username)
	return s.issue(ctx, user)
}

// RefreshToken rotates a refresh token. Presenting a token that was already
// rotated or logged out revokes every session of its user.
func (s *AuthService) RefreshToken(ctx context.Context, refreshToken string) (*AuthResponse, error) {
	claims, err := jwt.ValidateRefreshToken(refreshToken, s.cfg.JWT.RefreshSecret)
	if errors.Is(err, jwt.ErrTokenExpired) {
		return nil, ErrTokenExpired
	}
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.refreshTokenRepo.GetByTokenHash(ctx, password.HashToken(refreshToken))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}
	if stored.IsRevoked() {
		log.Printf("⚠️ Reused refresh token for user ID %d, revoking all sessions", stored.UserID)
		if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, stored.UserID); err != nil {
			return nil, err
		}
		return nil, ErrTokenRevoked
	}
	if stored.IsExpired() {
		return nil, ErrTokenExpired
	}

	// roles are reloaded so role changes reach the next access token
	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, ErrUserNotFound
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	if err := s.refreshTokenRepo.Revoke(ctx, stored.ID); err != nil {
		return nil, err
	}
	return s.issue(ctx, user)
}

// Logout revokes one refresh token
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	return s.refreshTokenRepo.RevokeByTokenHash(ctx, password.HashToken(refreshToken))
}

// LogoutAll revokes every refresh token of a user
func (s *AuthService) LogoutAll(ctx context.Context, userID uint) error {
	if err := s.refreshTokenRepo.RevokeAllByUserID(ctx, userID); err != nil {
		return err
	}
	log.Printf("🔐 All sessions revoked for user ID %d", userID)
	return nil
}

// ValidateAccessToken validates an access token
func (s *AuthService) ValidateAccessToken(accessToken string) (*jwt.Claims, error) {
	return jwt.ValidateAccessToken(accessToken, s.cfg.JWT.Secret)
}

// GetUserByID gets a user by ID
func (s *AuthService) GetUserByID(ctx context.Context, userID uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// issue signs a token pair for user and stores the refresh token digest
func (s *AuthService) issue(ctx context.Context, user *models.User) (*AuthResponse, error) {
	access, err := jwt.GenerateAccessToken(user.ID, user.Username, user.Email, user.RoleNames(),
		s.cfg.JWT.Secret, s.cfg.JWT.AccessTokenMins)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateRefreshToken(user.ID, uuid.NewString(),
		s.cfg.JWT.RefreshSecret, s.cfg.JWT.RefreshTokenDays)
	if err != nil {
		return nil, err
	}

	if err := s.refreshTokenRepo.Create(ctx, &models.RefreshToken{
		UserID:    user.ID,
		TokenHash: password.HashToken(refresh),
		ExpiresAt: jwt.GetExpiryTime(s.cfg.JWT.RefreshTokenDays),
	}); err != nil {
		return nil, err
	}

	return &AuthResponse{User: user.ToResponse(), AccessToken: access, RefreshToken: refresh}, nil
}
