package services

import (
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/pagination"
)

func (s *ServiceSuite) TestRegisterAndLogin() {
	s.newMember("أحمد العلمي", "ahmed@example.ma")

	s.Run("email without a member is refused", func() {
		_, err := s.svc.Auth.Register(s.ctx, &RegisterInput{Username: "ghost", Email: "ghost@example.ma", Password: "Secret123"})
		s.ErrorIs(err, ErrNoMemberForEmail)
	})

	s.Run("short password is refused", func() {
		_, err := s.svc.Auth.Register(s.ctx, &RegisterInput{Username: "ahmed", Email: "ahmed@example.ma", Password: "short"})
		s.ErrorIs(err, ErrWeakPassword)
	})

	var refresh string
	s.Run("member registers with the UMT Member role", func() {
		resp, err := s.svc.Auth.Register(s.ctx, &RegisterInput{Username: "ahmed", Email: " Ahmed@Example.ma ", Password: "Secret123"})
		s.Require().NoError(err)
		s.Equal("أحمد العلمي", resp.User.FullName)
		s.Equal([]string{domain.RoleUMTMember}, resp.User.Roles)
		s.NotEmpty(resp.AccessToken)

		claims, err := s.svc.Auth.ValidateAccessToken(resp.AccessToken)
		s.Require().NoError(err)
		s.Equal("ahmed@example.ma", claims.Email)
		refresh = resp.RefreshToken
	})

	s.Run("second registration is refused", func() {
		_, err := s.svc.Auth.Register(s.ctx, &RegisterInput{Username: "ahmed2", Email: "ahmed@example.ma", Password: "Secret123"})
		s.ErrorIs(err, ErrUserAlreadyExists)
	})

	s.Run("login by username or email", func() {
		_, err := s.svc.Auth.Login(s.ctx, &LoginInput{Login: "ahmed", Password: "Secret123"})
		s.Require().NoError(err)
		_, err = s.svc.Auth.Login(s.ctx, &LoginInput{Login: "ahmed@example.ma", Password: "Secret123"})
		s.Require().NoError(err)
		_, err = s.svc.Auth.Login(s.ctx, &LoginInput{Login: "ahmed", Password: "wrong-password"})
		s.ErrorIs(err, ErrInvalidCredentials)
	})

	s.Run("refresh rotates the token", func() {
		resp, err := s.svc.Auth.RefreshToken(s.ctx, refresh)
		s.Require().NoError(err)
		s.NotEqual(refresh, resp.RefreshToken)

		_, err = s.svc.Auth.RefreshToken(s.ctx, refresh)
		s.ErrorIs(err, ErrTokenRevoked)
	})

	s.Run("reused token revokes every session", func() {
		resp, err := s.svc.Auth.Login(s.ctx, &LoginInput{Login: "ahmed", Password: "Secret123"})
		s.Require().NoError(err)
		rotated, err := s.svc.Auth.RefreshToken(s.ctx, resp.RefreshToken)
		s.Require().NoError(err)

		_, err = s.svc.Auth.RefreshToken(s.ctx, resp.RefreshToken)
		s.ErrorIs(err, ErrTokenRevoked)
		_, err = s.svc.Auth.RefreshToken(s.ctx, rotated.RefreshToken)
		s.ErrorIs(err, ErrTokenRevoked)
	})

	s.Run("logout revokes the token", func() {
		resp, err := s.svc.Auth.Login(s.ctx, &LoginInput{Login: "ahmed", Password: "Secret123"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Auth.Logout(s.ctx, resp.RefreshToken))
		_, err = s.svc.Auth.RefreshToken(s.ctx, resp.RefreshToken)
		s.ErrorIs(err, ErrTokenRevoked)
	})

	s.Run("garbage refresh token", func() {
		_, err := s.svc.Auth.RefreshToken(s.ctx, "not-a-token")
		s.ErrorIs(err, ErrInvalidToken)
	})
}

func (s *ServiceSuite) TestUserManagement() {
	admin := s.newUser("admin", "admin@umt.ma", domain.RoleAdministrator)
	clerk := s.newUser("clerk", "clerk@umt.ma", domain.RoleFinanceUser)

	s.Run("unknown role is refused", func() {
		_, err := s.svc.User.CreateUser(s.ctx, &CreateUserInput{
			Username: "x", Email: "x@umt.ma", Password: "Secret123", Roles: []string{"Wizard"},
		})
		s.ErrorIs(err, ErrUnknownRole)
	})

	s.Run("duplicate email is refused", func() {
		_, err := s.svc.User.CreateUser(s.ctx, &CreateUserInput{Username: "clerk2", Email: "CLERK@umt.ma", Password: "Secret123"})
		s.ErrorIs(err, ErrEmailAlreadyExists)
	})

	s.Run("list pages users", func() {
		out, err := s.svc.User.ListUsers(s.ctx, &pagination.Params{Page: 1, Limit: 1, Offset: 0})
		s.Require().NoError(err)
		s.Len(out.Users, 1)
		s.Equal(int64(2), out.Pagination.Total)
	})

	s.Run("admin changes roles of another user", func() {
		s.Require().NoError(s.svc.Store.Roles.EnsureRole(s.ctx, domain.RoleFinanceManager, ""))
		updated, err := s.svc.User.UpdateUserByAdmin(s.ctx, clerk.ID, admin.ID, &UpdateUserByAdminInput{
			Roles: []string{domain.RoleFinanceManager},
		})
		s.Require().NoError(err)
		s.Equal([]string{domain.RoleFinanceManager}, updated.Roles)
	})

	s.Run("admin cannot change own roles", func() {
		_, err := s.svc.User.UpdateUserByAdmin(s.ctx, admin.ID, admin.ID, &UpdateUserByAdminInput{Roles: []string{}})
		s.ErrorIs(err, ErrCannotChangeOwnRole)
	})

	s.Run("last administrator keeps the role", func() {
		_, err := s.svc.User.UpdateUserByAdmin(s.ctx, admin.ID, clerk.ID, &UpdateUserByAdminInput{
			Roles: []string{domain.RoleFinanceManager},
		})
		s.ErrorIs(err, ErrAdministratorProtected)
	})

	s.Run("password change checks the old password", func() {
		err := s.svc.User.ChangePassword(s.ctx, clerk.ID, &ChangePasswordInput{OldPassword: "nope", NewPassword: "Another123"})
		s.ErrorIs(err, ErrOldPasswordWrong)
		s.Require().NoError(s.svc.User.ChangePassword(s.ctx, clerk.ID, &ChangePasswordInput{OldPassword: "Secret123", NewPassword: "Another123"}))

		_, err = s.svc.Auth.Login(s.ctx, &LoginInput{Login: "clerk", Password: "Another123"})
		s.NoError(err)
	})

	s.Run("delete", func() {
		s.ErrorIs(s.svc.User.DeleteUser(s.ctx, admin.ID, admin.ID), ErrCannotDeleteSelf)
		s.Require().NoError(s.svc.User.DeleteUser(s.ctx, clerk.ID, admin.ID))
		_, err := s.svc.User.GetUserByID(s.ctx, clerk.ID)
		s.ErrorIs(err, ErrUserNotFound)
	})
}
