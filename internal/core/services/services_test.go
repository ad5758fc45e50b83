package services

import (
	"context"
	"testing"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/mailer/mocks"
	"unem-umt/internal/testutil"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

// ServiceSuite runs every service over a fresh in-memory database pinned to 2026-03-15
type ServiceSuite struct {
	suite.Suite
	ctx    context.Context
	ctrl   *gomock.Controller
	mailer *mocks.MockMailer
	svc    *Services
	today  time.Time
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.ctrl = gomock.NewController(s.T())
	s.mailer = mocks.NewMockMailer(s.ctrl)

	cfg := &config.Config{
		Backup: config.BackupConfig{Dir: s.T().TempDir()},
		JWT: config.JWTConfig{
			Secret:           "test-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
	s.svc = NewServices(testutil.NewDB(s.T()), cfg, s.mailer)
	s.svc.SetClock(testutil.Clock(2026, time.March, 15))
	s.today = time.Date(2026, time.March, 15, 0, 0, 0, 0, time.UTC)

	s.Require().NoError(s.svc.Store.Provinces.Save(s.ctx, &models.Province{Name: "عمالة طنجة", Code: "01"}))
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func ptr[T any](v T) *T {
	return &v
}

func (s *ServiceSuite) date(t time.Time) *dateutil.Date {
	return &dateutil.Date{Time: t}
}

func (s *ServiceSuite) requireValidation(err error) {
	s.Require().Error(err)
	s.True(domain.IsValidation(err), "expected a validation error, got %v", err)
}

// newMember registers a member in Tangier with a generated card
func (s *ServiceSuite) newMember(name, email string) *models.Member {
	m, err := s.svc.Member.Save(s.ctx, &MemberInput{
		FullName: name,
		Email:    ptr(email),
		Province: ptr("عمالة طنجة"),
	})
	s.Require().NoError(err)
	return m
}

// configureSMTP stores a mail server so notifications reach the mailer
func (s *ServiceSuite) configureSMTP() {
	orgEmail := "bureau@umt.ma"
	s.Require().NoError(s.svc.Settings.SaveSettings(s.ctx, &SaveSettingsInput{
		General: GeneralSettingsInput{Email: &orgEmail},
		Email: &EmailSettingsInput{
			SMTPServer: "smtp.umt.ma",
			SMTPPort:   587,
			SMTPUser:   "bureau",
			FromEmail:  "bureau@umt.ma",
		},
	}))
}

func (s *ServiceSuite) newUser(username, email string, roles ...string) *models.UserResponse {
	for _, r := range roles {
		s.Require().NoError(s.svc.Store.Roles.EnsureRole(s.ctx, r, r))
	}
	u, err := s.svc.User.CreateUser(s.ctx, &CreateUserInput{
		Username: username,
		Email:    email,
		Password: "Secret123",
		Roles:    roles,
	})
	s.Require().NoError(err)
	return u
}

func (s *ServiceSuite) userRoles(id uint) []string {
	u, err := s.svc.Store.Users.GetByID(s.ctx, id)
	s.Require().NoError(err)
	return u.RoleNames()
}
