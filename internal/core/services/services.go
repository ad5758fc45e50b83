package services

import (
	"time"

	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/config"
	"unem-umt/internal/pkg/mailer"

	"gorm.io/gorm"
)

// Services holds every service wired over one database connection.
// The HTTP server and the CLI build it the same way.
type Services struct {
	Store        *repositories.Store
	ErrorLog     *ErrorLogService
	Backup       *BackupService
	Settings     *SettingsService
	Notification *NotificationService
	Member       *MemberService
	Card         *CardService
	Finance      *FinanceService
	AcademicYear *AcademicYearService
	Structure    *StructureService
	Organization *OrganizationService
	Report       *ReportService
	Dashboard    *DashboardService
	Portal       *PortalService
	Auth         *AuthService
	User         *UserService
	Scheduler    *SchedulerService
}

// NewServices wires the services over db
func NewServices(db *gorm.DB, cfg *config.Config, m mailer.Mailer) *Services {
	store := repositories.NewStore(db)

	s := &Services{Store: store}
	s.ErrorLog = NewErrorLogService(store)
	s.Backup = NewBackupService(db, cfg.Backup.Dir)
	s.Settings = NewSettingsService(store, s.Backup, m, s.ErrorLog)
	s.Notification = NewNotificationService(s.Settings, m)
	s.Member = NewMemberService(store, s.Notification)
	s.Card = NewCardService(store)
	s.Finance = NewFinanceService(store, s.Card, s.Notification)
	s.AcademicYear = NewAcademicYearService(store)
	s.Structure = NewStructureService(store)
	s.Organization = NewOrganizationService(store)
	s.Report = NewReportService(store)
	s.Dashboard = NewDashboardService(store)
	s.Portal = NewPortalService(store, s.Settings, s.Finance, s.Card, s.Notification)
	s.Auth = NewAuthService(store.Users, store.RefreshTokens, store.Members, cfg)
	s.User = NewUserService(store)
	s.Scheduler = NewSchedulerService(store, s.Card, s.Member, s.Structure, s.Backup, s.Settings, s.Notification)
	return s
}

// SetClock pins the time source of every date-aware service
func (s *Services) SetClock(now func() time.Time) {
	s.Backup.SetClock(now)
	s.Member.SetClock(now)
	s.Card.SetClock(now)
	s.Finance.SetClock(now)
	s.Structure.SetClock(now)
	s.Dashboard.SetClock(now)
	s.Portal.SetClock(now)
}
