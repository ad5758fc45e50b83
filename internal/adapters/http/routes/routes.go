package routes

import (
	"time"

	"unem-umt/internal/adapters/http/handlers"
	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// reportCacheAge is how long a browser may reuse a report response
const reportCacheAge = time.Minute

// Setup configures all routes for the application
func Setup(app *fiber.App, svc *services.Services, cfg *config.Config, ping func() error) {
	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(ping)
	authHandler := handlers.NewAuthHandler(svc.Auth, cfg)
	userHandler := handlers.NewUserHandler(svc.User)
	dashboardHandler := handlers.NewDashboardHandler(svc.Dashboard)
	memberHandler := handlers.NewMemberHandler(svc.Member, svc.Card, svc.ErrorLog)
	financeHandler := handlers.NewFinanceHandler(svc.Finance, svc.ErrorLog)
	structureHandler := handlers.NewStructureHandler(svc.Organization, svc.Structure, svc.AcademicYear, svc.ErrorLog)
	settingsHandler := handlers.NewSettingsHandler(svc.Settings, svc.Backup, svc.ErrorLog)
	reportHandler := handlers.NewReportHandler(svc.Report)
	portalHandler := handlers.NewPortalHandler(svc.Portal, svc.Dashboard, svc.ErrorLog)

	// Health check & root routes
	app.Get("/", healthHandler.Root)
	app.Get("/health", healthHandler.HealthCheck)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Prometheus metrics
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// API v1 group
	apiV1 := app.Group("/api/v1")
	apiV1.Get("/", healthHandler.APIInfo)

	setupAuthRoutes(apiV1.Group("/auth"), authHandler, cfg)

	profileRoutes := apiV1.Group("/profile", middleware.AuthMiddleware(cfg))
	setupProfileRoutes(profileRoutes, userHandler)

	portalRoutes := apiV1.Group("/portal", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	setupPortalRoutes(portalRoutes, portalHandler)

	admin := apiV1.Group("/admin", middleware.AuthMiddleware(cfg), middleware.NoCacheHeaders())
	setupAdminRoutes(admin, dashboardHandler, userHandler, memberHandler, financeHandler,
		structureHandler, settingsHandler, reportHandler)
}

// setupAuthRoutes configures authentication routes
func setupAuthRoutes(router fiber.Router, handler *handlers.AuthHandler, cfg *config.Config) {
	// Public routes
	router.Post("/register", middleware.StrictRateLimiter(), handler.Register)
	router.Post("/login", middleware.AuthRateLimiter(), handler.Login)
	router.Post("/refresh", handler.RefreshToken)
	router.Post("/logout", handler.Logout)

	// Protected routes
	router.Get("/me", middleware.AuthMiddleware(cfg), handler.Me)
	router.Post("/logout-all", middleware.AuthMiddleware(cfg), handler.LogoutAll)
}

// setupProfileRoutes configures routes for the signed-in user's own account
func setupProfileRoutes(router fiber.Router, handler *handlers.UserHandler) {
	router.Get("/", handler.GetProfile)
	router.Put("/", handler.UpdateProfile)
	router.Put("/password", handler.ChangePassword)
}

// setupPortalRoutes configures the member portal
func setupPortalRoutes(router fiber.Router, handler *handlers.PortalHandler) {
	router.Get("/", handler.Portal)
	router.Get("/dashboard", handler.Dashboard)
	router.Get("/renewal", handler.RenewalContext)
	router.Post("/submit_renewal", handler.SubmitRenewal)
}

// setupAdminRoutes configures the role-guarded management pages
func setupAdminRoutes(
	router fiber.Router,
	dashboardHandler *handlers.DashboardHandler,
	userHandler *handlers.UserHandler,
	memberHandler *handlers.MemberHandler,
	financeHandler *handlers.FinanceHandler,
	structureHandler *handlers.StructureHandler,
	settingsHandler *handlers.SettingsHandler,
	reportHandler *handlers.ReportHandler,
) {
	dashboard := router.Group("/dashboard", middleware.RequireRoles(domain.MsgDashboardForbidden, domain.DashboardRoles...))
	dashboard.Get("/", dashboardHandler.GetAdminDashboard)
	dashboard.Get("/member", dashboardHandler.GetMemberSummary)

	// Users (System Manager)
	users := router.Group("/users", middleware.AdminOnly(domain.MsgSettingsForbidden))
	users.Get("/", userHandler.ListUsers)
	users.Post("/", userHandler.CreateUser)
	users.Get("/:id", userHandler.GetUser)
	users.Put("/:id", userHandler.UpdateUser)
	users.Delete("/:id", userHandler.DeleteUser)

	// Members
	members := router.Group("/members", middleware.RequireRoles(domain.MsgMembersForbidden, domain.MembersPageRoles...))
	members.Get("/", memberHandler.Page)
	members.Get("/get_member", memberHandler.GetMember)
	members.Get("/export_members", memberHandler.ExportMembers)
	members.Post("/save_member", memberHandler.SaveMember)
	members.Post("/delete_member", memberHandler.DeleteMember)
	members.Post("/update_member_status", memberHandler.UpdateMemberStatus)
	members.Post("/save_membership_card", memberHandler.SaveCard)
	members.Post("/delete_membership_card", memberHandler.DeleteCard)

	// Finance
	finance := router.Group("/finance", middleware.RequireRoles(domain.MsgFinanceForbidden, domain.FinancePageRoles...))
	finance.Get("/", financeHandler.Page)
	finance.Get("/export_transactions", financeHandler.ExportTransactions)
	finance.Post("/save_transaction", financeHandler.SaveTransaction)
	finance.Post("/update_transaction_status", financeHandler.UpdateTransactionStatus)
	finance.Post("/submit_transaction", financeHandler.SubmitTransaction)
	finance.Post("/cancel_transaction", financeHandler.CancelTransaction)

	// Structure
	structure := router.Group("/structure", middleware.RequireRoles(domain.MsgStructureForbidden, domain.StructurePageRoles...))
	structure.Get("/", structureHandler.Page)
	structure.Get("/get_parent_structures", structureHandler.GetParentStructures)
	structure.Post("/save_structure", structureHandler.SaveStructure)
	structure.Get("/get_role", structureHandler.GetRole)
	structure.Post("/save_role", structureHandler.SaveRole)
	structure.Post("/delete_role", structureHandler.DeleteRole)
	structure.Get("/get_province", structureHandler.GetProvince)
	structure.Post("/save_province", structureHandler.SaveProvince)
	structure.Post("/delete_province", structureHandler.DeleteProvince)
	structure.Get("/unem", structureHandler.ListUNEM)
	structure.Post("/save_unem_structure", structureHandler.SaveUNEMStructure)
	structure.Get("/mutual", structureHandler.ListMutual)
	structure.Post("/save_mutual_structure", structureHandler.SaveMutualStructure)
	structure.Get("/academic_years", structureHandler.ListAcademicYears)
	structure.Post("/save_academic_year", structureHandler.SaveAcademicYear)
	structure.Post("/create_next_academic_year", structureHandler.CreateNextAcademicYear)

	// Settings and payment methods
	settings := router.Group("/settings", middleware.RequireRoles(domain.MsgSettingsForbidden, domain.SettingsPageRoles...))
	settings.Get("/", settingsHandler.Page)
	settings.Post("/save_settings", settingsHandler.SaveSettings)
	settings.Post("/save_notifications", settingsHandler.SaveNotifications)
	settings.Post("/test_email_settings", middleware.StrictRateLimiter(), settingsHandler.TestEmailSettings)
	settings.Post("/save_payment_method", settingsHandler.SavePaymentMethod)
	settings.Post("/toggle_payment_method", settingsHandler.TogglePaymentMethod)
	settings.Get("/error_logs", settingsHandler.ErrorLogs)

	// Backups
	backups := router.Group("/backups", middleware.RequireRoles(domain.MsgBackupForbidden, domain.SettingsPageRoles...))
	backups.Get("/", settingsHandler.ListBackups)
	backups.Post("/create_backup", settingsHandler.CreateBackup)
	backups.Get("/download_backup", settingsHandler.DownloadBackup)
	backups.Post("/delete_backup", settingsHandler.DeleteBackup)

	// Reports
	reports := router.Group("/reports",
		middleware.RequireRoles(domain.MsgReportsForbidden, domain.ReportRoles...),
		middleware.ReportCacheHeaders(reportCacheAge))
	reports.Get("/financial_summary", reportHandler.FinancialSummary)
	reports.Get("/member_status", reportHandler.MemberStatus)
}
