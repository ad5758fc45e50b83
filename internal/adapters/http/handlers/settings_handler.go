package handlers

import (
	"errors"

	"unem-umt/internal/adapters/http/middleware"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const errorLogLimit = 50

// SettingsHandler handles system settings, payment methods, backups and the error log
type SettingsHandler struct {
	rpc
	settingsService *services.SettingsService
	backupService   *services.BackupService
	errorLogService *services.ErrorLogService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(
	settingsService *services.SettingsService,
	backupService *services.BackupService,
	errorLog *services.ErrorLogService,
) *SettingsHandler {
	return &SettingsHandler{
		rpc:             rpc{errorLog: errorLog},
		settingsService: settingsService,
		backupService:   backupService,
		errorLogService: errorLog,
	}
}

// TestEmailRequest carries the SMTP account to test and an optional recipient
type TestEmailRequest struct {
	services.EmailSettingsInput
	Recipient string `json:"recipient"`
}

// TogglePaymentMethodRequest enables or disables a payment method
type TogglePaymentMethodRequest struct {
	MethodName string `json:"method_name"`
	Enabled    bool   `json:"enabled"`
}

// BackupRequest names a backup file
type BackupRequest struct {
	Filename string `json:"filename"`
}

// Page returns the settings page context
// @Summary Settings page
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 403 {object} response.Response
// @Router /admin/settings [get]
func (h *SettingsHandler) Page(c *fiber.Ctx) error {
	page, err := h.settingsService.PageContext(c.Context())
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", page)
}

// SaveSettings stores the general, email, security and notification groups
// @Summary Save settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.SaveSettingsInput true "Settings"
// @Success 200 {object} response.RPCResult
// @Router /admin/settings/save_settings [post]
func (h *SettingsHandler) SaveSettings(c *fiber.Ctx) error {
	var input services.SaveSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.settingsService.SaveSettings(c.Context(), &input); err != nil {
		return h.fail(c, titleSaveSettings, err)
	}
	return response.RPC(c, services.MsgSettingsSaved, nil)
}

// SaveNotifications stores the notification toggles
// @Summary Save notification settings
// @Description Succeeds with warnings when every notification is disabled
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.NotificationSettingsInput true "Notifications"
// @Success 200 {object} response.RPCResult
// @Router /admin/settings/save_notifications [post]
func (h *SettingsHandler) SaveNotifications(c *fiber.Ctx) error {
	var input services.NotificationSettingsInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	warnings, err := h.settingsService.SaveNotifications(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSaveSettings, err)
	}
	if len(warnings) > 0 {
		return response.RPCWarn(c, services.MsgNotificationsSaved, warnings)
	}
	return response.RPC(c, services.MsgNotificationsSaved, nil)
}

// TestEmailSettings sends a test message with the submitted SMTP account
// @Summary Test email settings
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TestEmailRequest true "SMTP account"
// @Success 200 {object} response.RPCResult
// @Router /admin/settings/test_email_settings [post]
func (h *SettingsHandler) TestEmailSettings(c *fiber.Ctx) error {
	var req TestEmailRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	recipient := req.Recipient
	if recipient == "" {
		recipient = middleware.GetEmail(c)
	}
	if err := h.settingsService.TestEmail(c.Context(), &req.EmailSettingsInput, recipient); err != nil {
		return h.fail(c, titleTestEmail, err)
	}
	return response.RPC(c, services.MsgTestEmailSent, nil)
}

// ============================================================
// Payment methods
// ============================================================

// SavePaymentMethod creates or updates a payment method
// @Summary Save payment method
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body services.PaymentMethodInput true "Payment method"
// @Success 200 {object} response.RPCResult
// @Router /admin/settings/save_payment_method [post]
func (h *SettingsHandler) SavePaymentMethod(c *fiber.Ctx) error {
	var input services.PaymentMethodInput
	if err := c.BodyParser(&input); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	method, err := h.settingsService.SavePaymentMethod(c.Context(), &input)
	if err != nil {
		return h.fail(c, titleSavePaymentMethod, err)
	}
	return response.RPC(c, services.MsgPaymentMethodSaved, method)
}

// TogglePaymentMethod enables or disables a payment method
// @Summary Toggle payment method
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body TogglePaymentMethodRequest true "Toggle"
// @Success 200 {object} response.RPCResult
// @Router /admin/settings/toggle_payment_method [post]
func (h *SettingsHandler) TogglePaymentMethod(c *fiber.Ctx) error {
	var req TogglePaymentMethodRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.settingsService.TogglePaymentMethod(c.Context(), req.MethodName, req.Enabled); err != nil {
		return h.fail(c, titleTogglePayment, err)
	}
	return response.RPC(c, services.MsgPaymentMethodToggled, nil)
}

// ============================================================
// Backups
// ============================================================

// ListBackups returns the backup files, newest first
// @Summary List backups
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/backups [get]
func (h *SettingsHandler) ListBackups(c *fiber.Ctx) error {
	backups, err := h.backupService.List()
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", backups)
}

// CreateBackup dumps the database into a new backup file
// @Summary Create backup
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.RPCResult
// @Router /admin/backups/create_backup [post]
func (h *SettingsHandler) CreateBackup(c *fiber.Ctx) error {
	info, err := h.backupService.Create(c.Context())
	if err != nil {
		return h.fail(c, titleCreateBackup, err)
	}
	return response.RPC(c, services.MsgBackupCreated, info)
}

// DownloadBackup streams a backup file
// @Summary Download backup
// @Tags Settings
// @Produce application/gzip
// @Security BearerAuth
// @Param filename query string true "Backup file name"
// @Success 200 {file} file
// @Failure 404 {object} response.Response
// @Router /admin/backups/download_backup [get]
func (h *SettingsHandler) DownloadBackup(c *fiber.Ctx) error {
	name := c.Query("filename")
	path, err := h.backupService.Path(name)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrBackupNotFound):
			return response.NotFound(c, err.Error())
		case errors.Is(err, services.ErrInvalidBackupName):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, err.Error())
		}
	}
	return c.Download(path, name)
}

// DeleteBackup removes a backup file
// @Summary Delete backup
// @Tags Settings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body BackupRequest true "Backup"
// @Success 200 {object} response.RPCResult
// @Router /admin/backups/delete_backup [post]
func (h *SettingsHandler) DeleteBackup(c *fiber.Ctx) error {
	var req BackupRequest
	if err := c.BodyParser(&req); err != nil {
		return response.RPCFailure(c, msgInvalidBody)
	}

	if err := h.backupService.Delete(req.Filename); err != nil {
		return h.fail(c, titleDeleteBackup, err)
	}
	return response.RPC(c, services.MsgBackupDeleted, nil)
}

// ErrorLogs returns the most recent error log entries
// @Summary Recent error log
// @Tags Settings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /admin/settings/error_logs [get]
func (h *SettingsHandler) ErrorLogs(c *fiber.Ctx) error {
	logs, err := h.errorLogService.Recent(c.Context(), errorLogLimit)
	if err != nil {
		return pageError(c, err)
	}
	return response.Success(c, "", logs)
}
