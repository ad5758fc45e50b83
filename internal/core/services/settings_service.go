package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/mailer"
)

// Settings messages
const (
	MsgSettingsSaved        = "تم حفظ الإعدادات بنجاح"
	MsgTestEmailSent        = "تم إرسال بريد الاختبار بنجاح"
	MsgPaymentMethodSaved   = "تم حفظ طريقة الدفع بنجاح"
	MsgPaymentMethodToggled = "تم تحديث حالة طريقة الدفع"
	MsgNotificationsSaved   = "تم حفظ إعدادات الإشعارات"

	testEmailSubject = "اختبار إعدادات البريد الإلكتروني"
	testEmailBody    = "هذا بريد اختباري للتحقق من صحة إعدادات البريد الإلكتروني."
)

// Runtime holds the settings the rest of the service reads on every request
type Runtime struct {
	System        models.SystemSettings
	Email         models.EmailSettings
	Notifications models.NotificationSettings
	Methods       []models.PaymentMethod
}

// MailAccount returns the SMTP account of the runtime settings
func (r *Runtime) MailAccount() mailer.Account {
	return mailer.Account{
		Host:     r.Email.SMTPServer,
		Port:     r.Email.SMTPPort,
		Username: r.Email.SMTPUser,
		Password: r.Email.SMTPPassword,
		From:     r.Email.FromAddress,
	}
}

// EnabledMethods returns the enabled payment methods
func (r *Runtime) EnabledMethods() []models.PaymentMethod {
	enabled := make([]models.PaymentMethod, 0, len(r.Methods))
	for _, m := range r.Methods {
		if m.Enabled {
			enabled = append(enabled, m)
		}
	}
	return enabled
}

// SettingsService owns the settings tables and the in-memory runtime snapshot.
// The snapshot only changes through Reload, which every settings write calls.
type SettingsService struct {
	store   *repositories.Store
	backups *BackupService
	mailer  mailer.Mailer
	audit   *ErrorLogService

	mu      sync.RWMutex
	runtime *Runtime
}

// NewSettingsService creates a new settings service
func NewSettingsService(
	store *repositories.Store,
	backups *BackupService,
	m mailer.Mailer,
	audit *ErrorLogService,
) *SettingsService {
	return &SettingsService{
		store:   store,
		backups: backups,
		mailer:  m,
		audit:   audit,
	}
}

// Reload rebuilds the runtime snapshot from the database
func (s *SettingsService) Reload(ctx context.Context) error {
	system, err := s.store.Settings.System(ctx)
	if err != nil {
		return fmt.Errorf("load system settings: %w", err)
	}
	email, err := s.store.Settings.Email(ctx)
	if err != nil {
		return fmt.Errorf("load email settings: %w", err)
	}
	notifications, err := s.store.Settings.Notifications(ctx)
	if err != nil {
		return fmt.Errorf("load notification settings: %w", err)
	}
	methods, err := s.store.PaymentMethods.List(ctx, false)
	if err != nil {
		return fmt.Errorf("load payment methods: %w", err)
	}

	s.mu.Lock()
	s.runtime = &Runtime{
		System:        *system,
		Email:         *email,
		Notifications: *notifications,
		Methods:       methods,
	}
	s.mu.Unlock()
	return nil
}

// Current returns the runtime snapshot, loading it on first use
func (s *SettingsService) Current(ctx context.Context) (*Runtime, error) {
	s.mu.RLock()
	rt := s.runtime
	s.mu.RUnlock()
	if rt != nil {
		return rt, nil
	}
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runtime, nil
}

// ============================================================
// Page context
// ============================================================

// Language is a selectable interface language
type Language struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// NotificationOption describes one notification toggle
type NotificationOption struct {
	Name        string `json:"name"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Enabled     bool   `json:"enabled"`
}

// SettingsView is the flattened settings form
type SettingsView struct {
	OrganizationName   string  `json:"organization_name"`
	Address            string  `json:"address"`
	Phone              string  `json:"phone"`
	Email              string  `json:"email"`
	DefaultLanguage    string  `json:"default_language"`
	SMTPServer         string  `json:"smtp_server"`
	SMTPPort           int     `json:"smtp_port"`
	SMTPUser           string  `json:"smtp_user"`
	FromEmail          string  `json:"from_email"`
	SessionExpiry      int     `json:"session_expiry"`
	TwoFactorAuth      bool    `json:"two_factor_auth"`
	ForcePasswordReset bool    `json:"force_password_reset"`
	MembershipFee      float64 `json:"membership_fee"`
	LateFee            float64 `json:"late_fee"`
	BankName           string  `json:"bank_name"`
	BankAccount        string  `json:"bank_account"`
}

// SettingsPage is the settings page context
type SettingsPage struct {
	Settings       SettingsView           `json:"settings"`
	Languages      []Language             `json:"languages"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	Notifications  []NotificationOption   `json:"notifications"`
	Backups        []BackupInfo           `json:"backups"`
	LastBackupDate string                 `json:"last_backup_date"`
}

// Languages lists the supported interface languages
func Languages() []Language {
	return []Language{
		{Code: "ar", Name: "العربية"},
		{Code: "en", Name: "English"},
		{Code: "fr", Name: "Français"},
	}
}

// NotificationOptions describes the toggles of n
func NotificationOptions(n *models.NotificationSettings) []NotificationOption {
	return []NotificationOption{
		{Name: "membership_expiry", Title: "تنبيه انتهاء العضوية", Description: "إرسال تنبيه قبل انتهاء العضوية", Enabled: n.EnableMembershipExpiry},
		{Name: "new_member", Title: "عضو جديد", Description: "إشعار عند تسجيل عضو جديد", Enabled: n.EnableNewMember},
		{Name: "payment_received", Title: "استلام دفعة", Description: "إشعار عند استلام دفعة جديدة", Enabled: n.EnablePaymentReceived},
	}
}

// PageContext builds the settings page context
func (s *SettingsService) PageContext(ctx context.Context) (*SettingsPage, error) {
	if err := s.Reload(ctx); err != nil {
		return nil, err
	}
	rt, err := s.Current(ctx)
	if err != nil {
		return nil, err
	}

	backups, err := s.backups.List()
	if err != nil {
		return nil, err
	}
	lastBackup := ""
	if len(backups) > 0 {
		lastBackup = backups[0].Date
	}

	return &SettingsPage{
		Settings: SettingsView{
			OrganizationName:   rt.System.OrganizationName,
			Address:            rt.System.Address,
			Phone:              rt.System.Phone,
			Email:              rt.System.Email,
			DefaultLanguage:    rt.System.Language,
			SMTPServer:         rt.Email.SMTPServer,
			SMTPPort:           rt.Email.SMTPPort,
			SMTPUser:           rt.Email.SMTPUser,
			FromEmail:          rt.Email.FromAddress,
			SessionExpiry:      rt.System.SessionExpiry,
			TwoFactorAuth:      rt.System.TwoFactorAuth,
			ForcePasswordReset: rt.System.ForcePasswordReset,
			MembershipFee:      rt.System.MembershipFee,
			LateFee:            rt.System.LateFee,
			BankName:           rt.System.BankName,
			BankAccount:        rt.System.BankAccount,
		},
		Languages:      Languages(),
		PaymentMethods: rt.Methods,
		Notifications:  NotificationOptions(&rt.Notifications),
		Backups:        backups,
		LastBackupDate: lastBackup,
	}, nil
}

// ============================================================
// Save settings
// ============================================================

// GeneralSettingsInput is the general section of the settings form
type GeneralSettingsInput struct {
	OrganizationName *string  `json:"organization_name"`
	Address          *string  `json:"address"`
	Phone            *string  `json:"phone"`
	Email            *string  `json:"email"`
	Language         *string  `json:"default_language"`
	MembershipFee    *float64 `json:"membership_fee"`
	LateFee          *float64 `json:"late_fee"`
	BankName         *string  `json:"bank_name"`
	BankAccount      *string  `json:"bank_account"`
}

// EmailSettingsInput is the SMTP section of the settings form
type EmailSettingsInput struct {
	SMTPServer   string `json:"smtp_server"`
	SMTPPort     int    `json:"smtp_port"`
	SMTPUser     string `json:"smtp_user"`
	SMTPPassword string `json:"smtp_password"`
	FromEmail    string `json:"from_email"`
}

// SecuritySettingsInput is the security section of the settings form
type SecuritySettingsInput struct {
	SessionExpiry      int  `json:"session_expiry"`
	TwoFactorAuth      bool `json:"two_factor_auth"`
	ForcePasswordReset bool `json:"force_password_reset"`
}

// SaveSettingsInput is the full settings form
type SaveSettingsInput struct {
	General       GeneralSettingsInput   `json:"general"`
	Email         *EmailSettingsInput    `json:"email"`
	Security      *SecuritySettingsInput `json:"security"`
	Notifications []string               `json:"notifications"`
}

// SaveSettings writes every settings section in one transaction and reloads the snapshot
func (s *SettingsService) SaveSettings(ctx context.Context, input *SaveSettingsInput) error {
	var notifications *models.NotificationSettings

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		system, err := tx.Settings.System(ctx)
		if err != nil {
			return err
		}
		applyGeneral(system, &input.General)
		if input.Security != nil {
			system.SessionExpiry = input.Security.SessionExpiry
			system.TwoFactorAuth = input.Security.TwoFactorAuth
			system.ForcePasswordReset = input.Security.ForcePasswordReset
		}
		if err := tx.Settings.SaveSystem(ctx, system); err != nil {
			return err
		}

		if input.Email != nil {
			email, err := tx.Settings.Email(ctx)
			if err != nil {
				return err
			}
			email.SMTPServer = strings.TrimSpace(input.Email.SMTPServer)
			email.SMTPPort = input.Email.SMTPPort
			email.SMTPUser = strings.TrimSpace(input.Email.SMTPUser)
			if input.Email.SMTPPassword != "" {
				email.SMTPPassword = input.Email.SMTPPassword
			}
			email.FromAddress = strings.TrimSpace(input.Email.FromEmail)
			if err := tx.Settings.SaveEmail(ctx, email); err != nil {
				return err
			}
		}

		if input.Notifications != nil {
			n := notificationsFromList(input.Notifications)
			if err := tx.Settings.SaveNotifications(ctx, n); err != nil {
				return err
			}
			notifications = n
		}
		return nil
	})
	if err != nil {
		return err
	}

	if notifications != nil {
		s.auditNotifications(ctx, notifications)
	}

	log.Printf("✅ Settings saved")
	return s.Reload(ctx)
}

func applyGeneral(system *models.SystemSettings, g *GeneralSettingsInput) {
	if g.OrganizationName != nil {
		system.OrganizationName = *g.OrganizationName
	}
	if g.Address != nil {
		system.Address = *g.Address
	}
	if g.Phone != nil {
		system.Phone = *g.Phone
	}
	if g.Email != nil {
		system.Email = *g.Email
	}
	if g.Language != nil && *g.Language != "" {
		system.Language = *g.Language
	}
	if g.MembershipFee != nil {
		system.MembershipFee = *g.MembershipFee
	}
	if g.LateFee != nil {
		system.LateFee = *g.LateFee
	}
	if g.BankName != nil {
		system.BankName = *g.BankName
	}
	if g.BankAccount != nil {
		system.BankAccount = *g.BankAccount
	}
}

// notificationsFromList enables exactly the named notifications
func notificationsFromList(names []string) *models.NotificationSettings {
	n := &models.NotificationSettings{}
	for _, name := range names {
		switch name {
		case "membership_expiry":
			n.EnableMembershipExpiry = true
		case "new_member":
			n.EnableNewMember = true
		case "payment_received":
			n.EnablePaymentReceived = true
		}
	}
	return n
}

// ============================================================
// Notifications
// ============================================================

// NotificationSettingsInput toggles each notification
type NotificationSettingsInput struct {
	EnableMembershipExpiry bool `json:"enable_membership_expiry"`
	EnableNewMember        bool `json:"enable_new_member"`
	EnablePaymentReceived  bool `json:"enable_payment_received"`
}

// SaveNotifications stores the toggles and returns non-fatal warnings
func (s *SettingsService) SaveNotifications(ctx context.Context, input *NotificationSettingsInput) ([]string, error) {
	n := &models.NotificationSettings{
		EnableMembershipExpiry: input.EnableMembershipExpiry,
		EnableNewMember:        input.EnableNewMember,
		EnablePaymentReceived:  input.EnablePaymentReceived,
	}
	warnings := rules.NotificationWarnings(n)

	if err := s.store.Settings.SaveNotifications(ctx, n); err != nil {
		return nil, err
	}
	s.auditNotifications(ctx, n)

	return warnings, s.Reload(ctx)
}

func (s *SettingsService) auditNotifications(ctx context.Context, n *models.NotificationSettings) {
	s.audit.Audit(ctx, "Notification Settings Update",
		"Notification Settings updated. Enabled notifications: "+strings.Join(rules.EnabledNotifications(n), ", "))
}

// ============================================================
// Email test
// ============================================================

// TestEmail sends a test message with the given account to recipient
func (s *SettingsService) TestEmail(ctx context.Context, input *EmailSettingsInput, recipient string) error {
	account := mailer.Account{
		Host:     strings.TrimSpace(input.SMTPServer),
		Port:     input.SMTPPort,
		Username: strings.TrimSpace(input.SMTPUser),
		Password: input.SMTPPassword,
		From:     strings.TrimSpace(input.FromEmail),
	}
	if account.Password == "" {
		rt, err := s.Current(ctx)
		if err != nil {
			return err
		}
		account.Password = rt.Email.SMTPPassword
	}

	return s.mailer.Send(ctx, account, mailer.Message{
		To:      []string{recipient},
		Subject: testEmailSubject,
		Body:    testEmailBody,
	})
}

// ============================================================
// Payment methods
// ============================================================

// PaymentMethodInput creates or updates a payment method
type PaymentMethodInput struct {
	ID           uint   `json:"id"`
	MethodName   string `json:"method_name"`
	Description  string `json:"description"`
	Instructions string `json:"instructions"`
	MethodType   string `json:"method_type"`
	Enabled      *bool  `json:"enabled"`
}

// SavePaymentMethod validates and stores a payment method
func (s *SettingsService) SavePaymentMethod(ctx context.Context, input *PaymentMethodInput) (*models.PaymentMethod, error) {
	method := &models.PaymentMethod{Enabled: true}
	if input.ID != 0 {
		existing, err := s.store.PaymentMethods.GetByID(ctx, input.ID)
		if err != nil {
			return nil, err
		}
		method = existing
	} else if existing, err := s.store.PaymentMethods.GetByName(ctx, strings.TrimSpace(input.MethodName)); err == nil {
		method = existing
	}

	method.MethodName = input.MethodName
	method.Description = input.Description
	method.Instructions = input.Instructions
	method.MethodType = input.MethodType
	if input.Enabled != nil {
		method.Enabled = *input.Enabled
	}

	if err := s.savePaymentMethod(ctx, method); err != nil {
		return nil, err
	}
	return method, nil
}

// TogglePaymentMethod enables or disables a payment method by name
func (s *SettingsService) TogglePaymentMethod(ctx context.Context, name string, enabled bool) error {
	method, err := s.store.PaymentMethods.GetByName(ctx, name)
	if err != nil {
		return err
	}
	method.Enabled = enabled
	return s.savePaymentMethod(ctx, method)
}

func (s *SettingsService) savePaymentMethod(ctx context.Context, method *models.PaymentMethod) error {
	if err := rules.ValidatePaymentMethod(method); err != nil {
		return err
	}
	taken, err := s.store.PaymentMethods.NameTaken(ctx, method.ID, method.MethodName)
	if err != nil {
		return err
	}
	if taken {
		return domain.Validation(rules.MsgMethodNameTaken)
	}

	if err := s.store.PaymentMethods.Save(ctx, method); err != nil {
		return err
	}

	state := "disabled"
	if method.Enabled {
		state = "enabled"
	}
	s.audit.Audit(ctx, "Payment Method Status Change",
		fmt.Sprintf("Payment Method %s was %s", method.MethodName, state))

	return s.Reload(ctx)
}

// IsNotConfigured reports whether err means the mailer has no server
func IsNotConfigured(err error) bool {
	return errors.Is(err, mailer.ErrNotConfigured)
}
