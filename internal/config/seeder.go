package config

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"os"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/password"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed seed/provinces.yaml
var defaultProvinces []byte

// ProvinceSeed is one province of the seed file
type ProvinceSeed struct {
	Name     string `yaml:"name"`
	Code     string `yaml:"code"`
	Region   string `yaml:"region"`
	HeadName string `yaml:"head_name"`
}

type provinceFile struct {
	Provinces []ProvinceSeed `yaml:"provinces"`
}

var seedRoles = []struct{ name, description string }{
	{domain.RoleAdministrator, "مدير النظام الكامل"},
	{domain.RoleSystemManager, "إدارة النظام والإعدادات"},
	{domain.RoleFinanceManager, "إدارة الشؤون المالية"},
	{domain.RoleFinanceUser, "مستخدم المالية"},
	{domain.RoleStructureManager, "إدارة الهياكل"},
	{domain.RoleHRManager, "إدارة الموارد البشرية"},
	{domain.RoleUMTManager, "مسؤول الاتحاد المغربي للشغل"},
	{domain.RoleUMTMember, "عضو"},
	{domain.RoleUNEMManager, "مسؤول الاتحاد الوطني للتعليم"},
	{domain.RoleMutualManager, "مسؤول التعاضدية"},
}

var seedPermissions = []struct{ name, description string }{
	{"members", "إدارة الأعضاء"},
	{"finance", "الإدارة المالية"},
	{"structure", "إدارة الهياكل"},
	{"settings", "الإعدادات"},
	{"reports", "التقارير"},
	{"backups", "النسخ الاحتياطية"},
}

var seedPaymentMethods = []models.PaymentMethod{
	{MethodName: domain.CashPaymentMethod, Description: "الأداء نقدا لدى أمين المال", MethodType: "cash", Enabled: true},
	{MethodName: "تحويل بنكي", Description: "تحويل إلى الحساب البنكي للنقابة", MethodType: "bank", Enabled: true},
}

// Seeder handles database seeding
type Seeder struct {
	store *repositories.Store
	cfg   SeedConfig
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, cfg SeedConfig) *Seeder {
	return &Seeder{store: repositories.NewStore(db), cfg: cfg}
}

// Run executes all seeders. Every step is idempotent.
func (s *Seeder) Run(ctx context.Context) error {
	log.Println("🌱 Running database seeders...")

	if err := s.seedRoles(ctx); err != nil {
		return fmt.Errorf("seed roles: %w", err)
	}
	if err := s.seedSettings(ctx); err != nil {
		return fmt.Errorf("seed settings: %w", err)
	}
	if err := s.seedPaymentMethods(ctx); err != nil {
		return fmt.Errorf("seed payment methods: %w", err)
	}
	if err := s.seedProvinces(ctx); err != nil {
		return fmt.Errorf("seed provinces: %w", err)
	}
	if err := s.seedAdminUser(ctx); err != nil {
		log.Printf("⚠️ Admin seeder skipped: %v", err)
	}

	log.Println("✅ Database seeding completed")
	return nil
}

func (s *Seeder) seedRoles(ctx context.Context) error {
	for _, r := range seedRoles {
		if err := s.store.Roles.EnsureRole(ctx, r.name, r.description); err != nil {
			return err
		}
	}
	for _, p := range seedPermissions {
		if err := s.store.Roles.EnsurePermission(ctx, p.name, p.description); err != nil {
			return err
		}
	}
	return nil
}

// seedSettings creates the single-row settings tables with their defaults
func (s *Seeder) seedSettings(ctx context.Context) error {
	if _, err := s.store.Settings.System(ctx); err != nil {
		return err
	}
	if _, err := s.store.Settings.Email(ctx); err != nil {
		return err
	}
	_, err := s.store.Settings.Notifications(ctx)
	return err
}

func (s *Seeder) seedPaymentMethods(ctx context.Context) error {
	existing, err := s.store.PaymentMethods.List(ctx, false)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for i := range seedPaymentMethods {
		method := seedPaymentMethods[i]
		if err := s.store.PaymentMethods.Save(ctx, &method); err != nil {
			return err
		}
	}
	return nil
}

// LoadProvinces reads the province seed file, or the embedded default when path is empty
func LoadProvinces(path string) ([]ProvinceSeed, error) {
	data := defaultProvinces
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		data = b
	}

	var f provinceFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse provinces: %w", err)
	}
	for _, p := range f.Provinces {
		if p.Name == "" || len(p.Code) != 2 {
			return nil, fmt.Errorf("invalid province entry %q (code %q)", p.Name, p.Code)
		}
	}
	return f.Provinces, nil
}

func (s *Seeder) seedProvinces(ctx context.Context) error {
	provinces, err := LoadProvinces(s.cfg.ProvincesFile)
	if err != nil {
		return err
	}

	for _, p := range provinces {
		_, err := s.store.Provinces.GetByName(ctx, p.Name)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return err
		}
		province := &models.Province{
			Name:     p.Name,
			Code:     p.Code,
			Region:   p.Region,
			HeadName: p.HeadName,
			Status:   "Active",
		}
		if err := s.store.Provinces.Save(ctx, province); err != nil {
			return err
		}
		log.Printf("   Created province: %s (%s)", p.Name, p.Code)
	}
	return nil
}

// seedAdminUser creates the first Administrator when none exists and
// ADMIN_PASSWORD is set
func (s *Seeder) seedAdminUser(ctx context.Context) error {
	count, err := s.store.Users.CountByRole(ctx, domain.RoleAdministrator)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if s.cfg.AdminPassword == "" {
		return errors.New("ADMIN_PASSWORD is not set")
	}
	if !password.ValidatePassword(s.cfg.AdminPassword) {
		return errors.New("ADMIN_PASSWORD must be at least 8 characters")
	}

	hashed, err := password.Hash(s.cfg.AdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username: "admin",
		Email:    s.cfg.AdminEmail,
		FullName: "Administrator",
		Password: hashed,
		IsActive: true,
		Roles: []models.UserRole{
			{Role: domain.RoleAdministrator},
			{Role: domain.RoleSystemManager},
		},
	}
	if err := s.store.Users.Create(ctx, admin); err != nil {
		return err
	}

	log.Printf("✅ Admin user created: %s", admin.Username)
	return nil
}
