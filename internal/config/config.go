package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	AppMode   string
	Port      string
	Database  DatabaseConfig
	JWT       JWTConfig
	Cookie    CookieConfig
	Backup    BackupConfig
	Scheduler SchedulerConfig
	Seed      SeedConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver     string // mysql | sqlite
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// JWTConfig holds JWT configuration
type JWTConfig struct {
	Secret           string
	RefreshSecret    string
	AccessTokenMins  int
	RefreshTokenDays int
}

// CookieConfig holds cookie configuration
type CookieConfig struct {
	Secure   bool
	SameSite string
	Domain   string
}

// BackupConfig holds the backup directory
type BackupConfig struct {
	Dir string
}

// SchedulerConfig holds cron specs for the periodic jobs
type SchedulerConfig struct {
	Enabled bool
	Daily   string
	Weekly  string
	Monthly string
}

// SeedConfig holds values used by the seeder
type SeedConfig struct {
	ProvincesFile string
	AdminEmail    string
	AdminPassword string
}

// Global config instance
var AppConfig *Config

// Load reads configuration from .env file and environment variables
func Load() (*Config, error) {
	// Load .env file (ignore error if file doesn't exist in production)
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Trim spaces for Windows compatibility
	appMode := strings.TrimSpace(getEnv("APP_MODE", "dev"))
	if appMode != "dev" && appMode != "prod" {
		return nil, fmt.Errorf("invalid APP_MODE: '%s' (must be 'dev' or 'prod')", appMode)
	}

	database := loadDatabaseConfig(appMode)
	if database.Driver != "mysql" && database.Driver != "sqlite" {
		return nil, fmt.Errorf("invalid DB_DRIVER: '%s' (must be 'mysql' or 'sqlite')", database.Driver)
	}

	config := &Config{
		AppMode:   appMode,
		Port:      getEnv("PORT", "3000"),
		Database:  database,
		JWT:       loadJWTConfig(appMode),
		Cookie:    loadCookieConfig(appMode),
		Backup:    BackupConfig{Dir: getEnv("BACKUP_DIR", "./backups")},
		Scheduler: loadSchedulerConfig(),
		Seed: SeedConfig{
			ProvincesFile: getEnv("PROVINCES_FILE", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@unem.ma"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
	}

	// Set global config
	AppConfig = config

	log.Printf("✅ Configuration loaded successfully [MODE: %s, DB: %s]", appMode, database.Driver)
	return config, nil
}

// modePrefix returns the env prefix for the given mode
func modePrefix(mode string) string {
	if mode == "prod" {
		return "PROD_"
	}
	return "DEV_"
}

// loadDatabaseConfig loads database config based on mode
func loadDatabaseConfig(mode string) DatabaseConfig {
	prefix := modePrefix(mode)

	return DatabaseConfig{
		Driver:     strings.ToLower(strings.TrimSpace(getEnv("DB_DRIVER", "mysql"))),
		Host:       getEnv(prefix+"DB_HOST", "localhost"),
		Port:       getEnv(prefix+"DB_PORT", "3306"),
		User:       getEnv(prefix+"DB_USER", "root"),
		Password:   getEnv(prefix+"DB_PASS", ""),
		DBName:     getEnv(prefix+"DB_NAME", "unem_umt"),
		SQLitePath: getEnv("SQLITE_PATH", "./data/umt.sqlite"),
	}
}

// loadJWTConfig loads JWT config based on mode
func loadJWTConfig(mode string) JWTConfig {
	prefix := modePrefix(mode)

	accessMins, _ := strconv.Atoi(getEnv("ACCESS_TOKEN_MINUTES", "15"))
	refreshDays, _ := strconv.Atoi(getEnv("REFRESH_TOKEN_DAYS", "7"))

	return JWTConfig{
		Secret:           getEnv(prefix+"JWT_SECRET", "default_secret"),
		RefreshSecret:    getEnv(prefix+"JWT_REFRESH_SECRET", "default_refresh_secret"),
		AccessTokenMins:  accessMins,
		RefreshTokenDays: refreshDays,
	}
}

// loadCookieConfig loads cookie config based on mode
func loadCookieConfig(mode string) CookieConfig {
	secure, _ := strconv.ParseBool(getEnv(modePrefix(mode)+"COOKIE_SECURE", "false"))

	return CookieConfig{
		Secure:   secure,
		SameSite: getEnv("COOKIE_SAMESITE", "lax"),
		Domain:   getEnv("COOKIE_DOMAIN", ""),
	}
}

// loadSchedulerConfig loads cron specs. Specs use the standard 5-field format.
func loadSchedulerConfig() SchedulerConfig {
	enabled, _ := strconv.ParseBool(getEnv("CRON_ENABLED", "true"))

	return SchedulerConfig{
		Enabled: enabled,
		Daily:   getEnv("CRON_DAILY", "0 1 * * *"),
		Weekly:  getEnv("CRON_WEEKLY", "0 8 * * 1"),
		Monthly: getEnv("CRON_MONTHLY", "0 2 1 * *"),
	}
}

// getEnv gets environment variable with default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// IsDev returns true if running in development mode
func (c *Config) IsDev() bool {
	return c.AppMode == "dev"
}

// IsProd returns true if running in production mode
func (c *Config) IsProd() bool {
	return c.AppMode == "prod"
}

// GetAllowedOrigins returns allowed origins for CORS
func (c *Config) GetAllowedOrigins() string {
	origins := getEnv("ALLOWED_ORIGINS", "")
	if origins == "" {
		if c.IsDev() {
			return "*"
		}
		return "https://unem.ma"
	}
	return origins
}
