package main

import (
	"log"
	"os"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/config"
	"unem-umt/internal/core/services"
	"unem-umt/internal/pkg/mailer"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const programName = "umtctl"

// env is the loaded configuration and database shared by every command
type env struct {
	cfg *config.Config
	db  *gorm.DB
}

func open() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		return nil, err
	}
	return &env{cfg: cfg, db: db}, nil
}

// services wires the services after making sure the schema exists
func (e *env) services() (*services.Services, error) {
	if err := models.AutoMigrate(e.db); err != nil {
		return nil, err
	}
	return services.NewServices(e.db, e.cfg, mailer.NewSMTPMailer()), nil
}

// withEnv opens the configuration and database around fn
func withEnv(fn func(cmd *cobra.Command, args []string, e *env) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		e, err := open()
		if err != nil {
			return err
		}
		defer config.CloseDatabase()
		return fn(cmd, args, e)
	}
}

func main() {
	rootCmd := &cobra.Command{
		Use:           programName,
		Short:         "UNEM/UMT administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		migrateCommand(),
		seedCommand(),
		backupCommand(),
		jobsCommand(),
		usersCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(1)
	}
}
