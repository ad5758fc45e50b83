package main

import (
	"fmt"
	"log"
	"strings"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/config"
	"unem-umt/internal/core/services"

	"github.com/spf13/cobra"
)

func migrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			if err := models.AutoMigrate(e.db); err != nil {
				return err
			}
			log.Println("✅ Database migration completed")
			return nil
		}),
	}
}

func seedCommand() *cobra.Command {
	var provincesFile string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Seed roles, settings, payment methods, provinces and the admin user",
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			if err := models.AutoMigrate(e.db); err != nil {
				return err
			}
			seed := e.cfg.Seed
			if provincesFile != "" {
				seed.ProvincesFile = provincesFile
			}
			return config.NewSeeder(e.db, seed).Run(cmd.Context())
		}),
	}
	cmd.Flags().StringVar(&provincesFile, "provinces", "", "province YAML file (defaults to PROVINCES_FILE or the built-in list)")
	return cmd
}

func backupCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Manage database backups",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "create",
			Short: "Write a new backup file",
			RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
				svc, err := e.services()
				if err != nil {
					return err
				}
				info, err := svc.Backup.Create(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), info.Name)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List backup files, newest first",
			RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
				backups, err := services.NewBackupService(e.db, e.cfg.Backup.Dir).List()
				if err != nil {
					return err
				}
				for _, b := range backups {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", b.Name, b.Size, b.Date)
				}
				return nil
			}),
		},
	)
	return cmd
}

func jobsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Run scheduled jobs once",
	}

	cmd.AddCommand(&cobra.Command{
		Use:       "run <daily|weekly|monthly>",
		Short:     "Run one scheduled job now",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{services.JobDaily, services.JobWeekly, services.JobMonthly},
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			svc, err := e.services()
			if err != nil {
				return err
			}
			if err := svc.Settings.Reload(cmd.Context()); err != nil {
				return err
			}
			return svc.Scheduler.RunJob(cmd.Context(), args[0])
		}),
	})
	return cmd
}

func usersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}

	var input services.CreateUserInput
	var roles string
	create := &cobra.Command{
		Use:   "create",
		Short: "Create a user with roles",
		RunE: withEnv(func(cmd *cobra.Command, args []string, e *env) error {
			svc, err := e.services()
			if err != nil {
				return err
			}
			for _, r := range strings.Split(roles, ",") {
				if r = strings.TrimSpace(r); r != "" {
					input.Roles = append(input.Roles, r)
				}
			}
			user, err := svc.User.CreateUser(cmd.Context(), &input)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\t%s\n", user.ID, user.Username, strings.Join(user.Roles, ","))
			return nil
		}),
	}
	create.Flags().StringVar(&input.Username, "username", "", "login name")
	create.Flags().StringVar(&input.Email, "email", "", "e-mail address")
	create.Flags().StringVar(&input.FullName, "full-name", "", "display name")
	create.Flags().StringVar(&input.Password, "password", "", "password (at least 8 characters)")
	create.Flags().StringVar(&roles, "roles", "", "comma separated role names")
	_ = create.MarkFlagRequired("username")
	_ = create.MarkFlagRequired("email")
	_ = create.MarkFlagRequired("password")

	cmd.AddCommand(create)
	return cmd
}
