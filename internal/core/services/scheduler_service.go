package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/config"
	"unem-umt/internal/pkg/metrics"

	"github.com/robfig/cron/v3"
)

// Job names accepted by RunJob
const (
	JobDaily   = "daily"
	JobWeekly  = "weekly"
	JobMonthly = "monthly"
)

// reminderWindowDays is how far ahead expiry reminders look
const reminderWindowDays = 30

// jobTimeout bounds one scheduled run
const jobTimeout = 10 * time.Minute

// ErrUnknownJob is returned by RunJob for names other than daily, weekly and monthly
var ErrUnknownJob = errors.New("unknown job")

// SchedulerService runs the periodic maintenance jobs
type SchedulerService struct {
	store      *repositories.Store
	cards      *CardService
	members    *MemberService
	structures *StructureService
	backups    *BackupService
	settings   *SettingsService
	notify     *NotificationService
	cron       *cron.Cron
}

// NewSchedulerService creates a new scheduler
func NewSchedulerService(
	store *repositories.Store,
	cards *CardService,
	members *MemberService,
	structures *StructureService,
	backups *BackupService,
	settings *SettingsService,
	notify *NotificationService,
) *SchedulerService {
	return &SchedulerService{
		store:      store,
		cards:      cards,
		members:    members,
		structures: structures,
		backups:    backups,
		settings:   settings,
		notify:     notify,
	}
}

// Start registers the jobs on cfg's specs and starts the cron runner.
// It does nothing when the scheduler is disabled.
func (s *SchedulerService) Start(cfg config.SchedulerConfig) error {
	if !cfg.Enabled {
		log.Println("⚠️ Scheduler disabled")
		return nil
	}
	c := cron.New()
	specs := []struct {
		spec string
		job  string
	}{
		{cfg.Daily, JobDaily},
		{cfg.Weekly, JobWeekly},
		{cfg.Monthly, JobMonthly},
	}
	for _, sp := range specs {
		job := sp.job
		if _, err := c.AddFunc(sp.spec, func() { s.run(job) }); err != nil {
			return fmt.Errorf("schedule %s job %q: %w", job, sp.spec, err)
		}
	}

	s.cron = c
	c.Start()
	log.Println("🚀 Scheduler started")
	return nil
}

// Stop waits for running jobs and stops the cron runner
func (s *SchedulerService) Stop() {
	if s.cron == nil {
		return
	}
	<-s.cron.Stop().Done()
	log.Println("🛑 Scheduler stopped")
}

func (s *SchedulerService) run(job string) {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	if err := s.RunJob(ctx, job); err != nil {
		log.Printf("❌ %s job failed: %v", job, err)
	}
}

// RunJob runs one job by name
func (s *SchedulerService) RunJob(ctx context.Context, job string) error {
	var err error
	switch job {
	case JobDaily:
		err = s.Daily(ctx)
	case JobWeekly:
		_, err = s.Weekly(ctx)
	case JobMonthly:
		_, err = s.Monthly(ctx)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownJob, job)
	}
	metrics.IncJobRun(job, err)
	return err
}

// ============================================================
// Jobs
// ============================================================

// Daily expires cards, recomputes member statuses, ends mandates and
// prunes expired refresh tokens
func (s *SchedulerService) Daily(ctx context.Context) error {
	expired, err := s.cards.ExpireCards(ctx)
	if err != nil {
		return fmt.Errorf("expire cards: %w", err)
	}
	updated, err := s.members.RefreshStatuses(ctx)
	if err != nil {
		return fmt.Errorf("refresh member statuses: %w", err)
	}
	ended, err := s.structures.DeactivateEnded(ctx)
	if err != nil {
		return fmt.Errorf("deactivate mandates: %w", err)
	}
	pruned, err := s.store.RefreshTokens.DeleteExpired(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("prune refresh tokens: %w", err)
	}

	log.Printf("✅ Daily job: %d cards expired, %d members updated, %d mandates ended, %d tokens pruned",
		expired, updated, ended, pruned)
	return nil
}

// Weekly mails expiry reminders for cards expiring within 30 days when the
// reminder notification is enabled. It returns the number of mails sent.
func (s *SchedulerService) Weekly(ctx context.Context) (int, error) {
	rt, err := s.settings.Current(ctx)
	if err != nil {
		return 0, err
	}
	if !rt.Notifications.EnableMembershipExpiry {
		log.Println("⚠️ Weekly job: membership expiry reminders disabled")
		return 0, nil
	}

	cards, err := s.cards.ExpiringSoon(ctx, reminderWindowDays)
	if err != nil {
		return 0, fmt.Errorf("list expiring cards: %w", err)
	}
	sent := s.notify.SendExpiryReminders(ctx, cards)

	log.Printf("✅ Weekly job: %d of %d expiry reminders sent", sent, len(cards))
	return sent, nil
}

// Monthly writes an automatic backup
func (s *SchedulerService) Monthly(ctx context.Context) (*BackupInfo, error) {
	info, err := s.backups.Create(ctx)
	if err != nil {
		return nil, fmt.Errorf("create backup: %w", err)
	}
	log.Printf("✅ Monthly job: backup %s (%s)", info.Name, info.Size)
	return info, nil
}
