package services

import (
	"time"

	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/testutil"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestRunJob() {
	s.Run("unknown job", func() {
		s.ErrorIs(s.svc.Scheduler.RunJob(s.ctx, "hourly"), ErrUnknownJob)
	})

	s.Run("monthly writes a backup", func() {
		s.Require().NoError(s.svc.Scheduler.RunJob(s.ctx, JobMonthly))
		backups, err := s.svc.Backup.List()
		s.Require().NoError(err)
		s.Len(backups, 1)
	})
}

func (s *ServiceSuite) TestDailyJob() {
	m := s.newMember("أحمد", "")
	renewed, err := s.svc.Member.Save(s.ctx, &MemberInput{
		FullName:        "سعاد",
		CardNumber:      "S-1",
		LastRenewalDate: s.date(day(2025, time.April, 1)),
	})
	s.Require().NoError(err)

	s.svc.SetClock(testutil.Clock(2027, time.April, 1))
	s.Require().NoError(s.svc.Scheduler.Daily(s.ctx))

	card, err := s.svc.Store.Cards.GetByID(s.ctx, *m.CurrentCardID)
	s.Require().NoError(err)
	s.Equal(domain.CardExpired, card.Status)

	got, err := s.svc.Store.Members.GetByID(s.ctx, renewed.ID)
	s.Require().NoError(err)
	s.Equal(domain.MembershipExpired, got.MembershipStatus)
}

func (s *ServiceSuite) TestWeeklyJob() {
	s.newMember("أحمد", "ahmed@example.ma")
	s.newMember("بدون بريد", "")
	s.svc.SetClock(testutil.Clock(2027, time.March, 1))

	s.Run("nothing is sent without SMTP", func() {
		sent, err := s.svc.Scheduler.Weekly(s.ctx)
		s.Require().NoError(err)
		s.Zero(sent)
	})

	s.configureSMTP()

	s.Run("reminders go to members with an email", func() {
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), sentTo("ahmed@example.ma")).Return(nil)

		sent, err := s.svc.Scheduler.Weekly(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, sent)
	})

	s.Run("disabled reminders skip the job", func() {
		_, err := s.svc.Settings.SaveNotifications(s.ctx, &NotificationSettingsInput{EnableNewMember: true})
		s.Require().NoError(err)

		sent, err := s.svc.Scheduler.Weekly(s.ctx)
		s.Require().NoError(err)
		s.Zero(sent)
	})
}

func (s *ServiceSuite) TestSchedulerStart() {
	s.Run("disabled scheduler does nothing", func() {
		s.Require().NoError(s.svc.Scheduler.Start(config.SchedulerConfig{}))
		s.svc.Scheduler.Stop()
	})

	s.Run("bad cron expression is reported", func() {
		err := s.svc.Scheduler.Start(config.SchedulerConfig{Enabled: true, Daily: "not a cron expression", Weekly: "@weekly", Monthly: "@monthly"})
		s.Error(err)
	})

	s.Run("valid specs start and stop", func() {
		s.Require().NoError(s.svc.Scheduler.Start(config.SchedulerConfig{
			Enabled: true,
			Daily:   "0 2 * * *",
			Weekly:  "0 9 * * 1",
			Monthly: "0 3 1 * *",
		}))
		s.svc.Scheduler.Stop()
	})
}
