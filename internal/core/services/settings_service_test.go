package services

import (
	"errors"

	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/mailer"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) TestSettingsSnapshot() {
	rt, err := s.svc.Settings.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal("ar", rt.System.Language)
	s.False(rt.Email.Configured())
	s.True(rt.Notifications.EnableNewMember)

	name := "الاتحاد المغربي للشغل"
	fee := 120.0
	s.Require().NoError(s.svc.Settings.SaveSettings(s.ctx, &SaveSettingsInput{
		General:       GeneralSettingsInput{OrganizationName: &name, MembershipFee: &fee},
		Email:         &EmailSettingsInput{SMTPServer: " smtp.umt.ma ", SMTPPort: 465, SMTPPassword: "pw"},
		Notifications: []string{"payment_received"},
	}))

	rt, err = s.svc.Settings.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal(name, rt.System.OrganizationName)
	s.Equal(120.0, rt.System.MembershipFee)
	s.Equal("smtp.umt.ma", rt.Email.SMTPServer)
	s.True(rt.Email.Configured())
	s.False(rt.Notifications.EnableNewMember)
	s.True(rt.Notifications.EnablePaymentReceived)

	s.Run("blank password keeps the stored one", func() {
		s.Require().NoError(s.svc.Settings.SaveSettings(s.ctx, &SaveSettingsInput{
			Email: &EmailSettingsInput{SMTPServer: "smtp.umt.ma", SMTPPort: 465},
		}))
		rt, err := s.svc.Settings.Current(s.ctx)
		s.Require().NoError(err)
		s.Equal("pw", rt.Email.SMTPPassword)
	})

	s.Run("page context exposes the form", func() {
		page, err := s.svc.Settings.PageContext(s.ctx)
		s.Require().NoError(err)
		s.Equal(name, page.Settings.OrganizationName)
		s.NotEmpty(page.Languages)
		s.Empty(page.Backups)
	})
}

func (s *ServiceSuite) TestSaveNotifications() {
	s.Run("all disabled warns but saves", func() {
		warnings, err := s.svc.Settings.SaveNotifications(s.ctx, &NotificationSettingsInput{})
		s.Require().NoError(err)
		s.Equal([]string{rules.MsgNotificationsAllOff}, warnings)

		rt, err := s.svc.Settings.Current(s.ctx)
		s.Require().NoError(err)
		s.False(rt.Notifications.EnableMembershipExpiry)
	})

	s.Run("enabled toggles are audited", func() {
		warnings, err := s.svc.Settings.SaveNotifications(s.ctx, &NotificationSettingsInput{EnableNewMember: true})
		s.Require().NoError(err)
		s.Empty(warnings)

		logs, err := s.svc.ErrorLog.Recent(s.ctx, 1)
		s.Require().NoError(err)
		s.Require().Len(logs, 1)
		s.Contains(logs[0].Message, "new_member")
	})
}

func (s *ServiceSuite) TestTestEmail() {
	s.Require().NoError(s.svc.Settings.SaveSettings(s.ctx, &SaveSettingsInput{
		Email: &EmailSettingsInput{SMTPServer: "smtp.umt.ma", SMTPPort: 587, SMTPPassword: "stored"},
	}))

	s.Run("falls back to the stored password", func() {
		s.mailer.EXPECT().
			Send(gomock.Any(), mailer.Account{
				Host:     "smtp.umt.ma",
				Port:     587,
				Username: "bureau",
				Password: "stored",
				From:     "bureau@umt.ma",
			}, sentTo("admin@umt.ma")).
			Return(nil)

		s.NoError(s.svc.Settings.TestEmail(s.ctx, &EmailSettingsInput{
			SMTPServer: "smtp.umt.ma",
			SMTPPort:   587,
			SMTPUser:   "bureau",
			FromEmail:  "bureau@umt.ma",
		}, "admin@umt.ma"))
	})

	s.Run("mailer errors are returned", func() {
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(mailer.ErrNotConfigured)

		err := s.svc.Settings.TestEmail(s.ctx, &EmailSettingsInput{}, "admin@umt.ma")
		s.True(IsNotConfigured(err))
	})

	s.Run("delivery failure", func() {
		boom := errors.New("connection refused")
		s.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), gomock.Any()).Return(boom)

		err := s.svc.Settings.TestEmail(s.ctx, &EmailSettingsInput{SMTPServer: "smtp.umt.ma", SMTPPort: 25}, "admin@umt.ma")
		s.ErrorIs(err, boom)
		s.False(IsNotConfigured(err))
	})
}

func (s *ServiceSuite) TestPaymentMethods() {
	_, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{MethodName: "نقدا", MethodType: "cash"})
	s.Require().NoError(err)
	transfer, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{MethodName: "تحويل بنكي", MethodType: "bank"})
	s.Require().NoError(err)

	s.Run("name is required", func() {
		_, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{MethodName: "  "})
		s.requireValidation(err)
	})

	s.Run("renaming onto another method is refused", func() {
		_, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{ID: transfer.ID, MethodName: "نقدا"})
		s.requireValidation(err)
	})

	s.Run("saving by name updates in place", func() {
		updated, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{MethodName: "تحويل بنكي", Description: "CIH"})
		s.Require().NoError(err)
		s.Equal(transfer.ID, updated.ID)
	})

	s.Run("toggle refreshes the snapshot", func() {
		s.Require().NoError(s.svc.Settings.TogglePaymentMethod(s.ctx, "تحويل بنكي", false))

		rt, err := s.svc.Settings.Current(s.ctx)
		s.Require().NoError(err)
		s.Len(rt.Methods, 2)
		enabled := rt.EnabledMethods()
		s.Require().Len(enabled, 1)
		s.Equal("نقدا", enabled[0].MethodName)
	})
}
