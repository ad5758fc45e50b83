package services

import (
	"time"

	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
)

func (s *ServiceSuite) setFees(fee, late float64) {
	s.Require().NoError(s.svc.Settings.SaveSettings(s.ctx, &SaveSettingsInput{
		General: GeneralSettingsInput{MembershipFee: &fee, LateFee: &late},
	}))
}

func (s *ServiceSuite) TestMemberFor() {
	_, err := s.svc.Portal.MemberFor(s.ctx, "")
	s.ErrorIs(err, ErrLoginRequired)

	_, err = s.svc.Portal.MemberFor(s.ctx, "nobody@example.ma")
	s.ErrorIs(err, ErrMemberNotFound)

	m := s.newMember("أحمد", "ahmed@example.ma")
	got, err := s.svc.Portal.MemberFor(s.ctx, "ahmed@example.ma")
	s.Require().NoError(err)
	s.Equal(m.ID, got.ID)
}

func (s *ServiceSuite) TestPortal() {
	s.Run("user without a member gets an empty page", func() {
		page, err := s.svc.Portal.Portal(s.ctx, "staff@umt.ma")
		s.Require().NoError(err)
		s.Nil(page.Member)
		s.Empty(page.Activities)
	})

	s.Run("member sees payments and log entries", func() {
		m := s.newMember("أحمد", "ahmed@example.ma")
		s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(m.ID, 100)))

		page, err := s.svc.Portal.Portal(s.ctx, "ahmed@example.ma")
		s.Require().NoError(err)
		s.Equal(m.ID, page.Member.ID)
		s.Len(page.Activities, 3)
	})
}

func (s *ServiceSuite) TestRenewalContext() {
	s.setFees(100, 25)
	_, err := s.svc.Settings.SavePaymentMethod(s.ctx, &PaymentMethodInput{MethodName: domain.CashPaymentMethod, MethodType: "cash"})
	s.Require().NoError(err)

	s.newMember("أحمد", "ahmed@example.ma")
	_, err = s.svc.Member.Save(s.ctx, &MemberInput{
		FullName:        "سعاد",
		Email:           ptr("souad@example.ma"),
		Province:        ptr("عمالة طنجة"),
		LastRenewalDate: s.date(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)

	active, err := s.svc.Portal.RenewalContext(s.ctx, "ahmed@example.ma")
	s.Require().NoError(err)
	s.Equal(100.0, active.RenewalFee)
	s.Len(active.PaymentMethods, 1)

	expired, err := s.svc.Portal.RenewalContext(s.ctx, "souad@example.ma")
	s.Require().NoError(err)
	s.Equal(domain.MembershipExpired, expired.Member.MembershipStatus)
	s.Equal(125.0, expired.RenewalFee)
}

func (s *ServiceSuite) TestSubmitRenewalWithoutFee() {
	m := s.newMember("أحمد", "ahmed@example.ma")

	_, err := s.svc.Portal.SubmitRenewal(s.ctx, "ahmed@example.ma", &RenewalInput{PaymentMethod: "تحويل بنكي"})
	s.requireValidation(err)
	s.Equal(rules.MsgAmountNotPositive, err.Error())

	renewals, err := s.svc.Store.Renewals.ListByMember(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Empty(renewals)
}

func (s *ServiceSuite) TestSubmitRenewal() {
	s.setFees(100, 0)

	s.Run("payment method is required", func() {
		_, err := s.svc.Portal.SubmitRenewal(s.ctx, "ahmed@example.ma", &RenewalInput{})
		s.ErrorIs(err, ErrPaymentMethodEmpty)
	})

	s.Run("cash renewal is approved at once", func() {
		m := s.newMember("أحمد", "ahmed@example.ma")
		s.svc.SetClock(func() time.Time { return time.Date(2026, time.June, 1, 10, 0, 0, 0, time.UTC) })

		renewal, err := s.svc.Portal.SubmitRenewal(s.ctx, "ahmed@example.ma", &RenewalInput{PaymentMethod: domain.CashPaymentMethod})
		s.Require().NoError(err)
		s.Equal(domain.RenewalApproved, renewal.Status)
		s.Equal(100.0, renewal.Amount)
		s.Require().NotNil(renewal.IncomeEntryID)

		entry, err := s.svc.Store.Income.GetByID(s.ctx, *renewal.IncomeEntryID)
		s.Require().NoError(err)
		s.Equal(domain.DocSubmitted, entry.DocStatus)
		s.Equal(domain.EntryApproved, entry.Status)
		s.Equal(domain.IncomeCardFee, entry.EntryType)

		member, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Require().NotNil(member.LastRenewalDate)
		s.Equal("2026-06-01", member.LastRenewalDate.Format("2006-01-02"))
		s.NotEqual(*m.CurrentCardID, *member.CurrentCardID)

		card, err := s.svc.Store.Cards.GetByID(s.ctx, *member.CurrentCardID)
		s.Require().NoError(err)
		s.Equal(domain.PaymentPaid, card.PaymentStatus)
	})

	s.Run("transfer waits for review", func() {
		m := s.newMember("سعاد", "souad@example.ma")

		renewal, err := s.svc.Portal.SubmitRenewal(s.ctx, "souad@example.ma", &RenewalInput{
			PaymentMethod:  "تحويل بنكي",
			TransactionRef: "VIR-778",
		})
		s.Require().NoError(err)
		s.Equal(domain.RenewalPending, renewal.Status)
		s.Equal("VIR-778", renewal.TransactionReference)

		entry, err := s.svc.Store.Income.GetByID(s.ctx, *renewal.IncomeEntryID)
		s.Require().NoError(err)
		s.Equal(domain.DocDraft, entry.DocStatus)
		s.Equal(m.ID, *entry.MemberID)

		member, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal(*m.CurrentCardID, *member.CurrentCardID)
	})
}
