package services

import (
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/pagination"
	"unem-umt/internal/testutil"
)

func (s *ServiceSuite) TestMemberSave() {
	s.Run("new member gets a card number and an active card", func() {
		m := s.newMember("أحمد العلمي", "ahmed@example.ma")

		s.Equal("2026010001", m.CardNumber)
		s.Equal(domain.MembershipActive, m.MembershipStatus)
		s.Require().NotNil(m.MembershipDate)
		s.Equal(s.today, *m.MembershipDate)
		s.Require().NotNil(m.CurrentCardID)

		details, err := s.svc.Member.Get(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Require().Len(details.Cards, 1)
		card := details.Cards[0]
		s.Equal(m.CardNumber, card.CardNumber)
		s.Equal(domain.CardActive, card.Status)
		s.Equal(domain.PaymentUnpaid, card.PaymentStatus)
		s.Equal("2027-03-15", card.ExpiryDate.Format(dateutil.Layout))
		s.Len(details.Activities, 2)
	})

	s.Run("sequence counts other members of the province", func() {
		m := s.newMember("سعاد بناني", "")
		s.Equal("2026010002", m.CardNumber)
	})

	s.Run("unknown province uses code 00", func() {
		m, err := s.svc.Member.Save(s.ctx, &MemberInput{FullName: "يوسف", Province: ptr("غير معروف")})
		s.Require().NoError(err)
		s.Equal("2026000001", m.CardNumber)
	})

	s.Run("supplied card number skips card issue", func() {
		m, err := s.svc.Member.Save(s.ctx, &MemberInput{FullName: "كريم", CardNumber: "LEGACY-7"})
		s.Require().NoError(err)
		s.Equal("LEGACY-7", m.CardNumber)
		s.Nil(m.CurrentCardID)
	})

	s.Run("full name is required", func() {
		_, err := s.svc.Member.Save(s.ctx, &MemberInput{Province: ptr("عمالة طنجة")})
		s.requireValidation(err)
	})

	s.Run("future birth date is refused", func() {
		_, err := s.svc.Member.Save(s.ctx, &MemberInput{
			FullName:  "ليلى",
			BirthDate: s.date(s.today.AddDate(0, 0, 1)),
		})
		s.requireValidation(err)
	})

	s.Run("old renewal derives expired status", func() {
		m, err := s.svc.Member.Save(s.ctx, &MemberInput{
			FullName:        "عمر",
			CardNumber:      "OLD-1",
			LastRenewalDate: s.date(s.today.AddDate(-2, 0, 0)),
		})
		s.Require().NoError(err)
		s.Equal(domain.MembershipExpired, m.MembershipStatus)
	})

	s.Run("update keeps the card number", func() {
		m := s.newMember("حسن", "")
		updated, err := s.svc.Member.Save(s.ctx, &MemberInput{ID: m.ID, FullName: "حسن الإدريسي", Province: ptr("عمالة طنجة")})
		s.Require().NoError(err)
		s.Equal(m.CardNumber, updated.CardNumber)
		s.Equal("حسن الإدريسي", updated.FullName)
	})

	s.Run("update leaves omitted fields alone", func() {
		m, err := s.svc.Member.Save(s.ctx, &MemberInput{
			FullName:   "أحمد",
			Email:      ptr("ahmed@example.ma"),
			Phone:      ptr("0612345678"),
			Province:   ptr("عمالة طنجة"),
			BirthDate:  s.date(day(2000, time.May, 4)),
			IsActive:   ptr(true),
			NationalID: ptr("K123456"),
		})
		s.Require().NoError(err)

		_, err = s.svc.Member.Save(s.ctx, &MemberInput{ID: m.ID, FullName: "أحمد بن علي"})
		s.Require().NoError(err)

		got, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Equal("أحمد بن علي", got.FullName)
		s.Equal("ahmed@example.ma", got.Email)
		s.Equal("0612345678", got.Phone)
		s.Equal("K123456", got.NationalID)
		s.Equal("عمالة طنجة", got.Province)
		s.Require().NotNil(got.BirthDate)
		s.Equal("2000-05-04", got.BirthDate.Format(dateutil.Layout))
		s.True(got.IsActive)
	})

	s.Run("update without a name keeps it", func() {
		m := s.newMember("نزهة", "nozha@example.ma")
		updated, err := s.svc.Member.Save(s.ctx, &MemberInput{ID: m.ID, Phone: ptr(" 0700000000 ")})
		s.Require().NoError(err)
		s.Equal("نزهة", updated.FullName)
		s.Equal("0700000000", updated.Phone)
	})

	s.Run("an explicit empty value clears the field", func() {
		m := s.newMember("إدريس", "driss@example.ma")
		updated, err := s.svc.Member.Save(s.ctx, &MemberInput{ID: m.ID, Email: ptr("")})
		s.Require().NoError(err)
		s.Empty(updated.Email)
		s.Equal("عمالة طنجة", updated.Province)
	})
}

func (s *ServiceSuite) TestCardSequenceAfterDelete() {
	first := s.newMember("أحمد", "")
	second := s.newMember("سعاد", "")
	s.Equal("2026010002", second.CardNumber)

	s.Require().NoError(s.svc.Store.Members.Delete(s.ctx, first.ID))

	third := s.newMember("يوسف", "")
	s.Equal("2026010003", third.CardNumber)
}

func (s *ServiceSuite) TestMemberDelete() {
	s.Run("member with a card is refused", func() {
		m := s.newMember("أحمد", "")
		s.ErrorIs(s.svc.Member.Delete(s.ctx, m.ID), ErrMemberHasRecords)
	})

	s.Run("member without records is removed", func() {
		m, err := s.svc.Member.Save(s.ctx, &MemberInput{FullName: "سعيد", CardNumber: "X-1"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Member.Delete(s.ctx, m.ID))

		_, err = s.svc.Member.Get(s.ctx, m.ID)
		s.ErrorIs(err, domain.ErrNotFound)
	})

	s.Run("member holding a mandate is refused", func() {
		unem, err := s.svc.Member.Save(s.ctx, &MemberInput{FullName: "مراد", CardNumber: "X-2"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Store.UNEMStructures.Save(s.ctx, &models.UNEMStructure{
			MemberID:     unem.ID,
			PositionType: domain.PositionExecutive,
			Role:         "الكاتب الوطني",
			StartDate:    s.today,
			IsActive:     true,
		}))
		s.ErrorIs(s.svc.Member.Delete(s.ctx, unem.ID), ErrMemberHasRecords)

		mutual, err := s.svc.Member.Save(s.ctx, &MemberInput{FullName: "خديجة", CardNumber: "X-3"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Store.Mutuals.Save(s.ctx, &models.MutualStructure{
			MemberID:         mutual.ID,
			PositionType:     domain.PositionProvincial,
			Province:         "عمالة طنجة",
			MandateNumber:    "M-9",
			MandateStartDate: s.today,
			IsActive:         true,
		}))
		s.ErrorIs(s.svc.Member.Delete(s.ctx, mutual.ID), ErrMemberHasRecords)
	})

	s.Run("missing member", func() {
		s.ErrorIs(s.svc.Member.Delete(s.ctx, 9999), domain.ErrNotFound)
	})
}

func (s *ServiceSuite) TestMemberUpdateStatus() {
	m := s.newMember("نادية", "")

	s.Run("inactive clears the active flag", func() {
		updated, err := s.svc.Member.UpdateStatus(s.ctx, m.ID, domain.MembershipInactive)
		s.Require().NoError(err)
		s.False(updated.IsActive)
		s.Equal(domain.MembershipInactive, updated.MembershipStatus)
	})

	s.Run("active sets the flag again", func() {
		updated, err := s.svc.Member.UpdateStatus(s.ctx, m.ID, domain.MembershipActive)
		s.Require().NoError(err)
		s.True(updated.IsActive)
	})

	s.Run("unknown status", func() {
		_, err := s.svc.Member.UpdateStatus(s.ctx, m.ID, "Frozen")
		s.ErrorIs(err, ErrInvalidStatus)
	})

	s.Run("missing arguments", func() {
		_, err := s.svc.Member.UpdateStatus(s.ctx, 0, domain.MembershipActive)
		s.ErrorIs(err, ErrMemberStatusInput)
	})
}

func (s *ServiceSuite) TestMemberRefreshStatuses() {
	m, err := s.svc.Member.Save(s.ctx, &MemberInput{
		FullName:        "رشيد",
		CardNumber:      "R-1",
		LastRenewalDate: s.date(time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)
	s.Equal(domain.MembershipActive, m.MembershipStatus)

	s.svc.SetClock(testutil.Clock(2026, time.July, 1))
	changed, err := s.svc.Member.RefreshStatuses(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, changed)

	got, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(domain.MembershipExpired, got.MembershipStatus)
}

func (s *ServiceSuite) TestMemberPageAndExport() {
	s.newMember("أحمد", "")
	s.newMember("سعاد", "")

	page, err := s.svc.Member.PageContext(s.ctx,
		repositories.MemberFilter{Province: "عمالة طنجة"},
		&pagination.Params{Page: 1, Limit: 20})
	s.Require().NoError(err)
	s.Len(page.Members, 2)
	s.Len(page.Provinces, 1)

	data, err := s.svc.Member.Export(s.ctx, repositories.MemberFilter{})
	s.Require().NoError(err)
	s.NotEmpty(data)
}
