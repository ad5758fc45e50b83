package services

import (
	"time"

	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/testutil"
)

func (s *ServiceSuite) TestCardSave() {
	m := s.newMember("أحمد", "")

	s.Run("active paid card renews the member", func() {
		card, err := s.svc.Card.Save(s.ctx, &CardInput{ID: *m.CurrentCardID, PaymentStatus: domain.PaymentPaid})
		s.Require().NoError(err)
		s.Equal(domain.PaymentPaid, card.PaymentStatus)

		got, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
		s.Require().NoError(err)
		s.Require().NotNil(got.LastRenewalDate)
		s.Equal("2026-03-15", got.LastRenewalDate.Format(dateutil.Layout))
		s.Equal(domain.MembershipActive, got.MembershipStatus)
	})

	s.Run("new card defaults to one year", func() {
		card, err := s.svc.Card.Save(s.ctx, &CardInput{MemberID: m.ID})
		s.Require().NoError(err)
		s.Equal(m.CardNumber, card.CardNumber)
		s.Equal(domain.CardActive, card.Status)
		s.Equal("2027-03-15", card.ExpiryDate.Format(dateutil.Layout))
	})

	s.Run("past expiry is saved as expired", func() {
		card, err := s.svc.Card.Save(s.ctx, &CardInput{
			MemberID:   m.ID,
			IssueDate:  s.date(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
			ExpiryDate: s.date(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
		})
		s.Require().NoError(err)
		s.Equal(domain.CardExpired, card.Status)
	})

	s.Run("issue after expiry is refused", func() {
		_, err := s.svc.Card.Save(s.ctx, &CardInput{
			MemberID:   m.ID,
			IssueDate:  s.date(s.today),
			ExpiryDate: s.date(s.today.AddDate(0, 0, -1)),
		})
		s.requireValidation(err)
	})

	s.Run("unknown payment status is refused", func() {
		_, err := s.svc.Card.Save(s.ctx, &CardInput{MemberID: m.ID, PaymentStatus: "later"})
		s.requireValidation(err)
	})

	s.Run("cancelled stays cancelled", func() {
		card, err := s.svc.Card.Save(s.ctx, &CardInput{MemberID: m.ID, Status: domain.CardCancelled})
		s.Require().NoError(err)
		s.Equal(domain.CardCancelled, card.Status)

		_, err = s.svc.Card.Save(s.ctx, &CardInput{ID: card.ID, Status: domain.CardActive})
		s.requireValidation(err)
		s.Equal(rules.MsgCardCancelled, err.Error())

		got, err := s.svc.Store.Cards.GetByID(s.ctx, card.ID)
		s.Require().NoError(err)
		s.Equal(domain.CardCancelled, got.Status)

		again, err := s.svc.Card.Save(s.ctx, &CardInput{ID: card.ID, Status: domain.CardCancelled})
		s.Require().NoError(err)
		s.Equal(domain.CardCancelled, again.Status)
	})

	s.Run("unknown card status is refused", func() {
		_, err := s.svc.Card.Save(s.ctx, &CardInput{MemberID: m.ID, Status: "Frozen"})
		s.requireValidation(err)
	})
}

func (s *ServiceSuite) TestCardDelete() {
	m := s.newMember("سعاد", "")

	s.Run("active card is refused", func() {
		s.requireValidation(s.svc.Card.Delete(s.ctx, *m.CurrentCardID))
	})

	s.Run("expired card is removed", func() {
		card, err := s.svc.Card.Save(s.ctx, &CardInput{
			MemberID:   m.ID,
			IssueDate:  s.date(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
			ExpiryDate: s.date(time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)),
		})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Card.Delete(s.ctx, card.ID))

		_, err = s.svc.Store.Cards.GetByID(s.ctx, card.ID)
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *ServiceSuite) TestExpireCards() {
	m := s.newMember("يوسف", "")

	changed, err := s.svc.Card.ExpireCards(s.ctx)
	s.Require().NoError(err)
	s.Zero(changed)

	s.svc.SetClock(testutil.Clock(2027, time.March, 16))
	changed, err = s.svc.Card.ExpireCards(s.ctx)
	s.Require().NoError(err)
	s.Equal(1, changed)

	card, err := s.svc.Store.Cards.GetByID(s.ctx, *m.CurrentCardID)
	s.Require().NoError(err)
	s.Equal(domain.CardExpired, card.Status)
}

func (s *ServiceSuite) TestExpiringSoon() {
	s.newMember("ليلى", "layla@example.ma")

	cards, err := s.svc.Card.ExpiringSoon(s.ctx, 30)
	s.Require().NoError(err)
	s.Empty(cards)

	s.svc.SetClock(testutil.Clock(2027, time.March, 1))
	cards, err = s.svc.Card.ExpiringSoon(s.ctx, 30)
	s.Require().NoError(err)
	s.Require().Len(cards, 1)
	s.Require().NotNil(cards[0].Member)
	s.Equal("layla@example.ma", cards[0].Member.Email)
}
