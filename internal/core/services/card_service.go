package services

import (
	"context"
	"log"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/metrics"
)

// CardService handles membership cards
type CardService struct {
	clock
	store *repositories.Store
}

// NewCardService creates a new card service
func NewCardService(store *repositories.Store) *CardService {
	return &CardService{store: store}
}

// CardInput carries the client fields of save_membership_card
type CardInput struct {
	ID            uint           `json:"id"`
	MemberID      uint           `json:"member_id"`
	CardNumber    string         `json:"card_number"`
	IssueDate     *dateutil.Date `json:"issue_date"`
	ExpiryDate    *dateutil.Date `json:"expiry_date"`
	Status        string         `json:"status"`
	PaymentStatus string         `json:"payment_status"`
}

// Save validates and stores a card. An active paid card renews its member.
func (s *CardService) Save(ctx context.Context, input *CardInput) (*models.MembershipCard, error) {
	var card *models.MembershipCard

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		today := s.today()

		if input.ID != 0 {
			existing, err := tx.Cards.GetByID(ctx, input.ID)
			if err != nil {
				return err
			}
			card = existing
		} else {
			member, err := tx.Members.GetByID(ctx, input.MemberID)
			if err != nil {
				return err
			}
			card = &models.MembershipCard{
				MemberID:      member.ID,
				CardNumber:    member.CardNumber,
				IssueDate:     today,
				ExpiryDate:    dateutil.AddYears(today, rules.CardValidityYears),
				Status:        domain.CardActive,
				PaymentStatus: domain.PaymentUnpaid,
			}
		}

		if input.CardNumber != "" {
			card.CardNumber = input.CardNumber
		}
		if d := input.IssueDate.TimePtr(); d != nil {
			card.IssueDate = *d
		}
		if d := input.ExpiryDate.TimePtr(); d != nil {
			card.ExpiryDate = *d
		}
		switch input.Status {
		case "", card.Status:
		case domain.CardActive, domain.CardExpired, domain.CardCancelled:
			if card.Status == domain.CardCancelled {
				return domain.Validation(rules.MsgCardCancelled)
			}
			card.Status = input.Status
		default:
			return domain.Validation(rules.MsgCardStatusInvalid, input.Status)
		}
		switch input.PaymentStatus {
		case domain.PaymentPaid, domain.PaymentUnpaid:
			card.PaymentStatus = input.PaymentStatus
		case "":
		default:
			return domain.Validation("حالة الأداء غير صالحة: %s", input.PaymentStatus)
		}

		return s.save(ctx, tx, card, today)
	})
	return card, err
}

// save validates card and runs the update hook inside tx
func (s *CardService) save(ctx context.Context, tx *repositories.Store, card *models.MembershipCard, today time.Time) error {
	if err := rules.ValidateCard(card, today); err != nil {
		return err
	}
	if err := tx.Cards.Save(ctx, card); err != nil {
		return err
	}
	if card.Status == domain.CardActive && card.PaymentStatus == domain.PaymentPaid {
		return renewMember(ctx, tx, card, today)
	}
	return nil
}

// renewMember records the card's issue date as the member's last renewal
// and points the member at the card
func renewMember(ctx context.Context, tx *repositories.Store, card *models.MembershipCard, today time.Time) error {
	member, err := tx.Members.GetByID(ctx, card.MemberID)
	if err != nil {
		return err
	}
	member.LastRenewalDate = dateutil.Ptr(card.IssueDate)
	member.CurrentCardID = &card.ID
	member.CardExpiry = dateutil.Ptr(card.ExpiryDate)
	if status, ok := rules.MembershipStatus(member.LastRenewalDate, member.IsActive, today); ok {
		member.MembershipStatus = status
	}
	return tx.Members.Save(ctx, member)
}

// Delete removes a card that is not active
func (s *CardService) Delete(ctx context.Context, id uint) error {
	card, err := s.store.Cards.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := rules.CanDeleteCard(card); err != nil {
		return err
	}
	return s.store.Cards.Delete(ctx, id)
}

// IssueRenewalCard issues a new active card for member inside tx
func (s *CardService) IssueRenewalCard(ctx context.Context, tx *repositories.Store, member *models.Member, paid bool) (*models.MembershipCard, error) {
	today := s.today()
	card := &models.MembershipCard{
		MemberID:      member.ID,
		CardNumber:    member.CardNumber,
		IssueDate:     today,
		ExpiryDate:    dateutil.AddYears(today, rules.CardValidityYears),
		Status:        domain.CardActive,
		PaymentStatus: domain.PaymentUnpaid,
	}
	if paid {
		card.PaymentStatus = domain.PaymentPaid
	}
	if err := s.save(ctx, tx, card, today); err != nil {
		return nil, err
	}
	if err := tx.MemberLogs.Add(ctx, member.ID, ActivityRenewal, "بطاقة رقم "+card.CardNumber); err != nil {
		return nil, err
	}
	return card, nil
}

// ExpireCards moves active cards past their expiry to Expired and returns how many changed
func (s *CardService) ExpireCards(ctx context.Context) (int, error) {
	today := s.today()
	cards, err := s.store.Cards.ListActiveExpiredBefore(ctx, today)
	if err != nil {
		return 0, err
	}

	for i := range cards {
		cards[i].Status = rules.CardStatus(cards[i].Status, cards[i].ExpiryDate, today)
		if err := s.store.Cards.Save(ctx, &cards[i]); err != nil {
			return i, err
		}
	}

	if len(cards) > 0 {
		metrics.AddCardsExpired(len(cards))
		log.Printf("✅ Expired %d membership cards", len(cards))
	}
	return len(cards), nil
}

// ExpiringSoon returns active cards expiring within days, with their member
func (s *CardService) ExpiringSoon(ctx context.Context, days int) ([]models.MembershipCard, error) {
	today := s.today()
	return s.store.Cards.ListExpiringBetween(ctx, today, today.AddDate(0, 0, days))
}
