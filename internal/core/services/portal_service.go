package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
)

// Portal errors
var (
	ErrMemberNotFound     = errors.New("عضو غير موجود")
	ErrLoginRequired      = errors.New("يرجى تسجيل الدخول أولاً")
	ErrPaymentMethodEmpty = errors.New("يرجى اختيار طريقة الدفع")
)

// MsgRenewalSubmitted confirms a renewal request
const MsgRenewalSubmitted = "تم تقديم طلب التجديد بنجاح"

// portalActivityLimit caps the member portal activity feed
const portalActivityLimit = 5

// PortalService serves the member portal and renewal flow
type PortalService struct {
	clock
	store    *repositories.Store
	settings *SettingsService
	finance  *FinanceService
	cards    *CardService
	notify   *NotificationService
}

// NewPortalService creates a new portal service
func NewPortalService(
	store *repositories.Store,
	settings *SettingsService,
	finance *FinanceService,
	cards *CardService,
	notify *NotificationService,
) *PortalService {
	return &PortalService{store: store, settings: settings, finance: finance, cards: cards, notify: notify}
}

// SetClock overrides the time source of the portal and the services it drives
func (s *PortalService) SetClock(now func() time.Time) {
	s.clock.SetClock(now)
	s.finance.SetClock(now)
	s.cards.SetClock(now)
}

// MemberFor resolves the member registered with the user's email
func (s *PortalService) MemberFor(ctx context.Context, email string) (*models.Member, error) {
	if email == "" {
		return nil, ErrLoginRequired
	}
	member, err := s.store.Members.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return member, nil
}

// ============================================================
// Member portal
// ============================================================

// PortalActivity is one line of the member's activity feed
type PortalActivity struct {
	Date        time.Time `json:"date"`
	Description string    `json:"description"`
}

// MemberPortal is the member portal context
type MemberPortal struct {
	Member     *models.Member   `json:"member"`
	Activities []PortalActivity `json:"activities"`
}

// Portal returns the member's information and latest activities. A user
// without a member record gets an empty context.
func (s *PortalService) Portal(ctx context.Context, email string) (*MemberPortal, error) {
	member, err := s.MemberFor(ctx, email)
	if err != nil {
		if errors.Is(err, ErrMemberNotFound) {
			return &MemberPortal{Activities: []PortalActivity{}}, nil
		}
		return nil, err
	}

	logs, err := s.store.MemberLogs.Recent(ctx, member.ID, portalActivityLimit)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Income.RecentSubmitted(ctx, member.ID, portalActivityLimit)
	if err != nil {
		return nil, err
	}

	activities := make([]PortalActivity, 0, len(logs)+len(payments))
	for _, p := range payments {
		activities = append(activities, PortalActivity{
			Date:        p.PostingDate,
			Description: fmt.Sprintf("دفع %s درهم - %s", formatAmount(p.Amount), p.EntryType),
		})
	}
	for _, l := range logs {
		activities = append(activities, PortalActivity{Date: l.CreatedAt, Description: l.Description})
	}
	sort.SliceStable(activities, func(i, j int) bool { return activities[i].Date.After(activities[j].Date) })
	if len(activities) > portalActivityLimit {
		activities = activities[:portalActivityLimit]
	}

	return &MemberPortal{Member: member, Activities: activities}, nil
}

// ============================================================
// Renewal
// ============================================================

// BankInfo is the transfer destination shown on the renewal page
type BankInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	Beneficiary   string `json:"beneficiary"`
}

// RenewalContext is the renewal page context
type RenewalContext struct {
	Member         *models.Member         `json:"member"`
	RenewalFee     float64                `json:"renewal_fee"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	BankInfo       BankInfo               `json:"bank_info"`
}

// RenewalFee is the membership fee plus the late fee for expired members
func RenewalFee(system *models.SystemSettings, member *models.Member) float64 {
	fee := system.MembershipFee
	if member.MembershipStatus == domain.MembershipExpired {
		fee += system.LateFee
	}
	return fee
}

// RenewalContext builds the renewal page for the logged-in member
func (s *PortalService) RenewalContext(ctx context.Context, email string) (*RenewalContext, error) {
	member, err := s.MemberFor(ctx, email)
	if err != nil {
		return nil, err
	}
	rt, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	return &RenewalContext{
		Member:         member,
		RenewalFee:     RenewalFee(&rt.System, member),
		PaymentMethods: rt.EnabledMethods(),
		BankInfo: BankInfo{
			BankName:      rt.System.BankName,
			AccountNumber: rt.System.BankAccount,
			Beneficiary:   rt.System.OrganizationName,
		},
	}, nil
}

// RenewalInput carries the fields of submit_renewal
type RenewalInput struct {
	PaymentMethod  string `json:"payment_method"`
	TransactionRef string `json:"transaction_ref"`
	Receipt        string `json:"receipt"`
}

// isCash reports whether a payment method settles on the spot
func isCash(method string) bool {
	return method == domain.CashPaymentMethod || method == "cash"
}

// SubmitRenewal records a renewal request with its card-fee income entry.
// Cash renewals are approved at once: the entry is submitted and a paid
// card is issued.
func (s *PortalService) SubmitRenewal(ctx context.Context, email string, input *RenewalInput) (*models.MembershipRenewal, error) {
	if input.PaymentMethod == "" {
		return nil, ErrPaymentMethodEmpty
	}
	member, err := s.MemberFor(ctx, email)
	if err != nil {
		return nil, err
	}
	rt, err := s.settings.Current(ctx)
	if err != nil {
		return nil, err
	}

	today := s.today()
	renewal := &models.MembershipRenewal{
		MemberID:             member.ID,
		PaymentMethod:        input.PaymentMethod,
		Amount:               RenewalFee(&rt.System, member),
		TransactionReference: input.TransactionRef,
		PaymentReceipt:       input.Receipt,
		Status:               domain.RenewalPending,
	}

	var entry *models.IncomeEntry
	err = s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if err := tx.Renewals.Save(ctx, renewal); err != nil {
			return err
		}

		year, err := tx.Settings.GetDefault(ctx, domain.DefaultCurrentAcademicYear)
		if err != nil {
			return err
		}
		entry = &models.IncomeEntry{
			Name:          newEntryName("INC", today),
			EntryType:     domain.IncomeCardFee,
			MemberID:      &member.ID,
			Amount:        renewal.Amount,
			PostingDate:   today,
			PaymentDate:   &today,
			PaymentMethod: input.PaymentMethod,
			Description:   fmt.Sprintf("تجديد العضوية - %d", renewal.ID),
			AcademicYear:  year,
			Status:        domain.EntryPending,
			DocStatus:     domain.DocDraft,
			Owner:         email,
		}
		if err := rules.ValidateIncome(entry, today); err != nil {
			return err
		}
		if err := tx.Income.Save(ctx, entry); err != nil {
			return err
		}
		renewal.IncomeEntryID = &entry.ID

		if isCash(input.PaymentMethod) {
			if _, err := s.cards.IssueRenewalCard(ctx, tx, member, true); err != nil {
				return err
			}
			entry.Status = domain.EntryApproved
			if err := tx.Income.Save(ctx, entry); err != nil {
				return err
			}
			if entry, _, err = s.finance.submitIncome(ctx, tx, entry.Name); err != nil {
				return err
			}
			renewal.Status = domain.RenewalApproved
		}
		return tx.Renewals.Save(ctx, renewal)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📝 Renewal request %d submitted by %s (%s)", renewal.ID, email, renewal.Status)
	if renewal.Status == domain.RenewalApproved && s.notify != nil {
		s.notify.NotifyPaymentReceived(ctx, entry, member)
	}
	return renewal, nil
}
