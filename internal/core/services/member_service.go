package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/metrics"
	"unem-umt/internal/pkg/pagination"
	"unem-umt/internal/pkg/xlsx"
)

// Member service errors
var (
	ErrMemberHasRecords  = errors.New("لا يمكن حذف العضو لوجود سجلات مرتبطة به")
	ErrMemberIDRequired  = errors.New("Member ID is required")
	ErrMemberStatusInput = errors.New("Member ID and status are required")
	ErrInvalidStatus     = errors.New("حالة العضوية غير صالحة")
)

// Member messages
const (
	MsgMemberSaved   = "تم حفظ العضو بنجاح"
	MsgMemberDeleted = "تم حذف العضو بنجاح"
)

// Member activity types
const (
	ActivityRegistration = "تسجيل"
	ActivityCardIssued   = "إصدار بطاقة"
	ActivityRenewal      = "تجديد"
	ActivityStatusChange = "تغيير الحالة"
)

// MemberService handles member registration and lifecycle
type MemberService struct {
	clock
	store  *repositories.Store
	notify *NotificationService
}

// NewMemberService creates a new member service
func NewMemberService(store *repositories.Store, notify *NotificationService) *MemberService {
	return &MemberService{store: store, notify: notify}
}

// MemberInput carries the client fields of save_member. Nil fields are
// left untouched on update, so clients send only what changed.
type MemberInput struct {
	ID              uint           `json:"id"`
	FullName        string         `json:"full_name"`
	Email           *string        `json:"email"`
	Phone           *string        `json:"phone"`
	NationalID      *string        `json:"national_id"`
	BirthDate       *dateutil.Date `json:"birth_date"`
	Province        *string        `json:"province"`
	AcademicYear    *string        `json:"academic_year"`
	MembershipDate  *dateutil.Date `json:"membership_date"`
	LastRenewalDate *dateutil.Date `json:"last_renewal_date"`
	IsActive        *bool          `json:"is_active"`
	CardNumber      string         `json:"card_number"`
}

func trimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func (in *MemberInput) apply(m *models.Member) {
	if name := strings.TrimSpace(in.FullName); name != "" {
		m.FullName = name
	}
	trimmed(&m.Email, in.Email)
	trimmed(&m.Phone, in.Phone)
	trimmed(&m.NationalID, in.NationalID)
	trimmed(&m.Province, in.Province)
	trimmed(&m.AcademicYear, in.AcademicYear)
	if in.BirthDate != nil {
		m.BirthDate = in.BirthDate.TimePtr()
	}
	if d := in.MembershipDate.TimePtr(); d != nil {
		m.MembershipDate = d
	}
	if d := in.LastRenewalDate.TimePtr(); d != nil {
		m.LastRenewalDate = d
	}
	if in.IsActive != nil {
		m.IsActive = *in.IsActive
	}
	if in.CardNumber != "" {
		m.CardNumber = in.CardNumber
	}
}

// Save creates or updates a member. A new member without a card number
// receives a generated number and an active card in the same transaction.
func (s *MemberService) Save(ctx context.Context, input *MemberInput) (*models.Member, error) {
	var member *models.Member
	created := false

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if input.ID != 0 {
			existing, err := tx.Members.GetByID(ctx, input.ID)
			if err != nil {
				return err
			}
			member = existing
		} else {
			member = &models.Member{IsActive: true, MembershipStatus: domain.MembershipActive}
			created = true
		}
		input.apply(member)
		if member.FullName == "" {
			return domain.Validation("الإسم الكامل مطلوب")
		}

		today := s.today()
		if err := rules.ValidateMember(member, today); err != nil {
			return err
		}
		if status, ok := rules.MembershipStatus(member.LastRenewalDate, member.IsActive, today); ok {
			member.MembershipStatus = status
		} else if member.MembershipStatus == "" {
			member.MembershipStatus = domain.MembershipActive
		}

		if err := tx.Members.Save(ctx, member); err != nil {
			return err
		}
		if created {
			return s.afterInsert(ctx, tx, member, today)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if created {
		metrics.IncMemberCreated()
		log.Printf("✅ Member registered: %s (%s)", member.FullName, member.CardNumber)
		if s.notify != nil {
			s.notify.NotifyNewMember(ctx, member)
		}
	}
	return member, nil
}

// afterInsert generates the card number and issues the first card
func (s *MemberService) afterInsert(ctx context.Context, tx *repositories.Store, m *models.Member, today time.Time) error {
	if m.CardNumber == "" {
		code, err := tx.Provinces.CodeFor(ctx, m.Province)
		if err != nil {
			return err
		}
		others, err := tx.Members.CountInProvince(ctx, m.Province, m.ID)
		if err != nil {
			return err
		}
		// a sequence is never reused after a member is deleted
		highest, err := tx.Members.MaxCardSequence(ctx, m.Province, cardCode(code), m.ID)
		if err != nil {
			return err
		}
		m.CardNumber = rules.FormatCardNumber(today.Year(), code, max(others, highest)+1)

		card := &models.MembershipCard{
			MemberID:      m.ID,
			CardNumber:    m.CardNumber,
			IssueDate:     today,
			ExpiryDate:    dateutil.AddYears(today, rules.CardValidityYears),
			Status:        domain.CardActive,
			PaymentStatus: domain.PaymentUnpaid,
		}
		if err := tx.Cards.Save(ctx, card); err != nil {
			return fmt.Errorf("issue card: %w", err)
		}
		m.CurrentCardID = &card.ID
		m.CardExpiry = dateutil.Ptr(card.ExpiryDate)
		if err := tx.Members.Save(ctx, m); err != nil {
			return err
		}
		if err := tx.MemberLogs.Add(ctx, m.ID, ActivityCardIssued, "بطاقة رقم "+m.CardNumber); err != nil {
			return err
		}
	}
	return tx.MemberLogs.Add(ctx, m.ID, ActivityRegistration, "تسجيل العضو "+m.FullName)
}

// cardCode is the province code as it appears in generated card numbers
func cardCode(code string) string {
	if code == "" {
		return "00"
	}
	return code
}

// MemberDetails is a member with its cards and latest activity
type MemberDetails struct {
	*models.Member
	Cards      []models.MembershipCard `json:"cards"`
	Activities []models.MemberLog      `json:"activities"`
}

// Get returns a member with its cards
func (s *MemberService) Get(ctx context.Context, id uint) (*MemberDetails, error) {
	if id == 0 {
		return nil, ErrMemberIDRequired
	}
	member, err := s.store.Members.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	cards, err := s.store.Cards.ListByMember(ctx, id)
	if err != nil {
		return nil, err
	}
	activities, err := s.store.MemberLogs.Recent(ctx, id, 10)
	if err != nil {
		return nil, err
	}
	return &MemberDetails{Member: member, Cards: cards, Activities: activities}, nil
}

// Delete removes a member that has no cards or finance entries
func (s *MemberService) Delete(ctx context.Context, id uint) error {
	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if _, err := tx.Members.GetByID(ctx, id); err != nil {
			return err
		}
		linked, err := tx.Members.HasLinkedRecords(ctx, id)
		if err != nil {
			return err
		}
		if linked {
			return ErrMemberHasRecords
		}
		if err := tx.DB().WithContext(ctx).Where("member_id = ?", id).Delete(&models.MemberLog{}).Error; err != nil {
			return err
		}
		return tx.Members.Delete(ctx, id)
	})
}

// UpdateStatus sets the membership status through the regular save path
func (s *MemberService) UpdateStatus(ctx context.Context, id uint, status string) (*models.Member, error) {
	if id == 0 || status == "" {
		return nil, ErrMemberStatusInput
	}

	var member *models.Member
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		m, err := tx.Members.GetByID(ctx, id)
		if err != nil {
			return err
		}
		switch status {
		case domain.MembershipActive:
			m.IsActive = true
		case domain.MembershipInactive:
			m.IsActive = false
		case domain.MembershipExpired:
		default:
			return ErrInvalidStatus
		}
		m.MembershipStatus = status

		today := s.today()
		if err := rules.ValidateMember(m, today); err != nil {
			return err
		}
		if derived, ok := rules.MembershipStatus(m.LastRenewalDate, m.IsActive, today); ok {
			m.MembershipStatus = derived
		}
		if err := tx.Members.Save(ctx, m); err != nil {
			return err
		}
		member = m
		return tx.MemberLogs.Add(ctx, m.ID, ActivityStatusChange, m.MembershipStatus)
	})
	return member, err
}

// RefreshStatuses recomputes the status of every renewed member and
// returns how many changed
func (s *MemberService) RefreshStatuses(ctx context.Context) (int, error) {
	members, err := s.store.Members.ListRenewed(ctx)
	if err != nil {
		return 0, err
	}

	today := s.today()
	changed := 0
	for _, m := range members {
		status, ok := rules.MembershipStatus(m.LastRenewalDate, m.IsActive, today)
		if !ok || status == m.MembershipStatus {
			continue
		}
		if err := s.store.Members.SetStatus(ctx, m.ID, status); err != nil {
			return changed, err
		}
		changed++
	}
	return changed, nil
}

// ============================================================
// Members page
// ============================================================

// MembersPage is the member management page context
type MembersPage struct {
	Members       []models.Member       `json:"members"`
	Provinces     []models.Province     `json:"provinces"`
	AcademicYears []models.AcademicYear `json:"academic_years"`
	Pagination    *pagination.Meta      `json:"pagination"`
}

// PageContext lists one page of members with the filter choices
func (s *MemberService) PageContext(ctx context.Context, f repositories.MemberFilter, params *pagination.Params) (*MembersPage, error) {
	members, total, err := s.store.Members.List(ctx, f, params.Offset, params.Limit)
	if err != nil {
		return nil, err
	}
	provinces, err := s.store.Provinces.List(ctx)
	if err != nil {
		return nil, err
	}
	years, err := s.store.AcademicYears.List(ctx)
	if err != nil {
		return nil, err
	}

	return &MembersPage{
		Members:       members,
		Provinces:     provinces,
		AcademicYears: years,
		Pagination:    pagination.GetMeta(params, total),
	}, nil
}

// MembersExportSheet and MembersExportFile name the member export
const (
	MembersExportSheet = "Member Export"
	MembersExportFile  = "members_export.xlsx"
)

// Export renders the members matching f as a spreadsheet
func (s *MemberService) Export(ctx context.Context, f repositories.MemberFilter) ([]byte, error) {
	members, err := s.store.Members.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}

	headers := []string{"رقم العضوية", "الإسم الكامل", "الإقليم", "حالة العضوية", "رقم البطاقة", "تاريخ الإنضمام"}
	rows := make([][]interface{}, 0, len(members))
	for _, m := range members {
		rows = append(rows, []interface{}{
			m.ID,
			m.FullName,
			m.Province,
			m.MembershipStatus,
			m.CardNumber,
			dateutil.Format(m.MembershipDate),
		})
	}
	return xlsx.Write(MembersExportSheet, headers, rows)
}
