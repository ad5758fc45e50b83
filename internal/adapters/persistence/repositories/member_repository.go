package repositories

import (
	"context"
	"strconv"
	"strings"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"

	"gorm.io/gorm"
)

// MemberFilter narrows member listings and exports
type MemberFilter struct {
	Province     string `query:"province"`
	Status       string `query:"status"`
	AcademicYear string `query:"academic_year"`
	Search       string `query:"search"`
	FromDate     *time.Time
	ToDate       *time.Time
}

// MemberRepository persists members
type MemberRepository struct {
	baseRepository[models.Member]
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *gorm.DB) *MemberRepository {
	return &MemberRepository{baseRepository[models.Member]{db: db}}
}

func (r *MemberRepository) filtered(ctx context.Context, f MemberFilter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&models.Member{})
	if f.Province != "" {
		q = q.Where("province = ?", f.Province)
	}
	if f.Status != "" {
		q = q.Where("membership_status = ?", f.Status)
	}
	if f.AcademicYear != "" {
		q = q.Where("academic_year = ?", f.AcademicYear)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("full_name LIKE ? OR card_number LIKE ? OR national_id LIKE ?", like, like, like)
	}
	if f.FromDate != nil {
		q = q.Where("membership_date >= ?", *f.FromDate)
	}
	if f.ToDate != nil {
		q = q.Where("membership_date <= ?", *f.ToDate)
	}
	return q
}

// List returns one page of members, newest first
func (r *MemberRepository) List(ctx context.Context, f MemberFilter, offset, limit int) ([]models.Member, int64, error) {
	var members []models.Member
	var total int64

	if err := r.filtered(ctx, f).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.filtered(ctx, f).
		Order("created_at DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&members).Error
	return members, total, err
}

// FindAll returns every member matching f, newest first
func (r *MemberRepository) FindAll(ctx context.Context, f MemberFilter) ([]models.Member, error) {
	var members []models.Member
	err := r.filtered(ctx, f).Order("created_at DESC, id DESC").Find(&members).Error
	return members, err
}

// GetByEmail returns the member registered with email
func (r *MemberRepository) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var member models.Member
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&member).Error; err != nil {
		return nil, notFound(err)
	}
	return &member, nil
}

// CountInProvince counts members of a province other than excludeID
func (r *MemberRepository) CountInProvince(ctx context.Context, province string, excludeID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("province = ? AND id <> ?", province, excludeID).
		Count(&count).Error
	return count, err
}

// MaxCardSequence returns the highest four-digit sequence among generated
// card numbers ({year}{code}{seq}) of the province, ignoring excludeID
func (r *MemberRepository) MaxCardSequence(ctx context.Context, province, code string, excludeID uint) (int64, error) {
	var numbers []string
	err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("province = ? AND id <> ? AND card_number LIKE ?", province, excludeID, "____"+code+"____").
		Pluck("card_number", &numbers).Error
	if err != nil {
		return 0, err
	}

	var highest int64
	for _, n := range numbers {
		if len(n) != 8+len(code) || !strings.HasPrefix(n[4:], code) {
			continue
		}
		seq, err := strconv.ParseInt(n[len(n)-4:], 10, 64)
		if err != nil {
			continue
		}
		highest = max(highest, seq)
	}
	return highest, nil
}

// CountCreatedUntil counts members created on or before t
func (r *MemberRepository) CountCreatedUntil(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Member{}).
		Where("created_at <= ?", t).
		Count(&count).Error
	return count, err
}

// ListRenewed returns members that have a last renewal date
func (r *MemberRepository) ListRenewed(ctx context.Context) ([]models.Member, error) {
	var members []models.Member
	err := r.db.WithContext(ctx).Where("last_renewal_date IS NOT NULL").Find(&members).Error
	return members, err
}

// SetLastRenewal writes last_renewal_date without touching other columns
func (r *MemberRepository) SetLastRenewal(ctx context.Context, id uint, date time.Time) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", id).
		Update("last_renewal_date", date).Error
}

// SetStatus writes membership_status without touching other columns
func (r *MemberRepository) SetStatus(ctx context.Context, id uint, status string) error {
	return r.db.WithContext(ctx).Model(&models.Member{}).
		Where("id = ?", id).
		Update("membership_status", status).Error
}

// HasLinkedRecords reports whether cards, income entries or UNEM and
// Mutual mandates reference the member
func (r *MemberRepository) HasLinkedRecords(ctx context.Context, id uint) (bool, error) {
	for _, model := range []any{
		&models.MembershipCard{},
		&models.IncomeEntry{},
		&models.UNEMStructure{},
		&models.MutualStructure{},
	} {
		var count int64
		if err := r.db.WithContext(ctx).Model(model).Where("member_id = ?", id).Count(&count).Error; err != nil {
			return false, err
		}
		if count > 0 {
			return true, nil
		}
	}
	return false, nil
}

// ProvinceStatusCount is one (province, status) bucket
type ProvinceStatusCount struct {
	Province string
	Status   string
	Count    int64
}

// StatusCountsByProvince groups members matching f by province and status
func (r *MemberRepository) StatusCountsByProvince(ctx context.Context, f MemberFilter) ([]ProvinceStatusCount, error) {
	var rows []ProvinceStatusCount
	err := r.filtered(ctx, f).
		Select("province, membership_status AS status, COUNT(*) AS count").
		Group("province, membership_status").
		Scan(&rows).Error
	return rows, err
}

// CountByProvince returns member counts keyed by province
func (r *MemberRepository) CountByProvince(ctx context.Context) (map[string]int64, error) {
	rows, err := r.StatusCountsByProvince(ctx, MemberFilter{})
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64)
	for _, row := range rows {
		counts[row.Province] += row.Count
	}
	return counts, nil
}

// ============================================================
// Membership cards
// ============================================================

// CardRepository persists membership cards
type CardRepository struct {
	baseRepository[models.MembershipCard]
}

// NewCardRepository creates a new card repository
func NewCardRepository(db *gorm.DB) *CardRepository {
	return &CardRepository{baseRepository[models.MembershipCard]{db: db}}
}

// ListByMember returns a member's cards, newest first
func (r *CardRepository) ListByMember(ctx context.Context, memberID uint) ([]models.MembershipCard, error) {
	var cards []models.MembershipCard
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Find(&cards).Error
	return cards, err
}

// LatestActive returns the most recently created active card of a member
func (r *CardRepository) LatestActive(ctx context.Context, memberID uint) (*models.MembershipCard, error) {
	var card models.MembershipCard
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND status = ?", memberID, domain.CardActive).
		Order("created_at DESC, id DESC").
		First(&card).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &card, nil
}

// ListActiveExpiredBefore returns active cards whose expiry is before day
func (r *CardRepository) ListActiveExpiredBefore(ctx context.Context, day time.Time) ([]models.MembershipCard, error) {
	var cards []models.MembershipCard
	err := r.db.WithContext(ctx).
		Where("status = ? AND expiry_date < ?", domain.CardActive, day).
		Find(&cards).Error
	return cards, err
}

// ListExpiringBetween returns active cards expiring in [from, to] with their member
func (r *CardRepository) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.MembershipCard, error) {
	var cards []models.MembershipCard
	err := r.db.WithContext(ctx).
		Preload("Member").
		Where("status = ? AND expiry_date >= ? AND expiry_date <= ?", domain.CardActive, from, to).
		Order("expiry_date").
		Find(&cards).Error
	return cards, err
}

// CountActiveCreatedUntil counts active cards created on or before t
func (r *CardRepository) CountActiveCreatedUntil(ctx context.Context, t time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.MembershipCard{}).
		Where("status = ? AND created_at <= ?", domain.CardActive, t).
		Count(&count).Error
	return count, err
}

// ProvincePaymentCount is one (province, payment status) bucket of active cards
type ProvincePaymentCount struct {
	Province      string
	PaymentStatus string
	Count         int64
}

// ActivePaymentCountsByProvince groups active cards of members matching f
func (r *CardRepository) ActivePaymentCountsByProvince(ctx context.Context, f MemberFilter) ([]ProvincePaymentCount, error) {
	members := NewMemberRepository(r.db).filtered(ctx, f).Select("id")

	var rows []ProvincePaymentCount
	err := r.db.WithContext(ctx).
		Table("membership_cards AS c").
		Select("m.province AS province, c.payment_status AS payment_status, COUNT(*) AS count").
		Joins("JOIN members AS m ON m.id = c.member_id").
		Where("c.status = ? AND c.member_id IN (?)", domain.CardActive, members).
		Group("m.province, c.payment_status").
		Scan(&rows).Error
	return rows, err
}

// ============================================================
// Member activity log
// ============================================================

// MemberLogRepository persists member activity
type MemberLogRepository struct {
	baseRepository[models.MemberLog]
}

// NewMemberLogRepository creates a new member log repository
func NewMemberLogRepository(db *gorm.DB) *MemberLogRepository {
	return &MemberLogRepository{baseRepository[models.MemberLog]{db: db}}
}

// Add appends an activity for a member
func (r *MemberLogRepository) Add(ctx context.Context, memberID uint, activityType, description string) error {
	return r.db.WithContext(ctx).Create(&models.MemberLog{
		MemberID:     memberID,
		ActivityType: activityType,
		Description:  description,
	}).Error
}

// Recent returns the latest activities, optionally for one member (memberID 0 means all)
func (r *MemberLogRepository) Recent(ctx context.Context, memberID uint, limit int) ([]models.MemberLog, error) {
	var logs []models.MemberLog
	q := r.db.WithContext(ctx).Order("created_at DESC, id DESC").Limit(limit)
	if memberID != 0 {
		q = q.Where("member_id = ?", memberID)
	}
	err := q.Find(&logs).Error
	return logs, err
}

// ============================================================
// Renewal requests
// ============================================================

// RenewalRepository persists renewal requests
type RenewalRepository struct {
	baseRepository[models.MembershipRenewal]
}

// NewRenewalRepository creates a new renewal repository
func NewRenewalRepository(db *gorm.DB) *RenewalRepository {
	return &RenewalRepository{baseRepository[models.MembershipRenewal]{db: db}}
}

// ListByMember returns a member's renewal requests, newest first
func (r *RenewalRepository) ListByMember(ctx context.Context, memberID uint) ([]models.MembershipRenewal, error) {
	var renewals []models.MembershipRenewal
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("created_at DESC, id DESC").
		Find(&renewals).Error
	return renewals, err
}
