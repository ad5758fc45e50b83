// Package rules holds the field validation and status derivation rules of
// the membership records. Functions are pure: they take the record and the
// current date and either fail with a domain.ValidationError or adjust
// derived fields in place.
package rules

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"
)

// CardValidityYears is how long a membership card stays valid
const CardValidityYears = 1

// MandateYears is the default length of a mutual mandate
const MandateYears = 4

// afterDay reports whether a falls on a later calendar day than b
func afterDay(a, b time.Time) bool {
	return dateutil.Truncate(a).After(dateutil.Truncate(b))
}

func beforeDay(a, b time.Time) bool {
	return dateutil.Truncate(a).Before(dateutil.Truncate(b))
}

// ============================================================
// Member
// ============================================================

// ValidateMember checks member dates and defaults the membership date
func ValidateMember(m *models.Member, today time.Time) error {
	if m.BirthDate != nil && afterDay(*m.BirthDate, today) {
		return domain.Validation(MsgBirthDateFuture)
	}
	if m.LastRenewalDate != nil && afterDay(*m.LastRenewalDate, today) {
		return domain.Validation(MsgRenewalDateFuture)
	}
	if m.MembershipDate == nil {
		m.MembershipDate = dateutil.Ptr(dateutil.Truncate(today))
	}
	return nil
}

// MembershipStatus derives a member's status from the last renewal.
// ok is false when the member was never renewed and the status is left alone.
func MembershipStatus(lastRenewal *time.Time, isActive bool, today time.Time) (status string, ok bool) {
	if lastRenewal == nil {
		return "", false
	}
	if afterDay(today, dateutil.AddYears(*lastRenewal, CardValidityYears)) {
		return domain.MembershipExpired, true
	}
	if !isActive {
		return domain.MembershipInactive, true
	}
	return domain.MembershipActive, true
}

// FormatCardNumber builds "{year}{province code}{seq:04d}"
func FormatCardNumber(year int, provinceCode string, seq int64) string {
	if provinceCode == "" {
		provinceCode = "00"
	}
	return fmt.Sprintf("%d%s%04d", year, provinceCode, seq)
}

// ============================================================
// Membership card
// ============================================================

// ValidateCard checks card dates and refreshes its status
func ValidateCard(c *models.MembershipCard, today time.Time) error {
	if afterDay(c.IssueDate, c.ExpiryDate) {
		return domain.Validation(MsgIssueAfterExpiry)
	}
	if afterDay(c.IssueDate, today) {
		return domain.Validation(MsgIssueDateFuture)
	}
	c.Status = CardStatus(c.Status, c.ExpiryDate, today)
	return nil
}

// CardStatus returns Expired once expiry has passed, otherwise Active.
// Cancelled is terminal.
func CardStatus(current string, expiry, today time.Time) string {
	if current == domain.CardCancelled {
		return domain.CardCancelled
	}
	if beforeDay(expiry, today) {
		return domain.CardExpired
	}
	return domain.CardActive
}

// CanDeleteCard refuses deletion of active cards
func CanDeleteCard(c *models.MembershipCard) error {
	if c.Status == domain.CardActive {
		return domain.Validation(MsgActiveCardDelete)
	}
	return nil
}

// ============================================================
// Academic year
// ============================================================

// ValidateAcademicYearDates requires start strictly before end
func ValidateAcademicYearDates(y *models.AcademicYear) error {
	if !beforeDay(y.StartDate, y.EndDate) {
		return domain.Validation(MsgStartAfterEnd)
	}
	return nil
}

// Overlaps reports whether the closed intervals [aStart, aEnd] and [bStart, bEnd] intersect
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !afterDay(aStart, bEnd) && !afterDay(bStart, aEnd)
}

// OverlapError builds the overlap failure listing the clashing year names
func OverlapError(names []string) error {
	return domain.Validation(MsgYearsOverlap, strings.Join(names, ", "))
}

// NextAcademicYear derives the following year: "2024-2025" becomes
// "2025-2026" with both dates moved one year forward. The result is inactive.
func NextAcademicYear(y *models.AcademicYear) (*models.AcademicYear, error) {
	parts := strings.Split(y.YearName, "-")
	if len(parts) != 2 {
		return nil, domain.Validation("صيغة السنة الدراسية غير صحيحة: %s", y.YearName)
	}
	first, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	second, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err1 != nil || err2 != nil {
		return nil, domain.Validation("صيغة السنة الدراسية غير صحيحة: %s", y.YearName)
	}

	return &models.AcademicYear{
		YearName:  fmt.Sprintf("%d-%d", first+1, second+1),
		StartDate: dateutil.AddYears(y.StartDate, 1),
		EndDate:   dateutil.AddYears(y.EndDate, 1),
		IsActive:  false,
	}, nil
}

// ============================================================
// Structures
// ============================================================

// unemManagerRoles are the executive roles that carry the UNEM Manager grant
var unemManagerRoles = map[string]bool{
	"الكاتب الوطني":      true,
	"نائب الكاتب الوطني": true,
	"الكاتب العام":       true,
	"أمين المال":         true,
}

// mutualManagerRoles are the executive roles that carry the Mutual Manager grant
var mutualManagerRoles = map[string]bool{
	"الرئيس":       true,
	"نائب الرئيس":  true,
	"الكاتب العام": true,
	"أمين المال":   true,
}

// ValidatePositionScope enforces the region/province requirements of each position type
func ValidatePositionScope(positionType, region, province string) error {
	switch positionType {
	case domain.PositionExecutive:
		if region != "" || province != "" {
			return domain.Validation(MsgExecutiveScoped)
		}
	case domain.PositionRegional:
		if region == "" {
			return domain.Validation(MsgRegionRequired)
		}
	case domain.PositionProvincial, domain.PositionLocal:
		if province == "" {
			return domain.Validation(MsgProvinceRequired)
		}
	}
	return nil
}

// ValidateUNEMStructure checks dates and scoping, then deactivates ended terms
func ValidateUNEMStructure(s *models.UNEMStructure, today time.Time) error {
	if s.EndDate != nil && afterDay(s.StartDate, *s.EndDate) {
		return domain.Validation(MsgStartAfterEnd)
	}
	if afterDay(s.StartDate, today) {
		return domain.Validation(MsgStartDateFuture)
	}
	if err := ValidatePositionScope(s.PositionType, s.Region, s.Province); err != nil {
		return err
	}
	if s.EndDate != nil && beforeDay(*s.EndDate, today) {
		s.IsActive = false
	}
	return nil
}

// ValidateMutualStructure checks mandate dates, defaults the end to four
// years after the start, requires a role for the executive office and
// deactivates ended mandates. Mandate-number uniqueness needs the store
// and is checked by the caller.
func ValidateMutualStructure(s *models.MutualStructure, today time.Time) error {
	if s.MandateEndDate != nil && afterDay(s.MandateStartDate, *s.MandateEndDate) {
		return domain.Validation(MsgMandateStartAfterEnd)
	}
	if afterDay(s.MandateStartDate, today) {
		return domain.Validation(MsgMandateStartFuture)
	}
	if s.MandateEndDate == nil {
		s.MandateEndDate = dateutil.Ptr(dateutil.AddYears(s.MandateStartDate, MandateYears))
	}
	if err := ValidatePositionScope(s.PositionType, s.Region, s.Province); err != nil {
		return err
	}
	if s.PositionType == domain.PositionExecutive && s.Role == "" {
		return domain.Validation(MsgExecutiveRoleRequired)
	}
	if beforeDay(*s.MandateEndDate, today) {
		s.IsActive = false
	}
	return nil
}

// RoleChange is the outcome of role propagation for a structure record
type RoleChange int

const (
	RoleUnchanged RoleChange = iota
	RoleGrant
	RoleRevoke
)

// UNEMRoleChange decides the UNEM Manager grant for a structure record
func UNEMRoleChange(s *models.UNEMStructure) RoleChange {
	return roleChange(s.IsActive, s.PositionType, s.Role, unemManagerRoles)
}

// MutualRoleChange decides the Mutual Manager grant for a structure record
func MutualRoleChange(s *models.MutualStructure) RoleChange {
	return roleChange(s.IsActive, s.PositionType, s.Role, mutualManagerRoles)
}

func roleChange(active bool, positionType, role string, privileged map[string]bool) RoleChange {
	if !active {
		return RoleRevoke
	}
	if positionType == domain.PositionExecutive && privileged[role] {
		return RoleGrant
	}
	return RoleUnchanged
}

// ============================================================
// Finance entries
// ============================================================

// validateEntryDates applies the shared posting/payment date rules
func validateEntryDates(posting time.Time, payment *time.Time, today time.Time) error {
	if afterDay(posting, today) {
		return domain.Validation(MsgPostingDateFuture)
	}
	if payment != nil {
		if afterDay(*payment, today) {
			return domain.Validation(MsgPaymentDateFuture)
		}
		if afterDay(*payment, posting) {
			return domain.Validation(MsgPaymentAfterPosting)
		}
	}
	return nil
}

// ValidateIncome checks an income entry
func ValidateIncome(e *models.IncomeEntry, today time.Time) error {
	if err := validateEntryDates(e.PostingDate, e.PaymentDate, today); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return domain.Validation(MsgAmountNotPositive)
	}
	if e.EntryType == domain.IncomeCardFee && (e.MemberID == nil || *e.MemberID == 0) {
		return domain.Validation(MsgCardFeeNeedsMember)
	}
	return nil
}

// ValidateExpense checks an expense entry
func ValidateExpense(e *models.ExpenseEntry, today time.Time) error {
	if err := validateEntryDates(e.PostingDate, e.PaymentDate, today); err != nil {
		return err
	}
	if e.Amount <= 0 {
		return domain.Validation(MsgAmountNotPositive)
	}
	if e.Amount > domain.ReceiptThreshold && strings.TrimSpace(e.AttachReceipt) == "" {
		return domain.Validation(MsgReceiptRequired)
	}
	return nil
}

// ============================================================
// Settings
// ============================================================

// ValidatePaymentMethod requires a method name
func ValidatePaymentMethod(p *models.PaymentMethod) error {
	p.MethodName = strings.TrimSpace(p.MethodName)
	if p.MethodName == "" {
		return domain.Validation(MsgMethodNameRequired)
	}
	return nil
}

// NotificationWarnings returns a warning when every notification is disabled.
// It never fails the save.
func NotificationWarnings(n *models.NotificationSettings) []string {
	if !n.EnableMembershipExpiry && !n.EnableNewMember && !n.EnablePaymentReceived {
		return []string{MsgNotificationsAllOff}
	}
	return nil
}

// EnabledNotifications lists the enabled notification keys
func EnabledNotifications(n *models.NotificationSettings) []string {
	var enabled []string
	if n.EnableMembershipExpiry {
		enabled = append(enabled, "membership_expiry")
	}
	if n.EnableNewMember {
		enabled = append(enabled, "new_member")
	}
	if n.EnablePaymentReceived {
		enabled = append(enabled, "payment_received")
	}
	return enabled
}
