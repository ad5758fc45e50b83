package rules

import (
	"testing"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type RulesSuite struct {
	suite.Suite
	today time.Time
}

func (s *RulesSuite) SetupTest() {
	s.today = day(2026, time.March, 15)
}

func TestRulesSuite(t *testing.T) {
	suite.Run(t, new(RulesSuite))
}

func (s *RulesSuite) requireValidation(err error, msg string) {
	s.Require().Error(err)
	s.True(domain.IsValidation(err), "expected a validation error, got %T", err)
	s.Equal(msg, err.Error())
}

func (s *RulesSuite) TestValidateMember() {
	s.Run("birth date in the future fails", func() {
		m := &models.Member{BirthDate: dateutil.Ptr(s.today.AddDate(0, 0, 1))}
		s.requireValidation(ValidateMember(m, s.today), MsgBirthDateFuture)
	})

	s.Run("renewal date in the future fails", func() {
		m := &models.Member{LastRenewalDate: dateutil.Ptr(s.today.AddDate(0, 1, 0))}
		s.requireValidation(ValidateMember(m, s.today), MsgRenewalDateFuture)
	})

	s.Run("membership date defaults to today", func() {
		m := &models.Member{BirthDate: dateutil.Ptr(day(1990, time.January, 2))}
		s.Require().NoError(ValidateMember(m, s.today))
		s.Require().NotNil(m.MembershipDate)
		s.Equal(s.today, *m.MembershipDate)
	})

	s.Run("existing membership date is kept", func() {
		joined := day(2020, time.October, 1)
		m := &models.Member{MembershipDate: &joined}
		s.Require().NoError(ValidateMember(m, s.today))
		s.Equal(joined, *m.MembershipDate)
	})
}

func (s *RulesSuite) TestMembershipStatus() {
	_, ok := MembershipStatus(nil, true, s.today)
	s.False(ok)

	status, ok := MembershipStatus(dateutil.Ptr(day(2025, time.March, 14)), true, s.today)
	s.True(ok)
	s.Equal(domain.MembershipExpired, status)

	status, _ = MembershipStatus(dateutil.Ptr(day(2025, time.March, 15)), true, s.today)
	s.Equal(domain.MembershipActive, status, "the anniversary day itself is still covered")

	status, _ = MembershipStatus(dateutil.Ptr(day(2026, time.January, 1)), false, s.today)
	s.Equal(domain.MembershipInactive, status)
}

func (s *RulesSuite) TestCardStatus() {
	s.Equal(domain.CardExpired, CardStatus(domain.CardActive, s.today.AddDate(0, 0, -1), s.today))
	s.Equal(domain.CardActive, CardStatus(domain.CardActive, s.today, s.today))
	s.Equal(domain.CardActive, CardStatus(domain.CardExpired, s.today.AddDate(1, 0, 0), s.today))
	s.Equal(domain.CardCancelled, CardStatus(domain.CardCancelled, s.today.AddDate(-1, 0, 0), s.today))
}

func (s *RulesSuite) TestValidateCard() {
	s.Run("issue after expiry fails", func() {
		c := &models.MembershipCard{IssueDate: s.today, ExpiryDate: s.today.AddDate(0, 0, -1)}
		s.requireValidation(ValidateCard(c, s.today), MsgIssueAfterExpiry)
	})

	s.Run("issue in the future fails", func() {
		c := &models.MembershipCard{IssueDate: s.today.AddDate(0, 0, 2), ExpiryDate: s.today.AddDate(1, 0, 2)}
		s.requireValidation(ValidateCard(c, s.today), MsgIssueDateFuture)
	})

	s.Run("past expiry marks the card expired", func() {
		c := &models.MembershipCard{
			IssueDate:  day(2024, time.January, 1),
			ExpiryDate: day(2025, time.January, 1),
			Status:     domain.CardActive,
		}
		s.Require().NoError(ValidateCard(c, s.today))
		s.Equal(domain.CardExpired, c.Status)
	})

	s.Run("active cards cannot be deleted", func() {
		s.requireValidation(CanDeleteCard(&models.MembershipCard{Status: domain.CardActive}), MsgActiveCardDelete)
		s.NoError(CanDeleteCard(&models.MembershipCard{Status: domain.CardExpired}))
	})
}

func (s *RulesSuite) TestAcademicYear() {
	s.Run("start must precede end", func() {
		y := &models.AcademicYear{StartDate: day(2025, time.September, 1), EndDate: day(2025, time.September, 1)}
		s.requireValidation(ValidateAcademicYearDates(y), MsgStartAfterEnd)
	})

	s.Run("overlap uses closed intervals", func() {
		s.True(Overlaps(day(2024, 9, 1), day(2025, 6, 30), day(2025, 6, 30), day(2026, 6, 30)))
		s.False(Overlaps(day(2024, 9, 1), day(2025, 6, 30), day(2025, 7, 1), day(2026, 6, 30)))
		s.True(Overlaps(day(2024, 1, 1), day(2026, 1, 1), day(2025, 1, 1), day(2025, 2, 1)))
	})

	s.Run("next year shifts name and dates", func() {
		next, err := NextAcademicYear(&models.AcademicYear{
			YearName:  "2024-2025",
			StartDate: day(2024, time.September, 1),
			EndDate:   day(2025, time.June, 30),
			IsActive:  true,
		})
		s.Require().NoError(err)
		s.Equal("2025-2026", next.YearName)
		s.Equal(day(2025, time.September, 1), next.StartDate)
		s.Equal(day(2026, time.June, 30), next.EndDate)
		s.False(next.IsActive)
	})

	s.Run("malformed name fails", func() {
		_, err := NextAcademicYear(&models.AcademicYear{YearName: "2024"})
		s.Error(err)
	})
}

func (s *RulesSuite) TestPositionScope() {
	s.requireValidation(ValidatePositionScope(domain.PositionExecutive, "الشمال", ""), MsgExecutiveScoped)
	s.requireValidation(ValidatePositionScope(domain.PositionExecutive, "", "عمالة طنجة"), MsgExecutiveScoped)
	s.requireValidation(ValidatePositionScope(domain.PositionRegional, "", ""), MsgRegionRequired)
	s.requireValidation(ValidatePositionScope(domain.PositionProvincial, "الشمال", ""), MsgProvinceRequired)
	s.requireValidation(ValidatePositionScope(domain.PositionLocal, "", ""), MsgProvinceRequired)

	s.NoError(ValidatePositionScope(domain.PositionExecutive, "", ""))
	s.NoError(ValidatePositionScope(domain.PositionRegional, "الشمال", ""))
	s.NoError(ValidatePositionScope(domain.PositionLocal, "", "عمالة تطوان"))
}

func (s *RulesSuite) TestUNEMStructure() {
	s.Run("ended term is deactivated", func() {
		st := &models.UNEMStructure{
			PositionType: domain.PositionExecutive,
			StartDate:    day(2020, time.January, 1),
			EndDate:      dateutil.Ptr(day(2024, time.January, 1)),
			IsActive:     true,
		}
		s.Require().NoError(ValidateUNEMStructure(st, s.today))
		s.False(st.IsActive)
	})

	s.Run("future start fails", func() {
		st := &models.UNEMStructure{PositionType: domain.PositionExecutive, StartDate: s.today.AddDate(0, 0, 1)}
		s.requireValidation(ValidateUNEMStructure(st, s.today), MsgStartDateFuture)
	})

	s.Run("end before start fails", func() {
		st := &models.UNEMStructure{StartDate: day(2025, 1, 1), EndDate: dateutil.Ptr(day(2024, 1, 1))}
		s.requireValidation(ValidateUNEMStructure(st, s.today), MsgStartAfterEnd)
	})
}

func (s *RulesSuite) TestMutualStructure() {
	s.Run("end defaults to four years", func() {
		st := &models.MutualStructure{
			PositionType:     domain.PositionExecutive,
			Role:             "الرئيس",
			MandateStartDate: day(2024, time.February, 29),
			IsActive:         true,
		}
		s.Require().NoError(ValidateMutualStructure(st, s.today))
		s.Require().NotNil(st.MandateEndDate)
		s.Equal(day(2028, time.February, 29), *st.MandateEndDate)
		s.True(st.IsActive)
	})

	s.Run("executive needs a role", func() {
		st := &models.MutualStructure{PositionType: domain.PositionExecutive, MandateStartDate: day(2025, 1, 1)}
		s.requireValidation(ValidateMutualStructure(st, s.today), MsgExecutiveRoleRequired)
	})

	s.Run("start after end fails", func() {
		st := &models.MutualStructure{
			MandateStartDate: day(2025, 1, 1),
			MandateEndDate:   dateutil.Ptr(day(2024, 1, 1)),
		}
		s.requireValidation(ValidateMutualStructure(st, s.today), MsgMandateStartAfterEnd)
	})
}

func (s *RulesSuite) TestRoleChange() {
	s.Equal(RoleGrant, UNEMRoleChange(&models.UNEMStructure{
		IsActive: true, PositionType: domain.PositionExecutive, Role: "الكاتب الوطني",
	}))
	s.Equal(RoleUnchanged, UNEMRoleChange(&models.UNEMStructure{
		IsActive: true, PositionType: domain.PositionExecutive, Role: "عضو",
	}))
	s.Equal(RoleUnchanged, UNEMRoleChange(&models.UNEMStructure{
		IsActive: true, PositionType: domain.PositionLocal, Role: "الكاتب العام", Province: "عمالة طنجة",
	}))
	s.Equal(RoleRevoke, UNEMRoleChange(&models.UNEMStructure{
		IsActive: false, PositionType: domain.PositionExecutive, Role: "الكاتب الوطني",
	}))

	s.Equal(RoleGrant, MutualRoleChange(&models.MutualStructure{
		IsActive: true, PositionType: domain.PositionExecutive, Role: "نائب الرئيس",
	}))
	s.Equal(RoleUnchanged, MutualRoleChange(&models.MutualStructure{
		IsActive: true, PositionType: domain.PositionExecutive, Role: "الكاتب الوطني",
	}))
}

func (s *RulesSuite) TestFinanceEntries() {
	memberID := uint(7)

	s.Run("payment after posting fails", func() {
		e := &models.IncomeEntry{
			EntryType:   domain.IncomeOther,
			Amount:      100,
			PostingDate: day(2026, time.March, 1),
			PaymentDate: dateutil.Ptr(day(2026, time.March, 2)),
		}
		s.requireValidation(ValidateIncome(e, s.today), MsgPaymentAfterPosting)
	})

	s.Run("future posting fails", func() {
		e := &models.ExpenseEntry{ExpenseType: domain.ExpenseOther, Amount: 10, PostingDate: s.today.AddDate(0, 0, 1)}
		s.requireValidation(ValidateExpense(e, s.today), MsgPostingDateFuture)
	})

	s.Run("future payment fails", func() {
		e := &models.IncomeEntry{
			EntryType:   domain.IncomeOther,
			Amount:      10,
			PostingDate: s.today,
			PaymentDate: dateutil.Ptr(s.today.AddDate(0, 0, 1)),
		}
		s.requireValidation(ValidateIncome(e, s.today), MsgPaymentDateFuture)
	})

	s.Run("zero amount fails", func() {
		e := &models.IncomeEntry{EntryType: domain.IncomeOther, PostingDate: s.today}
		s.requireValidation(ValidateIncome(e, s.today), MsgAmountNotPositive)
	})

	s.Run("card fee needs a member", func() {
		e := &models.IncomeEntry{EntryType: domain.IncomeCardFee, Amount: 50, PostingDate: s.today}
		s.requireValidation(ValidateIncome(e, s.today), MsgCardFeeNeedsMember)

		e.MemberID = &memberID
		s.NoError(ValidateIncome(e, s.today))
	})

	s.Run("large expense needs a receipt", func() {
		e := &models.ExpenseEntry{ExpenseType: domain.ExpenseActivities, Amount: 1000.01, PostingDate: s.today}
		s.requireValidation(ValidateExpense(e, s.today), MsgReceiptRequired)

		e.AttachReceipt = "/files/receipt.pdf"
		s.NoError(ValidateExpense(e, s.today))

		s.NoError(ValidateExpense(&models.ExpenseEntry{Amount: 1000, PostingDate: s.today}, s.today))
	})
}

func TestFormatCardNumber(t *testing.T) {
	assert.Equal(t, "2026010001", FormatCardNumber(2026, "01", 1))
	assert.Equal(t, "2026000123", FormatCardNumber(2026, "", 123))
}

func TestNotificationWarnings(t *testing.T) {
	off := &models.NotificationSettings{}
	require.Len(t, NotificationWarnings(off), 1)
	assert.Empty(t, EnabledNotifications(off))

	on := &models.NotificationSettings{EnableNewMember: true}
	assert.Empty(t, NotificationWarnings(on))
	assert.Equal(t, []string{"new_member"}, EnabledNotifications(on))
}

func TestValidatePaymentMethod(t *testing.T) {
	p := &models.PaymentMethod{MethodName: "   "}
	err := ValidatePaymentMethod(p)
	require.Error(t, err)
	assert.Equal(t, MsgMethodNameRequired, err.Error())

	p.MethodName = " تحويل بنكي "
	require.NoError(t, ValidatePaymentMethod(p))
	assert.Equal(t, "تحويل بنكي", p.MethodName)
}
