package services

import (
	"strings"
	"time"

	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/mailer"

	"go.uber.org/mock/gomock"
)

func (s *ServiceSuite) cardFee(memberID uint, amount float64) string {
	name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionIncome,
		EntryType:       domain.IncomeCardFee,
		MemberID:        &memberID,
		Amount:          amount,
		PaymentMethod:   "نقدا",
	}, "finance@umt.ma")
	s.Require().NoError(err)
	return name
}

func (s *ServiceSuite) TestSaveTransaction() {
	s.Run("income gets an INC reference and the current year", func() {
		_, err := s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{
			YearName:  "2025-2026",
			StartDate: s.date(time.Date(2025, time.September, 1, 0, 0, 0, 0, time.UTC)),
			EndDate:   s.date(time.Date(2026, time.July, 31, 0, 0, 0, 0, time.UTC)),
			IsActive:  ptr(true),
		})
		s.Require().NoError(err)

		name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionIncome,
			Amount:          150,
			Description:     "تبرع",
		}, "finance@umt.ma")
		s.Require().NoError(err)
		s.True(strings.HasPrefix(name, "INC-20260315-"), name)

		entry, err := s.svc.Store.Income.GetByName(s.ctx, name)
		s.Require().NoError(err)
		s.Equal(domain.IncomeOther, entry.EntryType)
		s.Equal(domain.EntryPending, entry.Status)
		s.Equal(domain.DocDraft, entry.DocStatus)
		s.Equal("2025-2026", entry.AcademicYear)
		s.Equal("finance@umt.ma", entry.Owner)
	})

	s.Run("expense gets an EXP reference", func() {
		name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionExpense,
			ExpenseType:     domain.ExpenseAdministrative,
			Amount:          200,
		}, "finance@umt.ma")
		s.Require().NoError(err)
		s.True(strings.HasPrefix(name, "EXP-"), name)
	})

	s.Run("card fee needs a member", func() {
		_, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionIncome,
			EntryType:       domain.IncomeCardFee,
			Amount:          100,
		}, "")
		s.requireValidation(err)
	})

	s.Run("amount must be positive", func() {
		_, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionExpense,
			Amount:          0,
		}, "")
		s.requireValidation(err)
	})

	s.Run("large expense needs a receipt", func() {
		input := &TransactionInput{
			TransactionType: domain.TransactionExpense,
			ExpenseType:     domain.ExpenseActivities,
			Amount:          1500,
		}
		_, err := s.svc.Finance.SaveTransaction(s.ctx, input, "")
		s.requireValidation(err)

		input.AttachReceipt = "/files/receipt.pdf"
		_, err = s.svc.Finance.SaveTransaction(s.ctx, input, "")
		s.NoError(err)
	})

	s.Run("payment after posting is refused", func() {
		_, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionIncome,
			Amount:          50,
			PostingDate:     s.date(s.today.AddDate(0, 0, -5)),
			PaymentDate:     s.date(s.today.AddDate(0, 0, -1)),
		}, "")
		s.requireValidation(err)
	})

	s.Run("draft can be edited", func() {
		name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			TransactionType: domain.TransactionIncome,
			Amount:          80,
		}, "")
		s.Require().NoError(err)

		same, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			Name:            name,
			TransactionType: domain.TransactionIncome,
			Amount:          90,
		}, "")
		s.Require().NoError(err)
		s.Equal(name, same)

		entry, err := s.svc.Store.Income.GetByName(s.ctx, name)
		s.Require().NoError(err)
		s.Equal(90.0, entry.Amount)
	})
}

func (s *ServiceSuite) TestSubmitAndCancelCardFee() {
	m := s.newMember("أحمد", "ahmed@example.ma")
	name := s.cardFee(m.ID, 100)

	s.Require().NoError(s.svc.Finance.Submit(s.ctx, name))

	card, err := s.svc.Store.Cards.GetByID(s.ctx, *m.CurrentCardID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentPaid, card.PaymentStatus)

	member, err := s.svc.Store.Members.GetByID(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Require().NotNil(member.LastRenewalDate)

	s.Run("submitted entry is locked", func() {
		_, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
			Name:            name,
			TransactionType: domain.TransactionIncome,
			Amount:          120,
		}, "")
		s.ErrorIs(err, ErrEntryLocked)
		s.ErrorIs(s.svc.Finance.Submit(s.ctx, name), ErrEntryNotDraft)
	})

	s.Require().NoError(s.svc.Finance.Cancel(s.ctx, name))

	card, err = s.svc.Store.Cards.GetByID(s.ctx, *m.CurrentCardID)
	s.Require().NoError(err)
	s.Equal(domain.PaymentUnpaid, card.PaymentStatus)

	entry, err := s.svc.Store.Income.GetByName(s.ctx, name)
	s.Require().NoError(err)
	s.Equal(domain.DocCancelled, entry.DocStatus)

	s.ErrorIs(s.svc.Finance.Cancel(s.ctx, name), ErrEntryNotSubmitted)
}

func (s *ServiceSuite) TestSubmitMailsPaymentReceipt() {
	s.configureSMTP()
	s.mailer.EXPECT().Send(gomock.Any(), gomock.Any(), sentTo("bureau@umt.ma")).Return(nil)
	s.mailer.EXPECT().
		Send(gomock.Any(), gomock.Cond(func(x any) bool {
			account, ok := x.(mailer.Account)
			return ok && account.Host == "smtp.umt.ma" && account.Port == 587
		}), sentTo("souad@example.ma")).
		Return(nil)

	m := s.newMember("سعاد", "souad@example.ma")
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(m.ID, 100)))
}

// sentTo matches a mailer.Message addressed to exactly one recipient
func sentTo(address string) gomock.Matcher {
	return gomock.Cond(func(x any) bool {
		msg, ok := x.(mailer.Message)
		return ok && len(msg.To) == 1 && msg.To[0] == address
	})
}

func (s *ServiceSuite) TestExpenseWorkflow() {
	name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionExpense,
		ExpenseType:     domain.ExpenseOther,
		Amount:          300,
	}, "")
	s.Require().NoError(err)

	s.Require().NoError(s.svc.Finance.UpdateTransactionStatus(s.ctx, name, domain.EntryApproved))
	s.ErrorIs(s.svc.Finance.UpdateTransactionStatus(s.ctx, name, "Paid"), ErrInvalidEntryState)

	s.ErrorIs(s.svc.Finance.Cancel(s.ctx, name), ErrEntryNotSubmitted)
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, name))
	s.Require().NoError(s.svc.Finance.Cancel(s.ctx, name))

	entry, err := s.svc.Store.Expenses.GetByName(s.ctx, name)
	s.Require().NoError(err)
	s.Equal(domain.DocCancelled, entry.DocStatus)
	s.Equal(domain.EntryApproved, entry.Status)
}

func (s *ServiceSuite) TestFinancePage() {
	m := s.newMember("يوسف", "")

	income := s.cardFee(m.ID, 250)
	s.Require().NoError(s.svc.Finance.UpdateTransactionStatus(s.ctx, income, domain.EntryApproved))
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, income))

	expense, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionExpense,
		ExpenseType:     domain.ExpenseAdministrative,
		Amount:          100,
	}, "")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Finance.UpdateTransactionStatus(s.ctx, expense, domain.EntryApproved))
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, expense))

	_, err = s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionIncome,
		Amount:          40,
	}, "")
	s.Require().NoError(err)

	page, err := s.svc.Finance.PageContext(s.ctx)
	s.Require().NoError(err)
	s.Equal(250.0, page.TotalIncome)
	s.Equal(100.0, page.TotalExpenses)
	s.Equal(150.0, page.Balance)
	s.Len(page.Transactions, 3)

	s.Run("transactions filter by type", func() {
		rows, err := s.svc.Finance.Transactions(s.ctx, TransactionFilter{Type: domain.TransactionExpense})
		s.Require().NoError(err)
		s.Require().Len(rows, 1)
		s.Equal(expense, rows[0].Name)
	})

	s.Run("export renders a workbook", func() {
		data, err := s.svc.Finance.Export(s.ctx, TransactionFilter{})
		s.Require().NoError(err)
		s.NotEmpty(data)
	})
}
