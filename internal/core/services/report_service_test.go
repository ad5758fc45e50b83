package services

import (
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/core/domain"
)

func (s *ServiceSuite) submitExpense(kind string, amount float64) {
	name, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionExpense,
		ExpenseType:     kind,
		Amount:          amount,
	}, "")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Finance.UpdateTransactionStatus(s.ctx, name, domain.EntryApproved))
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, name))
}

func (s *ServiceSuite) TestFinancialSummary() {
	m := s.newMember("أحمد", "")
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(m.ID, 100)))

	other, err := s.svc.Finance.SaveTransaction(s.ctx, &TransactionInput{
		TransactionType: domain.TransactionIncome,
		Amount:          50,
	}, "")
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, other))

	s.submitExpense(domain.ExpenseAdministrative, 30)
	s.submitExpense(domain.ExpenseActivities, 20)

	// drafts stay out of the report
	s.cardFee(m.ID, 999)

	report, err := s.svc.Report.FinancialSummary(s.ctx, ReportFilter{})
	s.Require().NoError(err)
	s.Len(report.Columns, 9)
	s.Require().Len(report.Data, 1)

	row := report.Data[0]
	s.Equal("2026-03", row.Month)
	s.Equal(100.0, row.CardIncome)
	s.Equal(50.0, row.OtherIncome)
	s.Equal(150.0, row.TotalIncome)
	s.Equal(30.0, row.AdminExpenses)
	s.Equal(20.0, row.ActivityExpenses)
	s.Equal(50.0, row.TotalExpenses)
	s.Equal(100.0, row.Balance)

	s.Equal([]string{"2026-03"}, report.Chart.Data.Labels)
	s.Require().Len(report.Summary, 3)
	s.Equal(100.0, report.Summary[2].Value)
	s.Equal("Green", report.Summary[2].Indicator)

	s.Run("date range excludes the month", func() {
		from := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)
		report, err := s.svc.Report.FinancialSummary(s.ctx, ReportFilter{FromDate: &from})
		s.Require().NoError(err)
		s.Empty(report.Data)
		s.Equal("Red", report.Summary[2].Indicator)
	})
}

func (s *ServiceSuite) TestMemberStatusReport() {
	s.Require().NoError(s.svc.Store.Provinces.Save(s.ctx, &models.Province{Name: "عمالة الرباط", Code: "02"}))

	paid := s.newMember("أحمد", "")
	s.newMember("سعاد", "")
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(paid.ID, 100)))

	_, err := s.svc.Member.Save(s.ctx, &MemberInput{
		FullName:        "يوسف",
		Province:        ptr("عمالة طنجة"),
		CardNumber:      "OLD-1",
		LastRenewalDate: s.date(time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)

	report, err := s.svc.Report.MemberStatus(s.ctx, ReportFilter{})
	s.Require().NoError(err)
	s.Len(report.Columns, 7)
	s.Require().Len(report.Data, 3)

	byProvince := make(map[string]MemberStatusRow)
	for _, r := range report.Data {
		byProvince[r.Province] = r
	}

	tangier := byProvince["عمالة طنجة"]
	s.Equal(int64(3), tangier.TotalMembers)
	s.Equal(int64(2), tangier.ActiveMembers)
	s.Equal(int64(1), tangier.ExpiredMembers)
	s.Equal(int64(1), tangier.PaidCards)
	s.Equal(int64(1), tangier.UnpaidCards)

	s.Zero(byProvince["عمالة الرباط"].TotalMembers)

	total := report.Data[len(report.Data)-1]
	s.Equal(TotalRowLabel, total.Province)
	s.Equal(int64(3), total.TotalMembers)
	s.Equal(int64(1), total.PaidCards)
}
