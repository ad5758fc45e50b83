package services

import (
	"context"
	"sort"
	"time"

	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"
)

// TotalRowLabel labels the summed row of the member status report
const TotalRowLabel = "المجموع"

// ReportService builds the financial and member status reports
type ReportService struct {
	store *repositories.Store
}

// NewReportService creates a new report service
func NewReportService(store *repositories.Store) *ReportService {
	return &ReportService{store: store}
}

// ReportFilter holds the report query parameters
type ReportFilter struct {
	AcademicYear string     `json:"academic_year"`
	FromDate     *time.Time `json:"from_date"`
	ToDate       *time.Time `json:"to_date"`
}

// ReportColumn describes one report column
type ReportColumn struct {
	FieldName string `json:"fieldname"`
	Label     string `json:"label"`
	FieldType string `json:"fieldtype"`
	Width     int    `json:"width"`
}

// ============================================================
// Financial summary
// ============================================================

// FinancialRow is one month of the financial summary
type FinancialRow struct {
	Month            string  `json:"month"`
	CardIncome       float64 `json:"card_income"`
	OtherIncome      float64 `json:"other_income"`
	TotalIncome      float64 `json:"total_income"`
	AdminExpenses    float64 `json:"admin_expenses"`
	ActivityExpenses float64 `json:"activity_expenses"`
	OtherExpenses    float64 `json:"other_expenses"`
	TotalExpenses    float64 `json:"total_expenses"`
	Balance          float64 `json:"balance"`
}

// ChartDataset is one series of the report chart
type ChartDataset struct {
	Name      string    `json:"name"`
	Values    []float64 `json:"values"`
	ChartType string    `json:"chartType"`
}

// Chart is the report chart definition
type Chart struct {
	Data struct {
		Labels   []string       `json:"labels"`
		Datasets []ChartDataset `json:"datasets"`
	} `json:"data"`
	Type   string   `json:"type"`
	Colors []string `json:"colors"`
}

// SummaryItem is one headline figure under the report
type SummaryItem struct {
	Value     float64 `json:"value"`
	Label     string  `json:"label"`
	DataType  string  `json:"datatype"`
	Currency  string  `json:"currency"`
	Indicator string  `json:"indicator,omitempty"`
}

// FinancialSummary is the financial summary report
type FinancialSummary struct {
	Columns []ReportColumn `json:"columns"`
	Data    []FinancialRow `json:"data"`
	Chart   Chart          `json:"chart"`
	Summary []SummaryItem  `json:"summary"`
}

var financialColumns = []ReportColumn{
	{"month", "الشهر", "Data", 100},
	{"card_income", "مداخيل البطاقات", "Currency", 150},
	{"other_income", "مداخيل أخرى", "Currency", 150},
	{"total_income", "مجموع المداخيل", "Currency", 150},
	{"admin_expenses", "مصاريف إدارية", "Currency", 150},
	{"activity_expenses", "مصاريف الأنشطة", "Currency", 150},
	{"other_expenses", "مصاريف أخرى", "Currency", 150},
	{"total_expenses", "مجموع المصاريف", "Currency", 150},
	{"balance", "الرصيد", "Currency", 150},
}

// FinancialSummary groups submitted entries by posting month
func (s *ReportService) FinancialSummary(ctx context.Context, f ReportFilter) (*FinancialSummary, error) {
	ef := repositories.Submitted()
	ef.AcademicYear = f.AcademicYear
	ef.FromDate = f.FromDate
	ef.ToDate = f.ToDate

	income, err := s.store.Income.List(ctx, ef)
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.Expenses.List(ctx, ef)
	if err != nil {
		return nil, err
	}

	months := make(map[string]*FinancialRow)
	row := func(t time.Time) *FinancialRow {
		key := dateutil.MonthKey(t)
		r, ok := months[key]
		if !ok {
			r = &FinancialRow{Month: key}
			months[key] = r
		}
		return r
	}

	for _, e := range income {
		r := row(e.PostingDate)
		switch e.EntryType {
		case domain.IncomeCardFee:
			r.CardIncome += e.Amount
		case domain.IncomeOther:
			r.OtherIncome += e.Amount
		}
	}
	for _, e := range expenses {
		r := row(e.PostingDate)
		switch e.ExpenseType {
		case domain.ExpenseAdministrative:
			r.AdminExpenses += e.Amount
		case domain.ExpenseActivities:
			r.ActivityExpenses += e.Amount
		case domain.ExpenseOther:
			r.OtherExpenses += e.Amount
		}
	}

	report := &FinancialSummary{Columns: financialColumns, Data: make([]FinancialRow, 0, len(months))}
	for _, r := range months {
		r.TotalIncome = r.CardIncome + r.OtherIncome
		r.TotalExpenses = r.AdminExpenses + r.ActivityExpenses + r.OtherExpenses
		r.Balance = r.TotalIncome - r.TotalExpenses
		report.Data = append(report.Data, *r)
	}
	sort.Slice(report.Data, func(i, j int) bool { return report.Data[i].Month < report.Data[j].Month })

	report.Chart = financialChart(report.Data)
	report.Summary = financialSummary(report.Data)
	return report, nil
}

func financialChart(rows []FinancialRow) Chart {
	var c Chart
	c.Type = "bar"
	c.Colors = []string{"#28a745", "#dc3545", "#007bff"}

	c.Data.Labels = make([]string, len(rows))
	incomeValues := make([]float64, len(rows))
	expenseValues := make([]float64, len(rows))
	balanceValues := make([]float64, len(rows))
	for i, r := range rows {
		c.Data.Labels[i] = r.Month
		incomeValues[i] = r.TotalIncome
		expenseValues[i] = r.TotalExpenses
		balanceValues[i] = r.Balance
	}
	c.Data.Datasets = []ChartDataset{
		{Name: "المداخيل", Values: incomeValues, ChartType: "bar"},
		{Name: "المصاريف", Values: expenseValues, ChartType: "bar"},
		{Name: "الرصيد", Values: balanceValues, ChartType: "line"},
	}
	return c
}

func financialSummary(rows []FinancialRow) []SummaryItem {
	var income, expenses float64
	for _, r := range rows {
		income += r.TotalIncome
		expenses += r.TotalExpenses
	}
	net := income - expenses

	indicator := "Red"
	if net > 0 {
		indicator = "Green"
	}
	return []SummaryItem{
		{Value: income, Label: "مجموع المداخيل", DataType: "Currency", Currency: "MAD"},
		{Value: expenses, Label: "مجموع المصاريف", DataType: "Currency", Currency: "MAD"},
		{Value: net, Label: "الرصيد الصافي", DataType: "Currency", Currency: "MAD", Indicator: indicator},
	}
}

// ============================================================
// Member status
// ============================================================

// MemberStatusRow is one province of the member status report
type MemberStatusRow struct {
	Province        string `json:"province"`
	TotalMembers    int64  `json:"total_members"`
	ActiveMembers   int64  `json:"active_members"`
	InactiveMembers int64  `json:"inactive_members"`
	ExpiredMembers  int64  `json:"expired_members"`
	PaidCards       int64  `json:"paid_cards"`
	UnpaidCards     int64  `json:"unpaid_cards"`
}

// MemberStatusReport is the member status report
type MemberStatusReport struct {
	Columns []ReportColumn    `json:"columns"`
	Data    []MemberStatusRow `json:"data"`
}

var memberStatusColumns = []ReportColumn{
	{"province", "الإقليم", "Link", 150},
	{"total_members", "مجموع الأعضاء", "Int", 120},
	{"active_members", "الأعضاء النشطاء", "Int", 120},
	{"inactive_members", "الأعضاء غير النشطاء", "Int", 120},
	{"expired_members", "العضويات المنتهية", "Int", 120},
	{"paid_cards", "البطاقات المؤداة", "Int", 120},
	{"unpaid_cards", "البطاقات غير المؤداة", "Int", 120},
}

// MemberStatus counts members and active cards per province. The filter
// dates apply to membership_date.
func (s *ReportService) MemberStatus(ctx context.Context, f ReportFilter) (*MemberStatusReport, error) {
	mf := repositories.MemberFilter{AcademicYear: f.AcademicYear, FromDate: f.FromDate, ToDate: f.ToDate}

	provinces, err := s.store.Provinces.List(ctx)
	if err != nil {
		return nil, err
	}
	statusCounts, err := s.store.Members.StatusCountsByProvince(ctx, mf)
	if err != nil {
		return nil, err
	}
	paymentCounts, err := s.store.Cards.ActivePaymentCountsByProvince(ctx, mf)
	if err != nil {
		return nil, err
	}

	rows := make([]MemberStatusRow, len(provinces))
	index := make(map[string]int, len(provinces))
	for i, p := range provinces {
		rows[i].Province = p.Name
		index[p.Name] = i
	}

	for _, c := range statusCounts {
		i, ok := index[c.Province]
		if !ok {
			continue
		}
		rows[i].TotalMembers += c.Count
		switch c.Status {
		case domain.MembershipActive:
			rows[i].ActiveMembers += c.Count
		case domain.MembershipInactive:
			rows[i].InactiveMembers += c.Count
		case domain.MembershipExpired:
			rows[i].ExpiredMembers += c.Count
		}
	}
	for _, c := range paymentCounts {
		i, ok := index[c.Province]
		if !ok {
			continue
		}
		switch c.PaymentStatus {
		case domain.PaymentPaid:
			rows[i].PaidCards += c.Count
		case domain.PaymentUnpaid:
			rows[i].UnpaidCards += c.Count
		}
	}

	if len(rows) > 0 {
		total := MemberStatusRow{Province: TotalRowLabel}
		for _, r := range rows {
			total.TotalMembers += r.TotalMembers
			total.ActiveMembers += r.ActiveMembers
			total.InactiveMembers += r.InactiveMembers
			total.ExpiredMembers += r.ExpiredMembers
			total.PaidCards += r.PaidCards
			total.UnpaidCards += r.UnpaidCards
		}
		rows = append(rows, total)
	}

	return &MemberStatusReport{Columns: memberStatusColumns, Data: rows}, nil
}
