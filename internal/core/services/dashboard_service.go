package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/pkg/dateutil"
)

// recentActivityLimit caps the merged activity feed
const recentActivityLimit = 10

// DashboardService handles dashboard operations
type DashboardService struct {
	clock
	store *repositories.Store
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(store *repositories.Store) *DashboardService {
	return &DashboardService{store: store}
}

// ============================================================
// Admin Dashboard
// ============================================================

// QuickStat is one headline figure with its change against last month
type QuickStat struct {
	Label  string      `json:"label"`
	Value  interface{} `json:"value"`
	Change float64     `json:"change"`
}

// Activity is one entry of the recent activity feed
type Activity struct {
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Time        time.Time `json:"time"`
}

// AdminDashboardData represents admin dashboard data
type AdminDashboardData struct {
	QuickStats       []QuickStat `json:"quick_stats"`
	RecentActivities []Activity  `json:"recent_activities"`
}

// GetAdminDashboard returns admin dashboard data
func (s *DashboardService) GetAdminDashboard(ctx context.Context) (*AdminDashboardData, error) {
	stats, err := s.quickStats(ctx)
	if err != nil {
		return nil, err
	}
	activities, err := s.recentActivities(ctx)
	if err != nil {
		return nil, err
	}
	return &AdminDashboardData{QuickStats: stats, RecentActivities: activities}, nil
}

func (s *DashboardService) quickStats(ctx context.Context) ([]QuickStat, error) {
	now := s.timeNow()
	lastMonth := now.AddDate(0, -1, 0)

	members, err := s.store.Members.CountCreatedUntil(ctx, now)
	if err != nil {
		return nil, err
	}
	lastMembers, err := s.store.Members.CountCreatedUntil(ctx, lastMonth)
	if err != nil {
		return nil, err
	}

	cards, err := s.store.Cards.CountActiveCreatedUntil(ctx, now)
	if err != nil {
		return nil, err
	}
	lastCards, err := s.store.Cards.CountActiveCreatedUntil(ctx, lastMonth)
	if err != nil {
		return nil, err
	}

	submitted := repositories.Submitted()
	income, err := s.store.Income.Sum(ctx, monthFilter(submitted, now))
	if err != nil {
		return nil, err
	}
	lastIncome, err := s.store.Income.Sum(ctx, monthFilter(submitted, lastMonth))
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.Expenses.Sum(ctx, monthFilter(submitted, now))
	if err != nil {
		return nil, err
	}
	lastExpenses, err := s.store.Expenses.Sum(ctx, monthFilter(submitted, lastMonth))
	if err != nil {
		return nil, err
	}

	return []QuickStat{
		{Label: "مجموع الأعضاء", Value: members, Change: CalculateChange(float64(members), float64(lastMembers))},
		{Label: "البطاقات النشطة", Value: cards, Change: CalculateChange(float64(cards), float64(lastCards))},
		{Label: "مداخيل الشهر", Value: FormatMAD(income), Change: CalculateChange(income, lastIncome)},
		{Label: "مصاريف الشهر", Value: FormatMAD(expenses), Change: CalculateChange(expenses, lastExpenses)},
	}, nil
}

// recentActivities merges the latest member log entries and submitted income
func (s *DashboardService) recentActivities(ctx context.Context) ([]Activity, error) {
	logs, err := s.store.MemberLogs.Recent(ctx, 0, 5)
	if err != nil {
		return nil, err
	}
	entries, err := s.store.Income.RecentSubmitted(ctx, 0, 5)
	if err != nil {
		return nil, err
	}

	activities := make([]Activity, 0, len(logs)+len(entries))
	for _, l := range logs {
		activities = append(activities, Activity{Icon: "user", Description: l.Description, Time: l.CreatedAt})
	}
	for _, e := range entries {
		activities = append(activities, Activity{
			Icon:        "money",
			Description: fmt.Sprintf("%s: %s درهم", e.EntryType, formatAmount(e.Amount)),
			Time:        e.CreatedAt,
		})
	}

	sort.SliceStable(activities, func(i, j int) bool { return activities[i].Time.After(activities[j].Time) })
	if len(activities) > recentActivityLimit {
		activities = activities[:recentActivityLimit]
	}
	return activities, nil
}

// CalculateChange returns the percentage change from previous to current,
// rounded to one decimal. A zero previous value yields 100 or 0.
func CalculateChange(current, previous float64) float64 {
	if previous == 0 {
		if current != 0 {
			return 100
		}
		return 0
	}
	return math.Round((current-previous)/previous*1000) / 10
}

// FormatMAD renders an amount as "1,234.50 MAD"
func FormatMAD(amount float64) string {
	return formatAmount(amount) + " MAD"
}

// formatAmount renders an amount with two decimals and thousands separators
func formatAmount(amount float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(amount))
	intPart, frac := s[:len(s)-3], s[len(s)-3:]

	var b []byte
	for i := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b = append(b, ',')
		}
		b = append(b, intPart[i])
	}
	if amount < 0 {
		return "-" + string(b) + frac
	}
	return string(b) + frac
}

// ============================================================
// Member Dashboard
// ============================================================

// MemberDashboardData is the summary shown on the member portal
type MemberDashboardData struct {
	MembershipStatus string         `json:"membership_status"`
	CardNumber       string         `json:"card_number"`
	CardExpiry       *dateutil.Date `json:"card_expiry"`
	DaysToExpiry     int            `json:"days_to_expiry"`
	PaymentsTotal    float64        `json:"payments_total"`
}

// GetMemberDashboard summarizes a member's card and payments
func (s *DashboardService) GetMemberDashboard(ctx context.Context, memberID uint) (*MemberDashboardData, error) {
	member, err := s.store.Members.GetByID(ctx, memberID)
	if err != nil {
		return nil, err
	}

	data := &MemberDashboardData{
		MembershipStatus: member.MembershipStatus,
		CardNumber:       member.CardNumber,
	}
	if member.CardExpiry != nil {
		data.CardExpiry = &dateutil.Date{Time: *member.CardExpiry}
		data.DaysToExpiry = int(member.CardExpiry.Sub(s.today()).Hours() / 24)
	}

	entries, err := s.store.Income.RecentSubmitted(ctx, memberID, 100)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		data.PaymentsTotal += e.Amount
	}
	return data, nil
}
