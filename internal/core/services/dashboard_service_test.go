package services

import (
	"time"
)

func (s *ServiceSuite) TestAdminDashboard() {
	s.svc.SetClock(time.Now)

	m := s.newMember("أحمد", "")
	s.newMember("سعاد", "")
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(m.ID, 1234.5)))

	data, err := s.svc.Dashboard.GetAdminDashboard(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(data.QuickStats, 4)

	s.Equal(int64(2), data.QuickStats[0].Value)
	s.Equal(100.0, data.QuickStats[0].Change)
	s.Equal(int64(2), data.QuickStats[1].Value)
	s.Equal("1,234.50 MAD", data.QuickStats[2].Value)
	s.Equal("0.00 MAD", data.QuickStats[3].Value)
	s.Zero(data.QuickStats[3].Change)

	s.NotEmpty(data.RecentActivities)
	s.LessOrEqual(len(data.RecentActivities), recentActivityLimit)
	for i := 1; i < len(data.RecentActivities); i++ {
		s.False(data.RecentActivities[i].Time.After(data.RecentActivities[i-1].Time))
	}
}

func (s *ServiceSuite) TestCalculateChange() {
	s.Equal(0.0, CalculateChange(0, 0))
	s.Equal(100.0, CalculateChange(5, 0))
	s.Equal(50.0, CalculateChange(150, 100))
	s.Equal(-33.3, CalculateChange(2, 3))
}

func (s *ServiceSuite) TestFormatMAD() {
	s.Equal("0.00 MAD", FormatMAD(0))
	s.Equal("999.99 MAD", FormatMAD(999.99))
	s.Equal("1,234.50 MAD", FormatMAD(1234.5))
	s.Equal("1,000,000.00 MAD", FormatMAD(1e6))
	s.Equal("-1,500.00 MAD", FormatMAD(-1500))
}

func (s *ServiceSuite) TestMemberDashboard() {
	m := s.newMember("أحمد", "")
	s.Require().NoError(s.svc.Finance.Submit(s.ctx, s.cardFee(m.ID, 100)))

	data, err := s.svc.Dashboard.GetMemberDashboard(s.ctx, m.ID)
	s.Require().NoError(err)
	s.Equal(m.CardNumber, data.CardNumber)
	s.Require().NotNil(data.CardExpiry)
	s.Equal(365, data.DaysToExpiry)
	s.Equal(100.0, data.PaymentsTotal)
}
