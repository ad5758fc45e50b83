package services

import (
	"time"

	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/testutil"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *ServiceSuite) TestAcademicYears() {
	first, err := s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{
		YearName:  "2025-2026",
		StartDate: s.date(day(2025, time.September, 1)),
		EndDate:   s.date(day(2026, time.July, 31)),
		IsActive:  ptr(true),
	})
	s.Require().NoError(err)

	current, err := s.svc.AcademicYear.Current(s.ctx)
	s.Require().NoError(err)
	s.Equal("2025-2026", current)

	s.Run("start must precede end", func() {
		_, err := s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{
			YearName:  "bad",
			StartDate: s.date(day(2030, time.September, 1)),
			EndDate:   s.date(day(2030, time.September, 1)),
		})
		s.requireValidation(err)
	})

	s.Run("touching ranges overlap", func() {
		_, err := s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{
			YearName:  "2026-2027",
			StartDate: s.date(day(2026, time.July, 31)),
			EndDate:   s.date(day(2027, time.July, 31)),
		})
		s.requireValidation(err)
		s.Contains(err.Error(), "2025-2026")
	})

	s.Run("next year is derived and stored inactive", func() {
		next, err := s.svc.AcademicYear.CreateNext(s.ctx, first.ID)
		s.Require().NoError(err)
		s.Equal("2026-2027", next.YearName)
		s.Equal("2026-09-01", next.StartDate.Format(dateutil.Layout))
		s.Equal("2027-07-31", next.EndDate.Format(dateutil.Layout))
		s.False(next.IsActive)

		years, err := s.svc.AcademicYear.List(s.ctx)
		s.Require().NoError(err)
		s.Len(years, 2)
	})

	s.Run("activating a year deactivates the others", func() {
		next, err := s.svc.Store.AcademicYears.GetByName(s.ctx, "2026-2027")
		s.Require().NoError(err)

		_, err = s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{ID: next.ID, IsActive: ptr(true)})
		s.Require().NoError(err)

		active, err := s.svc.Store.AcademicYears.Active(s.ctx)
		s.Require().NoError(err)
		s.Equal("2026-2027", active.YearName)

		untouched, err := s.svc.AcademicYear.Save(s.ctx, &AcademicYearInput{ID: next.ID})
		s.Require().NoError(err)
		s.True(untouched.IsActive)

		count, err := s.svc.Store.AcademicYears.CountActive(s.ctx)
		s.Require().NoError(err)
		s.Equal(int64(1), count)

		current, err := s.svc.AcademicYear.Current(s.ctx)
		s.Require().NoError(err)
		s.Equal("2026-2027", current)
	})

	s.Run("creating the next year twice overlaps", func() {
		_, err := s.svc.AcademicYear.CreateNext(s.ctx, first.ID)
		s.requireValidation(err)
	})
}

func (s *ServiceSuite) TestUNEMStructure() {
	m := s.newMember("أحمد", "ahmed@example.ma")
	user := s.newUser("ahmed", "ahmed@example.ma")

	s.Run("executive office cannot be scoped", func() {
		_, err := s.svc.Structure.SaveUNEM(s.ctx, &MandateInput{
			MemberID:     m.ID,
			PositionType: domain.PositionExecutive,
			Role:         "الكاتب الوطني",
			Region:       "طنجة تطوان الحسيمة",
			StartDate:    s.date(day(2025, time.January, 1)),
		})
		s.requireValidation(err)
	})

	s.Run("regional office needs a region", func() {
		_, err := s.svc.Structure.SaveUNEM(s.ctx, &MandateInput{
			MemberID:     m.ID,
			PositionType: domain.PositionRegional,
			StartDate:    s.date(day(2025, time.January, 1)),
		})
		s.requireValidation(err)
	})

	s.Run("start date is required", func() {
		_, err := s.svc.Structure.SaveUNEM(s.ctx, &MandateInput{MemberID: m.ID, PositionType: domain.PositionExecutive})
		s.requireValidation(err)
	})

	var id uint
	s.Run("executive role grants UNEM Manager", func() {
		record, err := s.svc.Structure.SaveUNEM(s.ctx, &MandateInput{
			MemberID:     m.ID,
			PositionType: domain.PositionExecutive,
			Role:         "الكاتب الوطني",
			StartDate:    s.date(day(2025, time.January, 1)),
			EndDate:      s.date(day(2026, time.June, 30)),
		})
		s.Require().NoError(err)
		s.True(record.IsActive)
		id = record.ID
		s.Contains(s.userRoles(user.ID), domain.RoleUNEMManager)
	})

	s.Run("ended mandate is closed and the role revoked", func() {
		s.svc.SetClock(testutil.Clock(2026, time.July, 1))
		closed, err := s.svc.Structure.DeactivateEnded(s.ctx)
		s.Require().NoError(err)
		s.Equal(1, closed)

		record, err := s.svc.Store.UNEMStructures.GetByID(s.ctx, id)
		s.Require().NoError(err)
		s.False(record.IsActive)
		s.NotContains(s.userRoles(user.ID), domain.RoleUNEMManager)
	})
}

func (s *ServiceSuite) TestMutualStructure() {
	m := s.newMember("سعاد", "souad@example.ma")

	s.Run("privileged role without a user account fails", func() {
		_, err := s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionExecutive,
			Role:          "الرئيس",
			MandateNumber: "M-1",
			StartDate:     s.date(day(2025, time.January, 1)),
		})
		s.ErrorIs(err, ErrMandateUserMissing)
	})

	user := s.newUser("souad", "souad@example.ma")

	s.Run("end defaults to four years and the role is granted", func() {
		record, err := s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionExecutive,
			Role:          "الرئيس",
			MandateNumber: "M-1",
			StartDate:     s.date(day(2025, time.January, 1)),
		})
		s.Require().NoError(err)
		s.Require().NotNil(record.MandateEndDate)
		s.Equal("2029-01-01", record.MandateEndDate.Format(dateutil.Layout))
		s.Contains(s.userRoles(user.ID), domain.RoleMutualManager)
	})

	s.Run("mandate number is unique per position type", func() {
		_, err := s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionExecutive,
			Role:          "أمين المال",
			MandateNumber: "M-1",
			StartDate:     s.date(day(2025, time.January, 1)),
		})
		s.requireValidation(err)

		_, err = s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionProvincial,
			Province:      "عمالة طنجة",
			MandateNumber: "M-1",
			StartDate:     s.date(day(2025, time.January, 1)),
		})
		s.NoError(err)
	})

	s.Run("executive office needs a role", func() {
		_, err := s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionExecutive,
			MandateNumber: "M-2",
			StartDate:     s.date(day(2025, time.January, 1)),
		})
		s.requireValidation(err)
	})

	s.Run("past end date saves inactive and revokes", func() {
		inactive := false
		_, err := s.svc.Structure.SaveMutual(s.ctx, &MandateInput{
			MemberID:      m.ID,
			PositionType:  domain.PositionExecutive,
			Role:          "نائب الرئيس",
			MandateNumber: "M-3",
			StartDate:     s.date(day(2020, time.January, 1)),
			EndDate:       s.date(day(2024, time.January, 1)),
			IsActive:      &inactive,
		})
		s.Require().NoError(err)
		s.NotContains(s.userRoles(user.ID), domain.RoleMutualManager)

		active, err := s.svc.Structure.ListMutual(s.ctx, true)
		s.Require().NoError(err)
		s.Len(active, 2)
	})
}

func (s *ServiceSuite) TestOrganization() {
	s.Run("units build a tree", func() {
		root, err := s.svc.Organization.SaveUnit(s.ctx, &UnitInput{Title: "عمالة طنجة", Type: domain.UnitProvince})
		s.Require().NoError(err)
		office, err := s.svc.Organization.SaveUnit(s.ctx, &UnitInput{
			Title:    "المكتب الإقليمي",
			Type:     domain.UnitOffice,
			ParentID: &root.ID,
			Province: "عمالة طنجة",
		})
		s.Require().NoError(err)
		_, err = s.svc.Organization.SaveUnit(s.ctx, &UnitInput{
			Title:    "الكاتب الإقليمي",
			Type:     domain.UnitPosition,
			ParentID: &office.ID,
			Status:   domain.UnitVacant,
		})
		s.Require().NoError(err)

		page, err := s.svc.Organization.PageContext(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(page.OrganizationTree, 1)
		s.Require().Len(page.OrganizationTree[0].Children, 1)
		s.Len(page.OrganizationTree[0].Children[0].Children, 1)
		s.Equal(int64(1), page.OfficeCount)
		s.Equal(int64(1), page.PositionCount)
		s.Equal(int64(1), page.VacantCount)

		parents, err := s.svc.Organization.Parents(s.ctx)
		s.Require().NoError(err)
		s.Len(parents, 2)
	})

	s.Run("position cannot hold children", func() {
		position, err := s.svc.Organization.SaveUnit(s.ctx, &UnitInput{Title: "أمين المال", Type: domain.UnitPosition})
		s.Require().NoError(err)
		_, err = s.svc.Organization.SaveUnit(s.ctx, &UnitInput{Title: "x", Type: domain.UnitOffice, ParentID: &position.ID})
		s.ErrorIs(err, ErrInvalidParent)
	})

	s.Run("unknown unit type", func() {
		_, err := s.svc.Organization.SaveUnit(s.ctx, &UnitInput{Title: "x", Type: "team"})
		s.ErrorIs(err, ErrInvalidUnitType)
	})

	s.Run("province with offices cannot be deleted", func() {
		s.ErrorIs(s.svc.Organization.DeleteProvince(s.ctx, "عمالة طنجة"), ErrProvinceHasOffices)
	})

	s.Run("province code must have two digits", func() {
		_, err := s.svc.Organization.SaveProvince(s.ctx, &ProvinceInput{Name: "عمالة تطوان", Code: "2"})
		s.requireValidation(err)
	})

	s.Run("province with members cannot be deleted", func() {
		_, err := s.svc.Organization.SaveProvince(s.ctx, &ProvinceInput{Name: "عمالة تطوان", Code: "02"})
		s.Require().NoError(err)
		_, err = s.svc.Member.Save(s.ctx, &MemberInput{FullName: "مراد", Province: ptr("عمالة تطوان")})
		s.Require().NoError(err)
		s.ErrorIs(s.svc.Organization.DeleteProvince(s.ctx, "عمالة تطوان"), ErrProvinceHasMembers)
	})

	s.Run("empty province is deleted", func() {
		_, err := s.svc.Organization.SaveProvince(s.ctx, &ProvinceInput{Name: "إقليم الفحص أنجرة", Code: "03"})
		s.Require().NoError(err)
		s.Require().NoError(s.svc.Organization.DeleteProvince(s.ctx, "إقليم الفحص أنجرة"))
		_, err = s.svc.Organization.GetProvince(s.ctx, "إقليم الفحص أنجرة")
		s.ErrorIs(err, domain.ErrNotFound)
	})
}

func (s *ServiceSuite) TestRoles() {
	role, err := s.svc.Organization.SaveRole(s.ctx, &RoleInput{
		Name:        "Treasurer",
		Description: "أمين المال",
		Permissions: []string{"finance.read", "finance.write"},
	})
	s.Require().NoError(err)
	s.Equal("Treasurer", role.Name)

	details, err := s.svc.Organization.GetRole(s.ctx, "Treasurer")
	s.Require().NoError(err)
	s.ElementsMatch([]string{"finance.read", "finance.write"}, details.Permissions)

	_, err = s.svc.Organization.SaveRole(s.ctx, &RoleInput{RoleName: "Treasurer", Permissions: []string{"finance.read"}})
	s.Require().NoError(err)
	details, err = s.svc.Organization.GetRole(s.ctx, "Treasurer")
	s.Require().NoError(err)
	s.Equal([]string{"finance.read"}, details.Permissions)

	s.newUser("treasurer", "treasurer@umt.ma", "Treasurer")
	s.ErrorIs(s.svc.Organization.DeleteRole(s.ctx, "Treasurer"), ErrRoleHasUsers)

	_, err = s.svc.Organization.SaveRole(s.ctx, &RoleInput{Name: "Auditor"})
	s.Require().NoError(err)
	s.Require().NoError(s.svc.Organization.DeleteRole(s.ctx, "Auditor"))
	_, err = s.svc.Organization.GetRole(s.ctx, "Auditor")
	s.ErrorIs(err, domain.ErrNotFound)
}
