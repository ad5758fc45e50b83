package domain

// Roles known to the system
const (
	RoleAdministrator    = "Administrator"
	RoleSystemManager    = "System Manager"
	RoleFinanceManager   = "Finance Manager"
	RoleFinanceUser      = "Finance User"
	RoleStructureManager = "Structure Manager"
	RoleHRManager        = "HR Manager"
	RoleUMTManager       = "UMT Manager"
	RoleUMTMember        = "UMT Member"
	RoleUNEMManager      = "UNEM Manager"
	RoleMutualManager    = "Mutual Manager"
)

// Role sets guarding the admin pages. Administrator passes every check.
var (
	DashboardRoles     = []string{RoleSystemManager, RoleFinanceManager, RoleUMTManager}
	MembersPageRoles   = []string{RoleSystemManager}
	FinancePageRoles   = []string{RoleSystemManager, RoleFinanceManager, RoleFinanceUser}
	StructurePageRoles = []string{RoleSystemManager, RoleStructureManager, RoleHRManager}
	SettingsPageRoles  = []string{RoleSystemManager}
	ReportRoles        = []string{RoleSystemManager, RoleFinanceManager, RoleUMTManager}
)

// Messages returned when a role check fails
const (
	MsgDashboardForbidden = "غير مصرح لك بالوصول إلى لوحة التحكم"
	MsgMembersForbidden   = "غير مصرح لك بالوصول إلى صفحة إدارة الأعضاء"
	MsgFinanceForbidden   = "غير مصرح لك بالوصول إلى صفحة الإدارة المالية"
	MsgStructureForbidden = "غير مصرح لك بالوصول إلى صفحة إدارة الهياكل"
	MsgSettingsForbidden  = "غير مصرح لك بالوصول إلى صفحة الإعدادات"
	MsgReportsForbidden   = "غير مصرح لك بالوصول إلى التقارير"
	MsgBackupForbidden    = "غير مصرح لك بإدارة النسخ الاحتياطية"
)

// HasAnyRole reports whether held contains one of allowed, or Administrator
func HasAnyRole(held []string, allowed ...string) bool {
	for _, h := range held {
		if h == RoleAdministrator {
			return true
		}
		for _, a := range allowed {
			if h == a {
				return true
			}
		}
	}
	return false
}

// Membership status
const (
	MembershipActive   = "Active"
	MembershipInactive = "Inactive"
	MembershipExpired  = "Expired"
)

// Membership card status
const (
	CardActive    = "Active"
	CardExpired   = "Expired"
	CardCancelled = "Cancelled"
)

// Card payment status
const (
	PaymentPaid   = "paid"
	PaymentUnpaid = "unpaid"
)

// Finance entry workflow status
const (
	EntryPending  = "Pending"
	EntryApproved = "Approved"
	EntryRejected = "Rejected"
)

// Document status of finance entries
const (
	DocDraft     = 0
	DocSubmitted = 1
	DocCancelled = 2
)

// Income entry types
const (
	IncomeCardFee = "بطاقة الإنخراط"
	IncomeOther   = "مداخيل أخرى"
)

// Expense categories
const (
	ExpenseAdministrative = "مصاريف إدارية"
	ExpenseActivities     = "مصاريف الأنشطة"
	ExpenseOther          = "مصاريف أخرى"
)

// Position types shared by the UNEM and mutual structures
const (
	PositionExecutive  = "المكتب التنفيذي"
	PositionRegional   = "المكاتب الجهوية"
	PositionProvincial = "المكاتب الإقليمية"
	PositionLocal      = "المكاتب المحلية"
)

// Organization unit types
const (
	UnitProvince   = "province"
	UnitOffice     = "office"
	UnitDepartment = "department"
	UnitPosition   = "position"
)

// Organization unit status
const (
	UnitFilled = "Filled"
	UnitVacant = "Vacant"
)

// Renewal request status
const (
	RenewalPending  = "Pending"
	RenewalApproved = "Approved"
	RenewalRejected = "Rejected"
)

// CashPaymentMethod is approved on submission without review
const CashPaymentMethod = "نقدا"

// Transaction kinds used by the finance RPCs
const (
	TransactionIncome  = "income"
	TransactionExpense = "expense"
)

// ReceiptThreshold is the expense amount above which a receipt is mandatory
const ReceiptThreshold = 1000.0

// DefaultCurrentAcademicYear is the system default key for the active year
const DefaultCurrentAcademicYear = "current_academic_year"
