package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth
// ============================================================

// User represents an account that can log in
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	FullName  string         `gorm:"size:150" json:"full_name"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	IsActive  bool           `json:"is_active"`
	Roles     []UserRole     `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

// RoleNames returns the names of the roles loaded with the user
func (u *User) RoleNames() []string {
	names := make([]string, 0, len(u.Roles))
	for _, r := range u.Roles {
		names = append(names, r.Role)
	}
	return names
}

// UserResponse is the public view of a user
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"full_name"`
	Roles     []string  `json:"roles"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

// ToResponse converts User to UserResponse
func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		Roles:     u.RoleNames(),
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// UserRole assigns a role to a user
type UserRole struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_user_role" json:"user_id"`
	Role      string    `gorm:"size:100;not null;uniqueIndex:idx_user_role;index" json:"role"`
	CreatedAt time.Time `json:"created_at"`
}

// RefreshToken represents a stored refresh token
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// IsExpired checks if the token is expired
func (t *RefreshToken) IsExpired() bool {
	return time.Now().After(t.ExpiresAt)
}

// IsRevoked checks if the token is revoked
func (t *RefreshToken) IsRevoked() bool {
	return t.RevokedAt != nil
}

// Role is a named permission group
type Role struct {
	ID          uint             `gorm:"primaryKey" json:"id"`
	Name        string           `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string           `gorm:"size:255" json:"description"`
	DeskAccess  bool             `json:"desk_access"`
	Disabled    bool             `json:"disabled"`
	Permissions []RolePermission `gorm:"foreignKey:RoleID" json:"permissions"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// RolePermission links a role to a permission name
type RolePermission struct {
	ID         uint   `gorm:"primaryKey" json:"id"`
	RoleID     uint   `gorm:"not null;uniqueIndex:idx_role_permission" json:"role_id"`
	Permission string `gorm:"size:100;not null;uniqueIndex:idx_role_permission" json:"permission"`
}

// Permission is a grantable capability
type Permission struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Name        string `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Description string `gorm:"size:255" json:"description"`
	Enabled     bool   `json:"enabled"`
}

// ============================================================
// Membership
// ============================================================

// Member is a union member
type Member struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	FullName         string     `gorm:"size:150;not null" json:"full_name"`
	Email            string     `gorm:"size:100;index" json:"email"`
	Phone            string     `gorm:"size:30" json:"phone"`
	NationalID       string     `gorm:"size:30;index" json:"national_id"`
	BirthDate        *time.Time `gorm:"type:date" json:"birth_date"`
	Province         string     `gorm:"size:100;index" json:"province"`
	AcademicYear     string     `gorm:"size:20;index" json:"academic_year"`
	MembershipDate   *time.Time `gorm:"type:date" json:"membership_date"`
	LastRenewalDate  *time.Time `gorm:"type:date" json:"last_renewal_date"`
	MembershipStatus string     `gorm:"size:20;default:Active;index" json:"membership_status"`
	IsActive         bool       `json:"is_active"`
	CardNumber       string     `gorm:"size:20;index" json:"card_number"`
	CurrentCardID    *uint      `json:"current_card_id"`
	CardExpiry       *time.Time `gorm:"type:date" json:"card_expiry"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// MembershipCard is a yearly card issued to a member
type MembershipCard struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	MemberID      uint      `gorm:"not null;index" json:"member_id"`
	CardNumber    string    `gorm:"size:20;index" json:"card_number"`
	IssueDate     time.Time `gorm:"type:date;not null" json:"issue_date"`
	ExpiryDate    time.Time `gorm:"type:date;not null;index" json:"expiry_date"`
	Status        string    `gorm:"size:20;default:Active;index" json:"status"`
	PaymentStatus string    `gorm:"size:20;default:unpaid" json:"payment_status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
	Member        *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// AcademicYear is a named school year
type AcademicYear struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	YearName  string    `gorm:"uniqueIndex;size:20;not null" json:"year_name"`
	StartDate time.Time `gorm:"type:date;not null" json:"start_date"`
	EndDate   time.Time `gorm:"type:date;not null" json:"end_date"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberLog records member activity shown on dashboards
type MemberLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MemberID     uint      `gorm:"not null;index" json:"member_id"`
	ActivityType string    `gorm:"size:50" json:"activity_type"`
	Description  string    `gorm:"size:255" json:"description"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
	Member       *Member   `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// MembershipRenewal is a member-submitted renewal request
type MembershipRenewal struct {
	ID                   uint      `gorm:"primaryKey" json:"id"`
	MemberID             uint      `gorm:"not null;index" json:"member_id"`
	PaymentMethod        string    `gorm:"size:100" json:"payment_method"`
	Amount               float64   `gorm:"type:decimal(15,2)" json:"amount"`
	TransactionReference string    `gorm:"size:100" json:"transaction_reference"`
	PaymentReceipt       string    `gorm:"size:255" json:"payment_receipt"`
	Status               string    `gorm:"size:20;default:Pending" json:"status"`
	IncomeEntryID        *uint     `json:"income_entry_id"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// ============================================================
// Structures
// ============================================================

// UNEMStructure is a mandate in the union's office hierarchy
type UNEMStructure struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	MemberID      uint       `gorm:"not null;index" json:"member_id"`
	PositionType  string     `gorm:"size:50;not null" json:"position_type"`
	Role          string     `gorm:"size:100" json:"role"`
	Region        string     `gorm:"size:100" json:"region"`
	Province      string     `gorm:"size:100" json:"province"`
	MandateNumber string     `gorm:"size:20" json:"mandate_number"`
	StartDate     time.Time  `gorm:"type:date;not null" json:"start_date"`
	EndDate       *time.Time `gorm:"type:date" json:"end_date"`
	IsActive      bool       `json:"is_active"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Member        *Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// MutualStructure is a mandate in the mutual fund's hierarchy
type MutualStructure struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	MemberID         uint       `gorm:"not null;index" json:"member_id"`
	PositionType     string     `gorm:"size:50;not null;index:idx_mutual_mandate" json:"position_type"`
	Role             string     `gorm:"size:100" json:"role"`
	Region           string     `gorm:"size:100" json:"region"`
	Province         string     `gorm:"size:100" json:"province"`
	MandateNumber    string     `gorm:"size:20;index:idx_mutual_mandate" json:"mandate_number"`
	MandateStartDate time.Time  `gorm:"type:date;not null" json:"mandate_start_date"`
	MandateEndDate   *time.Time `gorm:"type:date" json:"mandate_end_date"`
	IsActive         bool       `json:"is_active"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	Member           *Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// Province is an administrative area; Code feeds card numbers
type Province struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"uniqueIndex;size:100;not null" json:"name"`
	Code      string    `gorm:"size:2;not null" json:"code"`
	Region    string    `gorm:"size:100" json:"region"`
	HeadName  string    `gorm:"size:150" json:"head_name"`
	Status    string    `gorm:"size:20;default:Active" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrganizationUnit is a node of the organization tree
type OrganizationUnit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:150;not null" json:"title"`
	ParentID  *uint     `gorm:"index" json:"parent_id"`
	Type      string    `gorm:"size:20;not null;index" json:"type"`
	Province  string    `gorm:"size:100;index" json:"province"`
	Status    string    `gorm:"size:20;default:Filled" json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ============================================================
// Finance
// ============================================================

// IncomeEntry is a submitted or draft income record
type IncomeEntry struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"uniqueIndex;size:50;not null" json:"name"`
	EntryType     string     `gorm:"size:50;not null;index" json:"entry_type"`
	MemberID      *uint      `gorm:"index" json:"member_id"`
	Amount        float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	PostingDate   time.Time  `gorm:"type:date;not null;index" json:"posting_date"`
	PaymentDate   *time.Time `gorm:"type:date" json:"payment_date"`
	PaymentMethod string     `gorm:"size:100" json:"payment_method"`
	Description   string     `gorm:"size:255" json:"description"`
	AcademicYear  string     `gorm:"size:20;index" json:"academic_year"`
	Status        string     `gorm:"size:20;default:Pending;index" json:"status"`
	DocStatus     int        `gorm:"default:0;index" json:"docstatus"`
	Owner         string     `gorm:"size:100" json:"owner"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	Member        *Member    `gorm:"foreignKey:MemberID" json:"member,omitempty"`
}

// ExpenseEntry is a submitted or draft expense record
type ExpenseEntry struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	Name          string     `gorm:"uniqueIndex;size:50;not null" json:"name"`
	ExpenseType   string     `gorm:"size:50;not null;index" json:"expense_type"`
	Amount        float64    `gorm:"type:decimal(15,2);not null" json:"amount"`
	PostingDate   time.Time  `gorm:"type:date;not null;index" json:"posting_date"`
	PaymentDate   *time.Time `gorm:"type:date" json:"payment_date"`
	PaymentMethod string     `gorm:"size:100" json:"payment_method"`
	Description   string     `gorm:"size:255" json:"description"`
	AttachReceipt string     `gorm:"size:255" json:"attach_receipt"`
	AcademicYear  string     `gorm:"size:20;index" json:"academic_year"`
	Status        string     `gorm:"size:20;default:Pending;index" json:"status"`
	DocStatus     int        `gorm:"default:0;index" json:"docstatus"`
	Owner         string     `gorm:"size:100" json:"owner"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// PaymentMethod is an accepted payment channel
type PaymentMethod struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	MethodName   string    `gorm:"uniqueIndex;size:100;not null" json:"method_name"`
	Description  string    `gorm:"size:255" json:"description"`
	Instructions string    `gorm:"type:text" json:"instructions"`
	MethodType   string    `gorm:"size:50" json:"method_type"`
	Enabled      bool      `json:"enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ============================================================
// Settings (single-row tables)
// ============================================================

// NotificationSettings holds the notification toggles
type NotificationSettings struct {
	ID                     uint      `gorm:"primaryKey" json:"-"`
	EnableMembershipExpiry bool      `json:"enable_membership_expiry"`
	EnableNewMember        bool      `json:"enable_new_member"`
	EnablePaymentReceived  bool      `json:"enable_payment_received"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// SystemSettings holds organization-wide settings
type SystemSettings struct {
	ID                 uint      `gorm:"primaryKey" json:"-"`
	OrganizationName   string    `gorm:"size:150" json:"organization_name"`
	Address            string    `gorm:"size:255" json:"address"`
	Phone              string    `gorm:"size:30" json:"phone"`
	Email              string    `gorm:"size:100" json:"email"`
	Language           string    `gorm:"size:5;default:ar" json:"language"`
	SessionExpiry      int       `gorm:"default:360" json:"session_expiry"`
	TwoFactorAuth      bool      `json:"two_factor_auth"`
	ForcePasswordReset bool      `json:"force_password_reset"`
	MembershipFee      float64   `gorm:"type:decimal(15,2)" json:"membership_fee"`
	LateFee            float64   `gorm:"type:decimal(15,2)" json:"late_fee"`
	BankName           string    `gorm:"size:100" json:"bank_name"`
	BankAccount        string    `gorm:"size:50" json:"bank_account"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// EmailSettings holds the outgoing SMTP account
type EmailSettings struct {
	ID           uint      `gorm:"primaryKey" json:"-"`
	SMTPServer   string    `gorm:"size:150" json:"smtp_server"`
	SMTPPort     int       `gorm:"default:587" json:"smtp_port"`
	SMTPUser     string    `gorm:"size:150" json:"smtp_user"`
	SMTPPassword string    `gorm:"size:255" json:"-"`
	FromAddress  string    `gorm:"size:150" json:"from_address"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Configured reports whether enough fields are set to send mail
func (e *EmailSettings) Configured() bool {
	return e.SMTPServer != "" && e.SMTPPort > 0
}

// SystemDefault is a key/value default (e.g. current_academic_year)
type SystemDefault struct {
	Key       string    `gorm:"primaryKey;size:100" json:"key"`
	Value     string    `gorm:"size:255" json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ErrorLog stores failures raised by RPC handlers and jobs
type ErrorLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Title     string    `gorm:"size:150;index" json:"title"`
	Message   string    `gorm:"type:text" json:"message"`
	Trace     string    `gorm:"type:text" json:"trace"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// ============================================================
// Migration
// ============================================================

// All returns every persisted model, in dependency order
func All() []interface{} {
	return []interface{}{
		&User{},
		&UserRole{},
		&RefreshToken{},
		&Role{},
		&RolePermission{},
		&Permission{},
		&Province{},
		&OrganizationUnit{},
		&AcademicYear{},
		&Member{},
		&MembershipCard{},
		&MemberLog{},
		&UNEMStructure{},
		&MutualStructure{},
		&PaymentMethod{},
		&IncomeEntry{},
		&ExpenseEntry{},
		&MembershipRenewal{},
		&NotificationSettings{},
		&SystemSettings{},
		&EmailSettings{},
		&SystemDefault{},
		&ErrorLog{},
	}
}

// AutoMigrate creates or updates all application tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(All()...)
}
