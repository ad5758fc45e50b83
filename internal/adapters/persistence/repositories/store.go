package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories bound to one connection or transaction
type Store struct {
	db *gorm.DB

	Users          UserRepository
	RefreshTokens  RefreshTokenRepository
	Members        *MemberRepository
	Cards          *CardRepository
	MemberLogs     *MemberLogRepository
	Renewals       *RenewalRepository
	AcademicYears  *AcademicYearRepository
	UNEMStructures *UNEMStructureRepository
	Mutuals        *MutualStructureRepository
	Income         *IncomeRepository
	Expenses       *ExpenseRepository
	PaymentMethods *PaymentMethodRepository
	Settings       *SettingsRepository
	Roles          *RoleRepository
	Provinces      *ProvinceRepository
	Units          *OrganizationUnitRepository
	ErrorLogs      *ErrorLogRepository
}

// NewStore creates a store over db
func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:             db,
		Users:          NewUserRepository(db),
		RefreshTokens:  NewRefreshTokenRepository(db),
		Members:        NewMemberRepository(db),
		Cards:          NewCardRepository(db),
		MemberLogs:     NewMemberLogRepository(db),
		Renewals:       NewRenewalRepository(db),
		AcademicYears:  NewAcademicYearRepository(db),
		UNEMStructures: NewUNEMStructureRepository(db),
		Mutuals:        NewMutualStructureRepository(db),
		Income:         NewIncomeRepository(db),
		Expenses:       NewExpenseRepository(db),
		PaymentMethods: NewPaymentMethodRepository(db),
		Settings:       NewSettingsRepository(db),
		Roles:          NewRoleRepository(db),
		Provinces:      NewProvinceRepository(db),
		Units:          NewOrganizationUnitRepository(db),
		ErrorLogs:      NewErrorLogRepository(db),
	}
}

// DB returns the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Transaction runs fn with a store bound to a single transaction.
// Any error returned by fn rolls the transaction back.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}
