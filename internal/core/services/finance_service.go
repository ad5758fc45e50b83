package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
	"unem-umt/internal/pkg/xlsx"

	"github.com/google/uuid"
)

// Finance errors
var (
	ErrEntryLocked       = errors.New("لا يمكن تعديل معاملة مؤكدة أو ملغاة")
	ErrEntryNotDraft     = errors.New("المعاملة ليست مسودة")
	ErrEntryNotSubmitted = errors.New("المعاملة غير مؤكدة")
	ErrInvalidEntryState = errors.New("حالة المعاملة غير صالحة")
)

// Finance messages
const (
	MsgTransactionSaved     = "تم حفظ المعاملة بنجاح"
	MsgTransactionStatus    = "تم تحديث حالة المعاملة بنجاح"
	MsgTransactionSubmitted = "تم تأكيد المعاملة بنجاح"
	MsgTransactionCancelled = "تم إلغاء المعاملة بنجاح"
)

// FinanceExportSheet and FinanceExportFile name the transaction export
const (
	FinanceExportSheet = "Finance Export"
	FinanceExportFile  = "finance_export.xlsx"
)

// FinanceService handles income and expense entries
type FinanceService struct {
	clock
	store  *repositories.Store
	cards  *CardService
	notify *NotificationService
}

// NewFinanceService creates a new finance service
func NewFinanceService(store *repositories.Store, cards *CardService, notify *NotificationService) *FinanceService {
	return &FinanceService{store: store, cards: cards, notify: notify}
}

// SetClock overrides the time source of the service and its card service
func (s *FinanceService) SetClock(now func() time.Time) {
	s.clock.SetClock(now)
	if s.cards != nil {
		s.cards.SetClock(now)
	}
}

// IsIncomeName reports whether a transaction reference names an income entry
func IsIncomeName(name string) bool {
	return strings.Contains(name, "INC")
}

// newEntryName builds a unique reference such as INC-20260315-1A2B3C4D
func newEntryName(prefix string, day time.Time) string {
	id := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))
	return fmt.Sprintf("%s-%s-%s", prefix, day.Format("20060102"), id[:8])
}

// TransactionInput carries the client fields of save_transaction
type TransactionInput struct {
	Name            string         `json:"name"`
	TransactionType string         `json:"transaction_type"`
	EntryType       string         `json:"entry_type"`
	ExpenseType     string         `json:"expense_type"`
	MemberID        *uint          `json:"member_id"`
	Amount          float64        `json:"amount"`
	PostingDate     *dateutil.Date `json:"posting_date"`
	PaymentDate     *dateutil.Date `json:"payment_date"`
	PaymentMethod   string         `json:"payment_method"`
	Description     string         `json:"description"`
	AttachReceipt   string         `json:"attach_receipt"`
	AcademicYear    string         `json:"academic_year"`
}

// SaveTransaction creates or updates a draft entry and returns its reference.
// transaction_type "income" selects an income entry, anything else an expense.
func (s *FinanceService) SaveTransaction(ctx context.Context, input *TransactionInput, owner string) (string, error) {
	if input.TransactionType == domain.TransactionIncome {
		entry, err := s.saveIncome(ctx, s.store, input, owner)
		if err != nil {
			return "", err
		}
		return entry.Name, nil
	}
	entry, err := s.saveExpense(ctx, input, owner)
	if err != nil {
		return "", err
	}
	return entry.Name, nil
}

func (s *FinanceService) saveIncome(ctx context.Context, store *repositories.Store, input *TransactionInput, owner string) (*models.IncomeEntry, error) {
	today := s.today()

	entry := &models.IncomeEntry{
		PostingDate: today,
		Status:      domain.EntryPending,
		DocStatus:   domain.DocDraft,
		Owner:       owner,
		EntryType:   domain.IncomeOther,
	}
	if input.Name != "" {
		existing, err := store.Income.GetByName(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		if existing.DocStatus != domain.DocDraft {
			return nil, ErrEntryLocked
		}
		entry = existing
	} else {
		entry.Name = newEntryName("INC", today)
	}

	if input.EntryType != "" {
		entry.EntryType = input.EntryType
	}
	if input.MemberID != nil {
		entry.MemberID = input.MemberID
	}
	entry.Amount = input.Amount
	if d := input.PostingDate.TimePtr(); d != nil {
		entry.PostingDate = *d
	}
	entry.PaymentDate = input.PaymentDate.TimePtr()
	entry.PaymentMethod = input.PaymentMethod
	entry.Description = input.Description
	if err := s.fillAcademicYear(ctx, store, &entry.AcademicYear, input.AcademicYear); err != nil {
		return nil, err
	}

	if err := rules.ValidateIncome(entry, today); err != nil {
		return nil, err
	}
	if err := store.Income.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *FinanceService) saveExpense(ctx context.Context, input *TransactionInput, owner string) (*models.ExpenseEntry, error) {
	today := s.today()

	entry := &models.ExpenseEntry{
		PostingDate: today,
		Status:      domain.EntryPending,
		DocStatus:   domain.DocDraft,
		Owner:       owner,
		ExpenseType: domain.ExpenseOther,
	}
	if input.Name != "" {
		existing, err := s.store.Expenses.GetByName(ctx, input.Name)
		if err != nil {
			return nil, err
		}
		if existing.DocStatus != domain.DocDraft {
			return nil, ErrEntryLocked
		}
		entry = existing
	} else {
		entry.Name = newEntryName("EXP", today)
	}

	if input.ExpenseType != "" {
		entry.ExpenseType = input.ExpenseType
	}
	entry.Amount = input.Amount
	if d := input.PostingDate.TimePtr(); d != nil {
		entry.PostingDate = *d
	}
	entry.PaymentDate = input.PaymentDate.TimePtr()
	entry.PaymentMethod = input.PaymentMethod
	entry.Description = input.Description
	if input.AttachReceipt != "" {
		entry.AttachReceipt = input.AttachReceipt
	}
	if err := s.fillAcademicYear(ctx, s.store, &entry.AcademicYear, input.AcademicYear); err != nil {
		return nil, err
	}

	if err := rules.ValidateExpense(entry, today); err != nil {
		return nil, err
	}
	if err := s.store.Expenses.Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

// fillAcademicYear uses the requested year, else keeps the current value, else the current default
func (s *FinanceService) fillAcademicYear(ctx context.Context, store *repositories.Store, dst *string, requested string) error {
	if requested != "" {
		*dst = requested
		return nil
	}
	if *dst != "" {
		return nil
	}
	current, err := store.Settings.GetDefault(ctx, domain.DefaultCurrentAcademicYear)
	if err != nil {
		return err
	}
	*dst = current
	return nil
}

// UpdateTransactionStatus sets the workflow status of an entry
func (s *FinanceService) UpdateTransactionStatus(ctx context.Context, name, status string) error {
	switch status {
	case domain.EntryPending, domain.EntryApproved, domain.EntryRejected:
	default:
		return ErrInvalidEntryState
	}

	today := s.today()
	if IsIncomeName(name) {
		entry, err := s.store.Income.GetByName(ctx, name)
		if err != nil {
			return err
		}
		entry.Status = status
		if err := rules.ValidateIncome(entry, today); err != nil {
			return err
		}
		return s.store.Income.Save(ctx, entry)
	}

	entry, err := s.store.Expenses.GetByName(ctx, name)
	if err != nil {
		return err
	}
	entry.Status = status
	if err := rules.ValidateExpense(entry, today); err != nil {
		return err
	}
	return s.store.Expenses.Save(ctx, entry)
}

// Submit moves a draft entry to submitted. A card-fee income marks the
// member's active card as paid.
func (s *FinanceService) Submit(ctx context.Context, name string) error {
	if !IsIncomeName(name) {
		return s.setExpenseDocStatus(ctx, name, domain.DocDraft, domain.DocSubmitted)
	}

	var entry *models.IncomeEntry
	var member *models.Member
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		var err error
		entry, member, err = s.submitIncome(ctx, tx, name)
		return err
	})
	if err != nil {
		return err
	}

	log.Printf("✅ Income entry submitted: %s (%.2f)", entry.Name, entry.Amount)
	if s.notify != nil {
		s.notify.NotifyPaymentReceived(ctx, entry, member)
	}
	return nil
}

// submitIncome runs the income submit hook inside tx
func (s *FinanceService) submitIncome(ctx context.Context, tx *repositories.Store, name string) (*models.IncomeEntry, *models.Member, error) {
	entry, err := tx.Income.GetByName(ctx, name)
	if err != nil {
		return nil, nil, err
	}
	if entry.DocStatus != domain.DocDraft {
		return nil, nil, ErrEntryNotDraft
	}
	if err := rules.ValidateIncome(entry, s.today()); err != nil {
		return nil, nil, err
	}
	entry.DocStatus = domain.DocSubmitted
	if err := tx.Income.Save(ctx, entry); err != nil {
		return nil, nil, err
	}

	var member *models.Member
	if entry.MemberID != nil {
		if member, err = tx.Members.GetByID(ctx, *entry.MemberID); err != nil {
			return nil, nil, err
		}
	}
	if err := s.updateCardPayment(ctx, tx, entry, domain.PaymentPaid); err != nil {
		return nil, nil, err
	}
	return entry, member, nil
}

// Cancel moves a submitted entry to cancelled. A card-fee income marks the
// member's active card as unpaid again.
func (s *FinanceService) Cancel(ctx context.Context, name string) error {
	if !IsIncomeName(name) {
		return s.setExpenseDocStatus(ctx, name, domain.DocSubmitted, domain.DocCancelled)
	}

	return s.store.Transaction(ctx, func(tx *repositories.Store) error {
		entry, err := tx.Income.GetByName(ctx, name)
		if err != nil {
			return err
		}
		if entry.DocStatus != domain.DocSubmitted {
			return ErrEntryNotSubmitted
		}
		entry.DocStatus = domain.DocCancelled
		if err := tx.Income.Save(ctx, entry); err != nil {
			return err
		}
		return s.updateCardPayment(ctx, tx, entry, domain.PaymentUnpaid)
	})
}

func (s *FinanceService) setExpenseDocStatus(ctx context.Context, name string, from, to int) error {
	entry, err := s.store.Expenses.GetByName(ctx, name)
	if err != nil {
		return err
	}
	if entry.DocStatus != from {
		if from == domain.DocDraft {
			return ErrEntryNotDraft
		}
		return ErrEntryNotSubmitted
	}
	if to == domain.DocSubmitted {
		if err := rules.ValidateExpense(entry, s.today()); err != nil {
			return err
		}
	}
	entry.DocStatus = to
	return s.store.Expenses.Save(ctx, entry)
}

// updateCardPayment sets the payment status of the member's latest active card
func (s *FinanceService) updateCardPayment(ctx context.Context, tx *repositories.Store, entry *models.IncomeEntry, paymentStatus string) error {
	if entry.EntryType != domain.IncomeCardFee || entry.MemberID == nil {
		return nil
	}
	card, err := tx.Cards.LatestActive(ctx, *entry.MemberID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return err
	}
	card.PaymentStatus = paymentStatus
	return s.cards.save(ctx, tx, card, s.today())
}

// ============================================================
// Finance page
// ============================================================

// Transaction is the merged view of an income or expense entry
type Transaction struct {
	Name          string        `json:"name"`
	PostingDate   dateutil.Date `json:"posting_date"`
	Type          string        `json:"type"`
	Category      string        `json:"category"`
	Description   string        `json:"description"`
	Amount        float64       `json:"amount"`
	PaymentMethod string        `json:"payment_method"`
	Status        string        `json:"status"`
	DocStatus     int           `json:"docstatus"`
	Modified      time.Time     `json:"modified"`
	Owner         string        `json:"owner"`
}

// TransactionFilter narrows the merged transaction list
type TransactionFilter struct {
	Type     string
	Status   string
	FromDate *time.Time
	ToDate   *time.Time
}

// FinancePage is the finance page context
type FinancePage struct {
	TotalIncome    float64                `json:"total_income"`
	TotalExpenses  float64                `json:"total_expenses"`
	Balance        float64                `json:"balance"`
	PendingCount   int64                  `json:"pending_count"`
	Transactions   []Transaction          `json:"transactions"`
	PaymentMethods []models.PaymentMethod `json:"payment_methods"`
	AcademicYears  []models.AcademicYear  `json:"academic_years"`
}

// approvedSubmitted filters approved, submitted entries
func approvedSubmitted() repositories.EntryFilter {
	f := repositories.Submitted()
	f.Status = domain.EntryApproved
	return f
}

// monthFilter restricts f to the calendar month of day
func monthFilter(f repositories.EntryFilter, day time.Time) repositories.EntryFilter {
	start := dateutil.MonthStart(day)
	end := start.AddDate(0, 1, -1)
	f.FromDate = &start
	f.ToDate = &end
	return f
}

// PageContext builds the finance page context
func (s *FinanceService) PageContext(ctx context.Context) (*FinancePage, error) {
	today := s.today()
	page := &FinancePage{}
	var err error

	month := monthFilter(approvedSubmitted(), today)
	if page.TotalIncome, err = s.store.Income.Sum(ctx, month); err != nil {
		return nil, err
	}
	if page.TotalExpenses, err = s.store.Expenses.Sum(ctx, month); err != nil {
		return nil, err
	}

	income, err := s.store.Income.Sum(ctx, approvedSubmitted())
	if err != nil {
		return nil, err
	}
	expenses, err := s.store.Expenses.Sum(ctx, approvedSubmitted())
	if err != nil {
		return nil, err
	}
	page.Balance = income - expenses

	pending := repositories.EntryFilter{Status: domain.EntryPending}
	pendingIncome, err := s.store.Income.CountWhere(ctx, pending)
	if err != nil {
		return nil, err
	}
	pendingExpenses, err := s.store.Expenses.CountWhere(ctx, pending)
	if err != nil {
		return nil, err
	}
	page.PendingCount = pendingIncome + pendingExpenses

	if page.Transactions, err = s.Transactions(ctx, TransactionFilter{}); err != nil {
		return nil, err
	}
	if page.PaymentMethods, err = s.store.PaymentMethods.List(ctx, true); err != nil {
		return nil, err
	}
	if page.AcademicYears, err = s.store.AcademicYears.List(ctx); err != nil {
		return nil, err
	}
	return page, nil
}

// Transactions merges income and expense entries, latest posting first
func (s *FinanceService) Transactions(ctx context.Context, f TransactionFilter) ([]Transaction, error) {
	ef := repositories.EntryFilter{Status: f.Status, FromDate: f.FromDate, ToDate: f.ToDate}
	out := make([]Transaction, 0)

	if f.Type == "" || f.Type == domain.TransactionIncome {
		income, err := s.store.Income.List(ctx, ef)
		if err != nil {
			return nil, err
		}
		for _, e := range income {
			out = append(out, Transaction{
				Name:          e.Name,
				PostingDate:   dateutil.Date{Time: e.PostingDate},
				Type:          domain.TransactionIncome,
				Category:      e.EntryType,
				Description:   e.Description,
				Amount:        e.Amount,
				PaymentMethod: e.PaymentMethod,
				Status:        e.Status,
				DocStatus:     e.DocStatus,
				Modified:      e.UpdatedAt,
				Owner:         e.Owner,
			})
		}
	}

	if f.Type == "" || f.Type == domain.TransactionExpense {
		expenses, err := s.store.Expenses.List(ctx, ef)
		if err != nil {
			return nil, err
		}
		for _, e := range expenses {
			out = append(out, Transaction{
				Name:          e.Name,
				PostingDate:   dateutil.Date{Time: e.PostingDate},
				Type:          domain.TransactionExpense,
				Category:      e.ExpenseType,
				Description:   e.Description,
				Amount:        e.Amount,
				PaymentMethod: e.PaymentMethod,
				Status:        e.Status,
				DocStatus:     e.DocStatus,
				Modified:      e.UpdatedAt,
				Owner:         e.Owner,
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].PostingDate.After(out[j].PostingDate.Time)
	})
	return out, nil
}

// Export renders the transactions matching f as a spreadsheet
func (s *FinanceService) Export(ctx context.Context, f TransactionFilter) ([]byte, error) {
	transactions, err := s.Transactions(ctx, f)
	if err != nil {
		return nil, err
	}

	headers := []string{"الرقم المرجعي", "التاريخ", "النوع", "الوصف", "المبلغ", "طريقة الدفع", "الحالة"}
	rows := make([][]interface{}, 0, len(transactions))
	for _, t := range transactions {
		rows = append(rows, []interface{}{
			t.Name,
			t.PostingDate.Format(dateutil.Layout),
			t.Type,
			t.Description,
			t.Amount,
			t.PaymentMethod,
			t.Status,
		})
	}
	return xlsx.Write(FinanceExportSheet, headers, rows)
}
