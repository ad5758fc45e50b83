package services

import (
	"context"
	"errors"
	"fmt"
	"log"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
)

// ErrMandateUserMissing is returned when a structure member's e-mail has no user account
var ErrMandateUserMissing = errors.New("لا يوجد مستخدم مرتبط بالبريد الإلكتروني للعضو")

// StructureService handles the UNEM and mutual mandates and their role grants
type StructureService struct {
	clock
	store *repositories.Store
}

// NewStructureService creates a new structure service
func NewStructureService(store *repositories.Store) *StructureService {
	return &StructureService{store: store}
}

// MandateInput carries the client fields of a structure record
type MandateInput struct {
	ID            uint           `json:"id"`
	MemberID      uint           `json:"member_id"`
	PositionType  string         `json:"position_type"`
	Role          string         `json:"role"`
	Region        string         `json:"region"`
	Province      string         `json:"province"`
	MandateNumber string         `json:"mandate_number"`
	StartDate     *dateutil.Date `json:"start_date"`
	EndDate       *dateutil.Date `json:"end_date"`
	IsActive      *bool          `json:"is_active"`
}

func (in *MandateInput) requireBasics() error {
	if in.MemberID == 0 {
		return domain.Validation("يجب تحديد العضو")
	}
	if in.PositionType == "" {
		return domain.Validation("يجب تحديد نوع المنصب")
	}
	if in.StartDate.TimePtr() == nil {
		return domain.Validation("تاريخ البداية مطلوب")
	}
	return nil
}

// ListUNEM returns UNEM mandates
func (s *StructureService) ListUNEM(ctx context.Context, activeOnly bool) ([]models.UNEMStructure, error) {
	return s.store.UNEMStructures.List(ctx, activeOnly)
}

// ListMutual returns mutual mandates
func (s *StructureService) ListMutual(ctx context.Context, activeOnly bool) ([]models.MutualStructure, error) {
	return s.store.Mutuals.List(ctx, activeOnly)
}

// SaveUNEM validates and stores a UNEM mandate and propagates the UNEM Manager role
func (s *StructureService) SaveUNEM(ctx context.Context, input *MandateInput) (*models.UNEMStructure, error) {
	if err := input.requireBasics(); err != nil {
		return nil, err
	}

	var record *models.UNEMStructure
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if input.ID != 0 {
			existing, err := tx.UNEMStructures.GetByID(ctx, input.ID)
			if err != nil {
				return err
			}
			record = existing
		} else {
			record = &models.UNEMStructure{IsActive: true}
		}

		record.MemberID = input.MemberID
		record.PositionType = input.PositionType
		record.Role = input.Role
		record.Region = input.Region
		record.Province = input.Province
		record.MandateNumber = input.MandateNumber
		record.StartDate = *input.StartDate.TimePtr()
		record.EndDate = input.EndDate.TimePtr()
		if input.IsActive != nil {
			record.IsActive = *input.IsActive
		}

		return s.saveUNEM(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *StructureService) saveUNEM(ctx context.Context, tx *repositories.Store, record *models.UNEMStructure) error {
	if err := rules.ValidateUNEMStructure(record, s.today()); err != nil {
		return err
	}
	if err := tx.UNEMStructures.Save(ctx, record); err != nil {
		return err
	}
	return propagateRole(ctx, tx, record.MemberID, rules.UNEMRoleChange(record), domain.RoleUNEMManager)
}

// SaveMutual validates and stores a mutual mandate and propagates the Mutual Manager role
func (s *StructureService) SaveMutual(ctx context.Context, input *MandateInput) (*models.MutualStructure, error) {
	if err := input.requireBasics(); err != nil {
		return nil, err
	}

	var record *models.MutualStructure
	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if input.ID != 0 {
			existing, err := tx.Mutuals.GetByID(ctx, input.ID)
			if err != nil {
				return err
			}
			record = existing
		} else {
			record = &models.MutualStructure{IsActive: true}
		}

		record.MemberID = input.MemberID
		record.PositionType = input.PositionType
		record.Role = input.Role
		record.Region = input.Region
		record.Province = input.Province
		record.MandateNumber = input.MandateNumber
		record.MandateStartDate = *input.StartDate.TimePtr()
		record.MandateEndDate = input.EndDate.TimePtr()
		if input.IsActive != nil {
			record.IsActive = *input.IsActive
		}

		return s.saveMutual(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (s *StructureService) saveMutual(ctx context.Context, tx *repositories.Store, record *models.MutualStructure) error {
	if err := rules.ValidateMutualStructure(record, s.today()); err != nil {
		return err
	}
	taken, err := tx.Mutuals.MandateNumberTaken(ctx, record.ID, record.PositionType, record.MandateNumber)
	if err != nil {
		return err
	}
	if taken {
		return domain.Validation(rules.MsgMandateNumberTaken, record.MandateNumber)
	}
	if err := tx.Mutuals.Save(ctx, record); err != nil {
		return err
	}
	return propagateRole(ctx, tx, record.MemberID, rules.MutualRoleChange(record), domain.RoleMutualManager)
}

// propagateRole grants or revokes role on the user sharing the member's e-mail.
// A member without e-mail is skipped; an e-mail without a user fails the save.
func propagateRole(ctx context.Context, tx *repositories.Store, memberID uint, change rules.RoleChange, role string) error {
	if change == rules.RoleUnchanged {
		return nil
	}

	member, err := tx.Members.GetByID(ctx, memberID)
	if err != nil {
		return err
	}
	if member.Email == "" {
		return nil
	}

	user, err := tx.Users.GetByEmail(ctx, member.Email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrMandateUserMissing, member.Email)
		}
		return err
	}

	if change == rules.RoleGrant {
		if err := tx.Users.AddRole(ctx, user.ID, role); err != nil {
			return err
		}
		log.Printf("✅ Role %s granted to %s", role, user.Email)
		return nil
	}

	if err := tx.Users.RemoveRole(ctx, user.ID, role); err != nil {
		return err
	}
	log.Printf("✅ Role %s revoked from %s", role, user.Email)
	return nil
}

// DeactivateEnded closes mandates whose end date has passed, revoking their
// roles, and returns how many were closed
func (s *StructureService) DeactivateEnded(ctx context.Context) (int, error) {
	today := s.today()
	closed := 0

	unem, err := s.store.UNEMStructures.ListActiveEndedBefore(ctx, today)
	if err != nil {
		return 0, err
	}
	for i := range unem {
		record := &unem[i]
		if err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
			return s.saveUNEM(ctx, tx, record)
		}); err != nil {
			log.Printf("⚠️ Failed to close UNEM mandate %d: %v", record.ID, err)
			continue
		}
		closed++
	}

	mutual, err := s.store.Mutuals.ListActiveEndedBefore(ctx, today)
	if err != nil {
		return closed, err
	}
	for i := range mutual {
		record := &mutual[i]
		if err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
			return s.saveMutual(ctx, tx, record)
		}); err != nil {
			log.Printf("⚠️ Failed to close mutual mandate %d: %v", record.ID, err)
			continue
		}
		closed++
	}

	return closed, nil
}
