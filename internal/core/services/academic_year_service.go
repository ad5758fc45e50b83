package services

import (
	"context"
	"log"
	"strings"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/core/rules"
	"unem-umt/internal/pkg/dateutil"
)

// AcademicYearService handles academic years and the active year default
type AcademicYearService struct {
	store *repositories.Store
}

// NewAcademicYearService creates a new academic year service
func NewAcademicYearService(store *repositories.Store) *AcademicYearService {
	return &AcademicYearService{store: store}
}

// AcademicYearInput carries the client fields of save_academic_year
type AcademicYearInput struct {
	ID        uint           `json:"id"`
	YearName  string         `json:"year_name"`
	StartDate *dateutil.Date `json:"start_date"`
	EndDate   *dateutil.Date `json:"end_date"`
	IsActive  *bool          `json:"is_active"`
}

// List returns every academic year, latest first
func (s *AcademicYearService) List(ctx context.Context) ([]models.AcademicYear, error) {
	return s.store.AcademicYears.List(ctx)
}

// Save validates and stores a year. Activating a year deactivates every
// other year and records it as the current academic year default.
func (s *AcademicYearService) Save(ctx context.Context, input *AcademicYearInput) (*models.AcademicYear, error) {
	var year *models.AcademicYear

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		if input.ID != 0 {
			existing, err := tx.AcademicYears.GetByID(ctx, input.ID)
			if err != nil {
				return err
			}
			year = existing
		} else {
			year = &models.AcademicYear{}
		}

		if name := strings.TrimSpace(input.YearName); name != "" {
			year.YearName = name
		}
		if d := input.StartDate.TimePtr(); d != nil {
			year.StartDate = *d
		}
		if d := input.EndDate.TimePtr(); d != nil {
			year.EndDate = *d
		}
		if input.IsActive != nil {
			year.IsActive = *input.IsActive
		}

		if year.YearName == "" {
			return domain.Validation("اسم السنة الدراسية مطلوب")
		}
		return saveAcademicYear(ctx, tx, year)
	})
	if err != nil {
		return nil, err
	}
	return year, nil
}

// saveAcademicYear runs the academic year rules and hooks inside tx
func saveAcademicYear(ctx context.Context, tx *repositories.Store, year *models.AcademicYear) error {
	if err := rules.ValidateAcademicYearDates(year); err != nil {
		return err
	}

	overlapping, err := tx.AcademicYears.FindOverlapping(ctx, year.ID, year.StartDate, year.EndDate)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		names := make([]string, len(overlapping))
		for i, y := range overlapping {
			names[i] = y.YearName
		}
		return rules.OverlapError(names)
	}

	if err := tx.AcademicYears.Save(ctx, year); err != nil {
		return err
	}

	if year.IsActive {
		if err := tx.AcademicYears.DeactivateOthers(ctx, year.ID); err != nil {
			return err
		}
		if err := tx.Settings.SetDefault(ctx, domain.DefaultCurrentAcademicYear, year.YearName); err != nil {
			return err
		}
		log.Printf("✅ Active academic year: %s", year.YearName)
	}
	return nil
}

// CreateNext creates the inactive year following the given one
func (s *AcademicYearService) CreateNext(ctx context.Context, id uint) (*models.AcademicYear, error) {
	var next *models.AcademicYear

	err := s.store.Transaction(ctx, func(tx *repositories.Store) error {
		current, err := tx.AcademicYears.GetByID(ctx, id)
		if err != nil {
			return err
		}
		next, err = rules.NextAcademicYear(current)
		if err != nil {
			return err
		}
		return saveAcademicYear(ctx, tx, next)
	})
	if err != nil {
		return nil, err
	}
	return next, nil
}

// Current returns the name of the current academic year default
func (s *AcademicYearService) Current(ctx context.Context) (string, error) {
	return s.store.Settings.GetDefault(ctx, domain.DefaultCurrentAcademicYear)
}
