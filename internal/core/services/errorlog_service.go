package services

import (
	"context"
	"log"
	"runtime/debug"

	"unem-umt/internal/adapters/persistence/models"
	"unem-umt/internal/adapters/persistence/repositories"
	"unem-umt/internal/pkg/metrics"
)

// ErrorLogService records failures raised by RPCs and jobs
type ErrorLogService struct {
	store *repositories.Store
}

// NewErrorLogService creates a new error log service
func NewErrorLogService(store *repositories.Store) *ErrorLogService {
	return &ErrorLogService{store: store}
}

// Record logs err under title and persists it with the current stack
func (s *ErrorLogService) Record(ctx context.Context, title string, err error) {
	if err == nil {
		return
	}
	log.Printf("❌ %s: %v", title, err)
	metrics.IncRPCFailure(title)

	entry := &models.ErrorLog{
		Title:   title,
		Message: err.Error(),
		Trace:   string(debug.Stack()),
	}
	if saveErr := s.store.ErrorLogs.Save(ctx, entry); saveErr != nil {
		log.Printf("⚠️ Failed to persist error log: %v", saveErr)
	}
}

// Recent returns the newest error log entries
func (s *ErrorLogService) Recent(ctx context.Context, limit int) ([]models.ErrorLog, error) {
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.store.ErrorLogs.Recent(ctx, limit)
}

// Audit persists an informational entry without a stack
func (s *ErrorLogService) Audit(ctx context.Context, title, message string) {
	log.Printf("📝 %s: %s", title, message)
	if err := s.store.ErrorLogs.Save(ctx, &models.ErrorLog{Title: title, Message: message}); err != nil {
		log.Printf("⚠️ Failed to persist audit entry: %v", err)
	}
}
