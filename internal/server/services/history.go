package services

import (
	"context"
	"database/sql"

	"github.com/docforge/docforge/internal/server/models"
	"github.com/docforge/docforge/internal/server/repositories/repomanager"
)

// HistoryService exposes owner-scoped conversion history. The user id always
// comes from verified token claims, never from the request body.
type HistoryService struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
}

func NewHistoryService(db *sql.DB, m repomanager.RepositoryManager) *HistoryService {
	return &HistoryService{db: db, repos: m}
}

func (s *HistoryService) Record(ctx context.Context, c *models.Conversion) (*models.Conversion, error) {
	return s.repos.Conversions(s.db).Create(ctx, c)
}

func (s *HistoryService) List(ctx context.Context, userID string) ([]*models.Conversion, error) {
	return s.repos.Conversions(s.db).ListByUser(ctx, userID)
}

func (s *HistoryService) Delete(ctx context.Context, id, userID string) error {
	return s.repos.Conversions(s.db).Delete(ctx, id, userID)
}

// Audit writes the insert-only pdf_operations row.
func (s *HistoryService) Audit(ctx context.Context, op *models.PDFOperation) (*models.PDFOperation, error) {
	return s.repos.PDFOperations(s.db).Create(ctx, op)
}

// AuditLog returns the user's PDF tool invocations, newest first.
func (s *HistoryService) AuditLog(ctx context.Context, userID string) ([]*models.PDFOperation, error) {
	return s.repos.PDFOperations(s.db).ListByUser(ctx, userID)
}
