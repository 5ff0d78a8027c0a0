// Package pdfoperations records an audit row for each PDF tool invocation.
package pdfoperations

import (
	"context"

	"github.com/docforge/docforge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, op *models.PDFOperation) (*models.PDFOperation, error)
	ListByUser(ctx context.Context, userID string) ([]*models.PDFOperation, error)
}
