// Package conversions persists the per-user conversion history.
package conversions

import (
	"context"

	"github.com/docforge/docforge/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, c *models.Conversion) (*models.Conversion, error)

	// ListByUser returns the user's records, newest first.
	ListByUser(ctx context.Context, userID string) ([]*models.Conversion, error)

	// Delete removes one record if and only if it belongs to userID.
	// A match on id alone is not enough; records of other users are
	// untouchable and yield a not-found error.
	Delete(ctx context.Context, id, userID string) error
}
