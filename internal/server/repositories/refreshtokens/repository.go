// Package refreshtokens stores the opaque refresh tokens backing the auth
// refresh endpoint.
package refreshtokens

import (
	"context"
	"time"

	"github.com/docforge/docforge/internal/server/models"
)

type Repository interface {
	// Create stores a token for userID expiring at now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find resolves the opaque token string to its stored metadata, or a
	// not-found error.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete revokes a token. Deleting an absent token is not an error.
	Delete(ctx context.Context, token string) error
}
