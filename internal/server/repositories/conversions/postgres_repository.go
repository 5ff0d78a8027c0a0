package conversions

import (
	"context"
	"fmt"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/dbx"
	"github.com/docforge/docforge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, c *models.Conversion) (*models.Conversion, error) {

	query :=
		`INSERT INTO conversions (user_id, original_filename, original_format, output_format, output_url)
         VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		c.UserID, c.OriginalFilename, c.OriginalFormat, c.OutputFormat, c.OutputURL).
		Scan(&c.ID, &c.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return c, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.Conversion, error) {
	query :=
		`SELECT id, user_id, original_filename, original_format, output_format, output_url, created_at
		 FROM conversions
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Conversion
	for rows.Next() {
		c := &models.Conversion{}
		if err := rows.Scan(&c.ID, &c.UserID, &c.OriginalFilename, &c.OriginalFormat,
			&c.OutputFormat, &c.OutputURL, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

// Delete is owner-scoped: the user_id predicate makes a foreign record
// indistinguishable from an absent one.
func (r *PostgresRepository) Delete(ctx context.Context, id, userID string) error {
	query :=
		`DELETE FROM conversions
		 WHERE id = $1 AND user_id = $2
		 `

	res, err := r.db.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrNotFound
	}
	return nil
}
