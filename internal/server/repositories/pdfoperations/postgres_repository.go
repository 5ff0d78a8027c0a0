package pdfoperations

import (
	"context"
	"fmt"

	"github.com/docforge/docforge/internal/dbx"
	"github.com/docforge/docforge/internal/server/models"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Create(ctx context.Context, op *models.PDFOperation) (*models.PDFOperation, error) {

	query :=
		`INSERT INTO pdf_operations (user_id, operation, input_filename, output_url)
         VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		op.UserID, op.Operation, op.InputFilename, op.OutputURL).
		Scan(&op.ID, &op.CreatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return op, nil
}

func (r *PostgresRepository) ListByUser(ctx context.Context, userID string) ([]*models.PDFOperation, error) {
	query :=
		`SELECT id, user_id, operation, input_filename, output_url, created_at
		 FROM pdf_operations
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 `

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.PDFOperation
	for rows.Next() {
		op := &models.PDFOperation{}
		if err := rows.Scan(&op.ID, &op.UserID, &op.Operation, &op.InputFilename,
			&op.OutputURL, &op.CreatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}
