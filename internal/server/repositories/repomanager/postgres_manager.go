package repomanager

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/docforge/docforge/internal/dbx"
	"github.com/docforge/docforge/internal/server/migrations"
	"github.com/docforge/docforge/internal/server/repositories/conversions"
	"github.com/docforge/docforge/internal/server/repositories/pdfoperations"
	"github.com/docforge/docforge/internal/server/repositories/refreshtokens"
	"github.com/docforge/docforge/internal/server/repositories/users"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Conversions(db dbx.DBTX) conversions.Repository {
	return conversions.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) PDFOperations(db dbx.DBTX) pdfoperations.Repository {
	return pdfoperations.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}

	return goose.UpContext(ctx, db, ".")
}
