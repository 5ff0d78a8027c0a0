// Package repomanager vends table repositories and runs schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/docforge/docforge/internal/dbx"
	"github.com/docforge/docforge/internal/server/repositories/conversions"
	"github.com/docforge/docforge/internal/server/repositories/pdfoperations"
	"github.com/docforge/docforge/internal/server/repositories/refreshtokens"
	"github.com/docforge/docforge/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Conversions(db dbx.DBTX) conversions.Repository
	PDFOperations(db dbx.DBTX) pdfoperations.Repository
}
