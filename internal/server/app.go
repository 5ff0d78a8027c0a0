// Package server initializes and runs the processor API: it opens the
// database, applies migrations, wires the services and the conversion
// engine, and serves HTTP until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/docforge/docforge/internal/logging"
	"github.com/docforge/docforge/internal/server/config"
	"github.com/docforge/docforge/internal/server/engine"
	"github.com/docforge/docforge/internal/server/httpapi"
	"github.com/docforge/docforge/internal/server/repositories/repomanager"
	"github.com/docforge/docforge/internal/server/services"
	"github.com/docforge/docforge/internal/server/usage"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *http.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	slogger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slogger)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	eng, err := engine.New(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("engine init error: %w", err)
	}

	us := services.NewUserService(db, rm, c)
	hs := services.NewHistoryService(db, rm)
	counter := usage.NewCounter(c.RedisAddr, c.FreeMonthlyOperations, logger)

	api := httpapi.NewServer(logger, us, hs, eng, counter, []byte(c.SecretKey))

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: &http.Server{Addr: c.EndpointAddr, Handler: api.Router()},
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	app.logger.Info(ctx, "listening", "addr", app.config.EndpointAddr)

	if err := app.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	<-ctx.Done()

	shutdownCtx, release := context.WithTimeout(context.Background(), shutdownTimeout)
	defer release()

	if err := app.server.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, "shutdown error", "error", err)
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, "db close error", "error", err)
	}

	wg.Wait()
}
