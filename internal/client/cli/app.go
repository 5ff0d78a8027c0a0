package cli

import (
	"bufio"
	"context"
	"log/slog"
	"os"

	"github.com/docforge/docforge/internal/client/config"
	"github.com/docforge/docforge/internal/client/download"
	"github.com/docforge/docforge/internal/client/history"
	"github.com/docforge/docforge/internal/client/invoke"
	"github.com/docforge/docforge/internal/client/orchestrator"
	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/client/storage"
	"github.com/docforge/docforge/internal/logging"
)

// App wires the client components together and drives the interactive loop.
// An Orchestrator exists only while a session is live; login creates it and
// logout tears it down.
type App struct {
	config     *config.Config
	logger     logging.Logger
	api        *invoke.Client
	store      *storage.Gateway
	downloader *download.Trigger

	sess     *session.Session
	orch     *orchestrator.Orchestrator
	recorder *history.Recorder
	reader   *bufio.Reader
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	store, err := storage.NewGateway(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	return &App{
		config:     c,
		logger:     logger,
		api:        invoke.NewClient(c.ServerEndpointURL),
		store:      store,
		downloader: download.NewTrigger(c.DownloadDir, c.DownloadDelay, logger),
		reader:     bufio.NewReader(os.Stdin),
	}, nil
}

func (a *App) Run(ctx context.Context) {
	defer a.teardown()
	a.Root(ctx)
}

func (a *App) isLoggedIn() bool {
	return a.sess.Live()
}

// openSession installs a fresh session and rebuilds the orchestrator on top
// of it.
func (a *App) openSession(s *session.Session) {
	a.teardown()
	a.sess = s
	a.recorder = history.NewRecorder(a.api, a.logger)
	a.orch = orchestrator.New(a.config, a.logger, a.store, a.api, a.recorder, a.downloader, s)
}

// teardown releases staged files and drops the session.
func (a *App) teardown() {
	if a.orch != nil {
		a.orch.Close()
		a.orch = nil
	}
	a.sess = nil
}
