// Package httpapi is the processor's public HTTP surface: auth, the
// operations endpoint, and owner-scoped conversion history, all JSON over
// gin with bearer credentials.
package httpapi

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge/internal/logging"
	"github.com/docforge/docforge/internal/server/engine"
	"github.com/docforge/docforge/internal/server/models"
	"github.com/docforge/docforge/internal/server/services"
	"github.com/docforge/docforge/internal/server/usage"
)

// userService is the auth surface the handlers call.
type userService interface {
	Register(ctx context.Context, email, password string) (*services.TokenPair, error)
	Login(ctx context.Context, email, password string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	UpgradePlan(ctx context.Context, userID string) (*services.TokenPair, error)
}

// historyService persists conversion history and operation audit rows.
type historyService interface {
	Record(ctx context.Context, c *models.Conversion) (*models.Conversion, error)
	List(ctx context.Context, userID string) ([]*models.Conversion, error)
	Delete(ctx context.Context, id, userID string) error
	Audit(ctx context.Context, op *models.PDFOperation) (*models.PDFOperation, error)
	AuditLog(ctx context.Context, userID string) ([]*models.PDFOperation, error)
}

// processor produces artifacts for one operation request.
type processor interface {
	Process(ctx context.Context, req engine.Request) (*engine.Result, error)
}

// limiter enforces the free plan's monthly operation cap. *usage.Counter
// satisfies it.
type limiter interface {
	Allow(ctx context.Context, userID, plan string) bool
	Record(ctx context.Context, userID string)
}

var _ limiter = (*usage.Counter)(nil)

type Server struct {
	logger    logging.Logger
	users     userService
	history   historyService
	engine    processor
	usage     limiter
	jwtSecret []byte
}

func NewServer(logger logging.Logger, users userService, history historyService, eng processor, counter limiter, jwtSecret []byte) *Server {
	return &Server{
		logger:    logger,
		users:     users,
		history:   history,
		engine:    eng,
		usage:     counter,
		jwtSecret: jwtSecret,
	}
}

// Router builds the gin engine with all routes mounted.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	v1 := r.Group("/api/v1")
	v1.GET("/ping", s.handlePing)
	v1.POST("/auth/register", s.handleRegister)
	v1.POST("/auth/login", s.handleLogin)
	v1.POST("/auth/refresh", s.handleRefresh)

	authed := v1.Group("")
	authed.Use(s.authMiddleware())
	authed.POST("/operations", s.handleOperation)
	authed.GET("/operations", s.handleOperationLog)
	authed.POST("/account/upgrade", s.handleUpgrade)
	authed.POST("/history", s.handleHistoryCreate)
	authed.GET("/history", s.handleHistoryList)
	authed.DELETE("/history/:id", s.handleHistoryDelete)

	return r
}

func (s *Server) handlePing(c *gin.Context) {
	c.JSON(200, gin.H{"status": "ok"})
}
