package httpapi

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/server/engine"
	"github.com/docforge/docforge/internal/server/models"
)

type operationRequest struct {
	Operation    string   `json:"operation" binding:"required"`
	FileURL      string   `json:"fileUrl"`
	FileURLs     []string `json:"fileUrls"`
	FileID       string   `json:"fileId"`
	FileName     string   `json:"fileName"`
	UserID       string   `json:"userId"`
	TargetFormat string   `json:"targetFormat"`
	PageRanges   string   `json:"pageRanges"`
	OutputName   string   `json:"outputName"`
	Password     string   `json:"password"`
	Language     string   `json:"language"`
}

type operationResponse struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	OutputURL  string   `json:"outputUrl,omitempty"`
	OutputURLs []string `json:"outputUrls,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// knownOperations is the full operation vocabulary; anything else is
// rejected before plan gating so an unknown kind can never slip past it.
var knownOperations = map[string]bool{
	"convert": true,
	"merge":   true,
	"split":   true,
	"protect": true,
	"unlock":  true,
	"ocr":     true,
}

// pdfOperations are audited in pdf_operations; convert lands in the
// conversions history via the client's history call instead.
var pdfOperations = map[string]bool{
	"merge":   true,
	"split":   true,
	"protect": true,
	"unlock":  true,
	"ocr":     true,
}

// premiumOperations lists tools reserved for the paid plan.
var premiumOperations = map[string]bool{
	"merge": true,
	"ocr":   true,
}

// premiumFormats lists convert targets reserved for the paid plan.
var premiumFormats = map[string]bool{
	"docx": true,
	"xlsx": true,
}

func (s *Server) handleOperation(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req operationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "operation required"})
		return
	}

	op := strings.ToLower(strings.TrimSpace(req.Operation))
	if !knownOperations[op] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown operation"})
		return
	}

	// A body user id is advisory; a mismatch with the verified claims is a
	// spoofing attempt.
	if req.UserID != "" && req.UserID != id.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "user mismatch"})
		return
	}

	if premiumOperations[op] && id.Plan != "premium" {
		c.JSON(http.StatusForbidden, gin.H{"error": "operation requires the premium plan"})
		return
	}
	if op == "convert" && premiumFormats[strings.ToLower(req.TargetFormat)] && id.Plan != "premium" {
		c.JSON(http.StatusForbidden, gin.H{"error": "output format requires the premium plan"})
		return
	}

	if !s.usage.Allow(c.Request.Context(), id.UserID, id.Plan) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "monthly operation limit reached"})
		return
	}

	result, err := s.engine.Process(c.Request.Context(), engine.Request{
		Operation:    op,
		FileID:       req.FileID,
		FileName:     req.FileName,
		TargetFormat: req.TargetFormat,
		PageRanges:   req.PageRanges,
		OutputName:   req.OutputName,
		Language:     req.Language,
	})
	if err != nil {
		if errors.Is(err, common.ErrInvalidPageRange) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.Error(c.Request.Context(), "operation failed",
			"operation", op, "user", id.UserID, "error", err)
		c.JSON(http.StatusOK, operationResponse{Success: false, Error: "processing failed"})
		return
	}

	s.usage.Record(c.Request.Context(), id.UserID)

	if pdfOperations[op] {
		outputURL := result.OutputURL
		if outputURL == "" && len(result.OutputURLs) > 0 {
			outputURL = result.OutputURLs[0]
		}
		if _, err := s.history.Audit(c.Request.Context(), &models.PDFOperation{
			UserID:        id.UserID,
			Operation:     op,
			InputFilename: req.FileName,
			OutputURL:     outputURL,
		}); err != nil {
			// Audit is best-effort; the user already has their artifact.
			s.logger.Error(c.Request.Context(), "audit write failed",
				"operation", op, "user", id.UserID, "error", err)
		}
	}

	c.JSON(http.StatusOK, operationResponse{
		Success:    true,
		Message:    "operation completed",
		OutputURL:  result.OutputURL,
		OutputURLs: result.OutputURLs,
	})
}

type operationLogEntry struct {
	ID            string    `json:"id"`
	Operation     string    `json:"operation"`
	InputFilename string    `json:"inputFilename"`
	OutputURL     string    `json:"outputUrl,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

// handleOperationLog lists the caller's PDF tool invocations (the audit
// rows), newest first.
func (s *Server) handleOperationLog(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	rows, err := s.history.AuditLog(c.Request.Context(), id.UserID)
	if err != nil {
		s.logger.Error(c.Request.Context(), "operation log failed", "user", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation log failed"})
		return
	}

	out := make([]operationLogEntry, 0, len(rows))
	for _, row := range rows {
		out = append(out, operationLogEntry{
			ID:            row.ID,
			Operation:     row.Operation,
			InputFilename: row.InputFilename,
			OutputURL:     row.OutputURL,
			CreatedAt:     row.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, out)
}
