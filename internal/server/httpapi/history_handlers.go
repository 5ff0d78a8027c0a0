package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/server/models"
)

type historyRecordRequest struct {
	OriginalFilename string  `json:"originalFilename" binding:"required"`
	OriginalFormat   string  `json:"originalFormat"`
	OutputFormat     string  `json:"outputFormat"`
	OutputURL        *string `json:"outputUrl"`
}

type historyRecordResponse struct {
	ID               string    `json:"id"`
	OriginalFilename string    `json:"originalFilename"`
	OriginalFormat   string    `json:"originalFormat"`
	OutputFormat     string    `json:"outputFormat"`
	OutputURL        *string   `json:"outputUrl"`
	CreatedAt        time.Time `json:"createdAt"`
}

func recordResponse(c *models.Conversion) historyRecordResponse {
	return historyRecordResponse{
		ID:               c.ID,
		OriginalFilename: c.OriginalFilename,
		OriginalFormat:   c.OriginalFormat,
		OutputFormat:     c.OutputFormat,
		OutputURL:        c.OutputURL,
		CreatedAt:        c.CreatedAt,
	}
}

func (s *Server) handleHistoryCreate(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	var req historyRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "original filename required"})
		return
	}

	rec, err := s.history.Record(c.Request.Context(), &models.Conversion{
		UserID:           id.UserID,
		OriginalFilename: req.OriginalFilename,
		OriginalFormat:   req.OriginalFormat,
		OutputFormat:     req.OutputFormat,
		OutputURL:        req.OutputURL,
	})
	if err != nil {
		s.logger.Error(c.Request.Context(), "history create failed", "user", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history create failed"})
		return
	}
	c.JSON(http.StatusCreated, recordResponse(rec))
}

func (s *Server) handleHistoryList(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	records, err := s.history.List(c.Request.Context(), id.UserID)
	if err != nil {
		s.logger.Error(c.Request.Context(), "history list failed", "user", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history list failed"})
		return
	}

	out := make([]historyRecordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, recordResponse(rec))
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) handleHistoryDelete(c *gin.Context) {
	id, ok := identityFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}

	err := s.history.Delete(c.Request.Context(), c.Param("id"), id.UserID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "record not found"})
			return
		}
		s.logger.Error(c.Request.Context(), "history delete failed", "user", id.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history delete failed"})
		return
	}
	c.Status(http.StatusNoContent)
}
