// Package history records completed operations and serves the user's
// conversion history.
package history

import (
	"context"

	"github.com/docforge/docforge/internal/client/invoke"
	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/logging"
)

// API is the slice of the processor client the recorder needs.
type API interface {
	PostHistory(ctx context.Context, s *session.Session, rec invoke.HistoryRecord) error
	ListHistory(ctx context.Context, s *session.Session) ([]invoke.HistoryRecord, error)
	DeleteHistory(ctx context.Context, s *session.Session, id string) error
}

type Recorder struct {
	api    API
	logger logging.Logger
}

func NewRecorder(api API, logger logging.Logger) *Recorder {
	return &Recorder{api: api, logger: logger}
}

// Record persists one history record. Failures are logged for operators and
// never surfaced: the user already has their artifact, and history
// completeness is secondary to delivering it.
func (r *Recorder) Record(ctx context.Context, s *session.Session, originalFilename, originalFormat, outputFormat string, outputAddress *string) {
	rec := invoke.HistoryRecord{
		OriginalFilename: originalFilename,
		OriginalFormat:   originalFormat,
		OutputFormat:     outputFormat,
		OutputURL:        outputAddress,
	}
	if err := r.api.PostHistory(ctx, s, rec); err != nil {
		r.logger.Error(ctx, "history record failed", "file", originalFilename, "error", err)
	}
}

// List returns the caller's records.
func (r *Recorder) List(ctx context.Context, s *session.Session) ([]invoke.HistoryRecord, error) {
	return r.api.ListHistory(ctx, s)
}

// Delete removes one record owned by the caller. Unlike Record, deletion is
// a direct user action, so failures are returned.
func (r *Recorder) Delete(ctx context.Context, s *session.Session, id string) error {
	return r.api.DeleteHistory(ctx, s, id)
}
