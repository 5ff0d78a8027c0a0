package history

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/internal/client/invoke"
	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/logging"
)

type fakeAPI struct {
	posted  []invoke.HistoryRecord
	postErr error
	deleted []string
}

func (f *fakeAPI) PostHistory(ctx context.Context, s *session.Session, rec invoke.HistoryRecord) error {
	if f.postErr != nil {
		return f.postErr
	}
	f.posted = append(f.posted, rec)
	return nil
}

func (f *fakeAPI) ListHistory(ctx context.Context, s *session.Session) ([]invoke.HistoryRecord, error) {
	return f.posted, nil
}

func (f *fakeAPI) DeleteHistory(ctx context.Context, s *session.Session, id string) error {
	f.deleted = append(f.deleted, id)
	return nil
}

func testSession(t *testing.T) *session.Session {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "u1", "exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("k"))
	require.NoError(t, err)
	s, err := session.FromTokens(signed, "r")
	require.NoError(t, err)
	return s
}

func TestRecord_Persists(t *testing.T) {
	api := &fakeAPI{}
	rec := NewRecorder(api, logging.NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	addr := "http://store/out.docx"
	rec.Record(context.Background(), testSession(t), "in.pdf", "pdf", "docx", &addr)

	require.Len(t, api.posted, 1)
	require.Equal(t, "in.pdf", api.posted[0].OriginalFilename)
	require.Equal(t, &addr, api.posted[0].OutputURL)
}

func TestRecord_FailureIsLoggedNotRaised(t *testing.T) {
	var buf bytes.Buffer
	api := &fakeAPI{postErr: errors.New("insert failed")}
	rec := NewRecorder(api, logging.NewSlogLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	// Must not panic or surface the error in any way.
	rec.Record(context.Background(), testSession(t), "in.pdf", "pdf", "docx", nil)

	require.Contains(t, buf.String(), "history record failed")
	require.Empty(t, api.posted)
}

func TestDelete_Forwards(t *testing.T) {
	api := &fakeAPI{}
	rec := NewRecorder(api, logging.NewSlogLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))

	require.NoError(t, rec.Delete(context.Background(), testSession(t), "h1"))
	require.Equal(t, []string{"h1"}, api.deleted)
}
