package invoke

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/common"
)

func mintToken(t *testing.T, userID string, expiresIn time.Duration) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid":  userID,
		"plan": "free",
		"exp":  time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func liveSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.FromTokens(mintToken(t, "u1", time.Hour), "refresh-1")
	require.NoError(t, err)
	return s
}

func expiredSession(t *testing.T) *session.Session {
	t.Helper()
	s, err := session.FromTokens(mintToken(t, "u1", -time.Minute), "refresh-1")
	require.NoError(t, err)
	return s
}

func TestInvoke_ExpiredSessionShortCircuits(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s := expiredSession(t)
	s.RefreshToken = "" // no refresh possible

	_, err := c.Invoke(context.Background(), s, Request{
		FileURL: "http://store/doc.pdf", Options: ConvertOptions{TargetFormat: "pdf"},
	})
	require.ErrorIs(t, err, common.ErrSessionExpired)
	require.Equal(t, int64(0), calls.Load(), "no request may reach the processor")
}

func TestInvoke_InvalidSplitRangesRejectedLocally(t *testing.T) {
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Invoke(context.Background(), liveSession(t), Request{
		FileURL: "http://store/doc.pdf", Options: SplitOptions{PageRanges: "1-3,,5"},
	})
	require.ErrorIs(t, err, common.ErrInvalidPageRange)
	require.Equal(t, int64(0), calls.Load())
}

func TestInvoke_SendsWireBodyAndBearer(t *testing.T) {
	var gotBody map[string]any
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/operations", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(Result{Success: true, OutputURL: "http://store/out.docx"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	s := liveSession(t)

	res, err := c.Invoke(context.Background(), s, Request{
		FileURL:  "http://store/in.pdf",
		FileID:   "f1",
		FileName: "in.pdf",
		Options:  ConvertOptions{TargetFormat: "docx"},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, []string{"http://store/out.docx"}, res.Addresses())

	require.Equal(t, "Bearer "+s.AccessToken, gotAuth)
	require.Equal(t, "convert", gotBody["operation"])
	require.Equal(t, "u1", gotBody["userId"])
	require.Equal(t, "http://store/in.pdf", gotBody["fileUrl"])
	require.Equal(t, "docx", gotBody["targetFormat"])
}

func TestInvoke_ForbiddenMapsToPremiumRequired(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "premium plan required"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Invoke(context.Background(), liveSession(t), Request{
		FileURLs: []string{"a", "b"}, Options: MergeOptions{},
	})
	require.ErrorIs(t, err, common.ErrPremiumRequired)
}

func TestDoAuthed_RefreshesOnceOn401(t *testing.T) {
	var opCalls atomic.Int64
	freshAccess := ""

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"accessToken":  freshAccess,
			"refreshToken": "refresh-2",
		})
	})
	mux.HandleFunc("/api/v1/operations", func(w http.ResponseWriter, r *http.Request) {
		if opCalls.Add(1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		require.Equal(t, "Bearer "+freshAccess, r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(Result{Success: true, OutputURL: "http://store/out.pdf"})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	freshAccess = mintToken(t, "u1", time.Hour)

	c := NewClient(srv.URL)
	s := liveSession(t)

	res, err := c.Invoke(context.Background(), s, Request{
		FileURL: "http://store/in.pdf", Options: OCROptions{},
	})
	require.NoError(t, err)
	require.True(t, res.Success)
	require.Equal(t, int64(2), opCalls.Load())
	require.Equal(t, "refresh-2", s.RefreshToken)
}

func TestLogin_ReturnsSession(t *testing.T) {
	access := mintToken(t, "u9", time.Hour)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, "u@example.com", body["email"])
		json.NewEncoder(w).Encode(map[string]string{"accessToken": access, "refreshToken": "r1"})
	}))
	defer srv.Close()

	s, err := NewClient(srv.URL).Login(context.Background(), "u@example.com", "pw")
	require.NoError(t, err)
	require.Equal(t, "u9", s.Identity.ID)
	require.True(t, s.Live())
}

func TestLogin_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Login(context.Background(), "u@example.com", "bad")
	require.Error(t, err)
}

func TestHistoryEndpoints(t *testing.T) {
	outputURL := "http://store/out.pdf"
	var deleted string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		var rec HistoryRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&rec))
		require.Equal(t, "in.pdf", rec.OriginalFilename)
		w.WriteHeader(http.StatusCreated)
	})
	mux.HandleFunc("GET /api/v1/history", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]HistoryRecord{{ID: "h1", OriginalFilename: "in.pdf", OutputURL: &outputURL}})
	})
	mux.HandleFunc("DELETE /api/v1/history/{id}", func(w http.ResponseWriter, r *http.Request) {
		deleted = r.PathValue("id")
		w.WriteHeader(http.StatusNoContent)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := NewClient(srv.URL)
	s := liveSession(t)

	require.NoError(t, c.PostHistory(context.Background(), s, HistoryRecord{
		OriginalFilename: "in.pdf", OriginalFormat: "pdf", OutputFormat: "docx", OutputURL: &outputURL,
	}))

	recs, err := c.ListHistory(context.Background(), s)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "h1", recs[0].ID)

	require.NoError(t, c.DeleteHistory(context.Background(), s, "h1"))
	require.Equal(t, "h1", deleted)
}

func TestOptionsValidation(t *testing.T) {
	require.Error(t, ConvertOptions{}.Validate())
	require.NoError(t, ConvertOptions{TargetFormat: "pdf"}.Validate())

	require.ErrorIs(t, ProtectOptions{Password: "abc", Confirm: "abc"}.Validate(), common.ErrPasswordTooShort)
	require.ErrorIs(t, ProtectOptions{Password: "abcdef", Confirm: "abcdeg"}.Validate(), common.ErrPasswordMismatch)
	require.NoError(t, ProtectOptions{Password: "abcdef", Confirm: "abcdef"}.Validate())

	require.Error(t, UnlockOptions{}.Validate())
	require.NoError(t, SplitOptions{PageRanges: "1-3,4"}.Validate())
}
