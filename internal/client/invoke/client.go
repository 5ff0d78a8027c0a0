package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/common"
)

// Request describes one unit of work for the processor.
type Request struct {
	// FileURL is set for single-source operations, FileURLs for merge.
	FileURL  string
	FileURLs []string
	FileID   string
	FileName string
	Options  Options
}

// Result is the processor's outcome. Immutable once produced.
type Result struct {
	Success    bool     `json:"success"`
	Message    string   `json:"message,omitempty"`
	OutputURL  string   `json:"outputUrl,omitempty"`
	OutputURLs []string `json:"outputUrls,omitempty"`
	Error      string   `json:"error,omitempty"`
}

// Addresses returns the output addresses in order, regardless of whether the
// result carried one or many.
func (r *Result) Addresses() []string {
	if len(r.OutputURLs) > 0 {
		return r.OutputURLs
	}
	if r.OutputURL != "" {
		return []string{r.OutputURL}
	}
	return nil
}

// Client talks JSON over HTTP to the processor API.
type Client struct {
	baseURL string
	http    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
	}
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func (e *errorResponse) text() string {
	if e.Error != "" {
		return e.Error
	}
	return e.Message
}

// Register creates an account and returns a live session.
func (c *Client) Register(ctx context.Context, email, password string) (*session.Session, error) {
	return c.authCall(ctx, "/api/v1/auth/register", email, password)
}

// Login exchanges credentials for a live session.
func (c *Client) Login(ctx context.Context, email, password string) (*session.Session, error) {
	return c.authCall(ctx, "/api/v1/auth/login", email, password)
}

func (c *Client) authCall(ctx context.Context, path, email, password string) (*session.Session, error) {
	var pair tokenPairResponse
	err := c.doJSON(ctx, http.MethodPost, path, "", map[string]any{
		"email":    email,
		"password": password,
	}, &pair)
	if err != nil {
		return nil, err
	}
	return session.FromTokens(pair.AccessToken, pair.RefreshToken)
}

// Refresh rotates the token pair using the session's refresh token and
// updates the session in place.
func (c *Client) Refresh(ctx context.Context, s *session.Session) error {
	var pair tokenPairResponse
	err := c.doJSON(ctx, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{
		"refreshToken": s.RefreshToken,
	}, &pair)
	if err != nil {
		return err
	}
	return s.Update(pair.AccessToken, pair.RefreshToken)
}

// Ping probes processor reachability.
func (c *Client) Ping(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/v1/ping", "", nil, nil)
}

// Invoke sends one operation request and awaits the structured result.
// Processing latency is variable; no client-side timeout is imposed beyond
// the transport's own.
//
// The session must be live; otherwise ErrSessionExpired is returned without
// any request being attempted. An expired token mid-flight is refreshed once
// and the call retried.
func (c *Client) Invoke(ctx context.Context, s *session.Session, req Request) (*Result, error) {
	if err := s.Require(); err != nil {
		return nil, err
	}
	if req.Options == nil {
		return nil, fmt.Errorf("operation options required")
	}
	if err := req.Options.Validate(); err != nil {
		return nil, err
	}

	body := map[string]any{
		"operation": string(req.Options.Kind()),
		"userId":    s.Identity.ID,
	}
	if req.FileURL != "" {
		body["fileUrl"] = req.FileURL
	}
	if len(req.FileURLs) > 0 {
		body["fileUrls"] = req.FileURLs
	}
	if req.FileID != "" {
		body["fileId"] = req.FileID
	}
	if req.FileName != "" {
		body["fileName"] = req.FileName
	}
	for k, v := range req.Options.payload() {
		body[k] = v
	}

	var result Result
	err := c.doAuthed(ctx, s, http.MethodPost, "/api/v1/operations", body, &result)
	if err != nil {
		return nil, err
	}
	if !result.Success {
		detail := result.Error
		if detail == "" {
			detail = result.Message
		}
		return &result, fmt.Errorf("operation %s failed: %s", req.Options.Kind(), detail)
	}
	return &result, nil
}

// HistoryRecord is the durable record of a completed or attempted operation.
type HistoryRecord struct {
	ID               string    `json:"id,omitempty"`
	OriginalFilename string    `json:"originalFilename"`
	OriginalFormat   string    `json:"originalFormat"`
	OutputFormat     string    `json:"outputFormat"`
	OutputURL        *string   `json:"outputUrl"`
	CreatedAt        time.Time `json:"createdAt,omitempty"`
}

// PostHistory persists one history record for the session's identity.
func (c *Client) PostHistory(ctx context.Context, s *session.Session, rec HistoryRecord) error {
	return c.doAuthed(ctx, s, http.MethodPost, "/api/v1/history", rec, nil)
}

// ListHistory returns the session identity's records, newest first.
func (c *Client) ListHistory(ctx context.Context, s *session.Session) ([]HistoryRecord, error) {
	var out []HistoryRecord
	if err := c.doAuthed(ctx, s, http.MethodGet, "/api/v1/history", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteHistory removes one record owned by the session's identity.
func (c *Client) DeleteHistory(ctx context.Context, s *session.Session, id string) error {
	return c.doAuthed(ctx, s, http.MethodDelete, "/api/v1/history/"+id, nil, nil)
}

// doAuthed performs an authenticated call, refreshing the token pair once if
// the processor answers 401 and a refresh token is available.
func (c *Client) doAuthed(ctx context.Context, s *session.Session, method, path string, in, out any) error {
	if err := s.Require(); err != nil {
		return err
	}

	err := c.doJSON(ctx, method, path, s.AccessToken, in, out)
	if err == nil || !isUnauthorized(err) || s.RefreshToken == "" {
		return err
	}

	if refreshErr := c.Refresh(ctx, s); refreshErr != nil {
		return common.ErrSessionExpired
	}
	return c.doJSON(ctx, method, path, s.AccessToken, in, out)
}

// statusError carries the HTTP status for taxonomy mapping.
type statusError struct {
	status int
	detail string
}

func (e *statusError) Error() string {
	if e.detail != "" {
		return fmt.Sprintf("processor returned %d: %s", e.status, e.detail)
	}
	return fmt.Sprintf("processor returned %d", e.status)
}

func (e *statusError) Unwrap() error {
	switch e.status {
	case http.StatusUnauthorized:
		return common.ErrSessionExpired
	case http.StatusForbidden:
		return common.ErrPremiumRequired
	case http.StatusTooManyRequests:
		return common.ErrMonthlyLimit
	}
	return nil
}

func isUnauthorized(err error) bool {
	se, ok := err.(*statusError)
	return ok && se.status == http.StatusUnauthorized
}

func (c *Client) doJSON(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set(common.AuthorizationHeader, common.BearerPrefix+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("processor unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var er errorResponse
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
		_ = json.Unmarshal(raw, &er)
		return &statusError{status: resp.StatusCode, detail: er.text()}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
