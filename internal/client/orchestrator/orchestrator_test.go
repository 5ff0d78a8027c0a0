package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/docforge/docforge/internal/client/batch"
	"github.com/docforge/docforge/internal/client/config"
	"github.com/docforge/docforge/internal/client/invoke"
	"github.com/docforge/docforge/internal/client/quota"
	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/logging"
)

type stubStorage struct {
	mu          sync.Mutex
	ensured     []string
	uploads     []string
	failUploads map[string]error
}

func (s *stubStorage) EnsureBucket(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensured = append(s.ensured, name)
	return nil
}

func (s *stubStorage) Upload(ctx context.Context, bucket, ownerID string, h *batch.FileHandle) (string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err, ok := s.failUploads[h.Name]; ok {
		return "", "", err
	}
	s.uploads = append(s.uploads, h.Name)
	key := ownerID + "/key-" + h.Name
	return key, "http://store/" + bucket + "/" + key, nil
}

type stubInvoker struct {
	mu       sync.Mutex
	calls    []invoke.Request
	failures map[string]error
	result   func(req invoke.Request) *invoke.Result
}

func (s *stubInvoker) Invoke(ctx context.Context, sess *session.Session, req invoke.Request) (*invoke.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, req)
	if err, ok := s.failures[req.FileName]; ok {
		return nil, err
	}
	if s.result != nil {
		return s.result(req), nil
	}
	return &invoke.Result{Success: true, OutputURL: "http://store/outputs/" + req.FileName}, nil
}

type stubRecorder struct {
	mu      sync.Mutex
	records []string
}

func (s *stubRecorder) Record(ctx context.Context, sess *session.Session, originalFilename, originalFormat, outputFormat string, outputAddress *string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, originalFilename)
}

type stubDownloader struct {
	mu      sync.Mutex
	fetched [][]string
}

func (s *stubDownloader) FetchAll(ctx context.Context, addresses []string, suggestedName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetched = append(s.fetched, addresses)
}

func mintSession(t *testing.T, plan string, expiresIn time.Duration) *session.Session {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": "u1", "plan": plan, "exp": time.Now().Add(expiresIn).Unix(),
	})
	signed, err := token.SignedString([]byte("k"))
	require.NoError(t, err)
	s, err := session.FromTokens(signed, "")
	require.NoError(t, err)
	return s
}

type fixture struct {
	orch       *Orchestrator
	storage    *stubStorage
	invoker    *stubInvoker
	recorder   *stubRecorder
	downloader *stubDownloader
}

func newFixture(t *testing.T, plan string) *fixture {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()

	f := &fixture{
		storage:    &stubStorage{failUploads: map[string]error{}},
		invoker:    &stubInvoker{failures: map[string]error{}},
		recorder:   &stubRecorder{},
		downloader: &stubDownloader{},
	}
	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
	f.orch = New(cfg, logger, f.storage, f.invoker, f.recorder, f.downloader, mintSession(t, plan, time.Hour))
	t.Cleanup(f.orch.Close)
	return f
}

func stage(t *testing.T, o *Orchestrator, flow quota.Flow, names ...string) {
	t.Helper()
	dir := t.TempDir()
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
		require.NoError(t, os.WriteFile(paths[i], []byte("content-"+n), 0o660))
	}
	require.NoError(t, o.AddFiles(flow, paths...))
}

func TestConvertBatch_AllSucceed(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "a.pdf", "b.pdf")

	out, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.NoError(t, err)
	require.True(t, out.FullySucceeded())
	require.Equal(t, 2, out.SuccessCount)
	require.Len(t, f.recorder.records, 2)
	require.Len(t, f.downloader.fetched, 2)

	// A fully successful batch resets the staged list.
	require.Empty(t, f.orch.Files())
	require.Equal(t, StateSettled, f.orch.State())
}

func TestConvertBatch_PartialSuccess(t *testing.T) {
	f := newFixture(t, "premium")
	stage(t, f.orch, quota.FlowConvert, "1.pdf", "2.pdf", "3.pdf", "4.pdf", "5.pdf")

	f.invoker.failures["2.pdf"] = errors.New("processor crashed")
	f.invoker.failures["4.pdf"] = errors.New("processor crashed")

	out, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.NoError(t, err)
	require.True(t, out.Partial())
	require.Equal(t, 3, out.SuccessCount)
	require.Equal(t, 5, out.TotalCount)
	require.Len(t, f.downloader.fetched, 3, "exactly 3 downloads")
	require.Len(t, f.recorder.records, 3, "exactly 3 history records")
	require.Contains(t, out.Summary(), "3/5")

	// Partial success keeps the batch staged for retry.
	require.Len(t, f.orch.Files(), 5)
}

func TestConvertBatch_UploadFailureIsolated(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "a.pdf", "b.pdf", "c.pdf")

	f.storage.failUploads["b.pdf"] = errors.New("network reset")

	out, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.NoError(t, err)
	require.Equal(t, 2, out.SuccessCount)
	require.Equal(t, 3, out.TotalCount)
	// The failed upload never reaches the invoker.
	require.Len(t, f.invoker.calls, 2)
}

func TestConvertBatch_ExpiredSessionNeverUploads(t *testing.T) {
	f := newFixture(t, "free")
	f.orch.sess = mintSession(t, "free", -time.Minute)
	stage(t, f.orch, quota.FlowConvert, "a.pdf")

	_, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.ErrorIs(t, err, common.ErrSessionExpired)
	require.Empty(t, f.storage.uploads)
	require.Empty(t, f.invoker.calls)
}

func TestConvertBatch_NoFiles(t *testing.T) {
	f := newFixture(t, "free")
	_, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.ErrorIs(t, err, common.ErrNoFilesSelected)
}

func TestConvertBatch_OversizedExcludedAndCounted(t *testing.T) {
	f := newFixture(t, "free")
	f.orch.limits.FreeMaxFileSize = 10 // tiny ceiling for the test
	stage(t, f.orch, quota.FlowConvert, "ok.pdf")

	// Every staged file exceeds the ceiling: terminal quota failure.
	out, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.ErrorIs(t, err, common.ErrFileTooLarge)
	require.Equal(t, 1, out.OversizedCount)
	require.Empty(t, f.storage.uploads)
}

func TestConvertBatch_OversizedSubsetReported(t *testing.T) {
	f := newFixture(t, "free")
	f.orch.limits.FreeMaxFileSize = 15
	stage(t, f.orch, quota.FlowConvert, "a.pdf", "bigger.pdf") // 13 vs 18 bytes staged

	out, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.NoError(t, err)
	require.Equal(t, 1, out.OversizedCount)
	require.Equal(t, 1, out.TotalCount)
	require.Equal(t, 1, out.SuccessCount)
	require.Contains(t, out.Summary(), "1 file(s) over the plan size limit")
}

func TestAddFiles_BatchCapRejectsWholeIncomingSet(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "1.pdf", "2.pdf", "3.pdf")

	dir := t.TempDir()
	var paths []string
	for i := 0; i < 3; i++ {
		p := filepath.Join(dir, fmt.Sprintf("extra-%d.pdf", i))
		require.NoError(t, os.WriteFile(p, []byte("x"), 0o660))
		paths = append(paths, p)
	}

	err := f.orch.AddFiles(quota.FlowConvert, paths...)
	require.ErrorIs(t, err, common.ErrBatchTooLarge)
	require.Len(t, f.orch.Files(), 3, "existing batch untouched")
}

func TestMerge_PreconditionNoUploads(t *testing.T) {
	f := newFixture(t, "premium")
	stage(t, f.orch, quota.FlowConvert, "only.pdf")

	_, err := f.orch.Merge(context.Background(), "merged.pdf")
	require.ErrorIs(t, err, common.ErrMergeNeedsTwo)
	require.Empty(t, f.storage.uploads)
}

func TestMerge_SendsAllAddresses(t *testing.T) {
	f := newFixture(t, "premium")
	stage(t, f.orch, quota.FlowConvert, "a.pdf", "b.pdf")

	out, err := f.orch.Merge(context.Background(), "merged.pdf")
	require.NoError(t, err)
	require.True(t, out.FullySucceeded())

	require.Len(t, f.invoker.calls, 1)
	require.Len(t, f.invoker.calls[0].FileURLs, 2)
	require.Empty(t, f.invoker.calls[0].FileURL)
}

func TestMerge_ForbiddenSurfacesPremiumRequired(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "a.pdf", "b.pdf")

	f.invoker.failures["a.pdf"] = fmt.Errorf("operation merge failed: %w", common.ErrPremiumRequired)

	_, err := f.orch.Merge(context.Background(), "")
	require.ErrorIs(t, err, common.ErrPremiumRequired)
}

func TestSplit_InvalidRangesNoNetwork(t *testing.T) {
	f := newFixture(t, "premium")
	stage(t, f.orch, quota.FlowConvert, "doc.pdf")

	_, err := f.orch.Split(context.Background(), "1-3,,5")
	require.ErrorIs(t, err, common.ErrInvalidPageRange)
	require.Empty(t, f.storage.uploads)
	require.Empty(t, f.invoker.calls)
}

func TestSplit_MultipleOutputsDownloadedTogether(t *testing.T) {
	f := newFixture(t, "premium")
	stage(t, f.orch, quota.FlowConvert, "doc.pdf")

	f.invoker.result = func(req invoke.Request) *invoke.Result {
		return &invoke.Result{Success: true, OutputURLs: []string{"u1", "u2", "u3"}}
	}

	out, err := f.orch.Split(context.Background(), "1-3,4,5-7")
	require.NoError(t, err)
	require.True(t, out.FullySucceeded())
	require.Len(t, f.downloader.fetched, 1)
	require.Equal(t, []string{"u1", "u2", "u3"}, f.downloader.fetched[0])
}

func TestProtect_PasswordValidation(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "doc.pdf")

	_, err := f.orch.Protect(context.Background(), "short", "short")
	require.ErrorIs(t, err, common.ErrPasswordTooShort)

	_, err = f.orch.Protect(context.Background(), "longenough", "different")
	require.ErrorIs(t, err, common.ErrPasswordMismatch)

	require.Empty(t, f.storage.uploads)
}

func TestReentryGuardBlocksSecondInvocation(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "a.pdf")

	started := make(chan struct{})
	release := make(chan struct{})
	f.invoker.result = nil
	slow := &slowInvoker{inner: f.invoker, started: started, release: release}
	f.orch.invoker = slow

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = f.orch.ConvertBatch(context.Background(), "docx")
	}()

	<-started
	require.True(t, f.orch.IsProcessing())
	_, err := f.orch.ConvertBatch(context.Background(), "docx")
	require.Error(t, err)

	close(release)
	<-done
	require.False(t, f.orch.IsProcessing())
}

type slowInvoker struct {
	inner   Invoker
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (s *slowInvoker) Invoke(ctx context.Context, sess *session.Session, req invoke.Request) (*invoke.Result, error) {
	s.once.Do(func() { close(s.started) })
	<-s.release
	return s.inner.Invoke(ctx, sess, req)
}

func TestClose_ReleasesStagedFiles(t *testing.T) {
	f := newFixture(t, "free")
	stage(t, f.orch, quota.FlowConvert, "a.pdf")

	h := f.orch.Files()[0]
	f.orch.Close()

	_, err := h.Open()
	require.Error(t, err)
	require.Empty(t, f.orch.Files())
}
