// Package orchestrator composes quota checks, uploads, remote invocation,
// history recording, and downloads into one end-to-end workflow per user
// action.
package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/docforge/docforge/internal/client/batch"
	"github.com/docforge/docforge/internal/client/config"
	"github.com/docforge/docforge/internal/client/invoke"
	"github.com/docforge/docforge/internal/client/quota"
	"github.com/docforge/docforge/internal/client/session"
	"github.com/docforge/docforge/internal/common"
	"github.com/docforge/docforge/internal/logging"
)

// State is the UI-facing workflow phase of the current invocation.
type State string

const (
	StateIdle        State = "idle"
	StateValidating  State = "validating"
	StateUploading   State = "uploading"
	StateInvoking    State = "invoking"
	StateRecording   State = "recording"
	StateDownloading State = "downloading"
	StateSettled     State = "settled"
)

// Storage is the object-storage gateway slice the orchestrator uses.
type Storage interface {
	EnsureBucket(ctx context.Context, name string) error
	Upload(ctx context.Context, bucket, ownerID string, h *batch.FileHandle) (key string, address string, err error)
}

// Invoker sends one operation request to the remote processor.
type Invoker interface {
	Invoke(ctx context.Context, s *session.Session, req invoke.Request) (*invoke.Result, error)
}

// Recorder persists history best-effort.
type Recorder interface {
	Record(ctx context.Context, s *session.Session, originalFilename, originalFormat, outputFormat string, outputAddress *string)
}

// Downloader fetches finished artifacts.
type Downloader interface {
	FetchAll(ctx context.Context, addresses []string, suggestedName string)
}

// uploadConcurrency bounds parallel uploads within one batch.
const uploadConcurrency = 4

// Orchestrator owns the staged file list for the duration of a workflow and
// drives each invocation through the state machine. It is used from a single
// goroutine; IsProcessing guards against re-entry from the UI.
type Orchestrator struct {
	cfg        *config.Config
	logger     logging.Logger
	store      Storage
	invoker    Invoker
	recorder   Recorder
	downloader Downloader
	sess       *session.Session

	files  *batch.List
	limits quota.Limits

	mu         sync.Mutex
	state      State
	processing bool
}

func New(cfg *config.Config, logger logging.Logger, store Storage, invoker Invoker, recorder Recorder, downloader Downloader, sess *session.Session) *Orchestrator {
	limits := quota.DefaultLimits()
	if cfg.FreeMaxFileSize > 0 {
		limits.FreeMaxFileSize = cfg.FreeMaxFileSize
	}
	return &Orchestrator{
		cfg:        cfg,
		logger:     logger,
		store:      store,
		invoker:    invoker,
		recorder:   recorder,
		downloader: downloader,
		sess:       sess,
		files:      batch.NewList(),
		limits:     limits,
		state:      StateIdle,
	}
}

// Files returns the staged handles in order.
func (o *Orchestrator) Files() []*batch.FileHandle {
	return o.files.Items()
}

// AddFiles stages the given paths. The whole incoming set is rejected if it
// would push the batch over the plan's count limit; already staged files are
// left untouched.
func (o *Orchestrator) AddFiles(flow quota.Flow, paths ...string) error {
	if err := quota.CheckBatch(o.files.Len(), len(paths), o.sess.Identity.Plan, flow, o.limits); err != nil {
		return err
	}

	staged := make([]*batch.FileHandle, 0, len(paths))
	for _, p := range paths {
		h, err := batch.NewFileHandle(p)
		if err != nil {
			for _, s := range staged {
				s.Release()
			}
			return err
		}
		staged = append(staged, h)
	}

	o.files.Add(staged...)
	return nil
}

// RemoveFile drops and releases the staged file at index i.
func (o *Orchestrator) RemoveFile(i int) {
	o.files.Remove(i)
}

// MoveFile reorders staged files; merge output follows list order.
func (o *Orchestrator) MoveFile(from, to int) {
	o.files.Move(from, to)
}

// ResetFiles releases and clears the staged batch.
func (o *Orchestrator) ResetFiles() {
	o.files.Reset()
}

// Close releases all client-local resources. Must run on teardown of the
// owning view regardless of in-flight work.
func (o *Orchestrator) Close() {
	o.files.Reset()
}

// State returns the current workflow phase.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// IsProcessing reports whether an invocation is running. The UI disables
// action buttons while true; there is no mid-flight cancellation.
func (o *Orchestrator) IsProcessing() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.processing
}

func (o *Orchestrator) setState(ctx context.Context, s State) {
	o.mu.Lock()
	o.state = s
	o.mu.Unlock()
	o.logger.Debug(ctx, "phase", "state", string(s))
}

func (o *Orchestrator) begin() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.processing {
		return fmt.Errorf("an operation is already running")
	}
	o.processing = true
	o.state = StateValidating
	return nil
}

func (o *Orchestrator) settle() {
	o.mu.Lock()
	o.processing = false
	o.state = StateSettled
	o.mu.Unlock()
}

// FileOutcome is the per-file result of a batch invocation.
type FileOutcome struct {
	Name      string
	Addresses []string
	Err       error
}

// Outcome aggregates a settled invocation.
type Outcome struct {
	SuccessCount   int
	TotalCount     int
	OversizedCount int
	Files          []FileOutcome
}

// FullySucceeded reports whether every member completed.
func (oc *Outcome) FullySucceeded() bool {
	return oc.TotalCount > 0 && oc.SuccessCount == oc.TotalCount
}

// Partial reports whether some but not all members completed.
func (oc *Outcome) Partial() bool {
	return oc.SuccessCount > 0 && oc.SuccessCount < oc.TotalCount
}

// Failed reports whether no member completed.
func (oc *Outcome) Failed() bool {
	return oc.SuccessCount == 0
}

// Summary renders the "successCount/totalCount" line shown to the user.
func (oc *Outcome) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d succeeded", oc.SuccessCount, oc.TotalCount)
	if oc.OversizedCount > 0 {
		fmt.Fprintf(&b, ", %d file(s) over the plan size limit were excluded", oc.OversizedCount)
	}
	return b.String()
}

// ConvertBatch runs the batch conversion workflow: every staged file is
// uploaded, converted, recorded, and downloaded independently. Partial
// success is a first-class outcome; a failed member never aborts its
// siblings.
func (o *Orchestrator) ConvertBatch(ctx context.Context, targetFormat string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	opts := invoke.ConvertOptions{TargetFormat: targetFormat}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	if err := o.sess.Require(); err != nil {
		return nil, err
	}
	if o.files.Len() == 0 {
		return nil, common.ErrNoFilesSelected
	}

	// Size policy: oversized files are excluded from submission, and the
	// outcome reports exactly how many were dropped.
	all := o.files.Items()
	oversized := quota.CheckSize(all, o.sess.Identity.Plan, o.limits)
	tooBig := make(map[*batch.FileHandle]bool, len(oversized))
	for _, f := range oversized {
		tooBig[f] = true
	}
	eligible := make([]*batch.FileHandle, 0, len(all))
	for _, f := range all {
		if !tooBig[f] {
			eligible = append(eligible, f)
		}
	}

	outcome := &Outcome{TotalCount: len(eligible), OversizedCount: len(oversized)}
	if len(eligible) == 0 {
		return outcome, common.ErrFileTooLarge
	}

	if err := o.store.EnsureBucket(ctx, o.cfg.UploadBucket); err != nil {
		return nil, err
	}

	type fileState struct {
		handle  *batch.FileHandle
		key     string
		address string
		result  *invoke.Result
		err     error
	}
	states := make([]*fileState, len(eligible))
	for i, f := range eligible {
		states[i] = &fileState{handle: f}
	}

	// Uploads are independent; all are dispatched and all settle even when
	// some fail.
	o.setState(ctx, StateUploading)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, st := range states {
		g.Go(func() error {
			st.key, st.address, st.err = o.store.Upload(gctx, o.cfg.UploadBucket, o.sess.Identity.ID, st.handle)
			return nil
		})
	}
	_ = g.Wait()

	// Each uploaded file proceeds through its own invocation.
	o.setState(ctx, StateInvoking)
	g, gctx = errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for _, st := range states {
		if st.err != nil {
			continue
		}
		g.Go(func() error {
			st.result, st.err = o.invoker.Invoke(gctx, o.sess, invoke.Request{
				FileURL:  st.address,
				FileID:   st.key,
				FileName: st.handle.Name,
				Options:  opts,
			})
			return nil
		})
	}
	_ = g.Wait()

	// Recording and downloading happen only for succeeded members.
	o.setState(ctx, StateRecording)
	for _, st := range states {
		if st.err != nil {
			continue
		}
		addr := st.result.OutputURL
		o.recorder.Record(ctx, o.sess, st.handle.Name, st.handle.Format(), targetFormat, &addr)
	}

	o.setState(ctx, StateDownloading)
	for _, st := range states {
		fo := FileOutcome{Name: st.handle.Name, Err: st.err}
		if st.err == nil {
			fo.Addresses = st.result.Addresses()
			o.downloader.FetchAll(ctx, fo.Addresses, outputName(st.handle.Name, targetFormat))
			outcome.SuccessCount++
		} else {
			o.logger.Error(ctx, "file failed", "file", st.handle.Name, "error", st.err)
		}
		outcome.Files = append(outcome.Files, fo)
	}

	if outcome.FullySucceeded() && outcome.OversizedCount == 0 {
		o.files.Reset()
	}
	return outcome, nil
}

// Merge combines all staged files into one document, in list order.
func (o *Orchestrator) Merge(ctx context.Context, outputBase string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	if o.files.Len() < 2 {
		return nil, common.ErrMergeNeedsTwo
	}
	if outputBase == "" {
		outputBase = "merged.pdf"
	}
	return o.runSingle(ctx, o.files.Items(), invoke.MergeOptions{OutputName: outputBase}, outputBase)
}

// Split cuts the first staged file into one output per page-range segment.
func (o *Orchestrator) Split(ctx context.Context, pageRanges string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	opts := invoke.SplitOptions{PageRanges: pageRanges}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := o.singleFile()
	if err != nil {
		return nil, err
	}
	return o.runSingle(ctx, []*batch.FileHandle{f}, opts, f.Name)
}

// Protect encrypts the first staged file with the given password.
func (o *Orchestrator) Protect(ctx context.Context, password, confirm string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	opts := invoke.ProtectOptions{Password: password, Confirm: confirm}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := o.singleFile()
	if err != nil {
		return nil, err
	}
	return o.runSingle(ctx, []*batch.FileHandle{f}, opts, f.Name)
}

// Unlock removes password protection from the first staged file.
func (o *Orchestrator) Unlock(ctx context.Context, password string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	opts := invoke.UnlockOptions{Password: password}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	f, err := o.singleFile()
	if err != nil {
		return nil, err
	}
	return o.runSingle(ctx, []*batch.FileHandle{f}, opts, f.Name)
}

// OCR runs text recognition over the first staged file.
func (o *Orchestrator) OCR(ctx context.Context, language string) (*Outcome, error) {
	if err := o.begin(); err != nil {
		return nil, err
	}
	defer o.settle()

	f, err := o.singleFile()
	if err != nil {
		return nil, err
	}
	return o.runSingle(ctx, []*batch.FileHandle{f}, invoke.OCROptions{Language: language}, f.Name)
}

func (o *Orchestrator) singleFile() (*batch.FileHandle, error) {
	if o.files.Len() == 0 {
		return nil, common.ErrNoFilesSelected
	}
	return o.files.Items()[0], nil
}

// runSingle drives a one-logical-unit flow (merge, split, protect, unlock,
// ocr). These settle as a whole: success or failure, never partial.
func (o *Orchestrator) runSingle(ctx context.Context, inputs []*batch.FileHandle, opts invoke.Options, suggestedName string) (*Outcome, error) {
	if err := o.sess.Require(); err != nil {
		return nil, err
	}
	if oversized := quota.CheckSize(inputs, o.sess.Identity.Plan, o.limits); len(oversized) > 0 {
		return nil, fmt.Errorf("%w: %s", common.ErrFileTooLarge, oversized[0].Name)
	}

	if err := o.store.EnsureBucket(ctx, o.cfg.UploadBucket); err != nil {
		return nil, err
	}

	// Uploads fan out; the flow itself is all-or-nothing, so any upload
	// failure fails the unit.
	o.setState(ctx, StateUploading)
	addresses := make([]string, len(inputs))
	keys := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uploadConcurrency)
	for i, f := range inputs {
		g.Go(func() error {
			key, addr, err := o.store.Upload(gctx, o.cfg.UploadBucket, o.sess.Identity.ID, f)
			if err != nil {
				return fmt.Errorf("upload %s: %w", f.Name, err)
			}
			keys[i] = key
			addresses[i] = addr
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	o.setState(ctx, StateInvoking)
	req := invoke.Request{FileName: inputs[0].Name, FileID: keys[0], Options: opts}
	if len(inputs) == 1 {
		req.FileURL = addresses[0]
	} else {
		req.FileURLs = addresses
	}
	result, err := o.invoker.Invoke(ctx, o.sess, req)
	if err != nil {
		return nil, err
	}

	o.setState(ctx, StateRecording)
	outAddrs := result.Addresses()
	var recordAddr *string
	if len(outAddrs) > 0 {
		recordAddr = &outAddrs[0]
	}
	o.recorder.Record(ctx, o.sess, inputs[0].Name, inputs[0].Format(), outputFormatFor(opts, inputs[0]), recordAddr)

	o.setState(ctx, StateDownloading)
	o.downloader.FetchAll(ctx, outAddrs, suggestedName)

	o.files.Reset()
	return &Outcome{
		SuccessCount: 1,
		TotalCount:   1,
		Files:        []FileOutcome{{Name: inputs[0].Name, Addresses: outAddrs}},
	}, nil
}

func outputName(original, targetFormat string) string {
	ext := filepath.Ext(original)
	return strings.TrimSuffix(original, ext) + "." + targetFormat
}

// outputFormatFor derives the history record's output format from the
// operation: only convert changes the format.
func outputFormatFor(opts invoke.Options, f *batch.FileHandle) string {
	if c, ok := opts.(invoke.ConvertOptions); ok {
		return c.TargetFormat
	}
	return f.Format()
}
