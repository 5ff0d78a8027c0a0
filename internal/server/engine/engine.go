// Package engine is the processing stand-in behind the operations API. No
// real document transformation happens here: after a simulated processing
// delay it copies the uploaded input object to a fresh key under outputs/,
// so every advertised address is retrievable.
package engine

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/docforge/docforge/internal/logging"
	"github.com/docforge/docforge/internal/pagerange"
	"github.com/docforge/docforge/internal/server/config"
)

// Request is one unit of work dispatched by the operations handler. FileID is
// the object key of the uploaded input inside the upload bucket.
type Request struct {
	Operation    string
	FileID       string
	FileName     string
	TargetFormat string
	PageRanges   string
	OutputName   string
	Language     string
}

// Result carries the produced artifact addresses. Split yields one address
// per range segment; everything else yields exactly one.
type Result struct {
	OutputURL  string
	OutputURLs []string
}

// api is the subset of the S3 client the engine uses.
type api interface {
	CopyObject(ctx context.Context, in *s3.CopyObjectInput, optFns ...func(*s3.Options)) (*s3.CopyObjectOutput, error)
}

type Engine struct {
	client       api
	bucket       string
	baseEndpoint string
	latency      time.Duration
	logger       logging.Logger

	sleep func(ctx context.Context, d time.Duration) error
}

func New(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Engine, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.S3AccessKey,
			cfg.S3SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return &Engine{
		client:       client,
		bucket:       cfg.UploadBucket,
		baseEndpoint: cfg.S3BaseEndpoint,
		latency:      cfg.EngineLatency,
		logger:       logger,
		sleep:        sleepCtx,
	}, nil
}

// newEngineWithClient is used by tests.
func newEngineWithClient(client api, bucket, baseEndpoint string, latency time.Duration, logger logging.Logger) *Engine {
	return &Engine{
		client:       client,
		bucket:       bucket,
		baseEndpoint: baseEndpoint,
		latency:      latency,
		logger:       logger,
		sleep:        sleepCtx,
	}
}

// Process runs one operation and returns the artifact addresses.
func (e *Engine) Process(ctx context.Context, req Request) (*Result, error) {
	if req.FileID == "" {
		return nil, fmt.Errorf("missing input object key")
	}
	if err := e.sleep(ctx, e.latency); err != nil {
		return nil, err
	}

	switch req.Operation {
	case "split":
		return e.processSplit(ctx, req)
	default:
		key, err := e.produce(ctx, req.FileID, e.outputKey(req))
		if err != nil {
			return nil, err
		}
		return &Result{OutputURL: e.address(key)}, nil
	}
}

func (e *Engine) processSplit(ctx context.Context, req Request) (*Result, error) {
	ranges, err := pagerange.Parse(req.PageRanges)
	if err != nil {
		return nil, err
	}

	stem, ext := splitName(req.FileName)
	urls := make([]string, 0, len(ranges))
	for _, r := range ranges {
		name := fmt.Sprintf("%s-pages-%s%s", stem, r, ext)
		key, err := e.produce(ctx, req.FileID, freshKey(name))
		if err != nil {
			return nil, err
		}
		urls = append(urls, e.address(key))
	}
	return &Result{OutputURLs: urls}, nil
}

// produce copies the input object to the output key and returns that key.
func (e *Engine) produce(ctx context.Context, inputKey, outputKey string) (string, error) {
	_, err := e.client.CopyObject(ctx, &s3.CopyObjectInput{
		Bucket:     aws.String(e.bucket),
		CopySource: aws.String(e.bucket + "/" + inputKey),
		Key:        aws.String(outputKey),
	})
	if err != nil {
		return "", fmt.Errorf("produce %s: %w", outputKey, err)
	}
	e.logger.Info(ctx, "artifact produced", "key", outputKey)
	return outputKey, nil
}

// outputKey picks the produced object's name from the request: merge honors
// the requested output name, convert swaps the extension, everything else
// keeps the input name.
func (e *Engine) outputKey(req Request) string {
	switch {
	case req.Operation == "merge" && req.OutputName != "":
		return freshKey(req.OutputName)
	case req.Operation == "convert" && req.TargetFormat != "":
		stem, _ := splitName(req.FileName)
		return freshKey(stem + "." + strings.ToLower(req.TargetFormat))
	default:
		return freshKey(req.FileName)
	}
}

func freshKey(name string) string {
	return fmt.Sprintf("outputs/%s-%s", uuid.New(), name)
}

func splitName(name string) (stem, ext string) {
	ext = filepath.Ext(name)
	return strings.TrimSuffix(name, ext), ext
}

func (e *Engine) address(key string) string {
	base := strings.TrimRight(e.baseEndpoint, "/")
	return fmt.Sprintf("%s/%s/%s", base, e.bucket, key)
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
