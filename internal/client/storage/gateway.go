// Package storage implements the object-storage gateway: idempotent bucket
// provisioning, namespaced uploads, and public address construction.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/docforge/docforge/internal/client/batch"
	"github.com/docforge/docforge/internal/client/config"
	"github.com/docforge/docforge/internal/logging"
)

// api is the subset of the S3 client the gateway uses. *s3.Client satisfies
// it; tests substitute fakes.
type api interface {
	HeadBucket(ctx context.Context, in *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, in *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutBucketPolicy(ctx context.Context, in *s3.PutBucketPolicyInput, optFns ...func(*s3.Options)) (*s3.PutBucketPolicyOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Gateway talks to an S3-compatible object store (MinIO in development).
type Gateway struct {
	client       api
	baseEndpoint string
	logger       logging.Logger
	provision    singleflight.Group
}

// NewGateway builds a Gateway from client config using static credentials
// and a base-endpoint override, path-style addressing for MinIO.
func NewGateway(ctx context.Context, cfg *config.Config, logger logging.Logger) (*Gateway, error) {
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

	return &Gateway{client: client, baseEndpoint: cfg.S3BaseEndpoint, logger: logger}, nil
}

// newGatewayWithClient is used by tests.
func newGatewayWithClient(client api, baseEndpoint string, logger logging.Logger) *Gateway {
	return &Gateway{client: client, baseEndpoint: baseEndpoint, logger: logger}
}

// EnsureBucket makes sure the named bucket exists with public-read access.
// It is idempotent and safe for concurrent callers: in-flight provisioning
// for the same name is coalesced, and create conflicts from other actors are
// swallowed rather than surfaced.
func (g *Gateway) EnsureBucket(ctx context.Context, name string) error {
	_, err, _ := g.provision.Do(name, func() (any, error) {
		return nil, g.ensureBucket(ctx, name)
	})
	return err
}

func (g *Gateway) ensureBucket(ctx context.Context, name string) error {
	_, err := g.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(name)})
	if err == nil {
		return nil
	}
	if !bucketMissing(err) {
		return fmt.Errorf("head bucket %s: %w", name, err)
	}

	_, err = g.client.CreateBucket(ctx, &s3.CreateBucketInput{Bucket: aws.String(name)})
	if err != nil && !creationConflict(err) {
		return fmt.Errorf("create bucket %s: %w", name, err)
	}

	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, name)
	if _, err := g.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(name),
		Policy: aws.String(policy),
	}); err != nil {
		return fmt.Errorf("set public-read policy on %s: %w", name, err)
	}

	g.logger.Info(ctx, "bucket provisioned", "bucket", name)
	return nil
}

// bucketMissing recognizes the storage service's "does not exist" answers.
func bucketMissing(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nb *types.NoSuchBucket
	if errors.As(err, &nb) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchBucket":
			return true
		}
		return strings.Contains(apiErr.ErrorMessage(), "does not exist")
	}
	return false
}

// creationConflict matches errors meaning another caller created the bucket
// first. Those are not failures.
func creationConflict(err error) bool {
	var owned *types.BucketAlreadyOwnedByYou
	if errors.As(err, &owned) {
		return true
	}
	var exists *types.BucketAlreadyExists
	return errors.As(err, &exists)
}

// Upload stores the staged file under a key namespaced by the owner identity
// and a fresh random identifier, so same-named files never collide. Returns
// the object key and its public address.
func (g *Gateway) Upload(ctx context.Context, bucket, ownerID string, h *batch.FileHandle) (string, string, error) {
	body, err := h.Open()
	if err != nil {
		return "", "", fmt.Errorf("open staged file: %w", err)
	}
	defer body.Close()

	key := fmt.Sprintf("%s/%s-%s", ownerID, uuid.New(), h.Name)

	_, err = g.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(h.ContentType),
		ContentLength: aws.Int64(h.Size),
	})
	if err != nil {
		return "", "", fmt.Errorf("upload %s: %w", h.Name, err)
	}

	return key, g.PublicAddress(bucket, key), nil
}

// PublicAddress joins the storage endpoint, bucket, and key into a
// retrievable URL. Pure; no network calls.
func (g *Gateway) PublicAddress(bucket, key string) string {
	base := strings.TrimRight(g.baseEndpoint, "/")
	return fmt.Sprintf("%s/%s/%s", base, bucket, key)
}
