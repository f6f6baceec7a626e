package minio

import (
	"bytes"
	"context"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/turtacn/PriviQ/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/PriviQ/pkg/errors"
)

// DefaultMaxObjectBytes bounds how much of a stored document is read.
const DefaultMaxObjectBytes int64 = 8 << 20

var (
	ErrObjectNotFound = errors.New(errors.ErrCodeNotFound, "object not found")
	ErrInvalidRef     = errors.New(errors.ErrCodeValidation, "invalid object reference")
	ErrObjectTooLarge = errors.New(errors.ErrCodeValidation, "object exceeds size limit")
	ErrNotText        = errors.New(errors.ErrCodeSourceUnsupported, "object is not valid UTF-8 text")
)

// ObjectAPI is the slice of *minio.Client used by Client.
type ObjectAPI interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)
	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// Config configures the document store.
type Config struct {
	Endpoint       string
	AccessKey      string
	SecretKey      string
	Bucket         string
	UseSSL         bool
	Region         string
	MaxObjectBytes int64
	// CreateBucket makes the default bucket when it is missing.
	CreateBucket bool
}

// Client reads and writes policy documents kept in object storage.
type Client struct {
	api    ObjectAPI
	config Config
	logger logging.Logger
}

// NewClient dials the endpoint and verifies the default bucket.
func NewClient(ctx context.Context, cfg Config, log logging.Logger) (*Client, error) {
	if cfg.Endpoint == "" || cfg.Bucket == "" {
		return nil, errors.New(errors.ErrCodeValidation, "minio endpoint and bucket are required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	api, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: region,
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to create minio client").
			WithDetail("endpoint=" + cfg.Endpoint)
	}
	c := NewClientWithAPI(api, cfg, log)
	if err := c.ensureBucket(ctx); err != nil {
		return nil, err
	}
	log.Info("MinIO document store ready",
		logging.String("endpoint", cfg.Endpoint),
		logging.String("bucket", cfg.Bucket))
	return c, nil
}

// NewClientWithAPI wires a Client around an existing API without network checks.
func NewClientWithAPI(api ObjectAPI, cfg Config, log logging.Logger) *Client {
	if cfg.MaxObjectBytes <= 0 {
		cfg.MaxObjectBytes = DefaultMaxObjectBytes
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	return &Client{api: api, config: cfg, logger: log}
}

func (c *Client) ensureBucket(ctx context.Context) error {
	exists, err := c.api.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to check bucket").
			WithDetail("bucket=" + c.config.Bucket)
	}
	if exists {
		return nil
	}
	if !c.config.CreateBucket {
		return errors.New(errors.ErrCodeNotFound, "bucket does not exist").WithDetail("bucket=" + c.config.Bucket)
	}
	if err := c.api.MakeBucket(ctx, c.config.Bucket, minio.MakeBucketOptions{Region: c.config.Region}); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "failed to create bucket").
			WithDetail("bucket=" + c.config.Bucket)
	}
	c.logger.Info("Bucket created", logging.String("bucket", c.config.Bucket))
	return nil
}

// Bucket returns the default bucket name.
func (c *Client) Bucket() string { return c.config.Bucket }

// ParseRef splits "bucket/object" into its parts. A ref without a slash
// names an object in defaultBucket.
func ParseRef(ref, defaultBucket string) (bucket, object string, err error) {
	ref = strings.TrimPrefix(strings.TrimSpace(ref), "/")
	if ref == "" {
		return "", "", ErrInvalidRef
	}
	i := strings.IndexByte(ref, '/')
	if i < 0 {
		if defaultBucket == "" {
			return "", "", ErrInvalidRef.WithDetail("ref=" + ref)
		}
		return defaultBucket, ref, nil
	}
	bucket, object = ref[:i], ref[i+1:]
	if bucket == "" || object == "" {
		return "", "", ErrInvalidRef.WithDetail("ref=" + ref)
	}
	return bucket, object, nil
}

// GetText loads the object named by ref and returns it as text.
func (c *Client) GetText(ctx context.Context, ref string) (string, error) {
	bucket, object, err := ParseRef(ref, c.config.Bucket)
	if err != nil {
		return "", err
	}
	obj, err := c.api.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return "", c.mapError(err, bucket, object)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, c.config.MaxObjectBytes+1))
	if err != nil {
		return "", c.mapError(err, bucket, object)
	}
	if int64(len(data)) > c.config.MaxObjectBytes {
		return "", ErrObjectTooLarge.WithDetail("ref=" + bucket + "/" + object)
	}
	if !utf8.Valid(data) {
		return "", ErrNotText.WithDetail("ref=" + bucket + "/" + object)
	}
	c.logger.Debug("Object loaded",
		logging.String("bucket", bucket),
		logging.String("object", object),
		logging.Int("bytes", len(data)))
	return string(data), nil
}

// PutText stores text under ref and returns the canonical "bucket/object".
func (c *Client) PutText(ctx context.Context, ref, text string) (string, error) {
	bucket, object, err := ParseRef(ref, c.config.Bucket)
	if err != nil {
		return "", err
	}
	data := []byte(text)
	_, err = c.api.PutObject(ctx, bucket, object, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: "text/plain; charset=utf-8",
	})
	if err != nil {
		return "", errors.Wrap(err, errors.ErrCodeExternalService, "upload failed").
			WithDetail("ref=" + bucket + "/" + object)
	}
	return bucket + "/" + object, nil
}

// HealthCheck reports whether the default bucket is reachable.
func (c *Client) HealthCheck(ctx context.Context) error {
	ok, err := c.api.BucketExists(ctx, c.config.Bucket)
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "minio unreachable")
	}
	if !ok {
		return errors.New(errors.ErrCodeServiceUnavailable, "bucket missing").WithDetail("bucket=" + c.config.Bucket)
	}
	return nil
}

func (c *Client) mapError(err error, bucket, object string) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return ErrObjectNotFound.WithDetail("ref=" + bucket + "/" + object)
	}
	return errors.Wrap(err, errors.ErrCodeExternalService, "failed to read object").
		WithDetail("ref=" + bucket + "/" + object)
}
