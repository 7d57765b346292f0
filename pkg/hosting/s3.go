package hosting

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awscfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Adda-Baaj/khobor-poster/internal/domain"
)

// S3Config holds bucket settings. Static keys are optional; without them the
// default AWS credential chain is used.
type S3Config struct {
	Bucket          string
	Region          string
	KeyPrefix       string
	PublicBaseURL   string
	AccessKeyID     string `json:"-"`
	SecretAccessKey string `json:"-"`
}

// s3PutClient defines the minimal subset of the S3 client used by S3Host.
type s3PutClient interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Host uploads artifacts to a public-read bucket.
type S3Host struct {
	bucket    string
	keyPrefix string
	baseURL   string
	client    s3PutClient
	log       Logger
}

// NewS3 loads AWS configuration and returns an S3Host.
func NewS3(ctx context.Context, cfg S3Config, log Logger) (*S3Host, error) {
	cfg.Bucket = strings.TrimSpace(cfg.Bucket)
	cfg.Region = strings.TrimSpace(cfg.Region)
	if cfg.Bucket == "" {
		return nil, errors.New("s3 bucket is required")
	}
	if cfg.Region == "" {
		return nil, errors.New("s3 region is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	opts := []func(*awscfg.LoadOptions) error{awscfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awscfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := awscfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return newS3Host(cfg, s3.NewFromConfig(awsCfg), log), nil
}

func newS3Host(cfg S3Config, client s3PutClient, log Logger) *S3Host {
	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Host{
		bucket:    cfg.Bucket,
		keyPrefix: strings.Trim(strings.TrimSpace(cfg.KeyPrefix), "/"),
		baseURL:   base,
		client:    client,
		log:       ensureLogger(log),
	}
}

func (h *S3Host) Type() string { return TypeS3 }

// Upload puts the artifact and returns its public URL.
func (h *S3Host) Upload(ctx context.Context, ref domain.ImageRef) (string, error) {
	file, err := os.Open(ref.Path)
	if err != nil {
		return "", fmt.Errorf("open image: %w", err)
	}
	defer file.Close()

	key := path.Join(h.keyPrefix, filepath.Base(ref.Path))
	input := &s3.PutObjectInput{
		Bucket:      aws.String(h.bucket),
		Key:         aws.String(key),
		Body:        file,
		ContentType: aws.String(contentType(ref.Path)),
		ACL:         types.ObjectCannedACLPublicRead,
	}
	if _, err := h.client.PutObject(ctx, input); err != nil {
		h.log.ErrorObj("s3 upload failed", "hosting_s3_error", map[string]any{
			"bucket": h.bucket,
			"key":    key,
			"error":  err.Error(),
		})
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	h.log.DebugObj("s3 upload complete", "hosting_s3_upload", map[string]any{
		"bucket": h.bucket,
		"key":    key,
	})
	return h.baseURL + "/" + key, nil
}

func contentType(p string) string {
	switch strings.ToLower(filepath.Ext(p)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	default:
		return "image/png"
	}
}
