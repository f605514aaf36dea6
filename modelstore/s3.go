package modelstore

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config contains S3 storage configuration
type S3Config struct {
	Endpoint        string // Optional: Custom endpoint for MinIO or DigitalOcean Spaces
	Region          string // AWS region or DO region (e.g., "us-east-1" or "sfo3")
	Bucket          string
	Prefix          string // key prefix holding the model files
	AccessKeyID     string // empty uses the default credential chain
	SecretAccessKey string
	UsePathStyle    bool // required for MinIO
}

type objectGetter interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Source downloads model artifacts from an S3-compatible bucket into a cache directory
type S3Source struct {
	client   objectGetter
	modelID  string
	config   S3Config
	cacheDir string
	logger   *slog.Logger
}

// NewS3Source creates an S3Source
func NewS3Source(ctx context.Context, modelID string, cfg S3Config, cacheDir string, logger *slog.Logger) (*S3Source, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 bucket name is required")
	}
	if cfg.Region == "" {
		return nil, fmt.Errorf("S3 region is required")
	}
	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, fmt.Errorf("S3 access key id and secret must be set together")
	}
	if cacheDir == "" {
		return nil, fmt.Errorf("model cache directory is required for the s3 source")
	}
	if logger == nil {
		logger = slog.Default()
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return &S3Source{
		client:   client,
		modelID:  modelID,
		config:   cfg,
		cacheDir: cacheDir,
		logger:   logger,
	}, nil
}

// Resolve downloads the tokenizer file unless a cached copy already exists
func (s *S3Source) Resolve(ctx context.Context) (*Artifacts, error) {
	key := s.key(TokenizerFile)
	dest := filepath.Join(s.cacheDir, s.config.Bucket, filepath.FromSlash(key))

	if fileExists(dest) {
		s.logger.Info("model artifacts cached", "source", SourceS3, "tokenizer", dest)
		return &Artifacts{ModelID: s.modelID, TokenizerPath: dest}, nil
	}

	if err := s.download(ctx, key, dest); err != nil {
		return nil, err
	}

	s.logger.Info("model artifacts resolved",
		"source", SourceS3,
		"bucket", s.config.Bucket,
		"key", key,
		"tokenizer", dest,
	)
	return &Artifacts{ModelID: s.modelID, TokenizerPath: dest}, nil
}

// key joins the prefix and file name with forward slashes
func (s *S3Source) key(file string) string {
	prefix := strings.Trim(s.config.Prefix, "/")
	if prefix == "" {
		return file
	}
	return path.Join(prefix, file)
}

func (s *S3Source) download(ctx context.Context, key, dest string) error {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.config.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to get %s from S3: %w", key, err)
	}
	defer result.Body.Close()

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".download-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, result.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to read %s from S3: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", dest, err)
	}

	// rename keeps a partial download from ever being seen as cached
	if err := os.Rename(tmp.Name(), dest); err != nil {
		return fmt.Errorf("failed to move %s into cache: %w", dest, err)
	}
	return nil
}
