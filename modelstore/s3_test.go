package modelstore

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeBucket struct {
	objects map[string]string
	gets    []string
}

func (f *fakeBucket) GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	key := aws.ToString(params.Key)
	f.gets = append(f.gets, key)
	body, ok := f.objects[key]
	if !ok {
		return nil, errors.New("NoSuchKey")
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(body))}, nil
}

func newTestS3Source(t *testing.T, bucket *fakeBucket, prefix string) *S3Source {
	t.Helper()
	return &S3Source{
		client:   bucket,
		modelID:  "sentiment",
		config:   S3Config{Bucket: "models", Prefix: prefix},
		cacheDir: t.TempDir(),
		logger:   slog.Default(),
	}
}

func TestNewS3Source(t *testing.T) {
	config := S3Config{
		Endpoint:        "http://localhost:9000",
		Region:          "us-east-1",
		Bucket:          "test-bucket",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}

	source, err := NewS3Source(context.Background(), "m", config, t.TempDir(), nil)
	if err != nil {
		t.Fatalf("Failed to create S3 source: %v", err)
	}
	if source == nil {
		t.Fatal("Expected source to be non-nil")
	}
}

func TestNewS3SourceValidation(t *testing.T) {
	valid := S3Config{Region: "us-east-1", Bucket: "test-bucket"}

	tests := []struct {
		name     string
		mutate   func(*S3Config)
		cacheDir string
	}{
		{name: "missing bucket", mutate: func(c *S3Config) { c.Bucket = "" }, cacheDir: "/tmp/x"},
		{name: "missing region", mutate: func(c *S3Config) { c.Region = "" }, cacheDir: "/tmp/x"},
		{name: "key without secret", mutate: func(c *S3Config) { c.AccessKeyID = "k" }, cacheDir: "/tmp/x"},
		{name: "missing cache dir", mutate: func(c *S3Config) {}, cacheDir: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := valid
			tt.mutate(&config)
			if _, err := NewS3Source(context.Background(), "m", config, tt.cacheDir, nil); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestS3SourceDownloadsAndCaches(t *testing.T) {
	bucket := &fakeBucket{objects: map[string]string{
		"models/sentiment/tokenizer.json": `{"version":"1.0"}`,
	}}
	source := newTestS3Source(t, bucket, "/models/sentiment/")

	artifacts, err := source.Resolve(context.Background())
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}

	data, err := os.ReadFile(artifacts.TokenizerPath)
	if err != nil {
		t.Fatalf("Failed to read downloaded tokenizer: %v", err)
	}
	if string(data) != `{"version":"1.0"}` {
		t.Errorf("tokenizer content = %q", data)
	}
	if !strings.HasPrefix(artifacts.TokenizerPath, source.cacheDir) {
		t.Errorf("TokenizerPath %q is outside cache dir %q", artifacts.TokenizerPath, source.cacheDir)
	}

	if _, err := source.Resolve(context.Background()); err != nil {
		t.Fatalf("second Resolve failed: %v", err)
	}
	if len(bucket.gets) != 1 {
		t.Errorf("GetObject called %d times, want 1 (cached)", len(bucket.gets))
	}
}

func TestS3SourceMissingObject(t *testing.T) {
	source := newTestS3Source(t, &fakeBucket{objects: map[string]string{}}, "")

	if _, err := source.Resolve(context.Background()); err == nil {
		t.Fatal("Expected error for missing object")
	}

	entries, _ := filepath.Glob(filepath.Join(source.cacheDir, "models", "*"))
	if len(entries) != 0 {
		t.Errorf("Expected no files left in cache, found %v", entries)
	}
}

func TestS3SourceKey(t *testing.T) {
	tests := []struct {
		prefix   string
		expected string
	}{
		{"", "tokenizer.json"},
		{"bert", "bert/tokenizer.json"},
		{"/a/b/", "a/b/tokenizer.json"},
	}

	for _, tt := range tests {
		s := &S3Source{config: S3Config{Prefix: tt.prefix}}
		if got := s.key(TokenizerFile); got != tt.expected {
			t.Errorf("key(%q) = %q, want %q", tt.prefix, got, tt.expected)
		}
	}
}
