package modelstore

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/sugarme/tokenizer"
)

// TokenizerFile is the HuggingFace tokenizer definition every source must provide
const TokenizerFile = "tokenizer.json"

// Source kinds accepted by Open
const (
	SourceHub   = "hub"
	SourceLocal = "local"
	SourceS3    = "s3"
)

// Artifacts are the local files needed to run the sentiment model
type Artifacts struct {
	ModelID       string
	TokenizerPath string
}

// Resolver makes model artifacts available on the local filesystem
type Resolver interface {
	Resolve(ctx context.Context) (*Artifacts, error)
}

// Config selects and configures a Resolver
type Config struct {
	Source   string // hub, local or s3
	ModelID  string // hub identifier, also reported in Artifacts
	Dir      string // local source directory
	CacheDir string // download directory for the s3 and hub sources
	S3       S3Config
}

// Open returns the Resolver for config.Source
func Open(ctx context.Context, config Config, logger *slog.Logger) (Resolver, error) {
	if logger == nil {
		logger = slog.Default()
	}

	switch config.Source {
	case SourceLocal:
		return &LocalDir{ModelID: config.ModelID, Dir: config.Dir}, nil
	case SourceS3:
		return NewS3Source(ctx, config.ModelID, config.S3, config.CacheDir, logger)
	case SourceHub, "":
		return &Hub{ModelID: config.ModelID, CacheDir: config.CacheDir, logger: logger}, nil
	default:
		return nil, fmt.Errorf("unknown model source %q", config.Source)
	}
}

// LocalDir serves artifacts from a directory that already holds them
type LocalDir struct {
	ModelID string
	Dir     string
}

// Resolve checks that the tokenizer file exists in the directory
func (l *LocalDir) Resolve(ctx context.Context) (*Artifacts, error) {
	if l.Dir == "" {
		return nil, fmt.Errorf("model directory is required")
	}
	path := filepath.Join(l.Dir, TokenizerFile)
	if !fileExists(path) {
		return nil, fmt.Errorf("tokenizer not found at %s", path)
	}
	return &Artifacts{ModelID: l.ModelID, TokenizerPath: path}, nil
}

// cacheMu guards tokenizer.CachedDir, which the tokenizer package reads as a global
var cacheMu sync.Mutex

// Hub downloads artifacts from the HuggingFace hub into the tokenizer cache.
// CacheDir overrides the tokenizer package default of $HOME/.cache/tokenizer
// (or $GO_TOKENIZER) for this resolver.
type Hub struct {
	ModelID  string
	CacheDir string
	logger   *slog.Logger

	// download fetches one file of a model, returning its local path
	download func(modelID, file string) (string, error)
}

// Resolve downloads the tokenizer file, reusing the cached copy when present
func (h *Hub) Resolve(ctx context.Context) (*Artifacts, error) {
	if h.ModelID == "" {
		return nil, fmt.Errorf("model id is required")
	}
	logger := h.logger
	if logger == nil {
		logger = slog.Default()
	}

	download := h.download
	if download == nil {
		download = h.cachedPath
	}

	path, err := download(h.ModelID, TokenizerFile)
	if err != nil {
		return nil, fmt.Errorf("failed to download %s for %s: %w", TokenizerFile, h.ModelID, err)
	}

	logger.Info("model artifacts resolved", "source", SourceHub, "model", h.ModelID, "tokenizer", path)
	return &Artifacts{ModelID: h.ModelID, TokenizerPath: path}, nil
}

// cachedPath runs tokenizer.CachedPath with CachedDir pointed at h.CacheDir
func (h *Hub) cachedPath(modelID, file string) (string, error) {
	cacheMu.Lock()
	defer cacheMu.Unlock()

	if h.CacheDir != "" {
		if err := os.MkdirAll(filepath.Join(h.CacheDir, modelID), 0o755); err != nil {
			return "", fmt.Errorf("failed to create cache directory: %w", err)
		}
		previous := tokenizer.CachedDir
		tokenizer.CachedDir = h.CacheDir
		defer func() { tokenizer.CachedDir = previous }()
	}
	return tokenizer.CachedPath(modelID, file)
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
