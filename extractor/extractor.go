package extractor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/docutag/reviewbot/models"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/net/html"
)

// Extractor turns a product page URL into structured product data.
// Implementations perform a single attempt; see Retrying for retries.
type Extractor interface {
	Fetch(ctx context.Context, targetURL string) (*models.ProductPage, error)
}

// Config contains extractor configuration
type Config struct {
	HTTPTimeout  time.Duration
	UserAgent    string
	MaxBodyBytes int64 // Maximum page size to read (bytes)
}

// DefaultConfig returns default extractor configuration
func DefaultConfig() Config {
	return Config{
		HTTPTimeout:  20 * time.Second,
		UserAgent:    "Mozilla/5.0 (compatible; ReviewBot/1.0)",
		MaxBodyBytes: 10 * 1024 * 1024, // 10MB
	}
}

// fetcher performs the HTTP GET shared by every extractor implementation
type fetcher struct {
	config     Config
	httpClient *http.Client
	logger     *slog.Logger
}

func newFetcher(config Config, logger *slog.Logger) fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = DefaultConfig().MaxBodyBytes
	}
	return fetcher{
		config: config,
		httpClient: &http.Client{
			Timeout:   config.HTTPTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		logger: logger,
	}
}

// get validates targetURL and returns the parsed URL and the response body
func (f fetcher) get(ctx context.Context, targetURL string) (*url.URL, []byte, error) {
	parsedURL, err := parseTarget(targetURL)
	if err != nil {
		return nil, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsedURL.String(), nil)
	if err != nil {
		return nil, nil, InvalidURL(fmt.Errorf("failed to create request: %w", err))
	}
	if f.config.UserAgent != "" {
		req.Header.Set("User-Agent", f.config.UserAgent)
	}

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, nil, TransientFailure(fmt.Errorf("failed to fetch URL: %w", err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		statusErr := fmt.Errorf("HTTP error: %s", resp.Status)
		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			return nil, nil, TransientFailure(statusErr)
		}
		return nil, nil, NetworkFailure(statusErr)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodyBytes))
	if err != nil {
		return nil, nil, TransientFailure(fmt.Errorf("failed to read body: %w", err))
	}

	f.logger.Debug("fetched product page", "url", parsedURL.String(), "bytes", len(body))
	return parsedURL, body, nil
}

func parseTarget(targetURL string) (*url.URL, error) {
	parsedURL, err := url.Parse(strings.TrimSpace(targetURL))
	if err != nil {
		return nil, InvalidURL(err)
	}
	if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		return nil, InvalidURL(fmt.Errorf("URL must be http or https"))
	}
	if parsedURL.Host == "" {
		return nil, InvalidURL(fmt.Errorf("URL has no host"))
	}
	return parsedURL, nil
}

// HTMLExtractor applies the fixed page rules: first <h1> is the title, the first
// <img> src is the image and every "comment-text" element is a review.
type HTMLExtractor struct {
	fetcher
}

// New creates an HTMLExtractor
func New(config Config, logger *slog.Logger) *HTMLExtractor {
	return &HTMLExtractor{fetcher: newFetcher(config, logger)}
}

// Fetch downloads targetURL and extracts the product page
func (e *HTMLExtractor) Fetch(ctx context.Context, targetURL string) (*models.ProductPage, error) {
	parsedURL, body, err := e.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	doc, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, NetworkFailure(fmt.Errorf("failed to parse HTML: %w", err))
	}

	page, err := extractPage(doc, parsedURL)
	if err != nil {
		return nil, err
	}

	e.logger.Info("extracted product page",
		"url", page.URL,
		"title", page.Title,
		"reviews", len(page.Reviews),
	)
	return page, nil
}

// extractPage applies the three extraction rules to a parsed document
func extractPage(doc *html.Node, baseURL *url.URL) (*models.ProductPage, error) {
	title := extractTitle(doc)
	if title == "" {
		return nil, MissingField("title")
	}

	src := extractImageSrc(doc)
	if src == "" {
		return nil, MissingField("image")
	}
	imageURL, err := resolveURL(baseURL, src)
	if err != nil {
		return nil, MissingField("image")
	}

	return &models.ProductPage{
		URL:      baseURL.String(),
		Title:    title,
		ImageURL: imageURL,
		Reviews:  extractReviews(doc, ReviewMarkerClass),
	}, nil
}

// resolveURL resolves a potentially relative URL against a base URL
func resolveURL(base *url.URL, href string) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(parsed).String(), nil
}
