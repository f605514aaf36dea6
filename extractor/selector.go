package extractor

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/docutag/reviewbot/models"
)

// Selectors holds the CSS selectors used by SelectorExtractor
type Selectors struct {
	Title   string `mapstructure:"title"`
	Image   string `mapstructure:"image"`
	Reviews string `mapstructure:"reviews"`
}

// DefaultSelectors returns selectors equivalent to the fixed HTMLExtractor rules
func DefaultSelectors() Selectors {
	return Selectors{
		Title:   "h1",
		Image:   "img",
		Reviews: "." + ReviewMarkerClass,
	}
}

// IsZero reports whether no selector was configured
func (s Selectors) IsZero() bool {
	return s.Title == "" && s.Image == "" && s.Reviews == ""
}

// withDefaults fills empty selectors from DefaultSelectors
func (s Selectors) withDefaults() Selectors {
	d := DefaultSelectors()
	if s.Title == "" {
		s.Title = d.Title
	}
	if s.Image == "" {
		s.Image = d.Image
	}
	if s.Reviews == "" {
		s.Reviews = d.Reviews
	}
	return s
}

// SelectorExtractor extracts product pages using configurable CSS selectors,
// for sites whose structure differs from the fixed rules.
type SelectorExtractor struct {
	fetcher
	selectors Selectors
}

// NewSelectorExtractor creates a SelectorExtractor. Empty selectors fall back to the defaults.
func NewSelectorExtractor(config Config, selectors Selectors, logger *slog.Logger) *SelectorExtractor {
	return &SelectorExtractor{
		fetcher:   newFetcher(config, logger),
		selectors: selectors.withDefaults(),
	}
}

// Fetch downloads targetURL and extracts the product page
func (e *SelectorExtractor) Fetch(ctx context.Context, targetURL string) (*models.ProductPage, error) {
	parsedURL, body, err := e.get(ctx, targetURL)
	if err != nil {
		return nil, err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, NetworkFailure(fmt.Errorf("failed to parse HTML: %w", err))
	}

	title := collapseSpace(doc.Find(e.selectors.Title).First().Text())
	if title == "" {
		return nil, MissingField("title")
	}

	src, ok := doc.Find(e.selectors.Image).First().Attr("src")
	if !ok || strings.TrimSpace(src) == "" {
		return nil, MissingField("image")
	}
	imageURL, err := resolveURL(parsedURL, src)
	if err != nil {
		return nil, MissingField("image")
	}

	reviews := []string{}
	doc.Find(e.selectors.Reviews).Each(func(_ int, s *goquery.Selection) {
		if text := collapseSpace(s.Text()); text != "" {
			reviews = append(reviews, text)
		}
	})

	e.logger.Info("extracted product page",
		"url", parsedURL.String(),
		"title", title,
		"reviews", len(reviews),
		"selectors", e.selectors.Reviews,
	)

	return &models.ProductPage{
		URL:      parsedURL.String(),
		Title:    title,
		ImageURL: imageURL,
		Reviews:  reviews,
	}, nil
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
