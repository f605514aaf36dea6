package extractor

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"
)

const productPage = `
<!DOCTYPE html>
<html>
<head><title>Shop</title></head>
<body>
	<h1>  Widget  </h1>
	<img src="http://x/img.png" alt="Widget">
	<img src="http://x/other.png">
	<div class="comment-text">عالی بود</div>
	<div class="comment comment-text">  افتضاح  </div>
	<div class="comment-text">خوب بود</div>
</body>
</html>`

func newPageServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNew(t *testing.T) {
	e := New(DefaultConfig(), nil)

	if e == nil {
		t.Fatal("Expected extractor to be non-nil")
	}
	if e.httpClient == nil {
		t.Error("Expected httpClient to be non-nil")
	}
	if e.httpClient.Timeout != DefaultConfig().HTTPTimeout {
		t.Errorf("Timeout = %v, want %v", e.httpClient.Timeout, DefaultConfig().HTTPTimeout)
	}
}

func TestFetchProductPage(t *testing.T) {
	server := newPageServer(t, http.StatusOK, productPage)

	e := New(DefaultConfig(), nil)
	page, err := e.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if page.Title != "Widget" {
		t.Errorf("Title = %q, want %q", page.Title, "Widget")
	}
	if page.ImageURL != "http://x/img.png" {
		t.Errorf("ImageURL = %q, want %q", page.ImageURL, "http://x/img.png")
	}

	expected := []string{"عالی بود", "افتضاح", "خوب بود"}
	if !reflect.DeepEqual(page.Reviews, expected) {
		t.Errorf("Reviews = %q, want %q", page.Reviews, expected)
	}
}

func TestFetchRelativeImage(t *testing.T) {
	server := newPageServer(t, http.StatusOK, `<html><body><h1>Widget</h1><img src="/static/w.jpg"></body></html>`)

	e := New(DefaultConfig(), nil)
	page, err := e.Fetch(context.Background(), server.URL+"/product/1")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if page.ImageURL != server.URL+"/static/w.jpg" {
		t.Errorf("ImageURL = %q, want %q", page.ImageURL, server.URL+"/static/w.jpg")
	}
}

func TestFetchNoReviews(t *testing.T) {
	server := newPageServer(t, http.StatusOK, `<html><body><h1>Widget</h1><img src="http://x/img.png"><p>No reviews yet</p></body></html>`)

	e := New(DefaultConfig(), nil)
	page, err := e.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Expected no error for a page without reviews, got %v", err)
	}

	if page.Reviews == nil {
		t.Error("Expected non-nil reviews slice")
	}
	if len(page.Reviews) != 0 {
		t.Errorf("Expected 0 reviews, got %d", len(page.Reviews))
	}
}

func TestFetchMissingFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{
			name:  "no h1",
			body:  `<html><body><img src="http://x/img.png"><div class="comment-text">خوب</div></body></html>`,
			field: "title",
		},
		{
			name:  "empty h1",
			body:  `<html><body><h1>   </h1><img src="http://x/img.png"></body></html>`,
			field: "title",
		},
		{
			name:  "no img",
			body:  `<html><body><h1>Widget</h1></body></html>`,
			field: "image",
		},
		{
			name:  "first img without src",
			body:  `<html><body><h1>Widget</h1><img alt="lazy"><img src="http://x/img.png"></body></html>`,
			field: "image",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newPageServer(t, http.StatusOK, tt.body)

			e := New(DefaultConfig(), nil)
			_, err := e.Fetch(context.Background(), server.URL)

			if !errors.Is(err, ErrMissingField) {
				t.Fatalf("Expected ErrMissingField, got %v", err)
			}
			var extractionErr *ExtractionError
			if !errors.As(err, &extractionErr) {
				t.Fatalf("Expected *ExtractionError, got %T", err)
			}
			if extractionErr.Field != tt.field {
				t.Errorf("Field = %q, want %q", extractionErr.Field, tt.field)
			}
		})
	}
}

func TestFetchHTTPError(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		retryable bool
	}{
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
		{name: "redirect without location", status: http.StatusMultipleChoices},
		{name: "server error", status: http.StatusInternalServerError, retryable: true},
		{name: "service unavailable", status: http.StatusServiceUnavailable, retryable: true},
		{name: "rate limited", status: http.StatusTooManyRequests, retryable: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newPageServer(t, tt.status, productPage)

			e := New(DefaultConfig(), nil)
			_, err := e.Fetch(context.Background(), server.URL)

			if !errors.Is(err, ErrNetworkFailure) {
				t.Errorf("Expected ErrNetworkFailure for HTTP %d, got %v", tt.status, err)
			}
			if IsRetryable(err) != tt.retryable {
				t.Errorf("IsRetryable = %v for HTTP %d, want %v", IsRetryable(err), tt.status, tt.retryable)
			}
		})
	}
}

func TestFetchUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	unreachable := server.URL
	server.Close()

	e := New(Config{HTTPTimeout: 2 * time.Second}, nil)
	_, err := e.Fetch(context.Background(), unreachable)

	if !errors.Is(err, ErrNetworkFailure) {
		t.Errorf("Expected ErrNetworkFailure, got %v", err)
	}
	if !IsRetryable(err) {
		t.Errorf("Expected transport failure to be retryable, got %v", err)
	}
}

func TestFetchInvalidURL(t *testing.T) {
	e := New(DefaultConfig(), nil)

	tests := []struct {
		name string
		url  string
	}{
		{name: "invalid scheme", url: "ftp://example.com"},
		{name: "malformed URL", url: "ht!tp://invalid"},
		{name: "empty URL", url: ""},
		{name: "plain text", url: "سلام"},
		{name: "missing host", url: "http://"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.Fetch(context.Background(), tt.url)
			if !errors.Is(err, ErrInvalidURL) {
				t.Errorf("Expected ErrInvalidURL, got %v", err)
			}
		})
	}
}

func TestFetchTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := New(Config{HTTPTimeout: 50 * time.Millisecond}, nil)
	_, err := e.Fetch(context.Background(), server.URL)

	if !errors.Is(err, ErrNetworkFailure) {
		t.Errorf("Expected ErrNetworkFailure on timeout, got %v", err)
	}
}

func TestFetchMalformedHTML(t *testing.T) {
	server := newPageServer(t, http.StatusOK, `<html><body><h1>Widget<img src="http://x/i.png"><div class="comment-text">خوب`)

	e := New(DefaultConfig(), nil)
	page, err := e.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch should handle malformed HTML gracefully: %v", err)
	}
	if page.ImageURL != "http://x/i.png" {
		t.Errorf("ImageURL = %q, want http://x/i.png", page.ImageURL)
	}
}

func TestFetchSetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(productPage))
	}))
	defer server.Close()

	e := New(DefaultConfig(), nil)
	if _, err := e.Fetch(context.Background(), server.URL); err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if gotUA != DefaultConfig().UserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultConfig().UserAgent)
	}
}
