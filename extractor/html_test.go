package extractor

import (
	"reflect"
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func parseDoc(t *testing.T, doc string) *html.Node {
	t.Helper()
	n, err := html.Parse(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("Failed to parse HTML: %v", err)
	}
	return n
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name     string
		htmlDoc  string
		expected string
	}{
		{
			name:     "first h1 wins",
			htmlDoc:  `<html><body><h1>First</h1><h1>Second</h1></body></html>`,
			expected: "First",
		},
		{
			name: "title tag and og:title are ignored",
			htmlDoc: `<!DOCTYPE html>
<html>
<head>
	<meta property="og:title" content="OG Title" />
	<title>Site Name</title>
</head>
<body>
	<h1>Product Heading</h1>
</body>
</html>`,
			expected: "Product Heading",
		},
		{
			name:     "h1 with nested elements",
			htmlDoc:  `<html><body><h1>Galaxy <span>S24</span> Ultra</h1></body></html>`,
			expected: "Galaxy S24 Ultra",
		},
		{
			name:     "inline markup inside a word",
			htmlDoc:  `<html><body><h1>Wid<b>get</b></h1></body></html>`,
			expected: "Widget",
		},
		{
			name:     "inner whitespace runs collapse",
			htmlDoc:  "<html><body><h1>Galaxy\n\t  <span>S24</span></h1></body></html>",
			expected: "Galaxy S24",
		},
		{
			name:     "whitespace trimming",
			htmlDoc:  "<html><body><h1>\n\t  گوشی موبایل  \n</h1></body></html>",
			expected: "گوشی موبایل",
		},
		{
			name:     "no h1",
			htmlDoc:  `<!DOCTYPE html><html><head><title>Only Title</title></head><body></body></html>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractTitle(parseDoc(t, tt.htmlDoc))
			if result != tt.expected {
				t.Errorf("extractTitle() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestExtractImageSrc(t *testing.T) {
	tests := []struct {
		name     string
		htmlDoc  string
		expected string
	}{
		{
			name:     "first img",
			htmlDoc:  `<html><body><img src="a.png"><img src="b.png"></body></html>`,
			expected: "a.png",
		},
		{
			name:     "img in head-less fragment",
			htmlDoc:  `<div><p><img src=" http://x/img.png "></p></div>`,
			expected: "http://x/img.png",
		},
		{
			name:     "first img has no src",
			htmlDoc:  `<html><body><img data-src="lazy.png"><img src="b.png"></body></html>`,
			expected: "",
		},
		{
			name:     "no img",
			htmlDoc:  `<html><body><h1>x</h1></body></html>`,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractImageSrc(parseDoc(t, tt.htmlDoc))
			if result != tt.expected {
				t.Errorf("extractImageSrc() = %q, expected %q", result, tt.expected)
			}
		})
	}
}

func TestExtractReviews(t *testing.T) {
	tests := []struct {
		name     string
		htmlDoc  string
		expected []string
	}{
		{
			name: "document order",
			htmlDoc: `<html><body>
				<div class="comment-text">اول</div>
				<section><p class="comment-text">دوم</p></section>
				<div class="comment-text">سوم</div>
			</body></html>`,
			expected: []string{"اول", "دوم", "سوم"},
		},
		{
			name:     "class list with other classes",
			htmlDoc:  `<div class="c-comment comment-text is-long">خوب بود</div>`,
			expected: []string{"خوب بود"},
		},
		{
			name:     "similar class names do not match",
			htmlDoc:  `<div class="comment-text-title">x</div><div class="comment">y</div>`,
			expected: []string{},
		},
		{
			name:     "empty reviews are dropped",
			htmlDoc:  `<div class="comment-text">   </div><div class="comment-text">خوب</div>`,
			expected: []string{"خوب"},
		},
		{
			name:     "nested markup is flattened",
			htmlDoc:  "<div class=\"comment-text\">\n<p>کیفیت</p>\n<p>عالی</p>\n</div>",
			expected: []string{"کیفیت عالی"},
		},
		{
			name:     "inline markup inside a word",
			htmlDoc:  `<div class="comment-text">خوب<b>ی</b> بود</div>`,
			expected: []string{"خوبی بود"},
		},
		{
			name:     "no reviews",
			htmlDoc:  `<html><body><p>nothing</p></body></html>`,
			expected: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractReviews(parseDoc(t, tt.htmlDoc), ReviewMarkerClass)
			if !reflect.DeepEqual(result, tt.expected) {
				t.Errorf("extractReviews() = %q, expected %q", result, tt.expected)
			}
		})
	}
}
