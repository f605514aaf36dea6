package extractor

import (
	"strings"

	"golang.org/x/net/html"
)

// ReviewMarkerClass is the class that marks a customer review text block
const ReviewMarkerClass = "comment-text"

// findFirst returns the first element with the given tag in document order
func findFirst(n *html.Node, tag string) *html.Node {
	if n.Type == html.ElementNode && n.Data == tag {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, tag); found != nil {
			return found
		}
	}
	return nil
}

// extractTitle returns the whitespace-collapsed text of the first h1 element
func extractTitle(n *html.Node) string {
	h1 := findFirst(n, "h1")
	if h1 == nil {
		return ""
	}
	return extractTextFromNode(h1)
}

// extractImageSrc returns the src attribute of the first img element.
// Later images are never consulted, even when the first one has no src.
func extractImageSrc(n *html.Node) string {
	img := findFirst(n, "img")
	if img == nil {
		return ""
	}
	return strings.TrimSpace(attr(img, "src"))
}

// extractReviews collects the text of every element carrying class, in document order
func extractReviews(n *html.Node, class string) []string {
	reviews := []string{}
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.ElementNode && hasClass(n, class) {
			if text := extractTextFromNode(n); text != "" {
				reviews = append(reviews, text)
			}
			// Nested markers belong to this review
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return reviews
}

// extractTextFromNode concatenates the text of n and its descendants the way
// goquery's Text does, then collapses whitespace runs to single spaces.
// Inline markup inside a word does not split it.
func extractTextFromNode(n *html.Node) string {
	var b strings.Builder
	var f func(*html.Node)
	f = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			f(c)
		}
	}
	f(n)
	return collapseSpace(b.String())
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasClass reports whether the class attribute lists class
func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}
