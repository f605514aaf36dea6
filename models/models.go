package models

import "time"

// ProductPage is the structured data extracted from one product page.
// Title and ImageURL are non-empty whenever extraction succeeds; Reviews may be empty.
type ProductPage struct {
	URL      string   `json:"url"`
	Title    string   `json:"title"`
	ImageURL string   `json:"image_url"`
	Reviews  []string `json:"reviews"`
}

// SentimentResult is the aggregate satisfaction for a set of reviews
type SentimentResult struct {
	SatisfactionFraction float64 `json:"satisfaction_fraction"` // 0.0 to 1.0, mean positive-class probability
	ReviewCount          int     `json:"review_count"`
}

// Percentage returns the satisfaction fraction scaled to 0-100
func (r SentimentResult) Percentage() float64 {
	return r.SatisfactionFraction * 100
}

// OutcomeStatus identifies which terminal state a query reached
type OutcomeStatus string

const (
	StatusSucceeded OutcomeStatus = "succeeded"
	StatusFailed    OutcomeStatus = "failed"
	StatusNoReviews OutcomeStatus = "no_reviews"
)

// Outcome is the result of handling one query. Exactly one of the three
// shapes is populated depending on Status:
//   - StatusSucceeded: Page and Result
//   - StatusFailed: Err (and Stage)
//   - StatusNoReviews: Page
type Outcome struct {
	RequestID   string           `json:"request_id"`
	Status      OutcomeStatus    `json:"status"`
	Page        *ProductPage     `json:"page,omitempty"`
	Result      *SentimentResult `json:"result,omitempty"`
	Stage       string           `json:"stage,omitempty"` // "extract" or "score" for failures
	Reason      string           `json:"reason,omitempty"`
	Err         error            `json:"-"`
	CompletedAt time.Time        `json:"completed_at"`
}

// Succeeded builds a successful outcome
func Succeeded(page *ProductPage, result *SentimentResult) Outcome {
	return Outcome{Status: StatusSucceeded, Page: page, Result: result}
}

// Failed builds a failure outcome for the given stage
func Failed(stage string, err error) Outcome {
	return Outcome{Status: StatusFailed, Stage: stage, Reason: failureReason(stage), Err: err}
}

// failureReason is the client-safe description of a failed stage
func failureReason(stage string) string {
	switch stage {
	case "extract":
		return "product page could not be extracted"
	case "score":
		return "reviews could not be scored"
	default:
		return "query failed"
	}
}

// NoReviews builds the outcome for a page that has no review texts
func NoReviews(page *ProductPage) Outcome {
	return Outcome{Status: StatusNoReviews, Page: page}
}

// QueryRequest represents a request to score a product URL
type QueryRequest struct {
	URL string `json:"url"`
}
