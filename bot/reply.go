package bot

import (
	"fmt"

	"github.com/docutag/reviewbot/models"
)

// User-facing texts
const (
	GreetingText  = "سلام! لینک محصول را ارسال کنید."
	FailureText   = "خطایی در استخراج اطلاعات محصول رخ داد. لطفاً دوباره تلاش کنید."
	NoReviewsText = "برای این محصول هنوز نظری ثبت نشده است، بنابراین درصد رضایت قابل محاسبه نیست."
)

// Reply is one outbound chat message: plain text, or a photo by URL with a caption
type Reply struct {
	Text     string
	PhotoURL string
	Caption  string
}

// IsPhoto reports whether the reply carries an image
func (r Reply) IsPhoto() bool {
	return r.PhotoURL != ""
}

// FormatReply renders an outcome as the messages sent back to the user.
// Success yields a text and a photo with the same caption; any other
// outcome yields exactly one text and never exposes error detail.
func FormatReply(outcome models.Outcome) []Reply {
	switch outcome.Status {
	case models.StatusSucceeded:
		caption := Caption(outcome.Page.Title, outcome.Result.Percentage())
		return []Reply{
			{Text: caption},
			{PhotoURL: outcome.Page.ImageURL, Caption: caption},
		}
	case models.StatusNoReviews:
		return []Reply{{Text: NoReviewsText}}
	default:
		return []Reply{{Text: FailureText}}
	}
}

// Caption formats the product title and satisfaction percentage
func Caption(title string, percentage float64) string {
	return fmt.Sprintf("نام محصول: %s\n\nدرصد رضایت: %.2f%%", title, percentage)
}
