package capture

import "postlens/internal/core/lexicon"

// Request is the capture service request body
type Request struct {
	URL            string `json:"url" validate:"required,url" example:"https://x.com/gopher/status/1234567890"`
	ScreenshotOnly bool   `json:"screenshotOnly" example:"false"`
}

// Response is the capture service reply body
type Response struct {
	Text             string  `json:"text"`
	ScreenshotBase64 string  `json:"screenshotBase64,omitempty"`
	AuthorHandle     *string `json:"authorHandle"`
	RequiresAuth     bool    `json:"requiresAuth"`
}

// Classify applies the auth wall check to a captured page
// a wall clears the text so nothing downstream mistakes it for post content
func Classify(lex *lexicon.Lexicon, resp Response) Response {
	if resp.RequiresAuth || lex.AuthWall(resp.Text) {
		resp.RequiresAuth = true
		resp.Text = ""
	}
	return resp
}
