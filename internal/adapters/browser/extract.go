package browser

import (
	"strings"

	pstr "postlens/internal/platform/strings"

	"github.com/PuerkitoBio/goquery"
)

// Selectors tried in priority order when pulling post text out of a rendered page
const (
	SelectorPostText = `[data-testid="tweetText"]`
	SelectorPost     = `[data-testid="tweet"]`
	SelectorArticle  = "article"
	SelectorBody     = "body"
)

// DefaultTextLimit caps the body fallback in runes
const DefaultTextLimit = 4000

// ExtractText pulls post text out of rendered html
// returns the text and the selector that produced it, empty when nothing matched
func ExtractText(html string, limit int) (string, string) {
	if limit <= 0 {
		limit = DefaultTextLimit
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", ""
	}

	if nodes := doc.Find(SelectorPostText); nodes.Length() > 0 {
		parts := make([]string, 0, nodes.Length())
		nodes.Each(func(_ int, s *goquery.Selection) {
			if t := strings.TrimSpace(s.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		return strings.Join(parts, "\n"), SelectorPostText
	}

	if art := doc.Find(SelectorArticle).First(); art.Length() > 0 {
		return strings.TrimSpace(art.Text()), SelectorArticle
	}

	body := doc.Find(SelectorBody).First()
	if body.Length() == 0 {
		return "", ""
	}
	body.Find("script, style, noscript").Remove()
	return pstr.Clip(strings.TrimSpace(body.Text()), limit), SelectorBody
}

// Cookie is one name=value pair to seed into the browser
type Cookie struct {
	Name  string
	Value string
}

// ParseCookies splits a "name=value; other=value" header style string
// pairs without a name are skipped, values keep any inner '='
func ParseCookies(s string) []Cookie {
	var out []Cookie
	for part := range strings.SplitSeq(s, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, value, _ := strings.Cut(part, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		out = append(out, Cookie{Name: name, Value: strings.TrimSpace(value)})
	}
	return out
}
