package scrape

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rotisserie/eris"
)

// chromeSelectors are page furniture removed before text extraction.
const chromeSelectors = "nav, footer, aside, header nav, form, [aria-hidden=true], [hidden]"

// blockSelectors end a line of visible text.
const blockSelectors = "p, div, section, article, li, tr, br, h1, h2, h3, h4, h5, h6, blockquote, pre, dd, dt"

var sanitizer = bluemonday.UGCPolicy()

// HTMLText returns the title and visible text of an HTML document. Scripts,
// styles and active content are dropped by the sanitizer; navigation and
// hidden elements are removed; block elements end a line.
func HTMLText(body []byte) (title, text string, err error) {
	raw, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return "", "", eris.Wrap(err, "scrape: parse html")
	}
	title = strings.TrimSpace(raw.Find("title").First().Text())

	raw.Find(chromeSelectors).Remove()
	inner, err := raw.Find("body").Html()
	if err != nil {
		return "", "", eris.Wrap(err, "scrape: render body")
	}
	if strings.TrimSpace(inner) == "" {
		inner, _ = raw.Html()
	}

	clean := sanitizer.Sanitize(inner)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(clean))
	if err != nil {
		return "", "", eris.Wrap(err, "scrape: parse sanitized html")
	}
	doc.Find(blockSelectors).Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return title, CollapseWhitespace(doc.Text()), nil
}
