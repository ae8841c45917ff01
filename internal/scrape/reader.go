// Package scrape reads the visible text of web pages through a chain of
// readers: headless browser, plain HTTP, then the Jina reader.
package scrape

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sells-group/deep-research/internal/model"
)

// Default page-read limits.
const (
	DefaultTimeout  = 15 * time.Second
	DefaultMaxChars = 200_000
)

// Reader fetches a single URL and returns its visible text.
type Reader interface {
	Read(ctx context.Context, url string) (*model.Page, error)
	Name() string
	Supports(url string) bool
}

var (
	crlfRe       = regexp.MustCompile(`\r\n|\r`)
	hspaceRe     = regexp.MustCompile(`[ \t\f\v\x{00a0}]+`)
	lineEdgeRe   = regexp.MustCompile(`[ \t]*\n[ \t]*`)
	blankLinesRe = regexp.MustCompile(`\n{3,}`)
)

// CollapseWhitespace normalizes line endings, squeezes runs of horizontal
// whitespace to one space, trims spaces around newlines and caps blank runs
// at one empty line.
func CollapseWhitespace(s string) string {
	s = crlfRe.ReplaceAllString(s, "\n")
	s = hspaceRe.ReplaceAllString(s, " ")
	s = lineEdgeRe.ReplaceAllString(s, "\n")
	s = blankLinesRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// Truncate cuts s to at most maxChars characters. maxChars <= 0 keeps s.
func Truncate(s string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(s) <= maxChars {
		return s
	}
	n := 0
	for i := range s {
		if n == maxChars {
			return s[:i]
		}
		n++
	}
	return s
}
