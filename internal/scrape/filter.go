package scrape

import (
	"net/url"
	"path"
	"strings"
)

// defaultSkipExtensions are file types no reader can turn into page text.
var defaultSkipExtensions = []string{
	".zip", ".gz", ".tar", ".dmg", ".exe", ".iso",
	".mp3", ".mp4", ".mov", ".avi", ".wav",
	".png", ".jpg", ".jpeg", ".gif", ".webp", ".svg",
}

// Filter rejects URLs that are not worth reading: non-HTTP schemes,
// unparseable URLs and binary downloads.
type Filter struct {
	extensions map[string]bool
}

// NewFilter creates a Filter for the given extensions (".zip", "mp4").
// Falls back to the default list if none are provided.
func NewFilter(extensions []string) *Filter {
	if len(extensions) == 0 {
		extensions = defaultSkipExtensions
	}
	f := &Filter{extensions: make(map[string]bool, len(extensions))}
	for _, e := range extensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if !strings.HasPrefix(e, ".") {
			e = "." + e
		}
		f.extensions[e] = true
	}
	return f
}

// IsExcluded reports whether rawURL should be skipped.
func (f *Filter) IsExcluded(rawURL string) bool {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return true
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return true
	}
	return f.extensions[strings.ToLower(path.Ext(u.Path))]
}
