// Package browser reads the visible text of web pages through headless
// Chrome.
package browser

import (
	"context"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

const visibleTextJS = `() => document.body ? document.body.innerText : ""`

// Options configures the Chrome instance.
type Options struct {
	// Bin is the Chrome binary. Empty lets the launcher find or download one.
	Bin string
	// ControlURL connects to an already running Chrome instead of launching.
	ControlURL string
	UserAgent  string
}

// Result is the rendered state of a page after load.
type Result struct {
	Title      string
	FinalURL   string
	StatusCode int
	Text       string
}

// Reader owns one lazily started Chrome process shared by all reads. Each
// read runs in its own incognito context.
type Reader struct {
	opts Options

	mu       sync.Mutex
	browser  *rod.Browser
	launched *launcher.Launcher
}

// New creates a Reader. Chrome is started on the first Read.
func New(opts Options) *Reader {
	return &Reader{opts: opts}
}

func (r *Reader) ensureStarted() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true)
		if r.opts.Bin != "" {
			l = l.Bin(r.opts.Bin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, eris.Wrap(err, "browser: launch chrome")
		}
		controlURL = u
		r.launched = l
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		return nil, eris.Wrap(err, "browser: connect to chrome")
	}
	r.browser = b
	zap.L().Debug("browser: chrome connected", zap.String("control_url", controlURL))
	return b, nil
}

// Read navigates to url, waits for the load event and returns the page's
// visible text. timeout bounds navigation and extraction together.
func (r *Reader) Read(ctx context.Context, url string, timeout time.Duration) (*Result, error) {
	b, err := r.ensureStarted()
	if err != nil {
		return nil, err
	}

	incognito, err := b.Incognito()
	if err != nil {
		return nil, eris.Wrap(err, "browser: incognito context")
	}
	defer incognito.Close() //nolint:errcheck

	page, err := incognito.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, eris.Wrap(err, "browser: create page")
	}
	defer page.Close() //nolint:errcheck

	if timeout > 0 {
		page = page.Timeout(timeout)
	}
	page = page.Context(ctx)

	if r.opts.UserAgent != "" {
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.opts.UserAgent}); err != nil {
			return nil, eris.Wrap(err, "browser: set user agent")
		}
	}

	var status int
	var docResp proto.NetworkResponseReceived
	waitDoc := page.WaitEvent(&docResp)

	if err := page.Navigate(url); err != nil {
		return nil, eris.Wrapf(err, "browser: navigate %s", url)
	}
	waitDoc()
	if docResp.Response != nil {
		status = docResp.Response.Status
	}

	if err := page.WaitLoad(); err != nil {
		return nil, eris.Wrapf(err, "browser: wait load %s", url)
	}

	res := &Result{FinalURL: url, StatusCode: status}
	if info, err := page.Info(); err == nil {
		res.Title = info.Title
		res.FinalURL = info.URL
	}

	obj, err := page.Eval(visibleTextJS)
	if err != nil {
		return nil, eris.Wrapf(err, "browser: extract text %s", url)
	}
	res.Text = obj.Value.Str()

	return res, nil
}

// Close shuts down the browser and any launched Chrome process.
func (r *Reader) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.launched != nil {
		r.launched.Cleanup()
		r.launched = nil
	}
	return err
}
