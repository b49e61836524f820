package capture

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/sirupsen/logrus"

	"github.com/seo-optimizer/seo-inspector/analyzer"
)

// BrowserOptions controls the headless browser used for rendered captures
type BrowserOptions struct {
	// ControlURL connects to an already running browser instead of
	// launching one.
	ControlURL string
	BrowserBin string
	NoSandbox  bool
	Timeout    time.Duration
}

// BrowserFetcher captures the live DOM of a page after it has been rendered
// by headless Chrome, so script-injected tags are part of the snapshot.
// The browser is started on first use and shared by all captures.
type BrowserFetcher struct {
	opts BrowserOptions
	log  logrus.FieldLogger

	mu       sync.Mutex
	browser  *rod.Browser
	launcher *launcher.Launcher
}

// NewBrowserFetcher creates a BrowserFetcher
func NewBrowserFetcher(opts BrowserOptions, log logrus.FieldLogger) *BrowserFetcher {
	return &BrowserFetcher{opts: opts, log: log}
}

func (f *BrowserFetcher) connect() (*rod.Browser, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser != nil {
		return f.browser, nil
	}

	controlURL := f.opts.ControlURL
	if controlURL == "" {
		l := launcher.New().Headless(true).NoSandbox(f.opts.NoSandbox)
		if f.opts.BrowserBin != "" {
			l = l.Bin(f.opts.BrowserBin)
		}
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("failed to launch browser: %w", err)
		}
		f.launcher = l
		controlURL = u
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		if f.launcher != nil {
			f.launcher.Kill()
			f.launcher = nil
		}
		return nil, fmt.Errorf("failed to connect to browser: %w", err)
	}

	f.log.WithField("controlUrl", controlURL).Info("Browser connected")
	f.browser = browser
	return browser, nil
}

// Capture opens pageURL in a new tab, waits for the load event and snapshots
// the rendered document
func (f *BrowserFetcher) Capture(ctx context.Context, pageURL string) (*analyzer.PageSnapshot, error) {
	browser, err := f.connect()
	if err != nil {
		return nil, err
	}

	if f.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.opts.Timeout)
		defer cancel()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("failed to open tab: %w", err)
	}
	defer func() {
		if err := page.Close(); err != nil {
			f.log.WithError(err).Warn("Failed to close tab")
		}
	}()

	p := page.Context(ctx)
	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("failed waiting for page load: %w", err)
	}

	rendered, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("failed to read rendered HTML: %w", err)
	}

	finalURL := pageURL
	if info, err := p.Info(); err == nil && info.URL != "" {
		finalURL = info.URL
	}

	return FromHTML(strings.NewReader(rendered), finalURL)
}

// Close shuts the browser down
func (f *BrowserFetcher) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.browser == nil {
		return nil
	}
	err := f.browser.Close()
	f.browser = nil
	if f.launcher != nil {
		f.launcher.Kill()
		f.launcher = nil
	}
	return err
}
