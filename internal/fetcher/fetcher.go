package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeStatic Mode = "static"
	ModeJS     Mode = "javascript"
)

// ModeFromSetting maps the enable_javascript setting (auto, always, never)
// to a fetch mode.
func ModeFromSetting(setting string) Mode {
	switch setting {
	case "always":
		return ModeJS
	case "auto":
		return ModeAuto
	default:
		return ModeStatic
	}
}

const defaultMaxBodyBytes = 20 << 20

// ErrHTTPStatus is returned for responses with a status of 400 or above.
var ErrHTTPStatus = errors.New("HTTP error")

type Options struct {
	Mode            Mode
	Timeout         time.Duration
	UserAgent       string
	BrowserAgent    string
	FollowRedirects bool
	MaxRedirects    int
	MaxBodyBytes    int64
	SkipBanners     bool
	WaitForSelector string
	// ChromePath overrides the browser binary used for rendering.
	ChromePath string
	// IdleAfter is how long the network must stay quiet before a rendered
	// page is captured.
	IdleAfter time.Duration
}

// Page is a fetched HTML document.
type Page struct {
	HTML   string
	URL    string
	UsedJS bool
}

type Fetcher struct {
	opts   Options
	client *http.Client
	agents *UserAgentSelector
	log    zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaultMaxBodyBytes
	}
	if opts.IdleAfter <= 0 {
		opts.IdleAfter = 2 * time.Second
	}
	if opts.Mode == "" {
		opts.Mode = ModeStatic
	}

	client := &http.Client{Timeout: opts.Timeout}
	client.CheckRedirect = redirectPolicy(opts.FollowRedirects, opts.MaxRedirects)

	return &Fetcher{
		opts:   opts,
		client: client,
		agents: NewUserAgentSelector(),
		log:    logger,
	}
}

func redirectPolicy(follow bool, limit int) func(*http.Request, []*http.Request) error {
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if limit > 0 && len(via) >= limit {
			return fmt.Errorf("stopped after %d redirects", limit)
		}
		return nil
	}
}

// Fetch retrieves url according to the configured mode. In auto mode the
// static response is rendered in a browser only when it looks script-driven.
func (f *Fetcher) Fetch(ctx context.Context, url string, cookies []*http.Cookie) (*Page, error) {
	switch f.opts.Mode {
	case ModeJS:
		return f.fetchWithJS(ctx, url, cookies)
	case ModeStatic:
		return f.fetchStatic(ctx, url, cookies)
	}

	page, err := f.fetchStatic(ctx, url, cookies)
	if err != nil {
		return nil, err
	}
	if needsJSRendering(page.HTML) {
		f.log.Debug().Str("url", url).Msg("page looks script-driven, rendering in browser")
		return f.fetchWithJS(ctx, url, cookies)
	}
	return page, nil
}

func (f *Fetcher) fetchStatic(ctx context.Context, url string, cookies []*http.Cookie) (*Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	userAgent := f.opts.UserAgent
	if userAgent == "" {
		userAgent = f.agents.GetUserAgent(f.opts.BrowserAgent)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,de;q=0.8")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")

	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPStatus, resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	f.log.Debug().Str("url", url).Int("status", resp.StatusCode).Int("bytes", len(body)).Msg("fetched page")

	return &Page{
		HTML:   string(body),
		URL:    resp.Request.URL.String(),
		UsedJS: false,
	}, nil
}
