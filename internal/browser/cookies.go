package browser

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/browserutils/kooky"
	_ "github.com/browserutils/kooky/browser/all" // register every supported browser
	"github.com/rs/zerolog"
)

type BrowserType string

const (
	BrowserNone     BrowserType = "none"
	BrowserAuto     BrowserType = "auto"
	BrowserChrome   BrowserType = "chrome"
	BrowserChromium BrowserType = "chromium"
	BrowserEdge     BrowserType = "edge"
	BrowserFirefox  BrowserType = "firefox"
	BrowserSafari   BrowserType = "safari"
	BrowserZen      BrowserType = "zen"
)

// autoOrder is the preference order when the browser is "auto"; the first
// browser holding cookies for the host wins.
var autoOrder = []BrowserType{BrowserChrome, BrowserFirefox, BrowserZen, BrowserEdge, BrowserChromium, BrowserSafari}

// ParseBrowserType validates a browser name from config or flags.
func ParseBrowserType(name string) (BrowserType, error) {
	bt := BrowserType(strings.ToLower(strings.TrimSpace(name)))
	switch bt {
	case "":
		return BrowserNone, nil
	case BrowserNone, BrowserAuto, BrowserChrome, BrowserChromium, BrowserEdge, BrowserFirefox, BrowserSafari, BrowserZen:
		return bt, nil
	}
	return "", fmt.Errorf("unknown browser %q", name)
}

// CookieExtractor reads cookies for a target host from local browser
// profiles so pages behind a login can be fetched as the user sees them.
type CookieExtractor struct {
	browserType BrowserType
	filter      DomainFilter
	log         zerolog.Logger
	now         func() time.Time
}

func NewCookieExtractor(browserType BrowserType, filter DomainFilter, logger zerolog.Logger) *CookieExtractor {
	return &CookieExtractor{
		browserType: browserType,
		filter:      filter,
		log:         logger,
		now:         time.Now,
	}
}

// CookiesFor returns the cookies the selected browser holds for the host of
// targetURL. Hosts rejected by the domain filter get none.
func (ce *CookieExtractor) CookiesFor(ctx context.Context, targetURL string) ([]*http.Cookie, error) {
	if ce.browserType == BrowserNone {
		return nil, nil
	}

	parsedURL, err := url.Parse(targetURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	host := parsedURL.Hostname()
	if !ce.filter.Allows(host) {
		ce.log.Debug().Str("host", host).Msg("host excluded from cookie injection")
		return nil, nil
	}

	byBrowser := make(map[BrowserType][]*http.Cookie)
	now := ce.now()
	var readErrs int

	for cookie, err := range kooky.TraverseCookies(ctx) {
		if err != nil {
			readErrs++
			continue
		}
		if !matchesDomain(cookie.Domain, host) || isExpired(cookie.Expires, now) {
			continue
		}
		bt := classifyBrowser(cookie.Browser.Browser(), cookie.Browser.FilePath())
		byBrowser[bt] = append(byBrowser[bt], &http.Cookie{
			Name:     cookie.Name,
			Value:    cookie.Value,
			Path:     cookie.Path,
			Domain:   cookie.Domain,
			Expires:  cookie.Expires,
			Secure:   cookie.Secure,
			HttpOnly: cookie.HttpOnly,
		})
	}
	if readErrs > 0 {
		ce.log.Debug().Int("errors", readErrs).Msg("some cookie stores could not be read")
	}

	cookies, from := pickBrowser(byBrowser, ce.browserType)
	ce.log.Debug().Str("host", host).Str("browser", string(from)).Int("count", len(cookies)).Msg("loaded browser cookies")
	return cookies, nil
}

func pickBrowser(byBrowser map[BrowserType][]*http.Cookie, want BrowserType) ([]*http.Cookie, BrowserType) {
	if want != BrowserAuto {
		return byBrowser[want], want
	}
	for _, bt := range autoOrder {
		if cookies := byBrowser[bt]; len(cookies) > 0 {
			return cookies, bt
		}
	}
	return nil, BrowserAuto
}

// classifyBrowser maps the browser name kooky reports, plus the store path,
// to a BrowserType. Zen stores are reported as Firefox.
func classifyBrowser(name, storePath string) BrowserType {
	name = strings.ToLower(name)
	storePath = strings.ToLower(storePath)

	switch {
	case strings.Contains(name, "zen") || (strings.Contains(name, "firefox") && strings.Contains(storePath, "zen")):
		return BrowserZen
	case strings.Contains(name, "firefox"):
		return BrowserFirefox
	case strings.Contains(name, "edge"):
		return BrowserEdge
	case strings.Contains(name, "chromium"):
		return BrowserChromium
	case strings.Contains(name, "chrome"):
		return BrowserChrome
	case strings.Contains(name, "safari"):
		return BrowserSafari
	}
	return BrowserType(name)
}

func matchesDomain(cookieDomain, targetHost string) bool {
	if cookieDomain == "" || targetHost == "" {
		return false
	}
	cookieDomain = strings.ToLower(strings.TrimPrefix(cookieDomain, "."))
	targetHost = strings.ToLower(targetHost)

	return cookieDomain == targetHost || strings.HasSuffix(targetHost, "."+cookieDomain)
}

func isExpired(expires, now time.Time) bool {
	return !expires.IsZero() && expires.Before(now)
}

// DomainFilter decides which hosts receive cookies. Patterns are an exact
// host, "*.example.com" (the domain and its subdomains) or "*".
type DomainFilter struct {
	Include []string
	Exclude []string
}

func (f DomainFilter) Allows(host string) bool {
	host = strings.ToLower(host)
	for _, pattern := range f.Exclude {
		if matchesPattern(pattern, host) {
			return false
		}
	}
	if len(f.Include) == 0 {
		return true
	}
	for _, pattern := range f.Include {
		if matchesPattern(pattern, host) {
			return true
		}
	}
	return false
}

func matchesPattern(pattern, host string) bool {
	pattern = strings.ToLower(strings.TrimSpace(pattern))
	switch {
	case pattern == "*":
		return true
	case strings.HasPrefix(pattern, "*."):
		return matchesDomain(pattern[2:], host)
	}
	return pattern == host
}
