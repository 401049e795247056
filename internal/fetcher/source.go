package fetcher

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// StdinSource names standard input as a document source.
const StdinSource = "-"

// CookieProvider supplies cookies to send with a request for rawURL.
type CookieProvider interface {
	CookiesFor(ctx context.Context, rawURL string) ([]*http.Cookie, error)
}

// Loader resolves document sources: "-" for stdin, a file path, a file://
// URL, or an http(s) URL.
type Loader struct {
	fetcher *Fetcher
	cookies CookieProvider
	stdin   io.Reader
}

func NewLoader(f *Fetcher, cookies CookieProvider) *Loader {
	return &Loader{fetcher: f, cookies: cookies, stdin: os.Stdin}
}

// WithStdin replaces the reader used for the "-" source.
func (l *Loader) WithStdin(r io.Reader) *Loader {
	l.stdin = r
	return l
}

// IsRemote reports whether source is fetched over HTTP.
func IsRemote(source string) bool {
	return strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://")
}

// Load returns the HTML of source and the location recorded for it.
func (l *Loader) Load(ctx context.Context, source string) (*Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch {
	case source == StdinSource:
		data, err := io.ReadAll(l.stdin)
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return &Page{HTML: string(data), URL: ""}, nil

	case IsRemote(source):
		var cookies []*http.Cookie
		if l.cookies != nil {
			found, err := l.cookies.CookiesFor(ctx, source)
			if err != nil {
				l.fetcher.log.Warn().Err(err).Str("url", source).Msg("could not read browser cookies")
			}
			cookies = found
		}
		page, err := l.fetcher.Fetch(ctx, source, cookies)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch %s: %w", source, err)
		}
		return page, nil

	case strings.HasPrefix(source, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("invalid file URL %s: %w", source, err)
		}
		return readFile(u.Path, source)

	default:
		abs, err := filepath.Abs(source)
		if err != nil {
			return nil, fmt.Errorf("invalid path %s: %w", source, err)
		}
		return readFile(abs, "file://"+filepath.ToSlash(abs))
	}
}

func readFile(path, location string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return &Page{HTML: string(data), URL: location}, nil
}
