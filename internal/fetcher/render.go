package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
)

// maxIdleWait bounds the wait for network idle, in multiples of IdleAfter.
const maxIdleWait = 5

// dismissBannersJS clicks the first visible consent button it can find and
// reports whether it clicked anything.
const dismissBannersJS = `(() => {
  const selectors = [
    'button[id*="accept"]', 'button[class*="accept"]', '.cookie-accept',
    '[data-action="accept"]', '#onetrust-accept-btn-handler',
    'button[aria-label*="ccept"]', 'button[aria-label*="kzeptieren"]'
  ];
  for (const sel of selectors) {
    const el = document.querySelector(sel);
    if (el && el.offsetParent !== null) { el.click(); return true; }
  }
  const words = /^(accept|agree|allow|ok|akzeptieren|zustimmen)/i;
  for (const el of document.querySelectorAll('button')) {
    if (el.offsetParent !== null && words.test(el.innerText.trim())) { el.click(); return true; }
  }
  return false;
})()`

func (f *Fetcher) fetchWithJS(ctx context.Context, url string, cookies []*http.Cookie) (*Page, error) {
	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.UserAgent(f.userAgent()),
	)
	if f.opts.ChromePath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(f.opts.ChromePath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()

	chromeCtx, cancel := chromedp.NewContext(allocCtx)
	defer cancel()

	chromeCtx, cancelTimeout := context.WithTimeout(chromeCtx, f.opts.Timeout)
	defer cancelTimeout()

	idle := waitNetworkIdle(chromeCtx, f.opts.IdleAfter)

	tasks := chromedp.Tasks{network.Enable()}
	if len(cookies) > 0 {
		tasks = append(tasks, setCookies(url, cookies))
	}
	tasks = append(tasks, chromedp.Navigate(url))

	if f.opts.WaitForSelector != "" {
		tasks = append(tasks, chromedp.WaitVisible(f.opts.WaitForSelector))
	} else {
		tasks = append(tasks, chromedp.WaitReady("body"))
	}

	if err := chromedp.Run(chromeCtx, tasks); err != nil {
		return nil, fmt.Errorf("failed to render page: %w", err)
	}

	select {
	case <-idle:
	case <-time.After(maxIdleWait * f.opts.IdleAfter):
		f.log.Debug().Str("url", url).Msg("network never went idle, capturing page as is")
	}

	if f.opts.SkipBanners {
		var clicked bool
		if err := chromedp.Run(chromeCtx, chromedp.Evaluate(dismissBannersJS, &clicked)); err != nil {
			f.log.Debug().Err(err).Msg("cookie banner dismissal failed")
		} else if clicked {
			f.log.Debug().Msg("dismissed cookie banner")
		}
	}

	var html, location string
	if err := chromedp.Run(chromeCtx,
		chromedp.OuterHTML("html", &html),
		chromedp.Location(&location),
	); err != nil {
		return nil, fmt.Errorf("failed to capture rendered page: %w", err)
	}

	return &Page{HTML: html, URL: location, UsedJS: true}, nil
}

func (f *Fetcher) userAgent() string {
	if f.opts.UserAgent != "" {
		return f.opts.UserAgent
	}
	return f.agents.GetUserAgent(f.opts.BrowserAgent)
}

// setCookies installs cookies in the browser session before navigation.
func setCookies(url string, cookies []*http.Cookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			params := network.SetCookie(c.Name, c.Value).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HttpOnly)
			if c.Domain != "" {
				params = params.WithDomain(c.Domain)
			} else {
				params = params.WithURL(url)
			}
			if err := params.Do(ctx); err != nil {
				return fmt.Errorf("failed to set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

// waitNetworkIdle signals once no request has been in flight for idleAfter.
func waitNetworkIdle(ctx context.Context, idleAfter time.Duration) <-chan struct{} {
	idle := make(chan struct{})
	var active int32
	var mu sync.Mutex
	var timer *time.Timer
	var once sync.Once

	arm := func() {
		mu.Lock()
		defer mu.Unlock()
		if timer != nil {
			timer.Stop()
		}
		timer = time.AfterFunc(idleAfter, func() {
			if atomic.LoadInt32(&active) <= 0 {
				once.Do(func() { close(idle) })
			}
		})
	}

	chromedp.ListenTarget(ctx, func(ev any) {
		switch ev.(type) {
		case *network.EventRequestWillBeSent:
			atomic.AddInt32(&active, 1)
		case *network.EventLoadingFinished, *network.EventLoadingFailed:
			if atomic.AddInt32(&active, -1) <= 0 {
				arm()
			}
		}
	})

	return idle
}
