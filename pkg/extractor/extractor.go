// Package extractor is the embeddable entry point: it loads documents from
// files, stdin or the web and runs the article and comment extraction on them.
package extractor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/byteowlz/artscrpr/internal/browser"
	"github.com/byteowlz/artscrpr/internal/config"
	core "github.com/byteowlz/artscrpr/internal/extractor"
	"github.com/byteowlz/artscrpr/internal/fetcher"
	"github.com/byteowlz/artscrpr/internal/processor"
)

type (
	Result  = core.Result
	Comment = core.Comment
	Report  = core.Report
)

type Extractor struct {
	cfg    *config.Config
	opts   core.Options
	loader *fetcher.Loader
	meta   *processor.MetadataExtractor
	log    zerolog.Logger
}

// Outcome is the result of one source in a batch run.
type Outcome struct {
	Source string
	Result *Result
	Err    error
}

func New(cfg *config.Config, logger zerolog.Logger) (*Extractor, error) {
	bt, err := browser.ParseBrowserType(cfg.Browser.Default)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Network.Timeout
	if cfg.Extraction.EnableJavaScript != "never" {
		timeout = max(timeout, cfg.Extraction.JSTimeout)
	}
	f := fetcher.New(fetcher.Options{
		Mode:            fetcher.ModeFromSetting(cfg.Extraction.EnableJavaScript),
		Timeout:         time.Duration(timeout) * time.Second,
		UserAgent:       cfg.Network.UserAgent,
		BrowserAgent:    cfg.Network.BrowserAgent,
		FollowRedirects: cfg.Network.FollowRedirects,
		MaxRedirects:    cfg.Network.MaxRedirects,
		SkipBanners:     cfg.Extraction.SkipCookieBanners,
		WaitForSelector: cfg.Extraction.WaitForSelector,
		ChromePath:      cfg.Browser.Paths["chrome"],
	}, logger)

	var cookies fetcher.CookieProvider
	if bt != browser.BrowserNone {
		cookies = browser.NewCookieExtractor(bt, browser.DomainFilter{
			Include: cfg.Browser.Cookies.Domains,
			Exclude: cfg.Browser.Cookies.Exclude,
		}, logger)
	}

	return &Extractor{
		cfg: cfg,
		opts: core.Options{
			MinContentLength: cfg.Extraction.MinContentLength,
			MinCommentLength: cfg.Extraction.MinCommentLength,
			CommentMode:      core.CommentMode(cfg.Extraction.CommentMode),
			BodyStrategy:     core.BodyStrategy(cfg.Extraction.BodyStrategy),
		},
		loader: fetcher.NewLoader(f, cookies),
		meta:   processor.NewMetadataExtractor(logger),
		log:    logger,
	}, nil
}

// WithLoader replaces the document loader, e.g. to read stdin from a buffer.
func (e *Extractor) WithLoader(l *fetcher.Loader) *Extractor {
	e.loader = l
	return e
}

func (e *Extractor) load(ctx context.Context, source string) (*goquery.Document, *fetcher.Page, error) {
	page, err := e.loader.Load(ctx, source)
	if err != nil {
		return nil, nil, err
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse HTML from %s: %w", source, err)
	}
	return doc, page, nil
}

// Extract loads source and extracts its article and comments.
func (e *Extractor) Extract(ctx context.Context, source string) (*Result, error) {
	log := e.log.With().Str("source", source).Logger()

	doc, page, err := e.load(ctx, source)
	if err != nil {
		return nil, err
	}

	opts := e.opts
	opts.Logger = &log
	result := core.New(opts).Extract(doc, page.URL)

	if e.cfg.Output.IncludeMetadata {
		meta, err := e.meta.Extract(page.HTML, page.URL)
		if err != nil {
			log.Warn().Err(err).Msg("metadata extraction failed")
		} else {
			result = result.WithMetadata(meta)
		}
	}

	log.Info().
		Str("title", result.Title).
		Int("content_chars", len([]rune(result.BodyText))).
		Int("comments", len(result.Comments)).
		Int("replies", result.ReplyCount()).
		Msg("extraction complete")
	return result, nil
}

// Inspect loads source and reports its page structure.
func (e *Extractor) Inspect(ctx context.Context, source string) (*Report, error) {
	doc, _, err := e.load(ctx, source)
	if err != nil {
		return nil, err
	}
	return core.Inspect(doc), nil
}

// ExtractAll extracts every source with at most concurrency documents in
// flight. Outcomes are returned in input order. With failFast the first
// failure cancels sources that have not finished yet.
func (e *Extractor) ExtractAll(ctx context.Context, sources []string, concurrency int, failFast bool) []Outcome {
	outcomes := make([]Outcome, len(sources))
	for i, src := range sources {
		outcomes[i].Source = src
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(concurrency, 1))
	delay := time.Duration(e.cfg.Network.Delay) * time.Second

	for i, src := range sources {
		if i > 0 && delay > 0 && fetcher.IsRemote(src) {
			select {
			case <-time.After(delay):
			case <-gctx.Done():
			}
		}
		if gctx.Err() != nil {
			outcomes[i].Err = gctx.Err()
			continue
		}

		g.Go(func() error {
			res, err := e.Extract(gctx, src)
			outcomes[i].Result, outcomes[i].Err = res, err
			if err != nil && failFast {
				return err
			}
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}
