// Package extractor pulls an article's title, body text and comment thread
// out of a parsed HTML document.
//
// Every stage works on ordered locator lists and reads the document without
// modifying it; destructive cleanup happens on deep copies.
package extractor

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"
)

// Options tunes an Extractor. Zero values fall back to the defaults.
type Options struct {
	MinContentLength int
	MinCommentLength int
	CommentMode      CommentMode
	BodyStrategy     BodyStrategy
	Logger           *zerolog.Logger
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		MinContentLength: DefaultMinContentLength,
		MinCommentLength: 0,
		CommentMode:      CommentsHierarchical,
		BodyStrategy:     BodyFirstMatch,
	}
}

type Extractor struct {
	opts Options
	log  zerolog.Logger
}

func New(opts Options) *Extractor {
	if opts.MinContentLength <= 0 {
		opts.MinContentLength = DefaultMinContentLength
	}
	if opts.MinCommentLength < 0 {
		opts.MinCommentLength = 0
	}
	if opts.CommentMode == "" {
		opts.CommentMode = CommentsHierarchical
	}
	if opts.BodyStrategy == "" {
		opts.BodyStrategy = BodyFirstMatch
	}

	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	return &Extractor{opts: opts, log: log}
}

// Extract runs title resolution, body extraction and comment extraction over
// doc and assembles the result.
func (e *Extractor) Extract(doc *goquery.Document, sourceURL string) *Result {
	title := ResolveTitle(doc)

	body := ExtractBody(doc, e.opts.MinContentLength, e.opts.BodyStrategy)
	if body.Fallback {
		e.log.Debug().Msg("no content candidate above threshold, using whole body")
	} else {
		e.log.Debug().Str("selector", body.Selector).Msg("content candidate accepted")
	}

	comments := e.ExtractComments(doc)

	return &Result{
		SourceURL: sourceURL,
		Title:     title,
		BodyText:  body.Text,
		Comments:  comments,
	}
}

// ExtractHTML parses r and extracts it.
func (e *Extractor) ExtractHTML(r io.Reader, sourceURL string) (*Result, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}
	return e.Extract(doc, sourceURL), nil
}
