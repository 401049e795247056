package extractor

import (
	"github.com/PuerkitoBio/goquery"
)

// BodyStrategy selects how content candidates are compared.
type BodyStrategy string

const (
	// BodyFirstMatch accepts the first candidate above the threshold.
	BodyFirstMatch BodyStrategy = "first"
	// BodyBestScore scores every candidate by cleaned text length and keeps
	// the longest.
	BodyBestScore BodyStrategy = "best"
)

// DefaultMinContentLength is the substance threshold a content candidate
// must exceed.
const DefaultMinContentLength = 100

const (
	commentRegionSelectors = `.comments, .comment-section, #comment-list, [class*="comment"], [id*="comment"]`
	structuralNoise        = "script, style, noscript, nav, header, footer"

	// semanticContainers are trusted inside wrappers whose class or id merely
	// mentions comments, e.g. <div class="page has-comments">.
	semanticContainers = "article, main"

	// CandidateNoise is pruned from every content candidate.
	CandidateNoise = structuralNoise + ", " + commentRegionSelectors
	// FallbackNoise is pruned from the whole-document fallback.
	FallbackNoise = CandidateNoise + ", .sidebar, aside"
)

var contentSelectors = []string{
	"article",
	"main",
	`[class*="content"]`,
	`[class*="article"]`,
	`[id*="content"]`,
	".post-content",
	".entry-content",
}

// Body is the outcome of body extraction.
type Body struct {
	Text string
	// Selector is the winning candidate, empty for the fallback.
	Selector string
	Fallback bool
}

// ExtractBody picks the main content of doc. The document is never modified.
func ExtractBody(doc *goquery.Document, minLength int, strategy BodyStrategy) Body {
	locs := Locators(minLength, contentSelectors...)
	read := candidateText

	switch strategy {
	case BodyBestScore:
		var best Match
		found := false
		for _, m := range Candidates(doc.Selection, locs, read) {
			if !found || textLen(m.Text) > textLen(best.Text) {
				best, found = m, true
			}
		}
		if found && textLen(best.Text) > minLength {
			return Body{Text: NormalizeWhitespace(best.Text), Selector: best.Locator.Selector}
		}
	default:
		if m, ok := Resolve(doc.Selection, locs, read); ok {
			return Body{Text: NormalizeWhitespace(m.Text), Selector: m.Locator.Selector}
		}
	}

	return Body{Text: NormalizeWhitespace(fallbackText(doc)), Fallback: true}
}

// candidateText cleans a content candidate. A candidate that is itself noise
// or sits inside structural noise reads as empty so it can never be accepted.
// Inside a comment region only article and main elements are still read.
func candidateText(s *goquery.Selection) string {
	if s.Is(CandidateNoise) || s.ParentsFiltered(structuralNoise).Length() > 0 {
		return ""
	}
	if !s.Is(semanticContainers) && s.ParentsFiltered(commentRegionSelectors).Length() > 0 {
		return ""
	}
	return prunedText(s, CandidateNoise)
}

func fallbackText(doc *goquery.Document) string {
	root := doc.Find("body").First()
	if root.Length() == 0 {
		root = doc.Selection
	}
	return prunedText(root, FallbackNoise)
}
