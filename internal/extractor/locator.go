package extractor

import (
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// Locator is one candidate lookup in a priority list.
type Locator struct {
	Selector string
	// MinLength is the exclusive lower bound on the candidate's text length,
	// counted in characters. Zero accepts any non-empty text.
	MinLength int
}

// Match is the outcome of resolving a locator list.
type Match struct {
	Index   int
	Locator Locator
	Node    *goquery.Selection
	Text    string
}

// TextFunc reads the text a locator's acceptance test is applied to.
type TextFunc func(*goquery.Selection) string

// Locators builds a locator list sharing the same threshold.
func Locators(minLength int, selectors ...string) []Locator {
	locs := make([]Locator, 0, len(selectors))
	for _, sel := range selectors {
		locs = append(locs, Locator{Selector: sel, MinLength: minLength})
	}
	return locs
}

// Resolve tries the locators in order against root. For each locator only
// the first node in document order is considered; the first candidate whose
// text (as produced by read) is longer than the locator's MinLength wins.
func Resolve(root *goquery.Selection, locators []Locator, read TextFunc) (Match, bool) {
	for i, loc := range locators {
		node := root.Find(loc.Selector).First()
		if node.Length() == 0 {
			continue
		}
		text := read(node)
		if textLen(text) > loc.MinLength {
			return Match{Index: i, Locator: loc, Node: node, Text: text}, true
		}
	}
	return Match{Index: -1}, false
}

// Candidates returns every locator's first node without applying the
// acceptance test, in locator order.
func Candidates(root *goquery.Selection, locators []Locator, read TextFunc) []Match {
	var matches []Match
	for i, loc := range locators {
		node := root.Find(loc.Selector).First()
		if node.Length() == 0 {
			continue
		}
		matches = append(matches, Match{Index: i, Locator: loc, Node: node, Text: read(node)})
	}
	return matches
}

func trimmedText(s *goquery.Selection) string {
	return strings.TrimSpace(s.Text())
}

// prunedText reads the trimmed text of a deep copy of s with every
// descendant matching noise removed. s itself is never modified.
func prunedText(s *goquery.Selection, noise string) string {
	return trimmedText(prune(s, noise))
}

func prune(s *goquery.Selection, noise string) *goquery.Selection {
	clone := s.Clone()
	if noise != "" {
		clone.Find(noise).Remove()
	}
	return clone
}

// NormalizeWhitespace collapses every whitespace run to a single space and
// trims both ends.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func textLen(s string) int {
	return utf8.RuneCountInString(s)
}

func preview(s string, n int) string {
	if textLen(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
