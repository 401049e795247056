package fetcher

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	// spaMountSelectors match the empty mount points single-page apps render into.
	spaMountSelectors = `#root, #app, #__next, #__nuxt, [data-reactroot], [ng-app], [ng-version], [data-v-app]`

	thinBodyChars    = 1000
	heavyScriptCount = 5
	loadingPageChars = 2000
)

var jsRequiredPhrases = []string{"enable javascript", "javascript is required", "javascript is disabled"}

// needsJSRendering reports whether a statically fetched page is likely an
// empty shell that only fills in once its scripts run.
func needsJSRendering(html string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return false
	}

	shell := doc.Find("body").First().Clone()
	shell.Find("script, style, noscript").Remove()
	text := strings.Join(strings.Fields(shell.Text()), " ")

	if mount := doc.Find(spaMountSelectors).First(); mount.Length() > 0 && len(text) < thinBodyChars {
		return true
	}

	noscript := strings.ToLower(doc.Find("noscript").Text())
	for _, phrase := range jsRequiredPhrases {
		if strings.Contains(noscript, phrase) && len(text) < thinBodyChars {
			return true
		}
	}

	if strings.Contains(strings.ToLower(text), "loading") && len(html) < loadingPageChars {
		return true
	}

	return doc.Find("script").Length() > heavyScriptCount && len(text) < thinBodyChars
}
