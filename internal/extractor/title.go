package extractor

import "github.com/PuerkitoBio/goquery"

var titleLocators = Locators(0,
	"h1",
	"title",
	`[class*="title"]`,
	`[class*="headline"]`,
)

// ResolveTitle returns the trimmed text of the first title candidate with
// non-empty text, or "" when none qualifies.
func ResolveTitle(doc *goquery.Document) string {
	m, ok := Resolve(doc.Selection, titleLocators, trimmedText)
	if !ok {
		return ""
	}
	return m.Text
}
