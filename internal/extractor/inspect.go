package extractor

import (
	"slices"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	inspectMinCleanLength = 200
	inspectPreviewLength  = 100
	recommendPreview      = 300
	maxReportedIDs        = 20
	maxReportedClasses    = 30

	inspectNoise = `nav, footer, header, .sidebar, #comment-list, [id*="comment"], script, style`
)

var inspectContainerSelectors = []string{
	"article",
	"main",
	`[role="main"]`,
	".article",
	".post",
	`[class*="article"]`,
	`[class*="post"]`,
	`[id*="article"]`,
	`[id*="post"]`,
	`[id*="content"]`,
}

var inspectTitleSelectors = []string{"h1", `[class*="title"]`, "title"}

var inspectExclusions = []struct{ Name, Selector string }{
	{"Navigation", "nav"},
	{"Header", "header"},
	{"Footer", "footer"},
	{"Sidebar", ".sidebar"},
	{"Comments", "#comment-list"},
	{"Ads", `[class*="ad"]`},
}

// ContainerInfo describes one content container candidate.
type ContainerInfo struct {
	Selector    string `json:"selector"`
	TextLength  int    `json:"text_length"`
	CleanLength int    `json:"clean_length"`
	Children    int    `json:"children"`
	Classes     string `json:"classes"`
	ID          string `json:"id"`
	Preview     string `json:"preview"`
}

type TitleInfo struct {
	Selector string `json:"selector"`
	Text     string `json:"text"`
}

type ExclusionInfo struct {
	Name     string `json:"name"`
	Selector string `json:"selector"`
	Count    int    `json:"count"`
}

type Recommendation struct {
	Selector    string `json:"selector"`
	CleanLength int    `json:"clean_length"`
	Preview     string `json:"preview"`
}

// Report summarises a page's structure to help pick selectors by hand.
type Report struct {
	Containers     []ContainerInfo `json:"containers"`
	Titles         []TitleInfo     `json:"titles"`
	CommentList    bool            `json:"comment_list"`
	CommentCount   int             `json:"comment_count"`
	Exclusions     []ExclusionInfo `json:"exclusions"`
	IDs            []string        `json:"ids"`
	Classes        []string        `json:"classes"`
	Recommendation *Recommendation `json:"recommendation,omitempty"`
}

// Inspect builds a structure report for doc. It only reads the document.
func Inspect(doc *goquery.Document) *Report {
	r := &Report{}

	var best *ContainerInfo
	for _, sel := range inspectContainerSelectors {
		el := doc.Find(sel).First()
		if el.Length() == 0 {
			continue
		}
		raw := trimmedText(el)
		info := ContainerInfo{
			Selector:    sel,
			TextLength:  textLen(raw),
			CleanLength: textLen(prunedText(el, inspectNoise)),
			Children:    el.Children().Length(),
			Classes:     el.AttrOr("class", ""),
			ID:          el.AttrOr("id", ""),
			Preview:     preview(raw, inspectPreviewLength),
		}
		r.Containers = append(r.Containers, info)

		if info.CleanLength > inspectMinCleanLength && (best == nil || info.CleanLength > best.CleanLength) {
			b := info
			best = &b
		}
	}

	if best != nil {
		clean := prunedText(doc.Find(best.Selector).First(), inspectNoise)
		r.Recommendation = &Recommendation{
			Selector:    best.Selector,
			CleanLength: best.CleanLength,
			Preview:     preview(clean, recommendPreview),
		}
	}

	for _, sel := range inspectTitleSelectors {
		if el := doc.Find(sel).First(); el.Length() > 0 {
			r.Titles = append(r.Titles, TitleInfo{Selector: sel, Text: trimmedText(el)})
		}
	}

	if list := doc.Find(commentListSelector).First(); list.Length() > 0 {
		r.CommentList = true
		r.CommentCount = list.Find("li.comment").Length()
	}

	for _, ex := range inspectExclusions {
		if n := doc.Find(ex.Selector).Length(); n > 0 {
			r.Exclusions = append(r.Exclusions, ExclusionInfo{Name: ex.Name, Selector: ex.Selector, Count: n})
		}
	}

	r.IDs = uniqueIDs(doc, maxReportedIDs)
	r.Classes = sortedClasses(doc, maxReportedClasses)
	return r
}

func uniqueIDs(doc *goquery.Document, limit int) []string {
	seen := make(map[string]bool)
	var ids []string
	doc.Find("[id]").Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id == "" || seen[id] {
			return
		}
		seen[id] = true
		ids = append(ids, id)
	})
	if len(ids) > limit {
		ids = ids[:limit]
	}
	return ids
}

func sortedClasses(doc *goquery.Document, limit int) []string {
	seen := make(map[string]bool)
	var classes []string
	doc.Find("[class]").Each(func(_ int, s *goquery.Selection) {
		for _, cls := range strings.Fields(s.AttrOr("class", "")) {
			if !seen[cls] {
				seen[cls] = true
				classes = append(classes, cls)
			}
		}
	})
	slices.Sort(classes)
	if len(classes) > limit {
		classes = classes[:limit]
	}
	return classes
}
