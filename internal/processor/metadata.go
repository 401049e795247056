package processor

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"github.com/rs/zerolog"
)

var metaFields = []struct {
	key   string
	names []string
}{
	{"author", []string{"author", "article:author", "dc.creator"}},
	{"description", []string{"description", "og:description", "twitter:description"}},
	{"date", []string{"article:published_time", "date", "pubdate", "dc.date"}},
	{"modified", []string{"article:modified_time", "last-modified"}},
	{"keywords", []string{"keywords", "news_keywords"}},
	{"site_name", []string{"og:site_name", "application-name"}},
	{"image", []string{"og:image", "twitter:image"}},
	{"url", []string{"og:url"}},
}

type MetadataExtractor struct {
	log zerolog.Logger
}

func NewMetadataExtractor(logger zerolog.Logger) *MetadataExtractor {
	return &MetadataExtractor{log: logger}
}

// Extract collects page metadata from <meta> tags and readability's article
// analysis of rawHTML. Values from meta tags win over readability's guesses.
func (m *MetadataExtractor) Extract(rawHTML, pageURL string) (map[string]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	meta := metaTags(doc)

	if article, err := readability.FromReader(strings.NewReader(rawHTML), parseURL(pageURL)); err != nil {
		m.log.Debug().Err(err).Msg("readability could not analyse page")
	} else {
		setIfMissing(meta, "byline", article.Byline)
		setIfMissing(meta, "excerpt", article.Excerpt)
		setIfMissing(meta, "site_name", article.SiteName)
		if article.Byline != "" {
			setIfMissing(meta, "author", article.Byline)
		}
	}

	return meta, nil
}

func metaTags(doc *goquery.Document) map[string]string {
	meta := make(map[string]string)
	for _, field := range metaFields {
		if v := findMetaContent(doc, field.names); v != "" {
			meta[field.key] = v
		}
	}
	if _, ok := meta["url"]; !ok {
		if canonical := strings.TrimSpace(doc.Find(`link[rel="canonical"]`).AttrOr("href", "")); canonical != "" {
			meta["url"] = canonical
		}
	}
	return meta
}

func findMetaContent(doc *goquery.Document, names []string) string {
	for _, name := range names {
		for _, attr := range []string{"name", "property"} {
			sel := fmt.Sprintf(`meta[%s="%s"]`, attr, name)
			if v := strings.TrimSpace(doc.Find(sel).First().AttrOr("content", "")); v != "" {
				return v
			}
		}
	}
	return ""
}

func setIfMissing(meta map[string]string, key, value string) {
	value = strings.TrimSpace(value)
	if value == "" {
		return
	}
	if _, ok := meta[key]; !ok {
		meta[key] = value
	}
}

func parseURL(raw string) *url.URL {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil
	}
	return u
}
