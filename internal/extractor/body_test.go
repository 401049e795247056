package extractor

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(src))
	require.NoError(t, err)
	return doc
}

func TestResolveTitle(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected string
	}{
		{
			name:     "heading_wins",
			html:     `<html><head><title>Page</title></head><body><h1>  Main Heading </h1></body></html>`,
			expected: "Main Heading",
		},
		{
			name:     "empty_heading_falls_through_to_title",
			html:     `<html><head><title>Page Title</title></head><body><h1>   </h1></body></html>`,
			expected: "Page Title",
		},
		{
			name:     "class_containing_title",
			html:     `<body><div class="post-title"> Hello </div></body>`,
			expected: "Hello",
		},
		{
			name:     "class_containing_headline",
			html:     `<body><span class="main-headline">Big News</span></body>`,
			expected: "Big News",
		},
		{
			name:     "nothing_matches",
			html:     `<body><p>just text</p></body>`,
			expected: "",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ResolveTitle(parse(t, tc.html)))
		})
	}
}

func TestExtractBody_ShortArticleFallsBackAndDropsNav(t *testing.T) {
	para := strings.Repeat("abcde", 10)
	navText := strings.Repeat("menu-item ", 50)
	doc := parse(t, `<html><body><nav>`+navText+`</nav><article><p>`+para+`</p></article></body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.True(t, body.Fallback)
	assert.Equal(t, para, body.Text)
	assert.NotContains(t, body.Text, "menu-item")
}

func TestExtractBody_AcceptsFirstSubstantialCandidate(t *testing.T) {
	long := strings.Repeat("Lorem ipsum dolor sit amet. ", 8)
	doc := parse(t, `<html><body>
		<header>Site header</header>
		<article>
			<p>`+long+`</p>
			<script>var tracking = 1;</script>
			<div class="comments">A reader comment</div>
		</article>
		<footer>Copyright</footer>
	</body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.False(t, body.Fallback)
	assert.Equal(t, "article", body.Selector)
	assert.Equal(t, strings.TrimSpace(long), body.Text)
	assert.NotContains(t, body.Text, "tracking")
	assert.NotContains(t, body.Text, "A reader comment")
}

func TestExtractBody_SkipsCandidatesInsideCommentRegion(t *testing.T) {
	commentText := strings.Repeat("c", 150)
	mainText := strings.Repeat("m", 150)
	doc := parse(t, `<html><body>
		<div class="comments"><p class="comment-content">`+commentText+`</p></div>
		<div class="main-content">`+mainText+`</div>
	</body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.Equal(t, mainText, body.Text)
}

func TestExtractBody_ArticleInsideCommentNamedWrapper(t *testing.T) {
	articleText := strings.Repeat("Article words here. ", 12)
	doc := parse(t, `<html><body><div class="page has-comments">
		<article><p>`+articleText+`</p><div class="comment-list">Reader reply</div></article>
	</div></body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.False(t, body.Fallback)
	assert.Equal(t, "article", body.Selector)
	assert.Equal(t, strings.TrimSpace(articleText), body.Text)
}

func TestExtractBody_GenericCandidateInsideCommentRegionIsSkipped(t *testing.T) {
	commentText := strings.Repeat("c", 150)
	pageText := strings.Repeat("p", 150)
	doc := parse(t, `<html><body>
		<div id="comments"><div class="content">`+commentText+`</div></div>
		<div class="page">`+pageText+`</div>
	</body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.True(t, body.Fallback)
	assert.Equal(t, pageText, body.Text)
}

func TestExtractBody_Strategies(t *testing.T) {
	short := strings.Repeat("a", 150)
	long := strings.Repeat("b", 300)
	src := `<html><body><article><p>` + short + `</p></article><div class="page-content"><p>` + long + `</p></div></body></html>`

	first := ExtractBody(parse(t, src), DefaultMinContentLength, BodyFirstMatch)
	assert.Equal(t, short, first.Text)
	assert.Equal(t, "article", first.Selector)

	best := ExtractBody(parse(t, src), DefaultMinContentLength, BodyBestScore)
	assert.Equal(t, long, best.Text)
	assert.Equal(t, `[class*="content"]`, best.Selector)
}

func TestExtractBody_BestScoreBelowThresholdFallsBack(t *testing.T) {
	doc := parse(t, `<html><body><nav>menu</nav><article>tiny</article><p>loose text</p></body></html>`)

	body := ExtractBody(doc, DefaultMinContentLength, BodyBestScore)

	assert.True(t, body.Fallback)
	assert.Equal(t, "tinyloose text", body.Text)
}

func TestExtractBody_EmptyDocument(t *testing.T) {
	body := ExtractBody(parse(t, `<html><body></body></html>`), DefaultMinContentLength, BodyFirstMatch)

	assert.True(t, body.Fallback)
	assert.Equal(t, "", body.Text)
}

func TestExtractBody_NormalizesWhitespace(t *testing.T) {
	doc := parse(t, "<html><body><article>\n\t  First   line\n\n\nsecond\tline " +
		strings.Repeat("filler text ", 10) + "  end  \n</article></body></html>")

	body := ExtractBody(doc, DefaultMinContentLength, BodyFirstMatch)

	assert.NotContains(t, body.Text, "  ")
	assert.NotContains(t, body.Text, "\n")
	assert.NotContains(t, body.Text, "\t")
	assert.Equal(t, strings.TrimSpace(body.Text), body.Text)
	assert.True(t, strings.HasPrefix(body.Text, "First line second line filler"))
	assert.True(t, strings.HasSuffix(body.Text, "filler text end"))
}

func TestExtractBody_NeverContainsNoiseText(t *testing.T) {
	fixtures := []string{
		`<html><body><nav>Primary navigation links</nav><article><p>` + strings.Repeat("Body sentence. ", 10) +
			`</p><footer>Article footer note</footer></article><div id="comment-list">Reader thread text</div></body></html>`,
		`<html><body><header>Masthead banner</header><div>` + strings.Repeat("Loose words ", 5) +
			`</div><style>.x{color:red}</style><div class="comment-box">Comment body words</div></body></html>`,
	}

	for i, src := range fixtures {
		doc := parse(t, src)
		var noise []string
		doc.Find(CandidateNoise).Each(func(_ int, s *goquery.Selection) {
			if text := NormalizeWhitespace(s.Text()); text != "" {
				noise = append(noise, text)
			}
		})
		require.NotEmpty(t, noise, "fixture %d", i)

		for _, strategy := range []BodyStrategy{BodyFirstMatch, BodyBestScore} {
			body := ExtractBody(doc, DefaultMinContentLength, strategy)
			for _, n := range noise {
				assert.NotContains(t, body.Text, n, "fixture %d strategy %s", i, strategy)
			}
		}
	}
}

func TestResolve_SkipsMissingAndShortCandidates(t *testing.T) {
	doc := parse(t, `<body><div class="a">short</div><div class="b">long enough text</div></body>`)
	locs := []Locator{
		{Selector: ".missing"},
		{Selector: ".a", MinLength: 10},
		{Selector: ".b", MinLength: 10},
	}

	m, ok := Resolve(doc.Selection, locs, trimmedText)

	require.True(t, ok)
	assert.Equal(t, 2, m.Index)
	assert.Equal(t, "long enough text", m.Text)

	_, ok = Resolve(doc.Selection, locs[:2], trimmedText)
	assert.False(t, ok)
}
