package extractor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInspect(t *testing.T) {
	doc := parse(t, `<html><head><title>Inspect Me</title></head><body>`+
		`<nav>Home About</nav>`+
		`<div id="page" class="wrapper layout">`+
		`<article class="story"><h1>Headline</h1><p>`+strings.Repeat("a", 250)+`</p></article>`+
		`<ul id="comment-list" class="main"><li class="comment">One</li><li class="comment">Two</li></ul>`+
		`</div></body></html>`)
	before, err := doc.Html()
	require.NoError(t, err)

	report := Inspect(doc)

	require.Len(t, report.Containers, 1)
	assert.Equal(t, "article", report.Containers[0].Selector)
	assert.Equal(t, 258, report.Containers[0].CleanLength)
	assert.Equal(t, "story", report.Containers[0].Classes)
	assert.Equal(t, 100, len(report.Containers[0].Preview))

	require.NotNil(t, report.Recommendation)
	assert.Equal(t, "article", report.Recommendation.Selector)
	assert.Equal(t, 258, report.Recommendation.CleanLength)

	assert.Equal(t, []TitleInfo{
		{Selector: "h1", Text: "Headline"},
		{Selector: "title", Text: "Inspect Me"},
	}, report.Titles)

	assert.True(t, report.CommentList)
	assert.Equal(t, 2, report.CommentCount)
	assert.Equal(t, []ExclusionInfo{
		{Name: "Navigation", Selector: "nav", Count: 1},
		{Name: "Comments", Selector: "#comment-list", Count: 1},
	}, report.Exclusions)
	assert.Equal(t, []string{"page", "comment-list"}, report.IDs)
	assert.Equal(t, []string{"comment", "layout", "main", "story", "wrapper"}, report.Classes)

	after, err := doc.Html()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestInspect_NoRecommendationForThinPages(t *testing.T) {
	report := Inspect(parse(t, `<html><body><main>short</main></body></html>`))

	assert.Nil(t, report.Recommendation)
	assert.False(t, report.CommentList)
	require.Len(t, report.Containers, 1)
	assert.Equal(t, "main", report.Containers[0].Selector)
}
