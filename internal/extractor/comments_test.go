package extractor

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const threadedPage = `<html><body>
<article><p>Article text</p></article>
<ul id="comment-list" class="main">
  <li class="comment">
    <div class="name">Alice</div>
    <time datetime="2024-01-01T10:00:00Z">Jan 1</time>
    <div class="content">First comment</div>
  </li>
  <li class="comment">
    <div class="name">Bob</div>
    <div class="content">Second comment</div>
    <ul class="child-comments">
      <li class="comment">
        <div class="name">Carol</div>
        <time data-original="2024-01-02 09:00">yesterday</time>
        <div class="content">Reply to second</div>
      </li>
    </ul>
  </li>
  <li class="comment"><div class="content">Third comment</div></li>
</ul>
</body></html>`

func TestExtractComments_Hierarchical(t *testing.T) {
	e := New(Options{CommentMode: CommentsHierarchical})

	comments := e.ExtractComments(parse(t, threadedPage))

	expected := []Comment{
		{Text: "First comment", Author: "Alice", Timestamp: "2024-01-01T10:00:00Z"},
		{Text: "Second comment", Author: "Bob"},
		{Text: "Reply to second", Author: "Carol", Timestamp: "2024-01-02 09:00", IsReply: true},
		{Text: "Third comment", Author: UnknownAuthor},
	}
	assert.Equal(t, expected, comments)
}

func TestExtractComments_FlatMarksRepliesByAncestry(t *testing.T) {
	e := New(Options{CommentMode: CommentsFlat})

	comments := e.ExtractComments(parse(t, threadedPage))

	require.Len(t, comments, 4)
	var replies []string
	for _, c := range comments {
		if c.IsReply {
			replies = append(replies, c.Text)
		}
	}
	assert.Equal(t, []string{"Reply to second"}, replies)
	assert.Equal(t, "Second comment", comments[1].Text)
}

func TestExtractComments_ContainerStrategies(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected []Comment
	}{
		{
			name: "heading_parent",
			html: `<html><body><article><p>Story</p></article>
				<section>
					<h3>Kommentare (2)</h3>
					<div class="comment"><span class="author">Xavier</span><p>Nice article indeed</p></div>
					<div class="comment"><p>Another one here</p></div>
				</section></body></html>`,
			expected: []Comment{
				{Text: "Nice article indeed", Author: "Xavier"},
				{Text: "Another one here", Author: UnknownAuthor},
			},
		},
		{
			name: "generic_container",
			html: `<html><body><div id="comments">
					<div class="comment-item">
						<p class="comment-text">Hello there</p>
						<span class="comment-author">Dana</span>
						<span class="comment-date">2 days ago</span>
					</div>
				</div></body></html>`,
			expected: []Comment{
				{Text: "Hello there", Author: "Dana", Timestamp: "2 days ago"},
			},
		},
		{
			name: "metadata_stripped_from_text",
			html: `<ul id="comment-list" class="main"><li class="comment">
					<div class="comment-body">Great post <span class="meta">edited</span><button>Reply</button></div>
				</li></ul>`,
			expected: []Comment{
				{Text: "Great post", Author: UnknownAuthor},
			},
		},
		{
			name: "item_text_excludes_nested_replies",
			html: `<ul id="comment-list" class="main"><li class="comment">Top text<ul class="child-comments">` +
				`<li class="comment">Reply text</li></ul></li></ul>`,
			expected: []Comment{
				{Text: "Top text", Author: UnknownAuthor},
				{Text: "Reply text", Author: UnknownAuthor, IsReply: true},
			},
		},
		{
			name: "empty_items_dropped",
			html: `<ul id="comment-list" class="main">
					<li class="comment"><div class="name">Eve</div><time>now</time></li>
					<li class="comment"><div class="content">Real text</div></li>
				</ul>`,
			expected: []Comment{
				{Text: "Real text", Author: UnknownAuthor},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			comments := New(Options{}).ExtractComments(parse(t, tc.html))
			assert.Equal(t, tc.expected, comments)
		})
	}
}

func TestExtractComments_NoContainerYieldsEmptySlice(t *testing.T) {
	comments := New(Options{}).ExtractComments(parse(t, `<html><body><p>No thread here</p></body></html>`))

	require.NotNil(t, comments)
	assert.Empty(t, comments)
}

func TestExtractComments_MinCommentLength(t *testing.T) {
	doc := parse(t, `<ul id="comment-list" class="main">
		<li class="comment"><p>Short</p></li>
		<li class="comment"><p>This is long enough</p></li>
	</ul>`)

	comments := New(Options{MinCommentLength: 10}).ExtractComments(doc)

	require.Len(t, comments, 1)
	assert.Equal(t, "This is long enough", comments[0].Text)
}

func TestExtractItem_MalformedIsSkippedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := New(Options{Logger: &logger})
	doc := parse(t, `<ul id="comment-list" class="main"><li class="comment">just text</li></ul>`)

	textNode := doc.Find("li.comment").Contents()
	_, ok, err := e.extractItem(textNode, false)
	assert.False(t, ok)
	assert.ErrorIs(t, err, ErrMalformedItem)

	_, _, err = e.extractItem(doc.Find("ul, li"), false)
	assert.ErrorIs(t, err, ErrMalformedItem)

	kept := e.appendItem([]Comment{{Text: "earlier"}}, textNode, false, 0)
	assert.Equal(t, []Comment{{Text: "earlier"}}, kept)
	assert.Contains(t, buf.String(), `"message":"skipping comment"`)
	assert.Contains(t, buf.String(), `"position":1`)
}

func TestCommentTimestamp_Preference(t *testing.T) {
	testCases := []struct {
		name     string
		html     string
		expected string
	}{
		{"datetime_attribute", `<li><time datetime="2024-05-01" data-original="x">May</time></li>`, "2024-05-01"},
		{"data_original_attribute", `<li><time data-original="2024-05-02 08:00">May</time></li>`, "2024-05-02 08:00"},
		{"time_text", `<li><time> last week </time></li>`, "last week"},
		{"date_class", `<li><span class="post-date">Monday</span></li>`, "Monday"},
		{"absent", `<li><p>nothing</p></li>`, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			doc := parse(t, "<ul>"+tc.html+"</ul>")
			assert.Equal(t, tc.expected, commentTimestamp(doc.Find("li").First()))
		})
	}
}

func TestComment_JSONShape(t *testing.T) {
	top, err := Comment{Text: "a", Author: "b", Timestamp: "c"}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"a","author":"b","date":"c"}`, string(top))

	reply, err := Comment{Text: "a", Author: "b", IsReply: true}.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"text":"a","author":"b","date":"","type":"reply"}`, string(reply))

	var c Comment
	require.NoError(t, c.UnmarshalJSON(reply))
	assert.True(t, c.IsReply)
	assert.False(t, strings.Contains(string(top), "type"))
}
