package extractor

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// CommentMode controls how replies are ordered.
type CommentMode string

const (
	// CommentsHierarchical emits each top-level comment followed by its replies.
	CommentsHierarchical CommentMode = "hierarchical"
	// CommentsFlat emits every matched item in document order.
	CommentsFlat CommentMode = "flat"
)

// UnknownAuthor is used when a comment carries no author element.
const UnknownAuthor = "Unknown"

// ErrMalformedItem is reported for comment items that cannot be read.
var ErrMalformedItem = errors.New("malformed comment item")

const (
	commentListSelector   = "#comment-list.main"
	commentHeadings       = "h2, h3, h4, h5, h6"
	childCommentSelectors = "ul.child-comments, .child-comments, .comment-replies, ol.children"
	commentMetaSelectors  = `.author, .comment-author, .name, .user-name, .date, .comment-date, .time, .meta, time, button, [role="button"]`
)

var commentHeadingPattern = regexp.MustCompile(`(?i)comment|kommentar|feedback|discussion`)

var commentContainerSelectors = []string{
	".comments",
	".comment-section",
	".comments-section",
	"#comments",
	"#comment-section",
	`[class*="comment"]`,
	`[id*="comment"]`,
	".ms-commentsList",
	".ms-comments",
	`[class*="Comment"]`,
	".discussion",
	".feedback",
	".user-comments",
	"div[data-comments]",
}

var commentItemSelectors = []string{
	"li.comment",
	".comment",
	".comment-item",
	".user-comment",
	".ms-commentItem",
	`[class*="comment-"]`,
	`li[class*="comment"]`,
	`div[class*="comment"]`,
}

var (
	commentTextSelectors  = []string{".content", ".comment-content", ".comment-body", ".comment-text", "p"}
	commentAuthorLocators = Locators(0, ".comment-author", ".author", ".name", ".user-name", `[class*="author"]`)
	commentDateLocators   = Locators(0, ".comment-date", ".date", `[class*="date"]`)
	timestampAttributes   = []string{"datetime", "data-original"}
)

// Comment is one extracted comment.
type Comment struct {
	Text      string
	Author    string
	Timestamp string
	IsReply   bool
}

// findCommentContainer walks the container strategies in order and returns
// the first hit together with a label naming the strategy that found it.
func findCommentContainer(doc *goquery.Document) (*goquery.Selection, string) {
	if list := doc.Find(commentListSelector).First(); list.Length() > 0 {
		return list, commentListSelector
	}

	var byHeading *goquery.Selection
	doc.Find(commentHeadings).EachWithBreak(func(_ int, h *goquery.Selection) bool {
		if !commentHeadingPattern.MatchString(h.Text()) {
			return true
		}
		if parent := h.Parent(); parent.Length() > 0 {
			byHeading = parent
			return false
		}
		return true
	})
	if byHeading != nil {
		return byHeading, "heading"
	}

	for _, sel := range commentContainerSelectors {
		if c := doc.Find(sel).First(); c.Length() > 0 {
			return c, sel
		}
	}
	return nil, ""
}

func findCommentItems(container *goquery.Selection) (*goquery.Selection, string) {
	for _, sel := range commentItemSelectors {
		if items := container.Find(sel); items.Length() > 0 {
			return items, sel
		}
	}
	return nil, ""
}

// ExtractComments locates the comment thread of doc and returns its
// comments in the order selected by mode.
func (e *Extractor) ExtractComments(doc *goquery.Document) []Comment {
	comments := make([]Comment, 0)

	container, strategy := findCommentContainer(doc)
	if container == nil {
		e.log.Info().Msg("no comment container found")
		return comments
	}
	e.log.Info().Str("strategy", strategy).Msg("found comment container")

	items, itemSel := findCommentItems(container)
	if items == nil {
		e.log.Info().Msg("comment container has no comment items")
		return comments
	}
	e.log.Info().Str("selector", itemSel).Int("count", items.Length()).Msg("found comment elements")

	switch e.opts.CommentMode {
	case CommentsFlat:
		items.Each(func(i int, item *goquery.Selection) {
			reply := item.ParentsUntilSelection(container).Filter(childCommentSelectors).Length() > 0
			comments = e.appendItem(comments, item, reply, i)
		})
	default:
		top := items.FilterFunction(func(_ int, item *goquery.Selection) bool {
			ancestors := item.ParentsUntilSelection(container)
			return ancestors.Filter(itemSel).Length() == 0 && ancestors.Filter(childCommentSelectors).Length() == 0
		})
		e.log.Debug().Int("count", top.Length()).Msg("top-level comments")

		top.Each(func(i int, item *goquery.Selection) {
			comments = e.appendItem(comments, item, false, i)

			children := item.Find(childCommentSelectors).First()
			if children.Length() == 0 {
				return
			}
			replies := children.Find(itemSel)
			e.log.Debug().Int("comment", i+1).Int("replies", replies.Length()).Msg("found replies")
			replies.Each(func(j int, reply *goquery.Selection) {
				comments = e.appendItem(comments, reply, true, j)
			})
		})
	}

	e.log.Info().Int("count", len(comments)).Msg("extracted comments")
	return comments
}

func (e *Extractor) appendItem(comments []Comment, item *goquery.Selection, reply bool, index int) []Comment {
	c, ok, err := e.extractItem(item, reply)
	if err != nil {
		e.log.Warn().Err(err).Int("position", index+1).Bool("reply", reply).Msg("skipping comment")
		return comments
	}
	if !ok {
		return comments
	}
	return append(comments, c)
}

// extractItem reads one comment item. ok is false when the item has no
// usable text; err is set only when the item itself cannot be read.
func (e *Extractor) extractItem(item *goquery.Selection, reply bool) (c Comment, ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			c, ok, err = Comment{}, false, fmt.Errorf("%w: %v", ErrMalformedItem, r)
		}
	}()

	if item.Length() != 1 {
		return Comment{}, false, fmt.Errorf("%w: expected one node, got %d", ErrMalformedItem, item.Length())
	}
	if n := item.Get(0); n.Type != html.ElementNode {
		return Comment{}, false, fmt.Errorf("%w: not an element", ErrMalformedItem)
	}

	// Replies nested inside this item belong to their own entries.
	own := prune(item, childCommentSelectors)

	text, found := e.commentText(own)
	if !found {
		return Comment{}, false, nil
	}

	return Comment{
		Text:      text,
		Author:    commentAuthor(own),
		Timestamp: commentTimestamp(own),
		IsReply:   reply,
	}, true, nil
}

func (e *Extractor) commentText(own *goquery.Selection) (string, bool) {
	stripped := prune(own, commentMetaSelectors)
	minLen := e.opts.MinCommentLength

	if m, ok := Resolve(stripped, Locators(minLen, commentTextSelectors...), trimmedText); ok {
		return m.Text, true
	}
	if text := trimmedText(stripped); textLen(text) > minLen {
		return text, true
	}
	return "", false
}

func commentAuthor(own *goquery.Selection) string {
	if m, ok := Resolve(own, commentAuthorLocators, trimmedText); ok {
		return m.Text
	}
	return UnknownAuthor
}

// commentTimestamp prefers a machine-readable attribute of the first <time>
// element over its display text.
func commentTimestamp(own *goquery.Selection) string {
	if t := own.Find("time").First(); t.Length() > 0 {
		for _, attr := range timestampAttributes {
			if v := strings.TrimSpace(t.AttrOr(attr, "")); v != "" {
				return v
			}
		}
		return trimmedText(t)
	}
	if m, ok := Resolve(own, commentDateLocators, trimmedText); ok {
		return m.Text
	}
	return ""
}
