package processor

import (
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/byteowlz/artscrpr/internal/extractor"
)

type Format string

const (
	FormatJSON     Format = "json"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// ParseFormat validates an output format name.
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case FormatJSON, FormatText, FormatMarkdown:
		return f, nil
	}
	return "", fmt.Errorf("unknown output format %q (expected json, text or markdown)", name)
}

// Extension returns the file extension used for format in directory output.
func (f Format) Extension() string {
	switch f {
	case FormatText:
		return ".txt"
	case FormatMarkdown:
		return ".md"
	}
	return ".json"
}

const resultSeparator = "\n---\n\n"

type Renderer struct {
	Format    Format
	Indent    string
	LineWidth int
}

// Render writes results to w. In JSON a single result is written as an
// object and several as an array.
func (r Renderer) Render(w io.Writer, results []*extractor.Result) error {
	if r.Format == FormatJSON || r.Format == "" {
		var v any = results
		if results == nil {
			v = []*extractor.Result{}
		}
		if len(results) == 1 {
			v = results[0]
		}
		return r.encodeJSON(w, v)
	}

	for i, res := range results {
		if i > 0 {
			if _, err := io.WriteString(w, resultSeparator); err != nil {
				return err
			}
		}
		var out string
		if r.Format == FormatMarkdown {
			out = r.ToMarkdown(res)
		} else {
			out = r.ToText(res)
		}
		if _, err := io.WriteString(w, out); err != nil {
			return err
		}
	}
	return nil
}

func (r Renderer) encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if r.Indent != "" {
		enc.SetIndent("", r.Indent)
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// ToText renders a result as a console summary followed by the wrapped body
// text and the comment thread.
func (r Renderer) ToText(res *extractor.Result) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Title: %s\n", orNone(res.Title))
	if res.SourceURL != "" {
		fmt.Fprintf(&b, "URL: %s\n", res.SourceURL)
	}
	fmt.Fprintf(&b, "Content: %d characters\n", utf8.RuneCountInString(res.BodyText))
	fmt.Fprintf(&b, "Comments: %d (%d replies)\n", len(res.Comments), res.ReplyCount())
	for _, key := range sortedKeys(res.Metadata) {
		fmt.Fprintf(&b, "%s: %s\n", key, res.Metadata[key])
	}

	if res.BodyText != "" {
		b.WriteString("\n")
		b.WriteString(wrapText(res.BodyText, r.LineWidth, ""))
		b.WriteString("\n")
	}

	if len(res.Comments) > 0 {
		b.WriteString("\nComments\n========\n")
		n := 0
		for _, c := range res.Comments {
			var indent, label string
			if c.IsReply {
				indent = "    "
				label = "reply "
			} else {
				n++
				label = fmt.Sprintf("#%d ", n)
			}
			fmt.Fprintf(&b, "\n%s%s%s%s\n", indent, label, c.Author, dateSuffix(c.Timestamp))
			b.WriteString(wrapText(c.Text, r.LineWidth, indent))
			b.WriteString("\n")
		}
	}

	return b.String()
}

// ToMarkdown renders a result as a Markdown document.
func (r Renderer) ToMarkdown(res *extractor.Result) string {
	var b strings.Builder

	if res.Title != "" {
		fmt.Fprintf(&b, "# %s\n\n", res.Title)
	}
	if res.SourceURL != "" {
		fmt.Fprintf(&b, "**Source:** %s\n\n", res.SourceURL)
	}
	for _, key := range sortedKeys(res.Metadata) {
		fmt.Fprintf(&b, "**%s:** %s\n\n", key, res.Metadata[key])
	}

	if res.BodyText != "" {
		b.WriteString(wrapText(res.BodyText, r.LineWidth, ""))
		b.WriteString("\n\n")
	}

	if len(res.Comments) > 0 {
		fmt.Fprintf(&b, "## Comments (%d)\n\n", len(res.Comments))
		for _, c := range res.Comments {
			indent := ""
			if c.IsReply {
				indent = "  "
			}
			fmt.Fprintf(&b, "%s- **%s**%s: %s\n", indent, c.Author, dateSuffix(c.Timestamp), c.Text)
		}
		b.WriteString("\n")
	}

	return b.String()
}

func dateSuffix(ts string) string {
	if ts == "" {
		return ""
	}
	return " (" + ts + ")"
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// wrapText breaks text into lines of at most lineWidth characters, each
// prefixed with indent. Words longer than the width get a line of their own.
func wrapText(text string, lineWidth int, indent string) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	if lineWidth <= 0 {
		return indent + strings.Join(words, " ")
	}

	var b strings.Builder
	line := words[0]
	lineLen := utf8.RuneCountInString(line)
	for _, word := range words[1:] {
		wordLen := utf8.RuneCountInString(word)
		if lineLen+1+wordLen <= lineWidth {
			line += " " + word
			lineLen += 1 + wordLen
			continue
		}
		b.WriteString(indent + line + "\n")
		line, lineLen = word, wordLen
	}
	b.WriteString(indent + line)
	return b.String()
}
